package district

import "errors"

// ErrInvalidInput is the only hard error that crosses the resolver boundary:
// malformed postal codes and out-of-range reverse queries. Everything else
// degrades to a lower-accuracy answer instead of failing.
var ErrInvalidInput = errors.New("invalid input")

// Accuracy labels how a resolution was derived.
type Accuracy string

const (
	AccuracyHigh   Accuracy = "high"   // exact static table entry
	AccuracyMedium Accuracy = "medium" // geocoding collaborator estimate
	AccuracyLow    Accuracy = "low"    // numeric band heuristic
)

// Source identifies the resolution path that produced a record.
type Source string

const (
	SourceTable     Source = "table"
	SourceGeocoded  Source = "geocoded"
	SourceHeuristic Source = "heuristic"
)

// Chamber names one side of the legislature for reverse lookups.
type Chamber string

const (
	ChamberUpper   Chamber = "upper"
	ChamberLower   Chamber = "lower"
	ChamberFederal Chamber = "federal"
)

// ParseChamber maps a URL/query token to a Chamber.
func ParseChamber(s string) (Chamber, bool) {
	switch Chamber(s) {
	case ChamberUpper, ChamberLower, ChamberFederal:
		return Chamber(s), true
	default:
		return "", false
	}
}

// Record is a resolved postal code: the districts covering it plus how much
// the caller should trust the answer. Low-accuracy records are advisory only;
// the UI decides whether to warn.
type Record struct {
	PostalCode      string   `json:"postal_code"`
	UpperDistrict   int      `json:"upper_district"`
	LowerDistrict   int      `json:"lower_district"`
	FederalDistrict int      `json:"federal_district,omitempty"` // 0 = unknown
	Accuracy        Accuracy `json:"accuracy"`
	Source          Source   `json:"source"`
}

// Candidate wraps a Record for postal codes that span district boundaries.
// Exactly one candidate per postal code is primary; Resolve returns that one
// so single-value callers stay deterministic.
type Candidate struct {
	Record
	IsPrimary bool `json:"is_primary"`
}

// Ranges holds the valid district numbering for the jurisdiction. Districts
// are numbered 1..Max per chamber; anything outside is rejected and replaced
// by the heuristic fallback.
type Ranges struct {
	UpperMax   int `yaml:"upper_max"`
	LowerMax   int `yaml:"lower_max"`
	FederalMax int `yaml:"federal_max"`
}

// MaxFor returns the configured upper bound for a chamber.
func (r Ranges) MaxFor(c Chamber) int {
	switch c {
	case ChamberUpper:
		return r.UpperMax
	case ChamberLower:
		return r.LowerMax
	case ChamberFederal:
		return r.FederalMax
	}
	return 0
}

// valid reports whether a record's district numbers all fall inside the
// configured ranges. FederalDistrict is optional, so zero passes.
func (r Ranges) valid(rec Record) bool {
	if rec.UpperDistrict < 1 || rec.UpperDistrict > r.UpperMax {
		return false
	}
	if rec.LowerDistrict < 1 || rec.LowerDistrict > r.LowerMax {
		return false
	}
	if rec.FederalDistrict != 0 && (rec.FederalDistrict < 0 || rec.FederalDistrict > r.FederalMax) {
		return false
	}
	return true
}
