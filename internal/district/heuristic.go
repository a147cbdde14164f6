package district

import (
	"fmt"
	"sort"
	"strconv"
)

// Band maps a half-open numeric ZIP range [Lo, Hi) to approximate districts.
// Bands are configuration supplied with the table; the embedded defaults are
// California's and carry no authority outside that jurisdiction.
type Band struct {
	Lo      int `yaml:"lo"`
	Hi      int `yaml:"hi"`
	Upper   int `yaml:"upper"`
	Lower   int `yaml:"lower"`
	Federal int `yaml:"federal"`
}

// Fallback is the terminal guess when no band matches. The embedded default
// is the capital-area districts.
type Fallback struct {
	Upper   int `yaml:"upper"`
	Lower   int `yaml:"lower"`
	Federal int `yaml:"federal"`
}

func (f Fallback) record(zip string) Record {
	return Record{
		PostalCode:      zip,
		UpperDistrict:   f.Upper,
		LowerDistrict:   f.Lower,
		FederalDistrict: f.Federal,
		Accuracy:        AccuracyLow,
		Source:          SourceHeuristic,
	}
}

// validateBands rejects overlapping or out-of-range bands at load time.
// Half-open ranges with first-match-wins makes boundary ties impossible,
// but overlaps would still make resolution order-dependent, so they are
// configuration errors.
func validateBands(bands []Band, ranges Ranges) error {
	sorted := make([]Band, len(bands))
	copy(sorted, bands)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Lo < sorted[j].Lo })

	for i, b := range sorted {
		if b.Lo < 0 || b.Hi > 100000 || b.Lo >= b.Hi {
			return fmt.Errorf("band [%d,%d) is not a valid zip range", b.Lo, b.Hi)
		}
		rec := Record{PostalCode: "00000", UpperDistrict: b.Upper, LowerDistrict: b.Lower, FederalDistrict: b.Federal}
		if !ranges.valid(rec) {
			return fmt.Errorf("band [%d,%d) districts out of range", b.Lo, b.Hi)
		}
		if i > 0 && sorted[i-1].Hi > b.Lo {
			return fmt.Errorf("bands [%d,%d) and [%d,%d) overlap", sorted[i-1].Lo, sorted[i-1].Hi, b.Lo, b.Hi)
		}
	}
	return nil
}

// heuristic derives an approximate record from the numeric value of the zip.
// This step always succeeds; it is the guaranteed floor under every
// resolution, trading correctness for availability.
func (t *Table) heuristic(zip string) Record {
	n, err := strconv.Atoi(zip)
	if err != nil {
		// Callers validate first; treat as no-band-matched if they didn't.
		return t.Fallback.record(zip)
	}
	for _, b := range t.Bands {
		if n >= b.Lo && n < b.Hi {
			return Record{
				PostalCode:      zip,
				UpperDistrict:   b.Upper,
				LowerDistrict:   b.Lower,
				FederalDistrict: b.Federal,
				Accuracy:        AccuracyLow,
				Source:          SourceHeuristic,
			}
		}
	}
	return t.Fallback.record(zip)
}
