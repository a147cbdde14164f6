package district

import (
	"embed"
	"fmt"
	"os"
	"sort"

	"github.com/goccy/go-yaml"
)

//go:embed data/ca_districts.yaml
var defaultTableFS embed.FS

// tableDoc is the YAML shape of a district table file. The heuristic bands
// and the fallback ship in the same document as the entries so a jurisdiction
// is swapped out as one unit.
type tableDoc struct {
	Jurisdiction string      `yaml:"jurisdiction"`
	Ranges       Ranges      `yaml:"ranges"`
	Bands        []Band      `yaml:"bands"`
	Fallback     Fallback    `yaml:"fallback"`
	Entries      []tableItem `yaml:"entries"`
}

type tableItem struct {
	Zip     string `yaml:"zip"`
	Upper   int    `yaml:"upper"`
	Lower   int    `yaml:"lower"`
	Federal int    `yaml:"federal"`
	Primary bool   `yaml:"primary"`
}

// Table is the authoritative ZIP→district mapping plus everything derived
// from it. Immutable after load; safe for concurrent reads.
type Table struct {
	Jurisdiction string
	Ranges       Ranges
	Bands        []Band
	Fallback     Fallback

	entries map[string][]Candidate
	reverse map[Chamber]map[int][]string
}

// DefaultTable loads the embedded California table.
func DefaultTable() (*Table, error) {
	raw, err := defaultTableFS.ReadFile("data/ca_districts.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded table: %w", err)
	}
	return ParseTable(raw)
}

// LoadTable reads a district table YAML file from disk.
func LoadTable(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading table %s: %w", path, err)
	}
	return ParseTable(raw)
}

// ParseTable decodes and validates a table document, then builds the reverse
// index. Validation is strict: a bad table is a deploy-time error, not
// something to degrade around at request time.
func ParseTable(raw []byte) (*Table, error) {
	var doc tableDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding table: %w", err)
	}

	if doc.Ranges.UpperMax < 1 || doc.Ranges.LowerMax < 1 {
		return nil, fmt.Errorf("table %s: chamber ranges must be positive", doc.Jurisdiction)
	}

	t := &Table{
		Jurisdiction: doc.Jurisdiction,
		Ranges:       doc.Ranges,
		Bands:        doc.Bands,
		Fallback:     doc.Fallback,
		entries:      make(map[string][]Candidate, len(doc.Entries)),
	}

	if err := validateBands(doc.Bands, doc.Ranges); err != nil {
		return nil, err
	}
	if !doc.Ranges.valid(doc.Fallback.record("00000")) {
		return nil, fmt.Errorf("table %s: fallback districts out of range", doc.Jurisdiction)
	}

	for _, item := range doc.Entries {
		if !isZip5(item.Zip) {
			return nil, fmt.Errorf("table %s: bad zip %q", doc.Jurisdiction, item.Zip)
		}
		rec := Record{
			PostalCode:      item.Zip,
			UpperDistrict:   item.Upper,
			LowerDistrict:   item.Lower,
			FederalDistrict: item.Federal,
			Accuracy:        AccuracyHigh,
			Source:          SourceTable,
		}
		if !doc.Ranges.valid(rec) {
			return nil, fmt.Errorf("table %s: zip %s districts out of range", doc.Jurisdiction, item.Zip)
		}
		t.entries[item.Zip] = append(t.entries[item.Zip], Candidate{Record: rec, IsPrimary: item.Primary})
	}

	// Exactly one primary per zip. Single-candidate zips get it implicitly.
	for zip, cands := range t.entries {
		if len(cands) == 1 {
			cands[0].IsPrimary = true
			continue
		}
		primaries := 0
		for _, c := range cands {
			if c.IsPrimary {
				primaries++
			}
		}
		if primaries != 1 {
			return nil, fmt.Errorf("table %s: zip %s has %d primary candidates, want 1", doc.Jurisdiction, zip, primaries)
		}
	}

	t.buildReverse()
	return t, nil
}

// Lookup returns all candidates for a zip in stable order, primary first.
func (t *Table) Lookup(zip string) ([]Candidate, bool) {
	cands, ok := t.entries[zip]
	if !ok {
		return nil, false
	}
	out := make([]Candidate, len(cands))
	copy(out, cands)
	sort.SliceStable(out, func(i, j int) bool { return out[i].IsPrimary && !out[j].IsPrimary })
	return out, true
}

// Primary returns the single-value answer for a zip.
func (t *Table) Primary(zip string) (Record, bool) {
	cands, ok := t.entries[zip]
	if !ok {
		return Record{}, false
	}
	for _, c := range cands {
		if c.IsPrimary {
			return c.Record, true
		}
	}
	return Record{}, false
}

// Len reports the number of distinct postal codes in the table.
func (t *Table) Len() int { return len(t.entries) }

// ZipsFor returns the postal codes the table maps to a district. Only table
// entries feed the index; geocoded and heuristic resolutions are never
// authoritative enough to be reversed.
func (t *Table) ZipsFor(chamber Chamber, number int) []string {
	byNum, ok := t.reverse[chamber]
	if !ok {
		return nil
	}
	zips := byNum[number]
	out := make([]string, len(zips))
	copy(out, zips)
	return out
}

func (t *Table) buildReverse() {
	t.reverse = map[Chamber]map[int][]string{
		ChamberUpper:   {},
		ChamberLower:   {},
		ChamberFederal: {},
	}
	add := func(c Chamber, n int, zip string) {
		if n == 0 {
			return
		}
		t.reverse[c][n] = append(t.reverse[c][n], zip)
	}
	for zip, cands := range t.entries {
		seen := map[Chamber]map[int]bool{
			ChamberUpper:   {},
			ChamberLower:   {},
			ChamberFederal: {},
		}
		for _, c := range cands {
			for _, pair := range []struct {
				ch Chamber
				n  int
			}{
				{ChamberUpper, c.UpperDistrict},
				{ChamberLower, c.LowerDistrict},
				{ChamberFederal, c.FederalDistrict},
			} {
				if pair.n != 0 && !seen[pair.ch][pair.n] {
					seen[pair.ch][pair.n] = true
					add(pair.ch, pair.n, zip)
				}
			}
		}
	}
	for _, byNum := range t.reverse {
		for _, zips := range byNum {
			sort.Strings(zips)
		}
	}
}
