package district_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/CITZN/CITZN-Backend/internal/district"
)

const fixtureYAML = `
jurisdiction: test
ranges: { upper_max: 40, lower_max: 80, federal_max: 52 }
fallback: { upper: 6, lower: 7, federal: 6 }
bands:
  - { lo: 90000, hi: 91000, upper: 24, lower: 53, federal: 34 }
  - { lo: 95000, hi: 96000, upper: 6, lower: 7, federal: 6 }
entries:
  - { zip: "95814", upper: 6, lower: 7, federal: 6 }
  - { zip: "90210", upper: 24, lower: 51, federal: 32 }
  - { zip: "94303", upper: 13, lower: 23, federal: 16, primary: true }
  - { zip: "94303", upper: 13, lower: 24, federal: 15 }
`

func testTable(t *testing.T) *district.Table {
	t.Helper()
	table, err := district.ParseTable([]byte(fixtureYAML))
	if err != nil {
		t.Fatalf("ParseTable failed: %v", err)
	}
	return table
}

// countingStore wraps a Store and counts calls, so tests can assert that a
// cache hit short-circuits the rest of the pipeline.
type countingStore struct {
	inner district.Store
	gets  int
	sets  int
}

func (s *countingStore) Get(ctx context.Context, zip string) (district.Record, bool) {
	s.gets++
	return s.inner.Get(ctx, zip)
}

func (s *countingStore) Set(ctx context.Context, zip string, rec district.Record) {
	s.sets++
	s.inner.Set(ctx, zip, rec)
}

func (s *countingStore) Flush(ctx context.Context) { s.inner.Flush(ctx) }

// mockGeocoder counts calls and returns a fixed answer or error.
type mockGeocoder struct {
	calls   int
	upper   int
	lower   int
	federal int
	err     error
}

func (g *mockGeocoder) DistrictsForZip(ctx context.Context, zip string) (int, int, int, error) {
	g.calls++
	if g.err != nil {
		return 0, 0, 0, g.err
	}
	return g.upper, g.lower, g.federal, nil
}

func TestResolve_TableHit(t *testing.T) {
	res := district.New(testTable(t), district.NewMemStore(0, nil))

	rec, err := res.Resolve(context.Background(), "95814")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if rec.UpperDistrict != 6 || rec.LowerDistrict != 7 || rec.FederalDistrict != 6 {
		t.Errorf("unexpected districts: %+v", rec)
	}
	if rec.Accuracy != district.AccuracyHigh || rec.Source != district.SourceTable {
		t.Errorf("expected high/table, got %s/%s", rec.Accuracy, rec.Source)
	}

	// Repeated calls are idempotent.
	again, err := res.Resolve(context.Background(), "95814")
	if err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}
	if again != rec {
		t.Errorf("repeated resolve drifted: %+v vs %+v", again, rec)
	}
}

func TestResolve_InvalidInput(t *testing.T) {
	store := &countingStore{inner: district.NewMemStore(0, nil)}
	geo := &mockGeocoder{}
	res := district.New(testTable(t), store, district.WithGeocoder(geo))

	for _, zip := range []string{"", "1234", "123456", "XYZ12", "9581a", "95 14"} {
		_, err := res.Resolve(context.Background(), zip)
		if !errors.Is(err, district.ErrInvalidInput) {
			t.Errorf("zip %q: expected ErrInvalidInput, got %v", zip, err)
		}
	}

	// Validation failures must not touch the cache or the collaborator.
	if store.gets != 0 || store.sets != 0 {
		t.Errorf("cache touched on invalid input: gets=%d sets=%d", store.gets, store.sets)
	}
	if geo.calls != 0 {
		t.Errorf("geocoder called on invalid input: %d", geo.calls)
	}
}

func TestResolve_CacheHit(t *testing.T) {
	store := district.NewMemStore(0, nil)
	geo := &mockGeocoder{upper: 1, lower: 1, federal: 1}
	res := district.New(testTable(t), store, district.WithGeocoder(geo))

	// Seed the cache with a sentinel that disagrees with the table. If the
	// second resolve returns it, neither the table nor the geocoder ran.
	sentinel := district.Record{
		PostalCode:    "95814",
		UpperDistrict: 40,
		LowerDistrict: 80,
		Accuracy:      district.AccuracyMedium,
		Source:        district.SourceGeocoded,
	}
	store.Set(context.Background(), "95814", sentinel)

	rec, err := res.Resolve(context.Background(), "95814")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if rec != sentinel {
		t.Errorf("expected cached sentinel, got %+v", rec)
	}
	if geo.calls != 0 {
		t.Errorf("geocoder called despite cache hit: %d", geo.calls)
	}
}

func TestResolve_CachePopulatedOnMiss(t *testing.T) {
	store := &countingStore{inner: district.NewMemStore(0, nil)}
	res := district.New(testTable(t), store)

	if _, err := res.Resolve(context.Background(), "90210"); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if store.sets != 1 {
		t.Fatalf("expected 1 cache write, got %d", store.sets)
	}

	if _, err := res.Resolve(context.Background(), "90210"); err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}
	if store.sets != 1 {
		t.Errorf("cache rewritten on hit: sets=%d", store.sets)
	}
}

func TestResolve_GeocodedPath(t *testing.T) {
	geo := &mockGeocoder{upper: 15, lower: 28, federal: 18}
	res := district.New(testTable(t), district.NewMemStore(0, nil), district.WithGeocoder(geo))

	rec, err := res.Resolve(context.Background(), "95999")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if rec.Accuracy != district.AccuracyMedium || rec.Source != district.SourceGeocoded {
		t.Errorf("expected medium/geocoded, got %s/%s", rec.Accuracy, rec.Source)
	}
	if rec.UpperDistrict != 15 || rec.LowerDistrict != 28 || rec.FederalDistrict != 18 {
		t.Errorf("unexpected districts: %+v", rec)
	}
	if geo.calls != 1 {
		t.Errorf("expected 1 geocoder call, got %d", geo.calls)
	}
}

func TestResolve_GeocoderFailureFallsBackToHeuristic(t *testing.T) {
	geo := &mockGeocoder{err: fmt.Errorf("connection refused")}
	res := district.New(testTable(t), district.NewMemStore(0, nil), district.WithGeocoder(geo))

	rec, err := res.Resolve(context.Background(), "95999")
	if err != nil {
		t.Fatalf("Resolve must not fail on geocoder error: %v", err)
	}
	if rec.Accuracy != district.AccuracyLow || rec.Source != district.SourceHeuristic {
		t.Errorf("expected low/heuristic, got %s/%s", rec.Accuracy, rec.Source)
	}
	// 95999 sits in the 95000..96000 band.
	if rec.UpperDistrict != 6 || rec.LowerDistrict != 7 {
		t.Errorf("unexpected band districts: %+v", rec)
	}
}

func TestResolve_GeocoderOutOfRangeRejected(t *testing.T) {
	geo := &mockGeocoder{upper: 999, lower: 1, federal: 1}
	res := district.New(testTable(t), district.NewMemStore(0, nil), district.WithGeocoder(geo))

	rec, err := res.Resolve(context.Background(), "90999")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if rec.Source != district.SourceHeuristic {
		t.Errorf("out-of-range geocode must fall back to heuristic, got %s", rec.Source)
	}
}

func TestResolve_HeuristicAlwaysAnswers(t *testing.T) {
	res := district.New(testTable(t), district.NewMemStore(0, nil))
	ranges := testTable(t).Ranges

	// Includes out-of-band zips that only the fallback covers.
	for _, zip := range []string{"00000", "00501", "12345", "89999", "90000", "90999", "99999"} {
		rec, err := res.Resolve(context.Background(), zip)
		if err != nil {
			t.Fatalf("zip %s: resolve failed: %v", zip, err)
		}
		if rec.UpperDistrict < 1 || rec.UpperDistrict > ranges.UpperMax {
			t.Errorf("zip %s: upper %d out of range", zip, rec.UpperDistrict)
		}
		if rec.LowerDistrict < 1 || rec.LowerDistrict > ranges.LowerMax {
			t.Errorf("zip %s: lower %d out of range", zip, rec.LowerDistrict)
		}
	}
}

func TestResolve_BandBoundariesHalfOpen(t *testing.T) {
	res := district.New(testTable(t), district.NewMemStore(0, nil))

	// 90999 is the last zip of the first band; 91000 falls off it.
	in, _ := res.Resolve(context.Background(), "90999")
	out, _ := res.Resolve(context.Background(), "91000")
	if in.UpperDistrict != 24 {
		t.Errorf("90999 should hit band [90000,91000): got upper=%d", in.UpperDistrict)
	}
	if out.UpperDistrict == 24 {
		t.Errorf("91000 must not hit band [90000,91000)")
	}
}

func TestResolveMulti(t *testing.T) {
	res := district.New(testTable(t), district.NewMemStore(0, nil))

	cands, err := res.ResolveMulti(context.Background(), "94303")
	if err != nil {
		t.Fatalf("ResolveMulti failed: %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(cands))
	}
	primaries := 0
	for _, c := range cands {
		if c.IsPrimary {
			primaries++
		}
	}
	if primaries != 1 {
		t.Errorf("expected exactly 1 primary, got %d", primaries)
	}

	// The primary candidate is the one Resolve returns.
	rec, err := res.Resolve(context.Background(), "94303")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !cands[0].IsPrimary || cands[0].Record != rec {
		t.Errorf("primary candidate %+v != Resolve answer %+v", cands[0].Record, rec)
	}
}

func TestResolveMulti_NonTableZip(t *testing.T) {
	res := district.New(testTable(t), district.NewMemStore(0, nil))

	cands, err := res.ResolveMulti(context.Background(), "90500")
	if err != nil {
		t.Fatalf("ResolveMulti failed: %v", err)
	}
	if len(cands) != 1 || !cands[0].IsPrimary {
		t.Errorf("expected single primary candidate, got %+v", cands)
	}
	if cands[0].Source != district.SourceHeuristic {
		t.Errorf("expected heuristic candidate, got %s", cands[0].Source)
	}

	if _, err := res.ResolveMulti(context.Background(), "bogus"); !errors.Is(err, district.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestReverseResolve(t *testing.T) {
	res := district.New(testTable(t), district.NewMemStore(0, nil))

	zips, err := res.ReverseResolve(district.ChamberUpper, 6)
	if err != nil {
		t.Fatalf("ReverseResolve failed: %v", err)
	}
	if len(zips) != 1 || zips[0] != "95814" {
		t.Errorf("expected [95814], got %v", zips)
	}

	// In-range district with no table coverage is a valid empty answer.
	empty, err := res.ReverseResolve(district.ChamberUpper, 39)
	if err != nil {
		t.Fatalf("ReverseResolve failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no zips, got %v", empty)
	}

	if _, err := res.ReverseResolve(district.ChamberUpper, 999); !errors.Is(err, district.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for 999, got %v", err)
	}
	if _, err := res.ReverseResolve(district.ChamberUpper, 0); !errors.Is(err, district.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for 0, got %v", err)
	}
	if _, err := res.ReverseResolve(district.Chamber("senate"), 1); !errors.Is(err, district.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for unknown chamber, got %v", err)
	}
}

func TestResolve_GeocoderTimeoutBound(t *testing.T) {
	slow := &slowGeocoder{delay: 200 * time.Millisecond}
	res := district.New(testTable(t), district.NewMemStore(0, nil),
		district.WithGeocoder(slow),
		district.WithGeocodeTimeout(10*time.Millisecond))

	start := time.Now()
	rec, err := res.Resolve(context.Background(), "95999")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if rec.Source != district.SourceHeuristic {
		t.Errorf("expected heuristic after timeout, got %s", rec.Source)
	}
	if elapsed := time.Since(start); elapsed > 150*time.Millisecond {
		t.Errorf("resolve blocked past timeout: %s", elapsed)
	}
}

// slowGeocoder honors context cancellation after a delay.
type slowGeocoder struct {
	delay time.Duration
}

func (g *slowGeocoder) DistrictsForZip(ctx context.Context, zip string) (int, int, int, error) {
	select {
	case <-time.After(g.delay):
		return 1, 1, 1, nil
	case <-ctx.Done():
		return 0, 0, 0, ctx.Err()
	}
}
