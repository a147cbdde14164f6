package district

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"time"
)

var zip5Re = regexp.MustCompile(`^\d{5}$`)

func isZip5(s string) bool {
	return zip5Re.MatchString(s)
}

// Geocoder is the optional external collaborator. Any response is advisory:
// it is never trusted over an exact table hit, and failures are swallowed in
// favor of the heuristic.
type Geocoder interface {
	DistrictsForZip(ctx context.Context, zip string) (upper, lower, federal int, err error)
}

// Resolver maps postal codes to legislative districts. Construct with New;
// the table, cache and clock are injected so tests supply fixtures and
// control time. Safe for concurrent use: the table is immutable and the
// store guards itself.
type Resolver struct {
	table    *Table
	cache    Store
	geocoder Geocoder
	timeout  time.Duration
}

// Option tweaks a Resolver at construction.
type Option func(*Resolver)

// WithGeocoder enables the medium-accuracy geocoding step.
func WithGeocoder(g Geocoder) Option {
	return func(r *Resolver) { r.geocoder = g }
}

// WithGeocodeTimeout bounds the collaborator call. The default is 5s; the
// resolver never blocks past it — it falls through to the heuristic.
func WithGeocodeTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.timeout = d }
}

// New builds a resolver over a validated table and a cache store.
func New(table *Table, cache Store, opts ...Option) *Resolver {
	r := &Resolver{
		table:   table,
		cache:   cache,
		timeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Table exposes the underlying static table (read-only).
func (r *Resolver) Table() *Table { return r.table }

// Resolve maps a 5-digit postal code to its primary district record.
// It never fails for well-formed input: cache, then exact table entry, then
// geocoder, then the numeric band heuristic, which always answers.
func (r *Resolver) Resolve(ctx context.Context, zip string) (Record, error) {
	if !isZip5(zip) {
		return Record{}, fmt.Errorf("%w: postal code %q is not 5 digits", ErrInvalidInput, zip)
	}

	if rec, ok := r.cache.Get(ctx, zip); ok {
		cacheHitsTotal.Inc()
		return rec, nil
	}
	cacheMissesTotal.Inc()

	if rec, ok := r.table.Primary(zip); ok {
		resolutionsTotal.WithLabelValues(string(SourceTable)).Inc()
		r.cache.Set(ctx, zip, rec)
		return rec, nil
	}

	if rec, ok := r.geocode(ctx, zip); ok {
		resolutionsTotal.WithLabelValues(string(SourceGeocoded)).Inc()
		r.cache.Set(ctx, zip, rec)
		return rec, nil
	}

	rec := r.table.heuristic(zip)
	resolutionsTotal.WithLabelValues(string(SourceHeuristic)).Inc()
	r.cache.Set(ctx, zip, rec)
	return rec, nil
}

// geocode runs the collaborator step. Network errors, timeouts and
// out-of-range answers all report !ok; the caller degrades to the heuristic.
func (r *Resolver) geocode(ctx context.Context, zip string) (Record, bool) {
	if r.geocoder == nil {
		return Record{}, false
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	upper, lower, federal, err := r.geocoder.DistrictsForZip(ctx, zip)
	if err != nil {
		geocodeFailuresTotal.Inc()
		log.Printf("[Resolver] geocode zip=%s err=%v (falling back to heuristic)", zip, err)
		return Record{}, false
	}
	rec := Record{
		PostalCode:      zip,
		UpperDistrict:   upper,
		LowerDistrict:   lower,
		FederalDistrict: federal,
		Accuracy:        AccuracyMedium,
		Source:          SourceGeocoded,
	}
	if !r.table.Ranges.valid(rec) {
		geocodeFailuresTotal.Inc()
		log.Printf("[Resolver] geocode zip=%s returned out-of-range districts %d/%d/%d", zip, upper, lower, federal)
		return Record{}, false
	}
	return rec, true
}

// ResolveMulti returns every candidate district set for a postal code.
// Table zips that straddle a boundary return all recorded candidates with
// exactly one primary; anything else collapses to a single primary candidate
// from the normal Resolve path.
func (r *Resolver) ResolveMulti(ctx context.Context, zip string) ([]Candidate, error) {
	if !isZip5(zip) {
		return nil, fmt.Errorf("%w: postal code %q is not 5 digits", ErrInvalidInput, zip)
	}
	if cands, ok := r.table.Lookup(zip); ok {
		return cands, nil
	}
	rec, err := r.Resolve(ctx, zip)
	if err != nil {
		return nil, err
	}
	return []Candidate{{Record: rec, IsPrimary: true}}, nil
}

// ReverseResolve lists the postal codes the static table assigns to a
// district. An empty list is a valid answer — it only reflects gaps in table
// coverage, not the absence of the district.
func (r *Resolver) ReverseResolve(chamber Chamber, number int) ([]string, error) {
	max := r.table.Ranges.MaxFor(chamber)
	if max == 0 {
		return nil, fmt.Errorf("%w: unknown chamber %q", ErrInvalidInput, chamber)
	}
	if number < 1 || number > max {
		return nil, fmt.Errorf("%w: %s district %d outside 1..%d", ErrInvalidInput, chamber, number, max)
	}
	return r.table.ZipsFor(chamber, number), nil
}

// FlushCache drops every cached resolution. Admin-only surface.
func (r *Resolver) FlushCache(ctx context.Context) {
	r.cache.Flush(ctx)
}
