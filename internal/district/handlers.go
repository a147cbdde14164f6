package district

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func addServerTiming(w http.ResponseWriter, kv ...[2]string) {
	if len(kv) == 0 {
		return
	}
	val := ""
	for i, p := range kv {
		if i > 0 {
			val += ", "
		}
		val += fmt.Sprintf("%s;dur=%s", p[0], p[1])
	}
	w.Header().Add("Server-Timing", val)
}

func addCacheHeaders(w http.ResponseWriter, maxAgeSeconds, swrSeconds int) {
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d, stale-while-revalidate=%d", maxAgeSeconds, swrSeconds))
	w.Header().Set("Vary", "Accept-Encoding")
}

func addNoStore(w http.ResponseWriter) {
	// Prevent browser/CDN from pinning a best-effort guess
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Vary", "Accept-Encoding")
}

// Handlers carries the resolver and (optional) DB handle for the HTTP
// surface. DB-backed endpoints degrade to empty results when db is nil.
type Handlers struct {
	res *Resolver
	db  *gorm.DB
}

func NewHandlers(res *Resolver, db *gorm.DB) *Handlers {
	return &Handlers{res: res, db: db}
}

const (
	cdnTTLHighAccuracy = 3600
	swrSeconds         = 86400
)

// GetDistrictByZip resolves a ZIP to its primary district record.
// High-accuracy answers are CDN-cacheable; heuristic guesses are not.
func (h *Handlers) GetDistrictByZip(w http.ResponseWriter, r *http.Request) {
	zip := chi.URLParam(r, "zip")
	t0 := time.Now()

	rec, err := h.res.Resolve(r.Context(), zip)
	if err != nil {
		http.Error(w, "Missing or invalid zip parameter", http.StatusBadRequest)
		return
	}

	resolveDurationMs.Observe(float64(time.Since(t0).Milliseconds()))
	addServerTiming(w, [2]string{"resolve", fmt.Sprintf("%d", time.Since(t0).Milliseconds())})
	w.Header().Set("X-Accuracy", string(rec.Accuracy))
	if rec.Accuracy == AccuracyHigh {
		addCacheHeaders(w, cdnTTLHighAccuracy, swrSeconds)
	} else {
		addNoStore(w)
	}
	writeJSON(w, rec)
}

// GetDistrictCandidates returns every candidate district set for a ZIP,
// for callers that care about boundary overlap. Exactly one is primary.
func (h *Handlers) GetDistrictCandidates(w http.ResponseWriter, r *http.Request) {
	zip := chi.URLParam(r, "zip")

	cands, err := h.res.ResolveMulti(r.Context(), zip)
	if err != nil {
		http.Error(w, "Missing or invalid zip parameter", http.StatusBadRequest)
		return
	}
	writeJSON(w, cands)
}

// GetZipsByDistrict is the reverse lookup: which table ZIPs belong to a
// district. Empty list means table coverage gap, not a missing district.
func (h *Handlers) GetZipsByDistrict(w http.ResponseWriter, r *http.Request) {
	chamber, ok := ParseChamber(chi.URLParam(r, "chamber"))
	if !ok {
		http.Error(w, "Unknown chamber", http.StatusBadRequest)
		return
	}
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		http.Error(w, "Invalid district number", http.StatusBadRequest)
		return
	}

	zips, err := h.res.ReverseResolve(chamber, number)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			http.Error(w, "District number out of range", http.StatusBadRequest)
			return
		}
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if zips == nil {
		zips = []string{}
	}
	writeJSON(w, zips)
}

// GetOfficialsByZip resolves the ZIP and lists the representatives for the
// resulting districts. Returns an empty array (not an error) when no
// database is configured — graceful degradation for resolver-only deploys.
func (h *Handlers) GetOfficialsByZip(w http.ResponseWriter, r *http.Request) {
	zip := chi.URLParam(r, "zip")

	rec, err := h.res.Resolve(r.Context(), zip)
	if err != nil {
		http.Error(w, "Missing or invalid zip parameter", http.StatusBadRequest)
		return
	}

	if h.db == nil {
		writeJSON(w, []RepresentativeOut{})
		return
	}

	t0 := time.Now()
	reps, err := findRepresentatives(r.Context(), h.db, rec)
	if err != nil {
		log.Printf("[GetOfficialsByZip] zip=%s err=%v", zip, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	addServerTiming(w, [2]string{"dbread", fmt.Sprintf("%d", time.Since(t0).Milliseconds())})
	w.Header().Set("X-Accuracy", string(rec.Accuracy))
	writeJSON(w, reps)
}

// FlushCache drops all cached resolutions. Mounted behind the admin token.
func (h *Handlers) FlushCache(w http.ResponseWriter, r *http.Request) {
	h.res.FlushCache(r.Context())
	log.Printf("[FlushCache] district cache flushed from=%s", r.RemoteAddr)
	w.WriteHeader(http.StatusNoContent)
}
