package engagement

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/CITZN/CITZN-Backend/internal/district"
	"github.com/CITZN/CITZN-Backend/internal/utils"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// Handlers serves engagement endpoints. All routes are session-gated, so a
// userID is always present in the request context.
type Handlers struct {
	db  *gorm.DB
	res *district.Resolver
}

func NewHandlers(db *gorm.DB, res *district.Resolver) *Handlers {
	return &Handlers{db: db, res: res}
}

type followRequest struct {
	BillID string `json:"bill_id"`
}

// FollowBill adds a bill to the caller's follow list. Idempotent: following
// twice is a no-op, not a conflict.
func (h *Handlers) FollowBill(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req followRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BillID == "" {
		http.Error(w, "bill_id is required", http.StatusBadRequest)
		return
	}

	follow := Follow{UserID: userID, BillID: req.BillID}
	if err := h.db.WithContext(r.Context()).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&follow).Error; err != nil {
		log.Printf("[FollowBill] user=%s bill=%s err=%v", userID, req.BillID, err)
		http.Error(w, "Failed to follow bill", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, follow)
}

// UnfollowBill removes a follow. Missing follows delete zero rows and still 204.
func (h *Handlers) UnfollowBill(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	billID := chi.URLParam(r, "billID")

	if err := h.db.WithContext(r.Context()).
		Where("user_id = ? AND bill_id = ?", userID, billID).
		Delete(&Follow{}).Error; err != nil {
		log.Printf("[UnfollowBill] user=%s bill=%s err=%v", userID, billID, err)
		http.Error(w, "Failed to unfollow bill", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListFollows returns the caller's follows, newest first.
func (h *Handlers) ListFollows(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var follows []Follow
	if err := h.db.WithContext(r.Context()).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&follows).Error; err != nil {
		http.Error(w, "Failed to list follows", http.StatusInternalServerError)
		return
	}
	if follows == nil {
		follows = []Follow{}
	}
	writeJSON(w, follows)
}

type voteRequest struct {
	BillID   string `json:"bill_id"`
	Position string `json:"position"`
	Zip      string `json:"zip"`
}

// CastVote records or updates the caller's position on a bill. The ZIP is
// resolved at vote time so the tally is scoped to a district; a heuristic
// resolution is accepted but its accuracy travels with the row.
func (h *Handlers) CastVote(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BillID == "" {
		http.Error(w, "bill_id is required", http.StatusBadRequest)
		return
	}
	if req.Position != "support" && req.Position != "oppose" {
		http.Error(w, "position must be support or oppose", http.StatusBadRequest)
		return
	}

	rec, err := h.res.Resolve(r.Context(), req.Zip)
	if err != nil {
		if errors.Is(err, district.ErrInvalidInput) {
			http.Error(w, "Missing or invalid zip parameter", http.StatusBadRequest)
			return
		}
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	vote := BillVote{
		UserID:          userID,
		BillID:          req.BillID,
		Position:        req.Position,
		Zip:             rec.PostalCode,
		UpperDistrict:   rec.UpperDistrict,
		LowerDistrict:   rec.LowerDistrict,
		FederalDistrict: rec.FederalDistrict,
		Accuracy:        string(rec.Accuracy),
	}
	if err := h.db.WithContext(r.Context()).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "bill_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"position", "zip", "upper_district", "lower_district", "federal_district", "accuracy", "updated_at"}),
		}).
		Create(&vote).Error; err != nil {
		log.Printf("[CastVote] user=%s bill=%s err=%v", userID, req.BillID, err)
		http.Error(w, "Failed to record vote", http.StatusInternalServerError)
		return
	}

	writeJSON(w, vote)
}

// DashboardOut summarizes the caller's engagement plus their district's
// overall activity.
type DashboardOut struct {
	District      district.Record `json:"district"`
	FollowCount   int64           `json:"follow_count"`
	VoteCount     int64           `json:"vote_count"`
	DistrictTally []TallyOut      `json:"district_tally"`
}

type TallyOut struct {
	BillID  string `json:"bill_id"`
	Support int64  `json:"support"`
	Oppose  int64  `json:"oppose"`
}

// Dashboard returns counts for the caller and support/oppose tallies for
// their upper-chamber district (the chamber the frontend leads with).
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	zip := r.URL.Query().Get("zip")
	rec, err := h.res.Resolve(r.Context(), zip)
	if err != nil {
		http.Error(w, "Missing or invalid zip parameter", http.StatusBadRequest)
		return
	}

	out := DashboardOut{District: rec, DistrictTally: []TallyOut{}}

	if err := h.db.WithContext(r.Context()).Model(&Follow{}).
		Where("user_id = ?", userID).Count(&out.FollowCount).Error; err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if err := h.db.WithContext(r.Context()).Model(&BillVote{}).
		Where("user_id = ?", userID).Count(&out.VoteCount).Error; err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	rows, err := h.db.WithContext(r.Context()).Raw(`
		SELECT bill_id,
		       COUNT(*) FILTER (WHERE position = 'support') AS support,
		       COUNT(*) FILTER (WHERE position = 'oppose')  AS oppose
		FROM engagement.bill_votes
		WHERE upper_district = ?
		GROUP BY bill_id
		ORDER BY COUNT(*) DESC
		LIMIT 20
	`, rec.UpperDistrict).Rows()
	if err != nil {
		log.Printf("[Dashboard] user=%s err=%v", userID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var t TallyOut
		if err := rows.Scan(&t.BillID, &t.Support, &t.Oppose); err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		out.DistrictTally = append(out.DistrictTally, t)
	}

	writeJSON(w, out)
}
