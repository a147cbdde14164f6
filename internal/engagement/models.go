package engagement

import (
	"time"

	"github.com/CITZN/CITZN-Backend/internal/db"
	"github.com/CITZN/CITZN-Backend/internal/utils"
	"github.com/google/uuid"
)

// Session rows are written by the external auth service; this backend only
// validates them to attach a user to engagement actions.
type Session struct {
	SessionID string    `gorm:"primaryKey" json:"-"`
	UserID    string    `gorm:"not null;index" json:"-"`
	ExpiresAt time.Time `gorm:"not null"`
}

// Follow marks a bill the user tracks on their dashboard.
type Follow struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    string    `gorm:"index:uniq_user_bill,unique" json:"user_id"`
	BillID    string    `gorm:"index:uniq_user_bill,unique" json:"bill_id"` // opaque provider ID
	CreatedAt time.Time `json:"created_at"`
}

// BillVote is a citizen's position on a bill. The resolved district is
// captured at vote time so tallies stay stable across redistricting and
// table updates.
type BillVote struct {
	ID              uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID          string    `gorm:"index:uniq_user_vote,unique" json:"user_id"`
	BillID          string    `gorm:"index:uniq_user_vote,unique" json:"bill_id"`
	Position        string    `gorm:"size:10" json:"position"` // support | oppose
	Zip             string    `gorm:"size:10" json:"zip"`
	UpperDistrict   int       `gorm:"index" json:"upper_district"`
	LowerDistrict   int       `json:"lower_district"`
	FederalDistrict int       `json:"federal_district"`
	Accuracy        string    `gorm:"size:10" json:"accuracy"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Session) TableName() string  { return "engagement.sessions" }
func (Follow) TableName() string   { return "engagement.follows" }
func (BillVote) TableName() string { return "engagement.bill_votes" }

// SessionStore is the gorm-backed middleware.SessionFetcher.
type SessionStore struct{}

func (SessionStore) FindSessionByID(id string) (utils.SessionData, error) {
	var s Session
	if err := db.DB.First(&s, "session_id = ?", id).Error; err != nil {
		return utils.SessionData{}, err
	}
	return utils.SessionData{UserID: s.UserID, ExpiresAt: s.ExpiresAt}, nil
}
