package district

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Representative is a seated official for one chamber seat. Rows are loaded
// by cmd/seed-districts from the legislative data provider's export; this
// service only reads them.
type Representative struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	FullName       string         `json:"full_name"`
	Party          string         `json:"party"`
	Chamber        string         `gorm:"index:idx_rep_seat;size:10" json:"chamber"` // upper | lower | federal
	District       int            `gorm:"index:idx_rep_seat" json:"district"`
	State          string         `gorm:"size:2" json:"state"`
	OfficeTitle    string         `json:"office_title"`
	PhotoOriginURL string         `json:"photo_origin_url"`
	URLs           pq.StringArray `gorm:"type:text[]" json:"urls"`
	EmailAddresses pq.StringArray `gorm:"type:text[]" json:"email_addresses"`
	LastSynced     time.Time      `json:"last_synced"`
}

func (Representative) TableName() string {
	return "districts.representatives"
}

// RepresentativeOut is the flattened DTO the frontend consumes.
type RepresentativeOut struct {
	ID             uuid.UUID `json:"id"`
	FullName       string    `json:"full_name"`
	Party          string    `json:"party"`
	Chamber        string    `json:"chamber"`
	District       int       `json:"district"`
	State          string    `json:"state"`
	OfficeTitle    string    `json:"office_title"`
	PhotoOriginURL string    `json:"photo_origin_url"`
	URLs           []string  `json:"urls"`
	EmailAddresses []string  `json:"email_addresses"`
}

// findRepresentatives loads the officials seated in the record's districts,
// one query across all three chambers.
func findRepresentatives(ctx context.Context, db *gorm.DB, rec Record) ([]RepresentativeOut, error) {
	q := db.WithContext(ctx).
		Where("chamber = ? AND district = ?", ChamberUpper, rec.UpperDistrict).
		Or("chamber = ? AND district = ?", ChamberLower, rec.LowerDistrict)
	if rec.FederalDistrict != 0 {
		q = q.Or("chamber = ? AND district = ?", ChamberFederal, rec.FederalDistrict)
	}

	var rows []Representative
	if err := db.WithContext(ctx).Where(q).Order("chamber, district, full_name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("representatives lookup failed: %w", err)
	}

	out := make([]RepresentativeOut, 0, len(rows))
	for _, rep := range rows {
		out = append(out, RepresentativeOut{
			ID:             rep.ID,
			FullName:       rep.FullName,
			Party:          rep.Party,
			Chamber:        rep.Chamber,
			District:       rep.District,
			State:          rep.State,
			OfficeTitle:    rep.OfficeTitle,
			PhotoOriginURL: rep.PhotoOriginURL,
			URLs:           []string(rep.URLs),
			EmailAddresses: []string(rep.EmailAddresses),
		})
	}
	return out, nil
}
