package geocoding

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Boundary stores one district polygon for point-in-polygon lookups.
// Rows are imported by cmd/seed-districts from Census TIGER shapefiles.
type Boundary struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Chamber    string    `gorm:"index;size:10" json:"chamber"` // upper | lower | federal
	District   int       `gorm:"index" json:"district"`
	State      string    `gorm:"index;size:2" json:"state"`

	// POLYGON or MULTIPOLYGON in WGS84 (SRID 4326)
	Geometry string `gorm:"type:geometry(Geometry,4326)" json:"-"`

	Source     string `json:"source"` // e.g., "census_tiger_2024"
	ImportedAt string `json:"imported_at"`
}

func (Boundary) TableName() string {
	return "districts.boundaries"
}

// Init migrates the boundary table. The schema is shared with the district
// package, so CREATE SCHEMA is idempotent here.
func Init(db *gorm.DB) {
	if err := db.Exec(`CREATE SCHEMA IF NOT EXISTS "districts"`).Error; err != nil {
		log.Fatal("Failed to ensure schema districts: ", err)
	}
	if err := db.AutoMigrate(&Boundary{}); err != nil {
		log.Fatal("Failed to auto-migrate boundaries", err)
	}
}

// Locator implements the resolver's geocoder contract: ZIP → lat/lng via the
// Google client, then lat/lng → district numbers via PostGIS containment.
// Both pieces are optional collaborators; a nil Locator disables the
// medium-accuracy step.
type Locator struct {
	client *Client
	db     *gorm.DB
}

// NewLocator returns nil when either collaborator is missing, so callers
// can wire it straight into the resolver option without a special case.
func NewLocator(client *Client, db *gorm.DB) *Locator {
	if client == nil || db == nil {
		return nil
	}
	return &Locator{client: client, db: db}
}

// DistrictsForZip resolves approximate districts for a ZIP. The answer is
// advisory: the resolver range-checks it and never prefers it to a table hit.
func (l *Locator) DistrictsForZip(ctx context.Context, zip string) (upper, lower, federal int, err error) {
	loc, err := l.client.GeocodeZip(ctx, zip)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("geocode zip %s: %w", zip, err)
	}

	query := `
		SELECT chamber, district
		FROM districts.boundaries
		WHERE ST_Contains(
			geometry,
			ST_SetSRID(ST_MakePoint($1, $2), 4326)
		)
	`

	rows, err := l.db.WithContext(ctx).Raw(query, loc.Lng, loc.Lat).Rows()
	if err != nil {
		return 0, 0, 0, fmt.Errorf("boundary lookup query failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var chamber string
		var district int
		if err := rows.Scan(&chamber, &district); err != nil {
			return 0, 0, 0, fmt.Errorf("scan boundary match: %w", err)
		}
		switch chamber {
		case "upper":
			upper = district
		case "lower":
			lower = district
		case "federal":
			federal = district
		}
	}
	if err := rows.Err(); err != nil {
		return 0, 0, 0, fmt.Errorf("boundary rows: %w", err)
	}

	if upper == 0 || lower == 0 {
		return 0, 0, 0, fmt.Errorf("no boundary coverage for zip %s (%.4f, %.4f)", zip, loc.Lat, loc.Lng)
	}

	log.Printf("[Locator] zip=%s city=%s upper=%d lower=%d federal=%d", zip, loc.City, upper, lower, federal)
	return upper, lower, federal, nil
}
