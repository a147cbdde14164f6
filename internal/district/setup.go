package district

import (
	"log"
	"os"
	"time"

	"github.com/CITZN/CITZN-Backend/internal/db"
)

// Init ensures the districts schema and tables exist. Call only when a
// database is connected; the resolver itself runs without one.
func Init() {
	if err := db.EnsureSchema(db.DB, "districts"); err != nil {
		log.Fatal("Failed to ensure schema districts: ", err)
	}

	if err := db.DB.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		log.Fatal("Failed to enable uuid-ossp extension:", err)
	}

	if err := db.DB.AutoMigrate(
		&Representative{},
	); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}
}

// NewFromEnv assembles the resolver the way production runs it:
//   - DISTRICT_TABLE_PATH overrides the embedded California table
//   - DISTRICT_CACHE_TTL overrides the 24h TTL (Go duration syntax)
//   - REDIS_HOST switches the cache from in-memory to redis
//
// The geocoder is passed in by the caller because it may need the DB handle.
func NewFromEnv(opts ...Option) (*Resolver, error) {
	var (
		table *Table
		err   error
	)
	if path := os.Getenv("DISTRICT_TABLE_PATH"); path != "" {
		table, err = LoadTable(path)
		log.Printf("[district] table source=%s", path)
	} else {
		table, err = DefaultTable()
		log.Printf("[district] table source=embedded")
	}
	if err != nil {
		return nil, err
	}
	log.Printf("[district] jurisdiction=%s zips=%d bands=%d", table.Jurisdiction, table.Len(), len(table.Bands))

	ttl := DefaultTTL
	if v := os.Getenv("DISTRICT_CACHE_TTL"); v != "" {
		if d, perr := time.ParseDuration(v); perr == nil && d > 0 {
			ttl = d
		} else {
			log.Printf("[district] ignoring bad DISTRICT_CACHE_TTL=%q", v)
		}
	}

	var store Store = NewMemStore(ttl, nil)
	if client := OpenRedisFromEnv(); client != nil {
		store = NewRedisStore(client, ttl)
		log.Printf("[district] cache=redis ttl=%s", ttl)
	} else {
		log.Printf("[district] cache=memory ttl=%s", ttl)
	}

	return New(table, store, opts...), nil
}
