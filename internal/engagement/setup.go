package engagement

import (
	"log"

	"github.com/CITZN/CITZN-Backend/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "engagement"); err != nil {
		log.Fatal("Failed to ensure schema engagement: ", err)
	}

	if err := db.DB.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		log.Fatal("Failed to enable uuid-ossp extension:", err)
	}

	if err := db.DB.AutoMigrate(
		&Session{},
		&Follow{},
		&BillVote{},
	); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}
}
