package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/CITZN/CITZN-Backend/internal/db"
	"github.com/CITZN/CITZN-Backend/internal/district"
	"github.com/CITZN/CITZN-Backend/internal/engagement"
	"github.com/CITZN/CITZN-Backend/internal/geocoding"
	"github.com/CITZN/CITZN-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	response := "Server is up!"
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, response)
}

func main() {
	_ = godotenv.Load(".env.local")

	port := os.Getenv("PORT")
	if port == "" {
		port = "5050"
	}

	// The resolver runs without a database; officials, boundaries and
	// engagement light up only when one is configured.
	dbConnected := os.Getenv("DATABASE_URL") != ""
	if dbConnected {
		db.Connect()
		district.Init()
		geocoding.Init(db.DB)
		engagement.Init()
	} else {
		log.Println("DATABASE_URL not set; running resolver-only (no officials or engagement)")
	}

	geoClient, err := geocoding.NewClient()
	if err != nil {
		log.Printf("WARNING: geocoding client init failed: %v", err)
	}

	var opts []district.Option
	if dbConnected {
		if loc := geocoding.NewLocator(geoClient, db.DB); loc != nil {
			opts = append(opts, district.WithGeocoder(loc))
		}
	}

	resolver, err := district.NewFromEnv(opts...)
	if err != nil {
		log.Fatal("Failed to load district table: ", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)
	r.Use(middleware.RateLimitMiddleware)
	r.Get("/", RootHandler)
	r.Handle("/metrics", district.MetricsHandler())

	// db.DB is nil when resolver-only; officials queries degrade to empty lists.
	r.Mount("/districts", district.SetupRoutes(district.NewHandlers(resolver, db.DB)))
	if dbConnected {
		r.Mount("/engagement", engagement.SetupRoutes(engagement.NewHandlers(db.DB, resolver), engagement.SessionStore{}))
	}

	fmt.Println("Server listening on port :" + port + "...")

	http.ListenAndServe("0.0.0.0:"+port, r)
}
