package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/CITZN/CITZN-Backend/internal/district"
	"github.com/joho/godotenv"
)

var tablePath = flag.String("table", "", "District table YAML (default: embedded CA table)")

// Resolves one ZIP against the static table + heuristic, no DB and no
// geocoder, and prints every candidate. Handy for sanity-checking table
// edits before a deploy.
func main() {
	godotenv.Load(".env.local")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: check_zip [--table path] <zip>")
		os.Exit(2)
	}
	zip := flag.Arg(0)

	var (
		table *district.Table
		err   error
	)
	if *tablePath != "" {
		table, err = district.LoadTable(*tablePath)
	} else {
		table, err = district.DefaultTable()
	}
	if err != nil {
		log.Fatalf("Table load error: %v", err)
	}

	res := district.New(table, district.NewMemStore(0, nil))

	rec, err := res.Resolve(context.Background(), zip)
	if err != nil {
		log.Fatalf("Resolve error: %v", err)
	}

	fmt.Printf("ZIP %s (%s, %d table entries)\n\n", zip, table.Jurisdiction, table.Len())
	fmt.Printf("  upper:    %d\n", rec.UpperDistrict)
	fmt.Printf("  lower:    %d\n", rec.LowerDistrict)
	if rec.FederalDistrict != 0 {
		fmt.Printf("  federal:  %d\n", rec.FederalDistrict)
	}
	fmt.Printf("  accuracy: %s (source: %s)\n", rec.Accuracy, rec.Source)

	cands, err := res.ResolveMulti(context.Background(), zip)
	if err != nil {
		log.Fatalf("ResolveMulti error: %v", err)
	}
	if len(cands) > 1 {
		fmt.Printf("\nBoundary overlap — %d candidates:\n", len(cands))
		for _, c := range cands {
			marker := " "
			if c.IsPrimary {
				marker = "*"
			}
			fmt.Printf("  %s upper=%d lower=%d federal=%d\n", marker, c.UpperDistrict, c.LowerDistrict, c.FederalDistrict)
		}
	}
}
