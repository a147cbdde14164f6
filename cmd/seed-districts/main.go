package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

// CLI flags
var (
	repsCSV     = flag.String("reps-csv", "", "Representatives CSV to load into districts.representatives")
	zipsCSV     = flag.String("zips-csv", "", "ZIP→district CSV to emit as a table YAML")
	outYAML     = flag.String("out", "", "Output path for the generated table YAML (required with --zips-csv)")
	dsn         = flag.String("dsn", os.Getenv("DATABASE_URL"), "Postgres DSN (default: env DATABASE_URL)")
	dryRun      = flag.Bool("dry-run", false, "Parse + validate only; no DB writes")
	confirm     = flag.Bool("confirm", false, "Required to perform destructive replace")
	advisoryKey = flag.Int64("advisory-lock", 0, "Optional Postgres advisory lock key. 0 = disabled")
)

// Representatives CSV contract
// full_name,party,chamber,district,state,office_title,photo_url,urls,emails
// urls and emails are semicolon-separated; chamber is upper|lower|federal

type RepCSV struct {
	FullName    string
	Party       string
	Chamber     string
	District    int
	State       string
	OfficeTitle string
	PhotoURL    string
	URLs        []string
	Emails      []string
}

// ZIP CSV contract
// zip,upper,lower,federal,primary — primary is 1 on the primary row of a
// multi-district zip, blank otherwise

type ZipCSV struct {
	Zip     string
	Upper   int
	Lower   int
	Federal int
	Primary bool
}

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()

	if *repsCSV == "" && *zipsCSV == "" {
		fatalf("at least one of --reps-csv or --zips-csv is required")
	}

	if *zipsCSV != "" {
		if *outYAML == "" {
			fatalf("--out is required with --zips-csv")
		}
		rows, err := loadZipCSV(*zipsCSV)
		if err != nil {
			fatalf("load %s: %v", *zipsCSV, err)
		}
		if err := writeTableYAML(*outYAML, rows, *dryRun); err != nil {
			fatalf("write %s: %v", *outYAML, err)
		}
		fmt.Printf("zips: %d rows -> %s\n", len(rows), *outYAML)
	}

	if *repsCSV == "" {
		return
	}
	if *dsn == "" {
		fatalf("--dsn not provided and DATABASE_URL not set")
	}

	reps, err := loadRepCSV(*repsCSV)
	if err != nil {
		fatalf("load %s: %v", *repsCSV, err)
	}
	fmt.Printf("reps: parsed %d rows\n", len(reps))

	if *dryRun {
		fmt.Println("dry-run: no DB writes")
		return
	}
	if !*confirm {
		fatalf("replacing districts.representatives is destructive; rerun with --confirm")
	}

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if *advisoryKey != 0 {
		if _, err := db.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, *advisoryKey); err != nil {
			fatalf("advisory lock: %v", err)
		}
		defer db.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, *advisoryKey)
	}

	n, err := seedReps(ctx, db, reps)
	if err != nil {
		fatalf("seed: %v", err)
	}
	fmt.Printf("reps: inserted %d rows\n", n)
}

func seedReps(ctx context.Context, db *sql.DB, reps []RepCSV) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `TRUNCATE districts.representatives`); err != nil {
		return 0, fmt.Errorf("truncate: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO districts.representatives
			(id, full_name, party, chamber, district, state, office_title, photo_origin_url, urls, email_addresses, last_synced)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	var n int64
	for _, r := range reps {
		if _, err := stmt.ExecContext(ctx,
			uuid.New(), r.FullName, r.Party, r.Chamber, r.District, r.State,
			r.OfficeTitle, r.PhotoURL, joinArray(r.URLs), joinArray(r.Emails),
		); err != nil {
			return 0, fmt.Errorf("insert %s: %w", r.FullName, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// splitList parses a semicolon-separated CSV field into its non-empty,
// whitespace-trimmed elements.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ";") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// joinArray renders a Postgres text[] literal.
func joinArray(vals []string) string {
	if len(vals) == 0 {
		return "{}"
	}
	quoted := make([]string, len(vals))
	for i, v := range vals {
		quoted[i] = `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
	}
	return "{" + strings.Join(quoted, ",") + "}"
}

func loadRepCSV(path string) ([]RepCSV, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, err
	}
	if len(header) < 9 {
		return nil, fmt.Errorf("expected 9 columns, got %d", len(header))
	}

	var out []RepCSV
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		district, err := strconv.Atoi(row[3])
		if err != nil {
			return nil, fmt.Errorf("row %q: bad district: %w", row[0], err)
		}
		switch row[2] {
		case "upper", "lower", "federal":
		default:
			return nil, fmt.Errorf("row %q: bad chamber %q", row[0], row[2])
		}
		out = append(out, RepCSV{
			FullName:    row[0],
			Party:       row[1],
			Chamber:     row[2],
			District:    district,
			State:       row[4],
			OfficeTitle: row[5],
			PhotoURL:    row[6],
			URLs:        splitList(row[7]),
			Emails:      splitList(row[8]),
		})
	}
	return out, nil
}

func loadZipCSV(path string) ([]ZipCSV, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	if _, err := r.Read(); err != nil { // header
		return nil, err
	}

	var out []ZipCSV
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row[0]) != 5 {
			return nil, fmt.Errorf("bad zip %q", row[0])
		}
		upper, err1 := strconv.Atoi(row[1])
		lower, err2 := strconv.Atoi(row[2])
		federal := 0
		if row[3] != "" {
			federal, err = strconv.Atoi(row[3])
		}
		if err1 != nil || err2 != nil || err != nil {
			return nil, fmt.Errorf("zip %s: bad district numbers", row[0])
		}
		out = append(out, ZipCSV{
			Zip:     row[0],
			Upper:   upper,
			Lower:   lower,
			Federal: federal,
			Primary: len(row) > 4 && row[4] == "1",
		})
	}
	return out, nil
}

// writeTableYAML emits only the entries block; ranges, bands and fallback are
// jurisdiction policy and are maintained by hand in the target file.
func writeTableYAML(path string, rows []ZipCSV, dryRun bool) error {
	var b strings.Builder
	b.WriteString("entries:\n")
	for _, z := range rows {
		b.WriteString(fmt.Sprintf("  - { zip: %q, upper: %d, lower: %d", z.Zip, z.Upper, z.Lower))
		if z.Federal != 0 {
			b.WriteString(fmt.Sprintf(", federal: %d", z.Federal))
		}
		if z.Primary {
			b.WriteString(", primary: true")
		}
		b.WriteString(" }\n")
	}
	if dryRun {
		fmt.Printf("dry-run: would write %d bytes to %s\n", b.Len(), path)
		return nil
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
