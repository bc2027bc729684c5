// Command gencatalog generates a synthetic seismic catalog CSV plus expected
// JSON fixtures for the test suites. It runs the actual domain and estimation
// packages so the fixtures match real service behavior.
//
// Usage:
//
//	go run ./cmd/gencatalog \
//	  -out data/mock/catalog.csv \
//	  -factors-out data/mock/catalog_factors.json \
//	  -estimate-out data/mock/catalog_estimate.json \
//	  -events 500 -seed 42
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/seismic-risk-service/internal/bayes"
	"github.com/couchcryptid/seismic-risk-service/internal/domain"
)

var baseDate = time.Date(2015, time.January, 1, 0, 0, 0, 0, time.UTC)

// region is a seismically active area events are scattered around.
type region struct {
	name     string
	lat, lon float64
	magType  string
}

var regions = []region{
	{name: "Honshu, Japan", lat: 38.3, lon: 142.4, magType: "mww"},
	{name: "Valparaiso, Chile", lat: -33.0, lon: -71.6, magType: "mb"},
	{name: "Ridgecrest, CA", lat: 35.7, lon: -117.5, magType: "ml"},
	{name: "Sulawesi, Indonesia", lat: -0.9, lon: 119.8, magType: "mww"},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the catalog CSV")
	factorsOut := flag.String("factors-out", "", "output path for the derived factors JSON fixture")
	estimateOut := flag.String("estimate-out", "", "output path for the risk estimate JSON fixture")
	events := flag.Int("events", 500, "number of events to generate")
	seed := flag.Int64("seed", 42, "random seed")
	flag.Parse()

	if *out == "" || *factorsOut == "" || *estimateOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -out, -factors-out, -estimate-out")
	}

	// Fix the clock so the time-since-last factor is reproducible even when
	// the generated catalog has no strong event.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	rng := rand.New(rand.NewSource(*seed))

	rows := generateRows(rng, *events)
	if err := writeCSV(*out, rows); err != nil {
		return fmt.Errorf("writing catalog CSV: %w", err)
	}
	log.Printf("wrote catalog: %s (%d rows)", *out, len(rows))

	// Run the actual parse path so fixtures reflect loader behavior.
	var parsed []domain.SeismicEvent
	for _, row := range rows {
		event, err := domain.ParseRecord(rowToRecord(row))
		if err != nil {
			continue
		}
		parsed = append(parsed, event)
	}
	cat := domain.NewCatalog(parsed)

	factors := domain.DeriveFactors(cat)
	if err := writeJSON(*factorsOut, factors); err != nil {
		return fmt.Errorf("writing factors fixture: %w", err)
	}
	log.Printf("wrote factors fixture: %s", *factorsOut)

	estimator, err := bayes.NewEstimator()
	if err != nil {
		return fmt.Errorf("building estimator: %w", err)
	}
	estimate, err := estimator.Estimate(factors)
	if err != nil {
		return fmt.Errorf("estimating: %w", err)
	}
	if err := writeJSON(*estimateOut, estimate); err != nil {
		return fmt.Errorf("writing estimate fixture: %w", err)
	}
	log.Printf("wrote estimate fixture: %s", *estimateOut)

	log.Printf("events=%d loaded=%d factors=%v advice=%s",
		len(rows), cat.Len(), factors, estimate.Advice())
	return nil
}

// csvRow holds the string form of one generated catalog row.
type csvRow struct {
	time, lat, lon, depth, mag, magType, place string
}

func generateRows(rng *rand.Rand, n int) []csvRow {
	rows := make([]csvRow, 0, n)
	t := baseDate
	for i := 0; i < n; i++ {
		r := regions[rng.Intn(len(regions))]

		// Gutenberg-Richter-flavored magnitudes: small quakes dominate.
		mag := 2.5 + rng.ExpFloat64()*0.8
		if mag > 9.0 {
			mag = 9.0
		}
		depth := rng.Float64() * 350

		row := csvRow{
			time:    t.Format(time.RFC3339),
			lat:     strconv.FormatFloat(r.lat+rng.Float64()*4-2, 'f', 4, 64),
			lon:     strconv.FormatFloat(r.lon+rng.Float64()*4-2, 'f', 4, 64),
			depth:   strconv.FormatFloat(depth, 'f', 2, 64),
			mag:     strconv.FormatFloat(mag, 'f', 2, 64),
			magType: r.magType,
			place:   fmt.Sprintf("%d km from %s", rng.Intn(100), r.name),
		}

		// Sprinkle in the gaps the loader must tolerate.
		switch i % 50 {
		case 13:
			row.mag = ""
		case 27:
			row.depth = ""
		case 41:
			row.place = ""
			row.magType = ""
		}

		rows = append(rows, row)
		t = t.Add(time.Duration(rng.Intn(14*24)) * time.Hour)
	}
	return rows
}

func rowToRecord(row csvRow) domain.RawRecord {
	return domain.RawRecord{
		Time:      row.time,
		Latitude:  row.lat,
		Longitude: row.lon,
		Depth:     row.depth,
		Mag:       row.mag,
		MagType:   row.magType,
		Place:     row.place,
	}
}

func writeCSV(path string, rows []csvRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"time", "latitude", "longitude", "depth", "mag", "magType", "place"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write([]string{r.time, r.lat, r.lon, r.depth, r.mag, r.magType, r.place}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
