// Package catalog loads seismic event catalogs from CSV and holds immutable
// dataset snapshots for the API layer.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/couchcryptid/seismic-risk-service/internal/domain"
)

// requiredColumns are the case-sensitive headers a catalog file must carry.
var requiredColumns = []string{"time", "latitude", "longitude", "depth", "mag", "magType", "place"}

// ValidationError reports a file-level defect: the whole load is rejected.
// Row-level problems are reported per row instead, see RowError.
type ValidationError struct {
	Reason  string
	Missing []string // absent required columns, when that is the reason
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("catalog: %s: %s", e.Reason, strings.Join(e.Missing, ", "))
	}
	return "catalog: " + e.Reason
}

// RowError describes one rejected row with enough context to correct it.
type RowError struct {
	Line   int    `json:"line"` // 1-based file line, header is line 1
	Field  string `json:"field,omitempty"`
	Value  string `json:"value,omitempty"`
	Reason string `json:"reason"`
}

// LoadReport summarizes a load: how many rows became events and why the rest
// were rejected. Rejected rows are expected in real catalogs and are not an
// error.
type LoadReport struct {
	Loaded   int        `json:"loaded"`
	Rejected []RowError `json:"rejected,omitempty"`
}

// Load parses a catalog CSV into an immutable domain.Catalog.
//
// Policy is skip-and-report: a malformed row is recorded in the report and
// skipped, never silently defaulted, and never fatal — seismic datasets
// routinely contain partial rows. Only structural defects (unreadable CSV,
// missing required columns) fail the whole load, as a *ValidationError.
func Load(r io.Reader) (*domain.Catalog, *LoadReport, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // ragged rows are rejected per row, not fatally

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, &ValidationError{Reason: fmt.Sprintf("unreadable CSV: %v", err)}
	}
	if len(rows) == 0 {
		return nil, nil, &ValidationError{Reason: "empty file, no header row"}
	}

	colIdx, missing := indexHeader(rows[0])
	if len(missing) > 0 {
		return nil, nil, &ValidationError{Reason: "missing required columns", Missing: missing}
	}

	report := &LoadReport{}
	events := make([]domain.SeismicEvent, 0, len(rows)-1)

	for i, row := range rows[1:] {
		line := i + 2

		if len(row) < len(rows[0]) {
			report.Rejected = append(report.Rejected, RowError{
				Line:   line,
				Reason: fmt.Sprintf("truncated row: %d fields, want %d", len(row), len(rows[0])),
			})
			continue
		}

		event, err := domain.ParseRecord(recordFromRow(row, colIdx))
		if err != nil {
			report.Rejected = append(report.Rejected, rowError(line, err))
			continue
		}
		events = append(events, event)
	}

	report.Loaded = len(events)
	return domain.NewCatalog(events), report, nil
}

// indexHeader maps column names to positions and reports absent required ones.
// Column matching is case-sensitive per the catalog format.
func indexHeader(header []string) (map[string]int, []string) {
	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		colIdx[strings.TrimSpace(h)] = i
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := colIdx[col]; !ok {
			missing = append(missing, col)
		}
	}
	return colIdx, missing
}

func recordFromRow(row []string, colIdx map[string]int) domain.RawRecord {
	get := func(col string) string {
		return strings.TrimSpace(row[colIdx[col]])
	}
	return domain.RawRecord{
		Time:      get("time"),
		Latitude:  get("latitude"),
		Longitude: get("longitude"),
		Depth:     get("depth"),
		Mag:       get("mag"),
		MagType:   get("magType"),
		Place:     get("place"),
	}
}

func rowError(line int, err error) RowError {
	var fieldErr *domain.FieldError
	if errors.As(err, &fieldErr) {
		return RowError{Line: line, Field: fieldErr.Field, Value: fieldErr.Value, Reason: fieldErr.Reason}
	}
	return RowError{Line: line, Reason: err.Error()}
}
