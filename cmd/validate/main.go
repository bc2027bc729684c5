// Command validate performs end-to-end integrity checks over a seismic
// catalog CSV: loader accounting, factor derivation totality, network
// definition validity, and estimate soundness.
//
// Usage:
//
//	go run ./cmd/validate -csv data/mock/catalog.csv
package main

import (
	"bytes"
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/seismic-risk-service/internal/bayes"
	"github.com/couchcryptid/seismic-risk-service/internal/catalog"
	"github.com/couchcryptid/seismic-risk-service/internal/domain"
)

const probTolerance = 1e-6

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	csvPath := flag.String("csv", "", "path to the catalog CSV to validate")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*csvPath); code != 0 {
		os.Exit(code)
	}
}

func run(csvPath string) int {
	// Fix the clock so repeated runs agree on the time-since-last factor.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	fmt.Println("=== Seismic Catalog Integrity Validation ===")
	fmt.Println()

	data, err := os.ReadFile(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read catalog CSV: %v\n", err)
		return 1
	}

	cat, report, err := catalog.Load(bytes.NewReader(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load catalog: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateLoadAccounting(data, cat, report),
		validateFactorTotality(cat),
		validateNetworkDefinition(),
		validateEstimateSoundness(cat),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d loaded, %d rejected, dataset id %s\n",
		report.Loaded, len(report.Rejected), cat.Hash())

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Load Accounting ──
// Every data row is either loaded or rejected with an in-range line number,
// and reloading identical content yields the same dataset id.

func validateLoadAccounting(data []byte, cat *domain.Catalog, report *catalog.LoadReport) *phase {
	p := &phase{name: "Phase 1: Load Accounting"}

	dataRows := countDataRows(data)
	if got := report.Loaded + len(report.Rejected); got != dataRows {
		p.errorf("loaded %d + rejected %d = %d, want %d data rows",
			report.Loaded, len(report.Rejected), got, dataRows)
	}
	if cat.Len() != report.Loaded {
		p.errorf("catalog holds %d events, report says %d loaded", cat.Len(), report.Loaded)
	}
	for _, r := range report.Rejected {
		if r.Line < 2 || r.Line > dataRows+1 {
			p.errorf("rejected row has line %d outside data range [2, %d]", r.Line, dataRows+1)
		}
	}

	reloaded, _, err := catalog.Load(bytes.NewReader(data))
	if err != nil {
		p.errorf("reload failed: %v", err)
	} else if reloaded.Hash() != cat.Hash() {
		p.errorf("dataset id changed across reloads: %s vs %s", cat.Hash(), reloaded.Hash())
	}
	return p
}

// countDataRows counts CSV records after the header with the same parser the
// loader uses, so a quoted multi-line place field counts as one row.
func countDataRows(data []byte) int {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	n := 0
	for {
		if _, err := reader.Read(); err != nil {
			break
		}
		n++
	}
	if n > 0 {
		n-- // header
	}
	return n
}

// ── Phase 2: Factor Totality ──
// Derivation assigns every factor a level that is valid for that factor.

func validateFactorTotality(cat *domain.Catalog) *phase {
	p := &phase{name: "Phase 2: Factor Totality"}

	factors := domain.DeriveFactors(cat)
	for _, f := range domain.Factors {
		level, ok := factors[f]
		if !ok {
			p.errorf("factor %s missing from derivation", f)
			continue
		}
		if !domain.ValidLevel(f, level) {
			p.errorf("factor %s derived invalid level %q", f, level)
		}
	}
	if len(factors) != len(domain.Factors) {
		p.errorf("derivation produced %d factors, want %d", len(factors), len(domain.Factors))
	}
	return p
}

// ── Phase 3: Network Definition ──
// The built-in network passes construction-time CPT validation.

func validateNetworkDefinition() *phase {
	p := &phase{name: "Phase 3: Network Definition"}
	if _, err := bayes.NewEstimator(); err != nil {
		p.errorf("estimator construction failed: %v", err)
	}
	return p
}

// ── Phase 4: Estimate Soundness ──
// The posterior for the derived evidence is a probability distribution and is
// stable across repeated queries, and every single-factor perturbation of the
// evidence still yields a sound posterior.

func validateEstimateSoundness(cat *domain.Catalog) *phase {
	p := &phase{name: "Phase 4: Estimate Soundness"}

	estimator, err := bayes.NewEstimator()
	if err != nil {
		p.errorf("estimator construction failed: %v", err)
		return p
	}

	factors := domain.DeriveFactors(cat)
	first, err := estimator.Estimate(factors)
	if err != nil {
		p.errorf("estimate failed: %v", err)
		return p
	}
	if math.Abs(first.Sum()-1) > probTolerance {
		p.errorf("posterior sums to %g, want 1", first.Sum())
	}

	second, err := estimator.Estimate(factors)
	if err != nil {
		p.errorf("repeat estimate failed: %v", err)
	} else if first != second {
		p.errorf("estimate not deterministic: %+v vs %+v", first, second)
	}

	for _, f := range domain.Factors {
		for _, level := range domain.LevelsFor(f) {
			perturbed := domain.Assignment{}
			for k, v := range factors {
				perturbed[k] = v
			}
			perturbed[f] = level

			est, err := estimator.Estimate(perturbed)
			if err != nil {
				p.errorf("estimate with %s=%s failed: %v", f, level, err)
				continue
			}
			if math.Abs(est.Sum()-1) > probTolerance {
				p.errorf("posterior with %s=%s sums to %g, want 1", f, level, est.Sum())
			}
		}
	}
	return p
}
