package bayes

import (
	"github.com/couchcryptid/seismic-risk-service/internal/domain"
)

// OutcomeNode is the latent node whose posterior the estimator reports.
const OutcomeNode = "seismic_probability"

// Outcome states, in CPT row order.
const (
	OutcomeLow    = "low"
	OutcomeMedium = "medium"
	OutcomeHigh   = "high"
)

// RiskEstimate is the 3-way probability distribution returned by a query.
// Probabilities are non-negative and sum to 1 within tolerance.
type RiskEstimate struct {
	Low    float64 `json:"low"`
	Medium float64 `json:"medium"`
	High   float64 `json:"high"`
}

// Sum returns the total probability mass, which callers may assert against 1.
func (r RiskEstimate) Sum() float64 {
	return r.Low + r.Medium + r.High
}

// Advice maps the distribution to an operator-facing label: alert when the
// high state dominates, caution when medium does, normal otherwise.
func (r RiskEstimate) Advice() string {
	switch {
	case r.High > 0.5:
		return "alert"
	case r.Medium > 0.5:
		return "caution"
	default:
		return "normal"
	}
}

// Estimator answers risk queries against the frozen seismic network.
// It is constructed once at process start and never mutated; concurrent
// queries need no locking.
type Estimator struct {
	net *Network
}

// NewEstimator builds and validates the seismic network. A validation failure
// is a *ConfigurationError and must abort startup.
func NewEstimator() (*Estimator, error) {
	net, err := New(seismicNodes())
	if err != nil {
		return nil, err
	}
	return &Estimator{net: net}, nil
}

// Estimate runs exact inference for the outcome node given a complete
// seven-factor assignment. Every factor must be present
// (*MissingFactorError) with a level from its enumerated set
// (*InvalidFactorValueError); there is no implicit defaulting.
func (e *Estimator) Estimate(a domain.Assignment) (RiskEstimate, error) {
	for f := range a {
		if domain.LevelsFor(f) == nil {
			return RiskEstimate{}, &InvalidFactorValueError{Factor: f, Value: a[f]}
		}
	}

	evidence := make(map[string]string, len(domain.Factors))
	for _, f := range domain.Factors {
		level, ok := a[f]
		if !ok {
			return RiskEstimate{}, &MissingFactorError{Factor: f}
		}
		if !domain.ValidLevel(f, level) {
			return RiskEstimate{}, &InvalidFactorValueError{Factor: f, Value: level}
		}
		evidence[string(f)] = string(level)
	}

	dist, err := e.net.Query(OutcomeNode, evidence)
	if err != nil {
		return RiskEstimate{}, err
	}
	return RiskEstimate{Low: dist[0], Medium: dist[1], High: dist[2]}, nil
}

// seismicNodes defines the fixed network: seven observed factors feeding one
// outcome node, with two intermediate dependencies (pattern and monthly
// frequency follow fault activity; intensity follows magnitude and depth).
// All tables are frozen constants; nothing is learned from loaded datasets.
func seismicNodes() []Node {
	return []Node{
		{
			Name:   string(domain.FactorHistoricalMagnitude),
			States: levelStates(domain.FactorHistoricalMagnitude),
			CPT:    [][]float64{{0.3}, {0.4}, {0.2}, {0.1}},
		},
		{
			Name:   string(domain.FactorDepth),
			States: levelStates(domain.FactorDepth),
			CPT:    [][]float64{{0.35}, {0.35}, {0.2}, {0.1}},
		},
		{
			Name:   string(domain.FactorTimeSinceLast),
			States: levelStates(domain.FactorTimeSinceLast),
			CPT:    [][]float64{{0.3}, {0.4}, {0.2}, {0.1}},
		},
		{
			Name:   string(domain.FactorFaultActivity),
			States: levelStates(domain.FactorFaultActivity),
			CPT:    [][]float64{{0.2}, {0.5}, {0.3}},
		},
		{
			Name:    string(domain.FactorSeismicPattern),
			States:  levelStates(domain.FactorSeismicPattern),
			Parents: []string{string(domain.FactorFaultActivity)},
			CPT: [][]float64{
				{0.6, 0.3, 0.1}, // sporadic
				{0.3, 0.4, 0.2}, // regular
				{0.1, 0.2, 0.4}, // frequent
				{0.0, 0.1, 0.3}, // unknown
			},
		},
		{
			Name:   string(domain.FactorHistoricalIntensity),
			States: levelStates(domain.FactorHistoricalIntensity),
			Parents: []string{
				string(domain.FactorHistoricalMagnitude),
				string(domain.FactorDepth),
			},
			CPT: [][]float64{
				{0.7, 0.6, 0.5, 0.4, 0.5, 0.4, 0.3, 0.2, 0.3, 0.2, 0.1, 0.1, 0.4, 0.3, 0.2, 0.1}, // low
				{0.2, 0.3, 0.3, 0.3, 0.3, 0.4, 0.4, 0.3, 0.4, 0.4, 0.3, 0.2, 0.3, 0.4, 0.3, 0.2}, // medium
				{0.1, 0.1, 0.2, 0.2, 0.2, 0.2, 0.3, 0.3, 0.3, 0.4, 0.5, 0.4, 0.2, 0.2, 0.3, 0.3}, // high
				{0.0, 0.0, 0.0, 0.1, 0.0, 0.0, 0.0, 0.2, 0.0, 0.0, 0.1, 0.3, 0.1, 0.1, 0.2, 0.4}, // unknown
			},
		},
		{
			Name:    string(domain.FactorMonthlyFrequency),
			States:  levelStates(domain.FactorMonthlyFrequency),
			Parents: []string{string(domain.FactorFaultActivity)},
			CPT: [][]float64{
				{0.7, 0.3, 0.1}, // low
				{0.2, 0.4, 0.2}, // medium
				{0.1, 0.2, 0.4}, // high
				{0.0, 0.1, 0.3}, // unknown
			},
		},
		{
			Name:    OutcomeNode,
			States:  []string{OutcomeLow, OutcomeMedium, OutcomeHigh},
			Parents: factorNames(),
			CPT:     buildOutcomeCPT(),
		},
	}
}

// outcomeBase is the prior shape of the outcome distribution before evidence
// adjustments: most factor combinations describe quiet regions.
var outcomeBase = [3]float64{0.6, 0.3, 0.1}

// outcomeAdjustments shifts probability mass per factor level. Aggravating
// levels move mass from low toward high; calming levels move it back; medium
// and unknown levels are neutral.
var outcomeAdjustments = map[domain.Factor]map[domain.Level][3]float64{
	domain.FactorHistoricalMagnitude: {
		domain.LevelLow:     {0.1, -0.05, -0.05},
		domain.LevelMedium:  {0, 0, 0},
		domain.LevelHigh:    {-0.2, 0, 0.2},
		domain.LevelUnknown: {0, 0, 0},
	},
	domain.FactorDepth: {
		domain.LevelShallow:      {-0.1, 0, 0.1},
		domain.LevelIntermediate: {0, 0, 0},
		domain.LevelDeep:         {0.1, 0, -0.1},
		domain.LevelUnknown:      {0, 0, 0},
	},
	domain.FactorTimeSinceLast: {
		domain.LevelRecent:  {-0.1, 0, 0.1},
		domain.LevelMedium:  {0, 0, 0},
		domain.LevelDistant: {0.1, 0, -0.1},
		domain.LevelUnknown: {0, 0, 0},
	},
	domain.FactorFaultActivity: {
		domain.LevelLow:    {0.1, 0, -0.1},
		domain.LevelMedium: {0, 0, 0},
		domain.LevelHigh:   {-0.15, 0, 0.15},
	},
	domain.FactorSeismicPattern: {
		domain.LevelSporadic: {0.1, 0, -0.1},
		domain.LevelRegular:  {0, 0, 0},
		domain.LevelFrequent: {-0.15, 0, 0.15},
		domain.LevelUnknown:  {0, 0, 0},
	},
	domain.FactorHistoricalIntensity: {
		domain.LevelLow:     {0.1, 0, -0.1},
		domain.LevelMedium:  {0, 0, 0},
		domain.LevelHigh:    {-0.15, 0, 0.15},
		domain.LevelUnknown: {0, 0, 0},
	},
	domain.FactorMonthlyFrequency: {
		domain.LevelLow:     {0.1, 0, -0.1},
		domain.LevelMedium:  {0, 0, 0},
		domain.LevelHigh:    {-0.15, 0, 0.15},
		domain.LevelUnknown: {0, 0, 0},
	},
}

// buildOutcomeCPT enumerates every factor-level combination in row-major
// order (last factor varying fastest, matching the CPT column convention) and
// computes its outcome column via outcomeDistribution.
func buildOutcomeCPT() [][]float64 {
	levelSets := make([][]domain.Level, len(domain.Factors))
	columns := 1
	for i, f := range domain.Factors {
		levelSets[i] = domain.LevelsFor(f)
		columns *= len(levelSets[i])
	}

	cpt := make([][]float64, 3)
	for s := range cpt {
		cpt[s] = make([]float64, columns)
	}

	combo := make([]domain.Level, len(domain.Factors))
	for col := 0; col < columns; col++ {
		rem := col
		for i := len(levelSets) - 1; i >= 0; i-- {
			combo[i] = levelSets[i][rem%len(levelSets[i])]
			rem /= len(levelSets[i])
		}
		dist := outcomeDistribution(combo)
		for s := range cpt {
			cpt[s][col] = dist[s]
		}
	}
	return cpt
}

// outcomeDistribution applies the per-level adjustments to the base shape,
// clamps each state into [0,1], and renormalizes so the column sums to 1.
func outcomeDistribution(combo []domain.Level) [3]float64 {
	dist := outcomeBase
	for i, f := range domain.Factors {
		adj := outcomeAdjustments[f][combo[i]]
		for s := range dist {
			dist[s] += adj[s]
		}
	}

	total := 0.0
	for s := range dist {
		dist[s] = min(1, max(0, dist[s]))
		total += dist[s]
	}
	for s := range dist {
		dist[s] /= total
	}
	return dist
}

func levelStates(f domain.Factor) []string {
	levels := domain.LevelsFor(f)
	states := make([]string, len(levels))
	for i, l := range levels {
		states[i] = string(l)
	}
	return states
}

func factorNames() []string {
	names := make([]string, len(domain.Factors))
	for i, f := range domain.Factors {
		names[i] = string(f)
	}
	return names
}
