// Package simulation implements Monte Carlo performance projection for
// investment plans: a single-run engine, a seeded batch runner, and a
// TTL cache for finished results.
package simulation

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/aristath/compass/internal/modules/planning"
	"github.com/aristath/compass/pkg/formulas"
)

// Defaults applied when a Params field is left at its zero value.
const (
	DefaultTrials            = 1000
	DefaultInitialInvestment = 10000.0
)

var (
	// ErrInvalidTrials is returned when the requested trial count is negative.
	ErrInvalidTrials = errors.New("trial count must be positive")

	// ErrInvalidInvestment is returned when the initial investment is
	// negative or NaN.
	ErrInvalidInvestment = errors.New("initial investment must be a positive amount")

	// ErrInvalidAllocation is returned when an allocation weight is NaN.
	ErrInvalidAllocation = errors.New("allocation weight is NaN")
)

// Annualized return and volatility assumptions per asset class. Assets
// missing from the table use the fallback profile.
var (
	assetReturns = map[string]float64{
		"stocks":      0.10,
		"bonds":       0.04,
		"cash":        0.02,
		"crypto":      0.30,
		"real_estate": 0.08,
	}
	assetVolatilities = map[string]float64{
		"stocks":      0.15,
		"bonds":       0.05,
		"cash":        0.01,
		"crypto":      0.50,
		"real_estate": 0.10,
	}
)

const (
	fallbackReturn     = 0.05
	fallbackVolatility = 0.10
)

// assetProfile returns the annual return mean and volatility assumed for
// an asset class.
func assetProfile(asset string) (mean, std float64) {
	mean, ok := assetReturns[asset]
	if !ok {
		mean = fallbackReturn
	}
	std, ok = assetVolatilities[asset]
	if !ok {
		std = fallbackVolatility
	}
	return mean, std
}

// Params controls a simulation run. Zero-value fields take the package
// defaults, matching a request body that omits them.
type Params struct {
	Trials            int     `json:"trials"`
	InitialInvestment float64 `json:"initial_investment"`
}

// WithDefaults fills zero-value fields and validates the rest. Callers
// that derive cache keys from Params should normalize through here first
// so an omitted field and an explicit default hash identically.
func (p Params) WithDefaults() (Params, error) {
	if p.Trials == 0 {
		p.Trials = DefaultTrials
	}
	if p.InitialInvestment == 0 {
		p.InitialInvestment = DefaultInitialInvestment
	}
	if p.Trials < 0 {
		return p, ErrInvalidTrials
	}
	if p.InitialInvestment < 0 || math.IsNaN(p.InitialInvestment) {
		return p, ErrInvalidInvestment
	}
	return p, nil
}

// Result summarizes the distribution of final portfolio values across all
// trials of a single run.
type Result struct {
	Trials             int     `json:"trials"`
	InitialInvestment  float64 `json:"initial_investment"`
	MeanFinalValue     float64 `json:"mean_final_value"`
	MedianFinalValue   float64 `json:"median_final_value"`
	StdDeviation       float64 `json:"std_deviation"`
	MinFinalValue      float64 `json:"min_final_value"`
	MaxFinalValue      float64 `json:"max_final_value"`
	ValueAtRisk95      float64 `json:"value_at_risk_95"`
	SuccessProbability float64 `json:"success_probability"`
}

// Engine runs Monte Carlo projections over a plan's asset allocation.
//
// Each trial draws a one-year return for every asset class and adds the
// weighted sleeve gains onto the initial investment. Draws consume the
// random source in sorted asset order, so a seeded engine produces
// identical results for identical inputs.
type Engine struct {
	src    rand.Source
	normal func(mean, std float64, src rand.Source) float64
	log    zerolog.Logger
}

// NewEngine creates a simulation engine. A nil source leaves sampling on
// the process-global generator; pass a seeded source for reproducible runs.
func NewEngine(src rand.Source, log zerolog.Logger) *Engine {
	return &Engine{
		src:    src,
		normal: drawNormal,
		log:    log.With().Str("component", "simulation").Logger(),
	}
}

// drawNormal samples Normal(mean, std). A nil source falls back to the
// process-global generator.
func drawNormal(mean, std float64, src rand.Source) float64 {
	return distuv.Normal{Mu: mean, Sigma: std, Src: src}.Rand()
}

// Run simulates the plan using the engine's own random source.
func (e *Engine) Run(plan *planning.Plan, params Params) (*Result, error) {
	return e.run(plan, params, e.src)
}

// RunSeeded simulates the plan on a dedicated stream derived from seed,
// leaving the engine's own source untouched. Batch runs derive one
// stream per plan so results do not depend on scheduling order.
func (e *Engine) RunSeeded(plan *planning.Plan, params Params, seed uint64) (*Result, error) {
	return e.run(plan, params, rand.NewPCG(seed, seed))
}

func (e *Engine) run(plan *planning.Plan, params Params, src rand.Source) (*Result, error) {
	if plan == nil {
		return nil, errors.New("no plan to simulate")
	}

	params, err := params.WithDefaults()
	if err != nil {
		return nil, err
	}

	assets, weights, err := canonicalAllocation(plan.AssetAllocation)
	if err != nil {
		return nil, err
	}

	finals := make([]float64, params.Trials)
	for trial := range finals {
		value := params.InitialInvestment
		for i, asset := range assets {
			mean, std := assetProfile(asset)
			value += params.InitialInvestment * weights[i] * e.normal(mean, std, src)
		}
		finals[trial] = value
	}

	minVal, maxVal := finals[0], finals[0]
	wins := 0
	for _, v := range finals {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
		if v > params.InitialInvestment {
			wins++
		}
	}

	result := &Result{
		Trials:             params.Trials,
		InitialInvestment:  params.InitialInvestment,
		MeanFinalValue:     formulas.Mean(finals),
		MedianFinalValue:   formulas.Median(finals),
		StdDeviation:       formulas.PopStdDev(finals),
		MinFinalValue:      minVal,
		MaxFinalValue:      maxVal,
		ValueAtRisk95:      formulas.Percentile(finals, 5),
		SuccessProbability: float64(wins) / float64(params.Trials),
	}

	e.log.Debug().
		Int("trials", params.Trials).
		Float64("mean_final_value", result.MeanFinalValue).
		Float64("success_probability", result.SuccessProbability).
		Msg("Simulation completed")

	return result, nil
}

// canonicalAllocation flattens the allocation map into a sorted (asset,
// weight) list so draws consume the random stream in a stable order.
func canonicalAllocation(allocation map[string]float64) ([]string, []float64, error) {
	assets := make([]string, 0, len(allocation))
	for asset := range allocation {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	weights := make([]float64, len(assets))
	for i, asset := range assets {
		w := allocation[asset]
		if math.IsNaN(w) {
			return nil, nil, fmt.Errorf("%w: %s", ErrInvalidAllocation, asset)
		}
		weights[i] = w
	}
	return assets, weights, nil
}
