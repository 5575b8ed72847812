package updater

import (
	"context"
	"fmt"
	"math"
	"sort"

	"goposterior/domain/core"
	"goposterior/domain/posterior"
	apperrors "goposterior/internal/errors"
	"goposterior/ports"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	gonumstat "gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// CompareOptions controls the Monte Carlo density comparison
type CompareOptions struct {
	RunID      string  // mixed into each method's seed; may be empty
	Seed       int64   // base seed
	Draws      int     // samples per method
	Bins       int     // histogram bins over the shared range
	GridPoints int     // points on the analytic density curve
	FallbackSD float64 // dispersion substituted for results without one; 0 skips them
}

// DefaultCompareOptions returns the settings used by the CLI and API
func DefaultCompareOptions() CompareOptions {
	return CompareOptions{
		Seed:       42,
		Draws:      10000,
		Bins:       40,
		GridPoints: 200,
	}
}

// SampleSummary describes one method's Monte Carlo draws
type SampleSummary struct {
	Mean   float64 `json:"mean"`
	SD     float64 `json:"sd"`
	P025   float64 `json:"p2_5"`
	Median float64 `json:"median"`
	P975   float64 `json:"p97_5"`
}

// MethodDensity is the simulated and analytic density of one posterior
type MethodDensity struct {
	Method        posterior.Method `json:"method"`
	Mean          float64          `json:"mean"`
	SD            float64          `json:"sd"`
	SubstitutedSD bool             `json:"substituted_sd"`
	Summary       SampleSummary    `json:"summary"`
	Histogram     []float64        `json:"histogram"` // density per bin, integrates to 1
	Curve         []float64        `json:"curve"`     // analytic normal pdf on Comparison.Grid
}

// Comparison places every posterior on a shared axis
type Comparison struct {
	Dividers []float64          `json:"dividers"`
	Grid     []float64          `json:"grid"`
	Methods  []MethodDensity    `json:"methods"`
	Skipped  []posterior.Method `json:"skipped,omitempty"`
}

// Comparer samples several posteriors and lays their densities side by side
type Comparer struct {
	engine  *Engine
	sampler *Sampler
	rng     ports.RNGPort
}

// NewComparer creates a comparer using rng for every method's stream
func NewComparer(engine *Engine, rng ports.RNGPort) *Comparer {
	return &Comparer{engine: engine, sampler: NewSampler(rng), rng: rng}
}

// Compare draws opts.Draws samples per result. Methods are sampled
// concurrently, each on its own stream keyed by run and method, so the output
// does not depend on scheduling.
func (c *Comparer) Compare(ctx context.Context, results map[posterior.Method]posterior.Result, opts CompareOptions) (*Comparison, error) {
	if opts.Draws <= 1 {
		return nil, apperrors.InvalidInput(core.NewDenominatorError("draws", float64(opts.Draws)))
	}
	if opts.Bins <= 0 {
		opts.Bins = DefaultCompareOptions().Bins
	}
	if opts.GridPoints < 2 {
		opts.GridPoints = DefaultCompareOptions().GridPoints
	}

	cmp := &Comparison{}
	var ordered []posterior.Result
	for _, m := range posterior.Methods {
		r, ok := results[m]
		if !ok {
			continue
		}
		if !r.HasSD() {
			if opts.FallbackSD <= 0 {
				cmp.Skipped = append(cmp.Skipped, m)
				continue
			}
			var err error
			if r, err = c.engine.WithExternalSD(r, opts.FallbackSD); err != nil {
				return nil, err
			}
			cmp.Methods = append(cmp.Methods, MethodDensity{SubstitutedSD: true})
		} else {
			cmp.Methods = append(cmp.Methods, MethodDensity{})
		}
		ordered = append(ordered, r)
	}
	if len(ordered) == 0 {
		return nil, apperrors.InvalidInput(core.NewMissingFieldError("compare", "posterior.sd"))
	}

	draws := make([][]float64, len(ordered))
	g, gctx := errgroup.WithContext(ctx)
	for i, r := range ordered {
		g.Go(func() error {
			stream, err := c.rng.Stream(gctx, opts.RunID, string(r.Method), opts.Seed)
			if err != nil {
				return err
			}
			d, err := c.sampler.Draw(gctx, r, opts.Draws, stream.Int63())
			if err != nil {
				return err
			}
			draws[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperrors.Wrap(err, "posterior sampling failed")
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	gridLo, gridHi := math.Inf(1), math.Inf(-1)
	for i, r := range ordered {
		if len(draws[i]) != opts.Draws {
			return nil, apperrors.Wrap(fmt.Errorf("method %s produced %d of %d draws", r.Method, len(draws[i]), opts.Draws), "posterior sampling failed")
		}
		lo = math.Min(lo, floats.Min(draws[i]))
		hi = math.Max(hi, floats.Max(draws[i]))
		gridLo = math.Min(gridLo, r.Mean-4**r.SD)
		gridHi = math.Max(gridHi, r.Mean+4**r.SD)
	}
	if hi <= lo {
		lo, hi = lo-0.5, hi+0.5
	}
	cmp.Dividers = floats.Span(make([]float64, opts.Bins+1), lo, hi)
	// Histogram needs every value strictly below the last divider
	cmp.Dividers[opts.Bins] = math.Nextafter(hi, math.Inf(1))
	cmp.Grid = floats.Span(make([]float64, opts.GridPoints), gridLo, gridHi)

	for i, r := range ordered {
		summary, err := summarize(draws[i])
		if err != nil {
			return nil, err
		}

		density := &cmp.Methods[i]
		density.Method = r.Method
		density.Mean = r.Mean
		density.SD = *r.SD
		density.Summary = summary
		density.Histogram = histogramDensity(draws[i], cmp.Dividers)

		normal := distuv.Normal{Mu: r.Mean, Sigma: *r.SD}
		density.Curve = make([]float64, len(cmp.Grid))
		for j, x := range cmp.Grid {
			density.Curve[j] = normal.Prob(x)
		}
	}

	return cmp, nil
}

func summarize(draws []float64) (SampleSummary, error) {
	data := stats.Float64Data(draws)
	mean, err := data.Mean()
	if err != nil {
		return SampleSummary{}, apperrors.Wrap(err, "sample mean")
	}
	sd, err := data.StandardDeviationSample()
	if err != nil {
		return SampleSummary{}, apperrors.Wrap(err, "sample sd")
	}
	p025, err := data.Percentile(2.5)
	if err != nil {
		return SampleSummary{}, apperrors.Wrap(err, "sample 2.5th percentile")
	}
	median, err := data.Median()
	if err != nil {
		return SampleSummary{}, apperrors.Wrap(err, "sample median")
	}
	p975, err := data.Percentile(97.5)
	if err != nil {
		return SampleSummary{}, apperrors.Wrap(err, "sample 97.5th percentile")
	}
	return SampleSummary{Mean: mean, SD: sd, P025: p025, Median: median, P975: p975}, nil
}

// histogramDensity bins draws and scales counts so the bars integrate to one
func histogramDensity(draws, dividers []float64) []float64 {
	sorted := make([]float64, len(draws))
	copy(sorted, draws)
	sort.Float64s(sorted)

	counts := gonumstat.Histogram(make([]float64, len(dividers)-1), dividers, sorted, nil)
	n := float64(len(draws))
	for i := range counts {
		width := dividers[i+1] - dividers[i]
		counts[i] /= n * width
	}
	return counts
}
