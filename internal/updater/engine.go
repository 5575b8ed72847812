package updater

import (
	"errors"
	"fmt"
	"math"

	"goposterior/domain/core"
	"goposterior/domain/posterior"
	apperrors "goposterior/internal/errors"

	"gonum.org/v1/gonum/stat/distuv"
)

// credibleZ is the two-tailed 95% standard-normal multiplier (≈1.959964)
var credibleZ = distuv.UnitNormal.Quantile(0.975)

// CredibleZ returns the multiplier used for 95% credible intervals
func CredibleZ() float64 { return credibleZ }

// Engine combines a normal prior with normal-likelihood observations using
// closed-form conjugate updates. It holds no state and is safe for concurrent use.
type Engine struct{}

// NewEngine creates a new update engine
func NewEngine() *Engine {
	return &Engine{}
}

// Update dispatches to the rule selected by method
func (e *Engine) Update(method posterior.Method, prior posterior.PriorSpec, obs posterior.ObservationSpec) (posterior.Result, error) {
	switch method {
	case posterior.MethodSampleSize:
		return e.SampleSizeWeighted(prior, obs)
	case posterior.MethodMeanSD:
		return e.PrecisionWeighted(prior, obs)
	case posterior.MethodFull:
		return e.FullInformation(prior, obs)
	default:
		return posterior.Result{}, apperrors.InvalidInput(fmt.Errorf("%w: %q", core.ErrUnknownMethod, method))
	}
}

// SampleSizeWeighted interpolates between the prior and observed means using
// sample sizes as the only information weight. No variance is available, so
// the result carries no SD or credible interval.
func (e *Engine) SampleSizeWeighted(prior posterior.PriorSpec, obs posterior.ObservationSpec) (posterior.Result, error) {
	const method = posterior.MethodSampleSize

	if err := requireFiniteMeans(prior, obs); err != nil {
		return posterior.Result{}, err
	}
	if prior.SampleSize == nil {
		return posterior.Result{}, apperrors.InvalidInput(core.NewMissingFieldError(string(method), "prior.sample_size"))
	}
	if obs.SampleSize == nil {
		return posterior.Result{}, apperrors.InvalidInput(core.NewMissingFieldError(string(method), "observation.sample_size"))
	}

	priorN := float64(*prior.SampleSize)
	obsN := float64(*obs.SampleSize)
	if priorN < 0 {
		return posterior.Result{}, apperrors.InvalidInput(core.NewDenominatorError("prior.sample_size", priorN))
	}
	if obsN < 0 {
		return posterior.Result{}, apperrors.InvalidInput(core.NewDenominatorError("observation.sample_size", obsN))
	}
	total := priorN + obsN
	if total <= 0 {
		return posterior.Result{}, apperrors.InvalidInput(core.NewDenominatorError("prior.sample_size + observation.sample_size", total))
	}

	mean := (obs.Mean*obsN + prior.Mean*priorN) / total
	if err := requireFinite("posterior mean", mean); err != nil {
		return posterior.Result{}, err
	}

	return posterior.Result{Method: method, Mean: mean}, nil
}

// PrecisionWeighted combines two means by inverse-variance weighting when
// both the prior and the observation carry a standard deviation.
// Sample sizes are ignored.
func (e *Engine) PrecisionWeighted(prior posterior.PriorSpec, obs posterior.ObservationSpec) (posterior.Result, error) {
	const method = posterior.MethodMeanSD

	if err := requireFiniteMeans(prior, obs); err != nil {
		return posterior.Result{}, err
	}
	priorSD, err := requirePositive(method, "prior.sd", prior.SD)
	if err != nil {
		return posterior.Result{}, err
	}
	obsSD, err := requirePositive(method, "observation.sd", obs.SD)
	if err != nil {
		return posterior.Result{}, err
	}

	priorPrecision := 1 / (priorSD * priorSD)
	obsPrecision := 1 / (obsSD * obsSD)

	return e.combine(method, prior.Mean, priorPrecision, obs.Mean, obsPrecision)
}

// FullInformation uses the prior SD as the prior precision and scales the
// observation's precision by its sample size against the fixed population
// SD (the nuisance parameter). A zero sample size returns the prior unchanged.
func (e *Engine) FullInformation(prior posterior.PriorSpec, obs posterior.ObservationSpec) (posterior.Result, error) {
	const method = posterior.MethodFull

	if err := requireFiniteMeans(prior, obs); err != nil {
		return posterior.Result{}, err
	}
	priorSD, err := requirePositive(method, "prior.sd", prior.SD)
	if err != nil {
		return posterior.Result{}, err
	}
	tau, err := requirePositive(method, "prior.nuisance_sd", prior.NuisanceSD)
	if err != nil {
		return posterior.Result{}, err
	}
	if obs.SampleSize == nil {
		return posterior.Result{}, apperrors.InvalidInput(core.NewMissingFieldError(string(method), "observation.sample_size"))
	}
	n := float64(*obs.SampleSize)
	if n < 0 {
		return posterior.Result{}, apperrors.InvalidInput(core.NewDenominatorError("observation.sample_size", n))
	}

	priorPrecision := 1 / (priorSD * priorSD)
	if err := requireFinite("prior precision", priorPrecision); err != nil {
		return posterior.Result{}, err
	}

	// Nothing observed: the posterior is the prior, returned without round-tripping through precision.
	if n == 0 {
		return e.withInterval(posterior.Result{
			Method:    method,
			Mean:      prior.Mean,
			SD:        posterior.Float(priorSD),
			Precision: posterior.Float(priorPrecision),
		}), nil
	}

	obsPrecision := n / (tau * tau)
	return e.combine(method, prior.Mean, priorPrecision, obs.Mean, obsPrecision)
}

// WithExternalSD attaches a caller-chosen dispersion to a result that has
// none (Method 1), so it can be sampled. The engine never invents one itself.
func (e *Engine) WithExternalSD(r posterior.Result, sd float64) (posterior.Result, error) {
	if math.IsNaN(sd) || math.IsInf(sd, 0) || sd <= 0 {
		return posterior.Result{}, apperrors.InvalidInput(core.NewDenominatorError("external sd", sd))
	}
	out := r
	out.SD = posterior.Float(sd)
	out.Precision = posterior.Float(1 / (sd * sd))
	return e.withInterval(out), nil
}

// combine is the shared precision-weighted step for Methods 2 and 3
func (e *Engine) combine(method posterior.Method, priorMean, priorPrecision, obsMean, obsPrecision float64) (posterior.Result, error) {
	if err := requireFinite("prior precision", priorPrecision); err != nil {
		return posterior.Result{}, err
	}
	if err := requireFinite("observation precision", obsPrecision); err != nil {
		return posterior.Result{}, err
	}

	precision := priorPrecision + obsPrecision
	if err := requireFinite("posterior precision", precision); err != nil {
		return posterior.Result{}, err
	}
	if precision <= 0 {
		return posterior.Result{}, apperrors.NumericalDegeneracy(core.NewDegeneracyError("posterior precision", precision))
	}

	mean := (priorPrecision/precision)*priorMean + (obsPrecision/precision)*obsMean
	if err := requireFinite("posterior mean", mean); err != nil {
		return posterior.Result{}, err
	}
	sd := math.Sqrt(1 / precision)
	if err := requireFinite("posterior sd", sd); err != nil {
		return posterior.Result{}, err
	}

	return e.withInterval(posterior.Result{
		Method:    method,
		Mean:      mean,
		SD:        posterior.Float(sd),
		Precision: posterior.Float(precision),
	}), nil
}

func (e *Engine) withInterval(r posterior.Result) posterior.Result {
	if r.SD == nil {
		r.CredibleInterval95 = nil
		return r
	}
	half := credibleZ * *r.SD
	r.CredibleInterval95 = &posterior.Interval{Lower: r.Mean - half, Upper: r.Mean + half}
	return r
}

// Batch is the outcome of running every applicable method on one input pair
type Batch struct {
	Results map[posterior.Method]posterior.Result `json:"results"`
	// Skipped holds methods whose required fields were absent, with the reason
	Skipped map[posterior.Method]string `json:"skipped,omitempty"`
}

// UpdateAll runs each method whose required fields are present. A method is
// skipped only for a missing field; any other failure aborts the whole batch.
func (e *Engine) UpdateAll(prior posterior.PriorSpec, obs posterior.ObservationSpec) (Batch, error) {
	batch := Batch{
		Results: make(map[posterior.Method]posterior.Result, len(posterior.Methods)),
		Skipped: make(map[posterior.Method]string),
	}

	for _, method := range posterior.Methods {
		result, err := e.Update(method, prior, obs)
		if err != nil {
			if errors.Is(err, core.ErrMissingField) {
				batch.Skipped[method] = err.Error()
				continue
			}
			return Batch{}, apperrors.Wrapf(err, "method %s failed", method)
		}
		batch.Results[method] = result
	}

	if len(batch.Results) == 0 {
		return Batch{}, apperrors.InvalidInput(core.NewMissingFieldError("any", "fields for at least one method"))
	}
	return batch, nil
}

func requireFiniteMeans(prior posterior.PriorSpec, obs posterior.ObservationSpec) error {
	if math.IsNaN(prior.Mean) || math.IsInf(prior.Mean, 0) {
		return apperrors.InvalidInput(core.NewNonFiniteInputError("prior.mean", prior.Mean))
	}
	if math.IsNaN(obs.Mean) || math.IsInf(obs.Mean, 0) {
		return apperrors.InvalidInput(core.NewNonFiniteInputError("observation.mean", obs.Mean))
	}
	return nil
}

func requirePositive(method posterior.Method, field string, v *float64) (float64, error) {
	if v == nil {
		return 0, apperrors.InvalidInput(core.NewMissingFieldError(string(method), field))
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) || *v <= 0 {
		return 0, apperrors.InvalidInput(core.NewDenominatorError(field, *v))
	}
	return *v, nil
}

func requireFinite(quantity string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return apperrors.NumericalDegeneracy(core.NewDegeneracyError(quantity, v))
	}
	return nil
}
