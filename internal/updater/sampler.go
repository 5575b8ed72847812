package updater

import (
	"context"
	"iter"

	"goposterior/domain/core"
	"goposterior/domain/posterior"
	apperrors "goposterior/internal/errors"
	"goposterior/ports"
)

// Sampler draws normal variates from a posterior for density diagnostics.
// It is never used by the update math itself.
type Sampler struct {
	rng ports.RNGPort
}

// NewSampler creates a sampler backed by the given RNG port
func NewSampler(rng ports.RNGPort) *Sampler {
	return &Sampler{rng: rng}
}

// cancelCheckEvery is how many draws pass between context checks
const cancelCheckEvery = 1000

// Samples returns a lazy sequence of n draws from Normal(r.Mean, r.SD).
// Every range over the sequence restarts from seed, so two iterations (or two
// calls with identical arguments) yield identical values.
//
// A sequence cannot report an error, so it stops early once ctx is done.
// Callers that range it must check ctx.Err() afterwards; Draw does this.
func (s *Sampler) Samples(ctx context.Context, r posterior.Result, n int, seed int64) (iter.Seq[float64], error) {
	if err := checkSampleArgs(r, n); err != nil {
		return nil, err
	}
	mean, sd := r.Mean, *r.SD
	name := streamName(r)

	// Surface port errors here; the sequence itself cannot return one.
	if _, err := s.rng.SeededStream(ctx, name, seed); err != nil {
		return nil, apperrors.Wrap(err, "failed to open sampler stream")
	}

	return func(yield func(float64) bool) {
		stream, err := s.rng.SeededStream(ctx, name, seed)
		if err != nil {
			return
		}
		for i := 0; i < n; i++ {
			if i%cancelCheckEvery == 0 && ctx.Err() != nil {
				return
			}
			if !yield(stream.NormFloat64()*sd + mean) {
				return
			}
		}
	}, nil
}

// Draw collects n samples into a slice. It yields the same values as
// Samples, and it fails rather than return fewer than n.
func (s *Sampler) Draw(ctx context.Context, r posterior.Result, n int, seed int64) ([]float64, error) {
	if err := checkSampleArgs(r, n); err != nil {
		return nil, err
	}
	mean, sd := r.Mean, *r.SD

	stream, err := s.rng.SeededStream(ctx, streamName(r), seed)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open sampler stream")
	}
	out := make([]float64, n)
	for i := range out {
		if i%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, apperrors.Wrapf(err, "sampling %s stopped after %d of %d draws", r.Method, i, n)
			}
		}
		out[i] = stream.NormFloat64()*sd + mean
	}
	return out, nil
}

func checkSampleArgs(r posterior.Result, n int) error {
	if r.SD == nil {
		return apperrors.InvalidInput(core.NewMissingFieldError(string(r.Method), "posterior.sd"))
	}
	if n < 0 {
		return apperrors.InvalidInput(core.NewDenominatorError("sample count", float64(n)))
	}
	return nil
}

func streamName(r posterior.Result) string { return "posterior/" + string(r.Method) }
