package updater

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"goposterior/adapters/rng"
	"goposterior/domain/core"
	"goposterior/domain/posterior"

	"github.com/montanaflynn/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSamplerDeterministic(t *testing.T) {
	ctx := context.Background()
	res, err := NewEngine().FullInformation(nbaPrior(), nbaObservation())
	require.NoError(t, err)

	first, err := NewSampler(rng.NewSeededAdapter()).Draw(ctx, res, 500, 42)
	require.NoError(t, err)
	second, err := NewSampler(rng.NewSeededAdapter()).Draw(ctx, res, 500, 42)
	require.NoError(t, err)

	require.Len(t, first, 500)
	assert.Equal(t, first, second)

	other, err := NewSampler(rng.NewSeededAdapter()).Draw(ctx, res, 500, 43)
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestSamplerSequenceIsRestartable(t *testing.T) {
	ctx := context.Background()
	res, err := NewEngine().PrecisionWeighted(nbaPrior(), nbaObservation())
	require.NoError(t, err)

	seq, err := NewSampler(rng.NewSeededAdapter()).Samples(ctx, res, 10, 7)
	require.NoError(t, err)

	var a, b []float64
	for v := range seq {
		a = append(a, v)
	}
	for v := range seq {
		b = append(b, v)
		if len(b) == 3 {
			break
		}
	}
	require.Len(t, a, 10)
	assert.Equal(t, a[:3], b)
}

func TestSamplerMatchesPosteriorMoments(t *testing.T) {
	ctx := context.Background()
	res, err := NewEngine().FullInformation(nbaPrior(), nbaObservation())
	require.NoError(t, err)

	draws, err := NewSampler(rng.NewSeededAdapter()).Draw(ctx, res, 20000, 1)
	require.NoError(t, err)

	mean, err := stats.Mean(draws)
	require.NoError(t, err)
	sd, err := stats.StandardDeviationSample(draws)
	require.NoError(t, err)

	assert.InDelta(t, res.Mean, mean, 0.02)
	assert.InDelta(t, *res.SD, sd, 0.02)
}

func TestSamplerRequiresSD(t *testing.T) {
	ctx := context.Background()
	e := NewEngine()
	res, err := e.SampleSizeWeighted(nbaPrior(), nbaObservation())
	require.NoError(t, err)

	_, err = NewSampler(rng.NewSeededAdapter()).Draw(ctx, res, 10, 1)
	require.Error(t, err)
	assert.True(t, core.IsInvalidInput(err))

	// Substituting the prior's SD is the caller's choice, not the engine's
	withSD, err := e.WithExternalSD(res, *nbaPrior().SD)
	require.NoError(t, err)
	draws, err := NewSampler(rng.NewSeededAdapter()).Draw(ctx, withSD, 10, 1)
	require.NoError(t, err)
	assert.Len(t, draws, 10)
}

func TestSamplerZeroCount(t *testing.T) {
	res := posterior.Result{Method: posterior.MethodMeanSD, Mean: 1, SD: posterior.Float(1)}
	draws, err := NewSampler(rng.NewSeededAdapter()).Draw(context.Background(), res, 0, 1)
	require.NoError(t, err)
	assert.Empty(t, draws)

	_, err = NewSampler(rng.NewSeededAdapter()).Draw(context.Background(), res, -1, 1)
	assert.True(t, core.IsInvalidInput(err))
}

// cancelAfterSource cancels its context once it has produced limit values
type cancelAfterSource struct {
	rand.Source
	limit  int
	calls  int
	cancel context.CancelFunc
}

func (s *cancelAfterSource) Int63() int64 {
	s.calls++
	if s.calls == s.limit {
		s.cancel()
	}
	return s.Source.Int63()
}

// cancellingRNG hands out streams that cancel ctx partway through
type cancellingRNG struct {
	rng.SeededAdapter
	limit  int
	cancel context.CancelFunc
}

func (c *cancellingRNG) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rand.New(&cancelAfterSource{Source: rand.NewSource(seed), limit: c.limit, cancel: c.cancel}), nil
}

func TestSamplerDrawMatchesSequence(t *testing.T) {
	ctx := context.Background()
	res, err := NewEngine().PrecisionWeighted(nbaPrior(), nbaObservation())
	require.NoError(t, err)
	s := NewSampler(rng.NewSeededAdapter())

	seq, err := s.Samples(ctx, res, 2500, 9)
	require.NoError(t, err)
	var ranged []float64
	for v := range seq {
		ranged = append(ranged, v)
	}
	drawn, err := s.Draw(ctx, res, 2500, 9)
	require.NoError(t, err)
	assert.Equal(t, ranged, drawn)
}

func TestSamplerCancelledBeforeRange(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	res := posterior.Result{Method: posterior.MethodMeanSD, Mean: 1, SD: posterior.Float(1)}
	s := NewSampler(rng.NewSeededAdapter())

	seq, err := s.Samples(ctx, res, 1000, 1)
	require.NoError(t, err)
	cancel()

	count := 0
	for range seq {
		count++
	}
	assert.Zero(t, count)
	assert.ErrorIs(t, ctx.Err(), context.Canceled)

	_, err = s.Draw(ctx, res, 1000, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSamplerCancelledWhileRanging(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	res := posterior.Result{Method: posterior.MethodMeanSD, Mean: 1, SD: posterior.Float(1)}
	s := NewSampler(&cancellingRNG{limit: 10, cancel: cancel})

	seq, err := s.Samples(ctx, res, 5000, 1)
	require.NoError(t, err)
	count := 0
	for range seq {
		count++
	}
	assert.Less(t, count, 5000)
	assert.Error(t, ctx.Err())
}

func TestSamplerDrawFailsWhenCancelledMidway(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	res := posterior.Result{Method: posterior.MethodMeanSD, Mean: 1, SD: posterior.Float(1)}

	draws, err := NewSampler(&cancellingRNG{limit: 10, cancel: cancel}).Draw(ctx, res, 5000, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Nil(t, draws)
}
