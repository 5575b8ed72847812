package app

import (
	"context"
	"errors"
	"math"
	"testing"

	"goposterior/adapters/memory"
	"goposterior/adapters/rng"
	"goposterior/domain/core"
	"goposterior/domain/dataset"
	"goposterior/domain/posterior"
	"goposterior/domain/run"
	apperrors "goposterior/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	rows  []dataset.PlayerSeason
	err   error
	calls int
}

func (f *fakeReader) ReadSeasons(ctx context.Context) ([]dataset.PlayerSeason, dataset.LoadReport, error) {
	f.calls++
	if f.err != nil {
		return nil, dataset.LoadReport{}, f.err
	}
	return f.rows, dataset.LoadReport{Source: "fixture.csv", RowsRead: len(f.rows), RowsKept: len(f.rows)}, nil
}

func fixtureRows() []dataset.PlayerSeason {
	return []dataset.PlayerSeason{
		{Season: 2018, Player: "A", Position: "PG", Team: "BOS", Games: 80, MinutesPlayed: 2500, PER: 10},
		{Season: 2018, Player: "B", Position: "C", Team: "MIA", Games: 60, MinutesPlayed: 1800, PER: 20},
		{Season: 2019, Player: "A", Position: "PG", Team: "BOS", Games: 70, MinutesPlayed: 2200, PER: 14},
		{Season: 2019, Player: "B", Position: "C", Team: "MIA", Games: 50, MinutesPlayed: 1500, PER: 24},
		{Season: 2020, Player: "Rookie", Position: "SF", Team: "DEN", Games: 30, MinutesPlayed: 600, PER: 8},
		{Season: 2020, Player: "Rookie", Position: "SF", Team: "DEN", Games: 10, MinutesPlayed: 200, PER: 12},
	}
}

func fixtureRequest() run.Request {
	return run.Request{
		Prior:       dataset.Filter{ToSeason: 2019, MinMinutes: 500},
		Observation: dataset.Filter{Player: "Rookie"},
		Seed:        42,
	}
}

func newService(reader *fakeReader) *AnalysisService {
	return NewAnalysisService(reader, memory.NewRunRepository(), rng.NewSeededAdapter())
}

func TestAnalysisService_Run(t *testing.T) {
	ctx := context.Background()
	svc := newService(&fakeReader{rows: fixtureRows()})

	res, err := svc.Run(ctx, fixtureRequest())
	require.NoError(t, err)
	r := res.Run

	// Prior: mean 17 over 4 rows, SD sqrt(8), tau sqrt(116/3). Observation: mean 10, n 2, SE 2.
	require.Len(t, r.Results, 3)
	assert.Equal(t, posterior.MethodSampleSize, r.Results[0].Method)

	m1, _ := r.Result(posterior.MethodSampleSize)
	assert.InDelta(t, 88.0/6, m1.Mean, 1e-9)
	assert.Nil(t, m1.SD)

	m2, _ := r.Result(posterior.MethodMeanSD)
	assert.InDelta(t, 37.0/3, m2.Mean, 1e-9)
	require.NotNil(t, m2.SD)
	assert.InDelta(t, math.Sqrt(1/0.375), *m2.SD, 1e-9)

	m3, _ := r.Result(posterior.MethodFull)
	assert.InDelta(t, 613.0/41, m3.Mean, 1e-9)

	assert.Equal(t, 4, r.PriorRows.Rows)
	assert.Equal(t, 2, r.ObservationRows.Rows)
	assert.Equal(t, "fixture.csv", r.Source.Source)
	assert.Equal(t, run.NewFingerprint(fixtureRequest(), "fixture.csv"), r.Fingerprint)
	assert.Nil(t, res.Comparison)

	stored, err := svc.GetRun(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.Fingerprint, stored.Fingerprint)
}

func TestAnalysisService_RunWithComparison(t *testing.T) {
	ctx := context.Background()
	svc := newService(&fakeReader{rows: fixtureRows()})

	req := fixtureRequest()
	req.Compare = true
	req.Draws = 2000
	req.FallbackSD = 1.5

	first, err := svc.Run(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, first.Comparison)
	require.Len(t, first.Run.Densities, 3)
	assert.True(t, first.Run.Densities[0].SubstitutedSD)
	assert.False(t, first.Run.Densities[1].SubstitutedSD)

	// Same request, same draws
	second, err := svc.Run(ctx, req)
	require.NoError(t, err)
	assert.NotEqual(t, first.Run.ID, second.Run.ID)
	assert.Equal(t, first.Run.Fingerprint, second.Run.Fingerprint)
	assert.Equal(t, first.Run.Densities, second.Run.Densities)
}

func TestAnalysisService_SkipsMethodsWithoutInputs(t *testing.T) {
	rows := fixtureRows()[:5] // one Rookie row: observation has no SD
	svc := newService(&fakeReader{rows: rows})

	res, err := svc.Run(context.Background(), fixtureRequest())
	require.NoError(t, err)

	assert.Len(t, res.Run.Results, 2)
	assert.Contains(t, res.Run.Skipped, posterior.MethodMeanSD)
	_, ok := res.Run.Result(posterior.MethodFull)
	assert.True(t, ok)
}

func TestAnalysisService_NothingStoredOnFailure(t *testing.T) {
	ctx := context.Background()
	svc := newService(&fakeReader{rows: fixtureRows()})

	req := fixtureRequest()
	req.Observation = dataset.Filter{Player: "Nobody"}
	_, err := svc.Run(ctx, req)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInsufficientData)

	runs, err := svc.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, runs)

	_, err = svc.LatestRun(ctx)
	assert.True(t, core.IsNotFoundError(err))
}

func TestAnalysisService_ReaderError(t *testing.T) {
	svc := newService(&fakeReader{err: apperrors.DatasetError("boom", errors.New("disk"))})

	_, err := svc.Run(context.Background(), fixtureRequest())
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeDatasetError, apperrors.GetCode(err))
}

func TestAnalysisService_NoReader(t *testing.T) {
	svc := NewAnalysisService(nil, memory.NewRunRepository(), rng.NewSeededAdapter())

	_, err := svc.Run(context.Background(), fixtureRequest())
	assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(err))
}

func TestAnalysisService_LatestAndReplay(t *testing.T) {
	ctx := context.Background()
	svc := newService(&fakeReader{rows: fixtureRows()})

	res, err := svc.Run(ctx, fixtureRequest())
	require.NoError(t, err)

	latest, err := svc.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.Run.ID, latest.ID)

	ok, err := svc.Replay(ctx, res.Run.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.Replay(ctx, core.NewRunID())
	assert.True(t, core.IsNotFoundError(err))
}

func TestAnalysisService_Rows(t *testing.T) {
	svc := newService(&fakeReader{rows: fixtureRows()})

	rows, report, err := svc.Rows(context.Background(), dataset.Filter{Team: "den"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, 6, report.RowsRead)
}
