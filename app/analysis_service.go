package app

import (
	"context"
	"time"

	"goposterior/domain/core"
	"goposterior/domain/dataset"
	"goposterior/domain/posterior"
	"goposterior/domain/run"
	"goposterior/internal"
	"goposterior/internal/aggregate"
	apperrors "goposterior/internal/errors"
	"goposterior/internal/updater"
	"goposterior/ports"
)

// AnalysisService turns a player-season table into stored posterior runs
type AnalysisService struct {
	reader   ports.SeasonReaderPort
	runs     ports.RunRepository
	engine   *updater.Engine
	comparer *updater.Comparer
	logger   *internal.Logger
	now      func() time.Time
}

// AnalysisResult is a stored run plus the full density comparison, which is
// only summarized in the ledger
type AnalysisResult struct {
	Run        *run.Run            `json:"run"`
	Comparison *updater.Comparison `json:"comparison,omitempty"`
	RuntimeMs  int64               `json:"runtime_ms"`
}

// NewAnalysisService creates an analysis service
func NewAnalysisService(reader ports.SeasonReaderPort, runs ports.RunRepository, rng ports.RNGPort) *AnalysisService {
	engine := updater.NewEngine()
	return &AnalysisService{
		reader:   reader,
		runs:     runs,
		engine:   engine,
		comparer: updater.NewComparer(engine, rng),
		logger:   internal.DefaultLogger.With("AnalysisService"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run loads the table, aggregates prior and observation, applies every
// method that has its inputs, optionally compares densities, and persists
// the run. Nothing is stored unless every step succeeds.
func (s *AnalysisService) Run(ctx context.Context, req run.Request) (*AnalysisResult, error) {
	if s.reader == nil {
		return nil, apperrors.ConfigInvalid("no data file configured")
	}
	startTime := time.Now()

	rows, report, err := s.reader.ReadSeasons(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to load player seasons")
	}

	agg := aggregate.NewAggregator(aggregate.Options{
		Nuisance:      aggregate.NuisanceMode(req.Nuisance),
		WeightByGames: req.WeightByGames,
	})
	prior, priorRows, err := agg.PriorFromHistory(rows, req.Prior)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to build prior")
	}
	obs, obsRows, err := agg.ObservationFor(rows, req.Observation)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to build observation")
	}

	batch, err := s.engine.UpdateAll(prior, obs)
	if err != nil {
		return nil, err
	}

	fingerprint := run.NewFingerprint(req, report.Source)
	r := &run.Run{
		ID:              core.NewRunID(),
		Fingerprint:     fingerprint,
		CreatedAt:       s.now(),
		Source:          report,
		Request:         req,
		Prior:           prior,
		PriorRows:       priorRows,
		Observation:     obs,
		ObservationRows: obsRows,
		Skipped:         batch.Skipped,
	}
	for _, res := range batch.Results {
		r.Results = append(r.Results, res)
	}

	result := &AnalysisResult{Run: r}
	if req.Compare {
		cmp, err := s.compare(ctx, batch.Results, req, fingerprint)
		if err != nil {
			return nil, err
		}
		result.Comparison = cmp
		r.Densities = densitySummaries(cmp)
	}
	r.SortResults()

	if err := s.runs.Save(ctx, r); err != nil {
		return nil, apperrors.Wrap(err, "failed to save run")
	}

	result.RuntimeMs = time.Since(startTime).Milliseconds()
	s.logger.Info("run %s (%s): %d methods, %d skipped, prior n=%d obs n=%d in %dms",
		r.ID, fingerprint.Short(), len(r.Results), len(r.Skipped), priorRows.Rows, obsRows.Rows, result.RuntimeMs)
	return result, nil
}

// Rows loads the table and applies filter without running an analysis
func (s *AnalysisService) Rows(ctx context.Context, filter dataset.Filter) ([]dataset.PlayerSeason, dataset.LoadReport, error) {
	if s.reader == nil {
		return nil, dataset.LoadReport{}, apperrors.ConfigInvalid("no data file configured")
	}
	rows, report, err := s.reader.ReadSeasons(ctx)
	if err != nil {
		return nil, report, apperrors.Wrap(err, "failed to load player seasons")
	}
	return filter.Apply(rows), report, nil
}

// GetRun retrieves a stored run
func (s *AnalysisService) GetRun(ctx context.Context, id core.RunID) (*run.Run, error) {
	return s.runs.Get(ctx, id)
}

// ListRuns returns the newest stored runs first
func (s *AnalysisService) ListRuns(ctx context.Context, limit int) ([]*run.Run, error) {
	return s.runs.List(ctx, limit)
}

// LatestRun returns the newest stored run, or a not-found error when the ledger is empty
func (s *AnalysisService) LatestRun(ctx context.Context) (*run.Run, error) {
	runs, err := s.runs.List(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, apperrors.NotFound("run", core.ErrRunNotFound)
	}
	return runs[0], nil
}

// Replay recomputes a stored run's posteriors from its recorded specs and
// reports whether they still match. Used to detect formula drift.
func (s *AnalysisService) Replay(ctx context.Context, id core.RunID) (bool, error) {
	r, err := s.runs.Get(ctx, id)
	if err != nil {
		return false, err
	}
	batch, err := s.engine.UpdateAll(r.Prior, r.Observation)
	if err != nil {
		return false, err
	}
	if len(batch.Results) != len(r.Results) {
		return false, nil
	}
	for _, stored := range r.Results {
		fresh, ok := batch.Results[stored.Method]
		if !ok || fresh.Mean != stored.Mean || !sameSD(fresh.SD, stored.SD) {
			return false, nil
		}
	}
	return true, nil
}

func (s *AnalysisService) compare(ctx context.Context, results map[posterior.Method]posterior.Result, req run.Request, fingerprint core.Hash) (*updater.Comparison, error) {
	opts := updater.DefaultCompareOptions()
	// Keyed by fingerprint so identical requests replay identical draws
	opts.RunID = fingerprint.Short()
	opts.Seed = req.Seed
	if req.Draws > 0 {
		opts.Draws = req.Draws
	}
	opts.FallbackSD = req.FallbackSD

	cmp, err := s.comparer.Compare(ctx, results, opts)
	if err != nil {
		return nil, apperrors.Wrap(err, "density comparison failed")
	}
	for _, m := range cmp.Skipped {
		s.logger.Warn("method %s has no posterior sd and no fallback; left out of comparison", m)
	}
	return cmp, nil
}

func densitySummaries(cmp *updater.Comparison) []run.DensitySummary {
	out := make([]run.DensitySummary, 0, len(cmp.Methods))
	for _, m := range cmp.Methods {
		out = append(out, run.DensitySummary{
			Method:        m.Method,
			SubstitutedSD: m.SubstitutedSD,
			Mean:          m.Summary.Mean,
			SD:            m.Summary.SD,
			P025:          m.Summary.P025,
			Median:        m.Summary.Median,
			P975:          m.Summary.P975,
		})
	}
	return out
}

func sameSD(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
