package aggregate

import (
	"fmt"
	"math"
	"sort"

	"goposterior/domain/core"
	"goposterior/domain/dataset"
	"goposterior/domain/posterior"
	"goposterior/internal"
	apperrors "goposterior/internal/errors"

	"github.com/montanaflynn/stats"
	gonumstat "gonum.org/v1/gonum/stat"
)

// Filter and Summary live with the rows they describe
type (
	Filter  = dataset.Filter
	Summary = dataset.Summary
)

// NuisanceMode selects how the fixed population SD (tau) is estimated
type NuisanceMode string

const (
	// NuisancePooled is the SD of PER over every selected row
	NuisancePooled NuisanceMode = "pooled"
	// NuisanceWithinPlayer averages each player's own season-to-season SD
	NuisanceWithinPlayer NuisanceMode = "within_player"
)

// Options tune how aggregates are formed
type Options struct {
	Nuisance NuisanceMode `json:"nuisance"`
	// WeightByGames uses games played as the observation count and weights the observed mean by games
	WeightByGames bool `json:"weight_by_games"`
}

// Aggregator derives prior and observation specs from raw rows
type Aggregator struct {
	opts   Options
	logger *internal.Logger
}

// NewAggregator creates an aggregator
func NewAggregator(opts Options) *Aggregator {
	if opts.Nuisance == "" {
		opts.Nuisance = NuisancePooled
	}
	return &Aggregator{opts: opts, logger: internal.DefaultLogger.With("Aggregator")}
}

// PriorFromHistory builds the population prior:
//   - Mean:       mean PER of the selected rows
//   - SampleSize: number of selected rows
//   - SD:         SD of the per-season league means (uncertainty of the mean)
//   - NuisanceSD: population SD of PER (see NuisanceMode)
func (a *Aggregator) PriorFromHistory(rows []dataset.PlayerSeason, filter Filter) (posterior.PriorSpec, Summary, error) {
	sel := filter.Apply(rows)
	summary := dataset.Summarize(sel)
	if len(sel) < 2 {
		return posterior.PriorSpec{}, summary, insufficient("prior needs at least 2 rows, have %d (%s)", len(sel), filter)
	}

	per := perValues(sel)
	mean, err := stats.Mean(per)
	if err != nil {
		return posterior.PriorSpec{}, summary, apperrors.Wrap(err, "prior mean")
	}

	seasonMeans := groupMeans(sel, func(r dataset.PlayerSeason) string { return fmt.Sprint(r.Season) })
	if len(seasonMeans) < 2 {
		return posterior.PriorSpec{}, summary, insufficient("prior sd needs at least 2 seasons, have %d", len(seasonMeans))
	}
	sd, err := stats.StandardDeviationSample(seasonMeans)
	if err != nil {
		return posterior.PriorSpec{}, summary, apperrors.Wrap(err, "prior sd")
	}

	tau, err := a.nuisance(sel, per)
	if err != nil {
		return posterior.PriorSpec{}, summary, err
	}

	a.logger.Debug("prior from %d rows / %d seasons: mean=%.3f sd=%.3f tau=%.3f", summary.Rows, summary.Seasons, mean, sd, tau)

	prior := posterior.PriorSpec{
		Mean:       mean,
		SampleSize: posterior.Int(len(sel)),
	}
	// A flat league average gives no usable precision; leave SD absent rather than zero
	if sd > 0 {
		prior.SD = posterior.Float(sd)
	} else {
		a.logger.Warn("season means have zero spread; prior sd left unset")
	}
	if tau > 0 {
		prior.NuisanceSD = posterior.Float(tau)
	}
	return prior, summary, nil
}

// ObservationFor summarizes the newly observed rows:
//   - Mean:       mean PER (games-weighted with WeightByGames)
//   - SampleSize: row count, or total games with WeightByGames
//   - SD:         standard error of the mean; unset with fewer than 2 rows.
//     With WeightByGames it is the games-weighted SD over the square root of
//     the effective row count (sum w)^2 / sum w^2, so it matches the mean.
func (a *Aggregator) ObservationFor(rows []dataset.PlayerSeason, filter Filter) (posterior.ObservationSpec, Summary, error) {
	sel := filter.Apply(rows)
	summary := dataset.Summarize(sel)
	if len(sel) == 0 {
		return posterior.ObservationSpec{}, summary, insufficient("no rows match observation filter (%s)", filter)
	}

	per := perValues(sel)
	obs := posterior.ObservationSpec{SampleSize: posterior.Int(len(sel))}

	var se float64
	if a.opts.WeightByGames {
		weights := make([]float64, len(sel))
		total := 0
		var sumSq float64
		for i, r := range sel {
			weights[i] = float64(r.Games)
			total += r.Games
			sumSq += weights[i] * weights[i]
		}
		if total == 0 {
			return posterior.ObservationSpec{}, summary, insufficient("selected rows have no games played")
		}
		obs.Mean = gonumstat.Mean(per, weights)
		obs.SampleSize = posterior.Int(total)
		if len(sel) >= 2 {
			effective := float64(total) * float64(total) / sumSq
			se = gonumstat.StdDev(per, weights) / math.Sqrt(effective)
		}
	} else {
		mean, err := stats.Mean(per)
		if err != nil {
			return posterior.ObservationSpec{}, summary, apperrors.Wrap(err, "observation mean")
		}
		obs.Mean = mean
		if len(sel) >= 2 {
			sd, err := stats.StandardDeviationSample(per)
			if err != nil {
				return posterior.ObservationSpec{}, summary, apperrors.Wrap(err, "observation sd")
			}
			se = sd / math.Sqrt(float64(len(sel)))
		}
	}

	switch {
	case len(sel) < 2:
		a.logger.Debug("single observed row; observation sd left unset")
	case se > 0 && !math.IsNaN(se):
		obs.SD = posterior.Float(se)
	}

	return obs, summary, nil
}

func (a *Aggregator) nuisance(sel []dataset.PlayerSeason, per []float64) (float64, error) {
	switch a.opts.Nuisance {
	case NuisanceWithinPlayer:
		byPlayer := make(map[string][]float64)
		for _, r := range sel {
			byPlayer[r.Player] = append(byPlayer[r.Player], r.PER)
		}
		players := make([]string, 0, len(byPlayer))
		for p := range byPlayer {
			players = append(players, p)
		}
		sort.Strings(players)

		var sds []float64
		for _, p := range players {
			if len(byPlayer[p]) < 2 {
				continue
			}
			sd, err := stats.StandardDeviationSample(byPlayer[p])
			if err != nil {
				return 0, apperrors.Wrap(err, "within-player sd")
			}
			sds = append(sds, sd)
		}
		if len(sds) == 0 {
			return 0, insufficient("no player has 2 or more seasons for within-player sd")
		}
		return stats.Mean(sds)
	case NuisancePooled:
		sd, err := stats.StandardDeviationSample(per)
		if err != nil {
			return 0, apperrors.Wrap(err, "pooled sd")
		}
		return sd, nil
	default:
		return 0, apperrors.InvalidInput(fmt.Errorf("%w: nuisance mode %q", core.ErrInvalidInput, a.opts.Nuisance))
	}
}

func perValues(rows []dataset.PlayerSeason) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r.PER
	}
	return out
}

// groupMeans returns the mean PER per group, ordered by group key
func groupMeans(rows []dataset.PlayerSeason, key func(dataset.PlayerSeason) string) []float64 {
	groups := make(map[string][]float64)
	for _, r := range rows {
		k := key(r)
		groups[k] = append(groups[k], r.PER)
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	means := make([]float64, 0, len(keys))
	for _, k := range keys {
		m, _ := stats.Mean(groups[k])
		means = append(means, m)
	}
	return means
}

func insufficient(format string, args ...interface{}) error {
	return apperrors.InsufficientData(fmt.Errorf("%w: "+format, append([]interface{}{core.ErrInsufficientData}, args...)...))
}
