package api

import (
	"goposterior/domain/core"
	"goposterior/domain/posterior"
	apperrors "goposterior/internal/errors"
)

// priorBody mirrors posterior.PriorSpec with a pointer mean so an omitted
// mean is reported instead of read as zero
type priorBody struct {
	Mean       *float64 `json:"mean"`
	SampleSize *int     `json:"sample_size"`
	SD         *float64 `json:"sd"`
	NuisanceSD *float64 `json:"nuisance_sd"`
}

type observationBody struct {
	Mean       *float64 `json:"mean"`
	SampleSize *int     `json:"sample_size"`
	SD         *float64 `json:"sd"`
}

// UpdateRequest is the body of the posterior endpoints
type UpdateRequest struct {
	Prior       priorBody       `json:"prior"`
	Observation observationBody `json:"observation"`
}

// SamplesRequest asks for draws from one method's posterior
type SamplesRequest struct {
	UpdateRequest
	Method     string  `json:"method" binding:"required"`
	N          int     `json:"n"`
	Seed       *int64  `json:"seed"`
	FallbackSD float64 `json:"fallback_sd"`
}

// CompareRequest asks for the density comparison of every applicable method
type CompareRequest struct {
	UpdateRequest
	Seed       *int64  `json:"seed"`
	Draws      int     `json:"draws"`
	Bins       int     `json:"bins"`
	FallbackSD float64 `json:"fallback_sd"`
}

// SamplesResponse carries the draws and what produced them
type SamplesResponse struct {
	Method        posterior.Method `json:"method"`
	Seed          int64            `json:"seed"`
	Mean          float64          `json:"mean"`
	SD            float64          `json:"sd"`
	SubstitutedSD bool             `json:"substituted_sd,omitempty"`
	Samples       []float64        `json:"samples"`
}

func (b UpdateRequest) specs() (posterior.PriorSpec, posterior.ObservationSpec, error) {
	if b.Prior.Mean == nil {
		return posterior.PriorSpec{}, posterior.ObservationSpec{}, apperrors.InvalidInput(core.NewMissingFieldError("any", "prior.mean"))
	}
	if b.Observation.Mean == nil {
		return posterior.PriorSpec{}, posterior.ObservationSpec{}, apperrors.InvalidInput(core.NewMissingFieldError("any", "observation.mean"))
	}
	prior := posterior.PriorSpec{
		Mean:       *b.Prior.Mean,
		SampleSize: b.Prior.SampleSize,
		SD:         b.Prior.SD,
		NuisanceSD: b.Prior.NuisanceSD,
	}
	obs := posterior.ObservationSpec{
		Mean:       *b.Observation.Mean,
		SampleSize: b.Observation.SampleSize,
		SD:         b.Observation.SD,
	}
	return prior, obs, nil
}
