package run

import (
	"fmt"
	"sort"
	"time"

	"goposterior/domain/core"
	"goposterior/domain/dataset"
	"goposterior/domain/posterior"
)

// CodeVersion is folded into every fingerprint so a formula change never
// collides with an older stored run
const CodeVersion = "1.0.0"

// Request is everything that determines the outcome of an analysis
type Request struct {
	Prior         dataset.Filter `json:"prior"`
	Observation   dataset.Filter `json:"observation"`
	Nuisance      string         `json:"nuisance,omitempty"`
	WeightByGames bool           `json:"weight_by_games,omitempty"`
	Compare       bool           `json:"compare,omitempty"`
	Seed          int64          `json:"seed"`
	Draws         int            `json:"draws,omitempty"`
	FallbackSD    float64        `json:"fallback_sd,omitempty"`
}

// DensitySummary is the stored digest of one method's Monte Carlo draws
type DensitySummary struct {
	Method        posterior.Method `json:"method"`
	SubstitutedSD bool             `json:"substituted_sd,omitempty"`
	Mean          float64          `json:"mean"`
	SD            float64          `json:"sd"`
	P025          float64          `json:"p2_5"`
	Median        float64          `json:"median"`
	P975          float64          `json:"p97_5"`
}

// Run is one persisted analysis: inputs, derived specs and posteriors
type Run struct {
	ID              core.RunID                  `json:"id"`
	Fingerprint     core.Hash                   `json:"fingerprint"`
	CreatedAt       time.Time                   `json:"created_at"`
	Source          dataset.LoadReport          `json:"source"`
	Request         Request                     `json:"request"`
	Prior           posterior.PriorSpec         `json:"prior"`
	PriorRows       dataset.Summary             `json:"prior_rows"`
	Observation     posterior.ObservationSpec   `json:"observation"`
	ObservationRows dataset.Summary             `json:"observation_rows"`
	Results         []posterior.Result          `json:"results"`
	Skipped         map[posterior.Method]string `json:"skipped,omitempty"`
	Densities       []DensitySummary            `json:"densities,omitempty"`
}

// NewFingerprint hashes the request together with the data source, so the
// same question asked of the same file always maps to the same value
func NewFingerprint(req Request, source string) core.Hash {
	return core.ComputeFingerprint(map[string]interface{}{
		"source":          source,
		"prior":           req.Prior.String(),
		"observation":     req.Observation.String(),
		"nuisance":        req.Nuisance,
		"weight_by_games": req.WeightByGames,
		"compare":         req.Compare,
		"seed":            req.Seed,
		"draws":           req.Draws,
		"fallback_sd":     req.FallbackSD,
		"code":            CodeVersion,
	})
}

// Result returns the posterior produced by method, if it ran
func (r *Run) Result(method posterior.Method) (posterior.Result, bool) {
	for _, res := range r.Results {
		if res.Method == method {
			return res, true
		}
	}
	return posterior.Result{}, false
}

// SortResults orders results by method declaration order
func (r *Run) SortResults() {
	rank := make(map[posterior.Method]int, len(posterior.Methods))
	for i, m := range posterior.Methods {
		rank[m] = i
	}
	sort.SliceStable(r.Results, func(i, j int) bool {
		return rank[r.Results[i].Method] < rank[r.Results[j].Method]
	})
	sort.SliceStable(r.Densities, func(i, j int) bool {
		return rank[r.Densities[i].Method] < rank[r.Densities[j].Method]
	})
}

// Validate checks if the run is complete enough to persist
func (r *Run) Validate() error {
	if r.ID.IsEmpty() {
		return fmt.Errorf("%w: run id cannot be empty", core.ErrInvalidInput)
	}
	if r.Fingerprint.IsEmpty() {
		return fmt.Errorf("%w: run fingerprint cannot be empty", core.ErrInvalidInput)
	}
	if len(r.Results) == 0 {
		return fmt.Errorf("%w: run has no posterior results", core.ErrInvalidInput)
	}
	return nil
}
