package posterior

import (
	"fmt"
	"strings"

	"goposterior/domain/core"
)

// ============================================================================
// UPDATE METHODS
// ============================================================================

// Method selects which conjugate update rule combines a prior with an observation.
// Each method has its own required-field contract, checked at the call boundary.
type Method string

const (
	// MethodSampleSize weights the two means by their sample sizes. No variance is used.
	MethodSampleSize Method = "sample_size"
	// MethodMeanSD weights the two means by inverse variance (mean ± SD known for both).
	MethodMeanSD Method = "mean_sd"
	// MethodFull scales the observed precision by its sample size against a fixed population SD.
	MethodFull Method = "full"
)

// Methods lists every update method in presentation order
var Methods = []Method{MethodSampleSize, MethodMeanSD, MethodFull}

// String returns the wire name of the method
func (m Method) String() string { return string(m) }

// Label returns a human readable name for tables and reports
func (m Method) Label() string {
	switch m {
	case MethodSampleSize:
		return "Method 1 (sample size)"
	case MethodMeanSD:
		return "Method 2 (mean ± SD)"
	case MethodFull:
		return "Method 3 (full information)"
	default:
		return string(m)
	}
}

// ParseMethod accepts the wire name or the ordinal ("1", "2", "3")
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "sample_size", "samplesize", "one":
		return MethodSampleSize, nil
	case "2", "mean_sd", "meansd", "two":
		return MethodMeanSD, nil
	case "3", "full", "three":
		return MethodFull, nil
	default:
		return "", fmt.Errorf("%w: %q", core.ErrUnknownMethod, s)
	}
}

// ============================================================================
// INPUTS
// ============================================================================

// PriorSpec is the population-level belief before seeing the new data.
// Optional fields are nil when absent; absent is never treated as zero.
type PriorSpec struct {
	Mean       float64  `json:"mean"`
	SampleSize *int     `json:"sample_size,omitempty"` // observations behind the prior mean
	SD         *float64 `json:"sd,omitempty"`          // standard error of the prior mean
	NuisanceSD *float64 `json:"nuisance_sd,omitempty"` // fixed population SD (tau)
}

// ObservationSpec is the newly observed sample summary
type ObservationSpec struct {
	Mean       float64  `json:"mean"`
	SampleSize *int     `json:"sample_size,omitempty"`
	SD         *float64 `json:"sd,omitempty"`
}

// Clone returns a copy that shares no optional fields with p
func (p PriorSpec) Clone() PriorSpec {
	p.SampleSize = clonePtr(p.SampleSize)
	p.SD = clonePtr(p.SD)
	p.NuisanceSD = clonePtr(p.NuisanceSD)
	return p
}

// Clone returns a copy that shares no optional fields with o
func (o ObservationSpec) Clone() ObservationSpec {
	o.SampleSize = clonePtr(o.SampleSize)
	o.SD = clonePtr(o.SD)
	return o
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}

// Int returns a pointer to v for optional integer fields
func Int(v int) *int { return &v }

// Float returns a pointer to v for optional float fields
func Float(v float64) *float64 { return &v }

// ============================================================================
// OUTPUT
// ============================================================================

// Interval is a closed [Lower, Upper] range
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Width returns Upper - Lower
func (i Interval) Width() float64 { return i.Upper - i.Lower }

// Contains reports whether x lies inside the interval
func (i Interval) Contains(x float64) bool { return x >= i.Lower && x <= i.Upper }

// Result is the posterior belief produced by one update method.
// INVARIANTS:
// - SD is nil only for MethodSampleSize
// - CredibleInterval95 is non-nil iff SD is non-nil
type Result struct {
	Method             Method    `json:"method"`
	Mean               float64   `json:"mean"`
	SD                 *float64  `json:"sd,omitempty"`
	Precision          *float64  `json:"precision,omitempty"`
	CredibleInterval95 *Interval `json:"credible_interval_95,omitempty"`
}

// HasSD reports whether the result carries a posterior dispersion
func (r Result) HasSD() bool { return r.SD != nil }

// Clone returns a copy that shares no optional fields with r
func (r Result) Clone() Result {
	r.SD = clonePtr(r.SD)
	r.Precision = clonePtr(r.Precision)
	r.CredibleInterval95 = clonePtr(r.CredibleInterval95)
	return r
}
