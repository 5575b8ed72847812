package main

import (
	"goposterior/domain/posterior"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// specFlags binds prior and observation fields. Flags left unset stay
// absent, so a method that needs them is skipped rather than fed a zero.
type specFlags struct {
	priorMean, priorSD, priorTau float64
	priorN                       int
	obsMean, obsSD               float64
	obsN                         int
}

func (s *specFlags) register(fs *pflag.FlagSet) {
	fs.Float64Var(&s.priorMean, "prior-mean", 0, "Prior mean (required)")
	fs.IntVar(&s.priorN, "prior-n", 0, "Observations behind the prior mean")
	fs.Float64Var(&s.priorSD, "prior-sd", 0, "Standard error of the prior mean")
	fs.Float64Var(&s.priorTau, "prior-tau", 0, "Fixed population SD (nuisance)")
	fs.Float64Var(&s.obsMean, "obs-mean", 0, "Observed mean (required)")
	fs.IntVar(&s.obsN, "obs-n", 0, "Observed sample size")
	fs.Float64Var(&s.obsSD, "obs-sd", 0, "Standard error of the observed mean")
}

func (s *specFlags) markRequired(cmd *cobra.Command) {
	_ = cmd.MarkFlagRequired("prior-mean")
	_ = cmd.MarkFlagRequired("obs-mean")
}

func (s *specFlags) specs(fs *pflag.FlagSet) (posterior.PriorSpec, posterior.ObservationSpec) {
	prior := posterior.PriorSpec{Mean: s.priorMean}
	if fs.Changed("prior-n") {
		prior.SampleSize = posterior.Int(s.priorN)
	}
	if fs.Changed("prior-sd") {
		prior.SD = posterior.Float(s.priorSD)
	}
	if fs.Changed("prior-tau") {
		prior.NuisanceSD = posterior.Float(s.priorTau)
	}

	obs := posterior.ObservationSpec{Mean: s.obsMean}
	if fs.Changed("obs-n") {
		obs.SampleSize = posterior.Int(s.obsN)
	}
	if fs.Changed("obs-sd") {
		obs.SD = posterior.Float(s.obsSD)
	}
	return prior, obs
}
