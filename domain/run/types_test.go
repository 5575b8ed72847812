package run

import (
	"testing"

	"goposterior/domain/core"
	"goposterior/domain/dataset"
	"goposterior/domain/posterior"
)

func TestFingerprint_Deterministic(t *testing.T) {
	req := Request{
		Prior:       dataset.Filter{ToSeason: 2019, MinMinutes: 500},
		Observation: dataset.Filter{Player: "Rookie"},
		Seed:        42,
	}

	fp1 := NewFingerprint(req, "per.csv")
	fp2 := NewFingerprint(req, "per.csv")
	if fp1 != fp2 {
		t.Errorf("Fingerprints not identical: %s vs %s", fp1, fp2)
	}
	if len(fp1) != 64 {
		t.Errorf("expected sha256 hex fingerprint, got %d chars", len(fp1))
	}
}

func TestFingerprint_ChangesWithInputs(t *testing.T) {
	base := Request{Observation: dataset.Filter{Player: "Rookie"}, Seed: 42}
	fp := NewFingerprint(base, "per.csv")

	otherSeed := base
	otherSeed.Seed = 43
	if NewFingerprint(otherSeed, "per.csv") == fp {
		t.Error("seed change should change fingerprint")
	}

	otherFilter := base
	otherFilter.Observation.Player = "Veteran"
	if NewFingerprint(otherFilter, "per.csv") == fp {
		t.Error("filter change should change fingerprint")
	}

	if NewFingerprint(base, "other.csv") == fp {
		t.Error("source change should change fingerprint")
	}
}

func TestRun_SortAndLookup(t *testing.T) {
	r := &Run{
		Results: []posterior.Result{
			{Method: posterior.MethodFull, Mean: 3},
			{Method: posterior.MethodSampleSize, Mean: 1},
			{Method: posterior.MethodMeanSD, Mean: 2},
		},
	}
	r.SortResults()

	for i, m := range posterior.Methods {
		if r.Results[i].Method != m {
			t.Errorf("position %d: got %s, want %s", i, r.Results[i].Method, m)
		}
	}

	res, ok := r.Result(posterior.MethodMeanSD)
	if !ok || res.Mean != 2 {
		t.Errorf("lookup mean_sd: ok=%v mean=%v", ok, res.Mean)
	}
}

func TestRun_Validate(t *testing.T) {
	r := &Run{}
	if err := r.Validate(); !core.IsInvalidInput(err) {
		t.Errorf("empty run should be invalid, got %v", err)
	}

	r.ID = core.NewRunID()
	r.Fingerprint = core.NewHash([]byte("x"))
	if err := r.Validate(); err == nil {
		t.Error("run without results should be invalid")
	}

	r.Results = []posterior.Result{{Method: posterior.MethodSampleSize, Mean: 1}}
	if err := r.Validate(); err != nil {
		t.Errorf("complete run rejected: %v", err)
	}
}
