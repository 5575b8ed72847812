package postgres

import (
	"testing"
	"time"

	"goposterior/domain/core"
	"goposterior/domain/posterior"
	"goposterior/domain/run"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunPayload_ValueScan(t *testing.T) {
	in := run.Run{
		ID:          core.NewRunID(),
		Fingerprint: core.NewHash([]byte("fp")),
		CreatedAt:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Prior:       posterior.PriorSpec{Mean: 15, SD: posterior.Float(0.5)},
		Results: []posterior.Result{
			{Method: posterior.MethodSampleSize, Mean: 14.1},
		},
		Skipped: map[posterior.Method]string{posterior.MethodFull: "missing nuisance_sd"},
	}

	v, err := runPayload(in).Value()
	require.NoError(t, err)

	var out runPayload
	require.NoError(t, out.Scan(v))
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, 0.5, *out.Prior.SD)
	assert.Nil(t, out.Prior.SampleSize)
	assert.Equal(t, "missing nuisance_sd", out.Skipped[posterior.MethodFull])

	var fromString runPayload
	require.NoError(t, fromString.Scan(string(v.([]byte))))
	assert.Equal(t, in.Fingerprint, fromString.Fingerprint)
}

func TestRunPayload_ScanRejects(t *testing.T) {
	var p runPayload
	assert.Error(t, p.Scan(nil))
	assert.Error(t, p.Scan(42))
	assert.Error(t, p.Scan([]byte("{not json")))
}

func TestRunRow_ColumnsWin(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	row := runRow{
		ID:          "0190a6d2-7c1e-7d3a-9b2c-3f4e5d6c7b8a",
		Fingerprint: "abc",
		CreatedAt:   created,
		Payload:     runPayload{ID: "stale", Results: []posterior.Result{{Method: posterior.MethodMeanSD, Mean: 1}}},
	}

	r := row.toRun()
	assert.Equal(t, core.RunID(row.ID), r.ID)
	assert.Equal(t, core.Hash("abc"), r.Fingerprint)
	assert.True(t, created.Equal(r.CreatedAt))
	assert.Len(t, r.Results, 1)
}
