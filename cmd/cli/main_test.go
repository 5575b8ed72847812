package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"goposterior/domain/posterior"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scenario = []string{
	"--prior-mean", "14.79", "--prior-n", "1448", "--prior-sd", "1.57", "--prior-tau", "4.53",
	"--obs-mean", "1.9", "--obs-n", "91", "--obs-sd", "1.19",
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var cmd = newUpdateCmd()
	if args[0] == "simulate" {
		cmd = newSimulateCmd()
		args = args[1:]
	}
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestUpdateCmd_AllMethodsJSON(t *testing.T) {
	out, err := execute(t, append(scenario, "--json")...)
	require.NoError(t, err)

	var got struct {
		Results []posterior.Result          `json:"results"`
		Skipped map[posterior.Method]string `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Results, 3)
	assert.Empty(t, got.Skipped)

	assert.Equal(t, posterior.MethodSampleSize, got.Results[0].Method)
	assert.InDelta(t, 14.028, got.Results[0].Mean, 1e-3)
	assert.InDelta(t, 6.6033, got.Results[1].Mean, 1e-3)
	assert.InDelta(t, 2.980, got.Results[2].Mean, 1e-3)
}

func TestUpdateCmd_SingleMethodTable(t *testing.T) {
	out, err := execute(t, append([]string{"mean_sd"}, scenario...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "6.6033")
	assert.NotContains(t, out, "skipped")
}

func TestUpdateCmd_ReportsSkippedMethods(t *testing.T) {
	out, err := execute(t, "--prior-mean", "10", "--prior-n", "4", "--obs-mean", "12", "--obs-n", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "skipped mean_sd")
	assert.Contains(t, out, "skipped full")
}

func TestUpdateCmd_UnknownMethod(t *testing.T) {
	_, err := execute(t, append([]string{"bogus"}, scenario...)...)
	assert.Error(t, err)
}

func TestUpdateCmd_RequiresMeans(t *testing.T) {
	_, err := execute(t, "--prior-n", "4")
	assert.Error(t, err)
}

func TestSimulateCmd_Deterministic(t *testing.T) {
	args := append([]string{"simulate"}, scenario...)
	args = append(args, "--n", "5", "--seed", "7")

	first, err := execute(t, args...)
	require.NoError(t, err)
	second, err := execute(t, args...)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, strings.Fields(first), 5)
}

func TestSimulateCmd_MethodWithoutSD(t *testing.T) {
	args := append([]string{"simulate"}, scenario...)
	_, err := execute(t, append(args, "--method", "sample_size")...)
	assert.Error(t, err)

	out, err := execute(t, append(args, "--method", "sample_size", "--fallback-sd", "1.5", "--n", "3")...)
	require.NoError(t, err)
	assert.Len(t, strings.Fields(out), 3)
}

func TestSimulateCmd_Compare(t *testing.T) {
	args := append([]string{"simulate"}, scenario...)
	out, err := execute(t, append(args, "--compare", "--draws", "500")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Method 3 (full information)")
	assert.Contains(t, out, "skipped sample_size")
}
