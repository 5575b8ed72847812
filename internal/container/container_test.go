package container

import (
	"context"
	"testing"

	"goposterior/domain/run"
	"goposterior/internal/config"
	apperrors "goposterior/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Sampler:  config.SamplerConfig{Seed: 42, Draws: 1000, Bins: 20},
		Analysis: config.AnalysisConfig{Nuisance: "pooled"},
	}
}

func TestNew_InMemory(t *testing.T) {
	c, err := New(testConfig())
	require.NoError(t, err)
	defer c.Close()

	assert.Nil(t, c.DB)
	assert.Nil(t, c.Reader, "no data file configured")
	assert.NotNil(t, c.Runs)
	assert.NotNil(t, c.Analysis)
	assert.NotNil(t, c.APIHandler())

	// Without a reader the service refuses to analyze
	_, err = c.Analysis.Run(context.Background(), run.Request{})
	assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(err))
}

func TestNew_WithDataFile(t *testing.T) {
	cfg := testConfig()
	cfg.Data.File = "testdata/missing.csv"

	c, err := New(cfg)
	require.NoError(t, err)
	defer c.Close()
	require.NotNil(t, c.Reader)

	_, err = c.Analysis.Run(context.Background(), run.Request{})
	assert.Equal(t, apperrors.CodeDatasetError, apperrors.GetCode(err))
}

func TestNew_NilConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestOpen_WithoutDatabase(t *testing.T) {
	c, err := Open(context.Background(), testConfig())
	require.NoError(t, err)
	defer c.Close()
	assert.Nil(t, c.DB)
}

func TestInitWithDatabase_Nil(t *testing.T) {
	c, err := New(testConfig())
	require.NoError(t, err)
	defer c.Close()
	assert.Error(t, c.InitWithDatabase(context.Background(), nil))
}
