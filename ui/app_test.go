package ui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"goposterior/adapters/memory"
	"goposterior/adapters/rng"
	"goposterior/app"
	"goposterior/domain/core"
	"goposterior/domain/dataset"
	"goposterior/domain/run"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReader struct{}

func (stubReader) ReadSeasons(ctx context.Context) ([]dataset.PlayerSeason, dataset.LoadReport, error) {
	rows := []dataset.PlayerSeason{
		{Season: 2018, Player: "A", PER: 10},
		{Season: 2018, Player: "B", PER: 20},
		{Season: 2019, Player: "A", PER: 14},
		{Season: 2019, Player: "B", PER: 24},
		{Season: 2020, Player: "Rookie", PER: 8},
		{Season: 2020, Player: "Rookie", PER: 12},
	}
	return rows, dataset.LoadReport{Source: "stub.csv", RowsRead: len(rows), RowsKept: len(rows)}, nil
}

func newTestApp(t *testing.T, api http.Handler) (*App, *app.AnalysisService) {
	t.Helper()
	svc := app.NewAnalysisService(stubReader{}, memory.NewRunRepository(), rng.NewSeededAdapter())
	a, err := NewApp(svc, api)
	require.NoError(t, err)
	return a, svc
}

func get(a *App, path string, htmx bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)
	return w
}

func storeRun(t *testing.T, svc *app.AnalysisService) *run.Run {
	t.Helper()
	res, err := svc.Run(context.Background(), run.Request{
		Prior:       dataset.Filter{ToSeason: 2019},
		Observation: dataset.Filter{Player: "Rookie"},
		Seed:        42,
	})
	require.NoError(t, err)
	return res.Run
}

func TestIndex_EmptyLedger(t *testing.T) {
	a, _ := newTestApp(t, nil)
	w := get(a, "/", false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No runs recorded yet.")
	assert.Contains(t, w.Body.String(), "</html>")
}

func TestRunPages(t *testing.T) {
	a, svc := newTestApp(t, nil)
	r := storeRun(t, svc)

	latest := get(a, "/", false)
	require.Equal(t, http.StatusOK, latest.Code)
	assert.Contains(t, latest.Body.String(), r.ID.String())
	assert.Contains(t, latest.Body.String(), "<table>")

	page := get(a, "/runs/"+r.ID.String(), false)
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "Method 3 (full information)")

	fragment := get(a, "/runs/"+r.ID.String(), true)
	require.Equal(t, http.StatusOK, fragment.Code)
	assert.NotContains(t, fragment.Body.String(), "<html>")

	md := get(a, "/runs/"+r.ID.String()+"/markdown", false)
	require.Equal(t, http.StatusOK, md.Code)
	assert.True(t, strings.HasPrefix(md.Body.String(), "# Posterior run "))

	list := get(a, "/runs", false)
	assert.Contains(t, list.Body.String(), "/runs/"+r.ID.String())
}

func TestReplay(t *testing.T) {
	a, svc := newTestApp(t, nil)
	r := storeRun(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/runs/"+r.ID.String()+"/replay", nil)
	req.Header.Set("HX-Request", "true")
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "reproduce exactly")
}

func TestRunErrors(t *testing.T) {
	a, _ := newTestApp(t, nil)
	assert.Equal(t, http.StatusNotFound, get(a, "/runs/"+core.NewRunID().String(), false).Code)
	assert.Equal(t, http.StatusBadRequest, get(a, "/runs/nope", false).Code)
}

func TestMountsAPI(t *testing.T) {
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("api:" + r.URL.Path))
	})
	a, _ := newTestApp(t, api)

	w := get(a, "/api/v1/health", false)
	assert.Equal(t, "api:/api/v1/health", w.Body.String())
}

func TestServer(t *testing.T) {
	a, _ := newTestApp(t, nil)
	srv := a.Server(Config{Port: "9090", ReadTimeout: 5 * time.Second, WriteTimeout: 10 * time.Second})

	assert.Equal(t, ":9090", srv.Addr)
	assert.Equal(t, 5*time.Second, srv.ReadTimeout)
	assert.Equal(t, 10*time.Second, srv.WriteTimeout)
	assert.NotNil(t, srv.Handler)
}
