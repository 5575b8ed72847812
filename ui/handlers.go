package ui

import (
	"bytes"
	"html/template"
	"net/http"

	"goposterior/domain/core"
	"goposterior/domain/run"
	"goposterior/internal/api"
	apperrors "goposterior/internal/errors"
	"goposterior/internal/report"

	"github.com/go-chi/chi/v5"
)

type pageData struct {
	Title    string
	Body     template.HTML
	RunID    string
	Replayed bool
	Matches  bool
}

func (a *App) handleLatest(w http.ResponseWriter, r *http.Request) {
	latest, err := a.analysis.LatestRun(r.Context())
	if core.IsNotFoundError(err) {
		a.render(w, r, pageData{Title: "Posterior runs", Body: markdownHTML(report.Index(nil))})
		return
	}
	if err != nil {
		a.fail(w, err)
		return
	}
	a.renderRun(w, r, latest, pageData{})
}

func (a *App) handleRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := a.analysis.ListRuns(r.Context(), 100)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.render(w, r, pageData{Title: "Posterior runs", Body: markdownHTML(report.Index(runs))})
}

func (a *App) handleRun(w http.ResponseWriter, r *http.Request) {
	rn, ok := a.loadRun(w, r)
	if !ok {
		return
	}
	a.renderRun(w, r, rn, pageData{})
}

func (a *App) handleRunMarkdown(w http.ResponseWriter, r *http.Request) {
	rn, ok := a.loadRun(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(report.Markdown(rn)))
}

func (a *App) handleReplay(w http.ResponseWriter, r *http.Request) {
	rn, ok := a.loadRun(w, r)
	if !ok {
		return
	}
	matches, err := a.analysis.Replay(r.Context(), rn.ID)
	if err != nil {
		a.fail(w, err)
		return
	}
	if !matches {
		a.logger.Warn("run %s no longer reproduces", rn.ID)
	}
	a.renderRun(w, r, rn, pageData{Replayed: true, Matches: matches})
}

func (a *App) loadRun(w http.ResponseWriter, r *http.Request) (*run.Run, bool) {
	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, apperrors.InvalidInput(err))
		return nil, false
	}
	rn, err := a.analysis.GetRun(r.Context(), id)
	if err != nil {
		a.fail(w, err)
		return nil, false
	}
	return rn, true
}

func (a *App) renderRun(w http.ResponseWriter, r *http.Request, rn *run.Run, data pageData) {
	data.Title = "Run " + rn.Fingerprint.Short()
	data.Body = markdownHTML(report.Markdown(rn))
	data.RunID = rn.ID.String()
	a.render(w, r, data)
}

// render writes the full page, or only the content block for HTMX requests
func (a *App) render(w http.ResponseWriter, r *http.Request, data pageData) {
	name := "layout.html"
	if isHTMX(r) {
		name = "content.html"
	}

	var buf bytes.Buffer
	if err := a.templates.ExecuteTemplate(&buf, name, data); err != nil {
		a.logger.Error("template %s: %v", name, err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		a.logger.Error("writing response: %v", err)
	}
}

func (a *App) fail(w http.ResponseWriter, err error) {
	code := apperrors.GetCode(err)
	if code == "UNKNOWN" {
		code = apperrors.FromDomain(err)
	}
	status := api.StatusFor(code)
	if status >= http.StatusInternalServerError {
		a.logger.Error("%v", err)
	}
	http.Error(w, err.Error(), status)
}

// markdownHTML renders report markdown; raw HTML in the source is dropped by report.HTML
func markdownHTML(md string) template.HTML {
	return template.HTML(report.HTML(md))
}
