package ui

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"goposterior/app"
	"goposterior/internal"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed templates/*.html
var embeddedFiles embed.FS

// App serves the HTML run reports and mounts the JSON API
type App struct {
	router    *chi.Mux
	analysis  *app.AnalysisService
	api       http.Handler
	templates *template.Template
	logger    *internal.Logger
}

// Config holds UI application configuration
type Config struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewApp creates the UI. api is mounted under /api and may be nil.
func NewApp(analysis *app.AnalysisService, api http.Handler) (*App, error) {
	templates, err := template.New("").ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	a := &App{
		router:    chi.NewRouter(),
		analysis:  analysis,
		api:       api,
		templates: templates,
		logger:    internal.DefaultLogger.With("UI"),
	}

	a.setupMiddleware()
	a.setupRoutes()

	return a, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/", a.handleLatest)
	a.router.Get("/runs", a.handleRuns)
	a.router.Get("/runs/{id}", a.handleRun)
	a.router.Get("/runs/{id}/markdown", a.handleRunMarkdown)
	a.router.Post("/runs/{id}/replay", a.handleReplay)

	if a.api != nil {
		a.router.Mount("/api", a.api)
	}
}

// Handler exposes the router for servers and tests
func (a *App) Handler() http.Handler {
	return a.router
}

// Server returns an HTTP server for the app. The caller owns its lifecycle.
func (a *App) Server(config Config) *http.Server {
	addr := ":" + config.Port
	a.logger.Info("Posterior UI server configured on %s", addr)
	return &http.Server{
		Addr:         addr,
		Handler:      a.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
}

// HTMX helpers
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
