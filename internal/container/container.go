package container

import (
	"context"
	"fmt"

	"goposterior/adapters/excel"
	"goposterior/adapters/memory"
	"goposterior/adapters/postgres"
	"goposterior/adapters/rng"
	"goposterior/app"
	"goposterior/internal"
	"goposterior/internal/api"
	"goposterior/internal/config"
	apperrors "goposterior/internal/errors"
	"goposterior/internal/migration"
	"goposterior/internal/updater"
	"goposterior/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB  *sqlx.DB
	RNG ports.RNGPort

	// Posterior math
	Engine   *updater.Engine
	Sampler  *updater.Sampler
	Comparer *updater.Comparer

	// Data access
	Reader ports.SeasonReaderPort
	Runs   ports.RunRepository

	// Services
	Analysis *app.AnalysisService
	RunHub   *api.RunHub

	logger *internal.Logger
}

// New creates a container backed by the in-memory run ledger
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config: cfg,
		RNG:    rng.NewSeededAdapter(),
		Engine: updater.NewEngine(),
		Runs:   memory.NewRunRepository(),
		logger: internal.DefaultLogger.With("Container"),
	}
	c.Sampler = updater.NewSampler(c.RNG)
	c.Comparer = updater.NewComparer(c.Engine, c.RNG)

	if cfg.Data.File != "" {
		xc := excel.DefaultExcelConfig()
		xc.FilePath = cfg.Data.File
		xc.SheetName = cfg.Data.Sheet
		c.Reader = excel.NewSeasonReader(xc)
	}

	c.initServices()
	return c, nil
}

// Open creates a container and, when DATABASE_URL is set, connects to
// PostgreSQL, migrates the schema and switches to the persistent ledger
func Open(ctx context.Context, cfg *config.Config) (*Container, error) {
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if !cfg.Database.Enabled() {
		c.logger.Info("DATABASE_URL not set; runs are kept in memory")
		return c, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
	defer cancel()
	db, err := sqlx.ConnectContext(connectCtx, "postgres", cfg.Database.URL)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to connect to database", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)

	if err := c.InitWithDatabase(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// InitWithDatabase migrates db and swaps the run ledger to PostgreSQL
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}
	c.DB = db

	if err := db.PingContext(ctx); err != nil {
		return apperrors.DatabaseError("database connection test failed", err)
	}

	runner := migration.NewRunner()
	if err := runner.Run(ctx, db); err != nil {
		return apperrors.Wrap(err, "failed to migrate schema")
	}

	c.Runs = postgres.NewRunRepository(db)
	c.initServices()

	c.logger.Info("Container initialized with database (schema %s)", runner.Version())
	return nil
}

func (c *Container) initServices() {
	c.Analysis = app.NewAnalysisService(c.Reader, c.Runs, c.RNG)
	if c.RunHub == nil {
		c.RunHub = api.NewRunHub()
	}
}

// APIHandler builds the JSON API handler with defaults from the config
func (c *Container) APIHandler() *api.Handler {
	return api.NewHandler(c.Engine, c.Sampler, c.Comparer, c.Analysis, c.RunHub, api.Defaults{
		Seed:       c.Config.Sampler.Seed,
		Draws:      c.Config.Sampler.Draws,
		Bins:       c.Config.Sampler.Bins,
		FallbackSD: c.Config.Sampler.FallbackSD,
	})
}

// Close releases the database connection and stops the event hub
func (c *Container) Close() error {
	if c.RunHub != nil {
		c.RunHub.Close()
		c.RunHub = nil
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
