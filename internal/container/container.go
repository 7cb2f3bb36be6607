package container

import (
	"context"
	"fmt"

	"infodyn/adapters/memory"
	"infodyn/adapters/postgres"
	"infodyn/adapters/rng"
	"infodyn/app"
	"infodyn/internal"
	"infodyn/internal/config"
	"infodyn/internal/errors"
	"infodyn/internal/migration"
	"infodyn/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB  *sqlx.DB
	RNG ports.RNGPort

	// Repositories (data access layer)
	Results ports.ResultRepository

	// Services
	AIS *app.AISService
}

// New creates a container backed by the in-memory result store. Call
// InitWithDatabase to switch to PostgreSQL.
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	level, ok := internal.ParseLogLevel(cfg.Log.Level)
	if !ok {
		return nil, errors.ConfigInvalid(fmt.Sprintf("unknown log level %q", cfg.Log.Level))
	}

	c := &Container{
		Config:  cfg,
		Logger:  internal.NewLogger(level),
		RNG:     rng.NewSeededAdapter(),
		Results: memory.NewResultRepository(),
	}
	c.initServices()
	return c, nil
}

// Open builds a container and, when a database URL is configured, connects
// and migrates it.
func Open(ctx context.Context, cfg *config.Config) (*Container, error) {
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Database.URL == "" {
		c.Logger.Info("DATABASE_URL not set, results are kept in memory")
		return c, nil
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.URL)
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to connect to database"))
	}
	if err := c.InitWithDatabase(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// InitWithDatabase migrates db and stores results in it from now on
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	if err := db.PingContext(ctx); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "database connection test failed"))
	}

	runner := migration.NewRunner()
	if err := runner.Run(ctx, db); err != nil {
		return errors.Wrap(err, "database migration failed")
	}

	c.DB = db
	c.Results = postgres.NewResultRepository(db)
	c.initServices()

	c.Logger.Info("Container initialized with PostgreSQL (schema %s)", runner.Version())
	return nil
}

func (c *Container) initServices() {
	c.AIS = app.NewAISService(c.Config.Analysis, c.Results, c.RNG, c.Logger)
}

// Shutdown releases the database connection, if any
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
