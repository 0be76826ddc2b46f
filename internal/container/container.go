package container

import (
	"context"
	"fmt"

	"gochurn/adapters/artifact"
	"gochurn/adapters/postgres"
	"gochurn/app"
	"gochurn/internal"
	"gochurn/internal/config"
	"gochurn/internal/errors"
	"gochurn/internal/migration"
	"gochurn/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure; nil unless the postgres store is configured
	DB *sqlx.DB

	// Repositories
	Artifacts ports.ArtifactRepository
}

// New creates a new dependency injection container
func New(cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
	}
	return &Container{
		Config: cfg,
		Logger: logger,
	}, nil
}

// InitStore opens the configured artifact repository. The postgres store
// connects and migrates before returning.
func (c *Container) InitStore(ctx context.Context) error {
	switch c.Config.Store.Kind {
	case config.StorePostgres:
		db, err := OpenDatabase(ctx, c.Config.Database.URL)
		if err != nil {
			return err
		}
		return c.InitWithDatabase(ctx, db)
	default:
		store, err := artifact.NewFileStore(c.Config.Store.Dir, c.Logger)
		if err != nil {
			return errors.Wrap(err, "failed to open model directory")
		}
		c.Artifacts = store
		c.Logger.Info("Using filesystem model store at %s", c.Config.Store.Dir)
		return nil
	}
}

// InitWithDatabase wires the postgres registry on an open connection
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}
	c.DB = db

	if err := migration.NewRunner().Run(ctx, db); err != nil {
		return errors.DatabaseError("database migration failed", err)
	}
	c.Artifacts = postgres.NewModelRepository(db)
	c.Logger.Info("Using postgres model registry")
	return nil
}

// PredictionService loads the configured model for serving
func (c *Container) PredictionService(ctx context.Context) (*app.PredictionService, error) {
	if c.Artifacts == nil {
		return nil, fmt.Errorf("artifact store is not initialized")
	}
	return app.LoadPredictionService(ctx, c.Artifacts, c.Config.Store.ModelID, app.PredictionOptions{
		Horizons:         c.Config.Inference.Horizons,
		BatchConcurrency: c.Config.Inference.BatchConcurrency,
	}, c.Logger)
}

// TrainingService builds a trainer persisting into the configured store
func (c *Container) TrainingService() *app.TrainingService {
	return app.NewTrainingService(c.Artifacts, c.Logger)
}

// Shutdown releases the database connection
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// OpenDatabase connects to PostgreSQL and checks the connection
func OpenDatabase(ctx context.Context, url string) (*sqlx.DB, error) {
	if url == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", url)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to database", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.DatabaseError("failed to ping database", err)
	}
	return db, nil
}
