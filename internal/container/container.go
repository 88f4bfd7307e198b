package container

import (
	"context"
	"fmt"

	"phmagent/adapters/sqlstore"
	"phmagent/app"
	"phmagent/domain/vibration"
	"phmagent/internal"
	"phmagent/internal/api"
	"phmagent/internal/config"
	"phmagent/internal/errors"
	"phmagent/internal/migration"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB      *sqlx.DB
	Dialect sqlstore.Dialect
	Store   sqlstore.Store

	// Services
	Vibration *app.VibrationService
	Ingest    *app.IngestService
	Tools     *app.Toolbox
	Events    *api.EventHub
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	return &Container{
		Config: cfg,
		Logger: internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel)),
	}, nil
}

// Open connects to the configured database and wires the services on it
func (c *Container) Open(ctx context.Context) error {
	db, dialect, err := sqlstore.Open(ctx, c.Config.Database)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return errors.DatabaseError("failed to ping database", err)
	}
	c.Logger.Info("connected to %s database", dialect.Name())
	return c.InitWithDatabase(db, dialect)
}

// InitWithDatabase wires the services on an open connection
func (c *Container) InitWithDatabase(db *sqlx.DB, dialect sqlstore.Dialect) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}
	c.DB = db
	c.Dialect = dialect
	c.InitWithStore(sqlstore.NewReadingRepository(db, dialect))
	return nil
}

// InitWithStore wires the services on any store implementation
func (c *Container) InitWithStore(store sqlstore.Store) {
	c.Store = store
	c.Vibration = app.NewVibrationService(store, app.VibrationServiceConfig{
		Table:             c.Config.Sensor.Table,
		Policy:            ColumnPolicy(c.Config.Sensor),
		DefaultThreshold:  c.Config.Analysis.OutlierThreshold,
		ReportConcurrency: c.Config.Analysis.ReportConcurrency,
		MaxRangeDays:      c.Config.Analysis.MaxRangeDays,
	}, c.Logger)
	c.Ingest = app.NewIngestService(store, c.Logger)
	c.Tools = app.NewToolbox(nil)
	if c.Events == nil {
		c.Events = api.NewEventHub(c.Logger)
	}
}

// Migrate creates the ingest audit table and the sensor table if missing
func (c *Container) Migrate(ctx context.Context) error {
	if c.DB == nil {
		return fmt.Errorf("database not initialized")
	}
	runner := migration.NewRunner(c.Dialect, c.Config.Sensor.Table)
	if err := runner.Run(ctx, c.DB); err != nil {
		return errors.Wrap(err, "database migration failed")
	}
	c.Logger.Info("migrations %s applied", runner.Version())
	return nil
}

// APIServer builds the HTTP server over the wired services
func (c *Container) APIServer() *api.Server {
	return api.NewServer(api.Deps{
		Vibration: c.Vibration,
		Ingest:    c.Ingest,
		Tools:     c.Tools,
		Events:    c.Events,
		Logger:    c.Logger,
	})
}

// Shutdown releases resources
func (c *Container) Shutdown(ctx context.Context) error {
	if c.Events != nil {
		c.Events.Close()
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// ColumnPolicy picks explicit columns when both are configured and
// name sniffing otherwise.
func ColumnPolicy(cfg config.SensorConfig) vibration.ColumnPolicy {
	if cfg.TimeColumn != "" && cfg.ValueColumn != "" {
		return vibration.ExplicitPolicy(cfg.TimeColumn, cfg.ValueColumn)
	}
	return vibration.DefaultColumnPolicy()
}
