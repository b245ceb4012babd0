// Package bootstrap brings up the infrastructure a bot needs before it can
// serve updates: logging first, then the optional database.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/numerobot/core/config"
	coredatabase "github.com/m3rciful/numerobot/core/database"
	"github.com/m3rciful/numerobot/core/logger"
)

// Options control the bootstrap pipeline. Nil hooks use the core defaults.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(coredatabase.Config) error
	// SkipDatabase runs the bot without persistence.
	SkipDatabase bool
}

func (o *Options) fillDefaults() {
	if o.LoggerInit == nil {
		o.LoggerInit = logger.InitLogger
	}
	if o.Connect == nil {
		o.Connect = coredatabase.Connect
	}
	if o.Migrate == nil {
		o.Migrate = coredatabase.RunMigrations
	}
}

// Result exposes the infrastructure Run brought up.
type Result struct {
	DB *sqlx.DB
}

// Persistent reports whether a migrated database is available.
func (r *Result) Persistent() bool {
	return r != nil && r.DB != nil
}

// Close releases the database connection, if any.
func (r *Result) Close() error {
	if !r.Persistent() {
		return nil
	}
	return r.DB.Close()
}

// Run initializes the logger, then connects to the database and applies
// migrations unless SkipDatabase is set.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}
	opts.fillDefaults()

	if err := opts.LoggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}
	if opts.SkipDatabase {
		logger.Info(logger.Background(), "bootstrap", "bootstrap.db", slog.String("status", "skip"))
		return &Result{}, nil
	}

	db, err := opts.Connect(opts.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}
	res := &Result{DB: db}
	if err := opts.Migrate(opts.Database); err != nil {
		_ = res.Close()
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}
	logger.Info(logger.Background(), "bootstrap", "bootstrap.db", slog.String("status", "ok"))
	return res, nil
}
