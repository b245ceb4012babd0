package bootstrap

import (
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	coreconfig "github.com/m3rciful/numerobot/core/config"
	coredatabase "github.com/m3rciful/numerobot/core/database"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunRequiresConfig(t *testing.T) {
	if _, err := Run(Options{}); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestRunSkipDatabase(t *testing.T) {
	connected := false
	res, err := Run(Options{
		Config:       &coreconfig.Config{},
		LoggerInit:   noLogger,
		SkipDatabase: true,
		Connect: func(coredatabase.Config) (*sqlx.DB, error) {
			connected = true
			return nil, nil
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if connected || res.DB != nil {
		t.Fatal("database must not be touched when skipped")
	}
}

func TestRunPropagatesConnectError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Run(Options{
		Config:     &coreconfig.Config{},
		LoggerInit: noLogger,
		Connect: func(coredatabase.Config) (*sqlx.DB, error) {
			return nil, boom
		},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
}

func TestRunClosesOnMigrateFailure(t *testing.T) {
	db, err := sqlx.Open("postgres", "host=localhost dbname=unused sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}
	_, err = Run(Options{
		Config:     &coreconfig.Config{},
		LoggerInit: noLogger,
		Connect:    func(coredatabase.Config) (*sqlx.DB, error) { return db, nil },
		Migrate:    func(coredatabase.Config) error { return errors.New("dirty") },
	})
	if err == nil {
		t.Fatal("expected migrate error")
	}
	if err := db.Ping(); err == nil {
		t.Fatal("database must be closed after a failed migration")
	}
}

func TestResultWithoutDatabase(t *testing.T) {
	var res *Result
	if res.Persistent() {
		t.Fatal("nil result is not persistent")
	}
	if err := (&Result{}).Close(); err != nil {
		t.Fatalf("close without db: %v", err)
	}
}
