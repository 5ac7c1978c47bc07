package database

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/m3rciful/joinbot/core/logger"
	"log/slog"
)

// Connect opens the configured database, configures the pool, and verifies
// connectivity. The returned handle uses either the postgres or the sqlite
// driver depending on cfg.Driver.
func Connect(cfg Config) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	driver, dsn := DSN(cfg)

	start := time.Now()
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	took := time.Since(start)
	if err != nil {
		logger.DB.Error("db connect failed",
			slog.String("event", "db.connect"),
			slog.String("driver", driver),
			slog.String("db", cfg.Name),
			slog.Duration("duration", logger.RoundMS(took)),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	switch cfg.Driver {
	case DriverSQLite:
		// A single writer connection keeps sqlite transactions serialized.
		db.SetMaxOpenConns(1)
	default:
		db.SetMaxOpenConns(cfg.MaxConnections)
		db.SetMaxIdleConns(cfg.MaxConnections)
	}

	logger.DB.Info("db connected",
		slog.String("event", "db.connect"),
		slog.String("driver", driver),
		slog.String("host", cfg.Host),
		slog.String("port", cfg.Port),
		slog.String("db", cfg.Name),
		slog.Duration("duration", logger.RoundMS(took)),
	)

	return db, nil
}

// DSN builds the sql driver name and data source string for cfg.
func DSN(cfg Config) (driver, dsn string) {
	switch cfg.Driver {
	case DriverSQLite:
		path := filepath.Clean(cfg.Path)
		return "sqlite", path + "?_txlock=immediate&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	default:
		return "postgres", fmt.Sprintf(
			"user=%s password=%s host=%s port=%s dbname=%s sslmode=%s",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name, cfg.SSLMode,
		)
	}
}
