package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/product-extractor/internal/common"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store persists processed documents and their products. It is not safe for
// concurrent Persist calls; callers drive it from a single lane.
type Store struct {
	drv     *entsql.Driver
	pool    *pgxpool.Pool
	dialect string
	logger  *slog.Logger
}

// Open connects to the configured database, wraps it for ent's SQL driver
// and applies pending migrations.
func Open(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var (
		s   *Store
		err error
	)
	switch cfg.Driver {
	case DriverSQLite, "":
		s, err = openSQLite(cfg, logger)
	case DriverPostgres:
		s, err = openPostgres(ctx, cfg, logger)
	default:
		err = fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		logger.Error("failed to connect to database", "driver", cfg.Driver, "error", err)
		return nil, common.NewAppError("DB_OPEN", "open database", fmt.Errorf("%w: %w", common.ErrStorage, err))
	}

	if err := s.migrate(ctx); err != nil {
		s.Close()
		return nil, common.NewAppError("DB_MIGRATE", "run migrations", fmt.Errorf("%w: %w", common.ErrStorage, err))
	}
	logger.Info("successfully connected to database", "driver", s.dialect)
	return s, nil
}

func openSQLite(cfg common.DatabaseConfig, logger *slog.Logger) (*Store, error) {
	path := cfg.DSN
	if path == "" {
		path = "data/products.db"
	}
	memory := strings.HasPrefix(path, ":memory:") || strings.Contains(path, "mode=memory")
	if !memory {
		if dir := filepath.Dir(strings.SplitN(path, "?", 2)[0]); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
	}
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}
	logger.Info("connecting to database", "driver", DriverSQLite, "path", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if memory {
		// every connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}
	return &Store{
		drv:     entsql.OpenDB(dialect.SQLite, db),
		dialect: dialect.SQLite,
		logger:  logger,
	}, nil
}

func openPostgres(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*Store, error) {
	logger.Info("connecting to database", "driver", DriverPostgres)
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, err
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "product-extractor"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprint(cfg.StatementTimeout.Milliseconds())
	}

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	// Wrap pool as *sql.DB for ent
	db := stdlib.OpenDBFromPool(pool)
	return &Store{
		drv:     entsql.OpenDB(dialect.Postgres, db),
		pool:    pool,
		dialect: dialect.Postgres,
		logger:  logger,
	}, nil
}

// Dialect is the ent dialect name of the underlying database.
func (s *Store) Dialect() string { return s.dialect }

// Close closes the database connections gracefully
func (s *Store) Close() {
	s.logger.Info("closing database connections")
	if s.drv != nil {
		if err := s.drv.Close(); err != nil {
			s.logger.Error("failed to close sql driver", "error", err)
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
	s.logger.Info("database connections closed")
}

// HealthCheck pings the database within timeout.
func (s *Store) HealthCheck(ctx context.Context, timeout time.Duration) error {
	s.logger.Debug("pinging database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	var err error
	if s.pool != nil {
		err = s.pool.Ping(ctx)
	} else {
		err = s.drv.DB().PingContext(ctx)
	}
	if err != nil {
		return fmt.Errorf("%w: ping: %w", common.ErrStorage, err)
	}
	s.logger.Debug("database ping successful")
	return nil
}
