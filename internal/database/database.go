package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

type DB struct {
	X      *sqlx.DB
	Driver string
}

type Options struct {
	Driver       string
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

func New(ctx context.Context, opts Options) (*DB, error) {
	driver := strings.ToLower(strings.TrimSpace(opts.Driver))
	if driver == "" {
		driver = DriverPostgres
	}
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	x, err := sqlx.Open(driver, opts.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if driver == DriverSQLite {
		// PRAGMAs are per connection and an in-memory database lives and
		// dies with its connection, so sqlite runs on a single one.
		x.SetMaxOpenConns(1)
		if err := applyPragmas(ctx, x); err != nil {
			x.Close()
			return nil, err
		}
	} else {
		if opts.MaxOpenConns > 0 {
			x.SetMaxOpenConns(opts.MaxOpenConns)
		}
		if opts.MaxIdleConns > 0 {
			x.SetMaxIdleConns(opts.MaxIdleConns)
		}
		x.SetConnMaxLifetime(30 * time.Minute)
		x.SetConnMaxIdleTime(5 * time.Minute)
	}

	if err := x.PingContext(ctx); err != nil {
		x.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("database connected", "driver", driver, "max_open_conns", opts.MaxOpenConns)
	return &DB{X: x, Driver: driver}, nil
}

func applyPragmas(ctx context.Context, x *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := x.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}
	return nil
}

// Builder returns a squirrel statement builder using the driver's
// placeholder style.
func (db *DB) Builder() sq.StatementBuilderType {
	if db.Driver == DriverPostgres {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

func (db *DB) Close() {
	if db.X != nil {
		db.X.Close()
	}
}

func (db *DB) Health(ctx context.Context) error {
	return db.X.PingContext(ctx)
}
