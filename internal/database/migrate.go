package database

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationFS embed.FS

const migrationTable = "schema_migrations"

// goose keeps its dialect, base FS and logger in package globals.
var gooseMu sync.Mutex

type slogGooseLogger struct{}

func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	slog.Info(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "migrations")
}

func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	slog.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "migrations")
}

type silentGooseLogger struct{}

func (silentGooseLogger) Printf(string, ...interface{}) {}
func (silentGooseLogger) Fatalf(string, ...interface{}) {}

// Migrate runs a goose command ("up", "down" or "status") against the
// embedded migrations for the connection's dialect.
func (db *DB) Migrate(command string) error {
	return db.migrate(command, &slogGooseLogger{})
}

func (db *DB) migrate(command string, logger goose.Logger) error {
	dialect, dir := "postgres", "migrations/postgres"
	if db.Driver == DriverSQLite {
		dialect, dir = "sqlite3", "migrations/sqlite"
	}

	sub, err := fs.Sub(migrationFS, dir)
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetLogger(logger)
	goose.SetTableName(migrationTable)
	goose.SetBaseFS(sub)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(command)) {
	case "", "up":
		err = goose.Up(db.X.DB, ".")
	case "down":
		err = goose.Down(db.X.DB, ".")
	case "status":
		err = goose.Status(db.X.DB, ".")
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", command, err)
	}

	return nil
}
