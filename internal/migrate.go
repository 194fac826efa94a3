package internal

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

// The automation, pause schedule, export ledger, and social queue tables
// ship with the binary; the quota counters live in the counter store, not
// Postgres, and have no migration.
//
//go:embed migrations/*.sql
var migrations embed.FS

// RunMigrations applies any pending schema migrations at startup.
func RunMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	return goose.Up(db, "migrations")
}
