// Package migrations embeds the schema of both relational stores.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed records/*.sql listings/*.sql
var files embed.FS

// Set names one store's migration directory. Each set keeps its own version
// table so both can share a database in tests.
type Set string

const (
	Records  Set = "records"
	Listings Set = "listings"
)

func (s Set) table() string { return "schema_migrations_" + string(s) }

// Files lists the embedded migration file names of a set.
func Files(set Set) ([]string, error) {
	return fs.Glob(files, string(set)+"/*.sql")
}

// New builds a migrator for set against db.
func New(db *sql.DB, set Set) (*migrate.Migrate, error) {
	src, err := iofs.New(files, string(set))
	if err != nil {
		return nil, fmt.Errorf("open %s migrations: %w", set, err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: set.table()})
	if err != nil {
		return nil, fmt.Errorf("init %s migration driver: %w", set, err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("init %s migrate: %w", set, err)
	}
	return m, nil
}

// Up applies every pending migration of set. No pending migrations is not an
// error. The migrator keeps one connection of db until db is closed.
func Up(db *sql.DB, set Set) error {
	m, err := New(db, set)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply %s migrations: %w", set, err)
	}
	return nil
}
