//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"landledger/internal/platform/config"
	"landledger/internal/platform/postgres"
	"landledger/migrations"
)

// PostgresContainer holds one database carrying both the records and the
// listings schema. DB uses the lib/pq driver.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("landledger"),
		tcpostgres.WithUsername("landledger"),
		tcpostgres.WithPassword("landledger"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	pc := &PostgresContainer{Container: container, DSN: dsn}
	pc.DB = pc.Open(t, postgres.DriverPQ)

	for _, set := range []migrations.Set{migrations.Records, migrations.Listings} {
		if err := migrations.Up(pc.DB, set); err != nil {
			_ = container.Terminate(ctx)
			t.Fatalf("failed to migrate %s: %v", set, err)
		}
	}
	return pc
}

// Open returns an extra pool on the same database through driver.
func (p *PostgresContainer) Open(t *testing.T, driver string) *sql.DB {
	t.Helper()
	db, err := postgres.Open(context.Background(), driver, config.DatabaseConfig{
		DSN:          p.DSN,
		MaxOpenConns: 10,
		MaxIdleConns: 5,
	})
	if err != nil {
		t.Fatalf("failed to open %s pool: %v", driver, err)
	}
	return db
}

// TruncateTables empties the named tables between tests.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	_, err := p.DB.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(tables, ", ")))
	return err
}
