// Package postgres opens database/sql pools for the two relational stores.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "github.com/lib/pq"              // registers "postgres"

	"landledger/internal/platform/config"
)

const (
	// DriverPGX is used by the government records store.
	DriverPGX = "pgx"
	// DriverPQ is used by the marketplace listings store.
	DriverPQ = "postgres"
)

// Open creates a pool with the configured limits and verifies connectivity.
func Open(ctx context.Context, driver string, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

// Health pings the pool.
func Health(ctx context.Context, db *sql.DB) error {
	return db.PingContext(ctx)
}
