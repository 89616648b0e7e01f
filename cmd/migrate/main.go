package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/jessevdk/go-flags"

	"landledger/internal/platform/config"
	"landledger/internal/platform/postgres"
	"landledger/migrations"
)

type options struct {
	RecordsDSN  string        `long:"records-dsn" env:"RECORDS_DATABASE_URL" description:"Government records database DSN"`
	ListingsDSN string        `long:"listings-dsn" env:"LISTINGS_DATABASE_URL" description:"Marketplace listings database DSN"`
	Store       string        `long:"store" choice:"all" choice:"records" choice:"listings" default:"all" description:"Which store to migrate"`
	Down        bool          `long:"down" description:"Roll back one migration instead of applying pending ones"`
	Timeout     time.Duration `long:"timeout" default:"2m" description:"Overall deadline"`
}

func main() {
	opts := options{}
	if _, err := flags.Parse(&opts); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		log.Fatalf("failed to parse flags: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	targets := []struct {
		set    migrations.Set
		dsn    string
		driver string
	}{
		{migrations.Records, opts.RecordsDSN, postgres.DriverPGX},
		{migrations.Listings, opts.ListingsDSN, postgres.DriverPQ},
	}
	for _, t := range targets {
		if opts.Store != "all" && opts.Store != string(t.set) {
			continue
		}
		if t.dsn == "" {
			log.Fatalf("%s: database DSN is required", t.set)
		}
		if err := run(ctx, t.set, t.driver, t.dsn, opts.Down); err != nil {
			log.Fatalf("%s: migration run failed: %v", t.set, err)
		}
	}
}

func run(ctx context.Context, set migrations.Set, driver, dsn string, down bool) error {
	db, err := postgres.Open(ctx, driver, config.DatabaseConfig{DSN: dsn, MaxOpenConns: 2, MaxIdleConns: 1})
	if err != nil {
		return err
	}
	defer func(db *sql.DB) { _ = db.Close() }(db)

	if !down {
		if err := migrations.Up(db, set); err != nil {
			return err
		}
		log.Printf("%s: migrations applied", set)
		return nil
	}

	m, err := migrations.New(db, set)
	if err != nil {
		return err
	}
	if err := m.Steps(-1); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Printf("%s: nothing to roll back", set)
			return nil
		}
		return fmt.Errorf("roll back: %w", err)
	}
	log.Printf("%s: rolled back one migration", set)
	return nil
}
