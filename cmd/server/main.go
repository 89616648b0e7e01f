package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"landledger/internal/ledgersync/alert"
	ledgerhandler "landledger/internal/ledgersync/handler"
	"landledger/internal/ledgersync/journal"
	"landledger/internal/ledgersync/lease"
	ledgermetrics "landledger/internal/ledgersync/metrics"
	"landledger/internal/ledgersync/ports"
	ledgerservice "landledger/internal/ledgersync/service"
	listingstore "landledger/internal/listings/store"
	"landledger/internal/platform/config"
	"landledger/internal/platform/httpserver"
	"landledger/internal/platform/kafka"
	"landledger/internal/platform/logger"
	httpmetrics "landledger/internal/platform/metrics"
	"landledger/internal/platform/postgres"
	platformredis "landledger/internal/platform/redis"
	recordstore "landledger/internal/records/store"
	"landledger/internal/registry/ethereum"
	registrymetrics "landledger/internal/registry/metrics"
	registrymodels "landledger/internal/registry/models"
	"landledger/internal/registry/simulator"
	"landledger/migrations"
	id "landledger/pkg/domain"
	"landledger/pkg/platform/audit"
	"landledger/pkg/platform/audit/publisher"
	auditkafka "landledger/pkg/platform/audit/store/kafka"
	auditmemory "landledger/pkg/platform/audit/store/memory"
	"landledger/pkg/platform/middleware/admin"
	"landledger/pkg/platform/middleware/metadata"
	"landledger/pkg/platform/middleware/request"
	"landledger/pkg/platform/middleware/requesttime"
)

// simulatedAdmin owns the in-process registry when no admin key is configured.
const simulatedAdmin = id.Address("0x00000000000000000000000000000000000000a1")

const shutdownTimeout = 15 * time.Second

// healthCheck is one dependency probed by /healthz.
type healthCheck struct {
	name  string
	check func(context.Context) error
}

// infra collects what main opens so it can be closed in reverse order.
type infra struct {
	closers []func()
	checks  []healthCheck
}

func (i *infra) onClose(fn func()) { i.closers = append(i.closers, fn) }

func (i *infra) probe(name string, fn func(context.Context) error) {
	i.checks = append(i.checks, healthCheck{name: name, check: fn})
}

func (i *infra) close() {
	for j := len(i.closers) - 1; j >= 0; j-- {
		i.closers[j]()
	}
}

// main wires the chain client, both off-chain stores, the lease table and the
// journal into the synchronization core, then serves HTTP until signalled.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	res := &infra{}
	defer res.close()

	chain, err := buildChain(ctx, cfg, log, res)
	if err != nil {
		return err
	}
	records, listings, err := buildStores(ctx, cfg, res)
	if err != nil {
		return err
	}
	leases, entries, err := buildCoordination(ctx, cfg, res)
	if err != nil {
		return err
	}

	producer, err := kafka.NewProducer(ctx, cfg.Kafka.Brokers, "landledger")
	if err != nil {
		return err
	}
	var auditStore audit.Store = auditmemory.NewInMemoryStore()
	var alerts ports.AlertSink = alert.NewLog(log)
	if producer != nil {
		res.onClose(func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			producer.Close(closeCtx)
		})
		res.probe("kafka", producer.Health)
		auditStore = auditkafka.New(producer, cfg.Kafka.AuditTopic, log)
		alerts = alert.NewKafka(producer, cfg.Kafka.AlertTopic)
	}
	auditor := publisher.NewPublisher(auditStore, publisher.WithAsyncBuffer(256), publisher.WithLogger(log))
	res.onClose(auditor.Close)

	svc, err := ledgerservice.New(ledgerservice.Deps{
		Chain:    chain,
		Records:  records,
		Owners:   records,
		Census:   records,
		Listings: listings,
		Leases:   leases,
		Journal:  entries,
	}, ledgerservice.Config{
		DocumentPrefix:       cfg.Sync.DocumentPrefix,
		DefaultLandType:      registrymodels.LandType(cfg.Sync.DefaultLandType),
		IssuingAuthority:     cfg.Sync.IssuingAuthority,
		FinalityTimeout:      cfg.Chain.FinalityTimeout,
		LeaseMargin:          cfg.Sync.LeaseMargin,
		MaxAttempts:          cfg.Sync.ReconcileMaxAttempts,
		RetryInitialInterval: cfg.Sync.RetryInitialInterval,
	},
		ledgerservice.WithLogger(log),
		ledgerservice.WithMetrics(ledgermetrics.New()),
		ledgerservice.WithAuditor(auditor),
		ledgerservice.WithAlertSink(alerts),
	)
	if err != nil {
		return fmt.Errorf("build ledger service: %w", err)
	}

	router := newRouter(cfg, log, ledgerhandler.New(svc, log), httpmetrics.New(), res.checks)
	srv := httpserver.New(cfg.Server.Addr, router, cfg.Chain.FinalityTimeout)
	reconciler := ledgerservice.NewReconciler(svc, cfg.Sync.ReconcileInterval, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting landledger", "addr", cfg.Server.Addr, "chain_mode", cfg.Chain.Mode, "store_mode", cfg.StoreMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return reconciler.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func buildChain(ctx context.Context, cfg config.Config, log *slog.Logger, res *infra) (ports.Chain, error) {
	if cfg.Chain.Mode == config.ChainModeSimulated {
		log.Warn("using the in-process registry simulator; no real chain is contacted")
		return simulator.New(simulatedAdmin), nil
	}
	keys, err := ethereum.NewKeyring(cfg.Chain.ChainID, cfg.Chain.AdminKey, cfg.Chain.SignerKeys)
	if err != nil {
		return nil, fmt.Errorf("load signing keys: %w", err)
	}
	client, err := ethereum.Dial(ctx, cfg.Chain.RPCURL, ethereum.Config{
		ContractAddress: cfg.Chain.ContractAddress,
		StartBlock:      cfg.Chain.StartBlock,
		Confirmations:   cfg.Chain.Confirmations,
		PollInterval:    cfg.Chain.PollInterval,
		RateLimit:       cfg.Chain.RPCRateLimit,
	}, keys, ethereum.WithLogger(log), ethereum.WithMetrics(registrymetrics.New()))
	if err != nil {
		return nil, err
	}
	res.probe("chain", client.Health)
	return client, nil
}

// recordsBackend is everything the core needs from the government records store.
type recordsBackend interface {
	ports.RecordStore
	ports.OwnerDirectory
	ports.CitizenCensus
}

func buildStores(ctx context.Context, cfg config.Config, res *infra) (recordsBackend, ports.ListingStore, error) {
	if cfg.StoreMode == config.StoreModeMemory {
		return recordstore.NewInMemory(), listingstore.NewInMemory(), nil
	}
	recordsDB, err := openMigrated(ctx, postgres.DriverPGX, cfg.Records, migrations.Records, res)
	if err != nil {
		return nil, nil, err
	}
	listingsDB, err := openMigrated(ctx, postgres.DriverPQ, cfg.Listings, migrations.Listings, res)
	if err != nil {
		return nil, nil, err
	}
	return recordstore.NewPostgres(recordsDB), listingstore.NewPostgres(listingsDB), nil
}

func openMigrated(ctx context.Context, driver string, dbCfg config.DatabaseConfig, set migrations.Set, res *infra) (*sql.DB, error) {
	db, err := postgres.Open(ctx, driver, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("%s store: %w", set, err)
	}
	res.onClose(func() { _ = db.Close() })
	if err := migrations.Up(db, set); err != nil {
		return nil, err
	}
	res.probe(string(set), func(ctx context.Context) error { return postgres.Health(ctx, db) })
	return db, nil
}

func buildCoordination(ctx context.Context, cfg config.Config, res *infra) (ports.LeaseManager, ports.Journal, error) {
	client, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		return lease.NewInMemory(), journal.NewInMemory(), nil
	}
	res.onClose(func() { _ = client.Close() })
	res.probe("redis", client.Health)
	return lease.NewRedis(client.Client), journal.NewRedis(client.Client), nil
}

func newRouter(cfg config.Config, log *slog.Logger, h *ledgerhandler.Handler, m *httpmetrics.Metrics, checks []healthCheck) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(log))
	r.Use(request.Logger(log))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(m.Middleware)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", request.HeaderRequestID},
		ExposedHeaders: []string{request.HeaderRequestID},
	}).Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		for _, c := range checks {
			if err := c.check(ctx); err != nil {
				log.WarnContext(ctx, "health check failed", "dependency", c.name, "error", err)
				http.Error(w, c.name+" unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	h.Register(r)
	if cfg.Server.AdminToken != "" {
		r.Group(func(r chi.Router) {
			r.Use(admin.RequireAdminToken(cfg.Server.AdminToken, log))
			h.RegisterAdmin(r)
		})
	} else {
		log.Warn("ADMIN_API_TOKEN is not set; reconciliation endpoints are disabled")
	}
	return r
}
