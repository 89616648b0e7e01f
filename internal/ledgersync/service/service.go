// Package service is the synchronization core. Each mutating workflow validates
// against the authoritative store, submits exactly one chain transaction,
// waits for its finality and only then writes the off-chain stores.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"landledger/internal/ledgersync/metrics"
	"landledger/internal/ledgersync/models"
	"landledger/internal/ledgersync/ports"
	registrymodels "landledger/internal/registry/models"
	id "landledger/pkg/domain"
	dErrors "landledger/pkg/domain-errors"
	"landledger/pkg/platform/audit"
	"landledger/pkg/requestcontext"
)

// Config holds the tunables of the core.
type Config struct {
	// DocumentPrefix + land id is the placeholder document hash minted when
	// the caller supplies none.
	DocumentPrefix   string
	DefaultLandType  registrymodels.LandType
	IssuingAuthority string

	FinalityTimeout time.Duration
	// LeaseMargin is added to FinalityTimeout so a crashed holder's lease
	// outlives any wait it could have been in.
	LeaseMargin time.Duration

	// MaxAttempts bounds both the in-workflow retries of one off-chain write
	// and the number of reconciler passes before an operator alert.
	MaxAttempts          int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
}

func (c Config) withDefaults() Config {
	if c.IssuingAuthority == "" {
		c.IssuingAuthority = "GOVT"
	}
	if c.FinalityTimeout <= 0 {
		c.FinalityTimeout = 2 * time.Minute
	}
	if c.LeaseMargin <= 0 {
		c.LeaseMargin = 30 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.RetryInitialInterval <= 0 {
		c.RetryInitialInterval = 200 * time.Millisecond
	}
	if c.RetryMaxInterval <= 0 {
		c.RetryMaxInterval = 5 * time.Second
	}
	return c
}

// Deps are the required collaborators.
type Deps struct {
	Chain    ports.Chain
	Records  ports.RecordStore
	Owners   ports.OwnerDirectory
	Census   ports.CitizenCensus
	Listings ports.ListingStore
	Leases   ports.LeaseManager
	Journal  ports.Journal
}

type Service struct {
	chain    ports.Chain
	records  ports.RecordStore
	owners   ports.OwnerDirectory
	census   ports.CitizenCensus
	listings ports.ListingStore
	leases   ports.LeaseManager
	journal  ports.Journal

	alerts  ports.AlertSink
	auditor ports.AuditPort
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
	cfg     Config
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditor(a ports.AuditPort) Option {
	return func(s *Service) { s.auditor = a }
}

func WithAlertSink(a ports.AlertSink) Option {
	return func(s *Service) { s.alerts = a }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

func New(deps Deps, cfg Config, opts ...Option) (*Service, error) {
	switch {
	case deps.Chain == nil:
		return nil, errors.New("chain is required")
	case deps.Records == nil || deps.Owners == nil || deps.Census == nil:
		return nil, errors.New("records store, owner directory and census are required")
	case deps.Listings == nil:
		return nil, errors.New("listing store is required")
	case deps.Leases == nil:
		return nil, errors.New("lease manager is required")
	case deps.Journal == nil:
		return nil, errors.New("journal is required")
	}
	s := &Service{
		chain:    deps.Chain,
		records:  deps.Records,
		owners:   deps.Owners,
		census:   deps.Census,
		listings: deps.Listings,
		leases:   deps.Leases,
		journal:  deps.Journal,
		logger:   slog.Default(),
		tracer:   otel.Tracer("landledger/ledgersync"),
		cfg:      cfg.withDefaults(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// leaseTTL ties lease expiry to the finality wait.
func (s *Service) leaseTTL() time.Duration {
	return s.cfg.FinalityTimeout + s.cfg.LeaseMargin
}

// =============================================================================
// Observability helpers
// =============================================================================

func (s *Service) startSpan(ctx context.Context, kind models.WorkflowKind, land id.LandID) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "ledgersync."+kind.String(),
		trace.WithAttributes(
			attribute.String("workflow", kind.String()),
			attribute.String("land.id", land.String()),
		),
	)
}

// finish records the outcome of a workflow on its span, metrics and log.
func (s *Service) finish(ctx context.Context, span trace.Span, kind models.WorkflowKind, land id.LandID, start time.Time, err error) {
	defer span.End()
	outcome := "ok"
	if err != nil {
		outcome = string(dErrors.CodeOf(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	s.metrics.ObserveWorkflow(kind.String(), outcome, start)

	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"workflow", kind.String(),
		"land_id", land.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	}
	switch {
	case err == nil:
		s.logger.InfoContext(ctx, "workflow completed", attrs...)
	case dErrors.HasCode(err, dErrors.CodeInternal), dErrors.HasCode(err, dErrors.CodeReconciliationPending):
		s.logger.ErrorContext(ctx, "workflow failed", append(attrs, "outcome", outcome, "error", err)...)
	default:
		s.logger.InfoContext(ctx, "workflow rejected", append(attrs, "outcome", outcome, "reason", err.Error())...)
	}
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, event audit.Event) {
	if s.auditor == nil {
		return
	}
	event.Action = string(action)
	event.Category = action.Category()
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"request_id", requestcontext.RequestID(ctx),
			"action", event.Action,
			"error", err,
		)
	}
}

// deny audits a guard rejection and returns err unchanged.
func (s *Service) deny(ctx context.Context, kind models.WorkflowKind, land id.LandID, wallet id.Address, err error) error {
	s.emit(ctx, audit.EventWorkflowDenied, audit.Event{
		LandID:   land.String(),
		Wallet:   wallet.String(),
		Decision: "denied",
		Reason:   fmt.Sprintf("%s: %s", kind, err.Error()),
	})
	return err
}
