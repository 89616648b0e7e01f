package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"landledger/internal/ledgersync/models"
	registrymodels "landledger/internal/registry/models"
	dErrors "landledger/pkg/domain-errors"
	"landledger/pkg/platform/audit"
	"landledger/pkg/platform/sentinel"
	"landledger/pkg/requestcontext"
)

const defaultReconcileBatch = 50

// OpenReconciliations lists journal entries that still need work, oldest first.
func (s *Service) OpenReconciliations(ctx context.Context, limit int) ([]models.JournalEntry, error) {
	if limit <= 0 {
		limit = defaultReconcileBatch
	}
	entries, err := s.journal.ListOpen(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list reconciliation entries")
	}
	return entries, nil
}

// Replay drives one journal entry forward. Entries awaiting finality re-query
// the chain first; pending entries re-apply only the stores that failed.
// A resolved entry is returned unchanged.
func (s *Service) Replay(ctx context.Context, entryID uuid.UUID) (models.JournalEntry, error) {
	entry, err := s.journal.Get(ctx, entryID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.JournalEntry{}, dErrors.New(dErrors.CodeNotFound, "reconciliation entry not found").
			WithDetail("journal_id", entryID.String())
	}
	if err != nil {
		return models.JournalEntry{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load reconciliation entry")
	}
	if !entry.Open() {
		return entry, nil
	}

	ctx, span := s.tracer.Start(ctx, "ledgersync.replay")
	defer span.End()

	err = s.withLease(ctx, entry.Kind, entry.Land.String(), func(ctx context.Context) error {
		entry = s.advance(ctx, entry)
		entry.Attempts++
		entry.UpdatedAt = requestcontext.Now(ctx)
		if entry.Open() && entry.Attempts >= s.cfg.MaxAttempts && !entry.Alerted {
			entry.Alerted = s.raiseAlert(ctx, entry)
		}
		if err := s.journal.Save(context.WithoutCancel(ctx), entry); err != nil {
			s.metrics.IncReconciliation("error")
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update reconciliation entry")
		}
		return nil
	})
	if err != nil {
		return models.JournalEntry{}, err
	}

	if entry.Open() {
		s.metrics.IncReconciliation("pending")
		s.logger.WarnContext(ctx, "reconciliation still pending",
			"journal_id", entry.ID.String(),
			"workflow", entry.Kind.String(),
			"land_id", entry.Land.String(),
			"state", string(entry.State),
			"attempts", entry.Attempts,
			"error", entry.LastError,
		)
		return entry, nil
	}
	s.metrics.IncReconciliation("resolved")
	s.logger.InfoContext(ctx, "reconciliation resolved",
		"journal_id", entry.ID.String(),
		"workflow", entry.Kind.String(),
		"land_id", entry.Land.String(),
		"attempts", entry.Attempts,
	)
	s.emit(ctx, audit.EventReconciliationResolved, audit.Event{
		LandID: entry.Land.String(),
		TxHash: entry.TxHash.String(),
	})
	return entry, nil
}

// advance performs one replay step and returns the updated entry.
func (s *Service) advance(ctx context.Context, entry models.JournalEntry) models.JournalEntry {
	only := entry.FailedStores
	if entry.State == models.EntryAwaitingFinality {
		f, err := s.chain.AwaitFinality(context.WithoutCancel(ctx), entry.TxHash, s.cfg.FinalityTimeout)
		switch {
		case err != nil:
			entry.LastError = err.Error()
			return entry
		case f.Status == registrymodels.FinalityReverted:
			// nothing happened on-chain, so nothing is owed off-chain
			entry.State = models.EntryResolved
			entry.FailedStores = nil
			entry.LastError = "transaction reverted"
			return entry
		case f.Status != registrymodels.FinalityConfirmed:
			entry.LastError = "finality not observed"
			return entry
		}
		only = nil
	}

	failed, lastErr := s.applyEffects(context.WithoutCancel(ctx), s.effectsFor(entry.Kind, entry.Land, entry.Effect, only))
	if len(failed) == 0 {
		entry.State = models.EntryResolved
		entry.FailedStores = nil
		entry.LastError = ""
		return entry
	}
	entry.State = models.EntryPending
	entry.FailedStores = failed
	entry.LastError = lastErr.Error()
	return entry
}

// raiseAlert notifies operators that an entry exhausted its attempts. It
// reports whether the alert was delivered so a failed delivery is retried on
// the next pass.
func (s *Service) raiseAlert(ctx context.Context, entry models.JournalEntry) bool {
	alert := models.Alert{
		EntryID:      entry.ID,
		Kind:         entry.Kind,
		Land:         entry.Land,
		TxHash:       entry.TxHash,
		FailedStores: entry.FailedStores,
		Attempts:     entry.Attempts,
		LastError:    entry.LastError,
		RaisedAt:     requestcontext.Now(ctx),
	}
	s.logger.ErrorContext(ctx, "reconciliation attempts exhausted",
		"journal_id", entry.ID.String(),
		"workflow", entry.Kind.String(),
		"land_id", entry.Land.String(),
		"tx_hash", entry.TxHash.String(),
		"failed_stores", joinStores(entry.FailedStores),
		"attempts", entry.Attempts,
		"error", entry.LastError,
	)
	s.metrics.IncAlert()
	s.emit(ctx, audit.EventReconciliationAlert, audit.Event{
		LandID: entry.Land.String(),
		TxHash: entry.TxHash.String(),
		Reason: entry.LastError,
	})
	if s.alerts == nil {
		return true
	}
	if err := s.alerts.Alert(context.WithoutCancel(ctx), alert); err != nil {
		s.logger.ErrorContext(ctx, "failed to deliver reconciliation alert",
			"journal_id", entry.ID.String(),
			"error", err,
		)
		return false
	}
	return true
}

// Reconciler periodically replays open journal entries.
type Reconciler struct {
	svc      *Service
	interval time.Duration
	batch    int
	logger   *slog.Logger
}

func NewReconciler(svc *Service, interval time.Duration, logger *slog.Logger) *Reconciler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{svc: svc, interval: interval, batch: defaultReconcileBatch, logger: logger}
}

// Run ticks until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil {
				r.logger.ErrorContext(ctx, "reconciler pass failed", "error", err)
			}
		}
	}
}

// RunOnce replays one batch of open entries and returns how many resolved.
// Entries whose land is busy with a live workflow are left for the next pass.
func (r *Reconciler) RunOnce(ctx context.Context) (int, error) {
	entries, err := r.svc.OpenReconciliations(ctx, r.batch)
	if err != nil {
		return 0, err
	}
	resolved := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		out, err := r.svc.Replay(ctx, entry.ID)
		switch {
		case dErrors.HasCode(err, dErrors.CodeConflict):
			continue
		case err != nil:
			r.logger.ErrorContext(ctx, "replay failed",
				"journal_id", entry.ID.String(),
				"error", err,
			)
		case !out.Open():
			resolved++
		}
	}
	r.svc.metrics.SetPending(len(entries) - resolved)
	return resolved, nil
}
