package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"landledger/internal/ledgersync/models"
	registrymodels "landledger/internal/registry/models"
	id "landledger/pkg/domain"
	dErrors "landledger/pkg/domain-errors"
	"landledger/pkg/platform/audit"
	"landledger/pkg/platform/sentinel"
	"landledger/pkg/requestcontext"
)

// effect is one off-chain write performed after finality.
type effect struct {
	store models.Store
	apply func(ctx context.Context) error
}

// withLease runs fn while holding the (kind, key) in-flight lease. Key is the
// land id, or the wallet for registration. The lease is released on every
// terminal outcome, including errors.
func (s *Service) withLease(ctx context.Context, kind models.WorkflowKind, key string, fn func(ctx context.Context) error) error {
	lease, err := s.leases.Acquire(ctx, kind, key, s.leaseTTL())
	if err != nil {
		if errors.Is(err, sentinel.ErrHeld) {
			s.metrics.IncLeaseContention(kind.String())
			return dErrors.New(dErrors.CodeConflict, "workflow already in flight").
				WithDetail("key", key).
				WithDetail("workflow", kind.String())
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to acquire workflow lease")
	}
	defer func() {
		if err := s.leases.Release(context.WithoutCancel(ctx), lease); err != nil {
			s.logger.WarnContext(ctx, "failed to release workflow lease",
				"request_id", requestcontext.RequestID(ctx),
				"workflow", kind.String(),
				"key", key,
				"error", err,
			)
		}
	}()
	return fn(ctx)
}

// settle waits for tx to become final. Once submitted a transaction cannot be
// withdrawn, so the wait ignores caller cancellation. When the outcome is
// ambiguous and the workflow has off-chain effects, an awaiting_finality
// entry is journaled for the reconciler.
func (s *Service) settle(ctx context.Context, kind models.WorkflowKind, land id.LandID, tx id.TxHash, eff *models.Effect) (registrymodels.Finality, error) {
	waitCtx := context.WithoutCancel(ctx)
	ctx, span := s.tracer.Start(ctx, "ledgersync.await_finality")
	defer span.End()

	f, err := s.chain.AwaitFinality(waitCtx, tx, s.cfg.FinalityTimeout)
	if err == nil && f.Status == registrymodels.FinalityConfirmed {
		return f, nil
	}
	if err == nil && f.Status == registrymodels.FinalityReverted {
		return f, dErrors.New(dErrors.CodeChainRejected, "transaction reverted").
			WithDetail("tx_hash", tx.String()).
			WithDetail("land_id", land.String())
	}

	timeoutErr := dErrors.Wrap(err, dErrors.CodeFinalityTimeout, "transaction submitted but finality was not observed").
		WithDetail("tx_hash", tx.String()).
		WithDetail("land_id", land.String())
	if eff != nil {
		now := requestcontext.Now(ctx)
		entry := models.JournalEntry{
			ID:        uuid.New(),
			Kind:      kind,
			Land:      land,
			TxHash:    tx,
			State:     models.EntryAwaitingFinality,
			Effect:    *eff,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err != nil {
			entry.LastError = err.Error()
		}
		if jerr := s.journal.Save(waitCtx, entry); jerr != nil {
			s.logger.ErrorContext(ctx, "failed to journal unsettled transaction",
				"request_id", requestcontext.RequestID(ctx),
				"tx_hash", tx.String(),
				"land_id", land.String(),
				"error", jerr,
			)
		} else {
			timeoutErr.WithDetail("journal_id", entry.ID.String())
		}
	}
	return f, timeoutErr
}

// complete applies the post-finality writes of a workflow. Any write that
// still fails after its retries leaves a pending journal entry and turns into
// a reconciliation error carrying the transaction, land and failed stores.
func (s *Service) complete(ctx context.Context, kind models.WorkflowKind, land id.LandID, tx id.TxHash, eff models.Effect) error {
	ctx = context.WithoutCancel(ctx)
	failed, lastErr := s.applyEffects(ctx, s.effectsFor(kind, land, eff, nil))
	if len(failed) == 0 {
		return nil
	}

	now := requestcontext.Now(ctx)
	entry := models.JournalEntry{
		ID:           uuid.New(),
		Kind:         kind,
		Land:         land,
		TxHash:       tx,
		State:        models.EntryPending,
		FailedStores: failed,
		Effect:       eff,
		Attempts:     1,
		LastError:    lastErr.Error(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.journal.Save(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "failed to journal reconciliation",
			"request_id", requestcontext.RequestID(ctx),
			"tx_hash", tx.String(),
			"land_id", land.String(),
			"error", err,
		)
	}
	s.emit(ctx, audit.EventReconciliationPending, audit.Event{
		LandID: land.String(),
		TxHash: tx.String(),
		Reason: joinStores(failed),
	})
	return reconciliationError(kind, tx, land, failed, entry.ID, lastErr)
}

// applyEffects runs every effect independently and reports the stores whose
// write did not succeed.
func (s *Service) applyEffects(ctx context.Context, effects []effect) ([]models.Store, error) {
	var (
		failed  []models.Store
		lastErr error
	)
	for _, e := range effects {
		if err := s.retry(ctx, e); err != nil {
			s.logger.ErrorContext(ctx, "off-chain write failed",
				"request_id", requestcontext.RequestID(ctx),
				"store", string(e.store),
				"error", err,
			)
			failed = append(failed, e.store)
			lastErr = err
		}
	}
	return failed, lastErr
}

func (s *Service) retry(ctx context.Context, e effect) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.RetryInitialInterval
	b.MaxInterval = s.cfg.RetryMaxInterval
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.cfg.MaxAttempts-1)), ctx)

	return backoff.RetryNotify(func() error {
		err := e.apply(ctx)
		if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrInvalidState) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, wait time.Duration) {
		s.metrics.IncEffectRetry(string(e.store))
		s.logger.WarnContext(ctx, "retrying off-chain write",
			"store", string(e.store),
			"wait_ms", wait.Milliseconds(),
			"error", err,
		)
	})
}

// effectsFor builds the post-finality writes of a workflow. only restricts
// them to the listed stores; nil means all.
func (s *Service) effectsFor(kind models.WorkflowKind, land id.LandID, eff models.Effect, only []models.Store) []effect {
	var all []effect
	switch kind {
	case models.WorkflowLock:
		price, _ := id.ParseWei(eff.Price)
		all = append(all, effect{models.StoreListings, s.markOnChain(land, price)})
	case models.WorkflowCancel:
		all = append(all, effect{models.StoreListings, s.markListed(land)})
	case models.WorkflowPurchase:
		all = append(all,
			effect{models.StoreRecords, func(ctx context.Context) error {
				return s.records.ReassignLegalID(ctx, land, eff.LegalID)
			}},
			effect{models.StoreListings, s.markSold(land)},
		)
	case models.WorkflowTransfer:
		all = append(all,
			effect{models.StoreRecords, s.assignOwner(land, eff)},
			effect{models.StoreListings, s.withdrawAfterTransfer(land, eff.NewOwner)},
		)
	}
	if only == nil {
		return all
	}
	var out []effect
	for _, e := range all {
		if slices.Contains(only, e.store) {
			out = append(out, e)
		}
	}
	return out
}

func reconciliationError(kind models.WorkflowKind, tx id.TxHash, land id.LandID, failed []models.Store, entryID uuid.UUID, cause error) error {
	msg := "chain transaction finalized, reconciliation pending"
	if kind == models.WorkflowPurchase {
		msg = "payment succeeded, reconciliation pending"
	}
	return dErrors.Wrap(cause, dErrors.CodeReconciliationPending, msg).
		WithDetail("tx_hash", tx.String()).
		WithDetail("land_id", land.String()).
		WithDetail("failed_stores", joinStores(failed)).
		WithDetail("journal_id", entryID.String())
}

func joinStores(stores []models.Store) string {
	parts := make([]string, len(stores))
	for i, st := range stores {
		parts[i] = string(st)
	}
	return strings.Join(parts, ",")
}

// chainError keeps coded chain errors (rejections) and wraps transport failures.
func chainError(err error, msg string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
