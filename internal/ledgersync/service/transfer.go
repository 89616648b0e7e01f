package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"landledger/internal/ledgersync/models"
	id "landledger/pkg/domain"
	dErrors "landledger/pkg/domain-errors"
	"landledger/pkg/platform/audit"
	"landledger/pkg/platform/sentinel"
)

// Transfer moves title directly, outside the marketplace. The receiver must
// be in the owner directory and the caller must be the current chain owner.
func (s *Service) Transfer(ctx context.Context, req models.TransferRequest) (res models.TransferResult, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, models.WorkflowTransfer, req.Land)
	defer func() { s.finish(ctx, span, models.WorkflowTransfer, req.Land, start, err) }()

	if req.Land.IsNil() || req.Owner.IsZero() || req.NewOwner.IsZero() {
		return res, dErrors.New(dErrors.CodeValidation, "owner address, new owner address and land id are required")
	}
	if req.Owner.Equal(req.NewOwner) {
		return res, dErrors.New(dErrors.CodeValidation, "new owner must differ from the current owner")
	}

	err = s.withLease(ctx, models.WorkflowTransfer, req.Land.String(), func(ctx context.Context) error {
		receiver, err := s.owners.FindByWallet(ctx, req.NewOwner)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return s.deny(ctx, models.WorkflowTransfer, req.Land, req.Owner,
					dErrors.New(dErrors.CodeForbidden, "The receiver is not registered in the land registry system."))
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read owner directory")
		}

		record, err := s.chain.LandRecord(ctx, req.Land)
		if err != nil {
			return chainError(err, "failed to read land record")
		}
		if !record.Minted() || !record.Owner.Equal(req.Owner) {
			return s.deny(ctx, models.WorkflowTransfer, req.Land, req.Owner,
				dErrors.New(dErrors.CodeForbidden, "only the current owner can transfer this land"))
		}

		identity, err := s.chain.Identity(ctx, req.NewOwner)
		if err != nil {
			return chainError(err, "failed to read receiver identity")
		}
		if !identity.Verified() {
			return s.deny(ctx, models.WorkflowTransfer, req.Land, req.Owner,
				dErrors.New(dErrors.CodeForbidden, "receiver is not registered on the blockchain"))
		}

		tx, err := s.chain.Transfer(ctx, req.Owner, req.Land, req.NewOwner, id.Wei{})
		if err != nil {
			return chainError(err, "failed to submit transfer")
		}
		eff := models.Effect{NewOwner: req.NewOwner, LegalID: identity.LegalID}
		f, err := s.settle(ctx, models.WorkflowTransfer, req.Land, tx, &eff)
		if err != nil {
			return err
		}
		res = models.TransferResult{TxHash: tx, Block: f.Block, Owner: receiver}
		if err := s.complete(ctx, models.WorkflowTransfer, req.Land, tx, eff); err != nil {
			return err
		}
		s.emit(ctx, audit.EventTitleTransferred, audit.Event{
			LandID:       req.Land.String(),
			Wallet:       req.Owner.String(),
			Counterparty: req.NewOwner.String(),
			TxHash:       tx.String(),
		})
		return nil
	})
	return res, err
}

// assignOwner re-resolves the receiver after finality; the directory may have
// changed while the transaction was pending.
func (s *Service) assignOwner(land id.LandID, eff models.Effect) func(context.Context) error {
	return func(ctx context.Context) error {
		owner, err := s.owners.FindByWallet(ctx, eff.NewOwner)
		if err != nil {
			return fmt.Errorf("resolve new owner %s: %w", eff.NewOwner, err)
		}
		legalID := eff.LegalID
		if legalID.IsNil() {
			legalID = owner.LegalID
		}
		return s.records.AssignOwner(ctx, land, owner.ID, legalID)
	}
}
