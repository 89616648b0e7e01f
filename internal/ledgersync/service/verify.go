package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"landledger/internal/ledgersync/models"
	registrymodels "landledger/internal/registry/models"
	dErrors "landledger/pkg/domain-errors"
	"landledger/pkg/platform/audit"
	"landledger/pkg/platform/sentinel"
)

// Verify mints a land the caller holds in the government records. The three
// guards run in order: registered identity, matching record, not yet minted.
// Nothing off-chain is written.
func (s *Service) Verify(ctx context.Context, req models.VerifyRequest) (res models.VerifyResult, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, models.WorkflowVerify, req.Land)
	defer func() { s.finish(ctx, span, models.WorkflowVerify, req.Land, start, err) }()

	if req.Wallet.IsZero() || req.Land.IsNil() {
		return res, dErrors.New(dErrors.CodeValidation, "wallet address and land id are required")
	}

	err = s.withLease(ctx, models.WorkflowVerify, req.Land.String(), func(ctx context.Context) error {
		identity, err := s.chain.Identity(ctx, req.Wallet)
		if err != nil {
			return chainError(err, "failed to read identity")
		}
		if !identity.Verified() {
			return s.deny(ctx, models.WorkflowVerify, req.Land, req.Wallet,
				dErrors.New(dErrors.CodeForbidden, "Wallet is not registered on the blockchain."))
		}

		if _, err := s.records.FindByLandAndLegalID(ctx, req.Land, identity.LegalID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return s.deny(ctx, models.WorkflowVerify, req.Land, req.Wallet,
					dErrors.New(dErrors.CodeForbidden, "Verification failed: land is not linked to records for your legal id."))
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read government records")
		}

		record, err := s.chain.LandRecord(ctx, req.Land)
		if err != nil {
			return chainError(err, "failed to read land record")
		}
		if record.Minted() {
			s.emit(ctx, audit.EventMintRejected, audit.Event{
				LandID: req.Land.String(),
				Wallet: req.Wallet.String(),
				Reason: "already digitized",
			})
			return dErrors.New(dErrors.CodeAlreadyDone, "Land is already digitized on the blockchain.").
				WithDetail("owner", record.Owner.String())
		}

		if err := ctx.Err(); err != nil {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "request cancelled before submission")
		}
		tx, err := s.chain.MintLand(ctx, s.mintRequest(req))
		if err != nil {
			return chainError(err, "failed to submit mint")
		}
		f, err := s.settle(ctx, models.WorkflowVerify, req.Land, tx, nil)
		if err != nil {
			return err
		}
		res = models.VerifyResult{TxHash: tx, Block: f.Block}
		s.emit(ctx, audit.EventLandMinted, audit.Event{
			LandID:   req.Land.String(),
			Wallet:   req.Wallet.String(),
			TxHash:   tx.String(),
			Decision: "minted",
		})
		return nil
	})
	return res, err
}

func (s *Service) mintRequest(req models.VerifyRequest) registrymodels.MintRequest {
	doc := strings.TrimSpace(req.DocumentHash)
	if doc == "" {
		doc = s.cfg.DocumentPrefix + req.Land.String()
	}
	landType := s.cfg.DefaultLandType
	if req.LandType != nil {
		landType = *req.LandType
	}
	return registrymodels.MintRequest{
		Owner:        req.Wallet,
		Land:         req.Land,
		DocumentHash: doc,
		LandType:     landType,
	}
}

// Register binds a wallet to a legal id on-chain after checking the census.
// A name that differs from the census entry is reported, not rejected.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (res models.RegisterResult, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, models.WorkflowRegister, "")
	defer func() { s.finish(ctx, span, models.WorkflowRegister, "", start, err) }()

	if req.Wallet.IsZero() || req.LegalID.IsNil() || strings.TrimSpace(req.Name) == "" {
		return res, dErrors.New(dErrors.CodeValidation, "wallet address, name and legal id are required")
	}

	err = s.withLease(ctx, models.WorkflowRegister, req.Wallet.String(), func(ctx context.Context) error {
		identity, err := s.chain.Identity(ctx, req.Wallet)
		if err != nil {
			return chainError(err, "failed to read identity")
		}
		if identity.Registered {
			return dErrors.New(dErrors.CodeAlreadyDone, "wallet is already registered").
				WithDetail("legal_id", identity.LegalID.String())
		}

		citizen, err := s.census.FindCitizen(ctx, req.LegalID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return s.deny(ctx, models.WorkflowRegister, "", req.Wallet,
					dErrors.New(dErrors.CodeForbidden, "Legal id is not found in the government census."))
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read census")
		}
		res.NameMismatch = !citizen.NameMatches(req.Name)
		res.CensusName = citizen.FullName

		tx, err := s.chain.RegisterIdentity(ctx, req.Wallet, strings.TrimSpace(req.Name), req.LegalID)
		if err != nil {
			return chainError(err, "failed to submit registration")
		}
		if _, err := s.settle(ctx, models.WorkflowRegister, "", tx, nil); err != nil {
			return err
		}
		res.TxHash = tx
		event := audit.Event{Wallet: req.Wallet.String(), TxHash: tx.String()}
		if res.NameMismatch {
			event.Reason = "name differs from census"
		}
		s.emit(ctx, audit.EventIdentityRegister, event)
		return nil
	})
	return res, err
}
