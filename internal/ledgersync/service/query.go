package service

import (
	"context"
	"errors"
	"sort"

	"golang.org/x/sync/errgroup"

	"landledger/internal/ledgersync/models"
	recordmodels "landledger/internal/records/models"
	registrymodels "landledger/internal/registry/models"
	id "landledger/pkg/domain"
	dErrors "landledger/pkg/domain-errors"
	"landledger/pkg/platform/sentinel"
)

const portfolioConcurrency = 4

// History rebuilds the ownership chain of a land from registry logs, most
// recent first. A land with no events yields an empty slice.
func (s *Service) History(ctx context.Context, land id.LandID) ([]models.HistoryEntry, error) {
	if land.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "land id is required")
	}
	ctx, span := s.tracer.Start(ctx, "ledgersync.history")
	defer span.End()

	var mints, transfers []registrymodels.ChainEvent
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		mints, err = s.chain.Events(gctx, registrymodels.EventMint)
		return err
	})
	g.Go(func() error {
		var err error
		transfers, err = s.chain.Events(gctx, registrymodels.EventTransfer)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, chainError(err, "failed to scan registry events")
	}

	var events []registrymodels.ChainEvent
	for _, ev := range append(mints, transfers...) {
		if ev.Land == land {
			events = append(events, ev)
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Block != events[j].Block {
			return events[i].Block > events[j].Block
		}
		return events[i].LogIndex > events[j].LogIndex
	})

	out := make([]models.HistoryEntry, 0, len(events))
	for _, ev := range events {
		entry := models.HistoryEntry{
			Kind:   ev.Kind,
			From:   ev.From.String(),
			To:     ev.To,
			Price:  ev.Price,
			TxHash: ev.TxHash,
			Block:  ev.Block,
		}
		if ev.Kind == registrymodels.EventMint {
			entry.From = s.cfg.IssuingAuthority
		}
		out = append(out, entry)
	}
	return out, nil
}

// LandView reads one land across the chain and both off-chain stores.
func (s *Service) LandView(ctx context.Context, land id.LandID) (models.LandView, error) {
	if land.IsNil() {
		return models.LandView{}, dErrors.New(dErrors.CodeValidation, "land id is required")
	}
	var view models.LandView
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rec, err := s.chain.LandRecord(gctx, land)
		if err != nil {
			return chainError(err, "failed to read land record")
		}
		view.Record = rec
		return nil
	})
	g.Go(func() error {
		l, err := s.chain.Listing(gctx, land)
		if err != nil {
			return chainError(err, "failed to read chain listing")
		}
		view.ChainListing = l
		return nil
	})
	g.Go(func() error {
		l, err := s.listings.Get(gctx, land)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read listing")
		}
		view.Listing = &l
		return nil
	})
	g.Go(func() error {
		rec, err := s.records.FindByLand(gctx, land)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read government record")
		}
		view.Govt = &rec
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.LandView{}, err
	}
	if !view.Record.Minted() && view.Govt == nil {
		return models.LandView{}, dErrors.New(dErrors.CodeNotFound, "land not found").WithDetail("land_id", land.String())
	}
	return view, nil
}

// Portfolio lists the lands a registered wallet holds in the government
// records, with their digitization and marketplace state.
func (s *Service) Portfolio(ctx context.Context, wallet id.Address) ([]models.PortfolioEntry, error) {
	if wallet.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "wallet address is required")
	}
	identity, err := s.chain.Identity(ctx, wallet)
	if err != nil {
		return nil, chainError(err, "failed to read identity")
	}
	if !identity.Verified() {
		return nil, dErrors.New(dErrors.CodeForbidden, "Wallet is not registered on the blockchain.")
	}

	records, err := s.records.ListByLegalID(ctx, identity.LegalID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read government records")
	}

	out := make([]models.PortfolioEntry, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(portfolioConcurrency)
	for i, rec := range records {
		g.Go(func() error {
			entry, err := s.portfolioEntry(gctx, rec)
			out[i] = entry
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) portfolioEntry(ctx context.Context, rec recordmodels.GovtRecord) (models.PortfolioEntry, error) {
	entry := models.PortfolioEntry{Record: rec}
	chainRec, err := s.chain.LandRecord(ctx, rec.Land)
	if err != nil {
		return entry, chainError(err, "failed to read land record")
	}
	entry.Minted = chainRec.Minted()

	l, err := s.listings.Get(ctx, rec.Land)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
	case err != nil:
		return entry, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read listing")
	default:
		entry.ListingStatus = l.Status
	}
	return entry, nil
}

