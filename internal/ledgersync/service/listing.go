package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"landledger/internal/ledgersync/models"
	listingmodels "landledger/internal/listings/models"
	registrymodels "landledger/internal/registry/models"
	id "landledger/pkg/domain"
	dErrors "landledger/pkg/domain-errors"
	"landledger/pkg/platform/audit"
	"landledger/pkg/platform/sentinel"
)

// CreateListing records a marketplace listing. It is off-chain only: the land
// must be minted and owned by the seller, and no open listing may exist.
func (s *Service) CreateListing(ctx context.Context, req models.CreateListingRequest) (res models.ListingResult, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, models.WorkflowList, req.Land)
	defer func() { s.finish(ctx, span, models.WorkflowList, req.Land, start, err) }()

	draft := listingmodels.Listing{
		Land:        req.Land,
		Seller:      req.Seller,
		Description: strings.TrimSpace(req.Description),
		Location:    strings.TrimSpace(req.Location),
		Contact:     strings.TrimSpace(req.Contact),
		PriceMin:    req.PriceMin,
		PriceMax:    req.PriceMax,
		Photos:      req.Photos,
		Status:      listingmodels.StatusListed,
	}
	if err := draft.Validate(); err != nil {
		return res, err
	}

	err = s.withLease(ctx, models.WorkflowList, req.Land.String(), func(ctx context.Context) error {
		record, err := s.chain.LandRecord(ctx, req.Land)
		if err != nil {
			return chainError(err, "failed to read land record")
		}
		if !record.Minted() || !record.Owner.Equal(req.Seller) {
			return s.deny(ctx, models.WorkflowList, req.Land, req.Seller,
				dErrors.New(dErrors.CodeForbidden, "land must be digitized and owned by the seller"))
		}
		if record.Status != registrymodels.LandStatusActive {
			return s.deny(ctx, models.WorkflowList, req.Land, req.Seller,
				dErrors.New(dErrors.CodeForbidden, "land is "+record.Status.String()+" and cannot be listed"))
		}
		draft.LandType = record.LandType.String()

		created, err := s.listings.Create(ctx, draft)
		if err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "an open listing already exists for this land")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create listing")
		}
		res.Listing = created
		s.emit(ctx, audit.EventListingCreated, audit.Event{
			LandID: req.Land.String(),
			Wallet: req.Seller.String(),
		})
		return nil
	})
	return res, err
}

// LockPrice puts a listing on-chain at its final price. Locking again at the
// same price succeeds with AlreadyDone.
func (s *Service) LockPrice(ctx context.Context, req models.LockPriceRequest) (res models.ListingResult, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, models.WorkflowLock, req.Land)
	defer func() { s.finish(ctx, span, models.WorkflowLock, req.Land, start, err) }()

	if req.Land.IsNil() || req.Seller.IsZero() {
		return res, dErrors.New(dErrors.CodeValidation, "seller address and land id are required")
	}
	if req.Price.Sign() <= 0 {
		return res, dErrors.New(dErrors.CodeValidation, "final price must be positive")
	}

	err = s.withLease(ctx, models.WorkflowLock, req.Land.String(), func(ctx context.Context) error {
		listing, err := s.loadListing(ctx, req.Land)
		if err != nil {
			return err
		}
		if !listing.Seller.Equal(req.Seller) {
			return s.deny(ctx, models.WorkflowLock, req.Land, req.Seller,
				dErrors.New(dErrors.CodeForbidden, "only the seller can lock the price"))
		}
		switch listing.Status {
		case listingmodels.StatusOnChain:
			if listing.FinalPrice.Equal(req.Price) {
				res = models.ListingResult{Listing: listing, AlreadyDone: true}
				return nil
			}
			return dErrors.New(dErrors.CodeConflict, "listing is already on-chain at a different price, cancel it first").
				WithDetail("final_price", listing.FinalPrice.String())
		case listingmodels.StatusSold, listingmodels.StatusWithdrawn:
			return dErrors.New(dErrors.CodeConflict, "listing is "+listing.Status.String())
		}
		if !listing.InRange(req.Price) {
			return dErrors.New(dErrors.CodeValidation, "final price is outside the advertised range").
				WithDetail("price_min", listing.PriceMin.String()).
				WithDetail("price_max", listing.PriceMax.String())
		}

		tx, err := s.chain.ListForSale(ctx, req.Seller, req.Land, req.Price)
		if err != nil {
			return chainError(err, "failed to submit listing")
		}
		eff := models.Effect{Price: req.Price.String()}
		if _, err := s.settle(ctx, models.WorkflowLock, req.Land, tx, &eff); err != nil {
			return err
		}
		res.TxHash = tx
		if err := s.complete(ctx, models.WorkflowLock, req.Land, tx, eff); err != nil {
			return err
		}
		s.emit(ctx, audit.EventPriceLocked, audit.Event{
			LandID: req.Land.String(),
			Wallet: req.Seller.String(),
			TxHash: tx.String(),
			Reason: req.Price.String(),
		})
		res.Listing, err = s.loadListing(ctx, req.Land)
		return err
	})
	return res, err
}

// CancelListing withdraws an on-chain listing. Repeating a cancel whose chain
// listing is already inactive succeeds with AlreadyDone and submits nothing.
func (s *Service) CancelListing(ctx context.Context, req models.CancelRequest) (res models.ListingResult, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, models.WorkflowCancel, req.Land)
	defer func() { s.finish(ctx, span, models.WorkflowCancel, req.Land, start, err) }()

	if req.Land.IsNil() || req.Seller.IsZero() {
		return res, dErrors.New(dErrors.CodeValidation, "seller address and land id are required")
	}

	err = s.withLease(ctx, models.WorkflowCancel, req.Land.String(), func(ctx context.Context) error {
		listing, err := s.loadListing(ctx, req.Land)
		if err != nil {
			return err
		}
		if !listing.Seller.Equal(req.Seller) {
			return s.deny(ctx, models.WorkflowCancel, req.Land, req.Seller,
				dErrors.New(dErrors.CodeForbidden, "only the seller can cancel the listing"))
		}
		if !listing.Open() {
			return dErrors.New(dErrors.CodeConflict, "listing is "+listing.Status.String())
		}

		onChain, err := s.chain.Listing(ctx, req.Land)
		if err != nil {
			return chainError(err, "failed to read chain listing")
		}
		if !onChain.Active {
			// nothing to cancel on-chain; bring the off-chain side in line
			if listing.Status == listingmodels.StatusOnChain {
				failed, lastErr := s.applyEffects(ctx, s.effectsFor(models.WorkflowCancel, req.Land, models.Effect{}, nil))
				if len(failed) > 0 {
					return dErrors.Wrap(lastErr, dErrors.CodeInternal, "failed to revert listing status")
				}
			}
			res.AlreadyDone = true
			res.Listing, err = s.loadListing(ctx, req.Land)
			return err
		}

		tx, err := s.chain.CancelListing(ctx, req.Seller, req.Land)
		if err != nil {
			return chainError(err, "failed to submit cancellation")
		}
		eff := models.Effect{}
		if _, err := s.settle(ctx, models.WorkflowCancel, req.Land, tx, &eff); err != nil {
			return err
		}
		res.TxHash = tx
		if err := s.complete(ctx, models.WorkflowCancel, req.Land, tx, eff); err != nil {
			return err
		}
		s.emit(ctx, audit.EventListingCancelled, audit.Event{
			LandID: req.Land.String(),
			Wallet: req.Seller.String(),
			TxHash: tx.String(),
		})
		res.Listing, err = s.loadListing(ctx, req.Land)
		return err
	})
	return res, err
}

// Listings browses the marketplace. An empty status lists everything.
func (s *Service) Listings(ctx context.Context, status listingmodels.Status) ([]listingmodels.Listing, error) {
	out, err := s.listings.ListByStatus(ctx, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list listings")
	}
	return out, nil
}

func (s *Service) loadListing(ctx context.Context, land id.LandID) (listingmodels.Listing, error) {
	listing, err := s.listings.Get(ctx, land)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return listingmodels.Listing{}, dErrors.New(dErrors.CodeNotFound, "listing not found").
				WithDetail("land_id", land.String())
		}
		return listingmodels.Listing{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read listing")
	}
	return listing, nil
}

// =============================================================================
// Post-finality listing writes
// =============================================================================

func (s *Service) markOnChain(land id.LandID, price id.Wei) func(context.Context) error {
	return func(ctx context.Context) error {
		_, _, err := s.listings.Transition(ctx, land,
			[]listingmodels.Status{listingmodels.StatusListed},
			listingmodels.StatusOnChain,
			func(l *listingmodels.Listing) { l.FinalPrice = price })
		return err
	}
}

func (s *Service) markListed(land id.LandID) func(context.Context) error {
	return func(ctx context.Context) error {
		_, _, err := s.listings.Transition(ctx, land,
			[]listingmodels.Status{listingmodels.StatusOnChain},
			listingmodels.StatusListed,
			func(l *listingmodels.Listing) { l.FinalPrice = id.Wei{} })
		return err
	}
}

// markSold also accepts a listing left at listed by an unreconciled lock: the
// chain sale is final either way.
func (s *Service) markSold(land id.LandID) func(context.Context) error {
	return func(ctx context.Context) error {
		_, _, err := s.listings.Transition(ctx, land,
			[]listingmodels.Status{listingmodels.StatusOnChain, listingmodels.StatusListed},
			listingmodels.StatusSold,
			nil)
		return err
	}
}

// withdrawAfterTransfer closes the previous owner's unsold listing once
// title moves outside the marketplace; the contract drops its side with the
// transfer. A listing already opened by the new owner is left alone.
func (s *Service) withdrawAfterTransfer(land id.LandID, newOwner id.Address) func(context.Context) error {
	return func(ctx context.Context) error {
		current, err := s.listings.Get(ctx, land)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if current.Seller.Equal(newOwner) {
			return nil
		}
		_, _, err = s.listings.Transition(ctx, land,
			[]listingmodels.Status{listingmodels.StatusListed, listingmodels.StatusOnChain},
			listingmodels.StatusWithdrawn,
			func(l *listingmodels.Listing) { l.FinalPrice = id.Wei{} })
		if errors.Is(err, sentinel.ErrInvalidState) {
			return nil
		}
		return err
	}
}
