package service

import (
	"context"
	"time"

	"landledger/internal/ledgersync/models"
	dErrors "landledger/pkg/domain-errors"
	"landledger/pkg/platform/audit"
	"landledger/pkg/requestcontext"
)

// Purchase buys a land listed on-chain. Checks run cheapest first and all of
// them pass before the payment is submitted:
//
//  1. buyer is not the seller
//  2. buyer has a registered identity
//  3. the chain listing is active
//  4. the off-chain final price equals the chain price exactly
//  5. advisory: the chain seller matches the listing seller
//
// After finality the government record takes the buyer's on-chain legal id
// and the listing becomes sold.
func (s *Service) Purchase(ctx context.Context, req models.PurchaseRequest) (res models.PurchaseResult, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, models.WorkflowPurchase, req.Land)
	defer func() { s.finish(ctx, span, models.WorkflowPurchase, req.Land, start, err) }()

	if req.Land.IsNil() || req.Buyer.IsZero() {
		return res, dErrors.New(dErrors.CodeValidation, "buyer address and land id are required")
	}

	err = s.withLease(ctx, models.WorkflowPurchase, req.Land.String(), func(ctx context.Context) error {
		listing, err := s.loadListing(ctx, req.Land)
		if err != nil {
			return err
		}
		if req.Buyer.Equal(listing.Seller) {
			return s.deny(ctx, models.WorkflowPurchase, req.Land, req.Buyer,
				dErrors.New(dErrors.CodeForbidden, "you cannot buy your own land"))
		}

		buyer, err := s.chain.Identity(ctx, req.Buyer)
		if err != nil {
			return chainError(err, "failed to read buyer identity")
		}
		if !buyer.Verified() {
			return s.deny(ctx, models.WorkflowPurchase, req.Land, req.Buyer,
				dErrors.New(dErrors.CodeForbidden, "buyer is not registered on the blockchain"))
		}

		onChain, err := s.chain.Listing(ctx, req.Land)
		if err != nil {
			return chainError(err, "failed to read chain listing")
		}
		expired := !onChain.Deadline.IsZero() && requestcontext.Now(ctx).After(onChain.Deadline)
		if !onChain.Active || expired {
			return dErrors.New(dErrors.CodeForbidden, "land is not for sale on-chain, ask the seller to lock the price first")
		}
		if req.Buyer.Equal(onChain.Seller) {
			return s.deny(ctx, models.WorkflowPurchase, req.Land, req.Buyer,
				dErrors.New(dErrors.CodeForbidden, "you cannot buy your own land"))
		}

		payment := listing.FinalPrice
		if !payment.Equal(onChain.Price) {
			return dErrors.New(dErrors.CodePriceMismatch, "listing price does not match the on-chain price").
				WithDetail("listing_price", payment.String()).
				WithDetail("chain_price", onChain.Price.String())
		}

		if !onChain.Seller.Equal(listing.Seller) {
			// funds route to the chain seller regardless; flagged for review
			s.metrics.IncSellerMismatch()
			s.logger.WarnContext(ctx, "chain seller differs from listing seller",
				"request_id", requestcontext.RequestID(ctx),
				"land_id", req.Land.String(),
				"listing_seller", listing.Seller.String(),
				"chain_seller", onChain.Seller.String(),
			)
			s.emit(ctx, audit.EventSellerMismatch, audit.Event{
				LandID:       req.Land.String(),
				Wallet:       req.Buyer.String(),
				Counterparty: onChain.Seller.String(),
				Reason:       "listing seller " + listing.Seller.String(),
			})
		}

		tx, err := s.chain.Buy(ctx, req.Buyer, req.Land, payment)
		if err != nil {
			return chainError(err, "failed to submit purchase")
		}
		eff := models.Effect{LegalID: buyer.LegalID, Price: payment.String()}
		f, err := s.settle(ctx, models.WorkflowPurchase, req.Land, tx, &eff)
		if err != nil {
			return err
		}
		res = models.PurchaseResult{TxHash: tx, Block: f.Block, Price: payment}
		if err := s.complete(ctx, models.WorkflowPurchase, req.Land, tx, eff); err != nil {
			return err
		}
		s.emit(ctx, audit.EventLandPurchased, audit.Event{
			LandID:       req.Land.String(),
			Wallet:       req.Buyer.String(),
			Counterparty: onChain.Seller.String(),
			TxHash:       tx.String(),
			Decision:     "sold",
		})
		res.Listing, err = s.loadListing(ctx, req.Land)
		return err
	})
	return res, err
}
