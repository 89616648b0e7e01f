package ethereum

import (
	"context"
	"math/big"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"

	"landledger/internal/registry/models"
	id "landledger/pkg/domain"
	dErrors "landledger/pkg/domain-errors"
)

// RegisterIdentity binds a name and legal id to the signing wallet.
func (c *Client) RegisterIdentity(ctx context.Context, from id.Address, name string, legalID id.LegalID) (id.TxHash, error) {
	return c.submit(ctx, "register_user", from, nil, methodRegisterUser, name, legalID.String())
}

// MintLand records a verified land. Always signed by the administrative signer, which pays gas.
func (c *Client) MintLand(ctx context.Context, req models.MintRequest) (id.TxHash, error) {
	return c.submit(ctx, "store_verified_land_record", c.keys.Admin(), nil, methodStoreVerified,
		req.Owner.Common(), req.Land.String(), req.DocumentHash, uint8(req.LandType))
}

// ListForSale opens an on-chain listing at price.
func (c *Client) ListForSale(ctx context.Context, from id.Address, land id.LandID, price id.Wei) (id.TxHash, error) {
	return c.submit(ctx, "list_land_for_sale", from, nil, methodListForSale, land.String(), price.Big())
}

// CancelListing deactivates the seller's listing.
func (c *Client) CancelListing(ctx context.Context, from id.Address, land id.LandID) (id.TxHash, error) {
	return c.submit(ctx, "cancel_listing", from, nil, methodCancelListing, land.String())
}

// Buy pays value into buyLand.
func (c *Client) Buy(ctx context.Context, from id.Address, land id.LandID, value id.Wei) (id.TxHash, error) {
	return c.submit(ctx, "buy_land", from, value.Big(), methodBuyLand, land.String())
}

// Transfer moves title directly to another wallet.
func (c *Client) Transfer(ctx context.Context, from id.Address, land id.LandID, to id.Address, salePrice id.Wei) (id.TxHash, error) {
	return c.submit(ctx, "transfer_land_ownership", from, nil, methodTransferLand, land.String(), to.Common(), salePrice.Big())
}

// submit simulates the call with eth_call first so reverts surface with their
// reason and nothing is broadcast, then signs and sends exactly one transaction.
func (c *Client) submit(ctx context.Context, operation string, from id.Address, value *big.Int, method string, args ...interface{}) (id.TxHash, error) {
	opts, lock, err := c.keys.transactor(from)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeChainRejected, "wallet cannot sign registry transactions").
			WithDetail("wallet", from.String())
	}
	input, err := c.abi.Pack(method, args...)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "encode registry call")
	}

	msg := goethereum.CallMsg{From: opts.From, To: &c.address, Value: value, Data: input}
	err = c.do(ctx, operation+"_simulate", func() error {
		_, err := c.backend.CallContract(ctx, msg, nil)
		return err
	})
	if err != nil {
		return "", err
	}

	lock.Lock()
	defer lock.Unlock()
	opts.Context = ctx
	opts.Value = value

	var tx *types.Transaction
	err = c.do(ctx, operation, func() error {
		var err error
		tx, err = c.contract.RawTransact(opts, input)
		return err
	})
	if err != nil {
		return "", err
	}
	hash := id.TxHashFromCommon(tx.Hash())
	c.logger.InfoContext(ctx, "registry transaction submitted",
		"operation", operation,
		"from", from,
		"tx_hash", hash,
	)
	return hash, nil
}
