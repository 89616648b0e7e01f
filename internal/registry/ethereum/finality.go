package ethereum

import (
	"context"
	"errors"
	"time"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"

	"landledger/internal/registry/models"
	id "landledger/pkg/domain"
	"landledger/pkg/platform/sentinel"
)

// AwaitFinality polls for the receipt until it has the configured number of
// confirmations, reverted, or timeout elapsed. A timeout is an outcome, not
// an error: the transaction may still confirm later.
func (c *Client) AwaitFinality(ctx context.Context, tx id.TxHash, timeout time.Duration) (models.Finality, error) {
	start := time.Now()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		finality, done, err := c.checkReceipt(ctx, tx)
		switch {
		case err != nil && !errors.Is(err, sentinel.ErrUnavailable):
			return models.Finality{}, err
		case err != nil:
			c.logger.WarnContext(ctx, "receipt poll failed, retrying",
				"tx_hash", tx,
				"error", err,
			)
		case done:
			c.observeFinality(finality.Status, start)
			return finality, nil
		}

		select {
		case <-ctx.Done():
			return models.Finality{}, ctx.Err()
		case <-deadline.C:
			c.observeFinality(models.FinalityTimedOut, start)
			return models.Finality{Status: models.FinalityTimedOut}, nil
		case <-ticker.C:
		}
	}
}

func (c *Client) checkReceipt(ctx context.Context, tx id.TxHash) (models.Finality, bool, error) {
	var receipt *types.Receipt
	err := c.do(ctx, "transaction_receipt", func() error {
		var err error
		receipt, err = c.backend.TransactionReceipt(ctx, tx.Common())
		if errors.Is(err, goethereum.NotFound) {
			// still pending
			receipt, err = nil, nil
		}
		return err
	})
	if err != nil || receipt == nil {
		return models.Finality{}, false, err
	}

	block := receipt.BlockNumber.Uint64()
	if receipt.Status == types.ReceiptStatusFailed {
		return models.Finality{Status: models.FinalityReverted, Block: block}, true, nil
	}

	var head uint64
	if err := c.do(ctx, "block_number", func() error {
		var err error
		head, err = c.backend.BlockNumber(ctx)
		return err
	}); err != nil {
		return models.Finality{}, false, err
	}
	if head+1 < block+c.cfg.Confirmations {
		return models.Finality{}, false, nil
	}
	return models.Finality{Status: models.FinalityConfirmed, Block: block}, true, nil
}

func (c *Client) observeFinality(status models.FinalityStatus, start time.Time) {
	if c.metrics != nil {
		c.metrics.ObserveFinality(string(status), start)
	}
}
