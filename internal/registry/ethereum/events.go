package ethereum

import (
	"context"
	"fmt"
	"math/big"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"landledger/internal/registry/models"
	id "landledger/pkg/domain"
)

// Events scans all registry logs of one kind from the configured start block
// to the current head. landId is not indexed, so callers filter by land.
func (c *Client) Events(ctx context.Context, kind models.EventKind) ([]models.ChainEvent, error) {
	name, err := eventName(kind)
	if err != nil {
		return nil, err
	}
	topic := c.abi.Events[name].ID

	var head uint64
	if err := c.do(ctx, "block_number", func() error {
		var err error
		head, err = c.backend.BlockNumber(ctx)
		return err
	}); err != nil {
		return nil, err
	}

	var events []models.ChainEvent
	for from := c.cfg.StartBlock; from <= head; from += c.cfg.LogChunkSize {
		to := min(from+c.cfg.LogChunkSize-1, head)
		query := goethereum.FilterQuery{
			FromBlock: new(big.Int).SetUint64(from),
			ToBlock:   new(big.Int).SetUint64(to),
			Addresses: []common.Address{c.address},
			Topics:    [][]common.Hash{{topic}},
		}
		var logs []types.Log
		if err := c.do(ctx, "filter_logs", func() error {
			var err error
			logs, err = c.backend.FilterLogs(ctx, query)
			return err
		}); err != nil {
			return nil, err
		}
		for _, lg := range logs {
			if lg.Removed {
				continue
			}
			ev, err := c.decodeLog(kind, lg)
			if err != nil {
				c.logger.WarnContext(ctx, "skipping undecodable registry log",
					"tx_hash", lg.TxHash.Hex(),
					"error", err,
				)
				continue
			}
			events = append(events, ev)
		}
	}
	return events, nil
}

func eventName(kind models.EventKind) (string, error) {
	switch kind {
	case models.EventMint:
		return eventLandMinted, nil
	case models.EventTransfer:
		return eventLandTransferred, nil
	default:
		return "", fmt.Errorf("unknown event kind %q", kind)
	}
}

func (c *Client) decodeLog(kind models.EventKind, lg types.Log) (models.ChainEvent, error) {
	ev := models.ChainEvent{
		Kind:     kind,
		TxHash:   id.TxHashFromCommon(lg.TxHash),
		Block:    lg.BlockNumber,
		LogIndex: lg.Index,
	}
	fields := make(map[string]interface{})

	switch kind {
	case models.EventMint:
		if len(lg.Topics) < 2 {
			return ev, fmt.Errorf("LandMinted log has %d topics", len(lg.Topics))
		}
		if err := c.abi.UnpackIntoMap(fields, eventLandMinted, lg.Data); err != nil {
			return ev, fmt.Errorf("unpack LandMinted: %w", err)
		}
		ev.To = id.AddressFromCommon(common.BytesToAddress(lg.Topics[1].Bytes()))
		ev.Land = id.LandID(asString(fields["landId"]))
		if lt, ok := fields["lType"].(uint8); ok {
			ev.LandType = models.LandType(lt)
		}
	case models.EventTransfer:
		if len(lg.Topics) < 3 {
			return ev, fmt.Errorf("LandTransferred log has %d topics", len(lg.Topics))
		}
		if err := c.abi.UnpackIntoMap(fields, eventLandTransferred, lg.Data); err != nil {
			return ev, fmt.Errorf("unpack LandTransferred: %w", err)
		}
		ev.From = id.AddressFromCommon(common.BytesToAddress(lg.Topics[1].Bytes()))
		ev.To = id.AddressFromCommon(common.BytesToAddress(lg.Topics[2].Bytes()))
		ev.Land = id.LandID(asString(fields["landId"]))
		if price, ok := fields["price"].(*big.Int); ok {
			ev.Price = id.NewWei(price)
		}
	}
	if ev.Land.IsNil() {
		return ev, fmt.Errorf("%s log without land id", kind)
	}
	return ev, nil
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}
