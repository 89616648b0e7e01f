// Package ethereum implements the chain reader, writer and finality waiter
// against a deployed registry contract over JSON-RPC.
package ethereum

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/ratelimit"

	registrymetrics "landledger/internal/registry/metrics"
	dErrors "landledger/pkg/domain-errors"
	"landledger/pkg/platform/circuit"
	"landledger/pkg/platform/sentinel"
)

// Backend is the RPC surface the client needs; *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// Config locates the contract and tunes polling.
type Config struct {
	ContractAddress string
	StartBlock      uint64
	Confirmations   uint64
	PollInterval    time.Duration
	// RateLimit caps RPC calls per second; zero disables limiting.
	RateLimit int
	// LogChunkSize bounds each eth_getLogs block range.
	LogChunkSize uint64
	// BreakerCooldown is how long calls fail fast once the breaker opens.
	BreakerCooldown time.Duration
}

// Client talks to the registry contract.
type Client struct {
	backend  Backend
	address  common.Address
	abi      abi.ABI
	contract *bind.BoundContract
	keys     *Keyring
	cfg      Config

	limiter ratelimit.Limiter
	breaker *circuit.Breaker
	mu      sync.Mutex
	openAt  time.Time

	logger  *slog.Logger
	metrics *registrymetrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithMetrics(m *registrymetrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// Dial connects to rpcURL and builds a Client.
func Dial(ctx context.Context, rpcURL string, cfg Config, keys *Keyring, opts ...Option) (*Client, error) {
	backend, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial chain rpc: %w", err)
	}
	return New(backend, cfg, keys, opts...)
}

// New builds a Client over an existing backend.
func New(backend Backend, cfg Config, keys *Keyring, opts ...Option) (*Client, error) {
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("invalid contract address %q", cfg.ContractAddress)
	}
	parsed, err := ParsedABI()
	if err != nil {
		return nil, fmt.Errorf("parse registry abi: %w", err)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.Confirmations == 0 {
		cfg.Confirmations = 1
	}
	if cfg.LogChunkSize == 0 {
		cfg.LogChunkSize = 5000
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = 10 * time.Second
	}
	address := common.HexToAddress(cfg.ContractAddress)
	c := &Client{
		backend:  backend,
		address:  address,
		abi:      parsed,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
		keys:     keys,
		cfg:      cfg,
		limiter:  ratelimit.NewUnlimited(),
		breaker:  circuit.New("chain-rpc", circuit.WithFailureThreshold(5), circuit.WithSuccessThreshold(2)),
		logger:   slog.Default(),
	}
	if cfg.RateLimit > 0 {
		c.limiter = ratelimit.New(cfg.RateLimit)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Health reads the chain head.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, "block_number", func() error {
		_, err := c.backend.BlockNumber(ctx)
		return err
	})
}

// do runs one RPC call through the rate limiter and circuit breaker and records metrics.
// Contract rejections do not count against the breaker; transport failures do.
func (c *Client) do(ctx context.Context, operation string, fn func() error) error {
	if err := c.allow(); err != nil {
		c.observe(operation, "unavailable", time.Now())
		return err
	}
	c.limiter.Take()
	start := time.Now()

	err := fn()
	switch {
	case err == nil:
		c.recordSuccess()
		c.observe(operation, "ok", start)
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.observe(operation, "cancelled", start)
		return err
	}

	if rejection := asRejection(err); rejection != nil {
		c.recordSuccess()
		c.observe(operation, "rejected", start)
		return rejection
	}
	c.recordFailure(ctx, operation, err)
	c.observe(operation, "error", start)
	return fmt.Errorf("%s: %w: %w", operation, sentinel.ErrUnavailable, err)
}

func (c *Client) allow() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.breaker.IsOpen() && time.Since(c.openAt) < c.cfg.BreakerCooldown {
		return fmt.Errorf("chain rpc circuit open: %w", sentinel.ErrUnavailable)
	}
	return nil
}

func (c *Client) recordSuccess() {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.Info("chain rpc circuit closed")
		if c.metrics != nil {
			c.metrics.SetBreakerOpen(false)
		}
	}
}

func (c *Client) recordFailure(ctx context.Context, operation string, err error) {
	_, change := c.breaker.RecordFailure()
	c.mu.Lock()
	if c.breaker.IsOpen() {
		// every failed probe restarts the cooldown
		c.openAt = time.Now()
	}
	c.mu.Unlock()
	if change.Opened {
		c.logger.WarnContext(ctx, "chain rpc circuit opened",
			"operation", operation,
			"error", err,
		)
		if c.metrics != nil {
			c.metrics.SetBreakerOpen(true)
		}
	}
}

func (c *Client) observe(operation, status string, start time.Time) {
	if c.metrics != nil {
		c.metrics.ObserveRPC(operation, status, start)
	}
}

// asRejection classifies errors where the node or the contract refused the
// call (revert, nonce, funds). Those are surfaced verbatim to callers.
func asRejection(err error) error {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if reason := revertReason(dataErr.ErrorData()); reason != "" {
			return dErrors.Wrap(err, dErrors.CodeChainRejected, reason).WithDetail("reason", reason)
		}
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"execution reverted",
		"insufficient funds",
		"nonce too low",
		"replacement transaction underpriced",
		"intrinsic gas too low",
		"gas required exceeds allowance",
		"invalid opcode",
	} {
		if strings.Contains(msg, marker) {
			return dErrors.Wrap(err, dErrors.CodeChainRejected, err.Error())
		}
	}
	return nil
}

func revertReason(data any) string {
	raw, ok := data.(string)
	if !ok || raw == "" {
		return ""
	}
	reason, err := abi.UnpackRevert(common.FromHex(raw))
	if err != nil {
		return ""
	}
	return reason
}
