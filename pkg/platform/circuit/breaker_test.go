package circuit

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errTransport = errors.New("dial tcp: connection refused")
	errReverted  = errors.New("execution reverted: Not the owner")
)

// rpcGate drives a breaker the way the chain client does: contract rejections
// count as healthy round trips, and an open circuit fails fast only until the
// cooldown since the last failed call has passed.
type rpcGate struct {
	breaker  *Breaker
	cooldown time.Duration
	now      time.Time
	openAt   time.Time
	calls    int
}

func (g *rpcGate) do(result error) (reached bool) {
	if g.breaker.IsOpen() && g.now.Sub(g.openAt) < g.cooldown {
		return false
	}
	g.calls++
	switch {
	case result == nil, errors.Is(result, errReverted):
		g.breaker.RecordSuccess()
	default:
		g.breaker.RecordFailure()
		if g.breaker.IsOpen() {
			g.openAt = g.now
		}
	}
	return true
}

func newGate() *rpcGate {
	return &rpcGate{
		breaker:  New("chain-rpc", WithFailureThreshold(5), WithSuccessThreshold(2)),
		cooldown: 10 * time.Second,
		now:      time.Unix(1_700_000_000, 0),
	}
}

func TestBreaker_InitialState(t *testing.T) {
	b := New("chain-rpc")
	assert.False(t, b.IsOpen())
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "chain-rpc", b.Name())
}

func TestBreaker_Transitions(t *testing.T) {
	tests := []struct {
		name     string
		opts     []Option
		outcomes string // f = failure, s = success
		open     bool
	}{
		{"below failure threshold", []Option{WithFailureThreshold(3)}, "ff", false},
		{"at failure threshold", []Option{WithFailureThreshold(3)}, "fff", true},
		{"success resets the failure run", []Option{WithFailureThreshold(3)}, "ffsff", false},
		{"one success is not enough to close", []Option{WithFailureThreshold(1), WithSuccessThreshold(2)}, "fs", true},
		{"success run closes", []Option{WithFailureThreshold(1), WithSuccessThreshold(2)}, "fss", false},
		{"failure resets the success run", []Option{WithFailureThreshold(1), WithSuccessThreshold(3)}, "fssfss", true},
		{"defaults open after five", nil, "fffff", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("chain-rpc", tt.opts...)
			for _, o := range tt.outcomes {
				if o == 'f' {
					b.RecordFailure()
				} else {
					b.RecordSuccess()
				}
			}
			assert.Equal(t, tt.open, b.IsOpen())
		})
	}
}

func TestBreaker_ReportsStateChanges(t *testing.T) {
	b := New("chain-rpc", WithFailureThreshold(2), WithSuccessThreshold(1))

	useFallback, change := b.RecordFailure()
	assert.False(t, useFallback)
	assert.Equal(t, StateChange{}, change)

	useFallback, change = b.RecordFailure()
	assert.True(t, useFallback)
	assert.True(t, change.Opened)

	useFallback, change = b.RecordFailure()
	assert.True(t, useFallback)
	assert.False(t, change.Opened, "already open")

	usePrimary, change := b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)
}

func TestBreaker_Reset(t *testing.T) {
	b := New("chain-rpc", WithFailureThreshold(1))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()
	assert.False(t, b.IsOpen())
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_ContractRejectionsDoNotTrip(t *testing.T) {
	g := newGate()
	for range 20 {
		require.True(t, g.do(errReverted))
	}
	assert.False(t, g.breaker.IsOpen())

	// rejections between transport errors break the failure run
	for range 4 {
		g.do(errTransport)
	}
	g.do(errReverted)
	for range 4 {
		g.do(errTransport)
	}
	assert.False(t, g.breaker.IsOpen())
}

func TestBreaker_CooldownLetsCallsThroughAgain(t *testing.T) {
	g := newGate()
	for range 5 {
		g.do(errTransport)
	}
	require.True(t, g.breaker.IsOpen())

	g.now = g.now.Add(5 * time.Second)
	assert.False(t, g.do(nil), "fails fast inside the cooldown")
	assert.Equal(t, 5, g.calls)

	g.now = g.now.Add(6 * time.Second)
	assert.True(t, g.do(errTransport), "a call goes through once the cooldown passes")
	assert.True(t, g.breaker.IsOpen())

	// the failed call restarted the cooldown
	assert.False(t, g.do(nil))

	g.now = g.now.Add(11 * time.Second)
	assert.True(t, g.do(nil))
	assert.True(t, g.breaker.IsOpen(), "one success is below the success threshold")
	assert.True(t, g.do(errReverted))
	assert.False(t, g.breaker.IsOpen())
	assert.Equal(t, 8, g.calls)
}
