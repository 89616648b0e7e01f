// Package simulator is an in-memory registry contract with the same surface as
// the Ethereum client. Writes are validated at submission like eth_call and
// applied when finality is awaited, where rules are checked again as a miner
// would. Finality outcomes can be scripted.
package simulator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"landledger/internal/registry/models"
	id "landledger/pkg/domain"
	dErrors "landledger/pkg/domain-errors"
	"landledger/pkg/platform/sentinel"
)

// Outcome scripts how the next awaited transaction settles.
type Outcome int

const (
	Confirm Outcome = iota
	Revert
	Timeout
)

type pendingTx struct {
	op    string
	apply func() error
}

// Registry is safe for concurrent use.
type Registry struct {
	mu sync.Mutex

	admin         id.Address
	listingWindow time.Duration
	now           func() time.Time

	users    map[id.Address]models.Identity
	lands    map[id.LandID]models.LandRecord
	listings map[id.LandID]models.ChainListing
	events   []models.ChainEvent

	height    uint64
	nonce     uint64
	pending   map[id.TxHash]pendingTx
	settled   map[id.TxHash]models.Finality
	outcomes  []Outcome
	submitted []id.TxHash
	failNext  map[string]error
}

// Option configures the Registry.
type Option func(*Registry)

// WithClock overrides the time source used for listing deadlines.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithListingWindow sets how long a listing stays buyable. Zero means no deadline.
func WithListingWindow(d time.Duration) Option {
	return func(r *Registry) { r.listingWindow = d }
}

// New creates an empty registry whose verification backend is admin.
func New(admin id.Address, opts ...Option) *Registry {
	r := &Registry{
		admin:    admin,
		now:      time.Now,
		users:    make(map[id.Address]models.Identity),
		lands:    make(map[id.LandID]models.LandRecord),
		listings: make(map[id.LandID]models.ChainListing),
		pending:  make(map[id.TxHash]pendingTx),
		settled:  make(map[id.TxHash]models.Finality),
		failNext: make(map[string]error),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Admin returns the address that signs mints.
func (r *Registry) Admin() id.Address { return r.admin }

// =============================================================================
// Scripting and seeding
// =============================================================================

// ScriptFinality queues outcomes consumed by successive AwaitFinality calls.
// Once the queue is empty every transaction confirms.
func (r *Registry) ScriptFinality(outcomes ...Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcomes...)
}

// FailNext makes the next call of operation (e.g. "land_record", "buy") return err.
func (r *Registry) FailNext(operation string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failNext[operation] = err
}

// SeedIdentity registers a wallet directly.
func (r *Registry) SeedIdentity(addr id.Address, name string, legalID id.LegalID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[normalize(addr)] = models.Identity{Address: normalize(addr), Name: name, LegalID: legalID, Registered: true}
}

// SeedLand mints a land directly at the next block, emitting LandMinted.
func (r *Registry) SeedLand(owner id.Address, land id.LandID, landType models.LandType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.height++
	r.mintLocked(owner, land, "seed_"+land.String(), landType, r.nextHash("seed"))
}

// SetLandStatus changes the contract status of a minted land.
func (r *Registry) SetLandStatus(land id.LandID, status models.LandStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.lands[land]
	rec.Status = status
	r.lands[land] = rec
}

// SeedListing opens a listing directly.
func (r *Registry) SeedListing(land id.LandID, seller id.Address, price id.Wei, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listings[land] = models.ChainListing{Land: land, Price: price, Seller: normalize(seller), Active: active}
}

// AppendEvent records a raw event at its own block height, for history fixtures.
func (r *Registry) AppendEvent(ev models.ChainEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ev.TxHash.IsNil() {
		ev.TxHash = r.nextHash("event")
	}
	if ev.Block > r.height {
		r.height = ev.Block
	}
	r.events = append(r.events, ev)
}

// Submitted returns every transaction hash accepted for broadcast.
func (r *Registry) Submitted() []id.TxHash {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]id.TxHash(nil), r.submitted...)
}

// Height is the current block number.
func (r *Registry) Height() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.height
}

// =============================================================================
// Reads
// =============================================================================

func (r *Registry) Identity(_ context.Context, addr id.Address) (models.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure("identity"); err != nil {
		return models.Identity{}, err
	}
	identity, ok := r.users[normalize(addr)]
	if !ok {
		return models.Identity{Address: normalize(addr)}, nil
	}
	return identity, nil
}

func (r *Registry) LandRecord(_ context.Context, land id.LandID) (models.LandRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure("land_record"); err != nil {
		return models.LandRecord{}, err
	}
	rec, ok := r.lands[land]
	if !ok {
		return models.LandRecord{Land: land, Owner: id.ZeroAddress}, nil
	}
	return rec, nil
}

func (r *Registry) Listing(_ context.Context, land id.LandID) (models.ChainListing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure("listing"); err != nil {
		return models.ChainListing{}, err
	}
	listing, ok := r.listings[land]
	if !ok {
		return models.ChainListing{Land: land, Seller: id.ZeroAddress}, nil
	}
	return listing, nil
}

func (r *Registry) Events(_ context.Context, kind models.EventKind) ([]models.ChainEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure("events_" + strings.ToLower(string(kind))); err != nil {
		return nil, err
	}
	var out []models.ChainEvent
	for _, ev := range r.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Block < out[j].Block })
	return out, nil
}

// =============================================================================
// Writes
// =============================================================================

func (r *Registry) RegisterIdentity(_ context.Context, from id.Address, name string, legalID id.LegalID) (id.TxHash, error) {
	from = normalize(from)
	check := func() error {
		if r.users[from].Registered {
			return revert("User already registered")
		}
		if legalID.IsNil() {
			return revert("CNIC required")
		}
		return nil
	}
	return r.submit("register", check, func(id.TxHash) {
		r.users[from] = models.Identity{Address: from, Name: name, LegalID: legalID, Registered: true}
	})
}

func (r *Registry) MintLand(_ context.Context, req models.MintRequest) (id.TxHash, error) {
	owner := normalize(req.Owner)
	check := func() error {
		if rec, ok := r.lands[req.Land]; ok && rec.Minted() {
			return revert("Land already registered")
		}
		if !r.users[owner].Registered {
			return revert("Owner not registered")
		}
		return nil
	}
	return r.submit("mint", check, func(tx id.TxHash) {
		r.mintLocked(owner, req.Land, req.DocumentHash, req.LandType, tx)
	})
}

func (r *Registry) ListForSale(_ context.Context, from id.Address, land id.LandID, price id.Wei) (id.TxHash, error) {
	from = normalize(from)
	check := func() error {
		rec := r.lands[land]
		if !rec.Minted() || !rec.Owner.Equal(from) {
			return revert("Not the owner")
		}
		if rec.Status != models.LandStatusActive {
			return revert("Land is not active")
		}
		if price.Sign() <= 0 {
			return revert("Price must be greater than zero")
		}
		return nil
	}
	return r.submit("list", check, func(id.TxHash) {
		listing := models.ChainListing{Land: land, Price: price, Seller: from, Active: true}
		if r.listingWindow > 0 {
			listing.Deadline = r.now().Add(r.listingWindow)
		}
		r.listings[land] = listing
	})
}

func (r *Registry) CancelListing(_ context.Context, from id.Address, land id.LandID) (id.TxHash, error) {
	from = normalize(from)
	check := func() error {
		listing := r.listings[land]
		if !listing.Active {
			return revert("Listing not active")
		}
		if !listing.Seller.Equal(from) {
			return revert("Only seller can cancel")
		}
		return nil
	}
	return r.submit("cancel", check, func(id.TxHash) {
		listing := r.listings[land]
		listing.Active = false
		r.listings[land] = listing
	})
}

func (r *Registry) Buy(_ context.Context, from id.Address, land id.LandID, value id.Wei) (id.TxHash, error) {
	from = normalize(from)
	check := func() error {
		listing := r.listings[land]
		if !listing.Active {
			return revert("Land not for sale")
		}
		if !listing.Deadline.IsZero() && r.now().After(listing.Deadline) {
			return revert("Listing expired")
		}
		if listing.Seller.Equal(from) {
			return revert("Cannot buy your own land")
		}
		if !r.users[from].Registered {
			return revert("Buyer not registered")
		}
		if !listing.Price.Equal(value) {
			return revert("Incorrect price")
		}
		return nil
	}
	return r.submit("buy", check, func(tx id.TxHash) {
		listing := r.listings[land]
		listing.Active = false
		r.listings[land] = listing
		r.transferLocked(land, listing.Seller, from, value, tx)
	})
}

func (r *Registry) Transfer(_ context.Context, from id.Address, land id.LandID, to id.Address, salePrice id.Wei) (id.TxHash, error) {
	from, to = normalize(from), normalize(to)
	check := func() error {
		rec := r.lands[land]
		if !rec.Minted() || !rec.Owner.Equal(from) {
			return revert("Not the owner")
		}
		if rec.Status != models.LandStatusActive {
			return revert("Land is not active")
		}
		if to.IsZero() {
			return revert("Invalid recipient")
		}
		if !r.users[to].Registered {
			return revert("Recipient not registered")
		}
		return nil
	}
	return r.submit("transfer", check, func(tx id.TxHash) {
		if listing, ok := r.listings[land]; ok && listing.Active {
			listing.Active = false
			r.listings[land] = listing
		}
		r.transferLocked(land, from, to, salePrice, tx)
	})
}

// =============================================================================
// Finality
// =============================================================================

// AwaitFinality mines the transaction according to the next scripted outcome.
// A timed out transaction stays pending and may confirm on a later wait.
func (r *Registry) AwaitFinality(ctx context.Context, tx id.TxHash, _ time.Duration) (models.Finality, error) {
	if err := ctx.Err(); err != nil {
		return models.Finality{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if f, ok := r.settled[tx]; ok {
		return f, nil
	}
	p, ok := r.pending[tx]
	if !ok {
		return models.Finality{}, fmt.Errorf("transaction %s: %w", tx, sentinel.ErrNotFound)
	}

	outcome := Confirm
	if len(r.outcomes) > 0 {
		outcome = r.outcomes[0]
		r.outcomes = r.outcomes[1:]
	}
	if outcome == Timeout {
		return models.Finality{Status: models.FinalityTimedOut}, nil
	}

	delete(r.pending, tx)
	r.height++
	f := models.Finality{Status: models.FinalityConfirmed, Block: r.height}
	if outcome == Revert || p.apply() != nil {
		f.Status = models.FinalityReverted
	}
	r.settled[tx] = f
	return f, nil
}

// =============================================================================
// internals
// =============================================================================

func (r *Registry) submit(op string, check func() error, effect func(tx id.TxHash)) (id.TxHash, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure(op); err != nil {
		return "", err
	}
	if err := check(); err != nil {
		return "", err
	}
	hash := r.nextHash(op)
	r.pending[hash] = pendingTx{op: op, apply: func() error {
		// re-validated at inclusion; state may have moved since submission
		if err := check(); err != nil {
			return err
		}
		effect(hash)
		return nil
	}}
	r.submitted = append(r.submitted, hash)
	return hash, nil
}

func (r *Registry) mintLocked(owner id.Address, land id.LandID, documentHash string, landType models.LandType, tx id.TxHash) {
	r.lands[land] = models.LandRecord{
		Land:         land,
		Owner:        owner,
		LegalID:      r.users[owner].LegalID,
		DocumentHash: documentHash,
		LandType:     landType,
		Status:       models.LandStatusActive,
		VerifiedAt:   r.now().UTC(),
	}
	r.events = append(r.events, models.ChainEvent{
		Kind:     models.EventMint,
		Land:     land,
		To:       owner,
		LandType: landType,
		TxHash:   tx,
		Block:    r.height,
	})
}

func (r *Registry) transferLocked(land id.LandID, from, to id.Address, price id.Wei, tx id.TxHash) {
	rec := r.lands[land]
	rec.Owner = to
	rec.LegalID = r.users[to].LegalID
	r.lands[land] = rec
	r.events = append(r.events, models.ChainEvent{
		Kind:   models.EventTransfer,
		Land:   land,
		From:   from,
		To:     to,
		Price:  price,
		TxHash: tx,
		Block:  r.height,
	})
}

func (r *Registry) takeFailure(op string) error {
	if err, ok := r.failNext[op]; ok {
		delete(r.failNext, op)
		return err
	}
	return nil
}

func (r *Registry) nextHash(op string) id.TxHash {
	r.nonce++
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", op, r.nonce)))
	return id.TxHash("0x" + hex.EncodeToString(sum[:]))
}

func revert(reason string) error {
	return dErrors.New(dErrors.CodeChainRejected, "execution reverted: "+reason).WithDetail("reason", reason)
}

func normalize(a id.Address) id.Address {
	return id.Address(strings.ToLower(a.String()))
}
