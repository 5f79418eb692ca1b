// Package wallet implements a local transaction engine for a single ledger
// account. It holds the account's private key locally, tracks account state
// across network round trips, produces successive blocks with optimistic
// concurrency control, and retries safely against a remote ledger whose
// head can shift underneath it. The private key is never sent to the node.
package wallet

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/gonano/wallet/foundation/nano/address"
	"github.com/gonano/wallet/foundation/nano/amount"
	"github.com/gonano/wallet/foundation/nano/block"
	"github.com/gonano/wallet/foundation/nano/rpc"
	"github.com/gonano/wallet/foundation/nano/work"
)

// maxRetryAttempts bounds the refresh-and-retry loop around a stale
// frontier. receiveBatchSize is the batch size ReceiveAll works in, keeping
// individual lock hold times bounded.
const (
	maxRetryAttempts = 3
	receiveBatchSize = 15
)

// DefaultReceiveThreshold ignores dust sends below 0.000001 of the base
// unit during batch receives.
var DefaultReceiveThreshold = func() amount.Amount {
	amt, err := amount.FromRaw("1000000000000000000000000")
	if err != nil {
		panic(err)
	}
	return amt
}()

// Engine errors.
var (
	ErrStaleState = errors.New("previous block was incorrect, retried too many times: is the account being concurrently used elsewhere?")
	ErrReadOnly   = errors.New("account has no private key material bound and cannot produce signed blocks")
)

// =============================================================================

// EventHandler defines a function that is called when events occur during
// wallet operations.
type EventHandler func(v string, args ...any)

// NodeClient represents the behavior required of the remote node
// collaborator. The concrete implementation lives in foundation/nano/rpc;
// tests substitute their own.
type NodeClient interface {
	AccountInfo(ctx context.Context, account address.Address) (rpc.AccountInfo, error)
	ProcessBlock(ctx context.Context, b block.Block) (block.Hash, error)
	BlockInfo(ctx context.Context, hash block.Hash) (rpc.BlockInfo, error)
	Pending(ctx context.Context, account address.Address, count int, threshold amount.Amount) ([]rpc.PendingBlock, error)
}

// Config holds the collaborators an account handle needs.
type Config struct {
	PrivateKey            ed25519.PrivateKey // Omit for a read-only handle.
	Account               address.Address    // Required when no private key is given.
	Node                  NodeClient
	Work                  *work.Generator
	WorkMultiplier        float64 // Defaults to 1.
	DefaultRepresentative address.Address
	EvHandler             EventHandler
}

// Account is a handle on a single ledger account. All mutating operations
// on the same handle are serialized by a FIFO-fair lock held across the
// entire build-sign-submit-retry sequence; operations on distinct handles
// are fully independent.
type Account struct {
	key      ed25519.PrivateKey
	account  address.Address
	producer Producer
	node     NodeClient
	work     *work.Generator
	mult     float64
	ev       EventHandler

	mu       fifoMutex
	state    AccountState
	hasState bool
}

// New constructs an account handle from the configuration.
func New(cfg Config) (*Account, error) {
	if cfg.Node == nil {
		return nil, errors.New("node client is required")
	}
	if cfg.Work == nil {
		return nil, errors.New("work generator is required")
	}

	account := cfg.Account
	if cfg.PrivateKey != nil {
		if len(cfg.PrivateKey) != ed25519.PrivateKeySize {
			return nil, fmt.Errorf("private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(cfg.PrivateKey))
		}
		var err error
		account, err = address.FromPublicKey(cfg.PrivateKey.Public().(ed25519.PublicKey))
		if err != nil {
			return nil, err
		}
	}
	if account.IsZero() {
		return nil, errors.New("either a private key or an account address is required")
	}

	mult := cfg.WorkMultiplier
	if mult == 0 {
		mult = 1
	}

	ev := cfg.EvHandler
	if ev == nil {
		ev = func(v string, args ...any) {}
	}

	a := Account{
		key:      cfg.PrivateKey,
		account:  account,
		producer: NewProducer(cfg.DefaultRepresentative),
		node:     cfg.Node,
		work:     cfg.Work,
		mult:     mult,
		ev:       ev,
	}

	return &a, nil
}

// KeyFromSeed derives an ed25519 private key from a 64 character hex seed.
func KeyFromSeed(seedHex string) (ed25519.PrivateKey, error) {
	seed, err := hex.DecodeString(seedHex)
	if err != nil || len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed must be %d hex encoded bytes", ed25519.SeedSize)
	}
	return ed25519.NewKeyFromSeed(seed), nil
}

// =============================================================================

// Address returns the account this handle represents.
func (a *Account) Address() address.Address {
	return a.account
}

// State returns the current account state snapshot, fetching it from the
// node on first use.
func (a *Account) State(ctx context.Context) (AccountState, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.initState(ctx); err != nil {
		return AccountState{}, err
	}
	return a.state, nil
}

// Balance returns the current balance, zero for an unopened account.
func (a *Account) Balance(ctx context.Context) (amount.Amount, error) {
	state, err := a.State(ctx)
	if err != nil {
		return amount.Amount{}, err
	}
	return state.Balance(), nil
}

// RefreshState discards the local state snapshot and fetches a fresh one
// from the node. Most callers never need this; the engine refreshes on its
// own when it detects a ledger conflict.
func (a *Account) RefreshState(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.refreshState(ctx)
}

// =============================================================================

// Send publishes a block sending the amount to the destination account.
func (a *Account) Send(ctx context.Context, destination address.Address, amt amount.Amount) (block.Block, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	b, err := a.processBlock(ctx, "send", func(state AccountState) (*block.Block, error) {
		blk, err := a.producer.CreateSend(a.account, state, destination, amt)
		if err != nil {
			return nil, err
		}
		return &blk, nil
	})
	if err != nil {
		return block.Block{}, err
	}
	return *b, nil
}

// SendAll publishes a block sending the entire balance to the destination
// account, or nil if there are no funds to send.
func (a *Account) SendAll(ctx context.Context, destination address.Address) (*block.Block, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.processBlock(ctx, "sendall", func(state AccountState) (*block.Block, error) {
		return a.producer.CreateSendAll(a.account, state, destination)
	})
}

// Receive publishes a block receiving the specified pending send.
func (a *Account) Receive(ctx context.Context, source block.Hash) (block.Block, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	info, err := a.node.BlockInfo(ctx, source)
	if err != nil {
		return block.Block{}, fmt.Errorf("receive: fetching pending block info: %w", err)
	}

	b, err := a.receive(ctx, source, info.Amount)
	if err != nil {
		return block.Block{}, err
	}
	return *b, nil
}

// ReceiveBatch fetches up to count pending sends at or above the threshold
// and receives each sequentially. Each receive extends the frontier the
// previous one produced, so the batch cannot run in parallel.
func (a *Account) ReceiveBatch(ctx context.Context, count int, threshold amount.Amount) ([]block.Block, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.receiveBatch(ctx, count, threshold)
}

// ReceiveAll receives every pending send at or above the threshold, working
// in fixed size batches until one comes back empty. If funds arrive faster
// than they are received this can run unboundedly; that is the caller's
// risk to manage.
func (a *Account) ReceiveAll(ctx context.Context, threshold amount.Amount) ([]block.Block, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var published []block.Block
	for {
		batch, err := a.receiveBatch(ctx, receiveBatchSize, threshold)
		if err != nil {
			return published, err
		}
		if len(batch) == 0 {
			return published, nil
		}
		published = append(published, batch...)
	}
}

// ChangeRepresentative publishes a block assigning a new representative, or
// nil if the representative is already set to the given account.
func (a *Account) ChangeRepresentative(ctx context.Context, representative address.Address) (*block.Block, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.processBlock(ctx, "changerep", func(state AccountState) (*block.Block, error) {
		return a.producer.CreateChangeRepresentative(a.account, state, representative)
	})
}

// =============================================================================

func (a *Account) receiveBatch(ctx context.Context, count int, threshold amount.Amount) ([]block.Block, error) {
	pending, err := a.node.Pending(ctx, a.account, count, threshold)
	if err != nil {
		return nil, fmt.Errorf("receive batch: fetching pending blocks: %w", err)
	}

	var published []block.Block
	for _, p := range pending {
		b, err := a.receive(ctx, p.Hash, p.Amount)
		if err != nil {
			return published, err
		}
		published = append(published, *b)
	}

	return published, nil
}

func (a *Account) receive(ctx context.Context, source block.Hash, amt amount.Amount) (*block.Block, error) {
	return a.processBlock(ctx, "receive", func(state AccountState) (*block.Block, error) {
		blk, err := a.producer.CreateReceive(a.account, state, source, amt)
		if err != nil {
			return nil, err
		}
		return &blk, nil
	})
}

// processBlock runs the publish protocol for one operation: build the
// candidate block from current local state, attach signature and work,
// submit, and on a ledger conflict refresh the state and retry within the
// budget. The caller must hold the account lock.
func (a *Account) processBlock(ctx context.Context, op string, build func(state AccountState) (*block.Block, error)) (*block.Block, error) {
	if a.key == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrReadOnly)
	}
	if err := a.initState(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for attempt := 1; attempt <= maxRetryAttempts; attempt++ {
		candidate, err := build(a.state)
		if err != nil {
			return nil, fmt.Errorf("%s: creating block: %w", op, err)
		}
		if candidate == nil {
			return nil, nil
		}

		signed, err := candidate.Sign(a.key)
		if err != nil {
			return nil, fmt.Errorf("%s: signing block: %w", op, err)
		}

		result, err := a.work.GenerateForBlock(signed, a.mult)
		if err != nil {
			return nil, fmt.Errorf("%s: requesting work: %w", op, err)
		}
		gw, err := result.Wait(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: generating work: %w", op, err)
		}
		final := signed.WithWork(gw.Work)

		if _, err := a.node.ProcessBlock(ctx, final); err != nil {
			var rpcErr *rpc.Error
			if errors.As(err, &rpcErr) && rpcErr.Retryable() {

				// A concurrent writer moved the frontier. Pick up the new
				// head and rebuild the block from fresh state.
				a.ev("wallet: %s: account[%s]: attempt[%d]: conflict %q: refreshing state", op, a.account, attempt, rpcErr.Message)
				if err := a.refreshState(ctx); err != nil {
					return nil, fmt.Errorf("%s: %w", op, err)
				}
				continue
			}
			return nil, fmt.Errorf("%s: submitting block: %w", op, err)
		}

		// The published block is the new frontier; the next operation can
		// build on it without another round trip.
		state, err := Opened(final.Hash(), final.Balance(), final.Representative())
		if err != nil {
			return nil, fmt.Errorf("%s: deriving next state: %w", op, err)
		}
		a.state = state

		a.ev("wallet: %s: account[%s]: published block[%s] balance[%s]", op, a.account, final.Hash(), final.Balance())
		return &final, nil
	}

	return nil, fmt.Errorf("%s: %w", op, ErrStaleState)
}

// initState fetches the account state on first use. The caller must hold
// the account lock.
func (a *Account) initState(ctx context.Context) error {
	if a.hasState {
		return nil
	}
	return a.refreshState(ctx)
}

// refreshState replaces the local snapshot with the node's view of the
// account. A not-found response maps to the unopened state. The caller must
// hold the account lock.
func (a *Account) refreshState(ctx context.Context) error {
	info, err := a.node.AccountInfo(ctx, a.account)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			a.state = Unopened()
			a.hasState = true
			return nil
		}
		return fmt.Errorf("retrieving account state: %w", err)
	}

	state, err := Opened(info.Frontier, info.Balance, info.Representative)
	if err != nil {
		return fmt.Errorf("retrieving account state: %w", err)
	}

	a.state = state
	a.hasState = true

	return nil
}
