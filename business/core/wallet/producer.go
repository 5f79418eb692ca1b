package wallet

import (
	"errors"
	"fmt"

	"github.com/gonano/wallet/foundation/nano/address"
	"github.com/gonano/wallet/foundation/nano/amount"
	"github.com/gonano/wallet/foundation/nano/block"
)

// Block production errors.
var (
	ErrInsufficientFunds = errors.New("insufficient funds in the account")
	ErrNotOpened         = errors.New("the account has no blocks in its chain")
)

// =============================================================================

// Producer deterministically derives the next canonical block for an
// account from an immutable prior state and a requested operation. Produced
// blocks are unsigned and carry no work solution; the caller attaches both
// before submission.
type Producer struct {
	defaultRepresentative address.Address
}

// NewProducer constructs a Producer. The default representative is assigned
// to the first block in an account's chain.
func NewProducer(defaultRepresentative address.Address) Producer {
	return Producer{
		defaultRepresentative: defaultRepresentative,
	}
}

// CreateSend derives a send block moving the amount to the destination
// account. The account must be opened and hold at least the amount.
func (p Producer) CreateSend(account address.Address, state AccountState, destination address.Address, amt amount.Amount) (block.Block, error) {
	frontier, ok := state.Frontier()
	if !ok {
		return block.Block{}, fmt.Errorf("creating send: %w", ErrNotOpened)
	}

	balance, err := state.Balance().Sub(amt)
	if err != nil {
		return block.Block{}, fmt.Errorf("sending %s with balance %s: %w", amt, state.Balance(), ErrInsufficientFunds)
	}

	var link block.Hash
	copy(link[:], destination.Bytes())

	rep, _ := state.Representative()
	return block.NewState(block.SubtypeSend, account, frontier, rep, balance, link)
}

// CreateSendAll derives a send block moving the entire balance to the
// destination account, or no block if the balance is zero.
func (p Producer) CreateSendAll(account address.Address, state AccountState, destination address.Address) (*block.Block, error) {
	if !state.IsOpened() {
		return nil, fmt.Errorf("creating send: %w", ErrNotOpened)
	}
	if state.Balance().IsZero() {
		return nil, nil
	}

	b, err := p.CreateSend(account, state, destination, state.Balance())
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateReceive derives a receive block for the given pending send. An
// unopened account produces its first block, with a zero previous hash and
// the default representative.
func (p Producer) CreateReceive(account address.Address, state AccountState, source block.Hash, amt amount.Amount) (block.Block, error) {
	if source.IsZero() {
		return block.Block{}, fmt.Errorf("creating receive: source hash is zero: %w", block.ErrInvalidField)
	}

	var link block.Hash
	copy(link[:], source[:])

	if !state.IsOpened() {
		return block.NewState(block.SubtypeOpen, account, block.ZeroHash, p.defaultRepresentative, amt, link)
	}

	balance, err := state.Balance().Add(amt)
	if err != nil {
		return block.Block{}, fmt.Errorf("receiving %s with balance %s: %w", amt, state.Balance(), err)
	}

	frontier, _ := state.Frontier()
	rep, _ := state.Representative()
	return block.NewState(block.SubtypeReceive, account, frontier, rep, balance, link)
}

// CreateChangeRepresentative derives a block assigning a new representative,
// or no block if the representative is already set to the given account.
func (p Producer) CreateChangeRepresentative(account address.Address, state AccountState, representative address.Address) (*block.Block, error) {
	frontier, ok := state.Frontier()
	if !ok {
		return nil, fmt.Errorf("changing representative: %w", ErrNotOpened)
	}

	if current, _ := state.Representative(); current == representative {
		return nil, nil
	}

	b, err := block.NewState(block.SubtypeChange, account, frontier, representative, state.Balance(), block.ZeroHash)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
