package wallet

import (
	"fmt"

	"github.com/gonano/wallet/foundation/nano/address"
	"github.com/gonano/wallet/foundation/nano/amount"
	"github.com/gonano/wallet/foundation/nano/block"
)

// AccountState is an immutable snapshot of an account's head: the frontier
// hash, balance and representative. Snapshots are replaced wholesale on
// refresh, never mutated in place. An unopened account is a distinguished
// state, not an error.
type AccountState struct {
	opened         bool
	frontier       block.Hash
	balance        amount.Amount
	representative address.Address
}

// Unopened returns the state of an account with no blocks in its chain.
func Unopened() AccountState {
	return AccountState{}
}

// Opened constructs the state of an account with at least one block.
func Opened(frontier block.Hash, balance amount.Amount, representative address.Address) (AccountState, error) {
	if frontier.IsZero() {
		return AccountState{}, fmt.Errorf("opened account state requires a frontier hash")
	}

	return AccountState{
		opened:         true,
		frontier:       frontier,
		balance:        balance,
		representative: representative,
	}, nil
}

// IsOpened reports whether the account has any blocks in its chain.
func (s AccountState) IsOpened() bool {
	return s.opened
}

// Frontier returns the hash of the most recent block in the account's
// chain, or false if the account is unopened.
func (s AccountState) Frontier() (block.Hash, bool) {
	return s.frontier, s.opened
}

// Balance returns the account balance, zero for unopened accounts.
func (s AccountState) Balance() amount.Amount {
	return s.balance
}

// Representative returns the account's representative, or false if the
// account is unopened.
func (s AccountState) Representative() (address.Address, bool) {
	return s.representative, s.opened
}
