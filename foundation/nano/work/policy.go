package work

import (
	"github.com/gonano/wallet/foundation/nano/block"
)

// Live network difficulty thresholds. First blocks and epoch markers carry
// the upper threshold, receives and representative changes the lower one.
const (
	LiveEpochDifficulty   Difficulty = 0xFFFFFFF800000000
	LiveSendDifficulty    Difficulty = 0xFFFFFFF800000000
	LiveReceiveDifficulty Difficulty = 0xFFFFFE0000000000
)

// =============================================================================

// Policy is a pure mapping from a block's intent to the minimum acceptable
// work difficulty. The thresholds are fixed at construction from network
// parameters.
type Policy struct {
	epoch   Difficulty
	send    Difficulty
	receive Difficulty
}

// NewPolicy constructs a policy from explicit thresholds for first
// block/epoch, send, and receive/change intents.
func NewPolicy(epoch, send, receive Difficulty) Policy {
	return Policy{
		epoch:   epoch,
		send:    send,
		receive: receive,
	}
}

// LivePolicy returns the policy carrying the live network thresholds.
func LivePolicy() Policy {
	return NewPolicy(LiveEpochDifficulty, LiveSendDifficulty, LiveReceiveDifficulty)
}

// ForIntent returns the threshold required for a block with the given
// intent.
func (p Policy) ForIntent(intent block.Intent) Difficulty {
	switch {
	case intent.IsEpoch || intent.IsFirst || intent.IsGenesis:
		return p.epoch
	case intent.IsSend:
		return p.send
	default:
		return p.receive
	}
}

// Base returns the highest threshold the policy can demand, used when a
// request is not bound to a specific block intent.
func (p Policy) Base() Difficulty {
	base := p.epoch
	if p.send > base {
		base = p.send
	}
	if p.receive > base {
		base = p.receive
	}
	return base
}
