// Package block implements the canonical ledger entry model: a closed set of
// block kinds sharing one hashing, signing and equality scheme. Blocks are
// immutable; the canonical hash is computed once at construction.
package block

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/gonano/wallet/foundation/nano/address"
	"github.com/gonano/wallet/foundation/nano/amount"
	"golang.org/x/crypto/blake2b"
)

// Construction and verification errors.
var (
	ErrInvalidField   = errors.New("invalid block field")
	ErrBlockIntegrity = errors.New("block integrity check failed")
)

// Kind identifies the wire level block type.
type Kind string

// The set of block kinds. The first four are legacy types kept for reading
// historical chains; new blocks are always the unified state kind.
const (
	KindOpen    Kind = "open"
	KindSend    Kind = "send"
	KindReceive Kind = "receive"
	KindChange  Kind = "change"
	KindState   Kind = "state"
)

// Subtype classifies the semantic purpose of a state block, which is not
// recoverable from its fields alone.
type Subtype string

// The set of state block subtypes.
const (
	SubtypeOpen    Subtype = "open"
	SubtypeSend    Subtype = "send"
	SubtypeReceive Subtype = "receive"
	SubtypeChange  Subtype = "change"
	SubtypeEpoch   Subtype = "epoch"
)

// statePreamble is the fixed 32 byte type tag hashed ahead of a state
// block's fields. The value distinguishes state hashes from legacy hashes
// computed over the same field bytes.
var statePreamble = func() [32]byte {
	var p [32]byte
	p[31] = 0x06
	return p
}()

// =============================================================================

// Block represents a single canonical ledger entry of any kind. A Block is
// immutable after construction: the signature and work solution are attached
// by copying, and the hash is computed once by the constructor.
type Block struct {
	kind    Kind
	subtype Subtype

	account        address.Address
	previous       Hash
	source         Hash
	destination    address.Address
	representative address.Address
	balance        amount.Amount
	link           Hash

	hash         Hash
	suppliedHash *Hash
	signature    *Signature
	work         *Work
}

// NewOpen constructs a legacy open block, the first block in an account's
// chain under the legacy scheme.
func NewOpen(source Hash, representative, account address.Address) (Block, error) {
	if source.IsZero() {
		return Block{}, fmt.Errorf("open block requires a source hash: %w", ErrInvalidField)
	}
	if account.IsZero() {
		return Block{}, fmt.Errorf("open block requires an account: %w", ErrInvalidField)
	}

	b := Block{
		kind:           KindOpen,
		source:         source,
		representative: representative,
		account:        account,
	}
	b.hash = b.computeHash()
	return b, nil
}

// NewSend constructs a legacy send block carrying the balance remaining
// after the send.
func NewSend(previous Hash, destination address.Address, balance amount.Amount) (Block, error) {
	if previous.IsZero() {
		return Block{}, fmt.Errorf("send block requires a previous hash: %w", ErrInvalidField)
	}
	if destination.IsZero() {
		return Block{}, fmt.Errorf("send block requires a destination: %w", ErrInvalidField)
	}

	b := Block{
		kind:        KindSend,
		previous:    previous,
		destination: destination,
		balance:     balance,
	}
	b.hash = b.computeHash()
	return b, nil
}

// NewReceive constructs a legacy receive block pointing at the source send.
func NewReceive(previous, source Hash) (Block, error) {
	if previous.IsZero() || source.IsZero() {
		return Block{}, fmt.Errorf("receive block requires previous and source hashes: %w", ErrInvalidField)
	}

	b := Block{
		kind:     KindReceive,
		previous: previous,
		source:   source,
	}
	b.hash = b.computeHash()
	return b, nil
}

// NewChange constructs a legacy representative change block.
func NewChange(previous Hash, representative address.Address) (Block, error) {
	if previous.IsZero() {
		return Block{}, fmt.Errorf("change block requires a previous hash: %w", ErrInvalidField)
	}

	b := Block{
		kind:           KindChange,
		previous:       previous,
		representative: representative,
	}
	b.hash = b.computeHash()
	return b, nil
}

// NewState constructs a unified state block. The link field's meaning
// depends on the subtype: the destination public key for sends, the source
// block hash for receives, and zero otherwise. A zero previous hash marks
// the first block in the account's chain.
func NewState(subtype Subtype, account address.Address, previous Hash, representative address.Address, balance amount.Amount, link Hash) (Block, error) {
	if account.IsZero() {
		return Block{}, fmt.Errorf("state block requires an account: %w", ErrInvalidField)
	}
	switch subtype {
	case SubtypeOpen, SubtypeSend, SubtypeReceive, SubtypeChange, SubtypeEpoch:
	default:
		return Block{}, fmt.Errorf("state block subtype %q: %w", subtype, ErrInvalidField)
	}
	if subtype == SubtypeOpen && !previous.IsZero() {
		return Block{}, fmt.Errorf("open state block must have a zero previous hash: %w", ErrInvalidField)
	}
	if subtype != SubtypeOpen && previous.IsZero() {
		return Block{}, fmt.Errorf("%s state block requires a previous hash: %w", subtype, ErrInvalidField)
	}

	b := Block{
		kind:           KindState,
		subtype:        subtype,
		account:        account,
		previous:       previous,
		representative: representative,
		balance:        balance,
		link:           link,
	}
	b.hash = b.computeHash()
	return b, nil
}

// =============================================================================

// Kind returns the wire level block type.
func (b Block) Kind() Kind {
	return b.kind
}

// StateSubtype returns the subtype for state blocks and the empty string for
// legacy kinds.
func (b Block) StateSubtype() Subtype {
	return b.subtype
}

// Hash returns the canonical hash of the block. The value is computed at
// construction and never changes.
func (b Block) Hash() Hash {
	return b.hash
}

// Account returns the owning account for kinds that carry one.
func (b Block) Account() address.Address {
	return b.account
}

// Previous returns the previous block hash, zero for first blocks.
func (b Block) Previous() Hash {
	return b.previous
}

// Representative returns the representative pointer for kinds that carry one.
func (b Block) Representative() address.Address {
	return b.representative
}

// Balance returns the resulting account balance for kinds that carry one.
func (b Block) Balance() amount.Amount {
	return b.balance
}

// Source returns the source send hash: the source field for legacy blocks
// and the link field for state receives.
func (b Block) Source() Hash {
	if b.kind == KindState {
		return b.link
	}
	return b.source
}

// Link returns the raw link field of a state block.
func (b Block) Link() Hash {
	return b.link
}

// Destination returns the send destination: the destination field for legacy
// sends and the link field interpreted as a public key for state sends.
func (b Block) Destination() address.Address {
	if b.kind == KindState {
		var dest address.Address
		copy(dest[:], b.link[:])
		return dest
	}
	return b.destination
}

// Signature returns the attached signature, or false if the block is
// unsigned.
func (b Block) Signature() (Signature, bool) {
	if b.signature == nil {
		return Signature{}, false
	}
	return *b.signature, true
}

// Work returns the attached work solution, or false if none is attached.
func (b Block) Work() (Work, bool) {
	if b.work == nil {
		return Work{}, false
	}
	return *b.work, true
}

// Root returns the hash value proof of work must be computed against: the
// previous block hash, or the account public key for first blocks.
func (b Block) Root() Hash {
	if !b.previous.IsZero() {
		return b.previous
	}
	if b.kind == KindOpen || b.kind == KindState {
		var root Hash
		copy(root[:], b.account[:])
		return root
	}
	return b.previous
}

// Equal reports content equality: two blocks are equal iff their canonical
// hashes are equal.
func (b Block) Equal(other Block) bool {
	return b.hash == other.hash
}

// =============================================================================

// WithSignature returns a copy of the block carrying the given signature.
func (b Block) WithSignature(sig Signature) Block {
	b.signature = &sig
	return b
}

// WithWork returns a copy of the block carrying the given work solution.
func (b Block) WithWork(w Work) Block {
	b.work = &w
	return b
}

// Sign signs the block hash with the given private key and returns a copy
// carrying the signature.
func (b Block) Sign(key ed25519.PrivateKey) (Block, error) {
	if len(key) != ed25519.PrivateKeySize {
		return Block{}, fmt.Errorf("private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(key))
	}

	var sig Signature
	copy(sig[:], ed25519.Sign(key, b.hash[:]))
	return b.WithSignature(sig), nil
}

// Verify recomputes the block hash against any hash supplied at parse time
// and validates the signature against the signer's public key. Both checks
// fail with ErrBlockIntegrity.
func (b Block) Verify(signer address.Address) error {
	if b.suppliedHash != nil && *b.suppliedHash != b.hash {
		return fmt.Errorf("supplied hash %s does not match computed hash %s: %w", b.suppliedHash, b.hash, ErrBlockIntegrity)
	}

	if b.signature == nil {
		return fmt.Errorf("block %s is unsigned: %w", b.hash, ErrBlockIntegrity)
	}
	if !ed25519.Verify(signer.PublicKey(), b.hash[:], b.signature[:]) {
		return fmt.Errorf("signature on block %s does not verify for account %s: %w", b.hash, signer, ErrBlockIntegrity)
	}

	return nil
}

// =============================================================================

// computeHash digests the canonical field byte layout for the block's kind.
// The field ordering is a network compatibility invariant.
func (b Block) computeHash() Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(err)
	}

	switch b.kind {
	case KindOpen:
		h.Write(b.source[:])
		h.Write(b.representative[:])
		h.Write(b.account[:])

	case KindSend:
		balance := b.balance.Bytes16()
		h.Write(b.previous[:])
		h.Write(b.destination[:])
		h.Write(balance[:])

	case KindReceive:
		h.Write(b.previous[:])
		h.Write(b.source[:])

	case KindChange:
		h.Write(b.previous[:])
		h.Write(b.representative[:])

	case KindState:
		balance := b.balance.Bytes16()
		h.Write(statePreamble[:])
		h.Write(b.account[:])
		h.Write(b.previous[:])
		h.Write(b.representative[:])
		h.Write(balance[:])
		h.Write(b.link[:])
	}

	var hash Hash
	copy(hash[:], h.Sum(nil))
	return hash
}
