package block

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Fixed byte widths for the hex encoded block fields.
const (
	HashSize      = 32
	SignatureSize = 64
	WorkSize      = 8
)

// =============================================================================

// Hash represents a 32 byte block hash or work root. Equality and ordering
// are by byte content and the boundary rendering is uppercase hex.
type Hash [HashSize]byte

// ZeroHash is the all zero hash used for the previous field of first blocks.
var ZeroHash Hash

// ParseHash decodes a 64 character hex string into a Hash.
func ParseHash(s string) (Hash, error) {
	var h Hash
	if err := decodeHex(s, h[:]); err != nil {
		return Hash{}, fmt.Errorf("block hash: %w", err)
	}
	return h, nil
}

// String renders the hash as uppercase hex.
func (h Hash) String() string {
	return strings.ToUpper(hex.EncodeToString(h[:]))
}

// IsZero reports whether the hash is all zero bytes.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// MarshalText implements the encoding.TextMarshaler interface.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (h *Hash) UnmarshalText(data []byte) error {
	v, err := ParseHash(string(data))
	if err != nil {
		return err
	}
	*h = v
	return nil
}

// =============================================================================

// Signature represents a 64 byte ed25519 block signature.
type Signature [SignatureSize]byte

// ParseSignature decodes a 128 character hex string into a Signature.
func ParseSignature(s string) (Signature, error) {
	var sig Signature
	if err := decodeHex(s, sig[:]); err != nil {
		return Signature{}, fmt.Errorf("block signature: %w", err)
	}
	return sig, nil
}

// String renders the signature as uppercase hex.
func (s Signature) String() string {
	return strings.ToUpper(hex.EncodeToString(s[:]))
}

// =============================================================================

// Work represents an 8 byte proof of work solution. The bytes are stored in
// the big endian ordering used by the hex rendering; the work algorithm
// hashes them least significant byte first.
type Work [WorkSize]byte

// ParseWork decodes a 16 character hex string into a Work value.
func ParseWork(s string) (Work, error) {
	var w Work
	if err := decodeHex(s, w[:]); err != nil {
		return Work{}, fmt.Errorf("work solution: %w", err)
	}
	return w, nil
}

// WorkFromUint64 constructs a Work value from its integer form.
func WorkFromUint64(v uint64) Work {
	var w Work
	for i := WorkSize - 1; i >= 0; i-- {
		w[i] = byte(v)
		v >>= 8
	}
	return w
}

// Uint64 returns the integer form of the work solution.
func (w Work) Uint64() uint64 {
	var v uint64
	for i := 0; i < WorkSize; i++ {
		v = v<<8 | uint64(w[i])
	}
	return v
}

// HashableBytes returns the solution least significant byte first, the
// ordering fed into the work hash.
func (w Work) HashableBytes() []byte {
	out := make([]byte, WorkSize)
	for i := 0; i < WorkSize; i++ {
		out[i] = w[WorkSize-1-i]
	}
	return out
}

// String renders the work solution as uppercase hex.
func (w Work) String() string {
	return strings.ToUpper(hex.EncodeToString(w[:]))
}

// =============================================================================

// decodeHex decodes s into dst, requiring an exact length match.
func decodeHex(s string, dst []byte) error {
	data, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid hex %q", s)
	}
	if len(data) != len(dst) {
		return fmt.Errorf("wrong length, got %d bytes, exp %d", len(data), len(dst))
	}
	copy(dst, data)
	return nil
}
