// Package address implements the account address scheme used by the ledger.
// An address is a 32 byte ed25519 public key rendered with a custom base32
// alphabet, a checksum, and a nano_ prefix.
package address

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// These prefixes are accepted when parsing an address. New addresses are
// always rendered with the primary prefix.
const (
	PrefixNano = "nano_"
	PrefixXRB  = "xrb_"
)

// alphabet is the base32 alphabet used by the address encoding. The ordering
// and the excluded characters (0, 2, l, v) are a network compatibility
// invariant.
const alphabet = "13456789abcdefghijkmnopqrstuwxyz"

// Encoded field widths. The public key is 256 bits padded to 260 (52 base32
// characters) and the checksum is 40 bits (8 characters).
const (
	keyChars      = 52
	checksumChars = 8
)

// ErrInvalidAddress is returned when parsing text that is not a well formed
// account address.
var ErrInvalidAddress = errors.New("invalid account address")

// =============================================================================

// Address represents an account on the ledger. It doubles as the account's
// ed25519 public key and is used both as an identity and as a representative
// pointer inside blocks.
type Address [32]byte

// Zero is the burn address, with a public key of all zero bytes.
var Zero Address

// FromPublicKey constructs an Address from an ed25519 public key.
func FromPublicKey(pub ed25519.PublicKey) (Address, error) {
	if len(pub) != ed25519.PublicKeySize {
		return Address{}, fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(pub))
	}

	var addr Address
	copy(addr[:], pub)
	return addr, nil
}

// FromHex constructs an Address from a 64 character hex public key.
func FromHex(s string) (Address, error) {
	data, err := hex.DecodeString(s)
	if err != nil || len(data) != 32 {
		return Address{}, fmt.Errorf("public key hex %q: %w", s, ErrInvalidAddress)
	}

	var addr Address
	copy(addr[:], data)
	return addr, nil
}

// Parse decodes a textual account address, validating the checksum.
func Parse(s string) (Address, error) {
	var body string
	switch {
	case strings.HasPrefix(s, PrefixNano):
		body = s[len(PrefixNano):]
	case strings.HasPrefix(s, PrefixXRB):
		body = s[len(PrefixXRB):]
	default:
		return Address{}, fmt.Errorf("address %q: missing prefix: %w", s, ErrInvalidAddress)
	}

	if len(body) != keyChars+checksumChars {
		return Address{}, fmt.Errorf("address %q: wrong length: %w", s, ErrInvalidAddress)
	}

	keyBytes, err := decodeBase32(body[:keyChars], 32)
	if err != nil {
		return Address{}, fmt.Errorf("address %q: %w", s, ErrInvalidAddress)
	}

	var addr Address
	copy(addr[:], keyBytes)

	if addr.checksum() != body[keyChars:] {
		return Address{}, fmt.Errorf("address %q: bad checksum: %w", s, ErrInvalidAddress)
	}

	return addr, nil
}

// =============================================================================

// String renders the address in its canonical textual form.
func (a Address) String() string {
	return PrefixNano + encodeBase32(a[:], keyChars) + a.checksum()
}

// HexString returns the public key as uppercase hex.
func (a Address) HexString() string {
	return strings.ToUpper(hex.EncodeToString(a[:]))
}

// PublicKey returns the address as an ed25519 public key.
func (a Address) PublicKey() ed25519.PublicKey {
	return ed25519.PublicKey(a[:])
}

// Bytes returns a copy of the raw public key bytes.
func (a Address) Bytes() []byte {
	b := make([]byte, len(a))
	copy(b, a[:])
	return b
}

// IsZero reports whether this is the all zero burn address.
func (a Address) IsZero() bool {
	return a == Zero
}

// MarshalText implements the encoding.TextMarshaler interface.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (a *Address) UnmarshalText(data []byte) error {
	addr, err := Parse(string(data))
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// checksum computes the 8 character checksum: a 5 byte blake2b digest of the
// public key with the byte order reversed.
func (a Address) checksum() string {
	h, err := blake2b.New(5, nil)
	if err != nil {
		panic(err)
	}
	h.Write(a[:])
	sum := h.Sum(nil)

	for i, j := 0, len(sum)-1; i < j; i, j = i+1, j-1 {
		sum[i], sum[j] = sum[j], sum[i]
	}

	return encodeBase32(sum, checksumChars)
}

// =============================================================================

// encodeBase32 renders data, interpreted as a big endian integer, as exactly
// chars base32 characters.
func encodeBase32(data []byte, chars int) string {
	v := new(big.Int).SetBytes(data)

	out := make([]byte, chars)
	mask := big.NewInt(31)
	digit := new(big.Int)
	for i := chars - 1; i >= 0; i-- {
		digit.And(v, mask)
		out[i] = alphabet[digit.Int64()]
		v.Rsh(v, 5)
	}

	return string(out)
}

// decodeBase32 parses base32 characters into a big endian byte slice of
// exactly size bytes.
func decodeBase32(s string, size int) ([]byte, error) {
	v := new(big.Int)
	for _, c := range s {
		idx := strings.IndexRune(alphabet, c)
		if idx < 0 {
			return nil, fmt.Errorf("invalid base32 character %q", c)
		}
		v.Lsh(v, 5)
		v.Or(v, big.NewInt(int64(idx)))
	}

	if v.BitLen() > size*8 {
		return nil, errors.New("value overflows the target size")
	}

	out := make([]byte, size)
	v.FillBytes(out)
	return out, nil
}
