// Package amount provides an unsigned arbitrary precision value representing
// a quantity of raw ledger units. Arithmetic never wraps: underflow below
// zero and overflow past the 128 bit balance field are errors.
package amount

import (
	"errors"
	"fmt"
	"math/big"
)

// Balances are carried in blocks as a fixed 16 byte field, so an amount can
// never exceed 2^128-1.
var maxRaw = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// Arithmetic and parsing errors.
var (
	ErrNegative = errors.New("amount cannot be negative")
	ErrTooLarge = errors.New("amount exceeds the maximum raw value")
)

// =============================================================================

// Amount is an immutable non-negative quantity of raw units. The zero value
// is a zero amount and is ready for use.
type Amount struct {
	raw *big.Int
}

// Zero returns a zero amount.
func Zero() Amount {
	return Amount{}
}

// FromUint64 constructs an Amount from a uint64 raw value.
func FromUint64(v uint64) Amount {
	return Amount{raw: new(big.Int).SetUint64(v)}
}

// FromRaw parses a decimal string of raw units.
func FromRaw(s string) (Amount, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, fmt.Errorf("parsing raw amount %q", s)
	}
	return fromBig(v)
}

// FromBig constructs an Amount from a big integer value.
func FromBig(v *big.Int) (Amount, error) {
	return fromBig(new(big.Int).Set(v))
}

func fromBig(v *big.Int) (Amount, error) {
	if v.Sign() < 0 {
		return Amount{}, ErrNegative
	}
	if v.Cmp(maxRaw) > 0 {
		return Amount{}, ErrTooLarge
	}
	return Amount{raw: v}, nil
}

// =============================================================================

// Add returns the sum of the two amounts.
func (a Amount) Add(b Amount) (Amount, error) {
	sum := new(big.Int).Add(a.big(), b.big())
	if sum.Cmp(maxRaw) > 0 {
		return Amount{}, ErrTooLarge
	}
	return Amount{raw: sum}, nil
}

// Sub returns the difference of the two amounts. Subtracting more than the
// current value is an underflow error, not a wraparound.
func (a Amount) Sub(b Amount) (Amount, error) {
	if a.Cmp(b) < 0 {
		return Amount{}, fmt.Errorf("subtracting %s from %s: %w", b, a, ErrNegative)
	}
	return Amount{raw: new(big.Int).Sub(a.big(), b.big())}, nil
}

// Cmp compares two amounts, returning -1, 0 or 1.
func (a Amount) Cmp(b Amount) int {
	return a.big().Cmp(b.big())
}

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool {
	return a.big().Sign() == 0
}

// Bytes16 returns the value as the fixed width big endian byte field carried
// in block canonical serializations.
func (a Amount) Bytes16() [16]byte {
	var out [16]byte
	a.big().FillBytes(out[:])
	return out
}

// Big returns a copy of the value as a big integer.
func (a Amount) Big() *big.Int {
	return new(big.Int).Set(a.big())
}

// String renders the amount as a decimal string of raw units.
func (a Amount) String() string {
	return a.big().String()
}

// MarshalText implements the encoding.TextMarshaler interface.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (a *Amount) UnmarshalText(data []byte) error {
	v, err := FromRaw(string(data))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// big provides nil-safe access to the underlying value so the zero value
// Amount behaves as zero.
func (a Amount) big() *big.Int {
	if a.raw == nil {
		return new(big.Int)
	}
	return a.raw
}
