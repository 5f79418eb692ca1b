// Package work implements the proof of work subsystem: difficulty thresholds
// and their multiplier arithmetic, work solution validation, and an ordered
// asynchronous work generation service.
package work

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gonano/wallet/foundation/nano/block"
	"golang.org/x/crypto/blake2b"
)

// ErrInvalidMultiplier is returned when a difficulty multiplier is zero or
// negative.
var ErrInvalidMultiplier = errors.New("difficulty multiplier must be a positive value")

// =============================================================================

// Difficulty is a minimum acceptable work value. A work solution is valid
// for a root when its work value is at or above the threshold.
type Difficulty uint64

// ParseDifficulty decodes a 16 character hex difficulty threshold.
func ParseDifficulty(s string) (Difficulty, error) {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing difficulty %q: %w", s, err)
	}
	return Difficulty(v), nil
}

// String renders the difficulty as 16 uppercase hex characters.
func (d Difficulty) String() string {
	return strings.ToUpper(fmt.Sprintf("%016x", uint64(d)))
}

// Multiply derives a tightened (or relaxed) target from a base difficulty:
// target = 2^64 - (2^64 - base) / multiplier. The result is monotonic in the
// multiplier and a multiplier of at least 1 never lowers the difficulty.
func (d Difficulty) Multiply(multiplier float64) (Difficulty, error) {
	if multiplier <= 0 {
		return 0, ErrInvalidMultiplier
	}
	if multiplier == 1 {
		return d, nil
	}

	// The quantity being scaled is the expected number of attempts per
	// solution, which is proportional to 2^64 - difficulty.
	inverse := float64(^uint64(d)) + 1
	scaled := inverse / multiplier

	if scaled < 1 {
		return Difficulty(math.MaxUint64), nil
	}
	if scaled >= math.MaxUint64 {
		return 0, nil
	}

	return Difficulty(^uint64(scaled) + 1), nil
}

// MultiplierFrom returns the multiplier that derives this difficulty from
// the given base.
func (d Difficulty) MultiplierFrom(base Difficulty) float64 {
	return (float64(^uint64(base)) + 1) / (float64(^uint64(d)) + 1)
}

// =============================================================================

// Value computes the work value of a solution against a root: an 8 byte
// blake2b digest of the solution (least significant byte first) followed by
// the root, read as a little endian integer.
func Value(w block.Work, root block.Hash) Difficulty {
	h, err := blake2b.New(8, nil)
	if err != nil {
		panic(err)
	}
	h.Write(w.HashableBytes())
	h.Write(root[:])

	return Difficulty(binary.LittleEndian.Uint64(h.Sum(nil)))
}

// IsValid reports whether the solution meets the target difficulty for the
// given root.
func IsValid(w block.Work, root block.Hash, target Difficulty) bool {
	return Value(w, root) >= target
}
