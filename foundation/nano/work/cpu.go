package work

import (
	"context"
	"crypto/rand"
	"encoding/binary"

	"github.com/gonano/wallet/foundation/nano/block"
	"golang.org/x/crypto/blake2b"
)

// checkInterval controls how often the solve loop polls for cancellation.
const checkInterval = 1 << 16

// CPUBackend computes work solutions with a software hash loop. It retries
// internally until a valid solution is found or the context is cancelled.
type CPUBackend struct{}

// GenerateWork implements the Backend interface.
func (CPUBackend) GenerateWork(ctx context.Context, root block.Hash, target Difficulty) (block.Work, error) {

	// Choose a random starting point for the nonce. After this, the nonce
	// is incremented by 1 until a solution is found.
	var seed [8]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return block.Work{}, err
	}
	nonce := binary.LittleEndian.Uint64(seed[:])

	h, err := blake2b.New(8, nil)
	if err != nil {
		return block.Work{}, err
	}

	var input [8]byte
	var attempts uint64
	for {
		attempts++
		if attempts%checkInterval == 0 && ctx.Err() != nil {
			return block.Work{}, ctx.Err()
		}

		h.Reset()
		binary.LittleEndian.PutUint64(input[:], nonce)
		h.Write(input[:])
		h.Write(root[:])

		if Difficulty(binary.LittleEndian.Uint64(h.Sum(nil))) >= target {
			return block.WorkFromUint64(nonce), nil
		}

		nonce++
	}
}
