package block_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"errors"
	"testing"

	"github.com/gonano/wallet/foundation/nano/address"
	"github.com/gonano/wallet/foundation/nano/amount"
	"github.com/gonano/wallet/foundation/nano/block"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func newTestKey(t *testing.T) (ed25519.PrivateKey, address.Address) {
	t.Helper()

	pub, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	addr, err := address.FromPublicKey(pub)
	if err != nil {
		t.Fatal(err)
	}
	return key, addr
}

func newTestHash(t *testing.T) block.Hash {
	t.Helper()

	var raw [block.HashSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		t.Fatal(err)
	}
	return block.Hash(raw)
}

// =============================================================================

func Test_Hashing(t *testing.T) {
	t.Log("Given the need for a stable canonical block hash.")
	{
		t.Logf("\tTest 0:\tWhen constructing the same state block twice.")
		{
			_, account := newTestKey(t)
			_, rep := newTestKey(t)
			previous := newTestHash(t)
			link := newTestHash(t)
			balance := amount.FromUint64(3_000_000)

			b1, err := block.NewState(block.SubtypeSend, account, previous, rep, balance, link)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to build a state block: %v", failed, err)
			}
			b2, err := block.NewState(block.SubtypeSend, account, previous, rep, balance, link)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to build a state block: %v", failed, err)
			}

			if b1.Hash() != b2.Hash() {
				t.Fatalf("\t%s\tTest 0:\tShould produce the same hash for the same fields.", failed)
			}
			if !b1.Equal(b2) {
				t.Fatalf("\t%s\tTest 0:\tShould compare equal by hash.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould produce the same hash for the same fields.", success)
		}

		t.Logf("\tTest 1:\tWhen any field differs.")
		{
			_, account := newTestKey(t)
			_, rep := newTestKey(t)
			previous := newTestHash(t)
			link := newTestHash(t)

			b1, err := block.NewState(block.SubtypeSend, account, previous, rep, amount.FromUint64(3_000_000), link)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to build a state block: %v", failed, err)
			}
			b2, err := block.NewState(block.SubtypeSend, account, previous, rep, amount.FromUint64(3_000_001), link)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to build a state block: %v", failed, err)
			}

			if b1.Hash() == b2.Hash() {
				t.Fatalf("\t%s\tTest 1:\tShould produce different hashes for different balances.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould produce different hashes for different balances.", success)
		}

		t.Logf("\tTest 2:\tWhen a state block and a legacy block share field bytes.")
		{
			_, account := newTestKey(t)
			_, rep := newTestKey(t)
			source := newTestHash(t)

			legacy, err := block.NewOpen(source, rep, account)
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to build an open block: %v", failed, err)
			}
			state, err := block.NewState(block.SubtypeOpen, account, block.ZeroHash, rep, amount.Zero(), source)
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to build an open state block: %v", failed, err)
			}

			if legacy.Hash() == state.Hash() {
				t.Fatalf("\t%s\tTest 2:\tShould hash legacy and state blocks differently.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould hash legacy and state blocks differently.", success)
		}

		t.Logf("\tTest 3:\tWhen attaching a signature and work.")
		{
			key, account := newTestKey(t)
			_, rep := newTestKey(t)

			b, err := block.NewState(block.SubtypeOpen, account, block.ZeroHash, rep, amount.FromUint64(1), newTestHash(t))
			if err != nil {
				t.Fatalf("\t%s\tTest 3:\tShould be able to build a state block: %v", failed, err)
			}

			signed, err := b.Sign(key)
			if err != nil {
				t.Fatalf("\t%s\tTest 3:\tShould be able to sign: %v", failed, err)
			}
			withWork := signed.WithWork(block.WorkFromUint64(42))

			if b.Hash() != signed.Hash() || b.Hash() != withWork.Hash() {
				t.Fatalf("\t%s\tTest 3:\tShould not change the hash.", failed)
			}
			t.Logf("\t%s\tTest 3:\tShould not change the hash.", success)

			if _, ok := b.Signature(); ok {
				t.Fatalf("\t%s\tTest 3:\tShould not mutate the original block.", failed)
			}
			t.Logf("\t%s\tTest 3:\tShould not mutate the original block.", success)
		}
	}
}

func Test_LiveNetworkHashes(t *testing.T) {
	const (
		genesisAddr     = "nano_3t6k35gi95xu6tergt6p69ck76ogmitsa8mnijtpxm9fkcm736xtoncuohr3"
		genesisKey      = "E89208DD038FBB269987689621D52292AE9C35941A7484756ECCED92A65093BA"
		genesisOpenHash = "991CF190094C00F0B68E2E5F75F6BEE95A2E0BD93CEAA4A6734DB9F19B728948"
		maxRaw          = "340282366920938463463374607431768211455"
	)

	t.Log("Given the need to match the live network's block hashes byte for byte.")
	{
		t.Logf("\tTest 0:\tWhen hashing the genesis open block.")
		{
			genesis, err := address.Parse(genesisAddr)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to parse the genesis address: %v", failed, err)
			}
			source, err := block.ParseHash(genesisKey)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to parse the source hash: %v", failed, err)
			}

			b, err := block.NewOpen(source, genesis, genesis)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to build the open block: %v", failed, err)
			}
			if b.Hash().String() != genesisOpenHash {
				t.Fatalf("\t%s\tTest 0:\tShould produce the genesis hash: got %s.", failed, b.Hash())
			}
			t.Logf("\t%s\tTest 0:\tShould produce the genesis hash.", success)
		}

		t.Logf("\tTest 1:\tWhen hashing a state block with fixed fields.")
		{
			genesis, err := address.Parse(genesisAddr)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to parse the genesis address: %v", failed, err)
			}
			previous, err := block.ParseHash(genesisOpenHash)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to parse the previous hash: %v", failed, err)
			}
			balance, err := amount.FromRaw(maxRaw)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to parse the balance: %v", failed, err)
			}

			b, err := block.NewState(block.SubtypeChange, genesis, previous, genesis, balance, block.ZeroHash)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to build the state block: %v", failed, err)
			}

			// blake2b-256 over preamble, account, previous, representative,
			// 16 byte big endian balance and link for these exact fields.
			const want = "EE015CA23DF090ECA30AAE2C81F1816C7F77610CDCF7884440501E5567A608B3"
			if b.Hash().String() != want {
				t.Fatalf("\t%s\tTest 1:\tShould produce the pinned hash: got %s.", failed, b.Hash())
			}
			t.Logf("\t%s\tTest 1:\tShould produce the pinned hash.", success)
		}
	}
}

func Test_Root(t *testing.T) {
	t.Log("Given the need to derive the proof of work root.")
	{
		t.Logf("\tTest 0:\tWhen the block has a previous hash.")
		{
			_, account := newTestKey(t)
			_, rep := newTestKey(t)
			previous := newTestHash(t)

			b, err := block.NewState(block.SubtypeSend, account, previous, rep, amount.Zero(), newTestHash(t))
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to build a state block: %v", failed, err)
			}

			if b.Root() != previous {
				t.Fatalf("\t%s\tTest 0:\tShould use the previous hash as the root.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould use the previous hash as the root.", success)
		}

		t.Logf("\tTest 1:\tWhen the block is the first in its chain.")
		{
			_, account := newTestKey(t)
			_, rep := newTestKey(t)

			b, err := block.NewState(block.SubtypeOpen, account, block.ZeroHash, rep, amount.FromUint64(7), newTestHash(t))
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to build an open state block: %v", failed, err)
			}

			var want block.Hash
			copy(want[:], account.Bytes())
			if b.Root() != want {
				t.Fatalf("\t%s\tTest 1:\tShould use the account public key as the root.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould use the account public key as the root.", success)
		}
	}
}

func Test_SignVerify(t *testing.T) {
	t.Log("Given the need to sign blocks and verify signatures.")
	{
		t.Logf("\tTest 0:\tWhen signing with the account key.")
		{
			key, account := newTestKey(t)
			_, rep := newTestKey(t)

			b, err := block.NewState(block.SubtypeOpen, account, block.ZeroHash, rep, amount.FromUint64(100), newTestHash(t))
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to build a state block: %v", failed, err)
			}

			signed, err := b.Sign(key)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to sign: %v", failed, err)
			}

			if err := signed.Verify(account); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould verify against the signer: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould verify against the signer.", success)
		}

		t.Logf("\tTest 1:\tWhen verifying against the wrong account.")
		{
			key, account := newTestKey(t)
			_, other := newTestKey(t)
			_, rep := newTestKey(t)

			b, err := block.NewState(block.SubtypeOpen, account, block.ZeroHash, rep, amount.FromUint64(100), newTestHash(t))
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to build a state block: %v", failed, err)
			}
			signed, err := b.Sign(key)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to sign: %v", failed, err)
			}

			if err := signed.Verify(other); !errors.Is(err, block.ErrBlockIntegrity) {
				t.Fatalf("\t%s\tTest 1:\tShould fail verification: got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould fail verification.", success)
		}

		t.Logf("\tTest 2:\tWhen the block is unsigned.")
		{
			_, account := newTestKey(t)
			_, rep := newTestKey(t)

			b, err := block.NewState(block.SubtypeOpen, account, block.ZeroHash, rep, amount.FromUint64(100), newTestHash(t))
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to build a state block: %v", failed, err)
			}

			if err := b.Verify(account); !errors.Is(err, block.ErrBlockIntegrity) {
				t.Fatalf("\t%s\tTest 2:\tShould fail verification: got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould fail verification.", success)
		}
	}
}

func Test_Construction(t *testing.T) {
	_, account := newTestKey(t)
	_, rep := newTestKey(t)
	hash := newTestHash(t)

	t.Log("Given the need to reject invalid block constructions.")
	{
		tt := []struct {
			name string
			fn   func() (block.Block, error)
		}{
			{"open without source", func() (block.Block, error) {
				return block.NewOpen(block.ZeroHash, rep, account)
			}},
			{"send without previous", func() (block.Block, error) {
				return block.NewSend(block.ZeroHash, account, amount.Zero())
			}},
			{"receive without source", func() (block.Block, error) {
				return block.NewReceive(hash, block.ZeroHash)
			}},
			{"change without previous", func() (block.Block, error) {
				return block.NewChange(block.ZeroHash, rep)
			}},
			{"state without account", func() (block.Block, error) {
				return block.NewState(block.SubtypeSend, address.Address{}, hash, rep, amount.Zero(), hash)
			}},
			{"state with unknown subtype", func() (block.Block, error) {
				return block.NewState("mystery", account, hash, rep, amount.Zero(), hash)
			}},
			{"open state with previous", func() (block.Block, error) {
				return block.NewState(block.SubtypeOpen, account, hash, rep, amount.Zero(), hash)
			}},
			{"send state without previous", func() (block.Block, error) {
				return block.NewState(block.SubtypeSend, account, block.ZeroHash, rep, amount.Zero(), hash)
			}},
		}

		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen constructing a %s.", testID, tst.name)
			{
				if _, err := tst.fn(); !errors.Is(err, block.ErrInvalidField) {
					t.Errorf("\t%s\tTest %d:\tShould reject the construction: got %v.", failed, testID, err)
					continue
				}
				t.Logf("\t%s\tTest %d:\tShould reject the construction.", success, testID)
			}
		}
	}
}

func Test_JSON(t *testing.T) {
	t.Log("Given the need to round trip blocks through the node wire format.")
	{
		t.Logf("\tTest 0:\tWhen handling a signed state send block.")
		{
			key, account := newTestKey(t)
			_, rep := newTestKey(t)
			_, dest := newTestKey(t)

			var link block.Hash
			copy(link[:], dest.Bytes())

			b, err := block.NewState(block.SubtypeSend, account, newTestHash(t), rep, amount.FromUint64(3_000_000), link)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to build a state block: %v", failed, err)
			}
			b, err = b.Sign(key)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to sign: %v", failed, err)
			}
			b = b.WithWork(block.WorkFromUint64(0xDEADBEEF))

			data, err := json.Marshal(b)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to marshal: %v", failed, err)
			}

			decoded, err := block.Parse(data)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to parse: %v", failed, err)
			}

			if !decoded.Equal(b) {
				t.Fatalf("\t%s\tTest 0:\tShould decode to the same canonical hash.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould decode to the same canonical hash.", success)

			if err := decoded.Verify(account); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould keep a verifiable signature: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould keep a verifiable signature.", success)

			w, ok := decoded.Work()
			if !ok || w.Uint64() != 0xDEADBEEF {
				t.Fatalf("\t%s\tTest 0:\tShould keep the work solution.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould keep the work solution.", success)

			if decoded.Destination() != dest {
				t.Fatalf("\t%s\tTest 0:\tShould expose the link as the destination.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould expose the link as the destination.", success)
		}

		t.Logf("\tTest 1:\tWhen handling a legacy send block.")
		{
			_, dest := newTestKey(t)

			b, err := block.NewSend(newTestHash(t), dest, amount.FromUint64(123456))
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to build a send block: %v", failed, err)
			}

			data, err := json.Marshal(b)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to marshal: %v", failed, err)
			}

			decoded, err := block.Parse(data)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to parse: %v", failed, err)
			}

			if !decoded.Equal(b) {
				t.Fatalf("\t%s\tTest 1:\tShould decode to the same canonical hash.", failed)
			}
			if decoded.Balance().Cmp(amount.FromUint64(123456)) != 0 {
				t.Fatalf("\t%s\tTest 1:\tShould decode the hex balance: got %s.", failed, decoded.Balance())
			}
			t.Logf("\t%s\tTest 1:\tShould decode the hex balance.", success)
		}

		t.Logf("\tTest 2:\tWhen the supplied hash does not match the fields.")
		{
			key, account := newTestKey(t)
			_, rep := newTestKey(t)

			b, err := block.NewState(block.SubtypeOpen, account, block.ZeroHash, rep, amount.FromUint64(10), newTestHash(t))
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to build a state block: %v", failed, err)
			}
			b, err = b.Sign(key)
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to sign: %v", failed, err)
			}

			data, err := json.Marshal(b)
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to marshal: %v", failed, err)
			}

			var fields map[string]any
			if err := json.Unmarshal(data, &fields); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to decode the wire form: %v", failed, err)
			}
			fields["hash"] = newTestHash(t).String()

			tampered, err := json.Marshal(fields)
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to re-encode: %v", failed, err)
			}

			decoded, err := block.Parse(tampered)
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould still parse: %v", failed, err)
			}

			if err := decoded.Verify(account); !errors.Is(err, block.ErrBlockIntegrity) {
				t.Fatalf("\t%s\tTest 2:\tShould fail the integrity check: got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould fail the integrity check.", success)
		}
	}
}

func Test_Intent(t *testing.T) {
	_, account := newTestKey(t)
	_, rep := newTestKey(t)
	hash := newTestHash(t)

	t.Log("Given the need to classify blocks for difficulty selection.")
	{
		t.Logf("\tTest 0:\tWhen classifying each kind.")
		{
			open, err := block.NewState(block.SubtypeOpen, account, block.ZeroHash, rep, amount.FromUint64(1), hash)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to build an open state block: %v", failed, err)
			}
			if intent := open.Intent(); !intent.IsFirst || !intent.IsReceive {
				t.Fatalf("\t%s\tTest 0:\tShould classify an open as first and receive: %+v.", failed, intent)
			}
			t.Logf("\t%s\tTest 0:\tShould classify an open as first and receive.", success)

			send, err := block.NewState(block.SubtypeSend, account, hash, rep, amount.Zero(), hash)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to build a send state block: %v", failed, err)
			}
			if intent := send.Intent(); !intent.IsSend || intent.IsFirst {
				t.Fatalf("\t%s\tTest 0:\tShould classify a send as send only: %+v.", failed, intent)
			}
			t.Logf("\t%s\tTest 0:\tShould classify a send as send only.", success)

			epoch, err := block.NewState(block.SubtypeEpoch, account, hash, rep, amount.Zero(), hash)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to build an epoch state block: %v", failed, err)
			}
			if intent := epoch.Intent(); !intent.IsEpoch {
				t.Fatalf("\t%s\tTest 0:\tShould classify an epoch block: %+v.", failed, intent)
			}
			t.Logf("\t%s\tTest 0:\tShould classify an epoch block.", success)
		}
	}
}
