package block

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/gonano/wallet/foundation/nano/address"
	"github.com/gonano/wallet/foundation/nano/amount"
)

// jsonBlock is the node wire representation of a block. Legacy send blocks
// carry their balance as 32 hex characters while state blocks use a decimal
// string, so both balance fields stay raw strings here.
type jsonBlock struct {
	Type           string `json:"type"`
	Hash           string `json:"hash,omitempty"`
	Account        string `json:"account,omitempty"`
	Previous       string `json:"previous,omitempty"`
	Source         string `json:"source,omitempty"`
	Destination    string `json:"destination,omitempty"`
	Representative string `json:"representative,omitempty"`
	Balance        string `json:"balance,omitempty"`
	Link           string `json:"link,omitempty"`
	Signature      string `json:"signature"`
	Work           string `json:"work"`
}

// emptyHex values stand in for absent signature and work fields on the wire.
var (
	emptyHexSignature = strings.Repeat("0", 2*SignatureSize)
	emptyHexWork      = strings.Repeat("0", 2*WorkSize)
)

// MarshalJSON implements the json.Marshaler interface, producing the node
// wire format for the block's kind.
func (b Block) MarshalJSON() ([]byte, error) {
	jb := jsonBlock{
		Type:      string(b.kind),
		Signature: emptyHexSignature,
		Work:      emptyHexWork,
	}
	if b.signature != nil {
		jb.Signature = b.signature.String()
	}
	if b.work != nil {
		jb.Work = b.work.String()
	}

	switch b.kind {
	case KindOpen:
		jb.Source = b.source.String()
		jb.Representative = b.representative.String()
		jb.Account = b.account.String()

	case KindSend:
		balance := b.balance.Bytes16()
		jb.Previous = b.previous.String()
		jb.Destination = b.destination.String()
		jb.Balance = strings.ToUpper(hex.EncodeToString(balance[:]))

	case KindReceive:
		jb.Previous = b.previous.String()
		jb.Source = b.source.String()

	case KindChange:
		jb.Previous = b.previous.String()
		jb.Representative = b.representative.String()

	case KindState:
		jb.Account = b.account.String()
		jb.Previous = b.previous.String()
		jb.Representative = b.representative.String()
		jb.Balance = b.balance.String()
		jb.Link = b.link.String()

	default:
		return nil, fmt.Errorf("marshaling block of unknown kind %q", b.kind)
	}

	return json.Marshal(jb)
}

// UnmarshalJSON implements the json.Unmarshaler interface. A hash supplied
// on the wire is retained and checked against the computed hash by Verify.
func (b *Block) UnmarshalJSON(data []byte) error {
	var jb jsonBlock
	if err := json.Unmarshal(data, &jb); err != nil {
		return fmt.Errorf("unmarshaling block: %w", err)
	}

	parsed, err := parseJSONBlock(jb)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// Parse decodes a block from its node wire JSON form.
func Parse(data []byte) (Block, error) {
	var b Block
	if err := json.Unmarshal(data, &b); err != nil {
		return Block{}, err
	}
	return b, nil
}

func parseJSONBlock(jb jsonBlock) (Block, error) {
	var b Block
	var err error

	switch Kind(jb.Type) {
	case KindOpen:
		source, rep, acct, perr := parseOpenFields(jb)
		if perr != nil {
			return Block{}, perr
		}
		b, err = NewOpen(source, rep, acct)

	case KindSend:
		previous, perr := ParseHash(jb.Previous)
		if perr != nil {
			return Block{}, fmt.Errorf("%w: %s", ErrInvalidField, perr)
		}
		dest, perr := address.Parse(jb.Destination)
		if perr != nil {
			return Block{}, fmt.Errorf("%w: %s", ErrInvalidField, perr)
		}
		balance, perr := parseHexBalance(jb.Balance)
		if perr != nil {
			return Block{}, perr
		}
		b, err = NewSend(previous, dest, balance)

	case KindReceive:
		previous, perr := ParseHash(jb.Previous)
		if perr != nil {
			return Block{}, fmt.Errorf("%w: %s", ErrInvalidField, perr)
		}
		source, perr := ParseHash(jb.Source)
		if perr != nil {
			return Block{}, fmt.Errorf("%w: %s", ErrInvalidField, perr)
		}
		b, err = NewReceive(previous, source)

	case KindChange:
		previous, perr := ParseHash(jb.Previous)
		if perr != nil {
			return Block{}, fmt.Errorf("%w: %s", ErrInvalidField, perr)
		}
		rep, perr := address.Parse(jb.Representative)
		if perr != nil {
			return Block{}, fmt.Errorf("%w: %s", ErrInvalidField, perr)
		}
		b, err = NewChange(previous, rep)

	case KindState:
		b, err = parseStateFields(jb)

	default:
		return Block{}, fmt.Errorf("unknown block type %q: %w", jb.Type, ErrInvalidField)
	}
	if err != nil {
		return Block{}, err
	}

	if sig, ok, perr := parseOptionalSignature(jb.Signature); perr != nil {
		return Block{}, perr
	} else if ok {
		b = b.WithSignature(sig)
	}
	if work, ok, perr := parseOptionalWork(jb.Work); perr != nil {
		return Block{}, perr
	} else if ok {
		b = b.WithWork(work)
	}

	if jb.Hash != "" {
		supplied, perr := ParseHash(jb.Hash)
		if perr != nil {
			return Block{}, fmt.Errorf("%w: %s", ErrInvalidField, perr)
		}
		b.suppliedHash = &supplied
	}

	return b, nil
}

func parseOpenFields(jb jsonBlock) (Hash, address.Address, address.Address, error) {
	source, err := ParseHash(jb.Source)
	if err != nil {
		return Hash{}, address.Address{}, address.Address{}, fmt.Errorf("%w: %s", ErrInvalidField, err)
	}
	rep, err := address.Parse(jb.Representative)
	if err != nil {
		return Hash{}, address.Address{}, address.Address{}, fmt.Errorf("%w: %s", ErrInvalidField, err)
	}
	acct, err := address.Parse(jb.Account)
	if err != nil {
		return Hash{}, address.Address{}, address.Address{}, fmt.Errorf("%w: %s", ErrInvalidField, err)
	}
	return source, rep, acct, nil
}

func parseStateFields(jb jsonBlock) (Block, error) {
	acct, err := address.Parse(jb.Account)
	if err != nil {
		return Block{}, fmt.Errorf("%w: %s", ErrInvalidField, err)
	}
	previous, err := ParseHash(jb.Previous)
	if err != nil {
		return Block{}, fmt.Errorf("%w: %s", ErrInvalidField, err)
	}
	rep, err := address.Parse(jb.Representative)
	if err != nil {
		return Block{}, fmt.Errorf("%w: %s", ErrInvalidField, err)
	}
	balance, err := amount.FromRaw(jb.Balance)
	if err != nil {
		return Block{}, fmt.Errorf("%w: %s", ErrInvalidField, err)
	}
	link, err := ParseHash(jb.Link)
	if err != nil {
		return Block{}, fmt.Errorf("%w: %s", ErrInvalidField, err)
	}

	// The subtype of a parsed state block is not recoverable from its fields
	// without the prior balance. Classify what can be inferred locally.
	subtype := SubtypeReceive
	switch {
	case previous.IsZero():
		subtype = SubtypeOpen
	case link.IsZero():
		subtype = SubtypeChange
	}

	return NewState(subtype, acct, previous, rep, balance, link)
}

// parseHexBalance decodes the 32 hex character balance field carried by
// legacy send blocks.
func parseHexBalance(s string) (amount.Amount, error) {
	var raw [16]byte
	if err := decodeHex(s, raw[:]); err != nil {
		return amount.Amount{}, fmt.Errorf("legacy balance: %w: %s", ErrInvalidField, err)
	}

	v, err := amount.FromBig(new(big.Int).SetBytes(raw[:]))
	if err != nil {
		return amount.Amount{}, fmt.Errorf("legacy balance: %w: %s", ErrInvalidField, err)
	}
	return v, nil
}

func parseOptionalSignature(s string) (Signature, bool, error) {
	if s == "" || isAllZeroHex(s) {
		return Signature{}, false, nil
	}
	sig, err := ParseSignature(s)
	if err != nil {
		return Signature{}, false, fmt.Errorf("%w: %s", ErrInvalidField, err)
	}
	return sig, true, nil
}

func parseOptionalWork(s string) (Work, bool, error) {
	if s == "" || isAllZeroHex(s) {
		return Work{}, false, nil
	}
	w, err := ParseWork(s)
	if err != nil {
		return Work{}, false, fmt.Errorf("%w: %s", ErrInvalidField, err)
	}
	return w, true, nil
}

func isAllZeroHex(s string) bool {
	for _, c := range s {
		if c != '0' {
			return false
		}
	}
	return true
}
