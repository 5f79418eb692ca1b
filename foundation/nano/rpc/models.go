package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/gonano/wallet/foundation/nano/address"
	"github.com/gonano/wallet/foundation/nano/amount"
	"github.com/gonano/wallet/foundation/nano/block"
)

// AccountInfo is the node's view of an account head.
type AccountInfo struct {
	Frontier       block.Hash      `json:"frontier"`
	Balance        amount.Amount   `json:"balance"`
	Representative address.Address `json:"representative"`
	BlockCount     uint64          `json:"block_count,string"`
}

// AccountInfo fetches the current frontier, balance and representative of
// an account. An unopened account yields an error wrapping ErrNotFound.
func (c *Client) AccountInfo(ctx context.Context, account address.Address) (AccountInfo, error) {
	cmd := struct {
		Action         string `json:"action"`
		Account        string `json:"account"`
		Representative string `json:"representative"`
	}{
		Action:         "account_info",
		Account:        account.String(),
		Representative: "true",
	}

	var info AccountInfo
	if err := c.do(ctx, cmd, &info); err != nil {
		return AccountInfo{}, fmt.Errorf("account_info[%s]: %w", account, err)
	}

	return info, nil
}

// =============================================================================

// ProcessBlock submits a constructed block to the node for acceptance into
// the ledger and returns the hash the node reports back.
func (c *Client) ProcessBlock(ctx context.Context, b block.Block) (block.Hash, error) {
	cmd := struct {
		Action    string      `json:"action"`
		JSONBlock string      `json:"json_block"`
		Subtype   string      `json:"subtype,omitempty"`
		Block     block.Block `json:"block"`
	}{
		Action:    "process",
		JSONBlock: "true",
		Subtype:   string(b.StateSubtype()),
		Block:     b,
	}

	var resp struct {
		Hash block.Hash `json:"hash"`
	}
	if err := c.do(ctx, cmd, &resp); err != nil {
		return block.Hash{}, fmt.Errorf("process[%s]: %w", b.Hash(), err)
	}

	return resp.Hash, nil
}

// =============================================================================

// BlockInfo describes a single block known to the node. For send blocks the
// amount is the value being transferred.
type BlockInfo struct {
	BlockAccount address.Address `json:"block_account"`
	Amount       amount.Amount   `json:"amount"`
	Subtype      string          `json:"subtype"`
	Confirmed    string          `json:"confirmed"`
}

// BlockInfo fetches details of a block by hash, typically used to resolve a
// pending send's amount and source. Unknown blocks yield an error wrapping
// ErrNotFound.
func (c *Client) BlockInfo(ctx context.Context, hash block.Hash) (BlockInfo, error) {
	cmd := struct {
		Action string `json:"action"`
		Hash   string `json:"hash"`
	}{
		Action: "block_info",
		Hash:   hash.String(),
	}

	var info BlockInfo
	if err := c.do(ctx, cmd, &info); err != nil {
		return BlockInfo{}, fmt.Errorf("block_info[%s]: %w", hash, err)
	}

	return info, nil
}

// =============================================================================

// PendingBlock is one unreceived send destined for an account.
type PendingBlock struct {
	Hash   block.Hash
	Amount amount.Amount
}

// Pending fetches up to count unreceived sends for an account with an amount
// at or above the threshold, preserving the node's ordering.
func (c *Client) Pending(ctx context.Context, account address.Address, count int, threshold amount.Amount) ([]PendingBlock, error) {
	cmd := struct {
		Action    string `json:"action"`
		Account   string `json:"account"`
		Count     string `json:"count"`
		Threshold string `json:"threshold"`
		Sorting   string `json:"sorting"`
	}{
		Action:    "pending",
		Account:   account.String(),
		Count:     fmt.Sprintf("%d", count),
		Threshold: threshold.String(),
		Sorting:   "true",
	}

	var resp struct {
		Blocks json.RawMessage `json:"blocks"`
	}
	if err := c.do(ctx, cmd, &resp); err != nil {
		return nil, fmt.Errorf("pending[%s]: %w", account, err)
	}

	pending, err := decodePendingBlocks(resp.Blocks)
	if err != nil {
		return nil, fmt.Errorf("pending[%s]: %w", account, err)
	}

	return pending, nil
}

// decodePendingBlocks parses the blocks object while preserving key order,
// which encoding/json maps would lose. An empty pending set arrives as the
// string "" rather than an object.
func decodePendingBlocks(raw json.RawMessage) ([]PendingBlock, error) {
	if len(raw) == 0 || string(raw) == `""` {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parsing blocks: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("parsing blocks: expected object, got %v", tok)
	}

	var pending []PendingBlock
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parsing blocks: %w", err)
		}

		hash, err := block.ParseHash(keyTok.(string))
		if err != nil {
			return nil, err
		}

		var amt amount.Amount
		if err := dec.Decode(&amt); err != nil {
			return nil, fmt.Errorf("parsing amount for %s: %w", hash, err)
		}

		pending = append(pending, PendingBlock{Hash: hash, Amount: amt})
	}

	return pending, nil
}

// =============================================================================

// Version reports the node's vendor and protocol versions.
type Version struct {
	NodeVendor      string `json:"node_vendor"`
	ProtocolVersion string `json:"protocol_version"`
	Network         string `json:"network"`
}

// Version queries the node's version information.
func (c *Client) Version(ctx context.Context) (Version, error) {
	cmd := struct {
		Action string `json:"action"`
	}{
		Action: "version",
	}

	var v Version
	if err := c.do(ctx, cmd, &v); err != nil {
		return Version{}, fmt.Errorf("version: %w", err)
	}

	return v, nil
}
