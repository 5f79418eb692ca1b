// Package websock implements a client for a node's websocket API, used to
// stream block confirmations for a set of accounts.
package websock

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gonano/wallet/foundation/nano/address"
	"github.com/gonano/wallet/foundation/nano/amount"
	"github.com/gonano/wallet/foundation/nano/block"
	"github.com/gorilla/websocket"
)

// Confirmation is a single confirmed block notification.
type Confirmation struct {
	Account address.Address `json:"account"`
	Amount  amount.Amount   `json:"amount"`
	Hash    block.Hash      `json:"hash"`
	Block   struct {
		Subtype       string `json:"subtype"`
		LinkAsAccount string `json:"link_as_account"`
	} `json:"block"`
}

// SendTo reports whether the confirmation is a send destined for the given
// account.
func (c Confirmation) SendTo(account address.Address) bool {
	return c.Block.Subtype == "send" && c.Block.LinkAsAccount == account.String()
}

// =============================================================================

// Client is a subscription to a node's websocket endpoint.
type Client struct {
	conn *websocket.Conn
}

// Dial connects to the node's websocket endpoint.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}

	return &Client{conn: conn}, nil
}

// SubscribeConfirmations registers for confirmation events filtered to the
// given accounts.
func (c *Client) SubscribeConfirmations(accounts []address.Address) error {
	filtered := make([]string, len(accounts))
	for i, account := range accounts {
		filtered[i] = account.String()
	}

	sub := struct {
		Action  string `json:"action"`
		Topic   string `json:"topic"`
		Options struct {
			Accounts []string `json:"accounts"`
		} `json:"options"`
	}{
		Action: "subscribe",
		Topic:  "confirmation",
	}
	sub.Options.Accounts = filtered

	if err := c.conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("subscribing to confirmations: %w", err)
	}

	return nil
}

// Next blocks until the next confirmation arrives. Non-confirmation frames
// (subscription acks, keepalives) are skipped.
func (c *Client) Next() (Confirmation, error) {
	for {
		var frame struct {
			Topic   string          `json:"topic"`
			Message json.RawMessage `json:"message"`
		}
		if err := c.conn.ReadJSON(&frame); err != nil {
			return Confirmation{}, fmt.Errorf("reading frame: %w", err)
		}
		if frame.Topic != "confirmation" {
			continue
		}

		var conf Confirmation
		if err := json.Unmarshal(frame.Message, &conf); err != nil {
			return Confirmation{}, fmt.Errorf("parsing confirmation: %w", err)
		}

		return conf, nil
	}
}

// Close terminates the connection. Any blocked Next call returns with an
// error.
func (c *Client) Close() error {
	return c.conn.Close()
}
