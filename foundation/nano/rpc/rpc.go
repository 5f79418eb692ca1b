// Package rpc implements a JSON-RPC client for a remote, untrusted node.
// Only the commands the wallet engine depends on are implemented; private
// keys never travel through this package.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// The node reports ledger conflicts with exact, non-localized message
// strings. Matching them is a narrow compatibility contract with the node's
// error vocabulary, isolated here so a node version change is a one line
// fix.
const (
	msgFork        = "Fork"
	msgGapPrevious = "Gap previous block"
)

// ErrNotFound is wrapped by errors for account_info and block_info queries
// on entities the node does not know.
var ErrNotFound = errors.New("entity not found")

// =============================================================================

// Error represents an error message returned inside a node's JSON response.
type Error struct {
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("node error: %s", e.Message)
}

// Retryable reports whether the error is one of the two ledger conflict
// responses that indicate a stale local frontier.
func (e *Error) Retryable() bool {
	return e.Message == msgFork || e.Message == msgGapPrevious
}

// Unwrap maps the node's not-found vocabulary onto ErrNotFound.
func (e *Error) Unwrap() error {
	if strings.HasSuffix(strings.ToLower(e.Message), "not found") {
		return ErrNotFound
	}
	return nil
}

// =============================================================================

// Client talks to a node's HTTP JSON-RPC endpoint.
type Client struct {
	url  string
	http *http.Client
}

// New constructs a Client for the given endpoint URL.
func New(url string, options ...func(c *Client)) *Client {
	c := Client{
		url: url,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, option := range options {
		option(&c)
	}

	return &c
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(httpClient *http.Client) func(c *Client) {
	return func(c *Client) {
		c.http = httpClient
	}
}

// URL returns the endpoint this client talks to.
func (c *Client) URL() string {
	return c.url
}

// =============================================================================

// do posts the command and decodes the response into v. A JSON error field
// in the response body is returned as an *Error.
func (c *Client) do(ctx context.Context, command any, v any) error {
	body, err := json.Marshal(command)
	if err != nil {
		return fmt.Errorf("marshaling command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("constructing request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("posting command: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, raw)
	}

	// The node reports failures inside a 200 response.
	var check struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &check); err != nil {
		return fmt.Errorf("parsing response %q: %w", raw, err)
	}
	if check.Error != "" {
		return &Error{Message: check.Error}
	}

	if v == nil {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("parsing response %q: %w", raw, err)
	}

	return nil
}
