// Package gossip implements the outbound half of peer-to-peer sync: a
// small HTTP client the node coordinator uses to poll a neighbour's
// ingress server for its neighbours, its chain, and its pending
// messages.
package gossip

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Klingon-tech/klingnet-ledger/internal/wire"
	"github.com/Klingon-tech/klingnet-ledger/pkg/block"
	"github.com/Klingon-tech/klingnet-ledger/pkg/envelope"
)

// defaultTimeout bounds every outbound request so a single unreachable
// or slow peer can never stall a periodic task indefinitely.
const defaultTimeout = 5 * time.Second

// Client polls peers' ingress servers over plain HTTP.
type Client struct {
	http *http.Client
}

// New creates a Client with the given per-request timeout. A
// non-positive timeout falls back to defaultTimeout.
func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{http: &http.Client{Timeout: timeout}}
}

// get issues a GET against endpoint+path and decodes the JSON response
// body into out. A non-200 status is reported as an error so callers
// can log-and-skip the offending peer without crashing the poll loop.
func (c *Client) get(ctx context.Context, endpoint, path string, out interface{}) error {
	url := fmt.Sprintf("http://%s%s", endpoint, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("gossip: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gossip: request %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("gossip: read response from %s: %w", url, err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gossip: %s responded with status %d", url, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("gossip: decode response from %s: %w", url, err)
	}
	return nil
}

// FetchNeighbours asks endpoint for the neighbours it knows about.
func (c *Client) FetchNeighbours(ctx context.Context, endpoint string) ([]string, error) {
	var resp wire.NeighboursResponse
	if err := c.get(ctx, endpoint, "/neighbours", &resp); err != nil {
		return nil, err
	}
	return resp.Neighbours, nil
}

// FetchChain asks endpoint for its current chain.
func (c *Client) FetchChain(ctx context.Context, endpoint string) ([]block.Block, error) {
	var resp wire.ChainResponse
	if err := c.get(ctx, endpoint, "/chain", &resp); err != nil {
		return nil, err
	}
	return wire.DecodeBlocks(resp.Chain), nil
}

// FetchData asks endpoint for its pending, not-yet-mined messages. The
// response is an unwrapped JSON array, unlike /chain and /neighbours.
func (c *Client) FetchData(ctx context.Context, endpoint string) ([]envelope.Envelope, error) {
	var resp []wire.Envelope
	if err := c.get(ctx, endpoint, "/data", &resp); err != nil {
		return nil, err
	}
	return wire.DecodeEnvelopes(resp), nil
}
