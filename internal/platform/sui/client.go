// Package sui is the JSON-RPC client for a Sui full node plus the wire-level
// helpers (type tags, addresses, digests) the adapter needs.
package sui

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/sebikillmachin/SUI/internal/domain"
)

// Well-known chain identifiers reported by sui_getChainIdentifier.
var chainIdentifiers = map[string]string{
	"mainnet": "35834a8a",
	"testnet": "4c78adac",
}

// ChainIdentifier returns the known chain identifier for a network name.
func ChainIdentifier(network string) (string, bool) {
	id, ok := chainIdentifiers[network]
	return id, ok
}

// Client talks to a Sui full node over JSON-RPC 2.0.
type Client struct {
	rpc *rpc.Client
}

// Dial connects to the full node at url. Request timeouts belong to the HTTP
// client; the adapter adds none of its own.
func Dial(ctx context.Context, url string, timeout time.Duration) (*Client, error) {
	c, err := rpc.DialOptions(ctx, url, rpc.WithHTTPClient(&http.Client{Timeout: timeout}))
	if err != nil {
		return nil, fmt.Errorf("sui: dial %s: %w", url, err)
	}
	return &Client{rpc: c}, nil
}

// NewClient wraps an existing rpc client.
func NewClient(c *rpc.Client) *Client {
	return &Client{rpc: c}
}

// Close releases the underlying connection.
func (c *Client) Close() {
	c.rpc.Close()
}

var contentOptions = ObjectDataOptions{ShowType: true, ShowContent: true}

// GetObject fetches one object with its type and content.
func (c *Client) GetObject(ctx context.Context, id string) (ObjectResponse, error) {
	var resp ObjectResponse
	if err := c.rpc.CallContext(ctx, &resp, "sui_getObject", id, contentOptions); err != nil {
		return ObjectResponse{}, fmt.Errorf("sui: get object %s: %w", id, mapError(err))
	}
	return resp, nil
}

// MultiGetObjects fetches many objects in one round trip. The result is
// positionally aligned with ids.
func (c *Client) MultiGetObjects(ctx context.Context, ids []string) ([]ObjectResponse, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var resp []ObjectResponse
	if err := c.rpc.CallContext(ctx, &resp, "sui_multiGetObjects", ids, contentOptions); err != nil {
		return nil, fmt.Errorf("sui: multi get %d objects: %w", len(ids), mapError(err))
	}
	return resp, nil
}

// GetOwnedObjects returns the first page of objects owned by owner whose
// type matches structType exactly.
func (c *Client) GetOwnedObjects(ctx context.Context, owner, structType string) (OwnedObjectsPage, error) {
	query := OwnedObjectsQuery{
		Filter:  &ObjectFilter{StructType: structType},
		Options: &contentOptions,
	}
	var page OwnedObjectsPage
	if err := c.rpc.CallContext(ctx, &page, "suix_getOwnedObjects", owner, query, nil, nil); err != nil {
		return OwnedObjectsPage{}, fmt.Errorf("sui: owned objects of %s (%s): %w", owner, structType, mapError(err))
	}
	return page, nil
}

// ExecuteTransactionBlock submits a signed transaction.
func (c *Client) ExecuteTransactionBlock(ctx context.Context, signed SignedTransaction, opts ExecuteOptions, requestType string) (TransactionBlockResponse, error) {
	var resp TransactionBlockResponse
	err := c.rpc.CallContext(ctx, &resp, "sui_executeTransactionBlock",
		signed.TxBytes, signed.Signatures, opts, requestType)
	if err != nil {
		return TransactionBlockResponse{}, fmt.Errorf("sui: execute transaction: %w", mapError(err))
	}
	return resp, nil
}

// GetChainIdentifier returns the node's chain identifier.
func (c *Client) GetChainIdentifier(ctx context.Context) (string, error) {
	var id string
	if err := c.rpc.CallContext(ctx, &id, "sui_getChainIdentifier"); err != nil {
		return "", fmt.Errorf("sui: chain identifier: %w", mapError(err))
	}
	return id, nil
}

// mapError maps transport status codes onto domain errors.
func mapError(err error) error {
	var httpErr rpc.HTTPError
	if !errors.As(err, &httpErr) {
		return err
	}
	switch httpErr.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, httpErr.Body)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, httpErr.Body)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, httpErr.Body)
	default:
		return err
	}
}
