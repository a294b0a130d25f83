package crypto

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sebikillmachin/SUI/internal/domain"
	"github.com/sebikillmachin/SUI/internal/platform/sui"
	"github.com/sebikillmachin/SUI/internal/txbuilder"
)

// maxBridgeResponse caps how much of a bridge response is read.
const maxBridgeResponse = 1 << 20

// BridgeSigner delegates signing to an external wallet bridge over HTTP. The
// bridge receives the unsigned transaction in wallet JSON form and answers
// with the BCS bytes it signed and the serialized signature.
type BridgeSigner struct {
	endpoint string
	path     string
	auth     *HMACAuth
	client   *http.Client
}

// NewBridgeSigner creates a BridgeSigner posting to endpoint. auth may be
// nil for an unauthenticated local bridge.
func NewBridgeSigner(endpoint string, auth *HMACAuth, timeout time.Duration) (*BridgeSigner, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("signer_bridge: invalid endpoint %q: %w", endpoint, domain.ErrConfiguration)
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if auth != nil && auth.Secret == "" {
		auth = nil
	}
	return &BridgeSigner{
		endpoint: endpoint,
		path:     path,
		auth:     auth,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

type signRequest struct {
	Chain       string                 `json:"chain"`
	Sender      string                 `json:"sender,omitempty"`
	Transaction *txbuilder.Transaction `json:"transaction"`
}

type signResponse struct {
	Bytes      string   `json:"bytes"`
	Signature  string   `json:"signature"`
	Signatures []string `json:"signatures"`
	Error      string   `json:"error"`
}

// Sign asks the bridge to sign tx for chain.
func (s *BridgeSigner) Sign(ctx context.Context, tx *txbuilder.Transaction, chain string) (sui.SignedTransaction, error) {
	body, err := json.Marshal(signRequest{Chain: chain, Sender: tx.Sender, Transaction: tx})
	if err != nil {
		return sui.SignedTransaction{}, fmt.Errorf("signer_bridge: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return sui.SignedTransaction{}, fmt.Errorf("signer_bridge: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.auth != nil {
		for k, v := range s.auth.Headers(http.MethodPost, s.path, string(body)) {
			req.Header.Set(k, v)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return sui.SignedTransaction{}, fmt.Errorf("signer_bridge: send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBridgeResponse))
	if err != nil {
		return sui.SignedTransaction{}, fmt.Errorf("signer_bridge: read response: %w", err)
	}
	var out signResponse
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := out.Error
		if decodeErr != nil || msg == "" {
			msg = string(raw)
		}
		sentinel := domain.ErrSigningFailed
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			sentinel = domain.ErrUnauthorized
		case http.StatusTooManyRequests:
			sentinel = domain.ErrRateLimited
		}
		return sui.SignedTransaction{}, fmt.Errorf("signer_bridge: status %d: %s: %w", resp.StatusCode, msg, sentinel)
	}
	if decodeErr != nil {
		return sui.SignedTransaction{}, fmt.Errorf("signer_bridge: decode response: %w", decodeErr)
	}

	signed := sui.SignedTransaction{TxBytes: out.Bytes, Signatures: out.Signatures}
	if out.Signature != "" {
		signed.Signatures = append([]string{out.Signature}, signed.Signatures...)
	}
	if signed.TxBytes == "" || len(signed.Signatures) == 0 {
		return sui.SignedTransaction{}, fmt.Errorf("signer_bridge: response without bytes or signature: %w", domain.ErrSigningFailed)
	}
	return signed, nil
}
