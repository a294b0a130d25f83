// Package crypto holds the request authentication and secret-at-rest helpers
// used to talk to the external signing bridge.
package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"
)

// Signing bridge auth headers.
const (
	HeaderKeyID     = "X-Signer-Key"
	HeaderTimestamp = "X-Signer-Timestamp"
	HeaderSignature = "X-Signer-Signature"
)

// HMACAuth signs requests with HMAC-SHA256 over timestamp+method+path+body.
type HMACAuth struct {
	KeyID  string
	Secret string
}

// Headers returns the auth headers for a request sent now.
func (h *HMACAuth) Headers(method, path, body string) map[string]string {
	return h.HeadersAt(method, path, body, time.Now().Unix())
}

// HeadersAt is Headers with a caller-supplied Unix timestamp.
func (h *HMACAuth) HeadersAt(method, path, body string, unixTS int64) map[string]string {
	ts := strconv.FormatInt(unixTS, 10)
	return map[string]string{
		HeaderKeyID:     h.KeyID,
		HeaderTimestamp: ts,
		HeaderSignature: hmacSHA256Base64([]byte(h.Secret), ts+method+path+body),
	}
}

// Verify checks a signature produced by HeadersAt, rejecting timestamps more
// than maxSkew away from now.
func (h *HMACAuth) Verify(method, path, body, ts, signature string, now time.Time, maxSkew time.Duration) bool {
	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}
	skew := now.Sub(time.Unix(unix, 0))
	if skew < -maxSkew || skew > maxSkew {
		return false
	}
	want := hmacSHA256Base64([]byte(h.Secret), ts+method+path+body)
	return hmac.Equal([]byte(want), []byte(signature))
}

// hmacSHA256Base64 computes HMAC-SHA256 of message using key and returns it
// base64 standard-encoded.
func hmacSHA256Base64(key []byte, message string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// String returns a redacted representation suitable for logging.
func (h *HMACAuth) String() string {
	redact := func(s string) string {
		if len(s) <= 4 {
			return "****"
		}
		return s[:4] + "****"
	}
	return fmt.Sprintf("HMACAuth{key=%s, secret=%s}", redact(h.KeyID), redact(h.Secret))
}
