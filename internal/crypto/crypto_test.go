package crypto

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebikillmachin/SUI/internal/domain"
	"github.com/sebikillmachin/SUI/internal/txbuilder"
)

func TestHMACRoundTrip(t *testing.T) {
	auth := &HMACAuth{KeyID: "k1", Secret: "s3cret"}
	h := auth.HeadersAt("POST", "/sign", `{"a":1}`, 1_700_000_000)
	assert.Equal(t, "k1", h[HeaderKeyID])
	assert.Equal(t, "1700000000", h[HeaderTimestamp])

	now := time.Unix(1_700_000_010, 0)
	assert.True(t, auth.Verify("POST", "/sign", `{"a":1}`, h[HeaderTimestamp], h[HeaderSignature], now, time.Minute))
	assert.False(t, auth.Verify("POST", "/sign", `{"a":2}`, h[HeaderTimestamp], h[HeaderSignature], now, time.Minute))
	assert.False(t, auth.Verify("POST", "/sign", `{"a":1}`, h[HeaderTimestamp], h[HeaderSignature], now.Add(time.Hour), time.Minute))
	assert.NotContains(t, auth.String(), "s3cret")
}

func TestSealAndLoadSecret(t *testing.T) {
	blob, err := SealSecret("bridge-secret", "pw")
	require.NoError(t, err)

	got, err := OpenSecret(blob, "pw")
	require.NoError(t, err)
	assert.Equal(t, "bridge-secret", got)

	_, err = OpenSecret(blob, "wrong")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "secret.json")
	require.NoError(t, os.WriteFile(path, blob, 0o600))

	got, err = LoadSecret(SecretSource{Path: path, Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "bridge-secret", got)

	got, err = LoadSecret(SecretSource{Raw: " raw ", Path: path})
	require.NoError(t, err)
	assert.Equal(t, "raw", got)

	got, err = LoadSecret(SecretSource{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBridgeSignerSigns(t *testing.T) {
	auth := &HMACAuth{KeyID: "k1", Secret: "s3cret"}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		ok := auth.Verify(r.Method, r.URL.Path, string(body),
			r.Header.Get(HeaderTimestamp), r.Header.Get(HeaderSignature), time.Now(), time.Minute)
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req map[string]any
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "sui:testnet", req["chain"])
		assert.Equal(t, "0xuser", req["sender"])
		assert.EqualValues(t, 2, req["transaction"].(map[string]any)["version"])
		_, _ = w.Write([]byte(`{"bytes":"AAE=","signature":"c2ln"}`))
	}))
	defer srv.Close()

	s, err := NewBridgeSigner(srv.URL+"/sign", auth, 5*time.Second)
	require.NoError(t, err)

	tx := txbuilder.New(txbuilder.ProtocolIDs{PackageID: "0xfeed"}).Redeem("0xa", "0xb", "0x2::sui::SUI")
	tx.Sender = "0xuser"
	signed, err := s.Sign(context.Background(), tx, "sui:testnet")
	require.NoError(t, err)
	assert.Equal(t, "AAE=", signed.TxBytes)
	assert.Equal(t, []string{"c2ln"}, signed.Signatures)
}

func bridgeReturning(t *testing.T, status int, body string) *BridgeSigner {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	s, err := NewBridgeSigner(srv.URL, nil, 5*time.Second)
	require.NoError(t, err)
	return s
}

func TestBridgeSignerErrors(t *testing.T) {
	tx := txbuilder.NewTransaction()
	ctx := context.Background()

	_, err := bridgeReturning(t, http.StatusBadRequest, `{"error":"Could not parse effects"}`).Sign(ctx, tx, "sui:testnet")
	require.ErrorIs(t, err, domain.ErrSigningFailed)
	assert.Contains(t, err.Error(), "Could not parse effects")

	_, err = bridgeReturning(t, http.StatusForbidden, "nope").Sign(ctx, tx, "sui:testnet")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = bridgeReturning(t, http.StatusOK, `{"bytes":""}`).Sign(ctx, tx, "sui:testnet")
	assert.ErrorIs(t, err, domain.ErrSigningFailed)
}

func TestNewBridgeSignerRejectsBadEndpoint(t *testing.T) {
	_, err := NewBridgeSigner("not a url", nil, time.Second)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
