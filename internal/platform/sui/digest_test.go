package sui

import (
	"encoding/base64"
	"testing"

	"github.com/btcsuite/btcutil/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
)

func TestTransactionDigest(t *testing.T) {
	tx := []byte{0x00, 0x01, 0x02, 0x03}
	sum := blake2b.Sum256(append([]byte("TransactionData::"), tx...))

	got := TransactionDigest(tx)
	assert.Equal(t, base58.Encode(sum[:]), got)
	assert.Len(t, base58.Decode(got), 32)

	viaB64, err := DigestOf(base64.StdEncoding.EncodeToString(tx))
	require.NoError(t, err)
	assert.Equal(t, got, viaB64)

	_, err = DigestOf("not base64!")
	assert.Error(t, err)
}
