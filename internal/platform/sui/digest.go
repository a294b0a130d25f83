package sui

import (
	"encoding/base64"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
	"golang.org/x/crypto/blake2b"
)

// transactionDataPrefix is the type-name salt hashed ahead of the BCS bytes.
const transactionDataPrefix = "TransactionData::"

// TransactionDigest computes the base58 digest of BCS-encoded TransactionData.
func TransactionDigest(txBytes []byte) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(transactionDataPrefix))
	h.Write(txBytes)
	return base58.Encode(h.Sum(nil))
}

// DigestOf decodes base64 transaction bytes and returns their digest.
func DigestOf(txBytesB64 string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(txBytesB64)
	if err != nil {
		return "", fmt.Errorf("sui: decode transaction bytes: %w", err)
	}
	return TransactionDigest(raw), nil
}
