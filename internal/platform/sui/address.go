package sui

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// addressLen is the byte length of a Sui address or object id.
const addressLen = 32

// NormalizeAddress returns the canonical form of a Sui address or object id:
// lower-case, 0x-prefixed, left-padded to 64 hex digits.
func NormalizeAddress(s string) (string, error) {
	raw := strings.ToLower(strings.TrimSpace(s))
	raw = strings.TrimPrefix(raw, "0x")
	if raw == "" || len(raw) > addressLen*2 {
		return "", fmt.Errorf("sui: invalid address %q", s)
	}
	if len(raw)%2 == 1 {
		raw = "0" + raw
	}
	b, err := hexutil.Decode("0x" + raw)
	if err != nil {
		return "", fmt.Errorf("sui: invalid address %q: %w", s, err)
	}
	padded := make([]byte, addressLen)
	copy(padded[addressLen-len(b):], b)
	return hexutil.Encode(padded), nil
}

// MustNormalizeAddress is NormalizeAddress for compile-time constants.
func MustNormalizeAddress(s string) string {
	a, err := NormalizeAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// IsAddress reports whether s parses as an address.
func IsAddress(s string) bool {
	_, err := NormalizeAddress(s)
	return err == nil
}
