package txbuilder

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/fardream/go-bcs/bcs"

	"github.com/sebikillmachin/SUI/internal/domain"
)

// Pure argument encodings. Move pure values are BCS: fixed-width integers are
// little-endian, bool is one byte, and vectors carry a ULEB128 length prefix.

func encodeU64(v uint64) []byte { return mustMarshal(v) }

func encodeBool(v bool) []byte { return mustMarshal(v) }

func encodeBytes(b []byte) []byte {
	if b == nil {
		b = []byte{}
	}
	return mustMarshal(b)
}

// mustMarshal encodes the fixed set of pure types above, none of which can
// fail to encode.
func mustMarshal(v any) []byte {
	out, err := bcs.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("txbuilder: bcs encode %T: %v", v, err))
	}
	return out
}

// DecodeHexPayload decodes an optional hex string with or without a 0x
// prefix. Odd-length input gets a leading zero nibble. An empty string, or a
// bare prefix, is a zero-length payload, never nil.
func DecodeHexPayload(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	cleaned := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if cleaned == "" {
		return []byte{}, nil
	}
	if len(cleaned)%2 == 1 {
		cleaned = "0" + cleaned
	}
	b, err := hexutil.Decode("0x" + cleaned)
	if err != nil {
		return nil, fmt.Errorf("txbuilder: decode %q: %w: %v", abbreviate(s), domain.ErrInvalidHex, err)
	}
	return b, nil
}

func abbreviate(s string) string {
	if len(s) <= 18 {
		return s
	}
	return s[:18] + "..."
}
