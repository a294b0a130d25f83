package sui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTypeTag(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"u64", "u64"},
		{"vector<u8>", "vector<u8>"},
		{"0x2::sui::SUI", "0x2::sui::SUI"},
		{"0xabc::market::Market<0x2::sui::SUI>", "0xabc::market::Market<0x2::sui::SUI>"},
		{"0x1::m::Pair< u64 ,vector<0x2::coin::Coin<0x2::sui::SUI>> >", "0x1::m::Pair<u64, vector<0x2::coin::Coin<0x2::sui::SUI>>>"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			tag, err := ParseTypeTag(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, tag.String())
		})
	}
}

func TestParseTypeTagRejects(t *testing.T) {
	for _, in := range []string{
		"",
		"u63",
		"0x::m::T",
		"0x2::sui",
		"0x2::sui::SUI<",
		"0x2::sui::SUI<u8,>",
		"0x2::sui::SUI extra",
		"vector<u8",
		"0x2::9bad::T",
	} {
		_, err := ParseTypeTag(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestCanonicalNormalisesAddresses(t *testing.T) {
	tag, err := ParseTypeTag("0x2::coin::Coin<0xABC::usdc::USDC>")
	require.NoError(t, err)
	assert.Equal(t,
		"0x0000000000000000000000000000000000000000000000000000000000000002::coin::Coin<"+
			"0x0000000000000000000000000000000000000000000000000000000000000abc::usdc::USDC>",
		tag.Canonical())
}

func TestSettlementAsset(t *testing.T) {
	asset, err := SettlementAsset("0xpkg::market::Market<0x2::sui::SUI>")
	require.Error(t, err, "0xpkg is not hex")
	assert.Empty(t, asset)

	asset, err = SettlementAsset("0xfeed::market::Market<0xbeef::usdc::USDC>")
	require.NoError(t, err)
	assert.Equal(t, "0xbeef::usdc::USDC", asset)

	_, err = SettlementAsset("0xfeed::market::Market")
	assert.Error(t, err)

	_, err = SettlementAsset("0xfeed::market::Pair<u8, u8>")
	assert.Error(t, err)
}

func TestStructType(t *testing.T) {
	assert.Equal(t, "0xfeed::orders::LimitOrder<0x2::sui::SUI>",
		StructType("0xfeed", "orders", "LimitOrder", "0x2::sui::SUI"))
}
