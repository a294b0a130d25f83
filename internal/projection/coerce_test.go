package projection

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func bag(t *testing.T, s string) fields {
	t.Helper()
	var f fields
	if err := json.Unmarshal([]byte(s), &f); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return f
}

func TestFieldCoercion(t *testing.T) {
	f := bag(t, `{
		"a": "18446744073709551615",
		"b": 42,
		"c": "-1",
		"d": "abc",
		"e": null,
		"bal1": {"type":"0x2::balance::Balance<0x2::sui::SUI>","fields":{"value":"700"}},
		"bal2": {"value": 300},
		"bal3": "9",
		"bal4": {"fields": 1},
		"t": true,
		"ts": "true",
		"tn": 1,
		"q": "Will it rain?",
		"uid": {"id": "0xabc"},
		"nested": {"id": {"id": "0xdef"}},
		"ms": "1700000000000",
		"list": ["0x1", {"id":"0x2"}, 7, "0x3"]
	}`)

	assert.Equal(t, uint64(18446744073709551615), f.u64("a"))
	assert.Equal(t, uint64(42), f.u64("b"))
	assert.Zero(t, f.u64("c"))
	assert.Zero(t, f.u64("d"))
	assert.Zero(t, f.u64("e"))
	assert.Zero(t, f.u64("missing"))

	assert.Equal(t, uint64(700), f.balance("bal1"))
	assert.Equal(t, uint64(300), f.balance("bal2"))
	assert.Equal(t, uint64(9), f.balance("bal3"))
	assert.Zero(t, f.balance("bal4"))
	assert.Zero(t, f.balance("missing"))

	assert.True(t, f.boolean("t"))
	assert.True(t, f.boolean("ts"))
	assert.False(t, f.boolean("tn"))
	assert.False(t, f.boolean("missing"))

	assert.Equal(t, "Will it rain?", f.str("q"))
	assert.Empty(t, f.str("b"))

	assert.Equal(t, "0xabc", f.id("uid"))
	assert.Equal(t, "0xdef", f.id("nested"))
	assert.Empty(t, f.str("uid"))

	assert.Equal(t, time.UnixMilli(1_700_000_000_000).UTC(), f.millis("ms"))
	assert.True(t, f.millis("missing").IsZero())

	assert.Equal(t, []string{"0x1", "0x2", "0x3"}, f.idList("list"))
	assert.Nil(t, f.idList("q"))
}
