// Package coin maps settlement-asset type tags to display metadata and
// converts between display amounts and on-chain smallest units.
package coin

import (
	"strings"

	"github.com/sebikillmachin/SUI/internal/domain"
	"github.com/sebikillmachin/SUI/internal/platform/sui"
)

// NativeType is the type tag of the network's native asset.
const NativeType = "0x2::sui::SUI"

// Native is the metadata returned for unknown asset identifiers.
var Native = domain.Token{Type: NativeType, Symbol: "SUI", Decimals: 9}

// Registry is an immutable lookup table of recognised settlement assets.
// Lookups compare normalised type tags, so "0x2::sui::SUI" and the
// full-length address form reported by the node resolve to the same entry.
type Registry struct {
	tokens []domain.Token
	byType map[string]domain.Token
}

// NewRegistry builds a Registry. The native asset is always present and
// always first; duplicate types keep their first occurrence.
func NewRegistry(tokens []domain.Token) *Registry {
	r := &Registry{byType: make(map[string]domain.Token, len(tokens)+1)}
	r.add(Native)
	for _, t := range tokens {
		r.add(t)
	}
	return r
}

func (r *Registry) add(t domain.Token) {
	t.Type = strings.TrimSpace(t.Type)
	if t.Type == "" {
		return
	}
	key := canonical(t.Type)
	if _, dup := r.byType[key]; dup {
		return
	}
	r.byType[key] = t
	r.tokens = append(r.tokens, t)
}

// Lookup returns the metadata for typeTag. Unknown identifiers fall back to
// the native asset.
func (r *Registry) Lookup(typeTag string) domain.Token {
	if t, ok := r.byType[canonical(typeTag)]; ok {
		return t
	}
	return Native
}

// Known reports whether typeTag is a configured settlement asset.
func (r *Registry) Known(typeTag string) bool {
	_, ok := r.byType[canonical(typeTag)]
	return ok
}

// Symbol returns the display symbol for typeTag.
func (r *Registry) Symbol(typeTag string) string { return r.Lookup(typeTag).Symbol }

// Decimals returns the decimal precision for typeTag.
func (r *Registry) Decimals(typeTag string) int32 { return r.Lookup(typeTag).Decimals }

// Tokens returns the configured assets in registration order.
func (r *Registry) Tokens() []domain.Token {
	out := make([]domain.Token, len(r.tokens))
	copy(out, r.tokens)
	return out
}

func canonical(typeTag string) string {
	tag, err := sui.ParseTypeTag(typeTag)
	if err != nil {
		return strings.TrimSpace(typeTag)
	}
	return tag.Canonical()
}
