package handler

import (
	"net/http"

	"github.com/sebikillmachin/SUI/internal/domain"
)

// TokenLister lists the recognised settlement assets.
type TokenLister interface {
	Tokens() []domain.Token
}

// TokenHandler serves the settlement asset list.
type TokenHandler struct {
	tokens TokenLister
}

// NewTokenHandler creates a TokenHandler.
func NewTokenHandler(tokens TokenLister) *TokenHandler {
	return &TokenHandler{tokens: tokens}
}

// ListTokens returns the settlement assets, native first.
// GET /api/tokens
func (h *TokenHandler) ListTokens(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tokens": h.tokens.Tokens()})
}
