package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"

	"github.com/sebikillmachin/SUI/internal/service"
	"github.com/sebikillmachin/SUI/internal/txbuilder"
)

// IntentBuilder turns an intent into a transaction payload.
type IntentBuilder interface {
	Build(ctx context.Context, action service.Action, in service.Intent) (*txbuilder.Transaction, error)
}

// Executor signs and submits a transaction.
type Executor interface {
	Execute(ctx context.Context, owner, chain string, tx *txbuilder.Transaction) (service.Submission, error)
}

// TxHandler builds and submits protocol transactions.
type TxHandler struct {
	intents  IntentBuilder
	executor Executor
	logger   *slog.Logger
}

// NewTxHandler creates a TxHandler. A nil executor disables submission.
func NewTxHandler(intents IntentBuilder, executor Executor, logger *slog.Logger) *TxHandler {
	return &TxHandler{intents: intents, executor: executor, logger: logHandler(logger, "tx")}
}

// txRequest is an intent plus the chain the caller believes it is on.
type txRequest struct {
	service.Intent
	Chain string `json:"chain,omitempty"`
}

type buildResponse struct {
	Action      service.Action         `json:"action"`
	Transaction *txbuilder.Transaction `json:"transaction"`
}

type errorResponse struct {
	Error string `json:"error"`
	Retry bool   `json:"retry,omitempty"`
}

// Build returns the wallet payload for an action without submitting it.
// POST /api/tx/{action}
func (h *TxHandler) Build(w http.ResponseWriter, r *http.Request) {
	action, req, ok := h.parse(w, r)
	if !ok {
		return
	}
	tx, err := h.intents.Build(r.Context(), action, req.Intent)
	if err != nil {
		h.logger.InfoContext(r.Context(), "handler: build rejected",
			slog.String("action", string(action)),
			slog.String("error", err.Error()),
		)
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, buildResponse{Action: action, Transaction: tx})
}

// Execute builds, signs and submits an action for the intent's owner.
// POST /api/tx/{action}/execute
func (h *TxHandler) Execute(w http.ResponseWriter, r *http.Request) {
	if h.executor == nil {
		writeError(w, http.StatusServiceUnavailable, "submission is not configured")
		return
	}
	action, req, ok := h.parse(w, r)
	if !ok {
		return
	}
	if req.Owner == "" {
		writeError(w, http.StatusBadRequest, "owner is required to submit")
		return
	}
	tx, err := h.intents.Build(r.Context(), action, req.Intent)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	sub, err := h.executor.Execute(r.Context(), req.Owner, req.Chain, tx)
	if err != nil {
		resp := errorResponse{Error: service.UserMessage(err)}
		var se *service.SubmissionError
		if errors.As(err, &se) {
			resp.Retry = se.Retry
		}
		writeJSON(w, statusFor(err), resp)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *TxHandler) parse(w http.ResponseWriter, r *http.Request) (service.Action, txRequest, bool) {
	action := service.Action(pathParam(r, "action"))
	if !slices.Contains(service.Actions, action) {
		writeError(w, http.StatusNotFound, "unknown action")
		return "", txRequest{}, false
	}
	var req txRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return "", txRequest{}, false
	}
	return action, req, true
}
