package handler

import (
	"log/slog"
	"net/http"
	"time"
)

// NetworkStatus reports the chain submissions target and whether the node
// passed the network check.
type NetworkStatus interface {
	ExpectedChain() string
	SubmissionEnabled() bool
}

// HealthHandler serves the health-check endpoint.
type HealthHandler struct {
	network NetworkStatus
	logger  *slog.Logger
}

// NewHealthHandler creates a HealthHandler with the provided logger.
func NewHealthHandler(network NetworkStatus, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{network: network, logger: logHandler(logger, "health")}
}

// HealthCheck responds with a simple JSON status indicating the server is alive.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if h.network != nil {
		body["chain"] = h.network.ExpectedChain()
		body["submission_enabled"] = h.network.SubmissionEnabled()
	}
	writeJSON(w, http.StatusOK, body)
}
