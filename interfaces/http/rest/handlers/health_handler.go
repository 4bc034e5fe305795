package handlers

import (
	"net/http"

	"github.com/engmung/portfolio-Nat/pkg/common"
)

// Readiness reports whether a graph has been published
type Readiness interface {
	Ready() bool
}

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	readiness Readiness
	details   func() map[string]string
}

// NewHealthHandler creates a health handler. details is optional.
func NewHealthHandler(readiness Readiness, details func() map[string]string) *HealthHandler {
	return &HealthHandler{readiness: readiness, details: details}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{"status": "healthy"}
	if h.details != nil {
		body["components"] = h.details()
	}
	common.RespondJSON(w, http.StatusOK, body)
}

// Ready handles GET /ready. It stays 503 until the first snapshot is published.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if !h.readiness.Ready() {
		common.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
