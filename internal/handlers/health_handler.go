package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"
	"todo/internal/response"
)

type pinger interface {
	PingContext(ctx context.Context) error
}

type HealthStatus struct {
	DB    string `json:"db"`
	Error string `json:"error,omitempty"`
}

type HealthHandler struct {
	db      pinger
	timeout time.Duration
}

func NewHealthHandler(db pinger) *HealthHandler {
	return &HealthHandler{db: db, timeout: 2 * time.Second}
}

// @Tags Health
// @Summary Liveness and database reachability
// @Produce json
// @Success 200 {object} response.Envelope{data=HealthStatus}
// @Failure 503 {object} response.Envelope{data=HealthStatus}
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("database ping failed")
		response.JSON(w, http.StatusServiceUnavailable, "Service unavailable", HealthStatus{DB: "down", Error: err.Error()})
		return
	}
	response.JSON(w, http.StatusOK, "OK", HealthStatus{DB: "ok"})
}
