package handler

import (
	"net/http"

	"github.com/replyforge/email-responder/internal/service"
)

// MetricsHandler serves a human-readable JSON run snapshot.
// Raw Prometheus metrics (counters, histograms) are available at /metrics
// via promhttp.Handler and are separate from this endpoint.
type MetricsHandler struct {
	svc *service.RunService
}

func NewMetricsHandler(svc *service.RunService) *MetricsHandler {
	return &MetricsHandler{svc: svc}
}

// GetMetrics handles GET /api/v1/metrics
//
// @Summary  Run-state snapshot
// @Tags     metrics
// @Produce  json
// @Success  200  {object}  map[string]any
// @Router   /api/v1/metrics [get]
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	running, completed, failed, err := h.svc.Counts(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to count runs")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"runs": map[string]int{
			"running":   running,
			"completed": completed,
			"failed":    failed,
			"total":     running + completed + failed,
		},
	})
}
