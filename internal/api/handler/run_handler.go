package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apimw "github.com/replyforge/email-responder/internal/api/middleware"
	"github.com/replyforge/email-responder/internal/domain"
	"github.com/replyforge/email-responder/internal/service"
)

// RunHandler handles the trigger and status endpoints.
type RunHandler struct {
	svc    *service.RunService
	logger *zap.Logger
}

func NewRunHandler(svc *service.RunService, logger *zap.Logger) *RunHandler {
	return &RunHandler{svc: svc, logger: logger}
}

// Trigger handles POST /api/v1/runs
//
// @Summary  Fetch the inbound batch and start processing it
// @Tags     runs
// @Produce  json
// @Param    test  query     bool  false  "Run in test mode"
// @Success  202   {object}  map[string]string
// @Router   /api/v1/runs [post]
func (h *RunHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	testMode := false
	if v := r.URL.Query().Get("test"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			testMode = b
		}
	}

	runID, err := h.svc.Trigger(r.Context(), testMode)
	if err != nil {
		h.logger.Error("trigger run failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{"run_id": runID})
}

// Status handles GET /api/v1/runs/{id}
//
// A run id the registry has no record of is a valid query: it is reported
// with state "unknown" rather than a 404, so pollers can start before the
// trigger response arrives.
//
// @Summary  Get the status of a processing run
// @Tags     runs
// @Produce  json
// @Param    id   path      string  true  "Run UUID"
// @Success  200  {object}  domain.Run
// @Router   /api/v1/runs/{id} [get]
func (h *RunHandler) Status(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := h.svc.Status(r.Context(), id)
	if errors.Is(err, domain.ErrRunNotFound) {
		respondJSON(w, http.StatusOK, map[string]string{
			"run_id": id,
			"state":  string(domain.RunStateUnknown),
		})
		return
	}
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, run)
}
