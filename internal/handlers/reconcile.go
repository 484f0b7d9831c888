package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"attendance-backend/internal/services"
)

type ReconcileHandler struct {
	reconcile *services.ReconcileService
}

func NewReconcileHandler(reconcile *services.ReconcileService) *ReconcileHandler {
	return &ReconcileHandler{reconcile: reconcile}
}

// Run triggers an ad hoc reconcile pass for one tenant. The same pass the
// cron scheduler runs; the lock keeps the two from overlapping.
func (h *ReconcileHandler) Run(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")

	report, err := h.reconcile.Run(r.Context(), tenantID)
	if errors.Is(err, services.ErrReconcileRunning) {
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "Reconcile is already running for this tenant", r))
		return
	}
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"report": report,
	})
}
