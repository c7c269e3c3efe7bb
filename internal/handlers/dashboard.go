package handlers

import (
	"net/http"
	"time"

	"github.com/davrd/invoicery/auth"
	"github.com/davrd/invoicery/httpx"
	"github.com/davrd/invoicery/internal/services"
)

type DashboardHandler struct {
	svc *services.DashboardService
}

func NewDashboardHandler(svc *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// Stats returns the full dashboard payload for the caller.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	stats, err := h.svc.Stats(r.Context(), userID, time.Now())
	if err != nil {
		serverError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}
