package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/davrd/invoicery/auth"
	"github.com/davrd/invoicery/httpx"
	"github.com/davrd/invoicery/internal/services"
)

type ReportHandler struct {
	svc *services.ReportService
}

func NewReportHandler(svc *services.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

func reportRange(r *http.Request) services.ReportRange {
	if raw := r.URL.Query().Get("range"); raw != "" {
		return services.ReportRange(raw)
	}
	return services.RangeLast6Months
}

// Get returns the report for the requested range.
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	report, err := h.svc.Build(r.Context(), userID, reportRange(r), time.Now())
	if err != nil {
		serverError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

// ExportCSV streams the range's invoices as a CSV download.
func (h *ReportHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	rng := reportRange(r)

	filename := fmt.Sprintf("invoices-%s-%s.csv", rng, time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := h.svc.ExportCSV(r.Context(), w, userID, rng, time.Now()); err != nil {
		// Headers are already out; log and cut the stream short.
		slog.Error("csv export failed", "error", err)
	}
}
