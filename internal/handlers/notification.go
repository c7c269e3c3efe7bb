package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/davrd/invoicery/auth"
	"github.com/davrd/invoicery/httpx"
	"github.com/davrd/invoicery/internal/services"
	"gorm.io/gorm"
)

type NotificationHandler struct {
	svc *services.NotificationService
}

func NewNotificationHandler(svc *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// List returns the newest notifications plus the unread count.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			badRequest(w, "invalid_limit")
			return
		}
		limit = n
	}

	notifications, err := h.svc.List(r.Context(), userID, limit)
	if err != nil {
		serverError(w, err)
		return
	}
	unread, err := h.svc.UnreadCount(r.Context(), userID)
	if err != nil {
		serverError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"notifications": notifications,
		"unread_count":  unread,
	})
}

// MarkRead flags one notification as read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid_id")
		return
	}
	n, err := h.svc.MarkRead(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			notFound(w)
			return
		}
		serverError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, n)
}

// MarkAllRead flags everything unread as read.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	if err := h.svc.MarkAllRead(r.Context(), userID); err != nil {
		serverError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Sweep runs the reminder sweep for the caller and reports how many
// notifications it created.
func (h *NotificationHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	created, err := h.svc.SweepReminders(r.Context(), userID, time.Now())
	if err != nil {
		serverError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"created": created})
}
