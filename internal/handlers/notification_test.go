package handlers

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/davrd/invoicery/internal/models"
	"github.com/davrd/invoicery/internal/services"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newNotificationHandler(db *gorm.DB) *NotificationHandler {
	return NewNotificationHandler(services.NewNotificationService(db, nil))
}

func seedNotification(t *testing.T, db *gorm.DB, userID uint, title string) models.Notification {
	t.Helper()
	n := models.Notification{UserID: userID, Kind: models.NotificationKindGeneric, Title: title}
	if err := db.Create(&n).Error; err != nil {
		t.Fatalf("seed notification: %v", err)
	}
	return n
}

func TestNotificationListWithUnreadCount(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "a@test")
	other := seedUser(t, db, "b@test")
	seedNotification(t, db, user.ID, "one")
	seedNotification(t, db, user.ID, "two")
	seedNotification(t, db, other.ID, "not yours")
	h := newNotificationHandler(db)

	rec := httptest.NewRecorder()
	h.List(rec, request(t, user.ID, http.MethodGet, "/notifications", nil, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var payload struct {
		Notifications []models.Notification `json:"notifications"`
		UnreadCount   int64                 `json:"unread_count"`
	}
	decodeBody(t, rec, &payload)
	if len(payload.Notifications) != 2 {
		t.Fatalf("notifications = %d, want 2", len(payload.Notifications))
	}
	if payload.UnreadCount != 2 {
		t.Fatalf("unread = %d, want 2", payload.UnreadCount)
	}
}

func TestNotificationMarkRead(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "a@test")
	intruder := seedUser(t, db, "b@test")
	n := seedNotification(t, db, user.ID, "hello")
	h := newNotificationHandler(db)
	idStr := strconv.FormatUint(uint64(n.ID), 10)

	rec := httptest.NewRecorder()
	h.MarkRead(rec, request(t, intruder.ID, http.MethodPut, "/notifications/"+idStr+"/read",
		nil, map[string]string{"id": idStr}))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("cross-user mark read status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.MarkRead(rec, request(t, user.ID, http.MethodPut, "/notifications/"+idStr+"/read",
		nil, map[string]string{"id": idStr}))
	if rec.Code != http.StatusOK {
		t.Fatalf("mark read status = %d", rec.Code)
	}
	var got models.Notification
	decodeBody(t, rec, &got)
	if !got.Read {
		t.Fatal("notification not read")
	}
}

func TestNotificationSweep(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "a@test")
	company := seedCompany(t, db, user.ID, "Acme")
	due := time.Now().AddDate(0, 0, -1)
	inv := models.Invoice{
		UserID:        user.ID,
		CompanyID:     company.ID,
		InvoiceNumber: "INV-2025-0001",
		IssuedDate:    due.AddDate(0, 0, -14),
		DueDate:       &due,
		Status:        models.InvoiceStatusSent,
		TotalAmount:   decimal.NewFromInt(100),
	}
	if err := db.Create(&inv).Error; err != nil {
		t.Fatalf("seed invoice: %v", err)
	}
	h := newNotificationHandler(db)

	rec := httptest.NewRecorder()
	h.Sweep(rec, request(t, user.ID, http.MethodPost, "/notifications/sweep", nil, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("sweep status = %d, body %s", rec.Code, rec.Body.String())
	}
	var result map[string]int
	decodeBody(t, rec, &result)
	if result["created"] != 1 {
		t.Fatalf("created = %d, want 1", result["created"])
	}

	// Same-day rerun creates nothing.
	rec = httptest.NewRecorder()
	h.Sweep(rec, request(t, user.ID, http.MethodPost, "/notifications/sweep", nil, nil))
	decodeBody(t, rec, &result)
	if result["created"] != 0 {
		t.Fatalf("rerun created = %d, want 0", result["created"])
	}
}

func TestNotificationMarkAllRead(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "a@test")
	seedNotification(t, db, user.ID, "one")
	seedNotification(t, db, user.ID, "two")
	h := newNotificationHandler(db)

	rec := httptest.NewRecorder()
	h.MarkAllRead(rec, request(t, user.ID, http.MethodPut, "/notifications/read-all", nil, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var unread int64
	db.Model(&models.Notification{}).Where("user_id = ? AND read = ?", user.ID, false).Count(&unread)
	if unread != 0 {
		t.Fatalf("unread = %d, want 0", unread)
	}
}
