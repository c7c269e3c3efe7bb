package services

import (
	"context"
	"fmt"
	"time"

	"github.com/davrd/invoicery/internal/models"
	"github.com/davrd/invoicery/internal/realtime"
	"github.com/davrd/invoicery/internal/reports"
	"gorm.io/gorm"
)

// NotificationService persists notifications and pushes change events to the
// realtime hub. The store is authoritative: every pushed event embeds the
// unread count recomputed from a fresh query, never a locally incremented
// counter.
type NotificationService struct {
	db  *gorm.DB
	hub *realtime.Hub
}

func NewNotificationService(db *gorm.DB, hub *realtime.Hub) *NotificationService {
	return &NotificationService{db: db, hub: hub}
}

// List returns the newest notifications for a user.
func (s *NotificationService) List(ctx context.Context, userID uint, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 10
	}
	notifications := make([]models.Notification, 0, limit)
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, fmt.Errorf("fetch notifications: %w", err)
	}
	return notifications, nil
}

// UnreadCount returns the number of unread notifications for a user.
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// Create persists the notification and publishes it to the owner's feed.
func (s *NotificationService) Create(ctx context.Context, n *models.Notification) error {
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	s.publish(ctx, n.UserID, "notification.created", n)
	return nil
}

// MarkRead flags one notification as read. Returns gorm.ErrRecordNotFound when
// the row does not exist or belongs to another user.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint) (*models.Notification, error) {
	var n models.Notification
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&n).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&n).Update("read", true).Error; err != nil {
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	n.Read = true
	s.publish(ctx, userID, "notification.read", &n)
	return &n, nil
}

// MarkAllRead flags every unread notification for the user as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) error {
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true).Error
	if err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	s.publish(ctx, userID, "notification.read", nil)
	return nil
}

func (s *NotificationService) publish(ctx context.Context, userID uint, eventType string, n *models.Notification) {
	if s.hub == nil {
		return
	}
	unread, err := s.UnreadCount(ctx, userID)
	if err != nil {
		// The event is best-effort; the client refetches on reconnect.
		return
	}
	s.hub.Publish(userID, realtime.Event{Type: eventType, Notification: n, UnreadCount: unread})
}

// SweepReminders creates due-soon and overdue notifications for a user's open
// invoices, based on date comparison only. A reminder for the same invoice and
// kind is created at most once per calendar day, so repeated sweeps are
// idempotent within a day. Returns the number of notifications created.
func (s *NotificationService) SweepReminders(ctx context.Context, userID uint, now time.Time) (int, error) {
	var open []models.Invoice
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status NOT IN ?", userID,
			[]models.InvoiceStatus{models.InvoiceStatusPaid, models.InvoiceStatusCancelled}).
		Find(&open).Error
	if err != nil {
		return 0, fmt.Errorf("fetch open invoices: %w", err)
	}

	part := reports.PartitionByDue(open, now)
	created := 0
	for _, inv := range part.Upcoming {
		n, err := s.remind(ctx, userID, inv, models.NotificationKindDueSoon, now,
			fmt.Sprintf("Invoice %s is due on %s", inv.InvoiceNumber, inv.DueDate.Format("2006-01-02")))
		if err != nil {
			return created, err
		}
		if n {
			created++
		}
	}
	for _, inv := range part.Overdue {
		n, err := s.remind(ctx, userID, inv, models.NotificationKindOverdue, now,
			fmt.Sprintf("Invoice %s is overdue", inv.InvoiceNumber))
		if err != nil {
			return created, err
		}
		if n {
			created++
		}
	}
	return created, nil
}

func (s *NotificationService) remind(ctx context.Context, userID uint, inv models.Invoice, kind models.NotificationKind, now time.Time, title string) (bool, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var existing int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND invoice_id = ? AND kind = ? AND created_at >= ?", userID, inv.ID, kind, dayStart).
		Count(&existing).Error
	if err != nil {
		return false, fmt.Errorf("check existing reminder: %w", err)
	}
	if existing > 0 {
		return false, nil
	}
	invoiceID := inv.ID
	n := &models.Notification{
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		InvoiceID: &invoiceID,
	}
	if err := s.Create(ctx, n); err != nil {
		return false, err
	}
	return true, nil
}
