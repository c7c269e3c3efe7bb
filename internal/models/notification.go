package models

import (
	"time"
)

// NotificationKind distinguishes reminder notifications from generic ones.
type NotificationKind string

const (
	NotificationKindGeneric NotificationKind = "generic"
	NotificationKindDueSoon NotificationKind = "due_soon"
	NotificationKindOverdue NotificationKind = "overdue"
)

// Notification is a per-user message with a read flag. Reminder sweeps attach
// the invoice they were generated from so repeated sweeps can deduplicate.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uint `gorm:"index;not null" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	Kind    NotificationKind `gorm:"size:20;default:'generic'" json:"kind"`
	Title   string           `gorm:"size:255;not null" json:"title"`
	Message string           `gorm:"size:1000" json:"message,omitempty"`
	Read    bool             `gorm:"default:false" json:"read"`

	InvoiceID *uint `gorm:"index" json:"invoice_id,omitempty"`
}

// GetUserID implements the Ownable interface.
func (n *Notification) GetUserID() uint {
	return n.UserID
}
