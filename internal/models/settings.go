package models

import (
	"time"
)

// UserSettings holds per-user defaults applied when creating invoices.
// Exactly one row per user; created lazily on first read.
type UserSettings struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uint `gorm:"uniqueIndex;not null" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	DefaultCompanyID *uint `gorm:"index" json:"default_company_id,omitempty"`
	DefaultSchemaID  *uint `gorm:"index" json:"default_schema_id,omitempty"`
	DefaultProductID *uint `gorm:"index" json:"default_product_id,omitempty"`
}

// GetUserID implements the Ownable interface.
func (s *UserSettings) GetUserID() uint {
	return s.UserID
}
