package models

import (
	"time"
)

// Company represents a customer that invoices are issued to.
// Implements the Ownable interface for ownership-based authorization.
type Company struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// UserID is the owner of this company (for multi-tenant isolation)
	UserID uint `gorm:"index;not null" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	Name    string `gorm:"size:255;not null" json:"name"`
	Email   string `gorm:"size:255" json:"email,omitempty"`
	Phone   string `gorm:"size:50" json:"phone,omitempty"`
	Address string `gorm:"size:500" json:"address,omitempty"`
	TaxID   string `gorm:"size:50" json:"tax_id,omitempty"`
}

// GetUserID implements the Ownable interface.
func (c *Company) GetUserID() uint {
	return c.UserID
}
