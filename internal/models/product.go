package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a sellable product or service in the user's catalog.
type Product struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uint `gorm:"index;not null" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	Name        string          `gorm:"size:255;not null" json:"name"`
	Description string          `gorm:"size:1000" json:"description,omitempty"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`

	// SubProducts form a two-level, non-recursive category tree under this product.
	SubProducts []SubProduct `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"sub_products,omitempty"`
}

// GetUserID implements the Ownable interface.
func (p *Product) GetUserID() uint {
	return p.UserID
}

// SubProduct is a child variant of a product with its own price.
// Sub-products cannot themselves have children.
type SubProduct struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProductID uint     `gorm:"index;not null" json:"product_id"`
	Product   *Product `gorm:"foreignKey:ProductID" json:"-"`

	UserID uint `gorm:"index;not null" json:"user_id"`

	Name  string          `gorm:"size:255;not null" json:"name"`
	Price decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
}

// GetUserID implements the Ownable interface.
func (s *SubProduct) GetUserID() uint {
	return s.UserID
}
