package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the stored lifecycle status of an invoice.
// The stored value can lag the true overdue condition; callers that need the
// derived state must use OverdueNow instead of trusting the label.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// AllStatuses lists every known status in display order.
var AllStatuses = []InvoiceStatus{
	InvoiceStatusDraft,
	InvoiceStatusSent,
	InvoiceStatusPaid,
	InvoiceStatusOverdue,
	InvoiceStatusCancelled,
}

// ValidStatus reports whether s is one of the known statuses.
func ValidStatus(s InvoiceStatus) bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// statusTransitions encodes the lifecycle: draft -> sent -> {paid, overdue, cancelled}.
// sent -> overdue is stored when a sweep or the user acknowledges the condition;
// the derived flag exists regardless of whether the transition was recorded.
var statusTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusDraft:   {InvoiceStatusSent, InvoiceStatusCancelled},
	InvoiceStatusSent:    {InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled},
	InvoiceStatusOverdue: {InvoiceStatusPaid, InvoiceStatusCancelled},
}

// CanTransition reports whether moving from one stored status to another is allowed.
func CanTransition(from, to InvoiceStatus) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Invoice represents a billing invoice.
// Implements the Ownable interface for ownership-based authorization.
type Invoice struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// UserID is the owner of this invoice (for multi-tenant isolation)
	UserID uint `gorm:"index;not null;uniqueIndex:idx_user_invoice_number" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	// InvoiceNumber is unique per user, not globally.
	InvoiceNumber string `gorm:"size:50;not null;uniqueIndex:idx_user_invoice_number" json:"invoice_number"`

	CompanyID uint     `gorm:"index;not null" json:"company_id"`
	Company   *Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`

	Status InvoiceStatus `gorm:"size:20;default:'draft'" json:"status"`

	IssuedDate time.Time  `gorm:"not null" json:"issued_date"`
	DueDate    *time.Time `json:"due_date,omitempty"`

	// TotalAmount equals the sum of the line items' total price at the time of
	// last save. Not enforced by a constraint; the invoice service recomputes it
	// from items on every write.
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`

	Notes        string `gorm:"type:text" json:"notes,omitempty"`
	TaxID        string `gorm:"size:50" json:"tax_id,omitempty"`
	PaymentTerms string `gorm:"size:500" json:"payment_terms,omitempty"`

	// FileKey points at an attached scanned copy in the object store.
	FileKey string `gorm:"size:500" json:"file_key,omitempty"`

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// GetUserID implements the Ownable interface for authorization.
func (i *Invoice) GetUserID() uint {
	return i.UserID
}

// OverdueNow is the derived overdue flag: a due date set and strictly before
// now, or a stored overdue label. Superset of the labeled set — an invoice with
// no due date and a status other than overdue never qualifies.
func (i *Invoice) OverdueNow(now time.Time) bool {
	if i.Status == InvoiceStatusOverdue {
		return true
	}
	return i.DueDate != nil && i.DueDate.Before(now)
}

// DueSoon reports whether the due date falls strictly after now and within the
// next seven days.
func (i *Invoice) DueSoon(now time.Time) bool {
	if i.DueDate == nil {
		return false
	}
	return i.DueDate.After(now) && i.DueDate.Before(now.AddDate(0, 0, 7))
}

// CanEdit returns true if the invoice can still be edited.
func (i *Invoice) CanEdit() bool {
	return i.Status == InvoiceStatusDraft
}

// InvoiceItem represents a line item on an invoice. Exactly one of ProductID
// or SubProductID is set; prices are snapshots taken at invoice save time and
// are not live-linked to the catalog.
type InvoiceItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	InvoiceID uint     `gorm:"index;not null" json:"invoice_id"`
	Invoice   *Invoice `gorm:"foreignKey:InvoiceID" json:"-"`

	// UserID mirrors the invoice owner so item-level queries stay tenant-scoped.
	UserID uint `gorm:"index;not null" json:"user_id"`

	ProductID    *uint       `gorm:"index" json:"product_id,omitempty"`
	Product      *Product    `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	SubProductID *uint       `gorm:"index" json:"sub_product_id,omitempty"`
	SubProduct   *SubProduct `gorm:"foreignKey:SubProductID" json:"sub_product,omitempty"`

	Quantity   int             `gorm:"not null;default:1" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_price"`
}

// GetUserID implements the Ownable interface.
func (item *InvoiceItem) GetUserID() uint {
	return item.UserID
}

// ComputeTotal returns quantity x unit price.
func (item *InvoiceItem) ComputeTotal() decimal.Decimal {
	return item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
}
