package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/davrd/invoicery/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceService owns invoice persistence rules: line-item totals are
// snapshots computed at save time and the invoice total always equals the sum
// of its items after a write.
type InvoiceService struct {
	db *gorm.DB
}

func NewInvoiceService(db *gorm.DB) *InvoiceService {
	return &InvoiceService{db: db}
}

// ComputeTotal sums quantity x unit price over the items with decimal
// accumulation.
func (s *InvoiceService) ComputeTotal(items []models.InvoiceItem) decimal.Decimal {
	total := decimal.Zero
	for i := range items {
		total = total.Add(items[i].ComputeTotal())
	}
	return total
}

// NextInvoiceNumber generates the next invoice number for a user and year.
// Format: INV-YYYY-NNNN. Numbers are unique per user, not globally. The next
// number is one past the highest existing suffix, not a row count, so deleting
// an invoice never hands out a number that is still taken.
func (s *InvoiceService) NextInvoiceNumber(ctx context.Context, userID uint, year int) (string, error) {
	prefix := fmt.Sprintf("INV-%d-", year)
	var numbers []string
	err := s.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("user_id = ? AND invoice_number LIKE ?", userID, prefix+"%").
		Pluck("invoice_number", &numbers).Error
	if err != nil {
		return "", fmt.Errorf("fetch invoice numbers: %w", err)
	}
	max := 0
	for _, number := range numbers {
		suffix, err := strconv.Atoi(strings.TrimPrefix(number, prefix))
		if err != nil {
			continue
		}
		if suffix > max {
			max = suffix
		}
	}
	return fmt.Sprintf("%s%04d", prefix, max+1), nil
}

// normalize stamps ownership and snapshot totals onto the items and returns
// the invoice total.
func (s *InvoiceService) normalize(inv *models.Invoice) {
	for i := range inv.Items {
		inv.Items[i].UserID = inv.UserID
		inv.Items[i].TotalPrice = inv.Items[i].ComputeTotal()
	}
	inv.TotalAmount = s.ComputeTotal(inv.Items)
}

// Create persists the invoice and its items in one transaction.
func (s *InvoiceService) Create(ctx context.Context, inv *models.Invoice) error {
	s.normalize(inv)
	if err := s.db.WithContext(ctx).Create(inv).Error; err != nil {
		return fmt.Errorf("create invoice: %w", err)
	}
	return nil
}

// Update replaces the invoice's items and recomputes its total in one
// transaction. Items not present in inv.Items are removed.
func (s *InvoiceService) Update(ctx context.Context, inv *models.Invoice) error {
	s.normalize(inv)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
			return fmt.Errorf("clear invoice items: %w", err)
		}
		for i := range inv.Items {
			inv.Items[i].ID = 0
			inv.Items[i].InvoiceID = inv.ID
		}
		if err := tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(inv).Error; err != nil {
			return fmt.Errorf("save invoice: %w", err)
		}
		return nil
	})
}

// Transition moves the stored status along the lifecycle. Returns an error
// when the transition is not allowed.
func (s *InvoiceService) Transition(ctx context.Context, inv *models.Invoice, to models.InvoiceStatus) error {
	if !models.CanTransition(inv.Status, to) {
		return fmt.Errorf("cannot transition invoice from %s to %s", inv.Status, to)
	}
	inv.Status = to
	if err := s.db.WithContext(ctx).Model(inv).Update("status", to).Error; err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	return nil
}
