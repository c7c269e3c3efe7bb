package services

import (
	"context"
	"fmt"
	"time"

	"github.com/davrd/invoicery/internal/models"
	"github.com/davrd/invoicery/internal/reports"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DashboardService fetches a user's rows and hands them to the reports
// package. Each block of metrics is computed from a single fetch's result set,
// so a block is always internally consistent even when the store moves
// underneath it.
type DashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

// DashboardStats is the full dashboard payload.
type DashboardStats struct {
	Invoices  int64 `json:"invoices"`
	Companies int64 `json:"companies"`
	Products  int64 `json:"products"`

	StatusBreakdown reports.StatusCounts  `json:"status_breakdown"`
	Revenue         reports.Revenue       `json:"revenue"`
	OverdueAmount   decimal.Decimal       `json:"overdue_amount"`
	MonthlySeries   []reports.MonthBucket `json:"monthly_series"`
	TopCompanies    []reports.CompanyRank `json:"top_companies"`
	TopProducts     []reports.ProductRank `json:"top_products"`
	Due             reports.DuePartition  `json:"due"`

	RecentInvoices []models.Invoice `json:"recent_invoices"`
	RecentActivity []models.Invoice `json:"recent_activity"`
}

// monthlyWindow is the dashboard chart length in months.
const monthlyWindow = 6

// Stats assembles the dashboard for a user at the given instant.
func (s *DashboardService) Stats(ctx context.Context, userID uint, now time.Time) (*DashboardStats, error) {
	stats := &DashboardStats{}

	conn := s.db.WithContext(ctx)
	if err := conn.Model(&models.Invoice{}).Where("user_id = ?", userID).Count(&stats.Invoices).Error; err != nil {
		return nil, fmt.Errorf("count invoices: %w", err)
	}
	if err := conn.Model(&models.Company{}).Where("user_id = ?", userID).Count(&stats.Companies).Error; err != nil {
		return nil, fmt.Errorf("count companies: %w", err)
	}
	if err := conn.Model(&models.Product{}).Where("user_id = ?", userID).Count(&stats.Products).Error; err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	// One fetch feeds breakdown, revenue, overdue, the monthly chart and the
	// company ranking, keeping those figures mutually consistent.
	var invoices []models.Invoice
	if err := conn.Where("user_id = ?", userID).Preload("Company").Find(&invoices).Error; err != nil {
		return nil, fmt.Errorf("fetch invoices: %w", err)
	}
	stats.StatusBreakdown = reports.StatusBreakdown(invoices)
	stats.Revenue = reports.RevenueTotals(invoices, now)
	stats.OverdueAmount = reports.OverdueAmount(invoices, now)
	stats.MonthlySeries = reports.MonthlySeries(invoices, monthlyWindow, now)

	paid := make([]models.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if inv.Status == models.InvoiceStatusPaid {
			paid = append(paid, inv)
		}
	}
	stats.TopCompanies = reports.TopCompanies(paid, reports.DefaultTopN)

	var items []models.InvoiceItem
	if err := conn.Where("user_id = ?", userID).
		Preload("Product").Preload("SubProduct").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("fetch invoice items: %w", err)
	}
	stats.TopProducts = reports.TopProducts(items, reports.DefaultTopN)

	var open []models.Invoice
	if err := conn.Where("user_id = ? AND status IN ?", userID,
		[]models.InvoiceStatus{models.InvoiceStatusSent, models.InvoiceStatusOverdue}).
		Preload("Company").Order("due_date").
		Find(&open).Error; err != nil {
		return nil, fmt.Errorf("fetch open invoices: %w", err)
	}
	stats.Due = reports.PartitionByDue(open, now)

	if err := conn.Where("user_id = ?", userID).Preload("Company").
		Order("created_at DESC").Limit(5).Find(&stats.RecentInvoices).Error; err != nil {
		return nil, fmt.Errorf("fetch recent invoices: %w", err)
	}
	if err := conn.Where("user_id = ?", userID).Preload("Company").
		Order("updated_at DESC").Limit(10).Find(&stats.RecentActivity).Error; err != nil {
		return nil, fmt.Errorf("fetch recent activity: %w", err)
	}

	return stats, nil
}
