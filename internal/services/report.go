package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/davrd/invoicery/internal/models"
	"github.com/davrd/invoicery/internal/reports"
	"gorm.io/gorm"
)

// ReportRange selects the trailing window of whole calendar months.
type ReportRange string

const (
	RangeLast3Months  ReportRange = "last3months"
	RangeLast6Months  ReportRange = "last6months"
	RangeLast12Months ReportRange = "last12months"
)

// Months returns the window length; unknown ranges fall back to six months,
// matching the default report view.
func (r ReportRange) Months() int {
	switch r {
	case RangeLast3Months:
		return 3
	case RangeLast12Months:
		return 12
	default:
		return 6
	}
}

// window returns the [start, end] bounds: the first instant of the earliest
// month through the last instant of the current month.
func (r ReportRange) window(now time.Time) (time.Time, time.Time) {
	months := r.Months()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -(months - 1), 0)
	end := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end
}

// ReportService builds the range-filtered report view and the CSV export.
type ReportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

// Report is the reports-view payload.
type Report struct {
	Range           ReportRange           `json:"range"`
	RevenueSeries   []reports.MonthBucket `json:"revenue_series"`
	StatusBreakdown reports.StatusCounts  `json:"status_breakdown"`
	TopCompanies    []reports.CompanyRank `json:"top_companies"`
}

// fetchRange filters on the issue date, the same axis the revenue series
// buckets by, so every fetched row lands in a bucket and no in-window row is
// missed.
func (s *ReportService) fetchRange(ctx context.Context, userID uint, rng ReportRange, now time.Time) ([]models.Invoice, error) {
	start, end := rng.window(now)
	var invoices []models.Invoice
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND issued_date BETWEEN ? AND ?", userID, start, end).
		Preload("Company").Order("issued_date").
		Find(&invoices).Error
	if err != nil {
		return nil, fmt.Errorf("fetch invoices in range: %w", err)
	}
	return invoices, nil
}

// Build assembles the report for a user over the given range.
func (s *ReportService) Build(ctx context.Context, userID uint, rng ReportRange, now time.Time) (*Report, error) {
	invoices, err := s.fetchRange(ctx, userID, rng, now)
	if err != nil {
		return nil, err
	}

	paid := make([]models.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if inv.Status == models.InvoiceStatusPaid {
			paid = append(paid, inv)
		}
	}

	return &Report{
		Range:           rng,
		RevenueSeries:   reports.MonthlySeries(invoices, rng.Months(), now),
		StatusBreakdown: reports.StatusBreakdown(invoices),
		TopCompanies:    reports.TopCompanies(paid, reports.DefaultTopN),
	}, nil
}

// ExportCSV streams the range's invoices as an RFC 4180 CSV document.
func (s *ReportService) ExportCSV(ctx context.Context, w io.Writer, userID uint, rng ReportRange, now time.Time) error {
	invoices, err := s.fetchRange(ctx, userID, rng, now)
	if err != nil {
		return err
	}
	return reports.WriteCSV(w, invoices)
}
