package services

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/davrd/invoicery/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func seedIssuedInvoice(t *testing.T, db *gorm.DB, user models.User, company models.Company, number, total string, issued time.Time) {
	t.Helper()
	inv := models.Invoice{
		UserID:        user.ID,
		CompanyID:     company.ID,
		InvoiceNumber: number,
		IssuedDate:    issued,
		Status:        models.InvoiceStatusPaid,
		TotalAmount:   decimal.RequireFromString(total),
	}
	if err := db.Create(&inv).Error; err != nil {
		t.Fatalf("seed invoice: %v", err)
	}
}

func TestReportRangeFiltersByIssueDate(t *testing.T) {
	db := setupTestDB(t)
	user, company, _ := seedInvoiceFixtures(t, db)
	svc := NewReportService(db)
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

	// Rows are created now but issued at different points; the range must cut
	// on the issue date, the axis the revenue series buckets by.
	seedIssuedInvoice(t, db, user, company, "INV-2025-0001", "100.00", now.AddDate(0, -2, 0))
	seedIssuedInvoice(t, db, user, company, "INV-2025-0002", "50.00", now)
	seedIssuedInvoice(t, db, user, company, "INV-2025-0003", "999.00", now.AddDate(0, -4, 0))

	report, err := svc.Build(context.Background(), user.ID, RangeLast3Months, now)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if report.StatusBreakdown[models.InvoiceStatusPaid] != 2 {
		t.Fatalf("paid count = %d, want 2 (out-of-range row leaked in)", report.StatusBreakdown[models.InvoiceStatusPaid])
	}
	if len(report.RevenueSeries) != 3 {
		t.Fatalf("buckets = %d, want 3", len(report.RevenueSeries))
	}
	// Every fetched row lands in a bucket: bucket sum equals the in-range total.
	sum := decimal.Zero
	for _, bucket := range report.RevenueSeries {
		sum = sum.Add(bucket.Value)
	}
	if !sum.Equal(decimal.RequireFromString("150.00")) {
		t.Fatalf("series sum = %s, want 150.00", sum)
	}
	if !report.RevenueSeries[0].Value.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("earliest bucket = %s, want 100.00", report.RevenueSeries[0].Value)
	}
}

func TestReportExportCSVUsesIssueDateRange(t *testing.T) {
	db := setupTestDB(t)
	user, company, _ := seedInvoiceFixtures(t, db)
	svc := NewReportService(db)
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

	seedIssuedInvoice(t, db, user, company, "INV-2025-0001", "30.00", now.AddDate(0, -1, 0))
	seedIssuedInvoice(t, db, user, company, "INV-2025-0002", "70.00", now.AddDate(0, -4, 0))

	var buf bytes.Buffer
	if err := svc.ExportCSV(context.Background(), &buf, user.ID, RangeLast3Months, now); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "INV-2025-0001") {
		t.Fatal("in-range invoice missing from export")
	}
	if strings.Contains(out, "INV-2025-0002") {
		t.Fatal("out-of-range invoice present in export")
	}
}
