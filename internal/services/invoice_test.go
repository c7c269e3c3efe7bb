package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/davrd/invoicery/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{}, &models.Profile{}, &models.Team{},
		&models.Company{}, &models.Product{}, &models.SubProduct{},
		&models.Invoice{}, &models.InvoiceItem{},
		&models.InvoiceSchema{}, &models.UserSettings{}, &models.Notification{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// seed minimal user/company/product for invoices
func seedInvoiceFixtures(t *testing.T, db *gorm.DB) (user models.User, company models.Company, product models.Product) {
	t.Helper()
	user = models.User{Email: "inv@test", Password: "x", Name: "I User"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("user: %v", err)
	}
	company = models.Company{UserID: user.ID, Name: "ClientCo"}
	if err := db.Create(&company).Error; err != nil {
		t.Fatalf("company: %v", err)
	}
	product = models.Product{UserID: user.ID, Name: "Service", Price: decimal.NewFromInt(100)}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("product: %v", err)
	}
	return
}

func TestComputeTotal(t *testing.T) {
	svc := NewInvoiceService(nil)
	items := []models.InvoiceItem{
		{Quantity: 3, UnitPrice: decimal.RequireFromString("19.99")},
		{Quantity: 1, UnitPrice: decimal.RequireFromString("0.01")},
	}
	got := svc.ComputeTotal(items)
	want := decimal.RequireFromString("59.98")
	if !got.Equal(want) {
		t.Fatalf("total = %s, want %s", got, want)
	}
}

func TestComputeTotalEmpty(t *testing.T) {
	svc := NewInvoiceService(nil)
	if got := svc.ComputeTotal(nil); !got.IsZero() {
		t.Fatalf("total = %s, want 0", got)
	}
}

func TestNextInvoiceNumber(t *testing.T) {
	db := setupTestDB(t)
	user, company, _ := seedInvoiceFixtures(t, db)
	svc := NewInvoiceService(db)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		inv := models.Invoice{
			UserID:        user.ID,
			CompanyID:     company.ID,
			InvoiceNumber: fmt.Sprintf("INV-2025-%04d", i),
			IssuedDate:    time.Date(2025, time.March, i, 0, 0, 0, 0, time.UTC),
			TotalAmount:   decimal.Zero,
		}
		if err := db.Create(&inv).Error; err != nil {
			t.Fatalf("seed invoice: %v", err)
		}
	}

	num, err := svc.NextInvoiceNumber(ctx, user.ID, 2025)
	if err != nil {
		t.Fatalf("NextInvoiceNumber: %v", err)
	}
	if num != "INV-2025-0003" {
		t.Fatalf("number = %q, want INV-2025-0003", num)
	}

	// Deleting an invoice must not free its number for reuse: the next number
	// stays one past the highest suffix ever issued, so the unique index never
	// rejects an auto-assigned create.
	if err := db.Where("user_id = ? AND invoice_number = ?", user.ID, "INV-2025-0001").
		Delete(&models.Invoice{}).Error; err != nil {
		t.Fatalf("delete invoice: %v", err)
	}
	num, err = svc.NextInvoiceNumber(ctx, user.ID, 2025)
	if err != nil {
		t.Fatalf("NextInvoiceNumber after delete: %v", err)
	}
	if num != "INV-2025-0003" {
		t.Fatalf("number after delete = %q, want INV-2025-0003", num)
	}
	next := models.Invoice{
		UserID:        user.ID,
		CompanyID:     company.ID,
		InvoiceNumber: num,
		IssuedDate:    time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC),
		TotalAmount:   decimal.Zero,
	}
	if err := db.Create(&next).Error; err != nil {
		t.Fatalf("create with assigned number: %v", err)
	}

	// Another user starts from 0001.
	other := models.User{Email: "other@test", Password: "x"}
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("other user: %v", err)
	}
	num, err = svc.NextInvoiceNumber(ctx, other.ID, 2025)
	if err != nil {
		t.Fatalf("NextInvoiceNumber: %v", err)
	}
	if num != "INV-2025-0001" {
		t.Fatalf("number = %q, want INV-2025-0001", num)
	}
}

func TestCreateComputesTotals(t *testing.T) {
	db := setupTestDB(t)
	user, company, product := seedInvoiceFixtures(t, db)
	svc := NewInvoiceService(db)

	inv := models.Invoice{
		UserID:        user.ID,
		CompanyID:     company.ID,
		InvoiceNumber: "INV-2025-0001",
		IssuedDate:    time.Now(),
		Items: []models.InvoiceItem{
			{ProductID: &product.ID, Quantity: 2, UnitPrice: decimal.RequireFromString("10.50")},
			{ProductID: &product.ID, Quantity: 1, UnitPrice: decimal.RequireFromString("5.00")},
		},
	}
	if err := svc.Create(context.Background(), &inv); err != nil {
		t.Fatalf("Create: %v", err)
	}

	want := decimal.RequireFromString("26.00")
	if !inv.TotalAmount.Equal(want) {
		t.Fatalf("total = %s, want %s", inv.TotalAmount, want)
	}

	var stored models.Invoice
	if err := db.Preload("Items").First(&stored, inv.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(stored.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(stored.Items))
	}
	if !stored.Items[0].TotalPrice.Equal(decimal.RequireFromString("21.00")) {
		t.Fatalf("item total = %s", stored.Items[0].TotalPrice)
	}
	if stored.Items[0].UserID != user.ID {
		t.Fatalf("item owner = %d, want %d", stored.Items[0].UserID, user.ID)
	}
}

func TestUpdateReplacesItems(t *testing.T) {
	db := setupTestDB(t)
	user, company, product := seedInvoiceFixtures(t, db)
	svc := NewInvoiceService(db)
	ctx := context.Background()

	inv := models.Invoice{
		UserID:        user.ID,
		CompanyID:     company.ID,
		InvoiceNumber: "INV-2025-0001",
		IssuedDate:    time.Now(),
		Items: []models.InvoiceItem{
			{ProductID: &product.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(100)},
		},
	}
	if err := svc.Create(ctx, &inv); err != nil {
		t.Fatalf("Create: %v", err)
	}

	inv.Items = []models.InvoiceItem{
		{ProductID: &product.ID, Quantity: 4, UnitPrice: decimal.NewFromInt(25)},
	}
	if err := svc.Update(ctx, &inv); err != nil {
		t.Fatalf("Update: %v", err)
	}

	var stored models.Invoice
	if err := db.Preload("Items").First(&stored, inv.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(stored.Items) != 1 {
		t.Fatalf("items = %d, want 1 (old items must be replaced)", len(stored.Items))
	}
	if stored.Items[0].Quantity != 4 {
		t.Fatalf("quantity = %d, want 4", stored.Items[0].Quantity)
	}
	if !stored.TotalAmount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("total = %s, want 100", stored.TotalAmount)
	}
}

func TestTransition(t *testing.T) {
	db := setupTestDB(t)
	user, company, _ := seedInvoiceFixtures(t, db)
	svc := NewInvoiceService(db)
	ctx := context.Background()

	inv := models.Invoice{
		UserID:        user.ID,
		CompanyID:     company.ID,
		InvoiceNumber: "INV-2025-0001",
		IssuedDate:    time.Now(),
		Status:        models.InvoiceStatusDraft,
		TotalAmount:   decimal.Zero,
	}
	if err := db.Create(&inv).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	// draft -> paid skips sent and must be rejected.
	if err := svc.Transition(ctx, &inv, models.InvoiceStatusPaid); err == nil {
		t.Fatal("draft -> paid allowed")
	}
	if err := svc.Transition(ctx, &inv, models.InvoiceStatusSent); err != nil {
		t.Fatalf("draft -> sent: %v", err)
	}
	if err := svc.Transition(ctx, &inv, models.InvoiceStatusPaid); err != nil {
		t.Fatalf("sent -> paid: %v", err)
	}
	if err := svc.Transition(ctx, &inv, models.InvoiceStatusSent); err == nil {
		t.Fatal("paid -> sent allowed")
	}
}
