package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/davrd/invoicery/auth"
	"github.com/davrd/invoicery/httpx"
	"github.com/davrd/invoicery/internal/models"
	"github.com/davrd/invoicery/internal/services"
	"github.com/davrd/invoicery/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InvoiceHandler struct {
	db  *gorm.DB
	svc *services.InvoiceService
}

func NewInvoiceHandler(db *gorm.DB, svc *services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{db: db, svc: svc}
}

const dateLayout = "2006-01-02"

type invoiceItemRequest struct {
	ProductID    *uint           `json:"product_id"`
	SubProductID *uint           `json:"sub_product_id"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
}

type invoiceRequest struct {
	InvoiceNumber string               `json:"invoice_number"`
	CompanyID     uint                 `json:"company_id"`
	IssuedDate    string               `json:"issued_date"`
	DueDate       *string              `json:"due_date"`
	Notes         string               `json:"notes"`
	TaxID         string               `json:"tax_id"`
	PaymentTerms  string               `json:"payment_terms"`
	Items         []invoiceItemRequest `json:"items"`
}

func (req *invoiceRequest) validate() validation.Violations {
	v := validation.Violations{}
	if req.CompanyID == 0 {
		v["company_id"] = "required"
	}
	validation.Required("issued_date", req.IssuedDate, v)
	if req.IssuedDate != "" {
		if _, err := time.Parse(dateLayout, req.IssuedDate); err != nil {
			v["issued_date"] = "invalid_date"
		}
	}
	if req.DueDate != nil {
		if _, err := time.Parse(dateLayout, *req.DueDate); err != nil {
			v["due_date"] = "invalid_date"
		}
	}
	for i, item := range req.Items {
		prefix := "items." + strconv.Itoa(i) + "."
		validation.PositiveInt(prefix+"quantity", item.Quantity, v)
		validation.NonNegativeDecimal(prefix+"unit_price", item.UnitPrice, v)
		if (item.ProductID == nil) == (item.SubProductID == nil) {
			v[prefix+"product"] = "exactly_one_of_product_or_sub_product"
		}
	}
	return v
}

func (req *invoiceRequest) apply(inv *models.Invoice) {
	inv.CompanyID = req.CompanyID
	inv.Notes = req.Notes
	inv.TaxID = req.TaxID
	inv.PaymentTerms = req.PaymentTerms
	inv.IssuedDate, _ = time.Parse(dateLayout, req.IssuedDate)
	inv.DueDate = nil
	if req.DueDate != nil {
		due, _ := time.Parse(dateLayout, *req.DueDate)
		inv.DueDate = &due
	}
	inv.Items = make([]models.InvoiceItem, 0, len(req.Items))
	for _, item := range req.Items {
		inv.Items = append(inv.Items, models.InvoiceItem{
			ProductID:    item.ProductID,
			SubProductID: item.SubProductID,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
		})
	}
}

// companyOwned verifies the referenced company belongs to the user.
func (h *InvoiceHandler) companyOwned(r *http.Request, userID, companyID uint) (bool, error) {
	var count int64
	err := h.db.WithContext(r.Context()).Model(&models.Company{}).
		Where("id = ? AND user_id = ?", companyID, userID).Count(&count).Error
	return count > 0, err
}

// List returns the user's invoices, optionally filtered by status or company.
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	q := h.db.WithContext(r.Context()).Where("user_id = ?", userID)

	if status := r.URL.Query().Get("status"); status != "" {
		if !models.ValidStatus(models.InvoiceStatus(status)) {
			badRequest(w, "invalid_status")
			return
		}
		q = q.Where("status = ?", status)
	}
	if company := r.URL.Query().Get("company_id"); company != "" {
		id, err := strconv.ParseUint(company, 10, 64)
		if err != nil {
			badRequest(w, "invalid_company_id")
			return
		}
		q = q.Where("company_id = ?", id)
	}

	var invoices []models.Invoice
	if err := q.Preload("Company").Order("created_at DESC").Find(&invoices).Error; err != nil {
		serverError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoices)
}

// Get returns one invoice with company and items.
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid_id")
		return
	}
	var inv models.Invoice
	if err := h.db.WithContext(r.Context()).
		Preload("Company").Preload("Items").
		Preload("Items.Product").Preload("Items.SubProduct").
		Where("id = ? AND user_id = ?", id, userID).First(&inv).Error; err != nil {
		respondFetchErr(w, err)
		return
	}
	if !ensureOwned(w, userID, &inv) {
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// Create persists a new draft invoice. A blank invoice number is assigned from
// the per-user yearly sequence.
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	var req invoiceRequest
	if err := httpx.Decode(r, &req); err != nil {
		badRequest(w, "invalid_json")
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}

	owned, err := h.companyOwned(r, userID, req.CompanyID)
	if err != nil {
		serverError(w, err)
		return
	}
	if !owned {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed",
			validation.Violations{"company_id": "unknown_company"})
		return
	}

	inv := models.Invoice{UserID: userID, Status: models.InvoiceStatusDraft}
	req.apply(&inv)
	inv.InvoiceNumber = req.InvoiceNumber
	if inv.InvoiceNumber == "" {
		number, err := h.svc.NextInvoiceNumber(r.Context(), userID, inv.IssuedDate.Year())
		if err != nil {
			serverError(w, err)
			return
		}
		inv.InvoiceNumber = number
	}

	if err := h.svc.Create(r.Context(), &inv); err != nil {
		serverError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

// Update replaces a draft invoice's fields and line items. Invoices that have
// left draft are immutable except for status.
func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid_id")
		return
	}
	var req invoiceRequest
	if err := httpx.Decode(r, &req); err != nil {
		badRequest(w, "invalid_json")
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}

	var inv models.Invoice
	if err := h.db.WithContext(r.Context()).
		Where("id = ? AND user_id = ?", id, userID).First(&inv).Error; err != nil {
		respondFetchErr(w, err)
		return
	}
	if !ensureOwned(w, userID, &inv) {
		return
	}
	if !inv.CanEdit() {
		httpx.JSONError(w, http.StatusConflict, "invoice_not_editable", nil)
		return
	}

	owned, err := h.companyOwned(r, userID, req.CompanyID)
	if err != nil {
		serverError(w, err)
		return
	}
	if !owned {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed",
			validation.Violations{"company_id": "unknown_company"})
		return
	}

	req.apply(&inv)
	if req.InvoiceNumber != "" {
		inv.InvoiceNumber = req.InvoiceNumber
	}
	if err := h.svc.Update(r.Context(), &inv); err != nil {
		serverError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

type statusRequest struct {
	Status models.InvoiceStatus `json:"status"`
}

// UpdateStatus moves the invoice along its lifecycle.
func (h *InvoiceHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid_id")
		return
	}
	var req statusRequest
	if err := httpx.Decode(r, &req); err != nil {
		badRequest(w, "invalid_json")
		return
	}
	if !models.ValidStatus(req.Status) {
		badRequest(w, "invalid_status")
		return
	}

	var inv models.Invoice
	if err := h.db.WithContext(r.Context()).
		Where("id = ? AND user_id = ?", id, userID).First(&inv).Error; err != nil {
		respondFetchErr(w, err)
		return
	}
	if !models.CanTransition(inv.Status, req.Status) {
		httpx.JSONError(w, http.StatusConflict, "invalid_transition", nil)
		return
	}
	if err := h.svc.Transition(r.Context(), &inv, req.Status); err != nil {
		serverError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// Delete removes an invoice and its items.
func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid_id")
		return
	}
	var inv models.Invoice
	if err := h.db.WithContext(r.Context()).
		Where("id = ? AND user_id = ?", id, userID).First(&inv).Error; err != nil {
		respondFetchErr(w, err)
		return
	}
	err = h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&inv).Error
	})
	if err != nil {
		serverError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}
