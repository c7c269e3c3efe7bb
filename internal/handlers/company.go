package handlers

import (
	"net/http"

	"github.com/davrd/invoicery/auth"
	"github.com/davrd/invoicery/httpx"
	"github.com/davrd/invoicery/internal/models"
	"github.com/davrd/invoicery/validation"
	"gorm.io/gorm"
)

type CompanyHandler struct {
	db *gorm.DB
}

func NewCompanyHandler(db *gorm.DB) *CompanyHandler {
	return &CompanyHandler{db: db}
}

type companyRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	TaxID   string `json:"tax_id"`
}

func (req *companyRequest) validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("name", req.Name, v)
	validation.Email("email", req.Email, v)
	return v
}

// List returns the user's companies, newest first.
func (h *CompanyHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	var companies []models.Company
	err := h.db.WithContext(r.Context()).Where("user_id = ?", userID).
		Order("created_at DESC").Find(&companies).Error
	if err != nil {
		serverError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, companies)
}

// Get returns one company by id.
func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid_id")
		return
	}
	var company models.Company
	if err := h.db.WithContext(r.Context()).
		Where("id = ? AND user_id = ?", id, userID).First(&company).Error; err != nil {
		respondFetchErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, company)
}

// Create adds a company to the user's client list.
func (h *CompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	var req companyRequest
	if err := httpx.Decode(r, &req); err != nil {
		badRequest(w, "invalid_json")
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}

	company := models.Company{
		UserID:  userID,
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		TaxID:   req.TaxID,
	}
	if err := h.db.WithContext(r.Context()).Create(&company).Error; err != nil {
		serverError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, company)
}

// Update replaces a company's fields.
func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid_id")
		return
	}
	var req companyRequest
	if err := httpx.Decode(r, &req); err != nil {
		badRequest(w, "invalid_json")
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}

	var company models.Company
	if err := h.db.WithContext(r.Context()).
		Where("id = ? AND user_id = ?", id, userID).First(&company).Error; err != nil {
		respondFetchErr(w, err)
		return
	}

	company.Name = req.Name
	company.Email = req.Email
	company.Phone = req.Phone
	company.Address = req.Address
	company.TaxID = req.TaxID
	if err := h.db.WithContext(r.Context()).Save(&company).Error; err != nil {
		serverError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, company)
}

// Delete removes a company. Invoices keep their company id; the join resolves
// to a placeholder name once the row is gone.
func (h *CompanyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid_id")
		return
	}
	var company models.Company
	if err := h.db.WithContext(r.Context()).
		Where("id = ? AND user_id = ?", id, userID).First(&company).Error; err != nil {
		respondFetchErr(w, err)
		return
	}
	if err := h.db.WithContext(r.Context()).Delete(&company).Error; err != nil {
		serverError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}
