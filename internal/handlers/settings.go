package handlers

import (
	"errors"
	"net/http"

	"github.com/davrd/invoicery/auth"
	"github.com/davrd/invoicery/httpx"
	"github.com/davrd/invoicery/internal/models"
	"github.com/davrd/invoicery/validation"
	"gorm.io/gorm"
)

type SettingsHandler struct {
	db *gorm.DB
}

func NewSettingsHandler(db *gorm.DB) *SettingsHandler {
	return &SettingsHandler{db: db}
}

// getOrCreate fetches the user's settings row, creating an empty one on first
// read so the client always sees a row.
func (h *SettingsHandler) getOrCreate(r *http.Request, userID uint) (*models.UserSettings, error) {
	var settings models.UserSettings
	err := h.db.WithContext(r.Context()).Where("user_id = ?", userID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = models.UserSettings{UserID: userID}
		err = h.db.WithContext(r.Context()).Create(&settings).Error
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// Get returns the user's settings, lazily created.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	settings, err := h.getOrCreate(r, userID)
	if err != nil {
		serverError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, settings)
}

type settingsRequest struct {
	DefaultCompanyID *uint `json:"default_company_id"`
	DefaultSchemaID  *uint `json:"default_schema_id"`
	DefaultProductID *uint `json:"default_product_id"`
}

// ownsRow reports whether a row of the given model with this id belongs to the
// user. Defaults may only reference the user's own records.
func (h *SettingsHandler) ownsRow(r *http.Request, model any, id, userID uint) (bool, error) {
	var count int64
	err := h.db.WithContext(r.Context()).Model(model).
		Where("id = ? AND user_id = ?", id, userID).Count(&count).Error
	return count > 0, err
}

// Update replaces the user's default references. Nil clears a default.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	var req settingsRequest
	if err := httpx.Decode(r, &req); err != nil {
		badRequest(w, "invalid_json")
		return
	}

	v := validation.Violations{}
	checks := []struct {
		field string
		model any
		id    *uint
	}{
		{"default_company_id", &models.Company{}, req.DefaultCompanyID},
		{"default_schema_id", &models.InvoiceSchema{}, req.DefaultSchemaID},
		{"default_product_id", &models.Product{}, req.DefaultProductID},
	}
	for _, c := range checks {
		if c.id == nil {
			continue
		}
		owned, err := h.ownsRow(r, c.model, *c.id, userID)
		if err != nil {
			serverError(w, err)
			return
		}
		if !owned {
			v[c.field] = "unknown_reference"
		}
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}

	settings, err := h.getOrCreate(r, userID)
	if err != nil {
		serverError(w, err)
		return
	}
	settings.DefaultCompanyID = req.DefaultCompanyID
	settings.DefaultSchemaID = req.DefaultSchemaID
	settings.DefaultProductID = req.DefaultProductID
	if err := h.db.WithContext(r.Context()).Save(settings).Error; err != nil {
		serverError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, settings)
}
