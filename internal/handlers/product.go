package handlers

import (
	"net/http"

	"github.com/davrd/invoicery/auth"
	"github.com/davrd/invoicery/httpx"
	"github.com/davrd/invoicery/internal/models"
	"github.com/davrd/invoicery/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductHandler struct {
	db *gorm.DB
}

func NewProductHandler(db *gorm.DB) *ProductHandler {
	return &ProductHandler{db: db}
}

type productRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

func (req *productRequest) validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("name", req.Name, v)
	validation.PositiveDecimal("price", req.Price, v)
	return v
}

// List returns the user's catalog with sub-products attached.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	var products []models.Product
	err := h.db.WithContext(r.Context()).Where("user_id = ?", userID).
		Preload("SubProducts").Order("name").Find(&products).Error
	if err != nil {
		serverError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, products)
}

// Get returns one product with its sub-products.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid_id")
		return
	}
	var product models.Product
	if err := h.db.WithContext(r.Context()).Preload("SubProducts").
		Where("id = ? AND user_id = ?", id, userID).First(&product).Error; err != nil {
		respondFetchErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

// Create adds a product to the catalog.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	var req productRequest
	if err := httpx.Decode(r, &req); err != nil {
		badRequest(w, "invalid_json")
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}

	product := models.Product{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	}
	if err := h.db.WithContext(r.Context()).Create(&product).Error; err != nil {
		serverError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, product)
}

// Update replaces a product's fields. Invoice line items keep their snapshot
// prices; catalog edits never rewrite history.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid_id")
		return
	}
	var req productRequest
	if err := httpx.Decode(r, &req); err != nil {
		badRequest(w, "invalid_json")
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}

	var product models.Product
	if err := h.db.WithContext(r.Context()).
		Where("id = ? AND user_id = ?", id, userID).First(&product).Error; err != nil {
		respondFetchErr(w, err)
		return
	}

	product.Name = req.Name
	product.Description = req.Description
	product.Price = req.Price
	if err := h.db.WithContext(r.Context()).Save(&product).Error; err != nil {
		serverError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

// Delete removes a product and its sub-products.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid_id")
		return
	}
	var product models.Product
	if err := h.db.WithContext(r.Context()).
		Where("id = ? AND user_id = ?", id, userID).First(&product).Error; err != nil {
		respondFetchErr(w, err)
		return
	}
	err = h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", product.ID).Delete(&models.SubProduct{}).Error; err != nil {
			return err
		}
		return tx.Delete(&product).Error
	})
	if err != nil {
		serverError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type subProductRequest struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// CreateSub adds a sub-product under a product. The tree is two levels only;
// a sub-product can never be a parent.
func (h *ProductHandler) CreateSub(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid_id")
		return
	}
	var req subProductRequest
	if err := httpx.Decode(r, &req); err != nil {
		badRequest(w, "invalid_json")
		return
	}
	v := validation.Violations{}
	validation.Required("name", req.Name, v)
	validation.PositiveDecimal("price", req.Price, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}

	var product models.Product
	if err := h.db.WithContext(r.Context()).
		Where("id = ? AND user_id = ?", id, userID).First(&product).Error; err != nil {
		respondFetchErr(w, err)
		return
	}

	sub := models.SubProduct{
		ProductID: product.ID,
		UserID:    userID,
		Name:      req.Name,
		Price:     req.Price,
	}
	if err := h.db.WithContext(r.Context()).Create(&sub).Error; err != nil {
		serverError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sub)
}

// UpdateSub replaces a sub-product's fields.
func (h *ProductHandler) UpdateSub(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid_id")
		return
	}
	var req subProductRequest
	if err := httpx.Decode(r, &req); err != nil {
		badRequest(w, "invalid_json")
		return
	}
	v := validation.Violations{}
	validation.Required("name", req.Name, v)
	validation.PositiveDecimal("price", req.Price, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}

	var sub models.SubProduct
	if err := h.db.WithContext(r.Context()).
		Where("id = ? AND user_id = ?", id, userID).First(&sub).Error; err != nil {
		respondFetchErr(w, err)
		return
	}

	sub.Name = req.Name
	sub.Price = req.Price
	if err := h.db.WithContext(r.Context()).Save(&sub).Error; err != nil {
		serverError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sub)
}

// DeleteSub removes a sub-product.
func (h *ProductHandler) DeleteSub(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid_id")
		return
	}
	var sub models.SubProduct
	if err := h.db.WithContext(r.Context()).
		Where("id = ? AND user_id = ?", id, userID).First(&sub).Error; err != nil {
		respondFetchErr(w, err)
		return
	}
	if err := h.db.WithContext(r.Context()).Delete(&sub).Error; err != nil {
		serverError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}
