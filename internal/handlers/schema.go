package handlers

import (
	"net/http"

	"github.com/davrd/invoicery/auth"
	"github.com/davrd/invoicery/httpx"
	"github.com/davrd/invoicery/internal/models"
	"github.com/davrd/invoicery/validation"
	"gorm.io/gorm"
)

type SchemaHandler struct {
	db *gorm.DB
}

func NewSchemaHandler(db *gorm.DB) *SchemaHandler {
	return &SchemaHandler{db: db}
}

type schemaRequest struct {
	Name   string              `json:"name"`
	Fields models.SchemaFields `json:"fields"`
}

// field types the form builder knows how to render
var knownFieldTypes = map[string]bool{
	"text":   true,
	"number": true,
	"date":   true,
	"select": true,
}

func (req *schemaRequest) validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("name", req.Name, v)
	for i, f := range req.Fields {
		if f.Name == "" {
			v["fields"] = "field_name_required"
			break
		}
		if !knownFieldTypes[f.Type] {
			v["fields"] = "unknown_field_type"
			break
		}
		for j := 0; j < i; j++ {
			if req.Fields[j].Name == f.Name {
				v["fields"] = "duplicate_field_name"
			}
		}
	}
	return v
}

// List returns the user's invoice schemas.
func (h *SchemaHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	var schemas []models.InvoiceSchema
	err := h.db.WithContext(r.Context()).Where("user_id = ?", userID).
		Order("name").Find(&schemas).Error
	if err != nil {
		serverError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, schemas)
}

// Get returns one schema.
func (h *SchemaHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid_id")
		return
	}
	var schema models.InvoiceSchema
	if err := h.db.WithContext(r.Context()).
		Where("id = ? AND user_id = ?", id, userID).First(&schema).Error; err != nil {
		respondFetchErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, schema)
}

// Create stores a new named field layout.
func (h *SchemaHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	var req schemaRequest
	if err := httpx.Decode(r, &req); err != nil {
		badRequest(w, "invalid_json")
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}

	schema := models.InvoiceSchema{UserID: userID, Name: req.Name, Fields: req.Fields}
	if err := h.db.WithContext(r.Context()).Create(&schema).Error; err != nil {
		serverError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, schema)
}

// Update replaces a schema's name and field list.
func (h *SchemaHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid_id")
		return
	}
	var req schemaRequest
	if err := httpx.Decode(r, &req); err != nil {
		badRequest(w, "invalid_json")
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}

	var schema models.InvoiceSchema
	if err := h.db.WithContext(r.Context()).
		Where("id = ? AND user_id = ?", id, userID).First(&schema).Error; err != nil {
		respondFetchErr(w, err)
		return
	}

	schema.Name = req.Name
	schema.Fields = req.Fields
	if err := h.db.WithContext(r.Context()).Save(&schema).Error; err != nil {
		serverError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, schema)
}

// Delete removes a schema.
func (h *SchemaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid_id")
		return
	}
	var schema models.InvoiceSchema
	if err := h.db.WithContext(r.Context()).
		Where("id = ? AND user_id = ?", id, userID).First(&schema).Error; err != nil {
		respondFetchErr(w, err)
		return
	}
	if err := h.db.WithContext(r.Context()).Delete(&schema).Error; err != nil {
		serverError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}
