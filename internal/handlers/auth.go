package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/davrd/invoicery/auth"
	"github.com/davrd/invoicery/httpx"
	"github.com/davrd/invoicery/internal/models"
	"github.com/davrd/invoicery/validation"
	"gorm.io/gorm"
)

type AuthHandler struct {
	db *gorm.DB
}

func NewAuthHandler(db *gorm.DB) *AuthHandler {
	return &AuthHandler{db: db}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Signup creates a user plus its searchable profile and opens a session.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := httpx.Decode(r, &req); err != nil {
		badRequest(w, "invalid_json")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	v := validation.Violations{}
	validation.Required("email", req.Email, v)
	validation.Email("email", req.Email, v)
	validation.Required("password", req.Password, v)
	if len(req.Password) < 8 && req.Password != "" {
		v["password"] = "too_short"
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}

	var taken int64
	if err := h.db.WithContext(r.Context()).Model(&models.User{}).
		Where("email = ?", req.Email).Count(&taken).Error; err != nil {
		serverError(w, err)
		return
	}
	if taken > 0 {
		httpx.JSONError(w, http.StatusConflict, "email_taken", nil)
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		serverError(w, err)
		return
	}

	user := models.User{Email: req.Email, Name: req.Name, Password: hashed}
	err = h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		profile := models.Profile{UserID: user.ID, Email: user.Email, Name: user.Name}
		return tx.Create(&profile).Error
	})
	if err != nil {
		serverError(w, err)
		return
	}

	auth.CreateSession(w, user.ID)
	httpx.JSON(w, http.StatusCreated, user)
}

// Login verifies credentials and opens a session. Unknown email and wrong
// password produce the same response.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := httpx.Decode(r, &req); err != nil {
		badRequest(w, "invalid_json")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	err := h.db.WithContext(r.Context()).Where("email = ?", req.Email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
			return
		}
		serverError(w, err)
		return
	}
	if !auth.CheckPassword(user.Password, req.Password) {
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}

	auth.CreateSession(w, user.ID)
	httpx.JSON(w, http.StatusOK, user)
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	var user models.User
	if err := h.db.WithContext(r.Context()).First(&user, userID).Error; err != nil {
		respondFetchErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}
