package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/davrd/invoicery/auth"
	"github.com/davrd/invoicery/httpx"
	"github.com/davrd/invoicery/internal/models"
	"github.com/davrd/invoicery/validation"
	"gorm.io/gorm"
)

type TeamHandler struct {
	db *gorm.DB
}

func NewTeamHandler(db *gorm.DB) *TeamHandler {
	return &TeamHandler{db: db}
}

func (h *TeamHandler) profileOf(r *http.Request, userID uint) (*models.Profile, error) {
	var profile models.Profile
	err := h.db.WithContext(r.Context()).Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Mine returns the caller's team with members, or null when they have none.
func (h *TeamHandler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	profile, err := h.profileOf(r, userID)
	if err != nil {
		respondFetchErr(w, err)
		return
	}
	if profile.TeamID == nil {
		httpx.JSON(w, http.StatusOK, nil)
		return
	}
	var team models.Team
	if err := h.db.WithContext(r.Context()).Preload("Members").
		First(&team, *profile.TeamID).Error; err != nil {
		respondFetchErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, team)
}

type teamRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Create starts a new team owned by the caller, who joins it immediately.
// A user already on a team must leave it first.
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	var req teamRequest
	if err := httpx.Decode(r, &req); err != nil {
		badRequest(w, "invalid_json")
		return
	}
	v := validation.Violations{}
	validation.Required("name", req.Name, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}

	profile, err := h.profileOf(r, userID)
	if err != nil {
		respondFetchErr(w, err)
		return
	}
	if profile.TeamID != nil {
		httpx.JSONError(w, http.StatusConflict, "already_on_team", nil)
		return
	}

	team := models.Team{Name: req.Name, Description: req.Description, OwnerID: userID}
	err = h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&team).Error; err != nil {
			return err
		}
		return tx.Model(profile).Update("team_id", team.ID).Error
	})
	if err != nil {
		serverError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, team)
}

// Delete disbands a team. Only the owner may do this; members are released,
// their records untouched.
func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid_id")
		return
	}
	var team models.Team
	if err := h.db.WithContext(r.Context()).
		Where("id = ? AND owner_id = ?", id, userID).First(&team).Error; err != nil {
		respondFetchErr(w, err)
		return
	}
	err = h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Profile{}).Where("team_id = ?", team.ID).
			Update("team_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&team).Error
	})
	if err != nil {
		serverError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type memberRequest struct {
	Email string `json:"email"`
}

// AddMember puts the profile with the given email on the team. Owner only.
// A profile already on some team is rejected.
func (h *TeamHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid_id")
		return
	}
	var req memberRequest
	if err := httpx.Decode(r, &req); err != nil {
		badRequest(w, "invalid_json")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		badRequest(w, "email_required")
		return
	}

	var team models.Team
	if err := h.db.WithContext(r.Context()).
		Where("id = ? AND owner_id = ?", id, userID).First(&team).Error; err != nil {
		respondFetchErr(w, err)
		return
	}

	var member models.Profile
	err = h.db.WithContext(r.Context()).Where("email = ?", req.Email).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "profile_not_found", nil)
			return
		}
		serverError(w, err)
		return
	}
	if member.TeamID != nil {
		httpx.JSONError(w, http.StatusConflict, "already_on_team", nil)
		return
	}

	if err := h.db.WithContext(r.Context()).Model(&member).Update("team_id", team.ID).Error; err != nil {
		serverError(w, err)
		return
	}
	member.TeamID = &team.ID
	httpx.JSON(w, http.StatusOK, member)
}

// RemoveMember takes a profile off the team. The owner can remove anyone;
// a member can remove only themselves. The owner cannot leave, only disband.
func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid_id")
		return
	}
	profileID64, err := strconv.ParseUint(r.PathValue("profileID"), 10, 64)
	if err != nil || profileID64 == 0 {
		badRequest(w, "invalid_profile_id")
		return
	}

	var team models.Team
	if err := h.db.WithContext(r.Context()).First(&team, id).Error; err != nil {
		respondFetchErr(w, err)
		return
	}

	var member models.Profile
	if err := h.db.WithContext(r.Context()).
		Where("id = ? AND team_id = ?", uint(profileID64), team.ID).First(&member).Error; err != nil {
		respondFetchErr(w, err)
		return
	}

	if team.OwnerID != userID && member.UserID != userID {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	if member.UserID == team.OwnerID {
		httpx.JSONError(w, http.StatusConflict, "owner_cannot_leave", nil)
		return
	}

	if err := h.db.WithContext(r.Context()).Model(&member).Update("team_id", nil).Error; err != nil {
		serverError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// SearchProfiles finds profiles by email fragment for the invite picker.
func (h *TeamHandler) SearchProfiles(w http.ResponseWriter, r *http.Request) {
	query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("email")))
	if len(query) < 3 {
		badRequest(w, "query_too_short")
		return
	}
	var profiles []models.Profile
	err := h.db.WithContext(r.Context()).
		Where("email LIKE ?", "%"+query+"%").
		Order("email").Limit(10).Find(&profiles).Error
	if err != nil {
		serverError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, profiles)
}
