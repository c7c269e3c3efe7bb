// Package handlers contains the JSON API endpoints. Every handler scopes its
// queries to the session user and re-checks ownership on fetched rows before
// acting on them.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/davrd/invoicery/httpx"
	"github.com/davrd/invoicery/internal/policy"
	"gorm.io/gorm"
)

// pathID parses the {id} wildcard of the matched route.
func pathID(r *http.Request) (uint, error) {
	id64, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id64 == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id64), nil
}

func badRequest(w http.ResponseWriter, msg string) {
	httpx.JSONError(w, http.StatusBadRequest, msg, nil)
}

func notFound(w http.ResponseWriter) {
	httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
}

func serverError(w http.ResponseWriter, err error) {
	slog.Error("request failed", "error", err)
	httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
}

// respondFetchErr maps a gorm fetch error to 404 or 500.
func respondFetchErr(w http.ResponseWriter, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		notFound(w)
		return
	}
	serverError(w, err)
}

// ensureOwned re-checks a fetched row against the session user. Queries are
// already user-scoped; this catches a query that lost its scope. Failures look
// identical to a missing row.
func ensureOwned(w http.ResponseWriter, userID uint, resource any) bool {
	if !policy.Owns(userID, resource) {
		notFound(w)
		return false
	}
	return true
}
