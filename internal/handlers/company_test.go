package handlers

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/davrd/invoicery/internal/models"
)

func TestCompanyCreateAndList(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "a@test")
	h := NewCompanyHandler(db)

	rec := httptest.NewRecorder()
	h.Create(rec, request(t, user.ID, http.MethodPost, "/companies",
		map[string]string{"name": "Acme", "email": "billing@acme.test"}, nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created models.Company
	decodeBody(t, rec, &created)
	if created.UserID != user.ID {
		t.Fatalf("owner = %d, want %d", created.UserID, user.ID)
	}

	rec = httptest.NewRecorder()
	h.List(rec, request(t, user.ID, http.MethodGet, "/companies", nil, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var companies []models.Company
	decodeBody(t, rec, &companies)
	if len(companies) != 1 || companies[0].Name != "Acme" {
		t.Fatalf("companies = %+v", companies)
	}
}

func TestCompanyValidation(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "a@test")
	h := NewCompanyHandler(db)

	rec := httptest.NewRecorder()
	h.Create(rec, request(t, user.ID, http.MethodPost, "/companies",
		map[string]string{"name": "", "email": "not-an-email"}, nil))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}

	var count int64
	db.Model(&models.Company{}).Count(&count)
	if count != 0 {
		t.Fatal("invalid company was persisted")
	}
}

func TestCompanyTenantIsolation(t *testing.T) {
	db := setupTestDB(t)
	owner := seedUser(t, db, "owner@test")
	intruder := seedUser(t, db, "intruder@test")
	company := seedCompany(t, db, owner.ID, "Private Co")
	h := NewCompanyHandler(db)
	idStr := strconv.FormatUint(uint64(company.ID), 10)

	rec := httptest.NewRecorder()
	h.Get(rec, request(t, intruder.ID, http.MethodGet, "/companies/"+idStr, nil,
		map[string]string{"id": idStr}))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("cross-user get status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Delete(rec, request(t, intruder.ID, http.MethodDelete, "/companies/"+idStr, nil,
		map[string]string{"id": idStr}))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("cross-user delete status = %d, want 404", rec.Code)
	}

	var count int64
	db.Model(&models.Company{}).Count(&count)
	if count != 1 {
		t.Fatal("company was deleted by another user")
	}
}

func TestCompanyUpdateAndDelete(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "a@test")
	company := seedCompany(t, db, user.ID, "Before")
	h := NewCompanyHandler(db)
	idStr := strconv.FormatUint(uint64(company.ID), 10)

	rec := httptest.NewRecorder()
	h.Update(rec, request(t, user.ID, http.MethodPut, "/companies/"+idStr,
		map[string]string{"name": "After", "tax_id": "FR-123"},
		map[string]string{"id": idStr}))
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body.String())
	}
	var updated models.Company
	decodeBody(t, rec, &updated)
	if updated.Name != "After" || updated.TaxID != "FR-123" {
		t.Fatalf("updated = %+v", updated)
	}

	rec = httptest.NewRecorder()
	h.Delete(rec, request(t, user.ID, http.MethodDelete, "/companies/"+idStr, nil,
		map[string]string{"id": idStr}))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Get(rec, request(t, user.ID, http.MethodGet, "/companies/"+idStr, nil,
		map[string]string{"id": idStr}))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", rec.Code)
	}
}
