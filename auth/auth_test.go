package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func sessionRequest(t *testing.T, userID uint) *http.Request {
	t.Helper()
	rec := httptest.NewRecorder()
	CreateSession(rec, userID)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestSessionRoundTrip(t *testing.T) {
	req := sessionRequest(t, 42)
	uid, ok := ParseSession(req)
	if !ok || uid != 42 {
		t.Fatalf("ParseSession = (%d, %v), want (42, true)", uid, ok)
	}
}

func TestParseSessionRejectsTamperedCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "42.bogus-signature"})
	if _, ok := ParseSession(req); ok {
		t.Fatal("tampered session accepted")
	}
}

func TestParseSessionMissingCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := ParseSession(req); ok {
		t.Fatal("missing cookie accepted")
	}
}

func TestRequireAuthWithoutSession(t *testing.T) {
	handler := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler reached without auth")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestMiddlewareAndRequireAuth(t *testing.T) {
	called := false
	handler := Middleware(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		uid, ok := UserIDFromContext(r.Context())
		if !ok || uid != 7 {
			t.Fatalf("context uid = (%d, %v), want (7, true)", uid, ok)
		}
	})))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, sessionRequest(t, 7))
	if !called {
		t.Fatalf("handler not called, status %d", rec.Code)
	}
}

func TestRequireAuthVerifierRejects(t *testing.T) {
	SetUserVerifier(func(_ context.Context, _ uint) bool { return false })
	t.Cleanup(func() { SetUserVerifier(nil) })

	handler := Middleware(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler reached with rejected user")
	})))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, sessionRequest(t, 7))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestPasswordHashing(t *testing.T) {
	hashed, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword(hashed, "s3cret") {
		t.Fatal("correct password rejected")
	}
	if CheckPassword(hashed, "wrong") {
		t.Fatal("wrong password accepted")
	}
}
