package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func signTestToken(t *testing.T, secret, email string, exp int64) string {
	t.Helper()
	token, err := SignJWT(secret, TokenClaims{Email: email, Plan: "free", Exp: exp})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	return token
}

func TestSignAndVerifyJWT(t *testing.T) {
	token := signTestToken(t, "s3cret", "a@b.com", time.Now().Add(time.Hour).Unix())

	claims, err := VerifyJWT("s3cret", token)
	if err != nil {
		t.Fatalf("VerifyJWT: %v", err)
	}
	if claims.Email != "a@b.com" {
		t.Fatalf("email = %q, want a@b.com", claims.Email)
	}
}

func TestVerifyJWTRejects(t *testing.T) {
	valid := signTestToken(t, "s3cret", "a@b.com", time.Now().Add(time.Hour).Unix())
	expired := signTestToken(t, "s3cret", "a@b.com", time.Now().Add(-time.Minute).Unix())

	tests := []struct {
		name   string
		secret string
		token  string
	}{
		{"wrong secret", "other", valid},
		{"expired", "s3cret", expired},
		{"malformed", "s3cret", "not.a.token.at.all"},
		{"tampered payload", "s3cret", valid[:len(valid)-20] + "AAAAAAAAAAAAAAAAAAAA"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := VerifyJWT(tc.secret, tc.token); err == nil {
				t.Fatal("VerifyJWT err = nil, want rejection")
			}
		})
	}
}

func TestAuthJWTRequiresToken(t *testing.T) {
	handler := AuthJWT("s3cret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status without token = %d, want 401", rec.Code)
	}
}

func TestAuthJWTStoresEmail(t *testing.T) {
	var gotEmail string
	handler := AuthJWT("s3cret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEmail = UserEmailFromContext(r.Context())
	}))

	token := signTestToken(t, "s3cret", "a@b.com", time.Now().Add(time.Hour).Unix())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotEmail != "a@b.com" {
		t.Fatalf("email in context = %q, want a@b.com", gotEmail)
	}
}

func TestOptionalAuthJWT(t *testing.T) {
	var gotEmail string
	handler := OptionalAuthJWT("s3cret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEmail = UserEmailFromContext(r.Context())
	}))

	// Anonymous passes through with no email.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("anonymous status = %d, want 200", rec.Code)
	}
	if gotEmail != "" {
		t.Fatalf("anonymous email = %q, want empty", gotEmail)
	}

	// A garbage token is treated as anonymous, not rejected.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("garbage token status = %d, want 200", rec.Code)
	}

	// A valid token attaches the email.
	token := signTestToken(t, "s3cret", "a@b.com", time.Now().Add(time.Hour).Unix())
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if gotEmail != "a@b.com" {
		t.Fatalf("email = %q, want a@b.com", gotEmail)
	}
}
