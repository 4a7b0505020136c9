package handlers

import (
	"encoding/json"
	"net/http"

	"logoserver/internal/account"
	"logoserver/internal/generation"
	"logoserver/internal/infra"
	"logoserver/internal/middleware"
	"logoserver/internal/quota"
)

const (
	signupURL  = "/signup"
	upgradeURL = "/pricing"
)

// App is the handler container; collaborators are injected once at startup so
// tests can swap in fakes.
type App struct {
	Logger      infra.Logger
	JWTSecret   string
	Accounts    account.Store
	Quotas      quota.Store
	Generator   *generation.Service
	PayPalEmail string
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, msg string) {
	a.json(w, code, map[string]any{"error": errCode, "message": msg})
}

func (a *App) currentUserEmail(r *http.Request) string {
	return middleware.UserEmailFromContext(r.Context())
}

// identity resolves the caller's quota identity from auth context and client info.
func (a *App) identity(r *http.Request) quota.Identity {
	ip := middleware.IPFromContext(r.Context())
	if ip == "" {
		ip = middleware.ClientIP(r)
	}
	ident := quota.ResolveIdentity(a.currentUserEmail(r), ip)
	ident.Country = middleware.CountryFromContext(r.Context())
	return ident
}

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}
