package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"logoserver/internal/domain"
	"logoserver/internal/middleware"
)

const tokenTTL = 24 * time.Hour

type signupRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func userPayload(u *domain.User) map[string]any {
	return map[string]any{
		"email":       u.Email,
		"plan":        string(u.Plan),
		"daily_limit": u.DailyLimit,
		"created_at":  u.CreatedAt,
	}
}

func (a *App) issueToken(email string, plan domain.UserPlan) (string, error) {
	return middleware.SignJWT(a.JWTSecret, middleware.TokenClaims{
		Email:    email,
		Plan:     string(plan),
		Exp:      time.Now().Add(tokenTTL).Unix(),
		Issuer:   "logoserver",
		Audience: "logoserver-web",
	})
}

// Signup serves POST /signup: creates a free-plan account and returns a token.
func (a *App) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	switch {
	case req.Email == "" || !strings.Contains(req.Email, "@"):
		a.error(w, http.StatusBadRequest, "bad_request", "a valid email is required")
		return
	case len(req.Password) < 6:
		a.error(w, http.StatusBadRequest, "bad_request", "password must be at least 6 characters")
		return
	case req.Password != req.ConfirmPassword:
		a.error(w, http.StatusBadRequest, "bad_request", "passwords do not match")
		return
	}

	user, err := a.Accounts.Create(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			a.error(w, http.StatusConflict, "email_taken", "an account with this email already exists")
			return
		}
		a.Logger.Error().Err(err).Str("email", req.Email).Msg("signup failed")
		a.error(w, http.StatusInternalServerError, "internal", "could not create account")
		return
	}

	token, err := a.issueToken(user.Email, user.Plan)
	if err != nil {
		a.Logger.Error().Err(err).Msg("token signing failed")
		a.error(w, http.StatusInternalServerError, "internal", "could not create session")
		return
	}
	a.json(w, http.StatusCreated, map[string]any{
		"success": true,
		"token":   token,
		"user":    userPayload(user),
	})
}

// Login serves POST /login.
func (a *App) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	ok, err := a.Accounts.Verify(r.Context(), req.Email, req.Password)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		a.Logger.Error().Err(err).Str("email", req.Email).Msg("login lookup failed")
		a.error(w, http.StatusInternalServerError, "internal", "could not verify credentials")
		return
	}
	if !ok {
		a.error(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
		return
	}

	user, err := a.Accounts.Get(r.Context(), req.Email)
	if err != nil {
		a.Logger.Error().Err(err).Str("email", req.Email).Msg("login lookup failed")
		a.error(w, http.StatusInternalServerError, "internal", "could not load account")
		return
	}

	token, err := a.issueToken(user.Email, user.Plan)
	if err != nil {
		a.Logger.Error().Err(err).Msg("token signing failed")
		a.error(w, http.StatusInternalServerError, "internal", "could not create session")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   token,
		"user":    userPayload(user),
	})
}
