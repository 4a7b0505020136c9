package handlers

import (
	"errors"
	"net/http"

	"logoserver/internal/domain"
	"logoserver/internal/quota"
)

// Dashboard serves GET /dashboard for an authenticated user: account details
// plus today's consumed quota.
func (a *App) Dashboard(w http.ResponseWriter, r *http.Request) {
	email := a.currentUserEmail(r)
	if email == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	user, err := a.Accounts.Get(r.Context(), email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "account not found")
			return
		}
		a.Logger.Error().Err(err).Str("email", email).Msg("dashboard lookup failed")
		a.error(w, http.StatusInternalServerError, "internal", "could not load account")
		return
	}

	used, err := a.Quotas.Usage(quota.ResolveIdentity(email, "").Key)
	if err != nil {
		a.Logger.Warn().Err(err).Str("email", email).Msg("usage lookup failed")
		used = 0
	}

	remaining := -1
	if !user.IsUnlimited() {
		remaining = user.DailyLimit - used
		if remaining < 0 {
			remaining = 0
		}
	}

	a.json(w, http.StatusOK, map[string]any{
		"user":       userPayload(user),
		"used_today": used,
		"remaining":  remaining,
	})
}
