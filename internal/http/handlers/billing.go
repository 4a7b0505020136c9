package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"logoserver/internal/domain"
)

type checkoutRequest struct {
	Plan string `json:"plan"`
}

// CreateCheckoutSession serves POST /create-checkout-session: builds a PayPal
// payment link for the requested plan.
func (a *App) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	offer, ok := domain.PlanOffers[req.Plan]
	if !ok {
		a.error(w, http.StatusBadRequest, "unsupported_plan", "unknown plan: "+req.Plan)
		return
	}

	q := url.Values{}
	q.Set("cmd", "_xclick")
	q.Set("business", a.PayPalEmail)
	q.Set("item_name", offer.Name)
	q.Set("amount", offer.Price)
	q.Set("currency_code", "USD")
	q.Set("custom", req.Plan)
	q.Set("return", "/paypal-success?plan="+req.Plan)

	a.json(w, http.StatusOK, map[string]any{
		"checkout_url": "https://www.paypal.com/cgi-bin/webscr?" + q.Encode(),
		"plan":         req.Plan,
		"offer":        offer,
	})
}

// PayPalSuccess serves GET /paypal-success for an authenticated user,
// applying the purchased plan to the account.
func (a *App) PayPalSuccess(w http.ResponseWriter, r *http.Request) {
	email := a.currentUserEmail(r)
	if email == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	plan := domain.UserPlan(r.URL.Query().Get("plan"))
	if !plan.Valid() || plan == domain.UserPlanFree {
		a.error(w, http.StatusBadRequest, "unsupported_plan", "unknown plan: "+string(plan))
		return
	}
	subscriptionID := r.URL.Query().Get("tx")

	if err := a.Accounts.UpdatePlan(r.Context(), email, plan, subscriptionID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "account not found")
			return
		}
		a.Logger.Error().Err(err).Str("email", email).Str("plan", string(plan)).Msg("plan update failed")
		a.error(w, http.StatusInternalServerError, "internal", "could not update plan")
		return
	}

	user, err := a.Accounts.Get(r.Context(), email)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "could not load account")
		return
	}

	token, err := a.issueToken(user.Email, user.Plan)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "could not refresh session")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   token,
		"user":    userPayload(user),
	})
}
