package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"logoserver/internal/generation"
)

type generateRequest struct {
	CompanyName string `json:"company_name"`
	Industry    string `json:"industry"`
	Style       string `json:"style"`
	ColorScheme string `json:"color_scheme"`
	Count       int    `json:"count"`
	Model       string `json:"model"`
	Background  string `json:"background"`
}

func (req *generateRequest) applyDefaults() {
	if req.CompanyName == "" {
		req.CompanyName = "Company"
	}
	if req.Style == "" {
		req.Style = "minimal"
	}
	if req.ColorScheme == "" {
		req.ColorScheme = "professional"
	}
	if req.Count <= 0 {
		req.Count = 3
	}
	if req.Model == "" {
		req.Model = "pollinations"
	}
	if req.Background == "" {
		req.Background = "natural"
	}
}

// GenerateFreeAI serves POST /generate-free-ai: quota admission, batch
// generation through the dispatcher, aggregated JSON response.
func (a *App) GenerateFreeAI(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.applyDefaults()

	ident := a.identity(r)
	result, err := a.Generator.Generate(r.Context(), generation.Request{
		CompanyName: req.CompanyName,
		Industry:    req.Industry,
		Style:       req.Style,
		ColorScheme: req.ColorScheme,
		Count:       req.Count,
		Model:       req.Model,
		Background:  req.Background,
	}, ident)

	if err != nil {
		var quotaErr *generation.QuotaError
		if errors.As(err, &quotaErr) {
			resp := map[string]any{
				"success":       false,
				"error":         "Daily limit reached",
				"message":       quotaErr.Message,
				"limit_reached": true,
				"need_signup":   quotaErr.NeedSignup,
			}
			if quotaErr.NeedSignup {
				resp["signup_url"] = signupURL
			} else {
				resp["upgrade_url"] = upgradeURL
			}
			a.json(w, http.StatusTooManyRequests, resp)
			return
		}
		var batchErr *generation.BatchError
		if errors.As(err, &batchErr) {
			a.json(w, http.StatusInternalServerError, map[string]any{
				"success": false,
				"error":   batchErr.Message,
				"details": batchErr.Details,
			})
			return
		}
		a.Logger.Error().Err(err).Msg("generation failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to generate images")
		return
	}

	resp := map[string]any{
		"success": true,
		"logos":   result.Logos,
		"message": result.Message,
	}
	if len(result.Errors) > 0 {
		resp["errors"] = result.Errors
	}
	a.json(w, http.StatusOK, resp)
}
