package handlers

import (
	"net/http"

	"logoserver/internal/domain"
)

// Models serves GET /api/models with the public generation catalog.
func (a *App) Models(w http.ResponseWriter, r *http.Request) {
	recommended := ""
	for _, m := range domain.Models {
		if m.Recommended {
			recommended = m.ID
			break
		}
	}
	a.json(w, http.StatusOK, map[string]any{
		"models":      domain.Models,
		"recommended": recommended,
	})
}

// Status serves GET /api/status, a static capability snapshot for clients.
func (a *App) Status(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"status":             "online",
		"free_generation":    true,
		"signup_required":    false,
		"models_available":   len(domain.Models),
		"max_batch_size":     10,
		"supports_fallback":  true,
		"supports_anonymous": true,
	})
}

// Styles serves GET /styles.
func (a *App) Styles(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"styles": domain.LogoStyles})
}

// ColorSchemes serves GET /color-schemes.
func (a *App) ColorSchemes(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"color_schemes": domain.ColorSchemes})
}
