package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"logoserver/internal/http/handlers"
	"logoserver/internal/middleware"
)

// Options tunes the router without the handlers having to know about it.
type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	RateLimit      int // requests per minute per IP, 0 disables
	CountryLookup  middleware.CountryLookup
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.ClientInfo(opts.CountryLookup),
	)
	if opts.RateLimit > 0 {
		r.Use(middleware.RateLimit(opts.RateLimit, time.Minute))
	}

	r.Get("/healthz", app.Health)

	// Public catalog and status.
	r.Get("/api/models", app.Models)
	r.Get("/api/status", app.Status)
	r.Get("/styles", app.Styles)
	r.Get("/color-schemes", app.ColorSchemes)

	// Generation works anonymously; an attached token upgrades the quota tier.
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalAuthJWT(opts.JWTSecret))
		r.Post("/generate-free-ai", app.GenerateFreeAI)
	})

	// Accounts.
	r.Post("/signup", app.Signup)
	r.Post("/login", app.Login)
	r.Post("/create-checkout-session", app.CreateCheckoutSession)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(opts.JWTSecret))
		r.Get("/dashboard", app.Dashboard)
		r.Get("/paypal-success", app.PayPalSuccess)
	})

	return r
}
