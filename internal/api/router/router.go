package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/chowjack2099/China-side-Execution/internal/http/middleware"
	"github.com/chowjack2099/China-side-Execution/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	LeadsHandler       http.Handler
	MetricsHandler     http.Handler
	StaticHandler      http.Handler
	CORSAllowedOrigins []string
	CORSDefaultOrigin  string

	// TrustProxyHeaders rewrites RemoteAddr from X-Forwarded-For/X-Real-IP.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxyHeaders bool

	// Limiter guards the intake routes; nil disables rate limiting.
	Limiter httpmiddleware.Limiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.LeadsHandler != nil {
		r.Route("/api", func(api chi.Router) {
			api.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins, cfg.CORSDefaultOrigin))
			api.Use(httpmiddleware.RateLimit(cfg.Limiter, cfg.Logger))
			api.Handle("/send", cfg.LeadsHandler)
			api.Handle("/lead", cfg.LeadsHandler)
		})
	}

	if cfg.StaticHandler != nil {
		r.Handle("/*", cfg.StaticHandler)
	}

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
