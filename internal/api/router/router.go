package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/wolfman30/leadform/internal/http/middleware"
	"github.com/wolfman30/leadform/internal/leads"
	"github.com/wolfman30/leadform/internal/webform"
	"github.com/wolfman30/leadform/pkg/logging"
)

// ReadyFunc checks a dependency; a non-nil error marks the service unready.
type ReadyFunc func(ctx context.Context) error

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	LeadsHandler       *leads.Handler
	FormHandler        *webform.Handler
	MetricsHandler     http.Handler
	AdminAuthSecret    string
	CORSAllowedOrigins []string
	RateLimiter        *httpmiddleware.RateLimiter
	Ready              ReadyFunc
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	r.Group(func(public chi.Router) {
		public.Get("/health", health)
		public.Get("/ready", ready(cfg.Ready))
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.FormHandler != nil {
			// compression would break the upgrade, so the socket sits outside it
			public.Get("/ws/form", cfg.FormHandler.HandleWebSocket)
		}
	})

	if cfg.LeadsHandler != nil {
		r.Group(func(api chi.Router) {
			api.Use(middleware.Compress(5))
			if cfg.RateLimiter != nil {
				api.With(cfg.RateLimiter.Middleware).Post("/leads", cfg.LeadsHandler.CreateWebLead)
			} else {
				api.Post("/leads", cfg.LeadsHandler.CreateWebLead)
			}
		})

		// Admin routes are always mounted; AdminJWT rejects everything when
		// no secret is configured.
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(middleware.Compress(5))
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/leads", cfg.LeadsHandler.ListLeads)
		})
	}

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, http.StatusOK, map[string]string{"status": "ok"})
}

func ready(check ReadyFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check == nil {
			writeStatus(w, http.StatusOK, map[string]string{"status": "ready"})
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := check(ctx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}
		writeStatus(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeStatus(w http.ResponseWriter, status int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
