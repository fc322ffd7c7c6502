package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterConfig wires the handlers into a chi router.
type RouterConfig struct {
	RevertPath       string
	Auth             *APIKeyAuth
	CallbackAudience string
	// Validator overrides ID token validation; nil uses idtoken.Validate.
	Validator TokenValidator
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

func NewRouter(h *AccessHandler, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","service":"ou-toggle"}`))
	})

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.With(cfg.Auth.Middleware).Get("/toggle-access", h.ToggleAccess)

	// All methods reach the handler so it can answer 405 itself.
	r.With(CallbackAuthMiddleware(cfg.CallbackAudience, cfg.Validator)).
		HandleFunc(cfg.RevertPath, h.RevertOU)

	return r
}
