package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/cardmint/cardmint/internal/authz"
	"github.com/cardmint/cardmint/internal/cards"
	"github.com/cardmint/cardmint/internal/observability"
	"github.com/cardmint/cardmint/internal/shared"
	"github.com/cardmint/cardmint/internal/users"
	"github.com/cardmint/cardmint/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CardsHandler   *cards.Handler
	UsersHandler   *users.Handler
	JobsHandler    *jobs.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with CardMint defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		params.CardsHandler.MountRoutes(r)
		params.UsersHandler.MountRoutes(r)
		if params.JobsHandler != nil {
			gate := authz.Middleware{Logger: params.Logger}
			r.Route("/admin/jobs", func(r chi.Router) {
				r.Use(gate.RequireRole(shared.RoleAdmin))
				params.JobsHandler.MountRoutes(r)
			})
		}
	})

	return r
}
