package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/vncsmyrnk/govledger/internal/core/ports"
)

type RouterConfig struct {
	Auth ports.AuthService
	// Metrics serves /metrics and instruments requests when set.
	Metrics interface {
		Handler() http.Handler
		Middleware(http.Handler) http.Handler
	}
}

func NewHandler(daoHandler *DaoHandler, proposalHandler *ProposalHandler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	requireAuth := AuthMiddleware(cfg.Auth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/daos", func(r chi.Router) {
			r.With(requireAuth).Post("/", daoHandler.Initialize)

			r.Route("/{dao}", func(r chi.Router) {
				r.Get("/", daoHandler.GetDao)
				r.Get("/proposals", daoHandler.ListProposals)
				r.With(requireAuth).Post("/proposals", daoHandler.CreateProposal)
				r.Get("/rewards/{user}", daoHandler.GetRewardAccount)
			})
		})

		r.Route("/proposals/{proposal}", func(r chi.Router) {
			r.Get("/", proposalHandler.GetProposal)
			r.With(requireAuth).Post("/votes", proposalHandler.Vote)
			r.Get("/voters/{user}", proposalHandler.GetVoter)
		})
	})

	return otelhttp.NewHandler(r, "govledger")
}
