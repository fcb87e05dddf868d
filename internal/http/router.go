package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/coinbag/internal/http/auth"
	"github.com/MrJamesThe3rd/coinbag/internal/http/insights"
	"github.com/MrJamesThe3rd/coinbag/internal/http/portfolio"
	"github.com/MrJamesThe3rd/coinbag/internal/http/refresh"
	"github.com/MrJamesThe3rd/coinbag/internal/http/transaction"
)

type Options struct {
	AllowedOrigins []string
	// Verifier enables bearer auth on /api/v1 when set.
	Verifier *auth.Verifier
	// Portfolio mounts /api/v1/portfolio when set.
	Portfolio *portfolio.Handler
}

func New(
	transactionsV1 *transaction.Handler,
	refreshV1 *refresh.Handler,
	insightsV1 *insights.Handler,
	opts Options,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/api/v1", func(r chi.Router) {
		if opts.Verifier != nil {
			r.Use(opts.Verifier.Middleware)
		}

		r.Route("/transactions", transactionsV1.Routes)
		r.Route("/sync", refreshV1.Routes)
		r.Route("/insights", insightsV1.Routes)

		if opts.Portfolio != nil {
			r.Route("/portfolio", opts.Portfolio.Routes)
		}
	})

	return router
}
