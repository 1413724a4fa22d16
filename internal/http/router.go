package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/tripwise/internal/http/auth"
	"github.com/MrJamesThe3rd/tripwise/internal/http/export"
	"github.com/MrJamesThe3rd/tripwise/internal/http/policy"
	"github.com/MrJamesThe3rd/tripwise/internal/http/quote"
	"github.com/MrJamesThe3rd/tripwise/internal/http/transaction"
	"github.com/MrJamesThe3rd/tripwise/internal/http/wizard"
	"github.com/MrJamesThe3rd/tripwise/internal/metrics"
)

type Handlers struct {
	Auth         *auth.Handler
	Quote        *quote.Handler
	Wizard       *wizard.Handler
	Policies     *policy.Handler
	Transactions *transaction.Handler
	Export       *export.Handler
}

type Options struct {
	CORSOrigins []string
	Metrics     *metrics.Metrics
	// RequireAuth guards every route except login and quote.
	RequireAuth func(http.Handler) http.Handler
}

func New(opts Options, h Handlers) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(metrics.LatencyMiddleware(opts.Metrics))

	router.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Auth.Routes(r)
		})

		r.Route("/quote", h.Quote.Routes)

		r.Group(func(r chi.Router) {
			r.Use(opts.RequireAuth)

			r.Route("/wizard", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json", "multipart/form-data"))
				h.Wizard.Routes(r)
			})

			r.Route("/policies", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				h.Policies.Routes(r)
			})

			r.Route("/transactions", h.Transactions.Routes)

			r.Route("/export", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				h.Export.Routes(r)
			})
		})
	})

	return router
}
