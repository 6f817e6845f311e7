package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/mailsmith/mailsmith/internal/config"
	"github.com/mailsmith/mailsmith/internal/handler"
	"github.com/mailsmith/mailsmith/internal/identity"
	"github.com/mailsmith/mailsmith/internal/metrics"
	"github.com/mailsmith/mailsmith/internal/middleware"
	"github.com/mailsmith/mailsmith/internal/quota"
	"github.com/mailsmith/mailsmith/internal/service"
	"github.com/mailsmith/mailsmith/internal/store"
	"github.com/mailsmith/mailsmith/internal/usagelog"
)

// RouterDeps carries everything the router needs. MetricsHandler and
// Publisher may be nil (metrics endpoint disabled, usage log disabled).
type RouterDeps struct {
	Config         *config.Config
	Logger         *slog.Logger
	Store          store.Store
	Registry       *identity.Registry
	Ledger         *quota.Ledger
	Mail           *service.MailService
	Metrics        metrics.Recorder
	MetricsHandler http.Handler
	Publisher      *usagelog.Publisher
}

// NewRouter assembles the chi router with the full middleware chain.
// Quota-gated routes run auth then quota before the handler; rate limit
// headers are attached to every response on that path.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Recoverer(deps.Logger))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment:      deps.Config.IsDevelopment(),
		MaxRequestBodySize: deps.Config.MaxRequestBodySize,
	}))
	r.Use(middleware.CORS)

	h := handler.New(deps.Config.ServiceName)
	healthHandler := handler.NewHealthHandler(deps.Store)
	registerHandler := handler.NewRegisterHandler(deps.Logger, deps.Registry, deps.Metrics)
	usageHandler := handler.NewUsageHandler(deps.Ledger)
	mailHandler := handler.NewMailHandler(deps.Logger, deps.Mail, deps.Publisher, deps.Metrics)

	r.Get("/", h.Root)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	authCfg := middleware.AuthConfig{
		Logger:   deps.Logger,
		Registry: deps.Registry,
		Metrics:  deps.Metrics,
	}
	quotaCfg := middleware.QuotaConfig{
		Logger:  deps.Logger,
		Ledger:  deps.Ledger,
		Metrics: deps.Metrics,
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", registerHandler.Register)

		// Authenticated, read-only.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(authCfg))
			r.Get("/usage", usageHandler.Usage)
		})

		// Authenticated and quota-gated.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(authCfg))
			r.Use(middleware.Quota(quotaCfg))
			r.Post("/generate", mailHandler.Generate)
			r.Post("/rewrite", mailHandler.Rewrite)
			r.Post("/summarize", mailHandler.Summarize)
		})
	})

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
