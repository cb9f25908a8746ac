package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/erpledger/internal/adapter/http/handler"
	"github.com/iho/erpledger/internal/adapter/http/middleware"
	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	CompanyHandler      *handler.CompanyHandler
	AccountHandler      *handler.AccountHandler
	JournalHandler      *handler.JournalHandler
	PaymentHandler      *handler.PaymentHandler
	InvoiceHandler      *handler.DocumentHandler
	BillHandler         *handler.DocumentHandler
	ContactHandler      *handler.ContactHandler
	ExchangeRateHandler *handler.ExchangeRateHandler
	LockHandler         *handler.LockHandler
	LedgerHandler       *handler.LedgerHandler
	AuditHandler        *handler.AuditHandler
	AuthHandler         *handler.AuthHandler
	HealthHandler       *handler.HealthHandler
	EventHandler        *handler.EventHandler

	// Authentication is enforced only when AuthEnabled is set.
	AuthEnabled   bool
	TokenVerifier middleware.TokenVerifier

	IdempotencyStore   usecase.IdempotencyStore
	IdempotencyTTL     time.Duration
	RateLimiter        *middleware.RateLimiter
	CORSAllowedOrigins []string
	MetricsHandler     http.Handler
	Logger             zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Metrics)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins(cfg.CORSAllowedOrigins),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.IdempotencyKeyHeader},
		ExposedHeaders:   []string{"X-Request-Id", middleware.IdempotencyReplayHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestInfo)

	// Ops endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	metrics := cfg.MetricsHandler
	if metrics == nil {
		metrics = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metrics)

	authenticate := passThrough
	if cfg.AuthEnabled && cfg.TokenVerifier != nil {
		authenticate = middleware.AuthMiddleware(cfg.TokenVerifier)
	}
	role := func(min domain.Role) func(http.Handler) http.Handler {
		if !cfg.AuthEnabled {
			return passThrough
		}
		return middleware.RequireRole(min)
	}
	viewer, operator, admin := role(domain.RoleViewer), role(domain.RoleOperator), role(domain.RoleAdmin)

	if cfg.EventHandler != nil {
		r.With(authenticate, viewer).Get("/ws/events", cfg.EventHandler.Stream)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authenticate)

		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger).Wrap)
		}

		if cfg.AuthHandler != nil {
			r.With(viewer).Get("/me", cfg.AuthHandler.GetCurrentUser)
		}

		// Companies
		r.Route("/companies", func(r chi.Router) {
			r.With(admin).Post("/", cfg.CompanyHandler.Create)

			r.Route("/{companyID}", func(r chi.Router) {
				r.Use(viewer)
				r.Get("/", cfg.CompanyHandler.Get)
				r.Get("/accounts", cfg.AccountHandler.List)
				r.Get("/journal-entries", cfg.JournalHandler.List)
				r.Get("/payments", cfg.PaymentHandler.List)
				r.Get("/invoices", cfg.InvoiceHandler.List)
				r.Get("/bills", cfg.BillHandler.List)
				r.Get("/contacts", cfg.ContactHandler.List)
				r.Get("/trial-balance", cfg.JournalHandler.TrialBalance)
				r.Get("/reconcile", cfg.LedgerHandler.ReconcileCompany)
			})
		})

		// Accounts
		r.Route("/accounts", func(r chi.Router) {
			r.With(admin).Post("/", cfg.AccountHandler.Create)
			r.With(viewer).Get("/", cfg.AccountHandler.List)
			r.With(viewer).Get("/{id}", cfg.AccountHandler.Get)
			r.With(viewer).Get("/{id}/lines", cfg.JournalHandler.ListAccountLines)
			r.With(viewer).Get("/{id}/reconcile", cfg.LedgerHandler.ReconcileAccount)
		})

		// Manual journal entries
		r.Route("/journal-entries", func(r chi.Router) {
			r.With(operator).Post("/", cfg.JournalHandler.Create)
			r.With(viewer).Get("/", cfg.JournalHandler.List)
			r.With(viewer).Get("/{id}", cfg.JournalHandler.Get)
			r.With(operator).Post("/{id}/reverse", cfg.JournalHandler.Reverse)
		})

		// Payments
		r.Route("/payments", func(r chi.Router) {
			r.With(operator).Post("/", cfg.PaymentHandler.Create)
			r.With(viewer).Get("/", cfg.PaymentHandler.List)
			r.With(viewer).Get("/{id}", cfg.PaymentHandler.Get)
			r.With(operator).Put("/{id}", cfg.PaymentHandler.Update)
			r.With(admin).Delete("/{id}", cfg.PaymentHandler.Delete)
			r.With(operator).Post("/{id}/void", cfg.PaymentHandler.Void)
		})

		// Invoices and bills
		documentRoutes := func(h *handler.DocumentHandler) func(chi.Router) {
			return func(r chi.Router) {
				r.With(operator).Post("/", h.Create)
				r.With(viewer).Get("/", h.List)
				r.With(viewer).Get("/{id}", h.Get)
				r.With(operator).Put("/{id}", h.Update)
				r.With(admin).Delete("/{id}", h.Delete)
				r.With(operator).Post("/{id}/void", h.Void)
			}
		}
		r.Route("/invoices", documentRoutes(cfg.InvoiceHandler))
		r.Route("/bills", documentRoutes(cfg.BillHandler))

		// Contacts
		r.Route("/contacts", func(r chi.Router) {
			r.With(operator).Post("/", cfg.ContactHandler.Create)
			r.With(viewer).Get("/", cfg.ContactHandler.List)
			r.With(viewer).Get("/{id}", cfg.ContactHandler.Get)
			r.With(operator).Put("/{id}/opening-balance", cfg.ContactHandler.UpdateOpeningBalance)
		})

		// Exchange rates
		r.Route("/exchange-rates", func(r chi.Router) {
			r.With(operator).Post("/", cfg.ExchangeRateHandler.Set)
			r.With(viewer).Get("/", cfg.ExchangeRateHandler.Get)
		})

		// Record locks
		r.Route("/locks/{resource}/{id}", func(r chi.Router) {
			r.With(operator).Post("/", cfg.LockHandler.Acquire)
			r.With(operator).Delete("/", cfg.LockHandler.Release)
			r.With(viewer).Get("/", cfg.LockHandler.Get)
		})

		// Checks and audit
		r.With(viewer).Get("/ledger/consistency", cfg.LedgerHandler.CheckConsistency)
		if cfg.AuditHandler != nil {
			r.With(admin).Get("/audit-logs", cfg.AuditHandler.List)
		}
	})

	return r
}

func passThrough(next http.Handler) http.Handler { return next }

func corsOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
