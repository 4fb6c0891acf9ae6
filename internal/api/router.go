package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/otiai10/projectdeck/internal/auth"
	"github.com/otiai10/projectdeck/internal/billing"
	"github.com/otiai10/projectdeck/internal/config"
	"github.com/otiai10/projectdeck/internal/github"
	"github.com/otiai10/projectdeck/internal/metrics"
	"github.com/otiai10/projectdeck/internal/plan"
	"github.com/otiai10/projectdeck/internal/realtime"
	"github.com/otiai10/projectdeck/internal/session"
	"github.com/otiai10/projectdeck/internal/user"
	"github.com/otiai10/projectdeck/internal/version"
)

// RouterConfig holds dependencies for the router
type RouterConfig struct {
	Sessions      *session.Manager
	Identity      auth.IdentityProvider
	TokenVerifier auth.TokenVerifier
	Users         user.Repository
	Catalog       *plan.Catalog // nil uses the session manager's catalog
	GitHub        *github.Client
	Payments      billing.Processor
	WebhookSecret string // empty disables the Stripe webhook route
	Hub           *realtime.Hub
	Metrics       *metrics.Metrics // nil disables /metrics
	Security      config.SecurityConfig
	Clock         func() time.Time
}

// NewRouter creates the API router with all routes and the middleware stack
func NewRouter(cfg RouterConfig) http.Handler {
	h := NewHandler(cfg)
	mux := http.NewServeMux()

	// Public routes (no auth required)
	registerPublicRoutes(mux, h)

	// Stripe webhook route (no auth required - uses signature verification)
	if cfg.WebhookSecret != "" {
		registerStripeWebhookRoute(mux, h)
	}

	// Protected routes
	protectedMux := http.NewServeMux()
	registerAccountRoutes(protectedMux, h)
	registerProjectRoutes(protectedMux, h)
	registerGitHubRoutes(protectedMux, h)

	authHandler := auth.AuthMiddleware(cfg.TokenVerifier)(protectedMux)
	for _, prefix := range []string{
		"/api/auth/logout",
		"/api/me",
		"/api/subscription",
		"/api/checkout",
		"/api/gate",
		"/api/projects",
		"/api/projects/",
		"/api/workspace/",
		"/api/analytics",
		"/api/github/",
		"/api/events",
	} {
		mux.Handle(prefix, authHandler)
	}

	handler := applyMiddlewareChainWithConfig(mux, cfg.Security, cfg.Metrics)

	if cfg.Metrics == nil {
		return handler
	}
	// /metrics keeps the Prometheus content type
	root := http.NewServeMux()
	root.Handle("/metrics", cfg.Metrics.Handler())
	root.Handle("/", handler)
	return root
}

// registerPublicRoutes registers routes that don't require authentication
func registerPublicRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok", "hash": version.CommitHash}, http.StatusOK)
	})

	mux.HandleFunc("/api/plans", methods(map[string]http.HandlerFunc{
		http.MethodGet: h.ListPlans,
	}))

	mux.HandleFunc("/api/auth/signup", methods(map[string]http.HandlerFunc{
		http.MethodPost: h.SignUp,
	}))

	mux.HandleFunc("/api/auth/login", methods(map[string]http.HandlerFunc{
		http.MethodPost: h.Login,
	}))
}

// registerAccountRoutes registers identity, subscription and realtime routes
func registerAccountRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("/api/auth/logout", methods(map[string]http.HandlerFunc{
		http.MethodPost: h.Logout,
	}))

	mux.HandleFunc("/api/me", methods(map[string]http.HandlerFunc{
		http.MethodGet: h.Me,
	}))

	mux.HandleFunc("/api/subscription", methods(map[string]http.HandlerFunc{
		http.MethodGet: h.GetSubscription,
		http.MethodPut: h.UpdateSubscription,
	}))

	mux.HandleFunc("/api/checkout", methods(map[string]http.HandlerFunc{
		http.MethodPost: h.Checkout,
	}))

	mux.HandleFunc("/api/gate", methods(map[string]http.HandlerFunc{
		http.MethodGet: h.Gate,
	}))

	mux.HandleFunc("/api/analytics", methods(map[string]http.HandlerFunc{
		http.MethodGet: h.Analytics,
	}))

	mux.HandleFunc("/api/workspace/banner", methods(map[string]http.HandlerFunc{
		http.MethodDelete: h.DismissBanner,
	}))

	mux.HandleFunc("/api/events", methods(map[string]http.HandlerFunc{
		http.MethodGet: h.Events,
	}))
}

// registerProjectRoutes registers project resource routes
func registerProjectRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("/api/projects", methods(map[string]http.HandlerFunc{
		http.MethodGet:  h.ListProjects,
		http.MethodPost: h.CreateProject,
	}))

	mux.HandleFunc("/api/projects/export", methods(map[string]http.HandlerFunc{
		http.MethodGet: h.ExportProjects,
	}))

	mux.HandleFunc("/api/projects/demo", methods(map[string]http.HandlerFunc{
		http.MethodPost: h.AddDemoData,
	}))

	mux.HandleFunc("/api/projects/", func(w http.ResponseWriter, r *http.Request) {
		path := extractIDFromPath(r.URL.Path, "/api/projects/")
		id, sub, _ := strings.Cut(path, "/")
		if id == "" {
			writeError(w, "invalid path", http.StatusBadRequest)
			return
		}

		switch sub {
		case "":
		case "github":
			methods(map[string]http.HandlerFunc{
				http.MethodGet: func(w http.ResponseWriter, r *http.Request) { h.ProjectRepository(w, r, id) },
			})(w, r)
			return
		default:
			writeError(w, "invalid path", http.StatusBadRequest)
			return
		}

		switch r.Method {
		case http.MethodGet:
			h.GetProject(w, r, id)
		case http.MethodPut:
			h.UpdateProject(w, r, id)
		case http.MethodDelete:
			h.DeleteProject(w, r, id)
		case http.MethodOptions:
			w.WriteHeader(http.StatusNoContent)
		default:
			writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

// registerGitHubRoutes registers the gated GitHub pass-through routes
func registerGitHubRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("/api/github/trending", methods(map[string]http.HandlerFunc{
		http.MethodGet: h.Trending,
	}))

	mux.HandleFunc("/api/github/search", methods(map[string]http.HandlerFunc{
		http.MethodGet: h.Search,
	}))

	mux.HandleFunc("/api/github/languages", methods(map[string]http.HandlerFunc{
		http.MethodGet: h.LanguageStats,
	}))

	mux.HandleFunc("/api/github/users/", func(w http.ResponseWriter, r *http.Request) {
		login := extractIDFromPath(r.URL.Path, "/api/github/users/")
		if login == "" || strings.Contains(login, "/") {
			writeError(w, "invalid path", http.StatusBadRequest)
			return
		}
		methods(map[string]http.HandlerFunc{
			http.MethodGet: func(w http.ResponseWriter, r *http.Request) { h.UserProfile(w, r, login) },
		})(w, r)
	})

	mux.HandleFunc("/api/github/repos/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(extractIDFromPath(r.URL.Path, "/api/github/repos/"), "/")
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			writeError(w, "invalid path", http.StatusBadRequest)
			return
		}
		owner, name := parts[0], parts[1]

		var handle http.HandlerFunc
		switch {
		case len(parts) == 2:
			handle = func(w http.ResponseWriter, r *http.Request) { h.RepositoryDetail(w, r, owner, name) }
		case len(parts) == 3 && parts[2] == "languages":
			handle = func(w http.ResponseWriter, r *http.Request) { h.RepositoryLanguages(w, r, owner, name) }
		default:
			writeError(w, "invalid path", http.StatusBadRequest)
			return
		}
		methods(map[string]http.HandlerFunc{http.MethodGet: handle})(w, r)
	})
}

// registerStripeWebhookRoute registers the Stripe webhook route (no auth required)
func registerStripeWebhookRoute(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("/api/webhooks/stripe", methods(map[string]http.HandlerFunc{
		http.MethodPost: h.StripeWebhook,
	}))
}

// methods dispatches on the request method. OPTIONS answers 204 and
// anything unlisted answers 405.
func methods(handlers map[string]http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if handle, ok := handlers[r.Method]; ok {
			handle(w, r)
			return
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// applyMiddlewareChainWithConfig wraps a handler with the middleware stack using security config
func applyMiddlewareChainWithConfig(h http.Handler, securityCfg config.SecurityConfig, m *metrics.Metrics) http.Handler {
	middlewares := []Middleware{
		RecoveryMiddleware,
		LoggingMiddleware,
		m.Middleware,
		NewCORSMiddleware(securityCfg.CORSAllowedOrigins),
	}

	if securityCfg.RateLimitEnabled() {
		defaultRPM := securityCfg.RateLimitRequestsPerMinute

		projectRPM := 10
		if securityCfg.RateLimitProjectCreation > 0 {
			projectRPM = securityCfg.RateLimitProjectCreation
		}

		rateLimitConfig := EndpointRateLimitConfig{
			DefaultLimit: RateLimitConfig{
				RequestsPerMinute: defaultRPM,
				BurstSize:         defaultRPM,
			},
			EndpointLimits: map[string]RateLimitConfig{
				"POST /api/projects": {
					RequestsPerMinute: projectRPM,
					BurstSize:         projectRPM,
				},
				"POST /api/projects/demo": {
					RequestsPerMinute: projectRPM,
					BurstSize:         projectRPM,
				},
			},
		}
		middlewares = append(middlewares, NewEndpointRateLimitMiddleware(rateLimitConfig))
	}

	middlewares = append(middlewares, JSONContentTypeMiddleware)

	return Chain(middlewares...)(h)
}
