// Package app wires the configured services into the HTTP application.
package app

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/otiai10/projectdeck/internal/api"
	"github.com/otiai10/projectdeck/internal/auth"
	"github.com/otiai10/projectdeck/internal/billing"
	"github.com/otiai10/projectdeck/internal/config"
	"github.com/otiai10/projectdeck/internal/github"
	"github.com/otiai10/projectdeck/internal/metrics"
	"github.com/otiai10/projectdeck/internal/plan"
	"github.com/otiai10/projectdeck/internal/project"
	"github.com/otiai10/projectdeck/internal/quota"
	"github.com/otiai10/projectdeck/internal/realtime"
	"github.com/otiai10/projectdeck/internal/session"
	"github.com/otiai10/projectdeck/internal/store"
	"github.com/otiai10/projectdeck/internal/subscription"
	"github.com/otiai10/projectdeck/internal/user"
)

// Demo account created in test mode
const (
	DemoEmail    = "demo@projectdeck.local"
	DemoPassword = "demo-password"
)

// shutdownTimeout bounds the graceful HTTP shutdown
const shutdownTimeout = 10 * time.Second

// App is the main application orchestrator.
// It owns the store client, the session manager and the HTTP server.
type App struct {
	config   *config.Config
	testMode bool

	staticFS   fs.FS
	staticRoot string

	firestore *store.FirestoreClient
	sessions  *session.Manager
	hub       *realtime.Hub
	metrics   *metrics.Metrics
	handler   http.Handler
	server    *api.Server
}

// Option is a functional option for configuring the App.
type Option func(*App)

// WithTestMode runs on in-memory repositories and the local identity
// provider, with a demo account holding the sample projects.
func WithTestMode() Option {
	return func(a *App) {
		a.testMode = true
	}
}

// WithStaticFiles serves the frontend from fsys (rooted at root) for every
// non-API path
func WithStaticFiles(fsys fs.FS, root string) Option {
	return func(a *App) {
		a.staticFS = fsys
		a.staticRoot = root
	}
}

// New builds the application from cfg. Close releases what it opened.
//
// Example:
//
//	cfg, err := config.LoadFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	application, err := app.New(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer application.Close()
//	if err := application.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{config: cfg}
	for _, opt := range opts {
		opt(a)
	}

	catalog, err := loadCatalog(cfg.PlansFile)
	if err != nil {
		return nil, err
	}

	repos, err := a.openRepositories(ctx)
	if err != nil {
		return nil, err
	}

	identity, err := a.openIdentity(ctx, repos)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.hub = realtime.NewHub(originChecker(cfg.Security.CORSAllowedOrigins))
	if cfg.Metrics.Enabled {
		a.metrics = metrics.New()
	}

	a.sessions = session.NewManager(session.Deps{
		Subscriptions: repos.subscriptions,
		Projects:      repos.projects,
		Catalog:       catalog,
		Checker:       quota.NewChecker(repos.projects, quota.NewMeter()),
		Validator:     project.NewValidator(cfg.Security.AllowLocalURLs),
		Notifier:      a.hub,
	})

	a.metrics.Gauge("active_sessions", "Number of signed-in sessions.", func() float64 {
		return float64(a.sessions.Len())
	})
	a.metrics.Gauge("websocket_connections", "Number of open change feed connections.", func() float64 {
		return float64(a.hub.Len())
	})

	router := api.NewRouter(api.RouterConfig{
		Sessions:      a.sessions,
		Identity:      identity,
		TokenVerifier: identity,
		Users:         repos.users,
		Catalog:       catalog,
		GitHub:        newGitHubClient(cfg.GitHub),
		Payments:      newProcessor(cfg.Billing),
		WebhookSecret: cfg.Billing.WebhookSecret,
		Hub:           a.hub,
		Metrics:       a.metrics,
		Security:      cfg.Security,
	})

	var static *api.StaticFileServer
	if a.staticFS != nil {
		static = api.NewStaticFileServer(a.staticFS, a.staticRoot)
		log.Println("Serving embedded frontend")
	}
	a.handler = api.WithStaticFiles(router, static, identity)
	a.server = api.NewServer(cfg.API.Addr, a.handler)

	return a, nil
}

// Handler returns the root HTTP handler
func (a *App) Handler() http.Handler {
	return a.handler
}

// Sessions returns the session manager
func (a *App) Sessions() *session.Manager {
	return a.sessions
}

// Run serves HTTP until ctx is cancelled, then shuts the server down
// gracefully and disconnects the change feed.
func (a *App) Run(ctx context.Context) error {
	log.Printf("Starting projectdeck API server on %s", a.server.Addr())

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	a.hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down API server: %w", err)
	}
	log.Println("API server stopped")
	return nil
}

// Close releases the store client
func (a *App) Close() {
	if a.firestore == nil {
		return
	}
	if err := a.firestore.Close(); err != nil {
		log.Printf("Failed to close Firestore client: %v", err)
	}
	a.firestore = nil
}

type repositories struct {
	subscriptions subscription.Repository
	projects      project.Repository
	users         user.Repository
	memProjects   *project.MemoryRepository // set when running in memory
}

// openRepositories connects Firestore when configured, otherwise keeps
// everything in memory
func (a *App) openRepositories(ctx context.Context) (repositories, error) {
	cfg := a.config
	if a.testMode || !cfg.UsesFirestore() {
		log.Println("Using in-memory repositories; data is lost on restart")
		projects := project.NewMemoryRepository()
		return repositories{
			subscriptions: subscription.NewMemoryRepository(),
			projects:      projects,
			users:         user.NewMemoryRepository(),
			memProjects:   projects,
		}, nil
	}

	client, err := store.NewFirestoreClient(ctx, store.FirestoreConfig{
		ProjectID:   cfg.Store.ProjectID,
		Database:    cfg.Store.Database,
		Credentials: cfg.Store.Credentials,
	})
	if err != nil {
		return repositories{}, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	a.firestore = client
	log.Printf("Using Firestore project %s, %s", cfg.Store.ProjectID, client)

	return repositories{
		subscriptions: subscription.NewFirestoreRepository(client.Client()),
		projects:      project.NewFirestoreRepository(client.Client()),
		users:         user.NewFirestoreRepository(client.Client()),
	}, nil
}

// identityProvider is what the router needs from an identity backend
type identityProvider interface {
	auth.IdentityProvider
	auth.TokenVerifier
}

// openIdentity returns Firebase when auth is enabled outside test mode,
// otherwise the local provider. Test mode also seeds the demo account.
func (a *App) openIdentity(ctx context.Context, repos repositories) (identityProvider, error) {
	cfg := a.config
	if cfg.AuthEnabled() && !a.testMode {
		tenantInfo := ""
		if cfg.Auth.TenantID != "" {
			tenantInfo = ", tenant: " + cfg.Auth.TenantID
		}
		log.Printf("Initializing Firebase Auth for project: %s%s", cfg.Auth.ProjectID, tenantInfo)

		fb, err := auth.NewFirebase(ctx, auth.FirebaseConfig{
			ProjectID:       cfg.Auth.ProjectID,
			CredentialsPath: cfg.Auth.Credentials,
			TenantID:        cfg.Auth.TenantID,
			APIKey:          cfg.Auth.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Firebase Auth: %w", err)
		}
		return fb, nil
	}

	log.Println("Using local identity provider; accounts are kept in memory")
	local := auth.NewLocalIdentityProvider()
	if a.testMode {
		if err := seedDemoAccount(ctx, local, repos); err != nil {
			return nil, err
		}
	}
	return local, nil
}

// seedDemoAccount creates the demo user with the sample projects
func seedDemoAccount(ctx context.Context, identity *auth.LocalIdentityProvider, repos repositories) error {
	demo, err := identity.SignUp(ctx, auth.Credentials{
		Email:       DemoEmail,
		Password:    DemoPassword,
		DisplayName: "Demo User",
	})
	if err != nil {
		return fmt.Errorf("failed to create demo account: %w", err)
	}
	if _, err := repos.users.Upsert(ctx, user.User{
		UID:         demo.UID,
		Email:       demo.Email,
		DisplayName: demo.DisplayName,
		CreatedAt:   time.Now(),
	}); err != nil {
		return fmt.Errorf("failed to create demo profile: %w", err)
	}
	if repos.memProjects != nil {
		project.SeedSamples(repos.memProjects, demo.UID)
	}
	log.Printf("Demo account: %s / %s", DemoEmail, DemoPassword)
	return nil
}

func loadCatalog(path string) (*plan.Catalog, error) {
	if path == "" {
		return plan.DefaultCatalog(), nil
	}
	catalog, err := plan.LoadCatalogFile(path)
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded %d plans from %s", catalog.Len(), path)
	return catalog, nil
}

func newGitHubClient(cfg config.GitHubConfig) *github.Client {
	opts := []github.Option{github.WithCacheTTL(cfg.CacheTTL)}
	if cfg.BaseURL != "" {
		opts = append(opts, github.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Token != "" {
		opts = append(opts, github.WithToken(cfg.Token))
	} else {
		log.Println("GITHUB_TOKEN is not set; GitHub allows 60 unauthenticated requests per hour")
	}
	return github.NewClient(opts...)
}

func newProcessor(cfg config.BillingConfig) billing.Processor {
	if cfg.UsesStripe() {
		log.Println("Using Stripe Checkout for payments")
		return billing.NewStripeProcessor(cfg.SecretKey, cfg.SuccessURL, cfg.CancelURL)
	}
	log.Printf("Using mock payments (delay %v)", cfg.CheckoutDelay)
	return billing.NewMockProcessor(cfg.CheckoutDelay)
}

// originChecker allows websocket connections from the CORS origins.
// With none configured the hub only accepts same-origin requests.
func originChecker(origins []string) func(r *http.Request) bool {
	if len(origins) == 0 {
		return nil
	}
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[strings.TrimRight(o, "/")] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if allowed[origin] {
			return true
		}
		// Same-origin requests from the embedded frontend
		return strings.TrimPrefix(strings.TrimPrefix(origin, "https://"), "http://") == r.Host
	}
}
