package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when neither the file nor the environment sets a value
const (
	DefaultAddr          = ":8080"
	DefaultDatabase      = "(default)"
	DefaultCheckoutDelay = 2 * time.Second
	DefaultGitHubTTL     = 5 * time.Minute
)

// Config represents the application configuration
type Config struct {
	API       APIConfig      `yaml:"api"`
	Store     *StoreConfig   `yaml:"store,omitempty"`
	Auth      *AuthConfig    `yaml:"auth,omitempty"`
	Billing   BillingConfig  `yaml:"billing"`
	GitHub    GitHubConfig   `yaml:"github"`
	Security  SecurityConfig `yaml:"security"`
	Metrics   MetricsConfig  `yaml:"metrics"`
	PlansFile string         `yaml:"plans_file,omitempty"` // YAML plan catalog; empty uses the built-in plans
}

// APIConfig represents the HTTP server configuration
type APIConfig struct {
	Addr string `yaml:"addr"`
}

// StoreConfig represents the Firestore configuration.
// A nil StoreConfig runs on in-memory repositories.
type StoreConfig struct {
	ProjectID   string `yaml:"project_id"`
	Database    string `yaml:"database,omitempty"`
	Credentials string `yaml:"credentials,omitempty"` // path to service account JSON
}

// AuthConfig represents the Firebase Auth configuration
type AuthConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ProjectID   string `yaml:"project_id"`
	Credentials string `yaml:"credentials,omitempty"`
	TenantID    string `yaml:"tenant_id,omitempty"`
	APIKey      string `yaml:"api_key,omitempty"` // Web API key for password sign-in
}

// BillingConfig represents the payment configuration.
// Without a secret key checkouts go through the mock processor.
type BillingConfig struct {
	SecretKey     string        `yaml:"secret_key,omitempty"`
	WebhookSecret string        `yaml:"webhook_secret,omitempty"`
	SuccessURL    string        `yaml:"success_url,omitempty"`
	CancelURL     string        `yaml:"cancel_url,omitempty"`
	CheckoutDelay time.Duration `yaml:"checkout_delay,omitempty"`
}

// UsesStripe reports whether real payments are configured
func (b BillingConfig) UsesStripe() bool {
	return b.SecretKey != ""
}

// GitHubConfig represents the GitHub API client configuration
type GitHubConfig struct {
	Token    string        `yaml:"token,omitempty"`
	BaseURL  string        `yaml:"base_url,omitempty"`
	CacheTTL time.Duration `yaml:"cache_ttl,omitempty"`
}

// SecurityConfig represents CORS, rate limiting and cookie settings
type SecurityConfig struct {
	CORSAllowedOrigins         []string `yaml:"cors_allowed_origins,omitempty"`
	RateLimitRequestsPerMinute int      `yaml:"rate_limit_rpm,omitempty"`         // 0 disables rate limiting
	RateLimitProjectCreation   int      `yaml:"rate_limit_project_rpm,omitempty"` // per minute, POST /api/projects
	SecureCookies              bool     `yaml:"secure_cookies"`
	AllowLocalURLs             bool     `yaml:"allow_local_urls"` // accept localhost repository URLs
}

// RateLimitEnabled reports whether requests are rate limited
func (s SecurityConfig) RateLimitEnabled() bool {
	return s.RateLimitRequestsPerMinute > 0
}

// MetricsConfig represents the Prometheus endpoint configuration
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads configuration from the specified YAML file.
// Environment variables override file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv builds the configuration from environment variables only
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if addr := os.Getenv("PROJECTDECK_API_ADDR"); addr != "" {
		c.API.Addr = addr
	} else if port := os.Getenv("PORT"); port != "" && c.API.Addr == "" {
		c.API.Addr = ":" + port
	}

	if projectID := os.Getenv("PROJECTDECK_FIRESTORE_PROJECT_ID"); projectID != "" {
		if c.Store == nil {
			c.Store = &StoreConfig{}
		}
		c.Store.ProjectID = projectID
	}
	if c.Store != nil {
		setString(&c.Store.Database, "PROJECTDECK_FIRESTORE_DATABASE")
		setString(&c.Store.Credentials, "GOOGLE_APPLICATION_CREDENTIALS")
	}

	enabled, err := envBool("PROJECTDECK_AUTH_ENABLED")
	if err != nil {
		return err
	}
	if enabled != nil {
		if c.Auth == nil {
			c.Auth = &AuthConfig{}
		}
		c.Auth.Enabled = *enabled
	}
	if c.Auth != nil {
		setString(&c.Auth.ProjectID, "PROJECTDECK_AUTH_PROJECT_ID")
		setString(&c.Auth.APIKey, "PROJECTDECK_AUTH_API_KEY")
		setString(&c.Auth.TenantID, "PROJECTDECK_AUTH_TENANT_ID")
		setString(&c.Auth.Credentials, "GOOGLE_APPLICATION_CREDENTIALS")
		if c.Auth.ProjectID == "" && c.Store != nil {
			c.Auth.ProjectID = c.Store.ProjectID
		}
	}

	setString(&c.Billing.SecretKey, "STRIPE_SECRET_KEY")
	setString(&c.Billing.WebhookSecret, "STRIPE_WEBHOOK_SECRET")
	setString(&c.Billing.SuccessURL, "PROJECTDECK_BILLING_SUCCESS_URL")
	setString(&c.Billing.CancelURL, "PROJECTDECK_BILLING_CANCEL_URL")
	if err := setDuration(&c.Billing.CheckoutDelay, "PROJECTDECK_CHECKOUT_DELAY"); err != nil {
		return err
	}

	setString(&c.GitHub.Token, "GITHUB_TOKEN")
	setString(&c.GitHub.BaseURL, "PROJECTDECK_GITHUB_BASE_URL")
	if err := setDuration(&c.GitHub.CacheTTL, "PROJECTDECK_GITHUB_CACHE_TTL"); err != nil {
		return err
	}

	if origins := os.Getenv("PROJECTDECK_CORS_ORIGINS"); origins != "" {
		c.Security.CORSAllowedOrigins = splitList(origins)
	}
	if err := setInt(&c.Security.RateLimitRequestsPerMinute, "PROJECTDECK_RATE_LIMIT_RPM"); err != nil {
		return err
	}
	if err := setInt(&c.Security.RateLimitProjectCreation, "PROJECTDECK_RATE_LIMIT_PROJECT_RPM"); err != nil {
		return err
	}
	if err := setBool(&c.Security.SecureCookies, "PROJECTDECK_SECURE_COOKIES"); err != nil {
		return err
	}
	if err := setBool(&c.Security.AllowLocalURLs, "PROJECTDECK_ALLOW_LOCAL_URLS"); err != nil {
		return err
	}

	if err := setBool(&c.Metrics.Enabled, "PROJECTDECK_METRICS_ENABLED"); err != nil {
		return err
	}
	setString(&c.PlansFile, "PROJECTDECK_PLANS_FILE")

	return nil
}

func (c *Config) applyDefaults() {
	if c.API.Addr == "" {
		c.API.Addr = DefaultAddr
	}
	if c.Store != nil && c.Store.Database == "" {
		c.Store.Database = DefaultDatabase
	}
	if c.Billing.CheckoutDelay == 0 {
		c.Billing.CheckoutDelay = DefaultCheckoutDelay
	}
	if c.GitHub.CacheTTL == 0 {
		c.GitHub.CacheTTL = DefaultGitHubTTL
	}
	if c.Security.RateLimitEnabled() && c.Security.RateLimitProjectCreation == 0 {
		c.Security.RateLimitProjectCreation = 10
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Store != nil && c.Store.ProjectID == "" {
		return fmt.Errorf("store.project_id is required")
	}

	if c.Auth != nil && c.Auth.Enabled {
		if c.Auth.ProjectID == "" {
			return fmt.Errorf("auth.project_id is required when auth is enabled")
		}
		if c.Auth.APIKey == "" {
			return fmt.Errorf("auth.api_key is required when auth is enabled")
		}
		if c.Store == nil {
			return fmt.Errorf("auth requires store configuration (Firestore)")
		}
	}

	if c.Billing.UsesStripe() {
		if c.Billing.WebhookSecret == "" {
			return fmt.Errorf("billing.webhook_secret is required with a Stripe secret key")
		}
		if c.Billing.SuccessURL == "" || c.Billing.CancelURL == "" {
			return fmt.Errorf("billing.success_url and billing.cancel_url are required with a Stripe secret key")
		}
	}
	if c.Billing.CheckoutDelay < 0 {
		return fmt.Errorf("billing.checkout_delay must not be negative")
	}

	if c.GitHub.CacheTTL < 0 {
		return fmt.Errorf("github.cache_ttl must not be negative")
	}

	if c.Security.RateLimitRequestsPerMinute < 0 || c.Security.RateLimitProjectCreation < 0 {
		return fmt.Errorf("rate limits must not be negative")
	}

	return nil
}

// UsesFirestore reports whether repositories are backed by Firestore
func (c *Config) UsesFirestore() bool {
	return c.Store != nil
}

// AuthEnabled reports whether Firebase Auth is configured and enabled
func (c *Config) AuthEnabled() bool {
	return c.Auth != nil && c.Auth.Enabled
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	b, err := envBool(key)
	if err != nil {
		return err
	}
	if b != nil {
		*dst = *b
	}
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}

func envBool(key string) (*bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return &b, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
