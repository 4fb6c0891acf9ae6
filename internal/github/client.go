package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultBaseURL is the public GitHub REST endpoint
	DefaultBaseURL = "https://api.github.com"

	// DefaultCacheTTL is how long a response is reused
	DefaultCacheTTL = 5 * time.Minute

	trendingPerPage    = 10
	languageStatsRepos = 5
	maxPerPage         = 100
)

// ErrEmptyQuery is returned by Search for a blank query
var ErrEmptyQuery = errors.New("search query is required")

// Client is a read-only GitHub REST client with a response cache.
// It is safe for concurrent use.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	cache   *cache.Cache
	now     func() time.Time

	mu   sync.RWMutex
	rate RateLimit
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL overrides the API endpoint
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithToken authenticates requests with a personal access token
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient sets the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithCacheTTL sets the response cache lifetime. Zero disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl <= 0 {
			c.cache = nil
			return
		}
		c.cache = cache.New(ttl, 2*ttl)
	}
}

// WithClock overrides the time source used for trending windows
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a Client
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		cache:   cache.New(DefaultCacheTTL, 2*DefaultCacheTTL),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RateLimit returns the quota reported by the most recent response
func (c *Client) RateLimit() RateLimit {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rate
}

// Trending returns the most starred repositories created within window,
// optionally restricted to language
func (c *Client) Trending(ctx context.Context, language string, window Window) ([]Repository, error) {
	since := window.Since(c.now().UTC()).Format("2006-01-02")
	q := "stars:>1 created:>" + since
	if language != "" {
		q += " language:" + language
	}
	return c.searchRepositories(ctx, q, trendingPerPage)
}

// Search returns repositories matching q, most starred first
func (c *Client) Search(ctx context.Context, q string, limit int) ([]Repository, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, ErrEmptyQuery
	}
	return c.searchRepositories(ctx, q, clampPerPage(limit, trendingPerPage))
}

func (c *Client) searchRepositories(ctx context.Context, q string, perPage int) ([]Repository, error) {
	query := url.Values{}
	query.Set("q", q)
	query.Set("sort", "stars")
	query.Set("order", "desc")
	query.Set("per_page", strconv.Itoa(perPage))

	var resp searchResponse
	if err := c.get(ctx, "/search/repositories", query, &resp); err != nil {
		return nil, err
	}
	if resp.Items == nil {
		return []Repository{}, nil
	}
	return resp.Items, nil
}

// Repository returns the details of owner/name
func (c *Client) Repository(ctx context.Context, owner, name string) (*Repository, error) {
	var repo Repository
	if err := c.get(ctx, repoPath(owner, name), nil, &repo); err != nil {
		return nil, err
	}
	return &repo, nil
}

// Languages returns the byte count per language of owner/name
func (c *Client) Languages(ctx context.Context, owner, name string) (Languages, error) {
	langs := Languages{}
	if err := c.get(ctx, repoPath(owner, name)+"/languages", nil, &langs); err != nil {
		return nil, err
	}
	return langs, nil
}

// Contributors returns the top contributors of owner/name
func (c *Client) Contributors(ctx context.Context, owner, name string, limit int) ([]Contributor, error) {
	query := url.Values{}
	query.Set("per_page", strconv.Itoa(clampPerPage(limit, 5)))

	var contributors []Contributor
	if err := c.get(ctx, repoPath(owner, name)+"/contributors", query, &contributors); err != nil {
		return nil, err
	}
	return contributors, nil
}

// UserProfile returns the public profile of login
func (c *Client) UserProfile(ctx context.Context, login string) (*User, error) {
	var u User
	if err := c.get(ctx, "/users/"+url.PathEscape(login), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UserRepositories returns the most recently updated repositories of login
func (c *Client) UserRepositories(ctx context.Context, login string, limit int) ([]Repository, error) {
	query := url.Values{}
	query.Set("sort", "updated")
	query.Set("per_page", strconv.Itoa(clampPerPage(limit, 10)))

	var repos []Repository
	if err := c.get(ctx, "/users/"+url.PathEscape(login)+"/repos", query, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

// LanguageStats sums the languages of the top weekly trending repositories.
// Repositories whose languages cannot be fetched are skipped.
func (c *Client) LanguageStats(ctx context.Context) (Languages, error) {
	repos, err := c.Trending(ctx, "", WindowWeekly)
	if err != nil {
		return nil, err
	}
	if len(repos) > languageStatsRepos {
		repos = repos[:languageStatsRepos]
	}

	var mu sync.Mutex
	stats := Languages{}

	g, gctx := errgroup.WithContext(ctx)
	for _, repo := range repos {
		g.Go(func() error {
			langs, err := c.Languages(gctx, repo.Owner.Login, repo.Name)
			if err != nil {
				log.Printf("Failed to get languages for %s: %v", repo.FullName, err)
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			for lang, bytes := range langs {
				stats[lang] += bytes
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

type cachedResponse struct {
	body []byte
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	if c.cache != nil {
		if hit, ok := c.cache.Get(target); ok {
			return decode(hit.(cachedResponse).body, out)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "projectdeck")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.recordRateLimit(resp.Header)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Status: statusText(resp)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := decode(body, out); err != nil {
		return err
	}

	if c.cache != nil {
		c.cache.Set(target, cachedResponse{body: body}, cache.DefaultExpiration)
	}
	return nil
}

func (c *Client) recordRateLimit(h http.Header) {
	remaining := h.Get("X-RateLimit-Remaining")
	reset := h.Get("X-RateLimit-Reset")
	if remaining == "" && reset == "" {
		return
	}

	var rl RateLimit
	rl.Remaining, _ = strconv.Atoi(remaining)
	if secs, err := strconv.ParseInt(reset, 10, 64); err == nil && secs > 0 {
		rl.Reset = time.Unix(secs, 0).UTC()
	}

	c.mu.Lock()
	c.rate = rl
	c.mu.Unlock()
}

func decode(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// statusText returns the reason phrase of resp, e.g. "Not Found"
func statusText(resp *http.Response) string {
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
}

func repoPath(owner, name string) string {
	return "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(name)
}

func clampPerPage(n, def int) int {
	if n <= 0 {
		return def
	}
	return min(n, maxPerPage)
}
