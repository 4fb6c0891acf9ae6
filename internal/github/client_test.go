package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) (*Client, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	opts = append([]Option{WithBaseURL(srv.URL), WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewClient(opts...), &calls
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-RateLimit-Remaining", "42")
	w.Header().Set("X-RateLimit-Reset", "1792000000")
	_ = json.NewEncoder(w).Encode(v)
}

func TestWindow(t *testing.T) {
	assert.Equal(t, WindowDaily, ParseWindow(""))
	assert.Equal(t, WindowDaily, ParseWindow("yearly"))
	assert.Equal(t, WindowWeekly, ParseWindow("weekly"))
	assert.Equal(t, WindowMonthly, ParseWindow("monthly"))

	assert.Equal(t, "2026-10-14", WindowDaily.Since(fixedNow).Format("2006-01-02"))
	assert.Equal(t, "2026-10-08", WindowWeekly.Since(fixedNow).Format("2006-01-02"))
	assert.Equal(t, "2026-09-15", WindowMonthly.Since(fixedNow).Format("2006-01-02"))
}

func TestClient_Trending(t *testing.T) {
	var gotQuery, gotSort, gotPerPage, gotAccept string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/repositories", r.URL.Path)
		gotQuery = r.URL.Query().Get("q")
		gotSort = r.URL.Query().Get("sort")
		gotPerPage = r.URL.Query().Get("per_page")
		gotAccept = r.Header.Get("Accept")
		writeJSON(w, map[string]any{
			"total_count": 1,
			"items": []map[string]any{
				{"name": "deck", "full_name": "octo/deck", "stargazers_count": 99, "owner": map[string]any{"login": "octo"}},
			},
		})
	})

	repos, err := client.Trending(context.Background(), "go", WindowWeekly)
	require.NoError(t, err)
	require.Len(t, repos, 1)

	assert.Equal(t, "stars:>1 created:>2026-10-08 language:go", gotQuery)
	assert.Equal(t, "stars", gotSort)
	assert.Equal(t, "10", gotPerPage)
	assert.Equal(t, "application/vnd.github.v3+json", gotAccept)
	assert.Equal(t, "octo", repos[0].Owner.Login)
	assert.Equal(t, 99, repos[0].StargazersCount)

	rl := client.RateLimit()
	assert.Equal(t, 42, rl.Remaining)
	assert.Equal(t, time.Unix(1792000000, 0).UTC(), rl.Reset)
}

func TestClient_TrendingWithoutLanguage(t *testing.T) {
	var gotQuery string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		writeJSON(w, map[string]any{"items": nil})
	})

	repos, err := client.Trending(context.Background(), "", WindowDaily)
	require.NoError(t, err)
	assert.Empty(t, repos)
	assert.NotNil(t, repos)
	assert.Equal(t, "stars:>1 created:>2026-10-14", gotQuery)
}

func TestClient_Search(t *testing.T) {
	var gotPerPage string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPerPage = r.URL.Query().Get("per_page")
		writeJSON(w, map[string]any{"items": []map[string]any{{"name": "a"}, {"name": "b"}}})
	})

	_, err := client.Search(context.Background(), "   ", 5)
	assert.ErrorIs(t, err, ErrEmptyQuery)

	repos, err := client.Search(context.Background(), "dashboard", 500)
	require.NoError(t, err)
	assert.Len(t, repos, 2)
	assert.Equal(t, "100", gotPerPage)
}

func TestClient_APIError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.UserProfile(context.Background(), "ghost")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "GitHub API Error: 404 Not Found", err.Error())
	assert.Equal(t, 0, client.RateLimit().Remaining)
}

func TestClient_Cache(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"login": "octo", "public_repos": 8})
	})
	ctx := context.Background()

	first, err := client.UserProfile(ctx, "octo")
	require.NoError(t, err)
	second, err := client.UserProfile(ctx, "octo")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestClient_CacheDisabled(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"login": "octo"})
	}, WithCacheTTL(0))
	ctx := context.Background()

	_, _ = client.UserProfile(ctx, "octo")
	_, _ = client.UserProfile(ctx, "octo")

	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestClient_Token(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, map[string]any{"Go": 100})
	}, WithToken("ghp_test"))

	langs, err := client.Languages(context.Background(), "octo", "deck")
	require.NoError(t, err)
	assert.Equal(t, "Bearer ghp_test", gotAuth)
	assert.Equal(t, int64(100), langs["Go"])
}

func TestClient_RepositoryEndpoints(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/octo/deck":
			writeJSON(w, map[string]any{"name": "deck", "full_name": "octo/deck", "forks_count": 3})
		case "/repos/octo/deck/contributors":
			assert.Equal(t, "5", r.URL.Query().Get("per_page"))
			writeJSON(w, []map[string]any{{"login": "a", "contributions": 10}})
		case "/users/octo/repos":
			assert.Equal(t, "updated", r.URL.Query().Get("sort"))
			writeJSON(w, []map[string]any{{"name": "one"}, {"name": "two"}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	repo, err := client.Repository(ctx, "octo", "deck")
	require.NoError(t, err)
	assert.Equal(t, 3, repo.ForksCount)

	contributors, err := client.Contributors(ctx, "octo", "deck", 0)
	require.NoError(t, err)
	require.Len(t, contributors, 1)
	assert.Equal(t, 10, contributors[0].Contributions)

	repos, err := client.UserRepositories(ctx, "octo", 10)
	require.NoError(t, err)
	assert.Len(t, repos, 2)
}

func TestClient_LanguageStats(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/search/repositories":
			items := make([]map[string]any, 0, 7)
			for _, name := range []string{"r1", "r2", "r3", "r4", "r5", "r6", "r7"} {
				items = append(items, map[string]any{"name": name, "full_name": "o/" + name, "owner": map[string]any{"login": "o"}})
			}
			writeJSON(w, map[string]any{"items": items})
		case r.URL.Path == "/repos/o/r3/languages":
			w.WriteHeader(http.StatusInternalServerError)
		case strings.HasSuffix(r.URL.Path, "/languages"):
			if strings.Contains(r.URL.Path, "/r6/") || strings.Contains(r.URL.Path, "/r7/") {
				t.Errorf("only the top 5 repositories should be fetched, got %s", r.URL.Path)
			}
			writeJSON(w, map[string]any{"Go": 10, "Shell": 1})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	stats, err := client.LanguageStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(40), stats["Go"])
	assert.Equal(t, int64(4), stats["Shell"])
}

func TestClient_LanguageStatsTrendingFailure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := client.LanguageStats(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
}
