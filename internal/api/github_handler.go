package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/otiai10/projectdeck/internal/github"
	"github.com/otiai10/projectdeck/internal/security"
)

// RepositoriesResponse is a list of repositories with the upstream quota
type RepositoriesResponse struct {
	Repositories []github.Repository `json:"repositories"`
	RateLimit    github.RateLimit    `json:"rateLimit"`
}

// UserProfileResponse is a GitHub user with their recent repositories
type UserProfileResponse struct {
	User         *github.User        `json:"user"`
	Repositories []github.Repository `json:"repositories"`
	RateLimit    github.RateLimit    `json:"rateLimit"`
}

// LanguagesResponse maps language names to bytes of code
type LanguagesResponse struct {
	Languages github.Languages `json:"languages"`
	RateLimit github.RateLimit `json:"rateLimit"`
}

// RepositoryDetailResponse is a repository with its languages and top contributors
type RepositoryDetailResponse struct {
	Repository   *github.Repository   `json:"repository"`
	Languages    github.Languages     `json:"languages"`
	Contributors []github.Contributor `json:"contributors"`
	RateLimit    github.RateLimit     `json:"rateLimit"`
}

// Trending handles GET /api/github/trending?language=&window=
func (h *Handler) Trending(w http.ResponseWriter, r *http.Request) {
	if !h.useExternalAPI(w, r) {
		return
	}

	q := r.URL.Query()
	repos, err := h.github.Trending(r.Context(), q.Get("language"), github.ParseWindow(q.Get("window")))
	h.metrics.ObserveExternalCall("trending", err)
	if err != nil {
		h.writeGitHubError(w, "Failed to fetch trending repositories", err)
		return
	}

	writeJSON(w, RepositoriesResponse{Repositories: repos, RateLimit: h.github.RateLimit()}, http.StatusOK)
}

// Search handles GET /api/github/search?q=&limit=
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, github.ErrEmptyQuery.Error(), http.StatusBadRequest)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	if !h.useExternalAPI(w, r) {
		return
	}

	repos, err := h.github.Search(r.Context(), query, limit)
	h.metrics.ObserveExternalCall("search", err)
	if err != nil {
		h.writeGitHubError(w, "Failed to search repositories", err)
		return
	}

	writeJSON(w, RepositoriesResponse{Repositories: repos, RateLimit: h.github.RateLimit()}, http.StatusOK)
}

// UserProfile handles GET /api/github/users/{login}
func (h *Handler) UserProfile(w http.ResponseWriter, r *http.Request, login string) {
	if !h.useExternalAPI(w, r) {
		return
	}

	var resp UserProfileResponse
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		u, err := h.github.UserProfile(ctx, login)
		h.metrics.ObserveExternalCall("users", err)
		resp.User = u
		return err
	})
	g.Go(func() error {
		repos, err := h.github.UserRepositories(ctx, login, 0)
		h.metrics.ObserveExternalCall("user_repos", err)
		resp.Repositories = repos
		return err
	})
	if err := g.Wait(); err != nil {
		h.writeGitHubError(w, "Failed to fetch user profile", err)
		return
	}

	resp.RateLimit = h.github.RateLimit()
	writeJSON(w, resp, http.StatusOK)
}

// RepositoryLanguages handles GET /api/github/repos/{owner}/{repo}/languages
func (h *Handler) RepositoryLanguages(w http.ResponseWriter, r *http.Request, owner, name string) {
	if !h.useExternalAPI(w, r) {
		return
	}

	langs, err := h.github.Languages(r.Context(), owner, name)
	h.metrics.ObserveExternalCall("languages", err)
	if err != nil {
		h.writeGitHubError(w, "Failed to fetch languages", err)
		return
	}

	writeJSON(w, LanguagesResponse{Languages: langs, RateLimit: h.github.RateLimit()}, http.StatusOK)
}

// RepositoryDetail handles GET /api/github/repos/{owner}/{repo}
func (h *Handler) RepositoryDetail(w http.ResponseWriter, r *http.Request, owner, name string) {
	if !h.useExternalAPI(w, r) {
		return
	}
	h.writeRepositoryDetail(w, r, owner, name)
}

// LanguageStats handles GET /api/github/languages
func (h *Handler) LanguageStats(w http.ResponseWriter, r *http.Request) {
	if !h.useExternalAPI(w, r) {
		return
	}

	langs, err := h.github.LanguageStats(r.Context())
	h.metrics.ObserveExternalCall("language_stats", err)
	if err != nil {
		h.writeGitHubError(w, "Failed to fetch language statistics", err)
		return
	}

	writeJSON(w, LanguagesResponse{Languages: langs, RateLimit: h.github.RateLimit()}, http.StatusOK)
}

// ProjectRepository handles GET /api/projects/{id}/github
func (h *Handler) ProjectRepository(w http.ResponseWriter, r *http.Request, id string) {
	s := h.session(r)
	p, err := s.Workspace().Get(r.Context(), id)
	if err != nil {
		h.writeProjectError(w, s, err, "Failed to get project")
		return
	}

	owner, name, ok := security.ParseGitHubRepository(p.GitHubURL)
	if !ok {
		writeError(w, "project has no GitHub repository", http.StatusBadRequest)
		return
	}

	if !h.useExternalAPI(w, r) {
		return
	}
	h.writeRepositoryDetail(w, r, owner, name)
}

// writeRepositoryDetail fetches the repository, its languages and its
// contributors concurrently; one gated call covers all three
func (h *Handler) writeRepositoryDetail(w http.ResponseWriter, r *http.Request, owner, name string) {
	var resp RepositoryDetailResponse
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		repo, err := h.github.Repository(ctx, owner, name)
		h.metrics.ObserveExternalCall("repos", err)
		resp.Repository = repo
		return err
	})
	g.Go(func() error {
		langs, err := h.github.Languages(ctx, owner, name)
		h.metrics.ObserveExternalCall("languages", err)
		resp.Languages = langs
		return err
	})
	g.Go(func() error {
		contributors, err := h.github.Contributors(ctx, owner, name, 0)
		h.metrics.ObserveExternalCall("contributors", err)
		resp.Contributors = contributors
		return err
	})
	if err := g.Wait(); err != nil {
		h.writeGitHubError(w, "Failed to fetch repository", err)
		return
	}

	resp.RateLimit = h.github.RateLimit()
	writeJSON(w, resp, http.StatusOK)
}

// useExternalAPI counts one external call against the plan and writes
// the denial when the monthly limit is used up
func (h *Handler) useExternalAPI(w http.ResponseWriter, r *http.Request) bool {
	return h.allow(w, h.session(r).UseExternalAPI())
}

// writeGitHubError passes upstream 404s through and reports everything
// else as a bad gateway
func (h *Handler) writeGitHubError(w http.ResponseWriter, prefix string, err error) {
	msg := fmt.Sprintf("%s: %v", prefix, err)

	var apiErr *github.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		writeError(w, msg, http.StatusNotFound)
		return
	}

	log.Printf("%s", msg)
	writeError(w, msg, http.StatusBadGateway)
}
