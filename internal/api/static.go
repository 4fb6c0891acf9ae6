package api

import (
	"io/fs"
	"net/http"
	"strings"

	"github.com/otiai10/projectdeck/internal/auth"
)

// LoginPath is where unauthenticated navigation is sent
const LoginPath = "/login"

// protectedPages need a valid session cookie to be served
var protectedPages = []string{"/dashboard", "/pricing", "/projects"}

// StaticFileServer serves static files from an embedded filesystem with SPA fallback.
// It returns index.html for any non-file request to support client-side routing.
type StaticFileServer struct {
	subFS      fs.FS // Sub-filesystem starting at fileRoot
	fileServer http.Handler
}

// NewStaticFileServer creates a new static file server.
// The fileRoot is the subdirectory within staticFS (e.g., "static" for //go:embed static).
// If fileRoot is empty, staticFS is used directly.
func NewStaticFileServer(staticFS fs.FS, fileRoot string) *StaticFileServer {
	subFS := staticFS
	if fileRoot != "" {
		if sub, err := fs.Sub(staticFS, fileRoot); err == nil {
			subFS = sub
		}
	}

	return &StaticFileServer{
		subFS:      subFS,
		fileServer: http.FileServer(http.FS(subFS)),
	}
}

// ServeHTTP implements http.Handler.
// It serves static files and falls back to index.html for SPA routing.
func (s *StaticFileServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")
	if path == "" {
		path = "index.html"
	}

	// Check if file exists
	if info, err := fs.Stat(s.subFS, path); err == nil && !info.IsDir() {
		s.fileServer.ServeHTTP(w, r)
		return
	}

	// File doesn't exist, serve index.html for SPA routing
	content, err := fs.ReadFile(s.subFS, "index.html")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}

// WithStaticFiles wraps an API router with page navigation.
// API routes (/api, /health, /metrics) go to apiHandler. "/" and protected
// pages without a valid session cookie redirect to the login page. Everything
// else is served by staticServer, which may be nil when the binary carries no
// frontend.
func WithStaticFiles(apiHandler http.Handler, staticServer *StaticFileServer, verifier auth.TokenVerifier) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		// API routes
		if strings.HasPrefix(path, "/api") || strings.HasPrefix(path, "/health") || path == "/metrics" {
			apiHandler.ServeHTTP(w, r)
			return
		}

		if path == "/" {
			http.Redirect(w, r, LoginPath, http.StatusFound)
			return
		}

		if isProtectedPage(path) && !hasValidSession(r, verifier) {
			http.Redirect(w, r, LoginPath, http.StatusFound)
			return
		}

		if staticServer == nil {
			http.NotFound(w, r)
			return
		}
		staticServer.ServeHTTP(w, r)
	})
}

func isProtectedPage(path string) bool {
	for _, page := range protectedPages {
		if path == page || strings.HasPrefix(path, page+"/") {
			return true
		}
	}
	return false
}

func hasValidSession(r *http.Request, verifier auth.TokenVerifier) bool {
	c, err := r.Cookie(auth.SessionCookieName)
	if err != nil || c.Value == "" {
		return false
	}
	_, err = verifier.VerifyIDToken(r.Context(), c.Value)
	return err == nil
}
