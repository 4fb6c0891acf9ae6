package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/otiai10/projectdeck/internal/analytics"
	"github.com/otiai10/projectdeck/internal/entitlement"
	"github.com/otiai10/projectdeck/internal/project"
	"github.com/otiai10/projectdeck/internal/session"
)

// ProjectListResponse is the dashboard's view of the workspace
type ProjectListResponse struct {
	Projects []project.Project `json:"projects"`
	Count    int               `json:"count"`
	Banner   string            `json:"banner,omitempty"`
	Loaded   bool              `json:"loaded"`
}

// ValidationErrorResponse lists the invalid form fields
type ValidationErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

// ExportResponse is the downloadable project export
type ExportResponse struct {
	ExportedAt time.Time         `json:"exportedAt"`
	Plan       string            `json:"plan"`
	Projects   []project.Project `json:"projects"`
}

// DemoResponse reports the sample projects that were added
type DemoResponse struct {
	Created  int               `json:"created"`
	Projects []project.Project `json:"projects"`
}

// ListProjects handles GET /api/projects.
// A failed refresh still answers 200 with the last-known list and the banner.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	ws := h.session(r).Workspace()
	if err := ws.Refresh(r.Context()); err != nil {
		log.Printf("Failed to refresh projects for %s: %v", ws.UserID(), err)
	}
	writeJSON(w, workspaceResponse(ws), http.StatusOK)
}

// CreateProject handles POST /api/projects
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req project.Fields
	if !decodeJSON(w, r, &req) {
		return
	}

	s := h.session(r)
	created, err := s.CreateProject(r.Context(), req)
	if err != nil {
		h.writeProjectError(w, s, err, "Failed to add project")
		return
	}
	h.metrics.ObserveGate(entitlement.ActionCreateProject.String(), string(entitlement.Allowed))

	writeJSON(w, created, http.StatusCreated)
}

// GetProject handles GET /api/projects/{id}
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request, id string) {
	s := h.session(r)
	p, err := s.Workspace().Get(r.Context(), id)
	if err != nil {
		h.writeProjectError(w, s, err, "Failed to get project")
		return
	}
	writeJSON(w, p, http.StatusOK)
}

// UpdateProject handles PUT /api/projects/{id}
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request, id string) {
	var patch project.Patch
	if !decodeJSON(w, r, &patch) {
		return
	}

	s := h.session(r)
	updated, err := s.UpdateProject(r.Context(), id, patch)
	if err != nil {
		h.writeProjectError(w, s, err, "Failed to update project")
		return
	}
	writeJSON(w, updated, http.StatusOK)
}

// DeleteProject handles DELETE /api/projects/{id}
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request, id string) {
	s := h.session(r)
	if err := s.DeleteProject(r.Context(), id); err != nil {
		h.writeProjectError(w, s, err, "Failed to delete project")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportProjects handles GET /api/projects/export
func (h *Handler) ExportProjects(w http.ResponseWriter, r *http.Request) {
	s := h.session(r)
	if !h.allow(w, s.Decide(entitlement.ActionExportData, 0)) {
		return
	}

	now := h.now()
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="projects-%s.json"`, now.Format("2006-01-02")))
	writeJSON(w, ExportResponse{
		ExportedAt: now,
		Plan:       s.Plan().ID,
		Projects:   s.Workspace().Projects(),
	}, http.StatusOK)
}

// AddDemoData handles POST /api/projects/demo
func (h *Handler) AddDemoData(w http.ResponseWriter, r *http.Request) {
	s := h.session(r)
	created, err := s.AddDemoData(r.Context())
	if err != nil {
		h.writeProjectError(w, s, err, "Failed to add project")
		return
	}
	writeJSON(w, DemoResponse{Created: len(created), Projects: created}, http.StatusCreated)
}

// DismissBanner handles DELETE /api/workspace/banner
func (h *Handler) DismissBanner(w http.ResponseWriter, r *http.Request) {
	h.session(r).Workspace().DismissBanner()
	w.WriteHeader(http.StatusNoContent)
}

// Analytics handles GET /api/analytics
func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	s := h.session(r)
	if !h.allow(w, s.Decide(entitlement.ActionViewAnalytics, 0)) {
		return
	}
	report := analytics.Build(s.Workspace().Projects(), s.Plan(), h.now())
	writeJSON(w, report, http.StatusOK)
}

// writeProjectError translates workspace and gate errors. Store failures
// answer with the banner text the workspace recorded.
func (h *Handler) writeProjectError(w http.ResponseWriter, s *session.Session, err error, fallback string) {
	if h.writeRestricted(w, err) {
		return
	}

	var ve *project.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, ValidationErrorResponse{Error: "validation failed", Fields: ve.Errors}, http.StatusBadRequest)
	case errors.Is(err, project.ErrNotFound):
		writeError(w, "project not found", http.StatusNotFound)
	case errors.Is(err, project.ErrForbidden):
		writeError(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, project.ErrEmptyPatch):
		writeError(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("Project operation failed for %s: %v", s.UserID(), err)
		msg := s.Workspace().Banner()
		if msg == "" {
			msg = fallback
		}
		writeError(w, msg, http.StatusInternalServerError)
	}
}

func workspaceResponse(ws *project.Workspace) ProjectListResponse {
	projects := ws.Projects()
	return ProjectListResponse{
		Projects: projects,
		Count:    len(projects),
		Banner:   ws.Banner(),
		Loaded:   ws.Loaded(),
	}
}
