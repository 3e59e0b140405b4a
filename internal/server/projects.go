package server

import (
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/kitbash/pkg/cache"
	errs "github.com/matzehuels/kitbash/pkg/errors"
	"github.com/matzehuels/kitbash/pkg/pipeline"
	"github.com/matzehuels/kitbash/pkg/project"
	"github.com/matzehuels/kitbash/pkg/store"
)

type projectResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Manifest  string    `json:"manifest,omitempty"`
	Assets    []string  `json:"assets,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toResponse(p *store.Project, withManifest bool) projectResponse {
	resp := projectResponse{
		ID:        p.ID,
		Name:      p.Name,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if withManifest {
		resp.Manifest = string(p.Manifest)
	}
	for name := range p.Assets {
		resp.Assets = append(resp.Assets, name)
	}
	sort.Strings(resp.Assets)
	return resp
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]projectResponse, len(projects))
	for i, p := range projects {
		out[i] = toResponse(p, false)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(up.manifest) == 0 {
		s.writeError(w, r, errs.New(errs.ErrCodeInvalidInput, "missing %q field", manifestField))
		return
	}
	m, err := project.Parse(up.manifest)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	p := store.NewProject(m.Name, up.manifest, up.assets)
	if err := s.store.Put(r.Context(), p); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("project created", "id", p.ID, "name", p.Name, "assets", len(p.Assets))
	w.Header().Set("Location", "/v1/projects/"+p.ID)
	writeJSON(w, http.StatusCreated, toResponse(p, false))
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(p, true))
}

// handleUpdateProject replaces the manifest when one is sent and merges the
// uploaded assets over the stored ones.
func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	up, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if len(up.manifest) > 0 {
		m, err := project.Parse(up.manifest)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		p.Manifest = up.manifest
		p.Name = m.Name
	}
	if p.Assets == nil {
		p.Assets = make(map[string][]byte, len(up.assets))
	}
	for name, data := range up.assets {
		p.Assets[name] = data
	}
	p.UpdatedAt = time.Now().UTC()

	if err := s.store.Put(r.Context(), p); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(p, false))
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRenderProject renders a saved project. Artifacts are cached under a
// per-project key prefix.
func (s *Server) handleRenderProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	runner := pipeline.NewRunner(s.runner.Cache, cache.NewScopedKeyer(s.runner.Keyer, "project:"+id+":"), s.logger)
	s.render(w, r, runner, p.Manifest, p.Assets, chi.URLParam(r, "format"))
}
