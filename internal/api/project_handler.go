package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clipforge/clipforge-server/internal/project"
)

func createProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateProjectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Title == "" {
			WriteError(w, http.StatusBadRequest, "title is required", "BAD_REQUEST")
			return
		}

		now := time.Now().UTC()
		p := &project.Project{
			ID:          uuid.NewString(),
			Title:       req.Title,
			Description: req.Description,
			Status:      project.StatusDraft,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := cfg.Repo.CreateProject(r.Context(), p); err != nil {
			cfg.Logger.Error("failed to create project", "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to create project", "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusCreated, ProjectToResponse(p))
	}
}

func listProjectsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := cfg.Repo.ListProjects(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list projects", "INTERNAL_ERROR")
			return
		}

		resp := ProjectsResponse{Projects: make([]ProjectResponse, len(projects))}
		for i, p := range projects {
			resp.Projects[i] = ProjectToResponse(p)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := requireProject(cfg, w, r)
		if !ok {
			return
		}
		WriteJSON(w, http.StatusOK, ProjectToResponse(p))
	}
}

func updateProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := requireProject(cfg, w, r)
		if !ok {
			return
		}

		var req UpdateProjectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Title != nil {
			if *req.Title == "" {
				WriteError(w, http.StatusBadRequest, "title cannot be empty", "BAD_REQUEST")
				return
			}
			p.Title = *req.Title
		}
		if req.Description != nil {
			p.Description = *req.Description
		}

		if err := cfg.Repo.UpdateProject(r.Context(), p); err != nil {
			cfg.Logger.Error("failed to update project", "error", err, "project_id", p.ID)
			WriteError(w, http.StatusInternalServerError, "failed to update project", "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, ProjectToResponse(p))
	}
}

func deleteProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := requireProject(cfg, w, r)
		if !ok {
			return
		}

		if err := cfg.Sessions.Close(r.Context(), p.ID); err != nil {
			cfg.Logger.Warn("failed to flush session before delete", "error", err, "project_id", p.ID)
		}
		if err := cfg.Repo.DeleteProject(r.Context(), p.ID); err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to delete project", "INTERNAL_ERROR")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// requireProject loads the project from the path id, writing the error
// response itself when the id is missing or unknown.
func requireProject(cfg ServerConfig, w http.ResponseWriter, r *http.Request) (*project.Project, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "project id required", "BAD_REQUEST")
		return nil, false
	}

	p, err := cfg.Repo.GetProject(r.Context(), id)
	if err != nil {
		cfg.Logger.Error("failed to load project", "error", err, "project_id", id)
		WriteError(w, http.StatusInternalServerError, "failed to load project", "INTERNAL_ERROR")
		return nil, false
	}
	if p == nil {
		WriteError(w, http.StatusNotFound, "project not found", "NOT_FOUND")
		return nil, false
	}
	return p, true
}
