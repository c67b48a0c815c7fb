package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clipforge/clipforge-server/internal/export"
	"github.com/clipforge/clipforge-server/internal/logging"
	"github.com/clipforge/clipforge-server/internal/project"
	"github.com/clipforge/clipforge-server/internal/timeline"
)

func startExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := requireSession(cfg, w, r)
		if !ok {
			return
		}

		var req ExportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		exportCfg := export.Config{
			Quality:    export.Quality(req.Quality),
			Format:     req.Format,
			Resolution: export.Resolution(req.Resolution),
		}
		params, err := export.Resolve(exportCfg)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "INVALID_EXPORT_CONFIG")
			return
		}

		// The base clip check runs again inside the graph builder; failing
		// here keeps the error synchronous instead of burying it in the job.
		if _, hasBase := s.Model.Base(); !hasBase {
			WriteError(w, http.StatusConflict, "project has no base video", "NO_BASE_MEDIA")
			return
		}

		// Persist pending edits so the export matches what the client sees.
		if err := s.Flush(r.Context()); err != nil {
			cfg.Logger.Warn("failed to flush timeline before export", "error", err, "project_id", s.ProjectID)
		}

		now := time.Now().UTC()
		job := &project.ExportJob{
			ID:         uuid.NewString(),
			ProjectID:  s.ProjectID,
			Status:     project.ExportStatusPending,
			Quality:    string(exportCfg.Quality),
			Format:     params.Format,
			Resolution: string(exportCfg.Resolution),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if job.Quality == "" {
			job.Quality = string(export.QualityMedium)
		}
		if job.Resolution == "" {
			job.Resolution = string(export.Resolution720p)
		}
		if err := cfg.Repo.CreateExport(r.Context(), job); err != nil {
			cfg.Logger.Error("failed to create export job", "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to create export job", "INTERNAL_ERROR")
			return
		}

		snapshot := s.Snapshot()
		outputPath, outputRef := cfg.Assets.OutputFile(s.ProjectID, params.Format)

		go runExport(cfg, job.ID, s.ProjectID, snapshot, exportCfg, outputPath, outputRef)

		WriteJSON(w, http.StatusAccepted, ExportToResponse(job))
	}
}

// runExport renders a frozen snapshot in the background and records the
// outcome on the job row. It never touches the live timeline.
func runExport(cfg ServerConfig, jobID, projectID string, snapshot []timeline.Item, exportCfg export.Config, outputPath, outputRef string) {
	logger := logging.WithExportID(cfg.Logger, jobID)
	ctx := context.Background()

	// A failed export returns the project to the status it had before the
	// render started, not unconditionally to draft.
	prevStatus := project.StatusDraft
	if p, err := cfg.Repo.GetProject(ctx, projectID); err == nil && p != nil {
		prevStatus = p.Status
	}

	if err := cfg.Repo.UpdateExport(ctx, jobID, project.ExportStatusProcessing, "", ""); err != nil {
		logger.Error("failed to mark export processing", "error", err)
	}
	setProjectStatus(ctx, cfg, projectID, project.StatusProcessing, "")

	desc, err := cfg.Planner.Export(ctx, snapshot, exportCfg, outputPath)
	if err != nil {
		logger.Error("export failed", "error", err)

		msg := err.Error()
		if errors.Is(err, export.ErrNoBaseMedia) {
			msg = "project has no base video"
		}
		if uerr := cfg.Repo.UpdateExport(ctx, jobID, project.ExportStatusFailed, "", msg); uerr != nil {
			logger.Error("failed to record export failure", "error", uerr)
		}
		setProjectStatus(ctx, cfg, projectID, prevStatus, "")
		return
	}

	logger.Info("export completed", "output", desc.Path, "duration_s", desc.Duration, "size_bytes", desc.Size)
	if uerr := cfg.Repo.UpdateExport(ctx, jobID, project.ExportStatusCompleted, outputRef, ""); uerr != nil {
		logger.Error("failed to record export completion", "error", uerr)
	}
	setProjectStatus(ctx, cfg, projectID, project.StatusCompleted, outputRef)
}

func setProjectStatus(ctx context.Context, cfg ServerConfig, projectID, status, outputRef string) {
	p, err := cfg.Repo.GetProject(ctx, projectID)
	if err != nil || p == nil {
		return
	}
	p.Status = status
	if outputRef != "" {
		p.OutputURL = outputRef
	}
	if err := cfg.Repo.UpdateProject(ctx, p); err != nil {
		cfg.Logger.Error("failed to update project status", "error", err, "project_id", projectID)
	}
}

func getExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "export id required", "BAD_REQUEST")
			return
		}

		job, err := cfg.Repo.GetExport(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to load export", "INTERNAL_ERROR")
			return
		}
		if job == nil {
			WriteError(w, http.StatusNotFound, "export not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, ExportToResponse(job))
	}
}

func listExportsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := requireProject(cfg, w, r)
		if !ok {
			return
		}

		jobs, err := cfg.Repo.ListExports(r.Context(), p.ID, 50)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list exports", "INTERNAL_ERROR")
			return
		}

		resp := ExportsResponse{Exports: make([]ExportResponse, len(jobs))}
		for i, j := range jobs {
			resp.Exports[i] = ExportToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}
