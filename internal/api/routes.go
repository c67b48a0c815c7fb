package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(CORSAllowlist())
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repo, cfg.Logger))

		r.Get("/projects", listProjectsHandler(cfg))
		r.Post("/projects", createProjectHandler(cfg))
		r.Get("/projects/{id}", getProjectHandler(cfg))
		r.Patch("/projects/{id}", updateProjectHandler(cfg))
		r.Delete("/projects/{id}", deleteProjectHandler(cfg))

		r.Post("/projects/{id}/video", uploadVideoHandler(cfg))
		r.Post("/uploads/{kind}", uploadAssetHandler(cfg))

		r.Get("/projects/{id}/timeline", getTimelineHandler(cfg))
		r.Post("/projects/{id}/timeline/items", addItemHandler(cfg))
		r.Post("/projects/{id}/timeline/items/{itemID}/move", moveItemHandler(cfg))
		r.Post("/projects/{id}/timeline/items/{itemID}/trim", trimItemHandler(cfg))
		r.Post("/projects/{id}/timeline/items/{itemID}/cut", cutItemHandler(cfg))
		r.Delete("/projects/{id}/timeline/items/{itemID}", deleteItemHandler(cfg))
		r.Post("/projects/{id}/timeline/undo", undoHandler(cfg))
		r.Get("/projects/{id}/timeline/active", activeItemsHandler(cfg))

		r.Post("/projects/{id}/export", startExportHandler(cfg))
		r.Get("/projects/{id}/exports", listExportsHandler(cfg))
		r.Get("/exports/{id}", getExportHandler(cfg))

		r.Get("/media", mediaHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
			UptimeS: uptime,
		})
	}
}

func mediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref := r.URL.Query().Get("ref")
		if ref == "" {
			WriteError(w, http.StatusBadRequest, "ref is required", "BAD_REQUEST")
			return
		}

		if err := cfg.Streamer.ServeRef(w, r, ref); err != nil {
			cfg.Logger.Error("media streaming error", "error", err, "ref", ref)
		}
	}
}
