package api

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clipforge/clipforge-server/internal/assets"
	"github.com/clipforge/clipforge-server/internal/project"
)

// Uploads are streamed to disk; this caps the in-memory part of the
// multipart parse, not the file size.
const maxMultipartMemory = 32 << 20

func uploadVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := requireProject(cfg, w, r)
		if !ok {
			return
		}

		file, header, err := formFile(w, r)
		if err != nil {
			return
		}
		defer file.Close()

		ref, err := cfg.Assets.SaveUpload(assets.KindVideo, header.Filename, file)
		if err != nil {
			writeUploadError(cfg, w, err)
			return
		}

		duration, err := cfg.Assets.Duration(r.Context(), ref)
		if err != nil {
			cfg.Logger.Error("failed to probe uploaded video", "error", err, "ref", ref)
			WriteError(w, http.StatusBadRequest, "could not read video metadata", "UNSUPPORTED_MEDIA")
			return
		}

		s, err := cfg.Sessions.Open(r.Context(), p.ID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to open editing session", "INTERNAL_ERROR")
			return
		}
		if _, err := s.Engine.AttachBase(ref, duration); err != nil {
			writeTimelineError(w, err)
			return
		}

		p.VideoURL = ref
		p.BaseDuration = duration
		p.Status = project.StatusDraft
		if err := cfg.Repo.UpdateProject(r.Context(), p); err != nil {
			cfg.Logger.Error("failed to update project after upload", "error", err, "project_id", p.ID)
			WriteError(w, http.StatusInternalServerError, "failed to update project", "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, ProjectToResponse(p))
	}
}

func uploadAssetHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var kind assets.Kind
		switch chi.URLParam(r, "kind") {
		case "image":
			kind = assets.KindImage
		case "audio":
			kind = assets.KindAudio
		default:
			WriteError(w, http.StatusBadRequest, "kind must be image or audio", "BAD_REQUEST")
			return
		}

		file, header, err := formFile(w, r)
		if err != nil {
			return
		}
		defer file.Close()

		ref, err := cfg.Assets.SaveUpload(kind, header.Filename, file)
		if err != nil {
			writeUploadError(cfg, w, err)
			return
		}

		resp := UploadResponse{Ref: ref}
		if kind == assets.KindAudio {
			if d, err := cfg.Assets.Duration(r.Context(), ref); err == nil {
				resp.Duration = d
			}
		}
		WriteJSON(w, http.StatusCreated, resp)
	}
}

// formFile extracts the uploaded file from the multipart body, writing the
// error response itself on failure.
func formFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid multipart body", "BAD_REQUEST")
		return nil, nil, err
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "file field is required", "BAD_REQUEST")
		return nil, nil, err
	}
	return file, hdr, nil
}

func writeUploadError(cfg ServerConfig, w http.ResponseWriter, err error) {
	if errors.Is(err, assets.ErrUnsupportedMedia) {
		WriteError(w, http.StatusBadRequest, err.Error(), "UNSUPPORTED_MEDIA")
		return
	}
	cfg.Logger.Error("failed to store upload", "error", err)
	WriteError(w, http.StatusInternalServerError, "failed to store upload", "INTERNAL_ERROR")
}
