package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/clipforge/clipforge-server/internal/assets"
	"github.com/clipforge/clipforge-server/internal/editor"
	"github.com/clipforge/clipforge-server/internal/timeline"
)

func getTimelineHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := requireSession(cfg, w, r)
		if !ok {
			return
		}
		WriteJSON(w, http.StatusOK, TimelineResponse{
			Items:   s.Model.Items(),
			CanUndo: s.Engine.CanUndo(),
		})
	}
}

func addItemHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := requireSession(cfg, w, r)
		if !ok {
			return
		}

		var req AddItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		var item timeline.Item
		var err error
		switch timeline.Kind(req.Kind) {
		case timeline.KindText:
			if req.Text == nil {
				WriteError(w, http.StatusBadRequest, "text payload required", "BAD_REQUEST")
				return
			}
			item, err = s.Engine.AddText(*req.Text, req.At)
		case timeline.KindImage:
			if req.Image == nil {
				WriteError(w, http.StatusBadRequest, "image payload required", "BAD_REQUEST")
				return
			}
			if !assetExists(cfg, w, r, req.Image.Source) {
				return
			}
			item, err = s.Engine.AddImage(*req.Image, req.At)
		case timeline.KindAudio:
			if req.Audio == nil {
				WriteError(w, http.StatusBadRequest, "audio payload required", "BAD_REQUEST")
				return
			}
			duration, derr := cfg.Assets.Duration(r.Context(), req.Audio.Source)
			if derr != nil {
				if errors.Is(derr, assets.ErrAssetNotFound) {
					WriteError(w, http.StatusUnprocessableEntity, "audio source not found", "ASSET_NOT_FOUND")
					return
				}
				cfg.Logger.Error("failed to probe audio duration", "error", derr)
				WriteError(w, http.StatusInternalServerError, "failed to probe audio", "INTERNAL_ERROR")
				return
			}
			item, err = s.Engine.AddAudio(*req.Audio, req.At, duration)
		case timeline.KindVideo:
			WriteError(w, http.StatusBadRequest, "the base clip is set by uploading a video", "BAD_REQUEST")
			return
		default:
			WriteError(w, http.StatusBadRequest, "unknown item kind", "BAD_REQUEST")
			return
		}

		if err != nil {
			writeTimelineError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, ItemResponse{Item: item})
	}
}

func moveItemHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := requireSession(cfg, w, r)
		if !ok {
			return
		}

		var req MoveItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		itemID := chi.URLParam(r, "itemID")
		if err := s.Engine.Move(itemID, req.Delta, req.Track); err != nil {
			writeTimelineError(w, err)
			return
		}

		item, err := s.Model.Get(itemID)
		if err != nil {
			writeTimelineError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, ItemResponse{Item: item})
	}
}

func trimItemHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := requireSession(cfg, w, r)
		if !ok {
			return
		}

		var req TrimItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		itemID := chi.URLParam(r, "itemID")
		var err error
		switch req.Edge {
		case "start":
			err = s.Engine.TrimStart(itemID, req.To)
		case "end":
			err = s.Engine.TrimEnd(itemID, req.To)
		default:
			WriteError(w, http.StatusBadRequest, "edge must be start or end", "BAD_REQUEST")
			return
		}
		if err != nil {
			writeTimelineError(w, err)
			return
		}

		item, err := s.Model.Get(itemID)
		if err != nil {
			writeTimelineError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, ItemResponse{Item: item})
	}
}

func cutItemHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := requireSession(cfg, w, r)
		if !ok {
			return
		}

		var req CutItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		part, err := s.Engine.Cut(chi.URLParam(r, "itemID"), req.From, req.To)
		if err != nil {
			writeTimelineError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, ItemResponse{Item: part})
	}
}

func deleteItemHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := requireSession(cfg, w, r)
		if !ok {
			return
		}

		removed, err := s.Engine.Delete(chi.URLParam(r, "itemID"))
		if err != nil {
			writeTimelineError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, ItemResponse{Item: removed})
	}
}

func undoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := requireSession(cfg, w, r)
		if !ok {
			return
		}

		restored, err := s.Engine.Undo()
		if err != nil {
			writeTimelineError(w, err)
			return
		}
		if restored == nil {
			WriteError(w, http.StatusConflict, "nothing to undo", "NOTHING_TO_UNDO")
			return
		}
		WriteJSON(w, http.StatusOK, ItemResponse{Item: *restored})
	}
}

func activeItemsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := requireSession(cfg, w, r)
		if !ok {
			return
		}

		raw := r.URL.Query().Get("t")
		t, err := strconv.ParseFloat(raw, 64)
		if err != nil || t < 0 {
			WriteError(w, http.StatusBadRequest, "t must be a non-negative number", "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusOK, ActiveItemsResponse{
			Time:  t,
			Items: s.Cursor.ActiveAt(t),
		})
	}
}

// requireSession resolves the project and opens (or reuses) its editing
// session, writing the error response itself on failure.
func requireSession(cfg ServerConfig, w http.ResponseWriter, r *http.Request) (*editor.Session, bool) {
	p, ok := requireProject(cfg, w, r)
	if !ok {
		return nil, false
	}

	s, err := cfg.Sessions.Open(r.Context(), p.ID)
	if err != nil {
		cfg.Logger.Error("failed to open editing session", "error", err, "project_id", p.ID)
		WriteError(w, http.StatusInternalServerError, "failed to open editing session", "INTERNAL_ERROR")
		return nil, false
	}
	return s, true
}

func assetExists(cfg ServerConfig, w http.ResponseWriter, r *http.Request, ref string) bool {
	if _, err := cfg.Assets.ResolveSource(r.Context(), ref); err != nil {
		if errors.Is(err, assets.ErrAssetNotFound) {
			WriteError(w, http.StatusUnprocessableEntity, "asset not found: "+ref, "ASSET_NOT_FOUND")
			return false
		}
		cfg.Logger.Error("failed to resolve asset", "error", err, "ref", ref)
		WriteError(w, http.StatusInternalServerError, "failed to resolve asset", "INTERNAL_ERROR")
		return false
	}
	return true
}

func writeTimelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, timeline.ErrNotFound):
		WriteError(w, http.StatusNotFound, "item not found", "NOT_FOUND")
	case errors.Is(err, timeline.ErrInvalidItem), errors.Is(err, timeline.ErrInvalidRange):
		WriteError(w, http.StatusBadRequest, err.Error(), "INVALID_EDIT")
	default:
		WriteError(w, http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
