package playback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/clipforge/clipforge-server/internal/assets"
)

// Streamer serves uploaded media over HTTP with byte-range support, so the
// browser player can scrub without downloading the whole file.
type Streamer struct {
	resolver refResolver
	logger   *slog.Logger
}

type refResolver interface {
	ResolveSource(ctx context.Context, ref string) (string, error)
}

func NewStreamer(resolver refResolver, logger *slog.Logger) *Streamer {
	return &Streamer{resolver: resolver, logger: logger}
}

// ServeRef resolves an asset reference and streams its bytes, honoring a
// Range header when present.
func (s *Streamer) ServeRef(w http.ResponseWriter, r *http.Request, ref string) error {
	path, err := s.resolver.ResolveSource(r.Context(), ref)
	if err != nil {
		if errors.Is(err, assets.ErrAssetNotFound) {
			http.Error(w, "media not found", http.StatusNotFound)
			return nil
		}
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "media not found", http.StatusNotFound)
			return nil
		}
		return fmt.Errorf("failed to open media file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat media file: %w", err)
	}
	size := stat.Size()

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", contentType)

	br, err := ParseRange(r.Header.Get("Range"), size)
	if errors.Is(err, ErrUnsatisfiable) {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "Range Not Satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return nil
	}
	if err != nil && !errors.Is(err, ErrInvalidRange) {
		return err
	}

	// A malformed Range header falls back to serving the whole file.
	if br == nil || errors.Is(err, ErrInvalidRange) {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", size))
		w.WriteHeader(http.StatusOK)
		io.Copy(w, file)
		return nil
	}

	w.Header().Set("Content-Length", fmt.Sprintf("%d", br.Length()))
	w.Header().Set("Content-Range", br.ContentRange(size))
	w.WriteHeader(http.StatusPartialContent)

	if _, err := file.Seek(br.Start, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek media file: %w", err)
	}
	io.CopyN(w, file, br.Length())
	return nil
}
