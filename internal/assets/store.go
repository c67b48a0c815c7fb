// Package assets manages uploaded media blobs: saving uploads under the data
// directory, resolving URL-style source references back to readable paths,
// and caching probed durations. Timeline items and projects refer to media
// exclusively through these references.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clipforge/clipforge-server/internal/render"
)

var (
	// ErrAssetNotFound is returned when a reference does not resolve to a
	// readable file.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrUnsupportedMedia is returned for an upload whose extension is not
	// on the kind's allow-list.
	ErrUnsupportedMedia = errors.New("unsupported media type")
)

// Kind names an asset category; each has its own subdirectory and extension
// allow-list.
type Kind string

const (
	KindVideo  Kind = "video"
	KindImage  Kind = "image"
	KindAudio  Kind = "audio"
	KindOutput Kind = "output"
)

// refPrefix is the URL-style prefix all source references carry, mirroring
// how clients address media.
const refPrefix = "/uploads/"

var allowedExtensions = map[Kind]map[string]bool{
	KindVideo: {".mp4": true, ".mov": true, ".avi": true, ".webm": true, ".mkv": true},
	KindImage: {".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true},
	KindAudio: {".mp3": true, ".wav": true, ".m4a": true, ".ogg": true, ".aac": true, ".flac": true},
}

var kindDirs = map[Kind]string{
	KindVideo:  "videos",
	KindImage:  "images",
	KindAudio:  "audio",
	KindOutput: "output",
}

// Store is the filesystem asset store rooted at the uploads directory.
type Store struct {
	baseDir      string
	prober       render.Prober
	probeTimeout time.Duration
	logger       *slog.Logger

	mu        sync.Mutex
	durations map[string]float64 // ref -> probed seconds
}

// NewStore creates the uploads directory layout and returns a store.
func NewStore(baseDir string, prober render.Prober, probeTimeout time.Duration, logger *slog.Logger) (*Store, error) {
	for _, dir := range kindDirs {
		if err := os.MkdirAll(filepath.Join(baseDir, dir), 0755); err != nil {
			return nil, fmt.Errorf("failed to create uploads directory: %w", err)
		}
	}
	return &Store{
		baseDir:      baseDir,
		prober:       prober,
		probeTimeout: probeTimeout,
		logger:       logger,
		durations:    make(map[string]float64),
	}, nil
}

// SaveUpload streams an upload to disk under a unique name and returns its
// reference. The original filename only contributes its extension.
func (s *Store) SaveUpload(kind Kind, originalName string, r io.Reader) (string, error) {
	dir, ok := kindDirs[kind]
	if !ok || kind == KindOutput {
		return "", fmt.Errorf("%w: cannot upload kind %q", ErrUnsupportedMedia, kind)
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExtensions[kind][ext] {
		return "", fmt.Errorf("%w: extension %q not allowed for %s uploads", ErrUnsupportedMedia, ext, kind)
	}

	name := fmt.Sprintf("%s-%d-%s%s", kind, time.Now().UnixMilli(), uuid.NewString()[:8], ext)
	dst := filepath.Join(s.baseDir, dir, name)

	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create asset file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("failed to write asset: %w", err)
	}

	ref := refPrefix + dir + "/" + name
	if s.logger != nil {
		s.logger.Info("asset saved", "kind", kind, "ref", ref)
	}
	return ref, nil
}

// ResolveSource maps a reference to an absolute path, rejecting anything
// outside the uploads directory. It satisfies the export planner's source
// resolver contract.
func (s *Store) ResolveSource(ctx context.Context, ref string) (string, error) {
	p, err := s.refPath(ref)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(p); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrAssetNotFound, ref)
		}
		return "", err
	}
	return p, nil
}

// Duration probes the media duration behind a reference, caching results.
func (s *Store) Duration(ctx context.Context, ref string) (float64, error) {
	s.mu.Lock()
	if d, ok := s.durations[ref]; ok {
		s.mu.Unlock()
		return d, nil
	}
	s.mu.Unlock()

	p, err := s.ResolveSource(ctx, ref)
	if err != nil {
		return 0, err
	}

	if s.probeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.probeTimeout)
		defer cancel()
	}

	result, err := s.prober.Probe(ctx, p)
	if err != nil {
		return 0, fmt.Errorf("probe failed for %s: %w", ref, err)
	}

	s.mu.Lock()
	s.durations[ref] = result.Duration
	s.mu.Unlock()
	return result.Duration, nil
}

// OutputFile reserves a path for a rendered export and returns both the
// absolute path and the reference clients use to fetch it.
func (s *Store) OutputFile(projectID, format string) (absPath, ref string) {
	name := fmt.Sprintf("export_%s_%d.%s", projectID, time.Now().UnixMilli(), format)
	return filepath.Join(s.baseDir, kindDirs[KindOutput], name), refPrefix + kindDirs[KindOutput] + "/" + name
}

// refPath validates a reference and maps it inside the uploads directory.
func (s *Store) refPath(ref string) (string, error) {
	if !strings.HasPrefix(ref, refPrefix) {
		return "", fmt.Errorf("%w: reference %q is not under %s", ErrAssetNotFound, ref, refPrefix)
	}

	rel := strings.TrimPrefix(ref, refPrefix)
	cleaned := path.Clean(rel)
	if cleaned != rel || strings.HasPrefix(cleaned, "..") || path.IsAbs(cleaned) {
		return "", fmt.Errorf("%w: reference %q is not a clean relative path", ErrAssetNotFound, ref)
	}

	return filepath.Join(s.baseDir, filepath.FromSlash(cleaned)), nil
}
