package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/clipforge/clipforge-server/internal/export"
)

// Stub is used when ffmpeg is unavailable. Render writes an empty output
// file and logs the graph it would have executed; Probe reports a fixed
// duration. It keeps editing flows usable on machines without ffmpeg.
type Stub struct {
	logger *slog.Logger

	// StubDuration is reported by Probe.
	StubDuration float64
}

// NewStub returns a stub executor.
func NewStub(logger *slog.Logger) *Stub {
	return &Stub{logger: logger, StubDuration: 30}
}

func (s *Stub) Render(ctx context.Context, graph *export.Graph, outputPath string) (*export.OutputDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.logger.Info("render stub: render requested (ffmpeg not available)",
		"output", outputPath,
		"overlays", len(graph.Overlays),
		"duration_s", graph.Duration,
	)

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return nil, fmt.Errorf("cannot create output directory: %w", err)
	}
	if err := os.WriteFile(outputPath, nil, 0o644); err != nil {
		return nil, fmt.Errorf("cannot write stub output: %w", err)
	}

	return &export.OutputDescriptor{Path: outputPath, Duration: graph.Duration}, nil
}

func (s *Stub) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	s.logger.Info("render stub: probe requested", "path", path)
	return &ProbeResult{Duration: s.StubDuration, HasAudio: true}, nil
}
