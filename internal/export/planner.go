package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/clipforge/clipforge-server/internal/timeline"
)

// OutputDescriptor describes a successfully rendered output file.
type OutputDescriptor struct {
	Path     string  `json:"path"`
	Duration float64 `json:"duration"`
	Size     int64   `json:"size,omitempty"`
}

// Executor consumes a render graph and produces the output media file. The
// ffmpeg implementation lives in internal/render; tests substitute fakes.
type Executor interface {
	Render(ctx context.Context, graph *Graph, outputPath string) (*OutputDescriptor, error)
}

// Planner resolves export parameters, compiles the render graph from a
// frozen timeline snapshot, and submits it to the executor. It never touches
// the live timeline: a failed or slow export leaves editing unaffected and a
// retry with the same snapshot is always safe.
type Planner struct {
	resolver SourceResolver
	executor Executor
	timeout  time.Duration
	logger   *slog.Logger
}

// NewPlanner returns a planner submitting graphs to the given executor.
// A zero timeout disables the render deadline.
func NewPlanner(resolver SourceResolver, executor Executor, timeout time.Duration, logger *slog.Logger) *Planner {
	return &Planner{
		resolver: resolver,
		executor: executor,
		timeout:  timeout,
		logger:   logger,
	}
}

// Export renders the snapshot to outputPath with the given configuration.
// Executor failures come back wrapped in ErrRenderFailed together with the
// executor's diagnostic; a deadline hit maps to ErrRenderFailed with a
// timeout diagnostic.
func (p *Planner) Export(ctx context.Context, snapshot []timeline.Item, cfg Config, outputPath string) (*OutputDescriptor, error) {
	params, err := Resolve(cfg)
	if err != nil {
		return nil, err
	}

	graph, err := BuildGraph(ctx, snapshot, params, p.resolver)
	if err != nil {
		return nil, err
	}

	if p.logger != nil {
		p.logger.Info("render graph built",
			"overlays", len(graph.Overlays),
			"duration_s", graph.Duration,
			"frame_size", params.FrameSize(),
			"video_bitrate", params.VideoBitrate,
			"audio_bitrate", params.AudioBitrate,
		)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	desc, err := p.executor.Render(ctx, graph, outputPath)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: timeout after %s", ErrRenderFailed, p.timeout)
		}
		if errors.Is(err, ErrRenderFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	return desc, nil
}
