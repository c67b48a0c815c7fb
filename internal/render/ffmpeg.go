// Package render executes render graphs by shelling out to ffmpeg, and
// probes media files via ffprobe. It is the production implementation of the
// export executor contract.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/clipforge/clipforge-server/internal/export"
	"github.com/clipforge/clipforge-server/internal/logging"
)

const (
	maxStderrBytes = 8 * 1024 // tail of stderr kept for diagnostics
	maxThreads     = 16
)

// ProbeResult holds the media attributes reported by ffprobe.
type ProbeResult struct {
	Duration float64
	Width    int
	Height   int
	HasAudio bool
}

// Prober reports a media file's duration and stream layout.
type Prober interface {
	Probe(ctx context.Context, path string) (*ProbeResult, error)
}

// Config holds the executor's configuration.
type Config struct {
	FFmpegPath  string // path to ffmpeg binary; empty = look up in PATH
	FFprobePath string // path to ffprobe binary; empty = look up in PATH
	Logger      *slog.Logger
}

// FFmpeg renders graphs with the ffmpeg CLI. It satisfies export.Executor
// and Prober.
type FFmpeg struct {
	cfg     Config
	ffmpeg  string
	ffprobe string
	threads int
}

// NewFFmpeg resolves the ffmpeg and ffprobe binaries and sizes the encoder
// thread count from the machine's logical CPU count.
func NewFFmpeg(cfg Config) (*FFmpeg, error) {
	ffmpeg, err := resolveBinary(cfg.FFmpegPath, "ffmpeg")
	if err != nil {
		return nil, err
	}
	ffprobe, err := resolveBinary(cfg.FFprobePath, "ffprobe")
	if err != nil {
		return nil, err
	}

	threads := 0
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		threads = n
		if threads > maxThreads {
			threads = maxThreads
		}
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("render executor initialised",
			"ffmpeg", ffmpeg,
			"ffprobe", ffprobe,
			"threads", threads,
		)
	}

	return &FFmpeg{cfg: cfg, ffmpeg: ffmpeg, ffprobe: ffprobe, threads: threads}, nil
}

func resolveBinary(configured, name string) (string, error) {
	if configured != "" {
		if _, err := os.Stat(configured); err != nil {
			return "", fmt.Errorf("configured %s not found at %s: %w", name, configured, err)
		}
		return configured, nil
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("cannot locate %s: %w", name, err)
	}
	return path, nil
}

// Render executes the graph and returns a descriptor for the output file.
// On failure the last stderr lines are carried in the error as the
// diagnostic.
func (f *FFmpeg) Render(ctx context.Context, graph *export.Graph, outputPath string) (*export.OutputDescriptor, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return nil, fmt.Errorf("cannot create output directory: %w", err)
	}

	args := BuildArgs(graph, outputPath, f.threads)

	if f.cfg.Logger != nil {
		f.cfg.Logger.Info("starting render",
			"input", logging.SanitizePath(graph.Base.SourcePath),
			"output", logging.SanitizePath(outputPath),
			"overlays", len(graph.Overlays),
		)
	}

	cmd := exec.CommandContext(ctx, f.ffmpeg, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffmpeg exited: %v: %s", err, stderrTail(stderr.Bytes()))
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg reported success but output missing: %w", err)
	}

	return &export.OutputDescriptor{
		Path:     outputPath,
		Duration: graph.Duration,
		Size:     info.Size(),
	}, nil
}

// Probe runs ffprobe and parses duration and stream layout from its JSON
// output.
func (f *FFmpeg) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	cmd := exec.CommandContext(ctx, f.ffprobe,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffprobe exited: %v: %s", err, stderrTail(stderr.Bytes()))
	}

	var out probeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("cannot parse ffprobe output: %w", err)
	}

	result := &ProbeResult{}
	if out.Format.Duration != "" {
		d, err := strconv.ParseFloat(out.Format.Duration, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot parse duration %q: %w", out.Format.Duration, err)
		}
		result.Duration = d
	}
	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			if result.Width == 0 {
				result.Width = s.Width
				result.Height = s.Height
			}
		case "audio":
			result.HasAudio = true
		}
	}

	return result, nil
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

func stderrTail(b []byte) string {
	if len(b) > maxStderrBytes {
		b = b[len(b)-maxStderrBytes:]
	}
	return string(bytes.TrimSpace(b))
}
