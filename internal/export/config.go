// Package export compiles a timeline snapshot plus an export configuration
// into a render graph: the ordered set of composition steps handed to the
// render executor for one output file.
package export

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned for an unknown quality or resolution tier.
	ErrInvalidConfig = errors.New("invalid export config")

	// ErrNoBaseMedia is returned when an export is requested for a timeline
	// without a base video clip. No graph is built.
	ErrNoBaseMedia = errors.New("no base media attached")

	// ErrRenderFailed wraps executor-reported failures, carrying the
	// executor's diagnostic message.
	ErrRenderFailed = errors.New("render failed")
)

type Quality string

const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
)

type Resolution string

const (
	Resolution480p  Resolution = "480p"
	Resolution720p  Resolution = "720p"
	Resolution1080p Resolution = "1080p"
)

// DefaultFormat is the output container used when the request omits one.
const DefaultFormat = "mp4"

// Config is the user-facing export request: quality tier, output container
// extension, and frame resolution. Zero values select the documented
// defaults (medium, mp4, 720p).
type Config struct {
	Quality    Quality    `json:"quality"`
	Format     string     `json:"format"`
	Resolution Resolution `json:"resolution"`
}

// Params are the resolved encoder parameters for one export.
type Params struct {
	VideoBitrate string
	AudioBitrate string
	Width        int
	Height       int
	Format       string
}

// FrameSize returns the ffmpeg-style WxH string.
func (p Params) FrameSize() string {
	return fmt.Sprintf("%dx%d", p.Width, p.Height)
}

// Resolve maps a Config to concrete encoder parameters. The mapping is a
// fixed table; the same input always yields the same output.
func Resolve(cfg Config) (Params, error) {
	var p Params

	quality := cfg.Quality
	if quality == "" {
		quality = QualityMedium
	}
	switch quality {
	case QualityLow:
		p.VideoBitrate, p.AudioBitrate = "800k", "96k"
	case QualityMedium:
		p.VideoBitrate, p.AudioBitrate = "1500k", "128k"
	case QualityHigh:
		p.VideoBitrate, p.AudioBitrate = "3000k", "192k"
	default:
		return Params{}, fmt.Errorf("%w: unknown quality %q", ErrInvalidConfig, cfg.Quality)
	}

	resolution := cfg.Resolution
	if resolution == "" {
		resolution = Resolution720p
	}
	switch resolution {
	case Resolution480p:
		p.Width, p.Height = 854, 480
	case Resolution720p:
		p.Width, p.Height = 1280, 720
	case Resolution1080p:
		p.Width, p.Height = 1920, 1080
	default:
		return Params{}, fmt.Errorf("%w: unknown resolution %q", ErrInvalidConfig, cfg.Resolution)
	}

	p.Format = cfg.Format
	if p.Format == "" {
		p.Format = DefaultFormat
	}

	return p, nil
}
