package export

import (
	"errors"
	"testing"
)

func TestResolve_Table(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want Params
	}{
		{
			name: "defaults",
			cfg:  Config{},
			want: Params{VideoBitrate: "1500k", AudioBitrate: "128k", Width: 1280, Height: 720, Format: "mp4"},
		},
		{
			name: "low 480p",
			cfg:  Config{Quality: QualityLow, Resolution: Resolution480p},
			want: Params{VideoBitrate: "800k", AudioBitrate: "96k", Width: 854, Height: 480, Format: "mp4"},
		},
		{
			name: "high 1080p mp4",
			cfg:  Config{Quality: QualityHigh, Format: "mp4", Resolution: Resolution1080p},
			want: Params{VideoBitrate: "3000k", AudioBitrate: "192k", Width: 1920, Height: 1080, Format: "mp4"},
		},
		{
			name: "custom format",
			cfg:  Config{Quality: QualityMedium, Format: "webm", Resolution: Resolution720p},
			want: Params{VideoBitrate: "1500k", AudioBitrate: "128k", Width: 1280, Height: 720, Format: "webm"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Resolve(tc.cfg)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if got != tc.want {
				t.Errorf("Resolve(%+v) = %+v, want %+v", tc.cfg, got, tc.want)
			}
		})
	}
}

func TestResolve_Invalid(t *testing.T) {
	if _, err := Resolve(Config{Quality: "ultra"}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("unknown quality error = %v, want ErrInvalidConfig", err)
	}
	if _, err := Resolve(Config{Resolution: "4k"}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("unknown resolution error = %v, want ErrInvalidConfig", err)
	}
}

func TestParams_FrameSize(t *testing.T) {
	p := Params{Width: 1920, Height: 1080}
	if got := p.FrameSize(); got != "1920x1080" {
		t.Errorf("FrameSize = %q", got)
	}
}
