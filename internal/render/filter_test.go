package render

import (
	"strings"
	"testing"

	"github.com/clipforge/clipforge-server/internal/export"
	"github.com/clipforge/clipforge-server/internal/timeline"
)

func testGraph() *export.Graph {
	return &export.Graph{
		Base:     export.BaseStep{SourcePath: "/data/videos/base.mp4"},
		Duration: 60,
		Params: export.Params{
			VideoBitrate: "1500k", AudioBitrate: "128k",
			Width: 1280, Height: 720, Format: "mp4",
		},
		Overlays: []export.OverlayStep{
			{
				Kind: timeline.KindText, Track: 1, Start: 10, End: 15,
				Text: &export.TextOverlay{
					Text: "Hello", FontSize: 48, Weight: "bold", Color: "#ffffff",
					Shadow: true, X: 640, Y: 360,
				},
			},
			{
				Kind: timeline.KindImage, Track: 2, Start: 20, End: 25,
				Image: &export.ImageOverlay{
					SourcePath: "/data/images/logo.png", X: 128, Y: 72, Width: 384,
				},
			},
			{
				Kind: timeline.KindAudio, Track: 3, Start: 10, End: 15,
				Audio: &export.AudioOverlay{
					SourcePath: "/data/audio/music.mp3", Volume: 0.8,
				},
			},
		},
	}
}

func argValue(t *testing.T, args []string, flag string) string {
	t.Helper()
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	t.Fatalf("flag %s not found in %v", flag, args)
	return ""
}

func TestBuildArgs_Inputs(t *testing.T) {
	args := BuildArgs(testGraph(), "/data/output/out.mp4", 4)

	var inputs []string
	for i, a := range args {
		if a == "-i" {
			inputs = append(inputs, args[i+1])
		}
	}
	want := []string{"/data/videos/base.mp4", "/data/images/logo.png", "/data/audio/music.mp3"}
	if len(inputs) != len(want) {
		t.Fatalf("inputs = %v, want %v", inputs, want)
	}
	for i := range want {
		if inputs[i] != want[i] {
			t.Errorf("input[%d] = %q, want %q", i, inputs[i], want[i])
		}
	}

	if args[0] != "-y" {
		t.Errorf("args[0] = %q, want -y", args[0])
	}
	if args[len(args)-1] != "/data/output/out.mp4" {
		t.Errorf("last arg = %q, want the output path", args[len(args)-1])
	}
}

func TestBuildArgs_EncodingParams(t *testing.T) {
	args := BuildArgs(testGraph(), "out.mp4", 4)

	if got := argValue(t, args, "-b:v"); got != "1500k" {
		t.Errorf("-b:v = %q", got)
	}
	if got := argValue(t, args, "-b:a"); got != "128k" {
		t.Errorf("-b:a = %q", got)
	}
	if got := argValue(t, args, "-t"); got != "60.000" {
		t.Errorf("-t = %q", got)
	}
	if got := argValue(t, args, "-threads"); got != "4" {
		t.Errorf("-threads = %q", got)
	}
}

func TestBuildArgs_FilterComplex(t *testing.T) {
	args := BuildArgs(testGraph(), "out.mp4", 0)
	filter := argValue(t, args, "-filter_complex")

	for _, want := range []string{
		"[0:v]scale=1280:720[v0]",
		"drawtext=text='Hello'",
		"font='Sans Bold'",
		"fontsize=48",
		"shadowcolor=black@0.6",
		"enable='between(t,10.000,15.000)'",
		"[1:v]format=rgba,scale=384:-1[ov1]",
		"overlay=x=128:y=72:enable='between(t,20.000,25.000)'",
		"[2:a]atrim=0:5.000,adelay=10000|10000,volume=0.800[a1]",
		"amix=inputs=2:duration=first:normalize=0[aout]",
	} {
		if !strings.Contains(filter, want) {
			t.Errorf("filter missing %q:\n%s", want, filter)
		}
	}

	// The final video label and the mixed audio are mapped out.
	mapped := map[string]bool{}
	for i, a := range args {
		if a == "-map" {
			mapped[args[i+1]] = true
		}
	}
	if !mapped["[v2]"] {
		t.Errorf("video map missing [v2], got %v", mapped)
	}
	if !mapped["[aout]"] {
		t.Errorf("audio map missing [aout], got %v", mapped)
	}
}

func TestBuildArgs_NoOverlays(t *testing.T) {
	g := testGraph()
	g.Overlays = nil
	args := BuildArgs(g, "out.mp4", 0)

	filter := argValue(t, args, "-filter_complex")
	if filter != "[0:v]scale=1280:720[v0]" {
		t.Errorf("pass-through filter = %q", filter)
	}

	// Without audio overlays the base audio stream maps through untouched.
	for i, a := range args {
		if a == "-map" && args[i+1] == "0:a?" {
			return
		}
	}
	t.Error("base audio passthrough map missing")
}

func TestBuildArgs_Deterministic(t *testing.T) {
	a := BuildArgs(testGraph(), "out.mp4", 2)
	b := BuildArgs(testGraph(), "out.mp4", 2)
	if strings.Join(a, " ") != strings.Join(b, " ") {
		t.Error("identical graphs produced different argument lists")
	}
}

func TestEscapeDrawtext(t *testing.T) {
	cases := []struct{ in, want string }{
		{"plain", "plain"},
		{"100%", `100\%`},
		{"a:b", `a\:b`},
		{"it's", `it\'s`},
		{`back\slash`, `back\\slash`},
	}
	for _, tc := range cases {
		if got := escapeDrawtext(tc.in); got != tc.want {
			t.Errorf("escapeDrawtext(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
