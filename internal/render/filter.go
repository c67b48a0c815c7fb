package render

import (
	"fmt"
	"strings"

	"github.com/clipforge/clipforge-server/internal/export"
	"github.com/clipforge/clipforge-server/internal/timeline"
)

// BuildArgs translates a render graph into a complete ffmpeg argument list.
// The translation is deterministic: identical graphs yield identical argument
// lists, so a re-run of the same export produces the same command.
func BuildArgs(graph *export.Graph, outputPath string, threads int) []string {
	args := []string{"-y", "-i", graph.Base.SourcePath}

	// Image and audio overlays each contribute one extra input. Input index
	// 0 is the base clip.
	inputIndex := make(map[int]int) // overlay position -> ffmpeg input index
	next := 1
	for i, ov := range graph.Overlays {
		switch ov.Kind {
		case timeline.KindImage:
			args = append(args, "-i", ov.Image.SourcePath)
			inputIndex[i] = next
			next++
		case timeline.KindAudio:
			args = append(args, "-i", ov.Audio.SourcePath)
			inputIndex[i] = next
			next++
		}
	}

	filter, videoOut, audioOut := buildFilterComplex(graph, inputIndex)
	if filter != "" {
		args = append(args, "-filter_complex", filter)
	}

	args = append(args, "-map", videoOut)
	if audioOut != "" {
		args = append(args, "-map", audioOut)
	} else {
		args = append(args, "-map", "0:a?")
	}

	args = append(args,
		"-b:v", graph.Params.VideoBitrate,
		"-b:a", graph.Params.AudioBitrate,
		"-t", fmt.Sprintf("%.3f", graph.Duration),
	)
	if threads > 0 {
		args = append(args, "-threads", fmt.Sprintf("%d", threads))
	}

	return append(args, outputPath)
}

// buildFilterComplex assembles the filter graph: the base video scaled to the
// output frame, every visual overlay drawn in graph order restricted to its
// time window, and audio overlays trimmed, delayed, and mixed into the base
// audio stream.
func buildFilterComplex(graph *export.Graph, inputIndex map[int]int) (filter, videoOut, audioOut string) {
	var chains []string

	vLabel := "[v0]"
	chains = append(chains, fmt.Sprintf("[0:v]scale=%d:%d%s", graph.Params.Width, graph.Params.Height, vLabel))

	vCount := 0
	for i, ov := range graph.Overlays {
		switch ov.Kind {
		case timeline.KindText:
			vCount++
			out := fmt.Sprintf("[v%d]", vCount)
			chains = append(chains, fmt.Sprintf("%s%s%s", vLabel, drawtextFilter(ov), out))
			vLabel = out
		case timeline.KindImage:
			in := inputIndex[i]
			scaled := fmt.Sprintf("[ov%d]", in)
			chains = append(chains, fmt.Sprintf("[%d:v]format=rgba,scale=%d:-1%s", in, ov.Image.Width, scaled))
			vCount++
			out := fmt.Sprintf("[v%d]", vCount)
			chains = append(chains, fmt.Sprintf("%s%soverlay=x=%d:y=%d:enable='%s'%s",
				vLabel, scaled, ov.Image.X, ov.Image.Y, betweenExpr(ov.Start, ov.End), out))
			vLabel = out
		}
	}

	var audioLabels []string
	aCount := 0
	for i, ov := range graph.Overlays {
		if ov.Kind != timeline.KindAudio {
			continue
		}
		in := inputIndex[i]
		aCount++
		label := fmt.Sprintf("[a%d]", aCount)
		delayMs := int(ov.Start * 1000)
		chains = append(chains, fmt.Sprintf("[%d:a]atrim=0:%.3f,adelay=%d|%d,volume=%.3f%s",
			in, ov.End-ov.Start, delayMs, delayMs, ov.Audio.Volume, label))
		audioLabels = append(audioLabels, label)
	}

	if len(audioLabels) > 0 {
		mixIn := "[0:a]" + strings.Join(audioLabels, "")
		chains = append(chains, fmt.Sprintf("%samix=inputs=%d:duration=first:normalize=0[aout]", mixIn, len(audioLabels)+1))
		audioOut = "[aout]"
	}

	return strings.Join(chains, ";"), vLabel, audioOut
}

func drawtextFilter(ov export.OverlayStep) string {
	t := ov.Text

	font := "Sans"
	if t.Weight == "bold" {
		font = "Sans Bold"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "drawtext=text='%s':font='%s':fontsize=%d:fontcolor=%s:x=%d:y=%d",
		escapeDrawtext(t.Text), font, t.FontSize, t.Color, t.X, t.Y)
	if t.Shadow {
		b.WriteString(":shadowcolor=black@0.6:shadowx=2:shadowy=2")
	}
	fmt.Fprintf(&b, ":enable='%s'", betweenExpr(ov.Start, ov.End))
	return b.String()
}

// betweenExpr builds an enable window for an overlay. ffmpeg's between() is
// inclusive at both ends, so the half-open item interval is matched only to
// the nearest output sample; the final frame at t=end may still show the
// overlay.
func betweenExpr(start, end float64) string {
	return fmt.Sprintf("between(t,%.3f,%.3f)", start, end)
}

// escapeDrawtext escapes the characters ffmpeg's drawtext filter treats as
// syntax inside a quoted text value.
func escapeDrawtext(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`:`, `\:`,
		`%`, `\%`,
	)
	return r.Replace(s)
}
