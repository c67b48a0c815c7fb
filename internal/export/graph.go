package export

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/clipforge/clipforge-server/internal/timeline"
)

// SourceResolver turns an item's source reference into an absolute, readable
// media path. The asset store implements it.
type SourceResolver interface {
	ResolveSource(ctx context.Context, ref string) (string, error)
}

// Graph is the ordered set of composition steps for one export. Given the
// same snapshot and parameters, construction is deterministic: two builds
// produce identical graphs.
type Graph struct {
	Base     BaseStep
	Overlays []OverlayStep
	Duration float64 // seconds; equals the base clip's duration
	Params   Params
}

// BaseStep re-encodes the base clip at the resolved frame size, bitrates, and
// container. It is the primary video and audio stream every overlay draws or
// mixes onto.
type BaseStep struct {
	SourcePath string
}

// OverlayStep blends one timed element onto the primary stream, restricted to
// the half-open window [Start, End). Exactly the payload matching Kind is set.
type OverlayStep struct {
	Kind  timeline.Kind
	Track int
	Start float64
	End   float64

	Text  *TextOverlay
	Image *ImageOverlay
	Audio *AudioOverlay
}

// TextOverlay draws styled text. X and Y are pixel coordinates resolved
// against the output frame.
type TextOverlay struct {
	Text     string
	FontSize int
	Weight   string
	Color    string
	Shadow   bool
	X        int
	Y        int
}

// ImageOverlay alpha-blends an image scaled to Width pixels at (X, Y).
type ImageOverlay struct {
	SourcePath string
	X          int
	Y          int
	Width      int
}

// AudioOverlay mixes a source into the primary audio stream at the given
// gain.
type AudioOverlay struct {
	SourcePath string
	Volume     float64
}

// BuildGraph compiles a timeline snapshot into a render graph. It fails fast
// with ErrNoBaseMedia when the snapshot has no base clip. Overlay windows are
// clamped to [0, base duration); items left with an empty window are skipped.
// An empty overlay list still yields a valid pass-through graph.
//
// Overlays are ordered by track, then by the snapshot's insertion order, so
// items overlapping on one track composite with later insertions on top.
func BuildGraph(ctx context.Context, snapshot []timeline.Item, params Params, resolver SourceResolver) (*Graph, error) {
	var base *timeline.Item
	for i := range snapshot {
		it := &snapshot[i]
		if it.Track == timeline.TrackBase && it.Kind == timeline.KindVideo {
			base = it
			break
		}
	}
	if base == nil {
		return nil, ErrNoBaseMedia
	}

	duration := base.Duration()

	type pending struct {
		item  timeline.Item
		order int
		path  string
	}

	var overlays []*pending
	for i, it := range snapshot {
		if it.ID == base.ID {
			continue
		}
		start := math.Max(it.Start, 0)
		end := math.Min(it.End, duration)
		if end <= start {
			continue
		}
		it.Start, it.End = start, end
		overlays = append(overlays, &pending{item: it, order: i})
	}

	sort.SliceStable(overlays, func(i, j int) bool {
		if overlays[i].item.Track != overlays[j].item.Track {
			return overlays[i].item.Track < overlays[j].item.Track
		}
		return overlays[i].order < overlays[j].order
	})

	// Resolve all source references up front so a missing asset fails the
	// whole export before anything is submitted.
	g, gctx := errgroup.WithContext(ctx)

	var basePath string
	g.Go(func() error {
		p, err := resolver.ResolveSource(gctx, base.Video.Source)
		if err != nil {
			return err
		}
		basePath = p
		return nil
	})

	for _, ov := range overlays {
		ref := ""
		switch ov.item.Kind {
		case timeline.KindImage:
			ref = ov.item.Image.Source
		case timeline.KindAudio:
			ref = ov.item.Audio.Source
		case timeline.KindText, timeline.KindVideo:
			continue
		}
		ov := ov
		g.Go(func() error {
			p, err := resolver.ResolveSource(gctx, ref)
			if err != nil {
				return err
			}
			ov.path = p
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	graph := &Graph{
		Base:     BaseStep{SourcePath: basePath},
		Duration: duration,
		Params:   params,
	}

	for _, ov := range overlays {
		step := OverlayStep{
			Kind:  ov.item.Kind,
			Track: ov.item.Track,
			Start: ov.item.Start,
			End:   ov.item.End,
		}

		switch ov.item.Kind {
		case timeline.KindText:
			p := ov.item.Text
			step.Text = &TextOverlay{
				Text:     p.Text,
				FontSize: p.FontSize,
				Weight:   p.Weight,
				Color:    p.Color,
				Shadow:   p.Shadow,
				X:        pctToPx(p.Position.X, params.Width),
				Y:        pctToPx(p.Position.Y, params.Height),
			}
		case timeline.KindImage:
			p := ov.item.Image
			step.Image = &ImageOverlay{
				SourcePath: ov.path,
				X:          pctToPx(p.Position.X, params.Width),
				Y:          pctToPx(p.Position.Y, params.Height),
				Width:      pctToPx(p.Width, params.Width),
			}
		case timeline.KindAudio:
			p := ov.item.Audio
			step.Audio = &AudioOverlay{
				SourcePath: ov.path,
				Volume:     p.Volume,
			}
		case timeline.KindVideo:
			// The model confines video items to track 0; nothing reaches
			// here.
			continue
		}

		graph.Overlays = append(graph.Overlays, step)
	}

	return graph, nil
}

func pctToPx(pct float64, dimension int) int {
	return int(math.Round(pct / 100.0 * float64(dimension)))
}
