// Package timeline implements the composition model for a video project:
// time-addressed tracks of heterogeneous items, the editing operations that
// mutate them, and a read-only playback cursor. The package holds pure data
// and invariant-preserving mutators; it performs no I/O.
package timeline

import (
	"fmt"
	"strings"
)

// Kind identifies the closed set of item types. Every switch over Kind in
// this module handles all four variants.
type Kind string

const (
	KindVideo Kind = "video"
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindAudio Kind = "audio"
)

// Track lane conventions. The model accepts any non-negative track; these are
// the lanes the editing helpers place items on.
const (
	TrackBase  = 0
	TrackText  = 1
	TrackImage = 2
	TrackAudio = 3
)

// DefaultOverlayDuration is the initial length of text and image items added
// at the playhead.
const DefaultOverlayDuration = 5.0

// Position is a point in percent of the output frame, both axes 0-100.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// VideoProps is the payload of a KindVideo item.
type VideoProps struct {
	Source string `json:"source"`
}

// TextProps is the payload of a KindText item.
type TextProps struct {
	Text     string   `json:"text"`
	FontSize int      `json:"font_size"` // px
	Weight   string   `json:"weight"`    // "normal" or "bold"
	Color    string   `json:"color"`     // #rrggbb
	Shadow   bool     `json:"shadow"`
	Position Position `json:"position"`
}

// ImageProps is the payload of a KindImage item. Width is in percent of the
// frame width; height follows the image aspect ratio.
type ImageProps struct {
	Source   string   `json:"source"`
	Position Position `json:"position"`
	Width    float64  `json:"width"`
}

// AudioProps is the payload of a KindAudio item.
type AudioProps struct {
	Source string  `json:"source"`
	Volume float64 `json:"volume"` // gain 0..1
}

// Item is a time-bounded element placed on a track. Exactly the payload
// matching Kind is non-nil. The active interval is half-open: [Start, End).
type Item struct {
	ID    string  `json:"id"`
	Kind  Kind    `json:"kind"`
	Track int     `json:"track"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`

	Video *VideoProps `json:"video,omitempty"`
	Text  *TextProps  `json:"text,omitempty"`
	Image *ImageProps `json:"image,omitempty"`
	Audio *AudioProps `json:"audio,omitempty"`

	// seq is the insertion sequence number. Items that overlap in time on
	// the same track are composited in ascending seq order, so later
	// insertions draw on top. It survives delete/undo so a restored item
	// keeps its position in the draw order.
	seq uint64
}

// Duration returns End - Start.
func (it *Item) Duration() float64 {
	return it.End - it.Start
}

// ActiveAt reports whether t falls within the item's half-open interval.
func (it *Item) ActiveAt(t float64) bool {
	return t >= it.Start && t < it.End
}

// Clone returns a deep copy of the item, payload included.
func (it *Item) Clone() Item {
	out := *it
	switch it.Kind {
	case KindVideo:
		if it.Video != nil {
			v := *it.Video
			out.Video = &v
		}
	case KindText:
		if it.Text != nil {
			t := *it.Text
			out.Text = &t
		}
	case KindImage:
		if it.Image != nil {
			i := *it.Image
			out.Image = &i
		}
	case KindAudio:
		if it.Audio != nil {
			a := *it.Audio
			out.Audio = &a
		}
	}
	return out
}

// Validate checks the item's fields against the model invariants. It does not
// know about cross-item invariants (id uniqueness, base track occupancy);
// those belong to the Model.
func (it *Item) Validate() error {
	if it.Track < 0 {
		return fmt.Errorf("%w: track %d is negative", ErrInvalidItem, it.Track)
	}
	if it.Start < 0 {
		return fmt.Errorf("%w: start %.3f is negative", ErrInvalidItem, it.Start)
	}
	if it.Start >= it.End {
		return fmt.Errorf("%w: start %.3f must be before end %.3f", ErrInvalidItem, it.Start, it.End)
	}

	switch it.Kind {
	case KindVideo:
		if it.Video == nil || it.Text != nil || it.Image != nil || it.Audio != nil {
			return fmt.Errorf("%w: video item requires exactly a video payload", ErrInvalidItem)
		}
		if it.Video.Source == "" {
			return fmt.Errorf("%w: video source is required", ErrInvalidItem)
		}
	case KindText:
		if it.Text == nil || it.Video != nil || it.Image != nil || it.Audio != nil {
			return fmt.Errorf("%w: text item requires exactly a text payload", ErrInvalidItem)
		}
		return it.Text.validate()
	case KindImage:
		if it.Image == nil || it.Video != nil || it.Text != nil || it.Audio != nil {
			return fmt.Errorf("%w: image item requires exactly an image payload", ErrInvalidItem)
		}
		return it.Image.validate()
	case KindAudio:
		if it.Audio == nil || it.Video != nil || it.Text != nil || it.Image != nil {
			return fmt.Errorf("%w: audio item requires exactly an audio payload", ErrInvalidItem)
		}
		return it.Audio.validate()
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidItem, it.Kind)
	}
	return nil
}

func (p *TextProps) validate() error {
	if p.Text == "" {
		return fmt.Errorf("%w: text is required", ErrInvalidItem)
	}
	if p.FontSize <= 0 {
		return fmt.Errorf("%w: font size %d must be positive", ErrInvalidItem, p.FontSize)
	}
	if p.Weight != "normal" && p.Weight != "bold" {
		return fmt.Errorf("%w: weight %q must be normal or bold", ErrInvalidItem, p.Weight)
	}
	if !isHexColor(p.Color) {
		return fmt.Errorf("%w: color %q must be #rrggbb", ErrInvalidItem, p.Color)
	}
	return p.Position.validate()
}

func (p *ImageProps) validate() error {
	if p.Source == "" {
		return fmt.Errorf("%w: image source is required", ErrInvalidItem)
	}
	if p.Width <= 0 || p.Width > 100 {
		return fmt.Errorf("%w: image width %.2f must be in (0,100]", ErrInvalidItem, p.Width)
	}
	return p.Position.validate()
}

func (p *AudioProps) validate() error {
	if p.Source == "" {
		return fmt.Errorf("%w: audio source is required", ErrInvalidItem)
	}
	if p.Volume < 0 || p.Volume > 1 {
		return fmt.Errorf("%w: volume %.2f must be in [0,1]", ErrInvalidItem, p.Volume)
	}
	return nil
}

func (p Position) validate() error {
	if p.X < 0 || p.X > 100 || p.Y < 0 || p.Y > 100 {
		return fmt.Errorf("%w: position {%.2f,%.2f} must be within [0,100]", ErrInvalidItem, p.X, p.Y)
	}
	return nil
}

func isHexColor(s string) bool {
	if len(s) != 7 || !strings.HasPrefix(s, "#") {
		return false
	}
	for _, r := range s[1:] {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
