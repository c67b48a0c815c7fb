package timeline

// Cursor maps a playhead position to the items active at that instant. It is
// a read-only view with no state of its own: every query recomputes against
// the current model under a read lock, so results are always consistent with
// the latest edit.
type Cursor struct {
	model *Model
}

// NewCursor returns a cursor over the given model.
func NewCursor(m *Model) *Cursor {
	return &Cursor{model: m}
}

// ActiveAt returns copies of the items active at time t. Overlay items are
// active when t falls in [start, end); the base video clip, when present, is
// always included because it anchors the visible frame during preview.
func (c *Cursor) ActiveAt(t float64) []Item {
	m := c.model
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Item, 0, len(m.items))
	for _, it := range m.items {
		if it.Track == TrackBase && it.Kind == KindVideo {
			out = append(out, it.Clone())
			continue
		}
		if it.ActiveAt(t) {
			out = append(out, it.Clone())
		}
	}
	return out
}
