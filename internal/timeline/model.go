package timeline

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Model owns the set of timeline items for one project. All exported methods
// are safe for concurrent use; mutators either fully apply or leave the model
// unchanged.
type Model struct {
	mu      sync.RWMutex
	items   []*Item // kept in insertion (seq) order
	byID    map[string]*Item
	nextSeq uint64
}

// NewModel returns an empty timeline.
func NewModel() *Model {
	return &Model{byID: make(map[string]*Item)}
}

// Patch describes a partial item update. Nil fields are left untouched; a
// non-nil payload pointer replaces the whole payload and must match the
// item's kind.
type Patch struct {
	Track *int
	Start *float64
	End   *float64

	Video *VideoProps
	Text  *TextProps
	Image *ImageProps
	Audio *AudioProps
}

// Add validates the item and inserts it. An empty ID gets a fresh one.
// Returns the item's id.
func (m *Model) Add(it Item) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	added, err := m.addLocked(it)
	if err != nil {
		return "", err
	}
	return added.ID, nil
}

// Get returns a copy of the item with the given id.
func (m *Model) Get(id string) (Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.byID[id]
	if !ok {
		return Item{}, ErrNotFound
	}
	return it.Clone(), nil
}

// Update applies a partial update to the item with the given id.
func (m *Model) Update(id string, p Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateLocked(id, p)
}

// Remove deletes the item with the given id and returns it.
func (m *Model) Remove(id string) (Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(id)
}

// Items returns copies of all items in insertion order.
func (m *Model) Items() []Item {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.itemsLocked()
}

// Snapshot returns a deep copy of the timeline, decoupled from further edits.
// Exports and autosave operate on snapshots.
func (m *Model) Snapshot() []Item {
	return m.Items()
}

// Len returns the number of items.
func (m *Model) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Base returns a copy of the track-0 video item, or false when no base clip
// is attached.
func (m *Model) Base() (Item, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	base := m.baseLocked()
	if base == nil {
		return Item{}, false
	}
	return base.Clone(), true
}

// Load replaces the timeline contents with the given items, preserving their
// order as the insertion order. Used when rehydrating a session from the
// project store.
func (m *Model) Load(items []Item) error {
	fresh := NewModel()
	for _, it := range items {
		if _, err := fresh.addLocked(it); err != nil {
			return fmt.Errorf("item %s: %w", it.ID, err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = fresh.items
	m.byID = fresh.byID
	m.nextSeq = fresh.nextSeq
	return nil
}

func (m *Model) addLocked(it Item) (*Item, error) {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	if _, exists := m.byID[it.ID]; exists {
		return nil, fmt.Errorf("%w: duplicate id %s", ErrInvalidItem, it.ID)
	}
	if err := it.Validate(); err != nil {
		return nil, err
	}
	if err := m.checkBaseTrackLocked(&it, it.ID); err != nil {
		return nil, err
	}

	stored := it.Clone()
	if stored.seq == 0 {
		m.nextSeq++
		stored.seq = m.nextSeq
	} else if stored.seq > m.nextSeq {
		m.nextSeq = stored.seq
	}

	m.insertOrderedLocked(&stored)
	m.byID[stored.ID] = &stored
	return &stored, nil
}

func (m *Model) updateLocked(id string, p Patch) error {
	it, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}

	next := it.Clone()
	if p.Track != nil {
		next.Track = *p.Track
	}
	if p.Start != nil {
		next.Start = *p.Start
	}
	if p.End != nil {
		next.End = *p.End
	}
	if p.Video != nil {
		v := *p.Video
		next.Video = &v
	}
	if p.Text != nil {
		t := *p.Text
		next.Text = &t
	}
	if p.Image != nil {
		i := *p.Image
		next.Image = &i
	}
	if p.Audio != nil {
		a := *p.Audio
		next.Audio = &a
	}

	if err := next.Validate(); err != nil {
		return err
	}
	if err := m.checkBaseTrackLocked(&next, id); err != nil {
		return err
	}

	*it = next
	return nil
}

func (m *Model) removeLocked(id string) (Item, error) {
	it, ok := m.byID[id]
	if !ok {
		return Item{}, ErrNotFound
	}

	delete(m.byID, id)
	for i, cur := range m.items {
		if cur.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			break
		}
	}
	return *it, nil
}

func (m *Model) itemsLocked() []Item {
	out := make([]Item, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, it.Clone())
	}
	return out
}

func (m *Model) baseLocked() *Item {
	for _, it := range m.items {
		if it.Track == TrackBase && it.Kind == KindVideo {
			return it
		}
	}
	return nil
}

// checkBaseTrackLocked enforces that track 0 holds at most one item and that
// item is the base video clip. excludeID names the item being added or
// updated so it is not compared against itself.
func (m *Model) checkBaseTrackLocked(it *Item, excludeID string) error {
	if it.Track != TrackBase {
		if it.Kind == KindVideo {
			return fmt.Errorf("%w: video items live on track %d", ErrInvalidItem, TrackBase)
		}
		return nil
	}
	if it.Kind != KindVideo {
		return fmt.Errorf("%w: track %d is reserved for the base video clip", ErrInvalidItem, TrackBase)
	}
	for _, cur := range m.items {
		if cur.Track == TrackBase && cur.ID != excludeID {
			return fmt.Errorf("%w: track %d already holds the base clip", ErrInvalidItem, TrackBase)
		}
	}
	return nil
}

// insertOrderedLocked places the item at its seq position. New items always
// append; a re-inserted item (undo) lands back where it was.
func (m *Model) insertOrderedLocked(it *Item) {
	pos := len(m.items)
	for i, cur := range m.items {
		if cur.seq > it.seq {
			pos = i
			break
		}
	}
	m.items = append(m.items, nil)
	copy(m.items[pos+1:], m.items[pos:])
	m.items[pos] = it
}
