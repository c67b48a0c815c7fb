package timeline

import (
	"fmt"

	"github.com/google/uuid"
)

// Engine implements the editing operations on top of a Model: move, trim,
// cut, delete with a single-step undo, and the playhead add helpers. All
// operations are atomic; on error the model is unchanged.
//
// The undo buffer has capacity 1: a second delete before an undo discards the
// previously buffered item irrecoverably.
type Engine struct {
	model    *Model
	deleted  *Item // most recently deleted item, nil when buffer is empty
	onChange func()
}

// NewEngine returns an engine over the given model.
func NewEngine(m *Model) *Engine {
	return &Engine{model: m}
}

// SetOnChange registers a callback invoked after every successful mutation.
// The editor session uses it to arm the autosave debounce. The callback runs
// outside the model lock.
func (e *Engine) SetOnChange(fn func()) {
	e.onChange = fn
}

// Model returns the underlying timeline model.
func (e *Engine) Model() *Model {
	return e.model
}

func (e *Engine) notify() {
	if e.onChange != nil {
		e.onChange()
	}
}

// Move shifts an item by delta seconds and optionally reassigns its track.
// Rejected when the resulting start would be negative.
func (e *Engine) Move(id string, delta float64, track *int) error {
	m := e.model
	m.mu.Lock()
	it, ok := m.byID[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}

	newStart := it.Start + delta
	newEnd := it.End + delta
	if newStart < 0 {
		m.mu.Unlock()
		return fmt.Errorf("%w: move would place start at %.3f", ErrInvalidRange, newStart)
	}

	p := Patch{Start: &newStart, End: &newEnd, Track: track}
	err := m.updateLocked(id, p)
	m.mu.Unlock()
	if err != nil {
		return err
	}
	e.notify()
	return nil
}

// TrimStart clamps the item's start boundary to t.
func (e *Engine) TrimStart(id string, t float64) error {
	return e.trim(id, t, true)
}

// TrimEnd clamps the item's end boundary to t.
func (e *Engine) TrimEnd(id string, t float64) error {
	return e.trim(id, t, false)
}

func (e *Engine) trim(id string, t float64, fromStart bool) error {
	m := e.model
	m.mu.Lock()
	it, ok := m.byID[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}

	var p Patch
	if fromStart {
		if t < 0 || t >= it.End {
			m.mu.Unlock()
			return fmt.Errorf("%w: trim start to %.3f against end %.3f", ErrInvalidRange, t, it.End)
		}
		p.Start = &t
	} else {
		if t <= it.Start {
			m.mu.Unlock()
			return fmt.Errorf("%w: trim end to %.3f against start %.3f", ErrInvalidRange, t, it.Start)
		}
		p.End = &t
	}

	err := m.updateLocked(id, p)
	m.mu.Unlock()
	if err != nil {
		return err
	}
	e.notify()
	return nil
}

// Cut splits an item at the sub-interval [cutStart, cutEnd): the original is
// truncated to [start, cutStart) and a new item with a fresh id covers
// [cutStart, cutEnd), duplicating the payload. The new item draws above the
// original. Returns the new item.
//
// The base clip on track 0 cannot be cut; that track holds exactly one item.
func (e *Engine) Cut(id string, cutStart, cutEnd float64) (Item, error) {
	m := e.model
	m.mu.Lock()
	it, ok := m.byID[id]
	if !ok {
		m.mu.Unlock()
		return Item{}, ErrNotFound
	}

	if it.Track == TrackBase {
		m.mu.Unlock()
		return Item{}, fmt.Errorf("%w: the base clip cannot be cut", ErrInvalidItem)
	}
	if cutEnd <= cutStart {
		m.mu.Unlock()
		return Item{}, fmt.Errorf("%w: cut interval [%.3f,%.3f) is empty", ErrInvalidRange, cutStart, cutEnd)
	}
	if cutStart <= it.Start || cutEnd > it.End {
		m.mu.Unlock()
		return Item{}, fmt.Errorf("%w: cut [%.3f,%.3f) must lie inside (%.3f,%.3f]", ErrInvalidRange, cutStart, cutEnd, it.Start, it.End)
	}

	part := it.Clone()
	part.ID = uuid.NewString()
	part.Start = cutStart
	part.End = cutEnd
	part.seq = 0 // fresh insertion order slot

	added, err := m.addLocked(part)
	if err != nil {
		m.mu.Unlock()
		return Item{}, err
	}

	it.End = cutStart
	out := added.Clone()
	m.mu.Unlock()
	e.notify()
	return out, nil
}

// Delete removes an item, staging it in the undo buffer. Whatever the buffer
// previously held is discarded.
func (e *Engine) Delete(id string) (Item, error) {
	m := e.model
	m.mu.Lock()
	removed, err := m.removeLocked(id)
	if err != nil {
		m.mu.Unlock()
		return Item{}, err
	}
	e.deleted = &removed
	m.mu.Unlock()
	e.notify()
	return removed.Clone(), nil
}

// Undo re-inserts the buffered item with its original id, fields, and draw
// order, then clears the buffer. Returns nil when the buffer is empty.
func (e *Engine) Undo() (*Item, error) {
	m := e.model
	m.mu.Lock()
	if e.deleted == nil {
		m.mu.Unlock()
		return nil, nil
	}

	restored, err := m.addLocked(*e.deleted)
	if err != nil {
		// The timeline changed since the delete in a way that makes the
		// item invalid again (for example a new base clip). Keep the
		// buffer so the caller can resolve and retry.
		m.mu.Unlock()
		return nil, err
	}
	e.deleted = nil
	out := restored.Clone()
	m.mu.Unlock()
	e.notify()
	return &out, nil
}

// CanUndo reports whether the undo buffer holds an item.
func (e *Engine) CanUndo() bool {
	e.model.mu.RLock()
	defer e.model.mu.RUnlock()
	return e.deleted != nil
}

// AttachBase sets or replaces the base video clip on track 0, spanning
// [0, duration).
func (e *Engine) AttachBase(source string, duration float64) (Item, error) {
	if duration <= 0 {
		return Item{}, fmt.Errorf("%w: base duration %.3f must be positive", ErrInvalidItem, duration)
	}

	m := e.model
	m.mu.Lock()
	if base := m.baseLocked(); base != nil {
		if _, err := m.removeLocked(base.ID); err != nil {
			m.mu.Unlock()
			return Item{}, err
		}
	}

	added, err := m.addLocked(Item{
		Kind:  KindVideo,
		Track: TrackBase,
		Start: 0,
		End:   duration,
		Video: &VideoProps{Source: source},
	})
	if err != nil {
		m.mu.Unlock()
		return Item{}, err
	}
	out := added.Clone()
	m.mu.Unlock()
	e.notify()
	return out, nil
}

// AddText places a text overlay at the playhead with the default duration.
func (e *Engine) AddText(props TextProps, at float64) (Item, error) {
	return e.add(Item{
		Kind:  KindText,
		Track: TrackText,
		Start: at,
		End:   at + DefaultOverlayDuration,
		Text:  &props,
	})
}

// AddImage places an image overlay at the playhead with the default duration.
func (e *Engine) AddImage(props ImageProps, at float64) (Item, error) {
	return e.add(Item{
		Kind:  KindImage,
		Track: TrackImage,
		Start: at,
		End:   at + DefaultOverlayDuration,
		Image: &props,
	})
}

// AddAudio places an audio item at the playhead spanning the source's
// probed duration.
func (e *Engine) AddAudio(props AudioProps, at, duration float64) (Item, error) {
	return e.add(Item{
		Kind:  KindAudio,
		Track: TrackAudio,
		Start: at,
		End:   at + duration,
		Audio: &props,
	})
}

func (e *Engine) add(it Item) (Item, error) {
	m := e.model
	m.mu.Lock()
	added, err := m.addLocked(it)
	if err != nil {
		m.mu.Unlock()
		return Item{}, err
	}
	out := added.Clone()
	m.mu.Unlock()
	e.notify()
	return out, nil
}
