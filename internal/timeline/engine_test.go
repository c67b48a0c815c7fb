package timeline

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"
)

func newEngineWithBase(t *testing.T, duration float64) *Engine {
	t.Helper()
	e := NewEngine(NewModel())
	if _, err := e.AttachBase("/uploads/videos/base.mp4", duration); err != nil {
		t.Fatalf("AttachBase: %v", err)
	}
	return e
}

func TestEngine_Move(t *testing.T) {
	e := newEngineWithBase(t, 60)
	item, err := e.AddText(TextProps{
		Text: "title", FontSize: 40, Weight: "bold", Color: "#ff8800",
		Position: Position{X: 50, Y: 20},
	}, 10)
	if err != nil {
		t.Fatalf("AddText: %v", err)
	}

	if err := e.Move(item.ID, 2.5, nil); err != nil {
		t.Fatalf("Move: %v", err)
	}
	got, _ := e.Model().Get(item.ID)
	if got.Start != 12.5 || got.End != 17.5 {
		t.Errorf("after move: [%v,%v), want [12.5,17.5)", got.Start, got.End)
	}

	// Duration is preserved on track change too.
	track := 5
	if err := e.Move(item.ID, -2.5, &track); err != nil {
		t.Fatalf("Move with track: %v", err)
	}
	got, _ = e.Model().Get(item.ID)
	if got.Track != 5 || got.Start != 10 || got.End != 15 {
		t.Errorf("after track move: track=%d [%v,%v)", got.Track, got.Start, got.End)
	}
}

func TestEngine_Move_RejectsNegativeStart(t *testing.T) {
	e := newEngineWithBase(t, 60)
	item, _ := e.AddText(TextProps{
		Text: "t", FontSize: 12, Weight: "normal", Color: "#000000",
	}, 1)

	if err := e.Move(item.ID, -2, nil); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("Move past zero: error = %v, want ErrInvalidRange", err)
	}
	got, _ := e.Model().Get(item.ID)
	if got.Start != 1 {
		t.Errorf("start changed after rejected move: %v", got.Start)
	}
}

func TestEngine_Move_NotFound(t *testing.T) {
	e := newEngineWithBase(t, 60)
	if err := e.Move("ghost", 1, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestEngine_Trim(t *testing.T) {
	e := newEngineWithBase(t, 60)
	item, _ := e.AddText(TextProps{
		Text: "t", FontSize: 12, Weight: "normal", Color: "#000000",
	}, 10) // [10,15)

	if err := e.TrimStart(item.ID, 12); err != nil {
		t.Fatalf("TrimStart: %v", err)
	}
	if err := e.TrimEnd(item.ID, 14); err != nil {
		t.Fatalf("TrimEnd: %v", err)
	}

	got, _ := e.Model().Get(item.ID)
	if got.Start != 12 || got.End != 14 {
		t.Errorf("after trims: [%v,%v), want [12,14)", got.Start, got.End)
	}

	// Trimming to an empty or inverted interval is rejected.
	if err := e.TrimStart(item.ID, 14); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("TrimStart to end: error = %v, want ErrInvalidRange", err)
	}
	if err := e.TrimEnd(item.ID, 12); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("TrimEnd to start: error = %v, want ErrInvalidRange", err)
	}
	if err := e.TrimStart(item.ID, -1); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("TrimStart negative: error = %v, want ErrInvalidRange", err)
	}
}

func TestEngine_Cut_PartitionsInterval(t *testing.T) {
	e := newEngineWithBase(t, 60)
	item, _ := e.AddImage(ImageProps{
		Source: "/uploads/images/a.png", Width: 20,
	}, 10) // [10,15)

	part, err := e.Cut(item.ID, 12, 14)
	if err != nil {
		t.Fatalf("Cut: %v", err)
	}

	orig, _ := e.Model().Get(item.ID)
	if orig.Start != 10 || orig.End != 12 {
		t.Errorf("original after cut: [%v,%v), want [10,12)", orig.Start, orig.End)
	}
	if part.Start != 12 || part.End != 14 {
		t.Errorf("part: [%v,%v), want [12,14)", part.Start, part.End)
	}
	if part.ID == item.ID {
		t.Error("cut part shares the original's id")
	}
	if part.Kind != KindImage || part.Image == nil || part.Image.Source != orig.Image.Source {
		t.Error("cut part did not duplicate the payload")
	}

	// The part draws above the original: later in insertion order.
	items := e.Model().Items()
	origIdx, partIdx := -1, -1
	for i, it := range items {
		switch it.ID {
		case item.ID:
			origIdx = i
		case part.ID:
			partIdx = i
		}
	}
	if partIdx < origIdx {
		t.Errorf("part at index %d before original at %d", partIdx, origIdx)
	}
}

func TestEngine_Cut_Rejections(t *testing.T) {
	e := newEngineWithBase(t, 60)
	base, _ := e.Model().Base()
	item, _ := e.AddText(TextProps{
		Text: "t", FontSize: 12, Weight: "normal", Color: "#000000",
	}, 10) // [10,15)

	if _, err := e.Cut(base.ID, 10, 20); !errors.Is(err, ErrInvalidItem) {
		t.Errorf("cut base: error = %v, want ErrInvalidItem", err)
	}
	if _, err := e.Cut(item.ID, 13, 13); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("empty cut: error = %v, want ErrInvalidRange", err)
	}
	if _, err := e.Cut(item.ID, 10, 12); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("cut at start: error = %v, want ErrInvalidRange", err)
	}
	if _, err := e.Cut(item.ID, 12, 16); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("cut past end: error = %v, want ErrInvalidRange", err)
	}
	if _, err := e.Cut("ghost", 1, 2); !errors.Is(err, ErrNotFound) {
		t.Errorf("cut missing: error = %v, want ErrNotFound", err)
	}

	got, _ := e.Model().Get(item.ID)
	if got.Start != 10 || got.End != 15 {
		t.Errorf("item changed after rejected cuts: [%v,%v)", got.Start, got.End)
	}
}

func TestEngine_DeleteUndo_RestoresExactly(t *testing.T) {
	e := newEngineWithBase(t, 60)
	e.AddText(TextProps{Text: "before", FontSize: 12, Weight: "normal", Color: "#000000"}, 0)
	item, _ := e.AddImage(ImageProps{Source: "/uploads/images/a.png", Position: Position{X: 5, Y: 5}, Width: 25}, 10)
	e.AddText(TextProps{Text: "after", FontSize: 12, Weight: "normal", Color: "#000000"}, 20)

	before := e.Model().Snapshot()

	if _, err := e.Delete(item.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !e.CanUndo() {
		t.Fatal("CanUndo = false after delete")
	}

	restored, err := e.Undo()
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if restored == nil || restored.ID != item.ID {
		t.Fatalf("Undo restored %+v, want id %s", restored, item.ID)
	}
	if e.CanUndo() {
		t.Error("CanUndo = true after undo")
	}

	after := e.Model().Snapshot()
	if !reflect.DeepEqual(before, after) {
		t.Errorf("timeline differs after delete+undo:\nbefore: %+v\nafter:  %+v", before, after)
	}
}

func TestEngine_Undo_EmptyBuffer(t *testing.T) {
	e := newEngineWithBase(t, 60)
	restored, err := e.Undo()
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if restored != nil {
		t.Errorf("Undo on empty buffer restored %+v", restored)
	}
}

func TestEngine_Delete_ReplacesBuffer(t *testing.T) {
	e := newEngineWithBase(t, 60)
	first, _ := e.AddText(TextProps{Text: "a", FontSize: 12, Weight: "normal", Color: "#000000"}, 0)
	second, _ := e.AddText(TextProps{Text: "b", FontSize: 12, Weight: "normal", Color: "#000000"}, 10)

	e.Delete(first.ID)
	e.Delete(second.ID)

	restored, err := e.Undo()
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if restored.ID != second.ID {
		t.Errorf("Undo restored %s, want the later delete %s", restored.ID, second.ID)
	}

	// The first delete was displaced from the buffer and is gone for good.
	if restored, _ := e.Undo(); restored != nil {
		t.Errorf("second Undo restored %+v, want nil", restored)
	}
	if _, err := e.Model().Get(first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("first item came back: %v", err)
	}
}

func TestEngine_Undo_ConflictKeepsBuffer(t *testing.T) {
	e := newEngineWithBase(t, 60)
	base, _ := e.Model().Base()

	if _, err := e.Delete(base.ID); err != nil {
		t.Fatalf("delete base: %v", err)
	}
	if _, err := e.AttachBase("/uploads/videos/other.mp4", 30); err != nil {
		t.Fatalf("attach new base: %v", err)
	}

	// The old base can no longer be restored; the buffer survives the failure.
	if _, err := e.Undo(); !errors.Is(err, ErrInvalidItem) {
		t.Fatalf("Undo error = %v, want ErrInvalidItem", err)
	}
	if !e.CanUndo() {
		t.Error("undo buffer dropped after failed undo")
	}
}

func TestEngine_AttachBase_Replaces(t *testing.T) {
	e := newEngineWithBase(t, 60)

	replaced, err := e.AttachBase("/uploads/videos/new.mp4", 45)
	if err != nil {
		t.Fatalf("AttachBase: %v", err)
	}
	if replaced.End != 45 || replaced.Video.Source != "/uploads/videos/new.mp4" {
		t.Errorf("new base = %+v", replaced)
	}

	count := 0
	for _, it := range e.Model().Items() {
		if it.Track == TrackBase {
			count++
		}
	}
	if count != 1 {
		t.Errorf("track 0 holds %d items, want 1", count)
	}
}

func TestEngine_AddHelpers_DefaultDuration(t *testing.T) {
	e := newEngineWithBase(t, 60)

	text, err := e.AddText(TextProps{Text: "t", FontSize: 12, Weight: "normal", Color: "#000000"}, 7)
	if err != nil {
		t.Fatalf("AddText: %v", err)
	}
	if text.Track != TrackText || text.Start != 7 || text.End != 12 {
		t.Errorf("text = track %d [%v,%v)", text.Track, text.Start, text.End)
	}

	img, err := e.AddImage(ImageProps{Source: "/uploads/images/a.png", Width: 10}, 3)
	if err != nil {
		t.Fatalf("AddImage: %v", err)
	}
	if img.Track != TrackImage || img.End-img.Start != DefaultOverlayDuration {
		t.Errorf("image = track %d duration %v", img.Track, img.End-img.Start)
	}

	aud, err := e.AddAudio(AudioProps{Source: "/uploads/audio/a.mp3", Volume: 1}, 0, 42)
	if err != nil {
		t.Fatalf("AddAudio: %v", err)
	}
	if aud.Track != TrackAudio || aud.End != 42 {
		t.Errorf("audio = track %d [%v,%v)", aud.Track, aud.Start, aud.End)
	}
}

func TestEngine_OnChange_FiresPerMutation(t *testing.T) {
	e := NewEngine(NewModel())
	calls := 0
	e.SetOnChange(func() { calls++ })

	if _, err := e.AttachBase("/uploads/videos/base.mp4", 60); err != nil {
		t.Fatalf("AttachBase: %v", err)
	}
	item, _ := e.AddText(TextProps{Text: "t", FontSize: 12, Weight: "normal", Color: "#000000"}, 0)
	e.Move(item.ID, 1, nil)
	e.Delete(item.ID)
	e.Undo()

	if calls != 5 {
		t.Errorf("onChange fired %d times, want 5", calls)
	}

	// Rejected edits do not notify.
	before := calls
	e.Move(item.ID, -100, nil)
	if calls != before {
		t.Error("onChange fired for a rejected edit")
	}
}

// TestEngine_RandomEditsPreserveIntervals drives a long seeded sequence of
// move/trim/cut operations, many of them invalid, and checks after every step
// that no item has escaped the interval invariant and no id is duplicated.
func TestEngine_RandomEditsPreserveIntervals(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	e := newEngineWithBase(t, 60)
	for i := 0; i < 4; i++ {
		if _, err := e.AddText(TextProps{
			Text: "t", FontSize: 12, Weight: "normal", Color: "#000000",
		}, float64(i*10)); err != nil {
			t.Fatalf("AddText: %v", err)
		}
	}

	checkInvariants := func(step int) {
		items := e.Model().Items()
		seen := make(map[string]bool, len(items))
		for _, it := range items {
			if it.Start < 0 || it.Start >= it.End {
				t.Fatalf("step %d: item %s has interval [%v,%v)", step, it.ID, it.Start, it.End)
			}
			if seen[it.ID] {
				t.Fatalf("step %d: duplicate id %s", step, it.ID)
			}
			seen[it.ID] = true
		}
	}

	for step := 0; step < 5000; step++ {
		items := e.Model().Items()
		target := items[rng.Intn(len(items))]

		switch rng.Intn(4) {
		case 0:
			e.Move(target.ID, rng.Float64()*20-10, nil)
		case 1:
			e.TrimStart(target.ID, rng.Float64()*70-5)
		case 2:
			e.TrimEnd(target.ID, rng.Float64()*70-5)
		case 3:
			a := rng.Float64() * 60
			e.Cut(target.ID, a, a+rng.Float64()*10)
		}

		checkInvariants(step)
	}
}
