package timeline

import "testing"

func TestCursor_ActiveAt(t *testing.T) {
	e := newEngineWithBase(t, 120)
	m := e.Model()
	c := NewCursor(m)

	text, _ := e.AddText(TextProps{Text: "t", FontSize: 12, Weight: "normal", Color: "#000000"}, 10) // [10,15)
	img, _ := e.AddImage(ImageProps{Source: "/uploads/images/a.png", Width: 10}, 12)                 // [12,17)

	kinds := func(items []Item) map[string]bool {
		out := make(map[string]bool, len(items))
		for _, it := range items {
			out[it.ID] = true
		}
		return out
	}

	// The base clip is always part of the active set.
	active := c.ActiveAt(5)
	if len(active) != 1 || active[0].Kind != KindVideo {
		t.Fatalf("at t=5: %d items, want just the base", len(active))
	}

	active = c.ActiveAt(12)
	got := kinds(active)
	if len(active) != 3 || !got[text.ID] || !got[img.ID] {
		t.Errorf("at t=12: got %d items %v, want base+text+image", len(active), got)
	}

	// Intervals are half-open: the end boundary is exclusive, the start
	// boundary inclusive.
	active = c.ActiveAt(15)
	got = kinds(active)
	if got[text.ID] {
		t.Error("text active at its end boundary")
	}
	if !got[img.ID] {
		t.Error("image inactive in the middle of its window")
	}
	active = c.ActiveAt(10)
	if !kinds(active)[text.ID] {
		t.Error("text inactive at its start boundary")
	}
}

func TestCursor_ActiveAt_ReturnsCopies(t *testing.T) {
	e := newEngineWithBase(t, 60)
	c := NewCursor(e.Model())
	text, _ := e.AddText(TextProps{Text: "orig", FontSize: 12, Weight: "normal", Color: "#000000"}, 0)

	active := c.ActiveAt(1)
	for i := range active {
		if active[i].ID == text.ID {
			active[i].Text.Text = "mutated"
		}
	}

	got, _ := e.Model().Get(text.ID)
	if got.Text.Text != "orig" {
		t.Error("mutating the active set leaked into the model")
	}
}

func TestCursor_ActiveAt_Empty(t *testing.T) {
	c := NewCursor(NewModel())
	if items := c.ActiveAt(0); len(items) != 0 {
		t.Errorf("empty timeline returned %d active items", len(items))
	}
}
