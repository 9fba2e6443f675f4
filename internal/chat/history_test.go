package chat

import (
	"reflect"
	"testing"
)

func TestHistory_SlidingWindow(t *testing.T) {
	var h History
	for _, content := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		h.Add("user", content)
	}
	if h.Len() != maxTurns {
		t.Errorf("len = %d, want %d", h.Len(), maxTurns)
	}
	got := h.Recent(maxTurns)
	want := []string{"b", "c", "d", "e", "f", "g"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Recent = %v, want %v", got, want)
	}
}

func TestHistory_RecentOldestFirst(t *testing.T) {
	var h History
	h.Add("user", "first")
	h.Add("user", "second")
	h.Add("user", "third")

	got := h.Recent(2)
	want := []string{"second", "third"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Recent(2) = %v, want %v", got, want)
	}
}

func TestHistory_RecentClamps(t *testing.T) {
	var h History
	h.Add("user", "only")

	if got := h.Recent(5); !reflect.DeepEqual(got, []string{"only"}) {
		t.Errorf("Recent(5) = %v", got)
	}
	if got := h.Recent(0); len(got) != 0 {
		t.Errorf("Recent(0) = %v, want empty", got)
	}
	if got := h.Recent(-1); len(got) != 0 {
		t.Errorf("Recent(-1) = %v, want empty", got)
	}
}
