package presence

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTrackerPublishesOnce(t *testing.T) {
	ch := NewChannel("me")
	var published []State
	ch.OnLocal(func(s State) { published = append(published, s) })
	tr := Track(ch, State{Name: "ann", Color: "#ff0000"}, nil)
	defer tr.Detach()
	if len(published) != 1 {
		t.Fatalf("published %d times", len(published))
	}
	ch.Put("you", State{Name: "bob", Color: "#00ff00"})
	want := []Peer{
		{ID: "me", State: State{Name: "ann", Color: "#ff0000"}},
		{ID: "you", State: State{Name: "bob", Color: "#00ff00"}},
	}
	if diff := cmp.Diff(want, tr.Peers().Peers); diff != "" {
		t.Errorf("peers (-want +got):\n%s", diff)
	}
	ch.Remove("you")
	if got := len(tr.Peers().Peers); got != 1 {
		t.Errorf("%d peers after remove", got)
	}
	if len(published) != 1 {
		t.Errorf("published %d times", len(published))
	}
}

func TestTrackerStale(t *testing.T) {
	ch := NewChannel("me")
	tr := Track(ch, State{Name: "ann", Color: "#fff"}, nil)
	defer tr.Detach()
	var lists []List
	tr.Subscribe(func(l List) { lists = append(lists, l) })
	ch.Put("a", State{Name: "a"})
	ch.SetStale(true)
	if !tr.Peers().Stale {
		t.Error("not stale")
	}
	ch.Reset([]Peer{{ID: "b", State: State{Name: "b"}}, {ID: "me", State: State{Name: "ignored"}}})
	got := tr.Peers()
	if got.Stale {
		t.Error("stale after reset")
	}
	want := []Peer{
		{ID: "me", State: State{Name: "ann", Color: "#fff"}},
		{ID: "b", State: State{Name: "b"}},
	}
	if diff := cmp.Diff(want, got.Peers); diff != "" {
		t.Errorf("peers (-want +got):\n%s", diff)
	}
	if len(lists) != 3 {
		t.Errorf("%d notifications want 3", len(lists))
	}
}

func TestTrackerDetach(t *testing.T) {
	ch := NewChannel("me")
	tr := Track(ch, State{Name: "x"}, nil)
	n := 0
	tr.Subscribe(func(List) { n++ })
	tr.Detach()
	tr.Detach()
	ch.Put("y", State{Name: "y"})
	if n != 0 {
		t.Errorf("notified after detach")
	}
	if len(tr.Peers().Peers) != 1 {
		t.Errorf("list moved after detach")
	}
}

func TestValidColor(t *testing.T) {
	for _, c := range []string{"#fff", "#A0b1C2"} {
		if err := ValidColor(c); err != nil {
			t.Errorf("%s: %v", c, err)
		}
	}
	for _, c := range []string{"", "fff", "#ffff", "#gggggg", "#-12345"} {
		if err := ValidColor(c); !errors.Is(err, ErrBadColor) {
			t.Errorf("%q accepted", c)
		}
	}
	if err := ValidColor(RandomColor()); err != nil {
		t.Error(err)
	}
}
