package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func exercise(t *testing.T, s Store) {
	t.Helper()
	for _, e := range []struct{ room, u string }{
		{"b", "1"}, {"a", "x"}, {"b", "2"}, {"b", "3"},
	} {
		if err := s.Append(e.room, []byte(e.u)); err != nil {
			t.Fatal(err)
		}
	}
	var got []string
	if err := s.Load("b", func(u []byte) error {
		got = append(got, string(u))
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"1", "2", "3"}, got); diff != "" {
		t.Errorf("Load (-want +got):\n%s", diff)
	}
	if err := s.Load("none", func([]byte) error {
		t.Error("called for empty room")
		return nil
	}); err != nil {
		t.Error(err)
	}
	stop := errors.New("stop")
	if err := s.Load("b", func([]byte) error { return stop }); !errors.Is(err, stop) {
		t.Errorf("Load did not return callback error: %v", err)
	}
	rooms, err := s.Rooms()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, rooms); diff != "" {
		t.Errorf("Rooms (-want +got):\n%s", diff)
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	exercise(t, m)
	m.Close()
	if err := m.Append("a", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("append after close: %v", err)
	}
}

func TestBolt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.db")
	b, err := OpenBolt(path)
	if err != nil {
		t.Fatal(err)
	}
	exercise(t, b)
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	b, err = OpenBolt(path)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	n := 0
	b.Load("b", func([]byte) error { n++; return nil })
	if n != 3 {
		t.Errorf("reopened store has %d updates", n)
	}
}
