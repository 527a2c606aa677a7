package api

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/sharedoc/crdt"
	"github.com/signadot/sharedoc/ir"
	"github.com/signadot/sharedoc/presence"
)

func TestFrameRoundTrip(t *testing.T) {
	d := crdt.NewDoc("a")
	m, _ := d.GetMap("root")
	m.Set("k", crdt.Leaf{Node: ir.FromString("v")})
	u := d.Updates(nil)
	in := &Frame{
		Kind:        FrameWelcome,
		Client:      "c1",
		StateVector: d.StateVector(),
		Update:      &u,
		Peers:       []presence.Peer{{ID: "c2", State: presence.State{Name: "n", Color: "#000"}}},
	}
	b, err := Encode(in)
	if err != nil {
		t.Fatal(err)
	}
	out, err := Decode(b)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestDecodeRejects(t *testing.T) {
	for _, f := range []*Frame{
		{Kind: "bogus"},
		{Kind: FrameUpdate},
		{Kind: FramePresence},
		{Kind: FrameWelcome},
	} {
		b, err := Encode(f)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := Decode(b); !errors.Is(err, ErrBadFrame) {
			t.Errorf("%s: got %v", f.Kind, err)
		}
	}
	if _, err := Decode([]byte{0xff}); !errors.Is(err, ErrBadFrame) {
		t.Errorf("garbage: %v", err)
	}
}

func TestErrorIs(t *testing.T) {
	err := error(NewError(ErrCodeUnauthorized, "bad key"))
	if !errors.Is(err, ErrUnauthorized) {
		t.Error("code match failed")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("matched wrong code")
	}
	if got := err.Error(); got != "unauthorized: bad key" {
		t.Errorf("got %q", got)
	}
}

func TestAccessKey(t *testing.T) {
	r := httptest.NewRequest("GET", "/rooms/x?access_key=q", nil)
	if got := AccessKey(r); got != "q" {
		t.Errorf("query: %q", got)
	}
	SetAccessKey(r.Header, "h")
	if got := AccessKey(r); got != "h" {
		t.Errorf("header: %q", got)
	}
}
