package project

import (
	"errors"
	"testing"

	"github.com/signadot/sharedoc/crdt"
	"github.com/signadot/sharedoc/ir"
)

func mustJSON(t *testing.T, s string) *ir.Node {
	t.Helper()
	y, err := ir.FromJSON([]byte(s))
	if err != nil {
		t.Fatal(err)
	}
	return y
}

func TestRoundTrip(t *testing.T) {
	for _, src := range []string{
		`null`,
		`true`,
		`-12`,
		`1.25`,
		`"s"`,
		`[]`,
		`{}`,
		`[1,[2,[3]],{"a":null}]`,
		`{"z":1,"a":{"y":[true,false],"b":"x"},"m":[]}`,
	} {
		v := mustJSON(t, src)
		c, err := Project(v)
		if err != nil {
			t.Errorf("%s: %v", src, err)
			continue
		}
		if got := crdt.ToValue(c); !ir.Equal(got, v) {
			d, _ := ir.ToJSON(got)
			t.Errorf("round trip %s got %s", src, d)
		}
	}
}

func TestRoundTripAttached(t *testing.T) {
	v := mustJSON(t, `{"k":[{"id":"a"},{"id":"b"}],"n":3}`)
	c, err := Project(v)
	if err != nil {
		t.Fatal(err)
	}
	doc := crdt.NewDoc("p")
	root, err := doc.GetMap("root")
	if err != nil {
		t.Fatal(err)
	}
	if err := root.Set("doc", c); err != nil {
		t.Fatal(err)
	}
	got, _ := root.Get("doc")
	if !ir.Equal(crdt.ToValue(got), v) {
		t.Errorf("attached value differs")
	}
}

func TestBinaryPassesThrough(t *testing.T) {
	c, err := Project(ir.FromBytes([]byte{0, 1, 2}))
	if err != nil {
		t.Fatal(err)
	}
	l, ok := c.(crdt.Leaf)
	if !ok || l.Node.Type != ir.BinaryType {
		t.Fatalf("got %#v", c)
	}
}

func TestDeterministic(t *testing.T) {
	a, err := Project(mustJSON(t, `{"x":[1,2],"y":{"z":"w"}}`))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Project(mustJSON(t, `{"x":[1,2],"y":{"z":"w"}}`))
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("projection reused a container")
	}
	if !ir.Equal(crdt.ToValue(a), crdt.ToValue(b)) {
		t.Error("equal inputs projected to different values")
	}
}

func TestUnsupported(t *testing.T) {
	for _, v := range []*ir.Node{
		nil,
		{Type: ir.Type(99)},
		{Type: ir.NumberType},
		ir.FromSlice([]*ir.Node{ir.FromInt(1), nil}),
		{Type: ir.ObjectType, Fields: []string{"a"}},
	} {
		if _, err := Project(v); !errors.Is(err, ErrUnsupportedType) {
			t.Errorf("Project(%#v) = %v", v, err)
		}
	}
	if _, err := Any(make(chan int)); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("Any(chan) = %v", err)
	}
}
