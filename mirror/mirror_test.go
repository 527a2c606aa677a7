package mirror

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/sharedoc/crdt"
	"github.com/signadot/sharedoc/ir"
)

func keys(s Snapshot) []string {
	var res []string
	for _, e := range s.Entries {
		res = append(res, e.Key)
	}
	return res
}

func exchange(t *testing.T, a, b *crdt.Doc) {
	t.Helper()
	if err := b.Apply(a.Updates(b.StateVector())); err != nil {
		t.Fatal(err)
	}
	if err := a.Apply(b.Updates(a.StateVector())); err != nil {
		t.Fatal(err)
	}
}

func TestTwoPeersDisjointKeys(t *testing.T) {
	a, b := crdt.NewDoc("a"), crdt.NewDoc("b")
	ra, _ := a.GetMap("root")
	rb, _ := b.GetMap("root")
	ma, mb := Attach(ra), Attach(rb)
	defer ma.Detach()
	defer mb.Detach()

	if err := ra.Set("x", crdt.Leaf{Node: ir.FromInt(1)}); err != nil {
		t.Fatal(err)
	}
	if err := rb.Set("y", crdt.Leaf{Node: ir.FromInt(2)}); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"x"}, keys(ma.Snapshot())); diff != "" {
		t.Errorf("local snapshot (-want +got):\n%s", diff)
	}
	exchange(t, a, b)
	for _, m := range []*Mirror{ma, mb} {
		got := keys(m.Snapshot())
		if diff := cmp.Diff([]string{"x", "y"}, got); diff != "" {
			t.Errorf("merged snapshot (-want +got):\n%s", diff)
		}
	}
	if !ir.Equal(ma.Value(), mb.Value()) {
		t.Error("mirrors disagree")
	}
}

func TestSequenceSnapshot(t *testing.T) {
	d := crdt.NewDoc("a")
	s, _ := d.GetSequence("nodes")
	m := Attach(s)
	defer m.Detach()
	var versions []int
	cancel := m.Subscribe(func(s Snapshot) { versions = append(versions, s.Version) })
	defer cancel()
	s.Push(crdt.Leaf{Node: ir.FromString("a")}, crdt.Leaf{Node: ir.FromString("b")})
	s.Delete(0, 1)
	snap := m.Snapshot()
	if len(snap.Entries) != 1 || snap.Entries[0].Index != 0 {
		t.Fatalf("entries %+v", snap.Entries)
	}
	if diff := cmp.Diff([]int{2, 3}, versions); diff != "" {
		t.Errorf("versions (-want +got):\n%s", diff)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	d := crdt.NewDoc("a")
	r, _ := d.GetMap("root")
	r.Set("k", crdt.Leaf{Node: ir.FromString("v")})
	m := Attach(r)
	defer m.Detach()
	snap := m.Snapshot()
	snap.Entries[0].Content.(crdt.Leaf).Node.String = "changed"
	snap.Value.Values[0].String = "changed"
	if got := m.Value().Values[0].String; got != "v" {
		t.Errorf("snapshot shares memory: %q", got)
	}
	c, _ := r.Get("k")
	if c.(crdt.Leaf).Node.String != "v" {
		t.Error("container changed through snapshot")
	}
}

func TestDetach(t *testing.T) {
	d := crdt.NewDoc("a")
	r, _ := d.GetMap("root")
	m := Attach(r)
	n := 0
	m.Subscribe(func(Snapshot) { n++ })
	m.Detach()
	m.Detach()
	r.Set("k", crdt.Leaf{Node: ir.Null()})
	if n != 0 {
		t.Errorf("notified %d times after detach", n)
	}
	if len(m.Snapshot().Entries) != 0 || !m.Detached() {
		t.Error("snapshot moved after detach")
	}
}

func TestAttachDeep(t *testing.T) {
	d := crdt.NewDoc("a")
	r, _ := d.GetMap("root")
	inner := crdt.NewMap()
	if err := r.Set("doc", inner); err != nil {
		t.Fatal(err)
	}
	shallow := Attach(r)
	defer shallow.Detach()
	deep := AttachDeep(d, r)
	defer deep.Detach()

	if err := inner.Set("k", crdt.Leaf{Node: ir.FromString("v")}); err != nil {
		t.Fatal(err)
	}
	got := ir.Get(ir.Get(deep.Value(), "doc"), "k")
	if got == nil || got.String != "v" {
		t.Errorf("deep mirror missed the nested write")
	}
	if ir.Get(ir.Get(shallow.Value(), "doc"), "k") != nil {
		t.Errorf("shallow mirror refreshed on a nested write")
	}

	// other roots and detached containers leave the deep mirror alone
	v := deep.Snapshot().Version
	nodes, _ := d.GetSequence("nodes")
	if err := nodes.Push(crdt.Leaf{Node: ir.FromInt(1)}); err != nil {
		t.Fatal(err)
	}
	if deep.Snapshot().Version != v {
		t.Error("refreshed on a write to another root")
	}
	if !r.Delete("doc") {
		t.Fatal("delete doc")
	}
	v = deep.Snapshot().Version
	if err := inner.Set("gone", crdt.Leaf{Node: ir.Null()}); err == nil && deep.Snapshot().Version != v {
		t.Error("refreshed on a write to a removed container")
	}

	deep.Detach()
	v = deep.Snapshot().Version
	inner.Set("k2", crdt.Leaf{Node: ir.Null()})
	if deep.Snapshot().Version != v {
		t.Error("refreshed after detach")
	}
}
