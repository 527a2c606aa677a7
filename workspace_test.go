package sharedoc

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/sharedoc/crdt"
	"github.com/signadot/sharedoc/ir"
	"github.com/signadot/sharedoc/system/relay/server"
	"github.com/signadot/sharedoc/tree"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func offlineConfig() *Config {
	cfg := DefaultConfig()
	cfg.Name = "ann"
	cfg.Color = "#aabbcc"
	return cfg
}

func jsonOf(t *testing.T, n *ir.Node) string {
	t.Helper()
	d, err := ir.ToJSON(n)
	if err != nil {
		t.Fatal(err)
	}
	return string(d)
}

func TestOpenOffline(t *testing.T) {
	cfg := offlineConfig()
	cfg.InitialDoc = writeFile(t, "init.json", `{"title":"untitled","tags":[]}`)
	w, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if got, want := jsonOf(t, w.Value()), `{"title":"untitled","tags":[]}`; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
	if w.Session() != nil {
		t.Error("offline workspace has a session")
	}
	peers := w.Peers()
	if len(peers.Peers) != 1 || peers.Peers[0].State.Name != "ann" {
		t.Errorf("got peers %+v", peers)
	}

	doc, err := ResolveMap(w.Root(), DocKey)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Gateway().AddField(doc, "owner", ir.FromString("ann")); err != nil {
		t.Fatal(err)
	}
	if got := ir.Get(w.Value(), "owner"); got == nil || got.String != "ann" {
		t.Errorf("mirror missed the write: %s", jsonOf(t, w.Value()))
	}
}

func TestInitializeIsIdempotent(t *testing.T) {
	d := crdt.NewDoc("p")
	cfg := offlineConfig()
	cfg.InitialDoc = writeFile(t, "a.json", `{"v":1}`)
	w1, err := Open(context.Background(), cfg, WithDoc(d))
	if err != nil {
		t.Fatal(err)
	}
	w1.Close()

	cfg.InitialDoc = writeFile(t, "b.json", `{"v":2}`)
	w2, err := Open(context.Background(), cfg, WithDoc(d))
	if err != nil {
		t.Fatal(err)
	}
	defer w2.Close()
	if got := jsonOf(t, w2.Value()); got != `{"v":1}` {
		t.Errorf("second open clobbered root.doc: %s", got)
	}
}

func TestNodes(t *testing.T) {
	n := 0
	ids := func() string {
		n++
		return strings.Repeat(string(rune('a'+n)), 12)
	}
	w, err := Open(context.Background(), offlineConfig(), WithIDGenerator(ids))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	a, err := w.InsertNode(nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := w.InsertNode(nil)
	if err != nil {
		t.Fatal(err)
	}
	c, err := w.InsertNode(&a.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := []tree.Node{
		{ID: a.ID, SortIndex: 0},
		{ID: b.ID, SortIndex: 1},
		{ID: c.ID, ParentID: &a.ID, SortIndex: 0},
	}
	if diff := cmp.Diff(want, w.Tree()); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
	if !w.DeleteNode(a.ID) {
		t.Error("delete failed")
	}
	if w.DeleteNode(a.ID) {
		t.Error("second delete found the node")
	}
	// c is kept and now has a dangling parent
	roots := tree.Roots(w.Tree())
	if len(roots) != 2 || roots[0].ID != c.ID {
		t.Errorf("got roots %v", roots)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	w, err := Open(context.Background(), offlineConfig())
	if err != nil {
		t.Fatal(err)
	}
	w.Close()
	w.Close()
	if !w.RootMirror().Detached() || !w.NodesMirror().Detached() {
		t.Error("mirrors still attached")
	}
}

func TestOpenBadInitialDoc(t *testing.T) {
	cfg := offlineConfig()
	cfg.InitialDoc = writeFile(t, "bad.json", `{"v":`)
	if _, err := Open(context.Background(), cfg); err == nil {
		t.Error("expected error")
	}
}

func TestTwoPeers(t *testing.T) {
	relay := server.New(&server.Spec{Log: slog.New(slog.DiscardHandler)})
	hs := httptest.NewServer(relay.Handler())
	defer func() {
		relay.Close()
		hs.Close()
	}()

	cfg := offlineConfig()
	cfg.Address = "ws" + strings.TrimPrefix(hs.URL, "http")
	cfg.Room = "shared"
	cfg.InitialDoc = writeFile(t, "a.json", `{}`)
	a, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	cfg.Name = "bo"
	cfg.InitialDoc = writeFile(t, "b.json", `{"from":"b"}`)
	b, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	if got := jsonOf(t, b.Value()); got != `{}` {
		t.Fatalf("b clobbered root.doc: %s", got)
	}

	docA, err := ResolveMap(a.Root(), DocKey)
	if err != nil {
		t.Fatal(err)
	}
	docB, err := ResolveMap(b.Root(), DocKey)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Gateway().AddField(docA, "x", ir.FromInt(1)); err != nil {
		t.Fatal(err)
	}
	if err := b.Gateway().AddField(docB, "y", ir.FromInt(2)); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		va, vb := a.Value(), b.Value()
		if ir.Get(va, "y") != nil && ir.Get(vb, "x") != nil && ir.Equal(va, vb) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("no convergence: a=%s b=%s", jsonOf(t, va), jsonOf(t, vb))
		}
		time.Sleep(10 * time.Millisecond)
	}
	for time.Now().Before(deadline) && len(a.Peers().Peers) < 2 {
		time.Sleep(10 * time.Millisecond)
	}
	var names []string
	for _, p := range a.Peers().Peers {
		names = append(names, p.State.Name)
	}
	if diff := cmp.Diff([]string{"ann", "bo"}, names); diff != "" {
		t.Errorf("peers mismatch (-want +got):\n%s", diff)
	}
}
