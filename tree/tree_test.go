package tree

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/sharedoc/ir"
)

func ptr(s string) *string { return &s }

func ids(ns []Node) []string {
	res := []string{}
	for _, n := range ns {
		res = append(res, n.ID)
	}
	return res
}

var flat = []Node{
	{ID: "a", SortIndex: 2},
	{ID: "b", SortIndex: 0},
	{ID: "c", ParentID: ptr("a"), SortIndex: 1},
	{ID: "d", SortIndex: 2},
	{ID: "e", ParentID: ptr("a"), SortIndex: 0},
	{ID: "f", ParentID: ptr("gone"), SortIndex: 1},
}

func TestChildrenOf(t *testing.T) {
	tests := []struct {
		parent *string
		want   []string
	}{
		{nil, []string{"b", "a", "d"}},
		{ptr("a"), []string{"e", "c"}},
		{ptr("b"), []string{}},
		{ptr("gone"), []string{"f"}},
	}
	for _, tt := range tests {
		got := ids(ChildrenOf(flat, tt.parent))
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("ChildrenOf(%v) (-want +got):\n%s", tt.parent, diff)
		}
	}
}

func TestNextSortIndex(t *testing.T) {
	tests := []struct {
		name   string
		nodes  []Node
		parent *string
		want   float64
	}{
		{"empty", nil, nil, 0},
		{"no siblings", flat, ptr("c"), 0},
		{"siblings 0 and 3", []Node{{ID: "x", SortIndex: 0}, {ID: "y", SortIndex: 3}}, nil, 4},
		{"negative", []Node{{ID: "x", SortIndex: -5}}, nil, -4},
		{"children of a", flat, ptr("a"), 2},
	}
	for _, tt := range tests {
		if got := NextSortIndex(tt.nodes, tt.parent); got != tt.want {
			t.Errorf("%s: got %g want %g", tt.name, got, tt.want)
		}
	}
}

func TestRootsIncludeDangling(t *testing.T) {
	got := ids(Roots(flat))
	want := []string{"b", "f", "a", "d"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Roots (-want +got):\n%s", diff)
	}
}

func TestWalk(t *testing.T) {
	nodes := append(slicesClone(flat),
		Node{ID: "p", ParentID: ptr("q")},
		Node{ID: "q", ParentID: ptr("p")},
	)
	var b strings.Builder
	err := Walk(nodes, func(n Node, depth int) error {
		b.WriteString(strings.Repeat(" ", depth) + n.ID + "\n")
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	want := "b\nf\na\n e\n c\nd\np\n q\n"
	if got := b.String(); got != want {
		t.Errorf("got\n%s\nwant\n%s", got, want)
	}
	stop := errors.New("stop")
	n := 0
	err = Walk(nodes, func(Node, int) error {
		n++
		return stop
	})
	if !errors.Is(err, stop) || n != 1 {
		t.Errorf("walk did not stop: %v after %d", err, n)
	}
}

func slicesClone(ns []Node) []Node {
	return append([]Node(nil), ns...)
}

func TestValueRoundTrip(t *testing.T) {
	for _, n := range []Node{
		{ID: "abc", SortIndex: 3},
		{ID: "def", ParentID: ptr("abc"), SortIndex: 0.5},
	} {
		got, err := FromValue(n.ToValue())
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(n, got); diff != "" {
			t.Errorf("round trip (-want +got):\n%s", diff)
		}
	}
}

func TestDecode(t *testing.T) {
	v, err := ir.FromJSON([]byte(`[
		{"id":"a","parentId":null,"sortIndex":0},
		{"id":"b","parentId":"a","sortIndex":1.5},
		{"id":"c"},
		{"parentId":"a"},
		{"id":"d","sortIndex":"x"},
		7
	]`))
	if err != nil {
		t.Fatal(err)
	}
	nodes, skipped := Decode(v)
	if skipped != 3 {
		t.Errorf("skipped %d want 3", skipped)
	}
	want := []Node{
		{ID: "a"},
		{ID: "b", ParentID: ptr("a"), SortIndex: 1.5},
		{ID: "c"},
	}
	if diff := cmp.Diff(want, nodes); diff != "" {
		t.Errorf("Decode (-want +got):\n%s", diff)
	}
}

func TestFilter(t *testing.T) {
	tests := []struct {
		src  string
		want []string
	}{
		{`parentId == nil`, []string{"a", "b", "d"}},
		{`parentId == "a" && sortIndex > 0`, []string{"c"}},
		{`id startsWith "f"`, []string{"f"}},
	}
	for _, tt := range tests {
		got, err := Filter(flat, tt.src)
		if err != nil {
			t.Errorf("%s: %v", tt.src, err)
			continue
		}
		if diff := cmp.Diff(tt.want, ids(got)); diff != "" {
			t.Errorf("%s (-want +got):\n%s", tt.src, diff)
		}
	}
	if _, err := Filter(flat, `sortIndex + 1`); err == nil {
		t.Error("non-boolean expression compiled")
	}
}
