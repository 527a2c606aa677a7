package sharedoc

import (
	"errors"
	"testing"

	"github.com/signadot/sharedoc/crdt"
	"github.com/signadot/sharedoc/ir"
	"github.com/signadot/sharedoc/project"
)

func TestParsePath(t *testing.T) {
	for _, tc := range []struct {
		in  string
		out string
		err bool
	}{
		{in: "", out: ""},
		{in: "doc", out: "doc"},
		{in: "doc.windows.id1", out: "doc.windows.id1"},
		{in: "doc.list[2].name", out: "doc.list[2].name"},
		{in: "a[0][1]", out: "a[0][1]"},
		{in: ".a", err: true},
		{in: "a.", err: true},
		{in: "a..b", err: true},
		{in: "a[", err: true},
		{in: "a[x]", err: true},
		{in: "a[-1]", err: true},
		{in: "a[0]b", err: true},
	} {
		p, err := ParsePath(tc.in)
		if tc.err {
			if !errors.Is(err, ErrBadPath) {
				t.Errorf("%q: got %v, want bad path", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: %v", tc.in, err)
			continue
		}
		if got := p.String(); got != tc.out {
			t.Errorf("%q: got %q", tc.in, got)
		}
	}
}

func TestResolve(t *testing.T) {
	doc := crdt.NewDoc("p")
	root, err := doc.GetMap("root")
	if err != nil {
		t.Fatal(err)
	}
	v, err := ir.FromJSON([]byte(`{"windows":{"id1":{"title":"main"}},"list":[1,{"name":"x"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	c, err := project.Project(v)
	if err != nil {
		t.Fatal(err)
	}
	if err := root.Set("doc", c); err != nil {
		t.Fatal(err)
	}

	for _, tc := range []struct {
		path string
		want string
		err  error
	}{
		{path: "doc.windows.id1.title", want: `"main"`},
		{path: "doc.list[1].name", want: `"x"`},
		{path: "doc.list[0]", want: `1`},
		{path: "doc.windows", want: `{"id1":{"title":"main"}}`},
		{path: "doc.missing", err: ErrNotFound},
		{path: "doc.list[5]", err: ErrNotFound},
		{path: "doc.list.name", err: ErrBadPath},
		{path: "doc[0]", err: ErrBadPath},
		{path: "doc.list[0].x", err: ErrBadPath},
	} {
		got, err := Resolve(root, tc.path)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Errorf("%s: got %v, want %v", tc.path, err, tc.err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %v", tc.path, err)
			continue
		}
		d, err := ir.ToJSON(crdt.ToValue(got))
		if err != nil {
			t.Fatal(err)
		}
		if string(d) != tc.want {
			t.Errorf("%s: got %s, want %s", tc.path, d, tc.want)
		}
	}

	if _, err := ResolveMap(root, "doc.list"); !errors.Is(err, ErrBadPath) {
		t.Errorf("ResolveMap on a sequence: %v", err)
	}
	s, err := ResolveSequence(root, "doc.list")
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 2 {
		t.Errorf("got %d elements", s.Len())
	}
	if c, err := Resolve(root, ""); err != nil || c != crdt.Content(root) {
		t.Errorf("empty path: %v %v", c, err)
	}
}
