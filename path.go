package sharedoc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/signadot/sharedoc/crdt"
)

var (
	ErrBadPath  = errors.New("bad path")
	ErrNotFound = errors.New("not found")
)

// Path addresses content below a map: "doc.windows.id1", "doc.list[2]".
type Path struct {
	Field *string
	Index *int
	Next  *Path
}

func (p *Path) String() string {
	var b strings.Builder
	for x := p; x != nil; x = x.Next {
		switch {
		case x.Field != nil:
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			b.WriteString(*x.Field)
		case x.Index != nil:
			fmt.Fprintf(&b, "[%d]", *x.Index)
		}
	}
	return b.String()
}

// ParsePath parses a dotted path. The empty path is nil.
func ParsePath(s string) (*Path, error) {
	if s == "" {
		return nil, nil
	}
	var head, tail *Path
	add := func(p *Path) {
		if head == nil {
			head = p
		} else {
			tail.Next = p
		}
		tail = p
	}
	i := 0
	for i < len(s) {
		switch s[i] {
		case '[':
			j := strings.IndexByte(s[i:], ']')
			if j < 0 {
				return nil, fmt.Errorf("%w %q: unterminated index", ErrBadPath, s)
			}
			n, err := strconv.Atoi(s[i+1 : i+j])
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%w %q: bad index %q", ErrBadPath, s, s[i+1:i+j])
			}
			add(&Path{Index: &n})
			i += j + 1
			if i < len(s) && s[i] != '.' && s[i] != '[' {
				return nil, fmt.Errorf("%w %q: expected . or [ after index", ErrBadPath, s)
			}
		case '.':
			if head == nil || i+1 == len(s) {
				return nil, fmt.Errorf("%w %q: empty field", ErrBadPath, s)
			}
			i++
			fallthrough
		default:
			j := strings.IndexAny(s[i:], ".[")
			if j < 0 {
				j = len(s) - i
			}
			if j == 0 {
				return nil, fmt.Errorf("%w %q: empty field", ErrBadPath, s)
			}
			f := s[i : i+j]
			add(&Path{Field: &f})
			i += j
		}
	}
	return head, nil
}

// Resolve walks path from root. The empty path resolves to root itself.
func Resolve(root *crdt.Map, path string) (crdt.Content, error) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	var cur crdt.Content = root
	for x := p; x != nil; x = x.Next {
		switch c := cur.(type) {
		case *crdt.Map:
			if x.Field == nil {
				return nil, fmt.Errorf("%w: %s indexes a map", ErrBadPath, prefix(p, x))
			}
			v, ok := c.Get(*x.Field)
			if !ok {
				return nil, fmt.Errorf("%s: %w", prefix(p, x), ErrNotFound)
			}
			cur = v
		case *crdt.Sequence:
			if x.Index == nil {
				return nil, fmt.Errorf("%w: %s selects a field of a sequence", ErrBadPath, prefix(p, x))
			}
			v, ok := c.Get(*x.Index)
			if !ok {
				return nil, fmt.Errorf("%s: %w", prefix(p, x), ErrNotFound)
			}
			cur = v
		default:
			return nil, fmt.Errorf("%w: %s is below a plain value", ErrBadPath, prefix(p, x))
		}
	}
	return cur, nil
}

// prefix renders p up to and including x.
func prefix(p, x *Path) string {
	var head, tail *Path
	for y := p; y != nil; y = y.Next {
		c := &Path{Field: y.Field, Index: y.Index}
		if head == nil {
			head = c
		} else {
			tail.Next = c
		}
		tail = c
		if y == x {
			break
		}
	}
	return head.String()
}

// ResolveMap resolves path and requires a map.
func ResolveMap(root *crdt.Map, path string) (*crdt.Map, error) {
	c, err := Resolve(root, path)
	if err != nil {
		return nil, err
	}
	m, ok := c.(*crdt.Map)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a map", ErrBadPath, path)
	}
	return m, nil
}

// ResolveSequence resolves path and requires a sequence.
func ResolveSequence(root *crdt.Map, path string) (*crdt.Sequence, error) {
	c, err := Resolve(root, path)
	if err != nil {
		return nil, err
	}
	s, ok := c.(*crdt.Sequence)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a sequence", ErrBadPath, path)
	}
	return s, nil
}
