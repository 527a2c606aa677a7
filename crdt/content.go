package crdt

import (
	"fmt"

	"github.com/signadot/sharedoc/ir"
)

type Kind uint8

const (
	KindNone Kind = iota
	KindMap
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindMap:
		return "map"
	case KindSequence:
		return "sequence"
	case KindNone:
		return "none"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Content is what a container slot holds: a Leaf, a *Map or a *Sequence.
type Content interface {
	content()
}

// Leaf is a plain value stored as a unit. Leaves are copied on the way in
// and on the way out.
type Leaf struct {
	Node *ir.Node
}

func (Leaf) content()       {}
func (*Map) content()      {}
func (*Sequence) content() {}

// Container is the read surface shared by Map and Sequence.
type Container interface {
	Content
	Kind() Kind
	Len() int
	Entries() []Entry
	ToValue() *ir.Node
	Observe(func(Event)) (cancel func())
}

// Entry is one slot of a container snapshot. Key is set for maps, Index
// for sequences.
type Entry struct {
	Key     string
	Index   int
	Content Content
}

// Event reports that a container changed. Keys lists the map keys written,
// in first-touched order, and is empty for sequences.
type Event struct {
	Target Container
	Keys   []string
	Local  bool
}

// ToValue converts any content to a plain value.
func ToValue(c Content) *ir.Node {
	switch x := c.(type) {
	case Leaf:
		return x.Node.Clone()
	case *Map:
		return x.ToValue()
	case *Sequence:
		return x.ToValue()
	}
	return ir.Null()
}

func copyOut(c Content) Content {
	if l, ok := c.(Leaf); ok {
		return Leaf{Node: l.Node.Clone()}
	}
	return c
}

// checkStore validates c before it is stored into holder.
func checkStore(holder Container, c Content) error {
	switch x := c.(type) {
	case Leaf:
		if err := x.Node.Validate(); err != nil {
			return err
		}
		return nil
	case *Map:
		if x == nil {
			return fmt.Errorf("%w: nil map", ir.ErrUnsupportedType)
		}
		if x.doc != nil {
			return ErrAttached
		}
	case *Sequence:
		if x == nil {
			return fmt.Errorf("%w: nil sequence", ir.ErrUnsupportedType)
		}
		if x.doc != nil {
			return ErrAttached
		}
	default:
		return fmt.Errorf("%w: %T", ir.ErrUnsupportedType, c)
	}
	if contains(c, holder) {
		return ErrCycle
	}
	return nil
}

// contains reports whether detached content c is, or holds, target.
func contains(c Content, target Container) bool {
	switch x := c.(type) {
	case *Map:
		if Container(x) == target {
			return true
		}
		for _, e := range x.pre {
			if contains(e.content, target) {
				return true
			}
		}
	case *Sequence:
		if Container(x) == target {
			return true
		}
		for _, e := range x.pre {
			if contains(e, target) {
				return true
			}
		}
	}
	return false
}
