// Package project maps plain values onto replicated containers.
package project

import (
	"fmt"

	"github.com/signadot/sharedoc/crdt"
	"github.com/signadot/sharedoc/ir"
)

// ErrUnsupportedType is returned for values outside the value model.
var ErrUnsupportedType = ir.ErrUnsupportedType

// Project converts v into content that can be stored in a replicated
// container: arrays become detached sequences, objects detached maps, and
// everything else a leaf. The result is not attached to any document and
// shares no memory with v.
func Project(v *ir.Node) (crdt.Content, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: nil value", ErrUnsupportedType)
	}
	switch v.Type {
	case ir.NullType, ir.BoolType, ir.NumberType, ir.StringType, ir.BinaryType:
		if err := v.Validate(); err != nil {
			return nil, err
		}
		return crdt.Leaf{Node: v.Clone()}, nil
	case ir.ArrayType:
		s := crdt.NewSequence()
		items := make([]crdt.Content, len(v.Values))
		for i, elt := range v.Values {
			c, err := Project(elt)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = c
		}
		if err := s.Push(items...); err != nil {
			return nil, err
		}
		return s, nil
	case ir.ObjectType:
		if len(v.Fields) != len(v.Values) {
			return nil, fmt.Errorf("%w: %d fields with %d values", ErrUnsupportedType, len(v.Fields), len(v.Values))
		}
		m := crdt.NewMap()
		for i, field := range v.Fields {
			c, err := Project(v.Values[i])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", field, err)
			}
			if err := m.Set(field, c); err != nil {
				return nil, err
			}
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, v.Type)
	}
}

// Any projects a Go value, converting it with ir.FromAny first.
func Any(v any) (crdt.Content, error) {
	y, err := ir.FromAny(v)
	if err != nil {
		return nil, err
	}
	return Project(y)
}
