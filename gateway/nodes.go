package gateway

import (
	"fmt"

	"github.com/signadot/sharedoc/crdt"
	"github.com/signadot/sharedoc/ir"
	"github.com/signadot/sharedoc/project"
	"github.com/signadot/sharedoc/tree"
)

type insertOptions struct {
	sortIndex *float64
}

type InsertOption func(*insertOptions)

// WithSortIndex places the new node at f among its siblings instead of
// after the last of them.
func WithSortIndex(f float64) InsertOption {
	return func(o *insertOptions) { o.sortIndex = &f }
}

// InsertNode appends a new node under parentID to the end of the flat
// list s. Unless WithSortIndex is given, its sort index is one past its
// current siblings, computed when InsertNode is called. Concurrent
// inserts under one parent may share a sort index; siblings with equal
// indexes keep their order in s.
func (g *Gateway) InsertNode(s *crdt.Sequence, parentID *string, opts ...InsertOption) (tree.Node, error) {
	var o insertOptions
	for _, opt := range opts {
		opt(&o)
	}
	n := tree.Node{ID: g.newID()}
	if parentID != nil {
		p := *parentID
		n.ParentID = &p
	}
	if o.sortIndex != nil {
		n.SortIndex = *o.sortIndex
	} else {
		nodes, _ := tree.Decode(s.ToValue())
		n.SortIndex = tree.NextSortIndex(nodes, parentID)
	}
	c, err := project.Project(n.ToValue())
	if err != nil {
		return tree.Node{}, fmt.Errorf("insert node: %w", err)
	}
	if err := s.Push(c); err != nil {
		return tree.Node{}, fmt.Errorf("insert node: %w", err)
	}
	g.log.Debug("insert node", "id", n.ID, "sortIndex", n.SortIndex)
	return n, nil
}

// DeleteNode removes the element of s holding node. The element is found
// by node id at the moment of removal. DeleteNode reports false when no
// element holds the node any more.
func (g *Gateway) DeleteNode(s *crdt.Sequence, node tree.Node) bool {
	i, ok := s.DeleteFunc(func(_ int, v *ir.Node) bool {
		id := ir.Get(v, "id")
		return id != nil && id.Type == ir.StringType && id.String == node.ID
	})
	g.log.Debug("delete node", "id", node.ID, "index", i, "deleted", ok)
	return ok
}
