// Package tree materializes parent/child hierarchies from a flat list of
// nodes.
//
// The flat list is the source of truth. Hierarchies are derived from it on
// demand and never cached, so they follow every change to the list.
package tree

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/signadot/sharedoc/ir"
)

var ErrMalformed = errors.New("malformed tree node")

// Node is one entry of the flat list. A nil ParentID marks a root. A
// ParentID naming no node is tolerated and makes the node a root of its
// own.
type Node struct {
	ID        string
	ParentID  *string
	SortIndex float64
}

func (n Node) String() string {
	p := "<nil>"
	if n.ParentID != nil {
		p = *n.ParentID
	}
	return fmt.Sprintf("%s(parent=%s, sort=%g)", n.ID, p, n.SortIndex)
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// ChildrenOf returns the nodes whose parent is parentID, ordered by
// SortIndex. Nodes with equal SortIndex keep their order in nodes.
func ChildrenOf(nodes []Node, parentID *string) []Node {
	var res []Node
	for _, n := range nodes {
		if sameParent(n.ParentID, parentID) {
			res = append(res, n)
		}
	}
	sortSiblings(res)
	return res
}

func sortSiblings(ns []Node) {
	slices.SortStableFunc(ns, func(a, b Node) int {
		return cmp.Compare(a.SortIndex, b.SortIndex)
	})
}

// NextSortIndex returns one more than the greatest SortIndex among the
// children of parentID, or 0 when it has none.
func NextSortIndex(nodes []Node, parentID *string) float64 {
	found := false
	hi := math.Inf(-1)
	for _, n := range nodes {
		if !sameParent(n.ParentID, parentID) {
			continue
		}
		found = true
		hi = max(hi, n.SortIndex)
	}
	if !found {
		return 0
	}
	return hi + 1
}

// Roots returns the nodes with no parent or with a parent not in nodes,
// ordered by SortIndex.
func Roots(nodes []Node) []Node {
	ids := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		ids[n.ID] = true
	}
	var res []Node
	for _, n := range nodes {
		if n.ParentID == nil || !ids[*n.ParentID] {
			res = append(res, n)
		}
	}
	sortSiblings(res)
	return res
}

// Walk visits the hierarchy depth first, parents before children. Each
// node is visited once, so nodes caught in a parent cycle are visited as
// roots after the proper hierarchy. A non-nil error from fn stops the walk
// and is returned.
func Walk(nodes []Node, fn func(n Node, depth int) error) error {
	seen := make(map[string]bool, len(nodes))
	var visit func(n Node, depth int) error
	visit = func(n Node, depth int) error {
		if seen[n.ID] {
			return nil
		}
		seen[n.ID] = true
		if err := fn(n, depth); err != nil {
			return err
		}
		id := n.ID
		for _, c := range ChildrenOf(nodes, &id) {
			if err := visit(c, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	for _, r := range Roots(nodes) {
		if err := visit(r, 0); err != nil {
			return err
		}
	}
	for _, n := range nodes {
		if err := visit(n, 0); err != nil {
			return err
		}
	}
	return nil
}

// Find returns the first node with the given id.
func Find(nodes []Node, id string) (Node, bool) {
	i := slices.IndexFunc(nodes, func(n Node) bool { return n.ID == id })
	if i < 0 {
		return Node{}, false
	}
	return nodes[i], true
}

// ToValue returns the plain object stored in the flat list for n.
func (n Node) ToValue() *ir.Node {
	parent := ir.Null()
	if n.ParentID != nil {
		parent = ir.FromString(*n.ParentID)
	}
	return ir.FromKeyVals([]ir.KeyVal{
		{Key: "id", Val: ir.FromString(n.ID)},
		{Key: "parentId", Val: parent},
		{Key: "sortIndex", Val: number(n.SortIndex)},
	})
}

func number(f float64) *ir.Node {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return ir.FromInt(int64(f))
	}
	return ir.FromFloat(f)
}

// FromValue reads a node from its plain object form. A missing parentId
// reads as null and a missing sortIndex as 0.
func FromValue(v *ir.Node) (Node, error) {
	if v == nil || v.Type != ir.ObjectType {
		return Node{}, fmt.Errorf("%w: not an object", ErrMalformed)
	}
	var n Node
	id := ir.Get(v, "id")
	if id == nil || id.Type != ir.StringType || id.String == "" {
		return Node{}, fmt.Errorf("%w: missing id", ErrMalformed)
	}
	n.ID = id.String
	switch p := ir.Get(v, "parentId"); {
	case p == nil || p.Type == ir.NullType:
	case p.Type == ir.StringType:
		s := p.String
		n.ParentID = &s
	default:
		return Node{}, fmt.Errorf("%w: %s: parentId is %s", ErrMalformed, n.ID, p.Type)
	}
	if si := ir.Get(v, "sortIndex"); si != nil {
		f, ok := toFloat(si)
		if !ok {
			return Node{}, fmt.Errorf("%w: %s: sortIndex is not a number", ErrMalformed, n.ID)
		}
		n.SortIndex = f
	}
	return n, nil
}

func toFloat(y *ir.Node) (float64, bool) {
	if y.Type != ir.NumberType {
		return 0, false
	}
	switch {
	case y.Int64 != nil:
		return float64(*y.Int64), true
	case y.Float64 != nil:
		return *y.Float64, true
	}
	var f float64
	if _, err := fmt.Sscan(y.Number, &f); err != nil {
		return 0, false
	}
	return f, true
}

// Decode reads every well formed node from an array value, in order, and
// reports how many elements it skipped.
func Decode(v *ir.Node) (nodes []Node, skipped int) {
	if v == nil || v.Type != ir.ArrayType {
		return nil, 0
	}
	for _, elt := range v.Values {
		n, err := FromValue(elt)
		if err != nil {
			skipped++
			continue
		}
		nodes = append(nodes, n)
	}
	return nodes, skipped
}
