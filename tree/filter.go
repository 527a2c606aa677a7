package tree

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

type env struct {
	ID        string  `expr:"id"`
	ParentID  any     `expr:"parentId"`
	SortIndex float64 `expr:"sortIndex"`
}

func exprEnv(n Node) env {
	e := env{ID: n.ID, SortIndex: n.SortIndex}
	if n.ParentID != nil {
		e.ParentID = *n.ParentID
	}
	return e
}

// Predicate is a compiled boolean expression over the fields id, parentId
// and sortIndex of a node, for example `parentId == nil && sortIndex < 3`.
type Predicate struct {
	src string
	prg *vm.Program
}

func Compile(src string) (*Predicate, error) {
	prg, err := expr.Compile(src, expr.Env(exprEnv(Node{})), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", src, err)
	}
	return &Predicate{src: src, prg: prg}, nil
}

func (p *Predicate) Match(n Node) (bool, error) {
	res, err := expr.Run(p.prg, exprEnv(n))
	if err != nil {
		return false, fmt.Errorf("eval %q on %s: %w", p.src, n.ID, err)
	}
	return res.(bool), nil
}

// Filter returns the nodes matching src, keeping their order.
func Filter(nodes []Node, src string) ([]Node, error) {
	p, err := Compile(src)
	if err != nil {
		return nil, err
	}
	var res []Node
	for _, n := range nodes {
		ok, err := p.Match(n)
		if err != nil {
			return nil, err
		}
		if ok {
			res = append(res, n)
		}
	}
	return res, nil
}
