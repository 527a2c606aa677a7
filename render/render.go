// Package render prints documents, trees and peer lists for terminals.
package render

import (
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/signadot/sharedoc/ir"
	"github.com/signadot/sharedoc/presence"
	"github.com/signadot/sharedoc/tree"
)

// Value renders v as indented JSON-like text.
func Value(v *ir.Node, c *Colors) string {
	var b strings.Builder
	value(&b, v, c, 0)
	b.WriteByte('\n')
	return b.String()
}

func value(b *strings.Builder, v *ir.Node, c *Colors, depth int) {
	indent := strings.Repeat("  ", depth+1)
	if v == nil {
		b.WriteString(c.Color(ir.NullType, ValueColor, "null"))
		return
	}
	switch v.Type {
	case ir.NullType:
		b.WriteString(c.Color(v.Type, ValueColor, "null"))
	case ir.BoolType:
		b.WriteString(c.Color(v.Type, ValueColor, strconv.FormatBool(v.Bool)))
	case ir.NumberType:
		b.WriteString(c.Color(v.Type, ValueColor, number(v)))
	case ir.StringType:
		b.WriteString(c.Color(v.Type, ValueColor, strconv.Quote(v.String)))
	case ir.BinaryType:
		b.WriteString(c.Color(v.Type, ValueColor, "<"+base64.StdEncoding.EncodeToString(v.Bytes)+">"))
	case ir.ArrayType:
		if len(v.Values) == 0 {
			b.WriteString(c.Color(v.Type, SepColor, "[]"))
			return
		}
		b.WriteString(c.Color(v.Type, SepColor, "["))
		for i, elt := range v.Values {
			b.WriteString("\n" + indent)
			value(b, elt, c, depth+1)
			if i < len(v.Values)-1 {
				b.WriteString(c.Color(v.Type, SepColor, ","))
			}
		}
		b.WriteString("\n" + indent[2:] + c.Color(v.Type, SepColor, "]"))
	case ir.ObjectType:
		if len(v.Fields) == 0 {
			b.WriteString(c.Color(v.Type, SepColor, "{}"))
			return
		}
		b.WriteString(c.Color(v.Type, SepColor, "{"))
		for i, f := range v.Fields {
			b.WriteString("\n" + indent)
			b.WriteString(c.Color(v.Type, FieldColor, strconv.Quote(f)))
			b.WriteString(c.Color(v.Type, SepColor, ":") + " ")
			value(b, v.Values[i], c, depth+1)
			if i < len(v.Fields)-1 {
				b.WriteString(c.Color(v.Type, SepColor, ","))
			}
		}
		b.WriteString("\n" + indent[2:] + c.Color(v.Type, SepColor, "}"))
	default:
		b.WriteString(c.Color(ir.NullType, ValueColor, "<"+v.Type.String()+">"))
	}
}

func number(v *ir.Node) string {
	switch {
	case v.Int64 != nil:
		return strconv.FormatInt(*v.Int64, 10)
	case v.Float64 != nil:
		return strconv.FormatFloat(*v.Float64, 'g', -1, 64)
	}
	return v.Number
}

// Tree renders the hierarchy of nodes, one node per line.
func Tree(w io.Writer, nodes []tree.Node, c *Colors) error {
	return tree.Walk(nodes, func(n tree.Node, depth int) error {
		line := strings.Repeat("  ", depth) + c.Color(ir.StringType, ValueColor, n.ID) +
			" " + c.Color(ir.NumberType, ValueColor, strconv.FormatFloat(n.SortIndex, 'g', -1, 64))
		if n.ParentID != nil && depth == 0 {
			line += " " + c.Color(ir.NullType, StaleColor, "(missing parent "+*n.ParentID+")")
		}
		_, err := fmt.Fprintln(w, line)
		return err
	})
}

// Peers renders a peer list, each name in its own color.
func Peers(w io.Writer, l presence.List, c *Colors) error {
	if l.Stale {
		if _, err := fmt.Fprintln(w, c.Color(ir.NullType, StaleColor, "(disconnected, peers may be out of date)")); err != nil {
			return err
		}
	}
	for _, p := range l.Peers {
		if _, err := fmt.Fprintf(w, "%s %s\n", c.hex(p.State.Color, p.State.Name), p.ID); err != nil {
			return err
		}
	}
	return nil
}
