package ir

import (
	"bytes"
	"cmp"
	"math"
	"slices"
	"strconv"
	"strings"
)

// typeOrder ranks types for Compare.
var typeOrder = [...]int{
	NullType:   0,
	BoolType:   1,
	NumberType: 2,
	StringType: 3,
	BinaryType: 4,
	ArrayType:  5,
	ObjectType: 6,
}

func orderOf(t Type) int {
	if t < 0 || int(t) >= len(typeOrder) {
		return len(typeOrder)
	}
	return typeOrder[t]
}

// Compare orders nodes by type, Null < Bool < Number < String < Binary <
// Array < Object, and then by content. Object fields are compared in
// order, so objects holding the same entries in a different order differ.
func Compare(a, b *Node) int {
	switch {
	case a == b:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case a.Type != b.Type:
		return cmp.Compare(orderOf(a.Type), orderOf(b.Type))
	}
	switch a.Type {
	case BoolType:
		return cmp.Compare(boolRank(a.Bool), boolRank(b.Bool))
	case NumberType:
		return compareNumbers(a, b)
	case StringType:
		return strings.Compare(a.String, b.String)
	case BinaryType:
		return bytes.Compare(a.Bytes, b.Bytes)
	case ArrayType:
		return slices.CompareFunc(a.Values, b.Values, Compare)
	case ObjectType:
		if c := slices.Compare(a.Fields, b.Fields); c != 0 {
			return c
		}
		return slices.CompareFunc(a.Values, b.Values, Compare)
	}
	return 0
}

// Equal reports whether a and b are structurally equal.
func Equal(a, b *Node) bool {
	return Compare(a, b) == 0
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// compareNumbers orders by value. Equal values in different forms are
// ordered integer, float, then raw text, so 1 and 1.0 are not Equal.
func compareNumbers(a, b *Node) int {
	if a.Int64 != nil && b.Int64 != nil {
		return cmp.Compare(*a.Int64, *b.Int64)
	}
	if c := cmp.Compare(numberValue(a), numberValue(b)); c != 0 {
		return c
	}
	if c := cmp.Compare(numberForm(a), numberForm(b)); c != 0 {
		return c
	}
	return strings.Compare(a.Number, b.Number)
}

func numberValue(n *Node) float64 {
	switch {
	case n.Int64 != nil:
		return float64(*n.Int64)
	case n.Float64 != nil:
		return *n.Float64
	}
	f, err := strconv.ParseFloat(n.Number, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

func numberForm(n *Node) int {
	switch {
	case n.Int64 != nil:
		return 0
	case n.Float64 != nil:
		return 1
	}
	return 2
}
