package ir

import (
	"fmt"
	"maps"
	"slices"
)

type Node struct {
	Type   Type     `cbor:"t"`
	Fields []string `cbor:"f,omitempty"`
	Values []*Node  `cbor:"v,omitempty"`

	String  string   `cbor:"s,omitempty"`
	Bool    bool     `cbor:"b,omitempty"`
	Number  string   `cbor:"n,omitempty"`
	Float64 *float64 `cbor:"x,omitempty"`
	Int64   *int64   `cbor:"i,omitempty"`
	Bytes   []byte   `cbor:"y,omitempty"`
}

func (y *Node) Clone() *Node {
	if y == nil {
		return nil
	}
	res := &Node{
		Type:   y.Type,
		String: y.String,
		Bool:   y.Bool,
		Number: y.Number,
	}
	if y.Fields != nil {
		res.Fields = slices.Clone(y.Fields)
	}
	if y.Values != nil {
		res.Values = make([]*Node, len(y.Values))
		for i, v := range y.Values {
			res.Values[i] = v.Clone()
		}
	}
	if y.Float64 != nil {
		f := *y.Float64
		res.Float64 = &f
	}
	if y.Int64 != nil {
		i := *y.Int64
		res.Int64 = &i
	}
	if y.Bytes != nil {
		res.Bytes = slices.Clone(y.Bytes)
	}
	return res
}

func Null() *Node {
	return &Node{Type: NullType}
}

func FromString(v string) *Node {
	return &Node{
		Type:   StringType,
		String: v,
	}
}

func FromInt(v int64) *Node {
	return &Node{
		Type:  NumberType,
		Int64: &v,
	}
}

func FromFloat(f float64) *Node {
	return &Node{
		Type:    NumberType,
		Float64: &f,
	}
}

func FromBool(v bool) *Node {
	return &Node{
		Type: BoolType,
		Bool: v,
	}
}

// FromBytes makes a Binary node holding a copy of v.
func FromBytes(v []byte) *Node {
	return &Node{
		Type:  BinaryType,
		Bytes: slices.Clone(v),
	}
}

func FromSlice(ySlice []*Node) *Node {
	res := &Node{
		Type: ArrayType,
	}
	res.Values = make([]*Node, len(ySlice))
	copy(res.Values, ySlice)
	return res
}

type KeyVal struct {
	Key string
	Val *Node
}

// FromKeyVals makes an object keeping the order of kvs. A repeated key
// replaces the earlier value in place.
func FromKeyVals(kvs []KeyVal) *Node {
	res := &Node{Type: ObjectType}
	res.Fields = make([]string, 0, len(kvs))
	res.Values = make([]*Node, 0, len(kvs))
	for _, kv := range kvs {
		res.Set(kv.Key, kv.Val)
	}
	return res
}

// FromMap makes an object with keys in sorted order.
func FromMap(yMap map[string]*Node) *Node {
	res := &Node{Type: ObjectType}
	keys := slices.Sorted(maps.Keys(yMap))
	res.Fields = keys
	res.Values = make([]*Node, len(keys))
	for i, key := range keys {
		res.Values[i] = yMap[key]
	}
	return res
}

func ToMap(node *Node) map[string]*Node {
	if node.Type != ObjectType {
		return nil
	}
	res := make(map[string]*Node, len(node.Fields))
	for i, field := range node.Fields {
		res[field] = node.Values[i]
	}
	return res
}

// Get returns the value under field of an object node, or nil.
func Get(y *Node, field string) *Node {
	if y == nil || y.Type != ObjectType {
		return nil
	}
	for i := range y.Fields {
		if y.Fields[i] == field {
			return y.Values[i]
		}
	}
	return nil
}

// Set puts v under key in an object node, appending new keys.
func (y *Node) Set(key string, v *Node) {
	for i := range y.Fields {
		if y.Fields[i] == key {
			y.Values[i] = v
			return
		}
	}
	y.Fields = append(y.Fields, key)
	y.Values = append(y.Values, v)
}

// Validate checks that y and everything below it belongs to the Value sum
// type and that objects are well formed.
func (y *Node) Validate() error {
	if y == nil {
		return fmt.Errorf("%w: nil node", ErrUnsupportedType)
	}
	switch y.Type {
	case NullType, BoolType, StringType, BinaryType:
		return nil
	case NumberType:
		if y.Int64 == nil && y.Float64 == nil && y.Number == "" {
			return fmt.Errorf("%w: number without a value", ErrUnsupportedType)
		}
		return nil
	case ArrayType:
		for i, v := range y.Values {
			if err := v.Validate(); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		return nil
	case ObjectType:
		if len(y.Fields) != len(y.Values) {
			return fmt.Errorf("%w: %d fields for %d values", ErrUnsupportedType, len(y.Fields), len(y.Values))
		}
		for i, v := range y.Values {
			if err := v.Validate(); err != nil {
				return fmt.Errorf("%s: %w", y.Fields[i], err)
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %s (%d)", ErrUnsupportedType, y.Type, int(y.Type))
	}
}
