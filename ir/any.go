package ir

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strconv"
)

// FromAny converts plain Go data into a Node.
//
// Accepted: nil, bool, integer and float kinds, string, []byte,
// json.Number, *Node, slices and arrays, and maps with string keys (sorted
// by key). Pointers and interfaces are followed. Anything else, including
// structs, channels and functions, fails with ErrUnsupportedType.
func FromAny(v any) (*Node, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case *Node:
		if err := x.Validate(); err != nil {
			return nil, err
		}
		return x.Clone(), nil
	case json.Number:
		return numberFromString(string(x)), nil
	case []byte:
		return FromBytes(x), nil
	}
	return fromValue(reflect.ValueOf(v))
}

func fromValue(val reflect.Value) (*Node, error) {
	switch val.Kind() {
	case reflect.Invalid:
		return Null(), nil
	case reflect.Pointer, reflect.Interface:
		if val.IsNil() {
			return Null(), nil
		}
		return FromAny(val.Elem().Interface())
	case reflect.Bool:
		return FromBool(val.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return FromInt(val.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := val.Uint()
		if u > 1<<63-1 {
			return FromFloat(float64(u)), nil
		}
		return FromInt(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		return FromFloat(val.Float()), nil
	case reflect.String:
		return FromString(val.String()), nil
	case reflect.Slice, reflect.Array:
		if val.Kind() == reflect.Slice && val.Type().Elem().Kind() == reflect.Uint8 {
			return FromBytes(val.Bytes()), nil
		}
		vals := make([]*Node, val.Len())
		for i := range vals {
			elt, err := FromAny(val.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			vals[i] = elt
		}
		return FromSlice(vals), nil
	case reflect.Map:
		if val.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("%w: map key kind %s", ErrUnsupportedType, val.Type().Key().Kind())
		}
		keys := make([]string, 0, val.Len())
		for _, k := range val.MapKeys() {
			keys = append(keys, k.String())
		}
		slices.Sort(keys)
		kvs := make([]KeyVal, len(keys))
		for i, k := range keys {
			elt, err := FromAny(val.MapIndex(reflect.ValueOf(k).Convert(val.Type().Key())).Interface())
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			kvs[i] = KeyVal{Key: k, Val: elt}
		}
		return FromKeyVals(kvs), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, val.Type())
	}
}

func numberFromString(s string) *Node {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return FromInt(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return FromFloat(f)
	}
	return &Node{Type: NumberType, Number: s}
}

// ToAny converts a Node into plain Go data: nil, bool, int64, float64,
// string, []byte, []any and map[string]any.
func ToAny(y *Node) any {
	switch y.Type {
	case NullType:
		return nil
	case BoolType:
		return y.Bool
	case NumberType:
		switch {
		case y.Int64 != nil:
			return *y.Int64
		case y.Float64 != nil:
			return *y.Float64
		default:
			return json.Number(y.Number)
		}
	case StringType:
		return y.String
	case BinaryType:
		return slices.Clone(y.Bytes)
	case ArrayType:
		res := make([]any, len(y.Values))
		for i, v := range y.Values {
			res[i] = ToAny(v)
		}
		return res
	case ObjectType:
		res := make(map[string]any, len(y.Fields))
		for i, f := range y.Fields {
			res[f] = ToAny(y.Values[i])
		}
		return res
	}
	return nil
}
