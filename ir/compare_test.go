package ir

import (
	"testing"
)

func obj(kvs ...any) *Node {
	var res []KeyVal
	for i := 0; i < len(kvs); i += 2 {
		res = append(res, KeyVal{Key: kvs[i].(string), Val: kvs[i+1].(*Node)})
	}
	return FromKeyVals(res)
}

func arr(vs ...*Node) *Node {
	return FromSlice(vs)
}

func TestCompare(t *testing.T) {
	for _, tc := range []struct {
		name string
		a, b *Node
		want int
	}{
		{"nil first", nil, Null(), -1},
		{"null bool", Null(), FromBool(false), -1},
		{"bool number", FromBool(true), FromInt(0), -1},
		{"number string", FromInt(9), FromString(""), -1},
		{"string binary", FromString("z"), FromBytes(nil), -1},
		{"binary array", FromBytes([]byte("z")), arr(), -1},
		{"array object", arr(Null()), obj(), -1},

		{"false true", FromBool(false), FromBool(true), -1},
		{"ints", FromInt(-3), FromInt(2), -1},
		{"int float by value", FromInt(2), FromFloat(1.5), 1},
		{"int before equal float", FromInt(1), FromFloat(1), -1},
		{"raw number by value", &Node{Type: NumberType, Number: "10"}, FromInt(9), 1},
		{"same ints", FromInt(4), FromInt(4), 0},

		{"bytes", FromBytes([]byte{1}), FromBytes([]byte{1, 0}), -1},
		{"prefix array", arr(FromInt(1)), arr(FromInt(1), Null()), -1},
		{"array element", arr(FromString("a")), arr(FromString("b")), -1},
		{"equal arrays", arr(FromInt(1), obj("k", Null())), arr(FromInt(1), obj("k", Null())), 0},

		{"field names", obj("a", FromInt(9)), obj("b", FromInt(1)), -1},
		{"field values", obj("a", FromInt(1)), obj("a", FromInt(2)), -1},
		{"field order matters", obj("a", Null(), "b", Null()), obj("b", Null(), "a", Null()), -1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := Compare(tc.a, tc.b); got != tc.want {
				t.Errorf("Compare(a, b) = %d, want %d", got, tc.want)
			}
			if got := Compare(tc.b, tc.a); got != -tc.want {
				t.Errorf("Compare(b, a) = %d, want %d", got, -tc.want)
			}
		})
	}
}

func TestTypeText(t *testing.T) {
	for _, typ := range Types() {
		d, err := typ.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var back Type
		if err := back.UnmarshalText(d); err != nil || back != typ {
			t.Errorf("%s: got %s, %v", typ, back, err)
		}
	}
	var bad Type
	if err := bad.UnmarshalText([]byte("Set")); err == nil {
		t.Error("expected error")
	}
	if Type(42).String() != "Type(42)" {
		t.Errorf("got %s", Type(42))
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := FromKeyVals([]KeyVal{
		{Key: "list", Val: FromSlice([]*Node{FromInt(1)})},
		{Key: "blob", Val: FromBytes([]byte{7})},
	})
	c := orig.Clone()
	if !Equal(orig, c) {
		t.Fatalf("clone differs from original")
	}
	c.Values[0].Values[0] = FromInt(2)
	c.Values[1].Bytes[0] = 8
	if *orig.Values[0].Values[0].Int64 != 1 {
		t.Errorf("clone shares array values with original")
	}
	if orig.Values[1].Bytes[0] != 7 {
		t.Errorf("clone shares bytes with original")
	}
}
