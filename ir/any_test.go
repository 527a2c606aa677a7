package ir

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFromAny(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want *Node
	}{
		{"nil", nil, Null()},
		{"bool", true, FromBool(true)},
		{"int", 3, FromInt(3)},
		{"uint8", uint8(4), FromInt(4)},
		{"float", 1.5, FromFloat(1.5)},
		{"string", "x", FromString("x")},
		{"bytes", []byte{1, 2}, FromBytes([]byte{1, 2})},
		{"slice", []any{1, "a"}, FromSlice([]*Node{FromInt(1), FromString("a")})},
		{"typed slice", []string{"a", "b"}, FromSlice([]*Node{FromString("a"), FromString("b")})},
		{"map sorted", map[string]any{"b": 2, "a": 1},
			FromKeyVals([]KeyVal{{Key: "a", Val: FromInt(1)}, {Key: "b", Val: FromInt(2)}})},
		{"node", FromString("n"), FromString("n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAny(tt.in)
			if err != nil {
				t.Fatalf("FromAny: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FromAny mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFromAnyUnsupported(t *testing.T) {
	type point struct{ X int }
	for _, in := range []any{
		point{X: 1},
		make(chan int),
		func() {},
		map[int]string{1: "a"},
		[]any{1, struct{}{}},
		&Node{Type: Type(42)},
	} {
		if _, err := FromAny(in); !errors.Is(err, ErrUnsupportedType) {
			t.Errorf("FromAny(%T) error = %v, want ErrUnsupportedType", in, err)
		}
	}
}

func TestToAnyRoundTrip(t *testing.T) {
	in := map[string]any{
		"a": []any{int64(1), 2.5, "s", nil, true},
		"b": map[string]any{"c": []byte{9}},
	}
	n, err := FromAny(in)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(in, ToAny(n)); diff != "" {
		t.Errorf("ToAny mismatch (-want +got):\n%s", diff)
	}
}
