package ir

import (
	"errors"
	"testing"
)

func TestFromJSONKeepsKeyOrder(t *testing.T) {
	n, err := FromJSON([]byte(`{"z": 1, "a": {"y": [true, null, "s"], "b": 2.5}}`))
	if err != nil {
		t.Fatal(err)
	}
	want := FromKeyVals([]KeyVal{
		{Key: "z", Val: FromInt(1)},
		{Key: "a", Val: FromKeyVals([]KeyVal{
			{Key: "y", Val: FromSlice([]*Node{FromBool(true), Null(), FromString("s")})},
			{Key: "b", Val: FromFloat(2.5)},
		})},
	})
	if !Equal(want, n) {
		t.Errorf("got %+v", n)
	}
}

func TestToJSON(t *testing.T) {
	n := FromKeyVals([]KeyVal{
		{Key: "z", Val: FromInt(1)},
		{Key: "a", Val: FromSlice([]*Node{FromFloat(0.5), FromString("q\"")})},
		{Key: "bin", Val: FromBytes([]byte("hi"))},
	})
	d, err := ToJSON(n)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"z":1,"a":[0.5,"q\""],"bin":"aGk="}`
	if string(d) != want {
		t.Errorf("got %s want %s", d, want)
	}
}

func TestFromJSONErrors(t *testing.T) {
	for _, in := range []string{`{"a":`, `[1,2`, `1 2`, ``} {
		if _, err := FromJSON([]byte(in)); !errors.Is(err, ErrParse) {
			t.Errorf("FromJSON(%q) error = %v, want ErrParse", in, err)
		}
	}
}
