package codec

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type sample struct {
	Name  string            `cbor:"name"`
	Count int               `cbor:"count,omitempty"`
	Tags  map[string]string `cbor:"tags,omitempty"`
	Blob  []byte            `cbor:"blob,omitempty"`
}

func TestRoundTrip(t *testing.T) {
	in := sample{Name: "a", Count: 2, Tags: map[string]string{"z": "1", "b": "2"}, Blob: []byte{1, 2, 3}}
	d, err := Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	var out sample
	if err := Unmarshal(d, &out); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDeterministic(t *testing.T) {
	a := map[string]any{"b": 1, "a": []any{"x", true}}
	b := map[string]any{"a": []any{"x", true}, "b": 1}
	da, err := Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	db, err := Marshal(b)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(da, db) {
		t.Errorf("encodings differ: %x vs %x", da, db)
	}
}
