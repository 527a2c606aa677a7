package notify

import "testing"

func TestCancelIdempotent(t *testing.T) {
	var l List[int]
	var got []int
	c1 := l.Add(func(v int) { got = append(got, v) })
	l.Add(func(v int) { got = append(got, -v) })
	l.Emit(1)
	c1()
	c1()
	l.Emit(2)
	want := []int{1, -1, -2}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v want %v", got, want)
		}
	}
	if l.Len() != 1 {
		t.Errorf("len %d", l.Len())
	}
}

func TestCancelDuringEmit(t *testing.T) {
	var l List[int]
	var cancel2 func()
	called := false
	l.Add(func(int) { cancel2() })
	cancel2 = l.Add(func(int) { called = true })
	l.Emit(0)
	if called {
		t.Error("subscriber canceled mid-emit was called")
	}
}

func TestClear(t *testing.T) {
	var l List[string]
	n := 0
	cancel := l.Add(func(string) { n++ })
	l.Clear()
	l.Emit("x")
	cancel()
	if n != 0 || l.Len() != 0 {
		t.Errorf("n=%d len=%d", n, l.Len())
	}
}
