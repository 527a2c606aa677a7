// Package notify holds subscriber lists with idempotent cancellation.
package notify

import (
	"slices"
	"sync"
	"sync/atomic"
)

type subscriber[T any] struct {
	fn       func(T)
	canceled atomic.Bool
}

// List is a subscriber list. The zero value is ready to use. A canceled
// subscriber is not called again, even by an Emit already in progress.
type List[T any] struct {
	mu   sync.Mutex
	subs []*subscriber[T]
}

// Add registers fn and returns a cancel func that may be called any
// number of times.
func (l *List[T]) Add(fn func(T)) (cancel func()) {
	s := &subscriber[T]{fn: fn}
	l.mu.Lock()
	l.subs = append(l.subs, s)
	l.mu.Unlock()
	return func() {
		if s.canceled.Swap(true) {
			return
		}
		l.mu.Lock()
		l.subs = slices.DeleteFunc(l.subs, func(x *subscriber[T]) bool { return x == s })
		l.mu.Unlock()
	}
}

func (l *List[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs)
}

// Clear cancels every subscriber.
func (l *List[T]) Clear() {
	l.mu.Lock()
	subs := l.subs
	l.subs = nil
	l.mu.Unlock()
	for _, s := range subs {
		s.canceled.Store(true)
	}
}

// Emit calls each subscriber in registration order without holding the
// list lock.
func (l *List[T]) Emit(v T) {
	l.mu.Lock()
	subs := slices.Clone(l.subs)
	l.mu.Unlock()
	for _, s := range subs {
		if s.canceled.Load() {
			continue
		}
		s.fn(v)
	}
}
