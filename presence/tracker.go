package presence

import (
	"log/slog"
	"sync"

	"github.com/signadot/sharedoc/internal/notify"
)

// Tracker republishes the peer list of an Awareness on every change.
type Tracker struct {
	a   Awareness
	log *slog.Logger

	mu   sync.RWMutex
	list List

	subs notify.List[List]
	stop func()
	once sync.Once
}

// Track follows a and publishes local once. Later changes to the local
// state are not supported. Callers must Detach on every exit path.
func Track(a Awareness, local State, log *slog.Logger) *Tracker {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	t := &Tracker{a: a, log: log}
	t.stop = a.OnChange(t.refresh)
	a.SetLocalState(local)
	t.refresh()
	return t
}

func (t *Tracker) refresh() {
	l := List{Peers: t.a.States()}
	if s, ok := t.a.(interface{ Stale() bool }); ok {
		l.Stale = s.Stale()
	}
	t.mu.Lock()
	t.list = l
	t.mu.Unlock()
	t.log.Debug("presence", "peers", len(l.Peers), "stale", l.Stale)
	t.subs.Emit(copyList(l))
}

func copyList(l List) List {
	return List{Peers: append([]Peer(nil), l.Peers...), Stale: l.Stale}
}

// Peers returns the latest peer list.
func (t *Tracker) Peers() List {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return copyList(t.list)
}

func (t *Tracker) Subscribe(fn func(List)) (cancel func()) {
	return t.subs.Add(fn)
}

// Detach stops following the channel. It may be called any number of
// times.
func (t *Tracker) Detach() {
	t.once.Do(func() {
		t.stop()
		t.subs.Clear()
	})
}
