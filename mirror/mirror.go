// Package mirror keeps read-only snapshots of replicated containers.
package mirror

import (
	"slices"
	"sync"

	"github.com/signadot/sharedoc/crdt"
	"github.com/signadot/sharedoc/internal/notify"
	"github.com/signadot/sharedoc/ir"
)

// Mirror holds the latest snapshot of one container. Every change to the
// container replaces the whole snapshot. A Mirror never writes to the
// container it watches.
type Mirror struct {
	c crdt.Container

	mu      sync.RWMutex
	entries []crdt.Entry
	value   *ir.Node
	version int

	subs     notify.List[Snapshot]
	stop     func()
	once     sync.Once
	detached bool
}

// Snapshot is one version of a mirrored container.
type Snapshot struct {
	Version int
	Entries []crdt.Entry
	Value   *ir.Node
}

// Attach computes the initial snapshot of c and starts following it.
// Callers must Detach on every exit path.
func Attach(c crdt.Container) *Mirror {
	m := &Mirror{c: c}
	m.refresh()
	m.stop = c.Observe(func(crdt.Event) { m.refresh() })
	return m
}

// AttachDeep is Attach that also refreshes on changes to containers
// nested below c. d is the document holding c.
func AttachDeep(d *crdt.Doc, c crdt.Container) *Mirror {
	m := Attach(c)
	stopDoc := d.Observe(func(evs []crdt.Event) {
		// a batch touching c itself is handled by the shallow observer
		if slices.ContainsFunc(evs, func(ev crdt.Event) bool { return ev.Target == c }) {
			return
		}
		if slices.ContainsFunc(evs, func(ev crdt.Event) bool { return contains(c, ev.Target) }) {
			m.refresh()
		}
	})
	stop := m.stop
	m.stop = func() {
		stop()
		stopDoc()
	}
	return m
}

// contains reports whether t is nested, at any depth, below c.
func contains(c, t crdt.Container) bool {
	for _, e := range c.Entries() {
		if x, ok := e.Content.(crdt.Container); ok && (x == t || contains(x, t)) {
			return true
		}
	}
	return false
}

func (m *Mirror) refresh() {
	entries := m.c.Entries()
	value := m.c.ToValue()
	m.mu.Lock()
	if m.detached {
		m.mu.Unlock()
		return
	}
	m.entries = entries
	m.value = value
	m.version++
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.subs.Emit(snap)
}

// Refresh recomputes the snapshot outside of a container notification,
// for changes below the container's direct children.
func (m *Mirror) Refresh() {
	m.refresh()
}

func (m *Mirror) Container() crdt.Container {
	return m.c
}

// Snapshot returns a copy of the current snapshot.
func (m *Mirror) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

func (m *Mirror) snapshotLocked() Snapshot {
	entries := slices.Clone(m.entries)
	for i := range entries {
		if l, ok := entries[i].Content.(crdt.Leaf); ok {
			entries[i].Content = crdt.Leaf{Node: l.Node.Clone()}
		}
	}
	return Snapshot{
		Version: m.version,
		Entries: entries,
		Value:   m.value.Clone(),
	}
}

func (m *Mirror) Entries() []crdt.Entry {
	return m.Snapshot().Entries
}

func (m *Mirror) Value() *ir.Node {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.value.Clone()
}

// Subscribe registers fn for every new snapshot.
func (m *Mirror) Subscribe(fn func(Snapshot)) (cancel func()) {
	return m.subs.Add(fn)
}

// Detach stops following the container and drops subscribers. The last
// snapshot stays readable. Detach may be called any number of times.
func (m *Mirror) Detach() {
	m.once.Do(func() {
		m.stop()
		m.mu.Lock()
		m.detached = true
		m.mu.Unlock()
		m.subs.Clear()
	})
}

func (m *Mirror) Detached() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.detached
}
