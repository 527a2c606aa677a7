package crdt

import (
	"slices"

	"github.com/signadot/sharedoc/internal/notify"
	"github.com/signadot/sharedoc/ir"
)

// Map is a replicated string-keyed map. Concurrent writes to one key
// resolve to the write with the greatest stamp, and visible keys are
// ordered by the stamp of their current value.
//
// A Map made by NewMap is detached until stored into an attached
// container. A detached Map keeps keys in insertion order and must not be
// shared between goroutines.
type Map struct {
	doc     *Doc
	cid     CID
	entries map[string]*mapEntry
	pre     []preEntry
	obs     notify.List[Event]
}

type mapEntry struct {
	stamp   Stamp
	content Content
}

type preEntry struct {
	key     string
	content Content
}

func NewMap() *Map {
	return &Map{}
}

func (m *Map) bind(d *Doc, cid CID) {
	m.doc = d
	m.cid = cid
	m.entries = map[string]*mapEntry{}
}

func (m *Map) attachLocked(d *Doc, cid CID) {
	pre := m.pre
	m.pre = nil
	m.bind(d, cid)
	d.containers[cid] = m
	for _, e := range pre {
		op := d.nextOpLocked(OpMapSet, cid)
		op.Key = e.key
		d.writeLocked(op, e.content)
	}
}

func (m *Map) Kind() Kind {
	return KindMap
}

// Attached reports whether m belongs to a document.
func (m *Map) Attached() bool {
	return m.doc != nil
}

func (m *Map) lock() func() {
	if d := m.doc; d != nil {
		d.mu.Lock()
		return d.mu.Unlock
	}
	return func() {}
}

// Set stores c under key, replacing any current value.
func (m *Map) Set(key string, c Content) error {
	_, err := m.set(key, c, false)
	return err
}

// SetIfAbsent stores c under key unless key is present, and reports
// whether it did. The check and the write happen under one lock hold.
func (m *Map) SetIfAbsent(key string, c Content) (bool, error) {
	return m.set(key, c, true)
}

func (m *Map) set(key string, c Content, ifAbsent bool) (bool, error) {
	d := m.doc
	if d == nil {
		if ifAbsent && m.preIndex(key) >= 0 {
			return false, nil
		}
		if err := checkStore(m, c); err != nil {
			return false, err
		}
		c = copyOut(c)
		if i := m.preIndex(key); i >= 0 {
			m.pre[i].content = c
		} else {
			m.pre = append(m.pre, preEntry{key: key, content: c})
		}
		return true, nil
	}
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return false, ErrDestroyed
	}
	if ifAbsent && m.visible(key) != nil {
		d.mu.Unlock()
		return false, nil
	}
	if err := checkStore(m, c); err != nil {
		d.mu.Unlock()
		return false, err
	}
	op := d.nextOpLocked(OpMapSet, m.cid)
	op.Key = key
	d.writeLocked(op, c)
	d.release()
	return true, nil
}

// Delete removes key and reports whether it was present. Deleting an
// absent key writes nothing.
func (m *Map) Delete(key string) bool {
	d := m.doc
	if d == nil {
		i := m.preIndex(key)
		if i < 0 {
			return false
		}
		m.pre = slices.Delete(m.pre, i, i+1)
		return true
	}
	d.mu.Lock()
	if d.destroyed || m.visible(key) == nil {
		d.mu.Unlock()
		return false
	}
	op := d.nextOpLocked(OpMapDelete, m.cid)
	op.Key = key
	d.writeLocked(op, nil)
	d.release()
	return true
}

func (m *Map) Get(key string) (Content, bool) {
	defer m.lock()()
	c := m.getLocked(key)
	if c == nil {
		return nil, false
	}
	return copyOut(c), true
}

func (m *Map) Has(key string) bool {
	defer m.lock()()
	return m.getLocked(key) != nil
}

func (m *Map) Keys() []string {
	defer m.lock()()
	return m.keysLocked()
}

func (m *Map) Len() int {
	defer m.lock()()
	return len(m.keysLocked())
}

func (m *Map) Entries() []Entry {
	defer m.lock()()
	keys := m.keysLocked()
	res := make([]Entry, len(keys))
	for i, k := range keys {
		res[i] = Entry{Key: k, Index: i, Content: copyOut(m.getLocked(k))}
	}
	return res
}

// ToValue converts m, and everything below it, to a plain object.
func (m *Map) ToValue() *ir.Node {
	defer m.lock()()
	return m.valueLocked()
}

// Observe registers fn for changes to m's own keys. Changes inside nested
// containers are reported to their observers only.
func (m *Map) Observe(fn func(Event)) (cancel func()) {
	return m.obs.Add(fn)
}

func (m *Map) valueLocked() *ir.Node {
	keys := m.keysLocked()
	kvs := make([]ir.KeyVal, len(keys))
	for i, k := range keys {
		kvs[i] = ir.KeyVal{Key: k, Val: valueLocked(m.getLocked(k))}
	}
	return ir.FromKeyVals(kvs)
}

func (m *Map) getLocked(key string) Content {
	if m.doc == nil {
		if i := m.preIndex(key); i >= 0 {
			return m.pre[i].content
		}
		return nil
	}
	if e := m.visible(key); e != nil {
		return e.content
	}
	return nil
}

func (m *Map) keysLocked() []string {
	if m.doc == nil {
		res := make([]string, len(m.pre))
		for i, e := range m.pre {
			res[i] = e.key
		}
		return res
	}
	type ks struct {
		key   string
		stamp Stamp
	}
	var all []ks
	for k, e := range m.entries {
		if e.content != nil {
			all = append(all, ks{key: k, stamp: e.stamp})
		}
	}
	slices.SortFunc(all, func(a, b ks) int { return a.stamp.Compare(b.stamp) })
	res := make([]string, len(all))
	for i := range all {
		res[i] = all[i].key
	}
	return res
}

func (m *Map) visible(key string) *mapEntry {
	e, ok := m.entries[key]
	if !ok || e.content == nil {
		return nil
	}
	return e
}

func (m *Map) preIndex(key string) int {
	return slices.IndexFunc(m.pre, func(e preEntry) bool { return e.key == key })
}

// integrate applies a set or delete op, reporting whether it won.
func (m *Map) integrate(op *Op, c Content) bool {
	st := op.stamp()
	if e, ok := m.entries[op.Key]; ok && e.stamp.Compare(st) >= 0 {
		return false
	}
	if op.Kind == OpMapDelete {
		c = nil
	}
	m.entries[op.Key] = &mapEntry{stamp: st, content: c}
	return true
}

func valueLocked(c Content) *ir.Node {
	switch x := c.(type) {
	case Leaf:
		return x.Node.Clone()
	case *Map:
		return x.valueLocked()
	case *Sequence:
		return x.valueLocked()
	}
	return ir.Null()
}
