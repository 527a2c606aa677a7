package crdt

import (
	"fmt"
	"slices"

	"github.com/signadot/sharedoc/internal/notify"
	"github.com/signadot/sharedoc/ir"
)

// Sequence is a replicated list. Concurrent inserts at the same place are
// ordered by stamp, greatest first; deleted elements stay as tombstones so
// later inserts can still find their origin.
//
// A Sequence made by NewSequence is detached until stored into an
// attached container and must not be shared between goroutines until then.
type Sequence struct {
	doc   *Doc
	cid   CID
	elems []*element
	pre   []Content
	obs   notify.List[Event]
}

type element struct {
	id      ID
	stamp   Stamp
	content Content
	deleted bool
}

func NewSequence() *Sequence {
	return &Sequence{}
}

func (s *Sequence) bind(d *Doc, cid CID) {
	s.doc = d
	s.cid = cid
}

func (s *Sequence) attachLocked(d *Doc, cid CID) {
	pre := s.pre
	s.pre = nil
	s.bind(d, cid)
	d.containers[cid] = s
	var origin *ID
	for _, c := range pre {
		op := d.nextOpLocked(OpSeqInsert, cid)
		op.Ref = origin
		d.writeLocked(op, c)
		id := op.ID
		origin = &id
	}
}

func (s *Sequence) Kind() Kind {
	return KindSequence
}

func (s *Sequence) Attached() bool {
	return s.doc != nil
}

func (s *Sequence) lock() func() {
	if d := s.doc; d != nil {
		d.mu.Lock()
		return d.mu.Unlock
	}
	return func() {}
}

// Insert places items so that the first of them ends up at index.
func (s *Sequence) Insert(index int, items ...Content) error {
	for _, c := range items {
		if err := checkStore(s, c); err != nil {
			return err
		}
	}
	d := s.doc
	if d == nil {
		if index < 0 || index > len(s.pre) {
			return fmt.Errorf("%w: insert at %d of %d", ErrIndexOutOfRange, index, len(s.pre))
		}
		cs := make([]Content, len(items))
		for i, c := range items {
			cs[i] = copyOut(c)
		}
		s.pre = slices.Insert(s.pre, index, cs...)
		return nil
	}
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return ErrDestroyed
	}
	vis := s.visibleLocked()
	if index < 0 || index > len(vis) {
		d.mu.Unlock()
		return fmt.Errorf("%w: insert at %d of %d", ErrIndexOutOfRange, index, len(vis))
	}
	var origin *ID
	if index > 0 {
		id := vis[index-1].id
		origin = &id
	}
	for _, c := range items {
		op := d.nextOpLocked(OpSeqInsert, s.cid)
		op.Ref = origin
		d.writeLocked(op, c)
		id := op.ID
		origin = &id
	}
	d.release()
	return nil
}

// Push appends items at the end.
func (s *Sequence) Push(items ...Content) error {
	for _, c := range items {
		if err := checkStore(s, c); err != nil {
			return err
		}
	}
	d := s.doc
	if d == nil {
		return s.Insert(len(s.pre), items...)
	}
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return ErrDestroyed
	}
	var origin *ID
	if vis := s.visibleLocked(); len(vis) > 0 {
		id := vis[len(vis)-1].id
		origin = &id
	}
	for _, c := range items {
		op := d.nextOpLocked(OpSeqInsert, s.cid)
		op.Ref = origin
		d.writeLocked(op, c)
		id := op.ID
		origin = &id
	}
	d.release()
	return nil
}

// Delete removes up to count elements starting at index and returns how
// many were removed. An index past the end removes nothing.
func (s *Sequence) Delete(index, count int) int {
	if index < 0 || count <= 0 {
		return 0
	}
	d := s.doc
	if d == nil {
		if index >= len(s.pre) {
			return 0
		}
		end := min(index+count, len(s.pre))
		s.pre = slices.Delete(s.pre, index, end)
		return end - index
	}
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return 0
	}
	vis := s.visibleLocked()
	if index >= len(vis) {
		d.mu.Unlock()
		return 0
	}
	end := min(index+count, len(vis))
	for _, e := range vis[index:end] {
		s.deleteLocked(d, e)
	}
	d.release()
	return end - index
}

// DeleteFunc removes the first element whose value satisfies pred and
// returns its index. The lookup and the removal happen under one lock
// hold, so the index cannot go stale in between. pred must not call back
// into the document.
func (s *Sequence) DeleteFunc(pred func(index int, v *ir.Node) bool) (int, bool) {
	d := s.doc
	if d == nil {
		for i, c := range s.pre {
			if pred(i, valueLocked(c)) {
				s.pre = slices.Delete(s.pre, i, i+1)
				return i, true
			}
		}
		return -1, false
	}
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return -1, false
	}
	for i, e := range s.visibleLocked() {
		if pred(i, valueLocked(e.content)) {
			s.deleteLocked(d, e)
			d.release()
			return i, true
		}
	}
	d.mu.Unlock()
	return -1, false
}

func (s *Sequence) deleteLocked(d *Doc, e *element) {
	op := d.nextOpLocked(OpSeqDelete, s.cid)
	id := e.id
	op.Ref = &id
	d.writeLocked(op, nil)
}

func (s *Sequence) Get(index int) (Content, bool) {
	defer s.lock()()
	cs := s.contentsLocked()
	if index < 0 || index >= len(cs) {
		return nil, false
	}
	return copyOut(cs[index]), true
}

func (s *Sequence) Len() int {
	defer s.lock()()
	return len(s.contentsLocked())
}

// ToArray returns the current elements in order.
func (s *Sequence) ToArray() []Content {
	defer s.lock()()
	cs := s.contentsLocked()
	res := make([]Content, len(cs))
	for i, c := range cs {
		res[i] = copyOut(c)
	}
	return res
}

func (s *Sequence) Entries() []Entry {
	defer s.lock()()
	cs := s.contentsLocked()
	res := make([]Entry, len(cs))
	for i, c := range cs {
		res[i] = Entry{Index: i, Content: copyOut(c)}
	}
	return res
}

func (s *Sequence) ToValue() *ir.Node {
	defer s.lock()()
	return s.valueLocked()
}

// Observe registers fn for inserts and deletes in s. Changes inside nested
// containers are reported to their observers only.
func (s *Sequence) Observe(fn func(Event)) (cancel func()) {
	return s.obs.Add(fn)
}

func (s *Sequence) valueLocked() *ir.Node {
	cs := s.contentsLocked()
	vs := make([]*ir.Node, len(cs))
	for i, c := range cs {
		vs[i] = valueLocked(c)
	}
	return ir.FromSlice(vs)
}

func (s *Sequence) contentsLocked() []Content {
	if s.doc == nil {
		return s.pre
	}
	vis := s.visibleLocked()
	res := make([]Content, len(vis))
	for i, e := range vis {
		res[i] = e.content
	}
	return res
}

func (s *Sequence) visibleLocked() []*element {
	res := make([]*element, 0, len(s.elems))
	for _, e := range s.elems {
		if !e.deleted {
			res = append(res, e)
		}
	}
	return res
}

func (s *Sequence) find(id ID) int {
	return slices.IndexFunc(s.elems, func(e *element) bool { return e.id == id })
}

func (s *Sequence) integrateInsert(op *Op, c Content) {
	i := 0
	if op.Ref != nil {
		i = s.find(*op.Ref) + 1
	}
	st := op.stamp()
	for i < len(s.elems) && s.elems[i].stamp.Compare(st) > 0 {
		i++
	}
	s.elems = slices.Insert(s.elems, i, &element{id: op.ID, stamp: st, content: c})
}

func (s *Sequence) integrateDelete(id ID) bool {
	i := s.find(id)
	if i < 0 || s.elems[i].deleted {
		return false
	}
	s.elems[i].deleted = true
	return true
}
