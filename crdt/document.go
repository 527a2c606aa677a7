package crdt

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/signadot/sharedoc/debug"
	"github.com/signadot/sharedoc/internal/notify"
	"github.com/signadot/sharedoc/ir"
)

// Doc is one peer's replica of a replicated document.
type Doc struct {
	mu         sync.Mutex
	peer       string
	lamport    uint64
	sv         StateVector
	history    []Op
	pending    []Op
	roots      map[string]Container
	containers map[CID]Container
	destroyed  bool

	// batching and delivery
	depth       int
	local       []Op
	events      []*Event
	eventIdx    map[Container]*Event
	queue       []func()
	dispatching bool

	updates notify.List[Update]
	changes notify.List[[]Event]
}

// NewDoc creates an empty document for peer. An empty peer gets a random
// identity.
func NewDoc(peer string) *Doc {
	if peer == "" {
		peer = uuid.NewString()
	}
	return &Doc{
		peer:       peer,
		sv:         StateVector{},
		roots:      map[string]Container{},
		containers: map[CID]Container{},
		eventIdx:   map[Container]*Event{},
	}
}

func (d *Doc) Peer() string {
	return d.peer
}

// GetMap returns the root map called name, creating it if needed. Root
// containers need no op to exist, so every peer calling GetMap with the
// same name refers to the same container.
func (d *Doc) GetMap(name string) (*Map, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, err := d.rootLocked(name, KindMap)
	if err != nil {
		return nil, err
	}
	return c.(*Map), nil
}

// GetSequence is GetMap for sequences.
func (d *Doc) GetSequence(name string) (*Sequence, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, err := d.rootLocked(name, KindSequence)
	if err != nil {
		return nil, err
	}
	return c.(*Sequence), nil
}

// Roots returns the names of the root containers, sorted.
func (d *Doc) Roots() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Sorted(maps.Keys(d.roots))
}

// Root returns the root container called name, if it exists.
func (d *Doc) Root(name string) (Container, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.roots[name]
	return c, ok
}

// ToValue returns an object holding the value of every root container.
func (d *Doc) ToValue() *ir.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	names := slices.Sorted(maps.Keys(d.roots))
	kvs := make([]ir.KeyVal, len(names))
	for i, name := range names {
		kvs[i] = ir.KeyVal{Key: name, Val: valueLocked(d.roots[name])}
	}
	return ir.FromKeyVals(kvs)
}

func (d *Doc) rootLocked(name string, k Kind) (Container, error) {
	if c, ok := d.roots[name]; ok {
		if c.Kind() != k {
			return nil, fmt.Errorf("%w: root %q is a %s", ErrKindMismatch, name, c.Kind())
		}
		return c, nil
	}
	cid := rootCID(name)
	var c Container
	switch k {
	case KindMap:
		m := NewMap()
		m.bind(d, cid)
		c = m
	case KindSequence:
		s := NewSequence()
		s.bind(d, cid)
		c = s
	default:
		return nil, fmt.Errorf("%w: %s", ErrKindMismatch, k)
	}
	d.roots[name] = c
	d.containers[cid] = c
	return c, nil
}

// Transact runs fn with all writes made during it batched: observers see
// one coalesced event per container and update handlers one Update, once
// fn returns. Writes made by other goroutines while fn runs join the batch.
func (d *Doc) Transact(fn func()) {
	d.mu.Lock()
	d.depth++
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.depth--
		d.release()
	}()
	fn()
}

// Observe registers fn for every batch of changes anywhere in d, local or
// remote. fn receives one event per changed container.
func (d *Doc) Observe(fn func([]Event)) (cancel func()) {
	return d.changes.Add(fn)
}

// OnUpdate registers fn to receive the ops produced by local writes.
func (d *Doc) OnUpdate(fn func(Update)) (cancel func()) {
	return d.updates.Add(fn)
}

func (d *Doc) StateVector() StateVector {
	d.mu.Lock()
	defer d.mu.Unlock()
	return maps.Clone(d.sv)
}

// Updates returns every integrated op not covered by since, in an order
// Apply accepts. A nil since yields the full history.
func (d *Doc) Updates(since StateVector) Update {
	d.mu.Lock()
	defer d.mu.Unlock()
	var u Update
	for i := range d.history {
		op := &d.history[i]
		if op.ID.Seq <= since[op.ID.Peer] {
			continue
		}
		u.Ops = append(u.Ops, op.clone())
	}
	return u
}

// Pending reports how many received ops wait on missing dependencies.
func (d *Doc) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Apply integrates remote ops. Ops already integrated are ignored and ops
// whose dependencies are missing are held until a later Apply supplies
// them. Malformed ops are skipped, and reported in the returned error,
// without blocking later ops of their peer.
func (d *Doc) Apply(u Update) error {
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return ErrDestroyed
	}
	for i := range u.Ops {
		d.pending = append(d.pending, u.Ops[i].clone())
	}
	var errs []error
	for progress := true; progress; {
		progress = false
		var wait []Op
		for i := range d.pending {
			op := &d.pending[i]
			switch r, err := d.readyLocked(op); r {
			case opDone:
			case opWait:
				wait = append(wait, *op)
			case opReady:
				d.integrateLocked(op, d.remoteContentLocked(op), false)
				progress = true
			case opBad:
				if debug.Apply() {
					debug.Logf("skip %s: %v\n", op, err)
				}
				d.skipLocked(op)
				errs = append(errs, err)
				progress = true
			}
		}
		d.pending = wait
	}
	if debug.Apply() && len(d.pending) > 0 {
		debug.Logf("%s: %d ops pending\n", d.peer, len(d.pending))
	}
	d.release()
	return errors.Join(errs...)
}

// Destroy releases observers. Reads keep working; writes and Apply fail
// with ErrDestroyed.
func (d *Doc) Destroy() {
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return
	}
	d.destroyed = true
	cs := make([]Container, 0, len(d.containers))
	for _, c := range d.containers {
		cs = append(cs, c)
	}
	d.queue = nil
	d.events = nil
	clear(d.eventIdx)
	d.local = nil
	d.mu.Unlock()
	d.updates.Clear()
	d.changes.Clear()
	for _, c := range cs {
		obsOf(c).Clear()
	}
}

type readiness int

const (
	opDone readiness = iota
	opWait
	opReady
	opBad
)

func (d *Doc) readyLocked(op *Op) (readiness, error) {
	have := d.sv[op.ID.Peer]
	if op.ID.Seq <= have {
		return opDone, nil
	}
	if op.ID.Seq != have+1 {
		return opWait, nil
	}
	if op.ID.Peer == "" {
		return opBad, fmt.Errorf("op %s: empty peer", op)
	}
	var c Container
	if op.Target.Root != "" {
		k := KindSequence
		if op.Kind.onMap() {
			k = KindMap
		}
		var err error
		c, err = d.rootLocked(op.Target.Root, k)
		if err != nil {
			return opBad, fmt.Errorf("op %s: %w", op, err)
		}
	} else {
		var ok bool
		c, ok = d.containers[op.Target]
		if !ok {
			return opWait, nil
		}
	}
	switch op.Kind {
	case OpMapSet, OpMapDelete:
		if c.Kind() != KindMap {
			return opBad, fmt.Errorf("op %s: %w", op, ErrKindMismatch)
		}
	case OpSeqInsert, OpSeqDelete:
		s, ok := c.(*Sequence)
		if !ok {
			return opBad, fmt.Errorf("op %s: %w", op, ErrKindMismatch)
		}
		if op.Kind == OpSeqDelete && op.Ref == nil {
			return opBad, fmt.Errorf("op %s: delete without element", op)
		}
		if op.Ref != nil && s.find(*op.Ref) < 0 {
			return opWait, nil
		}
	default:
		return opBad, fmt.Errorf("op %s: unknown kind", op)
	}
	switch {
	case op.Kind == OpMapDelete || op.Kind == OpSeqDelete:
		if op.New != KindNone {
			return opBad, fmt.Errorf("op %s: %w: delete creates %s", op, ErrBadOp, op.New)
		}
	case op.New == KindMap || op.New == KindSequence:
	case op.New != KindNone:
		return opBad, fmt.Errorf("op %s: %w: container kind %s", op, ErrBadOp, op.New)
	default:
		if err := op.Value.Validate(); err != nil {
			return opBad, fmt.Errorf("op %s: %w", op, err)
		}
	}
	return opReady, nil
}

func (d *Doc) remoteContentLocked(op *Op) Content {
	if op.Kind != OpMapSet && op.Kind != OpSeqInsert {
		return nil
	}
	cid := CID{ID: op.ID}
	switch op.New {
	case KindMap:
		m := NewMap()
		m.bind(d, cid)
		d.containers[cid] = m
		return m
	case KindSequence:
		s := NewSequence()
		s.bind(d, cid)
		d.containers[cid] = s
		return s
	}
	return Leaf{Node: op.Value.Clone()}
}

// skipLocked records a malformed op as seen so its peer's later ops are
// not held back.
func (d *Doc) skipLocked(op *Op) {
	d.sv[op.ID.Peer] = op.ID.Seq
	d.lamport = max(d.lamport, op.Lamport)
}

func (d *Doc) integrateLocked(op *Op, c Content, local bool) {
	d.sv[op.ID.Peer] = op.ID.Seq
	d.lamport = max(d.lamport, op.Lamport)
	d.history = append(d.history, op.clone())
	if debug.Apply() {
		debug.Logf("%s integrate %s\n", d.peer, op)
	}
	target := d.containers[op.Target]
	switch op.Kind {
	case OpMapSet, OpMapDelete:
		m := target.(*Map)
		if m.integrate(op, c) {
			d.touchLocked(m, op.Key, local)
		}
	case OpSeqInsert:
		s := target.(*Sequence)
		s.integrateInsert(op, c)
		d.touchLocked(s, "", local)
	case OpSeqDelete:
		s := target.(*Sequence)
		if s.integrateDelete(*op.Ref) {
			d.touchLocked(s, "", local)
		}
	}
}

func (d *Doc) nextOpLocked(kind OpKind, target CID) Op {
	d.lamport++
	return Op{
		ID:      ID{Peer: d.peer, Seq: d.sv[d.peer] + 1},
		Lamport: d.lamport,
		Kind:    kind,
		Target:  target,
	}
}

// writeLocked integrates a local op storing c (nil for deletes) and, when c
// is a detached container, attaches it along with its contents.
func (d *Doc) writeLocked(op Op, c Content) {
	stored := c
	var prelim attacher
	switch x := c.(type) {
	case Leaf:
		op.Value = x.Node.Clone()
		stored = Leaf{Node: x.Node.Clone()}
	case *Map:
		op.New = KindMap
		prelim = x
	case *Sequence:
		op.New = KindSequence
		prelim = x
	}
	d.integrateLocked(&op, stored, true)
	d.local = append(d.local, op.clone())
	if prelim != nil {
		prelim.attachLocked(d, CID{ID: op.ID})
	}
}

type attacher interface {
	attachLocked(d *Doc, cid CID)
}

func (d *Doc) touchLocked(c Container, key string, local bool) {
	ev, ok := d.eventIdx[c]
	if !ok {
		ev = &Event{Target: c, Local: local}
		d.eventIdx[c] = ev
		d.events = append(d.events, ev)
	}
	if key != "" && !containsString(ev.Keys, key) {
		ev.Keys = append(ev.Keys, key)
	}
}

func containsString(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}

// release unlocks d, first delivering any completed batch. The caller
// holds d.mu.
func (d *Doc) release() {
	if d.depth == 0 {
		d.flushLocked()
	}
	if d.dispatching {
		d.mu.Unlock()
		return
	}
	d.dispatching = true
	for len(d.queue) > 0 {
		q := d.queue
		d.queue = nil
		d.mu.Unlock()
		d.deliver(q)
		d.mu.Lock()
	}
	d.dispatching = false
	d.mu.Unlock()
}

func (d *Doc) flushLocked() {
	if len(d.local) > 0 {
		u := Update{Ops: d.local}
		d.local = nil
		d.queue = append(d.queue, func() { d.updates.Emit(u) })
	}
	if len(d.events) == 0 {
		return
	}
	evs := make([]Event, len(d.events))
	for i, ev := range d.events {
		evs[i] = *ev
		d.queue = append(d.queue, func() { obsOf(evs[i].Target).Emit(evs[i]) })
	}
	d.queue = append(d.queue, func() { d.changes.Emit(slices.Clone(evs)) })
	d.events = nil
	clear(d.eventIdx)
}

func (d *Doc) deliver(q []func()) {
	ok := false
	defer func() {
		if !ok {
			d.mu.Lock()
			d.dispatching = false
			d.mu.Unlock()
		}
	}()
	for _, f := range q {
		f()
	}
	ok = true
}

func obsOf(c Container) *notify.List[Event] {
	switch x := c.(type) {
	case *Map:
		return &x.obs
	case *Sequence:
		return &x.obs
	}
	panic(fmt.Sprintf("crdt: unknown container %T", c))
}

func (o *Op) clone() Op {
	res := *o
	if o.Ref != nil {
		r := *o.Ref
		res.Ref = &r
	}
	res.Value = o.Value.Clone()
	return res
}
