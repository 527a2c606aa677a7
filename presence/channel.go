package presence

import (
	"slices"
	"sync"

	"github.com/signadot/sharedoc/debug"
	"github.com/signadot/sharedoc/internal/notify"
)

// Channel is an in-memory Awareness. Transports feed it remote states
// with Put, Remove and Reset, and forward local states they receive
// through OnLocal.
type Channel struct {
	self string

	mu     sync.Mutex
	order  []string
	states map[string]State
	stale  bool

	changes notify.List[struct{}]
	locals  notify.List[State]
}

func NewChannel(clientID string) *Channel {
	return &Channel{
		self:   clientID,
		states: map[string]State{},
	}
}

func (c *Channel) ClientID() string {
	return c.self
}

func (c *Channel) SetLocalState(s State) {
	c.put(c.self, s)
	c.locals.Emit(s)
}

// LocalState returns the published local state, if any.
func (c *Channel) LocalState() (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.states[c.self]
	return s, ok
}

// OnLocal registers fn for each local publish.
func (c *Channel) OnLocal(fn func(State)) (cancel func()) {
	return c.locals.Add(fn)
}

// Put records the state of a remote peer.
func (c *Channel) Put(id string, s State) {
	if id == c.self {
		return
	}
	c.put(id, s)
}

func (c *Channel) put(id string, s State) {
	c.mu.Lock()
	old, ok := c.states[id]
	if ok && old == s {
		c.mu.Unlock()
		return
	}
	if !ok {
		c.order = append(c.order, id)
	}
	c.states[id] = s
	c.mu.Unlock()
	if debug.Presence() {
		debug.Logf("presence %s put %s %+v\n", c.self, id, s)
	}
	c.changes.Emit(struct{}{})
}

// Remove drops a remote peer.
func (c *Channel) Remove(id string) {
	c.mu.Lock()
	if _, ok := c.states[id]; !ok || id == c.self {
		c.mu.Unlock()
		return
	}
	delete(c.states, id)
	c.order = slices.DeleteFunc(c.order, func(x string) bool { return x == id })
	c.mu.Unlock()
	if debug.Presence() {
		debug.Logf("presence %s remove %s\n", c.self, id)
	}
	c.changes.Emit(struct{}{})
}

// Reset replaces every remote peer with peers and clears staleness.
func (c *Channel) Reset(peers []Peer) {
	c.mu.Lock()
	local, hasLocal := c.states[c.self]
	c.states = map[string]State{}
	c.order = nil
	if hasLocal {
		c.states[c.self] = local
		c.order = append(c.order, c.self)
	}
	for _, p := range peers {
		if p.ID == c.self {
			continue
		}
		if _, ok := c.states[p.ID]; !ok {
			c.order = append(c.order, p.ID)
		}
		c.states[p.ID] = p.State
	}
	c.stale = false
	c.mu.Unlock()
	c.changes.Emit(struct{}{})
}

// SetStale marks whether remote states may be out of date.
func (c *Channel) SetStale(stale bool) {
	c.mu.Lock()
	if c.stale == stale {
		c.mu.Unlock()
		return
	}
	c.stale = stale
	c.mu.Unlock()
	c.changes.Emit(struct{}{})
}

func (c *Channel) Stale() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stale
}

func (c *Channel) States() []Peer {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := make([]Peer, 0, len(c.order))
	for _, id := range c.order {
		res = append(res, Peer{ID: id, State: c.states[id]})
	}
	return res
}

func (c *Channel) OnChange(fn func()) (cancel func()) {
	return c.changes.Add(func(struct{}) { fn() })
}
