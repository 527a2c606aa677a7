package server

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/signadot/sharedoc/crdt"
	"github.com/signadot/sharedoc/presence"
	"github.com/signadot/sharedoc/system/relay/api"
	"github.com/signadot/sharedoc/system/relay/store"
)

// Room is the relay side of one shared document.
type Room struct {
	Name string

	mu    sync.Mutex
	doc   *crdt.Doc
	store store.Store
	log   *slog.Logger
	conns []*conn
	peers map[string]presence.State
}

func loadRoom(name string, st store.Store, log *slog.Logger) (*Room, error) {
	r := &Room{
		Name:  name,
		doc:   crdt.NewDoc("relay"),
		store: st,
		log:   log.With("room", name),
		peers: map[string]presence.State{},
	}
	n := 0
	err := st.Load(name, func(d []byte) error {
		u, err := crdt.DecodeUpdate(d)
		if err != nil {
			return err
		}
		n += len(u.Ops)
		if err := r.doc.Apply(u); err != nil {
			r.log.Warn("stored update has bad ops", "error", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load room %s: %w", name, err)
	}
	if n > 0 {
		r.log.Info("loaded room", "ops", n, "pending", r.doc.Pending())
	}
	return r, nil
}

// Doc returns the relay's replica of the room document.
func (r *Room) Doc() *crdt.Doc {
	return r.doc
}

// ConnCount returns the number of connected clients.
func (r *Room) ConnCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

func (r *Room) join(c *conn, hello *api.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns = append(r.conns, c)
	missing := r.doc.Updates(hello.StateVector)
	welcome := &api.Frame{
		Kind:        api.FrameWelcome,
		Client:      c.id,
		StateVector: r.doc.StateVector(),
		Update:      &missing,
		Peers:       r.peersLocked(),
	}
	c.enqueue(welcome)
	r.log.Info("join", "conn", c.id, "conns", len(r.conns), "sent", len(missing.Ops))
}

func (r *Room) peersLocked() []presence.Peer {
	var res []presence.Peer
	for _, c := range r.conns {
		if s, ok := r.peers[c.id]; ok {
			res = append(res, presence.Peer{ID: c.id, State: s})
		}
	}
	return res
}

// update integrates u and forwards the ops the relay had not integrated
// before. Ops already known to the relay are dropped, so a client
// resending its history costs nothing beyond this call.
func (r *Room) update(from *conn, u crdt.Update) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	before := r.doc.StateVector()
	applyErr := r.doc.Apply(u)
	fresh := r.doc.Updates(before)
	if fresh.Empty() {
		return applyErr
	}
	d, err := crdt.EncodeUpdate(fresh)
	if err != nil {
		return err
	}
	if err := r.store.Append(r.Name, d); err != nil {
		return fmt.Errorf("store update: %w", err)
	}
	sent := map[crdt.ID]bool{}
	for _, op := range u.Ops {
		sent[op.ID] = true
	}
	var echo crdt.Update
	for _, op := range fresh.Ops {
		if !sent[op.ID] {
			echo.Ops = append(echo.Ops, op)
		}
	}
	for _, c := range r.conns {
		if c != from {
			c.enqueue(&api.Frame{Kind: api.FrameUpdate, Update: &fresh})
			continue
		}
		if !echo.Empty() {
			c.enqueue(&api.Frame{Kind: api.FrameUpdate, Update: &echo})
		}
	}
	r.log.Debug("update", "conn", from.id, "ops", len(fresh.Ops), "pending", r.doc.Pending())
	return applyErr
}

func (r *Room) presence(from *conn, s presence.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.peers[from.id]; ok && old == s {
		return
	}
	r.peers[from.id] = s
	r.broadcastLocked(from, &api.Frame{Kind: api.FramePresence, Client: from.id, Presence: &s})
}

func (r *Room) leave(c *conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := slices.Index(r.conns, c)
	if i < 0 {
		return
	}
	r.conns = slices.Delete(r.conns, i, i+1)
	if _, ok := r.peers[c.id]; ok {
		delete(r.peers, c.id)
		r.broadcastLocked(c, &api.Frame{Kind: api.FrameGone, Client: c.id})
	}
	r.log.Info("leave", "conn", c.id, "conns", len(r.conns))
}

func (r *Room) broadcastLocked(from *conn, f *api.Frame) {
	for _, c := range r.conns {
		if c != from {
			c.enqueue(f)
		}
	}
}
