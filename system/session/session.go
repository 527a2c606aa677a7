// Package session connects a local document to a relay room.
//
// A Session forwards local updates and presence to the relay and applies
// what the relay sends back. When the connection drops, remote presence is
// marked stale, local edits keep applying to the document, and the session
// reconnects with exponential backoff. Each (re)connection exchanges state
// vectors with the relay so both sides end up with every op.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/gorilla/websocket"
	"github.com/signadot/sharedoc/crdt"
	"github.com/signadot/sharedoc/debug"
	"github.com/signadot/sharedoc/internal/notify"
	"github.com/signadot/sharedoc/presence"
	"github.com/signadot/sharedoc/system/relay/api"
)

var (
	// ErrConnectionLost is the session error once reconnecting gives up.
	ErrConnectionLost = errors.New("connection lost")
	ErrClosed         = errors.New("session closed")
)

type Status int

const (
	Connecting Status = iota
	Connected
	Disconnected
	Closed
)

func (s Status) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	case Closed:
		return "closed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

type Session struct {
	cfg    Config
	doc    *crdt.Doc
	log    *slog.Logger
	aware  *presence.Channel
	dialer websocket.Dialer

	mu     sync.Mutex
	link   *link
	status Status
	client string
	err    error

	statuses    notify.List[Status]
	stopUpdates func()
	stopLocal   func()
	cancel      context.CancelFunc
	done        chan struct{}
	closeOnce   sync.Once
}

// link is one websocket connection.
type link struct {
	ws   *websocket.Conn
	out  chan []byte
	stop chan struct{}
	once sync.Once
}

func (l *link) close() {
	l.once.Do(func() {
		close(l.stop)
		l.ws.Close()
	})
}

// Connect joins cfg.Room with doc. The first connection attempt is made
// before Connect returns and its failure is returned. Callers must Close
// the session on every exit path.
func Connect(ctx context.Context, cfg Config, doc *crdt.Doc, log *slog.Logger) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Session{
		cfg:    cfg,
		doc:    doc,
		log:    log.With("room", cfg.Room),
		aware:  presence.NewChannel(doc.Peer()),
		dialer: websocket.Dialer{HandshakeTimeout: cfg.WriteTimeout},
		done:   make(chan struct{}),
	}
	s.stopUpdates = doc.OnUpdate(s.sendUpdate)
	s.stopLocal = s.aware.OnLocal(s.sendPresence)
	l, err := s.dial(ctx)
	if err != nil {
		s.stopUpdates()
		s.stopLocal()
		return nil, err
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.setStatus(Connected)
	go s.run(ctx, l)
	return s, nil
}

// Awareness is the presence channel of the room.
func (s *Session) Awareness() *presence.Channel {
	return s.aware
}

func (s *Session) Doc() *crdt.Doc {
	return s.doc
}

// ClientID is the relay's id for the current connection.
func (s *Session) ClientID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// OnStatus registers fn for status changes.
func (s *Session) OnStatus(fn func(Status)) (cancel func()) {
	return s.statuses.Add(fn)
}

// Done is closed when the session ends, by Close or by giving up.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns why the session ended: ErrConnectionLost, an access error,
// or ErrClosed.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close disconnects. It may be called any number of times.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.stopUpdates()
		s.stopLocal()
		s.cancel()
		s.mu.Lock()
		l := s.link
		if s.err == nil {
			s.err = ErrClosed
		}
		s.mu.Unlock()
		if l != nil {
			l.close()
		}
		<-s.done
		s.setStatus(Closed)
	})
	return nil
}

func (s *Session) setStatus(st Status) {
	s.mu.Lock()
	if s.status == st {
		s.mu.Unlock()
		return
	}
	s.status = st
	s.mu.Unlock()
	s.log.Debug("session status", "status", st)
	s.statuses.Emit(st)
}

func (s *Session) dial(ctx context.Context) (*link, error) {
	s.setStatus(Connecting)
	hdr := http.Header{}
	api.SetAccessKey(hdr, s.cfg.AccessKey)
	u := s.cfg.URL + api.RoomPath(s.cfg.Room)
	ws, resp, err := s.dialer.DialContext(ctx, u, hdr)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("connect %s: %w", u, api.ErrUnauthorized)
		}
		return nil, fmt.Errorf("connect %s: %w", u, err)
	}
	l := &link{
		ws:   ws,
		out:  make(chan []byte, s.cfg.SendBuffer),
		stop: make(chan struct{}),
	}
	// cancelling ctx aborts a handshake still waiting for welcome
	stop := context.AfterFunc(ctx, func() { ws.Close() })
	defer stop()
	if err := s.handshake(l); err != nil {
		l.close()
		return nil, fmt.Errorf("connect %s: %w", u, err)
	}
	return l, nil
}

// handshake sends hello and integrates the welcome.
func (s *Session) handshake(l *link) error {
	hello, err := api.Encode(&api.Frame{Kind: api.FrameHello, StateVector: s.doc.StateVector()})
	if err != nil {
		return err
	}
	l.ws.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	if err := l.ws.WriteMessage(websocket.BinaryMessage, hello); err != nil {
		return err
	}
	l.ws.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	f, err := readFrame(l.ws)
	if err != nil {
		return err
	}
	switch f.Kind {
	case api.FrameWelcome:
	case api.FrameError:
		if f.Error != nil {
			return f.Error
		}
		return api.ErrInternal
	default:
		return api.NewError(api.ErrCodeBadFrame, fmt.Sprintf("expected welcome, got %s", f.Kind))
	}
	if f.Update != nil {
		if err := s.doc.Apply(*f.Update); err != nil {
			s.log.Warn("welcome update has bad ops", "error", err)
		}
	}
	var peers []presence.Peer
	for _, p := range f.Peers {
		if p.ID != f.Client {
			peers = append(peers, p)
		}
	}
	s.aware.Reset(peers)
	s.mu.Lock()
	s.client = f.Client
	s.mu.Unlock()
	if debug.Sync() {
		debug.Logf("session %s welcome as %s, %d peers\n", s.doc.Peer(), f.Client, len(peers))
	}
	relaySV := f.StateVector
	go s.writePump(l)
	s.mu.Lock()
	s.link = l
	s.mu.Unlock()
	// ops the relay lacks, including any made during the handshake
	if missing := s.doc.Updates(relaySV); !missing.Empty() {
		s.sendUpdate(missing)
	}
	if st, ok := s.aware.LocalState(); ok {
		s.sendPresence(st)
	}
	return nil
}

func readFrame(ws *websocket.Conn) (*api.Frame, error) {
	typ, d, err := ws.ReadMessage()
	if err != nil {
		return nil, err
	}
	if typ != websocket.BinaryMessage {
		return nil, api.NewError(api.ErrCodeBadFrame, "text message")
	}
	return api.Decode(d)
}

func (s *Session) run(ctx context.Context, l *link) {
	defer close(s.done)
	for {
		err := s.readPump(l)
		l.close()
		if ctx.Err() != nil {
			return
		}
		s.log.Warn("relay connection lost", "error", err)
		s.aware.SetStale(true)
		s.setStatus(Disconnected)
		l, err = s.reconnect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
			s.log.Error("giving up on relay", "error", err)
			return
		}
		if ctx.Err() != nil {
			l.close()
			return
		}
		s.setStatus(Connected)
		s.log.Info("reconnected", "client", s.ClientID())
	}
}

func (s *Session) reconnect(ctx context.Context) (*link, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.MinBackoff
	b.MaxInterval = s.cfg.MaxBackoff
	b.MaxElapsedTime = s.cfg.MaxElapsed
	b.Reset()
	for {
		d := b.NextBackOff()
		if d == backoff.Stop {
			return nil, ErrConnectionLost
		}
		t := time.NewTimer(d)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
		l, err := s.dial(ctx)
		if err == nil {
			if ctx.Err() != nil {
				l.close()
				return nil, ctx.Err()
			}
			return l, nil
		}
		if errors.Is(err, api.ErrUnauthorized) {
			return nil, err
		}
		s.log.Debug("reconnect failed", "error", err)
	}
}

func (s *Session) readPump(l *link) error {
	l.ws.SetPingHandler(func(data string) error {
		l.ws.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		return l.ws.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(s.cfg.WriteTimeout))
	})
	for {
		l.ws.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		f, err := readFrame(l.ws)
		if err != nil {
			return err
		}
		if debug.Sync() {
			debug.Logf("session %s <- %s\n", s.doc.Peer(), f.Kind)
		}
		switch f.Kind {
		case api.FrameUpdate:
			if err := s.doc.Apply(*f.Update); err != nil {
				s.log.Warn("remote update has bad ops", "error", err)
			}
		case api.FramePresence:
			s.aware.Put(f.Client, *f.Presence)
		case api.FrameGone:
			s.aware.Remove(f.Client)
		case api.FrameError:
			s.log.Warn("relay error", "error", f.Error)
		}
	}
}

func (s *Session) writePump(l *link) {
	for {
		select {
		case <-l.stop:
			return
		case d := <-l.out:
			l.ws.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := l.ws.WriteMessage(websocket.BinaryMessage, d); err != nil {
				l.close()
				return
			}
		}
	}
}

// enqueue hands d to the current connection. With no connection, or a
// full queue, the frame is dropped; the next handshake resends the ops.
func (s *Session) enqueue(d []byte) {
	s.mu.Lock()
	l := s.link
	s.mu.Unlock()
	if l == nil {
		return
	}
	select {
	case <-l.stop:
	case l.out <- d:
	default:
		s.log.Warn("send queue full, resyncing")
		l.close()
	}
}

func (s *Session) sendUpdate(u crdt.Update) {
	d, err := api.Encode(&api.Frame{Kind: api.FrameUpdate, Update: &u})
	if err != nil {
		s.log.Error("encode update", "error", err)
		return
	}
	s.enqueue(d)
}

func (s *Session) sendPresence(st presence.State) {
	d, err := api.Encode(&api.Frame{Kind: api.FramePresence, Presence: &st})
	if err != nil {
		s.log.Error("encode presence", "error", err)
		return
	}
	s.enqueue(d)
}
