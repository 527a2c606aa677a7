package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"sync/atomic"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/signadot/sharedoc/ir"
	"github.com/signadot/sharedoc/system/relay/api"
	"github.com/signadot/sharedoc/system/relay/store"
)

// Server represents the relay server.
type Server struct {
	Spec  Spec
	Rooms *Rooms

	router   *mux.Router
	upgrader websocket.Upgrader
	connSeq  atomic.Int64
	wg       sync.WaitGroup

	mu     sync.Mutex
	http   *http.Server
	conns  map[*conn]struct{}
	closed bool
}

// New creates a new Server instance.
func New(spec *Spec) *Server {
	if spec.Log == nil {
		spec.Log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slogLevel(),
		}))
	}
	if spec.Config == nil {
		spec.Config = DefaultConfig()
	}
	if spec.Store == nil {
		spec.Store = store.NewMemory()
	}
	s := &Server{
		Spec:  *spec,
		Rooms: NewRooms(spec.Store, spec.Log),
		conns: map[*conn]struct{}{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/rooms", s.auth(s.handleRooms)).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{room:[A-Za-z0-9._-]+}", s.auth(s.handleConnect)).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{room:[A-Za-z0-9._-]+}/doc", s.auth(s.handleDoc)).Methods(http.MethodGet)
	s.router = r
	return s
}

func slogLevel() slog.Level {
	if os.Getenv("DEBUG") != "" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve accepts connections on ln until ctx is done or Close is called.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	hs := &http.Server{
		Handler:     s.router,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	s.mu.Lock()
	if s.http != nil {
		s.mu.Unlock()
		return errors.New("relay already serving")
	}
	s.http = hs
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { s.Close() })
	defer stop()
	s.Spec.Log.Info("relay listening", "addr", ln.Addr().String())
	err := hs.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// ListenAndServe serves on the configured address.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Spec.Config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Spec.Config.Listen, err)
	}
	return s.Serve(ctx, ln)
}

// Close stops serving, disconnects every client and waits for their
// handlers to finish. New connections are refused afterwards.
func (s *Server) Close() error {
	s.mu.Lock()
	s.closed = true
	hs := s.http
	conns := make([]*conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()
	var err error
	if hs != nil {
		err = hs.Close()
	}
	for _, c := range conns {
		c.close()
	}
	s.wg.Wait()
	return err
}

func (s *Server) auth(h http.HandlerFunc) http.HandlerFunc {
	key := s.Spec.Config.AccessKey
	if key == "" {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if subtle.ConstantTimeCompare([]byte(api.AccessKey(r)), []byte(key)) != 1 {
			s.Spec.Log.Warn("rejected client", "remote", r.RemoteAddr, "path", r.URL.Path)
			writeError(w, http.StatusUnauthorized, api.NewError(api.ErrCodeUnauthorized, "bad or missing access key"))
			return
		}
		h(w, r)
	}
}

func writeError(w http.ResponseWriter, status int, e *api.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(e)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte("ok\n"))
}

func (s *Server) handleRooms(w http.ResponseWriter, _ *http.Request) {
	names, err := s.Rooms.Names()
	if err != nil {
		writeError(w, http.StatusInternalServerError, api.NewError(api.ErrCodeInternal, err.Error()))
		return
	}
	if names == nil {
		names = []string{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(names)
}

func (s *Server) handleDoc(w http.ResponseWriter, r *http.Request) {
	room, err := s.Rooms.Get(mux.Vars(r)["room"])
	if err != nil {
		writeError(w, http.StatusInternalServerError, api.NewError(api.ErrCodeInternal, err.Error()))
		return
	}
	d, err := ir.ToJSON(room.Doc().ToValue())
	if err != nil {
		writeError(w, http.StatusInternalServerError, api.NewError(api.ErrCodeInternal, err.Error()))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(d)
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	roomName := mux.Vars(r)["room"]
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		writeError(w, http.StatusServiceUnavailable, api.NewError(api.ErrCodeInternal, "relay is shutting down"))
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Spec.Log.Debug("upgrade", "error", err)
		return
	}
	id := fmt.Sprintf("ws-%d", s.connSeq.Add(1))
	c := newConn(id, ws, s.Spec.Config, s.Spec.Log.With("room", roomName))
	s.Spec.Log.Debug("new connection", "conn", id, "room", roomName, "remote", r.RemoteAddr)
	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.conns, c)
		s.mu.Unlock()
	}()

	var wg sync.WaitGroup
	wg.Go(c.writePump)
	err = c.readPump(s.Rooms, roomName)
	c.close()
	wg.Wait()
	if err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && !errors.Is(err, errClosed) {
		s.Spec.Log.Debug("connection ended", "conn", id, "error", err)
	}
}
