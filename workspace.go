package sharedoc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/signadot/sharedoc/crdt"
	"github.com/signadot/sharedoc/gateway"
	"github.com/signadot/sharedoc/ir"
	"github.com/signadot/sharedoc/mirror"
	"github.com/signadot/sharedoc/presence"
	"github.com/signadot/sharedoc/system/session"
	"github.com/signadot/sharedoc/tree"
)

// Names of the document's root containers and of the initialized slot.
const (
	RootName  = "root"
	NodesName = "nodes"
	DocKey    = "doc"
)

type Option func(*options)

type options struct {
	log  *slog.Logger
	doc  *crdt.Doc
	gwID func() string
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithDoc opens the workspace over an existing document.
func WithDoc(d *crdt.Doc) Option {
	return func(o *options) { o.doc = d }
}

// WithIDGenerator sets how the gateway names new tree nodes.
func WithIDGenerator(f func() string) Option {
	return func(o *options) { o.gwID = f }
}

type Workspace struct {
	cfg Config
	log *slog.Logger

	doc     *crdt.Doc
	sess    *session.Session
	aware   presence.Awareness
	tracker *presence.Tracker
	gw      *gateway.Gateway

	root        *crdt.Map
	nodes       *crdt.Sequence
	rootMirror  *mirror.Mirror
	nodesMirror *mirror.Mirror

	closeOnce sync.Once
}

// Open builds a workspace for cfg. With an address it connects to the
// relay first, so that root.doc is only initialized when the room has
// none. Callers must Close the workspace.
func Open(ctx context.Context, cfg *Config, opts ...Option) (_ *Workspace, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = slog.New(slog.DiscardHandler)
	}
	initial, err := loadInitial(cfg.InitialDoc)
	if err != nil {
		return nil, err
	}
	w := &Workspace{
		cfg: *cfg,
		log: o.log.With("room", cfg.Room),
		doc: o.doc,
	}
	defer func() {
		if err != nil {
			w.Close()
		}
	}()
	if w.doc == nil {
		w.doc = crdt.NewDoc("")
	}
	if cfg.Address != "" {
		w.sess, err = session.Connect(ctx, cfg.sessionConfig(), w.doc, w.log)
		if err != nil {
			return nil, err
		}
		w.aware = w.sess.Awareness()
	} else {
		w.aware = presence.NewChannel(w.doc.Peer())
	}
	if w.root, err = w.doc.GetMap(RootName); err != nil {
		return nil, err
	}
	if w.nodes, err = w.doc.GetSequence(NodesName); err != nil {
		return nil, err
	}
	gwOpts := []gateway.Option{gateway.WithLogger(w.log)}
	if o.gwID != nil {
		gwOpts = append(gwOpts, gateway.WithIDGenerator(o.gwID))
	}
	w.gw = gateway.New(gwOpts...)
	switch err := w.gw.AddField(w.root, DocKey, initial); {
	case err == nil:
		w.log.Info("initialized document")
	case errors.Is(err, gateway.ErrDuplicateKey):
		w.log.Debug("document already initialized")
	default:
		return nil, fmt.Errorf("initialize %s.%s: %w", RootName, DocKey, err)
	}
	w.rootMirror = mirror.AttachDeep(w.doc, w.root)
	w.nodesMirror = mirror.AttachDeep(w.doc, w.nodes)
	w.tracker = presence.Track(w.aware, presence.State{Name: cfg.Name, Color: cfg.Color}, w.log)
	return w, nil
}

func loadInitial(path string) (*ir.Node, error) {
	if path == "" {
		return ir.FromKeyVals(nil), nil
	}
	d, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("initial document: %w", err)
	}
	v, err := ir.FromJSON(d)
	if err != nil {
		return nil, fmt.Errorf("initial document %s: %w", path, err)
	}
	return v, nil
}

func (w *Workspace) Config() Config {
	return w.cfg
}

func (w *Workspace) Doc() *crdt.Doc {
	return w.doc
}

// Session is nil for an offline workspace.
func (w *Workspace) Session() *session.Session {
	return w.sess
}

func (w *Workspace) Gateway() *gateway.Gateway {
	return w.gw
}

func (w *Workspace) Root() *crdt.Map {
	return w.root
}

func (w *Workspace) Nodes() *crdt.Sequence {
	return w.nodes
}

func (w *Workspace) RootMirror() *mirror.Mirror {
	return w.rootMirror
}

func (w *Workspace) NodesMirror() *mirror.Mirror {
	return w.nodesMirror
}

// Value is the current plain value of root.doc, or nil before it exists.
func (w *Workspace) Value() *ir.Node {
	return ir.Get(w.rootMirror.Value(), DocKey)
}

// Tree decodes the node list snapshot. Elements that are not nodes are
// skipped.
func (w *Workspace) Tree() []tree.Node {
	nodes, skipped := tree.Decode(w.nodesMirror.Value())
	if skipped > 0 {
		w.log.Debug("skipped malformed nodes", "count", skipped)
	}
	return nodes
}

// Peers is the latest presence list.
func (w *Workspace) Peers() presence.List {
	return w.tracker.Peers()
}

func (w *Workspace) Awareness() presence.Awareness {
	return w.aware
}

// OnPeers registers fn for presence changes.
func (w *Workspace) OnPeers(fn func(presence.List)) (cancel func()) {
	return w.tracker.Subscribe(fn)
}

// Resolve resolves a path below the root map.
func (w *Workspace) Resolve(path string) (crdt.Content, error) {
	return Resolve(w.root, path)
}

// InsertNode adds a node under parentID at the end of its siblings.
func (w *Workspace) InsertNode(parentID *string) (tree.Node, error) {
	return w.gw.InsertNode(w.nodes, parentID)
}

// DeleteNode removes the node with the given id, reporting whether one was
// found.
func (w *Workspace) DeleteNode(id string) bool {
	n, ok := tree.Find(w.Tree(), id)
	if !ok {
		return false
	}
	return w.gw.DeleteNode(w.nodes, n)
}

// Close detaches mirrors and presence and ends the session. It may be
// called any number of times.
func (w *Workspace) Close() error {
	var err error
	w.closeOnce.Do(func() {
		if w.tracker != nil {
			w.tracker.Detach()
		}
		if w.rootMirror != nil {
			w.rootMirror.Detach()
		}
		if w.nodesMirror != nil {
			w.nodesMirror.Detach()
		}
		if w.sess != nil {
			err = w.sess.Close()
		}
	})
	return err
}
