// Package gateway performs the structural writes on a shared document.
//
// Values are projected before they reach the document, so a value outside
// the value model is rejected without writing anything. Positions are
// always resolved at the moment of the write.
package gateway

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/signadot/sharedoc/crdt"
	"github.com/signadot/sharedoc/ir"
	"github.com/signadot/sharedoc/project"
)

var (
	ErrDuplicateKey = errors.New("duplicate key")
	ErrNoSuchKey    = errors.New("no such key")
)

type Gateway struct {
	log   *slog.Logger
	newID func() string
}

type Option func(*Gateway)

func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) { g.log = l }
}

// WithIDGenerator replaces NewID for InsertNode.
func WithIDGenerator(f func() string) Option {
	return func(g *Gateway) { g.newID = f }
}

func New(opts ...Option) *Gateway {
	g := &Gateway{
		log:   slog.New(slog.DiscardHandler),
		newID: NewID,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// NewID returns a fresh 26 character node id. Ids are unique with high
// probability only.
func NewID() string {
	return ulid.Make().String()
}

// AddField stores v under key, failing with ErrDuplicateKey when key is
// already present. The presence check and the write are one step.
func (g *Gateway) AddField(m *crdt.Map, key string, v *ir.Node) error {
	c, err := project.Project(v)
	if err != nil {
		return fmt.Errorf("add field %q: %w", key, err)
	}
	ok, err := m.SetIfAbsent(key, c)
	if err != nil {
		return fmt.Errorf("add field %q: %w", key, err)
	}
	if !ok {
		return fmt.Errorf("add field %q: %w", key, ErrDuplicateKey)
	}
	g.log.Debug("add field", "key", key, "type", v.Type)
	return nil
}

// SetField stores v under key, replacing any current value.
func (g *Gateway) SetField(m *crdt.Map, key string, v *ir.Node) error {
	c, err := project.Project(v)
	if err != nil {
		return fmt.Errorf("set field %q: %w", key, err)
	}
	if err := m.Set(key, c); err != nil {
		return fmt.Errorf("set field %q: %w", key, err)
	}
	g.log.Debug("set field", "key", key, "type", v.Type)
	return nil
}

// DeleteField removes key. It reports false, and writes nothing, when key
// is already gone.
func (g *Gateway) DeleteField(m *crdt.Map, key string) bool {
	ok := m.Delete(key)
	g.log.Debug("delete field", "key", key, "deleted", ok)
	return ok
}

// DeleteIndex removes the element at index. It reports false, and writes
// nothing, when index is past the end.
func (g *Gateway) DeleteIndex(s *crdt.Sequence, index int) bool {
	ok := s.Delete(index, 1) == 1
	g.log.Debug("delete index", "index", index, "deleted", ok)
	return ok
}

// Append projects v and pushes it onto s.
func (g *Gateway) Append(s *crdt.Sequence, v *ir.Node) error {
	c, err := project.Project(v)
	if err != nil {
		return fmt.Errorf("append: %w", err)
	}
	if err := s.Push(c); err != nil {
		return fmt.Errorf("append: %w", err)
	}
	return nil
}

// PatchField applies an RFC 6902 JSON patch to the value under key and
// stores the result in its place.
func (g *Gateway) PatchField(m *crdt.Map, key string, patch []byte) error {
	c, ok := m.Get(key)
	if !ok {
		return fmt.Errorf("patch field %q: %w", key, ErrNoSuchKey)
	}
	out, err := applyPatch(crdt.ToValue(c), patch)
	if err != nil {
		return fmt.Errorf("patch field %q: %w", key, err)
	}
	return g.SetField(m, key, out)
}
