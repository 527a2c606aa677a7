package crdt

import (
	"fmt"

	"github.com/signadot/sharedoc/codec"
	"github.com/signadot/sharedoc/ir"
)

type OpKind uint8

const (
	OpMapSet OpKind = iota + 1
	OpMapDelete
	OpSeqInsert
	OpSeqDelete
)

func (k OpKind) String() string {
	switch k {
	case OpMapSet:
		return "map-set"
	case OpMapDelete:
		return "map-delete"
	case OpSeqInsert:
		return "seq-insert"
	case OpSeqDelete:
		return "seq-delete"
	}
	return fmt.Sprintf("op(%d)", uint8(k))
}

func (k OpKind) onMap() bool {
	return k == OpMapSet || k == OpMapDelete
}

// Op is one integrated write.
//
// For OpSeqInsert, Ref is the origin element (nil for the head). For
// OpSeqDelete, Ref is the deleted element. An op storing a nested container
// sets New; the container's CID is then the op's ID.
type Op struct {
	ID      ID       `cbor:"id"`
	Lamport uint64   `cbor:"l"`
	Kind    OpKind   `cbor:"k"`
	Target  CID      `cbor:"c"`
	Key     string   `cbor:"key,omitempty"`
	Ref     *ID      `cbor:"ref,omitempty"`
	Value   *ir.Node `cbor:"v,omitempty"`
	New     Kind     `cbor:"n,omitempty"`
}

func (o *Op) stamp() Stamp {
	return Stamp{Lamport: o.Lamport, Peer: o.ID.Peer}
}

func (o *Op) String() string {
	switch o.Kind {
	case OpMapSet, OpMapDelete:
		return fmt.Sprintf("%s %s %s[%q]", o.ID, o.Kind, o.Target, o.Key)
	default:
		return fmt.Sprintf("%s %s %s ref=%v", o.ID, o.Kind, o.Target, o.Ref)
	}
}

// Update is a batch of ops in integration order.
type Update struct {
	Ops []Op `cbor:"ops"`
}

func (u Update) Empty() bool {
	return len(u.Ops) == 0
}

func EncodeUpdate(u Update) ([]byte, error) {
	d, err := codec.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("encode update: %w", err)
	}
	return d, nil
}

func DecodeUpdate(d []byte) (Update, error) {
	var u Update
	if err := codec.Unmarshal(d, &u); err != nil {
		return Update{}, fmt.Errorf("decode update: %w", err)
	}
	return u, nil
}
