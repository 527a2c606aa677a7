package crdt

import (
	"cmp"
	"fmt"
	"strings"
)

// ID identifies an op, and the element or container the op created.
// Seq numbers of one peer are contiguous starting at 1.
type ID struct {
	Peer string `cbor:"p"`
	Seq  uint64 `cbor:"s"`
}

func (id ID) IsZero() bool {
	return id.Seq == 0
}

func (id ID) String() string {
	return fmt.Sprintf("%d@%s", id.Seq, id.Peer)
}

// Stamp totally orders ops for conflict resolution.
type Stamp struct {
	Lamport uint64
	Peer    string
}

func (s Stamp) Compare(o Stamp) int {
	if c := cmp.Compare(s.Lamport, o.Lamport); c != 0 {
		return c
	}
	return strings.Compare(s.Peer, o.Peer)
}

// CID identifies a container: a named root, or the op that created it.
type CID struct {
	Root string `cbor:"r,omitempty"`
	ID   ID     `cbor:"i,omitempty"`
}

func rootCID(name string) CID {
	return CID{Root: name}
}

func (c CID) String() string {
	if c.Root != "" {
		return "@" + c.Root
	}
	return c.ID.String()
}

// StateVector records, per peer, the highest contiguous seq integrated.
type StateVector map[string]uint64
