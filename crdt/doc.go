// Package crdt is an in-process replicated document engine.
//
// A Doc belongs to one peer. It holds named root containers (GetMap,
// GetSequence) and any containers nested below them. Containers created with
// NewMap or NewSequence start detached: they buffer their contents locally
// and attach, with all their contents, when stored into an attached
// container.
//
// # Merge rules
//
// Every write is an Op identified by (peer, seq) and ordered by a Lamport
// stamp. Map keys are last-writer-wins by stamp, deletes leave tombstones.
// Sequences are RGA: an element is inserted after its origin element,
// skipping elements with greater stamps, and removed by marking its
// element id deleted. Two docs that have integrated the same set of ops hold
// the same state.
//
// # Exchange
//
// OnUpdate delivers locally produced ops. StateVector and Updates let a
// peer compute what another is missing, and Apply integrates remote ops.
// Apply is idempotent and buffers ops whose dependencies have not arrived.
//
// # Notifications
//
// Observe registers a shallow observer on a container. Events are coalesced
// per container for each write call or Transact batch, and are delivered
// after the document lock has been released, so observers may read the
// document, and write to it, from inside the callback.
//
// Doc is safe for concurrent use.
package crdt
