// Package sharedoc opens a shared document workspace: a replicated
// document, its relay session, mirrors of the document root and node list,
// the presence list and a mutation gateway.
//
// A workspace is initialized idempotently. The root slot "doc" is written
// from the configured initial document only when no peer has written it
// yet, so joining an existing room never clobbers shared state.
package sharedoc
