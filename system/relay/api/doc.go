// Package api defines the frames exchanged between the relay and its
// clients over a websocket.
//
// Every websocket message is one binary CBOR-encoded Frame. A connection
// starts with the client sending FrameHello carrying its state vector. The
// relay answers FrameWelcome with the ops the client lacks, the relay's
// state vector and the current peers. The client then sends FrameUpdate
// with the ops the relay lacks. After that either side sends FrameUpdate
// for new ops and FramePresence for presence, and the relay sends
// FrameGone when a peer disconnects.
package api
