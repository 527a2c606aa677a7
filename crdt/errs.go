package crdt

import "errors"

var (
	ErrDestroyed       = errors.New("document destroyed")
	ErrAttached        = errors.New("container already attached")
	ErrCycle           = errors.New("container would contain itself")
	ErrKindMismatch    = errors.New("container kind mismatch")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrBadOp           = errors.New("malformed op")
)
