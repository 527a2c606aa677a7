package ir

import (
	"errors"
)

var (
	ErrParse = errors.New("parse error")

	// ErrUnsupportedType is returned for values outside the Value sum type.
	ErrUnsupportedType = errors.New("unsupported type")
)
