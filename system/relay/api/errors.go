package api

import (
	"fmt"
)

// Error is a relay error sent in a FrameError.
type Error struct {
	Code    string `cbor:"code" json:"code"`
	Message string `cbor:"message" json:"message"`
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Is matches by code when target has one, and by message otherwise.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code != "" {
		return e.Code == t.Code
	}
	if t.Message != "" {
		return e.Message == t.Message
	}
	return false
}

const (
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeBadFrame     = "bad_frame"
	ErrCodeBadUpdate    = "bad_update"
	ErrCodeNotFound     = "not_found"
	ErrCodeInternal     = "internal"
)

var (
	ErrUnauthorized = &Error{Code: ErrCodeUnauthorized}
	ErrBadFrame     = &Error{Code: ErrCodeBadFrame}
	ErrBadUpdate    = &Error{Code: ErrCodeBadUpdate}
	ErrNotFound     = &Error{Code: ErrCodeNotFound}
	ErrInternal     = &Error{Code: ErrCodeInternal}
)

func NewError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}
