package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/signadot/sharedoc/codec"
	"github.com/signadot/sharedoc/crdt"
	"github.com/signadot/sharedoc/presence"
)

type FrameKind string

const (
	FrameHello    FrameKind = "hello"
	FrameWelcome  FrameKind = "welcome"
	FrameUpdate   FrameKind = "update"
	FramePresence FrameKind = "presence"
	FrameGone     FrameKind = "gone"
	FrameError    FrameKind = "error"
)

type Frame struct {
	Kind FrameKind `cbor:"k"`

	// Client is the connection a presence or gone frame is about, or, in
	// a welcome, the receiving connection.
	Client string `cbor:"c,omitempty"`

	StateVector crdt.StateVector `cbor:"sv,omitempty"`
	Update      *crdt.Update     `cbor:"u,omitempty"`
	Presence    *presence.State  `cbor:"p,omitempty"`
	Peers       []presence.Peer  `cbor:"ps,omitempty"`
	Error       *Error           `cbor:"e,omitempty"`
}

func (f *Frame) Validate() error {
	switch f.Kind {
	case FrameHello, FrameGone, FrameError:
	case FrameWelcome:
		if f.Client == "" {
			return NewError(ErrCodeBadFrame, "welcome without client id")
		}
	case FrameUpdate:
		if f.Update == nil {
			return NewError(ErrCodeBadFrame, "update frame without update")
		}
	case FramePresence:
		if f.Presence == nil {
			return NewError(ErrCodeBadFrame, "presence frame without state")
		}
	default:
		return NewError(ErrCodeBadFrame, fmt.Sprintf("unknown frame kind %q", f.Kind))
	}
	return nil
}

func Encode(f *Frame) ([]byte, error) {
	d, err := codec.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", f.Kind, err)
	}
	return d, nil
}

func Decode(d []byte) (*Frame, error) {
	f := &Frame{}
	if err := codec.Unmarshal(d, f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFrame, err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// RoomPath is the websocket path of a room.
func RoomPath(room string) string {
	return "/rooms/" + room
}

// SetAccessKey adds key to h as a bearer token.
func SetAccessKey(h http.Header, key string) {
	if key != "" {
		h.Set("Authorization", "Bearer "+key)
	}
}

// AccessKey returns the bearer token of r, falling back to the
// access_key query parameter for clients that cannot set headers.
func AccessKey(r *http.Request) string {
	if a, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return a
	}
	return r.URL.Query().Get("access_key")
}
