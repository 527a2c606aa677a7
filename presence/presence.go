// Package presence tracks the ephemeral identity of connected peers.
package presence

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
)

var ErrBadColor = errors.New("bad color")

// State is what a peer publishes about itself.
type State struct {
	Name  string `cbor:"name" json:"name"`
	Color string `cbor:"color" json:"color"`
}

// Peer is the state of one connection.
type Peer struct {
	ID    string `cbor:"id" json:"id"`
	State State  `cbor:"state" json:"state"`
}

// List is the set of peers as last reported by the awareness channel.
// Stale is set while the channel cannot see remote changes.
type List struct {
	Peers []Peer
	Stale bool
}

// Awareness is an ephemeral per-connection state channel.
type Awareness interface {
	// ClientID identifies the local connection.
	ClientID() string
	SetLocalState(State)
	// States lists every known peer in the channel's own order.
	States() []Peer
	OnChange(fn func()) (cancel func())
}

// ValidColor reports whether c is a #rgb or #rrggbb hex color.
func ValidColor(c string) error {
	if (len(c) != 4 && len(c) != 7) || c[0] != '#' {
		return fmt.Errorf("%w: %q", ErrBadColor, c)
	}
	if _, err := strconv.ParseUint(c[1:], 16, 32); err != nil {
		return fmt.Errorf("%w: %q", ErrBadColor, c)
	}
	return nil
}

// RandomColor returns a #rrggbb color.
func RandomColor() string {
	return fmt.Sprintf("#%06x", rand.IntN(1<<24))
}
