// Package session owns the wallet session lifecycle: which signing provider
// is selected, whether it is connected, and what the public identity is.
// All state mutation is serialized through a single manager because provider
// events can arrive while a caller-initiated transition is in flight.
package session

import (
	"github.com/glyphlabs/glyph/internal/provider"
)

// State is the authoritative session state.
type State int

// Session states. NoProvider is both the initial and a valid resting state;
// there are no terminal states. Connecting and Disconnecting are transitional
// and are always resolved, either by the call that entered them or by a
// provider event.
const (
	StateNoProvider State = iota
	StateSelected
	StateConnecting
	StateConnected
	StateDisconnecting
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateNoProvider:
		return "no_provider"
	case StateSelected:
		return "selected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnecting:
		return "disconnecting"
	default:
		return "unknown"
	}
}

// Resting returns true for states a session can rest in between operations.
func (s State) Resting() bool {
	return s == StateNoProvider || s == StateSelected || s == StateConnected
}

// Change is a state-change notification delivered to subscribers.
// Identity is non-nil only while the session is connected.
type Change struct {
	State    State
	Identity *provider.Identity
}
