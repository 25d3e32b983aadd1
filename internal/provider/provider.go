// Package provider defines the signing provider capability consumed by the
// wallet session manager. A provider is an externally-owned signing agent
// (browser extension, hardware bridge, local keyfile) that approves or rejects
// connection and signing requests and emits lifecycle events of its own accord.
package provider

import (
	"context"
)

// Identity is the public identity exposed by a connected provider.
// It carries no key material; private keys never leave the provider.
type Identity struct {
	ProviderName  string `json:"provider_name"`
	PublicAddress string `json:"public_address"`
}

// Descriptor describes a registered provider for listing.
type Descriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// EventKind identifies a provider-emitted lifecycle event.
type EventKind string

// Provider event kinds.
const (
	// EventConnect is emitted when the provider establishes a connection,
	// including connections initiated from the provider's own UI.
	EventConnect EventKind = "connect"

	// EventDisconnect is emitted when the provider drops the connection,
	// including user-initiated disconnects outside this process.
	EventDisconnect EventKind = "disconnect"

	// EventError is emitted on provider-side failures.
	EventError EventKind = "error"
)

// Event is a provider-emitted lifecycle notification. Events flow through a
// channel into the session manager's reconciliation loop rather than ad hoc
// callbacks, so state updates stay serialized.
type Event struct {
	Kind     EventKind
	Identity *Identity // populated for EventConnect
	Err      error     // populated for EventError
}

// SigningProvider is the polymorphic capability contract for external signing
// agents. Implementations must be safe for use from a single session manager;
// concurrent sign requests from the same origin may be rejected by the agent,
// which is why callers serialize them.
type SigningProvider interface {
	// Name returns the stable provider identifier used for selection.
	Name() string

	// Describe returns the provider descriptor for listing.
	Describe() Descriptor

	// Connect requests a connection and returns the public identity on approval.
	Connect(ctx context.Context) (Identity, error)

	// Disconnect tears down the connection. Idempotent.
	Disconnect(ctx context.Context) error

	// SignTransaction asks the provider to sign a transaction payload.
	// A user decline surfaces as errors.ErrSigningRejected, distinct from
	// transport-level failure so callers know not to retry.
	SignTransaction(ctx context.Context, payload []byte) ([]byte, error)

	// SignAllTransactions signs a batch of payloads in order. A decline of any
	// payload fails the whole batch.
	SignAllTransactions(ctx context.Context, payloads [][]byte) ([][]byte, error)

	// SignMessage asks the provider to sign an arbitrary message.
	SignMessage(ctx context.Context, msg []byte) ([]byte, error)

	// Events returns the provider's lifecycle event stream. The channel is
	// owned by the provider and closed when the provider is shut down.
	Events() <-chan Event
}
