package session

import (
	"context"
	"sync"

	"github.com/glyphlabs/glyph/internal/config"
	"github.com/glyphlabs/glyph/internal/metrics"
	"github.com/glyphlabs/glyph/internal/provider"
	glypherr "github.com/glyphlabs/glyph/pkg/errors"
)

// subscriberBuffer is the per-subscriber notification buffer. A slow
// subscriber drops notifications rather than blocking state transitions.
const subscriberBuffer = 16

// Manager is the single authoritative owner of session state and identity.
// It mediates all calls to the active signing provider and reconciles
// provider-emitted events into the state machine.
type Manager struct {
	mu       sync.Mutex
	registry *provider.Registry
	logger   *config.Logger

	state    State
	prov     provider.SigningProvider
	identity *provider.Identity

	subscribers map[int]chan Change
	nextSubID   int

	// watchStop terminates the event watcher for the current provider.
	watchStop chan struct{}
}

// NewManager creates a session manager over the given provider registry.
// A nil logger falls back to a null logger.
func NewManager(registry *provider.Registry, logger *config.Logger) *Manager {
	if logger == nil {
		logger = config.NullLogger()
	}
	return &Manager{
		registry:    registry,
		logger:      logger,
		state:       StateNoProvider,
		subscribers: make(map[int]chan Change),
	}
}

// ListProviders returns descriptors for all registered providers.
// Static; no side effects.
func (m *Manager) ListProviders() []provider.Descriptor {
	return m.registry.List()
}

// Select sets the candidate provider and resets the session to Selected.
// Valid from any state; a previously connected identity is cleared.
func (m *Manager) Select(name string) error {
	p, err := m.registry.Get(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopWatcherLocked()
	m.prov = p
	m.identity = nil
	m.setStateLocked(StateSelected)
	m.startWatcherLocked(p)

	m.logger.Debug("session: selected provider %q", name)
	return nil
}

// Connect connects to the selected provider and populates the identity.
// Calling Connect while already Connected is a no-op returning the current
// identity. Valid only from Selected otherwise.
func (m *Manager) Connect(ctx context.Context) (provider.Identity, error) {
	m.mu.Lock()

	switch m.state {
	case StateConnected:
		// Idempotent: no second provider round-trip.
		id := *m.identity
		m.mu.Unlock()
		return id, nil
	case StateNoProvider:
		m.mu.Unlock()
		return provider.Identity{}, glypherr.ErrNoProviderSelected
	case StateSelected:
		// proceed
	default:
		m.mu.Unlock()
		return provider.Identity{}, glypherr.WithDetails(glypherr.ErrConnectionFailed, map[string]string{
			"state": m.state.String(),
		})
	}

	p := m.prov
	m.setStateLocked(StateConnecting)
	m.mu.Unlock()

	// Suspension point: the provider call runs unlocked so events can be
	// reconciled while we wait.
	id, err := p.Connect(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.prov != p {
		// Provider was re-selected while connecting; the connect result is stale.
		return provider.Identity{}, glypherr.Wrap(glypherr.ErrConnectionFailed, "provider changed during connect")
	}

	if m.state != StateConnecting {
		// A provider event terminated the transition while we were waiting.
		// Honor whatever the event reconciled to.
		if m.state == StateConnected && m.identity != nil {
			return *m.identity, nil
		}
		return provider.Identity{}, glypherr.Wrap(glypherr.ErrConnectionFailed, "connection interrupted by provider event")
	}

	if err != nil {
		// Transient error state: log, then settle back to Selected.
		m.logger.Error("session: connect via %q failed: %v", p.Name(), err)
		m.setStateLocked(StateSelected)
		if glypherr.Is(err, glypherr.ErrSigningRejected) {
			return provider.Identity{}, err
		}
		return provider.Identity{}, glypherr.Wrap(glypherr.ErrConnectionFailed, "connecting via %q", p.Name())
	}

	if id.ProviderName == "" {
		id.ProviderName = p.Name()
	}
	m.identity = &id
	m.setStateLocked(StateConnected)
	m.logger.Debug("session: connected via %q as %s", p.Name(), id.PublicAddress)
	return id, nil
}

// Disconnect tears down the active connection and clears the identity,
// returning the session to NoProvider. Idempotent if already disconnected.
func (m *Manager) Disconnect(ctx context.Context) error {
	m.mu.Lock()

	if m.state != StateConnected {
		// Already disconnected (or never connected): no-op.
		m.mu.Unlock()
		return nil
	}

	p := m.prov
	m.setStateLocked(StateDisconnecting)
	m.mu.Unlock()

	err := p.Disconnect(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.logger.Error("session: disconnect from %q failed: %v", p.Name(), err)
	}

	// Local state is cleared regardless of the provider's answer; a provider
	// that errored on disconnect is not a provider we stay connected to.
	if m.prov == p && m.state == StateDisconnecting {
		m.clearProviderLocked()
	}
	return nil
}

// SignTransaction delegates transaction signing to the connected provider.
func (m *Manager) SignTransaction(ctx context.Context, payload []byte) ([]byte, error) {
	p, err := m.connectedProvider()
	if err != nil {
		return nil, err
	}

	signed, err := p.SignTransaction(ctx, payload)
	metrics.Global.RecordSignRequest(glypherr.Is(err, glypherr.ErrSigningRejected))
	if err != nil {
		m.logger.Error("session: sign transaction via %q failed: %v", p.Name(), err)
		return nil, err
	}
	return signed, nil
}

// SignAllTransactions delegates batch signing to the connected provider.
func (m *Manager) SignAllTransactions(ctx context.Context, payloads [][]byte) ([][]byte, error) {
	p, err := m.connectedProvider()
	if err != nil {
		return nil, err
	}

	signed, err := p.SignAllTransactions(ctx, payloads)
	metrics.Global.RecordSignRequest(glypherr.Is(err, glypherr.ErrSigningRejected))
	if err != nil {
		m.logger.Error("session: sign batch via %q failed: %v", p.Name(), err)
		return nil, err
	}
	return signed, nil
}

// SignMessage delegates message signing to the connected provider.
func (m *Manager) SignMessage(ctx context.Context, msg []byte) ([]byte, error) {
	p, err := m.connectedProvider()
	if err != nil {
		return nil, err
	}

	signed, err := p.SignMessage(ctx, msg)
	metrics.Global.RecordSignRequest(glypherr.Is(err, glypherr.ErrSigningRejected))
	if err != nil {
		m.logger.Error("session: sign message via %q failed: %v", p.Name(), err)
		return nil, err
	}
	return signed, nil
}

// CurrentState returns the current session state.
func (m *Manager) CurrentState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CurrentIdentity returns a copy of the active identity, or nil when not
// connected.
func (m *Manager) CurrentIdentity() *provider.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identity == nil {
		return nil
	}
	id := *m.identity
	return &id
}

// Connected reports whether the session holds an active identity.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateConnected && m.identity != nil
}

// PublicAddress returns the connected public address, or "" when disconnected.
func (m *Manager) PublicAddress() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identity == nil {
		return ""
	}
	return m.identity.PublicAddress
}

// Subscribe returns a read-only state-change channel and a cancel function.
// Notifications are best-effort: a subscriber that falls behind misses
// intermediate changes rather than blocking the session.
func (m *Manager) Subscribe() (<-chan Change, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan Change, subscriberBuffer)
	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = ch

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if sub, ok := m.subscribers[id]; ok {
			delete(m.subscribers, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Close stops event watching and closes all subscriber channels.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopWatcherLocked()
	for id, ch := range m.subscribers {
		delete(m.subscribers, id)
		close(ch)
	}
}

// connectedProvider returns the active provider, or ErrNotConnected.
func (m *Manager) connectedProvider() (provider.SigningProvider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateConnected || m.prov == nil {
		return nil, glypherr.WithDetails(glypherr.ErrNotConnected, map[string]string{
			"state": m.state.String(),
		})
	}
	return m.prov, nil
}

// setStateLocked transitions the state and notifies subscribers.
// Caller must hold the lock.
func (m *Manager) setStateLocked(s State) {
	if m.state == s {
		return
	}
	m.state = s
	metrics.Global.RecordSessionTransition()

	change := Change{State: s}
	if m.identity != nil {
		id := *m.identity
		change.Identity = &id
	}
	for _, ch := range m.subscribers {
		select {
		case ch <- change:
		default:
			// Subscriber is behind; drop instead of blocking the session.
		}
	}
}

// clearProviderLocked resets the session to NoProvider.
// Caller must hold the lock.
func (m *Manager) clearProviderLocked() {
	m.stopWatcherLocked()
	m.prov = nil
	m.identity = nil
	m.setStateLocked(StateNoProvider)
}

// startWatcherLocked starts the event reconciliation loop for p.
// Caller must hold the lock.
func (m *Manager) startWatcherLocked(p provider.SigningProvider) {
	events := p.Events()
	if events == nil {
		return
	}

	stop := make(chan struct{})
	m.watchStop = stop

	go func() {
		for {
			select {
			case <-stop:
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				m.handleEvent(p, ev)
			}
		}
	}()
}

// stopWatcherLocked terminates the current event watcher, if any.
// Caller must hold the lock.
func (m *Manager) stopWatcherLocked() {
	if m.watchStop != nil {
		close(m.watchStop)
		m.watchStop = nil
	}
}

// handleEvent reconciles a provider-emitted event into the state machine.
// Events win over in-flight transitions: an event observed during Connecting
// or Disconnecting terminates that transition so the machine can never remain
// stuck in a transitional state.
func (m *Manager) handleEvent(p provider.SigningProvider, ev provider.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.prov != p {
		// Event from a previously selected provider; ignore.
		return
	}

	metrics.Global.RecordProviderEvent()

	switch ev.Kind {
	case provider.EventConnect:
		if ev.Identity == nil {
			m.logger.Error("session: connect event from %q without identity", p.Name())
			return
		}
		id := *ev.Identity
		if id.ProviderName == "" {
			id.ProviderName = p.Name()
		}
		m.identity = &id
		m.setStateLocked(StateConnected)
		m.logger.Debug("session: provider %q reported connect as %s", p.Name(), id.PublicAddress)

	case provider.EventDisconnect:
		// User disconnected from the provider's own UI, or the provider
		// dropped the session.
		m.logger.Debug("session: provider %q reported disconnect", p.Name())
		m.clearProviderLocked()

	case provider.EventError:
		// Transient error pseudo-state: log, then settle on a resting state.
		// With a provider still selected that resting state is Selected.
		m.logger.Error("session: provider %q reported error: %v", p.Name(), ev.Err)
		m.identity = nil
		m.setStateLocked(StateSelected)
	}
}
