package keyfile

import (
	"context"
	"fmt"
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/glyphlabs/glyph/internal/config"
	"github.com/glyphlabs/glyph/internal/provider"
	glypherr "github.com/glyphlabs/glyph/pkg/errors"
)

// ProviderName is the registry identifier for the keyfile provider.
const ProviderName = "keyfile"

// messagePrefix domain-separates message signatures from transaction
// signatures so a signed message can never replay as a transaction.
const messagePrefix = "\x19Glyph Signed Message:\n%d"

// eventBuffer bounds the provider event channel.
const eventBuffer = 8

// PassphraseFunc supplies the keyfile passphrase on demand. Returning
// errors.ErrSigningRejected means the user declined the prompt.
type PassphraseFunc func() (string, error)

// Provider is a SigningProvider backed by a local age-encrypted keyfile.
// Unlike browser-extension providers there is no external UI, so the only
// user interaction is the passphrase prompt.
type Provider struct {
	path   string
	prompt PassphraseFunc
	logger *config.Logger

	mu     sync.Mutex
	key    *signingKey
	events chan provider.Event
	closed bool
}

// Compile-time interface check
var _ provider.SigningProvider = (*Provider)(nil)

// Options configures optional Provider behavior.
type Options struct {
	Logger *config.Logger
}

// New creates a keyfile provider for the given keyfile path.
func New(path string, prompt PassphraseFunc, opts *Options) *Provider {
	p := &Provider{
		path:   path,
		prompt: prompt,
		logger: config.NullLogger(),
		events: make(chan provider.Event, eventBuffer),
	}
	if opts != nil && opts.Logger != nil {
		p.logger = opts.Logger
	}
	return p
}

// Name returns the stable provider identifier.
func (p *Provider) Name() string { return ProviderName }

// Describe returns the provider descriptor for listing.
func (p *Provider) Describe() provider.Descriptor {
	return provider.Descriptor{
		Name:        ProviderName,
		Description: "local age-encrypted keyfile",
	}
}

// Connect prompts for the passphrase and unlocks the keyfile. Idempotent
// while unlocked. A declined prompt surfaces as ErrSigningRejected so the
// session layer can tell "you said no" from "something went wrong".
func (p *Provider) Connect(ctx context.Context) (provider.Identity, error) {
	if err := ctx.Err(); err != nil {
		return provider.Identity{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.key != nil {
		return p.identityLocked(), nil
	}

	passphrase, err := p.prompt()
	if err != nil {
		p.emitLocked(provider.Event{Kind: provider.EventError, Err: err})
		return provider.Identity{}, err
	}

	key, err := unlock(p.path, passphrase)
	if err != nil {
		p.logger.Error("keyfile: unlock failed: %v", err)
		p.emitLocked(provider.Event{Kind: provider.EventError, Err: err})
		return provider.Identity{}, err
	}

	p.key = key
	p.logger.Debug("keyfile: unlocked %s", key.address)

	identity := p.identityLocked()
	p.emitLocked(provider.Event{Kind: provider.EventConnect, Identity: &identity})
	return identity, nil
}

// Disconnect destroys the unlocked key. Idempotent.
func (p *Provider) Disconnect(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.key == nil {
		return nil
	}

	p.key.destroy()
	p.key = nil
	p.logger.Debug("keyfile: locked")

	p.emitLocked(provider.Event{Kind: provider.EventDisconnect})
	return nil
}

// SignTransaction signs a transaction payload with the unlocked key.
func (p *Provider) SignTransaction(ctx context.Context, payload []byte) ([]byte, error) {
	return p.sign(ctx, ethcrypto.Keccak256(payload))
}

// SignAllTransactions signs a batch of payloads in order; the first failure
// fails the whole batch.
func (p *Provider) SignAllTransactions(ctx context.Context, payloads [][]byte) ([][]byte, error) {
	signed := make([][]byte, 0, len(payloads))
	for _, payload := range payloads {
		sig, err := p.SignTransaction(ctx, payload)
		if err != nil {
			return nil, err
		}
		signed = append(signed, sig)
	}
	return signed, nil
}

// SignMessage signs an arbitrary message with a domain-separation prefix.
func (p *Provider) SignMessage(ctx context.Context, msg []byte) ([]byte, error) {
	prefixed := append([]byte(fmt.Sprintf(messagePrefix, len(msg))), msg...)
	return p.sign(ctx, ethcrypto.Keccak256(prefixed))
}

// Events returns the provider's lifecycle event stream.
func (p *Provider) Events() <-chan provider.Event {
	return p.events
}

// Close shuts down the event stream. The provider is unusable afterwards.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	if p.key != nil {
		p.key.destroy()
		p.key = nil
	}
	p.closed = true
	close(p.events)
	return nil
}

func (p *Provider) sign(ctx context.Context, digest []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.key == nil {
		return nil, glypherr.Wrap(glypherr.ErrNotConnected, "keyfile is locked")
	}

	sig, err := ethcrypto.Sign(digest, p.key.priv)
	if err != nil {
		return nil, fmt.Errorf("signing digest: %w", err)
	}
	return sig, nil
}

func (p *Provider) identityLocked() provider.Identity {
	return provider.Identity{
		ProviderName:  ProviderName,
		PublicAddress: p.key.address,
	}
}

// emitLocked sends without blocking; a full channel drops the event rather
// than stalling the caller.
func (p *Provider) emitLocked(ev provider.Event) {
	if p.closed {
		return
	}
	select {
	case p.events <- ev:
	default:
	}
}
