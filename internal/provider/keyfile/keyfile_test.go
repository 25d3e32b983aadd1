package keyfile

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glyphlabs/glyph/internal/provider"
	glypherr "github.com/glyphlabs/glyph/pkg/errors"
)

const testPassphrase = "correct horse battery staple"

func newKeystore(t *testing.T) (path, address string) {
	t.Helper()

	path = filepath.Join(t.TempDir(), "keyfile.age")
	mnemonic, address, err := Create(path, testPassphrase, Words12)
	require.NoError(t, err)
	require.Len(t, strings.Fields(mnemonic), 12)
	require.True(t, strings.HasPrefix(address, "0x"))
	return path, address
}

func staticPassphrase(pass string) PassphraseFunc {
	return func() (string, error) { return pass, nil }
}

func TestCreate(t *testing.T) {
	t.Parallel()

	path, address := newKeystore(t)

	// The stored address is readable without a passphrase.
	stored, err := Address(path)
	require.NoError(t, err)
	assert.Equal(t, address, stored)

	// A second create at the same path refuses to overwrite.
	_, _, err = Create(path, testPassphrase, Words12)
	assert.True(t, glypherr.Is(err, glypherr.ErrKeystoreExists))
}

func TestCreate_RejectsBadWordCount(t *testing.T) {
	t.Parallel()

	_, _, err := Create(filepath.Join(t.TempDir(), "k.age"), testPassphrase, 15)
	assert.True(t, glypherr.Is(err, glypherr.ErrInvalidInput))
}

func TestImport_RoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mnemonic, address, err := Create(filepath.Join(dir, "orig.age"), testPassphrase, Words24)
	require.NoError(t, err)

	// Importing the same mnemonic elsewhere derives the same address.
	imported, err := Import(filepath.Join(dir, "copy.age"), "other-pass", mnemonic)
	require.NoError(t, err)
	assert.Equal(t, address, imported)
}

func TestImport_RejectsInvalidMnemonic(t *testing.T) {
	t.Parallel()

	_, err := Import(filepath.Join(t.TempDir(), "k.age"), testPassphrase, "not a real mnemonic phrase at all")
	assert.True(t, glypherr.Is(err, glypherr.ErrInvalidInput))
}

func TestUnlock_WrongPassphrase(t *testing.T) {
	t.Parallel()

	path, _ := newKeystore(t)

	_, err := unlock(path, "wrong")
	require.Error(t, err)
	assert.True(t, glypherr.Is(err, glypherr.ErrDecryptionFailed))
}

func TestUnlock_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := unlock(filepath.Join(t.TempDir(), "nope.age"), testPassphrase)
	assert.True(t, glypherr.Is(err, glypherr.ErrKeystoreNotFound))
}

func TestProvider_ConnectDisconnect(t *testing.T) {
	t.Parallel()

	path, address := newKeystore(t)
	p := New(path, staticPassphrase(testPassphrase), nil)
	defer func() { _ = p.Close() }()

	identity, err := p.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, provider.Identity{ProviderName: ProviderName, PublicAddress: address}, identity)

	// Connect while unlocked returns the same identity without a prompt.
	again, err := p.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, identity, again)

	// The unlock was announced on the event stream.
	ev := <-p.Events()
	assert.Equal(t, provider.EventConnect, ev.Kind)
	require.NotNil(t, ev.Identity)
	assert.Equal(t, address, ev.Identity.PublicAddress)

	require.NoError(t, p.Disconnect(context.Background()))
	ev = <-p.Events()
	assert.Equal(t, provider.EventDisconnect, ev.Kind)

	// Disconnect is idempotent.
	require.NoError(t, p.Disconnect(context.Background()))
}

func TestProvider_DeclinedPrompt(t *testing.T) {
	t.Parallel()

	path, _ := newKeystore(t)
	p := New(path, func() (string, error) {
		return "", glypherr.ErrSigningRejected
	}, nil)
	defer func() { _ = p.Close() }()

	_, err := p.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, glypherr.Is(err, glypherr.ErrSigningRejected))

	ev := <-p.Events()
	assert.Equal(t, provider.EventError, ev.Kind)
}

func TestProvider_WrongPassphraseConnect(t *testing.T) {
	t.Parallel()

	path, _ := newKeystore(t)
	p := New(path, staticPassphrase("wrong"), nil)
	defer func() { _ = p.Close() }()

	_, err := p.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, glypherr.Is(err, glypherr.ErrDecryptionFailed))
	assert.False(t, glypherr.Is(err, glypherr.ErrSigningRejected), "a wrong passphrase is not a user decline")
}

func TestProvider_Signing(t *testing.T) {
	t.Parallel()

	path, _ := newKeystore(t)
	p := New(path, staticPassphrase(testPassphrase), nil)
	defer func() { _ = p.Close() }()

	// Locked provider refuses to sign.
	_, err := p.SignTransaction(context.Background(), []byte("payload"))
	assert.True(t, glypherr.Is(err, glypherr.ErrNotConnected))

	_, err = p.Connect(context.Background())
	require.NoError(t, err)

	sig, err := p.SignTransaction(context.Background(), []byte("payload"))
	require.NoError(t, err)
	assert.Len(t, sig, 65)

	// Signing is deterministic over the payload digest.
	sig2, err := p.SignTransaction(context.Background(), []byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, sig, sig2)

	// Messages are domain-separated from transactions.
	msgSig, err := p.SignMessage(context.Background(), []byte("payload"))
	require.NoError(t, err)
	assert.NotEqual(t, sig, msgSig)

	batch, err := p.SignAllTransactions(context.Background(), [][]byte{[]byte("a"), []byte("b")})
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.NotEqual(t, batch[0], batch[1])
}

func TestProvider_DescribeAndName(t *testing.T) {
	t.Parallel()

	p := New("unused", staticPassphrase(""), nil)
	defer func() { _ = p.Close() }()

	assert.Equal(t, ProviderName, p.Name())
	assert.Equal(t, ProviderName, p.Describe().Name)
	assert.NotEmpty(t, p.Describe().Description)
}
