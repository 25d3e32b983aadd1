package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glyphlabs/glyph/internal/config"
	"github.com/glyphlabs/glyph/internal/ledger"
	"github.com/glyphlabs/glyph/internal/output"
	"github.com/glyphlabs/glyph/internal/provider"
	"github.com/glyphlabs/glyph/internal/session"
	glypherr "github.com/glyphlabs/glyph/pkg/errors"
)

func TestSetCmdContext_GetCmdContext_Roundtrip(t *testing.T) {
	t.Parallel()

	cmd := &cobra.Command{Use: "test"}
	cmd.SetContext(context.Background())

	cc := &CommandContext{Config: config.Defaults()}
	SetCmdContext(cmd, cc)

	retrieved := GetCmdContext(cmd)
	assert.Same(t, cc, retrieved)
}

func TestGetCmdContext_NilContext(t *testing.T) {
	t.Parallel()

	cmd := &cobra.Command{Use: "test"}
	assert.Nil(t, GetCmdContext(cmd))
}

func TestParseTags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   []string
		want    []ledger.Tag
		wantErr bool
	}{
		{
			name:  "empty",
			input: nil,
			want:  []ledger.Tag{},
		},
		{
			name:  "order and duplicates preserved",
			input: []string{"App-Name=X", "Content-Type=a", "Content-Type=b"},
			want: []ledger.Tag{
				{Name: "App-Name", Value: "X"},
				{Name: "Content-Type", Value: "a"},
				{Name: "Content-Type", Value: "b"},
			},
		},
		{
			name:  "empty value allowed",
			input: []string{"draft="},
			want:  []ledger.Tag{{Name: "draft", Value: ""}},
		},
		{
			name:    "missing separator",
			input:   []string{"no-separator"},
			wantErr: true,
		},
		{
			name:    "empty name",
			input:   []string{"=value"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseTags(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, glypherr.Is(err, glypherr.ErrInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadAsset(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	pngPath := filepath.Join(dir, "art.png")
	require.NoError(t, os.WriteFile(pngPath, []byte("fake-png-bytes"), 0o600))

	data, contentType, err := readAsset(pngPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("fake-png-bytes"), data)
	assert.Equal(t, "image/png", contentType)

	// Unknown extension falls back to content sniffing.
	binPath := filepath.Join(dir, "blob.weird")
	require.NoError(t, os.WriteFile(binPath, []byte{0x00, 0x01, 0x02, 0x03}, 0o600))
	_, contentType, err = readAsset(binPath)
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", contentType)

	_, _, err = readAsset(filepath.Join(dir, "missing.png"))
	assert.True(t, glypherr.Is(err, glypherr.ErrInvalidInput))

	emptyPath := filepath.Join(dir, "empty.png")
	require.NoError(t, os.WriteFile(emptyPath, nil, 0o600))
	_, _, err = readAsset(emptyPath)
	assert.True(t, glypherr.Is(err, glypherr.ErrInvalidInput))
}

func TestKeystorePath(t *testing.T) {
	t.Parallel()

	cfg := config.Defaults()
	cfg.Home = "/data/glyph"

	cfg.Keystore.Path = "/explicit/keyfile.age"
	assert.Equal(t, "/explicit/keyfile.age", keystorePath(cfg))

	cfg.Keystore.Path = ""
	assert.Equal(t, "/data/glyph/keyfile.age", keystorePath(cfg))

	cfg.Keystore.Path = "~/keys/glyph.age"
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "keys/glyph.age"), keystorePath(cfg))
}

func TestResolveProviderName(t *testing.T) {
	t.Parallel()

	newCC := func(t *testing.T) *CommandContext {
		t.Helper()
		cfg := config.Defaults()
		cfg.Home = t.TempDir()
		registry := provider.NewRegistry()
		return &CommandContext{
			Config:   cfg,
			Logger:   config.NullLogger(),
			Registry: registry,
		}
	}

	t.Run("explicit argument wins", func(t *testing.T) {
		t.Parallel()

		name, err := resolveProviderName(newCC(t), []string{"phantom-like"})
		require.NoError(t, err)
		assert.Equal(t, "phantom-like", name)
	})

	t.Run("configured default", func(t *testing.T) {
		t.Parallel()

		cc := newCC(t)
		cc.Config.Providers.Default = "keyfile"

		name, err := resolveProviderName(cc, nil)
		require.NoError(t, err)
		assert.Equal(t, "keyfile", name)
	})

	t.Run("remembered provider beats default", func(t *testing.T) {
		t.Parallel()

		cc := newCC(t)
		cc.Config.Providers.Default = "keyfile"
		cc.Registry.Register(newStubProvider("remembered"))
		require.NoError(t, session.SaveLastProvider(cc.Config.Home, "remembered"))

		name, err := resolveProviderName(cc, nil)
		require.NoError(t, err)
		assert.Equal(t, "remembered", name)
	})

	t.Run("remembered provider ignored when unregistered", func(t *testing.T) {
		t.Parallel()

		cc := newCC(t)
		cc.Config.Providers.Default = "keyfile"
		require.NoError(t, session.SaveLastProvider(cc.Config.Home, "gone"))

		name, err := resolveProviderName(cc, nil)
		require.NoError(t, err)
		assert.Equal(t, "keyfile", name)
	})

	t.Run("nothing to resolve", func(t *testing.T) {
		t.Parallel()

		cc := newCC(t)
		cc.Config.Providers.Default = ""

		_, err := resolveProviderName(cc, nil)
		assert.True(t, glypherr.Is(err, glypherr.ErrNoProviderSelected))
	})
}

// stubProvider is a minimal provider for registry-backed CLI tests.
type stubProvider struct {
	name   string
	events chan provider.Event
}

func newStubProvider(name string) *stubProvider {
	return &stubProvider{name: name, events: make(chan provider.Event)}
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Describe() provider.Descriptor {
	return provider.Descriptor{Name: s.name, Description: "stub"}
}

func (s *stubProvider) Connect(_ context.Context) (provider.Identity, error) {
	return provider.Identity{ProviderName: s.name, PublicAddress: "Addr123"}, nil
}

func (s *stubProvider) Disconnect(_ context.Context) error { return nil }

func (s *stubProvider) SignTransaction(_ context.Context, payload []byte) ([]byte, error) {
	return payload, nil
}

func (s *stubProvider) SignAllTransactions(_ context.Context, payloads [][]byte) ([][]byte, error) {
	return payloads, nil
}

func (s *stubProvider) SignMessage(_ context.Context, msg []byte) ([]byte, error) {
	return msg, nil
}

func (s *stubProvider) Events() <-chan provider.Event { return s.events }

func TestRunProvidersList(t *testing.T) {
	t.Parallel()

	registry := provider.NewRegistry()
	registry.Register(newStubProvider("keyfile"))
	registry.Register(newStubProvider("phantom-like"))

	cfg := config.Defaults()
	var buf bytes.Buffer
	cc := &CommandContext{
		Config:    cfg,
		Logger:    config.NullLogger(),
		Formatter: output.NewFormatter(output.FormatText, &buf),
		Registry:  registry,
	}

	cmd := &cobra.Command{Use: "list"}
	cmd.SetContext(context.Background())
	SetCmdContext(cmd, cc)

	require.NoError(t, runProvidersList(cmd, nil))
	assert.Contains(t, buf.String(), "keyfile")
	assert.Contains(t, buf.String(), "phantom-like")
}

func TestRunSessionStatus(t *testing.T) {
	t.Parallel()

	registry := provider.NewRegistry()
	registry.Register(newStubProvider("keyfile"))

	cfg := config.Defaults()
	cfg.Home = t.TempDir()

	var buf bytes.Buffer
	mgr := session.NewManager(registry, config.NullLogger())
	defer mgr.Close()

	cc := &CommandContext{
		Config:    cfg,
		Logger:    config.NullLogger(),
		Formatter: output.NewFormatter(output.FormatText, &buf),
		Registry:  registry,
		Session:   mgr,
	}

	cmd := &cobra.Command{Use: "status"}
	cmd.SetContext(context.Background())
	SetCmdContext(cmd, cc)

	require.NoError(t, runSessionStatus(cmd, nil))
	assert.Contains(t, buf.String(), "no_provider")

	require.NoError(t, mgr.Select("keyfile"))
	_, err := mgr.Connect(context.Background())
	require.NoError(t, err)

	buf.Reset()
	require.NoError(t, runSessionStatus(cmd, nil))
	assert.Contains(t, buf.String(), "connected")
	assert.Contains(t, buf.String(), "Addr123")
}
