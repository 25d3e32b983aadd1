package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glyphlabs/glyph/internal/fileutil"
)

const (
	// lastProviderFile records the most recently connected provider so the
	// CLI can default to it on the next run. It holds no secret material.
	lastProviderFile = "last_provider.json"

	lastProviderPermissions = 0o600
)

// lastProviderRecord is the on-disk shape of the last-provider hint.
type lastProviderRecord struct {
	Provider    string    `json:"provider"`
	ConnectedAt time.Time `json:"connected_at"`
}

// SaveLastProvider records the provider name under the glyph home directory.
// Failures are returned but callers generally treat them as advisory.
func SaveLastProvider(home, name string) error {
	name = strings.TrimSpace(name)
	if home == "" || name == "" {
		return nil
	}

	if err := os.MkdirAll(home, 0o750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(lastProviderRecord{
		Provider:    name,
		ConnectedAt: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return err
	}

	return fileutil.WriteAtomic(filepath.Join(home, lastProviderFile), data, lastProviderPermissions)
}

// LoadLastProvider returns the most recently connected provider name, or ""
// when no usable hint exists. A corrupt hint file is treated as absent.
func LoadLastProvider(home string) string {
	if home == "" {
		return ""
	}

	// #nosec G304 -- path is rooted in the glyph home directory
	data, err := os.ReadFile(filepath.Join(home, lastProviderFile))
	if err != nil {
		return ""
	}

	var rec lastProviderRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return ""
	}
	return rec.Provider
}
