// Package fileutil provides filesystem helpers shared by the keystore and
// cache layers.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrEmptyPath indicates an empty file path was provided.
var ErrEmptyPath = errors.New("path is empty")

// WriteAtomic replaces the file at path with data, taking effect all at
// once. The bytes land in a temp file in the same directory, get synced,
// then renamed over the target, so a crash mid-write can never leave a
// truncated keyfile or cache on disk.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	if path == "" {
		return ErrEmptyPath
	}

	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := writeAndClose(tmp, data, perm); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	// Best effort: sync the directory so the rename survives a crash too.
	if d, err := os.Open(dir); err == nil { //nolint:gosec // G304: dir derives from the caller's path
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}

func writeAndClose(f *os.File, data []byte, perm os.FileMode) error {
	defer func() { _ = f.Close() }()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Chmod(perm); err != nil {
		return fmt.Errorf("setting temp file permissions: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	return nil
}
