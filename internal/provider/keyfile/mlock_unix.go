//go:build !windows

package keyfile

import (
	"golang.org/x/sys/unix"
)

// mlock attempts to lock the memory region containing the data so decrypted
// key material never reaches swap. Returns true if successful.
func mlock(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	return unix.Mlock(data) == nil
}

// munlock unlocks the memory region.
func munlock(data []byte) {
	if len(data) == 0 {
		return
	}
	_ = unix.Munlock(data)
}
