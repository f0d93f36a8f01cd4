//go:build linux || darwin

package mmap

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// tryMap truncates the backing file to capacity and maps it read-write
// shared. On success r.mem covers the whole file.
func (r *Region) tryMap(capacity int) error {
	f, err := os.OpenFile(r.path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return fmt.Errorf("open %s: %w", r.path, err)
	}
	defer f.Close()

	if err := f.Truncate(int64(capacity)); err != nil {
		return fmt.Errorf("truncate %s to %d: %w", r.path, capacity, err)
	}

	mem, err := unix.Mmap(int(f.Fd()), 0, capacity, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("mmap %s: %w", r.path, err)
	}
	r.mem = mem
	return nil
}

func (r *Region) unmap() error {
	if r.mem == nil {
		return nil
	}
	err := unix.Munmap(r.mem)
	r.mem = nil
	return err
}

// Sync flushes dirty pages to the backing file. The OS writes pages back on
// its own schedule; Sync only forces the matter.
func (r *Region) Sync() error {
	if r.mem == nil {
		return nil
	}
	return unix.Msync(r.mem, unix.MS_SYNC)
}
