// Package mmap provides a file-backed byte region used as a crash-persistent
// staging buffer. The file starts with a small header (magic + payload size)
// followed by the payload area; all mutation goes through the mapping, so a
// process crash leaves the staged bytes on disk for the next open to recover.
package mmap

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

const (
	// headerMagic marks an initialized region. A freshly truncated file is
	// all zeros, which lets Open tell a recovered region from a new one.
	headerMagic uint32 = 0xDEADBEEF

	// headerSize is the on-disk header length: u32 magic + u64 payload size,
	// both little-endian.
	headerSize = 12

	defaultCapacity = 512 * 1024
)

// ErrSaturated is returned when the region cannot grow to the requested
// capacity.
var ErrSaturated = errors.New("mmap: cannot grow region")

// Region is a memory-mapped file with a magic+size header. It is not safe
// for concurrent use; callers serialize access externally.
type Region struct {
	path     string
	mem      []byte // whole mapping, len == capacity
	capacity int
}

// Open maps the file at path, creating it if needed. Capacity is the larger
// of the existing file size and 512 KiB, rounded up to the page size. A file
// without the header magic is initialized to an empty region; one with the
// magic keeps its payload.
func Open(path string) (*Region, error) {
	r := &Region{path: path}

	var fileSize int
	if fi, err := os.Stat(path); err == nil {
		fileSize = int(fi.Size())
	}

	want := fileSize
	if want < defaultCapacity {
		want = defaultCapacity
	}
	if err := r.reserve(want); err != nil {
		return nil, err
	}

	if binary.LittleEndian.Uint32(r.mem[0:4]) != headerMagic {
		binary.LittleEndian.PutUint32(r.mem[0:4], headerMagic)
		r.setSize(0)
	}
	return r, nil
}

// Close unmaps the region. The backing file is left in place so its contents
// survive for crash recovery.
func (r *Region) Close() error {
	return r.unmap()
}

// Data returns the current payload. The slice aliases the mapping and is
// invalidated by any call that can grow the region; re-fetch after mutation.
func (r *Region) Data() []byte {
	return r.mem[headerSize : headerSize+r.Size()]
}

// Size returns the payload byte count.
func (r *Region) Size() int {
	return int(binary.LittleEndian.Uint64(r.mem[4:headerSize]))
}

// Capacity returns the mapped byte count, header included.
func (r *Region) Capacity() int {
	return r.capacity
}

// Empty reports whether the payload is empty.
func (r *Region) Empty() bool {
	return r.Size() == 0
}

// Ratio returns payload size over payload capacity.
func (r *Region) Ratio() float64 {
	avail := r.capacity - headerSize
	if avail <= 0 {
		return 0
	}
	return float64(r.Size()) / float64(avail)
}

// Push appends data to the payload, growing the region first if needed.
// A nil or empty input is a no-op.
func (r *Region) Push(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	size := r.Size()
	if err := r.reserve(headerSize + size + len(data)); err != nil {
		return err
	}
	copy(r.mem[headerSize+size:], data)
	r.setSize(size + len(data))
	return nil
}

// Resize sets the payload size, growing the region if needed. Bytes between
// the old and new size are undefined.
func (r *Region) Resize(newSize int) error {
	if err := r.reserve(headerSize + newSize); err != nil {
		return err
	}
	r.setSize(newSize)
	return nil
}

// Clear resets the payload size to zero. Capacity is kept.
func (r *Region) Clear() {
	r.setSize(0)
}

func (r *Region) setSize(n int) {
	binary.LittleEndian.PutUint64(r.mem[4:headerSize], uint64(n))
}

// reserve ensures capacity for at least target bytes (header included).
// Growth follows the doubling policy: the new capacity is the old capacity
// plus the larger of the old capacity and the page-rounded request, so small
// overflows double and huge requests jump. The mapping is replaced, which
// invalidates previously returned Data slices.
func (r *Region) reserve(target int) error {
	target = pageAlign(target)
	if target < r.capacity {
		return nil
	}

	newCap := r.capacity + max(r.capacity, target)

	r.unmap()
	if err := r.tryMap(newCap); err != nil {
		// Keep the file intact; remap at the old capacity so the region
		// stays usable.
		if r.capacity > 0 {
			if mapErr := r.tryMap(r.capacity); mapErr != nil {
				return fmt.Errorf("%w: %v", ErrSaturated, mapErr)
			}
		}
		return fmt.Errorf("%w: %v", ErrSaturated, err)
	}
	r.capacity = newCap
	return nil
}

func pageAlign(n int) int {
	page := os.Getpagesize()
	return (n + page - 1) / page * page
}
