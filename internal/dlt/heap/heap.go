// Package heap is a fixed-capacity bump arena backing all codec work.
//
// Allocations are addressed by integer handles rather than pointers; a
// handle is only valid until the next Reset of the heap that issued it.
package heap

import "errors"

const (
	// DefaultCapacity matches the heap size of the reference receiver.
	DefaultCapacity = 16384

	alignment = 8
)

var (
	ErrOutOfMemory = errors.New("heap: out of memory")
	ErrBadHandle   = errors.New("heap: invalid handle")
	ErrBadSize     = errors.New("heap: invalid size")
)

// Handle addresses one live allocation. Zero is never a valid handle.
type Handle int

// Heap is a fixed-size byte arena with a bump cursor. Not safe for
// concurrent use; callers serialize codec calls sharing an instance.
type Heap struct {
	buf    []byte
	cursor int
	used   int
	live   int
}

// New creates a heap of the given capacity. A non-positive capacity
// falls back to DefaultCapacity.
func New(capacity int) *Heap {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Heap{buf: make([]byte, capacity)}
}

// Alloc reserves size bytes, rounded up to 8-byte alignment. It fails
// with ErrOutOfMemory exactly when the rounded size would cross the
// capacity boundary, leaving prior allocations intact.
func (h *Heap) Alloc(size int) (Handle, error) {
	if size <= 0 {
		return 0, ErrBadSize
	}
	rounded := align(size)
	if rounded > len(h.buf)-h.cursor {
		return 0, ErrOutOfMemory
	}
	// Handles are cursor offsets shifted by one so zero stays invalid.
	handle := Handle(h.cursor + 1)
	h.cursor += rounded
	h.used += rounded
	h.live++
	return handle, nil
}

// Bytes returns the size-byte region addressed by handle. The slice
// aliases heap storage and is invalidated by Reset.
func (h *Heap) Bytes(handle Handle, size int) ([]byte, error) {
	off := int(handle) - 1
	if handle <= 0 || off >= h.cursor {
		return nil, ErrBadHandle
	}
	if size <= 0 || off+size > len(h.buf) {
		return nil, ErrBadSize
	}
	return h.buf[off : off+size : off+size], nil
}

// Free releases one allocation. With a bump cursor this only adjusts the
// usage metric; fragmented space is reclaimed in bulk by Reset.
func (h *Heap) Free(handle Handle, size int) error {
	off := int(handle) - 1
	if handle <= 0 || off >= h.cursor {
		return ErrBadHandle
	}
	rounded := align(size)
	if rounded > h.used {
		rounded = h.used
	}
	h.used -= rounded
	if h.live > 0 {
		h.live--
	}
	return nil
}

// Reset reclaims the entire heap. Handles issued before Reset must not
// be used afterward; the heap does not detect violations.
func (h *Heap) Reset() {
	h.cursor = 0
	h.used = 0
	h.live = 0
}

// Capacity reports the fixed heap size in bytes.
func (h *Heap) Capacity() int { return len(h.buf) }

// Used reports the bytes currently accounted to live allocations.
func (h *Heap) Used() int { return h.used }

// Live reports the number of outstanding allocations.
func (h *Heap) Live() int { return h.live }

func align(n int) int {
	return (n + alignment - 1) &^ (alignment - 1)
}
