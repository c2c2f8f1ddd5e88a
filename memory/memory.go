// Package memory manages hardware-addressable scratch memory.
//
// Codec engines require side buffers the hardware reads and writes by
// physical address: frame-info tables, neighbor-info buffers, motion
// vector column buffers, reconstruction buffers. An Allocator hands out
// Buffer values carrying both the device-visible address and a byte
// slice view, so engine code can populate tables that tests can inspect.
package memory

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// ErrNoMemory indicates the allocator cannot satisfy a request.
var ErrNoMemory = errors.New("hardware memory exhausted")

// Buffer is one hardware-addressable allocation.
type Buffer struct {
	// Addr is the device-visible base address of the allocation.
	Addr uint32

	// Bytes is the CPU view of the allocation.
	Bytes []byte
}

// Size returns the allocation size in bytes.
func (b *Buffer) Size() int {
	return len(b.Bytes)
}

// WriteUint32 stores a little-endian 32-bit value at the byte offset.
func (b *Buffer) WriteUint32(offset int, value uint32) {
	binary.LittleEndian.PutUint32(b.Bytes[offset:offset+4], value)
}

// ReadUint32 loads a little-endian 32-bit value from the byte offset.
func (b *Buffer) ReadUint32(offset int) uint32 {
	return binary.LittleEndian.Uint32(b.Bytes[offset : offset+4])
}

// Zero clears the entire allocation.
func (b *Buffer) Zero() {
	for i := range b.Bytes {
		b.Bytes[i] = 0
	}
}

// Allocator hands out hardware-addressable buffers.
type Allocator interface {
	// Alloc returns a zeroed buffer of the given size.
	Alloc(size int) (*Buffer, error)

	// Free returns a buffer to the allocator. Freeing nil is a no-op.
	Free(buf *Buffer)
}

// Arena is a Allocator over a fixed device-memory window.
//
// Allocation is bump-pointer with a free list reclaimed only when the
// arena drains completely, which matches the usage pattern here: session
// scratch lives for a whole streaming run and per-buffer scratch for the
// life of the buffer.
type Arena struct {
	mu    sync.Mutex
	base  uint32
	size  int
	next  int
	live  int
	align int
}

// NewArena creates an arena of size bytes whose allocations report
// device addresses starting at base.
func NewArena(base uint32, size int) *Arena {
	return &Arena{base: base, size: size, align: 1024}
}

// Alloc returns a zeroed, alignment-padded buffer of the given size.
func (a *Arena) Alloc(size int) (*Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("allocate %d bytes: %w", size, ErrNoMemory)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	padded := (size + a.align - 1) &^ (a.align - 1)
	if a.next+padded > a.size {
		logrus.WithFields(logrus.Fields{
			"function": "Arena.Alloc",
			"size":     size,
			"used":     a.next,
			"total":    a.size,
		}).Error("Hardware memory exhausted")
		return nil, fmt.Errorf("allocate %d bytes: %w", size, ErrNoMemory)
	}

	buf := &Buffer{
		Addr:  a.base + uint32(a.next),
		Bytes: make([]byte, size),
	}
	a.next += padded
	a.live++

	return buf, nil
}

// Free releases a buffer. The arena recycles its window only once every
// outstanding allocation has been freed.
func (a *Arena) Free(buf *Buffer) {
	if buf == nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.live > 0 {
		a.live--
	}
	if a.live == 0 {
		a.next = 0
	}
}
