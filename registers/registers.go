package registers

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrPollTimeout indicates a hardware-ready bit did not reach the
// expected state within the poll deadline.
var ErrPollTimeout = errors.New("register poll timed out")

// DefaultPollTimeout bounds how long a polling primitive spins before
// giving up. Hardware handshakes complete within microseconds when the
// unit is healthy.
const DefaultPollTimeout = time.Millisecond

// pollInterval is the sleep between poll attempts.
const pollInterval = 10 * time.Microsecond

// Backend is the physical access mechanism behind a register block.
//
// Implementations must tolerate access at any 4-byte-aligned offset
// within their window. Offsets are byte offsets from the block base.
type Backend interface {
	Read32(offset uint32) uint32
	Write32(offset, value uint32)
}

// Block provides register access over a Backend.
//
// A Block is safe for use from a single goroutine at a time; callers
// serialize hardware access at a higher level (one job in flight per
// processing unit).
type Block struct {
	backend Backend
}

// NewBlock creates a register block over the given backend.
func NewBlock(backend Backend) *Block {
	return &Block{backend: backend}
}

// Read returns the 32-bit register value at offset.
func (b *Block) Read(offset uint32) uint32 {
	return b.backend.Read32(offset)
}

// Write stores a 32-bit register value at offset.
func (b *Block) Write(offset, value uint32) {
	b.backend.Write32(offset, value)
}

// SetBits sets the bits in mask at offset, preserving the rest.
func (b *Block) SetBits(offset, mask uint32) {
	b.backend.Write32(offset, b.backend.Read32(offset)|mask)
}

// ClearBits clears the bits in mask at offset, preserving the rest.
func (b *Block) ClearBits(offset, mask uint32) {
	b.backend.Write32(offset, b.backend.Read32(offset)&^mask)
}

// Poll spins until all bits in mask read back set at offset, or the
// timeout elapses. A zero timeout uses DefaultPollTimeout.
//
// Poll blocks the calling goroutine and must only be used from contexts
// that tolerate brief blocking.
func (b *Block) Poll(offset, mask uint32, timeout time.Duration) error {
	return b.poll(offset, mask, timeout, true)
}

// PollCleared spins until all bits in mask read back cleared at offset,
// or the timeout elapses. A zero timeout uses DefaultPollTimeout.
func (b *Block) PollCleared(offset, mask uint32, timeout time.Duration) error {
	return b.poll(offset, mask, timeout, false)
}

func (b *Block) poll(offset, mask uint32, timeout time.Duration, set bool) error {
	if timeout == 0 {
		timeout = DefaultPollTimeout
	}

	deadline := time.Now().Add(timeout)
	for {
		value := b.backend.Read32(offset) & mask

		if set && value == mask {
			return nil
		}
		if !set && value == 0 {
			return nil
		}

		if time.Now().After(deadline) {
			logrus.WithFields(logrus.Fields{
				"function": "Block.poll",
				"offset":   offset,
				"mask":     mask,
				"set":      set,
			}).Warn("Register poll timed out")
			return ErrPollTimeout
		}

		time.Sleep(pollInterval)
	}
}
