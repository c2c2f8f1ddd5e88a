package registers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockReadWrite(t *testing.T) {
	backend := NewMemBackend()
	block := NewBlock(backend)

	block.Write(0x100, 0xdeadbeef)
	assert.Equal(t, uint32(0xdeadbeef), block.Read(0x100))
	assert.Equal(t, uint32(0), block.Read(0x104))
}

func TestBlockSetClearBits(t *testing.T) {
	backend := NewMemBackend()
	block := NewBlock(backend)

	block.Write(0x10, 0x0f)
	block.SetBits(0x10, 0xf0)
	assert.Equal(t, uint32(0xff), block.Read(0x10))

	block.ClearBits(0x10, 0x0f)
	assert.Equal(t, uint32(0xf0), block.Read(0x10))
}

func TestBlockPollImmediate(t *testing.T) {
	backend := NewMemBackend()
	backend.Set(0x20, 0x3)
	block := NewBlock(backend)

	require.NoError(t, block.Poll(0x20, 0x3, 0))
	require.NoError(t, block.PollCleared(0x20, 0x4, 0))
}

func TestBlockPollTimeout(t *testing.T) {
	backend := NewMemBackend()
	block := NewBlock(backend)

	err := block.Poll(0x20, 0x1, 100*time.Microsecond)
	assert.ErrorIs(t, err, ErrPollTimeout)

	backend.Set(0x24, 0x1)
	err = block.PollCleared(0x24, 0x1, 100*time.Microsecond)
	assert.ErrorIs(t, err, ErrPollTimeout)
}

func TestBlockPollEventualSet(t *testing.T) {
	backend := NewMemBackend()
	block := NewBlock(backend)

	// Report ready on the third read.
	reads := 0
	backend.OnRead(0x30, func(current uint32) uint32 {
		reads++
		if reads >= 3 {
			return 0x1
		}
		return current
	})

	require.NoError(t, block.Poll(0x30, 0x1, 10*time.Millisecond))
	assert.GreaterOrEqual(t, reads, 3)
}

func TestMemBackendWriteRecording(t *testing.T) {
	backend := NewMemBackend()

	backend.Write32(0x0, 1)
	backend.Write32(0x4, 2)
	backend.Write32(0x0, 3)

	writes := backend.Writes()
	require.Len(t, writes, 3)
	assert.Equal(t, WriteRecord{Offset: 0x0, Value: 1}, writes[0])
	assert.Equal(t, []uint32{1, 3}, backend.WritesTo(0x0))

	backend.ResetWrites()
	assert.Empty(t, backend.Writes())
	assert.Equal(t, uint32(3), backend.Read32(0x0))
}
