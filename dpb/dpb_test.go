package dpb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignDistinctSlots(t *testing.T) {
	table := New(18)
	table.Begin()

	seen := make(map[int]bool)
	for ts := uint64(1); ts <= 18; ts++ {
		slot, err := table.Assign(ts)
		require.NoError(t, err)
		assert.False(t, seen[slot], "slot %d assigned twice", slot)
		seen[slot] = true
	}

	_, err := table.Assign(100)
	assert.ErrorIs(t, err, ErrFull)
}

func TestAssignStableAcrossFrames(t *testing.T) {
	table := New(4)

	table.Begin()
	first, err := table.Assign(10)
	require.NoError(t, err)
	_, err = table.Assign(11)
	require.NoError(t, err)

	// Next frame still references timestamp 10; it keeps its slot.
	table.Begin()
	again, err := table.Assign(10)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	// And across an arbitrary number of frames.
	for i := 0; i < 5; i++ {
		table.Begin()
		slot, err := table.Assign(10)
		require.NoError(t, err)
		assert.Equal(t, first, slot)
	}
}

func TestStaleSlotsReclaimedFirstFit(t *testing.T) {
	table := New(2)

	table.Begin()
	slotA, err := table.Assign(1)
	require.NoError(t, err)
	_, err = table.Assign(2)
	require.NoError(t, err)

	// New frame references only timestamp 2; timestamp 1 goes stale and
	// its slot is reclaimed first-fit for a new reference.
	table.Begin()
	_, err = table.Assign(2)
	require.NoError(t, err)
	slotC, err := table.Assign(3)
	require.NoError(t, err)
	assert.Equal(t, slotA, slotC)

	// The stale timestamp lost its assignment.
	_, ok := table.Slot(1)
	assert.False(t, ok)
}

func TestOutputReusesMatchingTimestamp(t *testing.T) {
	// The output picture shares a timestamp with a DPB entry in the
	// re-output case and must land in the same slot.
	table := New(18)

	table.Begin()
	ref, err := table.Assign(42)
	require.NoError(t, err)

	out, err := table.Assign(42)
	require.NoError(t, err)
	assert.Equal(t, ref, out)
}

func TestRelease(t *testing.T) {
	table := New(2)

	table.Begin()
	slot0, err := table.Assign(1)
	require.NoError(t, err)

	table.Release(1)
	_, ok := table.Slot(1)
	assert.False(t, ok)

	// The released slot is immediately reusable within the frame.
	slot1, err := table.Assign(2)
	require.NoError(t, err)
	assert.Equal(t, slot0, slot1)
}

func TestUsedMask(t *testing.T) {
	table := New(4)

	table.Begin()
	_, err := table.Assign(1)
	require.NoError(t, err)
	_, err = table.Assign(2)
	require.NoError(t, err)
	assert.Equal(t, uint32(0b11), table.Used())

	table.Begin()
	assert.Zero(t, table.Used())
}
