// Package dpb maps reference-picture timestamps to the fixed
// hardware-visible slot indices of the decoded picture buffer table.
//
// The hardware addresses references by slot index into a per-slot
// frame-info table. Assignments are stable per timestamp until the
// slot is reclaimed: each frame begins with Begin, every timestamp the
// frame still references is assigned (re-using its existing slot), and
// slots whose timestamps were not referenced this frame become
// reclaimable by first-fit.
package dpb

import (
	"errors"
	"fmt"
)

// ErrFull indicates every slot is referenced by the current frame.
var ErrFull = errors.New("no free reference slot")

type slot struct {
	timestamp uint64
	valid     bool
}

// Table is a fixed-capacity reference slot table.
//
// Table is not safe for concurrent use; one table belongs to one
// session and is only touched during job configuration.
type Table struct {
	slots []slot

	// used is the bitmask of slots referenced since Begin.
	used uint32
}

// New creates a table with the given slot capacity.
func New(capacity int) *Table {
	return &Table{slots: make([]slot, capacity)}
}

// Capacity returns the slot count.
func (t *Table) Capacity() int {
	return len(t.slots)
}

// Begin starts a new frame: no slot is marked referenced yet, all
// assignments survive.
func (t *Table) Begin() {
	t.used = 0
}

// Slot returns the slot assigned to timestamp, if any.
func (t *Table) Slot(timestamp uint64) (int, bool) {
	for i := range t.slots {
		if t.slots[i].valid && t.slots[i].timestamp == timestamp {
			return i, true
		}
	}
	return 0, false
}

// Assign returns the slot for timestamp, reusing an existing
// assignment or claiming the lowest slot not referenced this frame.
// The returned slot is marked referenced.
func (t *Table) Assign(timestamp uint64) (int, error) {
	if i, ok := t.Slot(timestamp); ok {
		t.used |= 1 << uint(i)
		return i, nil
	}

	for i := range t.slots {
		if t.used&(1<<uint(i)) != 0 {
			continue
		}

		t.slots[i] = slot{timestamp: timestamp, valid: true}
		t.used |= 1 << uint(i)
		return i, nil
	}

	return 0, fmt.Errorf("assign slot for timestamp %d: %w", timestamp, ErrFull)
}

// Release drops the assignment for timestamp.
func (t *Table) Release(timestamp uint64) {
	for i := range t.slots {
		if t.slots[i].valid && t.slots[i].timestamp == timestamp {
			t.slots[i] = slot{}
			t.used &^= 1 << uint(i)
			return
		}
	}
}

// Used returns the bitmask of slots referenced since Begin.
func (t *Table) Used() uint32 {
	return t.used
}
