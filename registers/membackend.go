package registers

import "sync"

// WriteRecord captures one register write for inspection by tests.
type WriteRecord struct {
	Offset uint32
	Value  uint32
}

// MemBackend is an in-memory register backend.
//
// It stores the last value written at each offset and records the full
// write sequence so tests can assert on register-programming order.
// Read hooks let a test emulate hardware behavior such as status bits
// that appear after a trigger.
type MemBackend struct {
	mu        sync.Mutex
	values    map[uint32]uint32
	writes    []WriteRecord
	readHooks map[uint32]func(current uint32) uint32
}

// NewMemBackend creates an empty in-memory register backend.
func NewMemBackend() *MemBackend {
	return &MemBackend{
		values:    make(map[uint32]uint32),
		readHooks: make(map[uint32]func(uint32) uint32),
	}
}

// Read32 returns the value at offset, applying any read hook.
func (m *MemBackend) Read32(offset uint32) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()

	value := m.values[offset]
	if hook, ok := m.readHooks[offset]; ok {
		value = hook(value)
	}
	return value
}

// Write32 stores value at offset and records the write.
func (m *MemBackend) Write32(offset, value uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[offset] = value
	m.writes = append(m.writes, WriteRecord{Offset: offset, Value: value})
}

// Set seeds a register value without recording a write.
func (m *MemBackend) Set(offset, value uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[offset] = value
}

// OnRead installs a hook invoked on every read of offset. The hook
// receives the stored value and returns the value to report.
func (m *MemBackend) OnRead(offset uint32, hook func(current uint32) uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readHooks[offset] = hook
}

// Writes returns a copy of the recorded write sequence.
func (m *MemBackend) Writes() []WriteRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]WriteRecord, len(m.writes))
	copy(out, m.writes)
	return out
}

// WritesTo returns the values written to offset, in order.
func (m *MemBackend) WritesTo(offset uint32) []uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []uint32
	for _, w := range m.writes {
		if w.Offset == offset {
			out = append(out, w.Value)
		}
	}
	return out
}

// ResetWrites clears the recorded write sequence, keeping values.
func (m *MemBackend) ResetWrites() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = nil
}
