package core

import "errors"

// Protocol errors, fatal to the job and never retried here. Missing
// parameter-set controls surface controls.ErrMissingControl and failed
// scratch allocations memory.ErrNoMemory, both wrapped at the engine
// call site.
var (
	// ErrNoEngine indicates an operation was dispatched on a session
	// with no engine selected.
	ErrNoEngine = errors.New("no engine selected")
)

// Range and capability errors, failing the job only.
var (
	// ErrUnsupported indicates a control combination the hardware
	// cannot express.
	ErrUnsupported = errors.New("unsupported by hardware")

	// ErrRange indicates a control value exceeds the hardware-encodable
	// range.
	ErrRange = errors.New("value out of hardware range")
)

// Dispatch and hardware errors.
var (
	// ErrBusy indicates a job dispatch while another job is in flight,
	// a violation of the single-job admission contract.
	ErrBusy = errors.New("job already in flight")

	// ErrHardwareTimeout indicates the watchdog expired and reset the
	// hardware.
	ErrHardwareTimeout = errors.New("hardware processing timed out")

	// ErrNotStreaming indicates a job dispatch on a session that is
	// not in the streaming state.
	ErrNotStreaming = errors.New("session is not streaming")
)
