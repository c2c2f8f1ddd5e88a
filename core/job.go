package core

import "github.com/opd-ai/vecore/controls"

// BufferFlags carries per-buffer completion flags.
type BufferFlags uint32

// Buffer flags reported with encoder completions.
const (
	FlagKeyFrame BufferFlags = 1 << iota
	FlagPFrame
)

// CodedBuffer describes one coded bitstream buffer.
type CodedBuffer struct {
	// Addr is the device-visible base address.
	Addr uint32

	// Size is the full allocation size in bytes.
	Size uint32

	// PayloadSize is the used byte length: input length for decoding,
	// written by the engine for encoding.
	PayloadSize uint32

	// Timestamp tags the frame this buffer belongs to.
	Timestamp uint64

	// Flags reports the encoded frame type on completion.
	Flags BufferFlags
}

// PictureBuffer describes one raw picture buffer.
type PictureBuffer struct {
	LumaAddr   uint32
	ChromaAddr uint32

	// Timestamp identifies the picture for reference resolution; it is
	// copied from the coded buffer at dispatch.
	Timestamp uint64

	// Position is the hardware reference slot assigned by the DPB
	// allocator, or -1 when unassigned.
	Position int

	// Engine holds engine-private per-buffer state, e.g. the motion
	// vector column buffer, allocated lazily on first use.
	Engine interface{}
}

// Job is one quantum of hardware work: one slice or one frame.
//
// A Job is built fresh for each dispatch and discarded at completion.
type Job struct {
	Coded   *CodedBuffer
	Picture *PictureBuffer

	// FirstSlice marks the first dispatch of a new picture, detected by
	// a coded timestamp change. Always true for frame-based engines.
	FirstSlice bool
}

// Request is an optional parameter-set attachment carried by a coded
// buffer. Apply stores the attached controls before the job uses them;
// Complete must be called exactly once per dispatched request, whether
// the job succeeds or fails, even when the failure precedes Apply.
type Request interface {
	Apply(handler *controls.Handler)
	Complete()
}

// JobRequest carries the externally supplied inputs of one dispatch.
type JobRequest struct {
	Coded   *CodedBuffer
	Picture *PictureBuffer

	// Request is the optional control attachment on the coded buffer.
	Request Request
}

// BufferLookup resolves queued picture buffers by timestamp. It is
// supplied by the external buffer queue so engines can locate
// reference pictures.
type BufferLookup interface {
	ByTimestamp(timestamp uint64) *PictureBuffer
}

// Completer receives job completion reports, exactly one per
// dispatched job.
type Completer interface {
	JobDone(s *Session, outcome Outcome)
}

// PowerController abstracts the power/clock collaborator acquired for
// the duration of a streaming session.
type PowerController interface {
	Get() error
	Put()
}

// NopPower is a PowerController for hardware that is always powered.
type NopPower struct{}

// Get implements PowerController.
func (NopPower) Get() error { return nil }

// Put implements PowerController.
func (NopPower) Put() {}

// PictureConfigurer programs the picture-format output path at job
// time. It stands in for the external format manager.
type PictureConfigurer interface {
	Configure(s *Session) error
}
