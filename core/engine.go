package core

import "github.com/opd-ai/vecore/controls"

// Codec identifies a compression standard.
type Codec int

// Supported codecs.
const (
	CodecMPEG2 Codec = iota
	CodecH264
	CodecH265
	CodecVP8
)

// String returns the codec name.
func (c Codec) String() string {
	switch c {
	case CodecMPEG2:
		return "mpeg2"
	case CodecH264:
		return "h264"
	case CodecH265:
		return "h265"
	case CodecVP8:
		return "vp8"
	default:
		return "unknown"
	}
}

// Role identifies the direction of a processing unit or engine.
type Role int

// Roles.
const (
	RoleDecoder Role = iota
	RoleEncoder
)

// String returns the role name.
func (r Role) String() string {
	if r == RoleEncoder {
		return "encoder"
	}
	return "decoder"
}

// Capability is a bitmask of hardware features enabled on a variant.
type Capability uint32

// Capability bits.
const (
	CapUntiled Capability = 1 << iota
	CapMPEG2Dec
	CapH264Dec
	CapH265Dec
	CapH26510Dec
	CapVP8Dec
	CapH264Enc
)

// Has reports whether all bits in mask are present.
func (c Capability) Has(mask Capability) bool {
	return c&mask == mask
}

// IRQStatus is the hardware interrupt status read by an engine.
type IRQStatus int

// Interrupt statuses.
const (
	// IRQNone signals a spurious condition; the caller must not treat
	// the interrupt as serviced.
	IRQNone IRQStatus = iota
	IRQError
	IRQSuccess
)

// Outcome is the three-valued job completion result.
type Outcome int

// Job outcomes.
const (
	OutcomeDone Outcome = iota
	OutcomeError
	OutcomeTimedOut
)

// String returns the outcome label.
func (o Outcome) String() string {
	switch o {
	case OutcomeDone:
		return "done"
	case OutcomeError:
		return "error"
	case OutcomeTimedOut:
		return "timeout"
	default:
		return "unknown"
	}
}

// FrameSize describes the coded frame size range an engine supports.
type FrameSize struct {
	MinWidth   uint32
	MaxWidth   uint32
	StepWidth  uint32
	MinHeight  uint32
	MaxHeight  uint32
	StepHeight uint32
}

// Ops is the operation table of a codec engine.
//
// Every operation is optional except JobConfigure, JobTrigger and the
// IRQ group for engines that run jobs; engines embed NopOps so absent
// operations are no-op success.
type Ops interface {
	// CtrlValidate checks a control value against engine and hardware
	// constraints before it is stored.
	CtrlValidate(s *Session, id controls.ID, value interface{}) error

	// CtrlPrepare reacts to a control store, e.g. invalidating cached
	// encoder headers.
	CtrlPrepare(s *Session, id controls.ID, value interface{}) error

	// FormatPrepare adjusts the coded format before it is applied.
	FormatPrepare(s *Session, format *Format) error

	// FormatConfigure programs coded-format-wide hardware state at job
	// time, before codec-specific job configuration.
	FormatConfigure(s *Session) error

	// Setup allocates per-session hardware scratch after the session
	// state was created.
	Setup(s *Session) error

	// Cleanup releases everything Setup allocated.
	Cleanup(s *Session)

	// BufferSetup allocates engine-private state for one picture
	// buffer.
	BufferSetup(s *Session, buf *PictureBuffer) error

	// BufferCleanup releases engine-private buffer state.
	BufferCleanup(s *Session, buf *PictureBuffer)

	// JobPrepare extracts and caches the typed control structures the
	// job needs.
	JobPrepare(s *Session) error

	// JobConfigure performs the codec-specific register programming.
	JobConfigure(s *Session) error

	// JobTrigger issues the hardware start command and returns
	// immediately.
	JobTrigger(s *Session)

	// JobFinish performs final per-job bookkeeping for the outcome.
	JobFinish(s *Session, outcome Outcome)

	// IRQStatus reads and classifies the engine interrupt status.
	IRQStatus(s *Session) IRQStatus

	// IRQClear acknowledges the engine interrupt.
	IRQClear(s *Session)

	// IRQDisable masks the engine interrupt.
	IRQDisable(s *Session)
}

// Descriptor statically describes one codec engine. Descriptors are
// immutable; exactly one is selected per session by coded pixel format
// lookup.
type Descriptor struct {
	Codec      Codec
	Role       Role
	Capability Capability

	// PixelFormat is the coded pixel format this engine serves.
	PixelFormat uint32

	// SliceBased marks engines whose job quantum is one slice rather
	// than one frame.
	SliceBased bool

	FrameSize FrameSize

	// NewContext creates the per-session engine state, allocated on
	// the streaming transition. Nil means the engine keeps no session
	// state.
	NewContext func(s *Session) (interface{}, error)

	// NewJobState creates the per-job engine scratch, allocated on the
	// streaming transition and recreated zeroed for every dispatch.
	// Nil means the engine keeps no job scratch.
	NewJobState func(s *Session) (interface{}, error)

	Ops Ops
}

// NopOps provides no-op success implementations of every optional
// engine operation. Engines embed it and override what they need.
type NopOps struct{}

func (NopOps) CtrlValidate(*Session, controls.ID, interface{}) error { return nil }
func (NopOps) CtrlPrepare(*Session, controls.ID, interface{}) error  { return nil }
func (NopOps) FormatPrepare(*Session, *Format) error                 { return nil }
func (NopOps) FormatConfigure(*Session) error                        { return nil }
func (NopOps) Setup(*Session) error                                  { return nil }
func (NopOps) Cleanup(*Session)                                      {}
func (NopOps) BufferSetup(*Session, *PictureBuffer) error            { return nil }
func (NopOps) BufferCleanup(*Session, *PictureBuffer)                {}
func (NopOps) JobPrepare(*Session) error                             { return nil }
func (NopOps) JobConfigure(*Session) error                           { return nil }
func (NopOps) JobTrigger(*Session)                                   {}
func (NopOps) JobFinish(*Session, Outcome)                           {}
func (NopOps) IRQStatus(*Session) IRQStatus                          { return IRQNone }
func (NopOps) IRQClear(*Session)                                     {}
func (NopOps) IRQDisable(*Session)                                   {}
