package core

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/vecore/controls"
	"github.com/opd-ai/vecore/memory"
	"github.com/opd-ai/vecore/registers"
)

// Session is one logical decode or encode stream.
//
// A session owns the selected engine descriptor, the engine's
// per-session and per-job state, the control handler, the negotiated
// formats and the in-flight job. Sessions move Idle -> Streaming when
// the coded queue starts and back on stop; engine state exists only
// while streaming.
type Session struct {
	proc *Proc
	id   uint64

	// Engine is the selected engine descriptor, nil until a coded
	// format is set.
	Engine *Descriptor

	// EngineCtx is the engine's per-session state, valid while
	// streaming.
	EngineCtx interface{}

	// EngineJob is the engine's per-job scratch, recreated zeroed for
	// every dispatch.
	EngineJob interface{}

	// Controls stores the session's control values.
	Controls *controls.Handler

	CodedFormat   Format
	PictureFormat Format

	// Job is the in-flight job, zeroed outside dispatch.
	Job Job

	// Buffers resolves reference pictures by timestamp; supplied by
	// the external buffer queue.
	Buffers BufferLookup

	streaming bool

	// lastTimestamp tracks the previous dispatch for first-slice
	// detection on slice-based engines.
	lastTimestamp     uint64
	haveLastTimestamp bool
}

// LookupBuffer returns the queued picture buffer carrying the
// timestamp, or nil when unknown.
func (s *Session) LookupBuffer(timestamp uint64) *PictureBuffer {
	if s.Buffers == nil {
		return nil
	}
	return s.Buffers.ByTimestamp(timestamp)
}

// RefPictureAddrs resolves the luma and chroma addresses of a
// reference picture by timestamp. Unknown references yield zero
// addresses, matching what the hardware tolerates for missing frames.
func (s *Session) RefPictureAddrs(timestamp uint64) (uint32, uint32) {
	buf := s.LookupBuffer(timestamp)
	if buf == nil {
		return 0, 0
	}
	return buf.LumaAddr, buf.ChromaAddr
}

// ID returns the session identifier, unique per processing unit.
func (s *Session) ID() uint64 {
	return s.id
}

// Proc returns the owning processing unit.
func (s *Session) Proc() *Proc {
	return s.proc
}

// Block returns the register block of the owning processing unit.
func (s *Session) Block() *registers.Block {
	return s.proc.block
}

// Memory returns the hardware memory allocator of the owning
// processing unit.
func (s *Session) Memory() memory.Allocator {
	return s.proc.mem
}

// Streaming reports whether the session holds hardware resources.
func (s *Session) Streaming() bool {
	return s.streaming
}

// SetCodedFormat selects the engine matching the coded pixel format
// and stores the format. Switching requires no job in flight and no
// streaming state.
func (s *Session) SetCodedFormat(format Format) error {
	if s.streaming {
		return fmt.Errorf("set coded format: %w", ErrBusy)
	}

	engine := s.proc.FindEngine(format.PixelFormat)
	if engine == nil {
		return fmt.Errorf("set coded format %#x: %w",
			format.PixelFormat, ErrUnsupported)
	}

	if err := engine.Ops.FormatPrepare(s, &format); err != nil {
		return fmt.Errorf("prepare coded format: %w", err)
	}

	s.Engine = engine
	s.CodedFormat = format

	logrus.WithFields(logrus.Fields{
		"function":   "Session.SetCodedFormat",
		"session_id": s.id,
		"codec":      engine.Codec.String(),
		"width":      format.Width,
		"height":     format.Height,
	}).Debug("Selected codec engine")

	return nil
}

// SetPictureFormat stores the negotiated picture format.
func (s *Session) SetPictureFormat(format Format) error {
	if s.streaming {
		return fmt.Errorf("set picture format: %w", ErrBusy)
	}

	s.PictureFormat = format
	return nil
}

// SetControl validates, stores and prepares one control value through
// the selected engine.
func (s *Session) SetControl(id controls.ID, value interface{}) error {
	if s.Engine == nil {
		return fmt.Errorf("set control %#x: %w", uint32(id), ErrNoEngine)
	}

	if err := s.Engine.Ops.CtrlValidate(s, id, value); err != nil {
		return fmt.Errorf("validate control %#x: %w", uint32(id), err)
	}

	s.Controls.Set(id, value)

	if err := s.Engine.Ops.CtrlPrepare(s, id, value); err != nil {
		return fmt.Errorf("prepare control %#x: %w", uint32(id), err)
	}

	return nil
}

// Start moves the session from Idle to Streaming: acquire power,
// create engine session state and job scratch, then run engine setup.
// Any failure unwinds the prior steps and leaves the session Idle.
func (s *Session) Start() error {
	engine := s.Engine
	if engine == nil {
		return fmt.Errorf("start session: %w", ErrNoEngine)
	}
	if s.streaming {
		return fmt.Errorf("start session: %w", ErrBusy)
	}

	if err := s.proc.power.Get(); err != nil {
		return fmt.Errorf("acquire power: %w", err)
	}

	if engine.NewContext != nil {
		ctx, err := engine.NewContext(s)
		if err != nil {
			s.proc.power.Put()
			return fmt.Errorf("create engine context: %w", err)
		}
		s.EngineCtx = ctx
	}

	if engine.NewJobState != nil {
		job, err := engine.NewJobState(s)
		if err != nil {
			s.EngineCtx = nil
			s.proc.power.Put()
			return fmt.Errorf("create engine job state: %w", err)
		}
		s.EngineJob = job
	}

	if err := engine.Ops.Setup(s); err != nil {
		s.EngineJob = nil
		s.EngineCtx = nil
		s.proc.power.Put()
		return fmt.Errorf("engine setup: %w", err)
	}

	s.streaming = true
	s.haveLastTimestamp = false

	logrus.WithFields(logrus.Fields{
		"function":   "Session.Start",
		"session_id": s.id,
		"codec":      engine.Codec.String(),
		"role":       engine.Role.String(),
	}).Info("Session streaming started")

	return nil
}

// Stop moves the session from Streaming back to Idle: engine cleanup,
// release of both engine states and the power resource. Stop is safe
// to call after a failed Start; it never double-frees.
func (s *Session) Stop() {
	if !s.streaming {
		return
	}

	if s.Engine != nil {
		s.Engine.Ops.Cleanup(s)
	}

	s.EngineJob = nil
	s.EngineCtx = nil
	s.streaming = false

	s.proc.power.Put()

	logrus.WithFields(logrus.Fields{
		"function":   "Session.Stop",
		"session_id": s.id,
	}).Info("Session streaming stopped")
}

// SetupBuffer runs engine buffer setup for one picture buffer.
func (s *Session) SetupBuffer(buf *PictureBuffer) error {
	if s.Engine == nil {
		return fmt.Errorf("buffer setup: %w", ErrNoEngine)
	}

	buf.Position = -1
	return s.Engine.Ops.BufferSetup(s, buf)
}

// CleanupBuffer releases engine-private state of one picture buffer.
func (s *Session) CleanupBuffer(buf *PictureBuffer) {
	if s.Engine == nil {
		return
	}
	s.Engine.Ops.BufferCleanup(s, buf)
}
