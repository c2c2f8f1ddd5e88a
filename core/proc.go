package core

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/opd-ai/vecore/controls"
	"github.com/opd-ai/vecore/memory"
	"github.com/opd-ai/vecore/metrics"
	"github.com/opd-ai/vecore/registers"
)

// ProcConfig configures one processing unit.
type ProcConfig struct {
	Role         Role
	Block        *registers.Block
	Memory       memory.Allocator
	Capabilities Capability

	// Engines lists the candidate engine descriptors; those whose
	// capability requirements are not met are left out.
	Engines []*Descriptor

	Power     PowerController
	Completer Completer

	// Picture is the optional picture-format collaborator invoked
	// between coded-format and codec-specific job configuration.
	Picture PictureConfigurer

	// Metrics is optional; nil disables instrumentation.
	Metrics *metrics.Metrics

	// WatchdogTimeout overrides DefaultWatchdogTimeout when non-zero.
	WatchdogTimeout time.Duration
}

// Proc is one processing unit: all sessions sharing one physical
// hardware instance. It serializes job execution and tracks the active
// session for interrupt attribution.
type Proc struct {
	role         Role
	block        *registers.Block
	mem          memory.Allocator
	capabilities Capability
	engines      []*Descriptor
	power        PowerController
	completer    Completer
	picture      PictureConfigurer
	metrics      *metrics.Metrics
	watchdog     *Watchdog

	// admission enforces the one-job-in-flight invariant.
	admission *semaphore.Weighted

	activeMu sync.Mutex
	active   *Session

	nextSessionID atomic.Uint64
}

// NewProc creates a processing unit, keeping only the engines whose
// capability requirements the hardware variant satisfies.
func NewProc(config ProcConfig) *Proc {
	p := &Proc{
		role:         config.Role,
		block:        config.Block,
		mem:          config.Memory,
		capabilities: config.Capabilities,
		power:        config.Power,
		completer:    config.Completer,
		picture:      config.Picture,
		metrics:      config.Metrics,
		watchdog:     NewWatchdog(config.WatchdogTimeout),
		admission:    semaphore.NewWeighted(1),
	}

	if p.power == nil {
		p.power = NopPower{}
	}

	for _, engine := range config.Engines {
		if engine.Role != config.Role {
			continue
		}
		if !p.capabilities.Has(engine.Capability) {
			continue
		}
		p.engines = append(p.engines, engine)
	}

	return p
}

// Role returns the unit's direction.
func (p *Proc) Role() Role {
	return p.role
}

// Block returns the unit's register block.
func (p *Proc) Block() *registers.Block {
	return p.block
}

// Capabilities returns the hardware variant capability mask.
func (p *Proc) Capabilities() Capability {
	return p.capabilities
}

// Engines returns the enabled engine descriptors.
func (p *Proc) Engines() []*Descriptor {
	return p.engines
}

// FindEngine returns the enabled engine serving the coded pixel
// format, or nil.
func (p *Proc) FindEngine(pixelFormat uint32) *Descriptor {
	for _, engine := range p.engines {
		if engine.PixelFormat == pixelFormat {
			return engine
		}
	}
	return nil
}

// NewSession creates an idle session on this unit.
func (p *Proc) NewSession() *Session {
	return &Session{
		proc:     p,
		id:       p.nextSessionID.Add(1),
		Controls: controls.NewHandler(),
	}
}

// ActiveSession returns the session currently attributed interrupts,
// or nil.
func (p *Proc) ActiveSession() *Session {
	p.activeMu.Lock()
	defer p.activeMu.Unlock()
	return p.active
}

func (p *Proc) setActive(s *Session) {
	p.activeMu.Lock()
	p.active = s
	p.activeMu.Unlock()
}

func (p *Proc) clearActive(s *Session) {
	p.activeMu.Lock()
	if p.active == s {
		p.active = nil
	}
	p.activeMu.Unlock()
}

// RunJob dispatches one job on the session, implementing the dispatch
// protocol: zero job state, resolve buffers, apply request controls,
// prepare, configure formats, configure the job, mark the session
// active, arm the watchdog and trigger the hardware.
//
// Errors before the trigger finish the job on the error path; the
// request attachment is completed exactly once either way.
func (p *Proc) RunJob(s *Session, req *JobRequest) error {
	engine := s.Engine
	if engine == nil {
		return fmt.Errorf("run job: %w", ErrNoEngine)
	}
	if !s.streaming {
		return fmt.Errorf("run job: %w", ErrNotStreaming)
	}
	if !p.admission.TryAcquire(1) {
		return fmt.Errorf("run job: %w", ErrBusy)
	}

	p.metrics.JobStarted()

	// Clear job data.
	s.Job = Job{}

	if engine.NewJobState != nil {
		jobState, err := engine.NewJobState(s)
		if err != nil {
			p.jobError(s, req, "job state", err)
			return fmt.Errorf("create engine job state: %w", err)
		}
		s.EngineJob = jobState
	}

	s.Job.Coded = req.Coded
	s.Job.Picture = req.Picture

	// Setup request controls.
	if req.Request != nil {
		req.Request.Apply(s.Controls)
	}

	// Copy buffer timing metadata from source to destination.
	if req.Coded != nil && req.Picture != nil {
		req.Picture.Timestamp = req.Coded.Timestamp
	}

	if req.Coded != nil {
		s.Job.FirstSlice = !s.haveLastTimestamp ||
			s.lastTimestamp != req.Coded.Timestamp
		s.lastTimestamp = req.Coded.Timestamp
		s.haveLastTimestamp = true
	}

	if err := engine.Ops.JobPrepare(s); err != nil {
		p.jobError(s, req, "prepare engine job", err)
		return fmt.Errorf("prepare engine job: %w", err)
	}

	if err := engine.Ops.FormatConfigure(s); err != nil {
		p.jobError(s, req, "configure coded format", err)
		return fmt.Errorf("configure coded format: %w", err)
	}

	if p.picture != nil {
		if err := p.picture.Configure(s); err != nil {
			p.jobError(s, req, "configure picture format", err)
			return fmt.Errorf("configure picture format: %w", err)
		}
	}

	if err := engine.Ops.JobConfigure(s); err != nil {
		p.jobError(s, req, "configure engine job", err)
		return fmt.Errorf("configure engine job: %w", err)
	}

	// Complete request controls.
	if req.Request != nil {
		req.Request.Complete()
	}

	// Keep track of the active session for interrupt attribution.
	p.setActive(s)

	// Schedule the watchdog, then start the hardware.
	p.watchdog.Arm(func() {
		p.watchdogExpired(s)
	})

	engine.Ops.JobTrigger(s)

	return nil
}

// jobError completes a job that failed before the hardware trigger.
func (p *Proc) jobError(s *Session, req *JobRequest, stage string, err error) {
	logrus.WithFields(logrus.Fields{
		"function":   "Proc.RunJob",
		"session_id": s.id,
		"codec":      s.Engine.Codec.String(),
		"stage":      stage,
		"error":      err,
	}).Error("Job dispatch failed")

	if req != nil && req.Request != nil {
		req.Request.Complete()
	}

	p.finishJob(s, OutcomeError)
}

// HandleIRQ services one hardware interrupt for this unit. It returns
// false when the interrupt is not attributable to a dispatched job
// here, so a device-level handler can try the other unit or treat the
// interrupt as spurious.
func (p *Proc) HandleIRQ() bool {
	s := p.ActiveSession()
	if s == nil {
		return false
	}

	status := s.Engine.Ops.IRQStatus(s)
	if status == IRQNone {
		// Nothing pending on this engine; the job stays outstanding
		// and the watchdog still covers it.
		p.metrics.SpuriousIRQ()
		logrus.WithFields(logrus.Fields{
			"function":   "Proc.HandleIRQ",
			"session_id": s.id,
		}).Warn("Interrupt with no engine status")
		return false
	}

	// If the claim is lost the watchdog already executed and finished
	// the job.
	if !p.watchdog.Cancel() {
		s.Engine.Ops.IRQDisable(s)
		s.Engine.Ops.IRQClear(s)
		p.metrics.SpuriousIRQ()
		logrus.WithFields(logrus.Fields{
			"function":   "Proc.HandleIRQ",
			"session_id": s.id,
		}).Warn("Interrupt after watchdog completion")
		return true
	}

	s.Engine.Ops.IRQDisable(s)
	s.Engine.Ops.IRQClear(s)

	outcome := OutcomeDone
	if status == IRQError {
		outcome = OutcomeError
	}

	p.finishJob(s, outcome)

	return true
}

// ClearSpurious disables and clears interrupts on the flagged active
// session, if any. Used for interrupts no unit claims.
func (p *Proc) ClearSpurious() {
	p.activeMu.Lock()
	s := p.active
	if s != nil {
		s.Engine.Ops.IRQDisable(s)
		s.Engine.Ops.IRQClear(s)
	}
	p.activeMu.Unlock()
}

// watchdogExpired runs on the watchdog path after it won the
// completion claim: reset the hardware and fail the job.
func (p *Proc) watchdogExpired(s *Session) {
	logrus.WithFields(logrus.Fields{
		"function":   "Proc.watchdogExpired",
		"session_id": s.id,
		"codec":      s.Engine.Codec.String(),
		"error":      ErrHardwareTimeout,
	}).Error("Frame processing timed out")

	s.Engine.Ops.IRQDisable(s)
	s.Engine.Ops.IRQClear(s)

	p.ResetHardware()
	p.metrics.WatchdogReset()

	p.finishJob(s, OutcomeTimedOut)
}

// ResetHardware cycles the engine reset line.
func (p *Proc) ResetHardware() {
	p.block.Write(RegVEMode, VEModeDisabled)
	p.block.Write(RegVEReset, 1)
	p.block.Write(RegVEReset, 0)
}

// finishJob completes the in-flight job exactly once: engine
// bookkeeping, job clear, active-session clear, completion report and
// admission release.
func (p *Proc) finishJob(s *Session, outcome Outcome) {
	s.Engine.Ops.JobFinish(s, outcome)

	s.Job = Job{}
	p.clearActive(s)

	p.metrics.JobFinished(s.Engine.Codec.String(), outcome.String())

	logrus.WithFields(logrus.Fields{
		"function":   "Proc.finishJob",
		"session_id": s.id,
		"codec":      s.Engine.Codec.String(),
		"outcome":    outcome.String(),
	}).Info("Job finished")

	if p.completer != nil {
		p.completer.JobDone(s, outcome)
	}

	p.admission.Release(1)
}
