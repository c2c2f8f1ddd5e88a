package core

import (
	"errors"
	"sync"

	"github.com/opd-ai/vecore/controls"
	"github.com/opd-ai/vecore/memory"
	"github.com/opd-ai/vecore/registers"
)

// fakeOps is a scriptable engine operation table recording the call
// sequence.
type fakeOps struct {
	NopOps

	mu    sync.Mutex
	calls []string

	setupErr     error
	jobStateErr  error
	prepareErr   error
	formatErr    error
	configureErr error

	irqStatus IRQStatus

	finishOutcomes []Outcome
}

func (f *fakeOps) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeOps) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeOps) Setup(*Session) error {
	f.record("setup")
	return f.setupErr
}

func (f *fakeOps) Cleanup(*Session) {
	f.record("cleanup")
}

func (f *fakeOps) JobPrepare(*Session) error {
	f.record("prepare")
	return f.prepareErr
}

func (f *fakeOps) FormatConfigure(*Session) error {
	f.record("format")
	return f.formatErr
}

func (f *fakeOps) JobConfigure(*Session) error {
	f.record("configure")
	return f.configureErr
}

func (f *fakeOps) JobTrigger(*Session) {
	f.record("trigger")
}

func (f *fakeOps) JobFinish(_ *Session, outcome Outcome) {
	f.mu.Lock()
	f.calls = append(f.calls, "finish")
	f.finishOutcomes = append(f.finishOutcomes, outcome)
	f.mu.Unlock()
}

func (f *fakeOps) IRQStatus(*Session) IRQStatus {
	f.record("irq_status")
	return f.irqStatus
}

func (f *fakeOps) IRQClear(*Session) {
	f.record("irq_clear")
}

func (f *fakeOps) IRQDisable(*Session) {
	f.record("irq_disable")
}

// countingPower counts power transitions.
type countingPower struct {
	mu   sync.Mutex
	gets int
	puts int
	err  error
}

func (c *countingPower) Get() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.gets++
	return nil
}

func (c *countingPower) Put() {
	c.mu.Lock()
	c.puts++
	c.mu.Unlock()
}

// countingCompleter records job completion reports.
type countingCompleter struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (c *countingCompleter) JobDone(_ *Session, outcome Outcome) {
	c.mu.Lock()
	c.outcomes = append(c.outcomes, outcome)
	c.mu.Unlock()
}

func (c *countingCompleter) Outcomes() []Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Outcome, len(c.outcomes))
	copy(out, c.outcomes)
	return out
}

// fakeRequest records control attachment application and completion.
type fakeRequest struct {
	mu        sync.Mutex
	applied   int
	completed int
}

func (r *fakeRequest) Apply(*controls.Handler) {
	r.mu.Lock()
	r.applied++
	r.mu.Unlock()
}

func (r *fakeRequest) Complete() {
	r.mu.Lock()
	r.completed++
	r.mu.Unlock()
}

var errFake = errors.New("injected failure")

type testEnv struct {
	backend   *registers.MemBackend
	ops       *fakeOps
	power     *countingPower
	completer *countingCompleter
	proc      *Proc
	session   *Session
}

func newTestEnv(descriptor func(*fakeOps) *Descriptor) *testEnv {
	env := &testEnv{
		backend:   registers.NewMemBackend(),
		ops:       &fakeOps{irqStatus: IRQSuccess},
		power:     &countingPower{},
		completer: &countingCompleter{},
	}

	desc := descriptor(env.ops)

	env.proc = NewProc(ProcConfig{
		Role:         desc.Role,
		Block:        registers.NewBlock(env.backend),
		Memory:       memory.NewArena(0x4000_0000, 16<<20),
		Capabilities: desc.Capability,
		Engines:      []*Descriptor{desc},
		Power:        env.power,
		Completer:    env.completer,
	})

	env.session = env.proc.NewSession()
	return env
}

func testDescriptor(ops *fakeOps) *Descriptor {
	return &Descriptor{
		Codec:       CodecH264,
		Role:        RoleDecoder,
		Capability:  CapH264Dec,
		PixelFormat: PixFmtH264Slice,
		Ops:         ops,
	}
}
