package h264

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/vecore/bitstream"
	"github.com/opd-ai/vecore/controls"
	"github.com/opd-ai/vecore/core"
	"github.com/opd-ai/vecore/encode"
	"github.com/opd-ai/vecore/memory"
	"github.com/opd-ai/vecore/registers"
)

type recordingCompleter struct {
	outcomes []core.Outcome
}

func (c *recordingCompleter) JobDone(_ *core.Session, outcome core.Outcome) {
	c.outcomes = append(c.outcomes, outcome)
}

type testEnv struct {
	backend   *registers.MemBackend
	proc      *core.Proc
	session   *core.Session
	completer *recordingCompleter
	timestamp uint64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	backend := registers.NewMemBackend()

	// The put-bits port reports ready and the encoder pipeline reports
	// idle, whatever else is stored in the status registers.
	backend.OnRead(regStatus, func(current uint32) uint32 {
		return current | statusPutBitsReady
	})
	backend.OnRead(core.RegVEReset, func(current uint32) uint32 {
		return current | core.VEResetCacheSyncIdle | core.VEResetSyncIdle
	})

	completer := &recordingCompleter{}

	p := core.NewProc(core.ProcConfig{
		Role:         core.RoleEncoder,
		Block:        registers.NewBlock(backend),
		Memory:       memory.NewArena(0x1000_0000, 64<<20),
		Capabilities: core.CapH264Enc,
		Engines:      []*core.Descriptor{Engine},
		Completer:    completer,
		Picture:      encode.PictureConfigurer{},
	})

	s := p.NewSession()
	require.NoError(t, s.SetPictureFormat(core.Format{
		PixelFormat:  core.PixFmtNV12,
		Width:        1280,
		Height:       720,
		BytesPerLine: 1280,
		SizeImage:    1280 * 720 * 3 / 2,
	}))
	require.NoError(t, s.SetCodedFormat(core.Format{
		PixelFormat: core.PixFmtH264,
	}))

	require.NoError(t, s.Start())
	t.Cleanup(s.Stop)

	return &testEnv{
		backend:   backend,
		proc:      p,
		session:   s,
		completer: completer,
	}
}

func dispatch(t *testing.T, env *testEnv) *core.CodedBuffer {
	t.Helper()

	env.timestamp++
	coded := &core.CodedBuffer{
		Addr:      0x4000,
		Size:      0x8000,
		Timestamp: env.timestamp,
	}
	require.NoError(t, env.proc.RunJob(env.session, &core.JobRequest{
		Coded:   coded,
		Picture: &core.PictureBuffer{LumaAddr: 0x3000, ChromaAddr: 0x3800},
	}))
	return coded
}

// finishJob completes the in-flight job as the hardware would: the
// coded stream length lands in the bit-length register and the finish
// status raises the interrupt.
func finishJob(t *testing.T, env *testEnv, streamBits uint32) {
	t.Helper()

	env.backend.Set(regStmBitLen, streamBits)
	env.backend.Set(regStatus, statusFinish)
	require.True(t, env.proc.HandleIRQ())
	env.backend.Set(regStatus, 0)
}

// headerBytes reassembles the byte stream pushed through the put-bits
// port from the recorded register writes.
func headerBytes(t *testing.T, backend *registers.MemBackend) []byte {
	t.Helper()

	sink := &bitstream.BufferSink{}
	var value uint32
	pending := false

	for _, w := range backend.Writes() {
		switch w.Offset {
		case regPutBitsData:
			value = w.Value
			pending = true
		case regStartTrig:
			if pending && w.Value&0xf == trigTypePutBits {
				count := int(w.Value>>8) & 0x3f
				require.NoError(t, sink.PutBits(value, count))
			}
			pending = false
		}
	}
	return sink.Bytes()
}

func startCode(naluByte byte) []byte {
	return []byte{0x00, 0x00, 0x00, 0x01, naluByte}
}

func TestSetupAllocatesMbInfo(t *testing.T) {
	env := newTestEnv(t)

	state := env.session.EngineCtx.(*sessionState)
	require.NotNil(t, state.mbInfo)

	assert.Equal(t, uint32(80), state.widthMbs)
	assert.Equal(t, uint32(45), state.heightMbs)
	assert.Equal(t, 3*4096, state.mbInfo.Size())
}

func TestStreamWindowRegisters(t *testing.T) {
	env := newTestEnv(t)
	dispatch(t, env)

	assert.Equal(t, uint32(0x4000), env.backend.Read32(regStmStartAddr))
	assert.Equal(t, uint32(0xbfff), env.backend.Read32(regStmEndAddr))
	assert.Equal(t, uint32(0x8000*8), env.backend.Read32(regStmBitMax))
	assert.Equal(t, uint32(0), env.backend.Read32(regStmBitOffset))
}

func TestFirstFrameEmitsHeaders(t *testing.T) {
	env := newTestEnv(t)
	dispatch(t, env)

	stream := headerBytes(t, env.backend)
	require.GreaterOrEqual(t, len(stream), 16)

	// SPS first, with the default main profile at level 3.1.
	assert.Equal(t, startCode(0x67), stream[:5])
	assert.Equal(t, byte(77), stream[5])
	assert.Equal(t, byte(0x40), stream[6])
	assert.Equal(t, byte(31), stream[7])

	assert.True(t, bytes.Contains(stream, startCode(0x68)))
	assert.True(t, bytes.Contains(stream, startCode(0x45)))

	// Emulation prevention was held off while the headers streamed and
	// restored before the final parameter value landed.
	para0 := env.backend.WritesTo(regPara0)
	require.GreaterOrEqual(t, len(para0), 3)
	assert.Equal(t, para0EPTBDis, para0[0])
	assert.Equal(t, uint32(0), para0[1])
	assert.Zero(t, para0[len(para0)-1]&para0EPTBDis)
}

func TestSecondFrameSliceOnly(t *testing.T) {
	env := newTestEnv(t)

	dispatch(t, env)
	finishJob(t, env, 8000)

	env.backend.ResetWrites()
	dispatch(t, env)

	stream := headerBytes(t, env.backend)
	require.GreaterOrEqual(t, len(stream), 5)

	assert.Equal(t, startCode(0x41), stream[:5])
	assert.False(t, bytes.Contains(stream, startCode(0x67)))
	assert.False(t, bytes.Contains(stream, startCode(0x68)))
}

func TestHeaderEmissionFailureRetriesHeaders(t *testing.T) {
	env := newTestEnv(t)

	// The put-bits port never reports ready for the first job.
	ready := false
	env.backend.OnRead(regStatus, func(current uint32) uint32 {
		if !ready {
			return current &^ statusPutBitsReady
		}
		return current | statusPutBitsReady
	})

	env.timestamp++
	err := env.proc.RunJob(env.session, &core.JobRequest{
		Coded: &core.CodedBuffer{
			Addr:      0x4000,
			Size:      0x8000,
			Timestamp: env.timestamp,
		},
		Picture: &core.PictureBuffer{LumaAddr: 0x3000, ChromaAddr: 0x3800},
	})
	require.ErrorIs(t, err, registers.ErrPollTimeout)
	assert.Equal(t, []core.Outcome{core.OutcomeError}, env.completer.outcomes)

	// With the port back, the next job emits the full header set; the
	// failed job's stream never reached the output.
	ready = true
	env.backend.ResetWrites()
	dispatch(t, env)

	stream := headerBytes(t, env.backend)
	require.GreaterOrEqual(t, len(stream), 16)

	assert.Equal(t, startCode(0x67), stream[:5])
	assert.True(t, bytes.Contains(stream, startCode(0x68)))
	assert.True(t, bytes.Contains(stream, startCode(0x41)))
}

func TestClosedGOPKeyFrameInterval(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t,
		env.session.SetControl(controls.IDEncGOPSize, int32(2)))

	var flags []core.BufferFlags
	for i := 0; i < 4; i++ {
		coded := dispatch(t, env)
		finishJob(t, env, 8000)
		flags = append(flags, coded.Flags)
	}

	assert.Equal(t, []core.BufferFlags{
		core.FlagKeyFrame,
		core.FlagPFrame,
		core.FlagKeyFrame,
		core.FlagPFrame,
	}, flags)
}

func TestOpenGOPPeriodicIFrames(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t,
		env.session.SetControl(controls.IDEncGOPClosure, false))
	require.NoError(t,
		env.session.SetControl(controls.IDEncIPeriod, int32(4)))

	var flags []core.BufferFlags
	var nalu []byte
	for i := 0; i < 13; i++ {
		env.backend.ResetWrites()
		coded := dispatch(t, env)

		stream := headerBytes(t, env.backend)
		require.GreaterOrEqual(t, len(stream), 5)
		nalu = append(nalu, stream[4])

		finishJob(t, env, 8000)
		flags = append(flags, coded.Flags)
	}

	assert.Equal(t, []core.BufferFlags{
		core.FlagKeyFrame,
		core.FlagPFrame, core.FlagPFrame, core.FlagPFrame,
		core.FlagKeyFrame,
		core.FlagPFrame, core.FlagPFrame, core.FlagPFrame,
		core.FlagKeyFrame,
		core.FlagPFrame, core.FlagPFrame, core.FlagPFrame,
		core.FlagKeyFrame,
	}, flags)

	// Frame 0 opens with the parameter sets and an IDR slice. The
	// periodic intra frames stay inside the open GOP: plain non-IDR
	// slices, no header re-emission, even past the GOP size.
	assert.Equal(t, byte(0x67), nalu[0])
	for i, b := range nalu[1:] {
		assert.Equal(t, byte(0x41), b, "frame %d", i+1)
	}
}

func TestForceKeyFrame(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t,
		env.session.SetControl(controls.IDEncPrependSPSPPSToIDR, true))

	dispatch(t, env)
	finishJob(t, env, 8000)
	dispatch(t, env)
	finishJob(t, env, 8000)

	require.NoError(t,
		env.session.SetControl(controls.IDEncForceKeyFrame, true))

	env.backend.ResetWrites()
	coded := dispatch(t, env)
	finishJob(t, env, 8000)

	assert.Equal(t, core.FlagKeyFrame, coded.Flags)

	stream := headerBytes(t, env.backend)
	assert.True(t, bytes.Contains(stream, startCode(0x67)))
	assert.True(t, bytes.Contains(stream, startCode(0x68)))
	assert.True(t, bytes.Contains(stream, startCode(0x45)))

	// One-shot: the following frame is an ordinary P frame again.
	next := dispatch(t, env)
	finishJob(t, env, 8000)
	assert.Equal(t, core.FlagPFrame, next.Flags)
}

func TestProfileChangeReemitsSPS(t *testing.T) {
	env := newTestEnv(t)

	dispatch(t, env)
	finishJob(t, env, 8000)

	require.NoError(t,
		env.session.SetControl(controls.IDEncH264Profile, int32(100)))

	env.backend.ResetWrites()
	dispatch(t, env)

	stream := headerBytes(t, env.backend)
	require.GreaterOrEqual(t, len(stream), 8)

	assert.Equal(t, startCode(0x67), stream[:5])
	assert.Equal(t, byte(100), stream[5])
	assert.True(t, bytes.Contains(stream, startCode(0x68)))
}

func TestEntropyChangeReemitsPPS(t *testing.T) {
	env := newTestEnv(t)

	dispatch(t, env)
	finishJob(t, env, 8000)

	require.NoError(t,
		env.session.SetControl(controls.IDEncH264EntropyMode,
			controls.EncH264EntropyCABAC))

	env.backend.ResetWrites()
	dispatch(t, env)

	stream := headerBytes(t, env.backend)
	require.GreaterOrEqual(t, len(stream), 5)

	assert.Equal(t, startCode(0x68), stream[:5])
	assert.False(t, bytes.Contains(stream, startCode(0x67)))
}

func TestCABACRequiresCompatibleProfile(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t,
		env.session.SetControl(controls.IDEncH264Profile, int32(66)))

	err := env.session.SetControl(controls.IDEncH264EntropyMode,
		controls.EncH264EntropyCABAC)
	require.ErrorIs(t, err, core.ErrUnsupported)
}

func TestBaselineProfileDropsCABAC(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t,
		env.session.SetControl(controls.IDEncH264EntropyMode,
			controls.EncH264EntropyCABAC))

	require.NoError(t,
		env.session.SetControl(controls.IDEncH264Profile, int32(66)))

	assert.Equal(t, controls.EncH264EntropyCAVLC,
		env.session.Controls.IntDefault(controls.IDEncH264EntropyMode,
			controls.EncH264EntropyCABAC))
}

func TestQPClamped(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t,
		env.session.SetControl(controls.IDEncH264IFrameQP, int32(50)))

	dispatch(t, env)

	para1 := env.backend.Read32(regPara1)
	assert.Equal(t, uint32(40), para1&0xff)
}

func TestEncodeParamRegisters(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t,
		env.session.SetControl(controls.IDEncH264EntropyMode,
			controls.EncH264EntropyCABAC))
	require.NoError(t,
		env.session.SetControl(controls.IDEncH264LoopFilterAlpha, int32(2)))
	require.NoError(t,
		env.session.SetControl(controls.IDEncH264LoopFilterBeta, int32(-2)))

	dispatch(t, env)
	finishJob(t, env, 8000)
	dispatch(t, env)

	// P frame with CABAC: init idc 1, alpha 2, beta -2.
	expected := (uint32(0xe) << para0BetaOffsetShift) |
		(uint32(2) << para0AlphaOffsetShift) |
		(uint32(1) << para0FixModeNumShift) |
		para0EntropyCABAC |
		para0SliceTypeP
	assert.Equal(t, expected, env.backend.Read32(regPara0))

	// Fixed QP 28 for P frames, chroma offset 4, 1280-byte stride.
	assert.Equal(t,
		para1RCModeFixed|
			uint32(2)<<para1StrideMbsDiv48Shift|
			uint32(4)<<para1QPChromaOffsetShift|
			uint32(28),
		env.backend.Read32(regPara1))

	assert.Equal(t,
		meParaWbMvInfoDis|uint32(2)<<meParaFMESearchLevelShift,
		env.backend.Read32(regMEPara))
}

func TestReconstructionBuffers(t *testing.T) {
	env := newTestEnv(t)

	dispatch(t, env)

	recY := env.backend.Read32(regRecAddrY)
	recC := env.backend.Read32(regRecAddrC)
	require.NotZero(t, recY)

	// 80x45 macroblocks: 80*16 luma stride, 46 rows aligned to 4.
	lumaSize := uint32(80 * 16 * 48 * 16)
	assert.Equal(t, recY+lumaSize, recC)

	// An IDR has no previous frame; the reference is its own target.
	assert.Equal(t, recY, env.backend.Read32(regRef0AddrY))
	assert.Equal(t, recC, env.backend.Read32(regRef0AddrC))

	subpixNew := env.backend.Read32(regSubpixAddrNew)
	assert.Equal(t, subpixNew, env.backend.Read32(regSubpixAddrLast))

	finishJob(t, env, 8000)
	dispatch(t, env)

	// The P frame references the previous reconstruction and swaps the
	// subpixel buffers.
	assert.NotEqual(t, recY, env.backend.Read32(regRecAddrY))
	assert.Equal(t, recY, env.backend.Read32(regRef0AddrY))
	assert.Equal(t, recC, env.backend.Read32(regRef0AddrC))
	assert.Equal(t, subpixNew, env.backend.Read32(regSubpixAddrLast))
	assert.NotEqual(t, subpixNew, env.backend.Read32(regSubpixAddrNew))
}

func TestTriggerStartsEncode(t *testing.T) {
	env := newTestEnv(t)
	dispatch(t, env)

	assert.Equal(t, intFinish|intStall, env.backend.Read32(regIntEnable))

	trigs := env.backend.WritesTo(regStartTrig)
	require.NotEmpty(t, trigs)
	assert.Equal(t, trigEncodeModeH264|trigTypeEncStart, trigs[len(trigs)-1])
}

func TestJobFinishPayload(t *testing.T) {
	env := newTestEnv(t)

	coded := dispatch(t, env)
	finishJob(t, env, 8000)

	assert.Equal(t, uint32(1000), coded.PayloadSize)
	assert.Equal(t, core.FlagKeyFrame, coded.Flags)

	failed := dispatch(t, env)
	env.backend.Set(regStatus, statusStall)
	require.True(t, env.proc.HandleIRQ())

	assert.Equal(t, uint32(0), failed.PayloadSize)
	assert.Zero(t, failed.Flags)

	assert.Equal(t,
		[]core.Outcome{core.OutcomeDone, core.OutcomeError},
		env.completer.outcomes)
}

func TestIRQClassification(t *testing.T) {
	tests := []struct {
		name   string
		status uint32
		want   core.IRQStatus
	}{
		{"none", 0, core.IRQNone},
		{"finish", statusFinish, core.IRQSuccess},
		{"stall", statusStall, core.IRQError},
		{"finish and stall", statusFinish | statusStall, core.IRQSuccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.backend.Set(regStatus, tt.status)

			assert.Equal(t, tt.want, Engine.Ops.IRQStatus(env.session))
		})
	}
}
