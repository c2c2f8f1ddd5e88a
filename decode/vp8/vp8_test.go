package vp8

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/vecore/controls"
	"github.com/opd-ai/vecore/core"
	"github.com/opd-ai/vecore/decode"
	"github.com/opd-ai/vecore/memory"
	"github.com/opd-ai/vecore/registers"
)

type bufferMap map[uint64]*core.PictureBuffer

func (m bufferMap) ByTimestamp(timestamp uint64) *core.PictureBuffer {
	return m[timestamp]
}

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
	refs      bufferMap
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	backend := registers.NewMemBackend()
	completer := &recordingCompleter{}

	p := core.NewProc(core.ProcConfig{
		Role:         core.RoleDecoder,
		Block:        registers.NewBlock(backend),
		Memory:       memory.NewArena(0x1000_0000, 64<<20),
		Capabilities: core.CapVP8Dec,
		Engines:      []*core.Descriptor{Engine},
		Completer:    completer,
		Picture:      decode.PictureConfigurer{},
	})

	s := p.NewSession()
	require.NoError(t, s.SetCodedFormat(core.Format{
		PixelFormat: core.PixFmtVP8Frame,
		Width:       1280,
		Height:      720,
	}))
	require.NoError(t, s.SetPictureFormat(core.Format{
		PixelFormat:  core.PixFmtNV12,
		Width:        1280,
		Height:       720,
		BytesPerLine: 1280,
		SizeImage:    1280 * 720 * 3 / 2,
	}))

	refs := bufferMap{
		100: {LumaAddr: 0x2000, ChromaAddr: 0x2800, Timestamp: 100},
		200: {LumaAddr: 0x5000, ChromaAddr: 0x5800, Timestamp: 200},
	}
	s.Buffers = refs

	frame := &controls.VP8Frame{
		Width:   1280,
		Height:  720,
		Version: 1,

		Segment: controls.VP8Segment{
			QuantUpdate:    [4]int8{1, -2, 3, -4},
			LfUpdate:       [4]int8{-1, 2, -3, 4},
			SegmentProbs:   [3]uint8{10, 20, 30},
			Enabled:        true,
			DeltaValueMode: true,
		},
		LoopFilter: controls.VP8LoopFilter{
			RefFrmDelta:    [4]int8{2, -2, 4, -4},
			MbModeDelta:    [4]int8{1, -1, 3, -3},
			SharpnessLevel: 3,
			Level:          20,
			FilterSimple:   true,
		},
		Quantization: controls.VP8Quantization{
			YAcQi:     50,
			YDcDelta:  2,
			Y2DcDelta: -3,
			Y2AcDelta: 4,
			UvDcDelta: -5,
			UvAcDelta: 6,
		},
		CoderState: controls.VP8CoderState{
			Range:    0xfa,
			Value:    0x12,
			BitCount: 5,
		},

		ProbSkipFalse: 0xaa,
		ProbIntra:     0xbb,
		ProbLast:      0xcc,
		ProbGf:        0xdd,

		NumDCTParts:         2,
		FirstPartSize:       0x40,
		FirstPartHeaderBits: 97,

		LastFrameTimestamp:   100,
		GoldenFrameTimestamp: 200,
		AltFrameTimestamp:    999,

		ShowFrame:      true,
		MbNoSkipCoeff:  true,
		SignBiasGolden: true,
	}
	require.NoError(t, s.SetControl(controls.IDVP8Frame, frame))

	require.NoError(t, s.Start())
	t.Cleanup(s.Stop)

	return &testEnv{
		backend:   backend,
		proc:      p,
		session:   s,
		completer: completer,
		refs:      refs,
	}
}

func frameControl(t *testing.T, env *testEnv) *controls.VP8Frame {
	t.Helper()

	value, err := env.session.Controls.Get(controls.IDVP8Frame)
	require.NoError(t, err)
	return value.(*controls.VP8Frame)
}

func codedRequest() *core.JobRequest {
	return &core.JobRequest{
		Coded: &core.CodedBuffer{
			Addr:        0x4000,
			Size:        0x8000,
			PayloadSize: 0x600,
			Timestamp:   300,
		},
		Picture: &core.PictureBuffer{LumaAddr: 0x3000, ChromaAddr: 0x3800},
	}
}

func dispatch(t *testing.T, env *testEnv) {
	t.Helper()
	require.NoError(t, env.proc.RunJob(env.session, codedRequest()))
}

// finishJob acknowledges a successful decode so another frame can be
// dispatched.
func finishJob(t *testing.T, env *testEnv) {
	t.Helper()

	env.backend.Set(regStatus, statusSuccess)
	require.True(t, env.proc.HandleIRQ())
}

func TestSetupAllocatesProbsBuffer(t *testing.T) {
	env := newTestEnv(t)

	state := env.session.EngineCtx.(*sessionState)
	require.NotNil(t, state.probs)
	assert.Equal(t, entropyProbsSize, state.probs.Size())
}

func TestBitstreamWindow(t *testing.T) {
	env := newTestEnv(t)
	dispatch(t, env)

	// The window covers the whole frame; the boolean coder resumes at
	// the header boundary and the first partition length is in bits.
	assert.Equal(t, []uint32{97}, env.backend.WritesTo(regVLDOffset))
	assert.Equal(t, []uint32{0x600 * 8}, env.backend.WritesTo(regVLDLen))
	assert.Equal(t, []uint32{0x4000 + 0x600}, env.backend.WritesTo(regVLDEnd))
	assert.Equal(t, []uint32{
		0x4000>>4 | vldAddrFirst | vldAddrValid | vldAddrLast,
	}, env.backend.WritesTo(regVLDAddr))
	assert.Equal(t, []uint32{0x40 * 8}, env.backend.WritesTo(regFirstPartLen))

	assert.Equal(t, []uint32{1280<<16 | 720}, env.backend.WritesTo(regPicSize))
	assert.Equal(t, []uint32{triggerFrameDecode},
		env.backend.WritesTo(regTrigger))
}

func TestPictureHeader(t *testing.T) {
	env := newTestEnv(t)
	dispatch(t, env)

	// Fresh session: all last-frame fields are zero.
	want := uint32(1)<<picHdrVersionShift |
		picHdrShowFrame |
		picHdrSegmentEnabled |
		picHdrSegmentDeltaMode |
		picHdrMbNoSkipCoeff |
		picHdrFilterSimple |
		20<<picHdrFilterLevelShift |
		3<<picHdrSharpnessShift |
		picHdrSignBiasGolden |
		2<<picHdrNumPartsShift
	assert.Equal(t, []uint32{want}, env.backend.WritesTo(regPicHdr))
}

func TestFilterStateCarriedAcrossFrames(t *testing.T) {
	env := newTestEnv(t)
	dispatch(t, env)
	finishJob(t, env)
	env.backend.ResetWrites()

	frame := frameControl(t, env)
	frame.LoopFilter.FilterSimple = false
	frame.LoopFilter.SharpnessLevel = 5

	dispatch(t, env)

	hdrs := env.backend.WritesTo(regPicHdr)
	require.Len(t, hdrs, 1)
	hdr := hdrs[0]

	// The previous frame's settings land in the last-frame fields.
	assert.NotZero(t, hdr&picHdrLastFilterSimple)
	assert.NotZero(t, hdr&picHdrLastFrameP)
	assert.Equal(t, uint32(3), hdr>>picHdrLastSharpnessShift&0x7)

	// The current frame's own fields reflect the updated control.
	assert.Zero(t, hdr&picHdrFilterSimple)
	assert.Equal(t, uint32(5), hdr>>picHdrSharpnessShift&0x7)
}

func TestKeyFrameResetsLastFrameFlag(t *testing.T) {
	env := newTestEnv(t)

	frame := frameControl(t, env)
	frame.KeyFrame = true

	dispatch(t, env)
	finishJob(t, env)
	env.backend.ResetWrites()

	frame.KeyFrame = false
	dispatch(t, env)

	hdrs := env.backend.WritesTo(regPicHdr)
	require.Len(t, hdrs, 1)
	assert.Zero(t, hdrs[0]&picHdrLastFrameP)
}

func TestSegmentAndFilterRegisters(t *testing.T) {
	env := newTestEnv(t)
	dispatch(t, env)

	assert.Equal(t, []uint32{0xfc03fe01},
		env.backend.WritesTo(regSegmentQuant))
	assert.Equal(t, []uint32{0x04fd02ff},
		env.backend.WritesTo(regSegmentLF))
	assert.Equal(t, []uint32{0xfc04fe02},
		env.backend.WritesTo(regLFRefDeltas))
	assert.Equal(t, []uint32{0xfd03ff01},
		env.backend.WritesTo(regLFModeDeltas))
}

func TestQuantRegisters(t *testing.T) {
	env := newTestEnv(t)
	dispatch(t, env)

	assert.Equal(t, []uint32{0x04fd0232}, env.backend.WritesTo(regQuant0))
	assert.Equal(t, []uint32{0x06fb}, env.backend.WritesTo(regQuant1))
}

func TestCoderStateRegister(t *testing.T) {
	env := newTestEnv(t)
	dispatch(t, env)

	assert.Equal(t, []uint32{0x00fa1205},
		env.backend.WritesTo(regCoderState))
}

func TestReferenceAddresses(t *testing.T) {
	env := newTestEnv(t)
	dispatch(t, env)

	assert.Equal(t, []uint32{0x2000}, env.backend.WritesTo(regRefLastLuma))
	assert.Equal(t, []uint32{0x2800}, env.backend.WritesTo(regRefLastChroma))
	assert.Equal(t, []uint32{0x5000}, env.backend.WritesTo(regRefGoldenLuma))
	assert.Equal(t, []uint32{0x5800}, env.backend.WritesTo(regRefGoldenChroma))

	// The altref timestamp matches no queued buffer.
	assert.Equal(t, []uint32{0}, env.backend.WritesTo(regRefAltLuma))
	assert.Equal(t, []uint32{0}, env.backend.WritesTo(regRefAltChroma))

	assert.Equal(t, []uint32{0x3000}, env.backend.WritesTo(regOutLuma))
	assert.Equal(t, []uint32{0x3800}, env.backend.WritesTo(regOutChroma))
}

func TestProbsUploaded(t *testing.T) {
	env := newTestEnv(t)

	frame := frameControl(t, env)
	for i := range frame.Entropy.CoeffProbs[1][2][1] {
		frame.Entropy.CoeffProbs[1][2][1][i] = uint8(i + 1)
	}
	frame.Entropy.YModeProbs = [4]uint8{0x11, 0x22, 0x33, 0x44}
	frame.Entropy.UvModeProbs = [3]uint8{0x55, 0x66, 0x77}
	frame.Entropy.MvProbs[1][18] = 0x99

	dispatch(t, env)

	state := env.session.EngineCtx.(*sessionState)
	probs := state.probs.Bytes

	assert.Equal(t, []uint32{state.probs.Addr},
		env.backend.WritesTo(regProbsAddr))

	coeff := probs[1*probsCoeffTypeStride+2*probsCoeffBandStride+
		1*probsCoeffCtxStride:]
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}, coeff[:11])

	assert.Equal(t, []byte{0x11, 0x22, 0x33, 0x44},
		probs[probsYMode:probsYMode+4])
	assert.Equal(t, []byte{0x55, 0x66, 0x77},
		probs[probsUVMode:probsUVMode+3])
	assert.Equal(t, []byte{10, 20, 30},
		probs[probsSegment:probsSegment+3])

	assert.Equal(t, byte(0xaa), probs[probsSkipFalse])
	assert.Equal(t, byte(0xbb), probs[probsIntra])
	assert.Equal(t, byte(0xcc), probs[probsLast])
	assert.Equal(t, byte(0xdd), probs[probsGf])

	assert.Equal(t, byte(0x99), probs[probsMv+probsMvStride+18])
}

func TestPartitionCountValidated(t *testing.T) {
	env := newTestEnv(t)

	frame := frameControl(t, env)
	frame.NumDCTParts = 0

	err := env.proc.RunJob(env.session, codedRequest())
	require.ErrorIs(t, err, core.ErrRange)
	assert.Equal(t, []core.Outcome{core.OutcomeError}, env.completer.outcomes)
}

func TestIRQClassification(t *testing.T) {
	tests := []struct {
		name   string
		status uint32
		want   core.IRQStatus
	}{
		{"none", 0, core.IRQNone},
		{"success", statusSuccess, core.IRQSuccess},
		{"check error", statusSuccess | statusCheckError, core.IRQError},
		{"error only", statusCheckError, core.IRQError},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.backend.Set(regStatus, test.status)
			assert.Equal(t, test.want, Engine.Ops.IRQStatus(env.session))
		})
	}
}
