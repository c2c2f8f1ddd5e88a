package h264

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
		Capabilities: core.CapH264Dec,
		Engines:      []*core.Descriptor{Engine},
		Completer:    completer,
		Picture:      decode.PictureConfigurer{},
	})

	s := p.NewSession()
	require.NoError(t, s.SetCodedFormat(core.Format{
		PixelFormat: core.PixFmtH264Slice,
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

	require.NoError(t, s.SetControl(controls.IDH264SPS, &controls.H264SPS{
		ChromaFormatIdc:           1,
		PicWidthInMbsMinus1:       79,
		PicHeightInMapUnitsMinus1: 44,
		FrameMbsOnly:              true,
		Direct8x8Inference:        true,
	}))
	require.NoError(t, s.SetControl(controls.IDH264PPS, &controls.H264PPS{
		EntropyCodingMode:         true,
		ChromaQpIndexOffset:       2,
		SecondChromaQpIndexOffset: 3,
	}))
	require.NoError(t, s.SetControl(controls.IDH264ScalingMatrix,
		&controls.H264ScalingMatrix{}))

	slice := &controls.H264SliceParams{
		HeaderBitSize:          47,
		SliceType:              controls.H264SliceTypeP,
		SliceQpDelta:           4,
		SliceAlphaC0OffsetDiv2: 2,
		SliceBetaOffsetDiv2:    -2,
	}
	slice.RefPicList0[0] = controls.H264Reference{Index: 1}
	require.NoError(t, s.SetControl(controls.IDH264SliceParams, slice))

	require.NoError(t, s.SetControl(controls.IDH264PredWeights,
		&controls.H264PredWeights{}))

	params := &controls.H264DecodeParams{
		NalRefIdc:           1,
		TopFieldOrderCnt:    64,
		BottomFieldOrderCnt: 65,
	}
	params.DPB[0] = controls.H264DPBEntry{
		ReferenceTimestamp:  100,
		TopFieldOrderCnt:    60,
		BottomFieldOrderCnt: 61,
		Valid:               true,
		Active:              true,
	}
	params.DPB[1] = controls.H264DPBEntry{
		ReferenceTimestamp:  200,
		TopFieldOrderCnt:    62,
		BottomFieldOrderCnt: 63,
		Valid:               true,
		Active:              true,
	}
	require.NoError(t, s.SetControl(controls.IDH264DecodeParams, params))

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

func dispatch(t *testing.T, env *testEnv) *core.PictureBuffer {
	t.Helper()

	picture := &core.PictureBuffer{LumaAddr: 0x3000, ChromaAddr: 0x3800}
	require.NoError(t, env.proc.RunJob(env.session, &core.JobRequest{
		Coded: &core.CodedBuffer{
			Addr:        0x4000,
			Size:        0x8000,
			PayloadSize: 0x600,
			Timestamp:   300,
		},
		Picture: picture,
	}))
	return picture
}

// sramData returns the words streamed after the port offset register
// was set to the given SRAM word offset.
func sramData(backend *registers.MemBackend, offset uint32) []uint32 {
	var words []uint32
	collecting := false

	for _, w := range backend.Writes() {
		switch w.Offset {
		case regSRAMPortOffset:
			collecting = w.Value == offset<<2
		case regSRAMPortData:
			if collecting {
				words = append(words, w.Value)
			}
		}
	}

	return words
}

func TestSetupAllocatesScratch(t *testing.T) {
	env := newTestEnv(t)

	state := env.session.EngineCtx.(*sessionState)
	require.NotNil(t, state.picInfo)
	require.NotNil(t, state.neighborInfo)

	// 18 per-frame blocks plus the per-row area, above the floor.
	assert.Equal(t, 18*0x1000+720*2*64, state.picInfo.Size())
	assert.Equal(t, neighborInfoSize, state.neighborInfo.Size())

	// Deblock and intra prediction scratch only exists above 2048.
	assert.Nil(t, state.deblk)
	assert.Nil(t, state.intraPred)
}

func TestSetupWidePicture(t *testing.T) {
	env := newTestEnv(t)

	s := env.proc.NewSession()
	require.NoError(t, s.SetCodedFormat(core.Format{
		PixelFormat: core.PixFmtH264Slice,
		Width:       3840,
		Height:      2160,
	}))
	require.NoError(t, s.Start())
	t.Cleanup(s.Stop)

	state := s.EngineCtx.(*sessionState)
	require.NotNil(t, state.deblk)
	require.NotNil(t, state.intraPred)
	assert.Equal(t, 3840*12, state.deblk.Size())
	assert.Equal(t, 3840*5*2, state.intraPred.Size())
	assert.Equal(t, 18*0x4000+2160*2*64, state.picInfo.Size())
}

func TestJobConfigureScratchBuffers(t *testing.T) {
	env := newTestEnv(t)
	dispatch(t, env)

	state := env.session.EngineCtx.(*sessionState)
	assert.Equal(t, []uint32{0}, env.backend.WritesTo(regSDRotCtrl))
	assert.Equal(t, []uint32{state.picInfo.Addr},
		env.backend.WritesTo(regExtraBuffer1))
	assert.Equal(t, []uint32{state.neighborInfo.Addr},
		env.backend.WritesTo(regExtraBuffer2))

	// Narrow pictures keep deblock and intra prediction in SRAM.
	assert.Equal(t, []uint32{bufCtrlIntraPredIntSRAM | bufCtrlDblkIntSRAM},
		env.backend.WritesTo(regBufCtrl))
}

func TestFrameListAssignsSlots(t *testing.T) {
	env := newTestEnv(t)
	picture := dispatch(t, env)

	// References take slots 0 and 1; the output claims slot 2.
	assert.Equal(t, 2, picture.Position)
	assert.Equal(t, []uint32{2}, env.backend.WritesTo(regOutputFrameIdx))

	list := sramData(env.backend, sramFrameBufferList)
	require.Len(t, list, frameCount*refPicWords)

	// First reference entry.
	assert.Equal(t, uint32(60), list[0])
	assert.Equal(t, uint32(61), list[1])
	assert.Equal(t, uint32(0x2000), list[3])
	assert.Equal(t, uint32(0x2800), list[4])

	// Output entry carries the motion vector column buffer halves.
	state := bufferStateOf(picture)
	require.NotNil(t, state.mvCol)
	mvColSize := 80 * 45 * 16 * 2
	assert.Equal(t, mvColSize, state.mvCol.Size())

	out := list[2*refPicWords:]
	assert.Equal(t, uint32(64), out[0])
	assert.Equal(t, uint32(65), out[1])
	assert.Equal(t, picTypeFrame<<8, out[2])
	assert.Equal(t, uint32(0x3000), out[3])
	assert.Equal(t, uint32(0x3800), out[4])
	assert.Equal(t, state.mvCol.Addr, out[5])
	assert.Equal(t, state.mvCol.Addr+uint32(mvColSize)/2, out[6])
}

func TestFrameListMissingReferenceSkipped(t *testing.T) {
	env := newTestEnv(t)
	delete(env.refs, 100)
	picture := dispatch(t, env)

	// The missing reference frees its slot for the other assignments.
	assert.Equal(t, 1, picture.Position)

	list := sramData(env.backend, sramFrameBufferList)
	require.Len(t, list, frameCount*refPicWords)
	assert.Equal(t, uint32(62), list[0])
	assert.Equal(t, uint32(0x5000), list[3])
}

func TestRefList0(t *testing.T) {
	env := newTestEnv(t)
	dispatch(t, env)

	words := sramData(env.backend, sramRefList0)
	require.Len(t, words, 1)

	// One entry referencing slot 1, frame parity.
	assert.Equal(t, uint32(1<<1), words[0])

	// No B slice, so no second list.
	assert.Empty(t, sramData(env.backend, sramRefList1))
}

func TestScalingListsOnlyWhenPresent(t *testing.T) {
	env := newTestEnv(t)
	dispatch(t, env)
	assert.Empty(t, sramData(env.backend, sramScalingList4x4))
}

func TestScalingListsWritten(t *testing.T) {
	env := newTestEnv(t)

	pps, err := env.session.Controls.Get(controls.IDH264PPS)
	require.NoError(t, err)
	pps.(*controls.H264PPS).ScalingMatrixPresent = true

	matrix := &controls.H264ScalingMatrix{}
	for i := range matrix.ScalingList8x8[0] {
		matrix.ScalingList8x8[0][i] = uint8(i)
	}
	require.NoError(t, env.session.SetControl(controls.IDH264ScalingMatrix, matrix))

	dispatch(t, env)

	words := sramData(env.backend, sramScalingList8x8A)
	require.Len(t, words, 16)
	assert.Equal(t, uint32(0x03020100), words[0])
	assert.Equal(t, uint32(0x3f3e3d3c), words[15])

	assert.Len(t, sramData(env.backend, sramScalingList8x8B), 16)
	assert.Len(t, sramData(env.backend, sramScalingList4x4), 24)
}

func TestHeaderBitsSkipped(t *testing.T) {
	env := newTestEnv(t)
	dispatch(t, env)

	triggers := env.backend.WritesTo(regTriggerType)

	// Init, two flush chunks for 47 bits, then the decode trigger.
	require.Len(t, triggers, 4)
	assert.Equal(t, triggerTypeInitSWDec, triggers[0])
	assert.Equal(t, triggerTypeFlushBits|triggerTypeNBits(32), triggers[1])
	assert.Equal(t, triggerTypeFlushBits|triggerTypeNBits(15), triggers[2])
	assert.Equal(t, triggerTypeAVCSliceDecode, triggers[3])
}

func TestParameterRegisters(t *testing.T) {
	env := newTestEnv(t)
	dispatch(t, env)

	assert.Equal(t, []uint32{ppsEntropyCodingMode},
		env.backend.WritesTo(regPPS))

	wantSPS := uint32(1)<<19 | 79<<8 | 44 |
		spsMbsOnly | spsDirect8x8Inference
	assert.Equal(t, []uint32{wantSPS}, env.backend.WritesTo(regSPS))

	wantSHS := uint32(controls.H264SliceTypeP)<<8 |
		shsNalRefIdc | shsFirstSliceInPic
	assert.Equal(t, []uint32{wantSHS}, env.backend.WritesTo(regSHS))

	wantSHS2 := shs2NumRefIdxActiveOvrd | 2<<4 | 0xe
	assert.Equal(t, []uint32{wantSHS2}, env.backend.WritesTo(regSHS2))

	wantQP := uint32(3)<<16 | 2<<8 | 30 | shsQPScalingMatrixDefault
	assert.Equal(t, []uint32{wantQP}, env.backend.WritesTo(regSHSQP))
}

func TestBitstreamWindow(t *testing.T) {
	env := newTestEnv(t)
	dispatch(t, env)

	assert.Equal(t, []uint32{0}, env.backend.WritesTo(regVLDOffset))
	assert.Equal(t, []uint32{0x600 * 8}, env.backend.WritesTo(regVLDLen))
	assert.Equal(t, []uint32{0x4000 + 0x600}, env.backend.WritesTo(regVLDEnd))
	assert.Equal(t, []uint32{
		0x4000>>4 | vldAddrFirst | vldAddrValid | vldAddrLast,
	}, env.backend.WritesTo(regVLDAddr))
}

func TestSecondSliceOfSamePicture(t *testing.T) {
	env := newTestEnv(t)
	dispatch(t, env)

	env.backend.Set(regStatus, intSliceDecode)
	require.True(t, env.proc.HandleIRQ())
	env.backend.ResetWrites()

	dispatch(t, env)

	shs := env.backend.WritesTo(regSHS)
	require.Len(t, shs, 1)
	assert.Zero(t, shs[0]&shsFirstSliceInPic)
}

func TestIRQClassification(t *testing.T) {
	tests := []struct {
		name   string
		status uint32
		want   core.IRQStatus
	}{
		{"none", 0, core.IRQNone},
		{"success", intSliceDecode, core.IRQSuccess},
		{"decode error", intSliceDecode | intDecodeErr, core.IRQError},
		{"data request", intSliceDecode | intVLDDataReq, core.IRQError},
		{"error only", intDecodeErr, core.IRQError},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.backend.Set(regStatus, test.status)
			assert.Equal(t, test.want, Engine.Ops.IRQStatus(env.session))
		})
	}
}

func TestBufferCleanupFreesMvCol(t *testing.T) {
	env := newTestEnv(t)
	picture := dispatch(t, env)

	state := bufferStateOf(picture)
	require.NotNil(t, state.mvCol)

	env.session.CleanupBuffer(picture)
	assert.Nil(t, state.mvCol)
}
