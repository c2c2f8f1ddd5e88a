// Package h264 implements the H.264 decode engine. Decoding is slice
// based; reference pictures are addressed through an 18-slot hardware
// frame list written over the SRAM port.
package h264

import (
	"fmt"

	"github.com/opd-ai/vecore/controls"
	"github.com/opd-ai/vecore/core"
	"github.com/opd-ai/vecore/decode"
	"github.com/opd-ai/vecore/dpb"
	"github.com/opd-ai/vecore/memory"
)

const (
	frameCount = 18
	maxRefIdx  = controls.H264MaxRefIdx

	neighborInfoSize = 32 << 10
	picInfoSizeMin   = 130 << 10
)

// Hardware picture types, stored per buffer for the frame list.
const (
	picTypeFrame uint32 = 0
	picTypeField uint32 = 1
	picTypeMBAFF uint32 = 2
)

// refPicWords is the frame-list entry size in 32-bit words.
const refPicWords = 8

// Engine is the H.264 decode engine descriptor.
var Engine = &core.Descriptor{
	Codec:       core.CodecH264,
	Role:        core.RoleDecoder,
	Capability:  core.CapH264Dec,
	PixelFormat: core.PixFmtH264Slice,
	SliceBased:  true,
	FrameSize: core.FrameSize{
		MinWidth:   16,
		MaxWidth:   3840,
		StepWidth:  16,
		MinHeight:  16,
		MaxHeight:  3840,
		StepHeight: 16,
	},
	NewContext:  newSessionState,
	NewJobState: newJobState,
	Ops:         ops{},
}

// sessionState holds the hardware scratch shared by every job of a
// session. The deblock and intra prediction buffers only exist for
// pictures wider than 2048.
type sessionState struct {
	picInfo      *memory.Buffer
	neighborInfo *memory.Buffer
	deblk        *memory.Buffer
	intraPred    *memory.Buffer

	refs *dpb.Table
}

// bufferState is the engine-private state of one picture buffer. The
// motion vector column buffer is allocated on first use as output.
type bufferState struct {
	picType uint32
	mvCol   *memory.Buffer
}

// jobState caches the typed controls extracted by JobPrepare.
type jobState struct {
	sps           *controls.H264SPS
	pps           *controls.H264PPS
	scalingMatrix *controls.H264ScalingMatrix
	sliceParams   *controls.H264SliceParams
	predWeights   *controls.H264PredWeights
	decodeParams  *controls.H264DecodeParams
}

func newSessionState(*core.Session) (interface{}, error) {
	return &sessionState{refs: dpb.New(frameCount)}, nil
}

func newJobState(*core.Session) (interface{}, error) {
	return &jobState{}, nil
}

type ops struct {
	core.NopOps
}

func (ops) FormatPrepare(s *core.Session, format *core.Format) error {
	return decode.CodedFormatPrepare(s, format)
}

func (ops) FormatConfigure(s *core.Session) error {
	return decode.CodedFormatConfigure(s)
}

func (ops) Setup(s *core.Session) error {
	state := s.EngineCtx.(*sessionState)
	width := s.CodedFormat.Width
	height := s.CodedFormat.Height
	mem := s.Memory()

	// Picture info sizing comes from the vendor codec library.
	picInfoSize := frameCount * 0x1000
	if width > 2048 {
		picInfoSize = frameCount * 0x4000
	}
	picInfoSize += int(height) * 2 * 64
	if picInfoSize < picInfoSizeMin {
		picInfoSize = picInfoSizeMin
	}

	picInfo, err := mem.Alloc(picInfoSize)
	if err != nil {
		return fmt.Errorf("picture info buffer: %w", err)
	}

	neighborInfo, err := mem.Alloc(neighborInfoSize)
	if err != nil {
		mem.Free(picInfo)
		return fmt.Errorf("neighbor info buffer: %w", err)
	}

	var deblk, intraPred *memory.Buffer
	if width > 2048 {
		deblk, err = mem.Alloc(int(align(width, 32)) * 12)
		if err != nil {
			mem.Free(neighborInfo)
			mem.Free(picInfo)
			return fmt.Errorf("deblock buffer: %w", err)
		}

		intraPred, err = mem.Alloc(int(align(width, 64)) * 5 * 2)
		if err != nil {
			mem.Free(deblk)
			mem.Free(neighborInfo)
			mem.Free(picInfo)
			return fmt.Errorf("intra prediction buffer: %w", err)
		}
	}

	state.picInfo = picInfo
	state.neighborInfo = neighborInfo
	state.deblk = deblk
	state.intraPred = intraPred

	return nil
}

func (ops) Cleanup(s *core.Session) {
	state := s.EngineCtx.(*sessionState)
	mem := s.Memory()

	mem.Free(state.picInfo)
	mem.Free(state.neighborInfo)
	mem.Free(state.deblk)
	mem.Free(state.intraPred)

	state.picInfo = nil
	state.neighborInfo = nil
	state.deblk = nil
	state.intraPred = nil
}

func (ops) BufferCleanup(s *core.Session, buf *core.PictureBuffer) {
	state, ok := buf.Engine.(*bufferState)
	if !ok || state.mvCol == nil {
		return
	}

	s.Memory().Free(state.mvCol)
	state.mvCol = nil
}

func (ops) JobPrepare(s *core.Session) error {
	job := s.EngineJob.(*jobState)

	sps, err := decode.Control[controls.H264SPS](s, controls.IDH264SPS)
	if err != nil {
		return err
	}
	pps, err := decode.Control[controls.H264PPS](s, controls.IDH264PPS)
	if err != nil {
		return err
	}
	scalingMatrix, err := decode.Control[controls.H264ScalingMatrix](s,
		controls.IDH264ScalingMatrix)
	if err != nil {
		return err
	}
	sliceParams, err := decode.Control[controls.H264SliceParams](s,
		controls.IDH264SliceParams)
	if err != nil {
		return err
	}
	predWeights, err := decode.Control[controls.H264PredWeights](s,
		controls.IDH264PredWeights)
	if err != nil {
		return err
	}
	decodeParams, err := decode.Control[controls.H264DecodeParams](s,
		controls.IDH264DecodeParams)
	if err != nil {
		return err
	}

	job.sps = sps
	job.pps = pps
	job.scalingMatrix = scalingMatrix
	job.sliceParams = sliceParams
	job.predWeights = predWeights
	job.decodeParams = decodeParams

	return nil
}

// writeSRAM streams words into engine SRAM through the port registers.
func writeSRAM(s *core.Session, offset uint32, words []uint32) {
	block := s.Block()

	block.Write(regSRAMPortOffset, offset<<2)
	for _, word := range words {
		block.Write(regSRAMPortData, word)
	}
}

// bytesToWords packs bytes into little-endian words, zero padded.
func bytesToWords(data []byte) []uint32 {
	words := make([]uint32, (len(data)+3)/4)
	for i, b := range data {
		words[i/4] |= uint32(b) << uint(i%4*8)
	}
	return words
}

// bufferStateOf returns the engine-private state of a picture buffer,
// creating it on first use.
func bufferStateOf(buf *core.PictureBuffer) *bufferState {
	if state, ok := buf.Engine.(*bufferState); ok {
		return state
	}

	state := &bufferState{}
	buf.Engine = state
	return state
}

// fillRefPic writes one frame-list entry: field order counts, picture
// type, picture plane addresses and the split motion vector column
// buffer halves.
func fillRefPic(buf *core.PictureBuffer, top, bottom int32, entry []uint32) {
	state := bufferStateOf(buf)

	var mvColTop, mvColBottom uint32
	if state.mvCol != nil {
		mvColTop = state.mvCol.Addr
		mvColBottom = state.mvCol.Addr + uint32(state.mvCol.Size())/2
	}

	entry[0] = uint32(top)
	entry[1] = uint32(bottom)
	entry[2] = state.picType << 8
	entry[3] = buf.LumaAddr
	entry[4] = buf.ChromaAddr
	entry[5] = mvColTop
	entry[6] = mvColBottom
	entry[7] = 0
}

// writeFrameList builds the 18-entry hardware frame list, assigns the
// output slot and ensures the output motion vector column buffer
// exists.
func writeFrameList(s *core.Session) error {
	state := s.EngineCtx.(*sessionState)
	job := s.EngineJob.(*jobState)
	picture := s.Job.Picture
	decodeParams := job.decodeParams

	state.refs.Begin()

	picList := make([]uint32, frameCount*refPicWords)

	for i := range decodeParams.DPB {
		entry := &decodeParams.DPB[i]
		if !entry.Valid {
			continue
		}

		ref := s.LookupBuffer(entry.ReferenceTimestamp)
		if ref == nil {
			continue
		}

		slot, err := state.refs.Assign(entry.ReferenceTimestamp)
		if err != nil {
			return err
		}

		if picture.Timestamp == entry.ReferenceTimestamp {
			// Second field of the same frame; the slot doubles as
			// output.
			continue
		}

		if !entry.Active {
			continue
		}

		fillRefPic(ref, entry.TopFieldOrderCnt, entry.BottomFieldOrderCnt,
			picList[slot*refPicWords:])
	}

	position, err := state.refs.Assign(picture.Timestamp)
	if err != nil {
		return err
	}
	picture.Position = position

	bufState := bufferStateOf(picture)
	if bufState.mvCol == nil {
		sps := job.sps

		fieldSize := divRoundUp(s.CodedFormat.Width, 16) *
			divRoundUp(s.CodedFormat.Height, 16) * 16
		if !sps.Direct8x8Inference {
			fieldSize *= 2
		}
		if !sps.FrameMbsOnly {
			fieldSize *= 2
		}

		mvCol, err := s.Memory().Alloc(int(fieldSize) * 2)
		if err != nil {
			return fmt.Errorf("motion vector column buffer: %w", err)
		}
		bufState.mvCol = mvCol
	}

	switch {
	case decodeParams.FieldPic:
		bufState.picType = picTypeField
	case job.sps.MbAdaptiveFrameField:
		bufState.picType = picTypeMBAFF
	default:
		bufState.picType = picTypeFrame
	}

	fillRefPic(picture, decodeParams.TopFieldOrderCnt,
		decodeParams.BottomFieldOrderCnt,
		picList[position*refPicWords:])

	writeSRAM(s, sramFrameBufferList, picList)
	s.Block().Write(regOutputFrameIdx, uint32(position))

	return nil
}

// writeRefList packs one reference list as slot indices with field
// parity and stores it over the SRAM port.
func writeRefList(s *core.Session, list []controls.H264Reference, count int, sram uint32) {
	state := s.EngineCtx.(*sessionState)
	job := s.EngineJob.(*jobState)
	decodeParams := job.decodeParams

	var entries [maxRefIdx]byte

	for i := 0; i < count; i++ {
		ref := &list[i]
		entry := &decodeParams.DPB[ref.Index]

		if !entry.Active {
			continue
		}
		if s.LookupBuffer(entry.ReferenceTimestamp) == nil {
			continue
		}

		slot, ok := state.refs.Slot(entry.ReferenceTimestamp)
		if !ok {
			continue
		}

		value := byte(slot) << 1
		if ref.BottomField && !ref.TopField {
			value |= 1
		}
		entries[i] = value
	}

	size := (count + 3) &^ 3
	if size > maxRefIdx {
		size = maxRefIdx
	}

	writeSRAM(s, sram, bytesToWords(entries[:size]))
}

func writeScalingLists(s *core.Session) {
	job := s.EngineJob.(*jobState)

	if !job.pps.ScalingMatrixPresent {
		return
	}

	matrix := job.scalingMatrix

	writeSRAM(s, sramScalingList8x8A, bytesToWords(matrix.ScalingList8x8[0][:]))
	writeSRAM(s, sramScalingList8x8B, bytesToWords(matrix.ScalingList8x8[1][:]))

	var lists4x4 []byte
	for i := range matrix.ScalingList4x4 {
		lists4x4 = append(lists4x4, matrix.ScalingList4x4[i][:]...)
	}
	writeSRAM(s, sramScalingList4x4, bytesToWords(lists4x4))
}

func writePredWeightTable(s *core.Session) {
	block := s.Block()
	job := s.EngineJob.(*jobState)
	weights := job.predWeights

	block.Write(regSHSWP,
		uint32(weights.ChromaLog2WeightDenom&0x7)<<4|
			uint32(weights.LumaLog2WeightDenom&0x7))

	block.Write(regSRAMPortOffset, sramPredWeightTable<<2)

	for i := range weights.WeightFactors {
		factors := &weights.WeightFactors[i]

		for j := range factors.LumaWeight {
			block.Write(regSRAMPortData,
				(uint32(factors.LumaOffset[j])&0x1ff)<<16|
					uint32(factors.LumaWeight[j])&0x1ff)
		}

		for j := range factors.ChromaWeight {
			for k := range factors.ChromaWeight[j] {
				block.Write(regSRAMPortData,
					(uint32(factors.ChromaOffset[j][k])&0x1ff)<<16|
						uint32(factors.ChromaWeight[j][k])&0x1ff)
			}
		}
	}
}

// predWeightsRequired reports whether the slice carries an explicit
// prediction weight table.
func predWeightsRequired(pps *controls.H264PPS, slice *controls.H264SliceParams) bool {
	if pps.WeightedPred &&
		(slice.SliceType == controls.H264SliceTypeP ||
			slice.SliceType == controls.H264SliceTypeSP) {
		return true
	}

	return pps.WeightedBipredIdc == 1 &&
		slice.SliceType == controls.H264SliceTypeB
}

// skipBits consumes bits through the flush trigger. Programming the
// VLD offset register instead occasionally corrupts frames, so the
// slice header is always skipped this way.
func skipBits(s *core.Session, count int) error {
	block := s.Block()

	for count > 0 {
		chunk := count
		if chunk > 32 {
			chunk = 32
		}

		block.Write(regTriggerType,
			triggerTypeFlushBits|triggerTypeNBits(chunk))

		if err := block.PollCleared(regStatus, statusVLDBusy, 0); err != nil {
			return fmt.Errorf("flush bits: %w", err)
		}

		count -= chunk
	}

	return nil
}

func setParams(s *core.Session) error {
	block := s.Block()
	state := s.EngineCtx.(*sessionState)
	job := s.EngineJob.(*jobState)
	sps := job.sps
	pps := job.pps
	slice := job.sliceParams
	decodeParams := job.decodeParams
	coded := s.Job.Coded

	block.Write(regVLDOffset, 0)
	block.Write(regVLDLen, coded.PayloadSize*8)
	block.Write(regVLDEnd, coded.Addr+coded.PayloadSize)
	block.Write(regVLDAddr,
		vldAddrVal(coded.Addr)|vldAddrFirst|vldAddrValid|vldAddrLast)

	if s.CodedFormat.Width > 2048 {
		block.Write(regBufCtrl,
			bufCtrlIntraPredMixedRAM|bufCtrlDblkMixedRAM)
		block.Write(regDblkDramBufAddr, state.deblk.Addr)
		block.Write(regIntraPredBufAddr, state.intraPred.Addr)
	} else {
		block.Write(regBufCtrl,
			bufCtrlIntraPredIntSRAM|bufCtrlDblkIntSRAM)
	}

	// The decoder front end needs this init even though parsing
	// happens upstream; removing it breaks decoding.
	block.Write(regTriggerType, triggerTypeInitSWDec)

	if err := skipBits(s, int(slice.HeaderBitSize)); err != nil {
		return err
	}

	if predWeightsRequired(pps, slice) {
		writePredWeightTable(s)
	}

	if slice.SliceType == controls.H264SliceTypeP ||
		slice.SliceType == controls.H264SliceTypeSP ||
		slice.SliceType == controls.H264SliceTypeB {
		writeRefList(s, slice.RefPicList0[:],
			int(slice.NumRefIdxL0ActiveMinus1)+1, sramRefList0)
	}

	if slice.SliceType == controls.H264SliceTypeB {
		writeRefList(s, slice.RefPicList1[:],
			int(slice.NumRefIdxL1ActiveMinus1)+1, sramRefList1)
	}

	value := uint32(slice.NumRefIdxL0ActiveMinus1&0x1f)<<10 |
		uint32(slice.NumRefIdxL1ActiveMinus1&0x1f)<<5 |
		uint32(pps.WeightedBipredIdc&0x3)<<2
	if pps.EntropyCodingMode {
		value |= ppsEntropyCodingMode
	}
	if pps.WeightedPred {
		value |= ppsWeightedPred
	}
	if pps.ConstrainedIntraPred {
		value |= ppsConstrainedIntraPred
	}
	if pps.Transform8x8Mode {
		value |= ppsTransform8x8Mode
	}
	block.Write(regPPS, value)

	value = uint32(sps.ChromaFormatIdc&0x7)<<19 |
		uint32(sps.PicWidthInMbsMinus1&0xff)<<8 |
		uint32(sps.PicHeightInMapUnitsMinus1&0xff)
	if sps.FrameMbsOnly {
		value |= spsMbsOnly
	}
	if sps.MbAdaptiveFrameField {
		value |= spsMbAdaptiveFrameField
	}
	if sps.Direct8x8Inference {
		value |= spsDirect8x8Inference
	}
	block.Write(regSPS, value)

	mbaffPic := !decodeParams.FieldPic && sps.MbAdaptiveFrameField
	picWidthInMbs := uint32(sps.PicWidthInMbsMinus1) + 1

	mbX := slice.FirstMbInSlice % picWidthInMbs
	mbY := slice.FirstMbInSlice / picWidthInMbs
	if mbaffPic {
		mbY *= 2
	}

	value = (mbX&0xff)<<24 | (mbY&0xff)<<16 |
		uint32(slice.SliceType&0xf)<<8 |
		uint32(slice.CabacInitIdc&0x3)
	if decodeParams.NalRefIdc != 0 {
		value |= shsNalRefIdc
	}
	if s.Job.FirstSlice {
		value |= shsFirstSliceInPic
	}
	if decodeParams.FieldPic {
		value |= shsFieldPic
	}
	if decodeParams.BottomField {
		value |= shsBottomField
	}
	if slice.DirectSpatialMVPred {
		value |= shsDirectSpatialMVPred
	}
	block.Write(regSHS, value)

	value = shs2NumRefIdxActiveOvrd |
		uint32(slice.NumRefIdxL0ActiveMinus1&0x1f)<<24 |
		uint32(slice.NumRefIdxL1ActiveMinus1&0x1f)<<16 |
		uint32(slice.DisableDeblockingFilterIdc&0x3)<<8 |
		(uint32(slice.SliceAlphaC0OffsetDiv2)&0xf)<<4 |
		uint32(slice.SliceBetaOffsetDiv2)&0xf
	block.Write(regSHS2, value)

	value = (uint32(pps.SecondChromaQpIndexOffset)&0x3f)<<16 |
		(uint32(pps.ChromaQpIndexOffset)&0x3f)<<8 |
		uint32(int32(pps.PicInitQpMinus26)+26+int32(slice.SliceQpDelta))&0x3f
	if !pps.ScalingMatrixPresent {
		value |= shsQPScalingMatrixDefault
	}
	block.Write(regSHSQP, value)

	// Acknowledge anything pending, then unmask.
	block.Write(regStatus, block.Read(regStatus))
	block.Write(regCtrl, intSliceDecode|intDecodeErr|intVLDDataReq)

	return nil
}

func (ops) JobConfigure(s *core.Session) error {
	block := s.Block()
	state := s.EngineCtx.(*sessionState)

	block.Write(regSDRotCtrl, 0)
	block.Write(regExtraBuffer1, state.picInfo.Addr)
	block.Write(regExtraBuffer2, state.neighborInfo.Addr)

	writeScalingLists(s)

	if err := writeFrameList(s); err != nil {
		return err
	}

	return setParams(s)
}

func (ops) JobTrigger(s *core.Session) {
	s.Block().Write(regTriggerType, triggerTypeAVCSliceDecode)
}

func (ops) IRQStatus(s *core.Session) core.IRQStatus {
	status := s.Block().Read(regStatus) & intMask

	if status == 0 {
		return core.IRQNone
	}
	if status&intSliceDecode == 0 ||
		status&intVLDDataReq != 0 ||
		status&intDecodeErr != 0 {
		return core.IRQError
	}
	return core.IRQSuccess
}

func (ops) IRQClear(s *core.Session) {
	s.Block().Write(regStatus, intMask)
}

func (ops) IRQDisable(s *core.Session) {
	s.Block().ClearBits(regCtrl, intMask)
}

func align(value, alignment uint32) uint32 {
	return (value + alignment - 1) &^ (alignment - 1)
}

func divRoundUp(value, divisor uint32) uint32 {
	return (value + divisor - 1) / divisor
}
