// Package h265 implements the H.265 decode engine. Decoding is slice
// based; decoded picture buffer entries map directly to hardware
// frame-info slots 0 to 15, with the picture being decoded always in
// slot 16.
package h265

import (
	"fmt"

	"github.com/opd-ai/vecore/controls"
	"github.com/opd-ai/vecore/core"
	"github.com/opd-ai/vecore/decode"
	"github.com/opd-ai/vecore/memory"
	"github.com/opd-ai/vecore/registers"
)

const (
	neighborInfoSize = 794 << 10
	entryPointsSize  = 4 << 10

	// Motion vector column storage per coding tree block, plus slack
	// because the hardware only sees addresses at 256-byte granularity.
	mvColUnitCTBSize = 160
	mvColSlack       = 1 << 10
)

// outputFrameIdx is the fixed frame-info slot of the picture being
// decoded.
const outputFrameIdx = controls.HEVCMaxDPBEntries

// Engine is the H.265 decode engine descriptor.
var Engine = &core.Descriptor{
	Codec:       core.CodecH265,
	Role:        core.RoleDecoder,
	Capability:  core.CapH265Dec,
	PixelFormat: core.PixFmtHEVCSlice,
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
// session. The entry points buffer is CPU-filled per slice and read by
// the hardware during tile and wavefront decoding.
type sessionState struct {
	neighborInfo *memory.Buffer
	entryPoints  *memory.Buffer
}

// bufferState is the engine-private state of one picture buffer. The
// motion vector column buffer is allocated on first use as output.
type bufferState struct {
	mvCol *memory.Buffer
}

// jobState caches the typed controls extracted by JobPrepare. The
// entry point offsets stay nil when the control was never set.
type jobState struct {
	sps           *controls.HEVCSPS
	pps           *controls.HEVCPPS
	scalingMatrix *controls.HEVCScalingMatrix
	sliceParams   *controls.HEVCSliceParams
	decodeParams  *controls.HEVCDecodeParams

	entryPointOffsets []uint32
}

func newSessionState(*core.Session) (interface{}, error) {
	return &sessionState{}, nil
}

func newJobState(*core.Session) (interface{}, error) {
	return &jobState{}, nil
}

type ops struct {
	core.NopOps
}

func (ops) CtrlValidate(s *core.Session, id controls.ID, value interface{}) error {
	if id != controls.IDHEVCSPS {
		return nil
	}

	sps, ok := value.(*controls.HEVCSPS)
	if !ok {
		return nil
	}

	// Only the second-generation hardware decodes above 8 bits.
	if (sps.BitDepthLumaMinus8 != 0 || sps.BitDepthChromaMinus8 != 0) &&
		!s.Proc().Capabilities().Has(core.CapH26510Dec) {
		return fmt.Errorf("bit depth %d: %w",
			8+sps.BitDepthLumaMinus8, core.ErrUnsupported)
	}

	return nil
}

func (ops) FormatPrepare(s *core.Session, format *core.Format) error {
	return decode.CodedFormatPrepare(s, format)
}

func (ops) FormatConfigure(s *core.Session) error {
	return decode.CodedFormatConfigure(s)
}

func (ops) Setup(s *core.Session) error {
	state := s.EngineCtx.(*sessionState)
	mem := s.Memory()

	neighborInfo, err := mem.Alloc(neighborInfoSize)
	if err != nil {
		return fmt.Errorf("neighbor info buffer: %w", err)
	}

	entryPoints, err := mem.Alloc(entryPointsSize)
	if err != nil {
		mem.Free(neighborInfo)
		return fmt.Errorf("entry points buffer: %w", err)
	}

	state.neighborInfo = neighborInfo
	state.entryPoints = entryPoints

	return nil
}

func (ops) Cleanup(s *core.Session) {
	state := s.EngineCtx.(*sessionState)
	mem := s.Memory()

	mem.Free(state.neighborInfo)
	mem.Free(state.entryPoints)

	state.neighborInfo = nil
	state.entryPoints = nil
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

	sps, err := decode.Control[controls.HEVCSPS](s, controls.IDHEVCSPS)
	if err != nil {
		return err
	}
	pps, err := decode.Control[controls.HEVCPPS](s, controls.IDHEVCPPS)
	if err != nil {
		return err
	}
	scalingMatrix, err := decode.Control[controls.HEVCScalingMatrix](s,
		controls.IDHEVCScalingMatrix)
	if err != nil {
		return err
	}
	sliceParams, err := decode.Control[controls.HEVCSliceParams](s,
		controls.IDHEVCSliceParams)
	if err != nil {
		return err
	}
	decodeParams, err := decode.Control[controls.HEVCDecodeParams](s,
		controls.IDHEVCDecodeParams)
	if err != nil {
		return err
	}

	var entryPointOffsets []uint32
	if value, err := s.Controls.Get(controls.IDHEVCEntryPointOffsets); err == nil {
		offsets, ok := value.([]uint32)
		if !ok {
			return fmt.Errorf("control %#x: %w",
				uint32(controls.IDHEVCEntryPointOffsets),
				controls.ErrWrongType)
		}
		entryPointOffsets = offsets
	}

	if n := sliceParams.NumEntryPointOffsets; n > 0 &&
		uint32(len(entryPointOffsets)) != n {
		return fmt.Errorf("entry point offsets: slice needs %d, have %d: %w",
			n, len(entryPointOffsets), core.ErrRange)
	}

	job.sps = sps
	job.pps = pps
	job.scalingMatrix = scalingMatrix
	job.sliceParams = sliceParams
	job.decodeParams = decodeParams
	job.entryPointOffsets = entryPointOffsets

	return nil
}

// ctbSizeLuma returns the luma coding tree block size in samples.
func ctbSizeLuma(sps *controls.HEVCSPS) uint32 {
	return 1 << (uint32(sps.Log2MinLumaCodingBlockSizeMinus3) + 3 +
		uint32(sps.Log2DiffMaxMinLumaCodingBlockSize))
}

// writeSRAM streams words into engine SRAM starting at a byte offset.
func writeSRAM(s *core.Session, offset uint32, words []uint32) {
	block := s.Block()

	block.Write(regSRAMOffset, offset)
	for _, word := range words {
		block.Write(regSRAMData, word)
	}
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

// skipBits consumes bits through the flush trigger, 32 at a time.
func skipBits(s *core.Session, count int) error {
	block := s.Block()

	for count > 0 {
		chunk := count
		if chunk > 32 {
			chunk = 32
		}

		block.Write(regTrigger, triggerFlushBits|triggerNBits(chunk))

		if err := block.PollCleared(regStatus, statusVLDBusy, 0); err != nil {
			return fmt.Errorf("flush bits: %w", err)
		}

		count -= chunk
	}

	return nil
}

// showBits peeks at the next bits without consuming them.
func showBits(s *core.Session, count int) (uint32, error) {
	block := s.Block()

	block.Write(regTrigger, triggerShowBits|triggerNBits(count))

	if err := block.PollCleared(regStatus, statusVLDBusy, 0); err != nil {
		return 0, fmt.Errorf("show bits: %w", err)
	}

	return block.Read(regBitsRead), nil
}

// skipSliceHeader advances the bitstream reader to the slice data. The
// hardware wants to see the anti-emulation padding bit itself, so the
// skip stops one byte short and consumes only the padding zeros.
func skipSliceHeader(s *core.Session) error {
	slice := s.EngineJob.(*jobState).sliceParams

	if slice.DataByteOffset == 0 {
		return fmt.Errorf("slice data at byte 0: %w", core.ErrUnsupported)
	}

	if err := skipBits(s, int(slice.DataByteOffset-1)*8); err != nil {
		return err
	}

	padding, err := showBits(s, 8)
	if err != nil {
		return err
	}

	// At least one bit of the padding byte must be set.
	if padding == 0 {
		return fmt.Errorf("slice header padding byte is zero: %w", core.ErrRange)
	}

	count := 0
	for count < 8 {
		if padding&(1<<uint(count)) != 0 {
			break
		}
		count++
	}
	count++

	return skipBits(s, 8-count)
}

// frameInfoWrite fills one frame-info SRAM slot with the picture order
// counts, motion vector column halves and plane addresses of a picture.
func frameInfoWrite(s *core.Session, index int, fieldPic bool, poc int32, buf *core.PictureBuffer) {
	state := bufferStateOf(buf)

	var mvColTop, mvColBottom uint32
	if state.mvCol != nil {
		mvColTop = state.mvCol.Addr
		mvColBottom = mvColTop
		if fieldPic {
			mvColBottom = mvColTop + uint32(state.mvCol.Size())/2
		}
	}

	words := []uint32{
		uint32(poc),
		uint32(poc),
		addrBase(mvColTop),
		addrBase(mvColBottom),
		addrBase(buf.LumaAddr),
		addrBase(buf.ChromaAddr),
	}

	writeSRAM(s, sramFrameInfo+sramFrameInfoUnit*uint32(index), words)
}

// writeFrameInfo fills the frame-info slots of every resolvable
// decoded picture buffer entry, then the output slot.
func writeFrameInfo(s *core.Session) {
	job := s.EngineJob.(*jobState)
	slice := job.sliceParams
	decodeParams := job.decodeParams

	count := int(decodeParams.NumActiveDPBEntries)
	if count > len(decodeParams.DPB) {
		count = len(decodeParams.DPB)
	}

	for i := 0; i < count; i++ {
		entry := &decodeParams.DPB[i]

		ref := s.LookupBuffer(entry.ReferenceTimestamp)
		if ref == nil {
			continue
		}

		frameInfoWrite(s, i, entry.FieldPic != 0, entry.PicOrderCntVal, ref)
	}

	frameInfoWrite(s, outputFrameIdx, slice.PicStructure != 0,
		slice.SlicePicOrderCnt, s.Job.Picture)

	s.Block().Write(regOutputFrameIdx, outputFrameIdx)
}

// writeRefList packs one reference list as frame-info slot indices,
// four per SRAM word, flagging long-term references.
func writeRefList(s *core.Session, list []uint8, count int, sram uint32) {
	block := s.Block()
	dpb := &s.EngineJob.(*jobState).decodeParams.DPB

	block.Write(regSRAMOffset, sram)

	var word uint32
	for i := 0; i < count; i++ {
		index := list[i]

		value := uint32(index)
		if int(index) < len(dpb) && dpb[index].LongTerm {
			value |= sramRefPicListLTRef
		}

		word |= value << uint(i%4*8)

		if i%4 == 3 || i == count-1 {
			block.Write(regSRAMData, word)
			word = 0
		}
	}
}

// writePredWeights stores luma prediction weights, two (delta, offset)
// pairs per SRAM word.
func writePredWeights(s *core.Session, sram uint32, deltas, offsets []int8) {
	block := s.Block()

	block.Write(regSRAMOffset, sram)

	var pair [4]byte
	for i, delta := range deltas {
		index := i % 2
		pair[index*2] = byte(delta)
		pair[index*2+1] = byte(offsets[i])

		if index == 1 || i == len(deltas)-1 {
			block.Write(regSRAMData,
				uint32(pair[0])|uint32(pair[1])<<8|
					uint32(pair[2])<<16|uint32(pair[3])<<24)
		}
	}
}

// writeChromaPredWeights stores chroma prediction weights, both
// components of one reference per SRAM word.
func writeChromaPredWeights(s *core.Session, sram uint32, deltas, offsets [][2]int8) {
	block := s.Block()

	block.Write(regSRAMOffset, sram)

	for i := range deltas {
		block.Write(regSRAMData,
			uint32(byte(deltas[i][0]))|uint32(byte(offsets[i][0]))<<8|
				uint32(byte(deltas[i][1]))<<16|uint32(byte(offsets[i][1]))<<24)
	}
}

// writeScalingList8 stores 8x8-shaped scaling lists column first, four
// coefficients per SRAM word.
func writeScalingList8(block *registers.Block, lists [][64]uint8) {
	for i := range lists {
		for j := 0; j < 8; j++ {
			for k := 0; k < 8; k += 4 {
				block.Write(regSRAMData,
					uint32(lists[i][j+(k+3)*8])<<24|
						uint32(lists[i][j+(k+2)*8])<<16|
						uint32(lists[i][j+(k+1)*8])<<8|
						uint32(lists[i][j+k*8]))
			}
		}
	}
}

func writeScalingLists(s *core.Session) {
	block := s.Block()
	matrix := s.EngineJob.(*jobState).scalingMatrix

	block.Write(regScalingDCCoef0,
		uint32(matrix.ScalingListDC32x32[1])<<24|
			uint32(matrix.ScalingListDC32x32[0])<<16|
			uint32(matrix.ScalingListDC16x16[1])<<8|
			uint32(matrix.ScalingListDC16x16[0]))

	block.Write(regScalingDCCoef1,
		uint32(matrix.ScalingListDC16x16[5])<<24|
			uint32(matrix.ScalingListDC16x16[4])<<16|
			uint32(matrix.ScalingListDC16x16[3])<<8|
			uint32(matrix.ScalingListDC16x16[2]))

	block.Write(regSRAMOffset, sramScalingLists)

	writeScalingList8(block, matrix.ScalingList8x8[:])
	writeScalingList8(block, matrix.ScalingList32x32[:])
	writeScalingList8(block, matrix.ScalingList16x16[:])

	for i := range matrix.ScalingList4x4 {
		for j := 0; j < 4; j++ {
			block.Write(regSRAMData,
				uint32(matrix.ScalingList4x4[i][j+12])<<24|
					uint32(matrix.ScalingList4x4[i][j+8])<<16|
					uint32(matrix.ScalingList4x4[i][j+4])<<8|
					uint32(matrix.ScalingList4x4[i][j]))
		}
	}
}

// writeEntryPointOffsets fills the entry points buffer with the raw
// offsets of each wavefront row.
func writeEntryPointOffsets(s *core.Session) {
	state := s.EngineCtx.(*sessionState)
	job := s.EngineJob.(*jobState)

	offsets := job.entryPointOffsets[:job.sliceParams.NumEntryPointOffsets]
	for i, offset := range offsets {
		state.entryPoints.WriteUint32(i*4, offset)
	}
}

// writeTiles programs the tile window containing the slice and fills
// the entry points buffer: raw offsets for wavefront rows, offset plus
// tile window per entry otherwise.
func writeTiles(s *core.Session, ctbX, ctbY uint32) {
	block := s.Block()
	state := s.EngineCtx.(*sessionState)
	job := s.EngineJob.(*jobState)
	pps := job.pps
	slice := job.sliceParams

	cols := int(pps.NumTileColumnsMinus1) + 1
	rows := int(pps.NumTileRowsMinus1) + 1

	var x, y uint32
	var tx, ty int

	for tx+1 < cols && x+uint32(pps.ColumnWidthMinus1[tx])+1 <= ctbX {
		x += uint32(pps.ColumnWidthMinus1[tx]) + 1
		tx++
	}
	for ty+1 < rows && y+uint32(pps.RowHeightMinus1[ty])+1 <= ctbY {
		y += uint32(pps.RowHeightMinus1[ty]) + 1
		ty++
	}

	block.Write(regTileStartCTB, y<<16|x)
	block.Write(regTileEndCTB,
		(y+uint32(pps.RowHeightMinus1[ty]))<<16|
			(x+uint32(pps.ColumnWidthMinus1[tx])))

	if pps.EntropyCodingSyncEnabled {
		writeEntryPointOffsets(s)
		return
	}

	buf := state.entryPoints
	for i, offset := range job.entryPointOffsets[:slice.NumEntryPointOffsets] {
		if tx+1 >= cols {
			x = 0
			tx = 0
			y += uint32(pps.RowHeightMinus1[ty]) + 1
			if ty+1 < rows {
				ty++
			}
		} else {
			x += uint32(pps.ColumnWidthMinus1[tx]) + 1
			tx++
		}

		buf.WriteUint32(i*16, offset)
		buf.WriteUint32(i*16+4, 0)
		buf.WriteUint32(i*16+8, y<<16|x)
		buf.WriteUint32(i*16+12,
			(y+uint32(pps.RowHeightMinus1[ty]))<<16|
				(x+uint32(pps.ColumnWidthMinus1[tx])))
	}
}

// hasLaterRef reports whether any active reference of the slice comes
// after the current picture in output order.
func hasLaterRef(job *jobState) bool {
	slice := job.sliceParams
	dpb := &job.decodeParams.DPB
	poc := job.decodeParams.PicOrderCntVal

	for i := 0; i <= int(slice.NumRefIdxL0ActiveMinus1); i++ {
		index := slice.RefIdxL0[i]
		if int(index) < len(dpb) && dpb[index].PicOrderCntVal > poc {
			return true
		}
	}

	if slice.SliceType != controls.HEVCSliceTypeB {
		return false
	}

	for i := 0; i <= int(slice.NumRefIdxL1ActiveMinus1); i++ {
		index := slice.RefIdxL1[i]
		if int(index) < len(dpb) && dpb[index].PicOrderCntVal > poc {
			return true
		}
	}

	return false
}

func (ops) JobConfigure(s *core.Session) error {
	block := s.Block()
	state := s.EngineCtx.(*sessionState)
	job := s.EngineJob.(*jobState)
	sps := job.sps
	pps := job.pps
	slice := job.sliceParams
	weights := &slice.PredWeightTable
	coded := s.Job.Coded
	picture := s.Job.Picture

	ctbSize := ctbSizeLuma(sps)
	widthInCTB := divRoundUp(uint32(sps.PicWidthInLumaSamples), ctbSize)
	heightInCTB := divRoundUp(uint32(sps.PicHeightInLumaSamples), ctbSize)

	bufState := bufferStateOf(picture)
	if bufState.mvCol == nil {
		size := int(widthInCTB*heightInCTB)*mvColUnitCTBSize + mvColSlack

		mvCol, err := s.Memory().Alloc(size)
		if err != nil {
			return fmt.Errorf("motion vector column buffer: %w", err)
		}
		bufState.mvCol = mvCol
	}

	block.Write(regBitsOffset, 0)
	block.Write(regBitsLen, slice.BitSize)
	block.Write(regBitsAddr, addrBase(coded.Addr)|
		bitsAddrFirstSliceData|bitsAddrLastSliceData|bitsAddrValidSliceData)
	block.Write(regBitsEndAddr, addrBase(coded.Addr+coded.PayloadSize))

	ctbX := slice.SliceSegmentAddr % widthInCTB
	ctbY := slice.SliceSegmentAddr / widthInCTB
	block.Write(regDecCTBAddr, ctbY<<16|ctbX)

	if pps.TilesEnabled {
		writeTiles(s, ctbX, ctbY)
	} else {
		block.Write(regTileStartCTB, 0)
		block.Write(regTileEndCTB, 0)

		if pps.EntropyCodingSyncEnabled {
			writeEntryPointOffsets(s)
		}
	}

	// The correctly-decoded CTB count carries across the slices of one
	// picture.
	if s.Job.FirstSlice {
		block.Write(regDecCTBNum, 0)
	}

	block.Write(regTrigger, triggerInitSWDec)

	if err := skipSliceHeader(s); err != nil {
		return err
	}

	block.Write(regNalHdr,
		uint32(slice.NalUnitType&0x3f)<<nalHdrUnitTypeShift|
			uint32(slice.NuhTemporalIDPlus1&0x7)<<nalHdrTemporalIDPlus1Shift)

	value := uint32(sps.ChromaFormatIdc&0x3)<<spsChromaFormatIdcShift |
		uint32(sps.BitDepthLumaMinus8&0x7)<<spsBitDepthLumaShift |
		uint32(sps.BitDepthChromaMinus8&0x7)<<spsBitDepthChromaShift |
		uint32(sps.Log2MinLumaCodingBlockSizeMinus3&0x7)<<spsLog2MinCbSizeShift |
		uint32(sps.Log2DiffMaxMinLumaCodingBlockSize&0x3)<<spsLog2DiffMaxMinCbSizeShift |
		uint32(sps.Log2MinLumaTransformBlockSizeMinus2&0x3)<<spsLog2MinTbSizeShift |
		uint32(sps.Log2DiffMaxMinLumaTransformBlockSize&0x3)<<spsLog2DiffMaxMinTbSizeShift |
		uint32(sps.MaxTransformHierarchyDepthInter&0x7)<<spsMaxTransformDepthInterShift |
		uint32(sps.MaxTransformHierarchyDepthIntra&0x7)<<spsMaxTransformDepthIntraShift
	if sps.SeparateColourPlane {
		value |= spsFlagSeparateColourPlane
	}
	if sps.AmpEnabled {
		value |= spsFlagAmpEnabled
	}
	if sps.SampleAdaptiveOffset {
		value |= spsFlagSampleAdaptiveOffset
	}
	if sps.SpsTemporalMvpEnabled {
		value |= spsFlagTemporalMvpEnabled
	}
	if sps.StrongIntraSmoothingEnabled {
		value |= spsFlagStrongIntraSmoothing
	}
	block.Write(regSPSHdr, value)

	value = uint32(sps.PcmSampleBitDepthLumaMinus1&0xf)<<pcmBitDepthLumaShift |
		uint32(sps.PcmSampleBitDepthChromaMinus1&0xf)<<pcmBitDepthChromaShift |
		uint32(sps.Log2MinPcmLumaCodingBlockSizeMinus3&0x3)<<pcmLog2MinCbSizeShift |
		uint32(sps.Log2DiffMaxMinPcmLumaCodingBlockSize&0x3)<<pcmLog2DiffMaxMinCbShift
	if sps.PcmEnabled {
		value |= pcmFlagEnabled
	}
	if sps.PcmLoopFilterDisabled {
		value |= pcmFlagLoopFilterDisabled
	}
	block.Write(regPcmCtrl, value)

	value = (uint32(pps.PpsCrQpOffset)&0xff)<<ppsCtrl0CrQpOffsetShift |
		(uint32(pps.PpsCbQpOffset)&0xff)<<ppsCtrl0CbQpOffsetShift |
		(uint32(int32(pps.InitQpMinus26)+26)&0xff)<<ppsCtrl0InitQpShift |
		uint32(pps.DiffCuQpDeltaDepth&0xf)<<ppsCtrl0DiffCuQpDeltaDepthShift
	if pps.CuQpDeltaEnabled {
		value |= ppsCtrl0FlagCuQpDeltaEnabled
	}
	if pps.TransformSkipEnabled {
		value |= ppsCtrl0FlagTransformSkip
	}
	if pps.ConstrainedIntraPred {
		value |= ppsCtrl0FlagConstrainedIntra
	}
	if pps.SignDataHidingEnabled {
		value |= ppsCtrl0FlagSignDataHiding
	}
	block.Write(regPPSCtrl0, value)

	value = uint32(pps.Log2ParallelMergeLevelMinus2&0x7) << ppsCtrl1ParallelMergeShift
	if pps.PpsLoopFilterAcrossSlicesEnabled {
		value |= ppsCtrl1FlagLoopFilterAcrossSlices
	}
	if pps.LoopFilterAcrossTilesEnabled {
		value |= ppsCtrl1FlagLoopFilterAcrossTiles
	}
	if pps.EntropyCodingSyncEnabled {
		value |= ppsCtrl1FlagEntropyCodingSync
	}
	if pps.TilesEnabled {
		value |= ppsCtrl1FlagTilesEnabled
	}
	if pps.TransquantBypassEnabled {
		value |= ppsCtrl1FlagTransquantBypass
	}
	if pps.WeightedBipred {
		value |= ppsCtrl1FlagWeightedBipred
	}
	if pps.WeightedPred {
		value |= ppsCtrl1FlagWeightedPred
	}
	block.Write(regPPSCtrl1, value)

	value = uint32(slice.SliceType&0x3)<<sliceInfo0SliceTypeShift |
		uint32(slice.ColourPlaneID&0x3)<<sliceInfo0ColourPlaneShift |
		uint32(slice.CollocatedRefIdx&0xf)<<sliceInfo0CollocatedRefShift |
		uint32(slice.NumRefIdxL0ActiveMinus1&0xf)<<sliceInfo0NumRefIdxL0Shift |
		uint32(slice.NumRefIdxL1ActiveMinus1&0xf)<<sliceInfo0NumRefIdxL1Shift |
		uint32(slice.FiveMinusMaxNumMergeCand&0x7)<<sliceInfo0MergeCandShift |
		uint32(slice.PicStructure&0x3)<<sliceInfo0PictureTypeShift
	if slice.CollocatedFromL0 {
		value |= sliceInfo0FlagCollocatedFromL0
	}
	if slice.CabacInit {
		value |= sliceInfo0FlagCabacInit
	}
	if slice.MvdL1Zero {
		value |= sliceInfo0FlagMvdL1Zero
	}
	if slice.SliceSaoChromaUsed {
		value |= sliceInfo0FlagSliceSaoChroma
	}
	if slice.SliceSaoLumaUsed {
		value |= sliceInfo0FlagSliceSaoLuma
	}
	if slice.SliceTemporalMvpEnabled {
		value |= sliceInfo0FlagTemporalMvp
	}
	if slice.DependentSliceSegment {
		value |= sliceInfo0FlagDependentSegment
	}
	if s.Job.FirstSlice {
		value |= sliceInfo0FlagFirstSliceInPic
	}
	block.Write(regSliceHdrInfo0, value)

	value = (uint32(slice.SliceQpDelta)&0xff)<<sliceInfo1QpDeltaShift |
		(uint32(slice.SliceCbQpOffset)&0x1f)<<sliceInfo1CbQpOffsetShift |
		(uint32(slice.SliceCrQpOffset)&0x1f)<<sliceInfo1CrQpOffsetShift |
		(uint32(slice.SliceBetaOffsetDiv2)&0xf)<<sliceInfo1BetaOffsetShift |
		(uint32(slice.SliceTcOffsetDiv2)&0xf)<<sliceInfo1TcOffsetShift
	if slice.SliceDeblockingFilterDisabled {
		value |= sliceInfo1FlagDeblockingDisabled
	}
	if slice.SliceLoopFilterAcrossSlicesEnabled {
		value |= sliceInfo1FlagLoopFilterAcrossSlices
	}
	if slice.SliceType != controls.HEVCSliceTypeI && !hasLaterRef(job) {
		value |= sliceInfo1FlagNotLowDelay
	}
	block.Write(regSliceHdrInfo1, value)

	chromaLog2WeightDenom := int32(weights.LumaLog2WeightDenom) +
		int32(weights.DeltaChromaLog2WeightDenom)

	block.Write(regSliceHdrInfo2,
		(uint32(weights.LumaLog2WeightDenom)&0xf)<<sliceInfo2LumaLog2DenomShift|
			(uint32(chromaLog2WeightDenom)&0xf)<<sliceInfo2ChromaLog2DenomShift|
			slice.NumEntryPointOffsets<<sliceInfo2EntryPointsShift)

	if slice.NumEntryPointOffsets > 0 {
		block.Write(regEntryPointAddr, addrBase(state.entryPoints.Addr))
	}

	block.Write(regDecPicSize,
		uint32(sps.PicWidthInLumaSamples)<<16|
			uint32(sps.PicHeightInLumaSamples))

	if sps.ScalingListEnabled {
		writeScalingLists(s)
		block.Write(regScalingListCtrl0, scalingListCtrl0Enabled)
	} else {
		block.Write(regScalingListCtrl0, scalingListCtrl0Default)
	}

	block.Write(regNeighborInfoAddr, addrBase(state.neighborInfo.Addr))

	writeFrameInfo(s)

	if slice.SliceType != controls.HEVCSliceTypeI {
		writeRefList(s, slice.RefIdxL0[:],
			int(slice.NumRefIdxL0ActiveMinus1)+1, sramRefPicList0)

		if pps.WeightedPred || pps.WeightedBipred {
			count := int(slice.NumRefIdxL0ActiveMinus1) + 1
			writePredWeights(s, sramPredWeightLumaL0,
				weights.DeltaLumaWeightL0[:count], weights.LumaOffsetL0[:count])
			writeChromaPredWeights(s, sramPredWeightChromaL0,
				weights.DeltaChromaWeightL0[:count], weights.ChromaOffsetL0[:count])
		}
	}

	if slice.SliceType == controls.HEVCSliceTypeB {
		writeRefList(s, slice.RefIdxL1[:],
			int(slice.NumRefIdxL1ActiveMinus1)+1, sramRefPicList1)

		if pps.WeightedBipred {
			count := int(slice.NumRefIdxL1ActiveMinus1) + 1
			writePredWeights(s, sramPredWeightLumaL1,
				weights.DeltaLumaWeightL1[:count], weights.LumaOffsetL1[:count])
			writeChromaPredWeights(s, sramPredWeightChromaL1,
				weights.DeltaChromaWeightL1[:count], weights.ChromaOffsetL1[:count])
		}
	}

	block.Write(regCtrl, ctrlIRQMask)

	return nil
}

func (ops) JobTrigger(s *core.Session) {
	s.Block().Write(regTrigger, triggerDecSlice)
}

func (ops) IRQStatus(s *core.Session) core.IRQStatus {
	status := s.Block().Read(regStatus) & statusCheckMask

	if status == 0 {
		return core.IRQNone
	}
	if status&statusSuccess == 0 ||
		status&statusCheckError != 0 ||
		status&statusDataReq != 0 {
		return core.IRQError
	}
	return core.IRQSuccess
}

func (ops) IRQClear(s *core.Session) {
	s.Block().Write(regStatus, statusCheckMask)
}

func (ops) IRQDisable(s *core.Session) {
	s.Block().ClearBits(regCtrl, ctrlIRQMask)
}

func divRoundUp(value, divisor uint32) uint32 {
	return (value + divisor - 1) / divisor
}
