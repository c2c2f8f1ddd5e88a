// Package h264 implements the H.264 encode engine. Parameter-set and
// slice headers are serialized on the CPU through the hardware's
// put-bits port; the residual encoding runs on fixed-QP rate control
// with one reference frame.
package h264

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/vecore/bitstream"
	"github.com/opd-ai/vecore/controls"
	"github.com/opd-ai/vecore/core"
	"github.com/opd-ai/vecore/encode"
	"github.com/opd-ai/vecore/memory"
	"github.com/opd-ai/vecore/registers"
)

// SARExtended selects explicit sample aspect ratio dimensions.
const SARExtended int32 = 255

// Bitstream parameters, fixed for every stream.
const (
	log2MaxFrameNum       = 8
	log2MaxPicOrderCntLsb = 8
)

// NALU types.
const (
	naluTypeSliceNonIDR uint32 = 1
	naluTypeSliceIDR    uint32 = 5
	naluTypeSPS         uint32 = 7
	naluTypePPS         uint32 = 8
)

// Slice types.
const (
	sliceTypeP uint32 = 0
	sliceTypeI uint32 = 2
)

// Constraint set flags, MSB first in the SPS constraint byte.
const (
	constraintSet0 uint32 = 1 << 7
	constraintSet1 uint32 = 1 << 6
	constraintSet3 uint32 = 1 << 4
)

// headerStep tracks the header emission progression.
type headerStep int

const (
	stepStart headerStep = iota
	stepSPS
	stepPPS
	stepSlice
)

// frameType is the encode frame classification.
type frameType int

const (
	frameIDR frameType = iota
	frameI
	frameP
)

// Engine is the H.264 encode engine descriptor.
var Engine = &core.Descriptor{
	Codec:       core.CodecH264,
	Role:        core.RoleEncoder,
	Capability:  core.CapH264Enc,
	PixelFormat: core.PixFmtH264,
	SliceBased:  false,
	FrameSize: core.FrameSize{
		MinWidth:   16,
		MaxWidth:   4096,
		StepWidth:  16,
		MinHeight:  16,
		MaxHeight:  4096,
		StepHeight: 16,
	},
	NewContext:  newSessionState,
	NewJobState: newJobState,
	Ops:         ops{},
}

// sessionState is the per-stream encode state: GOP and identification
// counters, the header progression and the previous frame's
// reconstruction addresses used as P references.
type sessionState struct {
	mbInfo *memory.Buffer

	widthMbs  uint32
	heightMbs uint32

	step           headerStep
	gopIndex       uint32
	frameNum       uint32
	picOrderCntLsb uint32
	qpInit         int32

	forceKeyFrame bool

	recLastAddr     uint32
	recLastLumaSize uint32
	subpixLastAddr  uint32
}

// bufferState is the engine-private state of one input picture buffer:
// the reconstruction and subpixel scratch written while it encodes.
type bufferState struct {
	rec         *memory.Buffer
	recLumaSize uint32
	subpix      *memory.Buffer
}

// jobState carries one frame's sampled encode parameters.
type jobState struct {
	frameType frameType

	frameNum       uint32
	picOrderCntLsb uint32
	idrPicID       uint32
	nalRefIdc      uint32

	profileIdc      uint32
	levelIdc        uint32
	constraintFlags uint32

	entropyCABAC bool
	cabacInitIdc uint32

	chromaQPIndexOffset  int32
	disableDeblockingIdc uint32
	alphaOffsetDiv2      int32
	betaOffsetDiv2       int32

	qp int32
}

func newSessionState(*core.Session) (interface{}, error) {
	return &sessionState{}, nil
}

func newJobState(*core.Session) (interface{}, error) {
	return &jobState{}, nil
}

// profileSupportsCABAC reports whether the profile allows CABAC
// entropy coding.
func profileSupportsCABAC(profileIdc int32) bool {
	switch profileIdc {
	case 66, 88, 44:
		return false
	default:
		return true
	}
}

func constraintSetFlags(profileIdc int32) uint32 {
	switch profileIdc {
	case 66:
		return constraintSet0
	case 77:
		return constraintSet1
	case 44:
		return constraintSet3
	default:
		return 0
	}
}

func boolDefault(h *controls.Handler, id controls.ID, def bool) bool {
	value, err := h.Get(id)
	if err != nil {
		return def
	}

	b, ok := value.(bool)
	if !ok {
		return def
	}
	return b
}

type ops struct {
	core.NopOps
}

func (ops) CtrlValidate(s *core.Session, id controls.ID, value interface{}) error {
	if id != controls.IDEncH264EntropyMode {
		return nil
	}

	mode, ok := value.(int32)
	if !ok || mode != controls.EncH264EntropyCABAC {
		return nil
	}

	profile := s.Controls.IntDefault(controls.IDEncH264Profile,
		controls.EncH264ProfileMain)
	if !profileSupportsCABAC(profile) {
		return fmt.Errorf("cabac entropy coding with profile %d: %w",
			profile, core.ErrUnsupported)
	}

	return nil
}

func (ops) CtrlPrepare(s *core.Session, id controls.ID, value interface{}) error {
	state, ok := s.EngineCtx.(*sessionState)
	if !ok {
		return nil
	}

	switch id {
	case controls.IDEncH264Profile:
		profile, _ := value.(int32)
		if !profileSupportsCABAC(profile) {
			s.Controls.Set(controls.IDEncH264EntropyMode, controls.EncH264EntropyCAVLC)
		}

		if state.step > stepSPS {
			state.step = stepSPS
		}
	case controls.IDEncH264Level:
		if state.step > stepSPS {
			state.step = stepSPS
		}
	case controls.IDEncH264EntropyMode:
		if state.step > stepPPS {
			state.step = stepPPS
		}
	case controls.IDEncForceKeyFrame:
		state.forceKeyFrame = true
	}

	return nil
}

func (ops) FormatPrepare(s *core.Session, format *core.Format) error {
	return encode.CodedFormatPrepare(s, format)
}

func (ops) FormatConfigure(s *core.Session) error {
	return encode.CodedFormatConfigure(s)
}

func (ops) Setup(s *core.Session) error {
	state := s.EngineCtx.(*sessionState)

	state.widthMbs = divRoundUp(s.PictureFormat.Width, 16)
	state.heightMbs = divRoundUp(s.PictureFormat.Height, 16)

	mbInfo, err := s.Memory().Alloc(int(divRoundUp(state.widthMbs, 32)) * 4096)
	if err != nil {
		return fmt.Errorf("macroblock info buffer: %w", err)
	}
	state.mbInfo = mbInfo

	return nil
}

func (ops) Cleanup(s *core.Session) {
	state := s.EngineCtx.(*sessionState)

	s.Memory().Free(state.mbInfo)
	state.mbInfo = nil
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

func (ops) BufferSetup(s *core.Session, buf *core.PictureBuffer) error {
	state := bufferStateOf(buf)
	if state.rec != nil {
		return nil
	}

	widthMbs := divRoundUp(s.PictureFormat.Width, 16)
	heightMbs := divRoundUp(s.PictureFormat.Height, 16)
	mem := s.Memory()

	// Subpixel sizing comes from the vendor codec library.
	subpixWidth := alignDown((widthMbs+47)*2/3, 32) + align(widthMbs, 32)*2
	subpixHeight := (heightMbs*16 + 72) / 8

	subpix, err := mem.Alloc(int(subpixWidth * subpixHeight))
	if err != nil {
		return fmt.Errorf("subpixel buffer: %w", err)
	}

	recLumaSize := align(widthMbs, 2) * 16 * align(heightMbs+1, 4) * 16
	recChromaSize := align(widthMbs, 2) * 16 *
		align(divRoundUp(heightMbs, 2), 4) * 16

	rec, err := mem.Alloc(int(align(recLumaSize+recChromaSize, 4096)))
	if err != nil {
		mem.Free(subpix)
		return fmt.Errorf("reconstruction buffer: %w", err)
	}

	state.subpix = subpix
	state.rec = rec
	state.recLumaSize = recLumaSize

	return nil
}

func (ops) BufferCleanup(s *core.Session, buf *core.PictureBuffer) {
	state, ok := buf.Engine.(*bufferState)
	if !ok {
		return
	}

	mem := s.Memory()
	mem.Free(state.rec)
	mem.Free(state.subpix)
	state.rec = nil
	state.subpix = nil
}

func (ops) JobPrepare(s *core.Session) error {
	state := s.EngineCtx.(*sessionState)
	job := s.EngineJob.(*jobState)
	ctrls := s.Controls

	// Single parameter-set slot; every frame is a reference.
	job.idrPicID = 0
	job.nalRefIdc = 2

	closure := boolDefault(ctrls, controls.IDEncGOPClosure, true)
	gopSize := uint32(ctrls.IntDefault(controls.IDEncGOPSize,
		controls.EncDefaultGOPSize))
	iPeriod := uint32(ctrls.IntDefault(controls.IDEncIPeriod,
		controls.EncDefaultIPeriod))

	switch {
	case state.gopIndex == 0:
		job.frameType = frameIDR
	case !closure && iPeriod > 0 && state.gopIndex%iPeriod == 0:
		job.frameType = frameI
	default:
		job.frameType = frameP
	}

	if state.forceKeyFrame {
		job.frameType = frameIDR
		state.forceKeyFrame = false
	}

	state.gopIndex++
	if closure && gopSize > 0 {
		state.gopIndex %= gopSize
	}

	if job.frameType == frameIDR {
		state.frameNum = 0
		state.picOrderCntLsb = 0

		if boolDefault(ctrls, controls.IDEncPrependSPSPPSToIDR, false) {
			state.step = stepSPS
		}
	}

	job.frameNum = state.frameNum
	state.frameNum = (state.frameNum + 1) % (1 << log2MaxFrameNum)

	job.picOrderCntLsb = state.picOrderCntLsb
	state.picOrderCntLsb = (state.picOrderCntLsb + 2) %
		(1 << log2MaxPicOrderCntLsb)

	profile := ctrls.IntDefault(controls.IDEncH264Profile, controls.EncH264ProfileMain)
	job.profileIdc = uint32(profile)
	job.levelIdc = uint32(ctrls.IntDefault(controls.IDEncH264Level,
		controls.EncH264Level31))
	job.constraintFlags = constraintSetFlags(profile)

	entropy := ctrls.IntDefault(controls.IDEncH264EntropyMode,
		controls.EncH264EntropyCAVLC)
	if entropy == controls.EncH264EntropyCABAC && profileSupportsCABAC(profile) {
		job.entropyCABAC = true
		if job.frameType == frameP {
			job.cabacInitIdc = 1
		}
	}

	job.chromaQPIndexOffset =
		ctrls.IntDefault(controls.IDEncH264ChromaQPIndexOffset,
			controls.EncDefaultChromaQPIndexOffset)

	switch ctrls.IntDefault(controls.IDEncH264LoopFilterMode,
		controls.EncH264LoopFilterEnabled) {
	case controls.EncH264LoopFilterDisabled:
		job.disableDeblockingIdc = 1
	case controls.EncH264LoopFilterDisabledAtSliceBoundary:
		job.disableDeblockingIdc = 2
	default:
		job.disableDeblockingIdc = 0
	}

	if job.disableDeblockingIdc != 1 {
		job.alphaOffsetDiv2 =
			ctrls.IntDefault(controls.IDEncH264LoopFilterAlpha, 0)
		job.betaOffsetDiv2 =
			ctrls.IntDefault(controls.IDEncH264LoopFilterBeta, 0)
	}

	if job.frameType == frameP {
		job.qp = ctrls.IntDefault(controls.IDEncH264PFrameQP, controls.EncDefaultPFrameQP)
	} else {
		job.qp = ctrls.IntDefault(controls.IDEncH264IFrameQP, controls.EncDefaultIFrameQP)
	}

	qpMin := ctrls.IntDefault(controls.IDEncH264MinQP, controls.EncDefaultMinQP)
	qpMax := ctrls.IntDefault(controls.IDEncH264MaxQP, controls.EncDefaultMaxQP)
	if job.qp > qpMax {
		job.qp = qpMax
	} else if job.qp < qpMin {
		job.qp = qpMin
	}

	// Each new PPS freezes the initial QP the slice deltas are
	// relative to.
	if state.step < stepSlice {
		state.qpInit = job.qp
	}

	return nil
}

// hwSink pushes bits through the encoder's put-bits port. The bit
// count is tracked on the CPU so byte alignment never needs a register
// read mid-emission.
type hwSink struct {
	block *registers.Block
	bits  int
}

func (k *hwSink) PutBits(value uint32, count int) error {
	if err := k.block.Poll(regStatus, statusPutBitsReady, 0); err != nil {
		return fmt.Errorf("put bits: %w", err)
	}

	k.block.Write(regPutBitsData, value)
	k.block.Write(regStartTrig, trigNumBits(count)|trigTypePutBits)

	k.bits += count
	return nil
}

func (k *hwSink) BitLen() int {
	return k.bits
}

func naluHeader(naluType, refIdc uint32) uint32 {
	return refIdc<<5 | naluType&0x1f
}

// highProfile reports whether the SPS carries the chroma and bit-depth
// elements introduced with the High profiles.
func highProfile(profileIdc uint32) bool {
	switch profileIdc {
	case 100, 110, 122, 244, 44, 83, 86, 118, 128:
		return true
	default:
		return false
	}
}

func writeSPS(w *bitstream.Writer, s *core.Session) {
	state := s.EngineCtx.(*sessionState)
	job := s.EngineJob.(*jobState)
	ctrls := s.Controls

	// Annex-B start code.
	w.U(1, 32)

	w.U(naluHeader(naluTypeSPS, 3), 8)
	w.U(job.profileIdc, 8)
	w.U(job.constraintFlags, 8)
	w.U(job.levelIdc, 8)

	// seq_parameter_set_id
	w.UE(0)

	if highProfile(job.profileIdc) {
		// chroma_format_idc, always YUV 4:2:0
		w.UE(1)
		// bit_depth_luma_minus8, bit_depth_chroma_minus8
		w.UE(0)
		w.UE(0)
		// qpprime_y_zero_transform_bypass_flag
		w.Flag(false)
		// seq_scaling_matrix_present_flag
		w.Flag(false)
	}

	// log2_max_frame_num_minus4
	w.UE(log2MaxFrameNum - 4)
	// pic_order_cnt_type
	w.UE(0)
	// log2_max_pic_order_cnt_lsb_minus4
	w.UE(log2MaxPicOrderCntLsb - 4)
	// max_num_ref_frames
	w.UE(1)
	// gaps_in_frame_num_value_allowed_flag
	w.Flag(false)

	// pic_width_in_mbs_minus1, pic_height_in_map_units_minus1
	w.UE(state.widthMbs - 1)
	w.UE(state.heightMbs - 1)

	// frame_mbs_only_flag
	w.Flag(true)
	// direct_8x8_inference_flag
	w.Flag(false)
	// frame_cropping_flag
	w.Flag(false)

	// vui_parameters_present_flag
	w.Flag(true)

	if boolDefault(ctrls, controls.IDEncVUISAREnable, false) {
		sarIdc := ctrls.IntDefault(controls.IDEncVUISARIdc, 0)

		// aspect_ratio_info_present_flag
		w.Flag(true)
		// aspect_ratio_idc
		w.U(uint32(sarIdc), 8)

		if sarIdc == SARExtended {
			// sar_width, sar_height
			w.U(uint32(ctrls.IntDefault(controls.IDEncVUIExtSARWidth, 1)), 16)
			w.U(uint32(ctrls.IntDefault(controls.IDEncVUIExtSARHeight, 1)), 16)
		}
	} else {
		// aspect_ratio_info_present_flag
		w.Flag(false)
	}

	// overscan_info_present_flag
	w.Flag(false)
	// video_signal_type_present_flag
	w.Flag(false)
	// chroma_loc_info_present_flag
	w.Flag(false)
	// timing_info_present_flag
	w.Flag(false)
	// nal_hrd_parameters_present_flag
	w.Flag(false)
	// vcl_hrd_parameters_present_flag
	w.Flag(false)
	// pic_struct_present_flag
	w.Flag(false)
	// bitstream_restriction_flag
	w.Flag(false)

	// rbsp_stop_one_bit
	w.Flag(true)
	w.AlignByte()
}

func writePPS(w *bitstream.Writer, s *core.Session) {
	state := s.EngineCtx.(*sessionState)
	job := s.EngineJob.(*jobState)

	// Annex-B start code.
	w.U(1, 32)

	w.U(naluHeader(naluTypePPS, 3), 8)

	// pic_parameter_set_id, seq_parameter_set_id
	w.UE(0)
	w.UE(0)

	// entropy_coding_mode_flag
	w.Flag(job.entropyCABAC)
	// bottom_field_pic_order_in_frame_present_flag
	w.Flag(false)
	// num_slice_groups_minus1
	w.UE(0)
	// num_ref_idx_l0_default_active_minus1
	w.UE(0)
	// num_ref_idx_l1_default_active_minus1
	w.UE(0)
	// weighted_pred_flag
	w.Flag(false)
	// weighted_bipred_idc
	w.U(0, 2)

	// pic_init_qp_minus26, pic_init_qs_minus26
	w.SE(state.qpInit - 26)
	w.SE(state.qpInit - 26)

	// chroma_qp_index_offset
	w.SE(job.chromaQPIndexOffset)

	// deblocking_filter_control_present_flag
	w.Flag(true)
	// constrained_intra_pred_flag
	w.Flag(false)
	// redundant_pic_cnt_present_flag
	w.Flag(false)

	// rbsp_stop_one_bit
	w.Flag(true)
	w.AlignByte()
}

func writeSliceHeader(w *bitstream.Writer, s *core.Session) {
	state := s.EngineCtx.(*sessionState)
	job := s.EngineJob.(*jobState)

	// Annex-B start code.
	w.U(1, 32)

	naluType := naluTypeSliceNonIDR
	if job.frameType == frameIDR {
		naluType = naluTypeSliceIDR
	}
	w.U(naluHeader(naluType, job.nalRefIdc), 8)

	// first_mb_in_slice
	w.UE(0)

	sliceType := sliceTypeP
	if job.frameType != frameP {
		sliceType = sliceTypeI
	}
	w.UE(sliceType)

	// pic_parameter_set_id
	w.UE(0)

	// frame_num
	w.U(job.frameNum, log2MaxFrameNum)

	if job.frameType == frameIDR {
		// idr_pic_id
		w.UE(job.idrPicID)
	}

	// pic_order_cnt_lsb
	w.U(job.picOrderCntLsb, log2MaxPicOrderCntLsb)

	if sliceType == sliceTypeP {
		// num_ref_idx_active_override_flag
		w.Flag(false)
		// ref_pic_list_modification_flag_l0
		w.Flag(false)
	}

	if job.frameType == frameIDR {
		// no_output_of_prior_pics_flag
		w.Flag(false)
		// long_term_reference_flag
		w.Flag(false)
	} else {
		// adaptive_ref_pic_marking_mode_flag
		w.Flag(false)
	}

	if sliceType != sliceTypeI && job.entropyCABAC {
		// cabac_init_idc
		w.UE(job.cabacInitIdc)
	}

	// slice_qp_delta
	w.SE(job.qp - state.qpInit)

	// disable_deblocking_filter_idc
	w.UE(job.disableDeblockingIdc)

	if job.disableDeblockingIdc != 1 {
		// slice_alpha_c0_offset_div2, slice_beta_offset_div2
		w.SE(job.alphaOffsetDiv2)
		w.SE(job.betaOffsetDiv2)
	}
}

// writeHeaders walks the header progression, emitting everything from
// the current step down to the slice header of this frame.
func writeHeaders(s *core.Session) error {
	block := s.Block()
	state := s.EngineCtx.(*sessionState)
	w := bitstream.NewWriter(&hwSink{block: block})

	// A failed job's stream is discarded, so the next job must start
	// over from the same header.
	entry := state.step

	// Headers carry their own stuffing; the hardware must not add
	// emulation-prevention bytes on top.
	block.SetBits(regPara0, para0EPTBDis)

	for done := false; !done; {
		switch state.step {
		case stepStart:
			state.step = stepSPS
		case stepSPS:
			writeSPS(w, s)
			state.step = stepPPS
		case stepPPS:
			writePPS(w, s)
			state.step = stepSlice
		case stepSlice:
			writeSliceHeader(w, s)
			done = true
		}
	}

	block.ClearBits(regPara0, para0EPTBDis)

	if err := w.Err(); err != nil {
		state.step = entry
		return fmt.Errorf("emit headers: %w", err)
	}

	if err := block.Poll(core.RegVEReset,
		core.VEResetCacheSyncIdle|core.VEResetSyncIdle, 0); err != nil {
		state.step = entry
		return fmt.Errorf("sync idle: %w", err)
	}

	return nil
}

func (o ops) JobConfigure(s *core.Session) error {
	block := s.Block()
	state := s.EngineCtx.(*sessionState)
	job := s.EngineJob.(*jobState)
	coded := s.Job.Coded
	picture := s.Job.Picture

	block.Write(regStartTrig, 0)

	// Coded stream window.
	block.Write(regStmBitOffset, 0)
	block.Write(regStmStartAddr, coded.Addr)
	block.Write(regStmEndAddr, coded.Addr+coded.Size-1)
	block.Write(regStmBitMax, coded.Size*8)
	block.Write(regStmBitLen, 0)
	block.Write(regHeaderBits, 0)
	block.Write(regResidualBits, 0)

	if err := writeHeaders(s); err != nil {
		return err
	}

	block.Write(regMbInfoAddr, state.mbInfo.Addr)
	block.Write(regMvBufAddr, 0)

	// Reconstruction buffer of this frame; the previous frame's
	// reconstruction is the P reference.
	if err := o.BufferSetup(s, picture); err != nil {
		return err
	}
	bufState := bufferStateOf(picture)

	block.Write(regRecAddrY, bufState.rec.Addr)
	block.Write(regRecAddrC, bufState.rec.Addr+bufState.recLumaSize)

	refAddr := bufState.rec.Addr
	refLumaSize := bufState.recLumaSize
	if job.frameType == frameP {
		refAddr = state.recLastAddr
		refLumaSize = state.recLastLumaSize
	}

	block.Write(regRef0AddrY, refAddr)
	block.Write(regRef0AddrC, refAddr+refLumaSize)

	state.recLastAddr = bufState.rec.Addr
	state.recLastLumaSize = bufState.recLumaSize

	// Subpixel buffers, current and previous.
	block.Write(regSubpixAddrNew, bufState.subpix.Addr)

	if state.subpixLastAddr == 0 {
		state.subpixLastAddr = bufState.subpix.Addr
	}
	block.Write(regSubpixAddrLast, state.subpixLastAddr)
	state.subpixLastAddr = bufState.subpix.Addr

	block.Write(regDeblkAddr, 0)
	block.Write(regCyclicIntraRefresh, 0)

	// The frame number register is always written zero, regardless of
	// the slice header element value.
	value := (uint32(job.betaOffsetDiv2)&0xf)<<para0BetaOffsetShift |
		(uint32(job.alphaOffsetDiv2)&0xf)<<para0AlphaOffsetShift |
		(job.cabacInitIdc&0x3)<<para0FixModeNumShift
	if job.entropyCABAC {
		value |= para0EntropyCABAC
	}
	if job.frameType == frameP {
		value |= para0SliceTypeP
	} else {
		value |= para0SliceTypeI
	}
	block.Write(regPara0, value)

	strideMbsDiv48 := divRoundUp(s.PictureFormat.BytesPerLine/16, 48)

	block.Write(regPara1,
		para1RCModeFixed|
			strideMbsDiv48<<para1StrideMbsDiv48Shift|
			(uint32(job.chromaQPIndexOffset)&0x1f)<<para1QPChromaOffsetShift|
			uint32(job.qp)<<para1FixedQPShift)

	block.Write(regPara2, 0)

	// Dynamic motion estimation is disabled.
	block.Write(regDynamicMEPar0, 0)
	block.Write(regDynamicMEPar1, 0)

	block.Write(regRCInit, 0)
	block.Write(regRCMadTh0, 0)
	block.Write(regRCMadTh1, 0)
	block.Write(regRCMadTh2, 0)
	block.Write(regRCMadTh3, 0)

	block.Write(regMEPara,
		meParaWbMvInfoDis|2<<meParaFMESearchLevelShift)

	// Clear statistics.
	block.Write(regMad, 0)
	block.Write(regOvertimeMb, 0)
	block.Write(regMEInfo, 0)

	return nil
}

func (ops) JobTrigger(s *core.Session) {
	block := s.Block()

	block.Write(regIntEnable, intFinish|intStall)
	block.Write(regStartTrig, trigEncodeModeH264|trigTypeEncStart)
}

func (ops) JobFinish(s *core.Session, outcome core.Outcome) {
	coded := s.Job.Coded
	if coded == nil {
		return
	}

	if outcome != core.OutcomeDone {
		coded.PayloadSize = 0
		return
	}

	length := s.Block().Read(regStmBitLen)
	if length%8 != 0 {
		logrus.WithFields(logrus.Fields{
			"function": "ops.JobFinish",
			"bits":     length,
		}).Warn("Coded stream length is not byte aligned")
	}
	length /= 8

	if length > coded.Size {
		length = coded.Size
	}
	coded.PayloadSize = length

	job := s.EngineJob.(*jobState)
	if job.frameType == frameP {
		coded.Flags |= core.FlagPFrame
	} else {
		coded.Flags |= core.FlagKeyFrame
	}
}

func (ops) IRQStatus(s *core.Session) core.IRQStatus {
	status := s.Block().Read(regStatus) & statusMask

	if status == 0 {
		return core.IRQNone
	}
	if status&statusFinish != 0 {
		return core.IRQSuccess
	}
	return core.IRQError
}

func (ops) IRQClear(s *core.Session) {
	s.Block().Write(regStatus, statusMask)
}

func (ops) IRQDisable(s *core.Session) {
	s.Block().Write(regIntEnable, 0)
}

func align(value, alignment uint32) uint32 {
	return (value + alignment - 1) &^ (alignment - 1)
}

func alignDown(value, alignment uint32) uint32 {
	return value &^ (alignment - 1)
}

func divRoundUp(value, divisor uint32) uint32 {
	return (value + divisor - 1) / divisor
}
