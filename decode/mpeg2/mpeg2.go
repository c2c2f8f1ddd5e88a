// Package mpeg2 implements the MPEG-2 decode engine. Jobs are slice
// based; the engine keeps no per-session hardware state.
package mpeg2

import (
	"github.com/opd-ai/vecore/controls"
	"github.com/opd-ai/vecore/core"
	"github.com/opd-ai/vecore/decode"
)

// Engine is the MPEG-2 decode engine descriptor.
var Engine = &core.Descriptor{
	Codec:       core.CodecMPEG2,
	Role:        core.RoleDecoder,
	Capability:  core.CapMPEG2Dec,
	PixelFormat: core.PixFmtMPEG2Slice,
	SliceBased:  true,
	FrameSize: core.FrameSize{
		MinWidth:   16,
		MaxWidth:   3840,
		StepWidth:  16,
		MinHeight:  16,
		MaxHeight:  3840,
		StepHeight: 16,
	},
	NewJobState: newJobState,
	Ops:         ops{},
}

// jobState caches the typed controls extracted by JobPrepare.
type jobState struct {
	sequence     *controls.MPEG2Sequence
	picture      *controls.MPEG2Picture
	quantisation *controls.MPEG2Quantisation
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

func (ops) JobPrepare(s *core.Session) error {
	job := s.EngineJob.(*jobState)

	sequence, err := decode.Control[controls.MPEG2Sequence](s, controls.IDMPEG2Sequence)
	if err != nil {
		return err
	}
	picture, err := decode.Control[controls.MPEG2Picture](s, controls.IDMPEG2Picture)
	if err != nil {
		return err
	}
	quantisation, err := decode.Control[controls.MPEG2Quantisation](s, controls.IDMPEG2Quantisation)
	if err != nil {
		return err
	}

	job.sequence = sequence
	job.picture = picture
	job.quantisation = quantisation

	return nil
}

func (ops) JobConfigure(s *core.Session) error {
	job := s.EngineJob.(*jobState)
	block := s.Block()

	// Quantisation matrices stream through the matrix input port,
	// intra first.
	for i, weight := range job.quantisation.IntraQuantiserMatrix {
		block.Write(regIQMInput, iqmFlagIntra|iqmWeight(i, weight))
	}
	for i, weight := range job.quantisation.NonIntraQuantiserMatrix {
		block.Write(regIQMInput, iqmFlagNonIntra|iqmWeight(i, weight))
	}

	picture := job.picture

	header := uint32(picture.PictureCodingType) << mp12SliceTypeShift
	for x := 0; x < 2; x++ {
		for y := 0; y < 2; y++ {
			header |= mp12FCode(x, y, picture.FCode[x][y])
		}
	}
	header |= uint32(picture.IntraDCPrecision) << mp12IntraDCPrecisionShift
	header |= uint32(picture.PictureStructure) << mp12PictureStructureShift
	if picture.TopFieldFirst {
		header |= mp12TopFieldFirst
	}
	if picture.FramePredFrameDCT {
		header |= mp12FramePredFrameDCT
	}
	if picture.ConcealmentMotionVectors {
		header |= mp12ConcealmentMV
	}
	if picture.QScaleType {
		header |= mp12QScaleType
	}
	if picture.IntraVlcFormat {
		header |= mp12IntraVLCFormat
	}
	if picture.AlternateScan {
		header |= mp12AlternateScan
	}
	// Full-pel vectors are an MPEG-1 feature, always clear here.
	block.Write(regMP12Header, header)

	// Coded size comes from the sequence header, the bound size from
	// the negotiated picture format.
	sequence := job.sequence
	block.Write(regPicCodedSize,
		divRoundUp(uint32(sequence.HorizontalSize), 16)<<8|
			divRoundUp(uint32(sequence.VerticalSize), 16))
	block.Write(regPicBoundSize,
		(s.PictureFormat.Width&0xfff)<<16|(s.PictureFormat.Height&0xfff))

	// Missing references program zero addresses; the hardware copes.
	fwdLuma, fwdChroma := s.RefPictureAddrs(picture.ForwardRefTimestamp)
	block.Write(regFwdRefLuma, fwdLuma)
	block.Write(regFwdRefChroma, fwdChroma)

	bwdLuma, bwdChroma := s.RefPictureAddrs(picture.BackwardRefTimestamp)
	block.Write(regBwdRefLuma, bwdLuma)
	block.Write(regBwdRefChroma, bwdChroma)

	dst := s.Job.Picture
	block.Write(regRecLuma, dst.LumaAddr)
	block.Write(regRecChroma, dst.ChromaAddr)

	// Bitstream window over the full coded buffer.
	src := s.Job.Coded
	block.Write(regVLDLen, src.PayloadSize*8)
	block.Write(regVLDOffset, 0)
	block.Write(regVLDAddr,
		vldAddrBase(src.Addr)|vldAddrValidPicData|
			vldAddrLastPicData|vldAddrFirstPicData)
	block.Write(regVLDEndAddr, src.Addr+src.PayloadSize)

	block.Write(regMBAddr, 0)
	block.Write(regError, 0)
	block.Write(regCorrectMBAddr, 0)

	block.Write(regCtrl, ctrlIRQMask|ctrlMCNoWriteback|ctrlMCCacheEnable)

	return nil
}

func (ops) JobTrigger(s *core.Session) {
	s.Block().Write(regTrigger,
		triggerHWMPEGVLD|triggerMPEG2|triggerMBBoundary)
}

func (ops) IRQStatus(s *core.Session) core.IRQStatus {
	status := s.Block().Read(regStatus)

	if status&statusCheckMask == 0 {
		return core.IRQNone
	}
	if status&statusSuccess == 0 || status&statusCheckError != 0 {
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
