// Package vp8 implements the VP8 decode engine. Decoding is frame
// based; the entropy probabilities travel in a dedicated buffer the
// hardware reads per job, and the loop filter settings of the previous
// frame are kept so frames that skip the filter update still decode.
package vp8

import (
	"fmt"

	"github.com/opd-ai/vecore/controls"
	"github.com/opd-ai/vecore/core"
	"github.com/opd-ai/vecore/decode"
	"github.com/opd-ai/vecore/memory"
)

// entropyProbsSize is the fixed size of the probability buffer.
const entropyProbsSize = 0x2400

// Engine is the VP8 decode engine descriptor.
var Engine = &core.Descriptor{
	Codec:       core.CodecVP8,
	Role:        core.RoleDecoder,
	Capability:  core.CapVP8Dec,
	PixelFormat: core.PixFmtVP8Frame,
	SliceBased:  false,
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

// sessionState holds the probability buffer and the filter settings of
// the previously decoded frame.
type sessionState struct {
	probs *memory.Buffer

	lastFilterSimple bool
	lastSharpness    uint8
	lastFrameP       bool
}

// jobState caches the frame header control extracted by JobPrepare.
type jobState struct {
	frame *controls.VP8Frame
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

func (ops) FormatPrepare(s *core.Session, format *core.Format) error {
	return decode.CodedFormatPrepare(s, format)
}

func (ops) FormatConfigure(s *core.Session) error {
	return decode.CodedFormatConfigure(s)
}

func (ops) Setup(s *core.Session) error {
	state := s.EngineCtx.(*sessionState)

	probs, err := s.Memory().Alloc(entropyProbsSize)
	if err != nil {
		return fmt.Errorf("entropy probability buffer: %w", err)
	}
	state.probs = probs

	return nil
}

func (ops) Cleanup(s *core.Session) {
	state := s.EngineCtx.(*sessionState)

	s.Memory().Free(state.probs)
	state.probs = nil
}

func (ops) JobPrepare(s *core.Session) error {
	job := s.EngineJob.(*jobState)

	frame, err := decode.Control[controls.VP8Frame](s, controls.IDVP8Frame)
	if err != nil {
		return err
	}

	if frame.NumDCTParts == 0 ||
		frame.NumDCTParts > controls.VP8MaxDCTPartitions {
		return fmt.Errorf("token partitions: %d: %w",
			frame.NumDCTParts, core.ErrRange)
	}

	job.frame = frame
	return nil
}

// fillProbs lays the entropy tables out the way the hardware expects:
// coefficient probabilities in 16-byte context cells at the front, the
// header probabilities in a fixed block behind them.
func fillProbs(buf *memory.Buffer, frame *controls.VP8Frame) {
	buf.Zero()

	entropy := &frame.Entropy

	for i := range entropy.CoeffProbs {
		for j := range entropy.CoeffProbs[i] {
			for k := range entropy.CoeffProbs[i][j] {
				offset := i*probsCoeffTypeStride +
					j*probsCoeffBandStride +
					k*probsCoeffCtxStride
				copy(buf.Bytes[offset:], entropy.CoeffProbs[i][j][k][:])
			}
		}
	}

	copy(buf.Bytes[probsYMode:], entropy.YModeProbs[:])
	copy(buf.Bytes[probsUVMode:], entropy.UvModeProbs[:])
	copy(buf.Bytes[probsSegment:], frame.Segment.SegmentProbs[:])

	buf.Bytes[probsSkipFalse] = frame.ProbSkipFalse
	buf.Bytes[probsIntra] = frame.ProbIntra
	buf.Bytes[probsLast] = frame.ProbLast
	buf.Bytes[probsGf] = frame.ProbGf

	for i := range entropy.MvProbs {
		copy(buf.Bytes[probsMv+i*probsMvStride:], entropy.MvProbs[i][:])
	}
}

// picHeader packs the frame header control word. The last-frame fields
// come from the session state, not the control, so frames that skip
// the loop filter update inherit the settings actually programmed for
// the previous frame.
func picHeader(state *sessionState, frame *controls.VP8Frame) uint32 {
	value := uint32(frame.Version&0x7)<<picHdrVersionShift |
		uint32(frame.LoopFilter.Level&0x3f)<<picHdrFilterLevelShift |
		uint32(frame.LoopFilter.SharpnessLevel&0x7)<<picHdrSharpnessShift |
		uint32(frame.NumDCTParts&0xf)<<picHdrNumPartsShift |
		uint32(state.lastSharpness&0x7)<<picHdrLastSharpnessShift

	if frame.KeyFrame {
		value |= picHdrKeyFrame
	}
	if frame.ShowFrame {
		value |= picHdrShowFrame
	}
	if frame.Experimental {
		value |= picHdrExperimental
	}
	if frame.Segment.Enabled {
		value |= picHdrSegmentEnabled
	}
	if frame.Segment.UpdateMap {
		value |= picHdrSegmentUpdateMap
	}
	if frame.Segment.DeltaValueMode {
		value |= picHdrSegmentDeltaMode
	}
	if frame.MbNoSkipCoeff {
		value |= picHdrMbNoSkipCoeff
	}
	if frame.LoopFilter.FilterSimple {
		value |= picHdrFilterSimple
	}
	if frame.SignBiasGolden {
		value |= picHdrSignBiasGolden
	}
	if frame.SignBiasAlternate {
		value |= picHdrSignBiasAlt
	}
	if state.lastFilterSimple {
		value |= picHdrLastFilterSimple
	}
	if state.lastFrameP {
		value |= picHdrLastFrameP
	}

	return value
}

// packInt8 packs four signed bytes into one register word, lowest
// index in the lowest byte.
func packInt8(values [4]int8) uint32 {
	return uint32(uint8(values[0])) |
		uint32(uint8(values[1]))<<8 |
		uint32(uint8(values[2]))<<16 |
		uint32(uint8(values[3]))<<24
}

func (ops) JobConfigure(s *core.Session) error {
	block := s.Block()
	state := s.EngineCtx.(*sessionState)
	frame := s.EngineJob.(*jobState).frame
	coded := s.Job.Coded
	picture := s.Job.Picture

	fillProbs(state.probs, frame)
	block.Write(regProbsAddr, state.probs.Addr)

	// The VLD window spans the whole coded frame; the boolean coder
	// resumes mid-byte where header parsing stopped.
	block.Write(regVLDOffset, frame.FirstPartHeaderBits)
	block.Write(regVLDLen, coded.PayloadSize*8)
	block.Write(regVLDEnd, coded.Addr+coded.PayloadSize)
	block.Write(regVLDAddr,
		vldAddrVal(coded.Addr)|vldAddrFirst|vldAddrValid|vldAddrLast)
	block.Write(regFirstPartLen, frame.FirstPartSize*8)

	block.Write(regPicSize,
		uint32(frame.Width)<<16|uint32(frame.Height))
	block.Write(regPicHdr, picHeader(state, frame))

	block.Write(regSegmentQuant, packInt8(frame.Segment.QuantUpdate))
	block.Write(regSegmentLF, packInt8(frame.Segment.LfUpdate))
	block.Write(regLFRefDeltas, packInt8(frame.LoopFilter.RefFrmDelta))
	block.Write(regLFModeDeltas, packInt8(frame.LoopFilter.MbModeDelta))

	quant := &frame.Quantization
	block.Write(regQuant0,
		uint32(quant.YAcQi)|
			uint32(uint8(quant.YDcDelta))<<8|
			uint32(uint8(quant.Y2DcDelta))<<16|
			uint32(uint8(quant.Y2AcDelta))<<24)
	block.Write(regQuant1,
		uint32(uint8(quant.UvDcDelta))|
			uint32(uint8(quant.UvAcDelta))<<8)

	coder := &frame.CoderState
	block.Write(regCoderState,
		uint32(coder.BitCount)|
			uint32(coder.Value)<<8|
			uint32(coder.Range)<<16)

	lastLuma, lastChroma := s.RefPictureAddrs(frame.LastFrameTimestamp)
	goldenLuma, goldenChroma := s.RefPictureAddrs(frame.GoldenFrameTimestamp)
	altLuma, altChroma := s.RefPictureAddrs(frame.AltFrameTimestamp)

	block.Write(regRefLastLuma, lastLuma)
	block.Write(regRefLastChroma, lastChroma)
	block.Write(regRefGoldenLuma, goldenLuma)
	block.Write(regRefGoldenChroma, goldenChroma)
	block.Write(regRefAltLuma, altLuma)
	block.Write(regRefAltChroma, altChroma)

	block.Write(regOutLuma, picture.LumaAddr)
	block.Write(regOutChroma, picture.ChromaAddr)

	block.Write(regCtrl, ctrlIRQMask)

	// Remember the filter settings for the next frame's header word.
	state.lastFilterSimple = frame.LoopFilter.FilterSimple
	state.lastSharpness = frame.LoopFilter.SharpnessLevel
	state.lastFrameP = !frame.KeyFrame

	return nil
}

func (ops) JobTrigger(s *core.Session) {
	s.Block().Write(regTrigger, triggerFrameDecode)
}

func (ops) IRQStatus(s *core.Session) core.IRQStatus {
	status := s.Block().Read(regStatus) & statusCheckMask

	if status == 0 {
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
