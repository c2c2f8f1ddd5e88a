package vp8

// VP8 decode engine registers. The engine shares the H.264 decoding
// mode; these control the VP8 front end layered on top of it.
const (
	regCtrl    uint32 = 0x700
	regTrigger uint32 = 0x704
	regStatus  uint32 = 0x708

	regVLDAddr   uint32 = 0x710
	regVLDOffset uint32 = 0x714
	regVLDLen    uint32 = 0x718
	regVLDEnd    uint32 = 0x71c

	regFirstPartLen uint32 = 0x720
	regPicSize      uint32 = 0x724
	regPicHdr       uint32 = 0x728

	regSegmentQuant uint32 = 0x72c
	regSegmentLF    uint32 = 0x730
	regLFRefDeltas  uint32 = 0x734
	regLFModeDeltas uint32 = 0x738

	regQuant0     uint32 = 0x73c
	regQuant1     uint32 = 0x740
	regCoderState uint32 = 0x744
	regProbsAddr  uint32 = 0x748

	regRefLastLuma     uint32 = 0x750
	regRefLastChroma   uint32 = 0x754
	regRefGoldenLuma   uint32 = 0x758
	regRefGoldenChroma uint32 = 0x75c
	regRefAltLuma      uint32 = 0x760
	regRefAltChroma    uint32 = 0x764
	regOutLuma         uint32 = 0x768
	regOutChroma       uint32 = 0x76c
)

// Bitstream window bits.
const (
	vldAddrFirst uint32 = 1 << 30
	vldAddrValid uint32 = 1 << 29
	vldAddrLast  uint32 = 1 << 28
)

func vldAddrVal(addr uint32) uint32 {
	return addr >> 4 & 0x0fff_ffff
}

// Trigger values.
const (
	triggerFrameDecode uint32 = 0xd
)

// Control and status bits.
const (
	statusSuccess    uint32 = 1 << 0
	statusCheckError uint32 = 1 << 1
	statusCheckMask  uint32 = 0x7

	ctrlIRQMask uint32 = 0x7
)

// Picture header fields. The last-frame fields repeat the filter
// settings of the previously decoded frame.
const (
	picHdrVersionShift       = 1
	picHdrFilterLevelShift   = 11
	picHdrSharpnessShift     = 17
	picHdrNumPartsShift      = 22
	picHdrLastSharpnessShift = 27

	picHdrKeyFrame         uint32 = 1 << 0
	picHdrShowFrame        uint32 = 1 << 4
	picHdrExperimental     uint32 = 1 << 5
	picHdrSegmentEnabled   uint32 = 1 << 6
	picHdrSegmentUpdateMap uint32 = 1 << 7
	picHdrSegmentDeltaMode uint32 = 1 << 8
	picHdrMbNoSkipCoeff    uint32 = 1 << 9
	picHdrFilterSimple     uint32 = 1 << 10
	picHdrSignBiasGolden   uint32 = 1 << 20
	picHdrSignBiasAlt      uint32 = 1 << 21
	picHdrLastFilterSimple uint32 = 1 << 26
	picHdrLastFrameP       uint32 = 1 << 30
)

// Entropy probability buffer layout, in bytes. Coefficient
// probabilities occupy the front, indexed by block type, coefficient
// band and context; the header probabilities sit in a fixed block.
const (
	probsCoeffTypeStride = 512
	probsCoeffBandStride = 64
	probsCoeffCtxStride  = 16

	probsYMode     = 0x1008
	probsUVMode    = 0x1010
	probsSegment   = 0x1018
	probsSkipFalse = 0x101c
	probsIntra     = 0x101d
	probsLast      = 0x101e
	probsGf        = 0x101f
	probsMv        = 0x1020
	probsMvStride  = 32
)
