package mpeg2

// MPEG decode engine registers.
const (
	regMP12Header    uint32 = 0x100
	regPicCodedSize  uint32 = 0x104
	regPicBoundSize  uint32 = 0x108
	regMBAddr        uint32 = 0x10c
	regCtrl          uint32 = 0x110
	regTrigger       uint32 = 0x114
	regStatus        uint32 = 0x118
	regVLDAddr       uint32 = 0x128
	regVLDOffset     uint32 = 0x12c
	regVLDLen        uint32 = 0x130
	regVLDEndAddr    uint32 = 0x134
	regRecLuma       uint32 = 0x148
	regRecChroma     uint32 = 0x14c
	regFwdRefLuma    uint32 = 0x150
	regFwdRefChroma  uint32 = 0x154
	regBwdRefLuma    uint32 = 0x158
	regBwdRefChroma  uint32 = 0x15c
	regIQMInput      uint32 = 0x180
	regError         uint32 = 0x1c4
	regCorrectMBAddr uint32 = 0x1c8
)

// MP12 header field packing.
const (
	mp12SliceTypeShift        = 28
	mp12IntraDCPrecisionShift = 10
	mp12PictureStructureShift = 8
	mp12TopFieldFirst         = 1 << 7
	mp12FramePredFrameDCT     = 1 << 6
	mp12ConcealmentMV         = 1 << 5
	mp12QScaleType            = 1 << 4
	mp12IntraVLCFormat        = 1 << 3
	mp12AlternateScan         = 1 << 2
	mp12FullPelForward        = 1 << 1
	mp12FullPelBackward       = 1 << 0
)

// mp12FCode packs f_code[x][y] into its 4-bit field.
func mp12FCode(x, y int, value uint8) uint32 {
	return uint32(value&0xf) << uint(24-4*(2*x+y))
}

// Quantisation matrix input port.
const (
	iqmFlagIntra    uint32 = 1 << 14
	iqmFlagNonIntra uint32 = 0
)

func iqmWeight(index int, weight uint8) uint32 {
	return uint32(weight)<<8 | uint32(index)
}

// Control bits.
const (
	ctrlIRQMask       uint32 = 0x7 << 3
	ctrlMCNoWriteback uint32 = 1 << 8
	ctrlMCCacheEnable uint32 = 1 << 10
)

// Trigger bits.
const (
	triggerHWMPEGVLD  uint32 = 0x8 << 24
	triggerMPEG2      uint32 = 0x1 << 16
	triggerMBBoundary uint32 = 1 << 14
)

// Status bits.
const (
	statusSuccess    uint32 = 1 << 0
	statusCheckError uint32 = 1 << 1
	statusCheckMask  uint32 = 0x7
)

// VLD bitstream window bits.
const (
	vldAddrValidPicData uint32 = 1 << 28
	vldAddrLastPicData  uint32 = 1 << 29
	vldAddrFirstPicData uint32 = 1 << 30
)

func vldAddrBase(addr uint32) uint32 {
	return addr >> 4 & 0x0fff_ffff
}
