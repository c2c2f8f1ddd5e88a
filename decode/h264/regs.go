package h264

// Shared buffer control registers, used for large pictures.
const (
	regBufCtrl          uint32 = 0x050
	regDblkDramBufAddr  uint32 = 0x054
	regIntraPredBufAddr uint32 = 0x058
)

const (
	bufCtrlIntraPredMixedRAM uint32 = 1 << 0
	bufCtrlDblkMixedRAM      uint32 = 1 << 1
	bufCtrlIntraPredIntSRAM  uint32 = 1 << 2
	bufCtrlDblkIntSRAM       uint32 = 1 << 3
)

// H.264 decode engine registers.
const (
	regSPS            uint32 = 0x200
	regPPS            uint32 = 0x204
	regSHS            uint32 = 0x208
	regSHS2           uint32 = 0x20c
	regSHSWP          uint32 = 0x210
	regSHSQP          uint32 = 0x21c
	regCtrl           uint32 = 0x220
	regTriggerType    uint32 = 0x224
	regStatus         uint32 = 0x228
	regVLDAddr        uint32 = 0x230
	regVLDOffset      uint32 = 0x234
	regVLDLen         uint32 = 0x238
	regVLDEnd         uint32 = 0x23c
	regSDRotCtrl      uint32 = 0x240
	regOutputFrameIdx uint32 = 0x24c
	regExtraBuffer1   uint32 = 0x250
	regExtraBuffer2   uint32 = 0x254
	regSRAMPortOffset uint32 = 0x2e0
	regSRAMPortData   uint32 = 0x2e4
)

// VLD bitstream window bits.
const (
	vldAddrFirst uint32 = 1 << 30
	vldAddrValid uint32 = 1 << 29
	vldAddrLast  uint32 = 1 << 28
)

func vldAddrVal(addr uint32) uint32 {
	return addr >> 4 & 0x0fff_ffff
}

// Trigger types.
const (
	triggerTypeFlushBits      uint32 = 0x3
	triggerTypeInitSWDec      uint32 = 0x7
	triggerTypeAVCSliceDecode uint32 = 0x8
)

func triggerTypeNBits(count int) uint32 {
	return uint32(count) << 8
}

// Control and status bits.
const (
	intSliceDecode uint32 = 1 << 0
	intDecodeErr   uint32 = 1 << 1
	intVLDDataReq  uint32 = 1 << 2
	intMask        uint32 = 0x7

	statusVLDBusy uint32 = 1 << 8
)

// Parameter register bits.
const (
	spsMbsOnly              uint32 = 1 << 18
	spsMbAdaptiveFrameField uint32 = 1 << 17
	spsDirect8x8Inference   uint32 = 1 << 16

	ppsEntropyCodingMode    uint32 = 1 << 15
	ppsWeightedPred         uint32 = 1 << 4
	ppsConstrainedIntraPred uint32 = 1 << 1
	ppsTransform8x8Mode     uint32 = 1 << 0

	shsNalRefIdc           uint32 = 1 << 12
	shsFirstSliceInPic     uint32 = 1 << 5
	shsFieldPic            uint32 = 1 << 4
	shsBottomField         uint32 = 1 << 3
	shsDirectSpatialMVPred uint32 = 1 << 2

	shs2NumRefIdxActiveOvrd uint32 = 1 << 12

	shsQPScalingMatrixDefault uint32 = 1 << 24
)

// SRAM regions accessed through the port registers. Offsets are in
// 32-bit words.
const (
	sramPredWeightTable uint32 = 0x000
	sramFrameBufferList uint32 = 0x100
	sramRefList0        uint32 = 0x190
	sramRefList1        uint32 = 0x199
	sramScalingList8x8A uint32 = 0x200
	sramScalingList8x8B uint32 = 0x210
	sramScalingList4x4  uint32 = 0x220
)
