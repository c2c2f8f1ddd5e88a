package h264

// H.264 encode engine registers.
const (
	regPara0  uint32 = 0xb00
	regPara1  uint32 = 0xb04
	regPara2  uint32 = 0xb08
	regMEPara uint32 = 0xb0c

	regIntEnable   uint32 = 0xb10
	regStatus      uint32 = 0xb14
	regStartTrig   uint32 = 0xb18
	regPutBitsData uint32 = 0xb1c

	regStmStartAddr uint32 = 0xb20
	regStmEndAddr   uint32 = 0xb24
	regStmBitOffset uint32 = 0xb28
	regStmBitMax    uint32 = 0xb2c
	regStmBitLen    uint32 = 0xb30
	regHeaderBits   uint32 = 0xb34
	regResidualBits uint32 = 0xb38

	regMbInfoAddr         uint32 = 0xb40
	regMvBufAddr          uint32 = 0xb44
	regRecAddrY           uint32 = 0xb48
	regRecAddrC           uint32 = 0xb4c
	regRef0AddrY          uint32 = 0xb50
	regRef0AddrC          uint32 = 0xb54
	regSubpixAddrNew      uint32 = 0xb58
	regSubpixAddrLast     uint32 = 0xb5c
	regDeblkAddr          uint32 = 0xb60
	regCyclicIntraRefresh uint32 = 0xb64

	regRCInit   uint32 = 0xb68
	regRCMadTh0 uint32 = 0xb6c
	regRCMadTh1 uint32 = 0xb70
	regRCMadTh2 uint32 = 0xb74
	regRCMadTh3 uint32 = 0xb78

	regDynamicMEPar0 uint32 = 0xb7c
	regDynamicMEPar1 uint32 = 0xb80

	regMad        uint32 = 0xb84
	regOvertimeMb uint32 = 0xb88
	regMEInfo     uint32 = 0xb8c
)

// Start trigger fields.
const (
	trigTypePutBits  uint32 = 0x1
	trigTypeEncStart uint32 = 0x8

	trigEncodeModeH264 uint32 = 1 << 16
)

func trigNumBits(count int) uint32 {
	return uint32(count) << 8
}

// Status and interrupt bits. The put-bits handshake flag lives outside
// the interrupt mask.
const (
	statusFinish uint32 = 1 << 0
	statusStall  uint32 = 1 << 1
	statusMask   uint32 = 0x3

	statusPutBitsReady uint32 = 1 << 8

	intFinish uint32 = 1 << 0
	intStall  uint32 = 1 << 1
)

// Encode parameter register 0. Frame picture and frame reference types
// are the zero encodings of their fields.
const (
	para0SliceTypeI uint32 = 0x0
	para0SliceTypeP uint32 = 0x1

	para0FixModeNumShift  = 4
	para0AlphaOffsetShift = 8
	para0BetaOffsetShift  = 12
	para0FrameNumShift    = 16

	para0EntropyCABAC uint32 = 1 << 2

	// para0EPTBDis suppresses emulation-prevention byte stuffing while
	// headers are pushed through the put-bits port.
	para0EPTBDis uint32 = 1 << 31
)

// Encode parameter register 1.
const (
	para1FixedQPShift        = 0
	para1QPChromaOffsetShift = 8
	para1StrideMbsDiv48Shift = 16

	para1RCModeFixed uint32 = 1 << 30
)

// Motion estimation parameters.
const (
	meParaFMESearchLevelShift = 0

	meParaWbMvInfoDis uint32 = 1 << 24
)
