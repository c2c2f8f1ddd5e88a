package h265

// H.265 decode engine registers.
const (
	regNalHdr           uint32 = 0x500
	regSPSHdr           uint32 = 0x504
	regPcmCtrl          uint32 = 0x508
	regPPSCtrl0         uint32 = 0x50c
	regPPSCtrl1         uint32 = 0x510
	regScalingListCtrl0 uint32 = 0x514
	regSliceHdrInfo0    uint32 = 0x51c
	regSliceHdrInfo1    uint32 = 0x520
	regSliceHdrInfo2    uint32 = 0x524
	regCtrl             uint32 = 0x52c
	regTrigger          uint32 = 0x534
	regStatus           uint32 = 0x538
	regBitsAddr         uint32 = 0x540
	regBitsOffset       uint32 = 0x544
	regBitsLen          uint32 = 0x548
	regBitsEndAddr      uint32 = 0x54c
	regOutputFrameIdx   uint32 = 0x550
	regNeighborInfoAddr uint32 = 0x554
	regEntryPointAddr   uint32 = 0x558
	regTileStartCTB     uint32 = 0x55c
	regTileEndCTB       uint32 = 0x560
	regScalingDCCoef0   uint32 = 0x564
	regScalingDCCoef1   uint32 = 0x568
	regBitsRead         uint32 = 0x56c
	regDecPicSize       uint32 = 0x570
	regDecCTBAddr       uint32 = 0x574
	regDecCTBNum        uint32 = 0x578
	regSRAMOffset       uint32 = 0x5e0
	regSRAMData         uint32 = 0x5e4
)

// Hardware addresses dropped to 256-byte granularity.
func addrBase(addr uint32) uint32 {
	return addr >> 8
}

// Bitstream address flags.
const (
	bitsAddrValidSliceData uint32 = 1 << 24
	bitsAddrLastSliceData  uint32 = 1 << 25
	bitsAddrFirstSliceData uint32 = 1 << 26
)

// Trigger values.
const (
	triggerShowBits  uint32 = 0x2
	triggerFlushBits uint32 = 0x3
	triggerInitSWDec uint32 = 0x7
	triggerDecSlice  uint32 = 0x8
)

func triggerNBits(count int) uint32 {
	return uint32(count) << 8
}

// Control and status bits.
const (
	statusSuccess    uint32 = 1 << 0
	statusCheckError uint32 = 1 << 1
	statusDataReq    uint32 = 1 << 2
	statusCheckMask  uint32 = 0x7
	statusVLDBusy    uint32 = 1 << 8

	ctrlIRQMask uint32 = 0x7
)

// NAL header fields.
const (
	nalHdrUnitTypeShift        = 0
	nalHdrTemporalIDPlus1Shift = 6
)

// SPS header fields.
const (
	spsChromaFormatIdcShift        = 0
	spsBitDepthLumaShift           = 2
	spsBitDepthChromaShift         = 5
	spsLog2MinCbSizeShift          = 8
	spsLog2DiffMaxMinCbSizeShift   = 11
	spsLog2MinTbSizeShift          = 13
	spsLog2DiffMaxMinTbSizeShift   = 15
	spsMaxTransformDepthInterShift = 17
	spsMaxTransformDepthIntraShift = 20

	spsFlagSeparateColourPlane  uint32 = 1 << 23
	spsFlagAmpEnabled           uint32 = 1 << 24
	spsFlagSampleAdaptiveOffset uint32 = 1 << 25
	spsFlagTemporalMvpEnabled   uint32 = 1 << 26
	spsFlagStrongIntraSmoothing uint32 = 1 << 27
)

// PCM control fields.
const (
	pcmBitDepthLumaShift     = 0
	pcmBitDepthChromaShift   = 4
	pcmLog2MinCbSizeShift    = 8
	pcmLog2DiffMaxMinCbShift = 10

	pcmFlagEnabled            uint32 = 1 << 15
	pcmFlagLoopFilterDisabled uint32 = 1 << 16
)

// PPS control fields.
const (
	ppsCtrl0DiffCuQpDeltaDepthShift = 4
	ppsCtrl0InitQpShift             = 8
	ppsCtrl0CbQpOffsetShift         = 16
	ppsCtrl0CrQpOffsetShift         = 24

	ppsCtrl0FlagCuQpDeltaEnabled uint32 = 1 << 0
	ppsCtrl0FlagTransformSkip    uint32 = 1 << 1
	ppsCtrl0FlagConstrainedIntra uint32 = 1 << 2
	ppsCtrl0FlagSignDataHiding   uint32 = 1 << 3

	ppsCtrl1ParallelMergeShift = 8

	ppsCtrl1FlagLoopFilterAcrossSlices uint32 = 1 << 0
	ppsCtrl1FlagLoopFilterAcrossTiles  uint32 = 1 << 1
	ppsCtrl1FlagEntropyCodingSync      uint32 = 1 << 2
	ppsCtrl1FlagTilesEnabled           uint32 = 1 << 3
	ppsCtrl1FlagTransquantBypass       uint32 = 1 << 4
	ppsCtrl1FlagWeightedBipred         uint32 = 1 << 5
	ppsCtrl1FlagWeightedPred           uint32 = 1 << 6
)

// Slice header info fields.
const (
	sliceInfo0SliceTypeShift     = 0
	sliceInfo0ColourPlaneShift   = 2
	sliceInfo0CollocatedRefShift = 4
	sliceInfo0NumRefIdxL0Shift   = 8
	sliceInfo0NumRefIdxL1Shift   = 12
	sliceInfo0MergeCandShift     = 16
	sliceInfo0PictureTypeShift   = 20

	sliceInfo0FlagCollocatedFromL0 uint32 = 1 << 23
	sliceInfo0FlagCabacInit        uint32 = 1 << 24
	sliceInfo0FlagMvdL1Zero        uint32 = 1 << 25
	sliceInfo0FlagSliceSaoChroma   uint32 = 1 << 26
	sliceInfo0FlagSliceSaoLuma     uint32 = 1 << 27
	sliceInfo0FlagTemporalMvp      uint32 = 1 << 28
	sliceInfo0FlagDependentSegment uint32 = 1 << 29
	sliceInfo0FlagFirstSliceInPic  uint32 = 1 << 30

	sliceInfo1QpDeltaShift    = 0
	sliceInfo1CbQpOffsetShift = 8
	sliceInfo1CrQpOffsetShift = 13
	sliceInfo1BetaOffsetShift = 18
	sliceInfo1TcOffsetShift   = 22

	sliceInfo1FlagDeblockingDisabled     uint32 = 1 << 28
	sliceInfo1FlagLoopFilterAcrossSlices uint32 = 1 << 29
	sliceInfo1FlagNotLowDelay            uint32 = 1 << 30

	sliceInfo2LumaLog2DenomShift   = 0
	sliceInfo2ChromaLog2DenomShift = 4
	sliceInfo2EntryPointsShift     = 8
)

// Scaling list control.
const (
	scalingListCtrl0Default uint32 = 0
	scalingListCtrl0Enabled uint32 = 1 << 31
)

// SRAM regions accessed through the offset and data registers. Offsets
// are in bytes.
const (
	sramPredWeightLumaL0   uint32 = 0x000
	sramPredWeightChromaL0 uint32 = 0x020
	sramPredWeightLumaL1   uint32 = 0x060
	sramPredWeightChromaL1 uint32 = 0x080
	sramRefPicList0        uint32 = 0x0c0
	sramRefPicList1        uint32 = 0x0d0
	sramScalingLists       uint32 = 0x140
	sramFrameInfo          uint32 = 0x400
	sramFrameInfoUnit      uint32 = 0x020
)

// sramRefPicListLTRef flags a long-term reference in a list entry.
const sramRefPicListLTRef = 0x80
