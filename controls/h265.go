package controls

// H.265 decode control limits.
const (
	// HEVCMaxDPBEntries bounds the decoded picture buffer entry list,
	// matching what the hardware frame-info table can hold.
	HEVCMaxDPBEntries = 16

	// HEVCMaxRefIdx bounds the reference list length.
	HEVCMaxRefIdx = 16
)

// HEVCSPS carries the active sequence parameter set.
type HEVCSPS struct {
	VideoParameterSetID                uint8
	SeqParameterSetID                  uint8
	PicWidthInLumaSamples              uint16
	PicHeightInLumaSamples             uint16
	BitDepthLumaMinus8                 uint8
	BitDepthChromaMinus8               uint8
	Log2MaxPicOrderCntLsbMinus4        uint8
	SpsMaxDecPicBufferingMinus1        uint8
	SpsMaxNumReorderPics               uint8
	SpsMaxLatencyIncreasePlus1         uint8
	Log2MinLumaCodingBlockSizeMinus3   uint8
	Log2DiffMaxMinLumaCodingBlockSize  uint8
	Log2MinLumaTransformBlockSizeMinus2 uint8
	Log2DiffMaxMinLumaTransformBlockSize uint8
	MaxTransformHierarchyDepthInter    uint8
	MaxTransformHierarchyDepthIntra    uint8
	PcmSampleBitDepthLumaMinus1        uint8
	PcmSampleBitDepthChromaMinus1      uint8
	Log2MinPcmLumaCodingBlockSizeMinus3 uint8
	Log2DiffMaxMinPcmLumaCodingBlockSize uint8
	NumShortTermRefPicSets             uint8
	NumLongTermRefPicsSps              uint8
	ChromaFormatIdc                    uint8
	SpsTemporalMvpEnabled              bool

	SeparateColourPlane     bool
	ScalingListEnabled      bool
	AmpEnabled              bool
	SampleAdaptiveOffset    bool
	PcmEnabled              bool
	PcmLoopFilterDisabled   bool
	LongTermRefPicsPresent  bool
	StrongIntraSmoothingEnabled bool
}

// HEVCPPS carries the active picture parameter set.
type HEVCPPS struct {
	PicParameterSetID              uint8
	NumExtraSliceHeaderBits        uint8
	NumRefIdxL0DefaultActiveMinus1 uint8
	NumRefIdxL1DefaultActiveMinus1 uint8
	InitQpMinus26                  int8
	DiffCuQpDeltaDepth             uint8
	PpsCbQpOffset                  int8
	PpsCrQpOffset                  int8
	NumTileColumnsMinus1           uint8
	NumTileRowsMinus1              uint8
	ColumnWidthMinus1              [20]uint8
	RowHeightMinus1                [22]uint8
	PpsBetaOffsetDiv2              int8
	PpsTcOffsetDiv2                int8
	Log2ParallelMergeLevelMinus2   uint8

	DependentSliceSegmentEnabled  bool
	OutputFlagPresent             bool
	SignDataHidingEnabled         bool
	CabacInitPresent              bool
	ConstrainedIntraPred          bool
	TransformSkipEnabled          bool
	CuQpDeltaEnabled              bool
	PpsSliceChromaQpOffsetsPresent bool
	WeightedPred                  bool
	WeightedBipred                bool
	TransquantBypassEnabled       bool
	TilesEnabled                  bool
	EntropyCodingSyncEnabled      bool
	LoopFilterAcrossTilesEnabled  bool
	PpsLoopFilterAcrossSlicesEnabled bool
	DeblockingFilterOverrideEnabled  bool
	PpsDisableDeblockingFilter       bool
	ListsModificationPresent         bool
	SliceSegmentHeaderExtensionPresent bool
	DeblockingFilterControlPresent   bool
	UniformSpacing                   bool
}

// HEVCScalingMatrix carries inverse-quantization scaling lists.
type HEVCScalingMatrix struct {
	ScalingList4x4     [6][16]uint8
	ScalingList8x8     [6][64]uint8
	ScalingList16x16   [6][64]uint8
	ScalingList32x32   [2][64]uint8
	ScalingListDC16x16 [6]uint8
	ScalingListDC32x32 [2]uint8
}

// HEVCPredWeightTable carries the prediction weight table.
type HEVCPredWeightTable struct {
	LumaLog2WeightDenom        uint8
	DeltaChromaLog2WeightDenom int8

	DeltaLumaWeightL0   [HEVCMaxRefIdx]int8
	LumaOffsetL0        [HEVCMaxRefIdx]int8
	DeltaChromaWeightL0 [HEVCMaxRefIdx][2]int8
	ChromaOffsetL0      [HEVCMaxRefIdx][2]int8

	DeltaLumaWeightL1   [HEVCMaxRefIdx]int8
	LumaOffsetL1        [HEVCMaxRefIdx]int8
	DeltaChromaWeightL1 [HEVCMaxRefIdx][2]int8
	ChromaOffsetL1      [HEVCMaxRefIdx][2]int8
}

// H.265 slice types.
const (
	HEVCSliceTypeB uint8 = 0
	HEVCSliceTypeP uint8 = 1
	HEVCSliceTypeI uint8 = 2
)

// HEVCSliceParams carries per-slice header values.
type HEVCSliceParams struct {
	BitSize        uint32
	DataByteOffset uint32
	SliceSegmentAddr     uint32
	NumEntryPointOffsets uint32

	NalUnitType          uint8
	NuhTemporalIDPlus1   uint8
	SliceType            uint8
	ColourPlaneID        uint8
	SlicePicOrderCnt     int32
	NumRefIdxL0ActiveMinus1 uint8
	NumRefIdxL1ActiveMinus1 uint8
	CollocatedRefIdx     uint8
	FiveMinusMaxNumMergeCand uint8
	SliceQpDelta         int8
	SliceCbQpOffset      int8
	SliceCrQpOffset      int8
	SliceActYQpOffset    int8
	SliceActCbQpOffset   int8
	SliceActCrQpOffset   int8
	SliceBetaOffsetDiv2  int8
	SliceTcOffsetDiv2    int8
	PicStructure         uint8

	RefIdxL0 [HEVCMaxRefIdx]uint8
	RefIdxL1 [HEVCMaxRefIdx]uint8

	ShortTermRefPicSetSize uint32
	LongTermRefPicSetSize  uint32

	PredWeightTable HEVCPredWeightTable

	SliceSaoLumaUsed       bool
	SliceSaoChromaUsed     bool
	SliceTemporalMvpEnabled bool
	MvdL1Zero              bool
	CabacInit              bool
	CollocatedFromL0       bool
	UseIntegerMv           bool
	SliceDeblockingFilterDisabled bool
	SliceLoopFilterAcrossSlicesEnabled bool
	DependentSliceSegment  bool
}

// HEVCDPBEntry describes one decoded picture buffer entry.
type HEVCDPBEntry struct {
	ReferenceTimestamp uint64
	Flags              uint8
	FieldPic           uint8
	PicOrderCntVal     int32

	Valid    bool
	Active   bool
	LongTerm bool
}

// HEVCDecodeParams carries per-frame decoding state.
type HEVCDecodeParams struct {
	PicOrderCntVal int32
	ShortTermRefPicSetSize uint16
	LongTermRefPicSetSize  uint16
	NumActiveDPBEntries    uint8
	NumPocStCurrBefore     uint8
	NumPocStCurrAfter      uint8
	NumPocLtCurr           uint8
	PocStCurrBefore        [HEVCMaxDPBEntries]uint8
	PocStCurrAfter         [HEVCMaxDPBEntries]uint8
	PocLtCurr              [HEVCMaxDPBEntries]uint8
	DPB                    [HEVCMaxDPBEntries]HEVCDPBEntry

	IdrPic    bool
	IrapPic   bool
	NoOutputOfPriorPics bool
}
