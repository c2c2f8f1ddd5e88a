package controls

// H.264 decode control limits.
const (
	// H264MaxRefIdx bounds the reference list length.
	H264MaxRefIdx = 32

	// H264MaxDPBEntries bounds the decoded picture buffer entry list.
	H264MaxDPBEntries = 16
)

// H264SPS carries the active sequence parameter set.
type H264SPS struct {
	ProfileIdc                     uint8
	ConstraintSetFlags             uint8
	LevelIdc                       uint8
	SeqParameterSetID              uint8
	ChromaFormatIdc                uint8
	BitDepthLumaMinus8             uint8
	BitDepthChromaMinus8           uint8
	Log2MaxFrameNumMinus4          uint8
	PicOrderCntType                uint8
	Log2MaxPicOrderCntLsbMinus4    uint8
	MaxNumRefFrames                uint8
	OffsetForNonRefPic             int32
	OffsetForTopToBottomField      int32
	NumRefFramesInPicOrderCntCycle uint8
	PicWidthInMbsMinus1            uint16
	PicHeightInMapUnitsMinus1      uint16

	SeparateColourPlane        bool
	QpprimeYZeroTransformBypass bool
	DeltaPicOrderAlwaysZero    bool
	GapsInFrameNumValueAllowed bool
	FrameMbsOnly               bool
	MbAdaptiveFrameField       bool
	Direct8x8Inference         bool
}

// H264PPS carries the active picture parameter set.
type H264PPS struct {
	PicParameterSetID               uint8
	SeqParameterSetID               uint8
	NumSliceGroupsMinus1            uint8
	NumRefIdxL0DefaultActiveMinus1  uint8
	NumRefIdxL1DefaultActiveMinus1  uint8
	WeightedBipredIdc               uint8
	PicInitQpMinus26                int8
	PicInitQsMinus26                int8
	ChromaQpIndexOffset             int8
	SecondChromaQpIndexOffset       int8

	EntropyCodingMode                bool
	BottomFieldPicOrderInFramePresent bool
	WeightedPred                     bool
	DeblockingFilterControlPresent   bool
	ConstrainedIntraPred             bool
	RedundantPicCntPresent           bool
	Transform8x8Mode                 bool
	ScalingMatrixPresent             bool
}

// H.264 slice types.
const (
	H264SliceTypeP  uint8 = 0
	H264SliceTypeB  uint8 = 1
	H264SliceTypeI  uint8 = 2
	H264SliceTypeSP uint8 = 3
	H264SliceTypeSI uint8 = 4
)

// H264ScalingMatrix carries inverse-quantization scaling lists.
type H264ScalingMatrix struct {
	ScalingList4x4 [6][16]uint8
	ScalingList8x8 [6][64]uint8
}

// H264Reference identifies one entry of a reference list.
type H264Reference struct {
	// Index into the decode-params DPB entry array.
	Index uint8

	// TopField and BottomField select the field parity used for
	// reference; both set means frame reference.
	TopField    bool
	BottomField bool
}

// H264SliceParams carries per-slice header values.
type H264SliceParams struct {
	HeaderBitSize             uint32
	FirstMbInSlice            uint32
	SliceType                 uint8
	ColourPlaneID             uint8
	RedundantPicCnt           uint8
	CabacInitIdc              uint8
	SliceQpDelta              int8
	SliceQsDelta              int8
	DisableDeblockingFilterIdc uint8
	SliceAlphaC0OffsetDiv2    int8
	SliceBetaOffsetDiv2       int8

	NumRefIdxL0ActiveMinus1 uint8
	NumRefIdxL1ActiveMinus1 uint8
	RefPicList0             [H264MaxRefIdx]H264Reference
	RefPicList1             [H264MaxRefIdx]H264Reference

	DirectSpatialMVPred bool
}

// H264WeightFactors carries per-list prediction weights.
type H264WeightFactors struct {
	LumaWeight   [32]int16
	LumaOffset   [32]int16
	ChromaWeight [32][2]int16
	ChromaOffset [32][2]int16
}

// H264PredWeights carries the prediction weight table.
type H264PredWeights struct {
	LumaLog2WeightDenom   uint16
	ChromaLog2WeightDenom uint16
	WeightFactors         [2]H264WeightFactors
}

// H264DPBEntry describes one decoded picture buffer entry.
type H264DPBEntry struct {
	// ReferenceTimestamp identifies the picture buffer holding this
	// reference, matched against queued picture buffer timestamps.
	ReferenceTimestamp uint64

	PicNum             uint32
	FrameNum           uint16
	TopFieldOrderCnt   int32
	BottomFieldOrderCnt int32

	// Valid marks the entry as initialized; Active marks it usable for
	// reference by the current frame.
	Valid    bool
	Active   bool
	LongTerm bool
	Field    bool
}

// H264DecodeParams carries per-frame decoding state.
type H264DecodeParams struct {
	DPB [H264MaxDPBEntries]H264DPBEntry

	NalRefIdc               uint16
	FrameNum                uint16
	TopFieldOrderCnt        int32
	BottomFieldOrderCnt     int32
	IdrPicID                uint16
	PicOrderCntLsb          uint16
	DeltaPicOrderCntBottom  int32
	DeltaPicOrderCnt0       int32
	DeltaPicOrderCnt1       int32
	DecRefPicMarkingBitSize uint32
	PicOrderCntBitSize      uint32
	SliceGroupChangeCycle   uint32

	IdrPic    bool
	FieldPic  bool
	BottomField bool
}
