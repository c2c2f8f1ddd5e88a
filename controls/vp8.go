package controls

// VP8 frame limits.
const (
	// VP8MaxDCTPartitions bounds the token partition count.
	VP8MaxDCTPartitions = 8
)

// VP8Segment carries segment-based adjustment state.
type VP8Segment struct {
	QuantUpdate  [4]int8
	LfUpdate     [4]int8
	SegmentProbs [3]uint8

	Enabled        bool
	UpdateMap      bool
	UpdateFeatureData bool
	DeltaValueMode bool
}

// VP8LoopFilter carries loop filter header state.
type VP8LoopFilter struct {
	RefFrmDelta    [4]int8
	MbModeDelta    [4]int8
	SharpnessLevel uint8
	Level          uint8

	AdjEnable    bool
	DeltaUpdate  bool
	FilterSimple bool
}

// VP8Quantization carries quantization indices and deltas.
type VP8Quantization struct {
	YAcQi     uint8
	YDcDelta  int8
	Y2DcDelta int8
	Y2AcDelta int8
	UvDcDelta int8
	UvAcDelta int8
}

// VP8Entropy carries the probability tables used by the boolean coder.
type VP8Entropy struct {
	CoeffProbs  [4][8][3][11]uint8
	YModeProbs  [4]uint8
	UvModeProbs [3]uint8
	MvProbs     [2][19]uint8
}

// VP8CoderState carries the boolean coder state at the slice boundary.
type VP8CoderState struct {
	Range    uint8
	Value    uint8
	BitCount uint8
}

// VP8Frame carries the parsed frame header for one VP8 frame.
type VP8Frame struct {
	Segment      VP8Segment
	LoopFilter   VP8LoopFilter
	Quantization VP8Quantization
	Entropy      VP8Entropy
	CoderState   VP8CoderState

	Width           uint16
	Height          uint16
	HorizontalScale uint8
	VerticalScale   uint8
	Version         uint8

	ProbSkipFalse uint8
	ProbIntra     uint8
	ProbLast      uint8
	ProbGf        uint8

	NumDCTParts         uint8
	FirstPartSize       uint32
	FirstPartHeaderBits uint32
	DCTPartSizes        [VP8MaxDCTPartitions]uint32

	LastFrameTimestamp   uint64
	GoldenFrameTimestamp uint64
	AltFrameTimestamp    uint64

	KeyFrame          bool
	Experimental      bool
	ShowFrame         bool
	MbNoSkipCoeff     bool
	SignBiasGolden    bool
	SignBiasAlternate bool
}
