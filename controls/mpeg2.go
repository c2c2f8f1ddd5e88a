package controls

// MPEG2Sequence carries sequence header and extension values.
type MPEG2Sequence struct {
	HorizontalSize  uint16
	VerticalSize    uint16
	VbvBufferSize   uint32
	ProfileAndLevel uint16
	ChromaFormat    uint8

	Progressive bool
}

// MPEG-2 picture coding types.
const (
	MPEG2PictureCodingTypeI uint8 = 1
	MPEG2PictureCodingTypeP uint8 = 2
	MPEG2PictureCodingTypeB uint8 = 3
	MPEG2PictureCodingTypeD uint8 = 4
)

// MPEG-2 picture structures.
const (
	MPEG2PictureStructureTopField    uint8 = 1
	MPEG2PictureStructureBottomField uint8 = 2
	MPEG2PictureStructureFrame       uint8 = 3
)

// MPEG2Picture carries picture header and coding extension values.
type MPEG2Picture struct {
	// BackwardRefTimestamp and ForwardRefTimestamp identify the
	// reference picture buffers by queued timestamp.
	BackwardRefTimestamp uint64
	ForwardRefTimestamp  uint64

	PictureCodingType uint8
	FCode             [2][2]uint8
	IntraDCPrecision  uint8
	PictureStructure  uint8

	TopFieldFirst           bool
	FramePredFrameDCT       bool
	ConcealmentMotionVectors bool
	QScaleType              bool
	IntraVlcFormat          bool
	AlternateScan           bool
	RepeatFirstField        bool
	ProgressiveFrame        bool
}

// MPEG2Quantisation carries the quantisation matrices in zigzag order.
type MPEG2Quantisation struct {
	IntraQuantiserMatrix    [64]uint8
	NonIntraQuantiserMatrix [64]uint8
}
