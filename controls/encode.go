package controls

// H.264 encode profile values.
const (
	EncH264ProfileBaseline int32 = 66
	EncH264ProfileMain     int32 = 77
	EncH264ProfileHigh     int32 = 100
)

// H.264 encode entropy modes.
const (
	EncH264EntropyCAVLC int32 = 0
	EncH264EntropyCABAC int32 = 1
)

// H.264 encode loop filter modes.
const (
	EncH264LoopFilterEnabled                 int32 = 0
	EncH264LoopFilterDisabled                int32 = 1
	EncH264LoopFilterDisabledAtSliceBoundary int32 = 2
)

// H.264 level values, stored as level_idc.
const (
	EncH264Level1  int32 = 10
	EncH264Level13 int32 = 13
	EncH264Level2  int32 = 20
	EncH264Level31 int32 = 31
	EncH264Level4  int32 = 40
	EncH264Level42 int32 = 42
	EncH264Level5  int32 = 50
	EncH264Level62 int32 = 62
)

// Encoder control defaults, applied when a control was never set.
const (
	EncDefaultGOPSize             int32 = 12
	EncDefaultIPeriod             int32 = 12
	EncDefaultMinQP               int32 = 10
	EncDefaultMaxQP               int32 = 40
	EncDefaultIFrameQP            int32 = 26
	EncDefaultPFrameQP            int32 = 28
	EncDefaultChromaQPIndexOffset int32 = 4
)
