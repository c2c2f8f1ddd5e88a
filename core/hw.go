package core

// Top-level video engine registers shared by every engine.
const (
	RegVEMode  uint32 = 0x00
	RegVEReset uint32 = 0x04
)

// VE_MODE engine selection and output path bits.
const (
	VEModeMPEG2    uint32 = 0x0
	VEModeH264     uint32 = 0x1
	VEModeH265     uint32 = 0x4
	VEModeDisabled uint32 = 0x7

	// VEModePictureUntiled selects linear picture writeback on
	// variants with the untiled capability.
	VEModePictureUntiled uint32 = 1 << 20

	// Encoder path enables; the decode engine selection stays disabled
	// while encoding.
	VEModeEncEnable    uint32 = 1 << 11
	VEModeEncISPEnable uint32 = 1 << 12
)

// VE_RESET bits beyond the global reset line.
const (
	VEResetEncoderReset uint32 = 1 << 2

	// Idle flags polled before the encoder proper is started.
	VEResetCacheSyncIdle uint32 = 1 << 8
	VEResetSyncIdle      uint32 = 1 << 9
)
