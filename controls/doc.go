// Package controls defines the typed parameter structures supplied to
// codec engines and the handler that stores them per session.
//
// Controls carry already-parsed bitstream metadata (sequence, picture
// and slice parameters, quantization matrices, reference lists) for
// decoding, and scalar encoding parameters (QP, GOP layout, profile,
// level) for encoding. Values are validated by the owning engine before
// they are stored, so engines read them without re-checking ranges
// except where hardware limits are narrower than the control range.
package controls
