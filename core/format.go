package core

// FourCC builds a pixel format code from four characters.
func FourCC(a, b, c, d byte) uint32 {
	return uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24
}

// Coded pixel formats served by the engines.
var (
	PixFmtMPEG2Slice = FourCC('M', 'G', '2', 'S')
	PixFmtH264Slice  = FourCC('S', '2', '6', '4')
	PixFmtHEVCSlice  = FourCC('S', '2', '6', '5')
	PixFmtVP8Frame   = FourCC('V', 'P', '8', 'F')
	PixFmtH264       = FourCC('H', '2', '6', '4')
)

// Picture pixel formats.
var (
	PixFmtNV12      = FourCC('N', 'V', '1', '2')
	PixFmtNV12Tiled = FourCC('M', 'B', '3', '2')
)

// Format describes one negotiated buffer format.
type Format struct {
	PixelFormat  uint32
	Width        uint32
	Height       uint32
	BytesPerLine uint32
	SizeImage    uint32
}

// WidthMbs returns the frame width in 16-pixel macroblock units.
func (f *Format) WidthMbs() uint32 {
	return (f.Width + 15) / 16
}

// HeightMbs returns the frame height in 16-pixel macroblock units.
func (f *Format) HeightMbs() uint32 {
	return (f.Height + 15) / 16
}
