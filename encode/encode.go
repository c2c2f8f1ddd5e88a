// Package encode provides the format handling shared by the encode
// side: coded-format propagation from the picture format, the encoder
// enable sequence and the ISP input path programming.
package encode

import (
	"fmt"

	"github.com/opd-ai/vecore/core"
)

// ISP input path registers. The ISP feeds raw pictures into the
// encoder core.
const (
	RegISPPicInfo         uint32 = 0xa00
	RegISPScalerSize      uint32 = 0xa04
	RegISPPicStride0      uint32 = 0xa08
	RegISPCtrl            uint32 = 0xa0c
	RegISPInputLumaAddr   uint32 = 0xa10
	RegISPInputChromaAddr uint32 = 0xa14
)

// ISP control bits.
const (
	ISPCtrlFormatYUV420SP  uint32 = 0x1
	ISPCtrlColorspaceBT601 uint32 = 1 << 12
)

// MinCodedSize is the smallest accepted coded buffer size.
const MinCodedSize = 1024

func align(value, alignment uint32) uint32 {
	return (value + alignment - 1) &^ (alignment - 1)
}

func divRoundUp(value, divisor uint32) uint32 {
	return (value + divisor - 1) / divisor
}

// CodedFormatPrepare derives the coded encode format: dimensions come
// from the picture format, the coded output has no line structure.
func CodedFormatPrepare(s *core.Session, format *core.Format) error {
	if s.PictureFormat.Width > 0 {
		format.Width = s.PictureFormat.Width
		format.Height = s.PictureFormat.Height
	}

	format.BytesPerLine = 0

	if format.SizeImage < MinCodedSize {
		format.SizeImage = MinCodedSize
	}

	return nil
}

// CodedFormatConfigure runs the encoder enable sequence: disable,
// reset, then enable the encoder and ISP paths with the decode engine
// selection held disabled.
func CodedFormatConfigure(s *core.Session) error {
	block := s.Block()

	value := block.Read(core.RegVEMode)
	value &^= core.VEModeEncEnable | core.VEModeEncISPEnable
	value |= core.VEModeDisabled
	block.Write(core.RegVEMode, value)

	block.SetBits(core.RegVEReset, core.VEResetEncoderReset)
	block.ClearBits(core.RegVEReset, core.VEResetEncoderReset)

	value = block.Read(core.RegVEMode)
	value |= core.VEModeEncEnable |
		core.VEModeEncISPEnable |
		core.VEModeDisabled
	block.Write(core.RegVEMode, value)

	return nil
}

// PicturePrepare applies the engine frame-size constraints and the
// macroblock-aligned stride to a raw input picture format.
func PicturePrepare(s *core.Session, format *core.Format) error {
	size := s.Engine.FrameSize

	if size.StepWidth > 0 {
		format.Width = align(format.Width, size.StepWidth)
	}
	if size.StepHeight > 0 {
		format.Height = align(format.Height, size.StepHeight)
	}

	if format.Width < size.MinWidth {
		format.Width = size.MinWidth
	}
	if size.MaxWidth > 0 && format.Width > size.MaxWidth {
		format.Width = size.MaxWidth
	}
	if format.Height < size.MinHeight {
		format.Height = size.MinHeight
	}
	if size.MaxHeight > 0 && format.Height > size.MaxHeight {
		format.Height = size.MaxHeight
	}

	stride := format.BytesPerLine
	if stride < format.Width || stride > 32*format.Width {
		stride = format.Width
	}
	stride = align(stride, 16)

	switch format.PixelFormat {
	case core.PixFmtNV12:
		format.SizeImage = stride*format.Height + stride*format.Height/2
	default:
		return fmt.Errorf("picture format %#x: %w",
			format.PixelFormat, core.ErrUnsupported)
	}

	format.BytesPerLine = stride

	return nil
}

// PictureConfigurer programs the ISP input path at job time. It
// implements core.PictureConfigurer for the encoder unit.
type PictureConfigurer struct{}

// Configure implements core.PictureConfigurer.
func (PictureConfigurer) Configure(s *core.Session) error {
	block := s.Block()
	format := &s.PictureFormat
	picture := s.Job.Picture

	widthMbs := divRoundUp(format.Width, 16)
	heightMbs := divRoundUp(format.Height, 16)

	block.Write(RegISPPicInfo, widthMbs<<16|heightMbs)
	block.Write(RegISPScalerSize, heightMbs<<16|widthMbs)

	if format.BytesPerLine%16 != 0 {
		return fmt.Errorf("picture stride %d: %w",
			format.BytesPerLine, core.ErrRange)
	}
	block.Write(RegISPPicStride0, format.BytesPerLine/16)

	block.Write(RegISPCtrl, ISPCtrlFormatYUV420SP|ISPCtrlColorspaceBT601)

	block.Write(RegISPInputLumaAddr, picture.LumaAddr)
	block.Write(RegISPInputChromaAddr, picture.ChromaAddr)

	return nil
}
