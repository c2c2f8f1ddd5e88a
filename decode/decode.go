// Package decode provides the format handling shared by every decode
// engine: coded-format constraints, the engine mode selection written
// at job time and the picture output path programming.
package decode

import (
	"fmt"

	"github.com/opd-ai/vecore/controls"
	"github.com/opd-ai/vecore/core"
)

// Control fetches a typed parameter-set control required by a job.
func Control[T any](s *core.Session, id controls.ID) (*T, error) {
	value, err := s.Controls.Get(id)
	if err != nil {
		return nil, err
	}

	typed, ok := value.(*T)
	if !ok {
		return nil, fmt.Errorf("control %#x: %w", uint32(id), controls.ErrWrongType)
	}
	return typed, nil
}

// Picture output path registers.
const (
	RegPrimaryOutFmt       uint32 = 0xc8
	RegPrimaryChromaBufLen uint32 = 0xcc
	RegPrimaryFBLineStride uint32 = 0xd0
)

// VE_MODE decode bits beyond the engine selection.
const (
	VEModeRecWrMode2MB     uint32 = 1 << 17
	VEModeDDRModeBW128     uint32 = 1 << 16
	VEModePicWidthMore2048 uint32 = 1 << 21
	VEModePicWidthIs4096   uint32 = 1 << 22
)

// Primary output formats.
const (
	PrimaryOutFmtNV12        uint32 = 0x3
	PrimaryOutFmtTiled32NV12 uint32 = 0x0
)

// MinCodedSize is the smallest accepted coded buffer size.
const MinCodedSize = 1024

func align(value, alignment uint32) uint32 {
	return (value + alignment - 1) &^ (alignment - 1)
}

// CodedFormatPrepare applies the engine frame-size constraints to a
// coded decode format.
func CodedFormatPrepare(s *core.Session, format *core.Format) error {
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

	// Coded input has no line structure.
	format.BytesPerLine = 0

	if format.SizeImage < MinCodedSize {
		format.SizeImage = MinCodedSize
	}

	return nil
}

// CodedFormatConfigure selects the decode engine mode for the job.
func CodedFormatConfigure(s *core.Session) error {
	value := VEModeRecWrMode2MB | VEModeDDRModeBW128

	switch s.CodedFormat.PixelFormat {
	case core.PixFmtMPEG2Slice:
		value |= core.VEModeMPEG2
	case core.PixFmtH264Slice, core.PixFmtVP8Frame:
		// H.264 and VP8 share the same decoding mode bit.
		value |= core.VEModeH264
	case core.PixFmtHEVCSlice:
		value |= core.VEModeH265
	default:
		return fmt.Errorf("coded format %#x: %w",
			s.CodedFormat.PixelFormat, core.ErrUnsupported)
	}

	width := s.PictureFormat.Width
	if width == 4096 {
		value |= VEModePicWidthIs4096
	}
	if width > 2048 {
		value |= VEModePicWidthMore2048
	}

	s.Block().Write(core.RegVEMode, value)

	return nil
}

// PicturePrepare derives the picture format from the coded format:
// dimensions are copied, the stride is macroblock aligned and the
// image size covers both planes.
func PicturePrepare(s *core.Session, format *core.Format) error {
	width := s.CodedFormat.Width
	height := s.CodedFormat.Height

	stride := format.BytesPerLine
	if stride < width || stride > 32*width {
		stride = width
	}
	stride = align(stride, 16)

	switch format.PixelFormat {
	case core.PixFmtNV12:
		format.SizeImage = stride*height + stride*height/2
	case core.PixFmtNV12Tiled:
		width = align(width, 32)
		height = align(height, 32)
		stride = width
		format.SizeImage = stride*height + stride*align(height, 64)/2
	default:
		return fmt.Errorf("picture format %#x: %w",
			format.PixelFormat, core.ErrUnsupported)
	}

	format.Width = width
	format.Height = height
	format.BytesPerLine = stride

	return nil
}

// PictureConfigurer programs the primary output path at job time. It
// implements core.PictureConfigurer for the decoder unit.
type PictureConfigurer struct{}

// Configure implements core.PictureConfigurer.
func (PictureConfigurer) Configure(s *core.Session) error {
	block := s.Block()
	format := &s.PictureFormat

	switch format.PixelFormat {
	case core.PixFmtNV12:
		block.Write(RegPrimaryOutFmt, PrimaryOutFmtNV12)

		chromaSize := align(format.Width, 16) * align(format.Height, 16) / 2
		block.Write(RegPrimaryChromaBufLen, chromaSize/2)

		lumaStride := align(format.Width, 16)
		block.Write(RegPrimaryFBLineStride,
			lumaStride|(lumaStride/2)<<16)
	case core.PixFmtNV12Tiled:
		block.Write(RegPrimaryOutFmt, PrimaryOutFmtTiled32NV12)
	default:
		return fmt.Errorf("picture format %#x: %w",
			format.PixelFormat, core.ErrUnsupported)
	}

	return nil
}
