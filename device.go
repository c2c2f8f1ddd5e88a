package vecore

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/vecore/core"
	"github.com/opd-ai/vecore/decode"
	decodeh264 "github.com/opd-ai/vecore/decode/h264"
	"github.com/opd-ai/vecore/decode/h265"
	"github.com/opd-ai/vecore/decode/mpeg2"
	"github.com/opd-ai/vecore/decode/vp8"
	"github.com/opd-ai/vecore/encode"
	encodeh264 "github.com/opd-ai/vecore/encode/h264"
	"github.com/opd-ai/vecore/memory"
	"github.com/opd-ai/vecore/metrics"
	"github.com/opd-ai/vecore/registers"
)

// Capability bits, re-exported for variant table consumers.
const (
	CapUntiled   = core.CapUntiled
	CapMPEG2Dec  = core.CapMPEG2Dec
	CapH264Dec   = core.CapH264Dec
	CapH265Dec   = core.CapH265Dec
	CapH26510Dec = core.CapH26510Dec
	CapVP8Dec    = core.CapVP8Dec
	CapH264Enc   = core.CapH264Enc
)

// Configuration errors.
var (
	ErrNoBlock  = errors.New("register block required")
	ErrNoMemory = errors.New("memory allocator required")
)

// DeviceConfig configures one video engine device.
type DeviceConfig struct {
	Variant Variant

	// Block is the register window of the video engine. The decoder
	// and encoder units share it.
	Block *registers.Block

	// Memory allocates hardware-addressable scratch buffers.
	Memory memory.Allocator

	// Power is the external clock/power collaborator; nil means the
	// hardware is always powered.
	Power core.PowerController

	// Completer receives job completion reports from both units.
	Completer core.Completer

	// Metrics is optional; nil disables instrumentation.
	Metrics *metrics.Metrics

	// WatchdogTimeout overrides the per-job default when non-zero.
	WatchdogTimeout time.Duration
}

// DefaultDeviceConfig returns a configuration over the in-memory
// register backend and a 64 MiB arena, suitable for tests and
// hardware-free development.
func DefaultDeviceConfig(variant Variant) DeviceConfig {
	return DeviceConfig{
		Variant: variant,
		Block:   registers.NewBlock(registers.NewMemBackend()),
		Memory:  memory.NewArena(0x1000_0000, 64<<20),
	}
}

// DecoderEngines lists every decode engine descriptor. The variant
// capability mask selects which of them a device enables.
func DecoderEngines() []*core.Descriptor {
	return []*core.Descriptor{
		mpeg2.Engine,
		decodeh264.Engine,
		h265.Engine,
		vp8.Engine,
	}
}

// EncoderEngines lists every encode engine descriptor.
func EncoderEngines() []*core.Descriptor {
	return []*core.Descriptor{
		encodeh264.Engine,
	}
}

// Device is one video engine instance: a decoder unit and an encoder
// unit sharing the register window, scratch memory and power resource.
type Device struct {
	variant Variant
	decoder *core.Proc
	encoder *core.Proc
}

// NewDevice wires both processing units for the hardware variant.
func NewDevice(config DeviceConfig) (*Device, error) {
	if config.Block == nil {
		return nil, fmt.Errorf("new device: %w", ErrNoBlock)
	}
	if config.Memory == nil {
		return nil, fmt.Errorf("new device: %w", ErrNoMemory)
	}

	d := &Device{
		variant: config.Variant,
		decoder: core.NewProc(core.ProcConfig{
			Role:            core.RoleDecoder,
			Block:           config.Block,
			Memory:          config.Memory,
			Capabilities:    config.Variant.Capabilities,
			Engines:         DecoderEngines(),
			Power:           config.Power,
			Completer:       config.Completer,
			Picture:         decode.PictureConfigurer{},
			Metrics:         config.Metrics,
			WatchdogTimeout: config.WatchdogTimeout,
		}),
		encoder: core.NewProc(core.ProcConfig{
			Role:            core.RoleEncoder,
			Block:           config.Block,
			Memory:          config.Memory,
			Capabilities:    config.Variant.Capabilities,
			Engines:         EncoderEngines(),
			Power:           config.Power,
			Completer:       config.Completer,
			Picture:         encode.PictureConfigurer{},
			Metrics:         config.Metrics,
			WatchdogTimeout: config.WatchdogTimeout,
		}),
	}

	logrus.WithFields(logrus.Fields{
		"function":        "NewDevice",
		"variant":         config.Variant.Name,
		"decoder_engines": len(d.decoder.Engines()),
		"encoder_engines": len(d.encoder.Engines()),
	}).Info("Video engine device created")

	return d, nil
}

// Variant returns the configured hardware variant.
func (d *Device) Variant() Variant {
	return d.variant
}

// Capabilities returns the variant capability mask.
func (d *Device) Capabilities() core.Capability {
	return d.variant.Capabilities
}

// Supports reports whether the variant implements all bits in mask.
func (d *Device) Supports(mask core.Capability) bool {
	return d.variant.Capabilities.Has(mask)
}

// Decoder returns the decode processing unit.
func (d *Device) Decoder() *core.Proc {
	return d.decoder
}

// Encoder returns the encode processing unit.
func (d *Device) Encoder() *core.Proc {
	return d.encoder
}

// OpenSession creates a session on the unit serving the coded pixel
// format. The caller still negotiates formats and controls on the
// returned session.
func (d *Device) OpenSession(pixelFormat uint32) (*core.Session, error) {
	if d.decoder.FindEngine(pixelFormat) != nil {
		return d.decoder.NewSession(), nil
	}
	if d.encoder.FindEngine(pixelFormat) != nil {
		return d.encoder.NewSession(), nil
	}

	return nil, fmt.Errorf("open session for format %#x: %w",
		pixelFormat, core.ErrUnsupported)
}

// HandleDecoderIRQ services an interrupt attributed to the decoder
// unit. It returns false when no decoder job claims the interrupt.
func (d *Device) HandleDecoderIRQ() bool {
	return d.decoder.HandleIRQ()
}

// HandleEncoderIRQ services an interrupt attributed to the encoder
// unit. It returns false when no encoder job claims the interrupt.
func (d *Device) HandleEncoderIRQ() bool {
	return d.encoder.HandleIRQ()
}

// HandleIRQ services the shared interrupt line: the decoder unit gets
// the first claim, then the encoder. Unclaimed interrupts are cleared
// on whatever session is flagged active so the line cannot stay
// asserted.
func (d *Device) HandleIRQ() bool {
	if d.decoder.HandleIRQ() {
		return true
	}
	if d.encoder.HandleIRQ() {
		return true
	}

	logrus.WithFields(logrus.Fields{
		"function": "Device.HandleIRQ",
		"variant":  d.variant.Name,
	}).Warn("Interrupt claimed by no processing unit")

	d.decoder.ClearSpurious()
	d.encoder.ClearSpurious()

	return false
}
