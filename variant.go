package vecore

import "github.com/opd-ai/vecore/core"

// Variant describes one hardware generation: the capability set the
// silicon implements and the module clock rate it is specified for.
type Variant struct {
	Name         string
	Capabilities core.Capability

	// ClockRate is the video engine module clock in Hz.
	ClockRate uint32
}

// Known hardware variants.
var (
	VariantA10 = Variant{
		Name: "a10",
		Capabilities: core.CapMPEG2Dec |
			core.CapH264Dec |
			core.CapVP8Dec,
		ClockRate: 320000000,
	}

	VariantA13 = Variant{
		Name: "a13",
		Capabilities: core.CapMPEG2Dec |
			core.CapH264Dec |
			core.CapVP8Dec,
		ClockRate: 320000000,
	}

	VariantA20 = Variant{
		Name: "a20",
		Capabilities: core.CapMPEG2Dec |
			core.CapH264Dec |
			core.CapVP8Dec,
		ClockRate: 320000000,
	}

	VariantA33 = Variant{
		Name: "a33",
		Capabilities: core.CapUntiled |
			core.CapMPEG2Dec |
			core.CapH264Dec |
			core.CapVP8Dec,
		ClockRate: 320000000,
	}

	VariantH3 = Variant{
		Name: "h3",
		Capabilities: core.CapUntiled |
			core.CapMPEG2Dec |
			core.CapH264Dec |
			core.CapH265Dec |
			core.CapVP8Dec,
		ClockRate: 402000000,
	}

	VariantV3s = Variant{
		Name: "v3s",
		Capabilities: core.CapUntiled |
			core.CapH264Dec |
			core.CapH264Enc,
		ClockRate: 402000000,
	}

	VariantR40 = Variant{
		Name: "r40",
		Capabilities: core.CapUntiled |
			core.CapMPEG2Dec |
			core.CapH264Dec |
			core.CapVP8Dec,
		ClockRate: 297000000,
	}

	VariantD1 = Variant{
		Name: "d1",
		Capabilities: core.CapUntiled |
			core.CapMPEG2Dec |
			core.CapH264Dec |
			core.CapH265Dec,
		ClockRate: 432000000,
	}

	VariantA64 = Variant{
		Name: "a64",
		Capabilities: core.CapUntiled |
			core.CapMPEG2Dec |
			core.CapH264Dec |
			core.CapH264Enc |
			core.CapH265Dec |
			core.CapVP8Dec,
		ClockRate: 402000000,
	}

	VariantH5 = Variant{
		Name: "h5",
		Capabilities: core.CapUntiled |
			core.CapMPEG2Dec |
			core.CapH264Dec |
			core.CapH265Dec |
			core.CapVP8Dec,
		ClockRate: 402000000,
	}

	VariantH6 = Variant{
		Name: "h6",
		Capabilities: core.CapUntiled |
			core.CapMPEG2Dec |
			core.CapH264Dec |
			core.CapH265Dec |
			core.CapH26510Dec |
			core.CapVP8Dec,
		ClockRate: 600000000,
	}
)

// Variants lists every known hardware variant.
func Variants() []Variant {
	return []Variant{
		VariantA10,
		VariantA13,
		VariantA20,
		VariantA33,
		VariantH3,
		VariantV3s,
		VariantR40,
		VariantD1,
		VariantA64,
		VariantH5,
		VariantH6,
	}
}

// LookupVariant returns the variant with the given name.
func LookupVariant(name string) (Variant, bool) {
	for _, v := range Variants() {
		if v.Name == name {
			return v, true
		}
	}
	return Variant{}, false
}
