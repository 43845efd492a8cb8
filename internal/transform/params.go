package transform

// Color saturation presets.
const (
	SaturationPastel = "pastel"
	SaturationBright = "bright"
	SaturationNeon   = "neon"
	SaturationMuted  = "muted"
	SaturationBold   = "bold"
)

// DefaultEnergy is the neutral energy multiplier.
const DefaultEnergy = 1.0

// Params tunes a transformation. Every field is optional; unknown keys in a
// decoded payload are dropped by encoding/json, and unknown enum values are
// ignored rather than rejected.
type Params struct {
	EnergyLevel        *float64 `json:"energy_level,omitempty"`
	ColorSaturation    string   `json:"color_saturation,omitempty"`
	Era                string   `json:"era,omitempty"`             // nostalgia_revival only
	MetallicAccent     string   `json:"metallic_accent,omitempty"` // premium_disruptor only
	OutlineWeight      string   `json:"outline_weight,omitempty"`  // mascot_theater only
	CompositionDensity *float64 `json:"composition_density,omitempty"`
}

// Energy returns the energy multiplier, defaulting to DefaultEnergy.
func (p Params) Energy() float64 {
	if p.EnergyLevel == nil {
		return DefaultEnergy
	}
	return *p.EnergyLevel
}

// Float is a helper for building Params literals.
func Float(v float64) *float64 { return &v }

var saturationPhrases = map[string]string{
	SaturationPastel: "soft pastel saturation",
	SaturationBright: "bright saturated color",
	SaturationNeon:   "electric neon saturation",
	SaturationMuted:  "muted desaturated tones",
	SaturationBold:   "bold high-contrast color blocking",
}
