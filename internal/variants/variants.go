package variants

import (
	"fmt"

	"github.com/MikeSquared-Agency/cerealbox/internal/parser"
	"github.com/MikeSquared-Agency/cerealbox/internal/rules"
	"github.com/MikeSquared-Agency/cerealbox/internal/skeleton"
	"github.com/MikeSquared-Agency/cerealbox/internal/transform"
	"github.com/MikeSquared-Agency/cerealbox/internal/weights"
)

// Bounds on how many variants one call may produce.
const (
	MinCount = 1
	MaxCount = 5
)

// RangeError reports a variant count outside [MinCount, MaxCount].
type RangeError struct {
	Count int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("Count must be between %d and %d", MinCount, MaxCount)
}

// Preset is a named set of style params.
type Preset struct {
	Name   string
	Params transform.Params
}

// Presets returns the fixed preset table in generation order.
func Presets() []Preset {
	return []Preset{
		{"Subtle", transform.Params{
			EnergyLevel:        transform.Float(0.5),
			ColorSaturation:    transform.SaturationPastel,
			CompositionDensity: transform.Float(0.4),
		}},
		{"Balanced", transform.Params{
			EnergyLevel:        transform.Float(0.75),
			ColorSaturation:    transform.SaturationBright,
			CompositionDensity: transform.Float(0.7),
		}},
		{"Intense", transform.Params{
			EnergyLevel:        transform.Float(1.0),
			ColorSaturation:    transform.SaturationNeon,
			CompositionDensity: transform.Float(1.0),
		}},
		{"Vintage", transform.Params{
			EnergyLevel:        transform.Float(0.6),
			ColorSaturation:    transform.SaturationMuted,
			CompositionDensity: transform.Float(0.5),
			Era:                "1970s",
		}},
		{"Dramatic", transform.Params{
			EnergyLevel:        transform.Float(0.9),
			ColorSaturation:    transform.SaturationBold,
			CompositionDensity: transform.Float(0.8),
		}},
	}
}

// Variant is one preset's skeleton.
type Variant struct {
	Name        string             `json:"name"`
	StyleParams transform.Params   `json:"style_params"`
	Skeleton    *skeleton.Skeleton `json:"skeleton"`
}

// Generate builds count skeletons from the first count presets. Weights come
// from parsed.SemanticWeights, computed on the fly when absent.
func Generate(parsed parser.ParsedComponents, r *rules.Rules, categoryID string, count int) ([]Variant, error) {
	if count < MinCount || count > MaxCount {
		return nil, &RangeError{Count: count}
	}
	if _, err := r.Category(categoryID); err != nil {
		return nil, err
	}

	w := parsed.SemanticWeights
	if len(w) == 0 {
		w = weights.Compute(parsed)
	}

	presets := Presets()[:count]
	out := make([]Variant, 0, count)
	for i, preset := range presets {
		comps, err := transform.Apply(parsed, r, categoryID, preset.Params)
		if err != nil {
			return nil, err
		}
		skel, err := skeleton.Assemble(comps, r, categoryID, w)
		if err != nil {
			return nil, err
		}
		out = append(out, Variant{
			Name:        fmt.Sprintf("Variant %d (%s)", i+1, preset.Name),
			StyleParams: preset.Params,
			Skeleton:    skel,
		})
	}
	return out, nil
}
