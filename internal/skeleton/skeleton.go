package skeleton

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/MikeSquared-Agency/cerealbox/internal/rules"
	"github.com/MikeSquared-Agency/cerealbox/internal/transform"
)

// Emphasis multipliers. Band edges belong to the lower band.
const (
	EmphasisStrong = 1.3
	EmphasisMedium = 1.15
	EmphasisNormal = 1.0
	EmphasisWeak   = 0.85
)

// Skeleton is an ordered, weighted prompt outline ready for creative synthesis.
type Skeleton struct {
	Sections       Sections           `json:"sections"`
	Emphasis       map[string]float64 `json:"emphasis"`
	Template       rules.Template     `json:"template" validate:"-"`
	NegativePrompt string             `json:"negative_prompt"`
	Metadata       Metadata           `json:"metadata"`
}

type Metadata struct {
	Category          string   `json:"category"`
	EstimatedTokens   int      `json:"estimated_tokens"`
	ReadyForSynthesis bool     `json:"ready_for_synthesis"`
	UserModifications []string `json:"user_modifications"`
}

// Emphasis maps a weight score to its multiplier.
func Emphasis(weight int) float64 {
	switch {
	case weight > 60:
		return EmphasisStrong
	case weight > 40:
		return EmphasisMedium
	case weight > 20:
		return EmphasisNormal
	default:
		return EmphasisWeak
	}
}

// Assemble orders transformed sections by the category template and attaches
// emphasis, the negative prompt and a token estimate.
//
// Sections follow the template's emphasis_order. Present sections the
// template does not list are appended afterwards by descending weight.
func Assemble(t transform.Components, r *rules.Rules, categoryID string, weights map[string]int) (*Skeleton, error) {
	c, err := r.Category(categoryID)
	if err != nil {
		return nil, err
	}
	tmpl, err := r.Template(categoryID)
	if err != nil {
		return nil, err
	}

	present := t.Sections()
	text := make(map[string]string, len(present))
	for _, s := range present {
		text[s.Name] = s.Text
	}

	var sections Sections
	for _, name := range tmpl.EmphasisOrder {
		if v, ok := text[name]; ok && !sections.Has(name) {
			sections.Set(name, v)
		}
	}
	var rest []transform.Section
	for _, s := range present {
		if !sections.Has(s.Name) {
			rest = append(rest, s)
		}
	}
	// Insertion sort keeps equal weights in canonical order.
	for i := 1; i < len(rest); i++ {
		for j := i; j > 0 && weights[rest[j].Name] > weights[rest[j-1].Name]; j-- {
			rest[j], rest[j-1] = rest[j-1], rest[j]
		}
	}
	for _, s := range rest {
		sections.Set(s.Name, s.Text)
	}

	emphasis := make(map[string]float64, len(weights))
	for name, w := range weights {
		emphasis[name] = Emphasis(w)
	}

	return &Skeleton{
		Sections:       sections,
		Emphasis:       emphasis,
		Template:       tmpl,
		NegativePrompt: strings.Join(c.NegativePrompts, ", "),
		Metadata: Metadata{
			Category:          categoryID,
			EstimatedTokens:   EstimateTokens(&sections),
			ReadyForSynthesis: true,
			UserModifications: []string{},
		},
	}, nil
}

// EstimateTokens approximates token count as characters / 4. It is a rough
// heuristic, not a tokenizer.
func EstimateTokens(s *Sections) int {
	n := 0
	for _, name := range s.names {
		n += utf8.RuneCountInString(s.text[name])
	}
	return n / 4
}

// Clone returns a deep copy, for callers that want history before refining.
func (s *Skeleton) Clone() *Skeleton {
	out := *s
	out.Sections = s.Sections.Clone()
	out.Emphasis = make(map[string]float64, len(s.Emphasis))
	for k, v := range s.Emphasis {
		out.Emphasis[k] = v
	}
	out.Template.EmphasisOrder = append([]string(nil), s.Template.EmphasisOrder...)
	out.Metadata.UserModifications = append([]string{}, s.Metadata.UserModifications...)
	return &out
}

// Render joins the sections in order. Sections whose emphasis is not 1.0 are
// wrapped as "(text:1.15)".
func Render(s *Skeleton) string {
	parts := make([]string, 0, s.Sections.Len())
	for _, name := range s.Sections.Names() {
		text, _ := s.Sections.Get(name)
		if text == "" {
			continue
		}
		if e, ok := s.Emphasis[name]; ok && e != EmphasisNormal {
			text = "(" + text + ":" + strconv.FormatFloat(e, 'f', -1, 64) + ")"
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, ", ")
}
