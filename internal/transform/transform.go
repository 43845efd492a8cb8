package transform

import (
	"strconv"
	"strings"

	"github.com/MikeSquared-Agency/cerealbox/internal/parser"
	"github.com/MikeSquared-Agency/cerealbox/internal/rules"
)

// Section names of transformed output.
const (
	SectionSubject      = "subject"
	SectionAction       = "action"
	SectionSetting      = "setting"
	SectionColors       = "colors"
	SectionEffects      = "effects"
	SectionStyleMarkers = "style_markers"
	SectionTypography   = "typography"
)

// Energy thresholds for params-driven effects.
const (
	MotionThreshold = 0.8
	CalmThreshold   = 0.6
	DenseThreshold  = 0.8
	SparseThreshold = 0.4
)

// effectsFromDNA is how many trailing visual_dna entries describe surface
// effects rather than overall style.
const effectsFromDNA = 2

// Components is the category-flavoured rendering of a parse.
type Components struct {
	Subject      string   `json:"subject"`
	Action       string   `json:"action"`
	Setting      string   `json:"setting"`
	Colors       string   `json:"colors"`
	Effects      string   `json:"effects"`
	StyleMarkers []string `json:"style_markers"`
	Typography   string   `json:"typography,omitempty"`
}

// Section is one named piece of rendered text.
type Section struct {
	Name string
	Text string
}

// Sections lists the present sections in canonical order. Typography is
// omitted when the category has no typography rules.
func (c Components) Sections() []Section {
	out := []Section{
		{SectionSubject, c.Subject},
		{SectionAction, c.Action},
		{SectionSetting, c.Setting},
		{SectionColors, c.Colors},
		{SectionEffects, c.Effects},
		{SectionStyleMarkers, strings.Join(c.StyleMarkers, ", ")},
	}
	if c.Typography != "" {
		out = append(out, Section{SectionTypography, c.Typography})
	}
	return out
}

// Apply rewrites a parse through a category's rules. An unknown category id
// returns a *rules.UnknownKeyError and no components.
func Apply(p parser.ParsedComponents, r *rules.Rules, categoryID string, params Params) (Components, error) {
	c, err := r.Category(categoryID)
	if err != nil {
		return Components{}, err
	}

	vars := placeholders(p)
	out := Components{
		Subject: renderRule(c.SubjectRules, p.Subject.Type, vars, vars["{subject}"]),
		Action:  renderRule(c.ActionRules, p.Action.EnergyLevel, vars, vars["{action}"]),
		Setting: renderSetting(c, p.Setting, vars),
		Colors:  renderColors(c, categoryID, p.Colors, params),
	}
	out.Effects, out.StyleMarkers = renderMarkers(c, categoryID, params)

	if len(c.TypographyRules) > 0 {
		out.Typography = renderTypography(c, p.Action.EnergyLevel, vars)
	}
	return out, nil
}

func renderRule(table map[string]string, key string, vars map[string]string, fallback string) string {
	if key != "" {
		if rule, ok := table[key]; ok {
			return fill(rule, vars)
		}
	}
	return fallback
}

func renderSetting(c *rules.Category, s parser.Setting, vars map[string]string) string {
	text := renderRule(c.SettingRules, s.Type, vars, "")
	if text == "" {
		return vars["{setting}"]
	}
	if s.Atmosphere != "" {
		text += ", " + humanize(s.Atmosphere) + " atmosphere"
	}
	return text
}

func renderColors(c *rules.Category, categoryID string, colors []string, params Params) string {
	var parts []string
	if len(colors) == 0 {
		if def, ok := c.ColorRules["default"]; ok {
			parts = append(parts, def)
		} else {
			parts = append(parts, "balanced natural color palette")
		}
	}
	for _, color := range colors {
		if rule, ok := c.ColorRules[color]; ok {
			parts = append(parts, rule)
		} else {
			parts = append(parts, humanize(color))
		}
	}

	if categoryID == rules.NostalgiaRevival && params.Era != "" {
		parts = append(parts, params.Era+" ink palette")
	}
	if categoryID == rules.PremiumDisruptor && params.MetallicAccent != "" {
		parts = append(parts, params.MetallicAccent+" foil highlights")
	}
	if phrase, ok := saturationPhrases[params.ColorSaturation]; ok {
		parts = append(parts, phrase)
	}
	return strings.Join(parts, ", ")
}

// renderMarkers derives effects and style markers from the category's static
// visual DNA plus any params-driven additions.
func renderMarkers(c *rules.Category, categoryID string, params Params) (string, []string) {
	var effects []string
	if n := len(c.VisualDNA); n > 0 {
		effects = append(effects, c.VisualDNA[max(0, n-effectsFromDNA):]...)
	}

	markers := newOrderedSet()
	markers.add(c.MandatoryMarkers...)
	markers.add(c.VisualDNA...)

	if params.EnergyLevel != nil {
		switch e := *params.EnergyLevel; {
		case e > MotionThreshold:
			effects = append(effects, "motion lines", "speed streaks")
			markers.add("high-energy motion")
		case e < CalmThreshold:
			effects = append(effects, "gentle stillness")
			markers.add("calm restrained energy")
		}
	}
	if params.CompositionDensity != nil {
		switch d := *params.CompositionDensity; {
		case d >= DenseThreshold:
			effects = append(effects, "densely packed composition")
		case d <= SparseThreshold:
			effects = append(effects, "generous negative space")
		}
	}

	switch {
	case categoryID == rules.NostalgiaRevival && params.Era != "":
		markers.add("authentic " + params.Era + " print aesthetic")
	case categoryID == rules.PremiumDisruptor && params.MetallicAccent != "":
		markers.add(params.MetallicAccent + " foil accents")
	case categoryID == rules.MascotTheater && params.OutlineWeight != "":
		markers.add(params.OutlineWeight + " outlines")
	}

	if len(effects) == 0 {
		effects = append(effects, "clean finish")
	}
	return strings.Join(effects, ", "), markers.items
}

func renderTypography(c *rules.Category, energy string, vars map[string]string) string {
	if rule, ok := c.TypographyRules[energy]; ok && energy != "" {
		return fill(rule, vars)
	}
	if rule, ok := c.TypographyRules["default"]; ok {
		return fill(rule, vars)
	}
	return "bold cereal box lettering"
}

// placeholders builds the substitution table for rule text, including the
// generic phrases used when no rule matches.
func placeholders(p parser.ParsedComponents) map[string]string {
	count := ""
	if p.Subject.Count != nil && *p.Subject.Count > 1 {
		count = strconv.Itoa(*p.Subject.Count)
	}
	return map[string]string{
		"{subject}":    genericSubject(p.Subject, count),
		"{noun}":       p.Subject.Noun,
		"{profession}": p.Subject.Profession,
		"{count}":      count,
		"{action}":     genericAction(p.Action),
		"{verb}":       p.Action.Verb,
		"{object}":     p.Action.Object,
		"{setting}":    genericSetting(p.Setting),
		"{location}":   p.Setting.Location,
		"{atmosphere}": humanize(p.Setting.Atmosphere),
	}
}

func genericSubject(s parser.Subject, count string) string {
	noun := s.Noun
	if noun == "" && s.Type != "" {
		noun = humanize(s.Type) + " figure"
	}
	if noun == "" {
		noun = "central hero figure"
	}
	return joinWords(append(append([]string{count}, s.Attributes...), noun)...)
}

func genericAction(a parser.Action) string {
	if a.Verb == "" {
		return "striking a confident pose"
	}
	return joinWords(a.Verb, a.Object)
}

func genericSetting(s parser.Setting) string {
	if s.Location == "" {
		if s.Atmosphere != "" {
			return humanize(s.Atmosphere) + " backdrop"
		}
		return "simple backdrop"
	}
	words := append([]string{}, s.Attributes...)
	words = append(words, humanize(s.Atmosphere), s.Location)
	return joinWords(words...)
}

func fill(rule string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, k, v)
	}
	out := strings.NewReplacer(pairs...).Replace(rule)
	out = strings.Join(strings.Fields(out), " ")
	out = strings.ReplaceAll(out, " ,", ",")
	return strings.Trim(out, " ,")
}

func joinWords(words ...string) string {
	var kept []string
	for _, w := range words {
		if w != "" {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

func humanize(tag string) string {
	return strings.ReplaceAll(tag, "_", " ")
}

type orderedSet struct {
	seen  map[string]bool
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]bool), items: []string{}}
}

func (s *orderedSet) add(vals ...string) {
	for _, v := range vals {
		if v == "" || s.seen[v] {
			continue
		}
		s.seen[v] = true
		s.items = append(s.items, v)
	}
}
