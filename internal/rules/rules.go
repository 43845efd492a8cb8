package rules

import (
	"errors"
	"fmt"
	"strings"
)

// The seven category ids the pipeline is built around.
const (
	MascotTheater     = "mascot_theater"
	HealthHalo        = "health_halo"
	NostalgiaRevival  = "nostalgia_revival"
	PremiumDisruptor  = "premium_disruptor"
	KidChaos          = "kid_chaos"
	TransparentHonest = "transparent_honest"
	AdventureFantasy  = "adventure_fantasy"
)

// RequiredCategories lists the ids every rule set must define.
var RequiredCategories = []string{
	MascotTheater, HealthHalo, NostalgiaRevival, PremiumDisruptor,
	KidChaos, TransparentHonest, AdventureFantasy,
}

// ErrMissingTemplate is returned when a category has no template.
var ErrMissingTemplate = errors.New("template missing for category")

// UnknownKeyError reports a lookup against a key that does not exist, along
// with the keys that would have been accepted.
type UnknownKeyError struct {
	Kind  string   // "category" or "component"
	Key   string
	Valid []string
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("unknown %s: %s. Available: [%s]", e.Kind, e.Key, strings.Join(e.Valid, ", "))
}

// Category is one visual style preset with its transformation rules.
type Category struct {
	Description      string            `yaml:"description" json:"description" validate:"required"`
	VisualDNA        []string          `yaml:"visual_dna" json:"visual_dna" validate:"required,min=1"`
	IdealSubjects    []string          `yaml:"ideal_subjects" json:"ideal_subjects"`
	CompatibleMoods  []string          `yaml:"compatible_moods" json:"compatible_moods"`
	TriggerKeywords  []string          `yaml:"trigger_keywords" json:"trigger_keywords"`
	SubjectRules     map[string]string `yaml:"subject_rules" json:"subject_rules"`
	ActionRules      map[string]string `yaml:"action_rules" json:"action_rules"`
	SettingRules     map[string]string `yaml:"setting_rules" json:"setting_rules"`
	ColorRules       map[string]string `yaml:"color_rules" json:"color_rules"`
	TypographyRules  map[string]string `yaml:"typography_rules,omitempty" json:"typography_rules,omitempty"`
	MandatoryMarkers []string          `yaml:"mandatory_markers" json:"mandatory_markers"`
	NegativePrompts  []string          `yaml:"negative_prompts" json:"negative_prompts"`
}

// HasIdealSubject reports whether subjectType is one of the category's ideal subjects.
func (c *Category) HasIdealSubject(subjectType string) bool {
	return contains(c.IdealSubjects, subjectType)
}

// HasCompatibleMood reports whether emotion is one of the category's compatible moods.
func (c *Category) HasCompatibleMood(emotion string) bool {
	return contains(c.CompatibleMoods, emotion)
}

// fillDefaults replaces absent collections with empty ones so no field is nil.
func (c *Category) fillDefaults() {
	if c.IdealSubjects == nil {
		c.IdealSubjects = []string{}
	}
	if c.CompatibleMoods == nil {
		c.CompatibleMoods = []string{}
	}
	if c.TriggerKeywords == nil {
		c.TriggerKeywords = []string{}
	}
	if c.SubjectRules == nil {
		c.SubjectRules = map[string]string{}
	}
	if c.ActionRules == nil {
		c.ActionRules = map[string]string{}
	}
	if c.SettingRules == nil {
		c.SettingRules = map[string]string{}
	}
	if c.ColorRules == nil {
		c.ColorRules = map[string]string{}
	}
	if c.MandatoryMarkers == nil {
		c.MandatoryMarkers = []string{}
	}
	if c.NegativePrompts == nil {
		c.NegativePrompts = []string{}
	}
}

// TransformationMaps are the category-agnostic keyword tables used to
// recognise raw vocabulary. Each table maps a keyword to a tag.
type TransformationMaps struct {
	SubjectTypes map[string]string `yaml:"subject_types" json:"subject_types"`
	Professions  map[string]string `yaml:"professions" json:"professions"`
	Descriptors  map[string]string `yaml:"descriptors" json:"descriptors"`
	Counts       map[string]string `yaml:"counts" json:"counts"`
	Verbs        map[string]string `yaml:"verbs" json:"verbs"`
	Objects      map[string]string `yaml:"objects" json:"objects"`
	Locations    map[string]string `yaml:"locations" json:"locations"`
	Atmospheres  map[string]string `yaml:"atmospheres" json:"atmospheres"`
	Colors       map[string]string `yaml:"colors" json:"colors"`
	Emotions     map[string]string `yaml:"emotions" json:"emotions"`
	Intensities  map[string]string `yaml:"intensities" json:"intensities"`
}

// Template controls how a category's skeleton is laid out.
type Template struct {
	EmphasisOrder []string `yaml:"emphasis_order" json:"emphasis_order" validate:"required,min=1"`
	Layout        string   `yaml:"layout" json:"layout"`
}

// Rules is the immutable rule store. It is built once and shared read-only.
type Rules struct {
	order      []string
	categories map[string]*Category
	templates  map[string]Template
	maps       TransformationMaps
}

// New assembles a Rules value. order gives category declaration order.
func New(order []string, categories map[string]*Category, templates map[string]Template, maps TransformationMaps) *Rules {
	ids := make([]string, len(order))
	copy(ids, order)
	for _, c := range categories {
		c.fillDefaults()
	}
	return &Rules{
		order:      ids,
		categories: categories,
		templates:  templates,
		maps:       maps,
	}
}

// IDs returns category ids in declaration order.
func (r *Rules) IDs() []string {
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// Category looks up a category by id.
func (r *Rules) Category(id string) (*Category, error) {
	c, ok := r.categories[id]
	if !ok {
		return nil, &UnknownKeyError{Kind: "category", Key: id, Valid: r.IDs()}
	}
	return c, nil
}

// Template looks up the template for a category. A known category without
// a template yields ErrMissingTemplate.
func (r *Rules) Template(id string) (Template, error) {
	if _, err := r.Category(id); err != nil {
		return Template{}, err
	}
	t, ok := r.templates[id]
	if !ok {
		return Template{}, fmt.Errorf("%w: %s", ErrMissingTemplate, id)
	}
	return t, nil
}

// Maps returns the shared keyword tables.
func (r *Rules) Maps() *TransformationMaps {
	return &r.maps
}

func contains(list []string, v string) bool {
	if v == "" {
		return false
	}
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
