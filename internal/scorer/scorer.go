package scorer

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/MikeSquared-Agency/cerealbox/internal/parser"
	"github.com/MikeSquared-Agency/cerealbox/internal/rules"
)

// Points awarded by each rule.
const (
	SubjectPoints = 3
	MoodPoints    = 2
	EnergyPoints  = 2
	KeywordPoints = 1
)

// FallbackReasoning is used when the winning category collected no reasons.
const FallbackReasoning = "General compatibility"

var (
	energetic  = []string{rules.KidChaos, rules.MascotTheater}
	minimalist = []string{rules.HealthHalo, rules.PremiumDisruptor}
)

// Result is one category's score against a parse.
type Result struct {
	Category string   `json:"category"`
	Score    int      `json:"score"`
	Reasons  []string `json:"reasons"`
}

// Suggestion is the ranked outcome of Suggest.
type Suggestion struct {
	PrimarySuggestion string         `json:"primary_suggestion"`
	Alternatives      []string       `json:"alternatives"`
	Scores            map[string]int `json:"scores"`
	Reasoning         string         `json:"reasoning"`
}

// Score evaluates every rule for one category. The rules are independent;
// each is checked regardless of the others.
func Score(p parser.ParsedComponents, id string, c *rules.Category) Result {
	res := Result{Category: id, Reasons: []string{}}

	if c.HasIdealSubject(p.Subject.Type) {
		res.Score += SubjectPoints
		res.Reasons = append(res.Reasons, fmt.Sprintf("Subject type '%s' is ideal for this category", p.Subject.Type))
	}

	if c.HasCompatibleMood(p.Mood.Emotion) {
		res.Score += MoodPoints
		res.Reasons = append(res.Reasons, fmt.Sprintf("Mood '%s' aligns with category aesthetic", p.Mood.Emotion))
	}

	energy := p.Action.EnergyLevel
	if energy == "" {
		energy = parser.EnergyMedium
	}
	switch {
	case isOneOf(id, energetic) && (energy == parser.EnergyHigh || energy == parser.EnergyExtreme):
		res.Score += EnergyPoints
		res.Reasons = append(res.Reasons, "High energy matches dynamic category")
	case isOneOf(id, minimalist) && energy == parser.EnergyLow:
		res.Score += EnergyPoints
		res.Reasons = append(res.Reasons, "Low energy suits minimalist aesthetic")
	}

	res.Score += KeywordPoints * keywordHits(lexicalText(p), c.TriggerKeywords)
	return res
}

// Rank scores every category and orders them by descending score. The sort is
// stable so ties keep rule-store declaration order.
func Rank(p parser.ParsedComponents, r *rules.Rules) []Result {
	ids := r.IDs()
	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		c, err := r.Category(id)
		if err != nil {
			continue
		}
		results = append(results, Score(p, id, c))
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// Suggest picks the best category for a parse plus the next two.
func Suggest(p parser.ParsedComponents, r *rules.Rules) Suggestion {
	ranked := Rank(p, r)
	s := Suggestion{
		Alternatives: []string{},
		Scores:       make(map[string]int, len(ranked)),
		Reasoning:    FallbackReasoning,
	}
	for _, res := range ranked {
		s.Scores[res.Category] = res.Score
	}
	if len(ranked) == 0 {
		return s
	}
	s.PrimarySuggestion = ranked[0].Category
	for _, res := range ranked[1:min(3, len(ranked))] {
		s.Alternatives = append(s.Alternatives, res.Category)
	}
	if len(ranked[0].Reasons) > 0 {
		s.Reasoning = strings.Join(ranked[0].Reasons, "; ")
	}
	return s
}

// keywordHits counts distinct keywords that occur anywhere in text. This is a
// plain substring test, so a keyword inside an unrelated word still counts.
func keywordHits(text string, keywords []string) int {
	seen := make(map[string]bool, len(keywords))
	hits := 0
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		if strings.Contains(text, kw) {
			hits++
		}
	}
	return hits
}

// lexicalText flattens every extracted value of a parse into one lower-case
// string for keyword matching. Field names are left out.
func lexicalText(p parser.ParsedComponents) string {
	parts := []string{
		p.Subject.Type, p.Subject.Noun, p.Subject.Profession,
		p.Action.Verb, p.Action.Object, p.Action.EnergyLevel,
		p.Setting.Type, p.Setting.Location, p.Setting.Atmosphere,
		p.Mood.Emotion, p.Mood.Intensity,
	}
	if p.Subject.Count != nil {
		parts = append(parts, strconv.Itoa(*p.Subject.Count))
	}
	parts = append(parts, p.Subject.Attributes...)
	parts = append(parts, p.Setting.Attributes...)
	parts = append(parts, p.Objects...)
	parts = append(parts, p.Colors...)

	var b strings.Builder
	for _, s := range parts {
		if s == "" {
			continue
		}
		b.WriteString(strings.ToLower(s))
		b.WriteByte(' ')
	}
	return b.String()
}

func isOneOf(id string, ids []string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
