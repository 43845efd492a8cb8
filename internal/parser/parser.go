package parser

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/MikeSquared-Agency/cerealbox/internal/rules"
)

// Parse extracts prompt components using the shared keyword tables. It is a
// lexical heuristic: unmatched text is ignored and never causes an error.
// SemanticWeights is left nil.
func Parse(text string, maps *rules.TransformationMaps) ParsedComponents {
	p := ParsedComponents{
		Subject: Subject{Attributes: []string{}},
		Setting: Setting{Attributes: []string{}},
		Objects: []string{},
		Colors:  []string{},
	}

	tokens := tokenize(text)
	if len(tokens) == 0 {
		return p
	}

	professions := scan(maps.Professions, tokens)
	nouns := scan(maps.SubjectTypes, tokens)
	locations := scan(maps.Locations, tokens)
	objects := scan(maps.Objects, tokens)

	// Subject: the earliest profession or subject noun.
	subjectPos := -1
	switch {
	case len(professions) > 0 && (len(nouns) == 0 || professions[0].pos <= nouns[0].pos):
		m := professions[0]
		p.Subject.Type = m.tag
		p.Subject.Profession = m.key
		p.Subject.Noun = m.key
		subjectPos = m.pos
	case len(nouns) > 0:
		m := nouns[0]
		p.Subject.Type = m.tag
		p.Subject.Noun = m.key
		subjectPos = m.pos
	}
	if subjectPos >= 0 {
		if n, ok := countBefore(tokens, subjectPos, maps); ok {
			p.Subject.Count = &n
		}
	}

	// Setting.
	locationPos := -1
	if len(locations) > 0 {
		p.Setting.Type = locations[0].tag
		p.Setting.Location = locations[0].key
		locationPos = locations[0].pos
	}
	if atm := scan(maps.Atmospheres, tokens); len(atm) > 0 {
		p.Setting.Atmosphere = atm[0].tag
	}

	// Action: the first verb that is not the subject itself.
	verbPos := -1
	for _, m := range scan(maps.Verbs, tokens) {
		if m.pos == subjectPos || m.pos == locationPos {
			continue
		}
		p.Action.Verb = strings.Join(tokens[m.pos:m.pos+m.width], " ")
		p.Action.EnergyLevel = m.tag
		verbPos = m.pos
		break
	}

	// Props, in order of first appearance.
	seen := make(map[string]bool)
	for _, m := range objects {
		if m.pos == subjectPos || m.pos == verbPos {
			continue
		}
		if verbPos >= 0 && p.Action.Object == "" && m.pos > verbPos {
			p.Action.Object = m.tag
		}
		if !seen[m.tag] {
			seen[m.tag] = true
			p.Objects = append(p.Objects, m.tag)
		}
	}
	if verbPos >= 0 && p.Action.Object == "" {
		for _, m := range nouns {
			if m.pos > verbPos && m.pos != subjectPos {
				p.Action.Object = m.key
				break
			}
		}
	}

	// Descriptors attach to the nearest noun. Those that describe the
	// location become setting attributes.
	nounPositions := positions(professions, nouns, locations, objects)
	subjectSeen := make(map[string]bool)
	settingSeen := make(map[string]bool)
	for _, m := range scan(maps.Descriptors, tokens) {
		if owner := nearestNoun(nounPositions, m.pos); owner >= 0 && owner == locationPos {
			if !settingSeen[m.tag] {
				settingSeen[m.tag] = true
				p.Setting.Attributes = append(p.Setting.Attributes, m.tag)
			}
			continue
		}
		if !subjectSeen[m.tag] {
			subjectSeen[m.tag] = true
			p.Subject.Attributes = append(p.Subject.Attributes, m.tag)
		}
	}

	// Colors form a set; sorting keeps output stable.
	colorSeen := make(map[string]bool)
	for _, m := range scan(maps.Colors, tokens) {
		if !colorSeen[m.tag] {
			colorSeen[m.tag] = true
			p.Colors = append(p.Colors, m.tag)
		}
	}
	sort.Strings(p.Colors)

	// Mood, with an intensity qualifier directly in front of it.
	if emotions := scan(maps.Emotions, tokens); len(emotions) > 0 {
		m := emotions[0]
		p.Mood.Emotion = m.tag
		if m.pos > 0 {
			if intensity, ok := maps.Intensities[tokens[m.pos-1]]; ok {
				p.Mood.Intensity = intensity
			}
		}
	}

	return p
}

type match struct {
	pos   int
	width int
	key   string
	tag   string
}

// scan returns every match of table in tokens, in order. Two-word keys are
// tried before single words.
func scan(table map[string]string, tokens []string) []match {
	var out []match
	for i := 0; i < len(tokens); i++ {
		if i+1 < len(tokens) {
			key := tokens[i] + " " + tokens[i+1]
			if tag, ok := table[key]; ok {
				out = append(out, match{pos: i, width: 2, key: key, tag: tag})
				i++
				continue
			}
		}
		for _, v := range variants(tokens[i]) {
			if tag, ok := table[v]; ok {
				out = append(out, match{pos: i, width: 1, key: v, tag: tag})
				break
			}
		}
	}
	return out
}

// variants returns the token followed by candidate base forms, most specific
// first. Stems shorter than three letters are not tried.
func variants(tok string) []string {
	out := []string{tok}
	add := func(s string) {
		if len(s) >= 3 {
			out = append(out, s)
		}
	}
	if strings.HasSuffix(tok, "'s") {
		tok = strings.TrimSuffix(tok, "'s")
		out = append(out, tok)
	}
	switch {
	case strings.HasSuffix(tok, "ies"):
		add(strings.TrimSuffix(tok, "ies") + "y")
	case strings.HasSuffix(tok, "ing"):
		base := strings.TrimSuffix(tok, "ing")
		add(base)
		add(base + "e")
		add(undouble(base))
	case strings.HasSuffix(tok, "ed"):
		base := strings.TrimSuffix(tok, "ed")
		add(base)
		add(base + "e")
		add(undouble(base))
	}
	if strings.HasSuffix(tok, "es") {
		add(strings.TrimSuffix(tok, "es"))
	}
	if strings.HasSuffix(tok, "s") && !strings.HasSuffix(tok, "ss") {
		add(strings.TrimSuffix(tok, "s"))
	}
	return out
}

// undouble turns "runn" into "run".
func undouble(s string) string {
	n := len(s)
	if n >= 2 && s[n-1] == s[n-2] {
		return s[:n-1]
	}
	return s
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '\'')
	})
}

var countSkip = map[string]bool{"a": true, "an": true, "the": true, "of": true}

// countBefore looks a few words back from the subject for a number word or
// digit, skipping articles and descriptors.
func countBefore(tokens []string, subjectPos int, maps *rules.TransformationMaps) (int, bool) {
	for j := subjectPos - 1; j >= 0 && j >= subjectPos-4; j-- {
		tok := tokens[j]
		if v, ok := maps.Counts[tok]; ok {
			n, err := strconv.Atoi(v)
			return n, err == nil
		}
		if n, err := strconv.Atoi(tok); err == nil && n > 0 {
			return n, true
		}
		if countSkip[tok] {
			continue
		}
		if _, ok := maps.Descriptors[tok]; ok {
			continue
		}
		if _, ok := maps.Colors[tok]; ok {
			continue
		}
		break
	}
	return 0, false
}

func positions(groups ...[]match) []int {
	var out []int
	for _, g := range groups {
		for _, m := range g {
			out = append(out, m.pos)
		}
	}
	sort.Ints(out)
	return out
}

// nearestNoun picks the first noun after pos, or the closest one before it.
func nearestNoun(nouns []int, pos int) int {
	before := -1
	for _, n := range nouns {
		if n > pos {
			return n
		}
		if n < pos {
			before = n
		}
	}
	return before
}
