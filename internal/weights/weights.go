package weights

import "github.com/MikeSquared-Agency/cerealbox/internal/parser"

// Component names scored by Compute, in base importance order.
const (
	Subject = "subject"
	Action  = "action"
	Setting = "setting"
	Objects = "objects"
	Colors  = "colors"
	Mood    = "mood"
)

// Components lists every key Compute returns.
var Components = []string{Subject, Action, Setting, Objects, Colors, Mood}

// Floor is the score of a component with nothing extracted.
const Floor = 5

// Compute scores each component from how much of it was extracted.
//
// Scores are additive. The anchor field of each component contributes a base
// (subject 20, action 20, setting 20, objects/colors/mood 15) and every extra
// populated sub-field adds on top, so filling more fields never lowers a
// score. Results are clamped to [Floor, 100].
func Compute(p parser.ParsedComponents) map[string]int {
	return map[string]int{
		Subject: clamp(subjectScore(p.Subject)),
		Action:  clamp(actionScore(p.Action)),
		Setting: clamp(settingScore(p.Setting)),
		Objects: clamp(listScore(len(p.Objects))),
		Colors:  clamp(listScore(len(p.Colors))),
		Mood:    clamp(moodScore(p.Mood)),
	}
}

func subjectScore(s parser.Subject) int {
	score := 0
	if s.Type != "" {
		score += 20
	}
	if s.Profession != "" {
		score += 10
	}
	if s.Count != nil {
		score += 5
	}
	return score + 5*len(s.Attributes)
}

func actionScore(a parser.Action) int {
	score := 0
	if a.Verb != "" {
		score += 20
	}
	if a.Object != "" {
		score += 10
	}
	switch a.EnergyLevel {
	case parser.EnergyHigh:
		score += 5
	case parser.EnergyExtreme:
		score += 10
	}
	return score
}

func settingScore(s parser.Setting) int {
	score := 0
	if s.Type != "" || s.Location != "" {
		score += 20
	}
	if s.Atmosphere != "" {
		score += 10
	}
	return score + 5*len(s.Attributes)
}

func listScore(n int) int {
	if n == 0 {
		return 0
	}
	return 15 + 5*(n-1)
}

func moodScore(m parser.Mood) int {
	score := 0
	if m.Emotion != "" {
		score += 15
	}
	if m.Intensity != "" {
		score += 10
	}
	return score
}

func clamp(score int) int {
	if score < Floor {
		return Floor
	}
	if score > 100 {
		return 100
	}
	return score
}
