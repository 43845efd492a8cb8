package weights

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/MikeSquared-Agency/cerealbox/internal/parser"
)

func count(n int) *int { return &n }

func TestComputeChefExample(t *testing.T) {
	p := parser.ParsedComponents{
		Subject: parser.Subject{Type: "human", Profession: "chef", Noun: "chef", Attributes: []string{"tired"}},
		Action:  parser.Action{Verb: "tasting", Object: "soup", EnergyLevel: parser.EnergyLow},
		Setting: parser.Setting{Type: "indoor_specific", Location: "kitchen", Attributes: []string{"busy"}},
		Objects: []string{"soup"},
		Mood:    parser.Mood{Emotion: "weary"},
	}

	want := map[string]int{
		Subject: 35,
		Action:  30,
		Setting: 25,
		Objects: 15,
		Colors:  Floor,
		Mood:    15,
	}
	if diff := cmp.Diff(want, Compute(p)); diff != "" {
		t.Errorf("weights mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeEmptyIsFloor(t *testing.T) {
	got := Compute(parser.ParsedComponents{})
	if len(got) != len(Components) {
		t.Fatalf("expected %d keys, got %v", len(Components), got)
	}
	for _, c := range Components {
		if got[c] != Floor {
			t.Errorf("%s: expected floor %d, got %d", c, Floor, got[c])
		}
	}
}

func TestComputeClampsToHundred(t *testing.T) {
	colors := make([]string, 30)
	for i := range colors {
		colors[i] = "c"
	}
	got := Compute(parser.ParsedComponents{Colors: colors})
	if got[Colors] != 100 {
		t.Errorf("expected colors clamped to 100, got %d", got[Colors])
	}
}

func TestComputeMonotonic(t *testing.T) {
	// Each step populates strictly more fields than the previous one.
	steps := []parser.ParsedComponents{
		{},
		{Subject: parser.Subject{Type: "animal"}},
		{Subject: parser.Subject{Type: "animal", Count: count(2)}, Action: parser.Action{Verb: "run"}},
		{
			Subject: parser.Subject{Type: "human", Profession: "chef", Count: count(2)},
			Action:  parser.Action{Verb: "run", EnergyLevel: parser.EnergyHigh},
			Setting: parser.Setting{Location: "park"},
			Colors:  []string{"red"},
		},
		{
			Subject: parser.Subject{Type: "human", Profession: "chef", Count: count(2), Attributes: []string{"big"}},
			Action:  parser.Action{Verb: "run", Object: "ball", EnergyLevel: parser.EnergyExtreme},
			Setting: parser.Setting{Type: "urban", Location: "park", Atmosphere: "sunny", Attributes: []string{"busy"}},
			Objects: []string{"ball", "kite"},
			Colors:  []string{"red", "blue"},
			Mood:    parser.Mood{Emotion: "joyful", Intensity: "high"},
		},
	}

	prev := Compute(steps[0])
	for i, p := range steps[1:] {
		cur := Compute(p)
		for _, c := range Components {
			if cur[c] < prev[c] {
				t.Errorf("step %d: %s decreased from %d to %d", i+1, c, prev[c], cur[c])
			}
			if cur[c] < 0 || cur[c] > 100 {
				t.Errorf("step %d: %s out of range: %d", i+1, c, cur[c])
			}
		}
		prev = cur
	}
}
