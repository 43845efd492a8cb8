package rules

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadEmbedded(t *testing.T) {
	r, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded failed: %v", err)
	}

	if diff := cmp.Diff(RequiredCategories, r.IDs()); diff != "" {
		t.Errorf("declaration order mismatch (-want +got):\n%s", diff)
	}

	for _, id := range r.IDs() {
		c, err := r.Category(id)
		if err != nil {
			t.Fatalf("Category(%s): %v", id, err)
		}
		if c.Description == "" || len(c.VisualDNA) == 0 {
			t.Errorf("%s: missing description or visual_dna", id)
		}
		if c.IdealSubjects == nil || c.CompatibleMoods == nil || c.TriggerKeywords == nil ||
			c.SubjectRules == nil || c.ActionRules == nil || c.SettingRules == nil ||
			c.ColorRules == nil || c.MandatoryMarkers == nil || c.NegativePrompts == nil {
			t.Errorf("%s: nil collection after load", id)
		}
		tmpl, err := r.Template(id)
		if err != nil {
			t.Errorf("Template(%s): %v", id, err)
		}
		if len(tmpl.EmphasisOrder) == 0 {
			t.Errorf("%s: empty emphasis_order", id)
		}
	}

	if r.Maps().Verbs["jump"] != "high" {
		t.Errorf("expected jump to be a high energy verb, got %q", r.Maps().Verbs["jump"])
	}
}

func TestIDsReturnsCopy(t *testing.T) {
	r, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded failed: %v", err)
	}
	ids := r.IDs()
	ids[0] = "mutated"
	if r.IDs()[0] != MascotTheater {
		t.Error("expected IDs to return an independent copy")
	}
}

func TestUnknownCategory(t *testing.T) {
	r, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded failed: %v", err)
	}

	for _, lookup := range []func() error{
		func() error { _, err := r.Category("space_opera"); return err },
		func() error { _, err := r.Template("space_opera"); return err },
	} {
		err := lookup()
		var unknown *UnknownKeyError
		if !errors.As(err, &unknown) {
			t.Fatalf("expected UnknownKeyError, got %v", err)
		}
		if unknown.Kind != "category" || unknown.Key != "space_opera" {
			t.Errorf("unexpected error fields %+v", unknown)
		}
		want := "unknown category: space_opera. Available: [" + strings.Join(RequiredCategories, ", ") + "]"
		if err.Error() != want {
			t.Errorf("unexpected message:\n got %s\nwant %s", err.Error(), want)
		}
	}
}

func TestTemplateMissing(t *testing.T) {
	r := New([]string{"solo"}, map[string]*Category{"solo": {Description: "d"}}, nil, TransformationMaps{})

	_, err := r.Template("solo")
	if !errors.Is(err, ErrMissingTemplate) {
		t.Errorf("expected ErrMissingTemplate, got %v", err)
	}
}

func TestNewFillsDefaults(t *testing.T) {
	c := &Category{Description: "d", VisualDNA: []string{"x"}}
	New([]string{"c"}, map[string]*Category{"c": c}, nil, TransformationMaps{})

	if c.IdealSubjects == nil || c.SubjectRules == nil || c.NegativePrompts == nil {
		t.Errorf("expected empty collections, got %+v", c)
	}
	if c.HasIdealSubject("human") {
		t.Error("expected no ideal subjects")
	}
	if c.HasCompatibleMood("") {
		t.Error("expected empty mood never to match")
	}
}

// minimalDocs builds a valid rule set with every required category.
func minimalDocs(skipTemplate string) Documents {
	var cats, tmpls strings.Builder
	for _, id := range RequiredCategories {
		fmt.Fprintf(&cats, "%s:\n  description: %s box\n  visual_dna: [marker]\n", id, id)
		if id != skipTemplate {
			fmt.Fprintf(&tmpls, "%s:\n  emphasis_order: [subject]\n", id)
		}
	}
	return Documents{
		Categories:         []byte(cats.String()),
		TransformationMaps: []byte("colors:\n  red: red\n"),
		Templates:          []byte(tmpls.String()),
	}
}

func TestParseMinimal(t *testing.T) {
	r, err := Parse(minimalDocs(""))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	c, _ := r.Category(KidChaos)
	if c.Description != "kid_chaos box" {
		t.Errorf("unexpected description %q", c.Description)
	}
	if len(c.TriggerKeywords) != 0 || c.TriggerKeywords == nil {
		t.Errorf("expected empty trigger keywords, got %v", c.TriggerKeywords)
	}
}

func TestParseErrors(t *testing.T) {
	missingCategory := minimalDocs("")
	missingCategory.Categories = []byte(strings.Replace(string(missingCategory.Categories), "kid_chaos:", "kids_chaos:", 1))

	invalidCategory := minimalDocs("")
	invalidCategory.Categories = append(invalidCategory.Categories, []byte("extra:\n  visual_dna: [x]\n")...)

	duplicate := minimalDocs("")
	duplicate.Categories = append(duplicate.Categories, []byte("kid_chaos:\n  description: again\n  visual_dna: [x]\n")...)

	emptyOrder := minimalDocs("")
	emptyOrder.Templates = []byte(strings.Replace(string(emptyOrder.Templates), "health_halo:\n  emphasis_order: [subject]", "health_halo:\n  emphasis_order: []", 1))

	tests := []struct {
		name         string
		docs         Documents
		wantTemplate bool
	}{
		{"missing required category", missingCategory, false},
		{"category without description", invalidCategory, false},
		{"duplicate category", duplicate, false},
		{"missing template", minimalDocs(HealthHalo), true},
		{"empty emphasis order", emptyOrder, false},
		{"not a mapping", Documents{Categories: []byte("- a\n- b\n")}, false},
		{"empty document", Documents{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.docs)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, ErrMissingTemplate); got != tt.wantTemplate {
				t.Errorf("errors.Is(ErrMissingTemplate) = %v, want %v (err: %v)", got, tt.wantTemplate, err)
			}
		})
	}
}

func TestParseAcceptsJSON(t *testing.T) {
	docs := minimalDocs("")
	var cats strings.Builder
	cats.WriteString("{")
	for i := len(RequiredCategories) - 1; i >= 0; i-- {
		fmt.Fprintf(&cats, `"%s": {"description": "d", "visual_dna": ["m"]}`, RequiredCategories[i])
		if i > 0 {
			cats.WriteString(",")
		}
	}
	cats.WriteString("}")
	docs.Categories = []byte(cats.String())

	r, err := Parse(docs)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if r.IDs()[0] != AdventureFantasy {
		t.Errorf("expected JSON key order to be kept, got %v", r.IDs())
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{CategoriesFile, MapsFile, TemplatesFile} {
		data, err := os.ReadFile(filepath.Join("data", name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	r, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if len(r.IDs()) != len(RequiredCategories) {
		t.Errorf("expected %d categories, got %d", len(RequiredCategories), len(r.IDs()))
	}

	if _, err := LoadDir(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
}
