package rules

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var defaultData embed.FS

// File names of the three rule documents.
const (
	CategoriesFile = "categories.yaml"
	MapsFile       = "transformation_maps.yaml"
	TemplatesFile  = "templates.yaml"
)

// Documents holds the raw rule documents. JSON documents are accepted as well
// since YAML is a superset of JSON.
type Documents struct {
	Categories         []byte
	TransformationMaps []byte
	Templates          []byte
}

// LoadEmbedded parses the rule set compiled into the binary.
func LoadEmbedded() (*Rules, error) {
	var docs Documents
	var err error
	if docs.Categories, err = defaultData.ReadFile("data/" + CategoriesFile); err != nil {
		return nil, fmt.Errorf("read embedded categories: %w", err)
	}
	if docs.TransformationMaps, err = defaultData.ReadFile("data/" + MapsFile); err != nil {
		return nil, fmt.Errorf("read embedded transformation maps: %w", err)
	}
	if docs.Templates, err = defaultData.ReadFile("data/" + TemplatesFile); err != nil {
		return nil, fmt.Errorf("read embedded templates: %w", err)
	}
	return Parse(docs)
}

// LoadDir parses the three rule documents from dir.
func LoadDir(dir string) (*Rules, error) {
	docs, err := ReadDir(dir)
	if err != nil {
		return nil, err
	}
	return Parse(docs)
}

// ReadDir reads the three rule documents from dir without parsing them.
func ReadDir(dir string) (Documents, error) {
	var docs Documents
	var err error
	if docs.Categories, err = os.ReadFile(filepath.Join(dir, CategoriesFile)); err != nil {
		return docs, fmt.Errorf("read categories: %w", err)
	}
	if docs.TransformationMaps, err = os.ReadFile(filepath.Join(dir, MapsFile)); err != nil {
		return docs, fmt.Errorf("read transformation maps: %w", err)
	}
	if docs.Templates, err = os.ReadFile(filepath.Join(dir, TemplatesFile)); err != nil {
		return docs, fmt.Errorf("read templates: %w", err)
	}
	return docs, nil
}

// Parse decodes and validates a rule set.
func Parse(docs Documents) (*Rules, error) {
	order, categories, err := parseCategories(docs.Categories)
	if err != nil {
		return nil, err
	}

	var maps TransformationMaps
	if err := yaml.Unmarshal(docs.TransformationMaps, &maps); err != nil {
		return nil, fmt.Errorf("parse transformation maps: %w", err)
	}

	var templates map[string]Template
	if err := yaml.Unmarshal(docs.Templates, &templates); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	if err := validate(order, categories, templates); err != nil {
		return nil, err
	}
	return New(order, categories, templates, maps), nil
}

// parseCategories walks the mapping node directly so declaration order is kept.
func parseCategories(data []byte) ([]string, map[string]*Category, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, nil, fmt.Errorf("parse categories: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, nil, fmt.Errorf("parse categories: empty document")
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("parse categories: expected mapping at line %d", doc.Line)
	}

	var order []string
	categories := make(map[string]*Category, len(doc.Content)/2)
	for i := 0; i+1 < len(doc.Content); i += 2 {
		id := doc.Content[i].Value
		if _, dup := categories[id]; dup {
			return nil, nil, fmt.Errorf("parse categories: duplicate category %q", id)
		}
		var c Category
		if err := doc.Content[i+1].Decode(&c); err != nil {
			return nil, nil, fmt.Errorf("parse category %s: %w", id, err)
		}
		categories[id] = &c
		order = append(order, id)
	}
	return order, categories, nil
}

func validate(order []string, categories map[string]*Category, templates map[string]Template) error {
	v := validator.New()

	for _, id := range RequiredCategories {
		if _, ok := categories[id]; !ok {
			return fmt.Errorf("rule set is missing category %s", id)
		}
	}
	for _, id := range order {
		if err := v.Struct(categories[id]); err != nil {
			return fmt.Errorf("invalid category %s: %w", id, err)
		}
		t, ok := templates[id]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingTemplate, id)
		}
		if err := v.Struct(t); err != nil {
			return fmt.Errorf("invalid template %s: %w", id, err)
		}
	}
	return nil
}
