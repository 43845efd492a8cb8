package processor

import (
	"bytes"
	"encoding/json"

	"github.com/MikeSquared-Agency/cerealbox/internal/rules"
)

// CategorySummary is the overview of one category returned by
// get_available_categories.
type CategorySummary struct {
	Description string   `json:"description"`
	VisualDNA   []string `json:"visual_dna"`
	IdealFor    []string `json:"ideal_for"`
	MoodMatch   []string `json:"mood_match"`
}

// CatalogEntry pairs a category id with its summary.
type CatalogEntry struct {
	ID      string
	Summary CategorySummary
}

// CategoryCatalog marshals to a JSON object keyed by category id, in rule
// set declaration order.
type CategoryCatalog []CatalogEntry

// Catalog summarises every category in r.
func Catalog(r *rules.Rules) CategoryCatalog {
	ids := r.IDs()
	out := make(CategoryCatalog, 0, len(ids))
	for _, id := range ids {
		c, err := r.Category(id)
		if err != nil {
			continue
		}
		out = append(out, CatalogEntry{
			ID: id,
			Summary: CategorySummary{
				Description: c.Description,
				VisualDNA:   c.VisualDNA,
				IdealFor:    c.IdealSubjects,
				MoodMatch:   c.CompatibleMoods,
			},
		})
	}
	return out
}

func (c CategoryCatalog) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.ID)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Summary)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
