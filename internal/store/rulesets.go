package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/MikeSquared-Agency/cerealbox/internal/rules"
)

// ErrRuleSetNotFound is returned when no row exists for the requested name.
var ErrRuleSetNotFound = errors.New("rule set not found")

// Schema creates the rule set table. The document columns are json rather
// than jsonb so category key order is preserved.
const Schema = `
CREATE TABLE IF NOT EXISTS style_rule_sets (
	name                TEXT PRIMARY KEY,
	categories          JSON NOT NULL,
	transformation_maps JSON NOT NULL,
	templates           JSON NOT NULL,
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// EnsureSchema creates the rule set table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create style_rule_sets: %w", err)
	}
	return nil
}

// LoadRuleSet fetches the raw documents of a named rule set.
func (s *Store) LoadRuleSet(ctx context.Context, name string) (rules.Documents, error) {
	var docs rules.Documents
	err := s.pool.QueryRow(ctx, `
		SELECT categories::text, transformation_maps::text, templates::text
		FROM style_rule_sets
		WHERE name = $1`, name,
	).Scan(&docs.Categories, &docs.TransformationMaps, &docs.Templates)
	if errors.Is(err, pgx.ErrNoRows) {
		return rules.Documents{}, fmt.Errorf("%w: %s", ErrRuleSetNotFound, name)
	}
	if err != nil {
		return rules.Documents{}, fmt.Errorf("query style_rule_sets: %w", err)
	}
	return docs, nil
}

// SaveRuleSet upserts a named rule set. The documents must be JSON.
func (s *Store) SaveRuleSet(ctx context.Context, name string, docs rules.Documents) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO style_rule_sets (name, categories, transformation_maps, templates)
		VALUES ($1, $2::json, $3::json, $4::json)
		ON CONFLICT (name) DO UPDATE SET
			categories = EXCLUDED.categories,
			transformation_maps = EXCLUDED.transformation_maps,
			templates = EXCLUDED.templates,
			updated_at = now()`,
		name, string(docs.Categories), string(docs.TransformationMaps), string(docs.Templates),
	)
	if err != nil {
		return fmt.Errorf("upsert style_rule_sets: %w", err)
	}
	return nil
}
