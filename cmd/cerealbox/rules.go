package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/cerealbox/internal/config"
	"github.com/MikeSquared-Agency/cerealbox/internal/rules"
	"github.com/MikeSquared-Agency/cerealbox/internal/store"
)

// loadRules resolves the rule set: Postgres, then the rules directory, then
// the embedded defaults. It returns the source it used.
func loadRules(ctx context.Context, cfg *config.Config) (*rules.Rules, string, error) {
	if cfg.DatabaseURL != "" {
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, "", err
		}
		defer db.Close()

		docs, err := db.LoadRuleSet(ctx, cfg.RuleSet)
		switch {
		case err == nil:
			r, err := rules.Parse(docs)
			if err != nil {
				return nil, "", fmt.Errorf("rule set %s: %w", cfg.RuleSet, err)
			}
			return r, "postgres:" + cfg.RuleSet, nil
		case errors.Is(err, store.ErrRuleSetNotFound):
			slog.Warn("rule set not in database, falling back", "rule_set", cfg.RuleSet)
		default:
			return nil, "", err
		}
	}

	if cfg.RulesDir != "" {
		r, err := rules.LoadDir(cfg.RulesDir)
		if err != nil {
			return nil, "", err
		}
		return r, "dir:" + cfg.RulesDir, nil
	}

	r, err := rules.LoadEmbedded()
	if err != nil {
		return nil, "", err
	}
	return r, "embedded", nil
}

func newRulesCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage stored rule sets",
	}

	var dir, name string
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Validate a rule directory and store it in Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is required")
			}
			if dir == "" {
				return errors.New("--dir is required")
			}
			docs, err := rules.ReadDir(dir)
			if err != nil {
				return err
			}
			if _, err := rules.Parse(docs); err != nil {
				return fmt.Errorf("validate %s: %w", dir, err)
			}
			jsonDocs, err := toJSONDocuments(docs)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			db, err := store.New(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.EnsureSchema(ctx); err != nil {
				return err
			}
			if err := db.SaveRuleSet(ctx, name, jsonDocs); err != nil {
				return err
			}
			slog.Info("rule set imported", "name", name, "dir", dir)
			return nil
		},
	}
	importCmd.Flags().StringVar(&dir, "dir", cfg.RulesDir, "directory holding the three rule documents")
	importCmd.Flags().StringVar(&name, "name", cfg.RuleSet, "rule set name")
	cmd.AddCommand(importCmd)
	return cmd
}

// toJSONDocuments converts YAML documents to JSON for the json columns,
// keeping mapping key order.
func toJSONDocuments(docs rules.Documents) (rules.Documents, error) {
	var out rules.Documents
	var err error
	if out.Categories, err = yamlToJSON(docs.Categories); err != nil {
		return out, fmt.Errorf("%s: %w", rules.CategoriesFile, err)
	}
	if out.TransformationMaps, err = yamlToJSON(docs.TransformationMaps); err != nil {
		return out, fmt.Errorf("%s: %w", rules.MapsFile, err)
	}
	if out.Templates, err = yamlToJSON(docs.Templates); err != nil {
		return out, fmt.Errorf("%s: %w", rules.TemplatesFile, err)
	}
	return out, nil
}

func yamlToJSON(data []byte) ([]byte, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 {
		return []byte("{}"), nil
	}
	return nodeJSON(root.Content[0])
}

func nodeJSON(n *yaml.Node) ([]byte, error) {
	switch n.Kind {
	case yaml.MappingNode:
		buf := []byte{'{'}
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				buf = append(buf, ',')
			}
			k, err := json.Marshal(n.Content[i].Value)
			if err != nil {
				return nil, err
			}
			v, err := nodeJSON(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			buf = append(append(append(buf, k...), ':'), v...)
		}
		return append(buf, '}'), nil
	case yaml.SequenceNode:
		buf := []byte{'['}
		for i, c := range n.Content {
			if i > 0 {
				buf = append(buf, ',')
			}
			v, err := nodeJSON(c)
			if err != nil {
				return nil, err
			}
			buf = append(buf, v...)
		}
		return append(buf, ']'), nil
	case yaml.AliasNode:
		return nodeJSON(n.Alias)
	default:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return json.Marshal(v)
	}
}
