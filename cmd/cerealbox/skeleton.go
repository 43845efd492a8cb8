package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/cerealbox/internal/config"
	"github.com/MikeSquared-Agency/cerealbox/internal/parser"
	"github.com/MikeSquared-Agency/cerealbox/internal/rules"
	"github.com/MikeSquared-Agency/cerealbox/internal/scorer"
	"github.com/MikeSquared-Agency/cerealbox/internal/skeleton"
	"github.com/MikeSquared-Agency/cerealbox/internal/transform"
	"github.com/MikeSquared-Agency/cerealbox/internal/variants"
	"github.com/MikeSquared-Agency/cerealbox/internal/weights"
)

type skeletonOptions struct {
	category   string
	saturation string
	energy     float64
	variants   int
	asJSON     bool
}

func newSkeletonCmd(cfg *config.Config) *cobra.Command {
	var opts skeletonOptions
	cmd := &cobra.Command{
		Use:   "skeleton <prompt...>",
		Short: "Build a prompt skeleton from a natural language prompt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := loadRules(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return runSkeleton(cmd, r, strings.Join(args, " "), opts, cmd.Flags().Changed("energy"))
		},
	}
	cmd.Flags().StringVarP(&opts.category, "category", "c", "", "category id (suggested when empty)")
	cmd.Flags().StringVar(&opts.saturation, "saturation", "", "color saturation: pastel|bright|neon|muted|bold")
	cmd.Flags().Float64Var(&opts.energy, "energy", transform.DefaultEnergy, "energy level multiplier")
	cmd.Flags().IntVar(&opts.variants, "variants", 0, "generate N preset variants instead of one skeleton")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print JSON")
	return cmd
}

func runSkeleton(cmd *cobra.Command, r *rules.Rules, prompt string, opts skeletonOptions, energySet bool) error {
	out := cmd.OutOrStdout()

	parsed := parser.Parse(prompt, r.Maps())
	parsed.SemanticWeights = weights.Compute(parsed)

	category := opts.category
	if category == "" {
		suggestion := scorer.Suggest(parsed, r)
		category = suggestion.PrimarySuggestion
		if !opts.asJSON {
			fmt.Fprintf(out, "category: %s (%s)\n", category, suggestion.Reasoning)
		}
	}

	if opts.variants > 0 {
		vs, err := variants.Generate(parsed, r, category, opts.variants)
		if err != nil {
			return err
		}
		if opts.asJSON {
			return printJSON(cmd, vs)
		}
		for _, v := range vs {
			fmt.Fprintf(out, "\n%s\n%s\nnegative: %s\n", v.Name, skeleton.Render(v.Skeleton), v.Skeleton.NegativePrompt)
		}
		return nil
	}

	params := transform.Params{ColorSaturation: opts.saturation}
	if energySet {
		params.EnergyLevel = transform.Float(opts.energy)
	}
	comps, err := transform.Apply(parsed, r, category, params)
	if err != nil {
		return err
	}
	s, err := skeleton.Assemble(comps, r, category, parsed.SemanticWeights)
	if err != nil {
		return err
	}
	if opts.asJSON {
		return printJSON(cmd, s)
	}
	fmt.Fprintf(out, "%s\nnegative: %s\ntokens: ~%d\n", skeleton.Render(s), s.NegativePrompt, s.Metadata.EstimatedTokens)
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
