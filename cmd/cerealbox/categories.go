package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/cerealbox/internal/config"
	"github.com/MikeSquared-Agency/cerealbox/internal/processor"
)

func newCategoriesCmd(cfg *config.Config) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List the available cereal box categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := loadRules(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			catalog := processor.Catalog(r)
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(catalog)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, e := range catalog {
				fmt.Fprintf(tw, "%s\t%s\n", e.ID, e.Summary.Description)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
