package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gkobilansky/sample-goat/internal/stats"
	"github.com/gkobilansky/sample-goat/internal/store"
)

func newPresetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset",
		Short: "Manage saved baseline presets",
		Long: `Presets store the baseline inputs of a metric under a name so they can
be reused with 'sg calc --preset <name>'. Only inputs are stored, never results.`,
	}

	cmd.AddCommand(
		newPresetSaveCmd(),
		newPresetListCmd(),
		newPresetShowCmd(),
		newPresetDeleteCmd(),
	)
	return cmd
}

func newPresetSaveCmd() *cobra.Command {
	var (
		metric      string
		description string
		params      metricFlags
	)

	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Save or replace a preset",
		Long: `Save a named baseline. Saving an existing name replaces it.

Examples:
  sg preset save checkout --metric binomial --p 0.12
  sg preset save aov --metric continuous --mean 54.2 --std 31.8 --description "order value"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			family, err := stats.ParseFamily(metric)
			if err != nil {
				return err
			}
			m, err := stats.DefaultMetric(family)
			if err != nil {
				return err
			}
			m = params.apply(cmd.Flags(), m)

			return withStore(func(s *store.SQLiteStore) error {
				p, err := s.SavePreset(context.Background(), args[0], description, m)
				if err != nil {
					return fmt.Errorf("failed to save preset: %w", err)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Saved preset '%s' (%s): %s\n", p.Name, p.Family(), stats.Describe(p.Metric))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&metric, "metric", "m", "", "metric type: continuous, binomial or ratio (required)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "free text description")
	params.register(cmd.Flags())
	cmd.MarkFlagRequired("metric")

	return cmd
}

func newPresetListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *store.SQLiteStore) error {
				presets, err := s.ListPresets(context.Background())
				if err != nil {
					return fmt.Errorf("failed to list presets: %w", err)
				}

				out := cmd.OutOrStdout()
				if len(presets) == 0 {
					fmt.Fprintln(out, "No presets yet.")
					fmt.Fprintln(out)
					fmt.Fprintln(out, "Save one with:")
					fmt.Fprintln(out, "  sg preset save checkout --metric binomial --p 0.1")
					return nil
				}

				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tMETRIC\tPARAMETERS\tUPDATED")
				for _, p := range presets {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
						p.Name,
						p.Family(),
						stats.Describe(p.Metric),
						p.UpdatedAt.Format("2006-01-02"),
					)
				}
				return w.Flush()
			})
		},
	}
}

func newPresetShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *store.SQLiteStore) error {
				p, err := s.GetPreset(context.Background(), args[0])
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("preset '%s' not found", args[0])
				}
				if err != nil {
					return fmt.Errorf("failed to get preset: %w", err)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Name:        %s\n", p.Name)
				fmt.Fprintf(out, "Metric:      %s\n", p.Family().Label())
				fmt.Fprintf(out, "Parameters:  %s\n", stats.Describe(p.Metric))
				if p.Description != "" {
					fmt.Fprintf(out, "Description: %s\n", p.Description)
				}
				fmt.Fprintf(out, "Updated:     %s\n", p.UpdatedAt.Format("2006-01-02 15:04"))
				return nil
			})
		},
	}
}

func newPresetDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *store.SQLiteStore) error {
				err := s.DeletePreset(context.Background(), args[0])
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("preset '%s' not found", args[0])
				}
				if err != nil {
					return fmt.Errorf("failed to delete preset: %w", err)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Deleted preset '%s'\n", args[0])
				return nil
			})
		},
	}
}
