package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gkobilansky/sample-goat/internal/baseline"
	"github.com/gkobilansky/sample-goat/internal/stats"
	"github.com/gkobilansky/sample-goat/internal/store"
)

func newEstimateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate baseline parameters from historical data",
		Long: `Estimate the baseline of a metric from data you already have, and
optionally save it as a preset with --save.`,
	}

	cmd.AddCommand(
		newEstimateContinuousCmd(),
		newEstimateRatioCmd(),
		newEstimateBinomialCmd(),
	)
	return cmd
}

func newEstimateContinuousCmd() *cobra.Command {
	var file, column, save string

	cmd := &cobra.Command{
		Use:   "continuous",
		Short: "Mean and standard deviation of a CSV column",
		Long: `Estimate a continuous baseline from one value per user.

Example:
  sg estimate continuous --file orders.csv --column revenue --save aov`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var values []float64
			err := readCSV(file, func(r io.Reader) (err error) {
				values, err = baseline.ReadColumn(r, column)
				return err
			})
			if err != nil {
				return err
			}

			m, summary, err := baseline.FromSamples(values)
			if err != nil {
				return fmt.Errorf("failed to estimate %s: %w", column, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Column:  %s (%d values)\n", column, summary.Count)
			fmt.Fprintf(out, "Mean:    %.6g\n", summary.Mean)
			fmt.Fprintf(out, "Std:     %.6g\n", summary.Std)
			fmt.Fprintf(out, "Median:  %.6g\n", summary.Median)
			fmt.Fprintf(out, "Range:   %.6g to %.6g\n", summary.Min, summary.Max)
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Use with: sg calc --metric continuous --mean %.6g --std %.6g\n", m.Mean, m.Std)

			return savePreset(cmd, save, fmt.Sprintf("estimated from %s:%s", file, column), m)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "CSV file with a header row (required)")
	cmd.Flags().StringVar(&column, "column", "", "column holding one value per user (required)")
	cmd.Flags().StringVar(&save, "save", "", "save the estimate as a preset with this name")
	cmd.MarkFlagRequired("file")
	cmd.MarkFlagRequired("column")

	return cmd
}

func newEstimateRatioCmd() *cobra.Command {
	var file, xColumn, yColumn, save string

	cmd := &cobra.Command{
		Use:   "ratio",
		Short: "Numerator and denominator moments of two CSV columns",
		Long: `Estimate a ratio baseline from paired per-user numerator and
denominator values, for example revenue and sessions.

Example:
  sg estimate ratio --file users.csv --x-column revenue --y-column sessions`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cols [][]float64
			err := readCSV(file, func(r io.Reader) (err error) {
				cols, err = baseline.ReadColumns(r, xColumn, yColumn)
				return err
			})
			if err != nil {
				return err
			}

			m, err := baseline.FromRatioSamples(cols[0], cols[1])
			if err != nil {
				return fmt.Errorf("failed to estimate ratio: %w", err)
			}
			r0, sigma, err := stats.RatioMoments(m.XMean, m.XStd, m.YMean, m.YStd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Rows:    %d\n", len(cols[0]))
			fmt.Fprintf(out, "X:       mean %.6g, std %.6g\n", m.XMean, m.XStd)
			fmt.Fprintf(out, "Y:       mean %.6g, std %.6g\n", m.YMean, m.YStd)
			fmt.Fprintf(out, "Ratio:   %.6g (std %.6g)\n", r0, sigma)
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Use with: sg calc --metric ratio --x-mean %.6g --x-std %.6g --y-mean %.6g --y-std %.6g\n",
				m.XMean, m.XStd, m.YMean, m.YStd)

			return savePreset(cmd, save, fmt.Sprintf("estimated from %s:%s/%s", file, xColumn, yColumn), m)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "CSV file with a header row (required)")
	cmd.Flags().StringVar(&xColumn, "x-column", "", "numerator column (required)")
	cmd.Flags().StringVar(&yColumn, "y-column", "", "denominator column (required)")
	cmd.Flags().StringVar(&save, "save", "", "save the estimate as a preset with this name")
	cmd.MarkFlagRequired("file")
	cmd.MarkFlagRequired("x-column")
	cmd.MarkFlagRequired("y-column")

	return cmd
}

func newEstimateBinomialCmd() *cobra.Command {
	var (
		conversions, visitors int
		confidence            float64
		save                  string
	)

	cmd := &cobra.Command{
		Use:   "binomial",
		Short: "Conversion rate with a Wilson confidence interval",
		Long: `Estimate a conversion-rate baseline from observed counts.

Example:
  sg estimate binomial --conversions 120 --visitors 1000 --save checkout`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			est, err := baseline.FromCounts(conversions, visitors, confidence)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Conversions: %d / %d\n", est.Conversions, est.Visitors)
			fmt.Fprintf(out, "Rate:        %.4f\n", est.Metric.P)
			fmt.Fprintf(out, "%.0f%% CI:     [%.4f, %.4f]\n", est.Confidence*100, est.CILower, est.CIUpper)
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Use with: sg calc --metric binomial --p %.6g\n", est.Metric.P)

			return savePreset(cmd, save, fmt.Sprintf("%d conversions from %d visitors", conversions, visitors), est.Metric)
		},
	}

	cmd.Flags().IntVar(&conversions, "conversions", 0, "number of conversions (required)")
	cmd.Flags().IntVar(&visitors, "visitors", 0, "number of visitors (required)")
	cmd.Flags().Float64Var(&confidence, "confidence", 0.95, "confidence level of the interval")
	cmd.Flags().StringVar(&save, "save", "", "save the estimate as a preset with this name")
	cmd.MarkFlagRequired("conversions")
	cmd.MarkFlagRequired("visitors")

	return cmd
}

func readCSV(path string, fn func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return fn(f)
}

func savePreset(cmd *cobra.Command, name, description string, m stats.Metric) error {
	if name == "" {
		return nil
	}
	return withStore(func(s *store.SQLiteStore) error {
		p, err := s.SavePreset(context.Background(), name, description, m)
		if err != nil {
			return fmt.Errorf("failed to save preset: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved preset '%s'\n", p.Name)
		return nil
	})
}
