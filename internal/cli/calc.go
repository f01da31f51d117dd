package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/gkobilansky/sample-goat/internal/planfile"
	"github.com/gkobilansky/sample-goat/internal/report"
	"github.com/gkobilansky/sample-goat/internal/stats"
	"github.com/gkobilansky/sample-goat/internal/store"
)

type calcOptions struct {
	metric     string
	preset     string
	plan       string
	savePlan   string
	alpha      float64
	power      float64
	groups     int
	mde        string
	dailyUsers float64
	format     string
	params     metricFlags
}

// presetLookup resolves a stored preset to its metric.
type presetLookup func(name string) (stats.Metric, error)

// familyPrompt asks the user for a metric family and its parameters.
type familyPrompt func(req *stats.Request) error

func newCalcCmd() *cobra.Command {
	opts := &calcOptions{}

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Calculate the sample size for an A/B test",
		Long: `Calculate the required sample size for every minimum detectable effect.

The metric comes from --metric, a stored --preset or a --plan file. Without
any of them you are asked to pick one interactively.

Examples:
  sg calc --metric continuous --mean 100 --std 15 --mde 5,10,20
  sg calc --metric binomial --p 0.1 --mde 0.02,0.05 --groups 3
  sg calc --metric ratio --x-mean 200 --x-std 50 --y-mean 100 --y-std 20
  sg calc --preset checkout --format csv
  sg calc --plan experiment.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalc(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.metric, "metric", "m", "", "metric type: continuous, binomial or ratio")
	f.StringVar(&opts.preset, "preset", "", "use a stored baseline preset")
	f.StringVar(&opts.plan, "plan", "", "read the calculation from a YAML plan file")
	f.StringVar(&opts.savePlan, "save-plan", "", "write the calculation to a YAML plan file")
	f.Float64Var(&opts.alpha, "alpha", stats.DefaultAlpha, "significance level")
	f.Float64Var(&opts.power, "power", stats.DefaultPower, "statistical power (1 - beta)")
	f.IntVarP(&opts.groups, "groups", "g", stats.DefaultGroupCount, "number of groups including control")
	f.StringVar(&opts.mde, "mde", "", "comma-separated MDE values (default depends on metric)")
	f.Float64Var(&opts.dailyUsers, "daily-users", stats.DefaultDailyUsers, "average number of users per day")
	f.StringVarP(&opts.format, "format", "f", string(report.FormatTable), "output format: table, csv or json")
	opts.params.register(f)

	return cmd
}

func runCalc(cmd *cobra.Command, opts *calcOptions) error {
	format, err := report.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	// The database is only opened when a preset is needed.
	var s *store.SQLiteStore
	defer func() {
		if s != nil {
			s.Close()
		}
	}()
	lookup := func(name string) (stats.Metric, error) {
		if s == nil {
			opened, err := store.Open(dbPath)
			if err != nil {
				return nil, fmt.Errorf("failed to open database: %w", err)
			}
			s = opened
		}
		p, err := s.GetPreset(context.Background(), name)
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("preset '%s' not found. Run 'sg preset list' to see saved presets", name)
		}
		if err != nil {
			return nil, err
		}
		return p.Metric, nil
	}

	req, err := opts.request(cmd.Flags(), lookup, promptRequest)
	if err != nil {
		return err
	}

	plan, err := stats.Calculate(req)
	if err != nil {
		return err
	}
	slog.Debug("calculated sample sizes",
		"metric", plan.Family,
		"rows", len(plan.Rows),
		"corrected_alpha", plan.Critical.CorrectedAlpha,
	)

	if opts.savePlan != "" {
		if err := writePlanFile(opts.savePlan, req); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved plan to %s\n", opts.savePlan)
	}

	return report.Write(cmd.OutOrStdout(), format, plan)
}

// request merges the plan file, preset and flags into one calculation
// request. Flags win over the plan file.
func (o *calcOptions) request(flags *pflag.FlagSet, lookup presetLookup, prompt familyPrompt) (stats.Request, error) {
	req := stats.Request{
		Params:     stats.DefaultTestParameters(),
		DailyUsers: stats.DefaultDailyUsers,
	}

	if o.metric != "" && o.preset != "" {
		return req, fmt.Errorf("use --metric OR --preset, not both")
	}

	presetName := o.preset
	if o.plan != "" {
		p, err := planfile.Load(o.plan)
		if err != nil {
			return req, err
		}
		req = p.Request
		if presetName == "" && o.metric == "" {
			presetName = p.Preset
		}
	}

	if flags.Changed("alpha") {
		req.Params.Alpha = o.alpha
	}
	if flags.Changed("power") {
		req.Params.Power = o.power
	}
	if flags.Changed("groups") {
		req.Params.GroupCount = o.groups
	}
	if flags.Changed("daily-users") {
		req.DailyUsers = o.dailyUsers
	}

	switch {
	case presetName != "":
		m, err := lookup(presetName)
		if err != nil {
			return req, err
		}
		req.Metric = m
	case o.metric != "":
		family, err := stats.ParseFamily(o.metric)
		if err != nil {
			return req, err
		}
		if req.Metric == nil || req.Metric.Family() != family {
			req.Metric, _ = stats.DefaultMetric(family)
			req.MDEs = nil
		}
	case req.Metric == nil:
		if err := prompt(&req); err != nil {
			return req, err
		}
	}
	req.Metric = o.params.apply(flags, req.Metric)

	if flags.Changed("mde") {
		mdes, err := stats.ParseMDEList(o.mde)
		if err != nil {
			return req, err
		}
		req.MDEs = mdes
	}
	if req.MDEs == nil {
		req.MDEs, _ = stats.ParseMDEList(req.Metric.Family().DefaultMDEs())
	}

	return req, nil
}

func writePlanFile(path string, req stats.Request) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create plan file: %w", err)
	}
	defer f.Close()

	if err := planfile.Encode(f, req); err != nil {
		return err
	}
	return f.Close()
}

// promptRequest asks for the metric family, its parameters and the MDE list.
func promptRequest(req *stats.Request) error {
	family, err := promptFamily()
	if err != nil {
		return err
	}
	metric, err := stats.DefaultMetric(family)
	if err != nil {
		return err
	}

	switch m := metric.(type) {
	case stats.Continuous:
		if err := promptFloats(
			promptField{"Baseline mean (μ)", &m.Mean},
			promptField{"Baseline std (σ)", &m.Std},
		); err != nil {
			return err
		}
		metric = m
	case stats.Binomial:
		if err := promptFloats(
			promptField{"Baseline conversion rate (p)", &m.P},
		); err != nil {
			return err
		}
		metric = m
	case stats.Ratio:
		if err := promptFloats(
			promptField{"X mean (numerator)", &m.XMean},
			promptField{"X std (numerator)", &m.XStd},
			promptField{"Y mean (denominator)", &m.YMean},
			promptField{"Y std (denominator)", &m.YStd},
		); err != nil {
			return err
		}
		metric = m
	}
	req.Metric = metric

	mdePrompt := promptui.Prompt{
		Label:   "MDE values, separated by commas",
		Default: family.DefaultMDEs(),
		Validate: func(s string) error {
			_, err := stats.ParseMDEList(s)
			return err
		},
	}
	text, err := mdePrompt.Run()
	if err != nil {
		return promptError(err)
	}
	req.MDEs, err = stats.ParseMDEList(text)
	return err
}

func promptFamily() (stats.Family, error) {
	items := make([]string, len(stats.Families))
	for i, f := range stats.Families {
		items[i] = f.Label()
	}

	prompt := promptui.Select{
		Label: "Select the type of metric",
		Items: items,
		Size:  len(items),
	}

	idx, _, err := prompt.Run()
	if err != nil {
		return "", promptError(err)
	}
	return stats.Families[idx], nil
}

type promptField struct {
	label string
	value *float64
}

func promptFloats(fields ...promptField) error {
	for _, f := range fields {
		prompt := promptui.Prompt{
			Label:   f.label,
			Default: strconv.FormatFloat(*f.value, 'g', -1, 64),
			Validate: func(s string) error {
				_, err := strconv.ParseFloat(s, 64)
				return err
			},
		}
		text, err := prompt.Run()
		if err != nil {
			return promptError(err)
		}
		*f.value, _ = strconv.ParseFloat(text, 64)
	}
	return nil
}

func promptError(err error) error {
	if err == promptui.ErrInterrupt {
		os.Exit(0)
	}
	return err
}
