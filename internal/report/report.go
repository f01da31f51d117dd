// Package report renders calculation plans for terminals and files.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/gkobilansky/sample-goat/internal/stats"
)

// Format is an output format.
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
)

// Columns are the result table headers.
var Columns = []string{
	"MDE (absolute)",
	"MDE (relative %)",
	"Total Sample Size",
	"Sample Size per Group",
	"Duration (days)",
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTable, FormatCSV, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("invalid format %q: must be 'table', 'csv' or 'json'", s)
}

// Write renders plan to w in the given format.
func Write(w io.Writer, format Format, plan *stats.Plan) error {
	switch format {
	case FormatTable:
		return writeTable(w, plan)
	case FormatCSV:
		return writeCSV(w, plan)
	case FormatJSON:
		return writeJSON(w, plan)
	}
	return fmt.Errorf("invalid format %q", format)
}

// Cells formats one row the way every renderer displays it.
func Cells(row stats.Row) []string {
	return []string{
		strconv.FormatFloat(row.MDE, 'g', -1, 64),
		row.Relative.String(),
		strconv.FormatInt(row.Total, 10),
		strconv.FormatInt(row.PerGroup, 10),
		fmt.Sprintf("%.2f", row.DurationDays),
	}
}

func writeTable(w io.Writer, plan *stats.Plan) error {
	fmt.Fprintf(w, "METRIC: %s\n", plan.Family.Label())
	fmt.Fprintf(w, "BASELINE: %g\n", plan.Baseline)
	if plan.Critical.Bonferroni() {
		fmt.Fprintf(w, "ALPHA: %g (Bonferroni: %.4g across %d comparisons)\n",
			plan.Params.Alpha, plan.Critical.CorrectedAlpha, plan.Critical.Comparisons)
	} else {
		fmt.Fprintf(w, "ALPHA: %g\n", plan.Params.Alpha)
	}
	fmt.Fprintf(w, "POWER: %g\n", plan.Params.Power)
	fmt.Fprintf(w, "GROUPS: %d\n", plan.Params.GroupCount)
	fmt.Fprintf(w, "Z: alpha=%.4f beta=%.4f\n", plan.Critical.ZAlpha, plan.Critical.ZBeta)
	fmt.Fprintf(w, "DAILY USERS: %g\n", plan.DailyUsers)
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(Columns, "\t"))
	for _, row := range plan.Rows {
		fmt.Fprintln(tw, strings.Join(Cells(row), "\t"))
	}
	return tw.Flush()
}

func writeCSV(w io.Writer, plan *stats.Plan) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range plan.Rows {
		if err := cw.Write(Cells(row)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, plan *stats.Plan) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(plan)
}
