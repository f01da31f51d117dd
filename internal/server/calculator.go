package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/gkobilansky/sample-goat/internal/dashboard"
	"github.com/gkobilansky/sample-goat/internal/report"
	"github.com/gkobilansky/sample-goat/internal/stats"
)

// Calculator template data structures
type layoutData struct {
	Title   string
	CSS     template.CSS
	Content template.HTML
}

type formField struct {
	Name        string
	Label       string
	Value       string
	Placeholder string
	Error       string
}

type familyOption struct {
	Value    string
	Label    string
	Selected bool
}

type presetOption struct {
	Name     string
	Family   string
	Selected bool
}

type resultView struct {
	Family         string
	Baseline       string
	Alpha          string
	CorrectedAlpha string
	Bonferroni     bool
	Power          string
	Groups         int
	ZAlpha         string
	ZBeta          string
	Columns        []string
	Rows           [][]string
}

type calculatorData struct {
	Families []familyOption
	Presets  []presetOption
	Fields   map[string]*formField
	Error    string
	Result   *resultView
}

var formLabels = []struct{ name, label string }{
	{"alpha", "Significance level (alpha)"},
	{"power", "Power (1 - beta)"},
	{"groups", "Number of groups (including control)"},
	{"daily_users", "Average number of users per day"},
	{"mean", "Baseline mean (μ)"},
	{"std", "Baseline std (σ)"},
	{"p", "Baseline conversion rate (p)"},
	{"x_mean", "X mean (numerator)"},
	{"x_std", "X std (numerator)"},
	{"y_mean", "Y mean (denominator)"},
	{"y_std", "Y std (denominator)"},
	{"mde", "MDE values, separated by commas"},
}

// The MDE field starts blank; a blank list means the defaults of the chosen family.
func defaultFormValues() map[string]string {
	c, b, r := stats.DefaultContinuous(), stats.DefaultBinomial(), stats.DefaultRatio()
	return map[string]string{
		"alpha":       fmtFloat(stats.DefaultAlpha),
		"power":       fmtFloat(stats.DefaultPower),
		"groups":      strconv.Itoa(stats.DefaultGroupCount),
		"daily_users": fmtFloat(stats.DefaultDailyUsers),
		"mean":        fmtFloat(c.Mean),
		"std":         fmtFloat(c.Std),
		"p":           fmtFloat(b.P),
		"x_mean":      fmtFloat(r.XMean),
		"x_std":       fmtFloat(r.XStd),
		"y_mean":      fmtFloat(r.YMean),
		"y_std":       fmtFloat(r.YStd),
		"mde":         "",
	}
}

func mdePlaceholder() string {
	parts := make([]string, len(stats.Families))
	for i, f := range stats.Families {
		parts[i] = fmt.Sprintf("%s: %s", f, f.DefaultMDEs())
	}
	return "defaults, " + strings.Join(parts, "; ")
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (s *Server) handleCalculator(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	family := stats.FamilyContinuous
	values := defaultFormValues()
	data := calculatorData{}

	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form", http.StatusBadRequest)
			return
		}
		if f, err := stats.ParseFamily(r.PostForm.Get("metric")); err == nil {
			family = f
		}
		for name := range values {
			if v, ok := r.PostForm[name]; ok {
				values[name] = strings.TrimSpace(v[0])
			}
		}
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data.Fields = make(map[string]*formField, len(formLabels))
	for _, l := range formLabels {
		data.Fields[l.name] = &formField{Name: l.name, Label: l.label, Value: values[l.name]}
	}
	data.Fields["mde"].Placeholder = mdePlaceholder()

	preset := r.PostForm.Get("preset")
	if presets, err := s.store.ListPresets(r.Context()); err == nil {
		for _, p := range presets {
			data.Presets = append(data.Presets, presetOption{
				Name:     p.Name,
				Family:   string(p.Family()),
				Selected: p.Name == preset,
			})
		}
	} else {
		s.logger.Warn("failed to list presets for calculator", "error", err)
	}

	if r.Method == http.MethodPost {
		body, fieldErrs := formToRequest(family, preset, values)
		for name, msg := range fieldErrs {
			data.Fields[name].Error = msg
		}
		if len(fieldErrs) == 0 {
			plan, err := s.calculate(r, body)
			if err != nil {
				fields := stats.FieldErrors(err)
				for _, fe := range fields {
					if f, ok := data.Fields[fe.Field]; ok && f.Error == "" {
						f.Error = fe.Message
					}
				}
				if len(fields) == 0 {
					data.Error = err.Error()
				}
			} else {
				data.Result = newResultView(plan)
				family = plan.Family
			}
		}
	}

	for _, f := range stats.Families {
		data.Families = append(data.Families, familyOption{
			Value:    string(f),
			Label:    f.Label(),
			Selected: f == family,
		})
	}

	s.renderPage(w, "Calculator", "calculator.html", data)
}

// formToRequest converts form strings into an API request. Non-numeric fields
// are reported against the field name.
func formToRequest(family stats.Family, preset string, values map[string]string) (CalculateRequest, map[string]string) {
	errs := map[string]string{}
	num := func(name string) *float64 {
		v, err := strconv.ParseFloat(values[name], 64)
		if err != nil {
			errs[name] = fmt.Sprintf("%q is not a number", values[name])
			return nil
		}
		return &v
	}

	body := CalculateRequest{
		Preset:     preset,
		Alpha:      num("alpha"),
		Power:      num("power"),
		DailyUsers: num("daily_users"),
	}
	if g, err := strconv.Atoi(values["groups"]); err == nil {
		body.Groups = &g
	} else {
		errs["groups"] = fmt.Sprintf("%q is not a whole number", values["groups"])
	}

	// A blank list takes the family defaults. With a preset the family is only
	// known after lookup, so the field is left out and the API fills it in.
	mde := values["mde"]
	if strings.TrimSpace(mde) == "" && preset == "" {
		mde = family.DefaultMDEs()
	}
	if strings.TrimSpace(mde) != "" {
		body.MDE, _ = json.Marshal(mde)
	}

	if preset == "" {
		body.Metric = string(family)
		var params any
		switch family {
		case stats.FamilyContinuous:
			params = map[string]*float64{"mean": num("mean"), "std": num("std")}
		case stats.FamilyBinomial:
			params = map[string]*float64{"p": num("p")}
		case stats.FamilyRatio:
			params = map[string]*float64{
				"x_mean": num("x_mean"), "x_std": num("x_std"),
				"y_mean": num("y_mean"), "y_std": num("y_std"),
			}
		}
		body.Params, _ = json.Marshal(params)
	}

	return body, errs
}

func newResultView(plan *stats.Plan) *resultView {
	rows := make([][]string, len(plan.Rows))
	for i, row := range plan.Rows {
		rows[i] = report.Cells(row)
	}
	return &resultView{
		Family:         plan.Family.Label(),
		Baseline:       fmtFloat(plan.Baseline),
		Alpha:          fmtFloat(plan.Params.Alpha),
		CorrectedAlpha: fmt.Sprintf("%.4g", plan.Critical.CorrectedAlpha),
		Bonferroni:     plan.Critical.Bonferroni(),
		Power:          fmtFloat(plan.Params.Power),
		Groups:         plan.Params.GroupCount,
		ZAlpha:         fmt.Sprintf("%.4f", plan.Critical.ZAlpha),
		ZBeta:          fmt.Sprintf("%.4f", plan.Critical.ZBeta),
		Columns:        report.Columns,
		Rows:           rows,
	}
}

func (s *Server) renderPage(w http.ResponseWriter, title, contentTemplate string, data interface{}) {
	// Load CSS
	cssBytes, err := dashboard.Assets.ReadFile("assets/style.css")
	if err != nil {
		http.Error(w, "Failed to load styles", http.StatusInternalServerError)
		return
	}

	// Load and execute content template
	contentTmpl, err := template.ParseFS(dashboard.Templates, "templates/"+contentTemplate)
	if err != nil {
		http.Error(w, "Failed to parse template", http.StatusInternalServerError)
		return
	}

	var contentBuf bytes.Buffer
	if err := contentTmpl.Execute(&contentBuf, data); err != nil {
		s.logger.Error("failed to render template", "template", contentTemplate, "error", err)
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
		return
	}

	// Load and execute layout template
	layoutTmpl, err := template.ParseFS(dashboard.Templates, "templates/layout.html")
	if err != nil {
		http.Error(w, "Failed to parse layout", http.StatusInternalServerError)
		return
	}

	layout := layoutData{
		Title:   title,
		CSS:     template.CSS(cssBytes),
		Content: template.HTML(contentBuf.String()),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := layoutTmpl.Execute(w, layout); err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
}
