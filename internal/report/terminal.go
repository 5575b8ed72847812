package report

import (
	"fmt"

	"goposterior/domain/posterior"
	"goposterior/domain/run"
	"goposterior/internal/updater"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	titleStyle  = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

// ResultsTerminal renders posteriors as a bordered terminal table
func ResultsTerminal(results []posterior.Result) string {
	t := newTable("Method", "Mean", "SD", "95% interval", "Precision")
	for _, res := range results {
		t.Row(res.Method.Label(), num(res.Mean), opt(res.SD), interval(res.CredibleInterval95), opt(res.Precision))
	}
	return t.String()
}

// RunTerminal renders a run summary for the CLI
func RunTerminal(r *run.Run) string {
	out := titleStyle.Render(fmt.Sprintf("Run %s", r.ID)) + "\n"
	out += dimStyle.Render(fmt.Sprintf("fingerprint %s  prior %s  observed %s",
		r.Fingerprint.Short(), r.Request.Prior, r.Request.Observation)) + "\n"

	inputs := newTable("", "Mean", "n", "SD", "Nuisance SD", "Rows")
	inputs.Row("Prior", num(r.Prior.Mean), count(r.Prior.SampleSize), opt(r.Prior.SD), opt(r.Prior.NuisanceSD), fmt.Sprint(r.PriorRows.Rows))
	inputs.Row("Observation", num(r.Observation.Mean), count(r.Observation.SampleSize), opt(r.Observation.SD), missing, fmt.Sprint(r.ObservationRows.Rows))
	out += inputs.String() + "\n"
	out += ResultsTerminal(r.Results) + "\n"

	for _, m := range posterior.Methods {
		if reason, ok := r.Skipped[m]; ok {
			out += dimStyle.Render(fmt.Sprintf("skipped %s: %s", m, reason)) + "\n"
		}
	}
	return out
}

// ComparisonTerminal renders Monte Carlo summaries next to the analytic values
func ComparisonTerminal(cmp *updater.Comparison) string {
	t := newTable("Method", "Analytic mean", "Analytic SD", "Sample mean", "Sample SD", "2.5%", "Median", "97.5%")
	for _, d := range cmp.Methods {
		label := d.Method.Label()
		if d.SubstitutedSD {
			label += " *"
		}
		t.Row(label, num(d.Mean), num(d.SD), num(d.Summary.Mean), num(d.Summary.SD),
			num(d.Summary.P025), num(d.Summary.Median), num(d.Summary.P975))
	}
	out := t.String() + "\n"
	if hasSubstituted(cmp) {
		out += dimStyle.Render("* posterior has no SD of its own; sampled with the external fallback SD") + "\n"
	}
	for _, m := range cmp.Skipped {
		out += dimStyle.Render(fmt.Sprintf("skipped %s: no posterior SD", m)) + "\n"
	}
	return out
}

// RunsTerminal lists stored runs
func RunsTerminal(runs []*run.Run) string {
	t := newTable("ID", "Fingerprint", "Created", "Observed", "Methods")
	for _, r := range runs {
		t.Row(r.ID.String(), r.Fingerprint.Short(), r.CreatedAt.Format("2006-01-02 15:04"), r.Request.Observation.String(), fmt.Sprint(len(r.Results)))
	}
	return t.String()
}

func hasSubstituted(cmp *updater.Comparison) bool {
	for _, d := range cmp.Methods {
		if d.SubstitutedSD {
			return true
		}
	}
	return false
}
