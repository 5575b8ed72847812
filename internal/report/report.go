package report

import (
	"fmt"
	"html"
	"strings"

	"goposterior/domain/dataset"
	"goposterior/domain/posterior"
	"goposterior/domain/run"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

const missing = "n/a"

// Markdown renders one run as a markdown document
func Markdown(r *run.Run) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Posterior run %s\n\n", r.ID)
	fmt.Fprintf(&b, "- Fingerprint: `%s`\n", r.Fingerprint.Short())
	fmt.Fprintf(&b, "- Created: %s\n", r.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	if r.Source.Source != "" {
		fmt.Fprintf(&b, "- Source: %s (%d rows kept of %d read)\n", r.Source.Source, r.Source.RowsKept, r.Source.RowsRead)
	}
	fmt.Fprintf(&b, "- Prior rows: %s\n", r.Request.Prior)
	fmt.Fprintf(&b, "- Observed rows: %s\n\n", r.Request.Observation)

	b.WriteString("## Inputs\n\n")
	b.WriteString("| | Mean | n | SD | Nuisance SD | Rows | Seasons | Players |\n")
	b.WriteString("|---|---:|---:|---:|---:|---:|---:|---:|\n")
	fmt.Fprintf(&b, "| Prior | %s | %s | %s | %s | %s |\n",
		num(r.Prior.Mean), count(r.Prior.SampleSize), opt(r.Prior.SD), opt(r.Prior.NuisanceSD), rows(r.PriorRows))
	fmt.Fprintf(&b, "| Observation | %s | %s | %s | %s | %s |\n\n",
		num(r.Observation.Mean), count(r.Observation.SampleSize), opt(r.Observation.SD), missing, rows(r.ObservationRows))

	b.WriteString("## Posteriors\n\n")
	b.WriteString(ResultsTable(r.Results))
	b.WriteString("\n")

	if len(r.Skipped) > 0 {
		b.WriteString("### Skipped\n\n")
		for _, m := range posterior.Methods {
			if reason, ok := r.Skipped[m]; ok {
				fmt.Fprintf(&b, "- %s: %s\n", m.Label(), reason)
			}
		}
		b.WriteString("\n")
	}

	if len(r.Densities) > 0 {
		b.WriteString("## Monte Carlo check\n\n")
		b.WriteString("| Method | Mean | SD | 2.5% | Median | 97.5% |\n")
		b.WriteString("|---|---:|---:|---:|---:|---:|\n")
		for _, d := range r.Densities {
			label := d.Method.Label()
			if d.SubstitutedSD {
				label += " (external SD)"
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
				label, num(d.Mean), num(d.SD), num(d.P025), num(d.Median), num(d.P975))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// ResultsTable renders posteriors as a markdown table
func ResultsTable(results []posterior.Result) string {
	var b strings.Builder
	b.WriteString("| Method | Mean | SD | 95% interval | Precision |\n")
	b.WriteString("|---|---:|---:|---|---:|\n")
	for _, res := range results {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			res.Method.Label(), num(res.Mean), opt(res.SD), interval(res.CredibleInterval95), opt(res.Precision))
	}
	return b.String()
}

// Index renders a list of runs, each linking to its own page
func Index(runs []*run.Run) string {
	var b strings.Builder
	b.WriteString("# Runs\n\n")
	if len(runs) == 0 {
		b.WriteString("No runs recorded yet.\n")
		return b.String()
	}
	b.WriteString("| Run | Created | Observed | Methods |\n")
	b.WriteString("|---|---|---|---:|\n")
	for _, r := range runs {
		fmt.Fprintf(&b, "| [%s](/runs/%s) | %s | %s | %d |\n",
			r.Fingerprint.Short(), r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.Request.Observation, len(r.Results))
	}
	return b.String()
}

// HTML converts markdown to an HTML fragment. Raw HTML in the input is dropped.
func HTML(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags | mdhtml.SkipHTML})
	return markdown.ToHTML([]byte(md), p, renderer)
}

// Page wraps an HTML fragment in a standalone document
func Page(title string, body []byte) []byte {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\">")
	fmt.Fprintf(&b, "<title>%s</title>", html.EscapeString(title))
	b.WriteString("<style>body{font-family:sans-serif;max-width:960px;margin:2em auto}" +
		"table{border-collapse:collapse}td,th{padding:4px 10px;border-bottom:1px solid #ddd}</style>")
	b.WriteString("</head><body>\n")
	b.Write(body)
	b.WriteString("\n</body></html>\n")
	return []byte(b.String())
}

func num(v float64) string { return fmt.Sprintf("%.4f", v) }

func opt(v *float64) string {
	if v == nil {
		return missing
	}
	return num(*v)
}

func count(v *int) string {
	if v == nil {
		return missing
	}
	return fmt.Sprint(*v)
}

func interval(i *posterior.Interval) string {
	if i == nil {
		return missing
	}
	return fmt.Sprintf("[%s, %s]", num(i.Lower), num(i.Upper))
}

func rows(s dataset.Summary) string {
	return fmt.Sprintf("%d | %d | %d", s.Rows, s.Seasons, s.Players)
}
