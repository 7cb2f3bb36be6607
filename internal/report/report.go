// Package report renders AIS results as Markdown and HTML.
package report

import (
	"fmt"
	"sort"
	"strings"

	"infodyn/domain/infomeasure"
	"infodyn/models"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Details carries the optional null distributions shown next to a result
type Details struct {
	ChiSquare *infomeasure.ChiSquareDistribution
	Empirical *infomeasure.EmpiricalDistribution
}

// Markdown renders one result as a Markdown document
func Markdown(res *models.AISResult, d Details) string {
	var b strings.Builder

	title := res.Source
	if title == "" {
		title = res.ID.String()
	}
	fmt.Fprintf(&b, "# Active information storage: %s\n\n", title)

	b.WriteString("| Setting | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Estimator | %s |\n", res.Estimator)
	fmt.Fprintf(&b, "| History length k | %d |\n", res.HistoryK)
	fmt.Fprintf(&b, "| Delay tau | %d |\n", res.Tau)
	fmt.Fprintf(&b, "| Variables | %d |\n", res.Dimensions)
	fmt.Fprintf(&b, "| Observations | %d |\n", res.Observations)
	b.WriteString("\n")

	b.WriteString("## Estimate\n\n")
	fmt.Fprintf(&b, "- **%.6f** %s\n", res.ValueNats, infomeasure.UnitNats)
	fmt.Fprintf(&b, "- **%.6f** %s\n\n", res.ValueBits, infomeasure.UnitBits)

	b.WriteString("## Significance\n\n")
	switch {
	case res.PValue == nil:
		b.WriteString("Not tested.\n\n")
	default:
		verdict := "not significant"
		if res.Significant {
			verdict = "significant"
		}
		fmt.Fprintf(&b, "Method: %s. p = %s, %s at alpha = %g.\n\n",
			res.Method, formatP(*res.PValue), verdict, res.Alpha)
	}

	if cs := d.ChiSquare; cs != nil {
		b.WriteString("| Chi-square | Value |\n|---|---|\n")
		fmt.Fprintf(&b, "| Statistic 2N·I | %.4f |\n", cs.Statistic)
		fmt.Fprintf(&b, "| Degrees of freedom | %d |\n", cs.DegreesOfFreedom)
		fmt.Fprintf(&b, "| Null mean (%s) | %.6f |\n", infomeasure.UnitNats, cs.Mean())
		fmt.Fprintf(&b, "| Critical AIS at alpha (%s) | %.6f |\n\n", infomeasure.UnitNats, cs.CriticalValue(res.Alpha))
	}
	if e := d.Empirical; e != nil {
		s := e.Summary
		b.WriteString("| Permutation null | Value |\n|---|---|\n")
		fmt.Fprintf(&b, "| Surrogates | %d |\n", len(e.Surrogates))
		fmt.Fprintf(&b, "| Mean | %.6f |\n", s.Mean)
		fmt.Fprintf(&b, "| Std dev | %.6f |\n", s.StdDev)
		fmt.Fprintf(&b, "| 95th percentile | %.6f |\n", s.Percentile95)
		fmt.Fprintf(&b, "| z-score | %.2f |\n\n", e.ZScore)
	}

	if len(res.Metadata) > 0 {
		b.WriteString("## Metadata\n\n")
		keys := make([]string, 0, len(res.Metadata))
		for k := range res.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %v\n", k, res.Metadata[k])
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "_Result %s, input fingerprint `%s`, computed %s._\n",
		res.ID, shortFingerprint(res.Fingerprint), res.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	return b.String()
}

// Summary renders several results as one Markdown table
func Summary(results []*models.AISResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "| Source | Estimator | k | tau | N | AIS (%s) | p | Significant |\n", infomeasure.UnitBits)
	b.WriteString("|---|---|---|---|---|---|---|---|\n")
	for _, r := range results {
		p := "-"
		if r.PValue != nil {
			p = formatP(*r.PValue)
		}
		fmt.Fprintf(&b, "| %s | %s | %d | %d | %d | %.4f | %s | %v |\n",
			r.Source, r.Estimator, r.HistoryK, r.Tau, r.Observations, r.ValueBits, p, r.Significant)
	}
	return b.String()
}

// HTML converts a Markdown document to an HTML fragment
func HTML(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(md), p, renderer)
}

func formatP(p float64) string {
	if p < 1e-4 {
		return fmt.Sprintf("%.2e", p)
	}
	return fmt.Sprintf("%.4f", p)
}

func shortFingerprint(f string) string {
	if len(f) > 12 {
		return f[:12]
	}
	return f
}
