package report

import (
	"fmt"
	"sort"
	"strings"

	"gochurn/domain/model"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Markdown renders the training report for an artifact and the profile of its dataset
func Markdown(a *model.Artifact, p *Profile) string {
	var b strings.Builder
	m := a.Manifest
	s := a.Model.Summary

	fmt.Fprintf(&b, "# Churn model %s\n\n", m.ModelID)
	fmt.Fprintf(&b, "- Created: %s\n", m.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- Dataset: `%s` (fingerprint `%s`)\n", m.DatasetSource, m.DatasetFingerprint.Short())
	fmt.Fprintf(&b, "- Rows: %d read, %d used, %d dropped\n", m.RowsRead, m.RowsUsed, m.RowsDropped)
	fmt.Fprintf(&b, "- Schema: %d columns (fingerprint `%s`)\n", len(a.Schema), m.SchemaFingerprint.Short())
	fmt.Fprintf(&b, "- Code version: %s\n\n", m.CodeVersion)

	if p != nil {
		b.WriteString("## Dataset profile\n\n")
		fmt.Fprintf(&b, "%d records, churn rate %.1f%%.\n\n", p.Rows, 100*p.ChurnRate)
		b.WriteString("| Column | Count | Missing | Mean | Std | Min | Median | Max |\n")
		b.WriteString("|---|---:|---:|---:|---:|---:|---:|---:|\n")
		for _, c := range p.Numeric {
			fmt.Fprintf(&b, "| %s | %d | %d | %.2f | %.2f | %.2f | %.2f | %.2f |\n",
				c.Name, c.Count, c.Missing, c.Mean, c.StdDev, c.Min, c.Median, c.Max)
		}
		b.WriteString("\n")

		names := make([]string, 0, len(p.Categorical))
		for name := range p.Categorical {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			parts := make([]string, 0, len(p.Categorical[name]))
			for _, lc := range p.Categorical[name] {
				parts = append(parts, fmt.Sprintf("%s (%d)", lc.Level, lc.Count))
			}
			fmt.Fprintf(&b, "- **%s**: %s\n", name, strings.Join(parts, ", "))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Cox proportional-hazards fit\n\n")
	fmt.Fprintf(&b, "%d observations, %d events, converged in %d iterations.\n\n", s.Observations, s.Events, s.Iterations)
	fmt.Fprintf(&b, "- Concordance: %.3f\n", s.Concordance)
	fmt.Fprintf(&b, "- Log-likelihood: %.3f (null %.3f)\n", s.LogLikelihood, s.NullLogLikelihood)
	fmt.Fprintf(&b, "- Likelihood-ratio test: %.2f on %d df, p = %.3g\n\n", s.LRTestStatistic, len(s.Coefficients), s.LRTestPValue)

	b.WriteString("| Covariate | coef | exp(coef) | se | z | p | lower 95% | upper 95% |\n")
	b.WriteString("|---|---:|---:|---:|---:|---:|---:|---:|\n")
	for _, c := range s.Coefficients {
		fmt.Fprintf(&b, "| %s | %.4f | %.4f | %.4f | %.2f | %.3g | %.4f | %.4f |\n",
			c.Name, c.Coef, c.HazardRatio, c.StdErr, c.Z, c.PValue, c.LowerCI, c.UpperCI)
	}
	b.WriteString("\n")

	if km := a.KaplanMeier; km != nil {
		b.WriteString("## Kaplan-Meier\n\n")
		if km.Median != nil {
			fmt.Fprintf(&b, "Median tenure before churn: %.2f.\n\n", *km.Median)
		} else {
			b.WriteString("Median tenure before churn: not reached.\n\n")
		}
		b.WriteString("| Tenure | Survival |\n|---:|---:|\n")
		for _, h := range model.DefaultHorizons {
			fmt.Fprintf(&b, "| %d | %.3f |\n", h, km.SurvivalAt(float64(h)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// HTML renders the report as a standalone HTML page
func HTML(a *model.Artifact, p *Profile) []byte {
	md := []byte(Markdown(a, p))

	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	doc := parser.NewWithExtensions(extensions).Parse(md)

	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: fmt.Sprintf("Churn model %s", a.Manifest.ModelID),
	})
	return markdown.Render(doc, renderer)
}
