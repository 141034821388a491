package report

import (
	"fmt"
	"math"
	"strings"

	"synergyfit/domain/dataset"
	"synergyfit/domain/stats"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Data bundles everything one analysis report renders. Nil sections are
// skipped; NaN values render as NA so tables keep their shape.
type Data struct {
	Key            dataset.Key
	Seed           int64
	PopulationSize int
	UniqueModels   int
	SampledModels  int
	Summary        *dataset.Summary
	Rankings       []dataset.Ranking
	Classification *stats.Classification
	Suite          *stats.TestSuite
}

// Markdown renders the analysis report as a markdown document.
func Markdown(d Data) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Synergy analysis: %s\n\n", d.Key)
	fmt.Fprintf(&b, "Seed %d. Population %d models, %d structurally unique, %d analyzed.\n\n",
		d.Seed, d.PopulationSize, d.UniqueModels, d.SampledModels)

	if d.Summary != nil {
		writeSummary(&b, d.Summary)
	}
	if len(d.Rankings) > 0 {
		writeRankings(&b, d.Rankings)
	}
	if d.Classification != nil {
		writeClassification(&b, d.Classification)
	}
	if d.Suite != nil {
		writeSuite(&b, d.Suite)
	}

	return b.String()
}

// HTML renders the markdown report to HTML for the web API.
func HTML(d Data) []byte {
	return RenderHTML(Markdown(d))
}

// RenderHTML converts an already-built markdown report to HTML. Used for
// reports persisted as markdown artifacts.
func RenderHTML(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs | parser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(md), p, renderer)
}

func writeSummary(b *strings.Builder, s *dataset.Summary) {
	fmt.Fprintf(b, "## Metric summary\n\n")
	fmt.Fprintf(b, "| metric | min | max | mean | median | defined |\n")
	fmt.Fprintf(b, "|---|---|---|---|---|---|\n")
	fmt.Fprintf(b, "| fitness | %s | %s | %s | %s | %d |\n",
		num(s.Fitness.Min), num(s.Fitness.Max), num(s.Fitness.Mean), num(s.Fitness.Median), s.Fitness.Defined)
	fmt.Fprintf(b, "| MCC | %s | %s | %s | %s | %d |\n",
		num(s.MCC.Min), num(s.MCC.Max), num(s.MCC.Mean), num(s.MCC.Median), s.MCC.Defined)
	fmt.Fprintf(b, "| TP count | %s | %s | %s | | %d |\n",
		num(s.TP.Min), num(s.TP.Max), num(s.TP.Mean), s.TP.Defined)
	fmt.Fprintf(b, "\nBest TP rate against the gold standard: %s.\n\n", num(s.MaxTPRate))
}

func writeRankings(b *strings.Builder, rankings []dataset.Ranking) {
	fmt.Fprintf(b, "## Dataset ranking\n\n")
	fmt.Fprintf(b, "| rank | dataset | fitness range | MCC range | TP range | score |\n")
	fmt.Fprintf(b, "|---|---|---|---|---|---|\n")
	for _, r := range rankings {
		fmt.Fprintf(b, "| %d | %s | %s | %s | %s | %s |\n",
			r.Rank, r.Key, num(r.FitnessRange), num(r.MCCRange), num(r.TPRange), num(r.CombinedScore))
	}
	fmt.Fprintf(b, "\nThe ranking is advisory; the analyzed dataset is an explicit choice.\n\n")
}

func writeClassification(b *strings.Builder, c *stats.Classification) {
	fmt.Fprintf(b, "## Fitness classes (k=%d)\n\n", c.K)
	fmt.Fprintf(b, "| class | center | size |\n")
	fmt.Fprintf(b, "|---|---|---|\n")
	for i := 0; i < c.K; i++ {
		fmt.Fprintf(b, "| %d | %s | %d |\n", i+1, num(c.Centers[i]), c.Sizes[i])
	}
	fmt.Fprintf(b, "\n")
}

func writeSuite(b *strings.Builder, suite *stats.TestSuite) {
	fmt.Fprintf(b, "## Hypothesis tests\n\n")

	if n := suite.FitnessNormality; n != nil {
		fmt.Fprintf(b, "- Fitness normality (%s): W' = %s, p = %s, n = %d; %s\n",
			n.Test, num(n.Statistic), num(n.PValue), n.SampleSize, normalityVerdict(n))
	}
	if n := suite.MCCNormality; n != nil {
		fmt.Fprintf(b, "- MCC normality (%s): W' = %s, p = %s, n = %d; %s\n",
			n.Test, num(n.Statistic), num(n.PValue), n.SampleSize, normalityVerdict(n))
	}
	if c := suite.Spearman; c != nil {
		fmt.Fprintf(b, "- Spearman rho = %s, p = %s (n = %d)\n", num(c.Coefficient), num(c.PValue), c.SampleSize)
	}
	if c := suite.Kendall; c != nil {
		fmt.Fprintf(b, "- Kendall tau-b = %s, p = %s (n = %d)\n", num(c.Coefficient), num(c.PValue), c.SampleSize)
	}
	if r := suite.PseudoR2; r != nil {
		fmt.Fprintf(b, "- McFadden pseudo-R² = %s (%d response levels, n = %d)\n",
			num(r.McFaddenR2), r.Levels, r.SampleSize)
	}
	if o := suite.Omnibus; o != nil {
		fmt.Fprintf(b, "- Kruskal-Wallis H = %s, df = %d, p = %s", num(o.Statistic), o.DegreesFreedom, num(o.PValue))
		if len(o.ExcludedGroups) > 0 {
			fmt.Fprintf(b, " (excluded undersized classes: %v)", o.ExcludedGroups)
		}
		fmt.Fprintf(b, "\n")
	}
	fmt.Fprintf(b, "\n")

	if suite.Pairwise != nil {
		writePairwise(b, suite.Pairwise)
	}
}

func writePairwise(b *strings.Builder, m *stats.PairwiseMatrix) {
	fmt.Fprintf(b, "### Pairwise rank-sum tests (BH-corrected q-values)\n\n")
	fmt.Fprintf(b, "| class pair | p | q |\n")
	fmt.Fprintf(b, "|---|---|---|\n")
	for i := 0; i < len(m.Groups); i++ {
		for j := i + 1; j < len(m.Groups); j++ {
			fmt.Fprintf(b, "| %d vs %d | %s | %s |\n",
				m.Groups[i], m.Groups[j], num(m.P[i][j]), num(m.Q[i][j]))
		}
	}
	fmt.Fprintf(b, "\n")
}

func normalityVerdict(n *stats.NormalityResult) string {
	if n.RejectNormal {
		return "normality rejected, rank-based tests apply"
	}
	return "normality not rejected"
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "NA"
	}
	return fmt.Sprintf("%.4g", v)
}
