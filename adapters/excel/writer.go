package excel

import (
	"fmt"
	"math"

	"synergyfit/domain/dataset"
	"synergyfit/domain/stats"

	"github.com/xuri/excelize/v2"
)

// Workbook accumulates analysis output sheets and writes them as one xlsx
// file. NaN cells are rendered as "NA" so result tables keep their shape
// instead of dropping degenerate rows.
type Workbook struct {
	file *excelize.File
}

// NewWorkbook creates an empty workbook
func NewWorkbook() *Workbook {
	return &Workbook{file: excelize.NewFile()}
}

// AddSummarySheet writes the cross-dataset summary and ranking tables.
func (w *Workbook) AddSummarySheet(summaries []dataset.Summary, rankings []dataset.Ranking) error {
	const sheet = "Summary"
	if _, err := w.file.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create %s sheet: %w", sheet, err)
	}

	header := []interface{}{
		"dataset", "models", "observed",
		"fitness_min", "fitness_max", "fitness_mean", "fitness_median",
		"mcc_min", "mcc_max", "mcc_mean", "mcc_median", "mcc_defined",
		"tp_min", "tp_max", "tp_mean", "max_tp_rate",
	}
	if err := w.writeRow(sheet, 1, header); err != nil {
		return err
	}
	for i, s := range summaries {
		row := []interface{}{
			s.Key.String(), s.Models, s.Observed,
			cell(s.Fitness.Min), cell(s.Fitness.Max), cell(s.Fitness.Mean), cell(s.Fitness.Median),
			cell(s.MCC.Min), cell(s.MCC.Max), cell(s.MCC.Mean), cell(s.MCC.Median), s.MCC.Defined,
			cell(s.TP.Min), cell(s.TP.Max), cell(s.TP.Mean), cell(s.MaxTPRate),
		}
		if err := w.writeRow(sheet, i+2, row); err != nil {
			return err
		}
	}

	rankStart := len(summaries) + 3
	rankHeader := []interface{}{"rank", "dataset", "fitness_range", "mcc_range", "tp_range", "combined_score"}
	if err := w.writeRow(sheet, rankStart, rankHeader); err != nil {
		return err
	}
	for i, r := range rankings {
		row := []interface{}{
			r.Rank, r.Key.String(),
			cell(r.FitnessRange), cell(r.MCCRange), cell(r.TPRange), cell(r.CombinedScore),
		}
		if err := w.writeRow(sheet, rankStart+i+1, row); err != nil {
			return err
		}
	}
	return nil
}

// AddMetricsSheet writes the per-model metric table, with class labels when
// a classification is supplied (labels align to the table's model order).
func (w *Workbook) AddMetricsSheet(table *dataset.MetricTable, classification *stats.Classification) error {
	const sheet = "Metrics"
	if _, err := w.file.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create %s sheet: %w", sheet, err)
	}

	header := []interface{}{"model_id", "fitness", "tp_count", "mcc"}
	if classification != nil {
		header = append(header, "class")
	}
	if err := w.writeRow(sheet, 1, header); err != nil {
		return err
	}

	for i, id := range table.ModelIDs() {
		rec, _ := table.Record(id)
		row := []interface{}{rec.ModelID.String(), cell(rec.Fitness), rec.TPCount, cell(rec.MCC)}
		if classification != nil && i < len(classification.Labels) {
			row = append(row, classification.Labels[i])
		}
		if err := w.writeRow(sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

// AddTestSheet writes the hypothesis-test battery: one row per scalar test,
// then the pairwise p/q matrices.
func (w *Workbook) AddTestSheet(suite *stats.TestSuite) error {
	const sheet = "Tests"
	if _, err := w.file.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create %s sheet: %w", sheet, err)
	}

	if err := w.writeRow(sheet, 1, []interface{}{"test", "statistic", "p_value", "detail"}); err != nil {
		return err
	}

	line := 2
	writeTest := func(name string, statistic, p float64, detail string) error {
		err := w.writeRow(sheet, line, []interface{}{name, cell(statistic), cell(p), detail})
		line++
		return err
	}

	if n := suite.FitnessNormality; n != nil {
		if err := writeTest(string(n.Test)+"_fitness", n.Statistic, n.PValue,
			fmt.Sprintf("n=%d reject_normal=%t", n.SampleSize, n.RejectNormal)); err != nil {
			return err
		}
	}
	if n := suite.MCCNormality; n != nil {
		if err := writeTest(string(n.Test)+"_mcc", n.Statistic, n.PValue,
			fmt.Sprintf("n=%d reject_normal=%t", n.SampleSize, n.RejectNormal)); err != nil {
			return err
		}
	}
	if c := suite.Spearman; c != nil {
		if err := writeTest(string(c.Test), c.Coefficient, c.PValue, fmt.Sprintf("n=%d", c.SampleSize)); err != nil {
			return err
		}
	}
	if c := suite.Kendall; c != nil {
		if err := writeTest(string(c.Test), c.Coefficient, c.PValue, fmt.Sprintf("n=%d", c.SampleSize)); err != nil {
			return err
		}
	}
	if r := suite.PseudoR2; r != nil {
		if err := writeTest(string(r.Test), r.McFaddenR2, math.NaN(),
			fmt.Sprintf("levels=%d n=%d", r.Levels, r.SampleSize)); err != nil {
			return err
		}
	}
	if o := suite.Omnibus; o != nil {
		if err := writeTest(string(o.Test), o.Statistic, o.PValue,
			fmt.Sprintf("df=%d excluded=%d", o.DegreesFreedom, len(o.ExcludedGroups))); err != nil {
			return err
		}
	}

	if suite.Pairwise != nil {
		line++
		if err := w.writePairwise(sheet, line, suite.Pairwise); err != nil {
			return err
		}
	}
	return nil
}

// writePairwise lays out the p-value and q-value triangles side by side.
func (w *Workbook) writePairwise(sheet string, startLine int, m *stats.PairwiseMatrix) error {
	header := []interface{}{"group"}
	for _, g := range m.Groups {
		header = append(header, fmt.Sprintf("p_vs_%d", g))
	}
	for _, g := range m.Groups {
		header = append(header, fmt.Sprintf("q_vs_%d", g))
	}
	if err := w.writeRow(sheet, startLine, header); err != nil {
		return err
	}

	for i, g := range m.Groups {
		row := []interface{}{g}
		for j := range m.Groups {
			row = append(row, cell(m.P[i][j]))
		}
		for j := range m.Groups {
			row = append(row, cell(m.Q[i][j]))
		}
		if err := w.writeRow(sheet, startLine+i+1, row); err != nil {
			return err
		}
	}
	return nil
}

// Save writes the workbook, dropping excelize's default sheet.
func (w *Workbook) Save(path string) error {
	if err := w.file.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}
	if err := w.file.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func (w *Workbook) writeRow(sheet string, line int, values []interface{}) error {
	cellRef, err := excelize.CoordinatesToCellName(1, line)
	if err != nil {
		return err
	}
	if err := w.file.SetSheetRow(sheet, cellRef, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, line, err)
	}
	return nil
}

// cell renders NaN as the literal string NA so degenerate entries stay
// visible inline instead of producing empty cells.
func cell(v float64) interface{} {
	if math.IsNaN(v) {
		return "NA"
	}
	return v
}
