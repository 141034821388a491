package dataset

import (
	"fmt"
	"math"

	"synergyfit/domain/core"
)

// Key identifies the unit of cross-comparison: a cell line paired with a
// model population (e.g. the calibrated vs. the random population).
type Key struct {
	CellLine   core.CellLine `json:"cell_line"`
	Population string        `json:"population"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.CellLine, k.Population)
}

// MetricRecord holds the derived scalars for one model. MCC may be NaN
// (degenerate confusion matrix); NaN is a domain value here, not an error.
type MetricRecord struct {
	ModelID core.ModelID `json:"model_id"`
	Fitness float64      `json:"fitness"`
	TPCount int          `json:"tp_count"`
	MCC     float64      `json:"mcc"`
}

// MetricTable is an immutable set of per-model metric records with a fixed
// model ordering. All vector accessors return slices aligned to ModelIDs(),
// with NaN entries kept inline so shape is preserved across the dataset.
type MetricTable struct {
	order   []core.ModelID
	records map[core.ModelID]MetricRecord
}

// NewMetricTable builds a table preserving the given record order.
// Duplicate model IDs are a data-consistency error.
func NewMetricTable(records []MetricRecord) (*MetricTable, error) {
	t := &MetricTable{
		order:   make([]core.ModelID, 0, len(records)),
		records: make(map[core.ModelID]MetricRecord, len(records)),
	}
	for _, rec := range records {
		if _, exists := t.records[rec.ModelID]; exists {
			return nil, fmt.Errorf("%w: duplicate model %s in metric table",
				core.ErrModelMismatch, rec.ModelID)
		}
		t.order = append(t.order, rec.ModelID)
		t.records[rec.ModelID] = rec
	}
	return t, nil
}

// Len returns the number of models in the table.
func (t *MetricTable) Len() int { return len(t.order) }

// ModelIDs returns the model ordering shared by all vector accessors.
func (t *MetricTable) ModelIDs() []core.ModelID {
	out := make([]core.ModelID, len(t.order))
	copy(out, t.order)
	return out
}

// Record returns the metrics for one model.
func (t *MetricTable) Record(id core.ModelID) (MetricRecord, bool) {
	rec, ok := t.records[id]
	return rec, ok
}

// FitnessVector returns per-model fitness aligned to ModelIDs().
func (t *MetricTable) FitnessVector() []float64 {
	out := make([]float64, len(t.order))
	for i, id := range t.order {
		out[i] = t.records[id].Fitness
	}
	return out
}

// TPVector returns per-model TP counts aligned to ModelIDs().
func (t *MetricTable) TPVector() []float64 {
	out := make([]float64, len(t.order))
	for i, id := range t.order {
		out[i] = float64(t.records[id].TPCount)
	}
	return out
}

// MCCVector returns per-model MCC aligned to ModelIDs(). Entries may be NaN.
func (t *MetricTable) MCCVector() []float64 {
	out := make([]float64, len(t.order))
	for i, id := range t.order {
		out[i] = t.records[id].MCC
	}
	return out
}

// Subset returns a new table restricted to the given models, in the given
// order. Unknown IDs are a data-consistency error.
func (t *MetricTable) Subset(ids []core.ModelID) (*MetricTable, error) {
	records := make([]MetricRecord, 0, len(ids))
	for _, id := range ids {
		rec, ok := t.records[id]
		if !ok {
			return nil, core.NewModelMismatchError(id, "subset request", "metric table")
		}
		records = append(records, rec)
	}
	return NewMetricTable(records)
}

// MaxTP returns the highest TP count in the table, NaN-free by construction.
func (t *MetricTable) MaxTP() int {
	maxTP := 0
	for _, id := range t.order {
		if tp := t.records[id].TPCount; tp > maxTP {
			maxTP = tp
		}
	}
	return maxTP
}

// Dataset pairs a key with its aligned metric table and the size of the
// observed synergy set used to derive the metrics.
type Dataset struct {
	Key             Key          `json:"key"`
	ObservedCount   int          `json:"observed_count"`
	Metrics         *MetricTable `json:"-"`
}

// MaxTPRate is the best TP count in the population relative to the number
// of observed synergies.
func (d Dataset) MaxTPRate() float64 {
	if d.ObservedCount == 0 {
		return math.NaN()
	}
	return float64(d.Metrics.MaxTP()) / float64(d.ObservedCount)
}
