package selection

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"

	"synergyfit/domain/core"
	"synergyfit/domain/dataset"
	"synergyfit/domain/model"
)

func buildDataset(t *testing.T, key dataset.Key, observed int, records []dataset.MetricRecord) dataset.Dataset {
	t.Helper()
	table, err := dataset.NewMetricTable(records)
	if err != nil {
		t.Fatalf("metric table: %v", err)
	}
	return dataset.Dataset{Key: key, ObservedCount: observed, Metrics: table}
}

func TestSummarize_NaNMCCExcludedFromAggregates(t *testing.T) {
	d := buildDataset(t, dataset.Key{CellLine: "AGS", Population: "calibrated"}, 4,
		[]dataset.MetricRecord{
			{ModelID: "m1", Fitness: 0.5, TPCount: 1, MCC: 0.2},
			{ModelID: "m2", Fitness: 0.9, TPCount: 3, MCC: math.NaN()},
			{ModelID: "m3", Fitness: 0.7, TPCount: 2, MCC: 0.6},
		})

	s := Summarize(d)

	if s.MCC.Defined != 2 {
		t.Errorf("expected 2 defined MCC values, got %d", s.MCC.Defined)
	}
	if math.Abs(s.MCC.Range-0.4) > 1e-12 {
		t.Errorf("expected MCC range 0.4 over defined values, got %f", s.MCC.Range)
	}
	// The NaN-MCC model still contributes everywhere else.
	if s.Fitness.Defined != 3 {
		t.Errorf("expected 3 defined fitness values, got %d", s.Fitness.Defined)
	}
	if s.Fitness.Max != 0.9 {
		t.Errorf("expected fitness max 0.9, got %f", s.Fitness.Max)
	}
	if math.Abs(s.MaxTPRate-0.75) > 1e-12 {
		t.Errorf("expected max TP rate 3/4, got %f", s.MaxTPRate)
	}
}

func TestSummarize_MedianOnlyForContinuousScores(t *testing.T) {
	d := buildDataset(t, dataset.Key{CellLine: "AGS", Population: "random"}, 2,
		[]dataset.MetricRecord{
			{ModelID: "m1", Fitness: 0.2, TPCount: 0, MCC: 0.1},
			{ModelID: "m2", Fitness: 0.4, TPCount: 1, MCC: 0.3},
			{ModelID: "m3", Fitness: 0.6, TPCount: 2, MCC: 0.5},
		})

	s := Summarize(d)
	if math.Abs(s.Fitness.Median-0.4) > 1e-12 {
		t.Errorf("expected fitness median 0.4, got %f", s.Fitness.Median)
	}
	if math.Abs(s.MCC.Median-0.3) > 1e-12 {
		t.Errorf("expected MCC median 0.3, got %f", s.MCC.Median)
	}
	if s.TP.Median != 0 {
		t.Errorf("TP summary should not carry a median, got %f", s.TP.Median)
	}
}

func TestRankDatasets_WiderRangesRankFirst(t *testing.T) {
	wide := buildDataset(t, dataset.Key{CellLine: "AGS", Population: "calibrated"}, 5,
		[]dataset.MetricRecord{
			{ModelID: "m1", Fitness: 0.1, TPCount: 0, MCC: -0.4},
			{ModelID: "m2", Fitness: 0.9, TPCount: 4, MCC: 0.7},
		})
	narrow := buildDataset(t, dataset.Key{CellLine: "SW620", Population: "calibrated"}, 5,
		[]dataset.MetricRecord{
			{ModelID: "m1", Fitness: 0.5, TPCount: 2, MCC: 0.1},
			{ModelID: "m2", Fitness: 0.55, TPCount: 2, MCC: 0.15},
		})

	rankings := RankDatasets([]dataset.Summary{Summarize(narrow), Summarize(wide)})

	if rankings[0].Key.CellLine != "AGS" {
		t.Errorf("expected AGS ranked first, got %s", rankings[0].Key)
	}
	if rankings[0].Rank != 1 || rankings[1].Rank != 2 {
		t.Errorf("ranks not assigned in order: %+v", rankings)
	}
}

func makeModel(t *testing.T, id string, operators []string) *model.Model {
	t.Helper()
	ss, err := model.NewStableState(map[core.NodeName]model.Tristate{"A": model.Active})
	if err != nil {
		t.Fatalf("stable state: %v", err)
	}
	m, err := model.NewModel(core.ModelID(id), operators, []model.StableState{ss}, model.Predictions{})
	if err != nil {
		t.Fatalf("model: %v", err)
	}
	return m
}

func TestDedupeBySignature_KeepsFirstInEncounterOrder(t *testing.T) {
	models := []*model.Model{
		makeModel(t, "m1", []string{"and", "or"}),
		makeModel(t, "m2", []string{"or", "or"}),
		makeModel(t, "m3", []string{"and", "or"}), // duplicate of m1's structure
		makeModel(t, "m4", []string{"or", "and"}),
	}

	unique := DedupeBySignature(models)
	if len(unique) != 3 {
		t.Fatalf("expected 3 unique models, got %d", len(unique))
	}
	got := []core.ModelID{unique[0].ID, unique[1].ID, unique[2].ID}
	want := []core.ModelID{"m1", "m2", "m4"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestDedupeBySignature_Idempotent(t *testing.T) {
	models := []*model.Model{
		makeModel(t, "m1", []string{"and"}),
		makeModel(t, "m2", []string{"and"}),
		makeModel(t, "m3", []string{"or"}),
	}

	once := DedupeBySignature(models)
	twice := DedupeBySignature(once)
	if !reflect.DeepEqual(once, twice) {
		t.Error("dedupe applied twice differs from applied once")
	}
}

func TestSample_DeterministicForSeed(t *testing.T) {
	ids := make([]core.ModelID, 3000)
	for i := range ids {
		ids[i] = core.ModelID(fmt.Sprintf("model-%04d", i))
	}

	first, err := Sample(ids, 1000, 0)
	if err != nil {
		t.Fatalf("first draw: %v", err)
	}
	second, err := Sample(ids, 1000, 0)
	if err != nil {
		t.Fatalf("second draw: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("same seed produced different samples")
	}

	// No duplicates: sampling is without replacement.
	seen := make(map[core.ModelID]struct{}, len(first))
	for _, id := range first {
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %s in sample", id)
		}
		seen[id] = struct{}{}
	}
}

func TestSample_IndependentOfInputOrder(t *testing.T) {
	ids := []core.ModelID{"c", "a", "e", "b", "d"}
	reversed := []core.ModelID{"d", "b", "e", "a", "c"}

	first, err := Sample(ids, 3, 5)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := Sample(reversed, 3, 5)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("draw depends on candidate order: %v vs %v", first, second)
	}
}

func TestSample_ExceedingPoolFails(t *testing.T) {
	_, err := Sample([]core.ModelID{"a", "b"}, 3, 0)
	if !errors.Is(err, core.ErrSampleExceedsPopulation) {
		t.Fatalf("expected ErrSampleExceedsPopulation, got %v", err)
	}
}
