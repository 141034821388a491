package metrics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"synergyfit/domain/core"
	"synergyfit/domain/model"
)

func mustStableState(t *testing.T, nodes map[core.NodeName]model.Tristate) model.StableState {
	t.Helper()
	ss, err := model.NewStableState(nodes)
	if err != nil {
		t.Fatalf("stable state: %v", err)
	}
	return ss
}

// TestFitness_MissingNodesExcludedFromDenominator covers the end-to-end
// scenario: stable {X:1,Y:0,Z:1} against steady {X:1,Y:0,Z:NA} is 2/2.
func TestFitness_MissingNodesExcludedFromDenominator(t *testing.T) {
	stable := mustStableState(t, map[core.NodeName]model.Tristate{
		"X": model.Active, "Y": model.Inactive, "Z": model.Active,
	})
	steady := model.NewSteadyState("AGS", map[core.NodeName]model.Tristate{
		"X": model.Active, "Y": model.Inactive, "Z": model.Missing,
	})

	fitness, err := Fitness(stable, steady)
	if err != nil {
		t.Fatalf("Fitness returned error: %v", err)
	}
	if fitness != 1.0 {
		t.Errorf("expected fitness 1.0, got %f", fitness)
	}
}

// TestFitness_AlignsByNameNotPosition verifies order independence: the
// steady state mentions nodes the model lacks, and shared names match by
// name regardless of any iteration order.
func TestFitness_AlignsByNameNotPosition(t *testing.T) {
	stable := mustStableState(t, map[core.NodeName]model.Tristate{
		"A": model.Active, "B": model.Inactive,
	})
	steady := model.NewSteadyState("AGS", map[core.NodeName]model.Tristate{
		"B": model.Active, "A": model.Active, "UNRELATED": model.Active,
	})

	fitness, err := Fitness(stable, steady)
	if err != nil {
		t.Fatalf("Fitness returned error: %v", err)
	}
	// A matches, B does not, UNRELATED is outside the model and ignored.
	if fitness != 0.5 {
		t.Errorf("expected fitness 0.5, got %f", fitness)
	}
}

func TestFitness_SelfComparisonIsOne(t *testing.T) {
	nodes := map[core.NodeName]model.Tristate{
		"A": model.Active, "B": model.Inactive, "C": model.Active, "D": model.Inactive,
	}
	stable := mustStableState(t, nodes)
	steady := model.NewSteadyState("AGS", nodes)

	fitness, err := Fitness(stable, steady)
	if err != nil {
		t.Fatalf("Fitness returned error: %v", err)
	}
	if fitness != 1.0 {
		t.Errorf("fitness against own state must be 1.0, got %f", fitness)
	}
}

func TestFitness_NoDefinedSharedNodesFails(t *testing.T) {
	stable := mustStableState(t, map[core.NodeName]model.Tristate{"A": model.Active})
	steady := model.NewSteadyState("AGS", map[core.NodeName]model.Tristate{
		"A": model.Missing, "B": model.Active,
	})

	_, err := Fitness(stable, steady)
	if !errors.Is(err, core.ErrNoDefinedNodes) {
		t.Fatalf("expected ErrNoDefinedNodes, got %v", err)
	}
}

// TestTPCount_ObservedScenario covers predictions {AB:1, CD:0, EF:NA, GH:1}
// with observed {AB, GH} -> 2.
func TestTPCount_ObservedScenario(t *testing.T) {
	pred := model.Predictions{
		"AB": model.Active,
		"CD": model.Inactive,
		"EF": model.Missing,
		"GH": model.Active,
	}
	observed := model.NewSynergySet("AB", "GH")

	if got := TPCount(pred, observed); got != 2 {
		t.Errorf("expected TP count 2, got %d", got)
	}
}

func TestTPCount_BoundedByObservedSet(t *testing.T) {
	pred := model.Predictions{}
	observed := model.NewSynergySet("AB", "CD", "EF")
	for _, id := range observed.IDs() {
		pred[id] = model.Active
	}
	// Extra positive calls outside the observed set never inflate TP.
	pred["ZZ"] = model.Active

	got := TPCount(pred, observed)
	if got < 0 || got > observed.Len() {
		t.Fatalf("TP count %d outside [0, %d]", got, observed.Len())
	}
	if got != 3 {
		t.Errorf("expected TP count 3, got %d", got)
	}
}

// TestMCC_ZeroMarginalIsNaN covers TP=0, FP=0, FN=3, TN=5: the (TP+FP)
// marginal vanishes and MCC is undefined.
func TestMCC_ZeroMarginalIsNaN(t *testing.T) {
	pred := model.Predictions{}
	observed := model.NewSynergySet("S1", "S2", "S3")
	for _, id := range observed.IDs() {
		pred[id] = model.Inactive // 3 false negatives
	}
	for i := 0; i < 5; i++ {
		pred[core.CombinationID(fmt.Sprintf("N%d", i))] = model.Inactive // 5 true negatives
	}

	if got := MCC(pred, observed); !math.IsNaN(got) {
		t.Errorf("expected NaN for all-negative predictions, got %f", got)
	}
}

func TestMCC_AllPositiveIsNaN(t *testing.T) {
	pred := model.Predictions{"A": model.Active, "B": model.Active, "C": model.Active}
	observed := model.NewSynergySet("A")

	// TN+FN marginal is zero.
	if got := MCC(pred, observed); !math.IsNaN(got) {
		t.Errorf("expected NaN for all-positive predictions, got %f", got)
	}
}

func TestMCC_PerfectPredictionIsOne(t *testing.T) {
	pred := model.Predictions{
		"A": model.Active, "B": model.Active,
		"C": model.Inactive, "D": model.Inactive,
	}
	observed := model.NewSynergySet("A", "B")

	got := MCC(pred, observed)
	if math.Abs(got-1.0) > 1e-12 {
		t.Errorf("expected MCC 1.0 for perfect prediction, got %f", got)
	}
}

func TestMCC_MissingTreatedAsNegative(t *testing.T) {
	// NA in the observed subset behaves exactly like an explicit 0 call.
	withNA := model.Predictions{
		"A": model.Active, "B": model.Missing,
		"C": model.Inactive, "D": model.Active,
	}
	withZero := model.Predictions{
		"A": model.Active, "B": model.Inactive,
		"C": model.Inactive, "D": model.Active,
	}
	observed := model.NewSynergySet("A", "B")

	na := MCC(withNA, observed)
	zero := MCC(withZero, observed)
	if na != zero {
		t.Errorf("NA must score like an explicit negative: %f vs %f", na, zero)
	}
}

func TestEvaluatePopulation_AlignedByModelID(t *testing.T) {
	steady := model.NewSteadyState("AGS", map[core.NodeName]model.Tristate{
		"X": model.Active, "Y": model.Inactive,
	})
	observed := model.NewSynergySet("AB")

	models := make([]*model.Model, 0, 3)
	for i, pred := range []model.Tristate{model.Active, model.Inactive, model.Active} {
		stable := map[core.NodeName]model.Tristate{"X": model.Active, "Y": model.Inactive}
		ss, err := model.NewStableState(stable)
		if err != nil {
			t.Fatalf("stable state: %v", err)
		}
		m, err := model.NewModel(
			core.ModelID(fmt.Sprintf("m%d", i)),
			[]string{"and", "or"},
			[]model.StableState{ss},
			model.Predictions{"AB": pred, "CD": model.Inactive},
		)
		if err != nil {
			t.Fatalf("model: %v", err)
		}
		models = append(models, m)
	}

	table, err := EvaluatePopulation(context.Background(), models, steady, observed)
	if err != nil {
		t.Fatalf("EvaluatePopulation: %v", err)
	}
	if table.Len() != 3 {
		t.Fatalf("expected 3 records, got %d", table.Len())
	}

	ids := table.ModelIDs()
	for i, want := range []core.ModelID{"m0", "m1", "m2"} {
		if ids[i] != want {
			t.Errorf("position %d: expected %s, got %s", i, want, ids[i])
		}
	}

	rec, ok := table.Record("m1")
	if !ok {
		t.Fatal("record m1 missing")
	}
	if rec.TPCount != 0 {
		t.Errorf("m1 predicts no synergy, expected TP 0, got %d", rec.TPCount)
	}
}

func TestEvaluatePopulation_EmptyPopulationFails(t *testing.T) {
	steady := model.NewSteadyState("AGS", nil)
	_, err := EvaluatePopulation(context.Background(), nil, steady, model.NewSynergySet())
	if !errors.Is(err, core.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}
