package hypothesis

import (
	"errors"
	"math/rand"
	"testing"

	"synergyfit/domain/core"
)

func TestMcFaddenPseudoR2_StrongRelationship(t *testing.T) {
	// Response levels are deterministic buckets of the predictor: the full
	// model should explain most of the null deviance.
	var response []int
	var predictor []float64
	rng := rand.New(rand.NewSource(41))
	for i := 0; i < 300; i++ {
		x := rng.Float64()
		level := 0
		switch {
		case x > 0.66:
			level = 2
		case x > 0.33:
			level = 1
		}
		response = append(response, level)
		predictor = append(predictor, x)
	}

	res, err := McFaddenPseudoR2(response, predictor)
	if err != nil {
		t.Fatalf("McFaddenPseudoR2: %v", err)
	}
	if res.McFaddenR2 < 0.5 {
		t.Errorf("expected R2 > 0.5 for bucketed response, got %f", res.McFaddenR2)
	}
	if res.Levels != 3 {
		t.Errorf("expected 3 levels, got %d", res.Levels)
	}
	if res.LogLikFull < res.LogLikNull {
		t.Errorf("full model log-likelihood %f below null %f", res.LogLikFull, res.LogLikNull)
	}
}

func TestMcFaddenPseudoR2_IndependentNearZero(t *testing.T) {
	var response []int
	var predictor []float64
	rng := rand.New(rand.NewSource(43))
	for i := 0; i < 400; i++ {
		response = append(response, i%2)
		predictor = append(predictor, rng.Float64())
	}

	res, err := McFaddenPseudoR2(response, predictor)
	if err != nil {
		t.Fatalf("McFaddenPseudoR2: %v", err)
	}
	if res.McFaddenR2 > 0.1 {
		t.Errorf("expected near-zero R2 for independent response, got %f", res.McFaddenR2)
	}
	if res.McFaddenR2 < -0.01 {
		t.Errorf("R2 should not be materially negative, got %f", res.McFaddenR2)
	}
}

func TestMcFaddenPseudoR2_Deterministic(t *testing.T) {
	response := []int{0, 1, 2, 0, 1, 2, 0, 1, 2, 0, 1, 2}
	predictor := []float64{0.1, 0.5, 0.9, 0.2, 0.4, 0.8, 0.15, 0.55, 0.95, 0.05, 0.45, 0.85}

	first, err := McFaddenPseudoR2(response, predictor)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := McFaddenPseudoR2(response, predictor)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.McFaddenR2 != second.McFaddenR2 {
		t.Error("R2 differs between identical runs")
	}
}

func TestMcFaddenPseudoR2_SingleLevelFails(t *testing.T) {
	_, err := McFaddenPseudoR2([]int{3, 3, 3, 3}, []float64{1, 2, 3, 4})
	if !errors.Is(err, core.ErrTooFewGroups) {
		t.Fatalf("expected ErrTooFewGroups, got %v", err)
	}
}

func TestMcFaddenPseudoR2_MismatchedLengthsFail(t *testing.T) {
	_, err := McFaddenPseudoR2([]int{0, 1}, []float64{1, 2, 3})
	if !errors.Is(err, core.ErrModelMismatch) {
		t.Fatalf("expected ErrModelMismatch, got %v", err)
	}
}
