package metrics

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"synergyfit/domain/core"
	"synergyfit/domain/dataset"
	"synergyfit/domain/model"

	"golang.org/x/sync/errgroup"
)

// Fitness is the fraction of steady-state-defined nodes whose observed
// activity matches the model's stable state. The steady state is first
// restricted to node names the model actually has, then aligned by name;
// position never matters. Nodes the steady state leaves undefined are
// excluded from the denominator.
func Fitness(stable model.StableState, steady model.SteadyState) (float64, error) {
	matches := 0
	defined := 0
	for node, observed := range stableIntersection(stable, steady) {
		defined++
		if stable[node] == observed {
			matches++
		}
	}
	if defined == 0 {
		return math.NaN(), fmt.Errorf("%w: steady state for %s shares no defined nodes with model",
			core.ErrNoDefinedNodes, steady.CellLine)
	}
	return float64(matches) / float64(defined), nil
}

// stableIntersection returns the defined steady-state entries restricted to
// nodes present in the stable state.
func stableIntersection(stable model.StableState, steady model.SteadyState) map[core.NodeName]model.Tristate {
	shared := make(map[core.NodeName]model.Tristate)
	for node := range stable {
		if observed, ok := steady.Value(node); ok && observed.IsDefined() {
			shared[node] = observed
		}
	}
	return shared
}

// TPCount is the number of observed synergies the model predicts as
// synergistic. Missing predictions contribute nothing: they are neither
// counted nor penalized.
func TPCount(pred model.Predictions, observed model.SynergySet) int {
	tp := 0
	for id := range observed {
		if pred[id] == model.Active {
			tp++
		}
	}
	return tp
}

// Confusion holds the four confusion-matrix cells over all tested
// combinations. Missing predictions are treated as negative calls, the same
// policy the upstream analysis applied uniformly; see DESIGN.md for the
// domain-assumption note.
type Confusion struct {
	TP, FP, TN, FN int
}

// Count partitions the predictions by gold-standard membership.
func Count(pred model.Predictions, observed model.SynergySet) Confusion {
	var c Confusion
	for id, call := range pred {
		synergy := call == model.Active
		if observed.Contains(id) {
			if synergy {
				c.TP++
			} else {
				c.FN++
			}
		} else {
			if synergy {
				c.FP++
			} else {
				c.TN++
			}
		}
	}
	return c
}

// MCC computes the Matthews correlation coefficient from a confusion
// partition. When any marginal is zero the denominator vanishes and the
// coefficient is undefined; that is a legitimate domain value reported as
// NaN, never an error.
func MCC(pred model.Predictions, observed model.SynergySet) float64 {
	c := Count(pred, observed)
	denom := math.Sqrt(float64(c.TP+c.FP) * float64(c.TP+c.FN) * float64(c.TN+c.FP) * float64(c.TN+c.FN))
	if denom == 0 {
		return math.NaN()
	}
	return (float64(c.TP)*float64(c.TN) - float64(c.FP)*float64(c.FN)) / denom
}

// EvaluatePopulation derives the per-model metric table for a population.
// Rows are independent, so models are scored concurrently with bounded
// parallelism; the final table is aligned to the input model order
// regardless of completion order.
func EvaluatePopulation(ctx context.Context, models []*model.Model, steady model.SteadyState, observed model.SynergySet) (*dataset.MetricTable, error) {
	if len(models) == 0 {
		return nil, fmt.Errorf("%w: no models to evaluate", core.ErrEmptyInput)
	}

	records := make([]dataset.MetricRecord, len(models))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, m := range models {
		i, m := i, m
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fitness, err := Fitness(m.StableState(), steady)
			if err != nil {
				return fmt.Errorf("model %s: %w", m.ID, err)
			}
			records[i] = dataset.MetricRecord{
				ModelID: m.ID,
				Fitness: fitness,
				TPCount: TPCount(m.Predictions, observed),
				MCC:     MCC(m.Predictions, observed),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dataset.NewMetricTable(records)
}
