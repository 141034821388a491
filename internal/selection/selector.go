package selection

import (
	"math"
	"sort"

	"synergyfit/domain/dataset"

	mstats "github.com/montanaflynn/stats"
)

// Summarize computes the cross-comparison aggregates for one dataset.
// MCC vectors may contain NaN (degenerate confusion matrices); those entries
// are excluded from the aggregates without discarding the model from the
// fitness and TP summaries, so Defined counts can differ per metric.
func Summarize(d dataset.Dataset) dataset.Summary {
	fitness := summarizeVector(d.Metrics.FitnessVector(), true)
	mcc := summarizeVector(d.Metrics.MCCVector(), true)
	tp := summarizeVector(d.Metrics.TPVector(), false)

	return dataset.Summary{
		Key:       d.Key,
		Models:    d.Metrics.Len(),
		Observed:  d.ObservedCount,
		Fitness:   fitness,
		TP:        tp,
		MCC:       mcc,
		MaxTPRate: d.MaxTPRate(),
	}
}

// summarizeVector aggregates one metric vector. Median is only meaningful
// for the continuous scores (fitness, MCC), not the TP counts.
func summarizeVector(values []float64, withMedian bool) dataset.VectorSummary {
	defined := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			defined = append(defined, v)
		}
	}
	if len(defined) == 0 {
		return dataset.VectorSummary{
			Min: math.NaN(), Max: math.NaN(), Range: math.NaN(),
			Mean: math.NaN(), Median: math.NaN(), Defined: 0,
		}
	}

	min, _ := mstats.Min(defined)
	max, _ := mstats.Max(defined)
	mean, _ := mstats.Mean(defined)

	summary := dataset.VectorSummary{
		Min:     min,
		Max:     max,
		Range:   max - min,
		Mean:    mean,
		Defined: len(defined),
	}
	if withMedian {
		median, _ := mstats.Median(defined)
		summary.Median = median
	}
	return summary
}

// RankDatasets orders candidate datasets by how discriminative their metric
// vectors are: wider fitness, MCC and TP ranges promise more contrast for
// the class comparison downstream. TP ranges are normalized by the observed
// synergy count so cell lines with different gold-standard sizes stay
// comparable. The ranking is advisory; the final pick is an external
// decision informed by this report.
func RankDatasets(summaries []dataset.Summary) []dataset.Ranking {
	rankings := make([]dataset.Ranking, 0, len(summaries))
	for _, s := range summaries {
		tpRange := s.TP.Range
		if s.Observed > 0 {
			tpRange /= float64(s.Observed)
		}
		score := nanToZero(s.Fitness.Range) + nanToZero(s.MCC.Range) + nanToZero(tpRange)
		rankings = append(rankings, dataset.Ranking{
			Key:           s.Key,
			FitnessRange:  s.Fitness.Range,
			MCCRange:      s.MCC.Range,
			TPRange:       s.TP.Range,
			CombinedScore: score,
		})
	}

	sort.Slice(rankings, func(i, j int) bool {
		if rankings[i].CombinedScore != rankings[j].CombinedScore {
			return rankings[i].CombinedScore > rankings[j].CombinedScore
		}
		// Tie-break on the key for a stable, deterministic report.
		return rankings[i].Key.String() < rankings[j].Key.String()
	})
	for i := range rankings {
		rankings[i].Rank = i + 1
	}
	return rankings
}

func nanToZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
