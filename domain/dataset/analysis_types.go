package dataset

// VectorSummary holds the per-vector aggregates the selector reports for
// one metric. NaN entries (degenerate MCC) are excluded from the aggregates
// without dropping the underlying model from other vectors; Defined records
// how many values actually contributed.
type VectorSummary struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Range   float64 `json:"range"`
	Mean    float64 `json:"mean"`
	Median  float64 `json:"median,omitempty"`
	Defined int     `json:"defined"`
}

// Summary is the cross-comparison record for one dataset. Median is
// reported for fitness and MCC only; TP counts get extrema and mean.
type Summary struct {
	Key       Key           `json:"key"`
	Models    int           `json:"models"`
	Observed  int           `json:"observed"`
	Fitness   VectorSummary `json:"fitness"`
	TP        VectorSummary `json:"tp"`
	MCC       VectorSummary `json:"mcc"`
	MaxTPRate float64       `json:"max_tp_rate"`
}

// Ranking is one row of the advisory selection report. The final dataset
// pick remains an external decision informed by this ordering.
type Ranking struct {
	Key           Key     `json:"key"`
	FitnessRange  float64 `json:"fitness_range"`
	MCCRange      float64 `json:"mcc_range"`
	TPRange       float64 `json:"tp_range"`
	CombinedScore float64 `json:"combined_score"`
	Rank          int     `json:"rank"`
}
