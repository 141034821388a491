package dataset

import (
	"encoding/json"
	"math"

	"synergyfit/domain/core"
)

// NaN is a legitimate domain value in metric and summary records but has no
// JSON representation; it crosses the wire as null and comes back as NaN.

func nanNull(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func nullNaN(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

type metricRecordJSON struct {
	ModelID string   `json:"model_id"`
	Fitness float64  `json:"fitness"`
	TPCount int      `json:"tp_count"`
	MCC     *float64 `json:"mcc"`
}

func (r MetricRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(metricRecordJSON{
		ModelID: r.ModelID.String(),
		Fitness: r.Fitness,
		TPCount: r.TPCount,
		MCC:     nanNull(r.MCC),
	})
}

func (r *MetricRecord) UnmarshalJSON(data []byte) error {
	var raw metricRecordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.ModelID = core.ModelID(raw.ModelID)
	r.Fitness = raw.Fitness
	r.TPCount = raw.TPCount
	r.MCC = nullNaN(raw.MCC)
	return nil
}

type vectorSummaryJSON struct {
	Min     *float64 `json:"min"`
	Max     *float64 `json:"max"`
	Range   *float64 `json:"range"`
	Mean    *float64 `json:"mean"`
	Median  *float64 `json:"median,omitempty"`
	Defined int      `json:"defined"`
}

func (s VectorSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(vectorSummaryJSON{
		Min:     nanNull(s.Min),
		Max:     nanNull(s.Max),
		Range:   nanNull(s.Range),
		Mean:    nanNull(s.Mean),
		Median:  nanNull(s.Median),
		Defined: s.Defined,
	})
}

func (s *VectorSummary) UnmarshalJSON(data []byte) error {
	var raw vectorSummaryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Min = nullNaN(raw.Min)
	s.Max = nullNaN(raw.Max)
	s.Range = nullNaN(raw.Range)
	s.Mean = nullNaN(raw.Mean)
	s.Median = nullNaN(raw.Median)
	s.Defined = raw.Defined
	return nil
}

type summaryJSON struct {
	Key       Key           `json:"key"`
	Models    int           `json:"models"`
	Observed  int           `json:"observed"`
	Fitness   VectorSummary `json:"fitness"`
	TP        VectorSummary `json:"tp"`
	MCC       VectorSummary `json:"mcc"`
	MaxTPRate *float64      `json:"max_tp_rate"`
}

func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(summaryJSON{
		Key:       s.Key,
		Models:    s.Models,
		Observed:  s.Observed,
		Fitness:   s.Fitness,
		TP:        s.TP,
		MCC:       s.MCC,
		MaxTPRate: nanNull(s.MaxTPRate),
	})
}

func (s *Summary) UnmarshalJSON(data []byte) error {
	var raw summaryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Key = raw.Key
	s.Models = raw.Models
	s.Observed = raw.Observed
	s.Fitness = raw.Fitness
	s.TP = raw.TP
	s.MCC = raw.MCC
	s.MaxTPRate = nullNaN(raw.MaxTPRate)
	return nil
}

type rankingJSON struct {
	Key           Key      `json:"key"`
	FitnessRange  *float64 `json:"fitness_range"`
	MCCRange      *float64 `json:"mcc_range"`
	TPRange       *float64 `json:"tp_range"`
	CombinedScore float64  `json:"combined_score"`
	Rank          int      `json:"rank"`
}

func (r Ranking) MarshalJSON() ([]byte, error) {
	return json.Marshal(rankingJSON{
		Key:           r.Key,
		FitnessRange:  nanNull(r.FitnessRange),
		MCCRange:      nanNull(r.MCCRange),
		TPRange:       nanNull(r.TPRange),
		CombinedScore: r.CombinedScore,
		Rank:          r.Rank,
	})
}

func (r *Ranking) UnmarshalJSON(data []byte) error {
	var raw rankingJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Key = raw.Key
	r.FitnessRange = nullNaN(raw.FitnessRange)
	r.MCCRange = nullNaN(raw.MCCRange)
	r.TPRange = nullNaN(raw.TPRange)
	r.CombinedScore = raw.CombinedScore
	r.Rank = raw.Rank
	return nil
}
