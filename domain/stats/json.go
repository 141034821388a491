package stats

import (
	"encoding/json"
	"math"
)

// The pairwise matrix keeps NaN on the diagonal and unpopulated triangle by
// construction; those entries cross JSON as null and come back as NaN.

type pairwiseMatrixJSON struct {
	Groups []int        `json:"groups"`
	P      [][]*float64 `json:"p"`
	Q      [][]*float64 `json:"q"`
}

func (m PairwiseMatrix) MarshalJSON() ([]byte, error) {
	return json.Marshal(pairwiseMatrixJSON{
		Groups: m.Groups,
		P:      encodeGrid(m.P),
		Q:      encodeGrid(m.Q),
	})
}

func (m *PairwiseMatrix) UnmarshalJSON(data []byte) error {
	var raw pairwiseMatrixJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Groups = raw.Groups
	m.P = decodeGrid(raw.P)
	m.Q = decodeGrid(raw.Q)
	return nil
}

func encodeGrid(grid [][]float64) [][]*float64 {
	out := make([][]*float64, len(grid))
	for i, row := range grid {
		out[i] = make([]*float64, len(row))
		for j, v := range row {
			if !math.IsNaN(v) {
				value := v
				out[i][j] = &value
			}
		}
	}
	return out
}

func decodeGrid(grid [][]*float64) [][]float64 {
	out := make([][]float64, len(grid))
	for i, row := range grid {
		out[i] = make([]float64, len(row))
		for j, p := range row {
			if p == nil {
				out[i][j] = math.NaN()
			} else {
				out[i][j] = *p
			}
		}
	}
	return out
}
