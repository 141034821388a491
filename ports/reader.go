package ports

import (
	"synergyfit/domain/dataset"
	"synergyfit/domain/model"
)

// ScreeningData bundles the aligned inputs for one cell line: the model
// population with its stable states and predictions, the observed steady
// state, and the gold-standard synergy set.
type ScreeningData struct {
	Key      dataset.Key
	Models   []*model.Model
	Steady   model.SteadyState
	Observed model.SynergySet
}

// ScreeningReader loads a complete screening dataset from an external
// source. Implementations must fail on misaligned inputs rather than
// coercing them; a model mentioned in one matrix but not another is a
// data defect, not a missing value.
type ScreeningReader interface {
	Read() (*ScreeningData, error)
}
