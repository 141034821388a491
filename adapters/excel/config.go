package excel

import "path/filepath"

// LoaderConfig drives the screening data loader. All paths are explicit;
// nothing is resolved from ambient working-directory state.
type LoaderConfig struct {
	CellLine   string `json:"cell_line"`
	Population string `json:"population"`

	PredictionsFile  string `json:"predictions_file"`
	StableStatesFile string `json:"stable_states_file"`
	OperatorsFile    string `json:"operators_file"`
	SteadyStateFile  string `json:"steady_state_file"`
	ObservedFile     string `json:"observed_file"`
}

// DefaultLoaderConfig returns the conventional file layout for one cell
// line under a dataset root directory.
func DefaultLoaderConfig(root, cellLine, population string) LoaderConfig {
	dir := filepath.Join(root, cellLine)
	return LoaderConfig{
		CellLine:         cellLine,
		Population:       population,
		PredictionsFile:  filepath.Join(dir, population+"_predictions.tab"),
		StableStatesFile: filepath.Join(dir, population+"_stable_states.tab"),
		OperatorsFile:    filepath.Join(dir, population+"_operators.tab"),
		SteadyStateFile:  filepath.Join(dir, "steady_state.tab"),
		ObservedFile:     filepath.Join(dir, "observed_synergies.tab"),
	}
}
