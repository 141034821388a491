package excel

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"synergyfit/domain/core"
	"synergyfit/domain/dataset"
	"synergyfit/domain/model"
	"synergyfit/ports"
)

// ScreeningLoader reads one cell line's aligned simulation outputs: the
// prediction, stable-state and link-operator matrices plus the observed
// steady state and gold-standard synergies. Implements ports.ScreeningReader.
type ScreeningLoader struct {
	config LoaderConfig
}

// NewScreeningLoader creates a loader for one dataset
func NewScreeningLoader(config LoaderConfig) *ScreeningLoader {
	return &ScreeningLoader{config: config}
}

// Read loads and aligns all five inputs. The three model matrices must
// mention exactly the same model identifiers; any model present in one but
// missing from another aborts the load with a model-mismatch error.
func (l *ScreeningLoader) Read() (*ports.ScreeningData, error) {
	predictions, combinations, err := l.readPredictions()
	if err != nil {
		return nil, fmt.Errorf("predictions: %w", err)
	}
	stableStates, err := l.readStableStates()
	if err != nil {
		return nil, fmt.Errorf("stable states: %w", err)
	}
	operators, err := l.readOperators()
	if err != nil {
		return nil, fmt.Errorf("link operators: %w", err)
	}

	if err := checkAligned(predictions, stableStates, "predictions", "stable states"); err != nil {
		return nil, err
	}
	if err := checkAligned(predictions, operators, "predictions", "link operators"); err != nil {
		return nil, err
	}

	steady, err := l.readSteadyState()
	if err != nil {
		return nil, fmt.Errorf("steady state: %w", err)
	}
	observed, err := l.readObserved(combinations)
	if err != nil {
		return nil, fmt.Errorf("observed synergies: %w", err)
	}

	models := make([]*model.Model, 0, len(predictions))
	for _, id := range sortedModelIDs(predictions) {
		m, err := model.NewModel(id, operators[id], stableStates[id], predictions[id])
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}

	log.Printf("[Loader] %s/%s loaded: %d models, %d combinations, %d observed synergies",
		l.config.CellLine, l.config.Population, len(models), len(combinations), observed.Len())

	return &ports.ScreeningData{
		Key:      dataset.Key{CellLine: core.CellLine(l.config.CellLine), Population: l.config.Population},
		Models:   models,
		Steady:   steady,
		Observed: observed,
	}, nil
}

// readPredictions parses the model-by-combination matrix. Returns the
// per-model prediction maps and the combination column order.
func (l *ScreeningLoader) readPredictions() (map[core.ModelID]model.Predictions, []core.CombinationID, error) {
	t, err := readTable(l.config.PredictionsFile)
	if err != nil {
		return nil, nil, err
	}
	if len(t.headers) < 2 {
		return nil, nil, fmt.Errorf("prediction matrix needs a model column and at least one combination column")
	}

	combinations := make([]core.CombinationID, 0, len(t.headers)-1)
	for _, h := range t.headers[1:] {
		combinations = append(combinations, core.CombinationID(h))
	}

	predictions := make(map[core.ModelID]model.Predictions, len(t.rows))
	for _, row := range t.rows {
		id, err := core.ParseModelID(row[0])
		if err != nil {
			return nil, nil, err
		}
		if _, dup := predictions[id]; dup {
			return nil, nil, fmt.Errorf("%w: duplicate model %s in prediction matrix", core.ErrModelMismatch, id)
		}

		preds := make(model.Predictions, len(combinations))
		for i, combo := range combinations {
			v, err := parseTristate(cellAt(row, i+1))
			if err != nil {
				return nil, nil, fmt.Errorf("model %s, combination %s: %w", id, combo, err)
			}
			preds[combo] = v
		}
		predictions[id] = preds
	}
	return predictions, combinations, nil
}

// readStableStates parses the model-by-node matrix. A model may appear on
// multiple rows (one per fixpoint); the exactly-one-fixpoint invariant is
// enforced later at model construction, not silently patched here.
func (l *ScreeningLoader) readStableStates() (map[core.ModelID][]model.StableState, error) {
	t, err := readTable(l.config.StableStatesFile)
	if err != nil {
		return nil, err
	}
	if len(t.headers) < 2 {
		return nil, fmt.Errorf("stable-state matrix needs a model column and at least one node column")
	}

	nodes := make([]core.NodeName, 0, len(t.headers)-1)
	for _, h := range t.headers[1:] {
		nodes = append(nodes, core.NodeName(h))
	}

	states := make(map[core.ModelID][]model.StableState, len(t.rows))
	for _, row := range t.rows {
		id, err := core.ParseModelID(row[0])
		if err != nil {
			return nil, err
		}

		vector := make(map[core.NodeName]model.Tristate, len(nodes))
		for i, node := range nodes {
			v, err := parseTristate(cellAt(row, i+1))
			if err != nil {
				return nil, fmt.Errorf("model %s, node %s: %w", id, node, err)
			}
			vector[node] = v
		}
		state, err := model.NewStableState(vector)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", id, err)
		}
		states[id] = append(states[id], state)
	}
	return states, nil
}

// readOperators parses the model-by-equation link-operator matrix into the
// per-model operator sequences that form structural signatures.
func (l *ScreeningLoader) readOperators() (map[core.ModelID][]string, error) {
	t, err := readTable(l.config.OperatorsFile)
	if err != nil {
		return nil, err
	}
	if len(t.headers) < 2 {
		return nil, fmt.Errorf("operator matrix needs a model column and at least one equation column")
	}

	operators := make(map[core.ModelID][]string, len(t.rows))
	for _, row := range t.rows {
		id, err := core.ParseModelID(row[0])
		if err != nil {
			return nil, err
		}
		if _, dup := operators[id]; dup {
			return nil, fmt.Errorf("%w: duplicate model %s in operator matrix", core.ErrModelMismatch, id)
		}

		ops := make([]string, 0, len(t.headers)-1)
		for i := 1; i < len(t.headers); i++ {
			ops = append(ops, cellAt(row, i))
		}
		operators[id] = ops
	}
	return operators, nil
}

// readSteadyState parses the two-column node/activity profile. NA entries
// are legitimate here: untested nodes stay missing and are excluded from
// fitness comparison downstream.
func (l *ScreeningLoader) readSteadyState() (model.SteadyState, error) {
	t, err := readTable(l.config.SteadyStateFile)
	if err != nil {
		return model.SteadyState{}, err
	}

	nodes := make(map[core.NodeName]model.Tristate, len(t.rows))
	for _, row := range t.rows {
		if len(row) < 2 || row[0] == "" {
			continue
		}
		name := core.NodeName(row[0])
		v, err := parseTristate(row[1])
		if err != nil {
			return model.SteadyState{}, fmt.Errorf("node %s: %w", name, err)
		}
		nodes[name] = v
	}
	if len(nodes) == 0 {
		return model.SteadyState{}, fmt.Errorf("steady-state profile is empty")
	}
	return model.NewSteadyState(core.CellLine(l.config.CellLine), nodes), nil
}

// readObserved parses the gold-standard synergy list. Observed combinations
// that were never tested in the prediction matrix are a data defect.
func (l *ScreeningLoader) readObserved(tested []core.CombinationID) (model.SynergySet, error) {
	t, err := readTable(l.config.ObservedFile)
	if err != nil {
		return nil, err
	}

	testedSet := make(map[core.CombinationID]struct{}, len(tested))
	for _, combo := range tested {
		testedSet[combo] = struct{}{}
	}

	ids := make([]core.CombinationID, 0, len(t.rows))
	for _, row := range t.rows {
		if len(row) == 0 || row[0] == "" {
			continue
		}
		combo := core.CombinationID(row[0])
		if _, ok := testedSet[combo]; !ok {
			return nil, fmt.Errorf("observed synergy %s was never tested in the prediction matrix", combo)
		}
		ids = append(ids, combo)
	}
	return model.NewSynergySet(ids...), nil
}

// checkAligned verifies two matrices mention exactly the same model set.
func checkAligned[A, B any](left map[core.ModelID]A, right map[core.ModelID]B, leftName, rightName string) error {
	for id := range left {
		if _, ok := right[id]; !ok {
			return core.NewModelMismatchError(id, leftName, rightName)
		}
	}
	for id := range right {
		if _, ok := left[id]; !ok {
			return core.NewModelMismatchError(id, rightName, leftName)
		}
	}
	return nil
}

func sortedModelIDs(predictions map[core.ModelID]model.Predictions) []core.ModelID {
	ids := make([]core.ModelID, 0, len(predictions))
	for id := range predictions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func parseTristate(cell string) (model.Tristate, error) {
	switch strings.ToUpper(cell) {
	case "0", "FALSE":
		return model.Inactive, nil
	case "1", "TRUE":
		return model.Active, nil
	case "NA", "NAN", "":
		return model.Missing, nil
	default:
		return model.Missing, fmt.Errorf("unrecognized activity value %q", cell)
	}
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
