package model

import (
	"fmt"
	"sort"

	"synergyfit/domain/core"
)

// Tristate is a node activity or synergy prediction: active, inactive, or
// missing. Missing values come from the upstream simulator (untested
// combinations, undefined steady-state nodes) and are never invented here.
type Tristate int8

const (
	Inactive Tristate = 0
	Active   Tristate = 1
	Missing  Tristate = -1
)

// IsDefined reports whether the value carries information.
func (t Tristate) IsDefined() bool {
	return t == Inactive || t == Active
}

func (t Tristate) String() string {
	switch t {
	case Inactive:
		return "0"
	case Active:
		return "1"
	default:
		return "NA"
	}
}

// StableState is the node-activity fixpoint a boolean model settles into.
// It is a full vector: every node the model knows about has a defined value.
type StableState map[core.NodeName]Tristate

// NewStableState validates that every node carries a defined activity.
func NewStableState(nodes map[core.NodeName]Tristate) (StableState, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: stable state has no nodes", core.ErrEmptyInput)
	}
	for name, v := range nodes {
		if !v.IsDefined() {
			return nil, fmt.Errorf("stable state node %s is undefined; stable states must be full vectors", name)
		}
	}
	return StableState(nodes), nil
}

// SteadyState is the experimentally observed activity profile for a cell
// line. Entries may be missing; missing nodes are excluded from fitness
// comparison. Immutable after construction.
type SteadyState struct {
	CellLine core.CellLine
	nodes    map[core.NodeName]Tristate
}

// NewSteadyState copies the node map so callers cannot mutate it afterwards.
func NewSteadyState(cellLine core.CellLine, nodes map[core.NodeName]Tristate) SteadyState {
	copied := make(map[core.NodeName]Tristate, len(nodes))
	for name, v := range nodes {
		copied[name] = v
	}
	return SteadyState{CellLine: cellLine, nodes: copied}
}

// Value returns the observed activity for a node and whether the steady
// state mentions that node at all.
func (s SteadyState) Value(name core.NodeName) (Tristate, bool) {
	v, ok := s.nodes[name]
	return v, ok
}

// Nodes returns the node names in sorted order for deterministic iteration.
func (s SteadyState) Nodes() []core.NodeName {
	names := make([]core.NodeName, 0, len(s.nodes))
	for name := range s.nodes {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// DefinedCount returns the number of nodes with a defined observed value.
func (s SteadyState) DefinedCount() int {
	n := 0
	for _, v := range s.nodes {
		if v.IsDefined() {
			n++
		}
	}
	return n
}

// Predictions maps tested drug combinations to a model's synergy calls.
type Predictions map[core.CombinationID]Tristate

// Combinations returns the tested combination IDs in sorted order.
func (p Predictions) Combinations() []core.CombinationID {
	ids := make([]core.CombinationID, 0, len(p))
	for id := range p {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SynergySet is the gold standard: combinations experimentally confirmed
// synergistic for a cell line.
type SynergySet map[core.CombinationID]struct{}

// NewSynergySet builds a set from observed combination IDs.
func NewSynergySet(ids ...core.CombinationID) SynergySet {
	set := make(SynergySet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Contains reports gold-standard membership.
func (s SynergySet) Contains(id core.CombinationID) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of observed synergies.
func (s SynergySet) Len() int { return len(s) }

// IDs returns the observed combinations in sorted order.
func (s SynergySet) IDs() []core.CombinationID {
	ids := make([]core.CombinationID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Model is one boolean model from an upstream population: an identifier,
// the structural signature of its equations, its stable states, and its
// synergy predictions over the tested combinations.
type Model struct {
	ID           core.ModelID
	Signature    core.SignatureHash
	stableStates []StableState
	Predictions  Predictions
}

// NewModel validates the exactly-one-fixpoint invariant. Models with zero
// or multiple stable states should have been filtered upstream; seeing one
// here means the aligned inputs disagree, so fail loudly instead of
// coercing.
func NewModel(id core.ModelID, operators []string, stableStates []StableState, predictions Predictions) (*Model, error) {
	if len(stableStates) != 1 {
		return nil, fmt.Errorf("%w: model %s has %d stable states",
			core.ErrMultipleFixpoints, id, len(stableStates))
	}
	return &Model{
		ID:           id,
		Signature:    core.NewSignatureHash(operators),
		stableStates: stableStates,
		Predictions:  predictions,
	}, nil
}

// StableState returns the model's unique fixpoint.
func (m *Model) StableState() StableState {
	return m.stableStates[0]
}
