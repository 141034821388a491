package selection

import (
	"math/rand"
	"sort"

	"synergyfit/domain/core"
	"synergyfit/domain/model"
)

// DedupeBySignature reduces a population to structurally unique models:
// only the first model encountered for each boolean-equation signature is
// kept, in encounter order. Model IDs play no role here; two differently
// named models with the same link-operator encoding are duplicates.
func DedupeBySignature(models []*model.Model) []*model.Model {
	seen := make(map[core.SignatureHash]struct{}, len(models))
	unique := make([]*model.Model, 0, len(models))
	for _, m := range models {
		if _, dup := seen[m.Signature]; dup {
			continue
		}
		seen[m.Signature] = struct{}{}
		unique = append(unique, m)
	}
	return unique
}

// Sample draws exactly n model IDs uniformly without replacement. The draw
// is deterministic for a given seed, candidate set and n: candidates are
// sorted before permuting, so the result does not depend on input order or
// on any global random state. Requesting more than the candidate pool is an
// error naming both counts.
func Sample(ids []core.ModelID, n int, seed int64) ([]core.ModelID, error) {
	if n > len(ids) {
		return nil, core.NewSampleSizeError(n, len(ids))
	}

	sorted := append([]core.ModelID(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(len(sorted))

	out := make([]core.ModelID, n)
	for i := 0; i < n; i++ {
		out[i] = sorted[perm[i]]
	}
	return out, nil
}
