package forwardchain

import "math/rand"

// tournamentSize is the number of candidates sampled per tournament
// round (spec.md §9, "Weighted tournament"). No dependency in the
// retrieval pack offers weighted sampling, so this one corner of the
// chainer falls back to the standard library's math/rand (see
// DESIGN.md).
const tournamentSize = 3

// tournamentSelect samples up to k candidates (with replacement) from
// weights and returns the highest-weighted of the sample. A single
// candidate is returned immediately without sampling. If every weight is
// zero the sample degenerates to a uniform pick, since every sampled
// candidate then ties at weight zero and the first one sampled wins.
func tournamentSelect[T comparable](rng *rand.Rand, weights map[T]float64, k int) T {
	keys := make([]T, 0, len(weights))
	for key := range weights {
		keys = append(keys, key)
	}
	if len(keys) == 1 {
		return keys[0]
	}

	best := keys[rng.Intn(len(keys))]
	bestWeight := weights[best]
	for i := 1; i < k; i++ {
		cand := keys[rng.Intn(len(keys))]
		if w := weights[cand]; w > bestWeight {
			best, bestWeight = cand, w
		}
	}
	return best
}
