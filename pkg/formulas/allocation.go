package formulas

import "errors"

// ErrZeroAllocation is returned when allocation weights sum to zero or less
// and therefore cannot be normalized.
var ErrZeroAllocation = errors.New("allocation weights must sum to a positive value")

// Allocation tolerance bounds: a weight map is considered fully allocated
// when its sum falls within [0.99, 1.01].
const (
	AllocationSumMin = 0.99
	AllocationSumMax = 1.01
)

// AllocationSum returns the sum of all weights. An empty map sums to 0.
func AllocationSum(weights map[string]float64) float64 {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	return total
}

// NormalizeAllocation rescales weights proportionally so they sum to 1.0.
// The input map is never modified; a new map is returned.
// Returns ErrZeroAllocation when the weights sum to zero or a negative value.
func NormalizeAllocation(weights map[string]float64) (map[string]float64, error) {
	total := AllocationSum(weights)
	if total <= 0 {
		return nil, ErrZeroAllocation
	}

	normalized := make(map[string]float64, len(weights))
	for asset, w := range weights {
		normalized[asset] = w / total
	}
	return normalized, nil
}

// AllocationWithinTolerance reports whether a weight sum counts as fully
// allocated under the [0.99, 1.01] tolerance band.
func AllocationWithinTolerance(sum float64) bool {
	return sum >= AllocationSumMin && sum <= AllocationSumMax
}
