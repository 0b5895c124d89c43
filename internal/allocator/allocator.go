// Package allocator implements deterministic traffic allocation of users
// into experiment variants.
//
// Allocation is a pure function of (experiment ID, user ID, variant weights):
// the same pair always lands in the same variant, across processes and
// restarts, so concurrent first-requests converge on one answer before any
// row is written. The storage layer's uniqueness constraint remains the
// final arbiter, but determinism makes the race a non-event in practice.
package allocator

import (
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/ignite/experiment-engine/internal/domain"
)

// SplitTolerance is the allowed deviation from 100 when validating that an
// experiment's variant percentages cover all traffic.
const SplitTolerance = 0.01

var (
	// ErrNoVariants is returned when allocation is attempted against an
	// experiment with no variants.
	ErrNoVariants = errors.New("experiment has no variants")

	// ErrNoTraffic is returned when the variants carry zero total weight.
	ErrNoTraffic = errors.New("experiment has no allocated traffic")
)

// Bucket maps a (experiment, user) pair to a stable point in [0, 100).
// xxhash is stable across processes and uniformly distributed over its
// 64-bit range; the top 53 bits keep the float64 quotient exact and
// strictly below 1.
func Bucket(experimentID, userID string) float64 {
	h := xxhash.Sum64String(experimentID + ":" + userID)
	return float64(h>>11) / (1 << 53) * 100
}

// ValidateSplit checks that the variants' traffic percentages are each in
// [0, 100] and sum to 100 within SplitTolerance.
func ValidateSplit(variants []domain.Variant) error {
	if len(variants) == 0 {
		return ErrNoVariants
	}
	var total float64
	for _, v := range variants {
		if v.TrafficPercent < 0 || v.TrafficPercent > 100 {
			return fmt.Errorf("variant %q traffic allocation %.4f out of range [0, 100]", v.Name, v.TrafficPercent)
		}
		total += v.TrafficPercent
	}
	if diff := total - 100; diff > SplitTolerance || diff < -SplitTolerance {
		return fmt.Errorf("variant traffic allocation must sum to 100, got %.4f", total)
	}
	return nil
}

// Allocate selects a variant for the user by walking the variants'
// cumulative percentage ranges in declared order and picking the first
// whose upper bound exceeds the user's bucket. Ranges are closed-open;
// the last variant is closed at 100, so boundary rounding always resolves
// to it rather than to no variant.
//
// Weights are normalized before the walk, so sums slightly off 100 (within
// the creation-time tolerance) do not skew the split. No I/O, no side
// effects.
func Allocate(experimentID, userID string, variants []domain.Variant) (string, error) {
	if len(variants) == 0 {
		return "", ErrNoVariants
	}

	var total float64
	for _, v := range variants {
		total += v.TrafficPercent
	}
	if total <= 0 {
		return "", ErrNoTraffic
	}

	bucket := Bucket(experimentID, userID)
	var cum float64
	for _, v := range variants {
		cum += v.TrafficPercent / total * 100
		if bucket < cum {
			return v.ID, nil
		}
	}
	// Floating rounding can leave cum fractionally below 100.
	return variants[len(variants)-1].ID, nil
}
