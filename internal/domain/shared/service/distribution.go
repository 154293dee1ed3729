package service

import (
	"math/bits"

	"github.com/erp/backoffice/internal/domain/shared"
)

// DistributeExactly splits total across weights in proportion to each weight.
// Every part but the last is floor(total * w_i / sum(w)); the last part
// receives whatever is left so the parts always sum to total.
//
// An empty weight list yields an empty result. When the weights sum to zero
// nothing is distributed and every part is zero.
func DistributeExactly(total int64, weights []int64) ([]int64, error) {
	sum, err := validateDistribution(total, weights)
	if err != nil || len(weights) == 0 {
		return []int64{}, err
	}

	parts := make([]int64, len(weights))
	if sum == 0 {
		return parts, nil
	}

	var assigned int64
	last := len(weights) - 1
	for i := 0; i < last; i++ {
		q, _ := mulDiv(total, weights[i], sum)
		parts[i] = q
		assigned += q
	}
	parts[last] = total - assigned
	return parts, nil
}

// DistributeRounded splits total across weights in proportion to each weight,
// rounding every part half-up to the nearest unit independently. The parts may
// not sum to total; use DistributeExactly where the sum must hold.
func DistributeRounded(total int64, weights []int64) ([]int64, error) {
	sum, err := validateDistribution(total, weights)
	if err != nil || len(weights) == 0 {
		return []int64{}, err
	}

	parts := make([]int64, len(weights))
	if sum == 0 {
		return parts, nil
	}

	for i, w := range weights {
		q, r := mulDiv(total, w, sum)
		if r >= sum-r {
			q++
		}
		parts[i] = q
	}
	return parts, nil
}

// EqualWeights returns n weights of 1
func EqualWeights(n int) []int64 {
	if n <= 0 {
		return []int64{}
	}
	weights := make([]int64, n)
	for i := range weights {
		weights[i] = 1
	}
	return weights
}

func validateDistribution(total int64, weights []int64) (int64, error) {
	if total < 0 {
		return 0, shared.NewValidationError("INVALID_TOTAL", "Amount to distribute cannot be negative")
	}
	var sum int64
	for _, w := range weights {
		if w < 0 {
			return 0, shared.NewValidationError("INVALID_WEIGHT", "Distribution weights cannot be negative")
		}
		next, carry := bits.Add64(uint64(sum), uint64(w), 0)
		if carry != 0 || next > uint64(1<<63-1) {
			return 0, shared.NewValidationError("INVALID_WEIGHT", "Distribution weights overflow")
		}
		sum = int64(next)
	}
	return sum, nil
}

// mulDiv returns the quotient and remainder of a*b/c using a 128-bit
// intermediate product. It requires 0 <= a, 0 <= b <= c and c > 0, which
// keeps the quotient within a.
func mulDiv(a, b, c int64) (int64, int64) {
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	q, r := bits.Div64(hi, lo, uint64(c))
	return int64(q), int64(r)
}
