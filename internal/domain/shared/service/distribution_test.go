package service

import (
	"math"
	"testing"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sum(values []int64) int64 {
	var s int64
	for _, v := range values {
		s += v
	}
	return s
}

func TestDistributeExactly(t *testing.T) {
	tests := []struct {
		name    string
		total   int64
		weights []int64
		want    []int64
	}{
		{"line totals", 100, []int64{333, 333, 334}, []int64{33, 33, 34}},
		{"equal split with remainder", 10001, []int64{1, 1, 1}, []int64{3333, 3333, 3335}},
		{"even split", 10000, []int64{1, 1}, []int64{5000, 5000}},
		{"single part", 777, []int64{5}, []int64{777}},
		{"zero total", 0, []int64{1, 2, 3}, []int64{0, 0, 0}},
		{"zero weights", 500, []int64{0, 0}, []int64{0, 0}},
		{"zero weight first", 90, []int64{0, 1, 2}, []int64{0, 30, 60}},
		{"empty", 100, []int64{}, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DistributeExactly(tt.total, tt.weights)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDistributeExactly_SumAlwaysMatches(t *testing.T) {
	weightSets := [][]int64{
		{1},
		{1, 1, 1, 1, 1, 1, 1},
		{7, 13, 29, 1},
		{999999, 1, 1},
		{250, 250, 250, 250},
		{3, 5},
	}
	for _, weights := range weightSets {
		for total := int64(0); total <= 1000; total += 37 {
			parts, err := DistributeExactly(total, weights)
			require.NoError(t, err)
			assert.Equal(t, total, sum(parts), "weights=%v total=%d", weights, total)
			for _, p := range parts {
				assert.GreaterOrEqual(t, p, int64(0))
			}
		}
	}
}

func TestDistributeExactly_LargeValuesDoNotOverflow(t *testing.T) {
	total := int64(math.MaxInt64 / 2)
	parts, err := DistributeExactly(total, []int64{math.MaxInt64 / 4, math.MaxInt64 / 4})
	require.NoError(t, err)
	assert.Equal(t, total, sum(parts))
}

func TestDistributeExactly_RejectsNegativeInput(t *testing.T) {
	_, err := DistributeExactly(-1, []int64{1})
	assert.True(t, shared.IsValidation(err))

	_, err = DistributeExactly(10, []int64{1, -1})
	assert.True(t, shared.IsValidation(err))
}

func TestDistributeRounded(t *testing.T) {
	got, err := DistributeRounded(100, []int64{333, 333, 334})
	require.NoError(t, err)
	assert.Equal(t, []int64{33, 33, 33}, got)

	got, err = DistributeRounded(100, []int64{1, 1})
	require.NoError(t, err)
	assert.Equal(t, []int64{50, 50}, got)

	// 10 * 1/4 = 2.5 rounds up
	got, err = DistributeRounded(10, []int64{1, 3})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 8}, got)

	got, err = DistributeRounded(100, []int64{0, 0})
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 0}, got)
}

func TestEqualWeights(t *testing.T) {
	assert.Equal(t, []int64{1, 1, 1}, EqualWeights(3))
	assert.Empty(t, EqualWeights(0))
}
