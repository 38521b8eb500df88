package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuantileBins_DistinctValues(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	got := QuantileBins(values, 5)
	assert.Equal(t, []int{1, 1, 2, 2, 3, 3, 4, 4, 5, 5}, got)
}

func TestQuantileBins_OrderIndependent(t *testing.T) {
	values := []float64{10, 1, 9, 2, 8, 3, 7, 4, 6, 5}
	got := QuantileBins(values, 5)
	assert.Equal(t, []int{5, 1, 5, 1, 4, 2, 4, 2, 3, 3}, got)
}

func TestQuantileBins_DuplicateEdgesCollapse(t *testing.T) {
	values := []float64{1, 1, 1, 1, 1, 1, 1, 1, 2, 3}
	got := QuantileBins(values, 5)
	assert.Equal(t, []int{1, 1, 1, 1, 1, 1, 1, 1, 2, 2}, got)
}

func TestQuantileBins_ConstantMetric(t *testing.T) {
	got := QuantileBins([]float64{7, 7, 7, 7, 7, 7}, 5)
	assert.Equal(t, []int{1, 1, 1, 1, 1, 1}, got)
}

func TestQuantileBins_SmallPopulation(t *testing.T) {
	got := QuantileBins([]float64{30, 10, 20}, 5)
	assert.Equal(t, []int{3, 1, 2}, got)

	assert.Equal(t, []int{1}, QuantileBins([]float64{42}, 5))
	assert.Empty(t, QuantileBins(nil, 5))
}

func TestQuantileBins_EqualPopulation(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i * i)
	}
	counts := map[int]int{}
	for _, b := range QuantileBins(values, 5) {
		counts[b]++
	}
	assert.Equal(t, map[int]int{1: 20, 2: 20, 3: 20, 4: 20, 5: 20}, counts)
}

func TestRankFirst_TiesByAppearance(t *testing.T) {
	assert.Equal(t, []float64{3, 1, 4, 2}, RankFirst([]float64{3, 1, 3, 2}))
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, RankFirst([]float64{1, 1, 1, 1, 1}))
}
