package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		p      float64
		want   float64
	}{
		{"empty", nil, 90, 0},
		{"single", []float64{4}, 90, 4},
		{"unsorted p90", []float64{10, 1, 3, 8, 2, 5, 4, 7, 6, 9}, 90, 9},
		{"median", []float64{3, 1, 2}, 50, 2},
		{"p100", []float64{3, 1, 2}, 100, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Percentile(tt.values, tt.p))
		})
	}
}

func TestPercentileDoesNotReorderInput(t *testing.T) {
	values := []float64{3, 1, 2}
	Percentile(values, 50)
	assert.Equal(t, []float64{3, 1, 2}, values)
}

func TestMeanAndMax(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, Max(nil))
	assert.InDelta(t, 7.0, Mean([]float64{8, 3, 10}), 1e-9)
	assert.Equal(t, 10.0, Max([]float64{8, 3, 10}))
}
