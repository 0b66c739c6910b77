package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeanStdDev(t *testing.T) {
	// Sample std of 2,4,4,4,5,5,7,9 is sqrt(32/7)
	mean, std := MeanStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 5.0, mean, 1e-12)
	assert.InDelta(t, math.Sqrt(32.0/7.0), std, 1e-12)

	mean, std = MeanStdDev([]float64{3})
	assert.Equal(t, 3.0, mean)
	assert.Equal(t, 0.0, std)
}

func TestPercentile(t *testing.T) {
	tenths := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}

	tests := []struct {
		name     string
		data     []float64
		p        float64
		expected float64
	}{
		{"90th of 10..100", tenths, 0.9, 91.0},
		{"median of 10..100", tenths, 0.5, 55.0},
		{"min", tenths, 0, 10},
		{"max", tenths, 1, 100},
		{"unsorted input", []float64{100, 10, 50, 30, 90, 20, 80, 40, 70, 60}, 0.9, 91.0},
		{"single value", []float64{7}, 0.9, 7},
		{"empty", nil, 0.9, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Percentile(tt.data, tt.p), 1e-9)
		})
	}
}

func TestPercentile_DoesNotMutateInput(t *testing.T) {
	data := []float64{3, 1, 2}
	_ = Percentile(data, 0.5)
	assert.Equal(t, []float64{3, 1, 2}, data)
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in       float64
		expected float64
	}{
		{1.234, 1.23},
		{1.235, 1.24},
		{-1.235, -1.24},
		{19.999, 20.0},
		{0, 0},
		{123456789.123456, 123456789.12},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Round2(tt.in))
	}

	assert.True(t, math.IsNaN(Round2(math.NaN())))
	assert.True(t, math.IsInf(Round2(math.Inf(1)), 1))
}
