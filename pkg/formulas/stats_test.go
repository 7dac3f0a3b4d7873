package formulas

import (
	"math"
	"testing"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name      string
		data      []float64
		p         float64
		expected  float64
		tolerance float64
	}{
		{
			name:      "empty data",
			data:      []float64{},
			p:         50,
			expected:  0,
			tolerance: 0,
		},
		{
			name:      "single value",
			data:      []float64{42},
			p:         5,
			expected:  42,
			tolerance: 0,
		},
		{
			name:      "median of odd count",
			data:      []float64{3, 1, 2},
			p:         50,
			expected:  2,
			tolerance: 1e-9,
		},
		{
			name:      "median of even count interpolates",
			data:      []float64{1, 2, 3, 4},
			p:         50,
			expected:  2.5,
			tolerance: 1e-9,
		},
		{
			name:      "5th percentile of 1..100",
			data:      sequence(1, 100),
			p:         5,
			expected:  5.95, // rank 4.95 between 5 and 6
			tolerance: 1e-9,
		},
		{
			name:      "0th percentile is minimum",
			data:      []float64{9, 4, 7},
			p:         0,
			expected:  4,
			tolerance: 0,
		},
		{
			name:      "100th percentile is maximum",
			data:      []float64{9, 4, 7},
			p:         100,
			expected:  9,
			tolerance: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Percentile(tt.data, tt.p)
			if math.Abs(result-tt.expected) > tt.tolerance {
				t.Errorf("Percentile(%v) = %v, want %v", tt.p, result, tt.expected)
			}
		})
	}
}

func TestPercentileDoesNotReorderInput(t *testing.T) {
	data := []float64{5, 1, 3}
	Percentile(data, 50)
	if data[0] != 5 || data[1] != 1 || data[2] != 3 {
		t.Errorf("Percentile() reordered its input: %v", data)
	}
}

func TestMedian(t *testing.T) {
	if got := Median([]float64{1, 100, 2}); got != 2 {
		t.Errorf("Median() = %v, want 2", got)
	}
	if got := Median([]float64{10, 20}); got != 15 {
		t.Errorf("Median() = %v, want 15", got)
	}
}

func TestMeanAndStdDev(t *testing.T) {
	data := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	if got := Mean(data); math.Abs(got-5.0) > 1e-9 {
		t.Errorf("Mean() = %v, want 5.0", got)
	}

	// Sample standard deviation (n-1): sqrt(32/7)
	expected := math.Sqrt(32.0 / 7.0)
	if got := StdDev(data); math.Abs(got-expected) > 1e-9 {
		t.Errorf("StdDev() = %v, want %v", got, expected)
	}

	if got := Mean(nil); got != 0 {
		t.Errorf("Mean(nil) = %v, want 0", got)
	}
	if got := StdDev(nil); got != 0 {
		t.Errorf("StdDev(nil) = %v, want 0", got)
	}
}

func TestPopStdDev(t *testing.T) {
	data := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	// Population standard deviation (n): sqrt(32/8) = 2
	if got := PopStdDev(data); math.Abs(got-2.0) > 1e-9 {
		t.Errorf("PopStdDev() = %v, want 2.0", got)
	}
	if got := PopVariance(data); math.Abs(got-4.0) > 1e-9 {
		t.Errorf("PopVariance() = %v, want 4.0", got)
	}
	if got := PopStdDev(nil); got != 0 {
		t.Errorf("PopStdDev(nil) = %v, want 0", got)
	}
}

func TestCalculateReturns(t *testing.T) {
	prices := []float64{100, 110, 99}
	returns := CalculateReturns(prices)

	if len(returns) != 2 {
		t.Fatalf("CalculateReturns() returned %d values, want 2", len(returns))
	}
	if math.Abs(returns[0]-0.10) > 1e-9 {
		t.Errorf("returns[0] = %v, want 0.10", returns[0])
	}
	if math.Abs(returns[1]-(-0.10)) > 1e-9 {
		t.Errorf("returns[1] = %v, want -0.10", returns[1])
	}

	if got := CalculateReturns([]float64{100}); len(got) != 0 {
		t.Errorf("CalculateReturns() with one price = %v, want empty", got)
	}
}

func TestContainsNaN(t *testing.T) {
	if ContainsNaN([]float64{1, 2, 3}) {
		t.Error("ContainsNaN() = true for clean data")
	}
	if !ContainsNaN([]float64{1, math.NaN(), 3}) {
		t.Error("ContainsNaN() = false for data with NaN")
	}
}

// sequence returns [from..to] as float64 values.
func sequence(from, to int) []float64 {
	out := make([]float64, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, float64(i))
	}
	return out
}
