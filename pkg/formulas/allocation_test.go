package formulas

import (
	"errors"
	"math"
	"testing"
)

func TestAllocationSum(t *testing.T) {
	tests := []struct {
		name     string
		weights  map[string]float64
		expected float64
	}{
		{
			name:     "empty map",
			weights:  map[string]float64{},
			expected: 0,
		},
		{
			name:     "standard portfolio",
			weights:  map[string]float64{"stocks": 0.6, "bonds": 0.3, "cash": 0.1},
			expected: 1.0,
		},
		{
			name:     "partial allocation",
			weights:  map[string]float64{"stocks": 0.25, "bonds": 0.25},
			expected: 0.5,
		},
		{
			name:     "negative weight included",
			weights:  map[string]float64{"stocks": 0.8, "bonds": -0.3},
			expected: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AllocationSum(tt.weights)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("AllocationSum() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestNormalizeAllocation(t *testing.T) {
	weights := map[string]float64{"stocks": 0.5, "bonds": 0.3}

	normalized, err := NormalizeAllocation(weights)
	if err != nil {
		t.Fatalf("NormalizeAllocation() unexpected error: %v", err)
	}

	if math.Abs(AllocationSum(normalized)-1.0) > 1e-9 {
		t.Errorf("normalized weights sum to %v, want 1.0", AllocationSum(normalized))
	}
	if math.Abs(normalized["stocks"]-0.625) > 1e-9 {
		t.Errorf("stocks weight = %v, want 0.625", normalized["stocks"])
	}
	if math.Abs(normalized["bonds"]-0.375) > 1e-9 {
		t.Errorf("bonds weight = %v, want 0.375", normalized["bonds"])
	}

	// Input must not be modified
	if weights["stocks"] != 0.5 || weights["bonds"] != 0.3 {
		t.Errorf("NormalizeAllocation() modified its input: %v", weights)
	}
}

func TestNormalizeAllocationZeroSum(t *testing.T) {
	cases := []map[string]float64{
		{},
		{"stocks": 0, "bonds": 0},
		{"stocks": 0.5, "bonds": -0.5},
		{"stocks": -1.0},
	}

	for _, weights := range cases {
		_, err := NormalizeAllocation(weights)
		if !errors.Is(err, ErrZeroAllocation) {
			t.Errorf("NormalizeAllocation(%v) error = %v, want ErrZeroAllocation", weights, err)
		}
	}
}

func TestAllocationWithinTolerance(t *testing.T) {
	tests := []struct {
		sum      float64
		expected bool
	}{
		{1.0, true},
		{0.99, true},
		{1.01, true},
		{1.005, true},
		{0.989, false},
		{1.011, false},
		{0.5, false},
		{1.5, false},
		{0, false},
	}

	for _, tt := range tests {
		if got := AllocationWithinTolerance(tt.sum); got != tt.expected {
			t.Errorf("AllocationWithinTolerance(%v) = %v, want %v", tt.sum, got, tt.expected)
		}
	}
}
