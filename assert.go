package scpi

import (
	"math"
	"testing"
)

// assertFloat64SliceEqual checks if two slices of float64 are equal within tol.
func assertFloat64SliceEqual(t *testing.T, expected []float64, actual []float64, tol float64) {
	if len(expected) != len(actual) {
		t.Errorf("Expected length %d, but got %d", len(expected), len(actual))
		return
	}
	for i := range expected {
		if math.Abs(expected[i]-actual[i]) > tol {
			t.Errorf("Expected %v, but got %v", expected, actual)
			return
		}
	}
}

// assertStringEqual checks if two strings are equal.
func assertStringEqual(t *testing.T, expected string, actual string) {
	if expected != actual {
		t.Errorf("Expected %q, but got %q", expected, actual)
	}
}
