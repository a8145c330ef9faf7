package errors

import (
	"math"
)

// IsFinite reports whether v is neither NaN nor ±Inf.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// CheckNumericalStability checks if values contain NaN or Inf
// and returns an error naming the first offending index.
func CheckNumericalStability(operation string, values []float64) error {
	for i, v := range values {
		if !IsFinite(v) {
			return NewNumericalInstabilityError(operation, values, i)
		}
	}
	return nil
}

// CheckScalar checks a single scalar value for numerical instability.
func CheckScalar(operation string, value float64, index int) error {
	if !IsFinite(value) {
		return NewNumericalInstabilityError(operation, []float64{value}, index)
	}
	return nil
}

// CheckRows checks all values of a row-major table for NaN or Inf.
// The reported index is the row of the first offending value.
func CheckRows(operation string, rows [][]float64) error {
	for i, row := range rows {
		for _, v := range row {
			if !IsFinite(v) {
				return NewNumericalInstabilityError(operation, row, i)
			}
		}
	}
	return nil
}
