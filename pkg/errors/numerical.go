package errors

import (
	"fmt"
	"math"

	"github.com/cockroachdb/errors"
)

// CheckScalar reports a ValueError when a summary statistic is NaN or Inf.
func CheckScalar(operation string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return errors.WithStack(&ValueError{Op: operation, Message: fmt.Sprintf("non-finite value %v", value)})
	}
	return nil
}

// SafeDivide performs division with protection against division by zero.
// Returns 0 if denominator is zero or close to zero.
func SafeDivide(numerator, denominator float64) float64 {
	if math.Abs(denominator) < 1e-10 {
		return 0
	}
	return numerator / denominator
}
