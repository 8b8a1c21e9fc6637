// Package finance is the pure calculation core: amortization schedules,
// the third-party loan interest ledger, the debt payoff simulator, health
// scoring and report grouping.
//
// Nothing in this package performs I/O, logs, or keeps state between calls.
// Every function either returns a complete result or one of the two error
// kinds below.
package finance

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidArgument is wrapped by every input validation failure.
var ErrInvalidArgument = errors.New("invalid argument")

// InsufficientPaymentError reports a proposed monthly payment that does not
// cover the first month of interest.
type InsufficientPaymentError struct {
	Payment        float64
	Interest       float64
	MinimumPayment float64
}

func (e *InsufficientPaymentError) Error() string {
	return fmt.Sprintf("monthly payment %.2f does not cover first month interest %.2f (minimum %.0f)",
		e.Payment, e.Interest, e.MinimumPayment)
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func requirePositive(name string, v float64) error {
	if !finite(v) {
		return invalidf("%s must be a finite number", name)
	}
	if v <= 0 {
		return invalidf("%s must be greater than zero", name)
	}
	return nil
}

func requireNonNegative(name string, v float64) error {
	if !finite(v) {
		return invalidf("%s must be a finite number", name)
	}
	if v < 0 {
		return invalidf("%s cannot be negative", name)
	}
	return nil
}
