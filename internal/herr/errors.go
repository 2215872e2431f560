// Package herr defines the error taxonomy shared across the dispatch
// optimizer: ConfigError, ShapeError, UsageError, Cancelled and
// ArithmeticError. Components return plain wrapped errors internally;
// these types let callers classify failures with errors.As instead of
// string matching.
package herr

import "fmt"

// ConfigError reports an invalid topology or constraint definition:
// non-monotone levels, negative head, N<2, V<=0, upper<lower bounds.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return "config error: " + e.Msg }

// NewConfigError constructs a ConfigError with a formatted message.
func NewConfigError(format string, args ...any) error {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// ShapeError reports an Underlyings/inflow dimension mismatch against
// the plant topology.
type ShapeError struct {
	Msg string
}

func (e *ShapeError) Error() string { return "shape error: " + e.Msg }

// NewShapeError constructs a ShapeError with a formatted message.
func NewShapeError(format string, args ...any) error {
	return &ShapeError{Msg: fmt.Sprintf(format, args...)}
}

// UsageError reports misuse of the Scenario state machine: reading
// results before Run, or other precondition violations.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string { return "usage error: " + e.Msg }

// NewUsageError constructs a UsageError with a formatted message.
func NewUsageError(format string, args ...any) error {
	return &UsageError{Msg: fmt.Sprintf(format, args...)}
}

// Cancelled reports a cooperative cancellation observed between time
// steps of backward induction.
type Cancelled struct {
	Msg string
}

func (e *Cancelled) Error() string { return "cancelled: " + e.Msg }

// NewCancelled constructs a Cancelled error with a formatted message.
func NewCancelled(format string, args ...any) error {
	return &Cancelled{Msg: fmt.Sprintf(format, args...)}
}

// ArithmeticError reports a non-finite price, inflow, or intermediate
// value detected during validation or induction.
type ArithmeticError struct {
	Msg string
}

func (e *ArithmeticError) Error() string { return "arithmetic error: " + e.Msg }

// NewArithmeticError constructs an ArithmeticError with a formatted message.
func NewArithmeticError(format string, args ...any) error {
	return &ArithmeticError{Msg: fmt.Sprintf(format, args...)}
}
