package liquidation

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"remuneraciones/internal/domain/legal"
)

var (
	ErrInvalidInput      = errors.New("invalid liquidation input")
	ErrUnknownPeriod     = legal.ErrUnknownPeriod
	ErrNegativeNetSalary = errors.New("total deductions exceed gross income")
)

type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidInput
}

type UnknownPeriodError = legal.UnknownPeriodError

// NegativeNetSalaryError is never clamped away: it points at bad parameters or bad input.
type NegativeNetSalaryError struct {
	Gross      decimal.Decimal
	Deductions decimal.Decimal
}

func (e *NegativeNetSalaryError) Error() string {
	return fmt.Sprintf("total deductions %s exceed gross income %s", e.Deductions, e.Gross)
}

func (e *NegativeNetSalaryError) Unwrap() error {
	return ErrNegativeNetSalary
}

const (
	CodeInvalidInput      = "invalid_input"
	CodeUnknownPeriod     = "unknown_period"
	CodeNegativeNetSalary = "negative_net_salary"
	CodeEngineDefect      = "engine_defect"
)

// ErrorCode classifies err into the engine's error taxonomy. Anything outside the
// three known kinds is reported as an engine defect.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrUnknownPeriod):
		return CodeUnknownPeriod
	case errors.Is(err, ErrNegativeNetSalary):
		return CodeNegativeNetSalary
	default:
		return CodeEngineDefect
	}
}
