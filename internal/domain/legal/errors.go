package legal

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownPeriod   = errors.New("no legal parameters cover period")
	ErrInvalidSet      = errors.New("invalid legal parameter set")
	ErrOverlappingSets = errors.New("legal parameter sets overlap")
)

// UnknownPeriodError is returned when no parameter set covers the requested period.
type UnknownPeriodError struct {
	Period Period
}

func (e *UnknownPeriodError) Error() string {
	return fmt.Sprintf("no legal parameters cover period %s", e.Period)
}

func (e *UnknownPeriodError) Unwrap() error {
	return ErrUnknownPeriod
}

func invalid(version, format string, args ...any) error {
	return fmt.Errorf("%w %q: %s", ErrInvalidSet, version, fmt.Sprintf(format, args...))
}
