package legal

import (
	"fmt"
	"slices"
)

// Table holds every known parameter set ordered by effective period. It is never
// mutated after NewTable returns, so it can be shared between goroutines.
type Table struct {
	sets []ParameterSet
}

type Window struct {
	Version string  `json:"version"`
	From    Period  `json:"from"`
	To      *Period `json:"to,omitempty"`
}

func NewTable(sets ...ParameterSet) (*Table, error) {
	out := make([]ParameterSet, 0, len(sets))
	for _, set := range sets {
		if err := set.Validate(); err != nil {
			return nil, err
		}
		out = append(out, set.Clone())
	}
	slices.SortFunc(out, func(a, b ParameterSet) int {
		return a.EffectiveFrom.ordinal() - b.EffectiveFrom.ordinal()
	})
	for i := 1; i < len(out); i++ {
		prev, next := out[i-1], out[i]
		if prev.EffectiveTo == nil || !next.EffectiveFrom.After(*prev.EffectiveTo) {
			return nil, fmt.Errorf("%w: %q and %q", ErrOverlappingSets, prev.Version, next.Version)
		}
	}
	return &Table{sets: out}, nil
}

// Resolve returns a copy of the set covering period so callers cannot alter the table.
func (t *Table) Resolve(period Period) (ParameterSet, error) {
	if t != nil {
		for _, set := range t.sets {
			if set.Covers(period) {
				return set.Clone(), nil
			}
		}
	}
	return ParameterSet{}, &UnknownPeriodError{Period: period}
}

func (t *Table) Windows() []Window {
	if t == nil {
		return nil
	}
	out := make([]Window, 0, len(t.sets))
	for _, set := range t.sets {
		window := Window{Version: set.Version, From: set.EffectiveFrom}
		if set.EffectiveTo != nil {
			to := *set.EffectiveTo
			window.To = &to
		}
		out = append(out, window)
	}
	return out
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.sets)
}
