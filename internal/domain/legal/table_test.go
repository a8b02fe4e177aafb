package legal

import (
	"errors"
	"testing"
)

func TestResolvePicksCoveringSet(t *testing.T) {
	aprTo := Period{Year: 2025, Month: 4}
	table, err := NewTable(
		testSet("2025-05", Period{Year: 2025, Month: 5}, &Period{Year: 2025, Month: 12}),
		testSet("2025-01", Period{Year: 2025, Month: 1}, &aprTo),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := map[Period]string{
		{Year: 2025, Month: 1}:  "2025-01",
		{Year: 2025, Month: 4}:  "2025-01",
		{Year: 2025, Month: 5}:  "2025-05",
		{Year: 2025, Month: 12}: "2025-05",
	}
	for period, want := range cases {
		set, err := table.Resolve(period)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", period, err)
		}
		if set.Version != want {
			t.Fatalf("%s: expected %s, got %s", period, want, set.Version)
		}
	}

	windows := table.Windows()
	if len(windows) != 2 || windows[0].Version != "2025-01" {
		t.Fatalf("expected windows sorted by start, got %+v", windows)
	}
}

func TestResolveUnknownPeriod(t *testing.T) {
	dec := Period{Year: 2025, Month: 12}
	table, err := NewTable(testSet("2025", Period{Year: 2025, Month: 1}, &dec))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = table.Resolve(Period{Year: 2026, Month: 1})
	if !errors.Is(err, ErrUnknownPeriod) {
		t.Fatalf("expected ErrUnknownPeriod, got %v", err)
	}
	var unknown *UnknownPeriodError
	if !errors.As(err, &unknown) || unknown.Period.Year != 2026 {
		t.Fatalf("expected UnknownPeriodError for 2026-01, got %v", err)
	}

	var empty *Table
	if _, err := empty.Resolve(dec); !errors.Is(err, ErrUnknownPeriod) {
		t.Fatalf("expected nil table to report unknown period, got %v", err)
	}
}

func TestNewTableRejectsOverlap(t *testing.T) {
	_, err := NewTable(
		testSet("open", Period{Year: 2025, Month: 1}, nil),
		testSet("later", Period{Year: 2025, Month: 6}, nil),
	)
	if !errors.Is(err, ErrOverlappingSets) {
		t.Fatalf("expected ErrOverlappingSets, got %v", err)
	}
}

func TestResolveReturnsIndependentCopies(t *testing.T) {
	table, err := NewTable(testSet("v1", Period{Year: 2025, Month: 1}, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	period := Period{Year: 2025, Month: 2}
	first, _ := table.Resolve(period)
	first.AFPRates["HABITAT"] = AFPRate{}
	first.IncomeTaxBrackets[0].MarginalRate = d("0.5")

	second, _ := table.Resolve(period)
	if second.AFPRates["HABITAT"].PensionRate.IsZero() {
		t.Fatal("table afp rates were mutated through a resolved copy")
	}
	if !second.IncomeTaxBrackets[0].MarginalRate.IsZero() {
		t.Fatal("table brackets were mutated through a resolved copy")
	}
}
