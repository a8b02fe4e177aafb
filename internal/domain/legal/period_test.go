package legal

import "testing"

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("2025-03")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Year != 2025 || p.Month != 3 {
		t.Fatalf("expected 2025-03, got %v", p)
	}
	if p.String() != "2025-03" {
		t.Fatalf("expected string 2025-03, got %s", p)
	}
}

func TestParsePeriodInvalid(t *testing.T) {
	for _, raw := range []string{"", "2025", "2025-13", "03-2025", "1985-01"} {
		if _, err := ParsePeriod(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestPeriodDaysInMonth(t *testing.T) {
	cases := map[Period]int{
		{Year: 2024, Month: 2}:  29,
		{Year: 2025, Month: 2}:  28,
		{Year: 2025, Month: 4}:  30,
		{Year: 2025, Month: 12}: 31,
	}
	for period, want := range cases {
		if got := period.DaysInMonth(); got != want {
			t.Fatalf("%s: expected %d days, got %d", period, want, got)
		}
	}
}

func TestPeriodOrdering(t *testing.T) {
	dec := Period{Year: 2024, Month: 12}
	jan := Period{Year: 2025, Month: 1}
	if !dec.Before(jan) || !jan.After(dec) {
		t.Fatal("expected 2024-12 before 2025-01")
	}
	if jan.Before(jan) || jan.After(jan) {
		t.Fatal("a period is neither before nor after itself")
	}
}
