package legal

import (
	"fmt"
	"time"
)

const minYear = 1990

type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func NewPeriod(year, month int) (Period, error) {
	if year < minYear {
		return Period{}, fmt.Errorf("year must be %d or later, got %d", minYear, year)
	}
	if month < 1 || month > 12 {
		return Period{}, fmt.Errorf("month must be between 1 and 12, got %d", month)
	}
	return Period{Year: year, Month: month}, nil
}

// ParsePeriod accepts the YYYY-MM form used by the parameter tables and the API.
func ParsePeriod(raw string) (Period, error) {
	parsed, err := time.Parse("2006-01", raw)
	if err != nil {
		return Period{}, fmt.Errorf("period %q must use YYYY-MM format", raw)
	}
	return NewPeriod(parsed.Year(), int(parsed.Month()))
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

func (p Period) Before(other Period) bool {
	return p.ordinal() < other.ordinal()
}

func (p Period) After(other Period) bool {
	return p.ordinal() > other.ordinal()
}

func (p Period) DaysInMonth() int {
	return time.Date(p.Year, time.Month(p.Month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (p Period) ordinal() int {
	return p.Year*12 + p.Month - 1
}
