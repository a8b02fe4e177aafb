package liquidation

import (
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Book is the libro de remuneraciones for a batch of requests. Entries keep the
// order of the requests that produced them.
type Book struct {
	Entries []BookEntry `json:"entries"`
	Summary BookSummary `json:"summary"`
}

type BookEntry struct {
	Index  int         `json:"index"`
	RUT    string      `json:"rut"`
	Result *Result     `json:"result,omitempty"`
	Error  *EntryError `json:"error,omitempty"`
}

type EntryError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type BookSummary struct {
	EmployeeCount   int             `json:"employeeCount"`
	FailedCount     int             `json:"failedCount"`
	TotalGross      decimal.Decimal `json:"totalGross"`
	TotalDeductions decimal.Decimal `json:"totalDeductions"`
	TotalNet        decimal.Decimal `json:"totalNet"`
	Warnings        map[string]int  `json:"warnings"`
}

// CalculateBook runs Calculate for every request on at most workers goroutines.
// A failed entry is recorded and does not stop the rest of the book.
func (e *Engine) CalculateBook(requests []Request, workers int) Book {
	if workers <= 0 {
		workers = 1
	}
	entries := make([]BookEntry, len(requests))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, req := range requests {
		g.Go(func() error {
			entries[i] = e.entry(i, req)
			return nil
		})
	}
	_ = g.Wait()

	return Book{Entries: entries, Summary: summarize(entries)}
}

func (e *Engine) entry(index int, req Request) BookEntry {
	entry := BookEntry{Index: index, RUT: req.Employee.RUT}
	result, err := e.Calculate(req)
	if err != nil {
		entry.Error = &EntryError{Code: ErrorCode(err), Message: err.Error()}
		return entry
	}
	entry.RUT = result.RUT
	entry.Result = &result
	return entry
}

func summarize(entries []BookEntry) BookSummary {
	summary := BookSummary{
		EmployeeCount:   len(entries),
		TotalGross:      decimal.Zero,
		TotalDeductions: decimal.Zero,
		TotalNet:        decimal.Zero,
		Warnings:        map[string]int{},
	}
	for _, entry := range entries {
		if entry.Error != nil {
			summary.FailedCount++
			continue
		}
		r := entry.Result
		summary.TotalGross = summary.TotalGross.Add(r.TotalGrossIncome)
		summary.TotalDeductions = summary.TotalDeductions.Add(r.TotalDeductions)
		summary.TotalNet = summary.TotalNet.Add(r.NetSalary)
		for _, w := range r.Warnings {
			summary.Warnings[w.Code]++
		}
	}
	return summary
}
