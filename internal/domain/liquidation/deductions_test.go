package liquidation

import (
	"errors"
	"testing"
)

func TestAggregateDeductions(t *testing.T) {
	contributions := Contributions{AFPAmount: d("100000"), AFPCommissionAmount: d("12700"), HealthAmount: d("70000"), UnemploymentAmount: d("6000")}
	adjustments := DeductionAdjustments{
		LoanDeductions:  d("50000"),
		AdvancePayments: d("100000"),
		APVAmount:       d("20000.4"),
		OtherDeductions: d("5000"),
	}
	total, err := AggregateDeductions(contributions, d("12345"), adjustments)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertAmount(t, "total", total, "376045")
}

func TestAggregateDeductionsRejectsNegative(t *testing.T) {
	_, err := AggregateDeductions(Contributions{}, d("0"), DeductionAdjustments{APVAmount: d("-1")})
	var invalid *InvalidInputError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidInputError, got %v", err)
	}
	if invalid.Field != "deductionAdjustments.apvAmount" {
		t.Fatalf("unexpected field %s", invalid.Field)
	}
}
