package liquidation

import "github.com/shopspring/decimal"

// AggregateDeductions adds the mandatory withholdings, the income tax and the
// voluntary deductions. Voluntary amounts are rounded to whole pesos.
func AggregateDeductions(contributions Contributions, incomeTax decimal.Decimal, adjustments DeductionAdjustments) (decimal.Decimal, error) {
	if err := adjustments.validate(); err != nil {
		return decimal.Zero, err
	}
	return sum(contributions.Total(), incomeTax, adjustments.total()), nil
}

func (d DeductionAdjustments) total() decimal.Decimal {
	return sum(
		roundPeso(d.LoanDeductions),
		roundPeso(d.AdvancePayments),
		roundPeso(d.APVAmount),
		roundPeso(d.OtherDeductions),
	)
}
