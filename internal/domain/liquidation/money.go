package liquidation

import "github.com/shopspring/decimal"

var (
	daysPerMonth = decimal.NewFromInt(DaysPerMonth)

	// Art. 50: 25% of the month's remuneration, capped at 4.75 minimum wages a year.
	gratificationShare         = decimal.RequireFromString("0.25")
	gratificationMinWageFactor = decimal.RequireFromString("4.75")
	monthsPerYear              = decimal.NewFromInt(12)
)

// roundPeso rounds half to even to a whole peso. Each line item goes through it once.
func roundPeso(amount decimal.Decimal) decimal.Decimal {
	return amount.RoundBank(0)
}

func nonNegative(amount decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}

func sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, amount := range amounts {
		total = total.Add(amount)
	}
	return total
}
