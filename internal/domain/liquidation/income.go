package liquidation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"remuneraciones/internal/domain/legal"
)

// AggregateIncome splits the month's income into taxable and non-taxable parts.
// Base salary and the allowances are prorated by days worked; overtime, bonuses,
// commissions and a contractual gratification are taken as supplied.
func AggregateIncome(employee EmployeeSnapshot, period PeriodContext, adjustments IncomeAdjustments, params legal.ParameterSet) (Income, []Warning) {
	var warnings []Warning
	days := effectiveDays(period)

	income := Income{
		ProratedBaseSalary: prorate(employee.BaseSalaryCLP.Decimal, days),
		Overtime:           roundPeso(adjustments.OvertimeAmount),
		Bonuses:            roundPeso(adjustments.Bonuses),
		Commissions:        roundPeso(adjustments.Commissions),
		FoodAllowance:      prorate(adjustments.FoodAllowance, days),
		TransportAllowance: prorate(adjustments.TransportAllowance, days),
	}

	base := sum(income.ProratedBaseSalary, income.Overtime, income.Bonuses, income.Commissions)
	legalCap := legalGratification(base, params.MinimumWageCLP)
	income.GratificationCap = legalCap

	switch employee.GratificationType {
	case GratificationLegalArt50:
		income.LegalGratification = legalCap
		income.Gratification = legalCap
	case GratificationContractual:
		income.Gratification = roundPeso(adjustments.ContractualGratification)
		if income.Gratification.GreaterThan(legalCap) {
			warnings = append(warnings, Warning{
				Code:    WarningGratificationExceedsCap,
				Message: fmt.Sprintf("contractual gratification %s exceeds the Art. 50 amount %s", income.Gratification, legalCap),
			})
		}
	default:
		income.Gratification = decimal.Zero
	}

	income.Taxable = base.Add(income.Gratification)

	perDependent := params.FamilyAllowancePerDependent(income.Taxable)
	dependents := decimal.NewFromInt(int64(employee.FamilyAllowanceCount))
	income.FamilyAllowance = prorate(perDependent.Mul(dependents), days)

	income.NonTaxable = sum(income.FoodAllowance, income.TransportAllowance, income.FamilyAllowance)
	return income, warnings
}

// legalGratification is min(25% of the month's base, 4.75 minimum wages / 12).
func legalGratification(base, minimumWage decimal.Decimal) decimal.Decimal {
	share := base.Mul(gratificationShare)
	monthlyCap := minimumWage.Mul(gratificationMinWageFactor).Div(monthsPerYear)
	return roundPeso(decimal.Min(share, monthlyCap))
}

// effectiveDays maps days worked onto the 30-day commercial month: a 31st day adds
// nothing and a February paid as 28 days is prorated like any other month.
func effectiveDays(period PeriodContext) int {
	return min(period.DaysWorked, DaysPerMonth)
}

func prorate(amount decimal.Decimal, days int) decimal.Decimal {
	if days <= 0 {
		return decimal.Zero
	}
	if days == DaysPerMonth {
		return roundPeso(amount)
	}
	return roundPeso(amount.Mul(decimal.NewFromInt(int64(days))).Div(daysPerMonth))
}
