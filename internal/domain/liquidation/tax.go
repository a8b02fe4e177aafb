package liquidation

import (
	"github.com/shopspring/decimal"

	"remuneraciones/internal/domain/legal"
)

// ComputeIncomeTax applies the monthly second-category tax (impuesto único) to the
// taxable income net of mandatory contributions.
func ComputeIncomeTax(taxable decimal.Decimal, contributions Contributions, params legal.ParameterSet) IncomeTax {
	base := nonNegative(taxable.Sub(contributions.Total()))
	baseUTM := base.Div(params.UTMValueCLP)

	idx, bracket, ok := params.Bracket(baseUTM)
	if !ok {
		return IncomeTax{BaseCLP: base, BaseUTM: baseUTM, Bracket: -1, Amount: decimal.Zero}
	}
	taxUTM := nonNegative(baseUTM.Mul(bracket.MarginalRate).Sub(bracket.RebateUTM))
	return IncomeTax{
		BaseCLP: base,
		BaseUTM: baseUTM,
		Bracket: idx,
		Amount:  roundPeso(taxUTM.Mul(params.UTMValueCLP)),
	}
}
