package liquidation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"remuneraciones/internal/domain/legal"
)

// ComputeContributions withholds pension, health and unemployment insurance on the
// taxable income capped at the contribution ceiling (tope imponible).
func ComputeContributions(taxable decimal.Decimal, employee EmployeeSnapshot, params legal.ParameterSet) (Contributions, []Warning) {
	var warnings []Warning
	capped := decimal.Min(taxable, params.ContributionCeilingCLP())
	out := Contributions{ContributionBase: capped}

	afpCode := employee.AFPCode
	afp, ok := params.AFP(afpCode)
	if !ok {
		warnings = append(warnings, Warning{
			Code:    WarningDefaultedAFP,
			Message: fmt.Sprintf("unknown AFP %q, using %s", afpCode, params.DefaultAFPCode),
		})
		afpCode = params.DefaultAFPCode
		afp, _ = params.AFP(afpCode)
	}
	out.AFPCode = afpCode
	out.AFPAmount = roundPeso(capped.Mul(afp.PensionRate))
	out.AFPCommissionAmount = roundPeso(capped.Mul(afp.CommissionRate))

	healthCode := employee.HealthInstitutionCode
	health, ok := params.Health(healthCode)
	if !ok {
		warnings = append(warnings, Warning{
			Code:    WarningDefaultedHealth,
			Message: fmt.Sprintf("unknown health institution %q, using %s", healthCode, params.DefaultHealthCode),
		})
		healthCode = params.DefaultHealthCode
		health, _ = params.Health(healthCode)
	}
	out.HealthInstitutionCode = healthCode
	amount, planWarning := healthAmount(capped, healthCode, health, employee, params)
	if planWarning != nil {
		warnings = append(warnings, *planWarning)
	}
	out.HealthAmount = amount

	if employee.HasUnemploymentInsurance {
		out.UnemploymentBase = decimal.Min(taxable, params.UnemploymentCeilingCLP())
		if rate, ok := params.Unemployment(string(employee.ContractType)); ok {
			out.UnemploymentAmount = nonNegative(roundPeso(out.UnemploymentBase.Mul(rate.Employee)))
		}
	}
	return out, warnings
}

// healthAmount charges the legal rate, or for an Isapre the contracted plan when it
// costs more. The plan value comes from the employee, then from the institution entry.
func healthAmount(capped decimal.Decimal, code string, rate legal.HealthRate, employee EmployeeSnapshot, params legal.ParameterSet) (decimal.Decimal, *Warning) {
	legalAmount := capped.Mul(rate.Rate)
	if rate.Type != legal.HealthPlan {
		return roundPeso(legalAmount), nil
	}

	planUF := rate.PlanUF
	if employee.HealthPlanUF.Valid && employee.HealthPlanUF.Decimal.IsPositive() {
		planUF = employee.HealthPlanUF.Decimal
	}
	if !planUF.IsPositive() {
		return roundPeso(legalAmount), &Warning{
			Code:    WarningDefaultedHealthPlan,
			Message: fmt.Sprintf("no plan value for %s, charging the legal %s%%", code, rate.Rate.Shift(2)),
		}
	}
	planCLP := planUF.Mul(params.UFValueCLP)
	return roundPeso(decimal.Max(legalAmount, planCLP)), nil
}
