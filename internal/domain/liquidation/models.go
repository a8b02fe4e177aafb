package liquidation

import (
	"github.com/shopspring/decimal"

	"remuneraciones/internal/domain/legal"
)

type EmployeeSnapshot struct {
	RUT                   string              `json:"rut"`
	FirstName             string              `json:"firstName"`
	LastName              string              `json:"lastName"`
	BaseSalaryCLP         decimal.NullDecimal `json:"baseSalaryClp"`
	ContractType          ContractType        `json:"contractType"`
	AFPCode               string              `json:"afpCode"`
	HealthInstitutionCode string              `json:"healthInstitutionCode"`
	// HealthPlanUF is the employee's contracted Isapre plan; ignored for Fonasa.
	HealthPlanUF             decimal.NullDecimal `json:"healthPlanUf"`
	FamilyAllowanceCount     int                 `json:"familyAllowanceCount"`
	GratificationType        GratificationType   `json:"gratificationType"`
	HasUnemploymentInsurance bool                `json:"hasUnemploymentInsurance"`
}

type PeriodContext struct {
	Year       int `json:"year"`
	Month      int `json:"month"`
	DaysWorked int `json:"daysWorked"`
}

func (p PeriodContext) Period() legal.Period {
	return legal.Period{Year: p.Year, Month: p.Month}
}

type IncomeAdjustments struct {
	Bonuses            decimal.Decimal `json:"bonuses"`
	Commissions        decimal.Decimal `json:"commissions"`
	OvertimeAmount     decimal.Decimal `json:"overtimeAmount"`
	FoodAllowance      decimal.Decimal `json:"foodAllowance"`
	TransportAllowance decimal.Decimal `json:"transportAllowance"`
	// ContractualGratification is only read for GratificationContractual.
	ContractualGratification decimal.Decimal `json:"contractualGratification"`
}

type DeductionAdjustments struct {
	LoanDeductions  decimal.Decimal `json:"loanDeductions"`
	AdvancePayments decimal.Decimal `json:"advancePayments"`
	APVAmount       decimal.Decimal `json:"apvAmount"`
	OtherDeductions decimal.Decimal `json:"otherDeductions"`
}

type Request struct {
	Employee             EmployeeSnapshot     `json:"employee"`
	Period               PeriodContext        `json:"period"`
	IncomeAdjustments    IncomeAdjustments    `json:"incomeAdjustments"`
	DeductionAdjustments DeductionAdjustments `json:"deductionAdjustments"`
}

type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Income is the classified, rounded income of one employee for one period.
type Income struct {
	ProratedBaseSalary decimal.Decimal `json:"proratedBaseSalary"`
	Overtime           decimal.Decimal `json:"overtime"`
	Bonuses            decimal.Decimal `json:"bonuses"`
	Commissions        decimal.Decimal `json:"commissions"`
	Gratification      decimal.Decimal `json:"gratification"`
	// LegalGratification is the Art. 50 amount paid; zero unless the employee is on
	// legal_art50. GratificationCap is the Art. 50 amount whatever the election.
	LegalGratification decimal.Decimal `json:"legalGratificationArt50"`
	GratificationCap   decimal.Decimal `json:"gratificationCap"`
	FoodAllowance      decimal.Decimal `json:"foodAllowance"`
	TransportAllowance decimal.Decimal `json:"transportAllowance"`
	FamilyAllowance    decimal.Decimal `json:"familyAllowance"`
	Taxable            decimal.Decimal `json:"taxable"`
	NonTaxable         decimal.Decimal `json:"nonTaxable"`
}

type Contributions struct {
	AFPCode               string          `json:"afpCode"`
	HealthInstitutionCode string          `json:"healthInstitutionCode"`
	ContributionBase      decimal.Decimal `json:"contributionBase"`
	UnemploymentBase      decimal.Decimal `json:"unemploymentBase"`
	AFPAmount             decimal.Decimal `json:"afpAmount"`
	AFPCommissionAmount   decimal.Decimal `json:"afpCommissionAmount"`
	HealthAmount          decimal.Decimal `json:"healthAmount"`
	UnemploymentAmount    decimal.Decimal `json:"unemploymentAmount"`
}

func (c Contributions) Total() decimal.Decimal {
	return sum(c.AFPAmount, c.AFPCommissionAmount, c.HealthAmount, c.UnemploymentAmount)
}

type IncomeTax struct {
	BaseCLP decimal.Decimal `json:"baseClp"`
	BaseUTM decimal.Decimal `json:"baseUtm"`
	Bracket int             `json:"bracket"`
	Amount  decimal.Decimal `json:"amount"`
}

type Breakdown struct {
	Income        Income        `json:"income"`
	Contributions Contributions `json:"contributions"`
	IncomeTax     IncomeTax     `json:"incomeTax"`
	// VoluntaryDeductions sums loans, advances, APV and other deductions.
	VoluntaryDeductions decimal.Decimal `json:"voluntaryDeductions"`
}

// Result is the liquidación de sueldo. NetSalary is always TotalGrossIncome minus
// TotalDeductions, and TotalGrossIncome always the sum of the two income totals.
type Result struct {
	RUT                   string          `json:"rut"`
	Period                legal.Period    `json:"period"`
	DaysWorked            int             `json:"daysWorked"`
	ParameterVersion      string          `json:"parameterVersion"`
	TotalTaxableIncome    decimal.Decimal `json:"totalTaxableIncome"`
	TotalNonTaxableIncome decimal.Decimal `json:"totalNonTaxableIncome"`
	TotalGrossIncome      decimal.Decimal `json:"totalGrossIncome"`
	AFPAmount             decimal.Decimal `json:"afpAmount"`
	AFPCommissionAmount   decimal.Decimal `json:"afpCommissionAmount"`
	HealthAmount          decimal.Decimal `json:"healthAmount"`
	UnemploymentAmount    decimal.Decimal `json:"unemploymentAmount"`
	IncomeTaxAmount       decimal.Decimal `json:"incomeTaxAmount"`
	TotalDeductions       decimal.Decimal `json:"totalDeductions"`
	NetSalary             decimal.Decimal `json:"netSalary"`
	Warnings              []Warning       `json:"warnings"`
	Breakdown             Breakdown       `json:"breakdown"`
}
