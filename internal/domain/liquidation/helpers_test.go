package liquidation

import (
	"testing"

	"github.com/shopspring/decimal"

	"remuneraciones/internal/domain/legal"
)

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func dp(value string) *decimal.Decimal {
	v := d(value)
	return &v
}

func nd(value string) decimal.NullDecimal {
	return decimal.NewNullDecimal(d(value))
}

func testParams() legal.ParameterSet {
	return legal.ParameterSet{
		Version:       "test",
		EffectiveFrom: legal.Period{Year: 2025, Month: 1},
		AFPRates: map[string]legal.AFPRate{
			"HABITAT": {PensionRate: d("0.10"), CommissionRate: d("0.0127")},
			"MODELO":  {PensionRate: d("0.10"), CommissionRate: d("0.0058")},
		},
		HealthRates: map[string]legal.HealthRate{
			"FONASA":    {Type: legal.HealthFixed, Rate: d("0.07")},
			"BANMEDICA": {Type: legal.HealthPlan, Rate: d("0.07")},
			"COLMENA":   {Type: legal.HealthPlan, Rate: d("0.07"), PlanUF: d("3")},
		},
		ContributionCeilingUF: d("87.8"),
		UnemploymentRates: map[string]legal.UnemploymentRate{
			legal.ContractIndefinido: {Employee: d("0.006"), Employer: d("0.024")},
			legal.ContractPlazoFijo:  {Employee: d("0"), Employer: d("0.03")},
			legal.ContractObraFaena:  {Employee: d("0"), Employer: d("0.03")},
		},
		IncomeTaxBrackets: []legal.TaxBracket{
			{LowerUTM: d("0"), UpperUTM: dp("13.5"), MarginalRate: d("0"), RebateUTM: d("0")},
			{LowerUTM: d("13.5"), UpperUTM: dp("30"), MarginalRate: d("0.04"), RebateUTM: d("0.54")},
			{LowerUTM: d("30"), MarginalRate: d("0.08"), RebateUTM: d("1.74")},
		},
		FamilyAllowance: []legal.FamilyAllowanceBracket{
			{UpperIncomeCLP: dp("586227"), AmountPerDependent: d("21243")},
			{UpperIncomeCLP: dp("856247"), AmountPerDependent: d("13036")},
			{AmountPerDependent: d("0")},
		},
		MinimumWageCLP:    d("510000"),
		UFValueCLP:        d("38000"),
		UTMValueCLP:       d("67000"),
		DefaultAFPCode:    "HABITAT",
		DefaultHealthCode: "FONASA",
	}
}

func testEngine(t *testing.T) *Engine {
	t.Helper()
	table, err := legal.NewTable(testParams())
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	return NewEngine(table)
}

// baseRequest is a full March 2025 month for an indefinido employee at Habitat and Fonasa.
func baseRequest(salary string) Request {
	return Request{
		Employee: EmployeeSnapshot{
			RUT:                      "12.345.678-5",
			FirstName:                "Ana",
			LastName:                 "Rojas",
			BaseSalaryCLP:            nd(salary),
			ContractType:             ContractIndefinido,
			AFPCode:                  "HABITAT",
			HealthInstitutionCode:    "FONASA",
			GratificationType:        GratificationNone,
			HasUnemploymentInsurance: true,
		},
		Period: PeriodContext{Year: 2025, Month: 3, DaysWorked: 31},
	}
}

func assertAmount(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(d(want)) {
		t.Fatalf("%s: expected %s, got %s", name, want, got)
	}
}

func warningCodes(warnings []Warning) []string {
	codes := make([]string, 0, len(warnings))
	for _, w := range warnings {
		codes = append(codes, w.Code)
	}
	return codes
}
