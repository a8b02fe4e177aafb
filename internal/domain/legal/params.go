package legal

import (
	"fmt"
	"maps"
	"slices"

	"github.com/shopspring/decimal"
)

type HealthPlanType string

const (
	HealthFixed HealthPlanType = "fixed"
	HealthPlan  HealthPlanType = "plan"
)

// Contract kinds every set must carry an unemployment-insurance rate for.
const (
	ContractIndefinido = "indefinido"
	ContractPlazoFijo  = "plazo_fijo"
	ContractObraFaena  = "obra_faena"
)

var ContractKinds = []string{ContractIndefinido, ContractPlazoFijo, ContractObraFaena}

type AFPRate struct {
	PensionRate    decimal.Decimal `json:"pensionRate"`
	CommissionRate decimal.Decimal `json:"commissionRate"`
}

type HealthRate struct {
	Type HealthPlanType `json:"type"`
	Rate decimal.Decimal `json:"rate"`
	// PlanUF is the institution-wide plan value; zero when plans are per employee.
	PlanUF decimal.Decimal `json:"planUf"`
}

type UnemploymentRate struct {
	Employee decimal.Decimal `json:"employee"`
	Employer decimal.Decimal `json:"employer"`
}

type TaxBracket struct {
	LowerUTM     decimal.Decimal  `json:"lowerUtm"`
	UpperUTM     *decimal.Decimal `json:"upperUtm,omitempty"`
	MarginalRate decimal.Decimal  `json:"marginalRate"`
	RebateUTM    decimal.Decimal  `json:"rebateUtm"`
}

func (b TaxBracket) Contains(utm decimal.Decimal) bool {
	if utm.LessThan(b.LowerUTM) {
		return false
	}
	return b.UpperUTM == nil || utm.LessThan(*b.UpperUTM)
}

type FamilyAllowanceBracket struct {
	UpperIncomeCLP     *decimal.Decimal `json:"upperIncomeClp,omitempty"`
	AmountPerDependent decimal.Decimal  `json:"amountPerDependent"`
}

// ParameterSet is one versioned snapshot of the legal values that drive a liquidation.
type ParameterSet struct {
	Version               string                      `json:"version"`
	EffectiveFrom         Period                      `json:"effectiveFrom"`
	EffectiveTo           *Period                     `json:"effectiveTo,omitempty"`
	AFPRates              map[string]AFPRate          `json:"afpRates"`
	HealthRates           map[string]HealthRate       `json:"healthRates"`
	ContributionCeilingUF decimal.Decimal             `json:"contributionCeilingUf"`
	UnemploymentCeilingUF decimal.Decimal             `json:"unemploymentCeilingUf"`
	UnemploymentRates     map[string]UnemploymentRate `json:"unemploymentRates"`
	IncomeTaxBrackets     []TaxBracket                `json:"incomeTaxBrackets"`
	FamilyAllowance       []FamilyAllowanceBracket    `json:"familyAllowance"`
	MinimumWageCLP        decimal.Decimal             `json:"minimumWageClp"`
	UFValueCLP            decimal.Decimal             `json:"ufValueClp"`
	UTMValueCLP           decimal.Decimal             `json:"utmValueClp"`
	DefaultAFPCode        string                      `json:"defaultAfpCode"`
	DefaultHealthCode     string                      `json:"defaultHealthCode"`
}

func (s ParameterSet) Covers(p Period) bool {
	if p.Before(s.EffectiveFrom) {
		return false
	}
	return s.EffectiveTo == nil || !p.After(*s.EffectiveTo)
}

func (s ParameterSet) ContributionCeilingCLP() decimal.Decimal {
	return s.ContributionCeilingUF.Mul(s.UFValueCLP)
}

// UnemploymentCeilingCLP falls back to the contribution ceiling when no separate
// unemployment-insurance ceiling is configured.
func (s ParameterSet) UnemploymentCeilingCLP() decimal.Decimal {
	if s.UnemploymentCeilingUF.IsZero() {
		return s.ContributionCeilingCLP()
	}
	return s.UnemploymentCeilingUF.Mul(s.UFValueCLP)
}

func (s ParameterSet) AFP(code string) (AFPRate, bool) {
	rate, ok := s.AFPRates[code]
	return rate, ok
}

func (s ParameterSet) Health(code string) (HealthRate, bool) {
	rate, ok := s.HealthRates[code]
	return rate, ok
}

func (s ParameterSet) Unemployment(contract string) (UnemploymentRate, bool) {
	rate, ok := s.UnemploymentRates[contract]
	return rate, ok
}

// Bracket returns the index and bracket whose [lower, upper) range holds utm.
func (s ParameterSet) Bracket(utm decimal.Decimal) (int, TaxBracket, bool) {
	for i, bracket := range s.IncomeTaxBrackets {
		if bracket.Contains(utm) {
			return i, bracket, true
		}
	}
	return -1, TaxBracket{}, false
}

// FamilyAllowancePerDependent picks the bracket by income; income on the upper
// bound still belongs to that bracket.
func (s ParameterSet) FamilyAllowancePerDependent(income decimal.Decimal) decimal.Decimal {
	for _, bracket := range s.FamilyAllowance {
		if bracket.UpperIncomeCLP == nil || income.LessThanOrEqual(*bracket.UpperIncomeCLP) {
			return bracket.AmountPerDependent
		}
	}
	return decimal.Zero
}

// WithIndicators returns a copy pinned to UF/UTM values fetched for a specific date.
func (s ParameterSet) WithIndicators(uf, utm decimal.Decimal) (ParameterSet, error) {
	out := s.Clone()
	if uf.IsPositive() {
		out.UFValueCLP = uf
	}
	if utm.IsPositive() {
		out.UTMValueCLP = utm
	}
	if err := out.Validate(); err != nil {
		return ParameterSet{}, err
	}
	return out, nil
}

func (s ParameterSet) Clone() ParameterSet {
	out := s
	if s.EffectiveTo != nil {
		to := *s.EffectiveTo
		out.EffectiveTo = &to
	}
	out.AFPRates = maps.Clone(s.AFPRates)
	out.HealthRates = maps.Clone(s.HealthRates)
	out.UnemploymentRates = maps.Clone(s.UnemploymentRates)
	out.IncomeTaxBrackets = make([]TaxBracket, len(s.IncomeTaxBrackets))
	for i, bracket := range s.IncomeTaxBrackets {
		if bracket.UpperUTM != nil {
			upper := *bracket.UpperUTM
			bracket.UpperUTM = &upper
		}
		out.IncomeTaxBrackets[i] = bracket
	}
	out.FamilyAllowance = make([]FamilyAllowanceBracket, len(s.FamilyAllowance))
	for i, bracket := range s.FamilyAllowance {
		if bracket.UpperIncomeCLP != nil {
			upper := *bracket.UpperIncomeCLP
			bracket.UpperIncomeCLP = &upper
		}
		out.FamilyAllowance[i] = bracket
	}
	return out
}

func (s ParameterSet) Validate() error {
	if s.Version == "" {
		return invalid(s.Version, "version is required")
	}
	if s.EffectiveFrom.IsZero() {
		return invalid(s.Version, "effective_from is required")
	}
	if s.EffectiveTo != nil && s.EffectiveTo.Before(s.EffectiveFrom) {
		return invalid(s.Version, "effective_to %s is before effective_from %s", s.EffectiveTo, s.EffectiveFrom)
	}
	for _, field := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"uf_value_clp", s.UFValueCLP},
		{"utm_value_clp", s.UTMValueCLP},
		{"minimum_wage_clp", s.MinimumWageCLP},
		{"contribution_ceiling_uf", s.ContributionCeilingUF},
	} {
		if !field.value.IsPositive() {
			return invalid(s.Version, "%s must be positive", field.name)
		}
	}
	if s.UnemploymentCeilingUF.IsNegative() {
		return invalid(s.Version, "unemployment_ceiling_uf must not be negative")
	}

	if len(s.AFPRates) == 0 {
		return invalid(s.Version, "afp_rates is empty")
	}
	for _, code := range slices.Sorted(maps.Keys(s.AFPRates)) {
		rate := s.AFPRates[code]
		if err := checkRate(s.Version, "afp "+code+" pension_rate", rate.PensionRate); err != nil {
			return err
		}
		if err := checkRate(s.Version, "afp "+code+" commission_rate", rate.CommissionRate); err != nil {
			return err
		}
	}
	if _, ok := s.AFPRates[s.DefaultAFPCode]; !ok {
		return invalid(s.Version, "default_afp_code %q is not in afp_rates", s.DefaultAFPCode)
	}

	for _, code := range slices.Sorted(maps.Keys(s.HealthRates)) {
		rate := s.HealthRates[code]
		if rate.Type != HealthFixed && rate.Type != HealthPlan {
			return invalid(s.Version, "health %s has unknown type %q", code, rate.Type)
		}
		if err := checkRate(s.Version, "health "+code+" rate", rate.Rate); err != nil {
			return err
		}
		if rate.PlanUF.IsNegative() {
			return invalid(s.Version, "health %s plan_uf must not be negative", code)
		}
	}
	defaultHealth, ok := s.HealthRates[s.DefaultHealthCode]
	if !ok {
		return invalid(s.Version, "default_health_code %q is not in health_rates", s.DefaultHealthCode)
	}
	if defaultHealth.Type != HealthFixed {
		return invalid(s.Version, "default_health_code %q must be a fixed-rate institution", s.DefaultHealthCode)
	}

	for _, contract := range ContractKinds {
		rate, ok := s.UnemploymentRates[contract]
		if !ok {
			return invalid(s.Version, "unemployment_rates missing contract %q", contract)
		}
		if err := checkRate(s.Version, "unemployment "+contract+" employee", rate.Employee); err != nil {
			return err
		}
		if err := checkRate(s.Version, "unemployment "+contract+" employer", rate.Employer); err != nil {
			return err
		}
	}

	if err := validateBrackets(s.Version, s.IncomeTaxBrackets); err != nil {
		return err
	}
	return validateFamilyAllowance(s.Version, s.FamilyAllowance)
}

func validateBrackets(version string, brackets []TaxBracket) error {
	if len(brackets) == 0 {
		return invalid(version, "income_tax_brackets is empty")
	}
	if !brackets[0].LowerUTM.IsZero() {
		return invalid(version, "first income tax bracket must start at 0 UTM")
	}
	for i, bracket := range brackets {
		if err := checkRate(version, fmt.Sprintf("bracket %d marginal_rate", i), bracket.MarginalRate); err != nil {
			return err
		}
		if bracket.RebateUTM.IsNegative() {
			return invalid(version, "bracket %d rebate_utm must not be negative", i)
		}
		last := i == len(brackets)-1
		if bracket.UpperUTM == nil {
			if !last {
				return invalid(version, "only the last bracket may be unbounded, bracket %d is not last", i)
			}
			continue
		}
		if last {
			return invalid(version, "last income tax bracket must be unbounded")
		}
		if !bracket.UpperUTM.GreaterThan(bracket.LowerUTM) {
			return invalid(version, "bracket %d upper bound must exceed its lower bound", i)
		}
		if !brackets[i+1].LowerUTM.Equal(*bracket.UpperUTM) {
			return invalid(version, "bracket %d does not start where bracket %d ends", i+1, i)
		}
	}
	return nil
}

func validateFamilyAllowance(version string, brackets []FamilyAllowanceBracket) error {
	var previous *decimal.Decimal
	for i, bracket := range brackets {
		if bracket.AmountPerDependent.IsNegative() {
			return invalid(version, "family allowance bracket %d amount must not be negative", i)
		}
		if bracket.UpperIncomeCLP == nil {
			if i != len(brackets)-1 {
				return invalid(version, "only the last family allowance bracket may be unbounded")
			}
			continue
		}
		if previous != nil && !bracket.UpperIncomeCLP.GreaterThan(*previous) {
			return invalid(version, "family allowance bracket %d must increase", i)
		}
		previous = bracket.UpperIncomeCLP
	}
	return nil
}

func checkRate(version, name string, rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return invalid(version, "%s must be within [0,1], got %s", name, rate)
	}
	return nil
}
