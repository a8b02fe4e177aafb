package liquidation

import (
	"errors"

	"remuneraciones/internal/domain/legal"
)

// ParameterResolver returns the legal parameter snapshot covering a period.
// *legal.Table implements it.
type ParameterResolver interface {
	Resolve(period legal.Period) (legal.ParameterSet, error)
}

// Engine computes liquidaciones. It holds no state besides its resolver and is
// safe for concurrent use.
type Engine struct {
	params ParameterResolver
}

func NewEngine(params ParameterResolver) *Engine {
	return &Engine{params: params}
}

// Calculate validates the request, resolves the parameters for its period and
// computes the liquidación.
func (e *Engine) Calculate(req Request) (Result, error) {
	req, err := req.normalize()
	if err != nil {
		return Result{}, err
	}
	period := req.Period.Period()
	params, err := e.params.Resolve(period)
	if err != nil {
		if errors.Is(err, ErrUnknownPeriod) {
			return Result{}, err
		}
		return Result{}, &UnknownPeriodError{Period: period}
	}
	return assemble(req, params)
}

// CalculateWith computes the liquidación against an already pinned parameter
// snapshot, for instance one carrying UF and UTM values fetched for the month.
// An invalid snapshot is returned as a legal.ErrInvalidSet error before any step runs.
func CalculateWith(params legal.ParameterSet, req Request) (Result, error) {
	if err := params.Validate(); err != nil {
		return Result{}, err
	}
	req, err := req.normalize()
	if err != nil {
		return Result{}, err
	}
	if !params.Covers(req.Period.Period()) {
		return Result{}, &UnknownPeriodError{Period: req.Period.Period()}
	}
	return assemble(req, params)
}

// assemble runs income, contributions, tax and deductions in that order. The
// request must already be normalized.
func assemble(req Request, params legal.ParameterSet) (Result, error) {
	warnings := []Warning{}

	income, w := AggregateIncome(req.Employee, req.Period, req.IncomeAdjustments, params)
	warnings = append(warnings, w...)

	contributions, w := ComputeContributions(income.Taxable, req.Employee, params)
	warnings = append(warnings, w...)

	tax := ComputeIncomeTax(income.Taxable, contributions, params)

	deductions, err := AggregateDeductions(contributions, tax.Amount, req.DeductionAdjustments)
	if err != nil {
		return Result{}, err
	}

	gross := income.Taxable.Add(income.NonTaxable)
	if deductions.GreaterThan(gross) {
		return Result{}, &NegativeNetSalaryError{Gross: gross, Deductions: deductions}
	}

	return Result{
		RUT:                   req.Employee.RUT,
		Period:                req.Period.Period(),
		DaysWorked:            req.Period.DaysWorked,
		ParameterVersion:      params.Version,
		TotalTaxableIncome:    income.Taxable,
		TotalNonTaxableIncome: income.NonTaxable,
		TotalGrossIncome:      gross,
		AFPAmount:             contributions.AFPAmount,
		AFPCommissionAmount:   contributions.AFPCommissionAmount,
		HealthAmount:          contributions.HealthAmount,
		UnemploymentAmount:    contributions.UnemploymentAmount,
		IncomeTaxAmount:       tax.Amount,
		TotalDeductions:       deductions,
		NetSalary:             gross.Sub(deductions),
		Warnings:              warnings,
		Breakdown: Breakdown{
			Income:              income,
			Contributions:       contributions,
			IncomeTax:           tax,
			VoluntaryDeductions: req.DeductionAdjustments.total(),
		},
	}, nil
}
