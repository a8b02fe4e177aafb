package liquidation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"remuneraciones/internal/domain/legal"
)

// Validate reports the first problem with the request as an *InvalidInputError.
func (r Request) Validate() error {
	_, err := r.normalize()
	return err
}

// normalize validates the request and returns it with canonical RUT, enum and code spellings.
func (r Request) normalize() (Request, error) {
	out := r
	emp := &out.Employee

	rut, err := NormalizeRUT(emp.RUT)
	if err != nil {
		return Request{}, err
	}
	emp.RUT = rut

	if !emp.BaseSalaryCLP.Valid {
		return Request{}, &InvalidInputError{Field: "employee.baseSalaryClp", Reason: "is required"}
	}
	if emp.BaseSalaryCLP.Decimal.IsNegative() {
		return Request{}, &InvalidInputError{Field: "employee.baseSalaryClp", Reason: "must not be negative"}
	}
	if emp.ContractType, err = ParseContractType(string(emp.ContractType)); err != nil {
		return Request{}, err
	}
	if emp.GratificationType, err = ParseGratificationType(string(emp.GratificationType)); err != nil {
		return Request{}, err
	}
	if emp.FamilyAllowanceCount < 0 {
		return Request{}, &InvalidInputError{Field: "employee.familyAllowanceCount", Reason: "must not be negative"}
	}
	if emp.HealthPlanUF.Valid && emp.HealthPlanUF.Decimal.IsNegative() {
		return Request{}, &InvalidInputError{Field: "employee.healthPlanUf", Reason: "must not be negative"}
	}
	emp.AFPCode = strings.ToUpper(strings.TrimSpace(emp.AFPCode))
	emp.HealthInstitutionCode = strings.ToUpper(strings.TrimSpace(emp.HealthInstitutionCode))

	if r.Period.Year == 0 && r.Period.Month == 0 {
		return Request{}, &InvalidInputError{Field: "period", Reason: "is required"}
	}
	period, err := legal.NewPeriod(r.Period.Year, r.Period.Month)
	if err != nil {
		return Request{}, &InvalidInputError{Field: "period", Reason: err.Error()}
	}
	maxDays := max(DaysPerMonth, period.DaysInMonth())
	if r.Period.DaysWorked < 0 || r.Period.DaysWorked > maxDays {
		return Request{}, &InvalidInputError{
			Field:  "period.daysWorked",
			Reason: fmt.Sprintf("must be between 0 and %d", maxDays),
		}
	}

	income := r.IncomeAdjustments
	if err := requireNonNegative(
		field{"incomeAdjustments.bonuses", income.Bonuses},
		field{"incomeAdjustments.commissions", income.Commissions},
		field{"incomeAdjustments.overtimeAmount", income.OvertimeAmount},
		field{"incomeAdjustments.foodAllowance", income.FoodAllowance},
		field{"incomeAdjustments.transportAllowance", income.TransportAllowance},
		field{"incomeAdjustments.contractualGratification", income.ContractualGratification},
	); err != nil {
		return Request{}, err
	}
	if !income.ContractualGratification.IsZero() && emp.GratificationType != GratificationContractual {
		return Request{}, &InvalidInputError{
			Field:  "incomeAdjustments.contractualGratification",
			Reason: "is only accepted with gratificationType contractual",
		}
	}
	if err := r.DeductionAdjustments.validate(); err != nil {
		return Request{}, err
	}
	return out, nil
}

func (d DeductionAdjustments) validate() error {
	return requireNonNegative(
		field{"deductionAdjustments.loanDeductions", d.LoanDeductions},
		field{"deductionAdjustments.advancePayments", d.AdvancePayments},
		field{"deductionAdjustments.apvAmount", d.APVAmount},
		field{"deductionAdjustments.otherDeductions", d.OtherDeductions},
	)
}

type field struct {
	name  string
	value decimal.Decimal
}

func requireNonNegative(fields ...field) error {
	for _, f := range fields {
		if f.value.IsNegative() {
			return &InvalidInputError{Field: f.name, Reason: "must not be negative"}
		}
	}
	return nil
}
