package payroll

import (
	"time"

	"github.com/shopspring/decimal"

	"remuneraciones/internal/domain/legal"
	"remuneraciones/internal/domain/liquidation"
)

// Actor identifies who asked for a write and is copied into the audit trail.
type Actor struct {
	TenantID  string
	UserID    string
	RequestID string
	IP        string
}

// Liquidation is a persisted liquidation result. Request is only populated by Get.
type Liquidation struct {
	ID        string               `json:"id"`
	BookID    string               `json:"bookId,omitempty"`
	FirstName string               `json:"firstName"`
	LastName  string               `json:"lastName"`
	Result    liquidation.Result   `json:"result"`
	Request   *liquidation.Request `json:"request,omitempty"`
	CreatedBy string               `json:"createdBy"`
	CreatedAt time.Time            `json:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt"`

	sealedRequest []byte
}

type PeriodSummary struct {
	Period          legal.Period    `json:"period"`
	EmployeeCount   int             `json:"employeeCount"`
	TotalGross      decimal.Decimal `json:"totalGross"`
	TotalDeductions decimal.Decimal `json:"totalDeductions"`
	TotalIncomeTax  decimal.Decimal `json:"totalIncomeTax"`
	TotalNet        decimal.Decimal `json:"totalNet"`
}

// BookRun is a calculated and persisted libro de remuneraciones.
type BookRun struct {
	ID     string           `json:"id"`
	Period legal.Period     `json:"period"`
	Saved  int              `json:"saved"`
	Book   liquidation.Book `json:"book"`
}
