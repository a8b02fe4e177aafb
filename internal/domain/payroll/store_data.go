package payroll

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"

	"remuneraciones/internal/domain/legal"
	"remuneraciones/internal/domain/liquidation"
	"remuneraciones/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const liquidationColumns = `
    id, COALESCE(book_id::text, ''), period_year, period_month, rut, first_name, last_name,
    days_worked, parameter_version,
    total_taxable_income, total_non_taxable_income, total_gross_income,
    afp_amount, afp_commission_amount, health_amount, unemployment_amount,
    income_tax_amount, total_deductions, net_salary,
    warnings_json, breakdown_json, request_sealed, created_by, created_at, updated_at`

// SaveBook upserts every record inside one transaction. Nothing is stored when any record fails.
func (s *Store) SaveBook(ctx context.Context, tenantID string, records []BookRecord) ([]string, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	txStore := &Store{DB: tx}
	ids := make([]string, 0, len(records))
	for _, record := range records {
		id, err := txStore.SaveLiquidation(ctx, tenantID, record.Liquidation, record.SealedRequest)
		if err != nil {
			return nil, fmt.Errorf("save %s: %w", record.Liquidation.Result.RUT, err)
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) SaveLiquidation(ctx context.Context, tenantID string, record Liquidation, sealedRequest []byte) (string, error) {
	result := record.Result
	warningsJSON, err := json.Marshal(result.Warnings)
	if err != nil {
		return "", err
	}
	breakdownJSON, err := json.Marshal(result.Breakdown)
	if err != nil {
		return "", err
	}

	var id string
	err = s.DB.QueryRow(ctx, `
    INSERT INTO payroll_liquidations (
      tenant_id, book_id, period_year, period_month, rut, first_name, last_name,
      days_worked, parameter_version,
      total_taxable_income, total_non_taxable_income, total_gross_income,
      afp_code, afp_amount, afp_commission_amount,
      health_institution_code, health_amount, unemployment_amount,
      income_tax_amount, total_deductions, net_salary,
      warnings_json, breakdown_json, request_sealed, created_by
    )
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25)
    ON CONFLICT (tenant_id, period_year, period_month, rut) DO UPDATE SET
      book_id = EXCLUDED.book_id,
      first_name = EXCLUDED.first_name,
      last_name = EXCLUDED.last_name,
      days_worked = EXCLUDED.days_worked,
      parameter_version = EXCLUDED.parameter_version,
      total_taxable_income = EXCLUDED.total_taxable_income,
      total_non_taxable_income = EXCLUDED.total_non_taxable_income,
      total_gross_income = EXCLUDED.total_gross_income,
      afp_code = EXCLUDED.afp_code,
      afp_amount = EXCLUDED.afp_amount,
      afp_commission_amount = EXCLUDED.afp_commission_amount,
      health_institution_code = EXCLUDED.health_institution_code,
      health_amount = EXCLUDED.health_amount,
      unemployment_amount = EXCLUDED.unemployment_amount,
      income_tax_amount = EXCLUDED.income_tax_amount,
      total_deductions = EXCLUDED.total_deductions,
      net_salary = EXCLUDED.net_salary,
      warnings_json = EXCLUDED.warnings_json,
      breakdown_json = EXCLUDED.breakdown_json,
      request_sealed = EXCLUDED.request_sealed,
      created_by = EXCLUDED.created_by,
      updated_at = now()
    RETURNING id
  `, tenantID, nullIfEmpty(record.BookID), result.Period.Year, result.Period.Month, result.RUT, record.FirstName, record.LastName,
		result.DaysWorked, result.ParameterVersion,
		result.TotalTaxableIncome, result.TotalNonTaxableIncome, result.TotalGrossIncome,
		result.Breakdown.Contributions.AFPCode, result.AFPAmount, result.AFPCommissionAmount,
		result.Breakdown.Contributions.HealthInstitutionCode, result.HealthAmount, result.UnemploymentAmount,
		result.IncomeTaxAmount, result.TotalDeductions, result.NetSalary,
		warningsJSON, breakdownJSON, sealedRequest, record.CreatedBy,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("save liquidation %s %s: %w", result.RUT, result.Period, err)
	}
	return id, nil
}

func (s *Store) GetLiquidation(ctx context.Context, tenantID, id string) (Liquidation, error) {
	row := s.DB.QueryRow(ctx, "SELECT "+liquidationColumns+" FROM payroll_liquidations WHERE tenant_id = $1 AND id = $2", tenantID, id)
	record, err := scanLiquidation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Liquidation{}, ErrLiquidationNotFound
	}
	if err != nil {
		return Liquidation{}, err
	}
	return record, nil
}

func (s *Store) CountLiquidations(ctx context.Context, tenantID string, period *legal.Period) (int, error) {
	query, args := periodFilter("SELECT COUNT(1) FROM payroll_liquidations", tenantID, period)
	var total int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) ListLiquidations(ctx context.Context, tenantID string, period *legal.Period, limit, offset int) ([]Liquidation, error) {
	query, args := periodFilter("SELECT "+liquidationColumns+" FROM payroll_liquidations", tenantID, period)
	query += fmt.Sprintf(" ORDER BY period_year DESC, period_month DESC, rut LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Liquidation{}
	for rows.Next() {
		record, err := scanLiquidation(rows)
		if err != nil {
			return nil, err
		}
		// The request snapshot is only opened for single reads.
		record.sealedRequest = nil
		out = append(out, record)
	}
	return out, rows.Err()
}

func (s *Store) PeriodSummary(ctx context.Context, tenantID string, period legal.Period) (PeriodSummary, error) {
	summary := PeriodSummary{Period: period}
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1),
           COALESCE(SUM(total_gross_income), 0),
           COALESCE(SUM(total_deductions), 0),
           COALESCE(SUM(income_tax_amount), 0),
           COALESCE(SUM(net_salary), 0)
    FROM payroll_liquidations
    WHERE tenant_id = $1 AND period_year = $2 AND period_month = $3
  `, tenantID, period.Year, period.Month).Scan(&summary.EmployeeCount, &summary.TotalGross, &summary.TotalDeductions, &summary.TotalIncomeTax, &summary.TotalNet)
	if err != nil {
		return PeriodSummary{}, err
	}
	return summary, nil
}

func scanLiquidation(row pgx.Row) (Liquidation, error) {
	var record Liquidation
	var warningsJSON, breakdownJSON []byte
	result := &record.Result
	err := row.Scan(
		&record.ID, &record.BookID, &result.Period.Year, &result.Period.Month, &result.RUT, &record.FirstName, &record.LastName,
		&result.DaysWorked, &result.ParameterVersion,
		&result.TotalTaxableIncome, &result.TotalNonTaxableIncome, &result.TotalGrossIncome,
		&result.AFPAmount, &result.AFPCommissionAmount, &result.HealthAmount, &result.UnemploymentAmount,
		&result.IncomeTaxAmount, &result.TotalDeductions, &result.NetSalary,
		&warningsJSON, &breakdownJSON, &record.sealedRequest, &record.CreatedBy, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return Liquidation{}, err
	}
	if err := unmarshalOptional(warningsJSON, &result.Warnings); err != nil {
		return Liquidation{}, err
	}
	if result.Warnings == nil {
		result.Warnings = []liquidation.Warning{}
	}
	if err := unmarshalOptional(breakdownJSON, &result.Breakdown); err != nil {
		return Liquidation{}, err
	}
	return record, nil
}

func periodFilter(prefix, tenantID string, period *legal.Period) (string, []any) {
	query := prefix + " WHERE tenant_id = $1"
	args := []any{tenantID}
	if period != nil {
		args = append(args, period.Year, period.Month)
		query += " AND period_year = $2 AND period_month = $3"
	}
	return query, args
}

func unmarshalOptional(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func nullIfEmpty(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
