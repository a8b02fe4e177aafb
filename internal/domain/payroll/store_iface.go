package payroll

import (
	"context"

	"remuneraciones/internal/domain/legal"
)

type StoreAPI interface {
	SaveLiquidation(ctx context.Context, tenantID string, record Liquidation, sealedRequest []byte) (string, error)
	SaveBook(ctx context.Context, tenantID string, records []BookRecord) ([]string, error)
	GetLiquidation(ctx context.Context, tenantID, id string) (Liquidation, error)
	CountLiquidations(ctx context.Context, tenantID string, period *legal.Period) (int, error)
	ListLiquidations(ctx context.Context, tenantID string, period *legal.Period, limit, offset int) ([]Liquidation, error)
	PeriodSummary(ctx context.Context, tenantID string, period legal.Period) (PeriodSummary, error)
}

// BookRecord is one liquidation of a book together with its sealed request snapshot.
type BookRecord struct {
	Liquidation   Liquidation
	SealedRequest []byte
}
