package payroll

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"remuneraciones/internal/domain/audit"
	"remuneraciones/internal/domain/legal"
	"remuneraciones/internal/domain/liquidation"
	cryptoutil "remuneraciones/internal/platform/crypto"
	"remuneraciones/internal/requestctx"
)

type AuditRecorder interface {
	Record(ctx context.Context, entry audit.Entry) error
}

type Service struct {
	engine  *liquidation.Engine
	store   StoreAPI
	sealer  *cryptoutil.Sealer
	audit   AuditRecorder
	workers int
}

func NewService(engine *liquidation.Engine, store StoreAPI, sealer *cryptoutil.Sealer, recorder AuditRecorder, workers int) *Service {
	if workers <= 0 {
		workers = 1
	}
	return &Service{engine: engine, store: store, sealer: sealer, audit: recorder, workers: workers}
}

// Preview calculates without persisting anything.
func (s *Service) Preview(req liquidation.Request) (liquidation.Result, error) {
	return s.engine.Calculate(req)
}

// PreviewBook calculates a whole book without persisting anything.
func (s *Service) PreviewBook(requests []liquidation.Request) liquidation.Book {
	return s.engine.CalculateBook(requests, s.workers)
}

func (s *Service) Liquidate(ctx context.Context, actor Actor, req liquidation.Request) (Liquidation, error) {
	result, err := s.engine.Calculate(req)
	if err != nil {
		return Liquidation{}, err
	}
	record, err := s.save(ctx, actor, "", req, result)
	if err != nil {
		return Liquidation{}, err
	}
	s.record(ctx, actor, audit.ActionLiquidationSave, audit.EntityLiquidation, record.ID, record.Result)
	return record, nil
}

// RunBook calculates every request of one period and persists the successful entries.
// Failed entries stay in the returned book with their error.
func (s *Service) RunBook(ctx context.Context, actor Actor, period legal.Period, requests []liquidation.Request) (BookRun, error) {
	if len(requests) == 0 {
		return BookRun{}, ErrEmptyBook
	}
	seen := make(map[string]int, len(requests))
	for i, req := range requests {
		if req.Period.Period() != period {
			return BookRun{}, &liquidation.InvalidInputError{
				Field:  fmt.Sprintf("requests[%d].period", i),
				Reason: "does not match book period " + period.String(),
			}
		}
		// Malformed RUTs are reported per entry by the engine.
		rut, err := liquidation.NormalizeRUT(req.Employee.RUT)
		if err != nil {
			continue
		}
		if first, ok := seen[rut]; ok {
			return BookRun{}, &liquidation.InvalidInputError{
				Field:  fmt.Sprintf("requests[%d].employee.rut", i),
				Reason: fmt.Sprintf("duplicates requests[%d]", first),
			}
		}
		seen[rut] = i
	}

	run := BookRun{ID: uuid.NewString(), Period: period}
	run.Book = s.engine.CalculateBook(requests, s.workers)
	if err := ctx.Err(); err != nil {
		return run, err
	}
	records := make([]BookRecord, 0, len(run.Book.Entries))
	for _, entry := range run.Book.Entries {
		if entry.Result == nil {
			continue
		}
		record, sealed, err := s.prepare(actor, run.ID, requests[entry.Index], *entry.Result)
		if err != nil {
			return run, err
		}
		records = append(records, BookRecord{Liquidation: record, SealedRequest: sealed})
	}
	if len(records) > 0 {
		ids, err := s.store.SaveBook(ctx, actor.TenantID, records)
		if err != nil {
			return run, err
		}
		run.Saved = len(ids)
	}
	s.record(ctx, actor, audit.ActionBookRun, audit.EntityBook, run.ID, run.Book.Summary)
	return run, nil
}

func (s *Service) Get(ctx context.Context, tenantID, id string) (Liquidation, error) {
	record, err := s.store.GetLiquidation(ctx, tenantID, id)
	if err != nil {
		return Liquidation{}, err
	}
	if len(record.sealedRequest) > 0 {
		var req liquidation.Request
		if err := s.sealer.Open(record.sealedRequest, &req); err != nil {
			return Liquidation{}, fmt.Errorf("open request snapshot: %w", err)
		}
		record.Request = &req
		record.sealedRequest = nil
	}
	return record, nil
}

func (s *Service) List(ctx context.Context, tenantID string, period *legal.Period, limit, offset int) ([]Liquidation, int, error) {
	total, err := s.store.CountLiquidations(ctx, tenantID, period)
	if err != nil {
		return nil, 0, err
	}
	records, err := s.store.ListLiquidations(ctx, tenantID, period, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (s *Service) PeriodSummary(ctx context.Context, tenantID string, period legal.Period) (PeriodSummary, error) {
	return s.store.PeriodSummary(ctx, tenantID, period)
}

func (s *Service) save(ctx context.Context, actor Actor, bookID string, req liquidation.Request, result liquidation.Result) (Liquidation, error) {
	record, sealed, err := s.prepare(actor, bookID, req, result)
	if err != nil {
		return Liquidation{}, err
	}
	id, err := s.store.SaveLiquidation(ctx, actor.TenantID, record, sealed)
	if err != nil {
		return Liquidation{}, err
	}
	record.ID = id
	return record, nil
}

func (s *Service) prepare(actor Actor, bookID string, req liquidation.Request, result liquidation.Result) (Liquidation, []byte, error) {
	sealed, err := s.sealer.Seal(req)
	if err != nil {
		return Liquidation{}, nil, fmt.Errorf("seal request snapshot: %w", err)
	}
	return Liquidation{
		BookID:    bookID,
		FirstName: req.Employee.FirstName,
		LastName:  req.Employee.LastName,
		Result:    result,
		CreatedBy: actor.UserID,
	}, sealed, nil
}

func (s *Service) record(ctx context.Context, actor Actor, action, entityType, entityID string, after any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, audit.Entry{
		TenantID:   actor.TenantID,
		ActorID:    actor.UserID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  actor.RequestID,
		IP:         actor.IP,
		After:      after,
	})
	if err != nil {
		requestctx.Logger(ctx).Warn("audit record failed", "err", err, "action", action, "entityId", entityID)
	}
}
