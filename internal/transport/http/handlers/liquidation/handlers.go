package liquidationhandler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"remuneraciones/internal/domain/auth"
	"remuneraciones/internal/domain/legal"
	"remuneraciones/internal/domain/liquidation"
	"remuneraciones/internal/domain/payroll"
	"remuneraciones/internal/platform/jobs"
	"remuneraciones/internal/requestctx"
	"remuneraciones/internal/transport/http/api"
	"remuneraciones/internal/transport/http/middleware"
	"remuneraciones/internal/transport/http/shared"
)

type Service interface {
	Preview(req liquidation.Request) (liquidation.Result, error)
	PreviewBook(requests []liquidation.Request) liquidation.Book
	Liquidate(ctx context.Context, actor payroll.Actor, req liquidation.Request) (payroll.Liquidation, error)
	RunBook(ctx context.Context, actor payroll.Actor, period legal.Period, requests []liquidation.Request) (payroll.BookRun, error)
	Get(ctx context.Context, tenantID, id string) (payroll.Liquidation, error)
	List(ctx context.Context, tenantID string, period *legal.Period, limit, offset int) ([]payroll.Liquidation, int, error)
	PeriodSummary(ctx context.Context, tenantID string, period legal.Period) (payroll.PeriodSummary, error)
}

type JobQueue interface {
	Enqueue(ctx context.Context, jobType, tenantID string, run jobs.Func) (string, error)
	RunNow(ctx context.Context, jobType, tenantID string, run jobs.Func) (any, error)
}

type Metrics interface {
	RecordLiquidation(code string, warnings int)
}

type Handler struct {
	Service     Service
	Jobs        JobQueue
	Perms       middleware.PermissionChecker
	Metrics     Metrics
	Idempotency *middleware.IdempotencyStore
}

func NewHandler(service Service, queue JobQueue, perms middleware.PermissionChecker, metrics Metrics, idempotency *middleware.IdempotencyStore) *Handler {
	return &Handler{Service: service, Jobs: queue, Perms: perms, Metrics: metrics, Idempotency: idempotency}
}

type bookPayload struct {
	Period   string                `json:"period"`
	Requests []liquidation.Request `json:"requests"`
}

// bookResponse leaves the per-entry results out of async job details.
type bookResponse struct {
	ID      string                  `json:"id"`
	Period  legal.Period            `json:"period"`
	Saved   int                     `json:"saved"`
	Summary liquidation.BookSummary `json:"summary"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermPayrollPreview, h.Perms)).Post("/liquidations/preview", h.handlePreview)
	r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Post("/liquidations", h.handleCreate)
	r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/liquidations", h.handleList)
	r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/liquidations/summary", h.handleSummary)
	r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/liquidations/{liquidationID}", h.handleGet)
	r.With(middleware.RequirePermission(auth.PermPayrollPreview, h.Perms)).Post("/books/preview", h.handleBookPreview)
	r.With(middleware.RequirePermission(auth.PermPayrollRun, h.Perms)).Post("/books", h.handleRunBook)
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var req liquidation.Request
	if !decode(w, r, &req) {
		return
	}
	result, err := h.Service.Preview(req)
	h.observe(err, result.Warnings)
	if err != nil {
		writeError(w, err, requestID)
		return
	}
	api.Success(w, result, requestID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req liquidation.Request
	if !decode(w, r, &req) {
		return
	}
	record, err := h.Service.Liquidate(r.Context(), actor, req)
	h.observe(err, record.Result.Warnings)
	if err != nil {
		writeError(w, err, requestID)
		return
	}
	api.Created(w, record, requestID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	v := shared.NewValidator()
	var period *legal.Period
	if raw := query.Get("period"); raw != "" {
		if parsed, ok := v.Period("period", raw); ok {
			period = &parsed
		}
	}
	page := v.Page(query, payroll.DefaultListLimit, payroll.MaxListLimit)
	if v.Reject(w, requestID) {
		return
	}
	records, total, err := h.Service.List(r.Context(), actor.TenantID, period, page.Limit, page.Offset)
	if err != nil {
		requestctx.Logger(r.Context()).Error("list liquidations failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "liquidations_list_failed", "failed to list liquidations", requestID)
		return
	}
	api.Success(w, api.List{Items: records, Total: total, Limit: page.Limit, Offset: page.Offset}, requestID)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	v := shared.NewValidator()
	period, _ := v.Period("period", r.URL.Query().Get("period"))
	if v.Reject(w, requestID) {
		return
	}
	summary, err := h.Service.PeriodSummary(r.Context(), actor.TenantID, period)
	if err != nil {
		requestctx.Logger(r.Context()).Error("period summary failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "period_summary_failed", "failed to summarize period", requestID)
		return
	}
	api.Success(w, summary, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	record, err := h.Service.Get(r.Context(), actor.TenantID, chi.URLParam(r, "liquidationID"))
	if errors.Is(err, payroll.ErrLiquidationNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "liquidation not found", requestID)
		return
	}
	if err != nil {
		requestctx.Logger(r.Context()).Error("get liquidation failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "liquidation_get_failed", "failed to load liquidation", requestID)
		return
	}
	api.Success(w, record, requestID)
}

func (h *Handler) handleBookPreview(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload bookPayload
	if !decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.NonEmpty("requests", len(payload.Requests))
	if v.Reject(w, requestID) {
		return
	}
	book := h.Service.PreviewBook(payload.Requests)
	h.observeBook(book)
	api.Success(w, book, requestID)
}

func (h *Handler) handleRunBook(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeDecodeError(w, err, requestID)
		return
	}
	var payload bookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		writeDecodeError(w, err, requestID)
		return
	}
	v := shared.NewValidator()
	period, _ := v.Period("period", payload.Period)
	v.NonEmpty("requests", len(payload.Requests))
	if v.Reject(w, requestID) {
		return
	}

	async, _ := strconv.ParseBool(r.URL.Query().Get("async"))
	endpoint := "POST /books"
	if async {
		endpoint += "?async"
	}
	key := r.Header.Get(middleware.IdempotencyHeader)
	hash := middleware.RequestHash(raw)
	stored, found, err := h.Idempotency.Check(r.Context(), actor.TenantID, actor.UserID, endpoint, key, hash)
	if errors.Is(err, middleware.ErrIdempotencyConflict) {
		api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key was used with a different payload", requestID)
		return
	}
	if err != nil {
		requestctx.Logger(r.Context()).Warn("idempotency check failed", "err", err)
	}
	if found {
		api.Success(w, stored, requestID)
		return
	}

	if async {
		h.enqueueBook(w, r, actor, period, payload.Requests, endpoint, key, hash)
		return
	}

	var run payroll.BookRun
	execute := h.bookJob(actor, period, payload.Requests, &run)
	if h.Jobs != nil {
		_, err = h.Jobs.RunNow(r.Context(), jobs.JobLiquidationBook, actor.TenantID, execute)
	} else {
		_, err = execute(r.Context())
	}
	if err != nil {
		writeError(w, err, requestID)
		return
	}
	if err := h.Idempotency.Save(r.Context(), actor.TenantID, actor.UserID, endpoint, key, hash, run); err != nil {
		requestctx.Logger(r.Context()).Warn("idempotency save failed", "err", err)
	}
	api.Created(w, run, requestID)
}

func (h *Handler) enqueueBook(w http.ResponseWriter, r *http.Request, actor payroll.Actor, period legal.Period, requests []liquidation.Request, endpoint, key, hash string) {
	requestID := actor.RequestID
	if h.Jobs == nil {
		api.Fail(w, http.StatusServiceUnavailable, "jobs_unavailable", "background jobs are not configured", requestID)
		return
	}
	jobID, err := h.Jobs.Enqueue(r.Context(), jobs.JobLiquidationBook, actor.TenantID, h.bookJob(actor, period, requests, nil))
	if errors.Is(err, jobs.ErrQueueFull) {
		api.Fail(w, http.StatusServiceUnavailable, "queue_full", "book queue is full, retry later", requestID)
		return
	}
	if err != nil {
		requestctx.Logger(r.Context()).Error("enqueue book failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "book_enqueue_failed", "failed to enqueue book", requestID)
		return
	}
	accepted := map[string]string{"jobId": jobID, "status": jobs.StatusQueued}
	if err := h.Idempotency.Save(r.Context(), actor.TenantID, actor.UserID, endpoint, key, hash, accepted); err != nil {
		requestctx.Logger(r.Context()).Warn("idempotency save failed", "err", err)
	}
	api.Accepted(w, accepted, requestID)
}

// bookJob runs the book and reports its summary as job details. The full run is
// copied to out when the caller waits for it.
func (h *Handler) bookJob(actor payroll.Actor, period legal.Period, requests []liquidation.Request, out *payroll.BookRun) jobs.Func {
	return func(ctx context.Context) (any, error) {
		run, err := h.Service.RunBook(ctx, actor, period, requests)
		if err != nil {
			return nil, err
		}
		h.observeBook(run.Book)
		if out != nil {
			*out = run
		}
		return bookResponse{ID: run.ID, Period: run.Period, Saved: run.Saved, Summary: run.Book.Summary}, nil
	}
}

func (h *Handler) observe(err error, warnings []liquidation.Warning) {
	if h.Metrics == nil {
		return
	}
	h.Metrics.RecordLiquidation(liquidation.ErrorCode(err), len(warnings))
}

func (h *Handler) observeBook(book liquidation.Book) {
	if h.Metrics == nil {
		return
	}
	for _, entry := range book.Entries {
		if entry.Error != nil {
			h.Metrics.RecordLiquidation(entry.Error.Code, 0)
			continue
		}
		h.Metrics.RecordLiquidation("", len(entry.Result.Warnings))
	}
}

func actorFrom(w http.ResponseWriter, r *http.Request) (payroll.Actor, bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return payroll.Actor{}, false
	}
	return payroll.Actor{
		TenantID:  user.TenantID,
		UserID:    user.UserID,
		RequestID: middleware.GetRequestID(r.Context()),
		IP:        middleware.ClientIP(r),
	}, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDecodeError(w, err, middleware.GetRequestID(r.Context()))
		return false
	}
	return true
}

func writeDecodeError(w http.ResponseWriter, err error, requestID string) {
	var invalid *liquidation.InvalidInputError
	if errors.As(err, &invalid) {
		writeError(w, err, requestID)
		return
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", requestID)
		return
	}
	api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
}

// writeError maps the engine's error taxonomy onto the envelope.
func writeError(w http.ResponseWriter, err error, requestID string) {
	var invalid *liquidation.InvalidInputError
	var unknown *liquidation.UnknownPeriodError
	var negative *liquidation.NegativeNetSalaryError
	switch {
	case errors.As(err, &invalid):
		api.FailWithDetails(w, http.StatusBadRequest, liquidation.CodeInvalidInput, invalid.Error(),
			map[string]string{"field": invalid.Field, "reason": invalid.Reason}, requestID)
	case errors.Is(err, payroll.ErrEmptyBook):
		api.FailWithDetails(w, http.StatusBadRequest, liquidation.CodeInvalidInput, err.Error(),
			map[string]string{"field": "requests", "reason": "must not be empty"}, requestID)
	case errors.As(err, &unknown):
		api.FailWithDetails(w, http.StatusUnprocessableEntity, liquidation.CodeUnknownPeriod, unknown.Error(),
			map[string]string{"period": unknown.Period.String()}, requestID)
	case errors.As(err, &negative):
		api.FailWithDetails(w, http.StatusUnprocessableEntity, liquidation.CodeNegativeNetSalary, negative.Error(),
			map[string]string{"gross": negative.Gross.String(), "deductions": negative.Deductions.String()}, requestID)
	default:
		slog.Error("liquidation failed", "err", err, "requestId", requestID)
		api.Fail(w, http.StatusInternalServerError, liquidation.CodeEngineDefect, "liquidation could not be computed", requestID)
	}
}
