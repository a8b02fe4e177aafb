package legalhandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"remuneraciones/internal/domain/auth"
	"remuneraciones/internal/domain/legal"
	"remuneraciones/internal/platform/indicators"
	"remuneraciones/internal/transport/http/api"
	"remuneraciones/internal/transport/http/middleware"
	"remuneraciones/internal/transport/http/shared"
)

type Table interface {
	Windows() []legal.Window
	Resolve(period legal.Period) (legal.ParameterSet, error)
}

// IndicatorSource fetches UF and UTM for a date. *indicators.Client implements it.
type IndicatorSource interface {
	Values(ctx context.Context, date time.Time) (indicators.Values, error)
}

type Handler struct {
	Table      Table
	Indicators IndicatorSource
	Perms      middleware.PermissionChecker
}

func NewHandler(table Table, source IndicatorSource, perms middleware.PermissionChecker) *Handler {
	return &Handler{Table: table, Indicators: source, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermLegalRead, h.Perms)).Get("/legal-parameters", h.handleList)
	r.With(middleware.RequirePermission(auth.PermLegalRead, h.Perms)).Get("/legal-parameters/{period}", h.handleResolve)
	if h.Indicators != nil {
		r.With(middleware.RequirePermission(auth.PermLegalRead, h.Perms)).Get("/indicators", h.handleIndicators)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	api.Success(w, h.Table.Windows(), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	period, _ := v.Period("period", chi.URLParam(r, "period"))
	pin := false
	if raw := r.URL.Query().Get("pinIndicators"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			v.Add("pinIndicators", "must be a boolean")
		}
		pin = parsed
	}
	if pin && h.Indicators == nil {
		v.Add("pinIndicators", "indicators service is not configured")
	}
	if v.Reject(w, requestID) {
		return
	}
	set, err := h.Table.Resolve(period)
	if errors.Is(err, legal.ErrUnknownPeriod) {
		api.FailWithDetails(w, http.StatusUnprocessableEntity, "unknown_period", err.Error(),
			map[string]string{"period": period.String()}, requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "legal_parameters_failed", "failed to resolve parameters", requestID)
		return
	}
	if pin {
		lastDay := time.Date(period.Year, time.Month(period.Month), period.DaysInMonth(), 0, 0, 0, 0, time.UTC)
		values, ok := h.fetch(w, r, lastDay)
		if !ok {
			return
		}
		if set, err = set.WithIndicators(values.UF, values.UTM); err != nil {
			api.Fail(w, http.StatusBadGateway, "indicators_invalid", err.Error(), requestID)
			return
		}
	}
	api.Success(w, set, requestID)
}

func (h *Handler) handleIndicators(w http.ResponseWriter, r *http.Request) {
	date := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{
				{Field: "date", Reason: "must be a date in YYYY-MM-DD format"},
			})
			return
		}
		date = parsed
	}
	values, ok := h.fetch(w, r, date)
	if !ok {
		return
	}
	api.Success(w, values, middleware.GetRequestID(r.Context()))
}

func (h *Handler) fetch(w http.ResponseWriter, r *http.Request, date time.Time) (indicators.Values, bool) {
	values, err := h.Indicators.Values(r.Context(), date)
	if err != nil {
		slog.Warn("indicators fetch failed", "err", err, "date", date.Format(time.DateOnly))
		api.Fail(w, http.StatusBadGateway, "indicators_unavailable", "indicators service unavailable", middleware.GetRequestID(r.Context()))
		return indicators.Values{}, false
	}
	return values, true
}
