package legalhandler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"remuneraciones/internal/domain/auth"
	"remuneraciones/internal/domain/legal"
	"remuneraciones/internal/platform/indicators"
	"remuneraciones/internal/transport/http/middleware"
)

type fakeSource struct {
	dates []time.Time
	err   error
}

func (f *fakeSource) Values(_ context.Context, date time.Time) (indicators.Values, error) {
	f.dates = append(f.dates, date)
	if f.err != nil {
		return indicators.Values{}, f.err
	}
	return indicators.Values{Date: date, UF: decimal.NewFromInt(39000), UTM: decimal.NewFromInt(68000)}, nil
}

func newRouter(t *testing.T) http.Handler {
	return newRouterWith(t, nil)
}

func newRouterWith(t *testing.T, source IndicatorSource) http.Handler {
	t.Helper()
	table, err := legal.Default()
	if err != nil {
		t.Fatalf("default tables: %v", err)
	}
	r := chi.NewRouter()
	NewHandler(table, source, auth.StaticPermissions(auth.RolePermissions)).RegisterRoutes(r)
	return r
}

func get(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: "u1", TenantID: "t1", RoleName: auth.RoleAuditor}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestListWindows(t *testing.T) {
	rec := get(t, newRouter(t), "/legal-parameters")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Data []legal.Window `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data) < 2 {
		t.Fatalf("expected the embedded windows, got %v", body.Data)
	}
}

func TestResolvePeriod(t *testing.T) {
	router := newRouter(t)
	rec := get(t, router, "/legal-parameters/2025-03")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Data legal.ParameterSet `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Version != "2025-01" {
		t.Fatalf("expected 2025-01, got %s", body.Data.Version)
	}

	if rec := get(t, router, "/legal-parameters/1999-01"); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for uncovered period, got %d", rec.Code)
	}
	if rec := get(t, router, "/legal-parameters/march"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed period, got %d", rec.Code)
	}
}

func TestResolvePinsIndicators(t *testing.T) {
	source := &fakeSource{}
	rec := get(t, newRouterWith(t, source), "/legal-parameters/2025-02?pinIndicators=true")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Data legal.ParameterSet `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Data.UFValueCLP.Equal(decimal.NewFromInt(39000)) || !body.Data.UTMValueCLP.Equal(decimal.NewFromInt(68000)) {
		t.Fatalf("expected pinned values, got %s %s", body.Data.UFValueCLP, body.Data.UTMValueCLP)
	}
	if len(source.dates) != 1 || source.dates[0].Day() != 28 {
		t.Fatalf("expected one fetch for the last day of February, got %v", source.dates)
	}
}

func TestPinWithoutSourceIsRejected(t *testing.T) {
	rec := get(t, newRouter(t), "/legal-parameters/2025-02?pinIndicators=true")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if rec := get(t, newRouter(t), "/indicators"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected route absent without a source, got %d", rec.Code)
	}
}

func TestIndicatorsEndpoint(t *testing.T) {
	source := &fakeSource{}
	router := newRouterWith(t, source)
	if rec := get(t, router, "/indicators?date=2025-03-10"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(source.dates) != 1 || source.dates[0].Format(time.DateOnly) != "2025-03-10" {
		t.Fatalf("unexpected fetch dates %v", source.dates)
	}
	if rec := get(t, router, "/indicators?date=10-03-2025"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a malformed date, got %d", rec.Code)
	}

	source.err = errors.New("upstream down")
	if rec := get(t, router, "/indicators"); rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 when the source fails, got %d", rec.Code)
	}
}
