package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"remuneraciones/internal/domain/auth"
	"remuneraciones/internal/domain/legal"
	"remuneraciones/internal/domain/liquidation"
	"remuneraciones/internal/domain/payroll"
	"remuneraciones/internal/platform/config"
	"remuneraciones/internal/platform/metrics"
)

const testSecret = "server-test-secret"

func testRouter(t *testing.T, ready func(context.Context) error) (http.Handler, *metrics.Collector) {
	t.Helper()
	table, err := legal.Default()
	if err != nil {
		t.Fatalf("default tables: %v", err)
	}
	collector := metrics.New()
	cfg := config.Config{
		JWTSecret:          testSecret,
		MaxBodyBytes:       1 << 20,
		RateLimitPerMinute: 100,
		MetricsEnabled:     true,
	}
	service := payroll.NewService(liquidation.NewEngine(table), nil, nil, nil, 2)
	return newRouter(routes{cfg: cfg, ready: ready, table: table, payroll: service, metrics: collector}), collector
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	token, err := auth.GenerateToken(testSecret, auth.Claims{UserID: "u1", TenantID: "t1", RoleName: role}, time.Hour)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return "Bearer " + token
}

func TestHealthAndReadiness(t *testing.T) {
	router, _ := testRouter(t, func(context.Context) error { return errors.New("down") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected healthy response with request id, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when the database is down, got %d", rec.Code)
	}
}

func TestPreviewThroughFullStack(t *testing.T) {
	router, collector := testRouter(t, nil)
	body := `{
	  "employee": {"rut": "12.345.678-5", "firstName": "Ana", "lastName": "Rojas", "baseSalaryClp": "1000000",
	    "contractType": "indefinido", "afpCode": "HABITAT", "healthInstitutionCode": "FONASA",
	    "gratificationType": "none", "hasUnemploymentInsurance": true},
	  "period": {"year": 2025, "month": 3, "daysWorked": 30}
	}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/liquidations/preview", strings.NewReader(body))
	req.Header.Set("Authorization", bearer(t, auth.RolePayrollAnalyst))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var env struct {
		Data liquidation.Result `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.NetSalary.String() != "811300" {
		t.Fatalf("expected net 811300, got %s", env.Data.NetSalary)
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Fatal("expected secure headers on API responses")
	}

	snapshot := collector.Snapshot()
	if snapshot["liquidationsTotal"] != uint64(1) {
		t.Fatalf("expected one recorded liquidation, got %v", snapshot["liquidationsTotal"])
	}
}

func TestAnonymousRequestsAreRejected(t *testing.T) {
	router, _ := testRouter(t, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/legal-parameters", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestMetricsRequirePermission(t *testing.T) {
	router, _ := testRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Authorization", bearer(t, auth.RolePayrollAnalyst))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for analysts, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Authorization", bearer(t, auth.RoleAuditor))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for auditors, got %d", rec.Code)
	}
}

func TestJobsRoutesAbsentWithoutQueue(t *testing.T) {
	router, _ := testRouter(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/abc", nil)
	req.Header.Set("Authorization", bearer(t, auth.RolePayrollAdmin))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestLoadTablesFromDir(t *testing.T) {
	if _, err := loadTables(""); err != nil {
		t.Fatalf("embedded tables: %v", err)
	}
	if _, err := loadTables("../../domain/legal/tables"); err != nil {
		t.Fatalf("tables dir: %v", err)
	}
	if _, err := loadTables(t.TempDir() + "/missing"); err == nil {
		t.Fatal("expected an error for a missing directory")
	}
}

func TestNewWithDatabase(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	cfg := config.Load()
	cfg.DatabaseURL = dsn
	cfg.JWTSecret = testSecret
	cfg.MigrationsDir = "../../../migrations"

	app, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer app.Close()

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected ready, got %d", rec.Code)
	}
}
