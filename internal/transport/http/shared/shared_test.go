package shared

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"remuneraciones/internal/domain/legal"
)

func TestPage(t *testing.T) {
	cases := []struct {
		query  string
		limit  int
		offset int
		issues int
	}{
		{"", 50, 0, 0},
		{"?limit=10&offset=20", 10, 20, 0},
		{"?limit=9999", 500, 0, 0},
		{"?limit=-1&offset=-5", 50, 0, 2},
		{"?limit=abc", 50, 0, 1},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, "/liquidations"+tc.query, nil)
		v := NewValidator()
		page := v.Page(r.URL.Query(), 50, 500)
		if page.Limit != tc.limit || page.Offset != tc.offset {
			t.Fatalf("%q: expected %d/%d, got %d/%d", tc.query, tc.limit, tc.offset, page.Limit, page.Offset)
		}
		if len(v.Issues()) != tc.issues {
			t.Fatalf("%q: expected %d issues, got %v", tc.query, tc.issues, v.Issues())
		}
	}
}

func TestValidatorPeriod(t *testing.T) {
	v := NewValidator()
	period, ok := v.Period("period", "2025-03")
	if !ok || period != (legal.Period{Year: 2025, Month: 3}) || v.HasIssues() {
		t.Fatalf("unexpected result %v %v %v", period, ok, v.Issues())
	}

	v.Period("from", "")
	v.Period("to", "2025-3x")
	v.NonEmpty("requests", 0)
	issues := v.Issues()
	if len(issues) != 3 {
		t.Fatalf("expected three issues, got %v", issues)
	}
	if issues[0].Field != "from" || issues[1].Field != "requests" || issues[2].Field != "to" {
		t.Fatalf("expected issues sorted by field, got %v", issues)
	}
}

func TestValidatorReject(t *testing.T) {
	rec := httptest.NewRecorder()
	if NewValidator().Reject(rec, "r1") {
		t.Fatal("empty validator must not reject")
	}
	v := NewValidator()
	v.Add("period", "is required")
	if !v.Reject(rec, "r1") || rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 rejection, got %d", rec.Code)
	}
}
