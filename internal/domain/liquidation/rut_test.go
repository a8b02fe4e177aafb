package liquidation

import (
	"errors"
	"testing"
)

func TestNormalizeRUT(t *testing.T) {
	cases := map[string]string{
		"12.345.678-5": "12345678-5",
		"12345678-5":   "12345678-5",
		"123456785":    "12345678-5",
		"11.111.111-1": "11111111-1",
		"10.000.013-k": "10000013-K",
		"1-9":          "1-9",
		"0012345678-5": "12345678-5",
	}
	for raw, want := range cases {
		got, err := NormalizeRUT(raw)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", raw, err)
		}
		if got != want {
			t.Fatalf("%s: expected %s, got %s", raw, want, got)
		}
	}
}

func TestNormalizeRUTRejects(t *testing.T) {
	for _, raw := range []string{"", "5", "12.345.678-9", "12.3A5.678-5", "0-0", "1234567890-1"} {
		_, err := NormalizeRUT(raw)
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%q: expected invalid input, got %v", raw, err)
		}
	}
}
