package metrics

import (
	"testing"
	"time"
)

func TestCollectorSnapshot(t *testing.T) {
	c := New()
	c.Record(200, 10*time.Millisecond)
	c.Record(500, 30*time.Millisecond)
	c.Record(429, 0)
	c.RecordLiquidation("", 2)
	c.RecordLiquidation("", 0)
	c.RecordLiquidation("unknown_period", 0)
	c.RecordLiquidation("something_else", 0)

	snap := c.Snapshot()
	if snap["requestsTotal"] != uint64(3) || snap["errorsTotal"] != uint64(1) || snap["rateLimitedTotal"] != uint64(1) {
		t.Fatalf("unexpected request counters: %v", snap)
	}
	if snap["avgDurationMs"] != float64(40)/3 {
		t.Fatalf("unexpected average: %v", snap["avgDurationMs"])
	}
	if snap["liquidationsTotal"] != uint64(2) || snap["warningsTotal"] != uint64(2) {
		t.Fatalf("unexpected liquidation counters: %v", snap)
	}
	errs := snap["liquidationErrors"].(map[string]uint64)
	if errs["unknown_period"] != 1 || errs["engine_defect"] != 1 || errs["invalid_input"] != 0 {
		t.Fatalf("unexpected error counters: %v", errs)
	}
}
