package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   atomic.Uint64
	errorRequests   atomic.Uint64
	rateLimited     atomic.Uint64
	totalDurationMs atomic.Uint64

	liquidations  atomic.Uint64
	invalidInput  atomic.Uint64
	unknownPeriod atomic.Uint64
	negativeNet   atomic.Uint64
	engineDefects atomic.Uint64
	warnings      atomic.Uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	c.totalRequests.Add(1)
	if status >= 500 {
		c.errorRequests.Add(1)
	}
	if status == 429 {
		c.rateLimited.Add(1)
	}
	c.totalDurationMs.Add(uint64(duration.Milliseconds()))
}

// RecordLiquidation counts one engine call by its error code; an empty code is a
// successful liquidación carrying the given number of warnings.
func (c *Collector) RecordLiquidation(code string, warnings int) {
	switch code {
	case "":
		c.liquidations.Add(1)
		c.warnings.Add(uint64(warnings))
	case "invalid_input":
		c.invalidInput.Add(1)
	case "unknown_period":
		c.unknownPeriod.Add(1)
	case "negative_net_salary":
		c.negativeNet.Add(1)
	default:
		c.engineDefects.Add(1)
	}
}

func (c *Collector) Snapshot() map[string]any {
	total := c.totalRequests.Load()
	totalMs := c.totalDurationMs.Load()
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":     total,
		"errorsTotal":       c.errorRequests.Load(),
		"rateLimitedTotal":  c.rateLimited.Load(),
		"avgDurationMs":     avg,
		"totalDurationMs":   totalMs,
		"liquidationsTotal": c.liquidations.Load(),
		"warningsTotal":     c.warnings.Load(),
		"liquidationErrors": map[string]uint64{
			"invalid_input":       c.invalidInput.Load(),
			"unknown_period":      c.unknownPeriod.Load(),
			"negative_net_salary": c.negativeNet.Load(),
			"engine_defect":       c.engineDefects.Load(),
		},
	}
}
