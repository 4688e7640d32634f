package budget

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// Checker is the part of Tracker that provider decorators depend on.
type Checker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
	RemainingDaily() int64
	RemainingMonthly() int64
}

// Gate puts a Checker in front of a provider and mirrors what is left of the
// budget into a gauge labelled by provider and period.
// A nil *Gate lets every call through and records nothing.
type Gate struct {
	checker   Checker
	remaining *prometheus.GaugeVec
	provider  string
}

// NewGate returns nil when c is nil, so callers can keep an unconditional gate.
func NewGate(c Checker, provider string, remaining *prometheus.GaugeVec) *Gate {
	if c == nil {
		return nil
	}
	return &Gate{checker: c, remaining: remaining, provider: provider}
}

// Allow reports whether another provider call fits into the budget.
func (g *Gate) Allow(ctx context.Context) error {
	if g == nil {
		return nil
	}
	return g.checker.Check(ctx)
}

// Spend records tokens burned by a finished call.
func (g *Gate) Spend(tokens int) {
	if g == nil || tokens <= 0 {
		return
	}
	g.checker.Record(int64(tokens))
	if g.remaining == nil {
		return
	}
	g.remaining.WithLabelValues(g.provider, "daily").Set(float64(g.checker.RemainingDaily()))
	g.remaining.WithLabelValues(g.provider, "monthly").Set(float64(g.checker.RemainingMonthly()))
}
