// Package usage describes token budget reports for the embedding and chat providers.
package usage

import "fmt"

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod validates a period name; empty means day.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodDay:
		return PeriodDay, nil
	case PeriodMonth:
		return PeriodMonth, nil
	default:
		return "", fmt.Errorf("unknown period %q", s)
	}
}

// Report is token usage of one provider scope for a period.
// Limit 0 means unlimited; Remaining is then -1.
type Report struct {
	Scope       string
	Period      Period
	PeriodStart int64 // unix millis
	PeriodEnd   int64 // unix millis
	Used        int64
	Limit       int64
	Remaining   int64
}

// Unlimited reports whether the scope has no limit for the period.
func (r Report) Unlimited() bool { return r.Limit == 0 }

// Exhausted reports whether a limited budget has nothing left.
func (r Report) Exhausted() bool { return r.Limit > 0 && r.Remaining <= 0 }
