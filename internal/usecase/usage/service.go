// Package usage reports token budgets of the embedding and chat providers.
package usage

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/supportrag/internal/domain/usage"
)

// Service handles usage reporting.
type Service struct {
	readers []BudgetReader
	now     func() time.Time
}

// New creates a Service. Nil readers are skipped; with none every report list is empty.
func New(readers ...BudgetReader) *Service {
	s := &Service{now: func() time.Time { return time.Now().UTC() }}
	for _, r := range readers {
		if r != nil {
			s.readers = append(s.readers, r)
		}
	}
	return s
}

// GetReports builds one report per budget scope for the given period.
func (s *Service) GetReports(_ context.Context, period domusage.Period) []domusage.Report {
	now := s.now()
	var start, end time.Time
	switch period {
	case domusage.PeriodMonth:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0)
	default:
		period = domusage.PeriodDay
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		end = start.Add(24 * time.Hour)
	}

	reports := make([]domusage.Report, 0, len(s.readers))
	for _, br := range s.readers {
		r := domusage.Report{
			Scope:       br.Scope(),
			Period:      period,
			PeriodStart: start.UnixMilli(),
			PeriodEnd:   end.UnixMilli(),
		}
		if period == domusage.PeriodMonth {
			r.Limit, r.Used, r.Remaining = br.MonthlyLimit(), br.MonthlyUsed(), br.RemainingMonthly()
		} else {
			r.Limit, r.Used, r.Remaining = br.DailyLimit(), br.DailyUsed(), br.RemainingDaily()
		}
		reports = append(reports, r)
	}
	return reports
}
