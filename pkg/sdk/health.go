package supportrag

import (
	"context"
	"slices"
	"strings"

	healthuc "github.com/kailas-cloud/supportrag/internal/usecase/health"
)

// HealthStatus is the state of the store and both knowledge base indices.
// Checks maps "database", "index:changelog" and "index:user-reviews" to "ok" or "error".
type HealthStatus struct {
	Status string // "ok", "degraded" or "error"
	Checks map[string]string
}

// Ready reports whether questions can be answered: the database is reachable
// and every knowledge base index exists.
func (h HealthStatus) Ready() bool {
	for name, v := range h.Checks {
		if (name == "database" || strings.HasPrefix(name, "index:")) && v != string(healthuc.CheckOK) {
			return false
		}
	}
	return h.Status != string(healthuc.Unhealthy)
}

// Failing returns the names of failed checks in sorted order.
func (h HealthStatus) Failing() []string {
	var out []string
	for name, v := range h.Checks {
		if v != string(healthuc.CheckOK) {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

// Health checks the database and both knowledge base indices.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	h := HealthStatus{Status: string(report.Status), Checks: checks}
	if !h.Ready() {
		c.obs.unready(h.Failing())
	}
	return h
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
