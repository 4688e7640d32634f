// Package plan holds the search plan produced by query analysis.
package plan

import "strings"

// OriginalIntent labels the fallback sub-query that echoes the question.
const OriginalIntent = "original"

// SubQuery is one restated search with an intent label.
type SubQuery struct {
	Intent string `json:"intent" description:"Short label for what this search looks for, e.g. bug_fix or feature."`
	Query  string `json:"query" description:"Search query to run against the knowledge base."`
}

// Plan is an ordered list of sub-queries.
type Plan struct {
	Queries []SubQuery `json:"queries" description:"One or more search queries that together cover the question."`
}

// Len returns the number of sub-queries.
func (p Plan) Len() int { return len(p.Queries) }

// Empty reports whether the plan has no sub-queries.
func (p Plan) Empty() bool { return len(p.Queries) == 0 }

// Fallback is the single-query plan that echoes the question.
func Fallback(question string) Plan {
	return Plan{Queries: []SubQuery{{Intent: OriginalIntent, Query: question}}}
}

// Normalize trims every sub-query, drops blank ones and exact duplicates, and keeps order.
func (p Plan) Normalize() Plan {
	seen := make(map[string]struct{}, len(p.Queries))
	out := make([]SubQuery, 0, len(p.Queries))
	for _, q := range p.Queries {
		q.Query = strings.TrimSpace(q.Query)
		q.Intent = strings.TrimSpace(q.Intent)
		if q.Query == "" {
			continue
		}
		if _, dup := seen[q.Query]; dup {
			continue
		}
		seen[q.Query] = struct{}{}
		out = append(out, q)
	}
	return Plan{Queries: out}
}

// OrFallback returns the normalized plan, or Fallback when nothing usable remains.
func (p Plan) OrFallback(question string) (Plan, bool) {
	n := p.Normalize()
	if n.Empty() {
		return Fallback(question), true
	}
	return n, false
}
