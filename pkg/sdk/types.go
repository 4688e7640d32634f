package supportrag

import "github.com/kailas-cloud/supportrag/internal/usecase/answer"

// Knowledge base names reported in Answer.KnowledgeBase.
const (
	KnowledgeBaseChangelog   = "changelog"
	KnowledgeBaseUserReviews = "user-reviews"
)

// SubQuery is one search the analyzer derived from the question.
type SubQuery struct {
	Intent string
	Query  string
}

// Answer is the reply plus how it was produced.
type Answer struct {
	Text string
	// Resolved is false only when the changelog had no answer and escalation was impossible.
	Resolved      bool
	Escalated     bool
	Iterations    int
	KnowledgeBase string
	SubQueries    []SubQuery
	ChunkIDs      []string
}

func answerFromResult(r answer.Result) Answer {
	queries := make([]SubQuery, len(r.Plan.Queries))
	for i, q := range r.Plan.Queries {
		queries[i] = SubQuery{Intent: q.Intent, Query: q.Query}
	}
	return Answer{
		Text:          r.Answer,
		Resolved:      r.Resolved,
		Escalated:     r.Escalated,
		Iterations:    r.Iterations,
		KnowledgeBase: r.KnowledgeBase,
		SubQueries:    queries,
		ChunkIDs:      r.ChunkIDs,
	}
}
