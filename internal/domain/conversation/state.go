// Package conversation models the per-question state machine driven by the answer controller.
package conversation

import (
	"errors"
	"fmt"

	"github.com/kailas-cloud/supportrag/internal/domain/answer"
	"github.com/kailas-cloud/supportrag/internal/domain/contextset"
	"github.com/kailas-cloud/supportrag/internal/domain/knowledge"
	"github.com/kailas-cloud/supportrag/internal/domain/plan"
)

// Step is a controller state.
type Step string

// Controller states.
const (
	StepAnalyze  Step = "ANALYZE"
	StepRetrieve Step = "RETRIEVE"
	StepGenerate Step = "GENERATE"
	StepDone     Step = "DONE"
)

// MaxIteration is the last iteration the controller may reach.
const MaxIteration = 1

// Policy decides what happens to retrieved context on escalation.
type Policy string

// Context policies.
const (
	// PolicyReset replaces the context with the new round's chunks.
	PolicyReset Policy = "reset"
	// PolicyAccumulate merges rounds, still unique by chunk id.
	PolicyAccumulate Policy = "accumulate"
)

// ParsePolicy validates a policy name; empty means reset.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyReset:
		return PolicyReset, nil
	case PolicyAccumulate:
		return PolicyAccumulate, nil
	default:
		return "", fmt.Errorf("unknown context policy %q", s)
	}
}

// ErrUnexpectedDelta is returned when a delta does not match the current step.
var ErrUnexpectedDelta = errors.New("delta does not match step")

// State is one immutable snapshot of a question's progress. Apply returns a new value.
type State struct {
	Question  string
	Plan      plan.Plan
	Context   contextset.Set
	Answer    string
	Resolved  bool
	Iteration int
	Next      Step
	// Generations counts GENERATE visits.
	Generations int
}

// New starts a question at ANALYZE.
func New(question string) State {
	return State{Question: question, Next: StepAnalyze}
}

// Base is the knowledge base searched at the current iteration.
func (s State) Base() knowledge.Base { return knowledge.ForIteration(s.Iteration) }

// Done reports whether the machine reached its terminal state.
func (s State) Done() bool { return s.Next == StepDone }

// Delta is the partial result a stage hands back. Exactly one field is set.
type Delta struct {
	Plan    *plan.Plan
	Context *contextset.Set
	Outcome *answer.Outcome
}

// Planned wraps an analyzer result.
func Planned(p plan.Plan) Delta { return Delta{Plan: &p} }

// Retrieved wraps a retriever result.
func Retrieved(s contextset.Set) Delta { return Delta{Context: &s} }

// Generated wraps a generator result.
func Generated(o answer.Outcome) Delta { return Delta{Outcome: &o} }

// Apply merges d into a copy of s and moves to the next step.
func (s State) Apply(d Delta, policy Policy) (State, error) {
	next := s
	switch s.Next {
	case StepAnalyze:
		if d.Plan == nil {
			return s, fmt.Errorf("%w: %s", ErrUnexpectedDelta, s.Next)
		}
		next.Plan = *d.Plan
		next.Next = StepRetrieve

	case StepRetrieve:
		if d.Context == nil {
			return s, fmt.Errorf("%w: %s", ErrUnexpectedDelta, s.Next)
		}
		if policy == PolicyAccumulate {
			next.Context = s.Context.Merge(*d.Context)
		} else {
			next.Context = *d.Context
		}
		next.Next = StepGenerate

	case StepGenerate:
		if d.Outcome == nil {
			return s, fmt.Errorf("%w: %s", ErrUnexpectedDelta, s.Next)
		}
		next.Answer = d.Outcome.Text
		next.Resolved = d.Outcome.Resolved
		next.Generations++
		if !d.Outcome.Resolved && s.Iteration < MaxIteration {
			next.Iteration++
			next.Next = StepRetrieve
		} else {
			next.Next = StepDone
		}

	default:
		return s, fmt.Errorf("%w: %s", ErrUnexpectedDelta, s.Next)
	}
	return next, nil
}
