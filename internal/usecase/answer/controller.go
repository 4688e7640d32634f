// Package answer drives a question through analysis, retrieval and generation,
// escalating once from the changelog to user reviews.
package answer

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/kailas-cloud/supportrag/internal/domain"
	"github.com/kailas-cloud/supportrag/internal/domain/conversation"
	"github.com/kailas-cloud/supportrag/internal/domain/plan"
	"github.com/kailas-cloud/supportrag/internal/logger"
	"github.com/kailas-cloud/supportrag/internal/metrics"
)

const tracerName = "github.com/kailas-cloud/supportrag/internal/usecase/answer"

// Result is the final answer plus trace data for one question.
type Result struct {
	Answer        string
	Resolved      bool
	Iterations    int
	Escalated     bool
	KnowledgeBase string
	Plan          plan.Plan
	ChunkIDs      []string
}

// Option configures a Controller.
type Option func(*Controller)

// WithPolicy sets the context policy applied on escalation.
func WithPolicy(p conversation.Policy) Option {
	return func(c *Controller) { c.policy = p }
}

// WithMaxQuestionLength rejects longer questions (in runes). Zero disables the check.
func WithMaxQuestionLength(n int) Option {
	return func(c *Controller) { c.maxQuestionLen = n }
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(c *Controller) { c.tracer = t }
}

// Controller owns the per-question state machine. Safe for concurrent use;
// every call works on its own conversation.State.
type Controller struct {
	analyzer       Analyzer
	retriever      Retriever
	generator      Generator
	policy         conversation.Policy
	maxQuestionLen int
	tracer         trace.Tracer
}

// New wires the three stages.
func New(a Analyzer, r Retriever, g Generator, opts ...Option) *Controller {
	c := &Controller{
		analyzer:  a,
		retriever: r,
		generator: g,
		policy:    conversation.PolicyReset,
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ask answers question and returns only the reply text.
func (c *Controller) Ask(ctx context.Context, question string) (string, error) {
	res, err := c.Answer(ctx, question)
	if err != nil {
		return "", err
	}
	return res.Answer, nil
}

// Answer runs ANALYZE once, then RETRIEVE and GENERATE once per iteration.
func (c *Controller) Answer(ctx context.Context, question string) (Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Result{}, fmt.Errorf("%w: empty", domain.ErrInvalidQuestion)
	}
	if c.maxQuestionLen > 0 && utf8.RuneCountInString(question) > c.maxQuestionLen {
		return Result{}, fmt.Errorf("%w: longer than %d characters", domain.ErrInvalidQuestion, c.maxQuestionLen)
	}

	ctx, span := c.tracer.Start(ctx, "answer")
	defer span.End()

	ctx = logger.WithTrace(ctx)
	log := logger.FromContext(ctx)
	state := conversation.New(question)

	for !state.Done() {
		delta, err := c.step(ctx, state)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			metrics.QuestionsTotal.WithLabelValues(state.Base().String(), "error").Inc()
			return Result{}, err
		}

		prev := state
		if state, err = state.Apply(delta, c.policy); err != nil {
			return Result{}, fmt.Errorf("apply %s: %w", prev.Next, err)
		}

		if state.Iteration > prev.Iteration {
			metrics.EscalationsTotal.Inc()
			log.Info("changelog has no answer, escalating",
				zap.String("from", prev.Base().String()),
				zap.String("to", state.Base().String()),
			)
			span.AddEvent("escalate", trace.WithAttributes(attribute.String("knowledge_base", state.Base().String())))
		}
	}

	res := Result{
		Answer:        state.Answer,
		Resolved:      state.Resolved,
		Iterations:    state.Generations,
		Escalated:     state.Iteration > 0,
		KnowledgeBase: state.Base().String(),
		Plan:          state.Plan,
		ChunkIDs:      state.Context.IDs(),
	}

	status := "resolved"
	if !res.Resolved {
		status = "unresolved"
	}
	metrics.QuestionsTotal.WithLabelValues(res.KnowledgeBase, status).Inc()
	span.SetAttributes(
		attribute.String("knowledge_base", res.KnowledgeBase),
		attribute.Int("iterations", res.Iterations),
		attribute.Bool("resolved", res.Resolved),
	)
	return res, nil
}

// step runs the stage named by state.Next inside its own span.
func (c *Controller) step(ctx context.Context, state conversation.State) (conversation.Delta, error) {
	stage := strings.ToLower(string(state.Next))
	ctx, span := c.tracer.Start(ctx, stage, trace.WithAttributes(
		attribute.Int("iteration", state.Iteration),
		attribute.String("knowledge_base", state.Base().String()),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}()

	var (
		delta conversation.Delta
		err   error
	)
	switch state.Next {
	case conversation.StepAnalyze:
		var p plan.Plan
		p, err = c.analyzer.Analyze(ctx, state.Question)
		delta = conversation.Planned(p)
		span.SetAttributes(attribute.Int("sub_queries", p.Len()))
	case conversation.StepRetrieve:
		set, rerr := c.retriever.Retrieve(ctx, state.Plan, state.Iteration)
		err = rerr
		delta = conversation.Retrieved(set)
		span.SetAttributes(attribute.Int("chunks", set.Len()))
	case conversation.StepGenerate:
		out, gerr := c.generator.Generate(ctx, state.Question, state.Context, state.Iteration)
		err = gerr
		delta = conversation.Generated(out)
		span.SetAttributes(attribute.Bool("resolved", out.Resolved))
	default:
		return conversation.Delta{}, fmt.Errorf("%w: %s", conversation.ErrUnexpectedDelta, state.Next)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return conversation.Delta{}, fmt.Errorf("%s: %w", stage, err)
	}
	return delta, nil
}
