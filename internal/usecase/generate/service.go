// Package generate turns retrieved context into a reply and classifies it.
package generate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/supportrag/internal/domain/answer"
	"github.com/kailas-cloud/supportrag/internal/domain/contextset"
	"github.com/kailas-cloud/supportrag/internal/logger"
)

// Mode selects how the changelog pass reports a miss.
type Mode string

const (
	// ModeSentinel expects the literal NOT FOUND reply.
	ModeSentinel Mode = "sentinel"
	// ModeStructured asks for a {found, answer} JSON verdict.
	ModeStructured Mode = "structured"
)

// VerdictSchemaName names the structured verdict output.
const VerdictSchemaName = "changelog_verdict"

// ParseMode validates a mode name; empty means sentinel.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeSentinel:
		return ModeSentinel, nil
	case ModeStructured:
		return ModeStructured, nil
	default:
		return "", fmt.Errorf("unknown verdict mode %q", s)
	}
}

// Service generates answers.
type Service struct {
	chat ChatModel
	mode Mode
}

// New creates a generator.
func New(chat ChatModel, mode Mode) *Service {
	if mode == "" {
		mode = ModeSentinel
	}
	return &Service{chat: chat, mode: mode}
}

// Generate answers question from set. Only an iteration 0 miss is unresolved.
func (s *Service) Generate(
	ctx context.Context, question string, set contextset.Set, iteration int,
) (answer.Outcome, error) {
	messages := Messages(question, set, iteration, s.mode)
	log := logger.FromContext(ctx)

	if iteration == 0 && s.mode == ModeStructured {
		var v answer.Verdict
		if _, err := s.chat.CompleteStructured(ctx, messages, VerdictSchemaName, &v); err != nil {
			return answer.Outcome{}, fmt.Errorf("generate verdict: %w", err)
		}
		out := answer.FromVerdict(v, iteration)
		log.Debug("verdict generated", zap.Bool("found", v.Found), zap.Int("context_chunks", set.Len()))
		return out, nil
	}

	c, err := s.chat.Complete(ctx, messages)
	if err != nil {
		return answer.Outcome{}, fmt.Errorf("generate answer: %w", err)
	}
	out := answer.Classify(c.Text, iteration)
	log.Debug("answer generated",
		zap.Int("iteration", iteration),
		zap.Bool("resolved", out.Resolved),
		zap.Int("context_chunks", set.Len()),
	)
	return out, nil
}
