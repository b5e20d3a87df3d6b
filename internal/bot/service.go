// Package bot answers Russian analytics questions over Telegram. The
// protocol is strict: one incoming message, one plain numeric reply, and any
// failure degrades to "0" rather than an error message.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/vidstat/vidstat/internal/nlq"
	"github.com/vidstat/vidstat/internal/observability"
)

type valueFetcher interface {
	FetchValue(ctx context.Context, query nlq.Query) (int64, error)
}

type Service struct {
	compiler nlq.Compiler
	repo     valueFetcher
	logger   *slog.Logger
	source   string
}

func NewService(compiler nlq.Compiler, repo valueFetcher, logger *slog.Logger, source string) *Service {
	if source == "" {
		source = "telegram"
	}
	return &Service{compiler: compiler, repo: repo, logger: logger, source: source}
}

// Answer resolves one question to its numeric reply. It never fails: any
// compile or query problem yields "0".
func (s *Service) Answer(ctx context.Context, text string) string {
	start := time.Now()

	text = strings.TrimSpace(text)
	if text == "" {
		return "0"
	}

	query, err := s.compiler.Compile(ctx, text)
	if err != nil {
		if errors.Is(err, nlq.ErrUnparseable) {
			s.logger.InfoContext(ctx, "question not recognized", slog.String("question", text))
		} else {
			s.logger.ErrorContext(ctx, "compile failed", slog.String("question", text), slog.String("error", err.Error()))
		}
		observability.IncrementUnparsedQuestion(s.source)
		return "0"
	}

	value, err := s.repo.FetchValue(ctx, query)
	if err != nil {
		s.logger.ErrorContext(ctx, "query failed",
			slog.String("intent", query.Intent),
			slog.String("error", err.Error()),
		)
		observability.IncrementAnswerFailure(s.source)
		return "0"
	}

	observability.ObserveQuestion(s.source, query.Intent, time.Since(start))
	s.logger.InfoContext(ctx, "question answered",
		slog.String("intent", query.Intent),
		slog.Int64("value", value),
		slog.String("duration", time.Since(start).String()),
	)
	return strconv.FormatInt(value, 10)
}
