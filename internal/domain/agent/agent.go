// Package agent runs the keyword pipeline: news context, LLM expansion,
// cleanup and boolean query construction.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hashicorp/go-multierror"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/socialwatch/searchagent/internal/clients/news"
	"github.com/socialwatch/searchagent/internal/clients/ollama"
	"github.com/socialwatch/searchagent/internal/domain/history"
	"github.com/socialwatch/searchagent/internal/keywords"
	"github.com/socialwatch/searchagent/internal/metrics"
	"github.com/socialwatch/searchagent/internal/prompts"
	"github.com/socialwatch/searchagent/internal/telemetry"
)

// MaxTopicLength bounds the topic in runes.
const MaxTopicLength = 512

var (
	ErrInvalidInput = errors.New("invalid query input")
	ErrUpstream     = errors.New("keyword generation unavailable")
)

// ValidationError lists every problem with a QueryInput.
type ValidationError struct {
	err *multierror.Error
}

func (e *ValidationError) Error() string {
	return e.err.Error()
}

// Problems returns the individual validation failures.
func (e *ValidationError) Problems() []string {
	out := make([]string, 0, len(e.err.Errors))
	for _, err := range e.err.Errors {
		out = append(out, err.Error())
	}
	return out
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// QueryInput is a pipeline request. An empty Mode selects the service default.
type QueryInput struct {
	Topic string
	Mode  string
}

// Result is the pipeline output.
type Result struct {
	ID           string
	Topic        string
	Mode         keywords.Mode
	PromptKind   prompts.Kind
	Keywords     []string
	BooleanQuery string
	Combinations []string
	NewsKeywords []string
	ContextUsed  bool
	Duration     time.Duration
}

// Service runs keyword queries.
type Service interface {
	Query(ctx context.Context, input QueryInput) (Result, error)
}

// Options wires the pipeline's collaborators. News, Generator and Prompts
// are required.
type Options struct {
	News        news.Searcher
	Generator   ollama.Generator
	Prompts     *prompts.Set
	History     history.Service
	Metrics     metrics.Recorder
	Logger      *slog.Logger
	DefaultMode keywords.Mode
}

// NewService builds the pipeline service.
func NewService(opts Options) (Service, error) {
	if opts.News == nil {
		return nil, errors.New("agent: news searcher is required")
	}
	if opts.Generator == nil {
		return nil, errors.New("agent: generator is required")
	}
	if opts.Prompts == nil {
		return nil, errors.New("agent: prompts are required")
	}

	mode := opts.DefaultMode
	if mode == "" {
		mode = keywords.ModeOr
	}
	if _, err := keywords.ParseMode(string(mode)); err != nil {
		return nil, fmt.Errorf("agent: default mode: %w", err)
	}

	hist := opts.History
	if hist == nil {
		hist = history.NewService(history.NullRepository{})
	}
	rec := opts.Metrics
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	return &service{
		news:        opts.News,
		generator:   opts.Generator,
		prompts:     opts.Prompts,
		history:     hist,
		metrics:     rec,
		logger:      log,
		defaultMode: mode,
		tracer:      telemetry.Tracer("github.com/socialwatch/searchagent/internal/domain/agent"),
	}, nil
}

type service struct {
	news        news.Searcher
	generator   ollama.Generator
	prompts     *prompts.Set
	history     history.Service
	metrics     metrics.Recorder
	logger      *slog.Logger
	defaultMode keywords.Mode
	tracer      trace.Tracer
}

func (s *service) Query(ctx context.Context, input QueryInput) (Result, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "agent.query")
	defer span.End()

	topic, mode, err := s.validate(input)
	if err != nil {
		span.SetStatus(codes.Error, "invalid input")
		s.metrics.ObserveQuery(metrics.OutcomeInvalid, "", 0, time.Since(start))
		return Result{}, err
	}
	kind := prompts.KindFor(topic)
	span.SetAttributes(
		attribute.String("agent.mode", string(mode)),
		attribute.String("agent.prompt_kind", string(kind)),
	)

	found := s.fetchNews(ctx, topic)
	s.logger.Info("initial keywords",
		"topic", topic,
		"keywords", len(found.Keywords),
		"news_content", len(found.Content),
	)

	promptContext := buildContext(found)
	rendered, err := s.prompts.Render(topic, promptContext)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render prompt")
		s.metrics.ObserveQuery(metrics.OutcomeFailed, string(kind), 0, time.Since(start))
		return Result{}, fmt.Errorf("agent: %w", err)
	}

	refined, err := s.generate(ctx, rendered.Text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate")
		s.metrics.IncUpstreamError(metrics.UpstreamOllama)
		s.metrics.ObserveQuery(metrics.OutcomeFailed, string(kind), 0, time.Since(start))
		s.logger.Error("keyword generation failed", "topic", topic, "err", err)
		return Result{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	query, err := keywords.BuildQuery(refined, mode)
	if err != nil {
		return Result{}, fmt.Errorf("agent: %w", err)
	}

	result := Result{
		Topic:        topic,
		Mode:         mode,
		PromptKind:   rendered.Kind,
		Keywords:     refined,
		BooleanQuery: query,
		NewsKeywords: found.Keywords,
		ContextUsed:  promptContext != "",
	}
	if mode == keywords.ModeCombo {
		result.Combinations = keywords.Combinations(refined)
	}
	if result.Keywords == nil {
		result.Keywords = []string{}
	}
	result.Duration = time.Since(start)

	saved, err := s.history.Record(ctx, history.Record{
		Topic:        result.Topic,
		Mode:         string(result.Mode),
		PromptKind:   string(result.PromptKind),
		Keywords:     result.Keywords,
		BooleanQuery: result.BooleanQuery,
		NewsKeywords: result.NewsKeywords,
		ContextUsed:  result.ContextUsed,
		Duration:     result.Duration,
	})
	switch {
	case err == nil:
		result.ID = saved.ID
	case errors.Is(err, history.ErrNotImplemented):
		// history disabled
	default:
		s.metrics.IncUpstreamError(metrics.UpstreamStore)
		s.logger.Warn("failed to store query record", "topic", topic, "err", err)
	}

	span.SetAttributes(attribute.Int("agent.keywords", len(result.Keywords)))
	s.metrics.ObserveQuery(metrics.OutcomeOK, string(kind), len(result.Keywords), result.Duration)
	s.logger.Info("completed processing",
		"topic", topic,
		"keywords", len(result.Keywords),
		"mode", string(mode),
		"duration", result.Duration,
	)
	return result, nil
}

func (s *service) validate(input QueryInput) (string, keywords.Mode, error) {
	var merr *multierror.Error

	topic := strings.TrimSpace(input.Topic)
	switch {
	case topic == "":
		merr = multierror.Append(merr, errors.New("topic is required"))
	case utf8.RuneCountInString(topic) > MaxTopicLength:
		merr = multierror.Append(merr, fmt.Errorf("topic must be at most %d characters", MaxTopicLength))
	}

	mode := s.defaultMode
	if strings.TrimSpace(input.Mode) != "" {
		parsed, err := keywords.ParseMode(input.Mode)
		if err != nil {
			merr = multierror.Append(merr, errors.New("mode must be one of OR, AND, COMBO"))
		}
		mode = parsed
	}

	if merr != nil {
		merr.ErrorFormat = joinProblems
		return "", "", &ValidationError{err: merr}
	}
	return topic, mode, nil
}

func joinProblems(errs []error) string {
	parts := make([]string, len(errs))
	for i, err := range errs {
		parts[i] = err.Error()
	}
	return strings.Join(parts, "; ")
}

// fetchNews never fails the pipeline; an unusable answer means no context.
func (s *service) fetchNews(ctx context.Context, topic string) news.Result {
	ctx, span := s.tracer.Start(ctx, "agent.news")
	defer span.End()

	res, err := s.news.Search(ctx, topic)
	switch {
	case err == nil:
		span.SetAttributes(attribute.Int("news.keywords", len(res.Keywords)))
		return res
	case errors.Is(err, news.ErrNotFound), errors.Is(err, news.ErrNoContent):
		s.logger.Debug("no news context", "topic", topic, "reason", err)
	default:
		span.RecordError(err)
		s.metrics.IncUpstreamError(metrics.UpstreamNews)
		s.logger.Warn("news lookup failed; continuing without context", "topic", topic, "err", err)
	}
	return news.Result{}
}

func (s *service) generate(ctx context.Context, prompt string) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "agent.generate")
	defer span.End()

	out, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return keywords.ParseGenerated(out), nil
}

// buildContext prefers the extracted keywords and falls back to the raw news
// text when none were found.
func buildContext(res news.Result) string {
	if res.Empty() {
		return ""
	}
	if len(res.Keywords) > 0 {
		return strings.Join(res.Keywords, ", ")
	}
	return res.Content
}
