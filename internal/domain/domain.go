package domain

import (
	"log/slog"

	"github.com/socialwatch/searchagent/internal/clients/news"
	"github.com/socialwatch/searchagent/internal/clients/ollama"
	"github.com/socialwatch/searchagent/internal/domain/agent"
	"github.com/socialwatch/searchagent/internal/domain/history"
	"github.com/socialwatch/searchagent/internal/keywords"
	"github.com/socialwatch/searchagent/internal/metrics"
	"github.com/socialwatch/searchagent/internal/prompts"
)

// Container wires domain services together.
type Container struct {
	Agent   agent.Service
	History history.Service
}

// Options configures the domain container.
type Options struct {
	News        news.Searcher
	Generator   ollama.Generator
	Prompts     *prompts.Set
	HistoryRepo history.Repository
	Metrics     metrics.Recorder
	Logger      *slog.Logger
	DefaultMode keywords.Mode
}

// New constructs a domain container with provided collaborators.
func New(opts Options) (Container, error) {
	historyRepo := opts.HistoryRepo
	if historyRepo == nil {
		historyRepo = history.NullRepository{}
	}
	historyService := history.NewService(historyRepo)

	agentService, err := agent.NewService(agent.Options{
		News:        opts.News,
		Generator:   opts.Generator,
		Prompts:     opts.Prompts,
		History:     historyService,
		Metrics:     opts.Metrics,
		Logger:      opts.Logger,
		DefaultMode: opts.DefaultMode,
	})
	if err != nil {
		return Container{}, err
	}

	return Container{
		Agent:   agentService,
		History: historyService,
	}, nil
}
