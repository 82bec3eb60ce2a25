package agent_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socialwatch/searchagent/internal/clients/news"
	"github.com/socialwatch/searchagent/internal/domain/agent"
	"github.com/socialwatch/searchagent/internal/domain/history"
	"github.com/socialwatch/searchagent/internal/keywords"
	"github.com/socialwatch/searchagent/internal/logger"
	"github.com/socialwatch/searchagent/internal/metrics"
	"github.com/socialwatch/searchagent/internal/prompts"
	"github.com/socialwatch/searchagent/internal/storage/memory"
)

type fakeNews struct {
	result news.Result
	err    error
}

func (f fakeNews) Search(ctx context.Context, topic string) (news.Result, error) {
	return f.result, f.err
}

type fakeGenerator struct {
	mu      sync.Mutex
	output  string
	err     error
	prompts []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.output, f.err
}

func (f *fakeGenerator) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

type failingHistory struct{ history.NullRepository }

func (failingHistory) Save(ctx context.Context, r history.Record) (history.Record, error) {
	return history.Record{}, errors.New("database is locked")
}

type spyRecorder struct {
	metrics.NoopRecorder
	mu        sync.Mutex
	outcomes  []string
	upstreams []string
}

func (s *spyRecorder) ObserveQuery(outcome, kind string, n int, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes = append(s.outcomes, outcome)
}

func (s *spyRecorder) IncUpstreamError(upstream string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upstreams = append(s.upstreams, upstream)
}

func newService(t *testing.T, n news.Searcher, g *fakeGenerator, repo history.Repository, rec metrics.Recorder) agent.Service {
	t.Helper()
	set, err := prompts.Default()
	require.NoError(t, err)
	if repo == nil {
		repo = memory.NewHistoryRepository()
	}
	svc, err := agent.NewService(agent.Options{
		News:      n,
		Generator: g,
		Prompts:   set,
		History:   history.NewService(repo),
		Metrics:   rec,
		Logger:    logger.Discard(),
	})
	require.NoError(t, err)
	return svc
}

func TestQueryUsesNewsKeywordsAsContext(t *testing.T) {
	gen := &fakeGenerator{output: "1. India-US trade war\n2. #TrumpTariff (popular)\n3. \"India tariff\"\n"}
	repo := memory.NewHistoryRepository()
	svc := newService(t, fakeNews{result: news.Result{
		Keywords: []string{"India", "US", "Modi"},
		Content:  "India and US ... Modi",
	}}, gen, repo, nil)

	res, err := svc.Query(context.Background(), agent.QueryInput{Topic: "  Trump tariff "})
	require.NoError(t, err)

	assert.Equal(t, []string{"India-US trade war", "#TrumpTariff", "India tariff"}, res.Keywords)
	assert.Equal(t, `"India-US trade war" OR "#TrumpTariff" OR "India tariff"`, res.BooleanQuery)
	assert.Equal(t, keywords.ModeOr, res.Mode)
	assert.Equal(t, prompts.KindEnglish, res.PromptKind)
	assert.True(t, res.ContextUsed)
	assert.Contains(t, gen.lastPrompt(), `Context from news or API: "India, US, Modi"`)
	assert.Contains(t, gen.lastPrompt(), `The user query is: "Trump tariff"`)

	require.NotEmpty(t, res.ID)
	stored, err := repo.FindByID(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, "Trump tariff", stored.Topic)
	assert.Equal(t, res.Keywords, stored.Keywords)
	assert.Equal(t, []string{"India", "US", "Modi"}, stored.NewsKeywords)
}

func TestQueryFallsBackToNewsContent(t *testing.T) {
	gen := &fakeGenerator{output: "monsoon update"}
	svc := newService(t, fakeNews{result: news.Result{Content: "heavy rain expected"}}, gen, nil, nil)

	_, err := svc.Query(context.Background(), agent.QueryInput{Topic: "rain"})
	require.NoError(t, err)
	assert.Contains(t, gen.lastPrompt(), `Context from news or API: "heavy rain expected"`)
}

func TestQueryWithoutNews(t *testing.T) {
	for name, n := range map[string]fakeNews{
		"not found":  {err: news.ErrNotFound},
		"no content": {err: news.ErrNoContent},
		"down":       {err: errors.New("connection refused")},
	} {
		t.Run(name, func(t *testing.T) {
			gen := &fakeGenerator{output: "#Heatwave"}
			rec := &spyRecorder{}
			svc := newService(t, n, gen, nil, rec)

			res, err := svc.Query(context.Background(), agent.QueryInput{Topic: "heatwave"})
			require.NoError(t, err)
			assert.False(t, res.ContextUsed)
			assert.Equal(t, []string{"#Heatwave"}, res.Keywords)
			assert.Contains(t, gen.lastPrompt(), `Context from news or API: ""`)
			if name == "down" {
				assert.Equal(t, []string{metrics.UpstreamNews}, rec.upstreams)
			} else {
				assert.Empty(t, rec.upstreams)
			}
		})
	}
}

func TestQueryPicksIndianPrompt(t *testing.T) {
	gen := &fakeGenerator{output: "महंगाई\n#Inflation"}
	svc := newService(t, fakeNews{err: news.ErrNotFound}, gen, nil, nil)

	res, err := svc.Query(context.Background(), agent.QueryInput{Topic: "महंगाई"})
	require.NoError(t, err)
	assert.Equal(t, prompts.KindIndian, res.PromptKind)
	assert.Contains(t, gen.lastPrompt(), "15 to 20")
}

func TestQueryComboMode(t *testing.T) {
	gen := &fakeGenerator{output: "a\nb\nc"}
	svc := newService(t, fakeNews{err: news.ErrNotFound}, gen, nil, nil)

	res, err := svc.Query(context.Background(), agent.QueryInput{Topic: "x", Mode: "combo"})
	require.NoError(t, err)
	assert.Equal(t, keywords.ModeCombo, res.Mode)
	assert.Equal(t, []string{"a AND b", "a AND c", "b AND c"}, res.Combinations)
	assert.Equal(t, "(a AND b) OR (a AND c) OR (b AND c)", res.BooleanQuery)
}

func TestQueryEmptyGeneration(t *testing.T) {
	gen := &fakeGenerator{output: "\n\n"}
	svc := newService(t, fakeNews{err: news.ErrNotFound}, gen, nil, nil)

	res, err := svc.Query(context.Background(), agent.QueryInput{Topic: "x"})
	require.NoError(t, err)
	assert.NotNil(t, res.Keywords)
	assert.Empty(t, res.Keywords)
	assert.Empty(t, res.BooleanQuery)
}

func TestQueryValidation(t *testing.T) {
	rec := &spyRecorder{}
	gen := &fakeGenerator{}
	svc := newService(t, fakeNews{}, gen, nil, rec)

	_, err := svc.Query(context.Background(), agent.QueryInput{Topic: "   ", Mode: "XOR"})
	require.Error(t, err)
	assert.ErrorIs(t, err, agent.ErrInvalidInput)

	var verr *agent.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"topic is required", "mode must be one of OR, AND, COMBO"}, verr.Problems())
	assert.Equal(t, "topic is required; mode must be one of OR, AND, COMBO", err.Error())

	_, err = svc.Query(context.Background(), agent.QueryInput{Topic: strings.Repeat("x", agent.MaxTopicLength+1)})
	assert.ErrorIs(t, err, agent.ErrInvalidInput)

	assert.Empty(t, gen.prompts)
	assert.Equal(t, []string{metrics.OutcomeInvalid, metrics.OutcomeInvalid}, rec.outcomes)
}

func TestQueryGenerationFailure(t *testing.T) {
	rec := &spyRecorder{}
	gen := &fakeGenerator{err: errors.New("ollama: status 500")}
	svc := newService(t, fakeNews{err: news.ErrNotFound}, gen, nil, rec)

	_, err := svc.Query(context.Background(), agent.QueryInput{Topic: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, agent.ErrUpstream)
	assert.Equal(t, []string{metrics.UpstreamOllama}, rec.upstreams)
	assert.Equal(t, []string{metrics.OutcomeFailed}, rec.outcomes)
}

func TestQuerySurvivesHistoryFailure(t *testing.T) {
	rec := &spyRecorder{}
	gen := &fakeGenerator{output: "kw"}
	svc := newService(t, fakeNews{err: news.ErrNotFound}, gen, failingHistory{}, rec)

	res, err := svc.Query(context.Background(), agent.QueryInput{Topic: "x"})
	require.NoError(t, err)
	assert.Empty(t, res.ID)
	assert.Equal(t, []string{"kw"}, res.Keywords)
	assert.Equal(t, []string{metrics.UpstreamStore}, rec.upstreams)
}

func TestNewServiceRequiresCollaborators(t *testing.T) {
	set, err := prompts.Default()
	require.NoError(t, err)

	_, err = agent.NewService(agent.Options{Generator: &fakeGenerator{}, Prompts: set})
	assert.Error(t, err)
	_, err = agent.NewService(agent.Options{News: fakeNews{}, Prompts: set})
	assert.Error(t, err)
	_, err = agent.NewService(agent.Options{News: fakeNews{}, Generator: &fakeGenerator{}})
	assert.Error(t, err)
	_, err = agent.NewService(agent.Options{News: fakeNews{}, Generator: &fakeGenerator{}, Prompts: set, DefaultMode: "NAND"})
	assert.Error(t, err)
}
