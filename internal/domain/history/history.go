package history

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotImplemented = errors.New("history repository: not implemented")
	ErrNotFound       = errors.New("query record not found")
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Record captures one run of the keyword pipeline.
type Record struct {
	ID           string        `json:"id"`
	Topic        string        `json:"topic"`
	Mode         string        `json:"mode"`
	PromptKind   string        `json:"prompt_kind"`
	Keywords     []string      `json:"keywords"`
	BooleanQuery string        `json:"boolean_query"`
	NewsKeywords []string      `json:"news_keywords"`
	ContextUsed  bool          `json:"context_used"`
	Duration     time.Duration `json:"duration_ns"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Repository abstracts query history persistence.
type Repository interface {
	Save(ctx context.Context, record Record) (Record, error)
	FindByID(ctx context.Context, id string) (Record, error)
	List(ctx context.Context, offset, limit int) ([]Record, error)
}

// NullRepository returns ErrNotImplemented for all operations.
type NullRepository struct{}

func (NullRepository) Save(ctx context.Context, record Record) (Record, error) {
	return Record{}, ErrNotImplemented
}

func (NullRepository) FindByID(ctx context.Context, id string) (Record, error) {
	return Record{}, ErrNotImplemented
}

func (NullRepository) List(ctx context.Context, offset, limit int) ([]Record, error) {
	return nil, ErrNotImplemented
}

// Service provides access to stored query runs.
type Service interface {
	Record(ctx context.Context, record Record) (Record, error)
	Get(ctx context.Context, id string) (Record, error)
	List(ctx context.Context, offset, limit int) ([]Record, error)
}

// NewService builds a history service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

type service struct {
	repo Repository
}

func (s *service) Record(ctx context.Context, record Record) (Record, error) {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	return s.repo.Save(ctx, record)
}

func (s *service) Get(ctx context.Context, id string) (Record, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns records newest first. limit is clamped to [1, MaxLimit];
// zero means DefaultLimit.
func (s *service) List(ctx context.Context, offset, limit int) ([]Record, error) {
	if offset < 0 {
		offset = 0
	}
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	return s.repo.List(ctx, offset, limit)
}
