package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/socialwatch/searchagent/internal/domain/history"
)

// HistoryRepository is an in-memory implementation of history.Repository.
type HistoryRepository struct {
	mu      sync.RWMutex
	records map[string]history.Record
}

// NewHistoryRepository creates an in-memory history repo.
func NewHistoryRepository() *HistoryRepository {
	return &HistoryRepository{
		records: make(map[string]history.Record),
	}
}

func (r *HistoryRepository) Save(ctx context.Context, record history.Record) (history.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.Keywords = cloneStrings(record.Keywords)
	record.NewsKeywords = cloneStrings(record.NewsKeywords)

	r.records[record.ID] = record
	return record, nil
}

func (r *HistoryRepository) FindByID(ctx context.Context, id string) (history.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return history.Record{}, history.ErrNotFound
	}
	return rec, nil
}

func (r *HistoryRepository) List(ctx context.Context, offset, limit int) ([]history.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]history.Record, 0, len(r.records))
	for _, rec := range r.records {
		list = append(list, rec)
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID > list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})

	if offset > len(list) {
		return []history.Record{}, nil
	}
	end := len(list)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return list[offset:end], nil
}

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
