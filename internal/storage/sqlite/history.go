package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/socialwatch/searchagent/internal/domain/history"
)

// HistoryRepository persists query runs in the query_history table.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository constructs a repository using a pooled DB handle.
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Save inserts record, assigning an id when it has none.
func (r *HistoryRepository) Save(ctx context.Context, record history.Record) (history.Record, error) {
	const query = `
        INSERT INTO query_history
            (id, topic, mode, prompt_kind, keywords, boolean_query, news_keywords, context_used, duration_ms, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `

	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if record.Keywords == nil {
		record.Keywords = []string{}
	}
	if record.NewsKeywords == nil {
		record.NewsKeywords = []string{}
	}

	kw, err := json.Marshal(record.Keywords)
	if err != nil {
		return history.Record{}, fmt.Errorf("encode keywords: %w", err)
	}
	newsKw, err := json.Marshal(record.NewsKeywords)
	if err != nil {
		return history.Record{}, fmt.Errorf("encode news keywords: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query,
		record.ID,
		record.Topic,
		record.Mode,
		record.PromptKind,
		string(kw),
		record.BooleanQuery,
		string(newsKw),
		record.ContextUsed,
		record.Duration.Milliseconds(),
		record.CreatedAt.UTC(),
	)
	if err != nil {
		return history.Record{}, fmt.Errorf("insert query record: %w", err)
	}
	return record, nil
}

// FindByID retrieves a single record.
func (r *HistoryRepository) FindByID(ctx context.Context, id string) (history.Record, error) {
	const query = `
        SELECT id, topic, mode, prompt_kind, keywords, boolean_query, news_keywords, context_used, duration_ms, created_at
          FROM query_history
         WHERE id = ?
    `

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return history.Record{}, history.ErrNotFound
		}
		return history.Record{}, fmt.Errorf("find query record: %w", err)
	}
	return rec, nil
}

// List returns records newest first.
func (r *HistoryRepository) List(ctx context.Context, offset, limit int) ([]history.Record, error) {
	const query = `
        SELECT id, topic, mode, prompt_kind, keywords, boolean_query, news_keywords, context_used, duration_ms, created_at
          FROM query_history
         ORDER BY created_at DESC, id DESC
         LIMIT ? OFFSET ?
    `

	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list query records: %w", err)
	}
	defer rows.Close()

	list := []history.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan query record: %w", err)
		}
		list = append(list, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate query records: %w", err)
	}
	return list, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (history.Record, error) {
	var (
		rec        history.Record
		kw, newsKw string
		durationMS int64
	)
	if err := s.Scan(
		&rec.ID,
		&rec.Topic,
		&rec.Mode,
		&rec.PromptKind,
		&kw,
		&rec.BooleanQuery,
		&newsKw,
		&rec.ContextUsed,
		&durationMS,
		&rec.CreatedAt,
	); err != nil {
		return history.Record{}, err
	}
	if err := json.Unmarshal([]byte(kw), &rec.Keywords); err != nil {
		return history.Record{}, fmt.Errorf("decode keywords: %w", err)
	}
	if err := json.Unmarshal([]byte(newsKw), &rec.NewsKeywords); err != nil {
		return history.Record{}, fmt.Errorf("decode news keywords: %w", err)
	}
	rec.Duration = time.Duration(durationMS) * time.Millisecond
	return rec, nil
}
