package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/socialwatch/searchagent/internal/domain/history"
	"github.com/socialwatch/searchagent/internal/storage/memory"
)

func TestHistoryRepositorySaveAndFind(t *testing.T) {
	repo := memory.NewHistoryRepository()
	ctx := context.Background()

	keywords := []string{"#Budget2025", "tax slab"}
	saved, err := repo.Save(ctx, history.Record{Topic: "budget", Keywords: keywords})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("expected generated id")
	}

	keywords[0] = "mutated"

	got, err := repo.FindByID(ctx, saved.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Keywords[0] != "#Budget2025" {
		t.Fatalf("stored keywords aliased caller slice: %v", got.Keywords)
	}
	if got.NewsKeywords == nil {
		t.Fatal("expected empty, non-nil news keywords")
	}

	if _, err := repo.FindByID(ctx, "missing"); !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHistoryRepositoryListNewestFirst(t *testing.T) {
	repo := memory.NewHistoryRepository()
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, topic := range []string{"first", "second", "third", "fourth"} {
		if _, err := repo.Save(ctx, history.Record{
			ID:        topic,
			Topic:     topic,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("save %s: %v", topic, err)
		}
	}

	page, err := repo.List(ctx, 1, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 || page[0].Topic != "third" || page[1].Topic != "second" {
		t.Fatalf("unexpected page: %+v", page)
	}

	all, err := repo.List(ctx, 0, 0)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 4 || all[0].Topic != "fourth" {
		t.Fatalf("unexpected full list: %+v", all)
	}

	empty, err := repo.List(ctx, 10, 5)
	if err != nil {
		t.Fatalf("list past end: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty page, got %d", len(empty))
	}
}
