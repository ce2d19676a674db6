package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"trivia-quest/internal/domain"
)

type countingCategorySource struct {
	calls int
	err   error
}

func (s *countingCategorySource) FetchCategories(_ context.Context) ([]domain.Category, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []domain.Category{{ID: 9, Name: "General Knowledge"}}, nil
}

func TestCategoryCacheServesFromCache(t *testing.T) {
	ctx := context.Background()
	source := &countingCategorySource{}
	cache := NewCategoryCache(source, time.Minute)

	first, err := cache.Categories(ctx)
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	second, err := cache.Categories(ctx)
	if err != nil {
		t.Fatalf("categories: %v", err)
	}

	if source.calls != 1 {
		t.Fatalf("expected a single upstream fetch, got %d", source.calls)
	}
	if len(first) != 1 || len(second) != 1 || first[0].ID != 9 {
		t.Fatalf("unexpected categories: %v %v", first, second)
	}
}

func TestCategoryCacheRefetchesAfterExpiry(t *testing.T) {
	ctx := context.Background()
	source := &countingCategorySource{}
	cache := NewCategoryCache(source, time.Minute)

	now := time.Now()
	cache.clock = func() time.Time { return now }

	if _, err := cache.Categories(ctx); err != nil {
		t.Fatalf("categories: %v", err)
	}

	// Jitter extends the TTL by at most 10%, so two minutes is past expiry.
	now = now.Add(2 * time.Minute)
	if _, err := cache.Categories(ctx); err != nil {
		t.Fatalf("categories: %v", err)
	}

	if source.calls != 2 {
		t.Fatalf("expected refetch after expiry, got %d calls", source.calls)
	}
}

func TestCategoryCachePropagatesErrors(t *testing.T) {
	ctx := context.Background()
	source := &countingCategorySource{err: errors.New("upstream down")}
	cache := NewCategoryCache(source, time.Minute)

	if _, err := cache.Categories(ctx); err == nil {
		t.Fatalf("expected error from empty cache with failing source")
	}
}
