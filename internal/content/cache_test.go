package content

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/pawquest-backend/internal/domain"
	"github.com/yungbote/pawquest-backend/internal/pkg/logger"
)

// fakeRepo serves synthetic items and counts loads per category.
type fakeRepo struct {
	delay time.Duration

	mu    sync.Mutex
	loads map[domain.Category]int
}

func newFakeRepo(delay time.Duration) *fakeRepo {
	return &fakeRepo{delay: delay, loads: make(map[domain.Category]int)}
}

func (r *fakeRepo) LoadCategory(ctx context.Context, category domain.Category) ([]domain.ContentItem, error) {
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	r.mu.Lock()
	r.loads[category]++
	r.mu.Unlock()
	items := make([]domain.ContentItem, 0, 4)
	for i := 0; i < 4; i++ {
		items = append(items, domain.ContentItem{
			ID:       fmt.Sprintf("%s_%d", category, i),
			Category: category,
			Tier:     domain.TierEasy,
			Text:     domain.LocalizedText{"en": "q?"},
			Answers:  domain.LocalizedList{"en": {"a", "b"}},
		})
	}
	return items, nil
}

func (r *fakeRepo) LoadAll(ctx context.Context) (map[domain.Category][]domain.ContentItem, error) {
	out := make(map[domain.Category][]domain.ContentItem)
	for _, cat := range domain.AllCategories() {
		items, _ := r.LoadCategory(ctx, cat)
		out[cat] = items
	}
	return out, nil
}

func (r *fakeRepo) Categories(ctx context.Context) ([]domain.Category, error) {
	return domain.AllCategories(), nil
}

func (r *fakeRepo) Invalidate() {}

func (r *fakeRepo) loadCount(category domain.Category) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loads[category]
}

func (r *fakeRepo) totalLoads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.loads {
		n += c
	}
	return n
}

func TestCache_LRUBound(t *testing.T) {
	repo := newFakeRepo(0)
	cache := NewCache(logger.NewNop(), repo, CacheConfig{MaxCachedCategories: 2})
	ctx := context.Background()

	for _, cat := range []domain.Category{domain.CategoryBreeds, domain.CategoryTraining, domain.CategoryHealth} {
		if _, err := cache.GetCategory(ctx, cat); err != nil {
			t.Fatalf("GetCategory(%s): %v", cat, err)
		}
	}

	stats := cache.Stats()
	if stats.ResidentCategories != 2 {
		t.Fatalf("expected 2 resident categories, got %d", stats.ResidentCategories)
	}

	// breeds was least recently used and must have been evicted.
	if _, err := cache.GetCategory(ctx, domain.CategoryBreeds); err != nil {
		t.Fatalf("GetCategory(breeds): %v", err)
	}
	if n := repo.loadCount(domain.CategoryBreeds); n != 2 {
		t.Fatalf("expected breeds reloaded after eviction, loads=%d", n)
	}
}

func TestCache_LRUHonorsAccessOrder(t *testing.T) {
	repo := newFakeRepo(0)
	cache := NewCache(logger.NewNop(), repo, CacheConfig{MaxCachedCategories: 2})
	ctx := context.Background()

	if _, err := cache.GetCategory(ctx, domain.CategoryBreeds); err != nil {
		t.Fatalf("load breeds: %v", err)
	}
	if _, err := cache.GetCategory(ctx, domain.CategoryTraining); err != nil {
		t.Fatalf("load training: %v", err)
	}
	// Re-touch breeds so training becomes LRU.
	if _, err := cache.GetCategory(ctx, domain.CategoryBreeds); err != nil {
		t.Fatalf("touch breeds: %v", err)
	}
	if _, err := cache.GetCategory(ctx, domain.CategoryHealth); err != nil {
		t.Fatalf("load health: %v", err)
	}

	if _, err := cache.GetCategory(ctx, domain.CategoryBreeds); err != nil {
		t.Fatalf("get breeds: %v", err)
	}
	if n := repo.loadCount(domain.CategoryBreeds); n != 1 {
		t.Fatalf("breeds should have stayed resident, loads=%d", n)
	}
	if _, err := cache.GetCategory(ctx, domain.CategoryTraining); err != nil {
		t.Fatalf("get training: %v", err)
	}
	if n := repo.loadCount(domain.CategoryTraining); n != 2 {
		t.Fatalf("training should have been evicted, loads=%d", n)
	}
}

func TestCache_ExpiredEntryReloads(t *testing.T) {
	repo := newFakeRepo(0)
	cache := NewCache(logger.NewNop(), repo, CacheConfig{
		MaxCachedCategories: 3,
		Expiration:          20 * time.Millisecond,
	})
	ctx := context.Background()

	if _, err := cache.GetCategory(ctx, domain.CategoryBreeds); err != nil {
		t.Fatalf("load: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if _, err := cache.GetCategory(ctx, domain.CategoryBreeds); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if n := repo.loadCount(domain.CategoryBreeds); n != 2 {
		t.Fatalf("expected reload after expiry, loads=%d", n)
	}
}

func TestCache_ConcurrentLoadsCollapse(t *testing.T) {
	repo := newFakeRepo(30 * time.Millisecond)
	cache := NewCache(logger.NewNop(), repo, CacheConfig{MaxCachedCategories: 3})
	ctx := context.Background()

	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.GetCategory(ctx, domain.CategoryBreeds); err != nil {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()
	if failures.Load() != 0 {
		t.Fatalf("%d concurrent gets failed", failures.Load())
	}
	if n := repo.loadCount(domain.CategoryBreeds); n != 1 {
		t.Fatalf("expected a single collapsed load, got %d", n)
	}
}

func TestCache_EvictAndClear(t *testing.T) {
	repo := newFakeRepo(0)
	cache := NewCache(logger.NewNop(), repo, CacheConfig{MaxCachedCategories: 4})
	ctx := context.Background()

	if _, err := cache.GetCategory(ctx, domain.CategoryBreeds); err != nil {
		t.Fatalf("load: %v", err)
	}
	cache.Evict(domain.CategoryBreeds)
	if stats := cache.Stats(); stats.ResidentCategories != 0 {
		t.Fatalf("expected empty after evict, got %d", stats.ResidentCategories)
	}

	if _, err := cache.GetCategory(ctx, domain.CategoryTraining); err != nil {
		t.Fatalf("load: %v", err)
	}
	cache.Clear()
	if stats := cache.Stats(); stats.ResidentCategories != 0 || stats.CachedItems != 0 {
		t.Fatalf("expected empty after clear, got %+v", stats)
	}
}

func TestCache_ReleaseModerateHalvesBounds(t *testing.T) {
	repo := newFakeRepo(0)
	cache := NewCache(logger.NewNop(), repo, CacheConfig{
		MaxCachedCategories: 4,
		MaxItemsPerCategory: 4,
	})
	ctx := context.Background()

	cats := []domain.Category{
		domain.CategoryBreeds, domain.CategoryTraining,
		domain.CategoryHealth, domain.CategorySports,
	}
	for _, cat := range cats {
		if _, err := cache.GetCategory(ctx, cat); err != nil {
			t.Fatalf("load %s: %v", cat, err)
		}
	}

	cache.ReleaseModerate()
	stats := cache.Stats()
	if stats.ResidentCategories != 2 {
		t.Fatalf("expected 2 categories after moderate release, got %d", stats.ResidentCategories)
	}
	// 2 categories x 2 items (half the per-tier limit).
	if stats.CachedItems != 4 {
		t.Fatalf("expected 4 items after moderate release, got %d", stats.CachedItems)
	}
}

func TestCache_ReleaseModerateKeepsOneCategory(t *testing.T) {
	repo := newFakeRepo(0)
	cache := NewCache(logger.NewNop(), repo, CacheConfig{
		MaxCachedCategories: 1,
		MaxItemsPerCategory: 4,
	})

	if _, err := cache.GetCategory(context.Background(), domain.CategoryBreeds); err != nil {
		t.Fatalf("load: %v", err)
	}

	cache.ReleaseModerate()
	if stats := cache.Stats(); stats.ResidentCategories != 1 {
		t.Fatalf("moderate release must not clear the last category, got %d resident", stats.ResidentCategories)
	}
}

func TestCache_PreloadWarmsCategories(t *testing.T) {
	repo := newFakeRepo(0)
	cache := NewCache(logger.NewNop(), repo, CacheConfig{
		MaxCachedCategories: 6,
		PreloadParallelism:  2,
	})
	ctx := context.Background()

	cats := []domain.Category{
		domain.CategoryBreeds, domain.CategoryTraining, domain.CategoryHealth,
	}
	if err := cache.Preload(ctx, cats); err != nil {
		t.Fatalf("preload: %v", err)
	}
	if stats := cache.Stats(); stats.ResidentCategories != 3 {
		t.Fatalf("expected 3 resident categories after preload, got %d", stats.ResidentCategories)
	}
	for _, cat := range cats {
		if _, err := cache.GetCategory(ctx, cat); err != nil {
			t.Fatalf("get %s: %v", cat, err)
		}
		if n := repo.loadCount(cat); n != 1 {
			t.Fatalf("%s loaded %d times, preload should have warmed it", cat, n)
		}
	}
}

func TestCache_ReleaseAllCancelsPreload(t *testing.T) {
	repo := newFakeRepo(50 * time.Millisecond)
	cache := NewCache(logger.NewNop(), repo, CacheConfig{
		MaxCachedCategories: 6,
		PreloadParallelism:  1,
	})

	done := make(chan error, 1)
	go func() {
		done <- cache.Preload(context.Background(), domain.AllCategories())
	}()

	time.Sleep(20 * time.Millisecond)
	cache.ReleaseAll()

	err := <-done
	if err == nil {
		t.Fatalf("expected preload to abort after ReleaseAll")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected a cancellation error, got %v", err)
	}
	if n := repo.totalLoads(); n >= len(domain.AllCategories()) {
		t.Fatalf("expected remaining loads skipped, got %d", n)
	}
}

func TestCache_LoadSurvivesFirstCallerCancel(t *testing.T) {
	repo := newFakeRepo(40 * time.Millisecond)
	cache := NewCache(logger.NewNop(), repo, CacheConfig{MaxCachedCategories: 3})

	ctx1, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := cache.GetCategory(ctx1, domain.CategoryBreeds)
		first <- err
	}()

	// Cancel the first caller mid-load; a second caller with a live context
	// joins the same flight and must still get the result.
	time.Sleep(10 * time.Millisecond)
	cancel()

	if _, err := cache.GetCategory(context.Background(), domain.CategoryBreeds); err != nil {
		t.Fatalf("collapsed waiter failed after first caller canceled: %v", err)
	}
	if err := <-first; err != nil {
		t.Fatalf("first caller failed: %v", err)
	}
	if n := repo.loadCount(domain.CategoryBreeds); n != 1 {
		t.Fatalf("expected a single shared load, got %d", n)
	}
}

func TestCache_StatsTracksBytes(t *testing.T) {
	repo := newFakeRepo(0)
	cache := NewCache(logger.NewNop(), repo, CacheConfig{MaxCachedCategories: 4})
	if cache.ApproxBytes() != 0 {
		t.Fatalf("expected zero bytes before load")
	}
	if _, err := cache.GetCategory(context.Background(), domain.CategoryBreeds); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cache.ApproxBytes() <= 0 {
		t.Fatalf("expected positive byte estimate")
	}
}
