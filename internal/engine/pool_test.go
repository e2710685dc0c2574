package engine

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/yungbote/pawquest-backend/internal/content"
	"github.com/yungbote/pawquest-backend/internal/domain"
	"github.com/yungbote/pawquest-backend/internal/pkg/logger"
)

// stubRepo serves a fixed corpus so pool behavior is deterministic.
type stubRepo struct {
	docs map[domain.Category][]domain.ContentItem
}

func (r *stubRepo) LoadCategory(ctx context.Context, category domain.Category) ([]domain.ContentItem, error) {
	return r.docs[category], nil
}

func (r *stubRepo) LoadAll(ctx context.Context) (map[domain.Category][]domain.ContentItem, error) {
	return r.docs, nil
}

func (r *stubRepo) Categories(ctx context.Context) ([]domain.Category, error) {
	cats := make([]domain.Category, 0, len(r.docs))
	for cat := range r.docs {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats, nil
}

func (r *stubRepo) Invalidate() {}

func poolItem(id string, cat domain.Category, tier domain.Tier) domain.ContentItem {
	return domain.ContentItem{
		ID:       id,
		Category: cat,
		Tier:     tier,
		Text:     domain.LocalizedText{"en": "question " + id},
		Answers:  domain.LocalizedList{"en": {"a", "b", "c"}},
	}
}

func breedCorpus(n int) map[domain.Category][]domain.ContentItem {
	items := make([]domain.ContentItem, 0, n)
	tiers := domain.OrderedTiers()
	for i := 0; i < n; i++ {
		items = append(items, poolItem(fmt.Sprintf("breeds_%03d", i), domain.CategoryBreeds, tiers[i%len(tiers)]))
	}
	return map[domain.Category][]domain.ContentItem{domain.CategoryBreeds: items}
}

func newTestPool(t *testing.T, docs map[domain.Category][]domain.ContentItem) *PoolManager {
	t.Helper()
	log := logger.NewNop()
	cache := content.NewCache(log, &stubRepo{docs: docs}, content.CacheConfig{})
	return NewPoolManager(log, cache, 1)
}

func breedsPath() Path {
	paths := DefaultPaths()
	p, ok := PathBySlug(paths, "dog-breeds")
	if !ok {
		panic("dog-breeds path missing")
	}
	return p
}

func TestDraw_NoRepeatsWithinBatch(t *testing.T) {
	pool := newTestPool(t, breedCorpus(12))
	items, err := pool.Draw(context.Background(), breedsPath(), nil, 5, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 5 {
		t.Fatalf("expected 5 items, got %d", len(items))
	}
	seen := map[string]bool{}
	for _, item := range items {
		if seen[item.ID] {
			t.Fatalf("duplicate id %q in batch", item.ID)
		}
		seen[item.ID] = true
	}
}

func TestDraw_HonorsExclusionsUntilExpansion(t *testing.T) {
	pool := newTestPool(t, breedCorpus(12))
	path := breedsPath()

	var exclude []string
	for i := 0; i < 10; i++ {
		exclude = append(exclude, fmt.Sprintf("breeds_%03d", i))
	}

	items, err := pool.Draw(context.Background(), path, exclude, 5, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 5 {
		t.Fatalf("expected 5 items after expansion, got %d", len(items))
	}
	seen := map[string]bool{}
	for _, item := range items {
		if seen[item.ID] {
			t.Fatalf("duplicate id %q within batch", item.ID)
		}
		seen[item.ID] = true
	}
	// The two non-excluded items must be present; the rest come from the
	// expanded corpus.
	if !seen["breeds_010"] || !seen["breeds_011"] {
		t.Fatalf("expected both unexcluded items in the batch, got %v", seen)
	}
}

func TestDraw_RepeatsOnlyWhenCorpusTooSmall(t *testing.T) {
	pool := newTestPool(t, breedCorpus(3))
	items, err := pool.Draw(context.Background(), breedsPath(), nil, 7, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 7 {
		t.Fatalf("expected 7 items, got %d", len(items))
	}
	counts := map[string]int{}
	for _, item := range items {
		counts[item.ID]++
	}
	if len(counts) != 3 {
		t.Fatalf("expected every corpus item to appear, got %v", counts)
	}
}

func TestDraw_PathPolicyFiltersCategories(t *testing.T) {
	docs := breedCorpus(6)
	docs[domain.CategorySports] = []domain.ContentItem{
		poolItem("sports_001", domain.CategorySports, domain.TierEasy),
		poolItem("sports_002", domain.CategorySports, domain.TierMedium),
	}
	pool := newTestPool(t, docs)

	items, err := pool.Draw(context.Background(), breedsPath(), nil, 4, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, item := range items {
		if item.Category != domain.CategoryBreeds {
			t.Fatalf("path policy leaked category %q", item.Category)
		}
	}
}

func TestDraw_TagMatchCountsAsRelevant(t *testing.T) {
	docs := map[domain.Category][]domain.ContentItem{
		domain.CategoryFunFacts: {
			func() domain.ContentItem {
				item := poolItem("fun_001", domain.CategoryFunFacts, domain.TierEasy)
				item.Tags = []string{"breed"}
				return item
			}(),
		},
	}
	pool := newTestPool(t, docs)

	items, err := pool.Draw(context.Background(), breedsPath(), nil, 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].ID != "fun_001" {
		t.Fatalf("expected tag-matched item, got %v", items)
	}
}

func TestDraw_ConsecutiveBatchesDoNotOverlap(t *testing.T) {
	pool := newTestPool(t, breedCorpus(12))
	path := breedsPath()
	ctx := context.Background()

	first, err := pool.Draw(ctx, path, nil, 5, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := pool.Draw(ctx, path, nil, 5, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seen := map[string]bool{}
	for _, item := range first {
		seen[item.ID] = true
	}
	for _, item := range second {
		if seen[item.ID] {
			t.Fatalf("id %q served in two consecutive batches", item.ID)
		}
	}
}

func TestHasEnough(t *testing.T) {
	pool := newTestPool(t, breedCorpus(4))
	path := breedsPath()
	ctx := context.Background()

	ok, err := pool.HasEnough(ctx, path, nil, 4)
	if err != nil || !ok {
		t.Fatalf("expected 4 available: ok=%v err=%v", ok, err)
	}
	ok, err = pool.HasEnough(ctx, path, []string{"breeds_000", "breeds_001"}, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected exclusions to reduce the pool below 4")
	}
}

func TestReset_ClearsServedState(t *testing.T) {
	pool := newTestPool(t, breedCorpus(5))
	path := breedsPath()
	ctx := context.Background()

	if _, err := pool.Draw(ctx, path, nil, 5, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ok, err := pool.HasEnough(ctx, path, nil, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected pool drained before reset")
	}

	if err := pool.Reset(path, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ok, err = pool.HasEnough(ctx, path, nil, 5)
	if err != nil || !ok {
		t.Fatalf("expected full pool after reset: ok=%v err=%v", ok, err)
	}
}

func TestReset_PreservesCheckpointHistory(t *testing.T) {
	pool := newTestPool(t, breedCorpus(5))
	path := breedsPath()
	ctx := context.Background()

	if _, err := pool.Draw(ctx, path, nil, 5, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := pool.Reset(path, []string{"breeds_000", "breeds_001"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items, err := pool.Draw(ctx, path, nil, 3, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, item := range items {
		if item.ID == "breeds_000" || item.ID == "breeds_001" {
			t.Fatalf("preserved id %q served again", item.ID)
		}
	}
}

func TestReset_RejectsInvalidPath(t *testing.T) {
	pool := newTestPool(t, breedCorpus(1))
	if err := pool.Reset(Path{}, nil); err == nil {
		t.Fatalf("expected error for path without slug or policy")
	}
}

func TestItemByID(t *testing.T) {
	pool := newTestPool(t, breedCorpus(3))
	ctx := context.Background()

	item, found, err := pool.ItemByID(ctx, "breeds_001")
	if err != nil || !found {
		t.Fatalf("expected lookup hit: found=%v err=%v", found, err)
	}
	if item.Category != domain.CategoryBreeds {
		t.Fatalf("unexpected item %v", item)
	}
	_, found, err = pool.ItemByID(ctx, "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Fatalf("expected miss for unknown id")
	}
}
