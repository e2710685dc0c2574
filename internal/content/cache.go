package content

import (
	"container/list"
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/yungbote/pawquest-backend/internal/domain"
	"github.com/yungbote/pawquest-backend/internal/pkg/logger"
)

type CacheConfig struct {
	MaxCachedCategories int
	// MaxItemsPerCategory bounds each difficulty tier within a category.
	MaxItemsPerCategory int
	Expiration          time.Duration
	// PreloadParallelism bounds concurrent loads during warm-up.
	PreloadParallelism int
}

type CacheStats struct {
	ResidentCategories int   `json:"resident_categories"`
	CachedItems        int   `json:"cached_items"`
	ApproxSizeBytes    int64 `json:"approx_size_bytes"`
}

type cacheEntry struct {
	category domain.Category
	items    []domain.ContentItem
	bytes    int64
	loadedAt time.Time
	elem     *list.Element
}

// Cache keeps at most MaxCachedCategories category pools resident, expiring
// entries after Expiration and evicting least-recently-accessed categories
// first. Concurrent loads of the same uncached category collapse into one
// repository call.
type Cache struct {
	log  *logger.Logger
	repo Repository
	cfg  CacheConfig

	mu      sync.Mutex
	entries map[domain.Category]*cacheEntry
	order   *list.List // front = most recently used

	group singleflight.Group

	preloadMu     sync.Mutex
	preloadCancel context.CancelFunc
}

func NewCache(log *logger.Logger, repo Repository, cfg CacheConfig) *Cache {
	if cfg.MaxCachedCategories <= 0 {
		cfg.MaxCachedCategories = 6
	}
	if cfg.MaxItemsPerCategory <= 0 {
		cfg.MaxItemsPerCategory = 50
	}
	if cfg.Expiration <= 0 {
		cfg.Expiration = 30 * time.Minute
	}
	if cfg.PreloadParallelism <= 0 {
		cfg.PreloadParallelism = 3
	}
	return &Cache{
		log:     log.With("component", "ContentCache"),
		repo:    repo,
		cfg:     cfg,
		entries: make(map[domain.Category]*cacheEntry),
		order:   list.New(),
	}
}

// GetCategory returns the cached pool when fresh, otherwise loads it through
// the repository and records it as most recently used.
func (c *Cache) GetCategory(ctx context.Context, category domain.Category) ([]domain.ContentItem, error) {
	c.mu.Lock()
	if e, ok := c.entries[category]; ok {
		if time.Since(e.loadedAt) < c.cfg.Expiration {
			c.order.MoveToFront(e.elem)
			items := e.items
			c.mu.Unlock()
			return items, nil
		}
		c.removeLocked(e)
	}
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, err, _ := c.group.Do(string(category), func() (any, error) {
		// The flight is shared by every collapsed waiter, so it must not
		// die with the first caller's request context. The repository
		// applies its own load timeout.
		items, err := c.repo.LoadCategory(context.WithoutCancel(ctx), category)
		if err != nil {
			return nil, err
		}
		items = capPerTier(items, c.cfg.MaxItemsPerCategory)
		c.insert(category, items)
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.ContentItem), nil
}

func (c *Cache) insert(category domain.Category, items []domain.ContentItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[category]; ok {
		c.removeLocked(e)
	}
	var bytes int64
	for _, it := range items {
		bytes += int64(it.EstimatedBytes())
	}
	e := &cacheEntry{
		category: category,
		items:    items,
		bytes:    bytes,
		loadedAt: time.Now(),
	}
	e.elem = c.order.PushFront(e)
	c.entries[category] = e
	c.evictOverflowLocked(c.cfg.MaxCachedCategories)
}

// evictOverflowLocked drops least-recently-used entries until at most limit
// remain.
func (c *Cache) evictOverflowLocked(limit int) {
	for len(c.entries) > limit {
		back := c.order.Back()
		if back == nil {
			return
		}
		e := back.Value.(*cacheEntry)
		c.removeLocked(e)
		c.log.Debug("evicted category", "category", e.category, "resident", len(c.entries))
	}
}

func (c *Cache) removeLocked(e *cacheEntry) {
	c.order.Remove(e.elem)
	delete(c.entries, e.category)
}

func (c *Cache) Evict(category domain.Category) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[category]; ok {
		c.removeLocked(e)
	}
}

func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[domain.Category]*cacheEntry)
	c.order.Init()
	c.mu.Unlock()
}

func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := CacheStats{ResidentCategories: len(c.entries)}
	for _, e := range c.entries {
		s.CachedItems += len(e.items)
		s.ApproxSizeBytes += e.bytes
	}
	return s
}

// Categories lists the categories present in the underlying document. Not
// cached here; the repository memoizes the parsed document.
func (c *Cache) Categories(ctx context.Context) ([]domain.Category, error) {
	return c.repo.Categories(ctx)
}

// ApproxBytes implements memwatch.Releasable.
func (c *Cache) ApproxBytes() int64 {
	return c.Stats().ApproxSizeBytes
}

// ReleaseModerate trims the cache toward half its configured bounds: LRU
// categories beyond half the category limit go first, then each surviving
// pool is trimmed to half the per-tier item limit.
func (c *Cache) ReleaseModerate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	halfCats := c.cfg.MaxCachedCategories / 2
	if halfCats < 1 {
		halfCats = 1
	}
	c.evictOverflowLocked(halfCats)
	halfItems := c.cfg.MaxItemsPerCategory / 2
	if halfItems < 1 {
		halfItems = 1
	}
	for _, e := range c.entries {
		if trimmed := capPerTier(e.items, halfItems); len(trimmed) < len(e.items) {
			e.items = trimmed
			var bytes int64
			for _, it := range trimmed {
				bytes += int64(it.EstimatedBytes())
			}
			e.bytes = bytes
		}
	}
}

// ReleaseAll drops everything and cancels any in-flight preload.
func (c *Cache) ReleaseAll() {
	c.preloadMu.Lock()
	if c.preloadCancel != nil {
		c.preloadCancel()
		c.preloadCancel = nil
	}
	c.preloadMu.Unlock()
	c.Clear()
}

// Preload warms the cache for the given categories with bounded concurrency.
// A ReleaseAll during the preload cancels the remaining loads.
func (c *Cache) Preload(ctx context.Context, categories []domain.Category) error {
	ctx, cancel := context.WithCancel(ctx)
	c.preloadMu.Lock()
	c.preloadCancel = cancel
	c.preloadMu.Unlock()
	defer func() {
		c.preloadMu.Lock()
		c.preloadCancel = nil
		c.preloadMu.Unlock()
		cancel()
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.PreloadParallelism)
	for _, category := range categories {
		g.Go(func() error {
			_, err := c.GetCategory(gctx, category)
			return err
		})
	}
	return g.Wait()
}

// capPerTier bounds each difficulty tier's list at limit items, keeping
// document order.
func capPerTier(items []domain.ContentItem, limit int) []domain.ContentItem {
	counts := make(map[domain.Tier]int, 5)
	out := make([]domain.ContentItem, 0, len(items))
	for _, it := range items {
		if counts[it.Tier] >= limit {
			continue
		}
		counts[it.Tier]++
		out = append(out, it)
	}
	return out
}
