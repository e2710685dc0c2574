package engine

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/yungbote/pawquest-backend/internal/content"
	"github.com/yungbote/pawquest-backend/internal/domain"
	"github.com/yungbote/pawquest-backend/internal/pkg/logger"
)

// levelDistributions maps a 5-step difficulty level to tier weights,
// easiest first. Structurally similar to the selector's table but tuned for
// batch composition rather than single-question pacing.
var levelDistributions = map[int][5]float64{
	1: {0.60, 0.25, 0.10, 0.04, 0.01},
	2: {0.40, 0.30, 0.20, 0.08, 0.02},
	3: {0.20, 0.25, 0.30, 0.18, 0.07},
	4: {0.10, 0.15, 0.30, 0.28, 0.17},
	5: {0.05, 0.10, 0.20, 0.35, 0.30},
}

// PoolManager produces shuffled, non-repeating question batches for a
// themed path, expanding the pool when too few matching items remain.
type PoolManager struct {
	log   *logger.Logger
	cache *content.Cache

	mu  sync.Mutex
	rnd *rand.Rand
	// served tracks ids handed out per path since the last Reset, so
	// consecutive draws do not overlap before the session records answers.
	served map[string]map[string]struct{}
}

func NewPoolManager(log *logger.Logger, cache *content.Cache, seed int64) *PoolManager {
	return &PoolManager{
		log:    log.With("component", "ContentPoolManager"),
		cache:  cache,
		rnd:    rand.New(rand.NewSource(seed)),
		served: make(map[string]map[string]struct{}),
	}
}

// Draw returns count items for the path. Guarantees: no returned id is in
// excludeIDs unless the pool had to expand to the full corpus, and no id
// repeats within the batch unless the corpus itself is smaller than count.
func (m *PoolManager) Draw(ctx context.Context, path Path, excludeIDs []string, count int, difficultyLevel int) ([]domain.ContentItem, error) {
	if count <= 0 {
		return nil, nil
	}
	corpus, err := m.corpus(ctx)
	if err != nil {
		return nil, err
	}

	exclude := toSet(excludeIDs)

	m.mu.Lock()
	defer m.mu.Unlock()

	servedSet := m.served[path.Slug]
	if servedSet == nil {
		servedSet = make(map[string]struct{})
		m.served[path.Slug] = servedSet
	}

	// Candidate buckets per tier: path-relevant, not excluded, not served.
	var buckets [5][]domain.ContentItem
	available := 0
	for _, item := range corpus {
		if !path.Policy.Matches(item) {
			continue
		}
		if _, ok := exclude[item.ID]; ok {
			continue
		}
		if _, ok := servedSet[item.ID]; ok {
			continue
		}
		if o := item.Tier.Order(); o >= 0 {
			buckets[o] = append(buckets[o], item)
			available++
		}
	}

	weights := levelWeights(difficultyLevel)
	result := make([]domain.ContentItem, 0, count)
	chosen := make(map[string]struct{}, count)

	// Pass 1: per-slot weighted tier draw.
	attempts := 0
	for len(result) < count && available > 0 && attempts < count*4 {
		attempts++
		tier := sampleTier(m.rnd, weights)
		o := tier.Order()
		if len(buckets[o]) == 0 {
			continue
		}
		item := popRandom(m.rnd, &buckets[o])
		available--
		result = append(result, item)
		chosen[item.ID] = struct{}{}
	}

	// Pass 2: relax the tier weighting, drain remaining candidates.
	if len(result) < count && available > 0 {
		rest := make([]domain.ContentItem, 0, available)
		for o := range buckets {
			rest = append(rest, buckets[o]...)
		}
		m.shuffle(rest)
		for _, item := range rest {
			if len(result) == count {
				break
			}
			result = append(result, item)
			chosen[item.ID] = struct{}{}
		}
	}

	// Pass 3: the whole corpus, any category or tier, exclusions ignored.
	// The player may see repeated questions here; never an error.
	if len(result) < count {
		m.log.Debug("pool exhausted, expanding to full corpus",
			"path", path.Slug, "have", len(result), "want", count)
		expansion := make([]domain.ContentItem, 0, len(corpus))
		for _, item := range corpus {
			if _, ok := chosen[item.ID]; ok {
				continue
			}
			expansion = append(expansion, item)
		}
		m.shuffle(expansion)
		for _, item := range expansion {
			if len(result) == count {
				break
			}
			result = append(result, item)
			chosen[item.ID] = struct{}{}
		}
	}

	// Pass 4: corpus smaller than count; repeat with reshuffle.
	if len(result) < count && len(corpus) > 0 {
		cycle := append([]domain.ContentItem(nil), corpus...)
		m.shuffle(cycle)
		i := 0
		for len(result) < count {
			if i == len(cycle) {
				i = 0
				m.shuffle(cycle)
			}
			result = append(result, cycle[i])
			i++
		}
	}

	for _, item := range result {
		servedSet[item.ID] = struct{}{}
	}
	return result, nil
}

// HasEnough reports whether requiredCount path-relevant items remain before
// any pool expansion would be needed.
func (m *PoolManager) HasEnough(ctx context.Context, path Path, excludeIDs []string, requiredCount int) (bool, error) {
	if requiredCount <= 0 {
		return true, nil
	}
	corpus, err := m.corpus(ctx)
	if err != nil {
		return false, err
	}
	exclude := toSet(excludeIDs)

	m.mu.Lock()
	servedSet := m.served[path.Slug]
	available := 0
	for _, item := range corpus {
		if !path.Policy.Matches(item) {
			continue
		}
		if _, ok := exclude[item.ID]; ok {
			continue
		}
		if _, ok := servedSet[item.ID]; ok {
			continue
		}
		available++
		if available >= requiredCount {
			break
		}
	}
	m.mu.Unlock()
	return available >= requiredCount, nil
}

// Reset clears the path's shuffle state, optionally preserving a subset of
// exclusions (checkpoint rollback keeps the pre-checkpoint history).
func (m *PoolManager) Reset(path Path, preserveIDs []string) error {
	if path.Slug == "" || path.Policy == nil {
		return fmt.Errorf("pool reset: invalid path")
	}
	m.mu.Lock()
	m.served[path.Slug] = toSet(preserveIDs)
	m.mu.Unlock()
	return nil
}

// ItemByID scans the corpus for one item.
func (m *PoolManager) ItemByID(ctx context.Context, id string) (domain.ContentItem, bool, error) {
	corpus, err := m.corpus(ctx)
	if err != nil {
		return domain.ContentItem{}, false, err
	}
	for _, item := range corpus {
		if item.ID == id {
			return item, true, nil
		}
	}
	return domain.ContentItem{}, false, nil
}

func (m *PoolManager) corpus(ctx context.Context) ([]domain.ContentItem, error) {
	cats, err := m.cache.Categories(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.ContentItem
	for _, cat := range cats {
		items, err := m.cache.GetCategory(ctx, cat)
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
	}
	return out, nil
}

func (m *PoolManager) shuffle(items []domain.ContentItem) {
	m.rnd.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}

func levelWeights(level int) [5]float64 {
	if level < 1 {
		level = 1
	}
	if level > 5 {
		level = 5
	}
	return levelDistributions[level]
}

func sampleTier(rnd *rand.Rand, weights [5]float64) domain.Tier {
	tiers := domain.OrderedTiers()
	u := rnd.Float64()
	cum := 0.0
	for i, w := range weights {
		cum += w
		if u < cum {
			return tiers[i]
		}
	}
	return domain.TierEasy
}

func popRandom(rnd *rand.Rand, bucket *[]domain.ContentItem) domain.ContentItem {
	b := *bucket
	i := rnd.Intn(len(b))
	item := b[i]
	b[i] = b[len(b)-1]
	*bucket = b[:len(b)-1]
	return item
}

func toSet(ids []string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}
