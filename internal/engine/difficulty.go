package engine

import (
	"math/rand"
	"sync"

	"github.com/yungbote/pawquest-backend/internal/domain"
)

// baseDistributions maps playerLevel (1-5) to a probability distribution
// over the five tiers, easiest first. Rows sum to 1.
var baseDistributions = map[int][5]float64{
	1: {0.55, 0.25, 0.15, 0.04, 0.01},
	2: {0.35, 0.30, 0.25, 0.08, 0.02},
	3: {0.15, 0.25, 0.35, 0.20, 0.05},
	4: {0.08, 0.15, 0.30, 0.32, 0.15},
	5: {0.04, 0.08, 0.23, 0.35, 0.30},
}

var (
	strongHarder = [5]float64{0.5, 0.7, 1.2, 1.3, 1.5}
	mildHarder   = [5]float64{0.8, 0.9, 1.1, 1.15, 1.2}
	strongEasier = [5]float64{1.5, 1.3, 1.2, 0.7, 0.5}
	mildEasier   = [5]float64{1.2, 1.15, 1.1, 0.9, 0.8}
)

const easyFloor = 0.1

// DifficultySelector picks one difficulty tier from a player's live
// signals. Scoring is stateless; the random source is owned here so draws
// stay reproducible under an injected seed.
type DifficultySelector struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewDifficultySelector(seed int64) *DifficultySelector {
	return &DifficultySelector{rnd: rand.New(rand.NewSource(seed))}
}

// Pick samples a tier for the given signals via a cumulative-distribution
// draw. Falls back to easy if the draw somehow selects nothing.
func (s *DifficultySelector) Pick(playerLevel, streakCount, recentMistakes int) domain.Tier {
	weights := tierWeights(playerLevel, streakCount, recentMistakes)

	s.mu.Lock()
	u := s.rnd.Float64()
	s.mu.Unlock()

	tiers := domain.OrderedTiers()
	cum := 0.0
	for i, w := range weights {
		cum += w
		if u < cum {
			return tiers[i]
		}
	}
	return domain.TierEasy
}

// tierWeights produces the normalized distribution before sampling. Split
// out so tests can assert normalization directly.
func tierWeights(playerLevel, streakCount, recentMistakes int) [5]float64 {
	if playerLevel < 1 {
		playerLevel = 1
	}
	if playerLevel > 5 {
		playerLevel = 5
	}
	weights := baseDistributions[playerLevel]

	switch {
	case streakCount >= 5:
		applyMultipliers(&weights, strongHarder)
	case streakCount >= 3:
		applyMultipliers(&weights, mildHarder)
	}
	switch {
	case recentMistakes >= 3:
		applyMultipliers(&weights, strongEasier)
	case recentMistakes >= 2:
		applyMultipliers(&weights, mildEasier)
	}

	if weights[0] < easyFloor {
		weights[0] = easyFloor
	}

	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if sum <= 0 {
		return [5]float64{1, 0, 0, 0, 0}
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}

func applyMultipliers(weights *[5]float64, m [5]float64) {
	for i := range weights {
		weights[i] *= m[i]
	}
}
