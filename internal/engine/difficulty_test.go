package engine

import (
	"math"
	"testing"

	"github.com/yungbote/pawquest-backend/internal/domain"
)

func TestTierWeights_AlwaysNormalized(t *testing.T) {
	for level := 0; level <= 6; level++ {
		for streak := 0; streak <= 8; streak++ {
			for mistakes := 0; mistakes <= 5; mistakes++ {
				weights := tierWeights(level, streak, mistakes)
				sum := 0.0
				for _, w := range weights {
					sum += w
					if w < 0 {
						t.Fatalf("negative weight at level=%d streak=%d mistakes=%d: %v", level, streak, mistakes, weights)
					}
				}
				if math.Abs(sum-1.0) > 1e-9 {
					t.Fatalf("weights sum to %v at level=%d streak=%d mistakes=%d", sum, level, streak, mistakes)
				}
			}
		}
	}
}

func TestTierWeights_StreakBiasesHarder(t *testing.T) {
	base := tierWeights(3, 0, 0)
	hot := tierWeights(3, 5, 0)
	if hot[4] <= base[4] {
		t.Fatalf("expected expert weight to rise on a streak: base=%v hot=%v", base[4], hot[4])
	}
	if hot[0] >= base[0] {
		t.Fatalf("expected easy weight to fall on a streak: base=%v hot=%v", base[0], hot[0])
	}
}

func TestTierWeights_MistakesBiasEasier(t *testing.T) {
	base := tierWeights(4, 0, 0)
	struggling := tierWeights(4, 0, 3)
	if struggling[0] <= base[0] {
		t.Fatalf("expected easy weight to rise after mistakes: base=%v got=%v", base[0], struggling[0])
	}
	if struggling[4] >= base[4] {
		t.Fatalf("expected expert weight to fall after mistakes: base=%v got=%v", base[4], struggling[4])
	}
}

func TestTierWeights_EasyFloorHolds(t *testing.T) {
	// Level 5 on a long streak pushes easy down hard; the floor must keep
	// it drawable before renormalization.
	weights := tierWeights(5, 9, 0)
	if weights[0] <= 0 {
		t.Fatalf("easy weight zeroed out: %v", weights)
	}
}

func TestPick_ReturnsValidTier(t *testing.T) {
	s := NewDifficultySelector(42)
	valid := map[domain.Tier]bool{}
	for _, tier := range domain.OrderedTiers() {
		valid[tier] = true
	}
	for i := 0; i < 500; i++ {
		tier := s.Pick(1+i%5, i%7, i%4)
		if !valid[tier] {
			t.Fatalf("invalid tier %q", tier)
		}
	}
}

func TestPick_LowLevelSkewsEasy(t *testing.T) {
	s := NewDifficultySelector(7)
	counts := map[domain.Tier]int{}
	for i := 0; i < 2000; i++ {
		counts[s.Pick(1, 0, 0)]++
	}
	if counts[domain.TierEasy] <= counts[domain.TierExpert] {
		t.Fatalf("level 1 should favor easy: easy=%d expert=%d", counts[domain.TierEasy], counts[domain.TierExpert])
	}
	if counts[domain.TierEasy] < 800 {
		t.Fatalf("easy drawn only %d/2000 times at level 1", counts[domain.TierEasy])
	}
}
