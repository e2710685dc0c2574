package engine

import (
	"fmt"

	"github.com/yungbote/pawquest-backend/internal/domain"
)

// DefaultCheckpoints is the shipped six-level progression. Base reward
// schedules are monotonically non-decreasing per power-up kind once that
// kind has been introduced; ValidateDistribution enforces this in tests.
func DefaultCheckpoints() []domain.Checkpoint {
	return []domain.Checkpoint{
		{
			Level:             1,
			QuestionsRequired: 5,
			BaseRewards: map[domain.PowerUpKind]int{
				domain.PowerUpFiftyFifty: 2,
				domain.PowerUpHint:       2,
				domain.PowerUpExtraTime:  1,
			},
		},
		{
			Level:             2,
			QuestionsRequired: 10,
			BaseRewards: map[domain.PowerUpKind]int{
				domain.PowerUpFiftyFifty: 2,
				domain.PowerUpHint:       2,
				domain.PowerUpExtraTime:  1,
				domain.PowerUpSkip:       1,
			},
		},
		{
			Level:             3,
			QuestionsRequired: 15,
			BaseRewards: map[domain.PowerUpKind]int{
				domain.PowerUpFiftyFifty:   3,
				domain.PowerUpHint:         3,
				domain.PowerUpExtraTime:    2,
				domain.PowerUpSkip:         1,
				domain.PowerUpSecondChance: 1,
			},
		},
		{
			Level:             4,
			QuestionsRequired: 20,
			BaseRewards: map[domain.PowerUpKind]int{
				domain.PowerUpFiftyFifty:   3,
				domain.PowerUpHint:         3,
				domain.PowerUpExtraTime:    2,
				domain.PowerUpSkip:         2,
				domain.PowerUpSecondChance: 1,
			},
		},
		{
			Level:             5,
			QuestionsRequired: 25,
			BaseRewards: map[domain.PowerUpKind]int{
				domain.PowerUpFiftyFifty:   4,
				domain.PowerUpHint:         4,
				domain.PowerUpExtraTime:    3,
				domain.PowerUpSkip:         2,
				domain.PowerUpSecondChance: 2,
			},
		},
		{
			Level:             6,
			QuestionsRequired: 30,
			BaseRewards: map[domain.PowerUpKind]int{
				domain.PowerUpFiftyFifty:   5,
				domain.PowerUpHint:         5,
				domain.PowerUpExtraTime:    3,
				domain.PowerUpSkip:         3,
				domain.PowerUpSecondChance: 2,
			},
		},
	}
}

// ValidateDistribution checks the monotonicity invariant across ascending
// checkpoints. Run from tests, not production.
func ValidateDistribution(checkpoints []domain.Checkpoint) error {
	introduced := map[domain.PowerUpKind]int{}
	prevLevel := 0
	for _, cp := range checkpoints {
		if cp.Level <= prevLevel {
			return fmt.Errorf("checkpoint levels not strictly ascending at level %d", cp.Level)
		}
		prevLevel = cp.Level
		for kind, prev := range introduced {
			if cur := cp.BaseRewards[kind]; cur < prev {
				return fmt.Errorf("checkpoint %d: %s decreases from %d to %d", cp.Level, kind, prev, cur)
			}
		}
		for kind, n := range cp.BaseRewards {
			if n > introduced[kind] {
				introduced[kind] = n
			}
		}
	}
	return nil
}
