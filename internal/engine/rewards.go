package engine

import "github.com/yungbote/pawquest-backend/internal/domain"

// BonusAccuracyThreshold unlocks the flat performance bonus.
const BonusAccuracyThreshold = 0.8

// bonusPerKind is granted for every power-up kind once the threshold is met,
// including kinds the checkpoint's base schedule has not introduced yet.
const bonusPerKind = 1

// RewardCalculator merges a checkpoint's guaranteed base schedule with the
// accuracy bonus. Pure; safe to share.
type RewardCalculator struct{}

func NewRewardCalculator() RewardCalculator { return RewardCalculator{} }

func (RewardCalculator) RewardsFor(checkpoint domain.Checkpoint, accuracy float64) map[domain.PowerUpKind]int {
	out := make(map[domain.PowerUpKind]int, len(checkpoint.BaseRewards))
	for kind, n := range checkpoint.BaseRewards {
		out[kind] = n
	}
	if accuracy >= BonusAccuracyThreshold {
		for _, kind := range domain.AllPowerUpKinds() {
			out[kind] += bonusPerKind
		}
	}
	return out
}
