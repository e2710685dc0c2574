package engine

import (
	"context"

	"github.com/yungbote/pawquest-backend/internal/domain"
	"github.com/yungbote/pawquest-backend/internal/pkg/logger"
)

// PoolResetter is the slice of the pool manager the fallback controller
// needs.
type PoolResetter interface {
	Reset(path Path, preserveIDs []string) error
}

type FallbackConfig struct {
	// MaxLives is restored on every recovery.
	MaxLives int
	// AssumedAccuracy feeds the reward calculation during rollback, where
	// the real accuracy of the failed run should not punish the player.
	AssumedAccuracy float64
}

// FallbackController decides how to recover a session after a game over:
// roll back to the last checkpoint when one exists, otherwise restart the
// path. Holds no state across calls.
type FallbackController struct {
	log     *logger.Logger
	pool    PoolResetter
	rewards RewardCalculator
	cfg     FallbackConfig
}

func NewFallbackController(log *logger.Logger, pool PoolResetter, rewards RewardCalculator, cfg FallbackConfig) *FallbackController {
	if cfg.MaxLives <= 0 {
		cfg.MaxLives = 3
	}
	if cfg.AssumedAccuracy <= 0 {
		cfg.AssumedAccuracy = 0.9
	}
	return &FallbackController{
		log:     log.With("component", "CheckpointFallbackController"),
		pool:    pool,
		rewards: rewards,
		cfg:     cfg,
	}
}

// HandleGameOver always returns a FallbackResult, never an error: a failed
// checkpoint reset degrades to a full restart, and only a failure of the
// restart itself surfaces as a RecoveryError the caller must show the user.
func (fc *FallbackController) HandleGameOver(ctx context.Context, path Path, state domain.PathProgressState) domain.FallbackResult {
	if state.CurrentCheckpoint != nil {
		result, err := fc.resetToCheckpoint(ctx, path, state)
		if err == nil {
			return result
		}
		fc.log.Warn("checkpoint reset failed, restarting path",
			"path", path.Slug, "checkpoint", state.CurrentCheckpoint.Level, "error", err)
	}
	return fc.restartFromBeginning(ctx, path)
}

func (fc *FallbackController) resetToCheckpoint(ctx context.Context, path Path, state domain.PathProgressState) (domain.FallbackResult, error) {
	cp := state.CurrentCheckpoint
	awarded := fc.rewards.RewardsFor(*cp, fc.cfg.AssumedAccuracy)
	if err := fc.pool.Reset(path, nil); err != nil {
		return domain.FallbackResult{}, err
	}
	fc.log.Info("session rolled back to checkpoint",
		"path", path.Slug, "checkpoint", cp.Level, "restored_lives", fc.cfg.MaxLives)
	return domain.FallbackResult{
		Kind:            domain.FallbackResetToCheckpoint,
		Checkpoint:      cp,
		RestoredLives:   fc.cfg.MaxLives,
		AwardedPowerUps: awarded,
	}, nil
}

func (fc *FallbackController) restartFromBeginning(ctx context.Context, path Path) domain.FallbackResult {
	if err := fc.pool.Reset(path, nil); err != nil {
		fc.log.Error("path restart failed", "path", path.Slug, "error", err)
		return domain.FallbackResult{
			Kind: domain.FallbackRecoveryError,
			Err:  err,
		}
	}
	fc.log.Info("session restarted from beginning", "path", path.Slug, "restored_lives", fc.cfg.MaxLives)
	return domain.FallbackResult{
		Kind:          domain.FallbackRestartFromBeginning,
		RestoredLives: fc.cfg.MaxLives,
	}
}
