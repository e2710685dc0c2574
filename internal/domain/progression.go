package domain

type PowerUpKind string

const (
	PowerUpFiftyFifty   PowerUpKind = "fifty_fifty"
	PowerUpHint         PowerUpKind = "hint"
	PowerUpExtraTime    PowerUpKind = "extra_time"
	PowerUpSkip         PowerUpKind = "skip"
	PowerUpSecondChance PowerUpKind = "second_chance"
)

func AllPowerUpKinds() []PowerUpKind {
	return []PowerUpKind{
		PowerUpFiftyFifty,
		PowerUpHint,
		PowerUpExtraTime,
		PowerUpSkip,
		PowerUpSecondChance,
	}
}

// Checkpoint is a progression milestone on a path. Level is 1-based and
// ordered; QuestionsRequired is the cumulative answered-question threshold.
type Checkpoint struct {
	Level             int                 `json:"level"`
	QuestionsRequired int                 `json:"questions_required"`
	BaseRewards       map[PowerUpKind]int `json:"base_rewards"`
}

// PathProgressState is the session state the engine mutates. The caller owns
// durable storage; the engine only receives and returns values.
type PathProgressState struct {
	CurrentCheckpoint *Checkpoint         `json:"current_checkpoint,omitempty"`
	AnsweredIDs       []string            `json:"answered_ids"`
	PowerUpInventory  map[PowerUpKind]int `json:"power_up_inventory"`
	LivesRemaining    int                 `json:"lives_remaining"`
}

type FallbackKind string

const (
	FallbackResetToCheckpoint    FallbackKind = "reset_to_checkpoint"
	FallbackRestartFromBeginning FallbackKind = "restart_from_beginning"
	FallbackRecoveryError        FallbackKind = "recovery_error"
)

// FallbackResult is the outcome of a game-over recovery decision.
type FallbackResult struct {
	Kind            FallbackKind        `json:"kind"`
	Checkpoint      *Checkpoint         `json:"checkpoint,omitempty"`
	RestoredLives   int                 `json:"restored_lives"`
	AwardedPowerUps map[PowerUpKind]int `json:"awarded_power_ups,omitempty"`
	Err             error               `json:"-"`
}
