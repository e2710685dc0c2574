package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PathProgress is the persisted snapshot of a session's progress on a path.
// AnsweredIDs and Inventory are stored as JSON columns so the row stays
// portable across the sqlite and postgres drivers.
type PathProgress struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID         uuid.UUID      `gorm:"type:uuid;not null;index:idx_progress_session_path,unique,priority:1" json:"session_id"`
	PathSlug          string         `gorm:"column:path_slug;not null;index:idx_progress_session_path,unique,priority:2" json:"path_slug"`
	CheckpointLevel   int            `gorm:"column:checkpoint_level;not null;default:0" json:"checkpoint_level"` // 0 = none reached
	QuestionsAnswered int            `gorm:"column:questions_answered;not null;default:0" json:"questions_answered"`
	CorrectAnswers    int            `gorm:"column:correct_answers;not null;default:0" json:"correct_answers"`
	LivesRemaining    int            `gorm:"column:lives_remaining;not null;default:0" json:"lives_remaining"`
	AnsweredIDs       datatypes.JSON `gorm:"column:answered_ids" json:"answered_ids,omitempty"`
	Inventory         datatypes.JSON `gorm:"column:inventory" json:"inventory,omitempty"`
	CreatedAt         time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (PathProgress) TableName() string { return "path_progress" }
