package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/pawquest-backend/internal/domain"
	"github.com/yungbote/pawquest-backend/internal/pkg/logger"
)

type PathProgressRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, row *domain.PathProgress) error
	GetBySessionPath(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, pathSlug string) (*domain.PathProgress, error)
	DeleteBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) error
}

type pathProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPathProgressRepo(db *gorm.DB, baseLog *logger.Logger) PathProgressRepo {
	return &pathProgressRepo{db: db, log: baseLog.With("repo", "PathProgressRepo")}
}

func (r *pathProgressRepo) Upsert(ctx context.Context, tx *gorm.DB, row *domain.PathProgress) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "session_id"}, {Name: "path_slug"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"checkpoint_level",
				"questions_answered",
				"correct_answers",
				"lives_remaining",
				"answered_ids",
				"inventory",
				"updated_at",
			}),
		}).
		Create(row).Error
}

func (r *pathProgressRepo) GetBySessionPath(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, pathSlug string) (*domain.PathProgress, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if sessionID == uuid.Nil || pathSlug == "" {
		return nil, nil
	}
	row := &domain.PathProgress{}
	if err := t.WithContext(ctx).
		Where("session_id = ? AND path_slug = ?", sessionID, pathSlug).
		Limit(1).
		Find(row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return row, nil
}

func (r *pathProgressRepo) DeleteBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if sessionID == uuid.Nil {
		return nil
	}
	return t.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&domain.PathProgress{}).Error
}
