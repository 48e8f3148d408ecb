package progress

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/allbound-backend/internal/domain"
	"github.com/yungbote/allbound-backend/internal/platform/logger"
)

type ProgressRepo interface {
	// Get returns gorm.ErrRecordNotFound when the learner has no row yet.
	Get(ctx context.Context, tx *gorm.DB, userID string) (*types.UserProgress, error)
	// Save replaces the completed set and current lesson, creating the row
	// if needed, and stamps last_accessed.
	Save(ctx context.Context, tx *gorm.DB, userID string, completed []string, current *string) (*types.UserProgress, error)
	// Ensure creates an empty row if none exists and leaves existing rows alone.
	Ensure(ctx context.Context, tx *gorm.DB, userID string) error
	Delete(ctx context.Context, tx *gorm.DB, userID string) error
}

type progressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgressRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRepo {
	repoLog := baseLog.With("repo", "ProgressRepo")
	return &progressRepo{db: db, log: repoLog}
}

func (r *progressRepo) Get(ctx context.Context, tx *gorm.DB, userID string) (*types.UserProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.UserProgress
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&row).Error; err != nil {
		return nil, err
	}
	if row.CompletedLessons == nil {
		row.CompletedLessons = datatypes.NewJSONSlice([]string{})
	}
	return &row, nil
}

func (r *progressRepo) Save(ctx context.Context, tx *gorm.DB, userID string, completed []string, current *string) (*types.UserProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if completed == nil {
		completed = []string{}
	}
	now := time.Now().UTC()
	row := &types.UserProgress{
		UserID:           userID,
		CompletedLessons: datatypes.NewJSONSlice(completed),
		CurrentLesson:    current,
		LastAccessed:     &now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"completed_lessons",
				"current_lesson",
				"last_accessed",
				"updated_at",
			}),
		}).
		Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *progressRepo) Ensure(ctx context.Context, tx *gorm.DB, userID string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now().UTC()
	row := &types.UserProgress{
		UserID:           userID,
		CompletedLessons: datatypes.NewJSONSlice([]string{}),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row).Error
}

func (r *progressRepo) Delete(ctx context.Context, tx *gorm.DB, userID string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&types.UserProgress{}).Error
}
