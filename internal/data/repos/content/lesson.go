package content

import (
	"context"

	"gorm.io/gorm"

	types "github.com/yungbote/allbound-backend/internal/domain"
	"github.com/yungbote/allbound-backend/internal/platform/logger"
)

type LessonRepo interface {
	ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Lesson, error)
	ListByModule(ctx context.Context, tx *gorm.DB, moduleID string) ([]*types.Lesson, error)
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.Lesson, error)
	NextOrderIndex(ctx context.Context, tx *gorm.DB, moduleID string) (int, error)
	Create(ctx context.Context, tx *gorm.DB, lessons []*types.Lesson) ([]*types.Lesson, error)
	Update(ctx context.Context, tx *gorm.DB, id string, updates map[string]any) error
	Reorder(ctx context.Context, tx *gorm.DB, moduleID string, ids []string) error
	// Delete removes the lesson and the resources attached to it.
	Delete(ctx context.Context, tx *gorm.DB, id string) error
}

type lessonRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	repoLog := baseLog.With("repo", "LessonRepo")
	return &lessonRepo{db: db, log: repoLog}
}

func (r *lessonRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Lesson, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Lesson
	if err := transaction.WithContext(ctx).
		Order("module_id ASC, order_index ASC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *lessonRepo) ListByModule(ctx context.Context, tx *gorm.DB, moduleID string) ([]*types.Lesson, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Lesson
	if err := transaction.WithContext(ctx).
		Where("module_id = ?", moduleID).
		Order("order_index ASC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *lessonRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.Lesson, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var l types.Lesson
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *lessonRepo) NextOrderIndex(ctx context.Context, tx *gorm.DB, moduleID string) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return nextOrderIndex(transaction.WithContext(ctx).Model(&types.Lesson{}).Where("module_id = ?", moduleID))
}

func (r *lessonRepo) Create(ctx context.Context, tx *gorm.DB, lessons []*types.Lesson) ([]*types.Lesson, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(lessons) == 0 {
		return []*types.Lesson{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&lessons).Error; err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *lessonRepo) Update(ctx context.Context, tx *gorm.DB, id string, updates map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return updateByID(ctx, transaction, &types.Lesson{}, id, updates)
}

func (r *lessonRepo) Reorder(ctx context.Context, tx *gorm.DB, moduleID string, ids []string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		return reorder(txx.Model(&types.Lesson{}).Where("module_id = ?", moduleID), ids)
	})
}

func (r *lessonRepo) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		res := txx.Where("id = ?", id).Delete(&types.Lesson{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return txx.Where("lesson_id = ?", id).Delete(&types.Resource{}).Error
	})
}
