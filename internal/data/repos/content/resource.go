package content

import (
	"context"

	"gorm.io/gorm"

	types "github.com/yungbote/allbound-backend/internal/domain"
	"github.com/yungbote/allbound-backend/internal/platform/logger"
)

// ResourceFilter selects the parent collection resources belong to. At most
// one field should be set; the zero value matches every resource.
type ResourceFilter struct {
	LessonID string
	ModuleID string
	Global   bool
}

func (f ResourceFilter) apply(q *gorm.DB) *gorm.DB {
	switch {
	case f.LessonID != "":
		return q.Where("lesson_id = ?", f.LessonID)
	case f.ModuleID != "":
		return q.Where("module_id = ?", f.ModuleID)
	case f.Global:
		return q.Where("is_global = ?", true)
	default:
		return q
	}
}

func (f ResourceFilter) IsZero() bool {
	return f.LessonID == "" && f.ModuleID == "" && !f.Global
}

type ResourceRepo interface {
	List(ctx context.Context, tx *gorm.DB, filter ResourceFilter) ([]*types.Resource, error)
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.Resource, error)
	NextOrderIndex(ctx context.Context, tx *gorm.DB, filter ResourceFilter) (int, error)
	Create(ctx context.Context, tx *gorm.DB, resources []*types.Resource) ([]*types.Resource, error)
	Update(ctx context.Context, tx *gorm.DB, id string, updates map[string]any) error
	Reorder(ctx context.Context, tx *gorm.DB, filter ResourceFilter, ids []string) error
	Delete(ctx context.Context, tx *gorm.DB, id string) error
}

type resourceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewResourceRepo(db *gorm.DB, baseLog *logger.Logger) ResourceRepo {
	repoLog := baseLog.With("repo", "ResourceRepo")
	return &resourceRepo{db: db, log: repoLog}
}

func (r *resourceRepo) List(ctx context.Context, tx *gorm.DB, filter ResourceFilter) ([]*types.Resource, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Resource
	if err := filter.apply(transaction.WithContext(ctx)).
		Order("order_index ASC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *resourceRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.Resource, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var res types.Resource
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&res).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *resourceRepo) NextOrderIndex(ctx context.Context, tx *gorm.DB, filter ResourceFilter) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return nextOrderIndex(filter.apply(transaction.WithContext(ctx).Model(&types.Resource{})))
}

func (r *resourceRepo) Create(ctx context.Context, tx *gorm.DB, resources []*types.Resource) ([]*types.Resource, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(resources) == 0 {
		return []*types.Resource{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&resources).Error; err != nil {
		return nil, err
	}
	return resources, nil
}

func (r *resourceRepo) Update(ctx context.Context, tx *gorm.DB, id string, updates map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return updateByID(ctx, transaction, &types.Resource{}, id, updates)
}

func (r *resourceRepo) Reorder(ctx context.Context, tx *gorm.DB, filter ResourceFilter, ids []string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		return reorder(filter.apply(txx.Model(&types.Resource{})), ids)
	})
}

func (r *resourceRepo) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.Resource{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
