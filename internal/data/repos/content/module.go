package content

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/allbound-backend/internal/domain"
	"github.com/yungbote/allbound-backend/internal/platform/logger"
)

type ModuleRepo interface {
	List(ctx context.Context, tx *gorm.DB) ([]*types.Module, error)
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.Module, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
	NextOrderIndex(ctx context.Context, tx *gorm.DB) (int, error)
	Create(ctx context.Context, tx *gorm.DB, modules []*types.Module) ([]*types.Module, error)
	Update(ctx context.Context, tx *gorm.DB, id string, updates map[string]any) error
	Reorder(ctx context.Context, tx *gorm.DB, ids []string) error
	// Delete removes the module with its lessons and every resource attached
	// to either, in one transaction.
	Delete(ctx context.Context, tx *gorm.DB, id string) error
}

type moduleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewModuleRepo(db *gorm.DB, baseLog *logger.Logger) ModuleRepo {
	repoLog := baseLog.With("repo", "ModuleRepo")
	return &moduleRepo{db: db, log: repoLog}
}

func (r *moduleRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Module, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Module
	if err := transaction.WithContext(ctx).
		Order("order_index ASC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *moduleRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.Module, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var m types.Module
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *moduleRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	if err := transaction.WithContext(ctx).Model(&types.Module{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *moduleRepo) NextOrderIndex(ctx context.Context, tx *gorm.DB) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return nextOrderIndex(transaction.WithContext(ctx).Model(&types.Module{}))
}

func (r *moduleRepo) Create(ctx context.Context, tx *gorm.DB, modules []*types.Module) ([]*types.Module, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(modules) == 0 {
		return []*types.Module{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&modules).Error; err != nil {
		return nil, err
	}
	return modules, nil
}

func (r *moduleRepo) Update(ctx context.Context, tx *gorm.DB, id string, updates map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return updateByID(ctx, transaction, &types.Module{}, id, updates)
}

func (r *moduleRepo) Reorder(ctx context.Context, tx *gorm.DB, ids []string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		return reorder(txx.Model(&types.Module{}), ids)
	})
}

func (r *moduleRepo) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		res := txx.Where("id = ?", id).Delete(&types.Module{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		lessonIDs := txx.Model(&types.Lesson{}).Select("id").Where("module_id = ?", id)
		if err := txx.Where("lesson_id IN (?) OR module_id = ?", lessonIDs, id).
			Delete(&types.Resource{}).Error; err != nil {
			return err
		}
		if err := txx.Where("module_id = ?", id).Delete(&types.Lesson{}).Error; err != nil {
			return err
		}
		r.log.Debug("Module deleted", "module_id", id)
		return nil
	})
}

// updateByID applies updates to one row and reports gorm.ErrRecordNotFound
// when no row has that id.
func updateByID(ctx context.Context, transaction *gorm.DB, model any, id string, updates map[string]any) error {
	if len(updates) == 0 {
		var n int64
		if err := transaction.WithContext(ctx).Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	}
	updates["updated_at"] = time.Now().UTC()
	res := transaction.WithContext(ctx).Model(model).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// reorder writes order_index = position for each id. scoped must already
// carry the model and any parent filter. An id that matches no row aborts
// with gorm.ErrRecordNotFound.
func reorder(scoped *gorm.DB, ids []string) error {
	now := time.Now().UTC()
	for i, id := range ids {
		res := scoped.Session(&gorm.Session{}).
			Where("id = ?", id).
			Updates(map[string]any{"order_index": i, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
	}
	return nil
}

func nextOrderIndex(scoped *gorm.DB) (int, error) {
	var max sql.NullInt64
	if err := scoped.Select("MAX(order_index)").Scan(&max).Error; err != nil {
		return 0, err
	}
	if !max.Valid {
		return 0, nil
	}
	return int(max.Int64) + 1, nil
}
