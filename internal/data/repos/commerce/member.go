package commerce

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/allbound-backend/internal/domain"
	"github.com/yungbote/allbound-backend/internal/platform/logger"
)

type MemberRepo interface {
	List(ctx context.Context, tx *gorm.DB) ([]*types.Member, error)
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.Member, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.Member, error)
	Create(ctx context.Context, tx *gorm.DB, m *types.Member) (*types.Member, error)
	Update(ctx context.Context, tx *gorm.DB, id string, updates map[string]any) error
	Delete(ctx context.Context, tx *gorm.DB, id string) error
}

type memberRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMemberRepo(db *gorm.DB, baseLog *logger.Logger) MemberRepo {
	repoLog := baseLog.With("repo", "MemberRepo")
	return &memberRepo{db: db, log: repoLog}
}

// NormalizeEmail is the form member emails are stored and matched in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *memberRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Member, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Member
	if err := transaction.WithContext(ctx).
		Order("created_at DESC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *memberRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.Member, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var m types.Member
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *memberRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.Member, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var m types.Member
	if err := transaction.WithContext(ctx).
		Where("email = ?", NormalizeEmail(email)).
		First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *memberRepo) Create(ctx context.Context, tx *gorm.DB, m *types.Member) (*types.Member, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	m.Email = NormalizeEmail(m.Email)
	if err := transaction.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

func (r *memberRepo) Update(ctx context.Context, tx *gorm.DB, id string, updates map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if v, ok := updates["email"].(string); ok {
		updates["email"] = NormalizeEmail(v)
	}
	updates["updated_at"] = time.Now().UTC()
	res := transaction.WithContext(ctx).
		Model(&types.Member{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *memberRepo) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.Member{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
