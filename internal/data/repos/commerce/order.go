package commerce

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/allbound-backend/internal/domain"
	"github.com/yungbote/allbound-backend/internal/platform/logger"
)

type OrderRepo interface {
	// CreateIfAbsent inserts o unless an order with the same payment id
	// exists. It returns the stored row and whether this call created it.
	CreateIfAbsent(ctx context.Context, tx *gorm.DB, o *types.Order) (*types.Order, bool, error)
	GetByPaymentID(ctx context.Context, tx *gorm.DB, paymentID string) (*types.Order, error)
	// ListBetween returns orders created in [from, to) for region, oldest
	// first with ties broken by id.
	ListBetween(ctx context.Context, tx *gorm.DB, region types.Region, from, to time.Time) ([]*types.Order, error)
	List(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*types.Order, error)
	MarkInvoiceSent(ctx context.Context, tx *gorm.DB, orderID, invoiceNumber string, at time.Time) error
}

type orderRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrderRepo(db *gorm.DB, baseLog *logger.Logger) OrderRepo {
	repoLog := baseLog.With("repo", "OrderRepo")
	return &orderRepo{db: db, log: repoLog}
}

func (r *orderRepo) CreateIfAbsent(ctx context.Context, tx *gorm.DB, o *types.Order) (*types.Order, bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "payment_id"}},
			DoNothing: true,
		}).
		Create(o)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		return o, true, nil
	}
	existing, err := r.GetByPaymentID(ctx, transaction, o.PaymentID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *orderRepo) GetByPaymentID(ctx context.Context, tx *gorm.DB, paymentID string) (*types.Order, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var o types.Order
	if err := transaction.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) ListBetween(ctx context.Context, tx *gorm.DB, region types.Region, from, to time.Time) ([]*types.Order, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Order
	if err := transaction.WithContext(ctx).
		Where("region = ? AND created_at >= ? AND created_at < ?", region, from.UTC(), to.UTC()).
		Order("created_at ASC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *orderRepo) List(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*types.Order, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 100
	}
	var results []*types.Order
	if err := transaction.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *orderRepo) MarkInvoiceSent(ctx context.Context, tx *gorm.DB, orderID, invoiceNumber string, at time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"invoice_sent":    true,
			"invoice_number":  invoiceNumber,
			"invoice_sent_at": at.UTC(),
			"updated_at":      time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
