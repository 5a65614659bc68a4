package repository

import (
	"context"

	"go-pos-backoffice/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentRepository is append-only: there is no update or delete.
type PaymentRepository interface {
	Create(ctx context.Context, payment *model.PaymentHistory) error
	FindByParent(ctx context.Context, parentType model.PaymentParentType, parentID uuid.UUID) ([]model.PaymentHistory, error)
	SumByParent(ctx context.Context, parentType model.PaymentParentType, parentID uuid.UUID) (decimal.Decimal, error)
}

type paymentRepo struct {
	db *gorm.DB
}

func NewPaymentRepo(db *gorm.DB) PaymentRepository {
	return &paymentRepo{db}
}

func (r *paymentRepo) Create(ctx context.Context, payment *model.PaymentHistory) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepo) FindByParent(ctx context.Context, parentType model.PaymentParentType, parentID uuid.UUID) ([]model.PaymentHistory, error) {
	var payments []model.PaymentHistory
	err := r.db.WithContext(ctx).
		Where("parent_type = ? AND parent_id = ?", parentType, parentID).
		Order("created_at ASC, id ASC").
		Find(&payments).Error
	return payments, err
}

func (r *paymentRepo) SumByParent(ctx context.Context, parentType model.PaymentParentType, parentID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&model.PaymentHistory{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("parent_type = ? AND parent_id = ?", parentType, parentID).
		Row().Scan(&total)
	return total, err
}
