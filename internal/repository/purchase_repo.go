package repository

import (
	"context"

	"go-pos-backoffice/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PurchaseOrderRepository interface {
	Create(ctx context.Context, po *model.PurchaseOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error)
	// LockByID locks the order row for update and loads its lines.
	LockByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.PurchaseOrderStatus, updatedBy string) error
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status model.PaymentStatus, updatedBy string) error
}

type PurchaseReturnRepository interface {
	Create(ctx context.Context, pr *model.PurchaseReturn) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseReturn, error)
	LockByID(ctx context.Context, id uuid.UUID) (*model.PurchaseReturn, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.ReturnStatus, updatedBy string) error
	// ReturnedQuantities sums return quantities of non-cancelled returns per purchase order line.
	ReturnedQuantities(ctx context.Context, purchaseOrderID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
}

func byCreation(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC, id ASC")
}

type purchaseOrderRepo struct {
	db *gorm.DB
}

func NewPurchaseOrderRepo(db *gorm.DB) PurchaseOrderRepository {
	return &purchaseOrderRepo{db}
}

func (r *purchaseOrderRepo) Create(ctx context.Context, po *model.PurchaseOrder) error {
	return r.db.WithContext(ctx).Create(po).Error
}

func (r *purchaseOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Supplier").
		Preload("Details", byCreation).
		Preload("Details.Product").
		First(&po, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &po, nil
}

func (r *purchaseOrderRepo) LockByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	if err := forUpdate(r.db.WithContext(ctx)).First(&po, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	if err := byCreation(r.db.WithContext(ctx)).Where("purchase_order_id = ?", id).Find(&po.Details).Error; err != nil {
		return nil, err
	}
	return &po, nil
}

func (r *purchaseOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.PurchaseOrderStatus, updatedBy string) error {
	return updateColumns(ctx, r.db, &model.PurchaseOrder{}, id, map[string]interface{}{
		"status":     status,
		"updated_by": updatedBy,
	})
}

func (r *purchaseOrderRepo) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status model.PaymentStatus, updatedBy string) error {
	return updateColumns(ctx, r.db, &model.PurchaseOrder{}, id, map[string]interface{}{
		"payment_status": status,
		"updated_by":     updatedBy,
	})
}

type purchaseReturnRepo struct {
	db *gorm.DB
}

func NewPurchaseReturnRepo(db *gorm.DB) PurchaseReturnRepository {
	return &purchaseReturnRepo{db}
}

func (r *purchaseReturnRepo) Create(ctx context.Context, pr *model.PurchaseReturn) error {
	return r.db.WithContext(ctx).Create(pr).Error
}

func (r *purchaseReturnRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseReturn, error) {
	var pr model.PurchaseReturn
	err := r.db.WithContext(ctx).
		Preload("PurchaseOrder").
		Preload("Details", byCreation).
		Preload("Details.PurchaseOrderDetail").
		Preload("Details.PurchaseOrderDetail.Product").
		First(&pr, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &pr, nil
}

func (r *purchaseReturnRepo) LockByID(ctx context.Context, id uuid.UUID) (*model.PurchaseReturn, error) {
	var pr model.PurchaseReturn
	if err := forUpdate(r.db.WithContext(ctx)).First(&pr, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	err := byCreation(r.db.WithContext(ctx)).
		Preload("PurchaseOrderDetail").
		Where("purchase_return_id = ?", id).
		Find(&pr.Details).Error
	if err != nil {
		return nil, err
	}
	return &pr, nil
}

func (r *purchaseReturnRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ReturnStatus, updatedBy string) error {
	return updateColumns(ctx, r.db, &model.PurchaseReturn{}, id, map[string]interface{}{
		"status":     status,
		"updated_by": updatedBy,
	})
}

type returnedRow struct {
	LineID   uuid.UUID
	Quantity decimal.Decimal
}

func (r *purchaseReturnRepo) ReturnedQuantities(ctx context.Context, purchaseOrderID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	var rows []returnedRow
	err := r.db.WithContext(ctx).
		Table("purchase_return_details AS d").
		Select("d.purchase_order_detail_id AS line_id, COALESCE(SUM(d.return_quantity), 0) AS quantity").
		Joins("JOIN purchase_returns r ON r.id = d.purchase_return_id").
		Where("r.purchase_order_id = ? AND r.status <> ?", purchaseOrderID, model.ReturnCancelled).
		Where("r.deleted_at IS NULL AND d.deleted_at IS NULL").
		Group("d.purchase_order_detail_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return returnedMap(rows), nil
}

func returnedMap(rows []returnedRow) map[uuid.UUID]decimal.Decimal {
	out := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, row := range rows {
		out[row.LineID] = row.Quantity
	}
	return out
}

func updateColumns(ctx context.Context, db *gorm.DB, table interface{}, id uuid.UUID, values map[string]interface{}) error {
	res := db.WithContext(ctx).Model(table).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
