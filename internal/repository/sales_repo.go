package repository

import (
	"context"

	"go-pos-backoffice/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SalesOrderRepository interface {
	Create(ctx context.Context, so *model.SalesOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.SalesOrder, error)
	// LockByID locks the order row for update and loads its product and service lines.
	LockByID(ctx context.Context, id uuid.UUID) (*model.SalesOrder, error)
	UpdateProgress(ctx context.Context, id uuid.UUID, status model.ProgressStatus, updatedBy string) error
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status model.PaymentStatus, updatedBy string) error
}

type SalesReturnRepository interface {
	Create(ctx context.Context, sr *model.SalesReturn) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.SalesReturn, error)
	LockByID(ctx context.Context, id uuid.UUID) (*model.SalesReturn, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.ReturnStatus, updatedBy string) error
	// ReturnedQuantities sums non-cancelled return quantities per sales order product and service line.
	ReturnedQuantities(ctx context.Context, salesOrderID uuid.UUID) (products, services map[uuid.UUID]decimal.Decimal, err error)
	// CodesByStatus lists the codes of the order's returns in the given status, oldest first.
	CodesByStatus(ctx context.Context, salesOrderID uuid.UUID, status model.ReturnStatus) ([]string, error)
}

type salesOrderRepo struct {
	db *gorm.DB
}

func NewSalesOrderRepo(db *gorm.DB) SalesOrderRepository {
	return &salesOrderRepo{db}
}

func (r *salesOrderRepo) Create(ctx context.Context, so *model.SalesOrder) error {
	return r.db.WithContext(ctx).Create(so).Error
}

func (r *salesOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.SalesOrder, error) {
	var so model.SalesOrder
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("ProductDetails", byCreation).
		Preload("ProductDetails.Product").
		Preload("ServiceDetails", byCreation).
		First(&so, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &so, nil
}

func (r *salesOrderRepo) LockByID(ctx context.Context, id uuid.UUID) (*model.SalesOrder, error) {
	var so model.SalesOrder
	if err := forUpdate(r.db.WithContext(ctx)).First(&so, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	if err := byCreation(r.db.WithContext(ctx)).Where("sales_order_id = ?", id).Find(&so.ProductDetails).Error; err != nil {
		return nil, err
	}
	if err := byCreation(r.db.WithContext(ctx)).Where("sales_order_id = ?", id).Find(&so.ServiceDetails).Error; err != nil {
		return nil, err
	}
	return &so, nil
}

func (r *salesOrderRepo) UpdateProgress(ctx context.Context, id uuid.UUID, status model.ProgressStatus, updatedBy string) error {
	return updateColumns(ctx, r.db, &model.SalesOrder{}, id, map[string]interface{}{
		"progress_status": status,
		"updated_by":      updatedBy,
	})
}

func (r *salesOrderRepo) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status model.PaymentStatus, updatedBy string) error {
	return updateColumns(ctx, r.db, &model.SalesOrder{}, id, map[string]interface{}{
		"status":     status,
		"updated_by": updatedBy,
	})
}

type salesReturnRepo struct {
	db *gorm.DB
}

func NewSalesReturnRepo(db *gorm.DB) SalesReturnRepository {
	return &salesReturnRepo{db}
}

func (r *salesReturnRepo) Create(ctx context.Context, sr *model.SalesReturn) error {
	return r.db.WithContext(ctx).Create(sr).Error
}

func (r *salesReturnRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.SalesReturn, error) {
	var sr model.SalesReturn
	err := r.db.WithContext(ctx).
		Preload("SalesOrder").
		Preload("ProductDetails", byCreation).
		Preload("ServiceDetails", byCreation).
		First(&sr, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &sr, nil
}

func (r *salesReturnRepo) LockByID(ctx context.Context, id uuid.UUID) (*model.SalesReturn, error) {
	var sr model.SalesReturn
	if err := forUpdate(r.db.WithContext(ctx)).First(&sr, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	if err := byCreation(r.db.WithContext(ctx)).Where("sales_return_id = ?", id).Find(&sr.ProductDetails).Error; err != nil {
		return nil, err
	}
	if err := byCreation(r.db.WithContext(ctx)).Where("sales_return_id = ?", id).Find(&sr.ServiceDetails).Error; err != nil {
		return nil, err
	}
	return &sr, nil
}

func (r *salesReturnRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ReturnStatus, updatedBy string) error {
	return updateColumns(ctx, r.db, &model.SalesReturn{}, id, map[string]interface{}{
		"status":     status,
		"updated_by": updatedBy,
	})
}

func (r *salesReturnRepo) ReturnedQuantities(ctx context.Context, salesOrderID uuid.UUID) (map[uuid.UUID]decimal.Decimal, map[uuid.UUID]decimal.Decimal, error) {
	products, err := r.returned(ctx, "sales_return_product_details", "sales_order_product_detail_id", salesOrderID)
	if err != nil {
		return nil, nil, err
	}
	services, err := r.returned(ctx, "sales_return_service_details", "sales_order_service_detail_id", salesOrderID)
	if err != nil {
		return nil, nil, err
	}
	return products, services, nil
}

func (r *salesReturnRepo) CodesByStatus(ctx context.Context, salesOrderID uuid.UUID, status model.ReturnStatus) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).
		Model(&model.SalesReturn{}).
		Where("sales_order_id = ? AND status = ?", salesOrderID, status).
		Order("created_at ASC").
		Pluck("code", &codes).Error
	if err != nil {
		return nil, err
	}
	return codes, nil
}

func (r *salesReturnRepo) returned(ctx context.Context, table, lineColumn string, salesOrderID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	var rows []returnedRow
	err := r.db.WithContext(ctx).
		Table(table+" AS d").
		Select("d."+lineColumn+" AS line_id, COALESCE(SUM(d.return_quantity), 0) AS quantity").
		Joins("JOIN sales_returns r ON r.id = d.sales_return_id").
		Where("r.sales_order_id = ? AND r.status <> ?", salesOrderID, model.ReturnCancelled).
		Where("r.deleted_at IS NULL AND d.deleted_at IS NULL").
		Group("d." + lineColumn).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return returnedMap(rows), nil
}
