package repository

import (
	"context"
	"fmt"

	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/pricing"

	"gorm.io/gorm"
)

// SequenceRepository hands out the counters behind sequential codes.
type SequenceRepository interface {
	// Next increments and returns the counter for prefix. A missing counter is seeded
	// from the highest code already stored for that prefix.
	Next(ctx context.Context, prefix string) (int64, error)
}

// codeOwners maps each prefix to the model whose table holds its codes.
var codeOwners = map[string]interface{}{
	model.PrefixProduct:        &model.Product{},
	model.PrefixSupplier:       &model.Supplier{},
	model.PrefixCustomer:       &model.Customer{},
	model.PrefixPurchaseOrder:  &model.PurchaseOrder{},
	model.PrefixPurchaseReturn: &model.PurchaseReturn{},
	model.PrefixSalesOrder:     &model.SalesOrder{},
	model.PrefixSalesReturn:    &model.SalesReturn{},
}

type sequenceRepo struct {
	db *gorm.DB
}

func NewSequenceRepo(db *gorm.DB) SequenceRepository {
	return &sequenceRepo{db}
}

func (r *sequenceRepo) Next(ctx context.Context, prefix string) (int64, error) {
	owner, ok := codeOwners[prefix]
	if !ok {
		return 0, fmt.Errorf("unknown code prefix %q", prefix)
	}

	db := r.db.WithContext(ctx)

	var exists int64
	if err := db.Model(&model.CodeSequence{}).Where("prefix = ?", prefix).Count(&exists).Error; err != nil {
		return 0, err
	}

	var seed int64
	if exists == 0 {
		var last string
		err := db.Unscoped().Model(owner).
			Select("code").
			Where("code LIKE ?", prefix+"%").
			Order("code DESC").
			Limit(1).
			Scan(&last).Error
		if err != nil {
			return 0, err
		}
		if last != "" {
			n, err := pricing.ParseCode(prefix, last)
			if err != nil {
				return 0, err
			}
			seed = n
		}
	}

	var next int64
	err := db.Raw(`
		INSERT INTO code_sequences (prefix, last_number, updated_at)
		VALUES (?, ?, NOW())
		ON CONFLICT (prefix) DO UPDATE
		  SET last_number = code_sequences.last_number + 1,
		      updated_at = NOW()
		RETURNING last_number
	`, prefix, seed+1).Scan(&next).Error
	if err != nil {
		return 0, fmt.Errorf("advance sequence %s: %w", prefix, err)
	}
	return next, nil
}
