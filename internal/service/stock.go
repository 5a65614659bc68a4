package service

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/pricing"
	"go-pos-backoffice/internal/repository"
	"go-pos-backoffice/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// stockLine is one order line's effect on a product.
type stockLine struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
	LineTotal decimal.Decimal
}

// stockChange is the resulting state of a product after a transition, for event payloads.
type stockChange struct {
	ProductID uuid.UUID       `json:"product_id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	OldStock  decimal.Decimal `json:"old_stock"`
	NewStock  decimal.Decimal `json:"new_stock"`
}

// lockProducts locks every product referenced by lines in ascending id order.
func lockProducts(ctx context.Context, repos *repository.Repositories, lines []stockLine) (map[uuid.UUID]*model.Product, []uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool, len(lines))
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		if !seen[l.ProductID] {
			seen[l.ProductID] = true
			ids = append(ids, l.ProductID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })

	products, err := repos.Products.LockByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	for _, id := range ids {
		if _, ok := products[id]; !ok {
			return nil, nil, apperror.NotFoundf("product %s not found", id)
		}
	}
	return products, ids, nil
}

// receiveAtCost adds each line to stock and recomputes the moving-average cost price.
// Lines with zero quantity are skipped. Repeated products are applied in line order.
func receiveAtCost(ctx context.Context, repos *repository.Repositories, actorID, reference string, lines []stockLine, places int32) ([]stockChange, error) {
	products, ids, err := lockProducts(ctx, repos, lines)
	if err != nil {
		return nil, err
	}
	before := snapshotStock(products)

	for _, l := range lines {
		p := products[l.ProductID]
		adj, ok, err := pricing.MovingAverage(p.Stock, p.CostPrice, l.Quantity, l.LineTotal, places)
		if err != nil {
			return nil, apperror.Validationf("product %s: %v", p.Code, err)
		}
		if !ok {
			continue
		}
		p.Stock = adj.StockAfter
		p.CostPrice = adj.CostAfter
		if err := recordMovement(ctx, repos, actorID, reference, p, model.MovementIn, l.Quantity); err != nil {
			return nil, err
		}
	}
	return persistStock(ctx, repos, actorID, products, ids, before)
}

// moveStock adds (IN) or removes (OUT) quantities without touching cost price.
// Removing more than is on hand fails with Forbidden.
func moveStock(ctx context.Context, repos *repository.Repositories, actorID, reference string, lines []stockLine, typ model.MovementType) ([]stockChange, error) {
	products, ids, err := lockProducts(ctx, repos, lines)
	if err != nil {
		return nil, err
	}
	before := snapshotStock(products)

	for _, l := range lines {
		if l.Quantity.IsZero() {
			continue
		}
		p := products[l.ProductID]
		switch typ {
		case model.MovementIn:
			p.Stock = p.Stock.Add(l.Quantity)
		case model.MovementOut:
			next := p.Stock.Sub(l.Quantity)
			if next.IsNegative() {
				return nil, apperror.Forbiddenf("insufficient stock for %s (%s): on hand %s, required %s",
					p.Code, p.Name, p.Stock.String(), l.Quantity.String())
			}
			p.Stock = next
		default:
			return nil, fmt.Errorf("unknown movement type %q", typ)
		}
		if err := recordMovement(ctx, repos, actorID, reference, p, typ, l.Quantity); err != nil {
			return nil, err
		}
	}
	return persistStock(ctx, repos, actorID, products, ids, before)
}

func snapshotStock(products map[uuid.UUID]*model.Product) map[uuid.UUID]decimal.Decimal {
	out := make(map[uuid.UUID]decimal.Decimal, len(products))
	for id, p := range products {
		out[id] = p.Stock
	}
	return out
}

func recordMovement(ctx context.Context, repos *repository.Repositories, actorID, reference string, p *model.Product, typ model.MovementType, qty decimal.Decimal) error {
	m := &model.StockMovement{
		ProductID:      p.ID,
		Type:           typ,
		Quantity:       qty,
		StockAfter:     p.Stock,
		CostPriceAfter: p.CostPrice,
		Reference:      reference,
	}
	m.CreatedBy = actorID
	m.UpdatedBy = actorID
	return repos.StockMovements.Create(ctx, m)
}

func persistStock(ctx context.Context, repos *repository.Repositories, actorID string, products map[uuid.UUID]*model.Product, ids []uuid.UUID, before map[uuid.UUID]decimal.Decimal) ([]stockChange, error) {
	changes := make([]stockChange, 0, len(ids))
	for _, id := range ids {
		p := products[id]
		if err := repos.Products.UpdateStock(ctx, id, p.Stock, p.CostPrice, actorID); err != nil {
			return nil, fmt.Errorf("update stock of %s: %w", p.Code, err)
		}
		changes = append(changes, stockChange{
			ProductID: id,
			Code:      p.Code,
			Name:      p.Name,
			OldStock:  before[id],
			NewStock:  p.Stock,
		})
	}
	return changes, nil
}
