package service

import (
	"context"
	"time"

	"go-pos-backoffice/internal/policy"
	"go-pos-backoffice/internal/repository"
	"go-pos-backoffice/internal/txn"
	"go-pos-backoffice/pkg/apperror"

	"github.com/shopspring/decimal"
)

const maxMovementDays = 365

type DashboardService interface {
	GetStockMovement(ctx context.Context, actor policy.Actor, days int) ([]repository.StockMovementData, error)
	GetDashboardStats(ctx context.Context, actor policy.Actor) (*repository.DashboardStats, error)
}

type dashboardService struct {
	tx  *txn.Coordinator
	now func() time.Time
}

func NewDashboardService(tx *txn.Coordinator) DashboardService {
	return &dashboardService{tx: tx, now: time.Now}
}

func (s *dashboardService) GetStockMovement(ctx context.Context, actor policy.Actor, days int) ([]repository.StockMovementData, error) {
	if err := begin(actor, policy.OpViewDashboard, nil); err != nil {
		return nil, err
	}
	if days < 1 || days > maxMovementDays {
		return nil, apperror.Validationf("days must be between 1 and %d", maxMovementDays)
	}

	endDate := s.now()
	startDate := endDate.AddDate(0, 0, -days)

	var out []repository.StockMovementData
	err := s.tx.Run(ctx, "dashboard.stock_movement", func(ctx context.Context, repos *repository.Repositories) error {
		var err error
		out, err = repos.StockMovements.GetStockMovement(ctx, startDate, endDate)
		return err
	}, txn.ReadOnly())
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetDashboardStats hides the cost-based valuation from roles that may not see purchase prices.
func (s *dashboardService) GetDashboardStats(ctx context.Context, actor policy.Actor) (*repository.DashboardStats, error) {
	if err := begin(actor, policy.OpViewDashboard, nil); err != nil {
		return nil, err
	}

	var stats *repository.DashboardStats
	err := s.tx.Run(ctx, "dashboard.stats", func(ctx context.Context, repos *repository.Repositories) error {
		var err error
		stats, err = repos.StockMovements.GetDashboardStats(ctx)
		return err
	}, txn.ReadOnly())
	if err != nil {
		return nil, err
	}
	if !showPrices(actor) {
		stats.TotalValuation = decimal.Zero
	}
	return stats, nil
}
