package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/pricing"
	"go-pos-backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type paymentRepo struct{ s *state }

func (r *paymentRepo) Create(_ context.Context, payment *model.PaymentHistory) error {
	if !payment.Amount.IsPositive() {
		return fmt.Errorf("new row for relation \"payment_histories\" violates check constraint \"chk_payment_histories_amount_positive\"")
	}
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = r.s.now()
	}
	r.s.payments = append(r.s.payments, *payment)
	return nil
}

func (r *paymentRepo) FindByParent(_ context.Context, parentType model.PaymentParentType, parentID uuid.UUID) ([]model.PaymentHistory, error) {
	out := []model.PaymentHistory{}
	for _, p := range r.s.payments {
		if p.ParentType == parentType && p.ParentID == parentID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *paymentRepo) SumByParent(_ context.Context, parentType model.PaymentParentType, parentID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, p := range r.s.payments {
		if p.ParentType == parentType && p.ParentID == parentID {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

type sequenceRepo struct{ s *state }

func (r *sequenceRepo) Next(_ context.Context, prefix string) (int64, error) {
	if !model.IsCodePrefix(prefix) {
		return 0, fmt.Errorf("unknown code prefix %q", prefix)
	}
	last, ok := r.s.sequences[prefix]
	if !ok {
		seed, err := r.lastStored(prefix)
		if err != nil {
			return 0, err
		}
		last = seed
	}
	r.s.sequences[prefix] = last + 1
	return last + 1, nil
}

func (r *sequenceRepo) lastStored(prefix string) (int64, error) {
	var codes []string
	switch prefix {
	case model.PrefixProduct:
		for _, x := range r.s.products {
			codes = append(codes, x.Code)
		}
	case model.PrefixSupplier:
		for _, x := range r.s.suppliers {
			codes = append(codes, x.Code)
		}
	case model.PrefixCustomer:
		for _, x := range r.s.customers {
			codes = append(codes, x.Code)
		}
	case model.PrefixPurchaseOrder:
		for _, x := range r.s.purchaseOrders {
			codes = append(codes, x.Code)
		}
	case model.PrefixPurchaseReturn:
		for _, x := range r.s.purchaseReturns {
			codes = append(codes, x.Code)
		}
	case model.PrefixSalesOrder:
		for _, x := range r.s.salesOrders {
			codes = append(codes, x.Code)
		}
	case model.PrefixSalesReturn:
		for _, x := range r.s.salesReturns {
			codes = append(codes, x.Code)
		}
	}

	last := ""
	for _, c := range codes {
		if strings.HasPrefix(c, prefix) && c > last {
			last = c
		}
	}
	if last == "" {
		return 0, nil
	}
	return pricing.ParseCode(prefix, last)
}

type stockMovementRepo struct{ s *state }

func (r *stockMovementRepo) Create(_ context.Context, movement *model.StockMovement) error {
	r.s.touch(&movement.BaseModel)
	row := *movement
	row.Product = nil
	r.s.movements = append(r.s.movements, row)
	return nil
}

func (r *stockMovementRepo) FindByProduct(_ context.Context, productID uuid.UUID, limit int) ([]model.StockMovement, error) {
	out := []model.StockMovement{}
	for i := len(r.s.movements) - 1; i >= 0; i-- {
		if r.s.movements[i].ProductID != productID {
			continue
		}
		out = append(out, r.s.movements[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *stockMovementRepo) FindByReference(_ context.Context, reference string) ([]model.StockMovement, error) {
	out := []model.StockMovement{}
	for _, m := range r.s.movements {
		if m.Reference == reference {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *stockMovementRepo) GetStockMovement(_ context.Context, startDate, endDate time.Time) ([]repository.StockMovementData, error) {
	byDate := map[string]*repository.StockMovementData{}
	for _, m := range r.s.movements {
		if m.CreatedAt.Before(startDate) || m.CreatedAt.After(endDate) {
			continue
		}
		date := m.CreatedAt.Format("2006-01-02")
		day, ok := byDate[date]
		if !ok {
			day = &repository.StockMovementData{Date: date, Inbound: decimal.Zero, Outbound: decimal.Zero}
			byDate[date] = day
		}
		switch m.Type {
		case model.MovementIn:
			day.Inbound = day.Inbound.Add(m.Quantity)
		case model.MovementOut:
			day.Outbound = day.Outbound.Add(m.Quantity)
		}
	}
	out := make([]repository.StockMovementData, 0, len(byDate))
	for _, day := range byDate {
		out = append(out, *day)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (r *stockMovementRepo) GetDashboardStats(context.Context) (*repository.DashboardStats, error) {
	stats := &repository.DashboardStats{TotalValuation: decimal.Zero}
	for _, p := range r.s.products {
		stats.TotalProducts++
		if p.Stock.LessThanOrEqual(p.RestockThreshold) {
			stats.LowStockCount++
		}
		stats.TotalValuation = stats.TotalValuation.Add(p.Stock.Mul(p.CostPrice))
	}
	return stats, nil
}

type userRepo struct{ s *state }

func (r *userRepo) withRole(u model.User) *model.User {
	u.Role = nil
	if u.RoleID != nil {
		for _, role := range r.s.roles {
			if role.ID == *u.RoleID {
				role := role
				u.Role = &role
			}
		}
	}
	return &u
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.s.users {
		if u.Email == email {
			return r.withRole(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.withRole(u), nil
}

func (r *userRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return duplicate("users", "email", user.Email)
		}
	}
	r.s.touch(&user.BaseModel)
	row := *user
	row.Role = nil
	r.s.users[user.ID] = row
	return nil
}

func (r *userRepo) UpdatePassword(_ context.Context, userID uuid.UUID, hashedPassword string) error {
	u, ok := r.s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.Password = hashedPassword
	u.UpdatedAt = r.s.now()
	r.s.users[userID] = u
	return nil
}

type roleRepo struct{ s *state }

func (r *roleRepo) FindAll(context.Context) ([]model.Role, error) {
	return cloneSlice(r.s.roles), nil
}

func (r *roleRepo) FindByCode(_ context.Context, code string) (*model.Role, error) {
	for _, role := range r.s.roles {
		if role.Code == code {
			role := role
			return &role, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *roleRepo) SeedDefaults(ctx context.Context) error {
	for _, def := range model.DefaultRoles {
		if _, err := r.FindByCode(ctx, def.Code); err == nil {
			continue
		}
		role := def
		role.ID = r.s.nextRoleID
		r.s.nextRoleID++
		r.s.roles = append(r.s.roles, role)
	}
	return nil
}
