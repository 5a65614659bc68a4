package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"go-pos-backoffice/internal/repository"
)

// Backend serializes units of work: one writer at a time, each against a private copy.
type Backend struct {
	mu      sync.Mutex
	state   *state
	slot    chan struct{}
	maxWait time.Duration
}

type Option func(*Backend)

// WithClock uses now for created_at and updated_at stamps.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.state.now = now }
}

// WithMaxWait bounds how long Begin waits for the running unit of work to finish.
func WithMaxWait(d time.Duration) Option {
	return func(b *Backend) { b.maxWait = d }
}

// NewBackend returns an empty store.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		state: newState(time.Now),
		slot:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) Begin(ctx context.Context, opts *sql.TxOptions) (repository.Tx, error) {
	wait := ctx
	if b.maxWait > 0 {
		var cancel context.CancelFunc
		wait, cancel = context.WithTimeout(ctx, b.maxWait)
		defer cancel()
	}
	select {
	case b.slot <- struct{}{}:
	case <-wait.Done():
		if ctx.Err() != nil {
			return nil, fmt.Errorf("begin transaction: %w", ctx.Err())
		}
		return nil, fmt.Errorf("begin transaction: %w", repository.ErrBusy)
	}

	b.mu.Lock()
	work := b.state.clone()
	b.mu.Unlock()

	t := &tx{backend: b, state: work}
	if opts != nil {
		t.readOnly = opts.ReadOnly
	}
	t.repos = newRepositories(work)
	return t, nil
}

type tx struct {
	once     sync.Once
	backend  *Backend
	state    *state
	repos    *repository.Repositories
	readOnly bool
	done     bool
}

func (t *tx) Repositories() *repository.Repositories { return t.repos }

func (t *tx) Commit() error {
	if t.done {
		return sql.ErrTxDone
	}
	if !t.readOnly {
		t.backend.mu.Lock()
		t.backend.state = t.state
		t.backend.mu.Unlock()
	}
	t.finish()
	return nil
}

func (t *tx) Rollback() error {
	t.finish()
	return nil
}

func (t *tx) finish() {
	t.once.Do(func() {
		t.done = true
		<-t.backend.slot
	})
}

func newRepositories(s *state) *repository.Repositories {
	return &repository.Repositories{
		Products:        &productRepo{s},
		Suppliers:       &supplierRepo{s},
		Customers:       &customerRepo{s},
		PurchaseOrders:  &purchaseOrderRepo{s},
		PurchaseReturns: &purchaseReturnRepo{s},
		SalesOrders:     &salesOrderRepo{s},
		SalesReturns:    &salesReturnRepo{s},
		Payments:        &paymentRepo{s},
		Sequences:       &sequenceRepo{s},
		StockMovements:  &stockMovementRepo{s},
		Users:           &userRepo{s},
		Roles:           &roleRepo{s},
	}
}
