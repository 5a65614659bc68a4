package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotFound is returned by every repository when the requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrBusy is returned by a backend that could not start a unit of work within its max wait.
	ErrBusy = errors.New("store busy")
)

// Repositories is the full set of stores bound to one unit of work.
type Repositories struct {
	Products        ProductRepository
	Suppliers       SupplierRepository
	Customers       CustomerRepository
	PurchaseOrders  PurchaseOrderRepository
	PurchaseReturns PurchaseReturnRepository
	SalesOrders     SalesOrderRepository
	SalesReturns    SalesReturnRepository
	Payments        PaymentRepository
	Sequences       SequenceRepository
	StockMovements  StockMovementRepository
	Users           UserRepository
	Roles           RoleRepository
}

// NewRepositories binds every repository to db, normally an open transaction.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Products:        NewProductRepo(db),
		Suppliers:       NewSupplierRepo(db),
		Customers:       NewCustomerRepo(db),
		PurchaseOrders:  NewPurchaseOrderRepo(db),
		PurchaseReturns: NewPurchaseReturnRepo(db),
		SalesOrders:     NewSalesOrderRepo(db),
		SalesReturns:    NewSalesReturnRepo(db),
		Payments:        NewPaymentRepo(db),
		Sequences:       NewSequenceRepo(db),
		StockMovements:  NewStockMovementRepo(db),
		Users:           NewUserRepo(db),
		Roles:           NewRoleRepo(db),
	}
}

// Tx is one open unit of work on a backend.
type Tx interface {
	Repositories() *Repositories
	Commit() error
	Rollback() error
}

// Backend opens units of work.
type Backend interface {
	Begin(ctx context.Context, opts *sql.TxOptions) (Tx, error)
}

// GormBackend runs units of work as database transactions.
type GormBackend struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

// NewGormBackend opens transactions on db. A positive lockTimeout bounds every row-lock wait
// inside a transaction; Postgres then fails the statement with SQLSTATE 55P03.
func NewGormBackend(db *gorm.DB, lockTimeout time.Duration) *GormBackend {
	return &GormBackend{db: db, lockTimeout: lockTimeout}
}

func (b *GormBackend) Begin(ctx context.Context, opts *sql.TxOptions) (Tx, error) {
	tx := b.db.WithContext(ctx).Begin(opts)
	if tx.Error != nil {
		return nil, fmt.Errorf("begin transaction: %w", tx.Error)
	}
	if b.lockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", b.lockTimeout.Milliseconds())
		if err := tx.Exec(stmt).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("set lock timeout: %w", err)
		}
	}
	return &gormTx{tx: tx, repos: NewRepositories(tx)}, nil
}

type gormTx struct {
	tx    *gorm.DB
	repos *Repositories
}

func (t *gormTx) Repositories() *Repositories { return t.repos }

func (t *gormTx) Commit() error { return t.tx.Commit().Error }

func (t *gormTx) Rollback() error {
	err := t.tx.Rollback().Error
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
