package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"go-pos-backoffice/internal/model"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectDB opens the Postgres pool behind dsn.
func ConnectDB(dsn string) (*gorm.DB, error) {
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true, // Disables implicit prepared statements for Supabase Transaction Mode
	}), &gorm.Config{
		Logger:      newLogger,
		PrepareStmt: false,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	// Connection Pooling Setup
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database pool: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.Use(otelgorm.NewPlugin()); err != nil {
		return nil, fmt.Errorf("install otelgorm plugin: %w", err)
	}
	return db, nil
}

// Models lists every persisted model in dependency order.
var Models = []interface{}{
	&model.Role{},
	&model.User{},
	&model.Product{},
	&model.Supplier{},
	&model.Customer{},
	&model.PurchaseOrder{},
	&model.PurchaseOrderDetail{},
	&model.PurchaseReturn{},
	&model.PurchaseReturnDetail{},
	&model.SalesOrder{},
	&model.SalesOrderProductDetail{},
	&model.SalesOrderServiceDetail{},
	&model.SalesReturn{},
	&model.SalesReturnProductDetail{},
	&model.SalesReturnServiceDetail{},
	&model.PaymentHistory{},
	&model.CodeSequence{},
	&model.StockMovement{},
}

// paymentImmutableSQL rejects UPDATE and DELETE on payment_histories at the database level.
const paymentImmutableSQL = `
CREATE OR REPLACE FUNCTION payment_histories_immutable() RETURNS trigger AS $$
BEGIN
	RAISE EXCEPTION 'payment histories are append-only';
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS trg_payment_histories_immutable ON payment_histories;
CREATE TRIGGER trg_payment_histories_immutable
	BEFORE UPDATE OR DELETE ON payment_histories
	FOR EACH ROW EXECUTE FUNCTION payment_histories_immutable();
`

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec(paymentImmutableSQL).Error; err != nil {
		return fmt.Errorf("install payment trigger: %w", err)
	}
	return nil
}
