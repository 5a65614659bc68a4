package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"go-pos-backoffice/internal/config"
	"go-pos-backoffice/internal/handler"
	"go-pos-backoffice/internal/lock"
	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/repository"
	"go-pos-backoffice/internal/repository/memory"
	"go-pos-backoffice/internal/service"
	"go-pos-backoffice/internal/txn"
	"go-pos-backoffice/internal/ws"
	"go-pos-backoffice/pkg/database"
	"go-pos-backoffice/pkg/jwt"
	"go-pos-backoffice/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// 1. Load env
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logger.New(cfg.LogLevel)
	if envErr != nil {
		log.Warn(".env file not found, relying on system env")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Storage and locks
	backend, closeBackend, err := openBackend(&cfg, log)
	if err != nil {
		log.WithError(err).Fatal("open store")
	}
	defer closeBackend()

	locker, closeLocker, err := openLocker(ctx, &cfg, log)
	if err != nil {
		log.WithError(err).Fatal("connect lock service")
	}
	defer closeLocker()

	tx := txn.NewCoordinator(backend, locker, cfg.Tx, log)

	// 3. WebSocket hub
	hub := ws.NewHub(log)
	go hub.Run(ctx)

	// 4. Services
	tokens := jwt.NewManager(cfg.JWTSecret, cfg.JWTTTL)
	authService := service.NewAuthService(tx, tokens)
	masterService := service.NewMasterDataService(tx, hub)
	sequenceService := service.NewSequenceService(tx)
	purchaseService := service.NewPurchaseService(tx, hub, cfg.CostPricePrecision)
	salesService := service.NewSalesService(tx, hub, service.SalesPolicy{
		CancelRestock: cfg.SalesCancelRestock,
		ReturnRestock: cfg.SalesReturnRestock,
	})
	paymentService := service.NewPaymentService(tx, hub)
	dashboardService := service.NewDashboardService(tx)

	// 5. Seed roles and the first owner account
	if _, err := authService.EnsureUser(ctx, cfg.AdminEmail, "Master Administrator", cfg.AdminPassword, model.RoleMasterAdmin); err != nil {
		log.WithError(err).Fatal("seed admin user")
	}
	log.WithField("email", cfg.AdminEmail).Info("admin user ready")

	// 6. HTTP
	app := fiber.New(fiber.Config{
		AppName:      "Audio POS Back Office v1.0",
		ErrorHandler: handler.ErrorHandler(log),
	})
	app.Use(fiberlogger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	handler.Register(app, handler.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Dashboard:  handler.NewDashboardHandler(dashboardService),
		MasterData: handler.NewMasterDataHandler(masterService, sequenceService),
		Orders:     handler.NewOrderHandler(purchaseService, salesService),
		Payments:   handler.NewPaymentHandler(paymentService),
		Roles:      handler.NewRoleHandler(authService),
	}, authService, hub)

	// 7. Graceful shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Error("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}
	log.Info("server exited")
}

func openBackend(cfg *config.Config, log logrus.FieldLogger) (repository.Backend, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		log.Warn("using in-memory store, data is lost on restart")
		return memory.NewBackend(memory.WithMaxWait(cfg.Tx.MaxWait)), func() {}, nil
	case config.StoreDriverPostgres:
		db, err := database.ConnectDB(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(db); err != nil {
			return nil, nil, err
		}
		log.Info("database connected and migrated")
		closeDB := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return repository.NewGormBackend(db, cfg.Tx.MaxWait), closeDB, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// openLocker returns nil without a Redis address; the coordinator then locks in-process.
func openLocker(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (lock.Locker, func(), error) {
	if cfg.RedisAddr == "" {
		return nil, func() {}, nil
	}
	rdb, err := lock.NewRedisClient(ctx, cfg.RedisAddr)
	if err != nil {
		return nil, nil, err
	}
	log.WithField("addr", cfg.RedisAddr).Info("using redis locks")
	return lock.NewRedisLocker(rdb, cfg.Tx.Timeout), func() { _ = rdb.Close() }, nil
}
