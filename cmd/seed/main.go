// Command seed migrates the Postgres schema and creates the default roles and owner account.
package main

import (
	"context"

	"go-pos-backoffice/internal/config"
	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/repository"
	"go-pos-backoffice/internal/service"
	"go-pos-backoffice/internal/txn"
	"go-pos-backoffice/pkg/database"
	"go-pos-backoffice/pkg/jwt"
	"go-pos-backoffice/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Warn(".env file not found, relying on system env")
	}
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logger.New(cfg.LogLevel)

	db, err := database.ConnectDB(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("connect database")
	}
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("migrate")
	}
	log.Info("schema migrated")

	tx := txn.NewCoordinator(repository.NewGormBackend(db, cfg.Tx.MaxWait), nil, cfg.Tx, log)
	auth := service.NewAuthService(tx, jwt.NewManager(cfg.JWTSecret, cfg.JWTTTL))
	user, err := auth.EnsureUser(context.Background(), cfg.AdminEmail, "Master Administrator", cfg.AdminPassword, model.RoleMasterAdmin)
	if err != nil {
		log.WithError(err).Fatal("seed admin user")
	}
	log.WithFields(logrus.Fields{"email": user.Email, "role": user.RoleCode()}).Info("seed complete")
}
