// Command reset-password overwrites a user's password directly in the Postgres store.
// It is an operator tool for lost owner credentials and bypasses the old-password check.
package main

import (
	"context"
	"flag"
	"os"

	"go-pos-backoffice/internal/config"
	"go-pos-backoffice/internal/repository"
	"go-pos-backoffice/internal/txn"
	"go-pos-backoffice/pkg/database"
	"go-pos-backoffice/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	email := flag.String("email", "admin@example.com", "account to reset")
	password := flag.String("password", "admin123", "new password")
	flag.Parse()

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
	tx := txn.NewCoordinator(repository.NewGormBackend(db, cfg.Tx.MaxWait), nil, cfg.Tx, log)

	err = tx.Run(context.Background(), "user.reset_password", func(ctx context.Context, repos *repository.Repositories) error {
		user, err := repos.Users.FindByEmail(ctx, *email)
		if err != nil {
			return err
		}
		if err := user.SetPassword(*password); err != nil {
			return err
		}
		return repos.Users.UpdatePassword(ctx, user.ID, user.Password)
	})
	if err != nil {
		log.WithError(err).WithField("email", *email).Error("password reset failed")
		os.Exit(1)
	}
	log.WithField("email", *email).Info("password reset")
}
