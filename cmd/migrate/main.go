package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"headsup-server/internal/config"
	"headsup-server/pkg/db"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Instance().Store
	if cfg.Driver != db.Postgres {
		logrus.WithField("driver", cfg.Driver).Info("nothing to migrate")
		return
	}

	dbh, err := db.WaitFor(context.Background(), cfg.Driver, cfg.DSN, time.Second*10)
	if err != nil {
		logrus.WithError(err).Fatal("could not connect to database")
	}
	defer dbh.Close()

	if err := db.Migrate(dbh, cfg.MigrationsPath); err != nil {
		logrus.WithError(err).Fatal("could not migrate")
	}

	logrus.Info("migrations applied")
}
