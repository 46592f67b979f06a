package main

import (
	"context"
	"os"

	"github.com/Fanatic033/shoro-market/internal/config"
	"github.com/Fanatic033/shoro-market/internal/migrations"
	"github.com/Fanatic033/shoro-market/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("shoro-migrate", "error").Error("load config", "error", err)
		os.Exit(1)
	}
	log := logger.New("shoro-migrate", cfg.LogLevel)

	if err := migrations.Apply(context.Background(), cfg.Postgres().DSN(), log); err != nil {
		log.Error("apply migrations", "error", err)
		os.Exit(1)
	}
}
