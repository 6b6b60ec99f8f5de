package main

import (
	"context"
	"log"
	"time"

	"quiz-tutor/internal/config"
	"quiz-tutor/internal/database"
	"quiz-tutor/internal/logger"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	l := logger.Get()
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		l.Fatal("Failed to connect to database", zap.String("driver", cfg.DB.Driver), zap.Error(err))
	}
	defer db.Close()

	if err := database.RunMigrations(db, cfg.DB.Driver); err != nil {
		l.Fatal("Failed to run migrations", zap.Error(err))
	}
	l.Info("Migrations applied", zap.String("driver", cfg.DB.Driver))
}
