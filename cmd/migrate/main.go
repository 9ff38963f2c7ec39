package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"billsnap/pkg/config"
	"billsnap/pkg/logger"
	"billsnap/pkg/postgres"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	files, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	if err != nil {
		appLogger.Fatal("Failed to list migrations", zap.Error(err))
	}
	if len(files) == 0 {
		appLogger.Fatal("No migration files found in migrations/")
	}
	sort.Strings(files)

	for _, file := range files {
		sql, err := os.ReadFile(file)
		if err != nil {
			appLogger.Fatal("Failed to read migration", zap.String("file", file), zap.Error(err))
		}

		if _, err := db.Exec(ctx, string(sql)); err != nil {
			appLogger.Fatal("Migration failed", zap.String("file", file), zap.Error(err))
		}
		appLogger.Info("Applied migration", zap.String("file", file))
	}

	appLogger.Info("All migrations applied")
}
