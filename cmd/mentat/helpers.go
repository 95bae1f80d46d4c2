package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/Veraticus/mentat/internal/common"
	"github.com/Veraticus/mentat/internal/config"
	"github.com/Veraticus/mentat/internal/service"
	"github.com/Veraticus/mentat/internal/storage"
)

// initStorage opens the configured database and brings its schema current.
// Migration is retried briefly in case another process holds the database.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := config.DatabasePath(viper.GetString("database.path"))

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = common.WithRetry(ctx, func() error {
		return store.Migrate(ctx)
	}, service.RetryOptions{MaxAttempts: 3})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func currentUser() string {
	return viper.GetString("user")
}
