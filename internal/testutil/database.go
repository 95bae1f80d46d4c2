// Package testutil provides shared helpers for tests that need a real
// storage backend.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/mentat/internal/model"
	"github.com/Veraticus/mentat/internal/storage"
)

// TestDB bundles a migrated in-memory database with the IDs of any seeded
// fixtures.
type TestDB struct {
	Storage     *storage.SQLiteStorage
	CategoryIDs map[string]int64
	t           *testing.T
}

// SetupTestDB creates a migrated in-memory database, seeds the given
// account and category names for the user, and registers cleanup.
func SetupTestDB(t *testing.T, userID string, accountIDs []string, categoryNames []string) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	for _, id := range accountIDs {
		account := &model.Account{ID: id, UserID: userID, Name: "Account " + id, IsActive: true}
		if err := store.CreateAccount(ctx, account); err != nil {
			t.Fatalf("failed to seed account %q: %v", id, err)
		}
	}

	categoryIDs := make(map[string]int64, len(categoryNames))
	for _, name := range categoryNames {
		cat, err := store.CreateCategory(ctx, userID, name)
		if err != nil {
			t.Fatalf("failed to seed category %q: %v", name, err)
		}
		categoryIDs[name] = cat.ID
	}

	t.Cleanup(func() { _ = store.Close() })

	return &TestDB{
		Storage:     store,
		CategoryIDs: categoryIDs,
		t:           t,
	}
}
