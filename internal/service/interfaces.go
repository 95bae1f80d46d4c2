// Package service defines the interfaces the engine requires from its
// external collaborators.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/mentat/internal/model"
)

// Storage defines the contract for the persistence layer the engine consumes.
// The engine never owns storage; it only reads and writes through this
// interface. Implementations must make the rule counter increments atomic;
// the engine never read-modify-writes counters in application memory.
type Storage interface {
	// Account operations
	GetAccount(ctx context.Context, accountID, userID string) (*model.Account, error)
	CreateAccount(ctx context.Context, account *model.Account) error

	// Transaction operations
	CreateTransaction(ctx context.Context, txn *model.Transaction) (string, error)
	GetTransactionsInDateRange(ctx context.Context, accountID string, start, end time.Time) ([]model.Transaction, error)
	GetDebitsByUser(ctx context.Context, userID string, since time.Time) ([]model.Transaction, error)
	MarkTransactionRecurring(ctx context.Context, transactionID string) error

	// Category operations
	GetCategories(ctx context.Context, userID string) ([]model.Category, error)
	GetCategoryByName(ctx context.Context, userID, name string) (*model.Category, error)
	CreateCategory(ctx context.Context, userID, name string) (*model.Category, error)

	// Rule operations
	CreateRule(ctx context.Context, rule *model.CategoryRule) error
	GetRule(ctx context.Context, id int64) (*model.CategoryRule, error)
	GetRules(ctx context.Context, userID string) ([]model.CategoryRule, error)
	GetActiveRules(ctx context.Context, userID string) ([]model.CategoryRule, error)
	UpdateRule(ctx context.Context, rule *model.CategoryRule) error
	UpdateRuleScoring(ctx context.Context, id int64, confidence float64, isActive bool) error
	IncrementRuleMatchCount(ctx context.Context, id int64, n int) error
	IncrementRuleCorrectCount(ctx context.Context, id int64, n int) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for storage-facing operations
// issued by callers of the engine. The engine itself never retries.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
