package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Veraticus/mentat/internal/common"
	"github.com/Veraticus/mentat/internal/model"
)

// GetAccount returns the account with the given ID when it belongs to the
// user, or common.ErrNotFound. Inactive accounts are still returned; the
// validator decides what to do with them.
func (s *SQLiteStorage) GetAccount(ctx context.Context, accountID, userID string) (*model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(accountID, "accountID"); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	query := `
		SELECT id, user_id, name, is_active
		FROM accounts
		WHERE id = ? AND user_id = ?`

	var account model.Account
	err := s.db.QueryRowContext(ctx, query, accountID, userID).Scan(
		&account.ID, &account.UserID, &account.Name, &account.IsActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %s: %w", accountID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}

	return &account, nil
}

// CreateAccount persists a new account.
func (s *SQLiteStorage) CreateAccount(ctx context.Context, account *model.Account) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAccount(account); err != nil {
		return err
	}

	query := `
		INSERT INTO accounts (id, user_id, name, is_active)
		VALUES (?, ?, ?, ?)`

	if _, err := s.db.ExecContext(ctx, query, account.ID, account.UserID, account.Name, account.IsActive); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("account %s: %w", account.ID, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}
