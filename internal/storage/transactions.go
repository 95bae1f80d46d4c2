package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/mentat/internal/common"
	"github.com/Veraticus/mentat/internal/model"
)

const transactionColumns = `id, account_id, date, amount, description, merchant_name,
		transaction_type, category_id, is_recurring, user_verified, confidence_score`

// CreateTransaction persists one normalized transaction and returns its ID.
// Zero amounts are rejected here, at the persistence boundary.
func (s *SQLiteStorage) CreateTransaction(ctx context.Context, txn *model.Transaction) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	if err := validateTransaction(txn); err != nil {
		return "", err
	}

	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		txn.ID,
		txn.AccountID,
		txn.Date,
		txn.Amount,
		txn.Description,
		nullString(txn.MerchantName),
		string(txn.Type),
		nullInt64(txn.CategoryID),
		txn.IsRecurring,
		txn.UserVerified,
		txn.Confidence,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("transaction %s: %w", txn.ID, common.ErrDuplicateEntry)
		}
		return "", fmt.Errorf("failed to create transaction: %w", err)
	}

	return txn.ID, nil
}

// GetTransactionsInDateRange returns an account's transactions with dates in
// [start, end], ordered by date ascending.
func (s *SQLiteStorage) GetTransactionsInDateRange(ctx context.Context, accountID string, start, end time.Time) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(accountID, "accountID"); err != nil {
		return nil, err
	}
	if start.After(end) {
		return nil, ErrInvalidDateRange
	}

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC`

	rows, err := s.db.QueryContext(ctx, query, accountID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

// GetDebitsByUser returns all debit transactions across the user's accounts
// since the given time, ordered by date ascending.
func (s *SQLiteStorage) GetDebitsByUser(ctx context.Context, userID string, since time.Time) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	query := `
		SELECT t.id, t.account_id, t.date, t.amount, t.description, t.merchant_name,
			t.transaction_type, t.category_id, t.is_recurring, t.user_verified, t.confidence_score
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE a.user_id = ? AND t.transaction_type = ? AND t.date >= ?
		ORDER BY t.date ASC`

	rows, err := s.db.QueryContext(ctx, query, userID, string(model.TypeDebit), since)
	if err != nil {
		return nil, fmt.Errorf("failed to query debits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

// MarkTransactionRecurring flags one transaction as part of a recurring
// payment pattern.
func (s *SQLiteStorage) MarkTransactionRecurring(ctx context.Context, transactionID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(transactionID, "transactionID"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET is_recurring = 1 WHERE id = ?`, transactionID)
	if err != nil {
		return fmt.Errorf("failed to mark transaction recurring: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %s: %w", transactionID, common.ErrNotFound)
	}

	slog.Debug("marked transaction recurring", "transaction", transactionID)
	return nil
}

func scanTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	var txns []model.Transaction
	for rows.Next() {
		var (
			txn          model.Transaction
			merchantName sql.NullString
			categoryID   sql.NullInt64
			txnType      string
		)
		err := rows.Scan(
			&txn.ID,
			&txn.AccountID,
			&txn.Date,
			&txn.Amount,
			&txn.Description,
			&merchantName,
			&txnType,
			&categoryID,
			&txn.IsRecurring,
			&txn.UserVerified,
			&txn.Confidence,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		txn.Type = model.TransactionType(txnType)
		if merchantName.Valid {
			txn.MerchantName = merchantName.String
		}
		if categoryID.Valid {
			id := categoryID.Int64
			txn.CategoryID = &id
		}
		txns = append(txns, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txns, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
