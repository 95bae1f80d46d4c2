package storage

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Veraticus/mentat/internal/common"
	"github.com/Veraticus/mentat/internal/model"
)

const ruleColumns = `id, user_id, category_id, name, conditions, priority,
		confidence_score, is_active, match_count, correct_count, created_at, updated_at`

// CreateRule persists a new category rule and fills in its assigned ID.
func (s *SQLiteStorage) CreateRule(ctx context.Context, rule *model.CategoryRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}

	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return fmt.Errorf("failed to encode rule conditions: %w", err)
	}

	query := `
		INSERT INTO category_rules (
			user_id, category_id, name, conditions, priority,
			confidence_score, is_active, match_count, correct_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := s.db.ExecContext(ctx, query,
		rule.UserID,
		rule.CategoryID,
		rule.Name,
		string(conditions),
		rule.Priority,
		rule.Confidence,
		rule.IsActive,
		rule.MatchCount,
		rule.CorrectCount,
	)
	if err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get rule ID: %w", err)
	}
	rule.ID = id
	return nil
}

// GetRule returns one rule by ID, or common.ErrNotFound.
func (s *SQLiteStorage) GetRule(ctx context.Context, id int64) (*model.CategoryRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT ` + ruleColumns + `
		FROM category_rules
		WHERE id = ?`

	rule, err := scanRule(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("rule %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return rule, nil
}

// GetRules returns all of the user's rules, active or not, ordered by
// priority then ID.
func (s *SQLiteStorage) GetRules(ctx context.Context, userID string) ([]model.CategoryRule, error) {
	return s.queryRules(ctx, userID, false)
}

// GetActiveRules returns the user's active rules ordered by priority then ID.
func (s *SQLiteStorage) GetActiveRules(ctx context.Context, userID string) ([]model.CategoryRule, error) {
	return s.queryRules(ctx, userID, true)
}

func (s *SQLiteStorage) queryRules(ctx context.Context, userID string, activeOnly bool) ([]model.CategoryRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	query := `
		SELECT ` + ruleColumns + `
		FROM category_rules
		WHERE user_id = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY priority ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.CategoryRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}
	return rules, nil
}

// UpdateRule rewrites a rule's definition fields. Counters are left alone;
// they only move through the increment operations.
func (s *SQLiteStorage) UpdateRule(ctx context.Context, rule *model.CategoryRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}

	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return fmt.Errorf("failed to encode rule conditions: %w", err)
	}

	query := `
		UPDATE category_rules
		SET category_id = ?, name = ?, conditions = ?, priority = ?,
			confidence_score = ?, is_active = ?
		WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query,
		rule.CategoryID,
		rule.Name,
		string(conditions),
		rule.Priority,
		rule.Confidence,
		rule.IsActive,
		rule.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}
	return requireRowAffected(result, rule.ID)
}

// UpdateRuleScoring rewrites only a rule's confidence and active flag, as
// the optimization pass does.
func (s *SQLiteStorage) UpdateRuleScoring(ctx context.Context, id int64, confidence float64, isActive bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE category_rules SET confidence_score = ?, is_active = ? WHERE id = ?`,
		confidence, isActive, id)
	if err != nil {
		return fmt.Errorf("failed to update rule scoring: %w", err)
	}
	return requireRowAffected(result, id)
}

// IncrementRuleMatchCount adds n to a rule's match counter. The increment
// happens inside the database so concurrent evaluators never lose updates.
func (s *SQLiteStorage) IncrementRuleMatchCount(ctx context.Context, id int64, n int) error {
	return s.incrementRuleCounter(ctx, "match_count", id, n)
}

// IncrementRuleCorrectCount adds n to a rule's correct-prediction counter.
func (s *SQLiteStorage) IncrementRuleCorrectCount(ctx context.Context, id int64, n int) error {
	return s.incrementRuleCounter(ctx, "correct_count", id, n)
}

func (s *SQLiteStorage) incrementRuleCounter(ctx context.Context, column string, id int64, n int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	query := fmt.Sprintf(`UPDATE category_rules SET %s = %s + ? WHERE id = ?`, column, column)
	result, err := s.db.ExecContext(ctx, query, n, id)
	if err != nil {
		return fmt.Errorf("failed to increment %s: %w", column, err)
	}
	return requireRowAffected(result, id)
}

func requireRowAffected(result sql.Result, ruleID int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rule %d: %w", ruleID, common.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (*model.CategoryRule, error) {
	var (
		rule       model.CategoryRule
		conditions string
	)
	err := row.Scan(
		&rule.ID,
		&rule.UserID,
		&rule.CategoryID,
		&rule.Name,
		&conditions,
		&rule.Priority,
		&rule.Confidence,
		&rule.IsActive,
		&rule.MatchCount,
		&rule.CorrectCount,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan rule: %w", err)
	}

	// Stored predicates only ever contain the recognized clause keys;
	// strict decoding catches rows written by a newer schema.
	decoder := json.NewDecoder(bytes.NewReader([]byte(conditions)))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&rule.Conditions); err != nil {
		return nil, fmt.Errorf("failed to decode conditions for rule %d: %w", rule.ID, err)
	}

	return &rule, nil
}
