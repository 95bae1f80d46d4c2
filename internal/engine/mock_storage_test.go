package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/mentat/internal/common"
	"github.com/Veraticus/mentat/internal/model"
	"github.com/Veraticus/mentat/internal/service"
)

// mockStorage is an in-memory Storage for pipeline unit tests.
type mockStorage struct {
	accounts     map[string]*model.Account
	rules        map[int64]*model.CategoryRule
	categories   []model.Category
	transactions []model.Transaction
	nextRuleID   int64
	createErr    error
}

var _ service.Storage = (*mockStorage)(nil)

func newMockStorage() *mockStorage {
	return &mockStorage{
		accounts: make(map[string]*model.Account),
		rules:    make(map[int64]*model.CategoryRule),
	}
}

func (m *mockStorage) GetAccount(_ context.Context, accountID, userID string) (*model.Account, error) {
	account, ok := m.accounts[accountID]
	if !ok || account.UserID != userID {
		return nil, common.ErrNotFound
	}
	return account, nil
}

func (m *mockStorage) CreateAccount(_ context.Context, account *model.Account) error {
	m.accounts[account.ID] = account
	return nil
}

func (m *mockStorage) CreateTransaction(_ context.Context, txn *model.Transaction) (string, error) {
	if m.createErr != nil {
		return "", m.createErr
	}
	if txn.Amount == 0 {
		return "", fmt.Errorf("transaction amount cannot be zero")
	}
	m.transactions = append(m.transactions, *txn)
	return txn.ID, nil
}

func (m *mockStorage) GetTransactionsInDateRange(_ context.Context, accountID string, start, end time.Time) ([]model.Transaction, error) {
	var out []model.Transaction
	for _, txn := range m.transactions {
		if txn.AccountID != accountID {
			continue
		}
		if txn.Date.Before(start) || txn.Date.After(end) {
			continue
		}
		out = append(out, txn)
	}
	return out, nil
}

func (m *mockStorage) GetDebitsByUser(_ context.Context, _ string, since time.Time) ([]model.Transaction, error) {
	var out []model.Transaction
	for _, txn := range m.transactions {
		if txn.Type == model.TypeDebit && !txn.Date.Before(since) {
			out = append(out, txn)
		}
	}
	return out, nil
}

func (m *mockStorage) MarkTransactionRecurring(_ context.Context, transactionID string) error {
	for i := range m.transactions {
		if m.transactions[i].ID == transactionID {
			m.transactions[i].IsRecurring = true
			return nil
		}
	}
	return common.ErrNotFound
}

func (m *mockStorage) GetCategories(_ context.Context, userID string) ([]model.Category, error) {
	var out []model.Category
	for _, cat := range m.categories {
		if cat.UserID == userID {
			out = append(out, cat)
		}
	}
	return out, nil
}

func (m *mockStorage) GetCategoryByName(_ context.Context, userID, name string) (*model.Category, error) {
	for _, cat := range m.categories {
		if cat.UserID == userID && cat.Name == name {
			c := cat
			return &c, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *mockStorage) CreateCategory(_ context.Context, userID, name string) (*model.Category, error) {
	cat := model.Category{ID: int64(len(m.categories) + 1), UserID: userID, Name: name, IsActive: true}
	m.categories = append(m.categories, cat)
	return &cat, nil
}

func (m *mockStorage) CreateRule(_ context.Context, rule *model.CategoryRule) error {
	m.nextRuleID++
	rule.ID = m.nextRuleID
	m.rules[rule.ID] = rule
	return nil
}

func (m *mockStorage) GetRule(_ context.Context, id int64) (*model.CategoryRule, error) {
	rule, ok := m.rules[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return rule, nil
}

func (m *mockStorage) GetRules(_ context.Context, userID string) ([]model.CategoryRule, error) {
	var out []model.CategoryRule
	for _, rule := range m.rules {
		if rule.UserID == userID {
			out = append(out, *rule)
		}
	}
	return out, nil
}

func (m *mockStorage) GetActiveRules(_ context.Context, userID string) ([]model.CategoryRule, error) {
	var out []model.CategoryRule
	for _, rule := range m.rules {
		if rule.UserID == userID && rule.IsActive {
			out = append(out, *rule)
		}
	}
	return out, nil
}

func (m *mockStorage) UpdateRule(_ context.Context, rule *model.CategoryRule) error {
	if _, ok := m.rules[rule.ID]; !ok {
		return common.ErrNotFound
	}
	m.rules[rule.ID] = rule
	return nil
}

func (m *mockStorage) UpdateRuleScoring(_ context.Context, id int64, confidence float64, isActive bool) error {
	rule, ok := m.rules[id]
	if !ok {
		return common.ErrNotFound
	}
	rule.Confidence = confidence
	rule.IsActive = isActive
	return nil
}

func (m *mockStorage) IncrementRuleMatchCount(_ context.Context, id int64, n int) error {
	rule, ok := m.rules[id]
	if !ok {
		return common.ErrNotFound
	}
	rule.MatchCount += n
	return nil
}

func (m *mockStorage) IncrementRuleCorrectCount(_ context.Context, id int64, n int) error {
	rule, ok := m.rules[id]
	if !ok {
		return common.ErrNotFound
	}
	rule.CorrectCount += n
	return nil
}

func (m *mockStorage) Migrate(_ context.Context) error { return nil }

func (m *mockStorage) Close() error { return nil }
