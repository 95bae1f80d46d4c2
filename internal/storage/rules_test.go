package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/mentat/internal/common"
	"github.com/Veraticus/mentat/internal/model"
)

func testRule(t *testing.T, store *SQLiteStorage, userID, name string, priority int) *model.CategoryRule {
	t.Helper()
	ctx := context.Background()

	cat, err := store.CreateCategory(ctx, userID, "cat-for-"+name)
	require.NoError(t, err)

	rule := &model.CategoryRule{
		UserID:     userID,
		CategoryID: cat.ID,
		Name:       name,
		Priority:   priority,
		Confidence: 0.8,
		IsActive:   true,
		Conditions: model.RuleConditions{
			MerchantName: &model.StringConditions{Contains: []string{"netflix"}},
		},
	}
	require.NoError(t, store.CreateRule(ctx, rule))
	return rule
}

func TestRules_CreateAssignsID(t *testing.T) {
	store := createTestStorage(t)

	rule := testRule(t, store, "user-1", "Streaming", 10)
	assert.Positive(t, rule.ID)
}

func TestRules_ConditionsRoundTrip(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	cat, err := store.CreateCategory(ctx, "user-1", "dining")
	require.NoError(t, err)

	min := 5.0
	max := 100.0
	debit := model.TypeDebit
	rule := &model.CategoryRule{
		UserID:     "user-1",
		CategoryID: cat.ID,
		Name:       "Dining out",
		Priority:   50,
		Confidence: 0.75,
		IsActive:   true,
		Conditions: model.RuleConditions{
			Type:         &debit,
			Amount:       &model.AmountCondition{Min: &min, Max: &max},
			MerchantName: &model.StringConditions{Contains: []string{"cafe", "grill"}},
			Description:  &model.StringConditions{StartsWith: []string{"POS "}},
		},
	}
	require.NoError(t, store.CreateRule(ctx, rule))

	got, err := store.GetRule(ctx, rule.ID)
	require.NoError(t, err)

	require.NotNil(t, got.Conditions.Type)
	assert.Equal(t, model.TypeDebit, *got.Conditions.Type)
	require.NotNil(t, got.Conditions.Amount)
	assert.InDelta(t, 5.0, *got.Conditions.Amount.Min, 1e-9)
	assert.InDelta(t, 100.0, *got.Conditions.Amount.Max, 1e-9)
	require.NotNil(t, got.Conditions.MerchantName)
	assert.Equal(t, []string{"cafe", "grill"}, got.Conditions.MerchantName.Contains)
	require.NotNil(t, got.Conditions.Description)
	assert.Equal(t, []string{"POS "}, got.Conditions.Description.StartsWith)
}

func TestRules_GetUnknown(t *testing.T) {
	store := createTestStorage(t)

	_, err := store.GetRule(context.Background(), 999)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRules_ActiveFilterAndOrder(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	testRule(t, store, "user-1", "Later", 50)
	earlier := testRule(t, store, "user-1", "Earlier", 10)
	disabled := testRule(t, store, "user-1", "Disabled", 20)
	require.NoError(t, store.UpdateRuleScoring(ctx, disabled.ID, disabled.Confidence, false))

	active, err := store.GetActiveRules(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, earlier.ID, active[0].ID)
	assert.Equal(t, "Later", active[1].Name)

	all, err := store.GetRules(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRules_UpdateLeavesCounters(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	rule := testRule(t, store, "user-1", "Streaming", 10)
	require.NoError(t, store.IncrementRuleMatchCount(ctx, rule.ID, 4))
	require.NoError(t, store.IncrementRuleCorrectCount(ctx, rule.ID, 2))

	rule.Name = "Streaming services"
	rule.Priority = 15
	require.NoError(t, store.UpdateRule(ctx, rule))

	got, err := store.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, "Streaming services", got.Name)
	assert.Equal(t, 15, got.Priority)
	assert.Equal(t, 4, got.MatchCount)
	assert.Equal(t, 2, got.CorrectCount)
}

func TestRules_UpdateScoring(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	rule := testRule(t, store, "user-1", "Streaming", 10)
	require.NoError(t, store.UpdateRuleScoring(ctx, rule.ID, 0.42, false))

	got, err := store.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.42, got.Confidence, 1e-9)
	assert.False(t, got.IsActive)
}

func TestRules_IncrementCounters(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	rule := testRule(t, store, "user-1", "Streaming", 10)
	for i := 0; i < 10; i++ {
		require.NoError(t, store.IncrementRuleMatchCount(ctx, rule.ID, 1))
	}
	require.NoError(t, store.IncrementRuleCorrectCount(ctx, rule.ID, 3))

	got, err := store.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.MatchCount)
	assert.Equal(t, 3, got.CorrectCount)
	assert.InDelta(t, 0.3, got.Accuracy(), 1e-9)
}

func TestRules_IncrementUnknown(t *testing.T) {
	store := createTestStorage(t)

	err := store.IncrementRuleMatchCount(context.Background(), 999, 1)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRules_CreateValidation(t *testing.T) {
	store := createTestStorage(t)

	err := store.CreateRule(context.Background(), &model.CategoryRule{UserID: "user-1", Name: "bad"})
	assert.ErrorIs(t, err, ErrInvalidRule)
}
