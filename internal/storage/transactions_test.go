package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/mentat/internal/common"
	"github.com/Veraticus/mentat/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCreateTransaction_RoundTrip(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.CreateAccount(ctx, testAccount("acct-1", "user-1")))

	cat, err := store.CreateCategory(ctx, "user-1", "dining")
	require.NoError(t, err)
	categoryID := cat.ID

	txn := testTransaction("txn-1", "acct-1", day(2024, time.January, 5), 42.10)
	txn.MerchantName = "COFFEE SHOP"
	txn.CategoryID = &categoryID

	id, err := store.CreateTransaction(ctx, txn)
	require.NoError(t, err)
	assert.Equal(t, "txn-1", id)

	stored, err := store.GetTransactionsInDateRange(ctx, "acct-1",
		day(2024, time.January, 1), day(2024, time.January, 31))
	require.NoError(t, err)
	require.Len(t, stored, 1)

	got := stored[0]
	assert.Equal(t, "txn-1", got.ID)
	assert.InDelta(t, 42.10, got.Amount, 1e-9)
	assert.Equal(t, "COFFEE SHOP", got.MerchantName)
	assert.Equal(t, model.TypeDebit, got.Type)
	require.NotNil(t, got.CategoryID)
	assert.Equal(t, categoryID, *got.CategoryID)
	assert.False(t, got.IsRecurring)
	assert.InDelta(t, 1.0, got.Confidence, 1e-9)
}

func TestCreateTransaction_RejectsBadAmounts(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	require.NoError(t, store.CreateAccount(ctx, testAccount("acct-1", "user-1")))

	tests := []struct {
		name   string
		amount float64
	}{
		{name: "zero amount", amount: 0},
		{name: "negative amount", amount: -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := testTransaction("txn-bad", "acct-1", day(2024, time.January, 5), tt.amount)

			_, err := store.CreateTransaction(ctx, txn)
			assert.ErrorIs(t, err, ErrInvalidTransaction)
		})
	}
}

func TestCreateTransaction_DuplicateID(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	require.NoError(t, store.CreateAccount(ctx, testAccount("acct-1", "user-1")))

	txn := testTransaction("txn-1", "acct-1", day(2024, time.January, 5), 42.10)
	_, err := store.CreateTransaction(ctx, txn)
	require.NoError(t, err)

	_, err = store.CreateTransaction(ctx, txn)
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)
}

func TestGetTransactionsInDateRange_BoundsAndOrder(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	require.NoError(t, store.CreateAccount(ctx, testAccount("acct-1", "user-1")))

	dates := []time.Time{
		day(2024, time.January, 20),
		day(2024, time.January, 5),
		day(2024, time.February, 2),
		day(2024, time.January, 12),
	}
	for i, d := range dates {
		txn := testTransaction("txn-"+string(rune('a'+i)), "acct-1", d, 10)
		_, err := store.CreateTransaction(ctx, txn)
		require.NoError(t, err)
	}

	got, err := store.GetTransactionsInDateRange(ctx, "acct-1",
		day(2024, time.January, 5), day(2024, time.January, 20))
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Ordered ascending, February excluded, both endpoints included.
	assert.Equal(t, day(2024, time.January, 5), got[0].Date.UTC())
	assert.Equal(t, day(2024, time.January, 12), got[1].Date.UTC())
	assert.Equal(t, day(2024, time.January, 20), got[2].Date.UTC())
}

func TestGetTransactionsInDateRange_InvertedRange(t *testing.T) {
	store := createTestStorage(t)

	_, err := store.GetTransactionsInDateRange(context.Background(), "acct-1",
		day(2024, time.February, 1), day(2024, time.January, 1))
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestGetDebitsByUser_FiltersTypeAndOwner(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.CreateAccount(ctx, testAccount("acct-1", "user-1")))
	require.NoError(t, store.CreateAccount(ctx, testAccount("acct-2", "user-2")))

	debit := testTransaction("txn-debit", "acct-1", day(2024, time.March, 1), 15.49)
	_, err := store.CreateTransaction(ctx, debit)
	require.NoError(t, err)

	credit := testTransaction("txn-credit", "acct-1", day(2024, time.March, 2), 1000)
	credit.Type = model.TypeCredit
	_, err = store.CreateTransaction(ctx, credit)
	require.NoError(t, err)

	other := testTransaction("txn-other-user", "acct-2", day(2024, time.March, 3), 20)
	_, err = store.CreateTransaction(ctx, other)
	require.NoError(t, err)

	old := testTransaction("txn-old", "acct-1", day(2020, time.March, 1), 9.99)
	_, err = store.CreateTransaction(ctx, old)
	require.NoError(t, err)

	got, err := store.GetDebitsByUser(ctx, "user-1", day(2024, time.January, 1))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "txn-debit", got[0].ID)
}

func TestMarkTransactionRecurring(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	require.NoError(t, store.CreateAccount(ctx, testAccount("acct-1", "user-1")))

	txn := testTransaction("txn-1", "acct-1", day(2024, time.March, 1), 15.49)
	_, err := store.CreateTransaction(ctx, txn)
	require.NoError(t, err)

	require.NoError(t, store.MarkTransactionRecurring(ctx, "txn-1"))

	got, err := store.GetTransactionsInDateRange(ctx, "acct-1",
		day(2024, time.March, 1), day(2024, time.March, 31))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].IsRecurring)
}

func TestMarkTransactionRecurring_Unknown(t *testing.T) {
	store := createTestStorage(t)

	err := store.MarkTransactionRecurring(context.Background(), "txn-missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
