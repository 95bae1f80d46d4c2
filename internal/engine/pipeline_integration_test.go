package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/mentat/internal/csvimport"
	"github.com/Veraticus/mentat/internal/engine"
	"github.com/Veraticus/mentat/internal/model"
	"github.com/Veraticus/mentat/internal/testutil"
)

// End-to-end over a real database: CSV text in, normalized rows out.
func TestPipeline_CSVToDatabase(t *testing.T) {
	db := testutil.SetupTestDB(t, "user-1", []string{"acct-1"}, []string{"dining"})
	ctx := context.Background()

	csv := "date,amount,description,accountId,category\n" +
		"2024-01-05,-42.10,\"COFFEE SHOP, PORTLAND\",acct-1,dining\n" +
		"2024-01-06,2500.00,PAYROLL DEPOSIT,acct-1,\n"

	records, err := csvimport.Parse(csv, csvimport.FieldMapping{})
	require.NoError(t, err)
	require.Len(t, records, 2)

	pipeline := engine.NewPipeline(db.Storage)
	result, err := pipeline.ProcessBatch(ctx, records, "user-1", nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 0, result.Duplicates)
	assert.Equal(t, 0, result.Errors)

	start := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.January, 6, 23, 59, 59, 0, time.UTC)
	stored, err := db.Storage.GetTransactionsInDateRange(ctx, "acct-1", start, end)
	require.NoError(t, err)
	require.Len(t, stored, 2)

	debit := stored[0]
	assert.Equal(t, model.TypeDebit, debit.Type)
	assert.InDelta(t, 42.10, debit.Amount, 1e-9)
	require.NotNil(t, debit.CategoryID)
	assert.Equal(t, db.CategoryIDs["dining"], *debit.CategoryID)

	credit := stored[1]
	assert.Equal(t, model.TypeCredit, credit.Type)
	assert.Nil(t, credit.CategoryID)
}

func TestPipeline_ResubmittedBatchIsAllDuplicates(t *testing.T) {
	db := testutil.SetupTestDB(t, "user-1", []string{"acct-1"}, nil)
	ctx := context.Background()

	records := []model.ImportRecord{{
		AccountID:   "acct-1",
		Date:        "2024-01-05",
		Amount:      -42.10,
		Description: "COFFEE SHOP",
	}}

	pipeline := engine.NewPipeline(db.Storage)

	first, err := pipeline.ProcessBatch(ctx, records, "user-1", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Processed)

	second, err := pipeline.ProcessBatch(ctx, records, "user-1", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Processed)
	assert.Equal(t, 1, second.Duplicates)
	assert.Equal(t, 0, second.Errors)
}

func TestPipeline_SameBatchDuplicate(t *testing.T) {
	db := testutil.SetupTestDB(t, "user-1", []string{"acct-1"}, nil)

	record := model.ImportRecord{
		AccountID:   "acct-1",
		Date:        "2024-01-05",
		Amount:      -42.10,
		Description: "COFFEE SHOP",
	}

	pipeline := engine.NewPipeline(db.Storage)
	result, err := pipeline.ProcessBatch(context.Background(),
		[]model.ImportRecord{record, record}, "user-1", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Duplicates)
	assert.Equal(t, 0, result.Errors)
}

func TestPipeline_UnknownAccountIsRowError(t *testing.T) {
	db := testutil.SetupTestDB(t, "user-1", []string{"acct-1"}, nil)

	records := []model.ImportRecord{{
		AccountID:   "acct-unknown",
		Date:        "2024-01-05",
		Amount:      -42.10,
		Description: "COFFEE SHOP",
	}}

	pipeline := engine.NewPipeline(db.Storage)
	result, err := pipeline.ProcessBatch(context.Background(), records, "user-1", nil)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Processed)
	assert.Equal(t, 1, result.Errors)
	require.Len(t, result.ErrorDetails, 1)
	assert.Equal(t, 1, result.ErrorDetails[0].Row)
}
