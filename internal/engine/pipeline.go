package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/mentat/internal/common"
	"github.com/Veraticus/mentat/internal/merchant"
	"github.com/Veraticus/mentat/internal/model"
	"github.com/Veraticus/mentat/internal/service"
)

// MaxBatchSize caps a single batch; larger submissions are rejected outright
// to bound worst-case latency.
const MaxBatchSize = 1000

// Pipeline orchestrates validate, dedupe, normalize, and persist across a
// batch of raw records. Records are processed strictly in input order so
// that duplicate detection observes earlier records through the store.
type Pipeline struct {
	storage   service.Storage
	validator *RecordValidator
}

// NewPipeline creates a batch import pipeline.
func NewPipeline(storage service.Storage) *Pipeline {
	return &Pipeline{
		storage:   storage,
		validator: NewRecordValidator(storage),
	}
}

// ProcessBatch runs the full pipeline over records for the given user.
// Row-level failures are captured in the result and never abort the batch;
// every input record lands in exactly one of processed, duplicates, or
// errors. A nil cfg selects the default duplicate tolerances.
func (p *Pipeline) ProcessBatch(ctx context.Context, records []model.ImportRecord, userID string, cfg *DuplicateConfig) (*model.BatchResult, error) {
	if len(records) > MaxBatchSize {
		return nil, fmt.Errorf("%w: %d records, maximum is %d", common.ErrBatchTooLarge, len(records), MaxBatchSize)
	}

	dupCfg := DefaultDuplicateConfig()
	if cfg != nil {
		dupCfg = *cfg
	}
	detector := NewDuplicateDetector(p.storage, dupCfg)

	result := &model.BatchResult{}
	for i, rec := range records {
		row := i + 1

		date, err := p.validator.Validate(ctx, rec, userID)
		if err != nil {
			result.Errors++
			result.ErrorDetails = append(result.ErrorDetails, model.RowError{Row: row, Error: err.Error(), Record: rec})
			continue
		}

		isDup, err := detector.IsDuplicate(ctx, rec, date)
		if err != nil {
			result.Errors++
			result.ErrorDetails = append(result.ErrorDetails, model.RowError{Row: row, Error: err.Error(), Record: rec})
			continue
		}
		if isDup {
			result.Duplicates++
			continue
		}

		txn := p.normalize(ctx, rec, date, userID)
		if _, err := p.storage.CreateTransaction(ctx, &txn); err != nil {
			result.Errors++
			result.ErrorDetails = append(result.ErrorDetails, model.RowError{Row: row, Error: err.Error(), Record: rec})
			continue
		}

		result.Processed++
	}

	slog.Debug("batch processed",
		"user", userID,
		"processed", result.Processed,
		"duplicates", result.Duplicates,
		"errors", result.Errors)

	return result, nil
}

// normalize enriches a validated record into a transaction ready for
// persistence. Category label resolution is best-effort; an unresolved
// label leaves the category unset.
func (p *Pipeline) normalize(ctx context.Context, rec model.ImportRecord, date time.Time, userID string) model.Transaction {
	txnType := model.TransactionType(strings.ToLower(strings.TrimSpace(rec.Type)))
	if !txnType.Valid() {
		if rec.Amount < 0 {
			txnType = model.TypeDebit
		} else {
			txnType = model.TypeCredit
		}
	}

	merchantName := ""
	if rec.MerchantName != "" {
		merchantName = merchant.Canonicalize(rec.MerchantName)
	} else {
		merchantName = merchant.ExtractFromDescription(rec.Description)
	}

	var categoryID *int64
	if rec.Category != "" {
		if cat, err := p.storage.GetCategoryByName(ctx, userID, rec.Category); err == nil && cat != nil {
			categoryID = &cat.ID
		}
	}

	return model.Transaction{
		ID:           uuid.NewString(),
		AccountID:    rec.AccountID,
		Date:         date,
		Amount:       math.Abs(rec.Amount),
		Description:  merchant.CleanDescription(rec.Description),
		MerchantName: merchantName,
		Type:         txnType,
		CategoryID:   categoryID,
		Confidence:   1.0,
	}
}
