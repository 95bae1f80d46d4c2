package engine

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Veraticus/mentat/internal/model"
	"github.com/Veraticus/mentat/internal/service"
	"github.com/Veraticus/mentat/internal/similarity"
)

// DuplicateConfig tunes near-duplicate detection.
type DuplicateConfig struct {
	DateToleranceDays    int
	AmountToleranceCents int
	SimilarityThreshold  float64
}

// DefaultDuplicateConfig returns the standard tolerances: same-day ±1,
// exact amount, 0.85 description similarity.
func DefaultDuplicateConfig() DuplicateConfig {
	return DuplicateConfig{
		DateToleranceDays:    1,
		AmountToleranceCents: 0,
		SimilarityThreshold:  0.85,
	}
}

// DuplicateDetector finds near-duplicates of a candidate record among the
// transactions already stored on the same account.
type DuplicateDetector struct {
	storage service.Storage
	cfg     DuplicateConfig
}

// NewDuplicateDetector creates a detector with the given tolerances.
func NewDuplicateDetector(storage service.Storage, cfg DuplicateConfig) *DuplicateDetector {
	return &DuplicateDetector{storage: storage, cfg: cfg}
}

// IsDuplicate reports whether the record matches an existing transaction on
// its account within the configured date window. It short-circuits on the
// first match.
func (d *DuplicateDetector) IsDuplicate(ctx context.Context, rec model.ImportRecord, date time.Time) (bool, error) {
	start := date.AddDate(0, 0, -d.cfg.DateToleranceDays)
	end := date.AddDate(0, 0, d.cfg.DateToleranceDays)

	existing, err := d.storage.GetTransactionsInDateRange(ctx, rec.AccountID, start, end)
	if err != nil {
		return false, fmt.Errorf("failed to query transactions for duplicate check: %w", err)
	}

	candidateAmount := math.Abs(rec.Amount)
	amountTolerance := float64(d.cfg.AmountToleranceCents) / 100
	candidateDesc := strings.ToLower(strings.TrimSpace(rec.Description))

	for _, txn := range existing {
		if math.Abs(txn.Amount-candidateAmount) > amountTolerance+1e-9 {
			continue
		}

		existingDesc := strings.ToLower(strings.TrimSpace(txn.Description))
		if similarity.Score(candidateDesc, existingDesc) >= d.cfg.SimilarityThreshold {
			return true, nil
		}
	}

	return false, nil
}
