// Package engine implements the batch import pipeline: record validation,
// duplicate detection, and normalization of raw transaction records.
package engine

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Veraticus/mentat/internal/model"
	"github.com/Veraticus/mentat/internal/service"
)

// maxAmount is the largest accepted transaction magnitude, in currency units.
const maxAmount = 1_000_000

// futureSkew tolerates timezone differences between the caller and this host.
const futureSkew = 24 * time.Hour

// dateLayouts are the accepted caller-supplied date formats, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
}

// RecordValidator applies structural and business-rule validation to a
// single import record. Checks run in a fixed order and short-circuit at the
// first failure; every failure carries a human-readable reason.
type RecordValidator struct {
	storage service.Storage
	now     func() time.Time
}

// NewRecordValidator creates a validator backed by the given storage for
// account-ownership checks.
func NewRecordValidator(storage service.Storage) *RecordValidator {
	return &RecordValidator{storage: storage, now: time.Now}
}

// Validate checks one record for the given user and returns the parsed
// transaction date on success.
func (v *RecordValidator) Validate(ctx context.Context, rec model.ImportRecord, userID string) (time.Time, error) {
	if strings.TrimSpace(rec.AccountID) == "" {
		return time.Time{}, fmt.Errorf("account ID is required")
	}
	if strings.TrimSpace(rec.Date) == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	if strings.TrimSpace(rec.Description) == "" {
		return time.Time{}, fmt.Errorf("description is required")
	}

	date, err := parseRecordDate(rec.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", rec.Date)
	}

	if date.After(v.now().Add(futureSkew)) {
		return time.Time{}, fmt.Errorf("date %s is more than 1 day in the future", date.Format("2006-01-02"))
	}

	if math.IsNaN(rec.Amount) || math.IsInf(rec.Amount, 0) {
		return time.Time{}, fmt.Errorf("amount must be a finite number")
	}
	if math.Abs(rec.Amount) > maxAmount {
		return time.Time{}, fmt.Errorf("amount %.2f exceeds the maximum of %d", rec.Amount, maxAmount)
	}

	account, err := v.storage.GetAccount(ctx, rec.AccountID, userID)
	if err != nil {
		return time.Time{}, fmt.Errorf("account %s not found for user", rec.AccountID)
	}
	if !account.IsActive {
		return time.Time{}, fmt.Errorf("account %s is inactive", rec.AccountID)
	}

	return date, nil
}

func parseRecordDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format")
}
