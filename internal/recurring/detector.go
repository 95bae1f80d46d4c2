// Package recurring detects subscription-like payment patterns in a user's
// transaction history. Detection is pure statistics over merchant groups;
// candidates are recomputed on every run and never persisted here.
package recurring

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/Veraticus/mentat/internal/merchant"
	"github.com/Veraticus/mentat/internal/model"
)

const (
	// DefaultLookbackMonths is the trailing window of history examined
	// when the detector is not configured otherwise.
	DefaultLookbackMonths = 24

	// minGroupSize is the minimum number of payments a merchant needs
	// before a pattern can be inferred.
	minGroupSize = 3

	// minConfidence is the cutoff below which candidates are discarded.
	minConfidence = 0.7
)

// interval bands, in average days between payments.
var frequencyBands = []struct {
	frequency model.Frequency
	min, max  float64
}{
	{model.FrequencyWeekly, 6, 8},
	{model.FrequencyMonthly, 28, 32},
	{model.FrequencyQuarterly, 88, 95},
	{model.FrequencyAnnual, 360, 370},
}

// TransactionSource supplies the debit history the detector analyzes.
type TransactionSource interface {
	GetDebitsByUser(ctx context.Context, userID string, since time.Time) ([]model.Transaction, error)
}

// Detector finds recurring payment patterns for a user.
type Detector struct {
	source TransactionSource
	now    func() time.Time

	// LookbackMonths bounds how far back history is fetched. The window
	// weights all payments uniformly; older data is not decayed.
	LookbackMonths int
}

// NewDetector creates a detector over the given transaction source.
func NewDetector(source TransactionSource) *Detector {
	return &Detector{
		source:         source,
		now:            time.Now,
		LookbackMonths: DefaultLookbackMonths,
	}
}

// Detect fetches the user's debit history for the lookback window and
// returns subscription candidates sorted by projected annual cost, highest
// first.
func (d *Detector) Detect(ctx context.Context, userID string) ([]model.SubscriptionCandidate, error) {
	since := d.now().AddDate(0, -d.LookbackMonths, 0)

	txns, err := d.source.GetDebitsByUser(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load debit history: %w", err)
	}

	candidates := Analyze(txns)
	slog.Debug("subscription detection complete",
		"user", userID,
		"transactions", len(txns),
		"candidates", len(candidates),
	)
	return candidates, nil
}

// Analyze groups transactions by canonical merchant and classifies each
// group's payment cadence. It is pure and safe to call concurrently.
func Analyze(txns []model.Transaction) []model.SubscriptionCandidate {
	groups := groupByMerchant(txns)

	var candidates []model.SubscriptionCandidate
	for _, group := range groups {
		candidate, ok := analyzeGroup(group)
		if !ok {
			continue
		}
		candidates = append(candidates, candidate)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].AnnualCost != candidates[j].AnnualCost {
			return candidates[i].AnnualCost > candidates[j].AnnualCost
		}
		return candidates[i].MerchantName < candidates[j].MerchantName
	})

	return candidates
}

// groupByMerchant buckets transactions under a canonical merchant key. The
// raw description stands in when the merchant name is absent. Keys that
// canonicalize to nothing are dropped.
func groupByMerchant(txns []model.Transaction) map[string][]model.Transaction {
	groups := make(map[string][]model.Transaction)
	for _, txn := range txns {
		name := txn.MerchantName
		if name == "" {
			name = txn.Description
		}
		key := merchant.CanonicalKey(name)
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], txn)
	}
	return groups
}

func analyzeGroup(group []model.Transaction) (model.SubscriptionCandidate, bool) {
	if len(group) < minGroupSize {
		return model.SubscriptionCandidate{}, false
	}

	sort.Slice(group, func(i, j int) bool {
		return group[i].Date.Before(group[j].Date)
	})

	gaps := make([]float64, 0, len(group)-1)
	for i := 1; i < len(group); i++ {
		gaps = append(gaps, group[i].Date.Sub(group[i-1].Date).Hours()/24)
	}

	avgInterval, gapStdDev := meanStdDev(gaps)

	frequency, ok := classify(avgInterval)
	if !ok {
		return model.SubscriptionCandidate{}, false
	}

	amounts := make([]float64, len(group))
	for i, txn := range group {
		amounts[i] = txn.Amount
	}
	avgAmount, amountStdDev := meanStdDev(amounts)

	regularity := math.Max(0, 1-gapStdDev/avgInterval)
	amountConsistency := 1.0
	if avgAmount > 0 {
		amountConsistency = math.Max(0, 1-amountStdDev/avgAmount)
	}
	confidence := (regularity + amountConsistency) / 2
	if confidence <= minConfidence {
		return model.SubscriptionCandidate{}, false
	}

	last := group[len(group)-1]
	annualCost := avgAmount * float64(frequency.PaymentsPerYear())

	return model.SubscriptionCandidate{
		MerchantName:    displayName(last),
		Frequency:       frequency,
		AverageAmount:   math.Round(avgAmount*100) / 100,
		NextPaymentDate: last.Date.Add(time.Duration(avgInterval * 24 * float64(time.Hour))),
		AnnualCost:      math.Round(annualCost*100) / 100,
		Confidence:      confidence,
	}, true
}

// classify maps an average payment interval to a frequency band.
func classify(avgInterval float64) (model.Frequency, bool) {
	for _, band := range frequencyBands {
		if avgInterval >= band.min && avgInterval <= band.max {
			return band.frequency, true
		}
	}
	return "", false
}

// displayName prefers the stored merchant name of the most recent payment
// over its raw description.
func displayName(txn model.Transaction) string {
	if txn.MerchantName != "" {
		return txn.MerchantName
	}
	return txn.Description
}

// meanStdDev returns the mean and population standard deviation of the
// values. Both are 0 for an empty slice.
func meanStdDev(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}
