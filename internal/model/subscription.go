package model

import "time"

// Frequency classifies how often a recurring payment repeats.
type Frequency string

// Recognized payment frequencies.
const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyAnnual    Frequency = "annual"
)

// PaymentsPerYear returns how many payments a year this frequency implies.
func (f Frequency) PaymentsPerYear() int {
	switch f {
	case FrequencyWeekly:
		return 52
	case FrequencyMonthly:
		return 12
	case FrequencyQuarterly:
		return 4
	case FrequencyAnnual:
		return 1
	}
	return 0
}

// SubscriptionCandidate is a statistically-inferred recurring payment
// pattern for one merchant. Candidates are recomputed on every detection run
// and never persisted by this engine.
type SubscriptionCandidate struct {
	NextPaymentDate time.Time `json:"next_payment_date"`
	MerchantName    string    `json:"merchant_name"`
	Frequency       Frequency `json:"frequency"`
	AverageAmount   float64   `json:"average_amount"`
	AnnualCost      float64   `json:"annual_cost"`
	Confidence      float64   `json:"confidence"`
}
