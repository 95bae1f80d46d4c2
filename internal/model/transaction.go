// Package model defines the core data structures for the mentat engine.
package model

import (
	"time"
)

// TransactionType indicates the direction of a transaction.
type TransactionType string

// Transaction type constants.
const (
	TypeDebit  TransactionType = "debit"
	TypeCredit TransactionType = "credit"
)

// Valid reports whether t is one of the recognized transaction types.
func (t TransactionType) Valid() bool {
	return t == TypeDebit || t == TypeCredit
}

// ImportRecord is one raw, unvalidated transaction row submitted for
// processing. It has no identity and is consumed once per pipeline run.
type ImportRecord struct {
	AccountID    string
	Date         string // caller-supplied format, parsed during validation
	Description  string
	MerchantName string
	Type         string // "debit" or "credit"; inferred from amount sign when empty
	Category     string // optional category label, resolved best-effort
	Reference    string
	Amount       float64 // signed or unsigned; sign only used for type inference
}

// Transaction is a validated, deduplicated, enriched transaction ready for
// persistence. Amount is always a non-negative magnitude; direction is
// carried in Type.
type Transaction struct {
	Date         time.Time
	CategoryID   *int64
	ID           string
	AccountID    string
	Description  string // cleaned, at most 255 characters
	MerchantName string // canonical form, may be empty
	Type         TransactionType
	Amount       float64
	Confidence   float64 // 1.0 for manually or CSV-imported data
	IsRecurring  bool
	UserVerified bool
}

// RowError describes a single record that failed during batch processing.
type RowError struct {
	Record ImportRecord `json:"record"`
	Error  string       `json:"error"`
	Row    int          `json:"row"` // 1-based position within the batch
}

// BatchResult reports the outcome of one batch import. Every input record
// lands in exactly one of Processed, Duplicates, or Errors.
type BatchResult struct {
	ErrorDetails []RowError `json:"error_details,omitempty"`
	Processed    int        `json:"processed"`
	Duplicates   int        `json:"duplicates"`
	Errors       int        `json:"errors"`
}
