// Package rules evaluates user-defined category rules against transactions,
// produces ranked category suggestions, and adapts rule confidence from
// feedback.
package rules

import (
	"context"
	"fmt"
	"sort"

	"github.com/Veraticus/mentat/internal/common"
	"github.com/Veraticus/mentat/internal/model"
)

// Default confidence assigned to rules created without one.
const defaultConfidence = 0.8

// Optimization thresholds. Rules that match often but are rarely confirmed
// get disabled; rules with enough history get their confidence rewritten
// from observed accuracy.
const (
	deactivateMinMatches  = 10
	deactivateAccuracy    = 0.30
	recalibrateMinMatches = 5
	confidenceFloor       = 0.10
	confidenceCeiling     = 0.99
)

// Store is the subset of the storage contract the rule engine needs. Counter
// increments must be atomic at the storage layer.
type Store interface {
	CreateRule(ctx context.Context, rule *model.CategoryRule) error
	GetRule(ctx context.Context, id int64) (*model.CategoryRule, error)
	GetRules(ctx context.Context, userID string) ([]model.CategoryRule, error)
	GetActiveRules(ctx context.Context, userID string) ([]model.CategoryRule, error)
	UpdateRule(ctx context.Context, rule *model.CategoryRule) error
	UpdateRuleScoring(ctx context.Context, id int64, confidence float64, isActive bool) error
	IncrementRuleMatchCount(ctx context.Context, id int64, n int) error
	IncrementRuleCorrectCount(ctx context.Context, id int64, n int) error
}

// Engine matches transactions against a user's active rules.
type Engine struct {
	store Store
}

// NewEngine creates a rule engine backed by the given store.
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// CreateRule validates and persists a new rule. Validation failures are
// fatal to the call.
func (e *Engine) CreateRule(ctx context.Context, rule *model.CategoryRule) error {
	if err := rule.Conditions.Validate(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidRule, err)
	}
	if rule.Confidence == 0 {
		rule.Confidence = defaultConfidence
	}
	return e.store.CreateRule(ctx, rule)
}

// UpdateRule validates and persists changes to an existing rule.
func (e *Engine) UpdateRule(ctx context.Context, rule *model.CategoryRule) error {
	if err := rule.Conditions.Validate(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidRule, err)
	}
	return e.store.UpdateRule(ctx, rule)
}

// Suggest evaluates every active rule for the user against the transaction
// and returns the full ranked suggestion list: confidence descending, ties
// broken by rule priority ascending. Each matching rule's match counter is
// incremented as an observable side effect.
func (e *Engine) Suggest(ctx context.Context, userID string, txn model.Transaction) ([]model.CategorySuggestion, error) {
	active, err := e.store.GetActiveRules(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active rules: %w", err)
	}

	var suggestions []model.CategorySuggestion
	for _, rule := range active {
		matched, reasons := evaluate(rule.Conditions, txn)
		if !matched {
			continue
		}

		if err := e.store.IncrementRuleMatchCount(ctx, rule.ID, 1); err != nil {
			return nil, fmt.Errorf("failed to record match for rule %d: %w", rule.ID, err)
		}

		suggestions = append(suggestions, model.CategorySuggestion{
			RuleID:            rule.ID,
			RuleName:          rule.Name,
			CategoryID:        rule.CategoryID,
			Priority:          rule.Priority,
			Confidence:        rule.Confidence,
			MatchedConditions: reasons,
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].Confidence != suggestions[j].Confidence {
			return suggestions[i].Confidence > suggestions[j].Confidence
		}
		return suggestions[i].Priority < suggestions[j].Priority
	})

	return suggestions, nil
}

// RecordCorrectPrediction marks one suggestion from the rule as confirmed.
// Incorrect predictions are never recorded; accuracy decays implicitly as
// matches accumulate without confirmations.
func (e *Engine) RecordCorrectPrediction(ctx context.Context, ruleID int64) error {
	return e.store.IncrementRuleCorrectCount(ctx, ruleID, 1)
}

// Optimize rewrites rule confidence from observed accuracy and disables
// persistently inaccurate rules. The pass is idempotent, never deletes a
// rule, and never reactivates a disabled one.
func (e *Engine) Optimize(ctx context.Context, userID string) error {
	all, err := e.store.GetRules(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}

	for _, rule := range all {
		accuracy := rule.Accuracy()
		confidence := rule.Confidence
		active := rule.IsActive

		if rule.MatchCount >= deactivateMinMatches && accuracy < deactivateAccuracy {
			active = false
		}
		if rule.MatchCount >= recalibrateMinMatches {
			confidence = clamp(accuracy, confidenceFloor, confidenceCeiling)
		}

		if confidence == rule.Confidence && active == rule.IsActive {
			continue
		}
		if err := e.store.UpdateRuleScoring(ctx, rule.ID, confidence, active); err != nil {
			return fmt.Errorf("failed to update rule %d: %w", rule.ID, err)
		}
	}

	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
