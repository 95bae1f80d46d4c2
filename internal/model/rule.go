package model

import (
	"fmt"
	"strings"
	"time"
)

// CategoryRule is a user-defined predicate mapping transaction
// characteristics to a category, with adaptive confidence.
type CategoryRule struct {
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	Name         string         `json:"name"`
	UserID       string         `json:"user_id"`
	Conditions   RuleConditions `json:"conditions"`
	ID           int64          `json:"id"`
	CategoryID   int64          `json:"category_id"`
	Priority     int            `json:"priority"` // lower number = higher precedence
	MatchCount   int            `json:"match_count"`
	CorrectCount int            `json:"correct_count"`
	Confidence   float64        `json:"confidence_score"`
	IsActive     bool           `json:"is_active"`
}

// Accuracy returns the fraction of matches confirmed correct, or 0 when the
// rule has never matched.
func (r *CategoryRule) Accuracy() float64 {
	if r.MatchCount <= 0 {
		return 0
	}
	return float64(r.CorrectCount) / float64(r.MatchCount)
}

// RuleConditions is a structured predicate over transaction attributes.
// Every present clause must be satisfied for the rule to match; clauses with
// list values are satisfied by any one element.
type RuleConditions struct {
	Type         *TransactionType  `json:"transaction_type,omitempty"`
	Amount       *AmountCondition  `json:"amount,omitempty"`
	MerchantName *StringConditions `json:"merchant_name,omitempty"`
	Description  *StringConditions `json:"description,omitempty"`
}

// AmountCondition constrains the transaction amount. All set bounds are
// combined with AND.
type AmountCondition struct {
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
	Equals *float64 `json:"equals,omitempty"`
}

// StringConditions holds case-insensitive sub-conditions against a text
// field. Elements within each list are OR'd; a non-empty list is satisfied
// when at least one element matches.
type StringConditions struct {
	Contains   []string `json:"contains,omitempty"`
	Equals     []string `json:"equals,omitempty"`
	StartsWith []string `json:"startsWith,omitempty"`
	EndsWith   []string `json:"endsWith,omitempty"`
}

// Validate ensures the conditions form a usable predicate. It rejects
// condition sets with no clause at all, amount clauses with negative or
// inverted bounds, and string clauses with empty lists or empty values.
func (c *RuleConditions) Validate() error {
	if c.Type == nil && c.Amount == nil && c.MerchantName == nil && c.Description == nil {
		return fmt.Errorf("rule conditions must contain at least one clause")
	}

	if c.Type != nil && !c.Type.Valid() {
		return fmt.Errorf("invalid transaction type %q", *c.Type)
	}

	if c.Amount != nil {
		if err := c.Amount.validate(); err != nil {
			return err
		}
	}

	if c.MerchantName != nil {
		if err := c.MerchantName.validate("merchant_name"); err != nil {
			return err
		}
	}
	if c.Description != nil {
		if err := c.Description.validate("description"); err != nil {
			return err
		}
	}

	return nil
}

func (a *AmountCondition) validate() error {
	if a.Min == nil && a.Max == nil && a.Equals == nil {
		return fmt.Errorf("amount clause must set min, max, or equals")
	}
	for name, v := range map[string]*float64{"min": a.Min, "max": a.Max, "equals": a.Equals} {
		if v != nil && *v < 0 {
			return fmt.Errorf("amount %s cannot be negative", name)
		}
	}
	if a.Min != nil && a.Max != nil && *a.Min > *a.Max {
		return fmt.Errorf("amount min %.2f exceeds max %.2f", *a.Min, *a.Max)
	}
	return nil
}

func (s *StringConditions) validate(field string) error {
	lists := map[string][]string{
		"contains":   s.Contains,
		"equals":     s.Equals,
		"startsWith": s.StartsWith,
		"endsWith":   s.EndsWith,
	}

	any := false
	for kind, values := range lists {
		if values == nil {
			continue
		}
		if len(values) == 0 {
			return fmt.Errorf("%s %s list cannot be empty", field, kind)
		}
		for _, v := range values {
			if strings.TrimSpace(v) == "" {
				return fmt.Errorf("%s %s list contains an empty value", field, kind)
			}
		}
		any = true
	}
	if !any {
		return fmt.Errorf("%s clause must set at least one sub-condition", field)
	}
	return nil
}

// CategorySuggestion is a ranked, explainable category recommendation for
// one transaction.
type CategorySuggestion struct {
	RuleName          string   `json:"rule_name"`
	MatchedConditions []string `json:"matched_conditions"`
	RuleID            int64    `json:"rule_id"`
	CategoryID        int64    `json:"category_id"`
	Priority          int      `json:"priority"`
	Confidence        float64  `json:"confidence"`
}
