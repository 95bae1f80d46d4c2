package rules

import (
	"fmt"
	"strings"

	"github.com/Veraticus/mentat/internal/model"
)

// evaluate checks a transaction against structured rule conditions. Every
// present clause must be satisfied. It returns the list of specific
// sub-conditions that matched, for explainability.
func evaluate(c model.RuleConditions, txn model.Transaction) (bool, []string) {
	var matched []string

	if c.Type != nil {
		if txn.Type != *c.Type {
			return false, nil
		}
		matched = append(matched, fmt.Sprintf("transaction_type is %s", *c.Type))
	}

	if c.Amount != nil {
		reasons, ok := matchAmount(*c.Amount, txn.Amount)
		if !ok {
			return false, nil
		}
		matched = append(matched, reasons...)
	}

	if c.MerchantName != nil {
		reasons, ok := matchStrings("merchant_name", *c.MerchantName, txn.MerchantName)
		if !ok {
			return false, nil
		}
		matched = append(matched, reasons...)
	}

	if c.Description != nil {
		reasons, ok := matchStrings("description", *c.Description, txn.Description)
		if !ok {
			return false, nil
		}
		matched = append(matched, reasons...)
	}

	return true, matched
}

// matchAmount applies the independently-optional bounds, combined with AND.
func matchAmount(cond model.AmountCondition, amount float64) ([]string, bool) {
	var reasons []string

	if cond.Min != nil {
		if amount < *cond.Min {
			return nil, false
		}
		reasons = append(reasons, fmt.Sprintf("amount >= %.2f", *cond.Min))
	}
	if cond.Max != nil {
		if amount > *cond.Max {
			return nil, false
		}
		reasons = append(reasons, fmt.Sprintf("amount <= %.2f", *cond.Max))
	}
	if cond.Equals != nil {
		if amount != *cond.Equals {
			return nil, false
		}
		reasons = append(reasons, fmt.Sprintf("amount == %.2f", *cond.Equals))
	}

	return reasons, true
}

// matchStrings applies the sub-conditions of one text clause. Each present
// kind must be satisfied by at least one of its elements; elements within a
// kind are OR'd. Comparison is case-insensitive.
func matchStrings(field string, cond model.StringConditions, value string) ([]string, bool) {
	v := strings.ToLower(value)
	var reasons []string

	kinds := []struct {
		match  func(string, string) bool
		name   string
		values []string
	}{
		{strings.Contains, "contains", cond.Contains},
		{func(a, b string) bool { return a == b }, "equals", cond.Equals},
		{strings.HasPrefix, "startsWith", cond.StartsWith},
		{strings.HasSuffix, "endsWith", cond.EndsWith},
	}

	for _, kind := range kinds {
		if len(kind.values) == 0 {
			continue
		}

		hit := ""
		for _, candidate := range kind.values {
			if kind.match(v, strings.ToLower(candidate)) {
				hit = candidate
				break
			}
		}
		if hit == "" {
			return nil, false
		}
		reasons = append(reasons, fmt.Sprintf("%s %s %q", field, kind.name, hit))
	}

	return reasons, true
}
