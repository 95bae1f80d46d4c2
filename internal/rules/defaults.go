package rules

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/Veraticus/mentat/internal/model"
)

//go:embed defaults.yaml
var defaultRulesYAML []byte

type seedFile struct {
	Rules []seedRule `yaml:"rules"`
}

type seedRule struct {
	Name        string         `yaml:"name"`
	CategoryKey string         `yaml:"categoryKey"`
	Conditions  seedConditions `yaml:"conditions"`
	Priority    int            `yaml:"priority"`
	Confidence  float64        `yaml:"confidence"`
}

type seedConditions struct {
	TransactionType string               `yaml:"transaction_type"`
	Amount          *seedAmount          `yaml:"amount"`
	MerchantName    *seedStringCondition `yaml:"merchant_name"`
	Description     *seedStringCondition `yaml:"description"`
}

type seedAmount struct {
	Min    *float64 `yaml:"min"`
	Max    *float64 `yaml:"max"`
	Equals *float64 `yaml:"equals"`
}

type seedStringCondition struct {
	Contains   []string `yaml:"contains"`
	Equals     []string `yaml:"equals"`
	StartsWith []string `yaml:"startsWith"`
	EndsWith   []string `yaml:"endsWith"`
}

func (s seedConditions) toModel() model.RuleConditions {
	var conditions model.RuleConditions

	if s.TransactionType != "" {
		t := model.TransactionType(s.TransactionType)
		conditions.Type = &t
	}
	if s.Amount != nil {
		conditions.Amount = &model.AmountCondition{Min: s.Amount.Min, Max: s.Amount.Max, Equals: s.Amount.Equals}
	}
	if s.MerchantName != nil {
		conditions.MerchantName = s.MerchantName.toModel()
	}
	if s.Description != nil {
		conditions.Description = s.Description.toModel()
	}

	return conditions
}

func (s *seedStringCondition) toModel() *model.StringConditions {
	return &model.StringConditions{
		Contains:   s.Contains,
		Equals:     s.Equals,
		StartsWith: s.StartsWith,
		EndsWith:   s.EndsWith,
	}
}

// SeedDefaults creates the starter rule set for a user. categoryIDs maps
// each seed's category key to a real category ID. Failures are collected
// per rule; one bad seed never blocks the rest. It returns the number of
// rules created.
func (e *Engine) SeedDefaults(ctx context.Context, userID string, categoryIDs map[string]int64) (int, []error) {
	var file seedFile
	if err := yaml.Unmarshal(defaultRulesYAML, &file); err != nil {
		return 0, []error{fmt.Errorf("failed to parse default rules: %w", err)}
	}

	created := 0
	var errs []error
	for _, seed := range file.Rules {
		categoryID, ok := categoryIDs[seed.CategoryKey]
		if !ok {
			errs = append(errs, fmt.Errorf("default rule %q: no category for key %q", seed.Name, seed.CategoryKey))
			continue
		}

		rule := &model.CategoryRule{
			UserID:     userID,
			Name:       seed.Name,
			CategoryID: categoryID,
			Conditions: seed.Conditions.toModel(),
			Priority:   seed.Priority,
			Confidence: seed.Confidence,
			IsActive:   true,
		}

		if err := e.CreateRule(ctx, rule); err != nil {
			errs = append(errs, fmt.Errorf("default rule %q: %w", seed.Name, err))
			continue
		}
		created++
	}

	if len(errs) > 0 {
		slog.Warn("some default rules were not created", "user", userID, "failed", len(errs), "created", created)
	}

	return created, errs
}
