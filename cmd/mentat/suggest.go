package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/mentat/internal/model"
	"github.com/Veraticus/mentat/internal/rules"
)

func suggestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest categories for a transaction",
		Long: `Evaluate your active category rules against a transaction described on
the command line and print the ranked suggestions with the conditions
each rule matched on.`,
		RunE: runSuggest,
	}

	cmd.Flags().String("merchant", "", "merchant name")
	cmd.Flags().String("description", "", "transaction description")
	cmd.Flags().Float64("amount", 0, "transaction amount (magnitude)")
	cmd.Flags().String("type", "debit", "transaction type (debit, credit)")

	return cmd
}

func runSuggest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	merchantName, _ := cmd.Flags().GetString("merchant")
	description, _ := cmd.Flags().GetString("description")
	amount, _ := cmd.Flags().GetFloat64("amount")
	txnType, _ := cmd.Flags().GetString("type")

	if merchantName == "" && description == "" {
		return fmt.Errorf("provide at least one of --merchant or --description")
	}

	transactionType := model.TransactionType(txnType)
	if !transactionType.Valid() {
		return fmt.Errorf("invalid transaction type %q", txnType)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	txn := model.Transaction{
		MerchantName: merchantName,
		Description:  description,
		Amount:       amount,
		Type:         transactionType,
	}

	engine := rules.NewEngine(store)
	suggestions, err := engine.Suggest(ctx, currentUser(), txn)
	if err != nil {
		return fmt.Errorf("failed to evaluate rules: %w", err)
	}

	if len(suggestions) == 0 {
		fmt.Println("No rules matched.")
		return nil
	}

	for i, s := range suggestions {
		fmt.Printf("%d. %s (category %d, confidence %.2f)\n", i+1, s.RuleName, s.CategoryID, s.Confidence)
		fmt.Printf("   matched: %s\n", strings.Join(s.MatchedConditions, ", "))
	}

	return nil
}
