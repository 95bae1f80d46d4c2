package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Veraticus/mentat/internal/rules"
)

// Category names created for the starter rule set. The keys match the seed
// table's category keys.
var seedCategories = []string{"salary", "housing", "utilities", "fuel", "dining", "groceries"}

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage category rules",
	}

	cmd.AddCommand(rulesSeedCmd())
	cmd.AddCommand(rulesOptimizeCmd())
	cmd.AddCommand(rulesListCmd())

	return cmd
}

func rulesSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the starter rule set",
		Long: `Create the default categories (salary, housing, utilities, fuel, dining,
groceries) and a starter rule for each. Existing categories are reused.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			categoryIDs := make(map[string]int64, len(seedCategories))
			for _, name := range seedCategories {
				cat, err := store.CreateCategory(ctx, currentUser(), name)
				if err != nil {
					return fmt.Errorf("failed to create category %q: %w", name, err)
				}
				categoryIDs[name] = cat.ID
			}

			engine := rules.NewEngine(store)
			created, errs := engine.SeedDefaults(ctx, currentUser(), categoryIDs)

			fmt.Printf("Created %d starter rules.\n", created)
			for _, err := range errs {
				fmt.Printf("  skipped: %v\n", err)
			}
			return nil
		},
	}
}

func rulesOptimizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "optimize",
		Short: "Recalibrate rule confidence from feedback",
		Long: `Rewrite each rule's confidence from its observed accuracy and disable
rules that match often but are rarely confirmed correct.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			engine := rules.NewEngine(store)
			if err := engine.Optimize(ctx, currentUser()); err != nil {
				return fmt.Errorf("optimization failed: %w", err)
			}

			fmt.Println("Rules optimized.")
			return nil
		},
	}
}

func rulesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List category rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			all, _ := cmd.Flags().GetBool("all")

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			list := store.GetActiveRules
			if all {
				list = store.GetRules
			}

			ruleList, err := list(ctx, currentUser())
			if err != nil {
				return fmt.Errorf("failed to load rules: %w", err)
			}

			if len(ruleList) == 0 {
				fmt.Println("No rules found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPRIORITY\tCONFIDENCE\tMATCHES\tACCURACY\tACTIVE")
			for _, r := range ruleList {
				fmt.Fprintf(w, "%d\t%s\t%d\t%.2f\t%d\t%.0f%%\t%t\n",
					r.ID, r.Name, r.Priority, r.Confidence, r.MatchCount, r.Accuracy()*100, r.IsActive)
			}
			return w.Flush()
		},
	}

	cmd.Flags().Bool("all", false, "include disabled rules")
	return cmd
}
