package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/mentat/internal/merchant"
	"github.com/Veraticus/mentat/internal/model"
	"github.com/Veraticus/mentat/internal/recurring"
	"github.com/Veraticus/mentat/internal/storage"
)

func subscriptionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscriptions",
		Short: "Detect recurring subscription payments",
		Long: `Scan your debit history for merchants you pay on a regular cadence and
project what each one costs per year. With --mark, the matching
transactions are flagged as recurring in the database.`,
		RunE: runSubscriptions,
	}

	cmd.Flags().Int("months", recurring.DefaultLookbackMonths, "months of history to scan")
	cmd.Flags().Bool("mark", false, "flag the matching transactions as recurring")

	return cmd
}

func runSubscriptions(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	months, _ := cmd.Flags().GetInt("months")
	mark, _ := cmd.Flags().GetBool("mark")

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	detector := recurring.NewDetector(store)
	detector.LookbackMonths = months

	candidates, err := detector.Detect(ctx, currentUser())
	if err != nil {
		return err
	}

	if len(candidates) == 0 {
		fmt.Println("No recurring subscriptions detected.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MERCHANT\tFREQUENCY\tAVG AMOUNT\tANNUAL COST\tNEXT PAYMENT\tCONFIDENCE")
	for _, c := range candidates {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%.2f\t%s\t%.0f%%\n",
			c.MerchantName,
			c.Frequency,
			c.AverageAmount,
			c.AnnualCost,
			c.NextPaymentDate.Format("2006-01-02"),
			c.Confidence*100,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if mark {
		marked, err := markRecurring(ctx, store, candidates, months)
		if err != nil {
			return err
		}
		fmt.Printf("Marked %d transactions as recurring.\n", marked)
	}

	return nil
}

// markRecurring flags every debit whose merchant matches a detected
// candidate.
func markRecurring(ctx context.Context, store *storage.SQLiteStorage, candidates []model.SubscriptionCandidate, months int) (int, error) {
	keys := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		keys[merchant.CanonicalKey(c.MerchantName)] = true
	}

	since := time.Now().AddDate(0, -months, 0)
	debits, err := store.GetDebitsByUser(ctx, currentUser(), since)
	if err != nil {
		return 0, fmt.Errorf("failed to load debits: %w", err)
	}

	marked := 0
	for _, txn := range debits {
		name := txn.MerchantName
		if name == "" {
			name = txn.Description
		}
		if !keys[merchant.CanonicalKey(name)] {
			continue
		}
		if txn.IsRecurring {
			continue
		}
		if err := store.MarkTransactionRecurring(ctx, txn.ID); err != nil {
			return marked, fmt.Errorf("failed to mark transaction %s: %w", txn.ID, err)
		}
		marked++
	}

	return marked, nil
}
