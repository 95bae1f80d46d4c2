package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/mentat/internal/common"
	"github.com/Veraticus/mentat/internal/csvimport"
	"github.com/Veraticus/mentat/internal/engine"
	"github.com/Veraticus/mentat/internal/model"
)

// importChunkSize is how many records go to the pipeline per call. Chunks
// keep the progress bar honest on large files while staying well under the
// pipeline's batch cap.
const importChunkSize = 200

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import transactions from a CSV file",
		Long: `Import transactions from a comma-separated file. The first row must be
headers; use --map to alias your bank's column names onto the logical
fields (date, amount, description, accountId, merchantName,
transactionType, category, reference).

Records are validated, checked against existing transactions for
duplicates, normalized, and persisted. Row failures are reported at the
end without aborting the rest of the file.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	cmd.Flags().StringSlice("map", nil, "field mapping entries, logical=header (e.g. date=Posted,amount=Value)")
	cmd.Flags().Int("date-tolerance", 1, "duplicate window in days either side of a record's date")
	cmd.Flags().Int("amount-tolerance", 0, "duplicate amount tolerance in cents")
	cmd.Flags().Float64("similarity", 0.85, "duplicate description similarity threshold (0-1)")

	_ = viper.BindPFlag("import.date_tolerance", cmd.Flags().Lookup("date-tolerance"))
	_ = viper.BindPFlag("import.amount_tolerance", cmd.Flags().Lookup("amount-tolerance"))
	_ = viper.BindPFlag("import.similarity", cmd.Flags().Lookup("similarity"))

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	mapping, err := parseFieldMapping(cmd)
	if err != nil {
		return err
	}

	records, err := csvimport.Parse(string(data), mapping)
	if err != nil {
		return common.NewUserError("import failed", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: %s has no data rows", common.ErrNoRecords, args[0])
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	dupCfg := engine.DuplicateConfig{
		DateToleranceDays:    viper.GetInt("import.date_tolerance"),
		AmountToleranceCents: viper.GetInt("import.amount_tolerance"),
		SimilarityThreshold:  viper.GetFloat64("import.similarity"),
	}

	pipeline := engine.NewPipeline(store)
	bar := progressbar.NewOptions(len(records),
		progressbar.OptionSetDescription("importing"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	total := &model.BatchResult{}
	for start := 0; start < len(records); start += importChunkSize {
		end := min(start+importChunkSize, len(records))

		result, err := pipeline.ProcessBatch(ctx, records[start:end], currentUser(), &dupCfg)
		if err != nil {
			return fmt.Errorf("import failed at row %d: %w", start+1, err)
		}

		total.Processed += result.Processed
		total.Duplicates += result.Duplicates
		total.Errors += result.Errors
		for _, rowErr := range result.ErrorDetails {
			rowErr.Row += start
			total.ErrorDetails = append(total.ErrorDetails, rowErr)
		}

		_ = bar.Add(end - start)
	}
	_ = bar.Finish()

	fmt.Printf("Imported %d transactions (%d duplicates skipped, %d errors)\n",
		total.Processed, total.Duplicates, total.Errors)

	for _, rowErr := range total.ErrorDetails {
		fmt.Printf("  row %d: %s\n", rowErr.Row, rowErr.Error)
	}

	return nil
}

// parseFieldMapping turns --map logical=header entries into the parser's
// mapping table.
func parseFieldMapping(cmd *cobra.Command) (csvimport.FieldMapping, error) {
	entries, err := cmd.Flags().GetStringSlice("map")
	if err != nil {
		return nil, err
	}

	mapping := make(csvimport.FieldMapping, len(entries))
	for _, entry := range entries {
		logical, header, found := strings.Cut(entry, "=")
		if !found || logical == "" || header == "" {
			return nil, fmt.Errorf("invalid --map entry %q, expected logical=header", entry)
		}
		mapping[logical] = header
	}
	return mapping, nil
}
