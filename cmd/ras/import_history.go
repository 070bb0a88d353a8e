package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ArowuTest/mtn-ras-backend/internal/importer"
	mongorepo "github.com/ArowuTest/mtn-ras-backend/internal/repositories/mongodb"
	"github.com/spf13/cobra"
)

var importBatchSize int

var importHistoryCmd = &cobra.Command{
	Use:   "import-history [file.csv]",
	Short: "Append recharge rows from a CSV export to the history ledger",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportHistory,
}

func init() {
	importHistoryCmd.Flags().IntVar(&importBatchSize, "batch-size", 500, "documents per insert")
}

func runImportHistory(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	file, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	a, err := bootstrap(ctx, stores{mongo: true})
	if err != nil {
		return err
	}
	defer a.close()

	imp := importer.NewHistoryImporter(mongorepo.NewSubscriberHistoryRepository(a.db), importBatchSize)
	result, err := imp.Import(ctx, file)
	if result != nil {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	}
	return err
}
