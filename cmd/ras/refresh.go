package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/ArowuTest/mtn-ras-backend/internal/services"
	"github.com/spf13/cobra"
)

var refreshViewCmd = &cobra.Command{
	Use:   "refresh-view",
	Short: "Refresh the assessment materialized view and wait for it",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := bootstrap(ctx, stores{postgres: true})
		if err != nil {
			return err
		}
		defer a.close()

		refresher := services.NewViewRefresher(a.queries, a.batch.RefreshViewName, a.batch.RefreshTimeout)
		if err := refresher.RefreshNow(ctx); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "refreshed %s\n", a.batch.RefreshViewName)
		return nil
	},
}
