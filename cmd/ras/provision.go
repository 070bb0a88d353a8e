package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/ArowuTest/mtn-ras-backend/internal/config"
	"github.com/ArowuTest/mtn-ras-backend/internal/models"
	mongorepo "github.com/ArowuTest/mtn-ras-backend/internal/repositories/mongodb"
	"github.com/spf13/cobra"
)

var (
	provisionTextIndex string
	provisionGrantRole bool
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Create document indexes, grant the owner role and seed settings",
	Long: `Prepare the stores for the assessment cycle.

Any failure here is fatal. Run it once per environment, before the first cycle,
while no cycle is running.`,
	RunE: runProvision,
}

func init() {
	provisionCmd.Flags().StringVar(&provisionTextIndex, "text-index", "", "also create a text index on this subscriber_history field")
	provisionCmd.Flags().BoolVar(&provisionGrantRole, "grant-role", true, "grant the configured owner role to the connecting user")
}

func runProvision(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := bootstrap(ctx, stores{mongo: true, postgres: true})
	if err != nil {
		return err
	}
	defer a.close()

	if provisionGrantRole {
		if err := a.mongo.EnsureRole(ctx); err != nil {
			return err
		}
	}

	indexes := mongorepo.NewIndexManager(a.db)
	if err := indexes.EnsureDefaults(ctx); err != nil {
		return err
	}
	if provisionTextIndex != "" {
		name, err := indexes.CreateTextIndex(ctx, mongorepo.SubscriberHistoryCollection, provisionTextIndex)
		if err != nil {
			return err
		}
		slog.Info("Text index ready", "index", name)
	}

	if err := seedSettings(ctx, a); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "provisioning complete")
	return nil
}

// seedSettings records the scoring switches in the settings table so the effective
// configuration is visible next to the assessments
func seedSettings(ctx context.Context, a *app) error {
	toggles := config.LoadScoringToggles(a.props)
	seed := []struct {
		name, desc string
		on         bool
	}{
		{"ras.assess.topup.frequency", "count top-ups when scoring", toggles.TopUpFrequency},
		{"ras.assess.topup.amount", "sum top-up value when scoring", toggles.TopUpAmount},
		{"ras.assess.age.on.network", "derive age on network from first recharge", toggles.AgeOnNetwork},
		{"ras.assess.blacklist.status", "withhold a tier from blacklisted lines", toggles.BlacklistStatus},
		{"ras.assess.tariff.plan", "copy the tariff plan from the line state", toggles.TariffPlan},
	}

	for _, s := range seed {
		stored, err := a.queries.CreateOrGetSetting(ctx, s.name, strconv.FormatBool(s.on), s.desc, models.SettingTypeBoolean)
		if err != nil {
			return err
		}
		if stored.Value != strconv.FormatBool(s.on) {
			slog.Warn("Stored setting differs from properties", "setting", s.name, "stored", stored.Value, "properties", s.on)
		}
	}

	if _, err := a.queries.CreateOrGetSetting(ctx, "ras.fetch.size", strconv.Itoa(a.batch.FetchSize), "subscribers per cycle page", models.SettingTypeInteger); err != nil {
		return err
	}
	return nil
}
