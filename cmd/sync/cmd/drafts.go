package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ledgersync/internal/app"
)

var draftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "Submit pending payment drafts whose schedule date has come",
	Long: `Loads every pending invoice payment draft in pages and submits the ones
whose schedule date (due date minus the lead days) is today or later.
Drafts that are already submitted are skipped, so the command is safe to
rerun.`,
	RunE: runDrafts,
}

func init() {
	draftsCmd.Flags().Int("batch-size", 50, "drafts loaded per page")
	draftsCmd.Flags().String("now", "", "evaluate schedules as of this date (YYYY-MM-DD, default today)")
	_ = viper.BindPFlag("batch-size", draftsCmd.Flags().Lookup("batch-size"))
	_ = viper.BindPFlag("now", draftsCmd.Flags().Lookup("now"))
	rootCmd.AddCommand(draftsCmd)
}

func runDrafts(cmd *cobra.Command, _ []string) error {
	batchSize := viper.GetInt("batch-size")
	if batchSize < 1 {
		return fmt.Errorf("batch-size must be positive, got %d", batchSize)
	}
	now, err := parseNow(viper.GetString("now"))
	if err != nil {
		return err
	}

	return withServices(cmd.Context(), func(svc *app.Services) error {
		report, err := svc.PaymentDrafts.ProcessDue(cmd.Context(), now, batchSize)
		if err != nil {
			return err
		}
		if err := printJSON(cmd.OutOrStdout(), report); err != nil {
			return err
		}
		if report.Failed > 0 {
			return fmt.Errorf("%d of %d drafts failed", report.Failed, report.Processed)
		}
		return nil
	})
}

func parseNow(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now(), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now %q: expected YYYY-MM-DD", raw)
	}
	return t, nil
}
