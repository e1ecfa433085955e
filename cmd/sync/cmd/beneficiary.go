package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ledgersync/internal/app"
	"ledgersync/internal/uuid"
)

var beneficiaryCmd = &cobra.Command{
	Use:   "beneficiary <beneficiary-id> <bank-account-id>",
	Short: "Register a beneficiary bank account as a provider counterparty",
	Args:  cobra.ExactArgs(2),
	RunE:  runBeneficiary,
}

func init() {
	rootCmd.AddCommand(beneficiaryCmd)
}

func runBeneficiary(cmd *cobra.Command, args []string) error {
	for _, id := range args {
		if !uuid.IsValid(id) {
			return fmt.Errorf("invalid id %q", id)
		}
	}

	return withServices(cmd.Context(), func(svc *app.Services) error {
		result, err := svc.BeneficiarySync.SyncBeneficiary(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), result)
	})
}
