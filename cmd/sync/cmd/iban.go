package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ledgersync/internal/iban"
)

var ibanCmd = &cobra.Command{
	Use:   "iban <iban>...",
	Short: "Validate IBANs and print their display form",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIBAN,
}

func init() {
	rootCmd.AddCommand(ibanCmd)
}

func runIBAN(cmd *cobra.Command, args []string) error {
	invalid := 0
	for _, arg := range args {
		parsed, err := iban.Parse(arg)
		if err != nil {
			invalid++
			fmt.Fprintf(cmd.OutOrStdout(), "%s\tINVALID\t%v\n", arg, err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\tOK\t%s\n", arg, parsed.Format())
	}
	if invalid > 0 {
		return fmt.Errorf("%d of %d IBANs are invalid", invalid, len(args))
	}
	return nil
}
