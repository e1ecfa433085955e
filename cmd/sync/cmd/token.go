package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ledgersync/internal/middleware"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an operator token for the HTTP API",
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().String("subject", "", "operator the token is issued to (required)")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime")
	_ = viper.BindPFlag("subject", tokenCmd.Flags().Lookup("subject"))
	_ = viper.BindPFlag("ttl", tokenCmd.Flags().Lookup("ttl"))
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	subject := viper.GetString("subject")
	if subject == "" {
		return errors.New("--subject is required")
	}
	ttl := viper.GetDuration("ttl")
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive, got %s", ttl)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	token, err := middleware.GenerateOperatorToken(cfg.JWTSecret, subject, ttl)
	if err != nil {
		return fmt.Errorf("signing token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
