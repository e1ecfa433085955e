package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ledgersync/internal/app"
	"ledgersync/internal/config"
	"ledgersync/internal/database"
)

var (
	cfgFile string
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ledgersync-sync",
	Short: "Run outbound ledger sync tasks",
	Long: `ledgersync-sync runs the outbound side of the ledger one shot at a time,
so it can be scheduled from cron or a job runner.

Examples:
  ledgersync-sync drafts --batch-size 100
  ledgersync-sync beneficiary <beneficiary-id> <bank-account-id>
  ledgersync-sync iban "DE89 3704 0044 0532 0130 00"
  ledgersync-sync token --subject ops@example.com --ttl 12h`,
	Version:       getVersionString(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// Interrupts cancel the running task's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	rootCmd.PersistentFlags().String("bank-code", "", "provider bank code (overrides PROVIDER_BANK_CODE)")
	rootCmd.PersistentFlags().Int("lead-days", -1, "days a payment is scheduled before its due date (overrides PAYMENT_LEAD_DAYS)")

	_ = viper.BindPFlag("bank-code", rootCmd.PersistentFlags().Lookup("bank-code"))
	_ = viper.BindPFlag("lead-days", rootCmd.PersistentFlags().Lookup("lead-days"))
}

// initConfig reads in config file and ENV variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			cobra.CheckErr(fmt.Errorf("reading config file: %w", err))
		}
	}

	viper.SetEnvPrefix("LEDGERSYNC")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}

// loadConfig loads the environment configuration and applies CLI overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if code := viper.GetString("bank-code"); code != "" {
		cfg.ProviderBankCode = strings.ToUpper(code)
	}
	if days := viper.GetInt("lead-days"); days >= 0 {
		cfg.PaymentLeadDays = days
	}
	return cfg, nil
}

// withServices opens the database, wires the services and runs fn.
func withServices(ctx context.Context, fn func(*app.Services) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dbManager, err := database.NewManager(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = dbManager.Close() }()

	svc, err := app.NewServices(ctx, cfg, dbManager.DB())
	if err != nil {
		return err
	}
	defer svc.Close()

	return fn(svc)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
