package main

import (
	"fmt"
	"os"

	"ledgersync/cmd/sync/cmd"
	"ledgersync/internal/logger"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	cmd.SetVersionInfo(version, commit, date)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
