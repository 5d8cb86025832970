package cmd

import (
	"fmt"
	"os"

	"sg2pl/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// configPath is where LoadConfig looks for an optional .env file.
var configPath string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "sg2pl",
	Short: "Security group to prefix list synchronizer",
	Long: `sg2pl mirrors the private IPv4 addresses behind security groups into
managed prefix lists, possibly across regions. It runs one-shot from the CLI
or periodically as a daemon with an operational HTTP API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Use the application's standard logger for error reporting
		// We default to console format to match user expectations (CLI tool)
		// We use "debug" level configuration to get ISO8601 timestamps (DevConfig) instead of Epoch (ProdConfig)
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			// Log the error with structured logger (Console encoding will make it pretty)
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			// Absolute fallback if logger creation fails (rare)
			fmt.Println(err)
		}
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "Directory containing the optional .env file")
}
