package main

import (
	"context"
	"fmt"
	"os"

	"goposterior/internal"
	"goposterior/internal/config"
	"goposterior/internal/container"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// .env is optional for the CLI
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "posterior",
		Short:         "Normal posterior updates for player efficiency ratings",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newUpdateCmd(),
		newSimulateCmd(),
		newAnalyzeCmd(),
		newRunsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openContainer loads configuration from the environment and wires dependencies
func openContainer(ctx context.Context) (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	setLogLevel(cfg)
	return container.Open(ctx, cfg)
}

func setLogLevel(cfg *config.Config) {
	internal.DefaultLogger = internal.NewLogger(internal.ParseLogLevel(cfg.Log.Level))
}
