package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/brownie-shop/internal/app"
	"github.com/example/brownie-shop/internal/config"
	"github.com/example/brownie-shop/internal/infrastructure/store"
)

var (
	// Global flags
	configFile string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "shopctl",
	Short: "Operate the Brownie Shop backends",
	Long: `shopctl runs maintenance tasks against the gateway and session mirror
configured for the API server.

Settings come from --config (or CONFIG_FILE) and the same environment
variables the server reads.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", os.Getenv("CONFIG_FILE"), "YAML config file")
}

func loadConfig() (*config.Config, error) {
	return config.Read(configFile)
}

// withGateway opens the configured gateway for the duration of fn.
func withGateway(ctx context.Context, fn func(gw store.Gateway) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	gw, closeFn, err := app.OpenGateway(ctx, cfg.Gateway)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(gw)
}
