package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/brownie-shop/internal/infrastructure/store"
)

// migrateCmd creates the PostgreSQL gateway tables
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the PostgreSQL gateway tables",
	Long: `Create the users, products and blocked_users tables if they do not
exist. Only meaningful with the postgres gateway driver.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Gateway.Driver != "postgres" {
			return fmt.Errorf("migrate needs the postgres gateway driver, got %q", cfg.Gateway.Driver)
		}
		db, err := store.ConnectPostgres(cfg.Gateway.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		defer db.Close()

		if err := store.EnsureSchema(cmd.Context(), db); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
