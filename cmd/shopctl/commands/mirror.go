package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/brownie-shop/internal/mirror"
)

var olderThan time.Duration

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Maintain the session mirror",
}

var mirrorPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete stale sessions from the SQLite mirror",
	Long: `Delete mirrored carts and accounts not written for --older-than.
Redis expires keys by itself and the memory mirror lives only as long as
the server, so only the sqlite driver needs pruning.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Mirror.Driver != "sqlite" {
			return fmt.Errorf("prune needs the sqlite mirror driver, got %q", cfg.Mirror.Driver)
		}
		age := olderThan
		if age == 0 {
			age = cfg.Mirror.TTL
		}

		s, err := mirror.OpenSQLite(cfg.Mirror.SQLitePath)
		if err != nil {
			return err
		}
		defer s.Close()

		n, err := s.Prune(cmd.Context(), time.Now().Add(-age))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "pruned %d keys older than %s\n", n, age)
		return nil
	},
}

func init() {
	mirrorPruneCmd.Flags().DurationVar(&olderThan, "older-than", 0, "Age cutoff (defaults to the mirror TTL)")
	mirrorCmd.AddCommand(mirrorPruneCmd)
	rootCmd.AddCommand(mirrorCmd)
}
