package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/brownie-shop/internal/admin"
	"github.com/example/brownie-shop/internal/guard"
	"github.com/example/brownie-shop/internal/infrastructure/store"
)

// operatorID is recorded as the blocking admin for CLI blocks.
const operatorID = "shopctl"

var blockReason string

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List, block and unblock shopper accounts",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List shopper accounts with their block status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGateway(cmd.Context(), func(gw store.Gateway) error {
			return listUsers(cmd.Context(), gw, cmd.OutOrStdout())
		})
	},
}

var usersBlockCmd = &cobra.Command{
	Use:   "block USER_ID",
	Short: "Stop a shopper from signing in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGateway(cmd.Context(), func(gw store.Gateway) error {
			rec, err := newAdmin(gw).BlockUser(cmd.Context(), operatorID, args[0], blockReason)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "blocked %s (%s): %s\n", rec.UserID, rec.Email, rec.Reason)
			return nil
		})
	},
}

var usersUnblockCmd = &cobra.Command{
	Use:   "unblock USER_ID",
	Short: "Remove every block record for a shopper",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGateway(cmd.Context(), func(gw store.Gateway) error {
			n, err := newAdmin(gw).UnblockUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "unblocked %s (%d records removed)\n", args[0], n)
			return nil
		})
	},
}

func init() {
	usersBlockCmd.Flags().StringVar(&blockReason, "reason", "", "Reason shown to the shopper")
	usersCmd.AddCommand(usersListCmd, usersBlockCmd, usersUnblockCmd)
	rootCmd.AddCommand(usersCmd)
}

func newAdmin(gw store.Gateway) *admin.Service {
	return admin.NewService(gw, guard.New(gw.Blocks, nil), nil)
}

func listUsers(ctx context.Context, gw store.Gateway, out io.Writer) error {
	users, err := newAdmin(gw).ListUsers(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tORDERS\tBLOCKED")
	for _, u := range users {
		blocked := "-"
		if u.Blocked {
			blocked = u.BlockReason
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", u.ID, u.FullName(), u.Email, len(u.Orders), blocked)
	}
	return w.Flush()
}
