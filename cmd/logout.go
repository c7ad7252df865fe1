package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored session",
	Long: `Log out from the task board server and remove the stored credential
from the system keyring. The local snapshot cache is wiped as well.
Local state is cleared even when the server cannot be reached.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := buildServices()
		if err != nil {
			return err
		}
		defer svc.cache.Close()

		if !svc.sess.LoggedIn() {
			fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
			return nil
		}

		ctx := context.Background()
		if err := svc.auth.Logout(ctx); err != nil {
			logger.Warn("logout request failed", "error", err)
		}
		if err := svc.cache.Clear(ctx); err != nil {
			logger.Warn("cache clear failed", "error", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
