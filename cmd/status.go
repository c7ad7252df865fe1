package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SEP490-G11/Project-Round/internal/api"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check server reachability and session state",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := buildServices()
		if err != nil {
			return err
		}
		defer svc.cache.Close()

		health := api.NewHealthAPI(svc.client)
		if err := health.Check(context.Background()); err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Server:  unreachable (%s)\n", api.UserMessage(err))
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "Server:  ok")
		}

		sess := svc.sess.Current()
		if sess.LoggedIn() && sess.Profile != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Session: %s (%s)\n", sess.Profile.Email, sess.Profile.Role)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "Session: not logged in")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
