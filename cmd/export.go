package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Download the task report spreadsheet (admin only)",
	Long: `Download the task report as an xlsx spreadsheet and write it to the
given file. Defaults to tasks.xlsx in the current directory. Requires an
admin session.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := buildServices()
		if err != nil {
			return err
		}
		defer svc.cache.Close()

		if !svc.sess.LoggedIn() {
			return fmt.Errorf("not logged in: run taskboard login first")
		}

		out := "tasks.xlsx"
		if len(args) > 0 {
			out = args[0]
		}

		data, err := svc.reports.ExportTasks(context.Background())
		if err != nil {
			return fmt.Errorf("exporting tasks: %w", err)
		}

		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", out, len(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
