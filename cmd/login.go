package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:   "login [email]",
	Short: "Log in and store the session credential",
	Long: `Log in to the task board server and store the access credential in the
system keyring. The password is read from the terminal without echo, or
from the --password flag for non-interactive use.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := buildServices()
		if err != nil {
			return err
		}
		defer svc.cache.Close()

		email := ""
		if len(args) > 0 {
			email = args[0]
		}
		if email == "" {
			fmt.Fprint(cmd.OutOrStdout(), "Email: ")
			reader := bufio.NewReader(cmd.InOrStdin())
			line, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("reading email: %w", err)
			}
			email = strings.TrimSpace(line)
		}

		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			fmt.Fprint(cmd.OutOrStdout(), "Password: ")
			raw, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Fprintln(cmd.OutOrStdout())
			if err != nil {
				return fmt.Errorf("reading password: %w", err)
			}
			password = string(raw)
		}

		resp, err := svc.auth.Login(context.Background(), email, password)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", resp.User.FullName, resp.User.Role)
		return nil
	},
}

func init() {
	loginCmd.Flags().String("password", "", "password (read from terminal when omitted)")
	rootCmd.AddCommand(loginCmd)
}
