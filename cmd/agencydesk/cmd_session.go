package main

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"agencydesk/internal/auth"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate against the agency API",
	Long: `Authenticates with email and password. The access token and admin
profile are persisted under the state dir; subsequent commands reuse
them until the session expires or 'agencydesk logout' clears them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		email := loginEmail
		password := loginPassword
		reader := bufio.NewReader(cmd.InOrStdin())
		if email == "" {
			fmt.Fprint(cmd.OutOrStdout(), "Email: ")
			line, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("failed to read email: %w", err)
			}
			email = strings.TrimSpace(line)
		}
		if password == "" {
			fmt.Fprint(cmd.OutOrStdout(), "Password: ")
			line, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			password = strings.TrimSpace(line)
		}

		result, err := client.Login(cmd.Context(), email, password)
		if err != nil {
			return err
		}
		name := email
		if result.Admin != nil && result.Admin.Name != "" {
			name = result.Admin.Name
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", name)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := client.Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if !authMgr.HasSession() {
			fmt.Fprintln(out, "Not logged in")
			return nil
		}
		if p := authMgr.Profile(); p != nil {
			fmt.Fprintf(out, "Logged in as %s <%s>\n", p.Name, p.Email)
			if p.Role != "" {
				fmt.Fprintf(out, "Role: %s\n", p.Role)
			}
		} else {
			fmt.Fprintln(out, "Logged in (no profile cached)")
		}
		if exp, ok := authMgr.TokenExpiry(); ok {
			if time.Now().After(exp) {
				fmt.Fprintf(out, "Token expired %s (will refresh on next request)\n", exp.Format(time.RFC3339))
			} else {
				fmt.Fprintf(out, "Token valid until %s\n", exp.Format(time.RFC3339))
			}
		}
		fmt.Fprintf(out, "API: %s\n", cfg.API.BaseURL)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "admin email (prompted when omitted)")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "admin password (prompted when omitted)")
}

// requireSession guards commands that only make sense logged in.
func requireSession() error {
	if !authMgr.HasSession() {
		return auth.ErrNoSession
	}
	return nil
}
