package commands

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var email, password string
	var rememberMe bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with a SafePost server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, email, password, rememberMe)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set SAFEPOST_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set SAFEPOST_PASSWORD, will prompt if not provided)")
	cmd.Flags().BoolVar(&rememberMe, "remember-me", false, "Request a long-lived session")

	return cmd
}

func runLogin(cmd *cobra.Command, email, password string, rememberMe bool) error {
	// Check for environment variables (useful for CI/CD)
	if email == "" {
		email = os.Getenv("SAFEPOST_EMAIL")
	}
	if password == "" {
		password = os.Getenv("SAFEPOST_PASSWORD")
	}

	if email == "" {
		return fmt.Errorf("email is required (use --email flag or SAFEPOST_EMAIL env var)")
	}

	// Prompt for password if not provided via flag or env var
	if password == "" {
		if term.IsTerminal(int(syscall.Stdin)) {
			fmt.Print("Password: ")
			bytePassword, err := term.ReadPassword(int(syscall.Stdin))
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			password = string(bytePassword)
			fmt.Println()
		} else {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or SAFEPOST_PASSWORD env var)")
		}
	}

	manager, _, err := newSession()
	if err != nil {
		return err
	}

	if err := manager.Login(cmd.Context(), email, password, rememberMe); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	snap := manager.Snapshot()
	fmt.Println("✓ Login successful!")
	if snap.User != nil {
		fmt.Printf("  User: %s (%s)\n", snap.User.Name, snap.User.Email)
		if snap.User.Role == "ADMIN" {
			fmt.Println("  Role: Admin")
		}
	}

	return nil
}
