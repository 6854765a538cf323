package commands

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewRegisterCmd creates the register command
func NewRegisterCmd() *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account on a SafePost server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd, name, email, password)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Email address (or set SAFEPOST_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set SAFEPOST_PASSWORD, will prompt if not provided)")

	return cmd
}

func runRegister(cmd *cobra.Command, name, email, password string) error {
	if email == "" {
		email = os.Getenv("SAFEPOST_EMAIL")
	}
	if password == "" {
		password = os.Getenv("SAFEPOST_PASSWORD")
	}

	if name == "" {
		return fmt.Errorf("name is required (use --name flag)")
	}
	if email == "" {
		return fmt.Errorf("email is required (use --email flag or SAFEPOST_EMAIL env var)")
	}

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

	if err := manager.Register(cmd.Context(), name, email, password); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	snap := manager.Snapshot()
	fmt.Println("✓ Account created!")
	if snap.User != nil {
		fmt.Printf("  User: %s (%s)\n", snap.User.Name, snap.User.Email)
	}

	return nil
}
