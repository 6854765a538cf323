package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session and clear stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, _, err := newSession()
			if err != nil {
				return err
			}

			manager.Logout(cmd.Context())
			fmt.Println("✓ Logged out.")
			return nil
		},
	}
}
