package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the currently authenticated user",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, _, err := newSession()
			if err != nil {
				return err
			}

			manager.Init(cmd.Context())

			snap := manager.Snapshot()
			if !snap.IsAuthenticated || snap.User == nil {
				fmt.Println("Not logged in. Run 'safepost login' first.")
				return nil
			}

			user := snap.User
			fmt.Printf("%s (%s)\n", user.Name, user.Email)
			fmt.Printf("  Role: %s\n", user.Role)
			fmt.Printf("  Posts: %d\n", user.PostCount)
			if user.Bio != "" {
				fmt.Printf("  Bio: %s\n", user.Bio)
			}
			if user.Location != "" {
				fmt.Printf("  Location: %s\n", user.Location)
			}
			return nil
		},
	}
}
