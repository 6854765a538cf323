package commands

import (
	"fmt"

	"github.com/safepost/safepost/internal/cli/userconfig"
	"github.com/spf13/cobra"
)

// NewServerCmd creates the server command
func NewServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server [url]",
		Short: "Show or set the SafePost server URL",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				serverURL, err := userconfig.GetServerURL()
				if err != nil {
					return err
				}
				fmt.Println(serverURL)
				return nil
			}

			if err := userconfig.SetServerURL(args[0]); err != nil {
				return fmt.Errorf("failed to save server URL: %w", err)
			}
			fmt.Printf("✓ Server set to %s\n", args[0])
			return nil
		},
	}
}
