package commands

import (
	"fmt"

	"github.com/safepost/safepost/internal/cli/api"
	"github.com/spf13/cobra"
)

// NewProfileCmd creates the profile command
func NewProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile [user-id]",
		Short: "Show a user's public profile, or your own",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID := ""
			if len(args) > 0 {
				userID = args[0]
			}
			return runProfile(cmd, userID)
		},
	}

	cmd.AddCommand(newProfileUpdateCmd())

	return cmd
}

func newProfileUpdateCmd() *cobra.Command {
	var req api.UpdateProfileRequest

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfileUpdate(cmd, req)
		},
	}

	cmd.Flags().StringVar(&req.Bio, "bio", "", "Short bio")
	cmd.Flags().StringVar(&req.Location, "location", "", "Location")
	cmd.Flags().StringVar(&req.TwitterURL, "twitter", "", "Twitter profile URL")
	cmd.Flags().StringVar(&req.GithubURL, "github", "", "GitHub profile URL")
	cmd.Flags().StringVar(&req.LinkedinURL, "linkedin", "", "LinkedIn profile URL")
	cmd.Flags().StringVar(&req.WebsiteURL, "website", "", "Personal website URL")

	return cmd
}

func runProfile(cmd *cobra.Command, userID string) error {
	manager, client, err := newSession()
	if err != nil {
		return err
	}

	var user *api.UserProfile
	if userID != "" {
		user, err = client.PublicProfile(cmd.Context(), userID)
	} else {
		manager.Init(cmd.Context())
		snap := manager.Snapshot()
		if !snap.IsAuthenticated {
			return fmt.Errorf("not logged in. Pass a user ID or run 'safepost login' first")
		}
		user = snap.User
	}
	if err != nil {
		return err
	}

	printProfile(user)
	return nil
}

func runProfileUpdate(cmd *cobra.Command, req api.UpdateProfileRequest) error {
	manager, client, err := newSession()
	if err != nil {
		return err
	}

	manager.Init(cmd.Context())
	if !manager.Snapshot().IsAuthenticated {
		return fmt.Errorf("updating your profile requires login. Run 'safepost login' first")
	}

	user, err := client.UpdateProfile(cmd.Context(), req)
	if err != nil {
		return err
	}

	fmt.Println("✓ Profile updated.")
	printProfile(user)
	return nil
}

func printProfile(user *api.UserProfile) {
	fmt.Printf("%s\n", user.Name)
	fmt.Printf("  Joined: %s\n", user.CreatedAt.Format("2006-01-02"))
	fmt.Printf("  Posts: %d\n", user.PostCount)
	if user.Bio != "" {
		fmt.Printf("  Bio: %s\n", user.Bio)
	}
	if user.Location != "" {
		fmt.Printf("  Location: %s\n", user.Location)
	}
	if user.WebsiteURL != "" {
		fmt.Printf("  Website: %s\n", user.WebsiteURL)
	}
	if user.TwitterURL != "" {
		fmt.Printf("  Twitter: %s\n", user.TwitterURL)
	}
	if user.GithubURL != "" {
		fmt.Printf("  GitHub: %s\n", user.GithubURL)
	}
	if user.LinkedinURL != "" {
		fmt.Printf("  LinkedIn: %s\n", user.LinkedinURL)
	}
}
