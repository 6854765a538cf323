package commands

import (
	"context"
	"fmt"

	"github.com/safepost/safepost/internal/cli/optimistic"
	"github.com/spf13/cobra"
)

// NewLikeCmd creates the like command
func NewLikeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "like <post-id>",
		Short: "Toggle your like on a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLike(cmd, args[0])
		},
	}
}

func runLike(cmd *cobra.Command, postID string) error {
	manager, client, err := newSession()
	if err != nil {
		return err
	}

	manager.Init(cmd.Context())
	if !manager.Snapshot().IsAuthenticated {
		return fmt.Errorf("liking posts requires login. Run 'safepost login' first")
	}

	current, err := client.GetLikeStatus(cmd.Context(), postID)
	if err != nil {
		return err
	}

	toggle := optimistic.NewToggle(optimistic.LikeState{
		Liked: current.Liked,
		Count: current.LikesCount,
	})

	state, err := toggle.Do(cmd.Context(), func(ctx context.Context) (optimistic.LikeState, error) {
		status, err := client.ToggleLike(ctx, postID)
		if err != nil {
			return optimistic.LikeState{}, err
		}
		return optimistic.LikeState{Liked: status.Liked, Count: status.LikesCount}, nil
	})
	if err != nil {
		return err
	}
	if state.Liked {
		fmt.Printf("♥ Liked. %d likes\n", state.Count)
	} else {
		fmt.Printf("Like removed. %d likes\n", state.Count)
	}
	return nil
}
