package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewReadCmd creates the read command
func NewReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <post-id>",
		Short: "Read a single post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRead(cmd, args[0])
		},
	}
}

func runRead(cmd *cobra.Command, postID string) error {
	manager, client, err := newSession()
	if err != nil {
		return err
	}
	manager.Init(cmd.Context())

	post, err := client.GetPost(cmd.Context(), postID)
	if err != nil {
		return err
	}

	status, err := client.GetLikeStatus(cmd.Context(), postID)
	if err != nil {
		return err
	}

	fmt.Println(post.Title)
	fmt.Println(strings.Repeat("═", len(post.Title)))
	if post.Author != nil {
		fmt.Printf("By %s", post.Author.Name)
	}
	fmt.Printf("  %s  %d min read  %d views\n", post.CreatedAt.Format("2006-01-02"), post.ReadingTime, post.ViewCount)

	if len(post.Tags) > 0 {
		names := make([]string, len(post.Tags))
		for i, tag := range post.Tags {
			names[i] = tag.Name
		}
		fmt.Printf("Tags: %s\n", strings.Join(names, ", "))
	}

	liked := " "
	if status.Liked {
		liked = "♥"
	}
	fmt.Printf("[%s] %d likes\n\n", liked, status.LikesCount)

	fmt.Println(post.Content)
	return nil
}
