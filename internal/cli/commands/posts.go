package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/safepost/safepost/internal/cli/api"
	"github.com/spf13/cobra"
)

// NewPostsCmd creates the posts command
func NewPostsCmd() *cobra.Command {
	var categoryID, tagID, search string
	var drafts bool

	cmd := &cobra.Command{
		Use:     "posts",
		Aliases: []string{"ls"},
		Short:   "List published posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPosts(cmd, api.ListPostsParams{
				CategoryID: categoryID,
				TagID:      tagID,
				Search:     search,
			}, drafts)
		},
	}

	cmd.Flags().StringVar(&categoryID, "category", "", "Filter by category ID")
	cmd.Flags().StringVar(&tagID, "tag", "", "Filter by tag ID")
	cmd.Flags().StringVar(&search, "search", "", "Search in title and content")
	cmd.Flags().BoolVar(&drafts, "drafts", false, "List your drafts instead (requires login)")

	return cmd
}

func runPosts(cmd *cobra.Command, params api.ListPostsParams, drafts bool) error {
	manager, client, err := newSession()
	if err != nil {
		return err
	}

	var posts []api.Post
	if drafts {
		manager.Init(cmd.Context())
		if !manager.Snapshot().IsAuthenticated {
			return fmt.Errorf("listing drafts requires login. Run 'safepost login' first")
		}
		posts, err = client.Drafts(cmd.Context())
	} else {
		posts, err = client.ListPosts(cmd.Context(), params)
	}
	if err != nil {
		return err
	}

	if len(posts) == 0 {
		fmt.Println("No posts found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tCATEGORY\tVIEWS\tPUBLISHED")
	fmt.Fprintln(w, "──\t─────\t──────\t────────\t─────\t─────────")

	for _, post := range posts {
		author := ""
		if post.Author != nil {
			author = post.Author.Name
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			post.ID,
			post.Title,
			author,
			post.Category.Name,
			post.ViewCount,
			post.CreatedAt.Format("2006-01-02"),
		)
	}

	w.Flush()

	return nil
}
