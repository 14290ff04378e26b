package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/evcraddock/devmate/internal/comment"
	"github.com/evcraddock/devmate/internal/post"
	"github.com/evcraddock/devmate/internal/postview"
)

func newPostCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Show, edit, or delete a post",
	}
	cmd.AddCommand(newPostShowCmd(), newPostEditCmd(), newPostDeleteCmd())
	return cmd
}

// loadPost builds a controller for the stored session and loads postID.
func loadPost(ctx context.Context, postID string) (*postview.Controller, error) {
	api, cfg, err := newAPIClient()
	if err != nil {
		return nil, err
	}
	sess, err := currentSession()
	if err != nil {
		return nil, err
	}

	c := postview.New(api, sess, cfg.PostListURL)
	if err := c.Load(ctx, postID); err != nil {
		return nil, err
	}
	return c, nil
}

type postDetail struct {
	Post     *post.Post         `json:"post"`
	Comments []*comment.Comment `json:"comments"`
}

func newPostShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <post-id>",
		Short: "Show a post and its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPostShow(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}
}

func runPostShow(ctx context.Context, out io.Writer, postID string) error {
	c, err := loadPost(ctx, postID)
	if err != nil {
		return err
	}

	if isJSON() {
		comments := c.Comments()
		if comments == nil {
			comments = []*comment.Comment{}
		}
		return printJSON(out, postDetail{Post: c.Post(), Comments: comments})
	}

	printPost(out, c.Post())
	fmt.Fprintf(out, "\nComments (%d)\n\n", len(c.Comments()))
	printCommentList(out, c.Comments())
	return nil
}

func newPostEditCmd() *cobra.Command {
	var title, content string

	cmd := &cobra.Command{
		Use:   "edit <post-id>",
		Short: "Edit the title or content of your post",
		Long:  "Replaces the title and/or content of a post you wrote. Fields not given keep their current value.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("title") && !cmd.Flags().Changed("content") {
				return fmt.Errorf("nothing to change: pass --title and/or --content")
			}
			var t, c *string
			if cmd.Flags().Changed("title") {
				t = &title
			}
			if cmd.Flags().Changed("content") {
				c = &content
			}
			return runPostEdit(cmd.Context(), cmd.OutOrStdout(), args[0], t, c)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&content, "content", "", "new content")

	return cmd
}

func runPostEdit(ctx context.Context, out io.Writer, postID string, title, content *string) error {
	c, err := loadPost(ctx, postID)
	if err != nil {
		return err
	}
	if !c.CanModify() {
		return fmt.Errorf("only the author can edit post %s", postID)
	}

	c.EnterEditMode()
	if title != nil {
		c.SetDraftTitle(*title)
	}
	if content != nil {
		c.SetDraftContent(*content)
	}
	if err := c.SaveEdit(ctx); err != nil {
		return err
	}

	if isJSON() {
		return printJSON(out, c.Post())
	}
	fmt.Fprintf(out, "✓ Post %s updated.\n\n", postID)
	printPost(out, c.Post())
	return nil
}

func newPostDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <post-id>",
		Short: "Delete your post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPostDelete(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}
}

func runPostDelete(ctx context.Context, out io.Writer, postID string) error {
	c, err := loadPost(ctx, postID)
	if err != nil {
		return err
	}
	if !c.CanModify() {
		return fmt.Errorf("only the author can delete post %s", postID)
	}

	if err := c.DeletePost(ctx); err != nil {
		return err
	}

	if isJSON() {
		return printJSON(out, map[string]string{"notice": c.Notice(), "redirect": c.Redirect()})
	}
	fmt.Fprintln(out, c.Notice())
	fmt.Fprintf(out, "Back to %s\n", c.Redirect())
	return nil
}
