package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newCommentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment",
		Short: "Add or delete comments on a post",
	}
	cmd.AddCommand(newCommentAddCmd(), newCommentDeleteCmd())
	return cmd
}

func newCommentAddCmd() *cobra.Command {
	var replyTo string

	cmd := &cobra.Command{
		Use:   "add <post-id> <text>",
		Short: "Comment on a post, or reply to a comment",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args[1:], " ")
			return runCommentAdd(cmd.Context(), cmd.OutOrStdout(), args[0], text, replyTo)
		},
	}

	cmd.Flags().StringVar(&replyTo, "reply-to", "", "id of the comment to reply to")

	return cmd
}

func runCommentAdd(ctx context.Context, out io.Writer, postID, text, replyTo string) error {
	c, err := loadPost(ctx, postID)
	if err != nil {
		return err
	}

	composer := c.Composer()
	composer.SetReplyTarget(replyTo)
	composer.SetDraftText(text)

	created, err := composer.Submit(ctx)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(out, created)
	}
	printCommentSingle(out, created)
	return nil
}

func newCommentDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <post-id> <comment-id>",
		Short: "Delete one of your comments",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommentDelete(cmd.Context(), cmd.OutOrStdout(), args[0], args[1])
		},
	}
}

func runCommentDelete(ctx context.Context, out io.Writer, postID, commentID string) error {
	c, err := loadPost(ctx, postID)
	if err != nil {
		return err
	}

	composer := c.Composer()
	for _, cm := range c.Comments() {
		if cm.ID == commentID && !composer.CanDelete(cm) {
			return fmt.Errorf("only the author can delete comment %s", commentID)
		}
	}

	if err := composer.DeleteComment(ctx, commentID); err != nil {
		return err
	}

	if isJSON() {
		return printJSON(out, map[string]string{"deleted": commentID})
	}
	fmt.Fprintf(out, "✓ Comment %s deleted.\n", commentID)
	return nil
}
