package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/evcraddock/devmate/internal/comment"
	"github.com/evcraddock/devmate/internal/post"
	"github.com/evcraddock/devmate/internal/profile"
)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printPost prints a post in text format.
func printPost(w io.Writer, p *post.Post) {
	fmt.Fprintf(w, "%s\n", p.Title)
	fmt.Fprintf(w, "  ID:      %s\n", p.ID)
	fmt.Fprintf(w, "  Author:  %s\n", p.UserID)
	if !p.CreatedAt.IsZero() {
		fmt.Fprintf(w, "  Posted:  %s\n", p.CreatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(w, "\n%s\n", p.Content)
}

// printCommentList prints comments in server order. Replies are marked with
// their parent but are not nested.
func printCommentList(w io.Writer, comments []*comment.Comment) {
	if len(comments) == 0 {
		fmt.Fprintln(w, "No comments.")
		return
	}

	for _, c := range comments {
		reply := ""
		if c.IsReply() {
			reply = fmt.Sprintf(" reply to #%s", *c.ParentID)
		}
		fmt.Fprintf(w, "[%s] #%s (%s)%s\n  %s\n\n",
			formatTime(c), c.ID, author(c.UserID), reply, c.Content)
	}
}

// printCommentSingle prints a single comment in text format.
func printCommentSingle(w io.Writer, c *comment.Comment) {
	if c.IsReply() {
		fmt.Fprintf(w, "Reply #%s added to #%s.\n  %s\n", c.ID, *c.ParentID, c.Content)
		return
	}
	fmt.Fprintf(w, "Comment #%s added.\n  %s\n", c.ID, c.Content)
}

// profileView is the JSON shape of a profile.
type profileView struct {
	UserID    string   `json:"user_id"`
	Username  string   `json:"username"`
	AvatarURL string   `json:"avatar_url"`
	Role      string   `json:"role"`
	TechStack []string `json:"tech_stack"`
}

func newProfileView(e *profile.Editor) profileView {
	id := e.Identity()
	stack := e.TechStack()
	if stack == nil {
		stack = []string{}
	}
	return profileView{
		UserID:    id.UserID,
		Username:  id.Username,
		AvatarURL: id.AvatarURL,
		Role:      profile.Role,
		TechStack: stack,
	}
}

// printProfile prints the profile card and the tech stack table. The new post
// link is printed only when configured.
func printProfile(w io.Writer, e *profile.Editor, newPostURL string) error {
	id := e.Identity()
	fmt.Fprintln(w, e.Headline())
	fmt.Fprintf(w, "  Role:    %s\n", profile.Role)
	if id.AvatarURL != "" {
		fmt.Fprintf(w, "  Avatar:  %s\n", id.AvatarURL)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "TECH\tSELECTED"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(tw, "----\t--------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}
	for _, item := range profile.TechStack {
		mark := "-"
		if e.Selected(item.Value) {
			mark = "✓"
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", item.Label, mark); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	if newPostURL != "" {
		fmt.Fprintf(w, "\nShare something new: %s\n", newPostURL)
	}
	return nil
}

func formatTime(c *comment.Comment) string {
	if c.CreatedAt.IsZero() {
		return "-"
	}
	return c.CreatedAt.Format("2006-01-02 15:04")
}

func author(userID string) string {
	if userID == "" {
		return "anonymous"
	}
	return "User " + userID
}

// maskToken shows the first few characters of a token.
func maskToken(token string) string {
	if len(token) > 8 {
		return token[:8] + "…"
	}
	return token + "…"
}
