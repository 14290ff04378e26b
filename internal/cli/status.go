package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check backend connection and login status",
		Long:  "Tests the connection to the backend and shows who the stored token belongs to.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

type statusView struct {
	Backend   string `json:"backend"`
	Reachable bool   `json:"reachable"`
	LoggedIn  bool   `json:"logged_in"`
	UserID    string `json:"user_id,omitempty"`
	Username  string `json:"username,omitempty"`
}

func runStatus(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	api, _, err := newAPIClient()
	if err != nil {
		return err
	}
	sess, err := currentSession()
	if err != nil {
		return err
	}

	view := statusView{Backend: api.BaseURL()}
	pingErr := api.Ping(ctx)
	view.Reachable = pingErr == nil
	token, ok := sess.Token()
	view.LoggedIn = ok
	if ok {
		view.UserID = sess.UserID()
		view.Username = sess.Identity().Username
	}

	if isJSON() {
		return printJSON(out, view)
	}

	fmt.Fprintf(out, "Backend: %s\n", view.Backend)
	if view.Reachable {
		fmt.Fprintln(out, "Status:  ✓ reachable")
	} else {
		fmt.Fprintf(out, "Status:  ✗ cannot reach backend (%v)\n", pingErr)
	}

	if !ok {
		fmt.Fprintln(out, "Token:   not configured")
		fmt.Fprintln(out, "\nRun 'dm login' to authenticate.")
		return nil
	}
	fmt.Fprintf(out, "Token:   %s\n", maskToken(token))
	if view.Username != "" {
		fmt.Fprintf(out, "User:    %s (%s)\n", view.Username, view.UserID)
	} else {
		fmt.Fprintf(out, "User:    %s\n", view.UserID)
	}
	return nil
}
