// Package cli defines the cobra command tree for devmate.
package cli

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/devmate/internal/apperror"
	"github.com/evcraddock/devmate/internal/client"
	"github.com/evcraddock/devmate/internal/config"
	"github.com/evcraddock/devmate/internal/db"
	"github.com/evcraddock/devmate/internal/logging"
)

var (
	flagFormat string
	flagDB     string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dm",
		Short:         "View and edit DevMate posts and your profile",
		Long:          "A client for the DevMate community board. Read posts and their comments, edit or delete your own posts, comment and reply, and manage your profile from the command line or the web UI.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flagFormat != "text" && flagFormat != "json" {
				return fmt.Errorf("invalid --format %q (want text or json)", flagFormat)
			}
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			logging.Setup(cfg.DevMode)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite session database for serve (default: ~/.devmate/devmate.db)")

	root.AddCommand(
		newPostCmd(),
		newCommentCmd(),
		newProfileCmd(),
		newServeCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	return root
}

// Hint returns a follow-up suggestion for err, or "" when there is none.
func Hint(err error) string {
	if apperror.Is(err, apperror.Unauthenticated) {
		return "Run 'dm login' to authenticate."
	}
	return ""
}

// openDB opens the SQLite database using the --db flag or default path.
func openDB() (*sql.DB, error) {
	path := flagDB
	if path == "" {
		var err error
		path, err = db.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return db.Open(path)
}

// newAPIClient creates a client for the DevMate backend.
func newAPIClient() (*client.Client, config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, config.Config{}, err
	}
	cfg.BackendURL = getBackendURL()
	return client.New(cfg.BackendURL, cfg.BoardID, cfg.RequestTimeout), cfg, nil
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}
