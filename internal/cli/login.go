package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/devmate/internal/auth"
	"github.com/evcraddock/devmate/internal/config"
	"github.com/evcraddock/devmate/internal/session"
)

type loginOptions struct {
	token     string
	userID    string
	username  string
	avatarURL string
	backend   string
}

func newLoginCmd() *cobra.Command {
	var opts loginOptions

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a bearer token and identity",
		Long: `Stores the bearer token used for mutating requests together with the
identity it belongs to. Identity fields are read from the token's JWT claims
when present; the flags fill whatever the token does not carry.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd.InOrStdin(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.token, "token", "", "bearer token (prompted when empty)")
	cmd.Flags().StringVar(&opts.userID, "user-id", "", "user id, when the token has no claims")
	cmd.Flags().StringVar(&opts.username, "username", "", "display name")
	cmd.Flags().StringVar(&opts.avatarURL, "avatar-url", "", "avatar image URL")
	cmd.Flags().StringVar(&opts.backend, "backend", "", "backend URL to store (default: from config or "+config.DefaultBackendURL+")")

	return cmd
}

func runLogin(in io.Reader, out io.Writer, opts loginOptions) error {
	token := opts.token
	if token == "" {
		fmt.Fprint(out, "Paste your token: ")
		reader := bufio.NewReader(in)
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("reading input: %w", err)
		}
		token = line
	}

	token = strings.TrimPrefix(strings.TrimSpace(token), "Bearer ")
	if token == "" {
		return fmt.Errorf("no token provided")
	}

	claims, err := auth.IdentityFromToken(token)
	if err != nil {
		return fmt.Errorf("reading token claims: %w", err)
	}
	identity := auth.MergeIdentity(claims, session.Identity{
		UserID:    opts.userID,
		Username:  opts.username,
		AvatarURL: opts.avatarURL,
	})
	if identity.UserID == "" {
		return fmt.Errorf("user id is required for this token (pass --user-id)")
	}

	// Load existing config to preserve other fields
	cfg, err := loadConfig()
	if err != nil {
		cfg = CLIConfig{}
	}

	cfg.Token = token
	cfg.Identity = identity
	if opts.backend != "" {
		cfg.BackendURL = opts.backend
	}

	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	name := identity.Username
	if name == "" {
		name = identity.UserID
	}
	fmt.Fprintf(out, "✓ Token saved. Logged in as %s.\n", name)
	return nil
}
