package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/evcraddock/devmate/internal/config"
	"github.com/evcraddock/devmate/internal/profile"
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit your profile",
	}
	cmd.AddCommand(newProfileShowCmd(), newProfileEditCmd())
	return cmd
}

// loadEditor builds a profile editor from the stored session.
func loadEditor() (*profile.Editor, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	sess, err := currentSession()
	if err != nil {
		return nil, err
	}
	if _, ok := sess.Token(); !ok {
		return nil, fmt.Errorf("not logged in: run 'dm login' first")
	}
	return profile.New(sess, cfg.TechStack), nil
}

// newPostURL returns the configured target for new posts, or "".
func newPostURL() string {
	cfg, err := config.FromEnv()
	if err != nil {
		return ""
	}
	return cfg.NewPostURL
}

func newProfileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfileShow(cmd.OutOrStdout())
		},
	}
}

func runProfileShow(out io.Writer) error {
	e, err := loadEditor()
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(out, newProfileView(e))
	}
	return printProfile(out, e, newPostURL())
}

type profileEdit struct {
	username  *string
	avatarURL *string
	toggle    []string
}

func newProfileEditCmd() *cobra.Command {
	var (
		username  string
		avatarURL string
		toggle    []string
	)

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Change your username, avatar, or tech stack",
		Long: `Updates the profile. --toggle-tech adds an item to the tech stack when it
is not selected and removes it when it is. Valid items: react, java, python,
typescript.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			edit := profileEdit{toggle: toggle}
			if cmd.Flags().Changed("username") {
				edit.username = &username
			}
			if cmd.Flags().Changed("avatar-url") {
				edit.avatarURL = &avatarURL
			}
			return runProfileEdit(cmd.Context(), cmd.OutOrStdout(), edit)
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "new username")
	cmd.Flags().StringVar(&avatarURL, "avatar-url", "", "new avatar image URL")
	cmd.Flags().StringSliceVar(&toggle, "toggle-tech", nil, "tech stack item to toggle (repeatable)")

	return cmd
}

func runProfileEdit(ctx context.Context, out io.Writer, edit profileEdit) error {
	e, err := loadEditor()
	if err != nil {
		return err
	}

	for _, item := range edit.toggle {
		if err := e.ToggleTechStackItem(item); err != nil {
			return err
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.TechStack = e.TechStack()
	if err := saveConfig(cfg); err != nil {
		return err
	}

	if edit.username != nil || edit.avatarURL != nil {
		e.EnterEditMode()
		if edit.username != nil {
			e.SetUsername(*edit.username)
		}
		if edit.avatarURL != nil {
			e.SetAvatarURL(*edit.avatarURL)
		}
		if err := e.SaveProfile(ctx); err != nil {
			return err
		}
	}

	if isJSON() {
		return printJSON(out, newProfileView(e))
	}
	fmt.Fprintln(out, "✓ Profile updated.")
	fmt.Fprintln(out)
	return printProfile(out, e, newPostURL())
}
