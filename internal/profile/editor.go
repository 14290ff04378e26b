// Package profile implements the profile editor screen.
package profile

import (
	"context"
	"fmt"

	"github.com/evcraddock/devmate/internal/apperror"
	"github.com/evcraddock/devmate/internal/session"
)

// Role is the role line shown under the username.
const Role = "Junior Frontend Developer"

// TechItem is a selectable technology.
type TechItem struct {
	Value string
	Label string
}

// TechStack lists the selectable technologies in display order.
var TechStack = []TechItem{
	{Value: "react", Label: "React"},
	{Value: "java", Label: "Java"},
	{Value: "python", Label: "Python"},
	{Value: "typescript", Label: "TypeScript"},
}

// Label returns the display label for a tech stack value, or "" if unknown.
func Label(value string) string {
	for _, item := range TechStack {
		if item.Value == value {
			return item.Label
		}
	}
	return ""
}

// Editor holds the profile drafts and the tech stack selection.
type Editor struct {
	sess *session.Session

	editing   bool
	username  string
	avatarURL string
	techStack []string
}

// New creates an editor for the session's user. selected restores a prior
// tech stack selection; unknown values are dropped.
func New(sess *session.Session, selected []string) *Editor {
	e := &Editor{sess: sess}
	for _, v := range selected {
		if Label(v) != "" && !e.Selected(v) {
			e.techStack = append(e.techStack, v)
		}
	}
	e.seed()
	return e
}

// Identity returns the committed identity.
func (e *Editor) Identity() session.Identity {
	return e.sess.Identity()
}

// Headline returns the welcome line.
func (e *Editor) Headline() string {
	return fmt.Sprintf("Welcome back, %s!", e.sess.Identity().Username)
}

// Editing reports whether edit mode is active.
func (e *Editor) Editing() bool {
	return e.editing
}

// Username returns the draft username.
func (e *Editor) Username() string {
	return e.username
}

// AvatarURL returns the draft avatar URL.
func (e *Editor) AvatarURL() string {
	return e.avatarURL
}

// TechStack returns the selected values in the order they were chosen.
func (e *Editor) TechStack() []string {
	out := make([]string, len(e.techStack))
	copy(out, e.techStack)
	return out
}

// Selected reports whether value is in the tech stack selection.
func (e *Editor) Selected(value string) bool {
	for _, v := range e.techStack {
		if v == value {
			return true
		}
	}
	return false
}

// EnterEditMode starts editing with drafts taken from the session identity.
func (e *Editor) EnterEditMode() {
	e.seed()
	e.editing = true
}

// CancelEdit leaves edit mode and discards the drafts.
func (e *Editor) CancelEdit() {
	e.editing = false
	e.seed()
}

// SetUsername updates the draft username.
func (e *Editor) SetUsername(username string) {
	e.username = username
}

// SetAvatarURL updates the draft avatar URL.
func (e *Editor) SetAvatarURL(avatarURL string) {
	e.avatarURL = avatarURL
}

// ToggleTechStackItem adds value to the selection, or removes it if present.
func (e *Editor) ToggleTechStackItem(value string) error {
	if Label(value) == "" {
		return apperror.New(apperror.ValidationError, "Unknown tech stack item %q", value)
	}
	for i, v := range e.techStack {
		if v == value {
			e.techStack = append(e.techStack[:i:i], e.techStack[i+1:]...)
			return nil
		}
	}
	e.techStack = append(e.techStack, value)
	return nil
}

// SaveProfile commits the drafts to the session and leaves edit mode.
// Edit mode is left even when persisting fails.
func (e *Editor) SaveProfile(ctx context.Context) error {
	e.editing = false
	if err := e.sess.CommitProfile(ctx, e.username, e.avatarURL); err != nil {
		return err
	}
	return nil
}

func (e *Editor) seed() {
	id := e.sess.Identity()
	e.username = id.Username
	e.avatarURL = id.AvatarURL
}
