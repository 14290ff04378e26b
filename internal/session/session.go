// Package session carries the signed-in user's identity and bearer token into
// the screen controllers. A Session is injected into each controller; the only
// write path is CommitProfile.
package session

import (
	"context"
	"fmt"
)

// Identity is the signed-in user as shown across the app.
type Identity struct {
	UserID    string `json:"user_id" yaml:"user_id,omitempty"`
	Username  string `json:"username" yaml:"username,omitempty"`
	AvatarURL string `json:"avatar_url" yaml:"avatar_url,omitempty"`
}

// CredentialProvider supplies the bearer token for mutating requests.
type CredentialProvider interface {
	Token() (string, bool)
}

// ProfileWriter persists a profile change for the current user.
type ProfileWriter interface {
	SaveProfile(ctx context.Context, username, avatarURL string) error
}

// StaticToken is a CredentialProvider backed by a fixed string.
// The empty string means no token.
type StaticToken string

// Token implements CredentialProvider.
func (t StaticToken) Token() (string, bool) {
	return string(t), t != ""
}

// Session is the per-interaction view of the session store.
type Session struct {
	identity Identity
	creds    CredentialProvider
	writer   ProfileWriter
}

// New creates a session. creds and writer may be nil.
func New(identity Identity, creds CredentialProvider, writer ProfileWriter) *Session {
	if creds == nil {
		creds = StaticToken("")
	}
	return &Session{identity: identity, creds: creds, writer: writer}
}

// Anonymous returns a session with no identity and no token.
func Anonymous() *Session {
	return New(Identity{}, nil, nil)
}

// Identity returns the current identity.
func (s *Session) Identity() Identity {
	return s.identity
}

// UserID returns the current user's id, or "" when signed out.
func (s *Session) UserID() string {
	return s.identity.UserID
}

// Token returns the bearer token if one is present.
func (s *Session) Token() (string, bool) {
	return s.creds.Token()
}

// CommitProfile writes the new username and avatar through the profile
// writer and, once persisted, updates the in-memory identity.
func (s *Session) CommitProfile(ctx context.Context, username, avatarURL string) error {
	if s.writer != nil {
		if err := s.writer.SaveProfile(ctx, username, avatarURL); err != nil {
			return fmt.Errorf("saving profile: %w", err)
		}
	}
	s.identity.Username = username
	s.identity.AvatarURL = avatarURL
	return nil
}
