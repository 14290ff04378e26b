// Package auth keeps browser sessions for the web UI: the backend bearer
// token and the identity it belongs to.
package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/evcraddock/devmate/internal/session"
)

const (
	sessionExpiry = 30 * 24 * time.Hour // 30 days
	cookieName    = "dm_session"
)

// ErrNoSession is returned by Validate when the request carries no usable
// session.
var ErrNoSession = errors.New("no session")

// Record is a stored browser session: the backend bearer token and the
// identity shown in the UI.
type Record struct {
	ID        string
	Token     string
	Identity  session.Identity
	TechStack []string
	ExpiresAt time.Time
}

// Session returns the controller-facing view of the record. Profile commits
// are written back to store.
func (r *Record) Session(store *SessionStore) *session.Session {
	var writer session.ProfileWriter
	if store != nil {
		writer = &profileWriter{store: store, id: r.ID}
	}
	return session.New(r.Identity, session.StaticToken(r.Token), writer)
}

// SessionStore manages sessions in SQLite.
type SessionStore struct {
	db     *sql.DB
	secure bool
}

// NewSessionStore creates a session store. secure marks the cookie Secure.
func NewSessionStore(db *sql.DB, secure bool) *SessionStore {
	return &SessionStore{db: db, secure: secure}
}

// Create stores a session for the token and identity and sets the cookie.
func (s *SessionStore) Create(w http.ResponseWriter, token string, identity session.Identity) (*Record, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("generating session ID: %w", err)
	}

	expiresAt := time.Now().Add(sessionExpiry)

	if _, err := s.db.Exec(
		`INSERT INTO sessions (id, token, user_id, username, avatar_url, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, token, identity.UserID, identity.Username, identity.AvatarURL, expiresAt,
	); err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    id,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})

	return &Record{ID: id, Token: token, Identity: identity, ExpiresAt: expiresAt}, nil
}

// Validate checks the session cookie and returns the stored record.
func (s *SessionStore) Validate(r *http.Request) (*Record, error) {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return nil, ErrNoSession
	}
	return s.Get(cookie.Value)
}

// Get loads a session by id. Expired sessions are removed.
func (s *SessionStore) Get(id string) (*Record, error) {
	rec := Record{ID: id}
	var techStack string

	err := s.db.QueryRow(
		`SELECT token, user_id, username, avatar_url, tech_stack, expires_at
		 FROM sessions WHERE id = ?`,
		id,
	).Scan(&rec.Token, &rec.Identity.UserID, &rec.Identity.Username, &rec.Identity.AvatarURL, &techStack, &rec.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	if time.Now().After(rec.ExpiresAt) {
		if _, delErr := s.db.Exec("DELETE FROM sessions WHERE id = ?", id); delErr != nil {
			return nil, fmt.Errorf("deleting expired session: %w", delErr)
		}
		return nil, ErrNoSession
	}

	rec.TechStack = splitStack(techStack)
	return &rec, nil
}

// UpdateProfile replaces the username and avatar URL of a session.
func (s *SessionStore) UpdateProfile(id, username, avatarURL string) error {
	res, err := s.db.Exec(
		"UPDATE sessions SET username = ?, avatar_url = ? WHERE id = ?",
		username, avatarURL, id,
	)
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	return requireRow(res)
}

// SetTechStack stores the tech stack selection of a session.
func (s *SessionStore) SetTechStack(id string, stack []string) error {
	res, err := s.db.Exec(
		"UPDATE sessions SET tech_stack = ? WHERE id = ?",
		strings.Join(stack, ","), id,
	)
	if err != nil {
		return fmt.Errorf("updating tech stack: %w", err)
	}
	return requireRow(res)
}

// Destroy removes the session and clears the cookie.
func (s *SessionStore) Destroy(w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return nil // no session to destroy
	}

	if _, err := s.db.Exec("DELETE FROM sessions WHERE id = ?", cookie.Value); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

// Cleanup removes expired sessions.
func (s *SessionStore) Cleanup() error {
	if _, err := s.db.Exec(
		"DELETE FROM sessions WHERE expires_at < ?",
		time.Now(),
	); err != nil {
		return fmt.Errorf("cleaning up sessions: %w", err)
	}
	return nil
}

type profileWriter struct {
	store *SessionStore
	id    string
}

func (p *profileWriter) SaveProfile(_ context.Context, username, avatarURL string) error {
	return p.store.UpdateProfile(p.id, username, avatarURL)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNoSession
	}
	return nil
}

func splitStack(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
