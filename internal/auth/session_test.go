package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/evcraddock/devmate/internal/db"
	"github.com/evcraddock/devmate/internal/session"
)

var testIdentity = session.Identity{UserID: "u1", Username: "ana", AvatarURL: "https://img/a.png"}

func TestSessionCreateAndValidate(t *testing.T) {
	store := testSessionStore(t)

	w := httptest.NewRecorder()
	if _, err := store.Create(w, "tok-1", testIdentity); err != nil {
		t.Fatalf("create: %v", err)
	}

	sessionCookie := findCookie(t, w)
	if !sessionCookie.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}

	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(sessionCookie)

	rec, err := store.Validate(r)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if rec.Token != "tok-1" {
		t.Errorf("token = %q, want %q", rec.Token, "tok-1")
	}
	if rec.Identity != testIdentity {
		t.Errorf("identity = %+v, want %+v", rec.Identity, testIdentity)
	}
}

func TestSessionValidateNoCookie(t *testing.T) {
	store := testSessionStore(t)

	r := httptest.NewRequest("GET", "/", nil)
	if _, err := store.Validate(r); err != ErrNoSession {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}
}

func TestSessionValidateInvalidCookie(t *testing.T) {
	store := testSessionStore(t)

	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(&http.Cookie{Name: cookieName, Value: "bogus-session-id"})

	if _, err := store.Validate(r); err != ErrNoSession {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}
}

func TestSessionExpired(t *testing.T) {
	store := testSessionStore(t)

	if _, err := store.db.Exec(
		"INSERT INTO sessions (id, token, expires_at) VALUES (?, ?, ?)",
		"old", "tok", time.Now().Add(-time.Hour),
	); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if _, err := store.Get("old"); err != ErrNoSession {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}

	var count int
	if err := store.db.QueryRow("SELECT COUNT(*) FROM sessions WHERE id = 'old'").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("expired session was not removed")
	}
}

func TestSessionDestroy(t *testing.T) {
	store := testSessionStore(t)

	w := httptest.NewRecorder()
	if _, err := store.Create(w, "tok-1", testIdentity); err != nil {
		t.Fatalf("create: %v", err)
	}
	sessionCookie := findCookie(t, w)

	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(sessionCookie)
	w2 := httptest.NewRecorder()

	if err := store.Destroy(w2, r); err != nil {
		t.Fatalf("destroy: %v", err)
	}

	r2 := httptest.NewRequest("GET", "/", nil)
	r2.AddCookie(sessionCookie)
	if _, err := store.Validate(r2); err == nil {
		t.Fatal("expected error after destroy")
	}
}

func TestSessionProfileCommit(t *testing.T) {
	store := testSessionStore(t)

	rec, err := store.Create(httptest.NewRecorder(), "tok-1", testIdentity)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	sess := rec.Session(store)
	if tok, ok := sess.Token(); !ok || tok != "tok-1" {
		t.Fatalf("token = %q, %v", tok, ok)
	}
	if err := sess.CommitProfile(context.Background(), "bob", "https://img/b.png"); err != nil {
		t.Fatalf("commit: %v", err)
	}

	got, err := store.Get(rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Identity.Username != "bob" || got.Identity.AvatarURL != "https://img/b.png" {
		t.Errorf("identity = %+v, want bob with new avatar", got.Identity)
	}
	if got.Identity.UserID != "u1" {
		t.Errorf("user id changed to %q", got.Identity.UserID)
	}
}

func TestSessionTechStack(t *testing.T) {
	store := testSessionStore(t)

	rec, err := store.Create(httptest.NewRecorder(), "tok-1", testIdentity)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.SetTechStack(rec.ID, []string{"python", "react"}); err != nil {
		t.Fatalf("set tech stack: %v", err)
	}

	got, err := store.Get(rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.TechStack) != 2 || got.TechStack[0] != "python" || got.TechStack[1] != "react" {
		t.Errorf("tech stack = %v, want [python react]", got.TechStack)
	}

	if err := store.SetTechStack("missing", []string{"java"}); err != ErrNoSession {
		t.Errorf("err = %v, want ErrNoSession", err)
	}
}

func TestSessionCleanup(t *testing.T) {
	store := testSessionStore(t)

	if _, err := store.db.Exec(
		"INSERT INTO sessions (id, token, expires_at) VALUES (?, ?, ?), (?, ?, ?)",
		"old", "tok", time.Now().Add(-time.Hour),
		"new", "tok", time.Now().Add(time.Hour),
	); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := store.Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	var count int
	if err := store.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("sessions = %d, want 1", count)
	}
}

func findCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	t.Fatalf("expected cookie named %q", cookieName)
	return nil
}

func testSessionStore(t *testing.T) *SessionStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	return NewSessionStore(d, false)
}
