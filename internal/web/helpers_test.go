package web

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/evcraddock/devmate/internal/comment"
	"github.com/evcraddock/devmate/internal/config"
	"github.com/evcraddock/devmate/internal/db"
	"github.com/evcraddock/devmate/internal/post"
	"github.com/evcraddock/devmate/internal/session"
)

// fakeBackend is an in-memory posts and comments API.
type fakeBackend struct {
	mu       sync.Mutex
	posts    map[string]*post.Post
	comments map[string][]*comment.Comment
	nextID   int
	requests []string
	failPut  bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		posts: map[string]*post.Post{
			"abc123": {ID: "abc123", UserID: "u1", Title: "Hello", Content: "World"},
		},
		comments: map[string][]*comment.Comment{"abc123": {}},
	}
}

func (b *fakeBackend) count(prefix string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, r := range b.requests {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /boards/{board}/posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		b.mu.Lock()
		p := b.posts[r.PathValue("id")]
		b.mu.Unlock()
		if p == nil {
			writeTestJSON(w, http.StatusOK, map[string]interface{}{"post": nil})
			return
		}
		writeTestJSON(w, http.StatusOK, map[string]interface{}{"post": p})
	})

	mux.HandleFunc("PUT /boards/{board}/posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		if b.failPut {
			http.Error(w, "Only the author may edit this post", http.StatusForbidden)
			return
		}
		var req struct{ Title, Content string }
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		b.mu.Lock()
		p := b.posts[r.PathValue("id")]
		p.Title, p.Content = req.Title, req.Content
		b.mu.Unlock()
		writeTestJSON(w, http.StatusOK, map[string]interface{}{"post": p})
	})

	mux.HandleFunc("DELETE /boards/{board}/posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		b.mu.Lock()
		delete(b.posts, r.PathValue("id"))
		b.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("GET /comments/{postID}", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		b.mu.Lock()
		list, ok := b.comments[r.PathValue("postID")]
		b.mu.Unlock()
		if !ok {
			writeTestJSON(w, http.StatusOK, map[string]interface{}{"success": false})
			return
		}
		writeTestJSON(w, http.StatusOK, map[string]interface{}{"success": true, "comments": list})
	})

	mux.HandleFunc("POST /comments/", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		var req struct {
			Content  string  `json:"content"`
			UserID   string  `json:"userId"`
			PostID   string  `json:"postId"`
			ParentID *string `json:"parentId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		b.mu.Lock()
		b.nextID++
		c := &comment.Comment{
			ID:        "srv-" + string(rune('0'+b.nextID)),
			UserID:    req.UserID,
			Content:   req.Content,
			ParentID:  req.ParentID,
			CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		}
		b.comments[req.PostID] = append(b.comments[req.PostID], c)
		b.mu.Unlock()
		writeTestJSON(w, http.StatusCreated, map[string]interface{}{"comment": c})
	})

	mux.HandleFunc("DELETE /comments/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		id := r.PathValue("id")
		b.mu.Lock()
		defer b.mu.Unlock()
		for postID, list := range b.comments {
			for i, c := range list {
				if c.ID == id {
					b.comments[postID] = append(list[:i:i], list[i+1:]...)
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}
		}
		http.Error(w, "comment not found", http.StatusNotFound)
	})

	return mux
}

func (b *fakeBackend) record(r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, r.Method+" "+r.URL.Path)
}

func writeTestJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// testServer starts a fake backend and a web server pointed at it.
func testServer(t *testing.T) (*Server, *fakeBackend) {
	t.Helper()
	srv, backend, _ := testServerWithDB(t)
	return srv, backend
}

func testServerWithDB(t *testing.T) (*Server, *fakeBackend, *sql.DB) {
	t.Helper()

	backend := newFakeBackend()
	api := httptest.NewServer(backend.handler())
	t.Cleanup(api.Close)

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

	cfg := config.Config{
		BackendURL:     api.URL,
		BoardID:        "1",
		PostListURL:    "/boards/study/posts",
		RequestTimeout: 5 * time.Second,
	}
	srv, err := NewServer(d, cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	return srv, backend, d
}

// login creates a session directly and returns its cookie.
func login(t *testing.T, srv *Server, id session.Identity) *http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	if _, err := srv.sessions.Create(w, "tok-"+id.UserID, id); err != nil {
		t.Fatalf("create session: %v", err)
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == "dm_session" {
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

var (
	author   = session.Identity{UserID: "u1", Username: "ana"}
	stranger = session.Identity{UserID: "u2", Username: "bob"}
)

func get(t *testing.T, srv *Server, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest("GET", path, nil)
	if cookie != nil {
		r.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	return w
}

func postForm(t *testing.T, srv *Server, path string, form url.Values, cookie *http.Cookie, htmx bool) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		r.Header.Set("HX-Request", "true")
	}
	if cookie != nil {
		r.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	return w
}
