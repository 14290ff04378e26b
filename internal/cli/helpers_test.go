package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/evcraddock/devmate/internal/comment"
	"github.com/evcraddock/devmate/internal/post"
	"github.com/evcraddock/devmate/internal/session"
)

// backend is a minimal in-memory DevMate API.
type backend struct {
	mu       sync.Mutex
	post     *post.Post
	comments []*comment.Comment
	nextID   int
	tokens   []string
	deleted  []string
}

func (b *backend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /boards/{board}/posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.post == nil || b.post.ID != r.PathValue("id") {
			writeJSON(w, map[string]interface{}{"post": nil})
			return
		}
		writeJSON(w, map[string]interface{}{"post": b.post})
	})

	mux.HandleFunc("PUT /boards/{board}/posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Title, Content string }
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		b.tokens = append(b.tokens, r.Header.Get("Authorization"))
		updated := *b.post
		updated.Title, updated.Content = req.Title, req.Content
		b.post = &updated
		writeJSON(w, map[string]interface{}{"post": b.post})
	})

	mux.HandleFunc("DELETE /boards/{board}/posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.tokens = append(b.tokens, r.Header.Get("Authorization"))
		b.deleted = append(b.deleted, "post:"+r.PathValue("id"))
		writeJSON(w, map[string]interface{}{"success": true})
	})

	mux.HandleFunc("GET /comments/{postID}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		comments := b.comments
		if comments == nil {
			comments = []*comment.Comment{}
		}
		writeJSON(w, map[string]interface{}{"success": true, "comments": comments})
	})

	mux.HandleFunc("POST /comments/", func(w http.ResponseWriter, r *http.Request) {
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
		defer b.mu.Unlock()
		b.tokens = append(b.tokens, r.Header.Get("Authorization"))
		b.nextID++
		c := &comment.Comment{ID: "new" + strconv.Itoa(b.nextID), UserID: req.UserID, Content: req.Content, ParentID: req.ParentID}
		b.comments = append(b.comments, c)
		writeJSON(w, map[string]interface{}{"comment": c})
	})

	mux.HandleFunc("DELETE /comments/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.tokens = append(b.tokens, r.Header.Get("Authorization"))
		b.deleted = append(b.deleted, "comment:"+r.PathValue("id"))
		writeJSON(w, map[string]interface{}{"success": true})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// setupBackend starts a backend holding post abc123 by u1 with one comment,
// and points the CLI at it with an empty home directory.
func setupBackend(t *testing.T) *backend {
	t.Helper()

	b := &backend{
		post: &post.Post{ID: "abc123", UserID: "u1", Title: "Hello", Content: "World"},
		comments: []*comment.Comment{
			{ID: "c1", UserID: "u1", Content: "Nice"},
			{ID: "c2", UserID: "u2", Content: "Thanks", ParentID: strPtr("c1")},
		},
	}
	srv := httptest.NewServer(b.handler())
	t.Cleanup(srv.Close)

	t.Setenv("HOME", t.TempDir())
	t.Setenv("DM_BACKEND_URL", srv.URL)
	t.Setenv("DM_TOKEN", "")
	t.Setenv("DM_BOARD_ID", "")
	t.Setenv("DM_REQUEST_TIMEOUT", "")
	t.Setenv("DM_NEW_POST_URL", "")
	return b
}

// loginAs stores a token and identity in the CLI config.
func loginAs(t *testing.T, id session.Identity) {
	t.Helper()
	if err := saveConfig(CLIConfig{Token: "tok-" + id.UserID, Identity: id}); err != nil {
		t.Fatalf("save config: %v", err)
	}
}
