package web

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/evcraddock/devmate/internal/apperror"
	"github.com/evcraddock/devmate/internal/auth"
	"github.com/evcraddock/devmate/internal/comment"
	"github.com/evcraddock/devmate/internal/post"
	"github.com/evcraddock/devmate/internal/postview"
	"github.com/evcraddock/devmate/internal/session"
)

type commentView struct {
	*comment.Comment
	CanDelete    bool
	ReplyVisible bool
}

type postPageData struct {
	Identity     session.Identity
	PostID       string
	Post         *post.Post
	Comments     []commentView
	CanModify    bool
	Editing      bool
	DraftTitle   string
	DraftContent string
	CommentDraft string
	ReplyTarget  string
	Error        string
	CommentError string
}

type errorPageData struct {
	Identity session.Identity
	Status   int
	Message  string
}

// loadPost builds a controller for the request's post and loads it. On
// failure the error page has been written and nil is returned.
func (s *Server) loadPost(w http.ResponseWriter, r *http.Request) *postview.Controller {
	rec := auth.RecordFrom(r.Context())
	c := postview.New(s.api, rec.Session(s.sessions), s.cfg.PostListURL)

	if err := c.Load(r.Context(), chi.URLParam(r, "postID")); err != nil {
		s.renderError(w, r, err)
		return nil
	}
	if c.State() == postview.StateNotFound {
		s.renderError(w, r, apperror.New(apperror.NotFound, "Post not found"))
		return nil
	}
	return c
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperror.HTTPStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "path", r.URL.Path, "err", err)
		msg = "An unexpected error occurred."
	}

	var id session.Identity
	if rec := auth.RecordFrom(r.Context()); rec != nil {
		id = rec.Identity
	}
	s.render(w, status, "error.html", errorPageData{Identity: id, Status: status, Message: msg})
}

func (s *Server) postData(c *postview.Controller, errMsg string) postPageData {
	m := c.Composer()

	comments := make([]commentView, 0, len(c.Comments()))
	for _, cm := range c.Comments() {
		comments = append(comments, commentView{
			Comment:      cm,
			CanDelete:    m.CanDelete(cm),
			ReplyVisible: m.ReplyInputVisible(cm.ID),
		})
	}

	return postPageData{
		Identity:     c.Session().Identity(),
		PostID:       c.PostID(),
		Post:         c.Post(),
		Comments:     comments,
		CanModify:    c.CanModify(),
		Editing:      c.Editing(),
		DraftTitle:   c.DraftTitle(),
		DraftContent: c.DraftContent(),
		CommentDraft: m.Draft(),
		ReplyTarget:  m.ReplyTarget(),
		Error:        errMsg,
	}
}

// handlePost renders the post page. ?edit=1 opens the editor for the author
// and ?reply={commentID} opens the reply input under a comment.
func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	c := s.loadPost(w, r)
	if c == nil {
		return
	}

	q := r.URL.Query()
	if q.Get("edit") == "1" && c.CanModify() {
		c.EnterEditMode()
	}
	if reply := q.Get("reply"); reply != "" {
		c.Composer().ToggleReplyInput(reply)
		c.Composer().SetReplyTarget(reply)
	}

	s.render(w, http.StatusOK, "post.html", s.postData(c, ""))
}

// handlePostEdit saves the edited title and content.
func (s *Server) handlePostEdit(w http.ResponseWriter, r *http.Request) {
	c := s.loadPost(w, r)
	if c == nil {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	c.EnterEditMode()
	c.SetDraftTitle(r.FormValue("title"))
	c.SetDraftContent(r.FormValue("content"))

	if err := c.SaveEdit(r.Context()); err != nil {
		s.render(w, apperror.HTTPStatus(err), "post.html", s.postData(c, err.Error()))
		return
	}

	redirect(w, r, "/posts/"+c.PostID())
}

// handlePostDelete deletes the post and returns to the profile, which shows
// the notice with a link to the post list. The list itself is served by the
// main DevMate app, not here.
func (s *Server) handlePostDelete(w http.ResponseWriter, r *http.Request) {
	c := s.loadPost(w, r)
	if c == nil {
		return
	}

	if err := c.DeletePost(r.Context()); err != nil {
		s.render(w, apperror.HTTPStatus(err), "post.html", s.postData(c, err.Error()))
		return
	}

	slog.Info(c.Notice(), "post_id", c.PostID())
	s.setFlash(w, c.Notice())
	redirect(w, r, "/profile")
}

// handleCommentCreate submits a comment or reply. HTMX requests get the
// comments partial back.
func (s *Server) handleCommentCreate(w http.ResponseWriter, r *http.Request) {
	c := s.loadPost(w, r)
	if c == nil {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	m := c.Composer()
	m.SetDraftText(r.FormValue("content"))
	if parent := r.FormValue("parent_id"); parent != "" {
		m.SetReplyTarget(parent)
		m.ToggleReplyInput(parent)
	}

	if _, err := m.Submit(r.Context()); err != nil {
		s.respondComments(w, r, c, apperror.HTTPStatus(err), err.Error())
		return
	}
	// The reply input closes once the reply is posted.
	if parent := r.FormValue("parent_id"); parent != "" {
		m.ToggleReplyInput(parent)
	}

	if isHTMX(r) {
		s.renderPartial(w, "comments-partial", s.postData(c, ""))
		return
	}
	http.Redirect(w, r, "/posts/"+c.PostID()+"#comments", http.StatusSeeOther)
}

// handleCommentDelete deletes one of the user's comments.
func (s *Server) handleCommentDelete(w http.ResponseWriter, r *http.Request) {
	c := s.loadPost(w, r)
	if c == nil {
		return
	}

	if err := c.Composer().DeleteComment(r.Context(), chi.URLParam(r, "commentID")); err != nil {
		s.respondComments(w, r, c, apperror.HTTPStatus(err), err.Error())
		return
	}

	if isHTMX(r) {
		s.renderPartial(w, "comments-partial", s.postData(c, ""))
		return
	}
	http.Redirect(w, r, "/posts/"+c.PostID()+"#comments", http.StatusSeeOther)
}

// respondComments shows a comment mutation failure. HTMX swaps only 2xx
// responses, so the partial carries the error with 200.
func (s *Server) respondComments(w http.ResponseWriter, r *http.Request, c *postview.Controller, status int, msg string) {
	data := s.postData(c, "")
	data.CommentError = msg
	if isHTMX(r) {
		s.renderPartial(w, "comments-partial", data)
		return
	}
	s.render(w, status, "post.html", data)
}
