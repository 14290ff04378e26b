// Package postview implements the post detail screen: loading a post with its
// comments, editing and deleting the post, and composing comments.
//
// A Controller belongs to a single screen interaction and is not safe for
// concurrent use.
package postview

import (
	"context"
	"log/slog"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/evcraddock/devmate/internal/apperror"
	"github.com/evcraddock/devmate/internal/client"
	"github.com/evcraddock/devmate/internal/comment"
	"github.com/evcraddock/devmate/internal/post"
	"github.com/evcraddock/devmate/internal/session"
)

// DeletedNotice is recorded after a post has been deleted.
const DeletedNotice = "Post deleted."

// API is the subset of the backend the post screen talks to.
type API interface {
	GetPost(ctx context.Context, postID string) (*post.Post, error)
	ListComments(ctx context.Context, postID string) ([]*comment.Comment, error)
	CreateComment(ctx context.Context, token string, req client.CreateCommentRequest) (*comment.Comment, error)
	UpdatePost(ctx context.Context, token, postID string, req client.UpdatePostRequest) (*post.Post, error)
	DeletePost(ctx context.Context, token, postID string) error
	DeleteComment(ctx context.Context, token, commentID string) error
}

// State is what the screen should render.
type State string

// View states, in render precedence.
const (
	StateLoading  State = "loading"
	StateError    State = "error"
	StateNotFound State = "not_found"
	StateReady    State = "ready"
)

var validate = validator.New()

// Controller holds the post, its comments and the edit drafts.
type Controller struct {
	api         API
	sess        *session.Session
	postListURL string

	postID   string
	post     *post.Post
	comments []*comment.Comment
	loading  bool
	err      error

	editing      bool
	draftTitle   string
	draftContent string

	notice   string
	redirect string

	composer *Composer
}

// New creates a controller. postListURL is where the screen navigates after
// the post is deleted.
func New(api API, sess *session.Session, postListURL string) *Controller {
	if sess == nil {
		sess = session.Anonymous()
	}
	c := &Controller{
		api:         api,
		sess:        sess,
		postListURL: postListURL,
		loading:     true,
	}
	c.composer = newComposer(c)
	return c
}

// Load fetches the post and its comments concurrently.
func (c *Controller) Load(ctx context.Context, postID string) error {
	c.postID = postID
	c.post = nil
	c.comments = nil
	c.editing = false

	if postID == "" {
		c.loading = false
		c.err = apperror.New(apperror.InvalidIdentifier, "Invalid post ID")
		return c.err
	}

	c.loading = true
	c.err = nil

	var (
		wg          sync.WaitGroup
		p           *post.Post
		comments    []*comment.Comment
		postErr     error
		commentsErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		p, postErr = c.api.GetPost(ctx, postID)
	}()
	go func() {
		defer wg.Done()
		comments, commentsErr = c.api.ListComments(ctx, postID)
	}()
	wg.Wait()

	c.loading = false

	if postErr != nil {
		slog.Warn("loading post", "post_id", postID, "err", postErr)
	}
	if commentsErr != nil {
		slog.Warn("loading comments", "post_id", postID, "err", commentsErr)
	}

	switch {
	case postErr != nil:
		c.err = postErr
	case commentsErr != nil:
		c.err = commentsErr
	}
	if c.err != nil {
		return c.err
	}

	c.post = p
	c.comments = comments
	c.seedDrafts()
	return nil
}

// State returns the current view state.
func (c *Controller) State() State {
	switch {
	case c.loading:
		return StateLoading
	case c.err != nil:
		return StateError
	case c.post == nil:
		return StateNotFound
	default:
		return StateReady
	}
}

// Err returns the load error, if any.
func (c *Controller) Err() error {
	return c.err
}

// Session returns the session the controller acts for.
func (c *Controller) Session() *session.Session {
	return c.sess
}

// PostID returns the id passed to the last Load.
func (c *Controller) PostID() string {
	return c.postID
}

// Post returns the authoritative post, or nil before a successful load.
func (c *Controller) Post() *post.Post {
	return c.post
}

// Comments returns the comments in display order.
func (c *Controller) Comments() []*comment.Comment {
	return c.comments
}

// Composer returns the comment composer for this post.
func (c *Controller) Composer() *Composer {
	return c.composer
}

// Editing reports whether the post is in edit mode.
func (c *Controller) Editing() bool {
	return c.editing
}

// DraftTitle returns the edited title.
func (c *Controller) DraftTitle() string {
	return c.draftTitle
}

// DraftContent returns the edited content.
func (c *Controller) DraftContent() string {
	return c.draftContent
}

// Notice returns the message recorded by the last successful delete.
func (c *Controller) Notice() string {
	return c.notice
}

// Redirect returns where the screen should navigate, or "".
func (c *Controller) Redirect() string {
	return c.redirect
}

// CanModify reports whether the signed-in user wrote the post.
// It only gates the controls; the backend enforces ownership.
func (c *Controller) CanModify() bool {
	return c.post.IsAuthor(c.sess.UserID())
}

// EnterEditMode switches to edit mode.
func (c *Controller) EnterEditMode() {
	c.editing = true
}

// CancelEdit leaves edit mode and restores the drafts from the post.
func (c *Controller) CancelEdit() {
	c.editing = false
	c.seedDrafts()
}

// SetDraftTitle updates the edited title.
func (c *Controller) SetDraftTitle(title string) {
	c.draftTitle = title
}

// SetDraftContent updates the edited content.
func (c *Controller) SetDraftContent(content string) {
	c.draftContent = content
}

// SaveEdit sends the drafts to the backend. On success the returned post
// replaces the current one and edit mode ends; on failure edit mode stays on
// with the drafts intact.
func (c *Controller) SaveEdit(ctx context.Context) error {
	token, ok := c.sess.Token()
	if !ok {
		return apperror.New(apperror.Unauthenticated, "User is not authenticated.")
	}

	req := client.UpdatePostRequest{Title: c.draftTitle, Content: c.draftContent}
	if err := validate.Struct(req); err != nil {
		return apperror.Wrap(apperror.ValidationError, err, "Both title and content are required.")
	}

	updated, err := c.api.UpdatePost(ctx, token, c.postID, req)
	if err != nil {
		return err
	}

	c.post = updated
	c.editing = false
	c.seedDrafts()
	return nil
}

// DeletePost deletes the post and records the notice and navigation target.
func (c *Controller) DeletePost(ctx context.Context) error {
	token, ok := c.sess.Token()
	if !ok {
		return apperror.New(apperror.Unauthenticated, "User is not authenticated.")
	}
	if c.postID == "" {
		return apperror.New(apperror.InvalidIdentifier, "Invalid post ID")
	}

	if err := c.api.DeletePost(ctx, token, c.postID); err != nil {
		return err
	}

	c.notice = DeletedNotice
	c.redirect = c.postListURL
	return nil
}

func (c *Controller) seedDrafts() {
	if c.post == nil {
		c.draftTitle, c.draftContent = "", ""
		return
	}
	c.draftTitle = c.post.Title
	c.draftContent = c.post.Content
}
