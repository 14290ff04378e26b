package postview

import (
	"context"

	"github.com/evcraddock/devmate/internal/apperror"
	"github.com/evcraddock/devmate/internal/client"
	"github.com/evcraddock/devmate/internal/comment"
)

// Composer drafts and submits comments for the controller's post and deletes
// the user's own comments.
type Composer struct {
	c            *Controller
	draft        string
	replyTarget  *string
	replyVisible map[string]bool
}

func newComposer(c *Controller) *Composer {
	return &Composer{c: c, replyVisible: make(map[string]bool)}
}

// Draft returns the comment text being written.
func (m *Composer) Draft() string {
	return m.draft
}

// SetDraftText replaces the comment text.
func (m *Composer) SetDraftText(text string) {
	m.draft = text
}

// ReplyTarget returns the parent comment id, or "" for a top-level comment.
func (m *Composer) ReplyTarget() string {
	if m.replyTarget == nil {
		return ""
	}
	return *m.replyTarget
}

// SetReplyTarget makes the next submission a reply to parentID.
// An empty id clears the target.
func (m *Composer) SetReplyTarget(parentID string) {
	if parentID == "" {
		m.replyTarget = nil
		return
	}
	m.replyTarget = &parentID
}

// ClearReplyTarget makes the next submission a top-level comment.
func (m *Composer) ClearReplyTarget() {
	m.replyTarget = nil
}

// ToggleReplyInput shows or hides the reply input under a comment.
func (m *Composer) ToggleReplyInput(commentID string) {
	if m.replyVisible[commentID] {
		delete(m.replyVisible, commentID)
		return
	}
	m.replyVisible[commentID] = true
}

// ReplyInputVisible reports whether the reply input under a comment is shown.
func (m *Composer) ReplyInputVisible(commentID string) bool {
	return m.replyVisible[commentID]
}

// CanDelete reports whether the signed-in user wrote the comment.
func (m *Composer) CanDelete(cm *comment.Comment) bool {
	uid := m.c.sess.UserID()
	return cm != nil && uid != "" && cm.UserID == uid
}

// Submit posts the draft. The server's comment is appended on success and the
// draft and reply target are cleared; on failure both are kept.
func (m *Composer) Submit(ctx context.Context) (*comment.Comment, error) {
	token, ok := m.c.sess.Token()
	if !ok {
		return nil, apperror.New(apperror.Unauthenticated, "User is not authenticated.")
	}

	req := client.CreateCommentRequest{
		Content:  m.draft,
		UserID:   m.c.sess.UserID(),
		PostID:   m.c.postID,
		ParentID: m.replyTarget,
	}
	if err := validate.Struct(req); err != nil {
		if req.Content == "" {
			return nil, apperror.Wrap(apperror.ValidationError, err, "Please enter a comment.")
		}
		return nil, apperror.Wrap(apperror.ValidationError, err, "Invalid post ID")
	}

	created, err := m.c.api.CreateComment(ctx, token, req)
	if err != nil {
		return nil, err
	}

	m.c.comments = append(m.c.comments, created)
	m.draft = ""
	m.replyTarget = nil
	return created, nil
}

// DeleteComment deletes one of the post's comments and removes it from the
// list once the backend confirms.
func (m *Composer) DeleteComment(ctx context.Context, commentID string) error {
	token, ok := m.c.sess.Token()
	if !ok {
		return apperror.New(apperror.Unauthenticated, "User is not authenticated.")
	}

	idx := -1
	for i, cm := range m.c.comments {
		if cm.ID == commentID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return apperror.New(apperror.NotFound, "Comment not found")
	}

	if err := m.c.api.DeleteComment(ctx, token, commentID); err != nil {
		return err
	}

	m.c.comments = append(m.c.comments[:idx:idx], m.c.comments[idx+1:]...)
	delete(m.replyVisible, commentID)
	if m.ReplyTarget() == commentID {
		m.replyTarget = nil
	}
	return nil
}
