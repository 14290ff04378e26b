// Package comment provides the comment model as served by the backend.
package comment

import (
	"encoding/json"
	"time"

	"github.com/evcraddock/devmate/internal/post"
)

// Comment is a note left on a post. ParentID links a reply to the comment it
// answers; comments are still listed flat, in the order received.
type Comment struct {
	ID        string    `json:"_id"`
	UserID    string    `json:"userId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	ParentID  *string   `json:"parentId,omitempty"`
}

// IsReply reports whether the comment answers another comment.
func (c *Comment) IsReply() bool {
	return c.ParentID != nil && *c.ParentID != ""
}

// AuthorLabel is the display name used for the comment author.
func (c *Comment) AuthorLabel() string {
	return "User " + c.UserID
}

// UnmarshalJSON accepts numeric ids as well as strings.
func (c *Comment) UnmarshalJSON(data []byte) error {
	type plain Comment
	aux := struct {
		*plain
		ID     json.RawMessage `json:"_id"`
		UserID json.RawMessage `json:"userId"`
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	if c.ID, err = post.DecodeID(aux.ID); err != nil {
		return err
	}
	if c.UserID, err = post.DecodeID(aux.UserID); err != nil {
		return err
	}
	return nil
}
