// Package post provides the discussion post model as served by the backend.
package post

import (
	"encoding/json"
	"time"
)

// Post is a discussion post. UserID is the author and never changes.
type Post struct {
	ID        string    `json:"_id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsAuthor reports whether userID wrote the post.
func (p *Post) IsAuthor(userID string) bool {
	return p != nil && userID != "" && p.UserID == userID
}

// UnmarshalJSON accepts numeric ids as well as strings.
func (p *Post) UnmarshalJSON(data []byte) error {
	type plain Post
	aux := struct {
		*plain
		ID     json.RawMessage `json:"_id"`
		UserID json.RawMessage `json:"userId"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	if p.ID, err = DecodeID(aux.ID); err != nil {
		return err
	}
	if p.UserID, err = DecodeID(aux.UserID); err != nil {
		return err
	}
	return nil
}
