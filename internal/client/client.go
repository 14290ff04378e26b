// Package client provides an HTTP client for the DevMate posts and comments API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/evcraddock/devmate/internal/apperror"
	"github.com/evcraddock/devmate/internal/comment"
	"github.com/evcraddock/devmate/internal/post"
)

const (
	// DefaultTimeout bounds every backend request.
	DefaultTimeout = 10 * time.Second

	// The post endpoint is paginated for the board view; a detail fetch asks
	// for the first page.
	postPage  = 1
	postLimit = 4

	maxErrorText = 512
)

// Client is an HTTP client for the DevMate backend.
type Client struct {
	baseURL    string
	boardID    string
	timeout    time.Duration
	httpClient *http.Client
}

// New creates a new API client for the given board.
// A zero timeout selects DefaultTimeout.
func New(baseURL, boardID string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		boardID:    boardID,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

// PostResponse is the body of GET and PUT /boards/{boardId}/posts/{postId}.
type PostResponse struct {
	Post *post.Post `json:"post"`
}

// CommentsResponse is the body of GET /comments/{postId}.
type CommentsResponse struct {
	Success  bool               `json:"success"`
	Comments []*comment.Comment `json:"comments"`
}

// CommentResponse is the body of POST /comments/.
type CommentResponse struct {
	Comment *comment.Comment `json:"comment"`
}

// UpdatePostRequest is the body of PUT /boards/{boardId}/posts/{postId}.
type UpdatePostRequest struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// CreateCommentRequest is the body of POST /comments/.
// ParentID is sent as null for a top-level comment.
type CreateCommentRequest struct {
	Content  string  `json:"content" validate:"required"`
	UserID   string  `json:"userId"`
	PostID   string  `json:"postId" validate:"required"`
	ParentID *string `json:"parentId"`
}

// GetPost fetches a single post.
func (c *Client) GetPost(ctx context.Context, postID string) (*post.Post, error) {
	path := fmt.Sprintf("%s?currentPage=%d&limit=%d", c.postPath(postID), postPage, postLimit)

	var resp PostResponse
	if err := c.get(ctx, "get_post", path, &resp, "Failed to load the post"); err != nil {
		return nil, err
	}
	if resp.Post == nil {
		return nil, apperror.New(apperror.NotFound, "Post not found")
	}
	return resp.Post, nil
}

// ListComments fetches the comments of a post in server order.
func (c *Client) ListComments(ctx context.Context, postID string) ([]*comment.Comment, error) {
	var resp CommentsResponse
	if err := c.get(ctx, "list_comments", "/comments/"+url.PathEscape(postID), &resp, "Failed to load comments"); err != nil {
		return nil, err
	}
	if !resp.Success || resp.Comments == nil {
		return nil, apperror.New(apperror.NotFound, "No comments found for this post")
	}
	return resp.Comments, nil
}

// CreateComment posts a new comment or reply.
func (c *Client) CreateComment(ctx context.Context, token string, req CreateCommentRequest) (*comment.Comment, error) {
	var resp CommentResponse
	if err := c.send(ctx, "create_comment", http.MethodPost, "/comments/", token, req, &resp, "Failed to post the comment."); err != nil {
		return nil, err
	}
	if resp.Comment == nil {
		return nil, apperror.New(apperror.ServerError, "Failed to post the comment.")
	}
	return resp.Comment, nil
}

// UpdatePost replaces a post's title and content.
func (c *Client) UpdatePost(ctx context.Context, token, postID string, req UpdatePostRequest) (*post.Post, error) {
	var resp PostResponse
	if err := c.send(ctx, "update_post", http.MethodPut, c.postPath(postID), token, req, &resp, "Failed to update the post."); err != nil {
		return nil, err
	}
	if resp.Post == nil {
		return nil, apperror.New(apperror.ServerError, "Failed to update the post.")
	}
	return resp.Post, nil
}

// DeletePost removes a post.
func (c *Client) DeletePost(ctx context.Context, token, postID string) error {
	return c.send(ctx, "delete_post", http.MethodDelete, c.postPath(postID), token, nil, nil, "Failed to delete the post.")
}

// DeleteComment removes a comment.
func (c *Client) DeleteComment(ctx context.Context, token, commentID string) error {
	return c.send(ctx, "delete_comment", http.MethodDelete, "/comments/"+url.PathEscape(commentID), token, nil, nil, "Failed to delete the comment.")
}

// Ping checks that the backend answers HTTP at all. Any status counts.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observeRequest(req.Method, "ping", "error", start)
		return apperror.Wrap(apperror.NetworkError, err, "Backend unavailable")
	}
	observeRequest(req.Method, "ping", strconv.Itoa(resp.StatusCode), start)
	if err := resp.Body.Close(); err != nil {
		slog.Warn("closing response body", "err", err)
	}
	return nil
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) postPath(postID string) string {
	return fmt.Sprintf("/boards/%s/posts/%s", url.PathEscape(c.boardID), url.PathEscape(postID))
}

// get performs an unauthenticated GET request and decodes the response.
func (c *Client) get(ctx context.Context, endpoint, path string, result interface{}, failMsg string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, endpoint, result, failMsg)
}

// send performs an authenticated request with an optional JSON body.
// A missing token fails before anything is sent.
func (c *Client) send(ctx context.Context, endpoint, method, path, token string, body, result interface{}, failMsg string) error {
	if token == "" {
		return apperror.New(apperror.Unauthenticated, "User is not authenticated.")
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	return c.do(req, endpoint, result, failMsg)
}

// do executes an HTTP request under the client deadline and classifies failures.
func (c *Client) do(req *http.Request, endpoint string, result interface{}, failMsg string) error {
	ctx, cancel := context.WithTimeout(req.Context(), c.timeout)
	defer cancel()
	req = req.WithContext(ctx)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observeRequest(req.Method, endpoint, "error", start)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return apperror.Wrap(apperror.NetworkError, err, "Request timed out")
		}
		return apperror.Wrap(apperror.NetworkError, err, "Backend unavailable")
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Warn("closing response body", "err", cerr)
		}
	}()
	observeRequest(req.Method, endpoint, strconv.Itoa(resp.StatusCode), start)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperror.Wrap(apperror.NetworkError, err, "Reading response failed")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, respBody, failMsg)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return apperror.Wrap(apperror.ServerError, err, "Malformed response from server")
		}
	}

	return nil
}

// statusError converts a non-2xx response into a classified error carrying
// the server's own text when it sent any.
func statusError(status int, body []byte, failMsg string) error {
	msg := errorText(body)
	if msg == "" {
		msg = failMsg
	}

	kind := apperror.ServerError
	switch status {
	case http.StatusNotFound:
		kind = apperror.NotFound
	case http.StatusUnauthorized:
		kind = apperror.Unauthenticated
	}

	return &apperror.Error{Kind: kind, Message: msg, StatusCode: status}
}

// errorText extracts a message from a JSON error body, falling back to the
// raw text.
func errorText(body []byte) string {
	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &errResp) == nil {
		if errResp.Error != "" {
			return errResp.Error
		}
		if errResp.Message != "" {
			return errResp.Message
		}
	}

	text := strings.TrimSpace(string(body))
	if strings.HasPrefix(text, "{") {
		return ""
	}
	return truncate(text, maxErrorText)
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
