// Package api is the HTTP client for the moodboard backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/WillyV3/moodbi/internal/moodboard"
)

// DefaultBaseURL is used when no backend address is configured.
const DefaultBaseURL = "http://localhost:8080/api"

// Client talks to the moodboard REST backend. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New returns a client for the backend rooted at baseURL, e.g.
// "http://localhost:8080/api".
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend address %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend address %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid backend address %q: missing host", baseURL)
	}

	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *Client) BaseURL() string { return c.baseURL }

// CloseIdleConnections releases pooled keep-alive connections.
func (c *Client) CloseIdleConnections() { c.http.CloseIdleConnections() }

// ResolveURL turns a backend-relative file URL into an absolute one.
func (c *Client) ResolveURL(ref string) string {
	ref = strings.TrimSpace(ref)
	r, err := url.Parse(ref)
	if err != nil || r.IsAbs() {
		return ref
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return ref
	}
	if strings.HasPrefix(ref, "/") {
		return (&url.URL{Scheme: base.Scheme, Host: base.Host}).ResolveReference(r).String()
	}
	base.Path = strings.TrimRight(base.Path, "/") + "/"
	return base.ResolveReference(r).String()
}

func boardPath(id string, rest ...string) string {
	p := "/moodboards/" + url.PathEscape(id)
	for _, r := range rest {
		p += "/" + url.PathEscape(r)
	}
	return p
}

func (c *Client) ListBoards(ctx context.Context) ([]moodboard.Board, error) {
	var boards []moodboard.Board
	if err := c.doJSON(ctx, http.MethodGet, "/moodboards", nil, &boards); err != nil {
		return nil, err
	}
	return boards, nil
}

func (c *Client) GetBoard(ctx context.Context, id string) (moodboard.Board, error) {
	var b moodboard.Board
	if err := c.doJSON(ctx, http.MethodGet, boardPath(id), nil, &b); err != nil {
		return moodboard.Board{}, err
	}
	return b, nil
}

// CreateBoard validates p and creates a board. The returned board is the
// zero value when the backend answers without a body.
func (c *Client) CreateBoard(ctx context.Context, p moodboard.BoardPayload) (moodboard.Board, error) {
	if err := p.Validate(); err != nil {
		return moodboard.Board{}, err
	}
	var b moodboard.Board
	if err := c.doJSON(ctx, http.MethodPost, "/moodboards", p, &b); err != nil {
		return moodboard.Board{}, err
	}
	return b, nil
}

// ReplaceBoard replaces title, description, due date and the entire item
// collection of board id.
func (c *Client) ReplaceBoard(ctx context.Context, id string, p moodboard.BoardPayload) (moodboard.Board, error) {
	if err := p.Validate(); err != nil {
		return moodboard.Board{}, err
	}
	var b moodboard.Board
	if err := c.doJSON(ctx, http.MethodPut, boardPath(id), p, &b); err != nil {
		return moodboard.Board{}, err
	}
	return b, nil
}

func (c *Client) DeleteBoard(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, boardPath(id), nil, nil)
}

func (c *Client) ListComments(ctx context.Context, boardID string) ([]moodboard.Comment, error) {
	var out []moodboard.Comment
	if err := c.doJSON(ctx, http.MethodGet, boardPath(boardID, "comments"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddComment(ctx context.Context, boardID string, in moodboard.CommentInput) (moodboard.Comment, error) {
	in = moodboard.NewCommentInput(in.Content, in.Author)
	if err := in.Validate(); err != nil {
		return moodboard.Comment{}, err
	}
	var out moodboard.Comment
	if err := c.doJSON(ctx, http.MethodPost, boardPath(boardID, "comments"), in, &out); err != nil {
		return moodboard.Comment{}, err
	}
	return out, nil
}

func (c *Client) DeleteComment(ctx context.Context, boardID, commentID string) error {
	return c.doJSON(ctx, http.MethodDelete, boardPath(boardID, "comments", commentID), nil, nil)
}

func (c *Client) ListAttachments(ctx context.Context, boardID string) ([]moodboard.Attachment, error) {
	var out []moodboard.Attachment
	if err := c.doJSON(ctx, http.MethodGet, boardPath(boardID, "attachments"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteAttachment(ctx context.Context, boardID, attachmentID string) error {
	return c.doJSON(ctx, http.MethodDelete, boardPath(boardID, "attachments", attachmentID), nil, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, body, contentType, out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		c.log.Warn("backend unreachable",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("base_url", c.baseURL),
			zap.Error(err),
		)
		return &ConnectionError{BaseURL: c.baseURL, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s response: %w", method, path, err)
	}

	c.log.Debug("backend request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Status:     strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprint(resp.StatusCode))),
			Body:       string(data),
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}
