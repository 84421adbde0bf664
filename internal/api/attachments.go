package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/WillyV3/moodbi/internal/moodboard"
)

// UploadFile uploads the file at path as a board attachment.
func (c *Client) UploadFile(ctx context.Context, boardID, path string) (moodboard.Attachment, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return moodboard.Attachment{}, &moodboard.ValidationError{Field: "file", Reason: "is required"}
	}
	f, err := os.Open(path)
	if err != nil {
		return moodboard.Attachment{}, &moodboard.ValidationError{Field: "file", Reason: err.Error()}
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return moodboard.Attachment{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if st.IsDir() {
		return moodboard.Attachment{}, &moodboard.ValidationError{Field: "file", Reason: path + " is a directory"}
	}
	return c.Upload(ctx, boardID, filepath.Base(path), f)
}

// Upload streams r as a multipart "file" field named name.
func (c *Client) Upload(ctx context.Context, boardID, name string, r io.Reader) (moodboard.Attachment, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", name)
		if err == nil {
			_, err = io.Copy(part, r)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	var out moodboard.Attachment
	err := c.do(ctx, http.MethodPost, boardPath(boardID, "attachments"), pr, mw.FormDataContentType(), &out)
	// Unblocks the writer if the request failed before draining the body.
	pr.Close()
	if err != nil {
		return moodboard.Attachment{}, err
	}
	return out, nil
}
