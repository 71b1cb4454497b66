package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/textproto"

	"github.com/filedash/filedash/internal/constants"
	"github.com/filedash/filedash/internal/models"
	"github.com/filedash/filedash/internal/validation"
)

// UploadRequest describes one file for POST /files/upload.
type UploadRequest struct {
	Name        string
	ContentType string
	Content     io.Reader
	UserID      string
	ParentID    *string
}

// ProgressFunc receives bytes sent so far and the total body size.
type ProgressFunc func(sent, total int64)

// UploadFile sends the file as multipart form data. Uploads are capped at
// MaxUploadSize, so the body is assembled in memory and its progress is
// measured as the transport reads it. Content past the cap is rejected with a
// ValidationError before the request is made.
func (c *Client) UploadFile(ctx context.Context, up UploadRequest, onProgress ProgressFunc) (*models.FileEntry, error) {
	const op = "upload file"

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, up.Name))
	contentType := up.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, &FetchError{Op: op, Err: err}
	}
	n, err := io.Copy(part, io.LimitReader(up.Content, constants.MaxUploadSize+1))
	if err != nil {
		return nil, &FetchError{Op: op, Err: fmt.Errorf("failed to read file: %w", err)}
	}
	if err := validation.ValidateUploadSize(n); err != nil {
		return nil, err
	}
	if err := mw.WriteField("userId", up.UserID); err != nil {
		return nil, &FetchError{Op: op, Err: err}
	}
	if up.ParentID != nil {
		if err := mw.WriteField("parentId", *up.ParentID); err != nil {
			return nil, &FetchError{Op: op, Err: err}
		}
	}
	if err := mw.Close(); err != nil {
		return nil, &FetchError{Op: op, Err: err}
	}

	total := int64(buf.Len())
	body := &countingReader{r: bytes.NewReader(buf.Bytes()), total: total, onProgress: onProgress}

	req, err := c.newRequest(ctx, nethttp.MethodPost, "/files/upload", body, mw.FormDataContentType())
	if err != nil {
		return nil, &FetchError{Op: op, Err: err}
	}
	req.ContentLength = total

	var created models.FileEntry
	if err := c.send(op, req, &created); err != nil {
		return nil, err
	}
	if onProgress != nil {
		onProgress(total, total)
	}
	return &created, nil
}

type countingReader struct {
	r          io.Reader
	sent       int64
	total      int64
	onProgress ProgressFunc
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.sent += int64(n)
		if cr.onProgress != nil {
			cr.onProgress(cr.sent, cr.total)
		}
	}
	return n, err
}
