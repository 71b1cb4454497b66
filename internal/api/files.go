package api

import (
	"context"
	"fmt"
	nethttp "net/http"
	"net/url"

	"github.com/filedash/filedash/internal/models"
)

// ListFiles returns the direct children of parentID (root when nil) owned by userID.
func (c *Client) ListFiles(ctx context.Context, userID string, parentID *string) ([]models.FileEntry, error) {
	q := url.Values{}
	q.Set("userId", userID)
	if parentID != nil {
		q.Set("parentId", *parentID)
	}

	var files []models.FileEntry
	if err := c.doJSON(ctx, "list files", nethttp.MethodGet, "/files?"+q.Encode(), nil, &files); err != nil {
		return nil, err
	}
	if files == nil {
		files = []models.FileEntry{}
	}
	return files, nil
}

// ToggleStar flips the starred flag server-side.
func (c *Client) ToggleStar(ctx context.Context, id string) (models.StarResult, error) {
	var res models.StarResult
	err := c.doJSON(ctx, "toggle star", nethttp.MethodPatch, "/files/"+url.PathEscape(id)+"/star", nil, &res)
	return res, err
}

// ToggleTrash moves an entry to or out of the trash.
func (c *Client) ToggleTrash(ctx context.Context, id string) (models.TrashResult, error) {
	var res models.TrashResult
	err := c.doJSON(ctx, "toggle trash", nethttp.MethodPatch, "/files/"+url.PathEscape(id)+"/trash", nil, &res)
	return res, err
}

// DeleteFile permanently deletes an entry. A {success:false} answer is an error.
func (c *Client) DeleteFile(ctx context.Context, id string) (models.DeleteResult, error) {
	var res models.DeleteResult
	if err := c.doJSON(ctx, "delete file", nethttp.MethodDelete, "/files/"+url.PathEscape(id)+"/delete", nil, &res); err != nil {
		return res, err
	}
	if !res.Success {
		return res, &FetchError{Op: "delete file", StatusCode: nethttp.StatusOK, Err: rejected(res.Message)}
	}
	return res, nil
}

// EmptyTrash permanently deletes every trashed entry of the token's user.
func (c *Client) EmptyTrash(ctx context.Context) (models.EmptyTrashResult, error) {
	var res models.EmptyTrashResult
	if err := c.doJSON(ctx, "empty trash", nethttp.MethodDelete, "/files/empty-trash", nil, &res); err != nil {
		return res, err
	}
	if !res.Success {
		return res, &FetchError{Op: "empty trash", StatusCode: nethttp.StatusOK, Err: rejected(res.Message)}
	}
	return res, nil
}

// CreateFolder creates a folder under parentID (root when nil).
func (c *Client) CreateFolder(ctx context.Context, name, userID string, parentID *string) (*models.FileEntry, error) {
	body := models.CreateFolderRequest{Name: name, UserID: userID, ParentID: parentID}
	var created models.FileEntry
	if err := c.doJSON(ctx, "create folder", nethttp.MethodPost, "/folders/create", body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func rejected(msg string) error {
	if msg == "" {
		return ErrOperationRejected
	}
	return fmt.Errorf("%w: %s", ErrOperationRejected, msg)
}
