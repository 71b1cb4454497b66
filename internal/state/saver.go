package state

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/filedash/filedash/internal/cloud"
	"github.com/filedash/filedash/internal/constants"
	"github.com/filedash/filedash/internal/diskspace"
	"github.com/filedash/filedash/internal/models"
	"github.com/filedash/filedash/internal/validation"
)

// Saver persists downloaded content, the terminal analog of a browser save.
type Saver interface {
	Save(ctx context.Context, entry models.FileEntry, obj *cloud.Object) (string, error)
}

// DirSaver writes downloads into Dir. Existing files are not overwritten;
// a numeric suffix is added instead.
type DirSaver struct {
	Dir string
	// Wrap, when set, wraps the content stream (progress bars).
	Wrap func(r io.Reader, entry models.FileEntry, size int64) io.Reader
}

func (s *DirSaver) Save(ctx context.Context, entry models.FileEntry, obj *cloud.Object) (string, error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}
	if err := diskspace.CheckAvailableSpace(s.Dir, obj.Size, constants.DiskSpaceSafetyMargin); err != nil {
		return "", err
	}

	name := validation.SanitizeFilename(entry.Name, entry.ID)
	target, f, err := createUnique(s.Dir, name)
	if err != nil {
		return "", err
	}

	var r io.Reader = obj.Body
	if s.Wrap != nil {
		r = s.Wrap(r, entry, obj.Size)
	}

	if _, err := io.Copy(f, &ctxReader{ctx: ctx, r: r}); err != nil {
		f.Close()
		os.Remove(target)
		return "", fmt.Errorf("failed to write %s: %w", target, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("failed to close %s: %w", target, err)
	}
	return target, nil
}

// createUnique opens name in dir exclusively, trying "name (1).ext" and so on
// when the file already exists.
func createUnique(dir, name string) (string, *os.File, error) {
	ext := filepath.Ext(name)
	stem := name[:len(name)-len(ext)]

	for i := 0; i < 1000; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		target := filepath.Join(dir, candidate)
		if err := validation.ValidatePathInDirectory(target, dir); err != nil {
			return "", nil, err
		}
		f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return target, f, nil
		}
		if !os.IsExist(err) {
			return "", nil, fmt.Errorf("failed to create %s: %w", target, err)
		}
	}
	return "", nil, fmt.Errorf("too many existing copies of %s in %s", name, dir)
}

// ctxReader stops a copy once ctx is cancelled.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
