// Package services holds frontend-agnostic controllers shared by the CLI and
// the TUI. UploadService stages and submits uploads and creates folders.
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"sync"

	"github.com/filedash/filedash/internal/api"
	"github.com/filedash/filedash/internal/auth"
	"github.com/filedash/filedash/internal/constants"
	"github.com/filedash/filedash/internal/events"
	"github.com/filedash/filedash/internal/logging"
	"github.com/filedash/filedash/internal/models"
	"github.com/filedash/filedash/internal/progress"
	"github.com/filedash/filedash/internal/validation"
)

var (
	ErrNothingStaged    = errors.New("no file selected for upload")
	ErrUploadInProgress = errors.New("an upload is already in progress")
	ErrNoSession        = errors.New("no signed-in user")
)

// Uploader is the subset of the API client used for uploads.
type Uploader interface {
	UploadFile(ctx context.Context, up api.UploadRequest, onProgress api.ProgressFunc) (*models.FileEntry, error)
	CreateFolder(ctx context.Context, name, userID string, parentID *string) (*models.FileEntry, error)
}

// PendingFile is a file chosen for upload but not yet sent.
type PendingFile struct {
	Name        string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// UploadServiceOptions wires an UploadService.
type UploadServiceOptions struct {
	Client   Uploader
	EventBus *events.EventBus
	Logger   *logging.Logger
	Session  auth.Session
	// Progress returns the reporter for one upload. Defaults to no-op.
	Progress func(name string) progress.Reporter
	// OnComplete runs after a successful upload or folder creation,
	// typically Listing.BumpRefresh.
	OnComplete func(ctx context.Context) error
}

// UploadService holds at most one pending file.
type UploadService struct {
	client      Uploader
	eventBus    *events.EventBus
	logger      *logging.Logger
	newReporter func(name string) progress.Reporter
	onComplete  func(ctx context.Context) error

	mu        sync.Mutex
	session   auth.Session
	pending   *PendingFile
	uploading bool
	percent   int
}

// NewUploadService creates a new UploadService.
func NewUploadService(opts UploadServiceOptions) *UploadService {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	newReporter := opts.Progress
	if newReporter == nil {
		newReporter = func(string) progress.Reporter { return progress.NewNoOpProgress() }
	}
	return &UploadService{
		client:      opts.Client,
		eventBus:    opts.EventBus,
		logger:      logger.Component("upload-service"),
		newReporter: newReporter,
		onComplete:  opts.OnComplete,
		session:     opts.Session,
	}
}

// SetSession updates the identity used for uploads.
func (s *UploadService) SetSession(session auth.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
}

// Stage selects f for upload after checking its size. A rejected file leaves
// the previous selection in place.
func (s *UploadService) Stage(f PendingFile) error {
	if err := validation.ValidateUploadSize(f.Size); err != nil {
		return err
	}
	if f.Open == nil {
		return &validation.ValidationError{Field: "file", Message: "file has no content"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = &f
	s.percent = 0
	return nil
}

// StagePath stages a local file, the picker and drop entry point.
func (s *UploadService) StagePath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return &validation.ValidationError{Field: "file", Message: fmt.Sprintf("%s is a directory", path)}
	}
	return s.Stage(PendingFile{
		Name:        filepath.Base(path),
		Size:        info.Size(),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		Open:        func() (io.ReadCloser, error) { return os.Open(path) },
	})
}

// Pending returns the staged file, if any.
func (s *UploadService) Pending() (PendingFile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return PendingFile{}, false
	}
	return *s.pending, true
}

// Clear drops the staged file.
func (s *UploadService) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	s.percent = 0
}

// Uploading reports whether Submit is running.
func (s *UploadService) Uploading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploading
}

// Percent is the progress of the running or last upload, 0-100.
func (s *UploadService) Percent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.percent
}

// Submit uploads the staged file into parentID (nil for root). On success
// the pending slot is cleared and OnComplete runs; on failure the file stays
// staged so the user can retry.
func (s *UploadService) Submit(ctx context.Context, parentID *string) (*models.FileEntry, error) {
	s.mu.Lock()
	pending := s.pending
	userID := s.session.UserID
	switch {
	case pending == nil:
		s.mu.Unlock()
		return nil, ErrNothingStaged
	case userID == "":
		s.mu.Unlock()
		return nil, ErrNoSession
	case s.uploading:
		s.mu.Unlock()
		return nil, ErrUploadInProgress
	}
	s.uploading = true
	s.percent = 0
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.uploading = false
		s.mu.Unlock()
	}()

	created, err := s.send(ctx, *pending, userID, parentID)
	if err != nil {
		s.logger.Error().Err(err).Str("name", pending.Name).Msg("upload failed")
		s.eventBus.PublishNotice(events.NoticeError, "Upload Failed", "Please try again.")
		return nil, err
	}

	s.mu.Lock()
	if s.pending == pending {
		s.pending = nil
	}
	s.percent = 100
	s.mu.Unlock()

	s.logger.Info().Str("name", pending.Name).Str("id", created.ID).Msg("upload complete")
	s.complete(ctx)
	s.eventBus.PublishNotice(events.NoticeSuccess, "Upload Successful", fmt.Sprintf("%s uploaded successfully.", pending.Name))
	return created, nil
}

func (s *UploadService) send(ctx context.Context, f PendingFile, userID string, parentID *string) (*models.FileEntry, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()

	// The file may have changed since it was staged.
	data, err := io.ReadAll(io.LimitReader(rc, constants.MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	if err := validation.ValidateUploadSize(int64(len(data))); err != nil {
		return nil, err
	}

	reporter := s.newReporter(f.Name)
	started := false
	lastPublished := -1
	onProgress := func(sent, total int64) {
		if !started {
			reporter.Start(total, fmt.Sprintf("Uploading %s", f.Name))
			started = true
		}
		reporter.Update(sent)

		pct := progress.Percent(sent, total)
		s.mu.Lock()
		s.percent = pct
		s.mu.Unlock()
		if pct >= 100 || pct-lastPublished >= constants.UploadProgressStep {
			lastPublished = pct
			s.eventBus.PublishProgress(f.Name, "upload", sent, total)
		}
	}

	created, err := s.client.UploadFile(ctx, api.UploadRequest{
		Name:        f.Name,
		ContentType: f.ContentType,
		Content:     bytes.NewReader(data),
		UserID:      userID,
		ParentID:    parentID,
	}, onProgress)
	if err != nil {
		reporter.Error(err)
		return nil, err
	}
	reporter.Finish()
	return created, nil
}

// CreateFolder creates a folder under parentID (nil for root). The name is
// trimmed; a blank name is rejected before any request is made.
func (s *UploadService) CreateFolder(ctx context.Context, name string, parentID *string) (*models.FileEntry, error) {
	trimmed, err := validation.ValidateFolderName(name)
	if err != nil {
		s.eventBus.PublishNotice(events.NoticeError, "Invalid Folder Name", "Please enter a folder name.")
		return nil, err
	}

	s.mu.Lock()
	userID := s.session.UserID
	s.mu.Unlock()
	if userID == "" {
		return nil, ErrNoSession
	}

	created, err := s.client.CreateFolder(ctx, trimmed, userID, parentID)
	if err != nil {
		s.logger.Error().Err(err).Str("name", trimmed).Msg("folder creation failed")
		s.eventBus.PublishNotice(events.NoticeError, "Folder Creation Failed", "Could not create folder. Please try again.")
		return nil, err
	}

	s.complete(ctx)
	s.eventBus.PublishNotice(events.NoticeSuccess, "Folder Created", fmt.Sprintf("%q was created.", trimmed))
	return created, nil
}

func (s *UploadService) complete(ctx context.Context) {
	if s.onComplete == nil {
		return
	}
	if err := s.onComplete(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("refresh after change failed")
	}
}
