package state

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/filedash/filedash/internal/auth"
	"github.com/filedash/filedash/internal/cloud"
	"github.com/filedash/filedash/internal/events"
	"github.com/filedash/filedash/internal/logging"
	"github.com/filedash/filedash/internal/models"
	"github.com/filedash/filedash/internal/navigation"
	"github.com/filedash/filedash/internal/transform"
	"github.com/filedash/filedash/internal/validation"
)

var (
	// ErrStaleResponse is returned by Load when the folder, user or a newer
	// load superseded the request before its response arrived.
	ErrStaleResponse = errors.New("stale response discarded")
	ErrNotConfirmed  = errors.New("action not confirmed")
	ErrNotFound      = errors.New("entry not found in current folder")
	ErrNoSession     = errors.New("no signed-in user")
)

// Gateway is the subset of the API client the listing needs.
type Gateway interface {
	ListFiles(ctx context.Context, userID string, parentID *string) ([]models.FileEntry, error)
	ToggleStar(ctx context.Context, id string) (models.StarResult, error)
	ToggleTrash(ctx context.Context, id string) (models.TrashResult, error)
	DeleteFile(ctx context.Context, id string) (models.DeleteResult, error)
	EmptyTrash(ctx context.Context) (models.EmptyTrashResult, error)
}

// ListingOptions wires a Listing.
type ListingOptions struct {
	Gateway   Gateway
	Source    cloud.Source       // download content; required for Download
	Transform *transform.Builder // image delivery URLs; optional
	EventBus  *events.EventBus   // optional
	Logger    *logging.Logger    // optional
	Session   auth.Session
}

// Listing owns the entries of the current folder for the current user.
// Network calls are made without holding the lock; results are merged back
// by id, so the last response to land wins for a given entry.
type Listing struct {
	gw       Gateway
	source   cloud.Source
	urls     *transform.Builder
	eventBus *events.EventBus
	logger   *logging.Logger

	mu      sync.Mutex
	nav     *navigation.Stack
	session auth.Session
	entries []models.FileEntry
	tab     Tab
	mode    Mode
	loading bool
	gen     uint64 // bumped by every Load
	refresh int
}

// loadTag identifies the state a load was issued for.
type loadTag struct {
	gen    uint64
	userID string
	folder string
	atRoot bool
}

// NewListing creates a listing positioned at root on the "all" tab.
func NewListing(opts ListingOptions) *Listing {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &Listing{
		gw:       opts.Gateway,
		source:   opts.Source,
		urls:     opts.Transform,
		eventBus: opts.EventBus,
		logger:   logger.Component("listing"),
		nav:      navigation.NewStack(),
		session:  opts.Session,
		entries:  []models.FileEntry{},
		tab:      TabAll,
		mode:     ModeAll,
	}
}

func (l *Listing) tagLocked() loadTag {
	folder, ok := l.nav.Current()
	return loadTag{gen: l.gen, userID: l.session.UserID, folder: folder, atRoot: !ok}
}

// Load replaces the entry set with the children of the current folder.
// On failure the previous set is kept and an "Error Loading Files" notice is
// published. A response that no longer matches the current folder, user or
// latest request is dropped with ErrStaleResponse.
func (l *Listing) Load(ctx context.Context) error {
	l.mu.Lock()
	if l.session.UserID == "" {
		l.mu.Unlock()
		return ErrNoSession
	}
	l.gen++
	tag := l.tagLocked()
	parent := l.nav.CurrentPtr()
	l.loading = true
	l.mu.Unlock()

	l.eventBus.Publish(NewFileListLoadingEvent(tag.folder, true))

	files, err := l.gw.ListFiles(ctx, tag.userID, parent)

	l.mu.Lock()
	if l.tagLocked() != tag {
		l.mu.Unlock()
		l.logger.Debug().Str("folder", tag.folder).Uint64("gen", tag.gen).Msg("discarding stale listing response")
		return ErrStaleResponse
	}
	l.loading = false
	if err != nil {
		l.mu.Unlock()
		l.eventBus.Publish(NewFileListLoadingEvent(tag.folder, false))
		l.logger.Error().Err(err).Str("folder", tag.folder).Msg("failed to load files")
		l.eventBus.PublishNotice(events.NoticeError, "Error Loading Files", err.Error())
		return fmt.Errorf("failed to load files: %w", err)
	}
	l.entries = append([]models.FileEntry(nil), files...)
	snap := l.snapshotLocked()
	l.mu.Unlock()

	l.eventBus.Publish(NewFileListLoadingEvent(tag.folder, false))
	l.eventBus.Publish(NewFileListChangedEvent(snap))
	l.logger.Debug().Str("folder", tag.folder).Int("entries", len(files)).Msg("listing loaded")
	return nil
}

// NavigateInto opens a child folder and loads it.
func (l *Listing) NavigateInto(ctx context.Context, id, name string) error {
	l.mu.Lock()
	l.nav.NavigateInto(id, name)
	snap := l.snapshotLocked()
	l.mu.Unlock()

	l.eventBus.Publish(NewFileListChangedEvent(snap))
	return l.Load(ctx)
}

// NavigateUp goes to the parent folder. At root it does nothing.
func (l *Listing) NavigateUp(ctx context.Context) error {
	l.mu.Lock()
	if !l.nav.CanGoUp() {
		l.mu.Unlock()
		return nil
	}
	l.nav.NavigateUp()
	snap := l.snapshotLocked()
	l.mu.Unlock()

	l.eventBus.Publish(NewFileListChangedEvent(snap))
	return l.Load(ctx)
}

// NavigateToIndex jumps to a breadcrumb entry; -1 is root. Loads only when
// the folder actually changed.
func (l *Listing) NavigateToIndex(ctx context.Context, index int) error {
	l.mu.Lock()
	changed := l.nav.NavigateToIndex(index)
	snap := l.snapshotLocked()
	l.mu.Unlock()

	if !changed {
		return nil
	}
	l.eventBus.Publish(NewFileListChangedEvent(snap))
	return l.Load(ctx)
}

// BumpRefresh increments the refresh counter and reloads. Called after
// uploads and folder creation.
func (l *Listing) BumpRefresh(ctx context.Context) error {
	l.mu.Lock()
	l.refresh++
	l.mu.Unlock()
	return l.Load(ctx)
}

// SetSession switches identity. A different user starts over at root and
// reloads; the same user with a new token only swaps the session.
func (l *Listing) SetSession(ctx context.Context, s auth.Session) error {
	l.mu.Lock()
	changed := s.UserID != l.session.UserID
	l.session = s
	if changed {
		l.nav.Reset()
		l.entries = []models.FileEntry{}
	}
	l.mu.Unlock()

	if !changed {
		return nil
	}
	l.eventBus.Publish(&events.ConfigChangedEvent{BaseEvent: events.NewBase(events.EventConfigChanged), Source: "session", UserID: s.UserID})
	return l.Load(ctx)
}

// SetTab switches the visible tab. Never refetches.
func (l *Listing) SetTab(tab Tab) {
	l.mu.Lock()
	l.tab = tab
	snap := l.snapshotLocked()
	l.mu.Unlock()
	l.eventBus.Publish(NewFileListChangedEvent(snap))
}

// SetMode switches the folders/images filter. Never refetches.
func (l *Listing) SetMode(mode Mode) {
	l.mu.Lock()
	l.mode = mode
	snap := l.snapshotLocked()
	l.mu.Unlock()
	l.eventBus.Publish(NewFileListChangedEvent(snap))
}

// ToggleStar flips the starred flag locally, then confirms with the server.
// The server's value wins when it reports one. On failure the flag is put
// back unless another response already changed it.
func (l *Listing) ToggleStar(ctx context.Context, id string) error {
	prev, name, err := l.patchFlag(id, func(f *models.FileEntry) *bool { return &f.IsStarred })
	if err != nil {
		return err
	}
	optimistic := !prev

	res, err := l.gw.ToggleStar(ctx, id)
	if err != nil {
		l.revertFlag(id, optimistic, prev, func(f *models.FileEntry) *bool { return &f.IsStarred })
		l.actionFailed("toggle star", id, err)
		return err
	}

	confirmed := optimistic
	if res.IsStarred != nil {
		confirmed = *res.IsStarred
	}
	l.applyFlag(id, confirmed, func(f *models.FileEntry) *bool { return &f.IsStarred })

	if confirmed {
		l.eventBus.PublishNotice(events.NoticeSuccess, "Added to Starred", name)
	} else {
		l.eventBus.PublishNotice(events.NoticeSuccess, "Removed from Starred", name)
	}
	return nil
}

// ToggleTrash moves an entry to or out of the trash. The isTrash value in the
// response is applied rather than a blind flip.
func (l *Listing) ToggleTrash(ctx context.Context, id string) error {
	prev, name, err := l.patchFlag(id, func(f *models.FileEntry) *bool { return &f.IsTrash })
	if err != nil {
		return err
	}
	optimistic := !prev

	res, err := l.gw.ToggleTrash(ctx, id)
	if err != nil {
		l.revertFlag(id, optimistic, prev, func(f *models.FileEntry) *bool { return &f.IsTrash })
		l.actionFailed("toggle trash", id, err)
		return err
	}
	l.applyFlag(id, res.IsTrash, func(f *models.FileEntry) *bool { return &f.IsTrash })

	if res.IsTrash {
		l.eventBus.PublishNotice(events.NoticeSuccess, "Moved to Trash", name)
	} else {
		l.eventBus.PublishNotice(events.NoticeSuccess, "Restored from Trash", name)
	}
	return nil
}

// DeleteForever permanently deletes an entry after confirm approves it.
// The entry leaves the set only once the server reports success.
func (l *Listing) DeleteForever(ctx context.Context, id string, confirm Confirmer) error {
	entry, ok := l.Entry(id)
	if !ok {
		return ErrNotFound
	}
	if confirm == nil || !confirm(DeletePrompt(entry)) {
		return ErrNotConfirmed
	}

	if _, err := l.gw.DeleteFile(ctx, id); err != nil {
		l.actionFailed("delete forever", id, err)
		return err
	}

	l.mu.Lock()
	l.removeLocked(func(f models.FileEntry) bool { return f.ID == id })
	snap := l.snapshotLocked()
	l.mu.Unlock()

	l.eventBus.Publish(NewFileListChangedEvent(snap))
	l.eventBus.PublishNotice(events.NoticeSuccess, "File Permanently Deleted", entry.Name)
	return nil
}

// EmptyTrash permanently deletes every trashed entry after confirm approves.
func (l *Listing) EmptyTrash(ctx context.Context, confirm Confirmer) error {
	count := l.Counts().Trash
	if confirm == nil || !confirm(EmptyTrashPrompt(count)) {
		return ErrNotConfirmed
	}

	if _, err := l.gw.EmptyTrash(ctx); err != nil {
		l.actionFailed("empty trash", "", err)
		return err
	}

	l.mu.Lock()
	l.removeLocked(func(f models.FileEntry) bool { return f.IsTrash })
	snap := l.snapshotLocked()
	l.mu.Unlock()

	l.eventBus.Publish(NewFileListChangedEvent(snap))
	l.eventBus.PublishNotice(events.NoticeSuccess, "Trash Emptied", fmt.Sprintf("%d items deleted", count))
	return nil
}

// DownloadURL resolves where an entry's bytes live: images go through the
// delivery service at original quality, everything else uses fileUrl.
func (l *Listing) DownloadURL(f models.FileEntry) (string, error) {
	if f.IsFolder {
		return "", &validation.ValidationError{Field: "id", Message: "folders cannot be downloaded"}
	}
	if f.IsImage() && f.Path != "" && l.urls.Configured() {
		return l.urls.OriginalURL(f.Path), nil
	}
	if f.FileURL == "" {
		return "", &validation.ValidationError{Field: "fileUrl", Message: fmt.Sprintf("%s has no download URL", f.Name)}
	}
	return f.FileURL, nil
}

// Download fetches an entry and hands it to saver. Failures publish a
// "Download Failed" notice and leave the listing untouched.
func (l *Listing) Download(ctx context.Context, id string, saver Saver) (string, error) {
	entry, ok := l.Entry(id)
	if !ok {
		return "", ErrNotFound
	}
	url, err := l.DownloadURL(entry)
	if err != nil {
		return "", err
	}
	if l.source == nil {
		return "", fmt.Errorf("no download source configured")
	}

	path, err := l.fetch(ctx, entry, url, saver)
	if err != nil {
		l.logger.Error().Err(err).Str("id", id).Msg("download failed")
		l.eventBus.PublishNotice(events.NoticeError, "Download Failed", entry.Name)
		return "", err
	}
	l.logger.Info().Str("name", entry.Name).Str("path", path).Msg("downloaded")
	return path, nil
}

func (l *Listing) fetch(ctx context.Context, entry models.FileEntry, url string, saver Saver) (string, error) {
	obj, err := l.source.Open(ctx, url)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", entry.Name, err)
	}
	defer obj.Body.Close()
	return saver.Save(ctx, entry, obj)
}

// ActivationKind says what activating a row did.
type ActivationKind int

const (
	ActivateNone ActivationKind = iota
	ActivateNavigated
	ActivatePreview
)

// Activation is the result of Activate.
type Activation struct {
	Kind ActivationKind
	URL  string // preview URL for images
}

// Activate is a row click: folders open in the "all" tab, images yield their
// preview URL, everything else is inert.
func (l *Listing) Activate(ctx context.Context, id string) (Activation, error) {
	entry, ok := l.Entry(id)
	if !ok {
		return Activation{}, ErrNotFound
	}

	switch {
	case entry.IsFolder:
		if l.Tab() != TabAll {
			return Activation{Kind: ActivateNone}, nil
		}
		return Activation{Kind: ActivateNavigated}, l.NavigateInto(ctx, entry.ID, entry.Name)
	case entry.IsImage():
		url, err := l.PreviewURL(entry)
		if err != nil {
			return Activation{}, err
		}
		return Activation{Kind: ActivatePreview, URL: url}, nil
	default:
		return Activation{Kind: ActivateNone}, nil
	}
}

// PreviewURL builds the full-size preview URL for an image.
func (l *Listing) PreviewURL(f models.FileEntry) (string, error) {
	if !f.IsImage() {
		return "", &validation.ValidationError{Field: "type", Message: fmt.Sprintf("%s is not an image", f.Name)}
	}
	if !l.urls.Configured() || f.Path == "" {
		if f.FileURL != "" {
			return f.FileURL, nil
		}
		return "", &validation.ValidationError{Field: "transform_url", Message: "transform_url is not configured"}
	}
	return l.urls.PreviewURL(f.Path), nil
}

// ThumbnailURL builds the thumbnail URL for an image.
func (l *Listing) ThumbnailURL(f models.FileEntry) (string, error) {
	if !f.IsImage() {
		return "", &validation.ValidationError{Field: "type", Message: fmt.Sprintf("%s is not an image", f.Name)}
	}
	if f.ThumbnailURL != "" && !l.urls.Configured() {
		return f.ThumbnailURL, nil
	}
	if !l.urls.Configured() || f.Path == "" {
		return "", &validation.ValidationError{Field: "transform_url", Message: "transform_url is not configured"}
	}
	return l.urls.ThumbnailURL(f.Path), nil
}

// Entry returns a copy of the entry with id in the current set.
func (l *Listing) Entry(id string) (models.FileEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.indexLocked(id); i >= 0 {
		return l.entries[i], true
	}
	return models.FileEntry{}, false
}

// Entries returns a copy of the full set, every tab included.
func (l *Listing) Entries() []models.FileEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.FileEntry(nil), l.entries...)
}

// View returns the entries visible under the current tab and mode.
func (l *Listing) View() []models.FileEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return ApplyMode(SelectView(l.entries, l.tab), l.mode)
}

func (l *Listing) Counts() Counts {
	l.mu.Lock()
	defer l.mu.Unlock()
	return CountView(l.entries)
}

func (l *Listing) Path() []models.PathEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nav.Path()
}

func (l *Listing) Breadcrumb() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nav.Breadcrumb()
}

// CurrentFolder returns the current folder id; ok is false at root.
func (l *Listing) CurrentFolder() (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nav.Current()
}

// CurrentFolderPtr returns the folder id in the nullable parentId form.
func (l *Listing) CurrentFolderPtr() *string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nav.CurrentPtr()
}

func (l *Listing) CanGoUp() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nav.CanGoUp()
}

func (l *Listing) Tab() Tab {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tab
}

func (l *Listing) Mode() Mode {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mode
}

func (l *Listing) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

func (l *Listing) Session() auth.Session {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.session
}

// refreshCount is the number of BumpRefresh calls so far.
func (l *Listing) refreshCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.refresh
}

// Snapshot returns everything a frontend draws, copied.
func (l *Listing) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *Listing) snapshotLocked() Snapshot {
	folder, _ := l.nav.Current()
	return Snapshot{
		Entries:  ApplyMode(SelectView(l.entries, l.tab), l.mode),
		Counts:   CountView(l.entries),
		Tab:      l.tab,
		Mode:     l.mode,
		Path:     l.nav.Path(),
		FolderID: folder,
		Loading:  l.loading,
	}
}

func (l *Listing) indexLocked(id string) int {
	for i := range l.entries {
		if l.entries[i].ID == id {
			return i
		}
	}
	return -1
}

func (l *Listing) removeLocked(drop func(models.FileEntry) bool) {
	kept := l.entries[:0:0]
	for _, f := range l.entries {
		if !drop(f) {
			kept = append(kept, f)
		}
	}
	l.entries = kept
}

// patchFlag flips the flag selected by field and returns its previous value.
func (l *Listing) patchFlag(id string, field func(*models.FileEntry) *bool) (prev bool, name string, err error) {
	l.mu.Lock()
	i := l.indexLocked(id)
	if i < 0 {
		l.mu.Unlock()
		return false, "", ErrNotFound
	}
	flag := field(&l.entries[i])
	prev = *flag
	*flag = !prev
	name = l.entries[i].Name
	snap := l.snapshotLocked()
	l.mu.Unlock()

	l.eventBus.Publish(NewFileListChangedEvent(snap))
	return prev, name, nil
}

// revertFlag restores prev only if the entry still holds the optimistic value.
func (l *Listing) revertFlag(id string, optimistic, prev bool, field func(*models.FileEntry) *bool) {
	l.mu.Lock()
	i := l.indexLocked(id)
	if i < 0 || *field(&l.entries[i]) != optimistic {
		l.mu.Unlock()
		return
	}
	*field(&l.entries[i]) = prev
	snap := l.snapshotLocked()
	l.mu.Unlock()

	l.eventBus.Publish(NewFileListChangedEvent(snap))
}

func (l *Listing) applyFlag(id string, value bool, field func(*models.FileEntry) *bool) {
	l.mu.Lock()
	i := l.indexLocked(id)
	if i < 0 {
		// Folder changed while the request was in flight.
		l.mu.Unlock()
		return
	}
	*field(&l.entries[i]) = value
	snap := l.snapshotLocked()
	l.mu.Unlock()

	l.eventBus.Publish(NewFileListChangedEvent(snap))
}

func (l *Listing) actionFailed(op, id string, err error) {
	l.logger.Error().Err(err).Str("op", op).Str("id", id).Msg("action failed")
	l.eventBus.PublishNotice(events.NoticeError, "Action Failed", err.Error())
}
