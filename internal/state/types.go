// Package state holds the listing controller and the derived views the
// presentation layers render. State changes are published on the event bus
// so any frontend can subscribe and redraw.
package state

import (
	"github.com/filedash/filedash/internal/events"
	"github.com/filedash/filedash/internal/models"
)

// State event types
const (
	EventFileListChanged events.EventType = "file_list_changed"
	EventFileListLoading events.EventType = "file_list_loading"
)

// Snapshot is a copy of everything a frontend needs to draw the listing.
type Snapshot struct {
	Entries  []models.FileEntry // current view: tab and mode applied
	Counts   Counts
	Tab      Tab
	Mode     Mode
	Path     []models.PathEntry
	FolderID string // "" at root
	Loading  bool
}

// FileListChangedEvent is published whenever entries, tab, mode or path change.
type FileListChangedEvent struct {
	events.BaseEvent
	Snapshot Snapshot
}

// FileListLoadingEvent is published when a load starts and when it settles.
type FileListLoadingEvent struct {
	events.BaseEvent
	FolderID string
	Loading  bool
}

// NewFileListChangedEvent creates a new FileListChangedEvent.
func NewFileListChangedEvent(s Snapshot) *FileListChangedEvent {
	return &FileListChangedEvent{
		BaseEvent: events.NewBase(EventFileListChanged),
		Snapshot:  s,
	}
}

// NewFileListLoadingEvent creates a new FileListLoadingEvent.
func NewFileListLoadingEvent(folderID string, loading bool) *FileListLoadingEvent {
	return &FileListLoadingEvent{
		BaseEvent: events.NewBase(EventFileListLoading),
		FolderID:  folderID,
		Loading:   loading,
	}
}
