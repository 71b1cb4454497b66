package state

import (
	"fmt"
	"strings"

	"github.com/filedash/filedash/internal/models"
)

// Tab is one of the three views over the current folder.
type Tab string

const (
	TabAll     Tab = "all"
	TabStarred Tab = "starred"
	TabTrash   Tab = "trash"
)

// Tabs in display order.
var Tabs = []Tab{TabAll, TabStarred, TabTrash}

// Label is the tab title shown in the tab bar.
func (t Tab) Label() string {
	switch t {
	case TabStarred:
		return "Starred"
	case TabTrash:
		return "Trash"
	default:
		return "All Files"
	}
}

// EmptyMessage is the headline and hint shown when tab has no entries.
func (t Tab) EmptyMessage() (title, hint string) {
	switch t {
	case TabStarred:
		return "No starred files", "Mark important files with a star to find them quickly when you need them."
	case TabTrash:
		return "Trash is empty", "Files you delete will appear here for 30 days before being permanently removed."
	default:
		return "No files available", "Upload your first file to get started with your personal cloud storage."
	}
}

// ParseTab accepts the tab names used on the command line.
func ParseTab(s string) (Tab, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return TabAll, nil
	case "starred", "star":
		return TabStarred, nil
	case "trash":
		return TabTrash, nil
	}
	return "", fmt.Errorf("unknown tab %q (want all, starred or trash)", s)
}

// Mode narrows a view to folders or images.
type Mode string

const (
	ModeAll     Mode = "all"
	ModeFolders Mode = "folders"
	ModeImages  Mode = "images"
)

// Next cycles all → folders → images → all.
func (m Mode) Next() Mode {
	switch m {
	case ModeAll:
		return ModeFolders
	case ModeFolders:
		return ModeImages
	default:
		return ModeAll
	}
}

// ParseMode accepts the mode names used on the command line.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return ModeAll, nil
	case "folders", "folder":
		return ModeFolders, nil
	case "images", "image":
		return ModeImages, nil
	}
	return "", fmt.Errorf("unknown filter %q (want all, folders or images)", s)
}

// Counts feeds the tab badges. Always derived from the full set.
type Counts struct {
	All     int
	Starred int
	Trash   int
}

// Of returns the badge count for tab.
func (c Counts) Of(tab Tab) int {
	switch tab {
	case TabStarred:
		return c.Starred
	case TabTrash:
		return c.Trash
	default:
		return c.All
	}
}

func inTab(f models.FileEntry, tab Tab) bool {
	switch tab {
	case TabStarred:
		return f.IsStarred && !f.IsTrash
	case TabTrash:
		return f.IsTrash
	default:
		return !f.IsTrash
	}
}

// SelectView returns the entries visible in tab, in backend order.
func SelectView(files []models.FileEntry, tab Tab) []models.FileEntry {
	out := make([]models.FileEntry, 0, len(files))
	for _, f := range files {
		if inTab(f, tab) {
			out = append(out, f)
		}
	}
	return out
}

// CountView computes the badge counters with the same predicates as SelectView.
func CountView(files []models.FileEntry) Counts {
	var c Counts
	for _, f := range files {
		if inTab(f, TabAll) {
			c.All++
		}
		if inTab(f, TabStarred) {
			c.Starred++
		}
		if inTab(f, TabTrash) {
			c.Trash++
		}
	}
	return c
}

// ApplyMode filters a view down to folders or images.
func ApplyMode(files []models.FileEntry, mode Mode) []models.FileEntry {
	if mode == ModeAll || mode == "" {
		return files
	}
	out := make([]models.FileEntry, 0, len(files))
	for _, f := range files {
		if (mode == ModeFolders && f.IsFolder) || (mode == ModeImages && f.IsImage()) {
			out = append(out, f)
		}
	}
	return out
}

// Actions lists what may be done to an entry.
type Actions struct {
	Download      bool
	Star          bool
	Trash         bool // trash or restore
	DeleteForever bool
	Preview       bool
}

// AvailableActions applies the per-entry action rules: trashed entries can
// only be restored or deleted forever, folders cannot be downloaded.
func AvailableActions(f models.FileEntry) Actions {
	return Actions{
		Download:      !f.IsTrash && !f.IsFolder,
		Star:          !f.IsTrash,
		Trash:         true,
		DeleteForever: f.IsTrash,
		Preview:       !f.IsTrash && f.IsImage(),
	}
}
