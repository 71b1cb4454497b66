// Package models holds the file and folder records exchanged with the dashboard API.
package models

import (
	"fmt"
	"strings"
	"time"
)

// FileEntry is a file or folder owned by the signed-in user.
// Folders leave Type, Size, Path and FileURL empty.
type FileEntry struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	IsFolder     bool      `json:"isFolder"`
	Type         string    `json:"type,omitempty"`
	Size         int64     `json:"size,omitempty"`
	Path         string    `json:"path,omitempty"`
	FileURL      string    `json:"fileUrl,omitempty"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	IsStarred    bool      `json:"isStarred"`
	IsTrash      bool      `json:"isTrash"`
	CreatedAt    time.Time `json:"createdAt"`
	ParentID     *string   `json:"parentId"`
	UserID       string    `json:"userId,omitempty"`
}

// IsImage reports whether the entry is an image file.
func (f FileEntry) IsImage() bool {
	return !f.IsFolder && strings.HasPrefix(f.Type, "image/")
}

// Category groups entries for icons and listing filters.
func (f FileEntry) Category() string {
	switch {
	case f.IsFolder:
		return "folder"
	case strings.HasPrefix(f.Type, "image/"):
		return "image"
	case f.Type == "application/pdf":
		return "pdf"
	case strings.HasPrefix(f.Type, "application/"):
		return "document"
	case strings.HasPrefix(f.Type, "video/"):
		return "video"
	default:
		return "file"
	}
}

// DisplaySize renders Size for listings; folders show "-".
func (f FileEntry) DisplaySize() string {
	if f.IsFolder {
		return "-"
	}
	return FormatBytes(f.Size)
}

// Age renders the time since CreatedAt relative to now ("3 days ago").
func (f FileEntry) Age(now time.Time) string {
	if f.CreatedAt.IsZero() {
		return "-"
	}
	d := now.Sub(f.CreatedAt)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute")
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour")
	case d < 30*24*time.Hour:
		return plural(int(d/(24*time.Hour)), "day")
	case d < 365*24*time.Hour:
		return plural(int(d/(30*24*time.Hour)), "month")
	default:
		return plural(int(d/(365*24*time.Hour)), "year")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// FormatBytes renders a byte count as B, KB or MB with one decimal.
func FormatBytes(n int64) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	}
}

// PathEntry is one folder in the breadcrumb path.
type PathEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// StarResult is returned by the star toggle. The backend answers with either
// the updated entry or a bare {isStarred}; both decode into this shape.
type StarResult struct {
	ID        string `json:"id,omitempty"`
	IsStarred *bool  `json:"isStarred"`
}

// TrashResult is returned by the trash toggle.
type TrashResult struct {
	IsTrash bool `json:"isTrash"`
}

// DeleteResult is returned by permanent delete.
type DeleteResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// EmptyTrashResult is returned by empty-trash.
type EmptyTrashResult struct {
	Success bool   `json:"success"`
	Deleted int    `json:"deleted,omitempty"`
	Message string `json:"message,omitempty"`
}

// CreateFolderRequest is the JSON body for folder creation.
type CreateFolderRequest struct {
	Name     string  `json:"name"`
	UserID   string  `json:"userId"`
	ParentID *string `json:"parentId"`
}
