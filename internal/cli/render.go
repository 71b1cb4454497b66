package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/filedash/filedash/internal/models"
	"github.com/filedash/filedash/internal/navigation"
	"github.com/filedash/filedash/internal/state"
)

// renderTabs prints the tab bar with badge counts, the current tab bracketed.
func renderTabs(w io.Writer, counts state.Counts, current state.Tab) {
	parts := make([]string, 0, len(state.Tabs))
	for _, tab := range state.Tabs {
		label := fmt.Sprintf("%s (%d)", tab.Label(), counts.Of(tab))
		if tab == current {
			label = "[" + label + "]"
		}
		parts = append(parts, label)
	}
	fmt.Fprintln(w, strings.Join(parts, "  "))
}

func flags(f models.FileEntry) string {
	var b strings.Builder
	if f.IsStarred {
		b.WriteString("★")
	} else {
		b.WriteString(" ")
	}
	if f.IsTrash {
		b.WriteString("T")
	} else {
		b.WriteString(" ")
	}
	return b.String()
}

// renderListing prints breadcrumb, tabs and the visible entries of snap.
func renderListing(w io.Writer, snap state.Snapshot, now time.Time) {
	fmt.Fprintln(w, navigation.Breadcrumb(snap.Path))
	renderTabs(w, snap.Counts, snap.Tab)
	fmt.Fprintln(w)

	if len(snap.Entries) == 0 {
		title, hint := snap.Tab.EmptyMessage()
		fmt.Fprintf(w, "  %s\n  %s\n", title, hint)
		return
	}

	nameWidth := len("NAME")
	idWidth := len("ID")
	for _, f := range snap.Entries {
		if n := len([]rune(displayName(f))); n > nameWidth {
			nameWidth = n
		}
		if len(f.ID) > idWidth {
			idWidth = len(f.ID)
		}
	}
	if nameWidth > 48 {
		nameWidth = 48
	}

	fmt.Fprintf(w, "  %-2s  %-*s  %-8s  %9s  %-16s  %s\n", "", nameWidth, "NAME", "TYPE", "SIZE", "MODIFIED", "ID")
	for _, f := range snap.Entries {
		size := f.DisplaySize()
		if f.IsFolder {
			size = "-"
		}
		fmt.Fprintf(w, "  %-2s  %-*s  %-8s  %9s  %-16s  %s\n",
			flags(f), nameWidth, clip(displayName(f), nameWidth), f.Category(), size, f.Age(now), f.ID)
	}
}

func displayName(f models.FileEntry) string {
	if f.IsFolder {
		return f.Name + "/"
	}
	return f.Name
}

func clip(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}

// listingJSON is the --json shape of ls.
type listingJSON struct {
	Path    []models.PathEntry `json:"path"`
	Tab     state.Tab          `json:"tab"`
	Mode    state.Mode         `json:"mode"`
	Counts  countsJSON         `json:"counts"`
	Entries []models.FileEntry `json:"entries"`
}

type countsJSON struct {
	All     int `json:"all"`
	Starred int `json:"starred"`
	Trash   int `json:"trash"`
}

func renderJSON(w io.Writer, snap state.Snapshot) error {
	out := listingJSON{
		Path:    snap.Path,
		Tab:     snap.Tab,
		Mode:    snap.Mode,
		Counts:  countsJSON{All: snap.Counts.All, Starred: snap.Counts.Starred, Trash: snap.Counts.Trash},
		Entries: snap.Entries,
	}
	if out.Path == nil {
		out.Path = []models.PathEntry{}
	}
	if out.Entries == nil {
		out.Entries = []models.FileEntry{}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode listing: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}
