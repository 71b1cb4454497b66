// Package navigation tracks the folder path from root to the current folder.
package navigation

import (
	"strings"

	"github.com/filedash/filedash/internal/models"
)

// RootLabel is the breadcrumb label for the root folder.
const RootLabel = "Home"

// Stack is the breadcrumb path. The current folder is always the last
// entry, and root is the empty path. Stack is not safe for concurrent use;
// the listing controller guards it.
type Stack struct {
	path []models.PathEntry
}

// NewStack returns a stack positioned at root.
func NewStack() *Stack {
	return &Stack{}
}

// NavigateInto appends a folder and makes it current.
func (s *Stack) NavigateInto(id, name string) {
	s.path = append(s.path, models.PathEntry{ID: id, Name: name})
}

// NavigateUp pops the current folder. No-op at root.
func (s *Stack) NavigateUp() {
	if len(s.path) == 0 {
		return
	}
	s.path = s.path[:len(s.path)-1]
}

// CanGoUp reports whether NavigateUp would change anything.
func (s *Stack) CanGoUp() bool {
	return len(s.path) > 0
}

// NavigateToIndex truncates the path to [0..index]. -1 returns to root;
// any other out-of-range index is ignored. Reports whether the path changed.
func (s *Stack) NavigateToIndex(index int) bool {
	switch {
	case index == -1:
		changed := len(s.path) > 0
		s.path = nil
		return changed
	case index < -1 || index >= len(s.path):
		return false
	}
	changed := index != len(s.path)-1
	s.path = s.path[:index+1]
	return changed
}

// Current returns the current folder id; ok is false at root.
func (s *Stack) Current() (id string, ok bool) {
	if len(s.path) == 0 {
		return "", false
	}
	return s.path[len(s.path)-1].ID, true
}

// CurrentPtr returns the current folder id as the nullable parentId form.
func (s *Stack) CurrentPtr() *string {
	id, ok := s.Current()
	if !ok {
		return nil
	}
	return &id
}

// depth is the number of folders below root.
func (s *Stack) depth() int { return len(s.path) }

// Path returns a copy of the breadcrumb entries.
func (s *Stack) Path() []models.PathEntry {
	out := make([]models.PathEntry, len(s.path))
	copy(out, s.path)
	return out
}

// Reset returns to root.
func (s *Stack) Reset() { s.path = nil }

// Breadcrumb renders the path as "Home / a / b".
func (s *Stack) Breadcrumb() string {
	return Breadcrumb(s.path)
}

// Breadcrumb renders path entries with the root label prepended.
func Breadcrumb(path []models.PathEntry) string {
	parts := make([]string, 0, len(path)+1)
	parts = append(parts, RootLabel)
	for _, p := range path {
		parts = append(parts, p.Name)
	}
	return strings.Join(parts, " / ")
}
