package state

import (
	"fmt"

	"github.com/filedash/filedash/internal/models"
)

// Prompt is the content of a confirmation dialog for an irreversible action.
type Prompt struct {
	Title   string
	Message string
	Confirm string // label for the confirm button
}

// Confirmer asks the user to approve a Prompt. Destructive operations run
// only when it returns true.
type Confirmer func(Prompt) bool

// DeletePrompt is shown before a permanent delete.
func DeletePrompt(f models.FileEntry) Prompt {
	return Prompt{
		Title:   "Confirm Permanent Deletion",
		Message: fmt.Sprintf("You are about to permanently delete \"%s\". This cannot be undone.", f.Name),
		Confirm: "Delete Forever",
	}
}

// EmptyTrashPrompt is shown before emptying the trash.
func EmptyTrashPrompt(count int) Prompt {
	return Prompt{
		Title:   "Empty Trash",
		Message: fmt.Sprintf("You are about to permanently delete all %d items in your trash. This action cannot be undone.", count),
		Confirm: "Empty Trash",
	}
}
