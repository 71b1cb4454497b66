package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/filedash/filedash/internal/events"
	"github.com/filedash/filedash/internal/state"
)

// busMsg carries one event from the bus into the update loop.
type busMsg struct {
	event events.Event
}

// busClosedMsg is sent once the subscription channel closes.
type busClosedMsg struct{}

// actionDoneMsg reports the result of a background operation. Failures are
// already surfaced as notices by the controllers; err is kept for logging.
type actionDoneMsg struct {
	op  string
	err error
}

// previewMsg carries a URL to show for the selected image.
type previewMsg struct {
	label string
	url   string
}

// waitForEvent blocks on the bus subscription and hands the next event to
// Update, which re-arms it.
func waitForEvent(ch <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return busClosedMsg{}
		}
		return busMsg{event: ev}
	}
}

// pendingConfirm is an irreversible action waiting for y/n.
type pendingConfirm struct {
	prompt state.Prompt
	run    func(state.Confirmer) tea.Cmd
}

// inputKind says what the text prompt is collecting.
type inputKind int

const (
	inputNone inputKind = iota
	inputUploadPath
	inputFolderName
)

func (k inputKind) title() string {
	switch k {
	case inputUploadPath:
		return "Upload File"
	case inputFolderName:
		return "New Folder"
	default:
		return ""
	}
}
