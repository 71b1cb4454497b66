// Package tui is the interactive file browser. It drives the same listing
// and upload controllers as the CLI commands and redraws from the snapshots
// they publish on the event bus.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/filedash/filedash/internal/events"
	"github.com/filedash/filedash/internal/logging"
	"github.com/filedash/filedash/internal/models"
	"github.com/filedash/filedash/internal/navigation"
	"github.com/filedash/filedash/internal/progress"
	"github.com/filedash/filedash/internal/services"
	"github.com/filedash/filedash/internal/state"
)

// Options wires a Model.
type Options struct {
	Listing     *state.Listing
	Uploads     *services.UploadService
	EventBus    *events.EventBus
	Logger      *logging.Logger
	DownloadDir string
	// Context bounds every request the browser makes. Defaults to Background.
	Context context.Context
	// Now is the clock used for ages; defaults to time.Now.
	Now func() time.Time
}

// Model is the bubbletea model of the file browser.
type Model struct {
	listing     *state.Listing
	uploads     *services.UploadService
	bus         *events.EventBus
	sub         <-chan events.Event
	logger      *logging.Logger
	downloadDir string
	ctx         context.Context
	now         func() time.Time

	snap     state.Snapshot
	loading  bool
	notice   *events.NoticeEvent
	transfer *events.ProgressEvent
	preview  previewMsg
	confirm  *pendingConfirm
	input    inputKind
	showHelp bool

	width  int
	height int

	keys      KeyMap
	help      help.Model
	table     table.Model
	spinner   spinner.Model
	bar       tprogress.Model
	textInput textinput.Model
}

// New creates the browser model and subscribes it to the bus.
func New(opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	t := table.New(
		table.WithColumns(columns(80)),
		table.WithHeight(15),
		table.WithFocused(true),
		table.WithStyles(tableStyles()),
	)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	ti := textinput.New()
	ti.CharLimit = 1024
	ti.Width = 48

	m := &Model{
		listing:     opts.Listing,
		uploads:     opts.Uploads,
		bus:         opts.EventBus,
		logger:      logger.Component("tui"),
		downloadDir: opts.DownloadDir,
		ctx:         ctx,
		now:         now,
		snap:        opts.Listing.Snapshot(),
		loading:     true,
		width:       80,
		height:      24,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		table:       t,
		spinner:     s,
		bar:         tprogress.New(tprogress.WithDefaultGradient(), tprogress.WithWidth(40)),
		textInput:   ti,
	}
	if opts.EventBus != nil {
		m.sub = opts.EventBus.SubscribeAll()
	}
	m.refreshTable()
	return m
}

func columns(width int) []table.Column {
	nameWidth := width - 8 - 10 - 16 - 10
	if nameWidth < 20 {
		nameWidth = 20
	}
	return []table.Column{
		{Title: "NAME", Width: nameWidth},
		{Title: "TYPE", Width: 8},
		{Title: "SIZE", Width: 10},
		{Title: "MODIFIED", Width: 16},
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.run("load", m.listing.Load)}
	if m.sub != nil {
		cmds = append(cmds, waitForEvent(m.sub))
	}
	return tea.Batch(cmds...)
}

// run performs fn off the update loop and reports back with actionDoneMsg.
func (m *Model) run(op string, fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return actionDoneMsg{op: op, err: fn(ctx)}
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case m.confirm != nil:
			return m.handleConfirm(msg)
		case m.input != inputNone:
			return m.handleInput(msg)
		}
		return m.handleKey(msg)

	case busMsg:
		m.handleEvent(msg.event)
		return m, waitForEvent(m.sub)

	case busClosedMsg:
		return m, nil

	case actionDoneMsg:
		if msg.err != nil && !errors.Is(msg.err, state.ErrStaleResponse) {
			m.logger.Debug().Err(msg.err).Str("op", msg.op).Msg("action finished with error")
		}
		if msg.op == "load" && !errors.Is(msg.err, state.ErrStaleResponse) {
			m.loading = false
		}
		return m, nil

	case previewMsg:
		m.preview = msg
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetColumns(columns(msg.Width))
		h := msg.Height - 9
		if h < 3 {
			h = 3
		}
		m.table.SetHeight(h)
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleEvent(ev events.Event) {
	switch e := ev.(type) {
	case *state.FileListChangedEvent:
		m.snap = e.Snapshot
		m.refreshTable()
	case *state.FileListLoadingEvent:
		m.loading = e.Loading
	case *events.NoticeEvent:
		m.notice = e
	case *events.ProgressEvent:
		if e.Percent >= 100 {
			m.transfer = nil
		} else {
			m.transfer = e
		}
	case *events.ConfigChangedEvent:
		m.preview = previewMsg{}
	}
}

// selected returns the entry under the cursor.
func (m *Model) selected() (models.FileEntry, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.snap.Entries) {
		return models.FileEntry{}, false
	}
	return m.snap.Entries[i], true
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		m.preview = previewMsg{}
		return m, cmd

	case key.Matches(msg, m.keys.TabAll):
		m.setTab(state.TabAll)
		return m, nil
	case key.Matches(msg, m.keys.TabStarred):
		m.setTab(state.TabStarred)
		return m, nil
	case key.Matches(msg, m.keys.TabTrash):
		m.setTab(state.TabTrash)
		return m, nil
	case key.Matches(msg, m.keys.NextTab):
		m.setTab(nextTab(m.snap.Tab))
		return m, nil

	case key.Matches(msg, m.keys.Mode):
		m.listing.SetMode(m.listing.Mode().Next())
		m.sync()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, m.run("load", m.listing.Load)

	case key.Matches(msg, m.keys.Back):
		if !m.listing.CanGoUp() {
			return m, nil
		}
		m.preview = previewMsg{}
		m.loading = true
		return m, m.run("load", m.listing.NavigateUp)

	case key.Matches(msg, m.keys.Open):
		return m, m.activate()

	case key.Matches(msg, m.keys.Star):
		e, ok := m.selected()
		if !ok || !state.AvailableActions(e).Star {
			return m, nil
		}
		return m, m.run("star", func(ctx context.Context) error { return m.listing.ToggleStar(ctx, e.ID) })

	case key.Matches(msg, m.keys.Trash):
		e, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.run("trash", func(ctx context.Context) error { return m.listing.ToggleTrash(ctx, e.ID) })

	case key.Matches(msg, m.keys.Delete):
		e, ok := m.selected()
		if !ok || !state.AvailableActions(e).DeleteForever {
			return m, nil
		}
		m.confirm = &pendingConfirm{
			prompt: state.DeletePrompt(e),
			run: func(c state.Confirmer) tea.Cmd {
				return m.run("delete", func(ctx context.Context) error { return m.listing.DeleteForever(ctx, e.ID, c) })
			},
		}
		return m, nil

	case key.Matches(msg, m.keys.EmptyTrash):
		if m.snap.Tab != state.TabTrash || m.snap.Counts.Trash == 0 {
			return m, nil
		}
		m.confirm = &pendingConfirm{
			prompt: state.EmptyTrashPrompt(m.snap.Counts.Trash),
			run: func(c state.Confirmer) tea.Cmd {
				return m.run("empty-trash", func(ctx context.Context) error { return m.listing.EmptyTrash(ctx, c) })
			},
		}
		return m, nil

	case key.Matches(msg, m.keys.Download):
		e, ok := m.selected()
		if !ok || !state.AvailableActions(e).Download {
			return m, nil
		}
		return m, m.download(e)

	case key.Matches(msg, m.keys.Thumbnail):
		e, ok := m.selected()
		if !ok || !state.AvailableActions(e).Preview {
			return m, nil
		}
		url, err := m.listing.ThumbnailURL(e)
		if err != nil {
			m.notice = localNotice(events.NoticeError, "No Thumbnail", err.Error())
			return m, nil
		}
		m.preview = previewMsg{label: "Thumbnail", url: url}
		return m, nil

	case key.Matches(msg, m.keys.Upload):
		if m.uploads == nil || m.uploads.Uploading() {
			return m, nil
		}
		return m, m.openInput(inputUploadPath, "path/to/file")

	case key.Matches(msg, m.keys.NewFolder):
		if m.uploads == nil || m.snap.Tab != state.TabAll {
			return m, nil
		}
		return m, m.openInput(inputFolderName, "Folder name")
	}
	return m, nil
}

func (m *Model) setTab(tab state.Tab) {
	m.listing.SetTab(tab)
	m.sync()
	m.table.SetCursor(0)
	m.preview = previewMsg{}
}

// sync pulls a fresh snapshot after a synchronous controller change so the
// next frame does not wait for the bus.
func (m *Model) sync() {
	m.snap = m.listing.Snapshot()
	m.refreshTable()
}

func nextTab(t state.Tab) state.Tab {
	for i, tab := range state.Tabs {
		if tab == t {
			return state.Tabs[(i+1)%len(state.Tabs)]
		}
	}
	return state.TabAll
}

func (m *Model) activate() tea.Cmd {
	e, ok := m.selected()
	if !ok {
		return nil
	}
	if e.IsFolder {
		if m.snap.Tab != state.TabAll {
			return nil
		}
		m.preview = previewMsg{}
		m.loading = true
	}
	ctx := m.ctx
	return func() tea.Msg {
		act, err := m.listing.Activate(ctx, e.ID)
		if err != nil {
			return actionDoneMsg{op: "load", err: err}
		}
		switch act.Kind {
		case state.ActivatePreview:
			return previewMsg{label: "Preview", url: act.URL}
		case state.ActivateNavigated:
			return actionDoneMsg{op: "load"}
		default:
			if e.IsFolder {
				// the tab changed under us; stop the spinner started above
				return actionDoneMsg{op: "load"}
			}
			return nil
		}
	}
}

// download saves e into the download directory with progress on the bus.
func (m *Model) download(e models.FileEntry) tea.Cmd {
	bus := m.bus
	saver := &state.DirSaver{
		Dir: m.downloadDir,
		Wrap: func(r io.Reader, entry models.FileEntry, size int64) io.Reader {
			reporter := progress.NewEventProgress(bus, entry.Name, "download")
			reporter.Start(size, entry.Name)
			return progress.NewProgressReader(r, size, reporter)
		},
	}
	ctx := m.ctx
	return func() tea.Msg {
		path, err := m.listing.Download(ctx, e.ID, saver)
		if err == nil {
			bus.PublishProgress(e.Name, "download", 1, 1)
			bus.PublishNotice(events.NoticeSuccess, "Download Complete", path)
		}
		return actionDoneMsg{op: "download", err: err}
	}
}

func (m *Model) openInput(kind inputKind, placeholder string) tea.Cmd {
	m.input = kind
	m.textInput.Reset()
	m.textInput.Placeholder = placeholder
	return m.textInput.Focus()
}

func (m *Model) closeInput() {
	m.input = inputNone
	m.textInput.Blur()
	m.textInput.Reset()
}

func (m *Model) handleInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyEsc:
		m.closeInput()
		return m, nil
	case key.Matches(msg, m.keys.SubmitInput):
		kind, value := m.input, strings.TrimSpace(m.textInput.Value())
		m.closeInput()
		return m, m.submitInput(kind, value)
	}
	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m *Model) submitInput(kind inputKind, value string) tea.Cmd {
	parent := m.listing.CurrentFolderPtr()
	switch kind {
	case inputUploadPath:
		if err := m.uploads.StagePath(value); err != nil {
			m.notice = localNotice(events.NoticeError, "Upload Failed", err.Error())
			return nil
		}
		return m.run("upload", func(ctx context.Context) error {
			_, err := m.uploads.Submit(ctx, parent)
			return err
		})
	case inputFolderName:
		// blank names are rejected by CreateFolder with its own notice
		return m.run("mkdir", func(ctx context.Context) error {
			_, err := m.uploads.CreateFolder(ctx, value, parent)
			return err
		})
	}
	return nil
}

func (m *Model) handleConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		pc := m.confirm
		m.confirm = nil
		return m, pc.run(func(state.Prompt) bool { return true })
	case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.Quit):
		m.confirm = nil
	}
	return m, nil
}

func localNotice(level events.NoticeLevel, title, desc string) *events.NoticeEvent {
	return &events.NoticeEvent{
		BaseEvent:   events.NewBase(events.EventNotice),
		Level:       level,
		Title:       title,
		Description: desc,
	}
}

func (m *Model) refreshTable() {
	now := m.now()
	rows := make([]table.Row, 0, len(m.snap.Entries))
	for _, f := range m.snap.Entries {
		rows = append(rows, table.Row{rowName(f), f.Category(), f.DisplaySize(), f.Age(now)})
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

func rowName(f models.FileEntry) string {
	icon := "📄"
	switch {
	case f.IsFolder:
		icon = "📁"
	case f.IsImage():
		icon = "🖼"
	}
	name := icon + " " + f.Name
	if f.IsStarred {
		name += " ★"
	}
	return name
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.confirm != nil {
		return m.place(m.renderConfirm())
	}
	if m.input != inputNone {
		return m.place(m.renderInput())
	}
	if m.showHelp {
		return m.place(helpDialogStyle.Render(m.help.FullHelpView(m.keys.FullHelp())))
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("filedash"))
	b.WriteString("  ")
	b.WriteString(crumbStyle.Render(navigation.Breadcrumb(m.snap.Path)))
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("  ")
	b.WriteString(mutedStyle.Render("view: " + string(m.snap.Mode)))
	b.WriteString("\n\n")

	switch {
	case m.loading && len(m.snap.Entries) == 0:
		b.WriteString(spinnerStyle.Render(m.spinner.View() + " Loading files..."))
		b.WriteString("\n")
	case len(m.snap.Entries) == 0:
		title, hint := m.snap.Tab.EmptyMessage()
		b.WriteString(emptyTitleStyle.Render(title))
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(hint))
		b.WriteString("\n")
	default:
		b.WriteString(m.table.View())
		b.WriteString("\n")
		if m.loading {
			b.WriteString(spinnerStyle.Render(m.spinner.View() + " Refreshing..."))
			b.WriteString("\n")
		}
	}

	if m.preview.url != "" {
		b.WriteString(mutedStyle.Render(m.preview.label+": ") + m.preview.url)
		b.WriteString("\n")
	}
	if m.transfer != nil {
		verb := "Uploading"
		if m.transfer.Stage == "download" {
			verb = "Downloading"
		}
		fmt.Fprintf(&b, "%s %s %s\n", verb, m.transfer.Name, m.bar.ViewAs(m.transfer.Percent/100))
	}
	if m.notice != nil {
		b.WriteString(renderNotice(m.notice))
		b.WriteString("\n")
	}
	b.WriteString(mutedStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))
	return b.String()
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(state.Tabs))
	for _, tab := range state.Tabs {
		label := tab.Label() + " " + badgeStyle.Render(fmt.Sprintf("%d", m.snap.Counts.Of(tab)))
		if tab == m.snap.Tab {
			parts = append(parts, activeTabStyle.Render(label))
		} else {
			parts = append(parts, tabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func renderNotice(n *events.NoticeEvent) string {
	style, ok := noticeStyles[n.Level]
	if !ok {
		style = mutedStyle
	}
	text := n.Title
	if n.Description != "" {
		text += ": " + n.Description
	}
	return style.Render(text)
}

func (m *Model) renderConfirm() string {
	var b strings.Builder
	b.WriteString(dialogTitleStyle.Render(m.confirm.prompt.Title))
	b.WriteString("\n")
	b.WriteString(m.confirm.prompt.Message)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "[y] %s    [n] Cancel", m.confirm.prompt.Confirm)
	return dialogStyle.Render(b.String())
}

func (m *Model) renderInput() string {
	var b strings.Builder
	b.WriteString(dialogTitleStyle.Foreground(lipgloss.Color("#00FFFF")).Render(m.input.title()))
	b.WriteString("\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")
	b.WriteString(mutedStyle.Render("enter submit • esc cancel"))
	return inputDialogStyle.Render(b.String())
}

func (m *Model) place(dialog string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, dialog)
}

// Run starts the browser full screen and blocks until the user quits.
func Run(m *Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if m.bus != nil && m.sub != nil {
		m.bus.Unsubscribe(m.sub)
		if n := m.bus.GetDroppedEventCount(); n > 0 {
			m.logger.Warn().Int64("dropped", n).Msg("event bus dropped events while browsing")
		}
	}
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
