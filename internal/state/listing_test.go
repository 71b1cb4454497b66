package state

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/filedash/filedash/internal/auth"
	"github.com/filedash/filedash/internal/cloud"
	"github.com/filedash/filedash/internal/events"
	"github.com/filedash/filedash/internal/models"
	"github.com/filedash/filedash/internal/transform"
	"github.com/filedash/filedash/internal/validation"
)

type listCall struct {
	userID string
	parent string
}

// fakeGateway serves canned listings per folder ("" is root).
type fakeGateway struct {
	mu        sync.Mutex
	lists     map[string][]models.FileEntry
	listErr   error
	gates     map[string]chan struct{} // folder -> closed when the listing may return
	listCalls []listCall

	starResult  models.StarResult
	starErr     error
	trashResult models.TrashResult
	trashErr    error
	deleteErr   error
	emptyErr    error
	deleted     []string
	emptied     int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		lists: map[string][]models.FileEntry{
			"": {
				{ID: "f1", IsFolder: true, Name: "Docs"},
				{ID: "f2", Name: "cat.png", IsStarred: true, Type: "image/png", Path: "/u1/cat.png"},
			},
		},
		gates: map[string]chan struct{}{},
	}
}

func (g *fakeGateway) ListFiles(ctx context.Context, userID string, parentID *string) ([]models.FileEntry, error) {
	parent := ""
	if parentID != nil {
		parent = *parentID
	}
	g.mu.Lock()
	g.listCalls = append(g.listCalls, listCall{userID: userID, parent: parent})
	gate := g.gates[parent]
	g.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.listErr != nil {
		return nil, g.listErr
	}
	return append([]models.FileEntry(nil), g.lists[parent]...), nil
}

func (g *fakeGateway) ToggleStar(ctx context.Context, id string) (models.StarResult, error) {
	return g.starResult, g.starErr
}

func (g *fakeGateway) ToggleTrash(ctx context.Context, id string) (models.TrashResult, error) {
	return g.trashResult, g.trashErr
}

func (g *fakeGateway) DeleteFile(ctx context.Context, id string) (models.DeleteResult, error) {
	if g.deleteErr != nil {
		return models.DeleteResult{}, g.deleteErr
	}
	g.deleted = append(g.deleted, id)
	return models.DeleteResult{Success: true}, nil
}

func (g *fakeGateway) EmptyTrash(ctx context.Context) (models.EmptyTrashResult, error) {
	if g.emptyErr != nil {
		return models.EmptyTrashResult{}, g.emptyErr
	}
	g.emptied++
	return models.EmptyTrashResult{Success: true}, nil
}

func (g *fakeGateway) calls() []listCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]listCall(nil), g.listCalls...)
}

func newTestListing(t *testing.T, gw *fakeGateway) (*Listing, *events.EventBus) {
	t.Helper()
	bus := events.NewEventBus(256)
	t.Cleanup(bus.Close)
	l := NewListing(ListingOptions{
		Gateway:   gw,
		Transform: transform.NewBuilder("https://ik.example.com/acme"),
		EventBus:  bus,
		Session:   auth.Session{UserID: "u1", Token: "tok"},
	})
	return l, bus
}

func loaded(t *testing.T, gw *fakeGateway) (*Listing, *events.EventBus) {
	t.Helper()
	l, bus := newTestListing(t, gw)
	if err := l.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return l, bus
}

func yes(Prompt) bool { return true }
func no(Prompt) bool  { return false }

// nextNotice waits for the next notice on ch.
func nextNotice(t *testing.T, ch <-chan events.Event) *events.NoticeEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev.(*events.NoticeEvent)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for notice")
		return nil
	}
}

func TestLoadRequiresSession(t *testing.T) {
	l := NewListing(ListingOptions{Gateway: newFakeGateway()})
	if err := l.Load(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Errorf("Load() error = %v, want ErrNoSession", err)
	}
}

func TestLoadScopesByUserAndFolder(t *testing.T) {
	gw := newFakeGateway()
	gw.lists["f1"] = []models.FileEntry{{ID: "c1", Name: "tax.pdf"}}
	l, _ := loaded(t, gw)

	if err := l.NavigateInto(context.Background(), "f1", "Docs"); err != nil {
		t.Fatalf("NavigateInto() error = %v", err)
	}

	calls := gw.calls()
	want := []listCall{{"u1", ""}, {"u1", "f1"}}
	if len(calls) != len(want) {
		t.Fatalf("list calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %+v, want %+v", i, calls[i], want[i])
		}
	}
	if got := ids(l.Entries()); !sameIDs(got, []string{"c1"}) {
		t.Errorf("Entries() = %v, want [c1]", got)
	}
	if got := l.Breadcrumb(); got != "Home / Docs" {
		t.Errorf("Breadcrumb() = %q", got)
	}
}

func TestTabsFromScenario(t *testing.T) {
	l, _ := loaded(t, newFakeGateway())

	tests := []struct {
		tab  Tab
		want []string
	}{
		{TabAll, []string{"f1", "f2"}},
		{TabStarred, []string{"f2"}},
		{TabTrash, []string{}},
	}
	for _, tt := range tests {
		l.SetTab(tt.tab)
		if got := ids(l.View()); !sameIDs(got, tt.want) {
			t.Errorf("View(%s) = %v, want %v", tt.tab, got, tt.want)
		}
	}
}

func TestSetTabDoesNotRefetch(t *testing.T) {
	gw := newFakeGateway()
	l, _ := loaded(t, gw)

	l.SetTab(TabStarred)
	l.SetTab(TabTrash)
	l.SetMode(ModeImages)

	if n := len(gw.calls()); n != 1 {
		t.Errorf("list calls = %d, want 1", n)
	}
}

func TestLoadFailureKeepsPreviousSet(t *testing.T) {
	gw := newFakeGateway()
	l, bus := loaded(t, gw)
	notices := bus.Subscribe(events.EventNotice)

	gw.mu.Lock()
	gw.listErr = errors.New("connection refused")
	gw.mu.Unlock()

	err := l.BumpRefresh(context.Background())
	if err == nil {
		t.Fatal("BumpRefresh() expected error")
	}
	if got := ids(l.Entries()); !sameIDs(got, []string{"f1", "f2"}) {
		t.Errorf("Entries() after failure = %v, want previous set", got)
	}
	if l.Loading() {
		t.Error("Loading() = true after failure")
	}
	if n := nextNotice(t, notices); n.Title != "Error Loading Files" || n.Level != events.NoticeError {
		t.Errorf("notice = %+v", n)
	}
	if l.refreshCount() != 1 {
		t.Errorf("refreshCount() = %d, want 1", l.refreshCount())
	}
}

func TestStaleResponseDiscarded(t *testing.T) {
	gw := newFakeGateway()
	gw.lists["A"] = []models.FileEntry{{ID: "a1", Name: "from A"}}
	gw.lists["B"] = []models.FileEntry{{ID: "b1", Name: "from B"}}
	gateA := make(chan struct{})
	gw.gates["A"] = gateA

	l, _ := newTestListing(t, gw)

	errA := make(chan error, 1)
	go func() { errA <- l.NavigateInto(context.Background(), "A", "Work") }()

	// Wait until the A request is in flight.
	deadline := time.Now().Add(time.Second)
	for len(gw.calls()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("A request never issued")
		}
		time.Sleep(time.Millisecond)
	}

	// The stack now reads Home / Work; go to root then into B.
	if err := l.NavigateToIndex(context.Background(), -1); err != nil {
		t.Fatalf("NavigateToIndex(-1) error = %v", err)
	}
	if err := l.NavigateInto(context.Background(), "B", "Photos"); err != nil {
		t.Fatalf("NavigateInto(B) error = %v", err)
	}
	close(gateA)

	if err := <-errA; !errors.Is(err, ErrStaleResponse) {
		t.Errorf("A load error = %v, want ErrStaleResponse", err)
	}
	if got := ids(l.Entries()); !sameIDs(got, []string{"b1"}) {
		t.Errorf("Entries() = %v, want [b1]", got)
	}
	if id, _ := l.CurrentFolder(); id != "B" {
		t.Errorf("CurrentFolder() = %q, want B", id)
	}
}

func TestNavigateUpAtRootDoesNotLoad(t *testing.T) {
	gw := newFakeGateway()
	l, _ := loaded(t, gw)

	if err := l.NavigateUp(context.Background()); err != nil {
		t.Fatalf("NavigateUp() error = %v", err)
	}
	if err := l.NavigateToIndex(context.Background(), 5); err != nil {
		t.Fatalf("NavigateToIndex(5) error = %v", err)
	}
	if n := len(gw.calls()); n != 1 {
		t.Errorf("list calls = %d, want 1", n)
	}
	if l.CanGoUp() {
		t.Error("CanGoUp() = true at root")
	}
}

func TestSetSession(t *testing.T) {
	gw := newFakeGateway()
	gw.lists["f1"] = nil
	l, _ := loaded(t, gw)
	_ = l.NavigateInto(context.Background(), "f1", "Docs")

	// Same user, new token: no reload.
	if err := l.SetSession(context.Background(), auth.Session{UserID: "u1", Token: "tok2"}); err != nil {
		t.Fatal(err)
	}
	if n := len(gw.calls()); n != 2 {
		t.Errorf("list calls after token swap = %d, want 2", n)
	}

	if err := l.SetSession(context.Background(), auth.Session{UserID: "u2", Token: "other"}); err != nil {
		t.Fatal(err)
	}
	calls := gw.calls()
	if last := calls[len(calls)-1]; last != (listCall{"u2", ""}) {
		t.Errorf("last call = %+v, want u2 at root", last)
	}
	if _, ok := l.CurrentFolder(); ok {
		t.Error("user switch should reset to root")
	}
}

func TestToggleStar(t *testing.T) {
	f := false
	tests := []struct {
		name        string
		result      models.StarResult
		err         error
		wantStarred bool
		wantTitle   string
	}{
		{"confirmed from response", models.StarResult{IsStarred: &f}, nil, false, "Removed from Starred"},
		{"bare response keeps flip", models.StarResult{}, nil, false, "Removed from Starred"},
		{"failure reverts", models.StarResult{}, errors.New("503"), true, "Action Failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := newFakeGateway()
			gw.starResult, gw.starErr = tt.result, tt.err
			l, bus := loaded(t, gw)
			notices := bus.Subscribe(events.EventNotice)

			err := l.ToggleStar(context.Background(), "f2")
			if (err != nil) != (tt.err != nil) {
				t.Fatalf("ToggleStar() error = %v", err)
			}
			e, _ := l.Entry("f2")
			if e.IsStarred != tt.wantStarred {
				t.Errorf("IsStarred = %v, want %v", e.IsStarred, tt.wantStarred)
			}
			if n := nextNotice(t, notices); n.Title != tt.wantTitle {
				t.Errorf("notice = %q, want %q", n.Title, tt.wantTitle)
			}
		})
	}
}

func TestToggleStarUnknownEntry(t *testing.T) {
	l, _ := loaded(t, newFakeGateway())
	if err := l.ToggleStar(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ToggleStar() error = %v, want ErrNotFound", err)
	}
}

func TestToggleTrashMovesBetweenViews(t *testing.T) {
	gw := newFakeGateway()
	gw.trashResult = models.TrashResult{IsTrash: true}
	l, _ := loaded(t, gw)

	if err := l.ToggleTrash(context.Background(), "f2"); err != nil {
		t.Fatalf("ToggleTrash() error = %v", err)
	}

	e, _ := l.Entry("f2")
	if !e.IsTrash {
		t.Error("IsTrash = false, want true")
	}
	if got := ids(SelectView(l.Entries(), TabAll)); !sameIDs(got, []string{"f1"}) {
		t.Errorf("all view = %v, want [f1]", got)
	}
	if got := ids(SelectView(l.Entries(), TabStarred)); len(got) != 0 {
		t.Errorf("starred view = %v, want empty", got)
	}
	if got := ids(SelectView(l.Entries(), TabTrash)); !sameIDs(got, []string{"f2"}) {
		t.Errorf("trash view = %v, want [f2]", got)
	}
	if n := len(gw.calls()); n != 1 {
		t.Errorf("list calls = %d, want no refetch", n)
	}
}

func TestToggleTrashAppliesServerValue(t *testing.T) {
	gw := newFakeGateway()
	// Server says the entry is not in trash even though we flipped it there.
	gw.trashResult = models.TrashResult{IsTrash: false}
	l, _ := loaded(t, gw)

	if err := l.ToggleTrash(context.Background(), "f2"); err != nil {
		t.Fatal(err)
	}
	if e, _ := l.Entry("f2"); e.IsTrash {
		t.Error("IsTrash = true, want server value false")
	}
}

func TestToggleTrashFailureReverts(t *testing.T) {
	gw := newFakeGateway()
	gw.trashErr = errors.New("boom")
	l, _ := loaded(t, gw)

	if err := l.ToggleTrash(context.Background(), "f2"); err == nil {
		t.Fatal("expected error")
	}
	if e, _ := l.Entry("f2"); e.IsTrash {
		t.Error("IsTrash not reverted after failure")
	}
}

func TestDeleteForever(t *testing.T) {
	gw := newFakeGateway()
	l, bus := loaded(t, gw)
	notices := bus.Subscribe(events.EventNotice)

	var shown Prompt
	err := l.DeleteForever(context.Background(), "f2", func(p Prompt) bool {
		shown = p
		return true
	})
	if err != nil {
		t.Fatalf("DeleteForever() error = %v", err)
	}
	if shown.Title != "Confirm Permanent Deletion" || !strings.Contains(shown.Message, `"cat.png"`) {
		t.Errorf("prompt = %+v", shown)
	}
	if _, ok := l.Entry("f2"); ok {
		t.Error("f2 still present after delete")
	}
	for _, tab := range Tabs {
		l.SetTab(tab)
		for _, f := range l.View() {
			if f.ID == "f2" {
				t.Errorf("f2 visible in %s tab", tab)
			}
		}
	}
	if n := nextNotice(t, notices); n.Title != "File Permanently Deleted" {
		t.Errorf("notice = %q", n.Title)
	}
}

func TestDeleteForeverRequiresConfirmation(t *testing.T) {
	gw := newFakeGateway()
	l, _ := loaded(t, gw)

	for _, confirm := range []Confirmer{nil, no} {
		if err := l.DeleteForever(context.Background(), "f2", confirm); !errors.Is(err, ErrNotConfirmed) {
			t.Errorf("DeleteForever() error = %v, want ErrNotConfirmed", err)
		}
	}
	if len(gw.deleted) != 0 {
		t.Errorf("gateway called without confirmation: %v", gw.deleted)
	}
	if _, ok := l.Entry("f2"); !ok {
		t.Error("f2 removed without confirmation")
	}
}

func TestDeleteForeverFailureRetainsEntry(t *testing.T) {
	gw := newFakeGateway()
	gw.deleteErr = errors.New("operation rejected by server")
	l, _ := loaded(t, gw)

	if err := l.DeleteForever(context.Background(), "f2", yes); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := l.Entry("f2"); !ok {
		t.Error("f2 removed despite failure")
	}
}

func TestEmptyTrash(t *testing.T) {
	gw := newFakeGateway()
	gw.lists[""] = append(gw.lists[""],
		models.FileEntry{ID: "t1", IsTrash: true},
		models.FileEntry{ID: "t2", IsTrash: true, IsStarred: true},
	)
	l, _ := loaded(t, gw)

	var shown Prompt
	if err := l.EmptyTrash(context.Background(), func(p Prompt) bool { shown = p; return true }); err != nil {
		t.Fatalf("EmptyTrash() error = %v", err)
	}
	if !strings.Contains(shown.Message, "all 2 items") {
		t.Errorf("prompt = %q", shown.Message)
	}
	if c := l.Counts(); c.Trash != 0 || c.All != 2 {
		t.Errorf("Counts() = %+v", c)
	}
	if gw.emptied != 1 {
		t.Errorf("gateway emptied = %d, want 1", gw.emptied)
	}
}

func TestEmptyTrashNotConfirmed(t *testing.T) {
	gw := newFakeGateway()
	l, _ := loaded(t, gw)
	if err := l.EmptyTrash(context.Background(), no); !errors.Is(err, ErrNotConfirmed) {
		t.Errorf("EmptyTrash() error = %v, want ErrNotConfirmed", err)
	}
	if gw.emptied != 0 {
		t.Error("gateway called without confirmation")
	}
}

func TestEmptyTrashFailureRetainsEntries(t *testing.T) {
	gw := newFakeGateway()
	gw.lists[""] = append(gw.lists[""],
		models.FileEntry{ID: "t1", IsTrash: true},
		models.FileEntry{ID: "t2", IsTrash: true},
	)
	gw.emptyErr = errors.New("operation rejected by server")
	l, bus := loaded(t, gw)
	notices := bus.Subscribe(events.EventNotice)

	if err := l.EmptyTrash(context.Background(), yes); !errors.Is(err, gw.emptyErr) {
		t.Fatalf("EmptyTrash() error = %v, want %v", err, gw.emptyErr)
	}
	if c := l.Counts(); c.Trash != 2 {
		t.Errorf("Counts().Trash = %d, want 2", c.Trash)
	}
	for _, id := range []string{"t1", "t2"} {
		if _, ok := l.Entry(id); !ok {
			t.Errorf("%s removed despite failure", id)
		}
	}
	if n := nextNotice(t, notices); n.Title != "Action Failed" {
		t.Errorf("notice = %+v, want Action Failed", n)
	}
}

type recordingSource struct {
	urls []string
	err  error
}

func (s *recordingSource) Open(ctx context.Context, rawURL string) (*cloud.Object, error) {
	s.urls = append(s.urls, rawURL)
	if s.err != nil {
		return nil, s.err
	}
	return &cloud.Object{Body: io.NopCloser(strings.NewReader("data")), Size: 4}, nil
}

type memSaver struct {
	saved map[string]string
}

func (m *memSaver) Save(ctx context.Context, entry models.FileEntry, obj *cloud.Object) (string, error) {
	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return "", err
	}
	if m.saved == nil {
		m.saved = map[string]string{}
	}
	m.saved[entry.Name] = string(data)
	return "/tmp/" + entry.Name, nil
}

func TestDownload(t *testing.T) {
	gw := newFakeGateway()
	gw.lists[""] = append(gw.lists[""], models.FileEntry{
		ID: "f3", Name: "notes.pdf", Type: "application/pdf", FileURL: "https://cdn.example.com/u1/notes.pdf",
	})
	src := &recordingSource{}
	bus := events.NewEventBus(64)
	defer bus.Close()
	l := NewListing(ListingOptions{
		Gateway:   gw,
		Source:    src,
		Transform: transform.NewBuilder("https://ik.example.com/acme"),
		EventBus:  bus,
		Session:   auth.Session{UserID: "u1"},
	})
	if err := l.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	saver := &memSaver{}
	if _, err := l.Download(context.Background(), "f2", saver); err != nil {
		t.Fatalf("Download(image) error = %v", err)
	}
	if _, err := l.Download(context.Background(), "f3", saver); err != nil {
		t.Fatalf("Download(pdf) error = %v", err)
	}

	want := []string{
		"https://ik.example.com/acme/tr:q-100,orig-true/u1/cat.png",
		"https://cdn.example.com/u1/notes.pdf",
	}
	if !sameIDs(src.urls, want) {
		t.Errorf("opened = %v, want %v", src.urls, want)
	}
	if saver.saved["notes.pdf"] != "data" {
		t.Errorf("saved = %v", saver.saved)
	}

	_, err := l.Download(context.Background(), "f1", saver)
	if !validation.IsValidationError(err) {
		t.Errorf("Download(folder) error = %v, want ValidationError", err)
	}
	if len(src.urls) != 2 {
		t.Error("folder download reached the source")
	}
}

func TestDownloadFailurePublishesNotice(t *testing.T) {
	gw := newFakeGateway()
	bus := events.NewEventBus(64)
	defer bus.Close()
	notices := bus.Subscribe(events.EventNotice)
	l := NewListing(ListingOptions{
		Gateway:   gw,
		Source:    &recordingSource{err: errors.New("404")},
		Transform: transform.NewBuilder("https://ik.example.com"),
		EventBus:  bus,
		Session:   auth.Session{UserID: "u1"},
	})
	_ = l.Load(context.Background())
	before := l.Entries()

	if _, err := l.Download(context.Background(), "f2", &memSaver{}); err == nil {
		t.Fatal("expected error")
	}
	if n := nextNotice(t, notices); n.Title != "Download Failed" {
		t.Errorf("notice = %q", n.Title)
	}
	if after := l.Entries(); len(after) != len(before) {
		t.Error("download failure mutated the listing")
	}
}

func TestActivate(t *testing.T) {
	gw := newFakeGateway()
	gw.lists["f1"] = []models.FileEntry{}
	l, _ := loaded(t, gw)

	act, err := l.Activate(context.Background(), "f2")
	if err != nil {
		t.Fatal(err)
	}
	if act.Kind != ActivatePreview || act.URL != "https://ik.example.com/acme/tr:q-90,w-1600,h-1200,fo-auto/u1/cat.png" {
		t.Errorf("Activate(image) = %+v", act)
	}

	l.SetTab(TabStarred)
	act, _ = l.Activate(context.Background(), "f1")
	if act.Kind != ActivateNone {
		t.Errorf("Activate(folder) in starred = %+v, want none", act)
	}

	l.SetTab(TabAll)
	act, err = l.Activate(context.Background(), "f1")
	if err != nil || act.Kind != ActivateNavigated {
		t.Fatalf("Activate(folder) = %+v, %v", act, err)
	}
	if id, _ := l.CurrentFolder(); id != "f1" {
		t.Errorf("CurrentFolder() = %q, want f1", id)
	}
}

func TestSnapshotEventsPublished(t *testing.T) {
	gw := newFakeGateway()
	l, bus := newTestListing(t, gw)
	changes := bus.Subscribe(EventFileListChanged)

	if err := l.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	select {
	case ev := <-changes:
		snap := ev.(*FileListChangedEvent).Snapshot
		if len(snap.Entries) != 2 || snap.Counts.Starred != 1 || snap.Tab != TabAll {
			t.Errorf("snapshot = %+v", snap)
		}
	case <-time.After(time.Second):
		t.Fatal("no FileListChangedEvent")
	}
}

func TestConcurrentMutations(t *testing.T) {
	gw := newFakeGateway()
	gw.trashResult = models.TrashResult{IsTrash: true}
	l, _ := loaded(t, gw)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(3)
		go func() { defer wg.Done(); _ = l.ToggleStar(context.Background(), "f2") }()
		go func() { defer wg.Done(); _ = l.ToggleTrash(context.Background(), "f1") }()
		go func() { defer wg.Done(); _ = l.BumpRefresh(context.Background()) }()
	}
	wg.Wait()

	if got := len(l.Entries()); got != 2 {
		t.Errorf("Entries() = %d, want 2", got)
	}
}
