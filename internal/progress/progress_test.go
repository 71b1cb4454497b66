package progress

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/filedash/filedash/internal/events"
)

type recorder struct {
	updates []int64
}

func (r *recorder) Start(total int64, description string) {}
func (r *recorder) Update(current int64)                  { r.updates = append(r.updates, current) }
func (r *recorder) Finish()                               {}
func (r *recorder) Error(err error)                       {}
func (r *recorder) SetDescription(desc string)            {}

func TestProgressReader(t *testing.T) {
	rec := &recorder{}
	pr := NewProgressReader(strings.NewReader("hello world"), 11, rec)

	buf := make([]byte, 4)
	var got bytes.Buffer
	for {
		n, err := pr.Read(buf)
		got.Write(buf[:n])
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
	}

	if got.String() != "hello world" {
		t.Errorf("read = %q", got.String())
	}
	want := []int64{4, 8, 11}
	if len(rec.updates) != len(want) {
		t.Fatalf("updates = %v, want %v", rec.updates, want)
	}
	for i := range want {
		if rec.updates[i] != want[i] {
			t.Errorf("updates[%d] = %d, want %d", i, rec.updates[i], want[i])
		}
	}
}

func TestProgressWriter(t *testing.T) {
	rec := &recorder{}
	var out bytes.Buffer
	pw := NewProgressWriter(&out, rec)

	pw.Write([]byte("abc"))
	pw.Write([]byte("de"))

	if out.String() != "abcde" {
		t.Errorf("written = %q", out.String())
	}
	if last := rec.updates[len(rec.updates)-1]; last != 5 {
		t.Errorf("last update = %d, want 5", last)
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		current, total int64
		want           int
	}{
		{0, 100, 0},
		{50, 100, 50},
		{100, 100, 100},
		{150, 100, 100},
		{10, 0, 0},
		{1, 3, 33},
	}
	for _, tt := range tests {
		if got := Percent(tt.current, tt.total); got != tt.want {
			t.Errorf("Percent(%d, %d) = %d, want %d", tt.current, tt.total, got, tt.want)
		}
	}
}

func TestEventProgress(t *testing.T) {
	bus := events.NewEventBus(16)
	defer bus.Close()
	ch := bus.Subscribe(events.EventProgress)

	p := NewEventProgress(bus, "cat.png", "upload")
	p.Start(200, "Uploading cat.png")
	p.Update(50)
	p.Finish()

	wantPct := []float64{0, 25, 100}
	for i, want := range wantPct {
		select {
		case ev := <-ch:
			pe := ev.(*events.ProgressEvent)
			if pe.Percent != want || pe.Name != "cat.png" || pe.Stage != "upload" {
				t.Errorf("event %d = %+v, want %.0f%%", i, pe, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("event %d not published", i)
		}
	}
}

func TestEventProgressNilBus(t *testing.T) {
	p := NewEventProgress(nil, "x", "download")
	p.Start(1, "")
	p.Update(1)
	p.Finish()
	p.Error(errors.New("boom"))
}

func TestCLIProgressWritesToOut(t *testing.T) {
	var out bytes.Buffer
	p := NewCLIProgressTo(&out)
	p.Start(10, "Uploading")
	p.Update(10)
	p.Finish()
	p.Error(errors.New("disk full"))

	if !strings.Contains(out.String(), "Error: disk full") {
		t.Errorf("output = %q, want error line", out.String())
	}
}

func TestDownloadUINonTerminal(t *testing.T) {
	var out bytes.Buffer
	ui := newDownloadUI(2, &out, false)

	ok := ui.AddFileBar(1, "f1", "cat.png", 4)
	data, err := io.ReadAll(ok.ProxyReader(strings.NewReader("meow")))
	if err != nil || string(data) != "meow" {
		t.Fatalf("ProxyReader read %q, %v", data, err)
	}
	ok.Complete("/tmp/downloads/cat.png", nil)

	bad := ui.AddFileBar(2, "f2", "gone.pdf", -1)
	bad.Complete("", errors.New("404"))
	ui.Wait()

	s := out.String()
	for _, want := range []string{
		"Downloading [1/2]: cat.png",
		"Downloading [2/2]: gone.pdf (unknown size)",
		"✓ cat.png → …/downloads/cat.png",
		"✗ gone.pdf (f2): 404",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q:\n%s", want, s)
		}
	}
	if ui.Completed() != 1 || ui.Failed() != 1 {
		t.Errorf("Completed/Failed = %d/%d, want 1/1", ui.Completed(), ui.Failed())
	}
}

func TestTruncatePath(t *testing.T) {
	tests := []struct {
		path string
		n    int
		want string
	}{
		{"/a/b/c/d/file.txt", 3, "…/c/d/file.txt"},
		{"file.txt", 2, "file.txt"},
		{"dir/file.txt", 2, "file.txt"},
	}
	for _, tt := range tests {
		if got := truncatePath(tt.path, tt.n); got != tt.want {
			t.Errorf("truncatePath(%q, %d) = %q, want %q", tt.path, tt.n, got, tt.want)
		}
	}
}
