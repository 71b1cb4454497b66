package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"
)

// DownloadUI manages concurrent download progress bars using mpb.
type DownloadUI struct {
	progress   *mpb.Progress
	out        io.Writer
	isTerminal bool
	totalFiles int
	completed  int32
	failed     int32
}

// DownloadFileBar is the progress bar of one download.
type DownloadFileBar struct {
	bar       *mpb.Bar
	ui        *DownloadUI
	index     int
	fileID    string
	name      string
	size      int64
	bytes     atomic.Int64
	startTime time.Time
}

// NewDownloadUI creates a download UI for totalFiles downloads on stderr.
// Bars are drawn only when stderr is a terminal; otherwise one line per
// file is printed.
func NewDownloadUI(totalFiles int) *DownloadUI {
	isTerminal := term.IsTerminal(int(os.Stderr.Fd()))
	if isTerminal {
		enableANSI(os.Stderr)
	}
	return newDownloadUI(totalFiles, os.Stderr, isTerminal)
}

func newDownloadUI(totalFiles int, out io.Writer, isTerminal bool) *DownloadUI {
	var p *mpb.Progress
	if isTerminal {
		p = mpb.New(
			mpb.WithOutput(out),
			mpb.WithRefreshRate(300*time.Millisecond),
			mpb.WithWidth(80),
		)
	} else {
		p = mpb.New(mpb.WithOutput(io.Discard))
	}
	return &DownloadUI{
		progress:   p,
		out:        out,
		isTerminal: isTerminal,
		totalFiles: totalFiles,
	}
}

// AddFileBar creates a bar for one file. size may be zero or negative when
// the server did not send a length.
func (u *DownloadUI) AddFileBar(index int, fileID, name string, size int64) *DownloadFileBar {
	fb := &DownloadFileBar{
		ui:        u,
		index:     index,
		fileID:    fileID,
		name:      name,
		size:      size,
		startTime: time.Now(),
	}

	if u.isTerminal {
		total := size
		if total < 0 {
			total = 0
		}
		fb.bar = u.progress.New(total,
			mpb.BarStyle().Lbound("[").Filler("█").Tip("█").Padding("░").Rbound("]"),
			mpb.PrependDecorators(
				decor.Name(fmt.Sprintf("[%d/%d] %s", index, u.totalFiles, truncateName(name, 32)), decor.WCSyncSpaceR),
			),
			mpb.AppendDecorators(
				decor.CountersKibiByte("% .1f / % .1f", decor.WCSyncSpace),
				decor.Name("  "),
				decor.EwmaSpeed(decor.SizeB1024(0), "% .1f", 60, decor.WCSyncSpace),
				decor.Name("  "),
				decor.OnComplete(decor.EwmaETA(decor.ET_STYLE_GO, 60), "done"),
			),
			mpb.BarRemoveOnComplete(),
		)
	} else {
		fmt.Fprintf(u.out, "Downloading [%d/%d]: %s (%s)\n", index, u.totalFiles, name, formatSize(size))
	}
	return fb
}

// ProxyReader wraps r so reads advance the bar.
func (f *DownloadFileBar) ProxyReader(r io.Reader) io.Reader {
	counted := &countingReader{r: r, n: &f.bytes}
	if f.bar == nil {
		return counted
	}
	return f.bar.ProxyReader(counted)
}

// Complete marks the download finished and prints a summary line above the
// bars. path is where the file landed.
func (f *DownloadFileBar) Complete(path string, err error) {
	elapsed := time.Since(f.startTime)
	n := f.bytes.Load()

	var msg string
	if err == nil {
		if f.bar != nil {
			f.bar.SetTotal(-1, true)
		}
		speed := 0.0
		if secs := elapsed.Seconds(); secs > 0 {
			speed = float64(n) / secs / (1024 * 1024)
		}
		msg = fmt.Sprintf("✓ %s → %s (%s, %s, %.1f MiB/s)\n",
			f.name, truncatePath(path, 2), formatSize(n), elapsed.Round(time.Millisecond), speed)
		atomic.AddInt32(&f.ui.completed, 1)
	} else {
		if f.bar != nil {
			f.bar.Abort(false)
		}
		msg = fmt.Sprintf("✗ %s (%s): %v\n", f.name, f.fileID, err)
		atomic.AddInt32(&f.ui.failed, 1)
	}

	fmt.Fprint(f.ui.Writer(), msg)
}

// Wait blocks until all bars complete.
func (u *DownloadUI) Wait() {
	u.progress.Wait()
}

// Writer returns an io.Writer that prints above the bars.
func (u *DownloadUI) Writer() io.Writer {
	if u.isTerminal {
		return u.progress
	}
	return u.out
}

func (u *DownloadUI) Completed() int { return int(atomic.LoadInt32(&u.completed)) }
func (u *DownloadUI) Failed() int    { return int(atomic.LoadInt32(&u.failed)) }

type countingReader struct {
	r io.Reader
	n *atomic.Int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}

func formatSize(n int64) string {
	if n < 0 {
		return "unknown size"
	}
	return fmt.Sprintf("%.1f MiB", float64(n)/(1024*1024))
}

// truncatePath shortens a path to its last maxComponents components.
// Example: truncatePath("/a/b/c/d/file.txt", 3) → "…/c/d/file.txt"
func truncatePath(path string, maxComponents int) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) <= maxComponents {
		return filepath.Base(path)
	}
	return "…/" + strings.Join(parts[len(parts)-maxComponents:], "/")
}

func truncateName(name string, max int) string {
	r := []rune(name)
	if len(r) <= max {
		return name
	}
	return string(r[:max-1]) + "…"
}
