// Package progress provides a unified interface for progress reporting
// across CLI (progress bars) and TUI (event bus) modes.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/filedash/filedash/internal/events"
)

// Reporter is the interface for reporting progress in both CLI and TUI modes.
type Reporter interface {
	Start(total int64, description string)
	Update(current int64)
	Finish()
	Error(err error)
	SetDescription(desc string)
}

// CLIProgress implements progress reporting for CLI mode using progress bars.
type CLIProgress struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

// NewCLIProgress creates a CLI progress reporter drawing on stderr.
func NewCLIProgress() *CLIProgress {
	return NewCLIProgressTo(os.Stderr)
}

// NewCLIProgressTo creates a CLI progress reporter drawing on out.
func NewCLIProgressTo(out io.Writer) *CLIProgress {
	return &CLIProgress{out: out}
}

// Start initializes the progress bar with total size and description.
func (p *CLIProgress) Start(total int64, description string) {
	p.bar = progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(p.out, "\n")
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// Update updates the progress bar to the current position.
func (p *CLIProgress) Update(current int64) {
	if p.bar != nil {
		_ = p.bar.Set64(current)
	}
}

// Finish completes the progress bar.
func (p *CLIProgress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

// Error displays an error message.
func (p *CLIProgress) Error(err error) {
	if err != nil {
		fmt.Fprintf(p.out, "\nError: %v\n", err)
	}
}

// SetDescription updates the progress bar description.
func (p *CLIProgress) SetDescription(desc string) {
	if p.bar != nil {
		p.bar.Describe(desc)
	}
}

// EventProgress publishes progress on the event bus for the TUI.
type EventProgress struct {
	eventBus *events.EventBus
	name     string
	stage    string

	mu    sync.Mutex
	total int64
}

// NewEventProgress creates a reporter for one transfer; stage is "upload" or
// "download".
func NewEventProgress(eventBus *events.EventBus, name, stage string) *EventProgress {
	return &EventProgress{eventBus: eventBus, name: name, stage: stage}
}

func (p *EventProgress) Start(total int64, description string) {
	p.mu.Lock()
	p.total = total
	p.mu.Unlock()
	p.eventBus.PublishProgress(p.name, p.stage, 0, total)
}

func (p *EventProgress) Update(current int64) {
	p.mu.Lock()
	total := p.total
	p.mu.Unlock()
	p.eventBus.PublishProgress(p.name, p.stage, current, total)
}

func (p *EventProgress) Finish() {
	p.mu.Lock()
	total := p.total
	p.mu.Unlock()
	p.eventBus.PublishProgress(p.name, p.stage, total, total)
}

func (p *EventProgress) Error(err error) {
	if err != nil {
		p.eventBus.PublishLog(events.ErrorLevel, fmt.Sprintf("%s of %s failed", p.stage, p.name), err)
	}
}

func (p *EventProgress) SetDescription(desc string) {}

// NoOpProgress is a progress reporter that does nothing (for background/silent operations).
type NoOpProgress struct{}

// NewNoOpProgress creates a new no-op progress reporter.
func NewNoOpProgress() *NoOpProgress {
	return &NoOpProgress{}
}

func (p *NoOpProgress) Start(total int64, description string) {}
func (p *NoOpProgress) Update(current int64)                  {}
func (p *NoOpProgress) Finish()                               {}
func (p *NoOpProgress) Error(err error)                       {}
func (p *NoOpProgress) SetDescription(desc string)            {}

// ProgressReader wraps an io.Reader to report progress.
type ProgressReader struct {
	reader   io.Reader
	reporter Reporter
	total    int64
	current  int64
}

// NewProgressReader creates a new progress-reporting reader.
func NewProgressReader(reader io.Reader, total int64, reporter Reporter) *ProgressReader {
	return &ProgressReader{
		reader:   reader,
		reporter: reporter,
		total:    total,
	}
}

// Read implements io.Reader interface with progress reporting.
func (pr *ProgressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.current += int64(n)
		pr.reporter.Update(pr.current)
	}
	return n, err
}

// ProgressWriter wraps an io.Writer to report progress.
type ProgressWriter struct {
	writer   io.Writer
	reporter Reporter
	current  int64
}

func NewProgressWriter(writer io.Writer, reporter Reporter) *ProgressWriter {
	return &ProgressWriter{writer: writer, reporter: reporter}
}

func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.writer.Write(p)
	if n > 0 {
		pw.current += int64(n)
		pw.reporter.Update(pw.current)
	}
	return n, err
}

// Percent converts a byte count into 0-100, clamped.
func Percent(current, total int64) int {
	if total <= 0 {
		return 0
	}
	pct := int(current * 100 / total)
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}
