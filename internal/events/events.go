// Package events provides the in-process event bus shared by the listing
// controller, the upload controller and the presentation layers.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/filedash/filedash/internal/constants"
)

// EventType defines the types of events that can be emitted
type EventType string

const (
	EventProgress      EventType = "progress"
	EventLog           EventType = "log"
	EventNotice        EventType = "notice"         // user-visible toast
	EventConfigChanged EventType = "config_changed" // token or user changed
)

// LogLevel defines log severity levels
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// NoticeLevel classifies a user-visible notice.
type NoticeLevel int

const (
	NoticeSuccess NoticeLevel = iota
	NoticeInfo
	NoticeError
)

func (l NoticeLevel) String() string {
	switch l {
	case NoticeSuccess:
		return "success"
	case NoticeInfo:
		return "info"
	case NoticeError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// NewBase stamps a BaseEvent with the current time.
func NewBase(t EventType) BaseEvent {
	return BaseEvent{EventType: t, Time: time.Now()}
}

// ProgressEvent reports transfer progress for an upload or download.
type ProgressEvent struct {
	BaseEvent
	Name         string  // file being transferred
	Stage        string  // "upload" or "download"
	Percent      float64 // 0 to 100
	BytesCurrent int64
	BytesTotal   int64
}

// LogEvent represents log messages
type LogEvent struct {
	BaseEvent
	Level   LogLevel
	Message string
	Error   error
}

// NoticeEvent is a transient, user-visible message.
type NoticeEvent struct {
	BaseEvent
	Level       NoticeLevel
	Title       string
	Description string
}

// ConfigChangedEvent is published when the session identity changes.
// Subscribers should drop cached listings.
type ConfigChangedEvent struct {
	BaseEvent
	Source string // what changed it: "session" or a token source such as "flag"
	UserID string
}

// EventBus manages event subscriptions and publishing
type EventBus struct {
	subscribers   map[EventType][]chan Event
	all           []chan Event // Subscribers to all events
	mu            sync.RWMutex
	bufferSize    int
	closed        bool
	droppedEvents atomic.Int64
}

// NewEventBus creates a new event bus with specified buffer size
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = constants.EventBusDefaultBuffer
	}
	if bufferSize > constants.EventBusMaxBuffer {
		bufferSize = constants.EventBusMaxBuffer
	}

	return &EventBus{
		subscribers: make(map[EventType][]chan Event),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a subscription to a specific event type
func (eb *EventBus) Subscribe(eventType EventType) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	ch := make(chan Event, eb.bufferSize)
	if eb.closed {
		close(ch)
		return ch
	}
	eb.subscribers[eventType] = append(eb.subscribers[eventType], ch)
	return ch
}

// SubscribeAll creates a subscription to all events
func (eb *EventBus) SubscribeAll() <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	ch := make(chan Event, eb.bufferSize)
	if eb.closed {
		close(ch)
		return ch
	}
	eb.all = append(eb.all, ch)
	return ch
}

// Publish sends an event to all subscribers. Never blocks: a full
// subscriber channel drops the event and bumps the dropped counter.
// Publishing on a nil bus is a no-op.
func (eb *EventBus) Publish(event Event) {
	if eb == nil {
		return
	}
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}

	for _, ch := range eb.subscribers[event.Type()] {
		eb.offer(ch, event)
	}
	for _, ch := range eb.all {
		eb.offer(ch, event)
	}
}

func (eb *EventBus) offer(ch chan Event, event Event) {
	select {
	case ch <- event:
	default:
		eb.droppedEvents.Add(1)
	}
}

// Close shuts down the event bus and closes all channels
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}
	eb.closed = true

	for _, channels := range eb.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}
	for _, ch := range eb.all {
		close(ch)
	}
}

// Unsubscribe removes a subscription channel, whether it was registered for a
// single type or for all events. The channel is closed.
func (eb *EventBus) Unsubscribe(ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	for eventType, subs := range eb.subscribers {
		if kept, found := removeChan(subs, ch); found {
			eb.subscribers[eventType] = kept
			return
		}
	}
	if kept, found := removeChan(eb.all, ch); found {
		eb.all = kept
	}
}

func removeChan(list []chan Event, ch <-chan Event) ([]chan Event, bool) {
	for i, c := range list {
		if c == ch {
			close(c)
			list[i] = list[len(list)-1]
			return list[:len(list)-1], true
		}
	}
	return list, false
}

// PublishLog is a convenience method for publishing log events
func (eb *EventBus) PublishLog(level LogLevel, message string, err error) {
	eb.Publish(&LogEvent{
		BaseEvent: NewBase(EventLog),
		Level:     level,
		Message:   message,
		Error:     err,
	})
}

// PublishNotice is a convenience method for publishing notices
func (eb *EventBus) PublishNotice(level NoticeLevel, title, description string) {
	eb.Publish(&NoticeEvent{
		BaseEvent:   NewBase(EventNotice),
		Level:       level,
		Title:       title,
		Description: description,
	})
}

// PublishProgress is a convenience method for publishing progress events
func (eb *EventBus) PublishProgress(name, stage string, current, total int64) {
	pct := 0.0
	if total > 0 {
		pct = float64(current) / float64(total) * 100
	}
	eb.Publish(&ProgressEvent{
		BaseEvent:    NewBase(EventProgress),
		Name:         name,
		Stage:        stage,
		Percent:      pct,
		BytesCurrent: current,
		BytesTotal:   total,
	})
}

// GetDroppedEventCount returns the total number of events dropped due to full buffers
func (eb *EventBus) GetDroppedEventCount() int64 {
	return eb.droppedEvents.Load()
}
