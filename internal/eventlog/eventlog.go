package eventlog

import (
	"sync"
	"time"

	"github.com/Shocam7/WhichisViz/internal/logger"

	"github.com/sirupsen/logrus"
)

// Severity classifies a log entry
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Entry is one append-only activity-log record
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
}

// Log is the append-only, newest-last activity log shown to the user.
// Appends never block the pipeline: they take a short mutex and, when the
// log is full, drop the oldest entries.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	cap     int
}

const defaultCapacity = 500

// New creates an activity log retaining at most capacity entries.
func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Log{
		entries: make([]Entry, 0, capacity),
		cap:     capacity,
	}
}

// Append records a message. Entries are kept newest-last.
func (l *Log) Append(severity Severity, message string) {
	entry := Entry{
		Timestamp: time.Now(),
		Severity:  severity,
		Message:   message,
	}

	l.mu.Lock()
	if len(l.entries) >= l.cap {
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:len(l.entries)-1]
	}
	l.entries = append(l.entries, entry)
	l.mu.Unlock()

	// Mirror to structured logging
	fields := logrus.Fields{"severity": severity}
	switch severity {
	case SeverityError:
		logger.WithFields(fields).Error(message)
	default:
		logger.WithFields(fields).Info(message)
	}
}

// Info appends an informational entry
func (l *Log) Info(message string) {
	l.Append(SeverityInfo, message)
}

// Success appends a success entry
func (l *Log) Success(message string) {
	l.Append(SeveritySuccess, message)
}

// Error appends an error entry
func (l *Log) Error(message string) {
	l.Append(SeverityError, message)
}

// Entries returns a snapshot of all entries, oldest first.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
