package ingest

import (
	"fmt"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logMaxSizeMB  = 10
	logMaxBackups = 5
	logMaxAgeDays = 28
)

// FailLog is the pair of durable append-only logs spec.md §4.4 requires: one
// for messages whose store write exhausted its retries, one for unhandled
// handler errors. Grounded on original_source/app/core/monitor.py::handler's
// data/failed_messages.log and data/error_messages.log, rotated the way the
// teacher's internal/utils/logger.go rotates its own output.
type FailLog struct {
	mu       sync.Mutex
	messages *lumberjack.Logger
	errors   *lumberjack.Logger
}

// NewFailLog opens (creating if absent) the rotating log files under dir.
func NewFailLog(dir string) *FailLog {
	return &FailLog{
		messages: &lumberjack.Logger{
			Filename:   dir + "/failed_messages.log",
			MaxSize:    logMaxSizeMB,
			MaxBackups: logMaxBackups,
			MaxAge:     logMaxAgeDays,
		},
		errors: &lumberjack.Logger{
			Filename:   dir + "/error_messages.log",
			MaxSize:    logMaxSizeMB,
			MaxBackups: logMaxBackups,
			MaxAge:     logMaxAgeDays,
		},
	}
}

// Message appends raw, the text of a message whose store write failed after
// every retry (spec.md §4.4 step 4).
func (f *FailLog) Message(raw string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	fmt.Fprintf(f.messages, "[%s] failed message: %s\n", time.Now().Format(time.RFC3339), raw)
}

// Error appends a handler error that must not terminate the loop (spec.md
// §4.4 step 5), together with the first 200 characters of the raw message.
func (f *FailLog) Error(err error, raw string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	fmt.Fprintf(f.errors, "[%s] error: %v, message: %s\n", time.Now().Format(time.RFC3339), err, truncate(raw, 200))
}

// Close flushes and closes both underlying files.
func (f *FailLog) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.messages.Close(); err != nil {
		return err
	}

	return f.errors.Close()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n])
}
