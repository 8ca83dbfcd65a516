// Package trace is an opt-in, rotating debug log of job-lifecycle and
// signal events (job created, process reaped, state transition,
// terminal handoff). It exists because the reaper (internal/reaper)
// is inherently racy and hard to debug from stderr alone; the trace
// file gives a post-mortem record without adding noise to normal
// interactive use. Grounded on loykin-provisr's use of
// gopkg.in/natefinch/lumberjack.v2 for its own process-supervisor
// logs.
package trace

import (
	"fmt"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Sink writes timestamped trace lines to a rotating file. A nil *Sink
// (what Open returns for an empty path) is a safe no-op, so call sites
// don't need to check whether tracing is enabled.
type Sink struct {
	mu  sync.Mutex
	out *lumberjack.Logger
}

// Open returns a Sink writing to path with rotation, or nil (and a
// nil error) if path is empty, meaning tracing is disabled.
func Open(path string) (*Sink, error) {
	if path == "" {
		return nil, nil
	}
	return &Sink{
		out: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    5, // megabytes
			MaxBackups: 3,
			MaxAge:     7, // days
			Compress:   true,
		},
	}, nil
}

// Eventf appends one trace line. Safe to call on a nil *Sink.
func (s *Sink) Eventf(format string, args ...any) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "%s "+format+"\n", append([]any{time.Now().Format(time.RFC3339Nano)}, args...)...)
}

// Close flushes and closes the underlying rotating file. Safe to call
// on a nil *Sink.
func (s *Sink) Close() error {
	if s == nil {
		return nil
	}
	return s.out.Close()
}
