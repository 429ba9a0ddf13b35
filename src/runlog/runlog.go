// Package runlog buffers the detailed log of one pipeline run.
//
// Details are kept in memory while the run is in flight. If the run fails the
// buffer is replayed followed by the error; if it succeeds the buffer is
// dropped and a single summary line is written.
package runlog

import (
	"bytes"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
)

type Run struct {
	ID     string
	logger *log.Logger

	mu  sync.Mutex
	buf bytes.Buffer
}

// Begin starts buffering for a new run with a fresh ID. A nil logger means
// the standard logger.
func Begin(logger *log.Logger) *Run {
	if logger == nil {
		logger = log.Default()
	}
	return &Run{ID: uuid.NewString(), logger: logger}
}

func (r *Run) Appendf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(&r.buf, "[%s] ", r.ID)
	fmt.Fprintf(&r.buf, format, args...)
	r.buf.WriteByte('\n')
}

// Warnf is written immediately, whatever the outcome of the run.
func (r *Run) Warnf(format string, args ...any) {
	r.logger.Printf("[%s] WARN: %s", r.ID, fmt.Sprintf(format, args...))
}

func (r *Run) Success(summary string) {
	r.mu.Lock()
	r.buf.Reset()
	r.mu.Unlock()
	r.logger.Printf("[%s] %s", r.ID, summary)
}

func (r *Run) FlushError(err error) {
	r.mu.Lock()
	details := r.buf.String()
	r.buf.Reset()
	r.mu.Unlock()

	if details != "" {
		r.logger.Print(details)
	}
	r.logger.Printf("[%s] ERROR: %v", r.ID, err)
}
