package fxrate

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/username/cryptotax/src/logger"
)

// Audit phases. Every upstream call writes a request entry before dispatch
// and then exactly one of response/error, all under one correlation id.
const (
	phaseRequest  = "request"
	phaseResponse = "response"
	phaseError    = "error"
)

// AuditLogger is an append-only sink recording every outbound rate request.
// Writes are serialized through a mutex so concurrent calls never interleave
// partial entries. A write failure is reported to the process log and never
// surfaced to the caller.
type AuditLogger struct {
	mu   sync.Mutex
	file *os.File
	path string
}

// NewAuditLogger opens (creating if needed) the audit log at the given path
// in append mode.
func NewAuditLogger(path string) (*AuditLogger, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening audit log '%s': %w", path, err)
	}
	return &AuditLogger{file: f, path: path}, nil
}

// Close closes the underlying file.
func (a *AuditLogger) Close() error {
	if a == nil {
		return nil
	}
	return a.file.Close()
}

// Request records the parameters of an upstream call before it is dispatched.
func (a *AuditLogger) Request(correlationID, detail string) {
	a.write(correlationID, phaseRequest, detail)
}

// Response records the raw upstream payload of a successful call.
func (a *AuditLogger) Response(correlationID, detail string) {
	a.write(correlationID, phaseResponse, detail)
}

// Error records the failure description of an unsuccessful call.
func (a *AuditLogger) Error(correlationID, detail string) {
	a.write(correlationID, phaseError, detail)
}

// write appends one delimited entry. The entry is assembled up front and
// written with a single call under the mutex so a block is never split.
func (a *AuditLogger) write(correlationID, phase, detail string) {
	if a == nil {
		return
	}
	entry := fmt.Sprintf("---\ntimestamp: %s\ncorrelationId: %s\nphase: %s\ndetail: %s\n---\n",
		time.Now().Format(time.RFC3339Nano), correlationID, phase, detail)

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, err := a.file.WriteString(entry); err != nil {
		if logger.L != nil {
			logger.L.Error("Failed to write audit log entry", "path", a.path, "correlationId", correlationID, "phase", phase, "error", err)
		}
	}
}
