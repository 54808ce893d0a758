package app

import (
	"strings"
	"time"
)

// Operation is one CLI invocation. Its ID tags every log line the
// invocation writes so interleaved runs can be told apart.
type Operation struct {
	ID      string
	Name    string
	Started time.Time
	Status  string // "success" or "error"
}

// NewOperation creates an operation named after the command being run
// (e.g. "CreatePlaybook", "Sync").
func NewOperation(name string, now time.Time) *Operation {
	now = now.UTC()
	return &Operation{
		ID:      now.Format("20060102T150405Z") + "-" + strings.ToLower(name),
		Name:    name,
		Started: now,
		Status:  "success",
	}
}

// Fail marks the operation as failed when err is non-nil and returns err.
func (op *Operation) Fail(err error) error {
	if err != nil {
		op.Status = "error"
	}
	return err
}

// Elapsed returns the time since the operation started.
func (op *Operation) Elapsed(now time.Time) time.Duration {
	return now.Sub(op.Started)
}
