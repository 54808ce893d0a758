package chordbook

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned when an update or delete targets an entity
	// that exists neither in the cache nor on the server.
	ErrNotFound = errors.New("not found")

	// ErrInvalid wraps entity validation failures.
	ErrInvalid = errors.New("invalid entity")

	// ErrConnectivityUnknown is reported by probes that could not determine
	// reachability. Monitors treat it as offline.
	ErrConnectivityUnknown = errors.New("connectivity unknown")
)

// RemoteError is a non-2xx answer from the server.
type RemoteError struct {
	Op     string
	Status int
	Body   string
}

func (e *RemoteError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: server returned %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: server returned %d: %s", e.Op, e.Status, e.Body)
}

// Is makes a 404 match ErrNotFound.
func (e *RemoteError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Rejected reports whether the server refused the request itself rather than
// failing transiently.
func (e *RemoteError) Rejected() bool {
	switch {
	case e.Status == http.StatusRequestTimeout, e.Status == http.StatusTooManyRequests:
		return false
	default:
		return e.Status >= 400 && e.Status < 500
	}
}

// CorruptRecordError reports a stored record that could not be decoded.
type CorruptRecordError struct {
	Key string
	Err error
}

func (e *CorruptRecordError) Error() string {
	return fmt.Sprintf("corrupt record %q: %v", e.Key, e.Err)
}

func (e *CorruptRecordError) Unwrap() error { return e.Err }

// failureStatus maps a failed online write to the status the local copy gets.
func failureStatus(err error) SyncStatus {
	var re *RemoteError
	if errors.As(err, &re) && re.Rejected() {
		return StatusError
	}
	return StatusPending
}

func notFound(kind Kind, id EntityID) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}
