package core

import (
	"errors"
	"fmt"
)

// ErrBillNotFound is returned when an operation names a bill that is
// not in the ledger.
var ErrBillNotFound = errors.New("bill not found")

// PersistenceError wraps a failed read or write against the active
// backing store. The triggering operation is reported failed as a
// whole and in-memory state is left untouched.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// GatewayError wraps a failed notification gateway call. Gateway
// failures are logged and never surfaced to the caller of a bill
// mutation; a missed reminder is degraded functionality, not a ledger
// error.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway failure during %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// SyncError wraps a failed session transition. The session falls back
// to its previous backing store without losing cached data; migration
// retries on the next sign-in event, never on a timer.
type SyncError struct {
	Stage string
	Err   error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync failure during %s: %v", e.Stage, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }
