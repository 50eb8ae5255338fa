// Package apperrors defines the error kinds surfaced by the query engine.
package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotConnected       = errors.New("adapter not connected")
	ErrUnknownEngine      = errors.New("unknown engine type")
	ErrTableNotFound      = errors.New("table not found")
	ErrEmptyQuery         = errors.New("empty query")
	ErrMultipleStatements = errors.New("multiple SQL statements not allowed; only single statements are permitted")
)

// ConnectError indicates an adapter could not establish its connection pool.
// Fatal at startup; this layer never retries it.
type ConnectError struct {
	Engine string
	Err    error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect to %s: %v", e.Engine, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// RejectedQueryError indicates the candidate query matched a deny-list rule
// or is not a single SELECT statement. Never retried: retrying a rejected
// query cannot succeed.
type RejectedQueryError struct {
	Reason string
}

func (e *RejectedQueryError) Error() string {
	return fmt.Sprintf("query rejected: %s", e.Reason)
}

// AccessDeniedError indicates the query references tables outside the
// caller-supplied allow-list. Tables holds exactly the unauthorized names.
type AccessDeniedError struct {
	Tables []string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied to tables: %s", strings.Join(e.Tables, ", "))
}

// ExecutionError wraps an engine-level failure during a validated, authorized
// query. The caller decides whether to retry.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("query execution failed: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// IsRejected reports whether err is a RejectedQueryError anywhere in its chain.
func IsRejected(err error) bool {
	var rejected *RejectedQueryError
	return errors.As(err, &rejected)
}

// IsAccessDenied reports whether err is an AccessDeniedError anywhere in its chain.
func IsAccessDenied(err error) bool {
	var denied *AccessDeniedError
	return errors.As(err, &denied)
}
