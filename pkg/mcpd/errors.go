package mcpd

import (
	"fmt"
	"strings"
)

// ErrorKind enumerates the daemon error taxonomy. The set is closed on
// purpose: consumers switch over it exhaustively and keep a default arm for
// kinds added in later daemon versions.
type ErrorKind int

const (
	// KindUnknown covers daemon failures that fit no other kind.
	KindUnknown ErrorKind = iota
	// KindToolNotFound means the named tool does not exist on the server.
	KindToolNotFound
	// KindToolExecution means the tool ran and failed, possibly with
	// field-level validation errors attached.
	KindToolExecution
	// KindServerNotFound means the server is not configured in the daemon.
	KindServerNotFound
	// KindServerUnhealthy means the server exists but is currently failing
	// its health checks.
	KindServerUnhealthy
	// KindConnection means the daemon itself could not be reached.
	KindConnection
	// KindAuthentication means the daemon rejected the configured credential.
	KindAuthentication
	// KindTimeout means the operation exceeded its allotted time.
	KindTimeout
)

// FieldError is a single field-level validation failure nested inside a tool
// execution error, as reported by the backend server.
type FieldError struct {
	Location string `json:"loc"`
	Message  string `json:"msg"`
}

// Error is the typed failure returned by every Client method. Server is the
// backend the call targeted, empty for daemon-level failures.
type Error struct {
	Kind    ErrorKind
	Server  string
	Message string
	Fields  []FieldError
}

func (e *Error) Error() string {
	var b strings.Builder
	switch e.Kind {
	case KindToolNotFound:
		b.WriteString("tool not found")
	case KindToolExecution:
		b.WriteString("tool execution failed")
	case KindServerNotFound:
		b.WriteString("server not found")
	case KindServerUnhealthy:
		b.WriteString("server unhealthy")
	case KindConnection:
		b.WriteString("connection failed")
	case KindAuthentication:
		b.WriteString("authentication failed")
	case KindTimeout:
		b.WriteString("operation timed out")
	default:
		b.WriteString("daemon error")
	}
	if e.Server != "" {
		fmt.Fprintf(&b, " (server %q)", e.Server)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	for _, f := range e.Fields {
		fmt.Fprintf(&b, "\n  %s: %s", f.Location, f.Message)
	}
	return b.String()
}

// retryable reports whether the failure is transient at the transport level.
// Only daemon connectivity problems qualify; typed API outcomes (including
// unhealthy servers) are states, not glitches.
func (e *Error) retryable() bool {
	return e.Kind == KindConnection
}
