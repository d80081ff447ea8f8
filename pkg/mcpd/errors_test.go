package mcpd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorString(t *testing.T) {
	err := &Error{Kind: KindToolNotFound, Server: "time", Message: "no such tool"}
	assert.Equal(t, `tool not found (server "time"): no such tool`, err.Error())
}

func TestErrorStringWithFields(t *testing.T) {
	err := &Error{
		Kind:    KindToolExecution,
		Server:  "time",
		Message: "invalid arguments",
		Fields:  []FieldError{{Location: "timezone", Message: "unknown zone"}},
	}
	got := err.Error()
	assert.Contains(t, got, `tool execution failed (server "time"): invalid arguments`)
	assert.Contains(t, got, "timezone: unknown zone")
}

func TestErrorStringUnknownKind(t *testing.T) {
	err := &Error{Kind: ErrorKind(42), Message: "mystery"}
	assert.Equal(t, "daemon error: mystery", err.Error())
}

func TestRetryable(t *testing.T) {
	assert.True(t, (&Error{Kind: KindConnection}).retryable())
	for _, kind := range []ErrorKind{
		KindUnknown, KindToolNotFound, KindToolExecution, KindServerNotFound,
		KindServerUnhealthy, KindAuthentication, KindTimeout,
	} {
		assert.False(t, (&Error{Kind: kind}).retryable(), "kind %d", kind)
	}
}
